// file: config/config.go

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the complete token-keeper configuration
type Config struct {
	Logging     LogConfig          `mapstructure:"logging" yaml:"logging"`
	Metrics     MetricsConfig      `mapstructure:"metrics" yaml:"metrics"`
	Sink        SinkConfig         `mapstructure:"sink" yaml:"sink"`
	Credentials []CredentialConfig `mapstructure:"credentials" yaml:"credentials"`
}

// LogConfig controls the zap logger
type LogConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`           // debug, info, warn, error
	OutputPath string `mapstructure:"outputPath" yaml:"outputPath"` // file path or "stdout"
	Encoding   string `mapstructure:"encoding" yaml:"encoding"`     // json or console
}

// MetricsConfig for optional Prometheus metrics
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Address string `mapstructure:"address" yaml:"address"`
}

// SinkConfig defines the optional NATS KV token sink.
// When enabled, every refreshed token is published to the KV bucket so
// downstream processes can pick it up.
type SinkConfig struct {
	Enabled   bool     `mapstructure:"enabled" yaml:"enabled"`
	URLs      []string `mapstructure:"urls" yaml:"urls"`
	Bucket    string   `mapstructure:"bucket" yaml:"bucket"`
	KeyPrefix string   `mapstructure:"keyPrefix" yaml:"keyPrefix"`

	Username  string `mapstructure:"username" yaml:"username"`
	Password  string `mapstructure:"password" yaml:"password"`
	Token     string `mapstructure:"token" yaml:"token"`
	NKeySeed  string `mapstructure:"nkeySeed" yaml:"nkeySeed"` // path to an nkey seed file
	CredsFile string `mapstructure:"credsFile" yaml:"credsFile"`

	TLS TLSConfig `mapstructure:"tls" yaml:"tls"`
}

// TLSConfig for the sink connection
type TLSConfig struct {
	Enable   bool   `mapstructure:"enable" yaml:"enable"`
	CertFile string `mapstructure:"certFile" yaml:"certFile"`
	KeyFile  string `mapstructure:"keyFile" yaml:"keyFile"`
	CAFile   string `mapstructure:"caFile" yaml:"caFile"`
	Insecure bool   `mapstructure:"insecure" yaml:"insecure"`
}

// CredentialConfig defines one managed credential
type CredentialConfig struct {
	Name    string `mapstructure:"name" yaml:"name"`
	Type    string `mapstructure:"type" yaml:"type"` // "oauth2" or "endpoint"
	SinkKey string `mapstructure:"sinkKey" yaml:"sinkKey"`

	// Common fetch/refresh knobs. Durations are strings ("10ms", "30s").
	MaxRetries       int    `mapstructure:"maxRetries" yaml:"maxRetries"` // <= 0 uses the default of 3
	RetryInterval    string `mapstructure:"retryInterval" yaml:"retryInterval"`
	RefreshTolerance string `mapstructure:"refreshTolerance" yaml:"refreshTolerance"`
	RequestTimeout   string `mapstructure:"requestTimeout" yaml:"requestTimeout"`
	DisableRefresh   bool   `mapstructure:"disableRefresh" yaml:"disableRefresh"`

	// OAuth2 client-credentials fields
	TokenURL     string            `mapstructure:"tokenUrl" yaml:"tokenUrl"`
	ClientID     string            `mapstructure:"clientId" yaml:"clientId"`
	ClientSecret string            `mapstructure:"clientSecret" yaml:"clientSecret"`
	Scopes       []string          `mapstructure:"scopes" yaml:"scopes"`
	ExtraParams  map[string]string `mapstructure:"extraParams" yaml:"extraParams"`

	// Custom endpoint fields
	AuthURL    string            `mapstructure:"authUrl" yaml:"authUrl"`
	Method     string            `mapstructure:"method" yaml:"method"`
	Headers    map[string]string `mapstructure:"headers" yaml:"headers"`
	Body       string            `mapstructure:"body" yaml:"body"`
	TokenPath  string            `mapstructure:"tokenPath" yaml:"tokenPath"`
	ExpiryPath string            `mapstructure:"expiryPath" yaml:"expiryPath"`
}

// Load reads configuration from file using Viper
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)

	// Environment variable support
	v.SetEnvPrefix("TOKEN_KEEPER")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// setDefaults applies sensible defaults
func setDefaults(cfg *Config) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Encoding == "" {
		cfg.Logging.Encoding = "json"
	}
	if cfg.Logging.OutputPath == "" {
		cfg.Logging.OutputPath = "stdout"
	}
	if cfg.Metrics.Address == "" {
		cfg.Metrics.Address = ":2113"
	}
	if cfg.Sink.Enabled {
		if len(cfg.Sink.URLs) == 0 {
			cfg.Sink.URLs = []string{"nats://localhost:4222"}
		}
		if cfg.Sink.Bucket == "" {
			cfg.Sink.Bucket = "tokens"
		}
	}
	for i := range cfg.Credentials {
		c := &cfg.Credentials[i]
		if c.SinkKey == "" {
			c.SinkKey = c.Name
		}
		if c.Type == "endpoint" && c.Method == "" {
			c.Method = "POST"
		}
	}
}

// validate ensures configuration is valid
func validate(cfg *Config) error {
	if len(cfg.Credentials) == 0 {
		return fmt.Errorf("at least one credential required")
	}

	seenNames := make(map[string]bool)
	for i, c := range cfg.Credentials {
		if c.Name == "" {
			return fmt.Errorf("credential %d: name is required", i)
		}
		if seenNames[c.Name] {
			return fmt.Errorf("credential %d: duplicate name '%s'", i, c.Name)
		}
		seenNames[c.Name] = true

		if c.Type != "oauth2" && c.Type != "endpoint" {
			return fmt.Errorf("credential %s: invalid type '%s' (must be 'oauth2' or 'endpoint')", c.Name, c.Type)
		}

		for field, value := range map[string]string{
			"retryInterval":    c.RetryInterval,
			"refreshTolerance": c.RefreshTolerance,
			"requestTimeout":   c.RequestTimeout,
		} {
			if value == "" {
				continue
			}
			if _, err := time.ParseDuration(value); err != nil {
				return fmt.Errorf("credential %s: invalid %s duration: %w", c.Name, field, err)
			}
		}

		switch c.Type {
		case "oauth2":
			if c.TokenURL == "" {
				return fmt.Errorf("credential %s: tokenUrl required for oauth2", c.Name)
			}
			if c.ClientID == "" {
				return fmt.Errorf("credential %s: clientId required for oauth2", c.Name)
			}
			if c.ClientSecret == "" {
				return fmt.Errorf("credential %s: clientSecret required for oauth2", c.Name)
			}
		case "endpoint":
			if c.AuthURL == "" {
				return fmt.Errorf("credential %s: authUrl required for endpoint", c.Name)
			}
			if c.TokenPath == "" {
				return fmt.Errorf("credential %s: tokenPath required for endpoint", c.Name)
			}
		}
	}

	if cfg.Sink.Enabled {
		if len(cfg.Sink.URLs) == 0 {
			return fmt.Errorf("at least one sink URL required")
		}
		if cfg.Sink.Bucket == "" {
			return fmt.Errorf("sink bucket name cannot be empty")
		}

		// Auth method validation (only one allowed)
		authCount := 0
		if cfg.Sink.Username != "" {
			authCount++
		}
		if cfg.Sink.Token != "" {
			authCount++
		}
		if cfg.Sink.NKeySeed != "" {
			authCount++
		}
		if cfg.Sink.CredsFile != "" {
			authCount++
		}
		if authCount > 1 {
			return fmt.Errorf("only one sink auth method allowed")
		}

		if cfg.Sink.TLS.Enable {
			if cfg.Sink.TLS.CertFile != "" && cfg.Sink.TLS.KeyFile == "" {
				return fmt.Errorf("sink TLS key file required when cert file provided")
			}
			if cfg.Sink.TLS.KeyFile != "" && cfg.Sink.TLS.CertFile == "" {
				return fmt.Errorf("sink TLS cert file required when key file provided")
			}
		}

		if cfg.Sink.CredsFile != "" {
			if _, err := os.Stat(cfg.Sink.CredsFile); os.IsNotExist(err) {
				return fmt.Errorf("sink creds file does not exist: %s", cfg.Sink.CredsFile)
			}
		}
		if cfg.Sink.NKeySeed != "" {
			if _, err := os.Stat(cfg.Sink.NKeySeed); os.IsNotExist(err) {
				return fmt.Errorf("sink nkey seed file does not exist: %s", cfg.Sink.NKeySeed)
			}
		}
	}

	return nil
}

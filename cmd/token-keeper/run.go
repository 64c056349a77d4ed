// file: cmd/token-keeper/run.go

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"token-keeper/config"
	"token-keeper/internal/authorizer"
	"token-keeper/internal/logger"
	"token-keeper/internal/metrics"
	"token-keeper/internal/sink"
)

// Timeout constants for daemon shutdown
const (
	// shutdownTimeout is the maximum time to wait for graceful shutdown
	shutdownTimeout = 10 * time.Second

	// sinkPublishTimeout bounds a single KV publish from a refresh hook
	sinkPublishTimeout = 10 * time.Second
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the token-keeper daemon",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run()
	},
}

func run() error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	appLogger, err := logger.NewLogger(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer appLogger.Sync()

	instanceID := uuid.NewString()
	appLogger.Info("token-keeper starting",
		"instance", instanceID,
		"credentials", len(cfg.Credentials))

	// Metrics
	var m *metrics.Metrics
	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		m, err = metrics.NewMetrics(reg)
		if err != nil {
			return fmt.Errorf("failed to create metrics: %w", err)
		}

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		metricsServer = &http.Server{Addr: cfg.Metrics.Address, Handler: mux}

		go func() {
			appLogger.Info("starting metrics server", "address", cfg.Metrics.Address)
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				appLogger.Error("metrics server error", "error", err)
			}
		}()
	} else {
		appLogger.Info("metrics are disabled")
	}

	// Token sink
	var tokenSink *sink.Sink
	if cfg.Sink.Enabled {
		tokenSink, err = sink.NewSink(&cfg.Sink, appLogger)
		if err != nil {
			return fmt.Errorf("failed to create token sink: %w", err)
		}
		defer tokenSink.Close()
	}

	// Build one authorizer per credential. Construction fetches the
	// initial token synchronously, so a dead endpoint fails startup.
	ctx := context.Background()
	authorizers := make([]*authorizer.ManagedAuthorizer, 0, len(cfg.Credentials))
	defer func() {
		for _, a := range authorizers {
			a.Close()
		}
	}()

	for _, c := range cfg.Credentials {
		a, err := buildAuthorizer(ctx, c, appLogger, m, tokenSink)
		if err != nil {
			return fmt.Errorf("credential %s: %w", c.Name, err)
		}
		authorizers = append(authorizers, a)
		appLogger.Info("credential ready", "name", c.Name, "type", c.Type)
	}

	appLogger.Info("token-keeper running",
		"instance", instanceID,
		"sinkEnabled", cfg.Sink.Enabled)

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	appLogger.Info("shutdown signal received, stopping...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	for _, a := range authorizers {
		a.Close()
	}
	authorizers = nil

	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			appLogger.Error("metrics server shutdown error", "error", err)
		}
	}

	appLogger.Info("shutdown complete")
	return nil
}

// buildAuthorizer creates a ManagedAuthorizer from one credential config.
func buildAuthorizer(
	ctx context.Context,
	c config.CredentialConfig,
	log *logger.Logger,
	m *metrics.Metrics,
	tokenSink *sink.Sink,
) (*authorizer.ManagedAuthorizer, error) {
	opts := []authorizer.Option{
		authorizer.WithName(c.Name),
		authorizer.WithLogger(log),
	}
	if m != nil {
		opts = append(opts, authorizer.WithMetrics(m))
	}
	if c.MaxRetries > 0 {
		opts = append(opts, authorizer.WithMaxRetries(c.MaxRetries))
	}
	if d, ok := parseDuration(c.RetryInterval); ok {
		opts = append(opts, authorizer.WithRetryInterval(d))
	}
	if d, ok := parseDuration(c.RefreshTolerance); ok {
		opts = append(opts, authorizer.WithRefreshTolerance(d))
	}
	if d, ok := parseDuration(c.RequestTimeout); ok {
		opts = append(opts, authorizer.WithRequestTimeout(d))
	}
	if c.DisableRefresh {
		opts = append(opts, authorizer.WithoutRefresh())
	}

	if tokenSink != nil {
		key := c.SinkKey
		name := c.Name
		opts = append(opts, authorizer.WithOnRefresh(func(token string, expiry time.Time) {
			pubCtx, cancel := context.WithTimeout(context.Background(), sinkPublishTimeout)
			defer cancel()
			if err := tokenSink.Publish(pubCtx, key, token); err != nil {
				if m != nil {
					m.IncSinkFailure(name)
				}
				log.Error("failed to publish token to sink", "credential", name, "error", err)
			}
		}))
	}

	switch c.Type {
	case "oauth2":
		opts = append(opts, authorizer.WithScopes(c.Scopes...))
		for name, value := range c.ExtraParams {
			opts = append(opts, authorizer.WithExtraParam(name, value))
		}
		return authorizer.NewClientCredentials(ctx, c.TokenURL, c.ClientID, c.ClientSecret, opts...)

	case "endpoint":
		var httpClient *http.Client
		if d, ok := parseDuration(c.RequestTimeout); ok {
			httpClient = authorizer.DefaultHTTPClient(d)
		}
		ex := authorizer.NewEndpointExchanger(c.AuthURL, c.Method, c.Headers, c.Body, c.TokenPath, c.ExpiryPath, httpClient)
		return authorizer.NewManagedAuthorizer(ctx, ex, opts...)

	default:
		return nil, fmt.Errorf("unknown credential type: %s", c.Type)
	}
}

// parseDuration parses an optional duration string. Config validation
// already rejected malformed values.
func parseDuration(s string) (time.Duration, bool) {
	if s == "" {
		return 0, false
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, false
	}
	return d, true
}

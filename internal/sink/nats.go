// file: internal/sink/nats.go

// Package sink publishes refreshed tokens to a NATS JetStream KV bucket
// so downstream processes can pick up the current credential.
package sink

import (
	"context"
	"crypto/tls"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/nats-io/nkeys"

	"token-keeper/config"
	"token-keeper/internal/logger"
)

// Timeout and retry constants for sink operations
const (
	// kvOperationTimeout is the maximum time for KV store operations
	kvOperationTimeout = 10 * time.Second

	// reconnectWait is the delay between NATS reconnection attempts
	reconnectWait = 50 * time.Millisecond
)

// Sink writes tokens to a KV bucket. No subscriptions, no consumers,
// no streams - just connect and write.
type Sink struct {
	conn      *nats.Conn
	kv        jetstream.KeyValue
	keyPrefix string
	logger    *logger.Logger
}

// NewSink connects to NATS and opens the KV bucket.
func NewSink(cfg *config.SinkConfig, log *logger.Logger) (*Sink, error) {
	log.Info("connecting to NATS sink", "urls", cfg.URLs)

	opts, err := buildOptions(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to build NATS options: %w", err)
	}

	nc, err := nats.Connect(strings.Join(cfg.URLs, ","), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	log.Info("NATS connection established", "connectedURL", nc.ConnectedUrl())

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream: %w", err)
	}

	// Open KV bucket (must exist - fail fast if not)
	ctx, cancel := context.WithTimeout(context.Background(), kvOperationTimeout)
	defer cancel()

	kv, err := js.KeyValue(ctx, cfg.Bucket)
	if err != nil {
		nc.Close()
		if err == jetstream.ErrBucketNotFound {
			return nil, fmt.Errorf("KV bucket '%s' not found. Create it with: nats kv add %s",
				cfg.Bucket, cfg.Bucket)
		}
		return nil, fmt.Errorf("failed to open KV bucket '%s': %w", cfg.Bucket, err)
	}

	log.Info("KV bucket opened", "bucket", cfg.Bucket)

	return &Sink{
		conn:      nc,
		kv:        kv,
		keyPrefix: cfg.KeyPrefix,
		logger:    log,
	}, nil
}

// Publish writes a token under the given key.
func (s *Sink) Publish(ctx context.Context, key, token string) error {
	if s.keyPrefix != "" {
		key = s.keyPrefix + "." + key
	}
	s.logger.Debug("publishing token to KV", "key", key)

	opCtx, cancel := context.WithTimeout(ctx, kvOperationTimeout)
	defer cancel()

	if _, err := s.kv.Put(opCtx, key, []byte(token)); err != nil {
		return fmt.Errorf("failed to publish token: %w", err)
	}
	return nil
}

// Close gracefully closes the NATS connection.
func (s *Sink) Close() error {
	s.logger.Info("closing NATS sink connection")

	if err := s.conn.Drain(); err != nil {
		return fmt.Errorf("failed to drain connection: %w", err)
	}
	return nil
}

// buildOptions creates NATS connection options with auth and TLS.
func buildOptions(cfg *config.SinkConfig, log *logger.Logger) ([]nats.Option, error) {
	opts := []nats.Option{
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Warn("NATS disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("NATS reconnected", "url", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			log.Error("NATS connection closed", "error", nc.LastError())
		}),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(reconnectWait),
	}

	// Authentication (choose one method)
	switch {
	case cfg.CredsFile != "":
		log.Info("using NATS creds file authentication", "credsFile", cfg.CredsFile)
		opts = append(opts, nats.UserCredentials(cfg.CredsFile))
	case cfg.NKeySeed != "":
		log.Info("using NATS NKey authentication", "seedFile", cfg.NKeySeed)
		opt, err := nkeyOption(cfg.NKeySeed)
		if err != nil {
			return nil, err
		}
		opts = append(opts, opt)
	case cfg.Token != "":
		log.Info("using NATS token authentication")
		opts = append(opts, nats.Token(cfg.Token))
	case cfg.Username != "":
		log.Info("using NATS username/password authentication", "username", cfg.Username)
		opts = append(opts, nats.UserInfo(cfg.Username, cfg.Password))
	}

	if cfg.TLS.Enable {
		log.Info("enabling TLS", "insecure", cfg.TLS.Insecure)

		tlsConfig := &tls.Config{
			InsecureSkipVerify: cfg.TLS.Insecure,
		}

		if cfg.TLS.CertFile != "" && cfg.TLS.KeyFile != "" {
			cert, err := tls.LoadX509KeyPair(cfg.TLS.CertFile, cfg.TLS.KeyFile)
			if err != nil {
				return nil, fmt.Errorf("failed to load TLS cert/key: %w", err)
			}
			tlsConfig.Certificates = []tls.Certificate{cert}
			log.Info("loaded TLS client certificate", "certFile", cfg.TLS.CertFile)
		}

		if cfg.TLS.CAFile != "" {
			opts = append(opts, nats.RootCAs(cfg.TLS.CAFile))
			log.Info("loaded TLS CA certificate", "caFile", cfg.TLS.CAFile)
		}

		opts = append(opts, nats.Secure(tlsConfig))
	}

	return opts, nil
}

// nkeyOption loads an nkey seed file and returns a signing option.
func nkeyOption(seedFile string) (nats.Option, error) {
	seed, err := os.ReadFile(seedFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read nkey seed file: %w", err)
	}

	kp, err := nkeys.FromSeed([]byte(strings.TrimSpace(string(seed))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse nkey seed: %w", err)
	}

	pub, err := kp.PublicKey()
	if err != nil {
		return nil, fmt.Errorf("failed to derive nkey public key: %w", err)
	}

	return nats.Nkey(pub, func(nonce []byte) ([]byte, error) {
		return kp.Sign(nonce)
	}), nil
}

// file: cmd/token-keeper/validate.go

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"token-keeper/config"
)

const redacted = "[redacted]"

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the config file and print the effective settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		out, err := yaml.Marshal(redactConfig(cfg))
		if err != nil {
			return fmt.Errorf("failed to render config: %w", err)
		}

		fmt.Fprintf(os.Stdout, "config valid: %s\n---\n%s", configPath, out)
		return nil
	},
}

// redactConfig returns a copy with secrets masked so the effective
// config can be printed safely.
func redactConfig(cfg *config.Config) *config.Config {
	out := *cfg

	if out.Sink.Password != "" {
		out.Sink.Password = redacted
	}
	if out.Sink.Token != "" {
		out.Sink.Token = redacted
	}

	out.Credentials = make([]config.CredentialConfig, len(cfg.Credentials))
	copy(out.Credentials, cfg.Credentials)
	for i := range out.Credentials {
		if out.Credentials[i].ClientSecret != "" {
			out.Credentials[i].ClientSecret = redacted
		}
	}

	return &out
}

// file: cmd/token-keeper/main.go

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:   "token-keeper",
		Short: "Keeps bearer credentials for outbound clients fresh",
		Long: `token-keeper fetches short-lived bearer tokens from OAuth2 or custom
token endpoints, refreshes them before expiry, and optionally publishes
them to a NATS JetStream KV bucket for downstream processes.`,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "config/token-keeper.yaml", "path to config file")

	root.AddCommand(runCmd)
	root.AddCommand(validateCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Relay CLI — инструмент командной строки операторов Relay.
//
// Использование:
//
//	relay [--api-url URL] [--json] <command> <subcommand> [flags]
//
// Команды:
//
//	scan  trigger [--batch-size N], status
//	post  history POST_ID --tenant TENANT
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shaiso/Relay/internal/cli"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var apiURL string
	var jsonOutput bool

	defaultURL := os.Getenv("RELAY_API_URL")
	if defaultURL == "" {
		defaultURL = "http://localhost:8080"
	}

	rootCmd := &cobra.Command{
		Use:           "relay",
		Short:         "Relay CLI — social publishing pipeline operations",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", defaultURL, "API server URL")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	clientFn := func() *cli.Client { return cli.NewClient(apiURL) }
	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }

	rootCmd.AddCommand(
		cli.NewScanCmd(clientFn, outputFn),
		cli.NewPostCmd(clientFn, outputFn),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

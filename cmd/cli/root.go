package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/turtacn/sentinel/internal/config"
)

const defaultAddr = "http://localhost:8080"

type globalOptions struct {
	addr    string
	apiKey  string
	timeout time.Duration
	asJSON  bool
}

// NewRootCommand builds the `sentinel-admin` command tree.
// NewRootCommand 构建 sentinel-admin 命令树。
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "sentinel-admin",
		Short: "A CLI tool for administering the Sentinel anomaly detection service.",
		Long: `sentinel-admin talks to the Sentinel HTTP API to inspect client profiles,
mark clients compromised, reset profiles and check detector health.`,
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.addr, "addr", defaultAddr, "base URL of the Sentinel API")
	flags.StringVar(&opts.apiKey, "api-key", os.Getenv(config.EnvPrefix+"_AUTH_API_KEY"), "API key (defaults to $SENTINEL_AUTH_API_KEY)")
	flags.DurationVar(&opts.timeout, "timeout", 10*time.Second, "request timeout")
	flags.BoolVar(&opts.asJSON, "json", false, "print raw JSON")

	rootCmd.AddCommand(newProfileCommand(opts), newHealthCommand(opts))
	return rootCmd
}

// Execute is the main entry point for the CLI application.
// If an error occurs, it prints the error and exits.
// Execute 是 CLI 应用程序的主入口点。
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

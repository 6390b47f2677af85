package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// configPath is the optional YAML configuration file shared by all
	// subcommands.
	configPath string

	// Version is injected during build
	Version = "dev"
	// Commit is injected during build
	Commit = "none"
	// BuildDate is injected during build
	BuildDate = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "contractmock",
	Short: "contractmock is a consumer-side mock provider for contract tests",
	Long: `contractmock stands in for an HTTP provider while consumer tests run.
Every request is decoded, answered from a set of expected interactions and
written back; anything that goes wrong is reported as a 500 with a JSON
error body so the test sees the failure.

Configuration is read from the file given with --config. Without one the
mock provider listens on an ephemeral loopback port.`,
	SilenceUsage:  true,
	SilenceErrors: true, // We handle errors in Execute()
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a YAML configuration file")
}

// Package main is the aada binary: the student portal TUI plus a few
// scriptable account commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	flags := &globalFlags{}

	cmd := &cobra.Command{
		Use:   "aada",
		Short: "AADA student portal",
		Long: `aada is the terminal client for the AADA student portal.

Run it without arguments to open the portal: sign in, register with the
three-step wizard, and browse your dashboard.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, flags)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "config file (default ~/.aada/config.yaml)")
	pf.StringVar(&flags.apiURL, "api-url", "", "API base URL")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.StringVar(&flags.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")

	cmd.AddCommand(
		loginCmd(flags),
		logoutCmd(flags),
		statusCmd(flags),
		documentsCmd(flags),
		verifyEmailCmd(flags),
		forgotPasswordCmd(flags),
		resetPasswordCmd(flags),
		legalCmd(flags, "terms", "Open the Terms of Service"),
		legalCmd(flags, "privacy", "Open the Privacy Policy"),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintln(cmd.OutOrStdout(), "aada "+version)
			},
		},
	)
	return cmd
}

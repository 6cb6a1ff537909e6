// Ignitor boots an application directory and hands it to the HTTP server or
// the command kernel.
//
// Runtime settings come from an optional YAML file and IGNITOR_* variables.
// See internal/config for details.
//
// Usage:
//
//	# Serve the application in the current directory
//	ignitor serve
//
//	# Serve another directory with debug logs
//	IGNITOR_LOGGING_LEVEL=debug ignitor serve --root /srv/shop
//
//	# Run an application command
//	ignitor ace migrate --force
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

type rootFlags struct {
	configPath string
	root       string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	cmd := &cobra.Command{
		Use:   "ignitor",
		Short: "Boot and run an application",
		Long: `ignitor reads an application's manifest, registers and boots its providers,
runs its preload modules and then serves HTTP or runs a command.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "path to ignitor.yaml")
	cmd.PersistentFlags().StringVar(&flags.root, "root", "", "application root (overrides app.root)")

	cmd.AddCommand(newServeCmd(flags), newAceCmd(flags), newVersionCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "ignitor %s\n", version)
			fmt.Fprintf(cmd.OutOrStdout(), "  commit: %s\n", gitCommit)
			fmt.Fprintf(cmd.OutOrStdout(), "  built:  %s\n", buildDate)
		},
	}
}

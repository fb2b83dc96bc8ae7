// Package cli provides the testkit CLI commands.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "testkit",
	Short: "testkit runs a mock HTTP server from a stub file",
	Long: `testkit serves canned HTTP responses defined in a YAML stub file,
so the mock server used inside Go tests can also run as a standalone
process for manual testing, CI jobs and non-Go clients.

Stubs match on method and exact path, newest definition first. Chunked
and SSE stubs stream their pieces with configurable pacing.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. It is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

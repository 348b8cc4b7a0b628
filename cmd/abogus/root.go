package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for abogus.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "abogus",
		Short: "Compute a_bogus request signatures and ms_token values",
		Long: `abogus computes the a_bogus signature for web API request URLs.

The signing algorithm is not part of this tool: it lives in an external
JavaScript file (a_bogus.js by default) that is loaded into an embedded
JavaScript engine and called with the URL's query string and a user agent.
The tool also generates random ms_token values and keeps a local history
of signed URLs. It never sends a request itself.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewSignCmd())
	cmd.AddCommand(NewTokenCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

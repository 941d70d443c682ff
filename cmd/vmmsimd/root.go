package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any
// subcommands, in the shape of the teacher's akita cmd.rootCmd.
var rootCmd = &cobra.Command{
	Use:   "vmmsimd",
	Short: "vmmsimd hosts the demand-paged VMM teaching simulator.",
	Long: `vmmsimd runs a virtual memory manager simulation behind an ` +
		`HTTP control surface and a server-sent-events stream, for ` +
		`classroom visualization of page replacement policies.`,
}

// Execute adds all child commands to the root command, runs it, and
// returns the process exit code the caller should use: 0 on clean
// shutdown, 1 on startup failure.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	return exitCode
}

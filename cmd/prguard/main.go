package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "prguard",
		Short: "CI gate that checks the PR author understands their change",
		Long: "prguard gates pull requests on understanding: it posts " +
			"questions about the diff, the author replies with a comment " +
			"starting with /answers, and prguard posts a PASS/FAIL verdict.",
	}

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		// Check for exitError to exit with specific code without extra output
		if exitErr, ok := err.(*exitError); ok {
			os.Exit(exitErr.code)
		}
		os.Exit(1)
	}
}

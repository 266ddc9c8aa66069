package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/YM2132/PR-guard/internal/version"
)

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show prguard version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("prguard %s\n", version.Version)
		},
	}
}

package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/YM2132/PR-guard/internal/ghaction"
	"github.com/YM2132/PR-guard/internal/git"
)

func initCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Set up pr-guard in the current repository",
	}
	cmd.AddCommand(ghActionCmd())
	return cmd
}

func ghActionCmd() *cobra.Command {
	var (
		outputPath     string
		force          bool
		prguardVersion string
		model          string
	)

	cmd := &cobra.Command{
		Use:   "gh-action",
		Short: "Generate a GitHub Actions workflow for the pr-guard gate",
		Long: `Generate a GitHub Actions workflow file that runs the ` +
			`pr-guard gate on pull requests.

The workflow installs prguard and runs 'prguard run' on ` +
			`pull_request events (opened, synchronize, reopened) and on ` +
			`issue_comment events, so authors' /answers replies trigger ` +
			`evaluation.

Model, diff budget, and other gate parameters are configured ` +
			`in .prguard.toml and resolved at runtime.

After generating the workflow, add an OPENAI_API_KEY ` +
			`repository secret.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := git.GetRepoRoot(".")
			if err != nil {
				return fmt.Errorf(
					"not a git repository - " +
						"run this from inside a git repo")
			}

			cfg := ghaction.DefaultConfig()
			cfg.Version = prguardVersion
			cfg.Model = model

			if outputPath == "" {
				outputPath = filepath.Join(
					root, ".github", "workflows",
					"prguard.yml")
			}

			if err := ghaction.WriteWorkflow(
				cfg, outputPath, force); err != nil {
				return err
			}

			fmt.Printf("Created workflow at %s\n", outputPath)
			fmt.Println()
			fmt.Printf("Next steps:\n")
			fmt.Printf("  1. Add a repository secret named " +
				"\"OPENAI_API_KEY\"\n")
			fmt.Printf("     gh secret set OPENAI_API_KEY\n")
			fmt.Printf("  2. Commit and push the workflow file\n")
			fmt.Printf("  3. Open a pull request to trigger " +
				"the first gate run\n")

			return nil
		},
	}

	cmd.Flags().StringVar(&outputPath, "output", "",
		"output path for workflow file "+
			"(default: .github/workflows/prguard.yml)")
	cmd.Flags().BoolVar(&force, "force", false,
		"overwrite existing workflow file")
	cmd.Flags().StringVar(&prguardVersion, "prguard-version", "",
		"prguard version to install (default: latest)")
	cmd.Flags().StringVar(&model, "model", "",
		"pin the model in the generated workflow")

	return cmd
}

package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/YM2132/PR-guard/internal/config"
	"github.com/YM2132/PR-guard/internal/gate"
	"github.com/YM2132/PR-guard/internal/ghapi"
	"github.com/YM2132/PR-guard/internal/git"
	"github.com/YM2132/PR-guard/internal/llm"
)

func runCmd() *cobra.Command {
	var opts runOpts

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the understanding gate for a pull request",
		Long: "Run one gate pass: derive the protocol state from the PR " +
			"comment thread, then either post questions about the diff, " +
			"evaluate a pending /answers reply, or re-report a prior " +
			"verdict. Designed to run inside GitHub Actions; repo, PR " +
			"number, and commit range are auto-detected from the " +
			"Actions environment when not given as flags.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			outcome, err := runGate(cmd.Context(), opts)
			if err != nil {
				log.Printf("pr-guard error: %v", err)
			}
			fmt.Printf("pr-guard: %s\n", outcome)

			if code := outcome.ExitCode(); code != 0 {
				cmd.SilenceErrors = true
				return &exitError{code: code}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.repoPath, "repo-path", ".",
		"path to the git repository")
	cmd.Flags().StringVar(&opts.ghRepo, "gh-repo", "",
		"GitHub repo owner/name (auto from GITHUB_REPOSITORY)")
	cmd.Flags().IntVar(&opts.pr, "pr", 0,
		"PR number (auto from event JSON / GITHUB_REF)")
	cmd.Flags().StringVar(&opts.base, "base", "",
		"base commit SHA (auto from event JSON / GitHub API)")
	cmd.Flags().StringVar(&opts.head, "head", "",
		"head commit SHA (auto from event JSON / GitHub API)")
	cmd.Flags().StringVar(&opts.model, "model", "",
		"model to use (overrides PR_GUARD_MODEL and .prguard.toml)")

	return cmd
}

type runOpts struct {
	repoPath string
	ghRepo   string
	pr       int
	base     string
	head     string
	model    string
}

// runGate wires the collaborators and executes one gate pass. Setup
// failures are GateError: the tool broke before it could judge
// anything, and the exit code has to say so.
func runGate(ctx context.Context, opts runOpts) (gate.Outcome, error) {
	root, err := git.GetRepoRoot(opts.repoPath)
	if err != nil {
		return gate.GateError, fmt.Errorf("not a git repository: %w", err)
	}

	cfg, err := config.LoadRepoConfig(root)
	if err != nil {
		return gate.GateError, err
	}

	ghRepo := opts.ghRepo
	if ghRepo == "" {
		if ghRepo, err = detectRepo(); err != nil {
			return gate.GateError, err
		}
	}
	pr := opts.pr
	if pr == 0 {
		if pr, err = detectPRNumber(); err != nil {
			return gate.GateError, err
		}
	}

	token, err := config.GitHubToken()
	if err != nil {
		return gate.GateError, err
	}
	thread, err := ghapi.New(ctx, token, ghRepo, pr)
	if err != nil {
		return gate.GateError, err
	}

	base, head, err := resolveRange(ctx, thread, opts.base, opts.head)
	if err != nil {
		return gate.GateError, err
	}

	// issue_comment triggers check out the default branch, and
	// pull_request triggers may be shallow. Fetch anything the
	// local repo is missing before diffing.
	for _, sha := range []string{base, head} {
		if _, err := git.ResolveSHA(root, sha); err != nil {
			if err := git.FetchCommit(root, "origin", sha); err != nil {
				return gate.GateError, fmt.Errorf(
					"commit %s not available locally: %w",
					git.ShortSHA(sha), err)
			}
		}
	}

	rawDiff, err := git.GetRangeDiff(root, base, head)
	if err != nil {
		return gate.GateError, fmt.Errorf("compute diff: %w", err)
	}

	key, err := config.OpenAIKey()
	if err != nil {
		return gate.GateError, err
	}
	completer, err := llm.NewOpenAICompleter(
		key, config.ResolveModel(opts.model, cfg), cfg.BaseURL)
	if err != nil {
		return gate.GateError, fmt.Errorf("init model client: %w", err)
	}
	client := llm.NewClient(completer, llm.Options{
		PromptOverride: cfg.PromptOverride,
		Strictness:     cfg.Strictness,
	})

	orch := &gate.Orchestrator{
		Thread:       thread,
		Model:        client,
		DiffBudget:   cfg.DiffBudgetBytes,
		MinDiffBytes: cfg.MinDiffBytes,
	}
	return orch.Run(ctx, rawDiff, head)
}

// resolveRange returns the base and head SHAs for the gate run:
// explicit flags first, then the Actions event payload, then the
// GitHub API (issue_comment payloads carry no SHAs).
func resolveRange(ctx context.Context, thread *ghapi.Client, base, head string) (string, string, error) {
	if base != "" && head != "" {
		return base, head, nil
	}

	if os.Getenv("GITHUB_EVENT_PATH") != "" {
		if event, err := readEvent(); err == nil &&
			event.PullRequest.Base.SHA != "" &&
			event.PullRequest.Head.SHA != "" {
			return event.PullRequest.Base.SHA,
				event.PullRequest.Head.SHA, nil
		}
	}

	apiBase, apiHead, err := thread.PullRequestSHAs(ctx)
	if err != nil {
		return "", "", fmt.Errorf(
			"could not resolve commit range: %w", err)
	}
	if base == "" {
		base = apiBase
	}
	if head == "" {
		head = apiHead
	}
	return base, head, nil
}

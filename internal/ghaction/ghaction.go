// Package ghaction generates the GitHub Actions workflow that runs
// the pr-guard gate on pull requests.
package ghaction

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"text/template"
)

// Safe patterns for validation (prevent injection into the
// generated shell).
var (
	safeVersionRE = regexp.MustCompile(
		`^[0-9]+\.[0-9]+\.[0-9]+(-[A-Za-z0-9.]+)?$`)
	safeModelRE = regexp.MustCompile(
		`^[A-Za-z0-9][A-Za-z0-9._:/-]*$`)
)

// WorkflowConfig holds the parameters for generating a GitHub
// Actions workflow.
type WorkflowConfig struct {
	// Version is the prguard release version to install. Empty
	// means "latest". Prompt budget, strictness, and other gate
	// parameters come from .prguard.toml at runtime.
	Version string

	// Model overrides the model passed to the gate invocation.
	// Empty leaves model selection to config and env.
	Model string
}

// DefaultConfig returns a WorkflowConfig with sensible defaults.
func DefaultConfig() WorkflowConfig {
	return WorkflowConfig{}
}

// Validate checks all config fields against safe patterns. Returns
// an error describing the first invalid field.
func (c *WorkflowConfig) Validate() error {
	if c.Version != "" && !safeVersionRE.MatchString(c.Version) {
		return fmt.Errorf(
			"invalid prguard version %q "+
				"(expected semver like 0.3.1)",
			c.Version)
	}
	if c.Model != "" && !safeModelRE.MatchString(c.Model) {
		return fmt.Errorf("invalid model name %q", c.Model)
	}
	return nil
}

// Generate produces a GitHub Actions workflow YAML string from
// the given config.
func Generate(cfg WorkflowConfig) (string, error) {
	if err := cfg.Validate(); err != nil {
		return "", fmt.Errorf("invalid config: %w", err)
	}

	tmpl, err := template.New("workflow").Parse(workflowTemplate)
	if err != nil {
		return "", fmt.Errorf("parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, cfg); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}

	return buf.String(), nil
}

// WriteWorkflow generates the workflow and writes it to the
// given path. Creates parent directories as needed. Returns an
// error if the file already exists and force is false.
func WriteWorkflow(
	cfg WorkflowConfig,
	outputPath string,
	force bool,
) error {
	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf(
				"workflow file already exists: %s "+
					"(use --force to overwrite)",
				outputPath)
		}
	}

	content, err := Generate(cfg)
	if err != nil {
		return err
	}

	dir := filepath.Dir(outputPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf(
			"create directory %s: %w", dir, err)
	}

	if err := os.WriteFile(
		outputPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("write workflow: %w", err)
	}

	return nil
}

// Pinned SHA for actions/checkout v6.0.2 for supply-chain
// hardening. The issue_comment trigger fires for every comment on
// the repo; the job-level condition narrows it to PR threads, and
// the gate itself ignores comments without the /answers token.
var workflowTemplate = `# pr-guard
# Generated by: prguard init gh-action
# Gates pull requests on the author demonstrating understanding of
# their change: the gate posts questions about the diff, the author
# replies with a comment starting with /answers, and the gate posts
# a PASS/FAIL verdict.
#
# Required setup:
#   - Add a repository secret named "OPENAI_API_KEY" with your API key
#
# Gate behavior (model, diff budget) is configured in .prguard.toml.

name: pr-guard

on:
  pull_request:
    types: [opened, synchronize, reopened]
  issue_comment:
    types: [created]

permissions:
  contents: read
  pull-requests: write

jobs:
  gate:
    runs-on: ubuntu-latest
    if: github.event_name == 'pull_request' || github.event.issue.pull_request
    steps:
      - name: Checkout
        uses: actions/checkout@de0fac2e4500dabe0009e67214ff5f5447ce83dd  # v6.0.2
        with:
          fetch-depth: 0

      - name: Install prguard
        run: |
          set -euo pipefail
          {{- if .Version }}
          PRGUARD_VERSION="{{ .Version }}"
          {{- else }}
          PRGUARD_VERSION=$(curl -sfL https://api.github.com/repos/YM2132/PR-guard/releases/latest | grep '"tag_name"' | sed -E 's/.*"v?([^"]+)".*/\1/')
          {{- end }}
          ARCHIVE="prguard_${PRGUARD_VERSION}_linux_amd64.tar.gz"
          curl -sfLO "https://github.com/YM2132/PR-guard/releases/download/v${PRGUARD_VERSION}/${ARCHIVE}"
          curl -sfLO "https://github.com/YM2132/PR-guard/releases/download/v${PRGUARD_VERSION}/checksums.txt"
          grep -F "  ${ARCHIVE}" checksums.txt > verify.txt
          sha256sum --check verify.txt
          mkdir -p "$HOME/.local/bin"
          tar xzf "${ARCHIVE}" -C "$HOME/.local/bin" prguard
          echo "$HOME/.local/bin" >> "$GITHUB_PATH"
          rm -f "${ARCHIVE}" checksums.txt verify.txt
          "$HOME/.local/bin/prguard" version

      - name: Run gate
        env:
          GITHUB_TOKEN: ${{"{{"}} secrets.GITHUB_TOKEN {{"}}"}}
          OPENAI_API_KEY: ${{"{{"}} secrets.OPENAI_API_KEY {{"}}"}}
        run: |
          set -euo pipefail
          prguard run \
            --gh-repo "${{"{{"}} github.repository {{"}}"}}"{{- if .Model }} \
            --model "{{ .Model }}"{{- end }}
`

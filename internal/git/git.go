// Package git shells out to the git binary for the few repository
// operations the gate needs. Runs are expected to execute inside a
// GitHub Actions checkout where git is always present.
package git

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// excludedPathPatterns contains pathspec patterns for files excluded
// from diffs. These are generated files that add noise without saying
// anything about the author's understanding.
// Uses :(exclude) long form since :! shorthand doesn't work reliably
// with git diff.
var excludedPathPatterns = []string{
	":(exclude)uv.lock",
	":(exclude)package-lock.json",
	":(exclude)yarn.lock",
	":(exclude)pnpm-lock.yaml",
	":(exclude)Cargo.lock",
	":(exclude)cargo.lock",
	":(exclude)Gemfile.lock",
	":(exclude)poetry.lock",
	":(exclude)composer.lock",
	":(exclude)go.sum",
	":(exclude).cache",
}

// GetRepoRoot returns the root of the repository containing path.
func GetRepoRoot(path string) (string, error) {
	cmd := exec.Command("git", "rev-parse", "--show-toplevel")
	cmd.Dir = path

	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git rev-parse --show-toplevel: %w", err)
	}

	return normalizePath(string(out)), nil
}

// ResolveSHA resolves a ref (like HEAD or a branch name) to a full
// commit SHA, verifying the object actually exists locally. Plain
// rev-parse echoes a full 40-hex SHA back even when the object is
// absent; the ^{commit} peel makes absent commits an error, which is
// what lets callers decide to fetch.
func ResolveSHA(repoPath, ref string) (string, error) {
	cmd := exec.Command("git", "rev-parse", "--verify", ref+"^{commit}")
	cmd.Dir = repoPath

	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git rev-parse --verify %s: %w", ref, err)
	}

	return strings.TrimSpace(string(out)), nil
}

// GetRangeDiff returns the diff between base and head, excluding
// generated files like lock files.
func GetRangeDiff(repoPath, base, head string) (string, error) {
	args := []string{"diff", "--no-color", base + ".." + head, "--", "."}
	args = append(args, excludedPathPatterns...)

	cmd := exec.Command("git", args...)
	cmd.Dir = repoPath

	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git diff %s..%s: %w", base, head, err)
	}

	return string(out), nil
}

// FetchCommit fetches a single commit from the given remote so range
// diffs work even when the Actions checkout is shallow or on a
// different ref (e.g. issue_comment triggers check out the default
// branch).
func FetchCommit(repoPath, remote, sha string) error {
	cmd := exec.Command("git", "fetch", "--quiet", remote, sha)
	cmd.Dir = repoPath

	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("git fetch %s %s: %v (output: %s)",
			remote, sha, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// ShortSHA truncates a SHA to 7 characters for display.
func ShortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}

// normalizePath trims git output and converts MSYS-style Windows
// paths (/c/Users/...) to native ones so filepath operations work.
func normalizePath(path string) string {
	path = strings.TrimSpace(path)
	if runtime.GOOS == "windows" && len(path) >= 3 && path[0] == '/' {
		if (path[1] >= 'a' && path[1] <= 'z' || path[1] >= 'A' && path[1] <= 'Z') && path[2] == '/' {
			path = strings.ToUpper(string(path[1])) + ":" + path[2:]
		}
	}
	return filepath.FromSlash(path)
}

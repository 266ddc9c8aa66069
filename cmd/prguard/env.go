package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ghEvent holds the fields prguard needs from a GitHub Actions event
// payload. pull_request events carry the PR inline; issue_comment
// events carry the number under issue, with issue.pull_request
// present only when the issue is actually a PR.
type ghEvent struct {
	PullRequest struct {
		Number int `json:"number"`
		Base   struct {
			SHA string `json:"sha"`
		} `json:"base"`
		Head struct {
			SHA string `json:"sha"`
		} `json:"head"`
	} `json:"pull_request"`
	Issue struct {
		Number      int `json:"number"`
		PullRequest *struct {
			URL string `json:"url"`
		} `json:"pull_request"`
	} `json:"issue"`
}

// readEvent reads and unmarshals the GitHub Actions event file
// pointed to by GITHUB_EVENT_PATH.
func readEvent() (*ghEvent, error) {
	eventPath := os.Getenv("GITHUB_EVENT_PATH")
	if eventPath == "" {
		return nil, fmt.Errorf("GITHUB_EVENT_PATH not set")
	}
	data, err := os.ReadFile(eventPath)
	if err != nil {
		return nil, fmt.Errorf("read event file: %w", err)
	}
	var event ghEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, fmt.Errorf("parse event JSON: %w", err)
	}
	return &event, nil
}

// detectPRNumber attempts to auto-detect the PR number from the
// GitHub Actions environment.
func detectPRNumber() (int, error) {
	// Try event JSON first
	event, err := readEvent()
	if err == nil {
		if event.PullRequest.Number > 0 {
			return event.PullRequest.Number, nil
		}
		if event.Issue.Number > 0 && event.Issue.PullRequest != nil {
			return event.Issue.Number, nil
		}
	}

	// Try GITHUB_REF (refs/pull/N/merge)
	ghRef := os.Getenv("GITHUB_REF")
	if strings.HasPrefix(ghRef, "refs/pull/") {
		parts := strings.Split(ghRef, "/")
		if len(parts) >= 3 {
			n, err := strconv.Atoi(parts[2])
			if err == nil && n > 0 {
				return n, nil
			}
		}
	}

	return 0, fmt.Errorf(
		"could not detect PR number from environment")
}

// detectRepo returns the owner/name repo from the GitHub Actions
// environment.
func detectRepo() (string, error) {
	if repo := os.Getenv("GITHUB_REPOSITORY"); repo != "" {
		return repo, nil
	}
	return "", fmt.Errorf(
		"--gh-repo not provided and GITHUB_REPOSITORY not set")
}

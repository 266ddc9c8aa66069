// Package ghapi is the gate's window onto the pull request thread:
// ordered comment history in, at most one new comment out per run.
package ghapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"

	"github.com/YM2132/PR-guard/internal/config"
	"github.com/YM2132/PR-guard/internal/protocol"
)

// MaxCommentLen is the maximum length for a GitHub PR comment.
// GitHub's hard limit is ~65536; we leave headroom.
const MaxCommentLen = 60000

const (
	maxRetries = 3
	maxBackoff = 30 * time.Second
)

// Client reads and appends to one pull request's comment thread.
type Client struct {
	gh    *github.Client
	owner string
	repo  string
	pr    int

	backoffBase time.Duration // test seam
}

// New creates a client for the given "owner/name" repo and PR number.
func New(ctx context.Context, token config.Secret, ownerRepo string, pr int) (*Client, error) {
	if !token.IsSet() {
		return nil, fmt.Errorf("GitHub token not set")
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token.Value()})
	return newClient(github.NewClient(oauth2.NewClient(ctx, ts)), ownerRepo, pr)
}

func newClient(gh *github.Client, ownerRepo string, pr int) (*Client, error) {
	owner, repo, ok := strings.Cut(ownerRepo, "/")
	if !ok || owner == "" || repo == "" {
		return nil, fmt.Errorf("invalid repo %q (expected owner/name)", ownerRepo)
	}
	if pr <= 0 {
		return nil, fmt.Errorf("invalid PR number %d", pr)
	}
	return &Client{
		gh:          gh,
		owner:       owner,
		repo:        repo,
		pr:          pr,
		backoffBase: time.Second,
	}, nil
}

// List returns the full issue-comment history for the PR, ordered by
// creation time ascending.
func (c *Client) List(ctx context.Context) ([]protocol.Comment, error) {
	var all []protocol.Comment

	opts := &github.IssueListCommentsOptions{
		Sort:        github.String("created"),
		Direction:   github.String("asc"),
		ListOptions: github.ListOptions{PerPage: 100},
	}

	for {
		var comments []*github.IssueComment
		var pageResp *github.Response
		err := c.withRetry(ctx, func() (*github.Response, error) {
			var err error
			comments, pageResp, err = c.gh.Issues.ListComments(
				ctx, c.owner, c.repo, c.pr, opts)
			return pageResp, err
		})
		if err != nil {
			return nil, fmt.Errorf("list comments on %s/%s#%d: %w",
				c.owner, c.repo, c.pr, err)
		}

		for _, ic := range comments {
			all = append(all, protocol.Comment{
				ID:        ic.GetID(),
				CreatedAt: ic.GetCreatedAt().Time,
				Author:    ic.GetUser().GetLogin(),
				Body:      ic.GetBody(),
			})
		}

		if pageResp == nil || pageResp.NextPage == 0 {
			break
		}
		opts.Page = pageResp.NextPage
	}

	return all, nil
}

// Post appends one comment to the thread and returns its ID. The body
// is truncated to stay within GitHub's comment limit.
func (c *Client) Post(ctx context.Context, body string) (int64, error) {
	if len(body) > MaxCommentLen {
		body = body[:MaxCommentLen] +
			"\n\n...(truncated: comment exceeded size limit)"
	}

	var created *github.IssueComment
	err := c.withRetry(ctx, func() (*github.Response, error) {
		var resp *github.Response
		var err error
		created, resp, err = c.gh.Issues.CreateComment(
			ctx, c.owner, c.repo, c.pr,
			&github.IssueComment{Body: github.String(body)})
		return resp, err
	})
	if err != nil {
		return 0, fmt.Errorf("post comment on %s/%s#%d: %w",
			c.owner, c.repo, c.pr, err)
	}

	return created.GetID(), nil
}

// PullRequestSHAs returns the PR's base and head commit SHAs. Used
// when the trigger event payload carries no pull_request object
// (issue_comment events).
func (c *Client) PullRequestSHAs(ctx context.Context) (base, head string, err error) {
	var pr *github.PullRequest
	err = c.withRetry(ctx, func() (*github.Response, error) {
		var resp *github.Response
		var rerr error
		pr, resp, rerr = c.gh.PullRequests.Get(ctx, c.owner, c.repo, c.pr)
		return resp, rerr
	})
	if err != nil {
		return "", "", fmt.Errorf("get PR %s/%s#%d: %w",
			c.owner, c.repo, c.pr, err)
	}

	base = pr.GetBase().GetSHA()
	head = pr.GetHead().GetSHA()
	if base == "" || head == "" {
		return "", "", fmt.Errorf("PR %s/%s#%d missing base or head SHA",
			c.owner, c.repo, c.pr)
	}
	return base, head, nil
}

// withRetry retries an API call with exponential backoff. Rate limits
// and server errors are retryable; other client errors are not.
func (c *Client) withRetry(ctx context.Context, op func() (*github.Response, error)) error {
	var lastErr error
	backoff := c.backoffBase

	for attempt := 0; attempt <= maxRetries; attempt++ {
		resp, err := op()
		if err == nil {
			return nil
		}
		lastErr = err

		if !isRetryable(resp) {
			return err
		}
		if attempt == maxRetries {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
		}
	}

	return fmt.Errorf("after %d retries: %w", maxRetries, lastErr)
}

// isRetryable classifies a GitHub API failure. A nil response means a
// network-level error, which is assumed transient.
func isRetryable(resp *github.Response) bool {
	if resp == nil || resp.Response == nil {
		return true
	}

	switch code := resp.StatusCode; {
	case code == http.StatusTooManyRequests:
		return true
	case code == http.StatusForbidden:
		// Secondary rate limits surface as 403 with rate info.
		return resp.Rate.Limit > 0 && resp.Rate.Remaining == 0
	case code >= 500:
		return true
	default:
		return false
	}
}

// Package llm wraps the language model in a strict contract: fixed
// prompt templates, bounded retries with backoff for transport
// failures, one stricter re-ask for malformed output, and explicit
// errors instead of guessed verdicts.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/YM2132/PR-guard/internal/protocol"
)

// Error sentinels. The caller decides policy; this package never maps
// a failure to PASS or FAIL on its own.
var (
	// ErrUnavailable: the model could not be reached after bounded
	// retries with backoff.
	ErrUnavailable = errors.New("language model unavailable")

	// ErrMalformedOutput: the response did not fit the expected
	// shape even after a stricter re-ask.
	ErrMalformedOutput = errors.New("language model output malformed")

	// ErrAmbiguousVerdict: the response carried both PASS and FAIL.
	ErrAmbiguousVerdict = errors.New("language model verdict ambiguous")
)

// errAmbiguous marks an ambiguous parse internally so Evaluate can
// surface the right sentinel after the re-ask.
var errAmbiguous = errors.New("both PASS and FAIL present")

// Options configures a Client. Zero values get defaults.
type Options struct {
	// PromptOverride replaces the question instruction preamble.
	PromptOverride string

	// Strictness is an opaque hint appended to the evaluation
	// prompt.
	Strictness string

	// MaxAttempts bounds transport retries per logical call.
	MaxAttempts int

	// AttemptTimeout is the hard per-attempt deadline.
	AttemptTimeout time.Duration

	// Limiter guards model calls. Nil means a default limiter.
	Limiter *RateLimiter
}

const (
	defaultMaxAttempts    = 3
	defaultAttemptTimeout = 60 * time.Second

	// Generous for a run that makes at most a handful of calls;
	// exists to cap runaway retriggering.
	defaultLimitCalls  = 10
	defaultLimitPeriod = time.Minute

	rateLimitPoll = 500 * time.Millisecond
)

// Client issues prompts and strictly parses responses.
type Client struct {
	completer Completer
	opts      Options

	backoffBase time.Duration // test seam
}

// NewClient wraps a completer with the strict-parsing contract.
func NewClient(completer Completer, opts Options) *Client {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = defaultMaxAttempts
	}
	if opts.AttemptTimeout <= 0 {
		opts.AttemptTimeout = defaultAttemptTimeout
	}
	if opts.Limiter == nil {
		opts.Limiter = NewRateLimiter(defaultLimitCalls, defaultLimitPeriod)
	}
	return &Client{
		completer:   completer,
		opts:        opts,
		backoffBase: time.Second,
	}
}

// GenerateQuestions asks for exactly three questions about the diff.
// Returns ErrUnavailable or ErrMalformedOutput (wrapped) on failure.
func (c *Client) GenerateQuestions(ctx context.Context, diff string) ([]string, error) {
	out, err := c.complete(ctx, c.questionPrompt(diff, false))
	if err != nil {
		return nil, err
	}

	questions, perr := parseQuestions(out)
	if perr == nil {
		return questions, nil
	}

	// One stricter re-ask before giving up.
	out, err = c.complete(ctx, c.questionPrompt(diff, true))
	if err != nil {
		return nil, err
	}
	questions, perr = parseQuestions(out)
	if perr != nil {
		return nil, fmt.Errorf("parse questions: %v: %w", perr, ErrMalformedOutput)
	}
	return questions, nil
}

// Evaluate judges the answers against the diff and questions. Returns
// ErrUnavailable, ErrMalformedOutput, or ErrAmbiguousVerdict (wrapped)
// on failure; it never defaults a verdict.
func (c *Client) Evaluate(ctx context.Context, diff string, questions []string, answers string) (protocol.Verdict, string, error) {
	out, err := c.complete(ctx, c.evaluatePrompt(diff, questions, answers, false))
	if err != nil {
		return "", "", err
	}

	verdict, reason, perr := parseVerdict(out)
	if perr == nil {
		return verdict, reason, nil
	}

	out, err = c.complete(ctx, c.evaluatePrompt(diff, questions, answers, true))
	if err != nil {
		return "", "", err
	}
	verdict, reason, perr = parseVerdict(out)
	if perr != nil {
		if errors.Is(perr, errAmbiguous) {
			return "", "", fmt.Errorf("parse verdict: %w", ErrAmbiguousVerdict)
		}
		return "", "", fmt.Errorf("parse verdict: %v: %w", perr, ErrMalformedOutput)
	}
	return verdict, reason, nil
}

// complete issues one logical call with bounded transport retries and
// exponential backoff. Each attempt has a hard timeout.
func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	var lastErr error

	for attempt := 0; attempt < c.opts.MaxAttempts; attempt++ {
		if err := c.acquire(ctx); err != nil {
			return "", fmt.Errorf("rate limit wait: %v: %w", err, ErrUnavailable)
		}

		attemptCtx, cancel := context.WithTimeout(ctx, c.opts.AttemptTimeout)
		out, err := c.completer.Complete(attemptCtx, prompt)
		cancel()

		if err == nil && strings.TrimSpace(out) == "" {
			err = errors.New("empty completion")
		}
		if err == nil {
			return out, nil
		}
		lastErr = err

		if !retryableError(err) {
			return "", fmt.Errorf("model call rejected: %w", err)
		}
		if ctx.Err() != nil {
			break
		}
		if attempt < c.opts.MaxAttempts-1 {
			backoff := c.backoffBase << uint(attempt)
			select {
			case <-ctx.Done():
				return "", fmt.Errorf("model call canceled: %v: %w", ctx.Err(), ErrUnavailable)
			case <-time.After(backoff):
			}
		}
	}

	return "", fmt.Errorf("model call failed after %d attempts: %v: %w",
		c.opts.MaxAttempts, lastErr, ErrUnavailable)
}

var statusCodeRE = regexp.MustCompile(`status code:? (\d{3})`)

// retryableError reports whether a completer failure is worth another
// attempt. Attempt timeouts, rate limits, and server-side errors are
// transient; other client-side rejections (bad key, bad request) will
// not improve with retries and fail fast.
func retryableError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if m := statusCodeRE.FindStringSubmatch(err.Error()); m != nil {
		code, _ := strconv.Atoi(m[1])
		switch {
		case code == http.StatusTooManyRequests ||
			code == http.StatusRequestTimeout:
			return true
		case code >= 500:
			return true
		case code >= 400:
			return false
		}
	}
	// Network-level failures carry no status; assume transient.
	return true
}

// acquire blocks until the rate limiter admits a call or ctx ends.
func (c *Client) acquire(ctx context.Context) error {
	for {
		if c.opts.Limiter.Allow() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(rateLimitPoll):
		}
	}
}

var questionLineRE = regexp.MustCompile(`^\s*\d+[.)]\s+(.+?)\s*$`)

// parseQuestions expects exactly three numbered lines.
func parseQuestions(out string) ([]string, error) {
	var questions []string
	for _, line := range strings.Split(out, "\n") {
		if m := questionLineRE.FindStringSubmatch(line); m != nil {
			questions = append(questions, m[1])
		}
	}
	if len(questions) != 3 {
		return nil, fmt.Errorf("expected 3 numbered questions, found %d", len(questions))
	}
	return questions, nil
}

var (
	verdictRE = regexp.MustCompile(`(?m)^\s*VERDICT:\s*(PASS|FAIL)\s*$`)
	reasonRE  = regexp.MustCompile(`(?m)^\s*REASON:\s*(.+?)\s*$`)
)

// parseVerdict requires an unambiguous VERDICT line and a REASON line.
func parseVerdict(out string) (protocol.Verdict, string, error) {
	matches := verdictRE.FindAllStringSubmatch(out, -1)
	if len(matches) == 0 {
		return "", "", errors.New("missing VERDICT line")
	}

	verdict := matches[0][1]
	for _, m := range matches[1:] {
		if m[1] != verdict {
			return "", "", errAmbiguous
		}
	}

	reason := reasonRE.FindStringSubmatch(out)
	if reason == nil {
		return "", "", errors.New("missing REASON line")
	}

	return protocol.Verdict(verdict), reason[1], nil
}

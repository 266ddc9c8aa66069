// Package gate drives the two-phase understanding check for one pull
// request run: phase 1 posts questions about the diff, phase 2 judges
// the author's /answers reply. Each run is stateless; the protocol
// phase is re-derived from the comment thread every time.
package gate

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/YM2132/PR-guard/internal/diff"
	"github.com/YM2132/PR-guard/internal/git"
	"github.com/YM2132/PR-guard/internal/protocol"
)

// Thread is the PR comment thread: ordered history in, at most one
// appended comment out per run.
type Thread interface {
	List(ctx context.Context) ([]protocol.Comment, error)
	Post(ctx context.Context, body string) (int64, error)
}

// Model generates questions about a diff and judges answers to them.
type Model interface {
	GenerateQuestions(ctx context.Context, diff string) ([]string, error)
	Evaluate(ctx context.Context, diff string, questions []string, answers string) (protocol.Verdict, string, error)
}

// Orchestrator runs the gate end to end for one (diff, thread) pair.
type Orchestrator struct {
	Thread Thread
	Model  Model

	// DiffBudget caps the normalized diff size in bytes. Zero means
	// diff.DefaultBudget.
	DiffBudget int

	// MinDiffBytes skips the gate for normalized diffs smaller than
	// this. Zero disables the threshold.
	MinDiffBytes int
}

// Run executes one gate pass for the given raw diff and head commit
// SHA. The error carries detail only when the outcome is GateError.
func (o *Orchestrator) Run(ctx context.Context, rawDiff, headSHA string) (Outcome, error) {
	budget := o.DiffBudget
	if budget <= 0 {
		budget = diff.DefaultBudget
	}

	normalized, err := diff.Normalize(rawDiff, budget)
	if errors.Is(err, diff.ErrEmptyDiff) {
		log.Printf("run: nothing reviewable after filtering, skipping")
		return Skipped, nil
	}
	if err != nil {
		return GateError, fmt.Errorf("normalize diff: %w", err)
	}
	if o.MinDiffBytes > 0 && len(normalized) < o.MinDiffBytes {
		log.Printf("run: diff under %d bytes, skipping", o.MinDiffBytes)
		return Skipped, nil
	}

	history, err := o.Thread.List(ctx)
	if err != nil {
		return GateError, fmt.Errorf("list comments: %w", err)
	}

	res := protocol.Resolve(headSHA, history)
	log.Printf("run: %s for commit %s", res.State, git.ShortSHA(headSHA))

	switch res.State {
	case protocol.NeedsQuestions:
		return o.generate(ctx, headSHA, normalized)
	case protocol.AwaitingAnswers:
		return Pending, nil
	case protocol.ReadyToEvaluate:
		return o.evaluate(ctx, headSHA, normalized, res.Question, res.Answer)
	case protocol.Decided:
		// Idempotent re-report: no model call, no new comment.
		log.Printf("run: already decided %s: %s",
			res.Result.Verdict, res.Result.Reason)
		if res.Result.Verdict == protocol.VerdictPass {
			return Pass, nil
		}
		return Fail, nil
	default:
		return GateError, fmt.Errorf("unknown protocol state %v", res.State)
	}
}

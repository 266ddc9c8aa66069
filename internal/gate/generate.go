package gate

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/YM2132/PR-guard/internal/git"
	"github.com/YM2132/PR-guard/internal/marker"
	"github.com/YM2132/PR-guard/internal/protocol"
)

// generate is phase 1: ask the model for three questions about the
// diff and post them to the thread. Terminal outcome is Pending; the
// author still has to answer.
func (o *Orchestrator) generate(ctx context.Context, diffID, normalized string) (Outcome, error) {
	questions, err := o.Model.GenerateQuestions(ctx, normalized)
	if err == nil && !distinctQuestions(questions) {
		// One more attempt before failing the run. A silent
		// pass-through of duplicates would weaken the check.
		log.Printf("run: model repeated a question, regenerating")
		questions, err = o.Model.GenerateQuestions(ctx, normalized)
		if err == nil && !distinctQuestions(questions) {
			err = fmt.Errorf("duplicate questions after retry")
		}
	}
	if err != nil {
		return GateError, fmt.Errorf("generate questions: %w", err)
	}

	body := marker.Encode(marker.Tag{
		Kind:      marker.KindQuestions,
		DiffID:    diffID,
		Questions: questions,
	}, questionBody(diffID, questions))
	if _, err := o.Thread.Post(ctx, body); err != nil {
		return GateError, fmt.Errorf("post questions: %w", err)
	}

	return Pending, nil
}

// distinctQuestions reports whether every question is non-blank and
// no two are equal ignoring case and surrounding whitespace.
func distinctQuestions(questions []string) bool {
	seen := make(map[string]struct{}, len(questions))
	for _, q := range questions {
		key := strings.ToLower(strings.TrimSpace(q))
		if key == "" {
			return false
		}
		if _, dup := seen[key]; dup {
			return false
		}
		seen[key] = struct{}{}
	}
	return true
}

func questionBody(diffID string, questions []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## pr-guard: Questions (`%s`)\n\n", git.ShortSHA(diffID))
	b.WriteString("Before this PR can pass the gate, answer the questions " +
		"below. Reply with a comment whose first line is `" +
		protocol.AnswerToken + "`, followed by your answers.\n\n")
	for i, q := range questions {
		fmt.Fprintf(&b, "%d. %s\n", i+1, q)
	}
	b.WriteString("\n---\n*Questions apply to the commit above; " +
		"a new push supersedes them.*\n")
	return b.String()
}

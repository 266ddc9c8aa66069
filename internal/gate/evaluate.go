package gate

import (
	"context"
	"fmt"
	"strings"

	"github.com/YM2132/PR-guard/internal/git"
	"github.com/YM2132/PR-guard/internal/marker"
	"github.com/YM2132/PR-guard/internal/protocol"
)

// evaluate is phase 2: judge the author's answers against the diff
// and post the verdict. A blank answer body fails deterministically
// without a model call. A model failure posts nothing, so the thread
// never records a verdict the judge did not actually produce.
func (o *Orchestrator) evaluate(
	ctx context.Context,
	diffID, normalized string,
	question *protocol.QuestionComment,
	answer *protocol.Comment,
) (Outcome, error) {
	answers := protocol.AnswerBody(answer.Body)

	var verdict protocol.Verdict
	var reason string
	if answers == "" {
		verdict, reason = protocol.VerdictFail, "no answers provided"
	} else {
		var err error
		verdict, reason, err = o.Model.Evaluate(
			ctx, normalized, question.Questions, answers)
		if err != nil {
			return GateError, fmt.Errorf("evaluate answers: %w", err)
		}
	}

	body := marker.Encode(marker.Tag{
		Kind:    marker.KindResult,
		DiffID:  diffID,
		Verdict: string(verdict),
		Reason:  reason,
	}, resultBody(diffID, verdict, reason))
	if _, err := o.Thread.Post(ctx, body); err != nil {
		return GateError, fmt.Errorf("post result: %w", err)
	}

	if verdict == protocol.VerdictPass {
		return Pass, nil
	}
	return Fail, nil
}

func resultBody(diffID string, verdict protocol.Verdict, reason string) string {
	var b strings.Builder
	if verdict == protocol.VerdictPass {
		fmt.Fprintf(&b, "## pr-guard: Gate Passed (`%s`)\n\n",
			git.ShortSHA(diffID))
	} else {
		fmt.Fprintf(&b, "## pr-guard: Gate Failed (`%s`)\n\n",
			git.ShortSHA(diffID))
	}
	b.WriteString(reason)
	b.WriteString("\n\n---\n*To retry, push a new commit; " +
		"the gate asks fresh questions for each revision.*\n")
	return b.String()
}

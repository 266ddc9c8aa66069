package protocol

import (
	"sort"
	"strings"
)

// isBotAuthor reports whether a comment author is a bot account.
// GitHub app identities carry a "[bot]" login suffix
// (github-actions[bot], dependabot[bot]).
func isBotAuthor(author string) bool {
	return strings.HasSuffix(author, "[bot]")
}

// Resolution is the derived state plus the evidence the next stage
// needs: the active question comment, the qualifying answer if any,
// and the verdict already delivered if any.
type Resolution struct {
	State    State
	Question *QuestionComment
	Answer   *Comment
	Result   *ResultComment
}

// Resolve reconstructs the protocol state for the given diff identity
// from the full comment history. Pure function: it only reads.
//
// Comments are ordered by creation time, ties broken by ascending ID.
// The most recent question comment matching diffID is the active one;
// the FIRST qualifying /answers comment after it wins (later re-answers
// before evaluation are ignored, which keeps a rapid double-post from
// racing the evaluator); a result comment matching diffID after that
// answer decides the run.
func Resolve(diffID string, history []Comment) Resolution {
	comments := make([]Comment, len(history))
	copy(comments, history)
	sort.SliceStable(comments, func(a, b int) bool {
		if !comments[a].CreatedAt.Equal(comments[b].CreatedAt) {
			return comments[a].CreatedAt.Before(comments[b].CreatedAt)
		}
		return comments[a].ID < comments[b].ID
	})

	var res Resolution
	for _, c := range comments {
		if q, ok := decodeQuestion(c); ok {
			if q.DiffID == diffID {
				// A newer question supersedes everything
				// seen so far for this identity.
				qc := q
				res = Resolution{Question: &qc}
			}
			continue
		}

		if r, ok := decodeResult(c); ok {
			if r.DiffID == diffID && res.Question != nil &&
				res.Answer != nil && res.Result == nil {
				rc := r
				res.Result = &rc
			}
			continue
		}

		// Anything else is a human comment; only the first
		// answer after the active question qualifies. Bot
		// accounts never do, so another bot echoing the token
		// cannot answer on the author's behalf.
		if res.Question != nil && res.Answer == nil &&
			!isBotAuthor(c.Author) && IsAnswer(c.Body) {
			ac := c
			res.Answer = &ac
		}
	}

	switch {
	case res.Question == nil:
		res.State = NeedsQuestions
	case res.Answer == nil:
		res.State = AwaitingAnswers
	case res.Result == nil:
		res.State = ReadyToEvaluate
	default:
		res.State = Decided
	}
	return res
}

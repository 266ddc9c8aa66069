// Package protocol reconstructs the gate's phase from a PR comment
// thread. Nothing is persisted between runs: every run re-derives the
// current state from the full, append-only comment history and the
// identity of the diff under review.
package protocol

import (
	"strings"
	"time"

	"github.com/YM2132/PR-guard/internal/marker"
)

// AnswerToken is the literal a human must place as the first
// non-whitespace content of a comment to submit answers.
// Case-sensitive.
const AnswerToken = "/answers"

// Comment is the platform-agnostic view of one thread entry.
type Comment struct {
	ID        int64
	CreatedAt time.Time
	Author    string
	Body      string
}

// Verdict is the outcome of an evaluation.
type Verdict string

const (
	VerdictPass Verdict = "PASS"
	VerdictFail Verdict = "FAIL"
)

// QuestionComment is a bot comment carrying the three questions for a
// specific diff identity.
type QuestionComment struct {
	Comment
	DiffID    string
	Questions []string
}

// ResultComment is a bot comment carrying a verdict for a specific
// diff identity.
type ResultComment struct {
	Comment
	DiffID  string
	Verdict Verdict
	Reason  string
}

// State is the protocol phase derived from the thread.
type State int

const (
	// NeedsQuestions: no question comment exists for the current
	// diff identity.
	NeedsQuestions State = iota
	// AwaitingAnswers: questions are posted, no /answers reply yet.
	AwaitingAnswers
	// ReadyToEvaluate: an /answers reply follows the questions and
	// has not been judged.
	ReadyToEvaluate
	// Decided: a verdict already exists for this diff identity and
	// answer.
	Decided
)

func (s State) String() string {
	switch s {
	case NeedsQuestions:
		return "needs-questions"
	case AwaitingAnswers:
		return "awaiting-answers"
	case ReadyToEvaluate:
		return "ready-to-evaluate"
	case Decided:
		return "decided"
	default:
		return "unknown"
	}
}

// IsAnswer reports whether a comment body qualifies as an answer
// submission: its first non-whitespace content is the answer token.
// Recognition is structural, not marker-based, since answers are
// authored by humans.
func IsAnswer(body string) bool {
	trimmed := strings.TrimLeft(body, " \t\r\n")
	if !strings.HasPrefix(trimmed, AnswerToken) {
		return false
	}
	rest := trimmed[len(AnswerToken):]
	// The token must be the whole first line ("/answersfoo" is not
	// a submission).
	return rest == "" || rest[0] == '\n' || rest[0] == ' ' ||
		rest[0] == '\t' || rest[0] == '\r'
}

// AnswerBody extracts the free-text answer: everything after the
// line containing the token. The token line itself is discarded.
func AnswerBody(body string) string {
	trimmed := strings.TrimLeft(body, " \t\r\n")
	_, rest, found := strings.Cut(trimmed, "\n")
	if !found {
		return ""
	}
	return strings.TrimSpace(rest)
}

// decodeQuestion returns the question view of a comment, if it is one.
func decodeQuestion(c Comment) (QuestionComment, bool) {
	tag, ok := marker.Decode(c.Body)
	if !ok || tag.Kind != marker.KindQuestions {
		return QuestionComment{}, false
	}
	return QuestionComment{
		Comment:   c,
		DiffID:    tag.DiffID,
		Questions: tag.Questions,
	}, true
}

// decodeResult returns the result view of a comment, if it is one.
func decodeResult(c Comment) (ResultComment, bool) {
	tag, ok := marker.Decode(c.Body)
	if !ok || tag.Kind != marker.KindResult {
		return ResultComment{}, false
	}
	return ResultComment{
		Comment: c,
		DiffID:  tag.DiffID,
		Verdict: Verdict(tag.Verdict),
		Reason:  tag.Reason,
	}, true
}

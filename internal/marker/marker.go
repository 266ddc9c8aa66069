// Package marker embeds machine-readable tags in posted PR comments.
// The tag is an HTML comment, invisible in rendered Markdown, carrying
// the comment kind, the diff identity it was generated for, and the
// structured payload needed to reconstruct protocol state on re-scan.
// Decoding is total: arbitrary third-party comment text never errors,
// it just fails to decode.
package marker

import (
	"encoding/json"
	"strings"
)

const (
	tagPrefix = "<!-- pr-guard:v1 "
	tagSuffix = " -->"
)

// Kind identifies the comment variant.
type Kind string

const (
	KindQuestions Kind = "questions"
	KindResult    Kind = "result"
)

// Tag is the machine-readable payload embedded in a bot comment.
type Tag struct {
	Kind   Kind   `json:"kind"`
	DiffID string `json:"diff"`

	// Questions is set for KindQuestions (exactly three entries).
	Questions []string `json:"questions,omitempty"`

	// Verdict and Reason are set for KindResult.
	Verdict string `json:"verdict,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

// Encode produces a comment body: the invisible tag on the first line
// followed by the human-visible Markdown.
func Encode(tag Tag, visible string) string {
	// Marshal of Tag cannot fail: all fields are strings.
	data, _ := json.Marshal(tag)
	return tagPrefix + string(data) + tagSuffix + "\n" + visible
}

// Decode extracts a tag from a comment body. Returns ok=false for
// anything that is not a well-formed pr-guard comment: human comments,
// other bots' output, truncated or hand-edited tags.
func Decode(body string) (Tag, bool) {
	firstLine, _, _ := strings.Cut(strings.TrimLeft(body, " \t\r\n"), "\n")
	firstLine = strings.TrimRight(firstLine, " \t\r")

	if !strings.HasPrefix(firstLine, tagPrefix) ||
		!strings.HasSuffix(firstLine, tagSuffix) {
		return Tag{}, false
	}

	payload := firstLine[len(tagPrefix) : len(firstLine)-len(tagSuffix)]

	var tag Tag
	if err := json.Unmarshal([]byte(payload), &tag); err != nil {
		return Tag{}, false
	}
	if tag.DiffID == "" {
		return Tag{}, false
	}

	switch tag.Kind {
	case KindQuestions:
		if len(tag.Questions) != 3 {
			return Tag{}, false
		}
		for _, q := range tag.Questions {
			if strings.TrimSpace(q) == "" {
				return Tag{}, false
			}
		}
	case KindResult:
		if tag.Verdict != "PASS" && tag.Verdict != "FAIL" {
			return Tag{}, false
		}
	default:
		return Tag{}, false
	}

	return tag, true
}

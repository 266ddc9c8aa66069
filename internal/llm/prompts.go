package llm

import (
	"fmt"
	"strings"
)

const questionInstruction = `You are gating a pull request. Below is the diff under review.
Write exactly three probing questions for the author, one per concern:
1. rationale: why this change was made this way
2. risk: what could break or regress
3. validation: how the change was verified

Questions must be specific to this diff (reference files or functions
where possible), answerable in a few sentences, and not yes/no.`

const questionFormat = `Respond with exactly three lines, numbered "1.", "2.", "3.",
one question per line, and nothing else.`

const questionReask = `Your previous reply did not match the required format.
` + questionFormat

const evaluateInstruction = `You are gating a pull request. The author was asked three questions
about the diff below and replied with free-text answers. Judge whether
the answers demonstrate genuine understanding of the change: the
rationale behind it, its risks, and how it was validated. Vague,
evasive, or contradictory answers fail. Imperfect but substantive
answers pass. You judge understanding only, not code quality.`

const verdictFormat = `Respond with exactly two lines and nothing else:
VERDICT: PASS or VERDICT: FAIL
REASON: <one sentence explaining the verdict>`

const verdictReask = `Your previous reply did not match the required format.
` + verdictFormat

// questionPrompt builds the question-generation prompt. An override
// replaces the instruction preamble; the response format contract is
// always appended so parsing stays strict.
func (c *Client) questionPrompt(diff string, reask bool) string {
	instruction := questionInstruction
	if c.opts.PromptOverride != "" {
		instruction = c.opts.PromptOverride
	}

	format := questionFormat
	if reask {
		format = questionReask
	}

	return fmt.Sprintf("%s\n\n%s\n\n--- DIFF ---\n%s\n--- END DIFF ---\n",
		instruction, format, diff)
}

// evaluatePrompt builds the answer-judging prompt.
func (c *Client) evaluatePrompt(diff string, questions []string, answers string, reask bool) string {
	var qs strings.Builder
	for i, q := range questions {
		fmt.Fprintf(&qs, "%d. %s\n", i+1, q)
	}

	instruction := evaluateInstruction
	if c.opts.Strictness != "" {
		instruction += fmt.Sprintf("\nStrictness level: %s.", c.opts.Strictness)
	}

	format := verdictFormat
	if reask {
		format = verdictReask
	}

	return fmt.Sprintf(`%s

%s

--- DIFF ---
%s
--- END DIFF ---

--- QUESTIONS ---
%s--- END QUESTIONS ---

--- ANSWERS ---
%s
--- END ANSWERS ---
`, instruction, format, diff, qs.String(), answers)
}

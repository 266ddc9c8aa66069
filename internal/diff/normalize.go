// Package diff prepares a raw git diff for prompting: binary and
// generated content is stripped, whitespace-only churn is dropped,
// and the result is truncated to a byte budget by discarding the
// largest per-file sections first. File paths always survive so the
// model can reference locations.
package diff

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

// ErrEmptyDiff indicates nothing renderable remains after filtering.
// The caller must treat this as a skip, not a failure.
var ErrEmptyDiff = errors.New("diff contains no renderable changes")

// DefaultBudget is the normalized diff size cap in bytes.
const DefaultBudget = 48000

// generatedFiles are filtered here as well as via git pathspec
// exclusion, since the raw diff may come from sources that did not
// apply the pathspec.
var generatedFiles = map[string]struct{}{
	"uv.lock":           {},
	"package-lock.json": {},
	"yarn.lock":         {},
	"pnpm-lock.yaml":    {},
	"Cargo.lock":        {},
	"cargo.lock":        {},
	"Gemfile.lock":      {},
	"poetry.lock":       {},
	"composer.lock":     {},
	"go.sum":            {},
}

// section is one per-file chunk of a unified diff.
type section struct {
	path string
	text string
}

// Normalize filters and truncates a raw git diff to fit budget bytes.
// Pure function. Returns ErrEmptyDiff when nothing renderable remains.
func Normalize(raw string, budget int) (string, error) {
	if budget <= 0 {
		budget = DefaultBudget
	}

	sections := splitSections(raw)

	var kept []section
	for _, s := range sections {
		if isBinarySection(s.text) {
			continue
		}
		if isGeneratedFile(s.path) {
			continue
		}
		if isWhitespaceOnly(s.text) {
			continue
		}
		kept = append(kept, s)
	}

	if len(kept) == 0 {
		return "", ErrEmptyDiff
	}

	total := 0
	for _, s := range kept {
		total += len(s.text)
	}
	if total <= budget {
		return joinSections(kept), nil
	}

	return truncate(kept, budget), nil
}

// truncate drops the largest sections until the rest fits, keeping
// the survivors in their original order and naming what was dropped.
func truncate(sections []section, budget int) string {
	// Index sections by size, smallest first, so the densest
	// changes survive.
	order := make([]int, len(sections))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return len(sections[order[a]].text) < len(sections[order[b]].text)
	})

	include := make([]bool, len(sections))
	remaining := budget
	for _, idx := range order {
		if len(sections[idx].text) <= remaining {
			include[idx] = true
			remaining -= len(sections[idx].text)
		}
	}

	var out []section
	var omitted []string
	for i, s := range sections {
		if include[i] {
			out = append(out, s)
		} else {
			omitted = append(omitted, s.path)
		}
	}

	// Degenerate budget: nothing fits whole. Keep the smallest
	// section hard-truncated so the model still sees something.
	if len(out) == 0 {
		smallest := sections[order[0]]
		text := smallest.text
		if len(text) > budget {
			// Back off to a rune boundary so the cut never splits
			// a multibyte UTF-8 sequence.
			cut := budget
			for cut > 0 && !utf8.RuneStart(text[cut]) {
				cut--
			}
			text = text[:cut] + "\n...(truncated)\n"
		}
		out = append(out, section{path: smallest.path, text: text})
		omitted = omitted[:0]
		for i, s := range sections {
			if i != order[0] {
				omitted = append(omitted, s.path)
			}
		}
	}

	result := joinSections(out)
	if len(omitted) > 0 {
		result += fmt.Sprintf(
			"\n[%d file(s) omitted to fit the prompt budget: %s]\n",
			len(omitted), strings.Join(omitted, ", "))
	}
	return result
}

// splitSections splits a unified diff on "diff --git" boundaries.
func splitSections(raw string) []section {
	lines := strings.SplitAfter(raw, "\n")

	var sections []section
	var cur *section
	for _, line := range lines {
		if strings.HasPrefix(line, "diff --git ") {
			if cur != nil {
				sections = append(sections, *cur)
			}
			cur = &section{path: pathFromHeader(line)}
		}
		if cur != nil {
			cur.text += line
		}
	}
	if cur != nil {
		sections = append(sections, *cur)
	}
	return sections
}

// pathFromHeader extracts the post-image path from a
// "diff --git a/old b/new" line.
func pathFromHeader(header string) string {
	header = strings.TrimSuffix(header, "\n")
	fields := strings.Fields(header)
	if len(fields) < 4 {
		return header
	}
	return strings.TrimPrefix(fields[len(fields)-1], "b/")
}

func joinSections(sections []section) string {
	var b strings.Builder
	for _, s := range sections {
		b.WriteString(s.text)
	}
	return b.String()
}

func isBinarySection(text string) bool {
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(line, "Binary files ") ||
			strings.HasPrefix(line, "GIT binary patch") {
			return true
		}
	}
	return false
}

func isGeneratedFile(path string) bool {
	base := path
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		base = path[i+1:]
	}
	_, ok := generatedFiles[base]
	return ok
}

// isWhitespaceOnly reports whether every change in the section is
// purely whitespace: the removed content and added content are
// identical once all whitespace is stripped.
func isWhitespaceOnly(text string) bool {
	var removed, added strings.Builder
	sawChange := false

	for _, line := range strings.Split(text, "\n") {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			// file headers
		case strings.HasPrefix(line, "+"):
			sawChange = true
			added.WriteString(stripSpace(line[1:]))
		case strings.HasPrefix(line, "-"):
			sawChange = true
			removed.WriteString(stripSpace(line[1:]))
		}
	}

	return sawChange && added.String() == removed.String()
}

func stripSpace(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r != ' ' && r != '\t' && r != '\r' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

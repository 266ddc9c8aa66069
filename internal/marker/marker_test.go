package marker

import (
	"reflect"
	"strings"
	"testing"
)

func TestRoundTrip_Questions(t *testing.T) {
	tag := Tag{
		Kind:   KindQuestions,
		DiffID: "abc123def456",
		Questions: []string{
			"Why did you choose this approach?",
			"What could break?",
			"How did you test it?",
		},
	}

	body := Encode(tag, "### Questions\n\n1. one\n2. two\n3. three")

	got, ok := Decode(body)
	if !ok {
		t.Fatal("expected decode to succeed")
	}
	if !reflect.DeepEqual(got, tag) {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, tag)
	}
}

func TestRoundTrip_Result(t *testing.T) {
	tag := Tag{
		Kind:    KindResult,
		DiffID:  "abc123",
		Verdict: "FAIL",
		Reason:  "answers did not address risk",
	}

	got, ok := Decode(Encode(tag, "**FAIL**: answers did not address risk"))
	if !ok {
		t.Fatal("expected decode to succeed")
	}
	if !reflect.DeepEqual(got, tag) {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, tag)
	}
}

func TestEncode_TagIsInvisibleFirstLine(t *testing.T) {
	body := Encode(Tag{
		Kind:    KindResult,
		DiffID:  "abc",
		Verdict: "PASS",
	}, "visible text")

	first, rest, _ := strings.Cut(body, "\n")
	if !strings.HasPrefix(first, "<!--") || !strings.HasSuffix(first, "-->") {
		t.Errorf("expected HTML comment on first line, got %q", first)
	}
	if rest != "visible text" {
		t.Errorf("expected visible body after tag, got %q", rest)
	}
}

func TestDecode_IgnoresArbitraryText(t *testing.T) {
	bodies := []string{
		"",
		"LGTM!",
		"/answers\nI did the thing because reasons.",
		"<!-- some other tool's marker -->\nhello",
		"<!-- pr-guard:v1 not-json -->\nhello",
		`<!-- pr-guard:v1 {"kind":"questions","diff":""} -->`,
		`<!-- pr-guard:v1 {"kind":"unknown","diff":"abc"} -->`,
		`<!-- pr-guard:v1 {"kind":"questions","diff":"abc","questions":["only","two"]} -->`,
		`<!-- pr-guard:v1 {"kind":"questions","diff":"abc","questions":["a","b","  "]} -->`,
		`<!-- pr-guard:v1 {"kind":"result","diff":"abc","verdict":"MAYBE"} -->`,
		`<!-- pr-guard:v1 {"kind":"result","diff":"abc"} -->`,
		"pr-guard:v1 {\"kind\":\"result\",\"diff\":\"abc\",\"verdict\":\"PASS\"}",
	}

	for _, body := range bodies {
		if _, ok := Decode(body); ok {
			t.Errorf("expected decode to ignore %q", body)
		}
	}
}

func TestDecode_ToleratesLeadingWhitespace(t *testing.T) {
	body := "\n  " + Encode(Tag{
		Kind:    KindResult,
		DiffID:  "abc",
		Verdict: "PASS",
	}, "ok")

	tag, ok := Decode(body)
	if !ok {
		t.Fatal("expected decode to succeed with leading whitespace")
	}
	if tag.Verdict != "PASS" {
		t.Errorf("expected PASS, got %q", tag.Verdict)
	}
}

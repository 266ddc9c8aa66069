package diff

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"
)

func fileSection(path string, bodyLines ...string) string {
	var b strings.Builder
	b.WriteString("diff --git a/" + path + " b/" + path + "\n")
	b.WriteString("index 0000000..1111111 100644\n")
	b.WriteString("--- a/" + path + "\n")
	b.WriteString("+++ b/" + path + "\n")
	b.WriteString("@@ -1,3 +1,3 @@\n")
	for _, line := range bodyLines {
		b.WriteString(line + "\n")
	}
	return b.String()
}

func TestNormalize_PassThrough(t *testing.T) {
	raw := fileSection("main.go",
		" package main",
		"-func old() {}",
		"+func new() {}")

	got, err := Normalize(raw, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != raw {
		t.Errorf("expected diff unchanged, got:\n%s", got)
	}
}

func TestNormalize_StripsBinary(t *testing.T) {
	binary := "diff --git a/logo.png b/logo.png\n" +
		"index 0000000..1111111 100644\n" +
		"Binary files a/logo.png and b/logo.png differ\n"
	code := fileSection("main.go", "+func main() {}")

	got, err := Normalize(binary+code, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(got, "logo.png") {
		t.Error("expected binary section to be stripped")
	}
	if !strings.Contains(got, "main.go") {
		t.Error("expected code section to survive")
	}
}

func TestNormalize_StripsGeneratedFiles(t *testing.T) {
	lock := fileSection("package-lock.json", "+  \"lockfileVersion\": 3,")
	nested := fileSection("sub/dir/go.sum", "+github.com/x v1.0.0 h1:abc")
	code := fileSection("handler.go", "+return nil")

	got, err := Normalize(lock+nested+code, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(got, "package-lock.json") || strings.Contains(got, "go.sum") {
		t.Errorf("expected generated files stripped, got:\n%s", got)
	}
	if !strings.Contains(got, "handler.go") {
		t.Error("expected code section to survive")
	}
}

func TestNormalize_StripsWhitespaceOnlyChanges(t *testing.T) {
	ws := fileSection("fmt.go",
		"-func f() {return 1}",
		"+func f() { return 1 }")
	code := fileSection("logic.go", "+func g() int { return 2 }")

	got, err := Normalize(ws+code, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(got, "fmt.go") {
		t.Error("expected whitespace-only section to be stripped")
	}
	if !strings.Contains(got, "logic.go") {
		t.Error("expected real change to survive")
	}
}

func TestNormalize_EmptyDiff(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty input", ""},
		{"binary only", "diff --git a/x.bin b/x.bin\nBinary files a/x.bin and b/x.bin differ\n"},
		{"lockfile only", fileSection("yarn.lock", "+lockdata")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(tt.raw, 0)
			if !errors.Is(err, ErrEmptyDiff) {
				t.Errorf("expected ErrEmptyDiff, got %v", err)
			}
		})
	}
}

func TestNormalize_BudgetDropsLargestFirst(t *testing.T) {
	small := fileSection("small.go", "+var a = 1")
	big := fileSection("big.go",
		"+"+strings.Repeat("x", 500),
		"+"+strings.Repeat("y", 500))

	budget := len(small) + 50 // big.go cannot fit
	got, err := Normalize(small+big, budget)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(got, "var a = 1") {
		t.Error("expected small section kept")
	}
	if strings.Contains(got, strings.Repeat("x", 500)) {
		t.Error("expected big section dropped")
	}
	if !strings.Contains(got, "omitted to fit the prompt budget") ||
		!strings.Contains(got, "big.go") {
		t.Errorf("expected omission trailer naming big.go, got:\n%s", got)
	}
}

func TestNormalize_KeptSectionsStayInOrder(t *testing.T) {
	first := fileSection("a.go", "+var a = 1")
	second := fileSection("b.go", "+var bb = 22")
	third := fileSection("c.go", "+"+strings.Repeat("z", 2000))

	budget := len(first) + len(second)
	got, err := Normalize(first+second+third, budget)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ai := strings.Index(got, "a.go")
	bi := strings.Index(got, "b.go")
	if ai < 0 || bi < 0 || ai > bi {
		t.Errorf("expected a.go before b.go, got:\n%s", got)
	}
}

func TestNormalize_DegenerateBudgetKeepsTruncatedSmallest(t *testing.T) {
	only := fileSection("huge.go", "+"+strings.Repeat("q", 5000))

	got, err := Normalize(only, 200)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(got, "diff --git a/huge.go b/huge.go") {
		t.Error("expected file header preserved")
	}
	if !strings.Contains(got, "...(truncated)") {
		t.Error("expected truncation trailer")
	}
	if len(got) > 300 {
		t.Errorf("expected hard truncation near budget, got %d bytes", len(got))
	}
}

func TestNormalize_DegenerateBudgetCutsAtRuneBoundary(t *testing.T) {
	// Multibyte content where a byte-index cut would land mid-rune.
	only := fileSection("i18n.go", "+"+strings.Repeat("日本語テキスト", 300))

	for budget := 180; budget < 200; budget++ {
		got, err := Normalize(only, budget)
		if err != nil {
			t.Fatalf("budget %d: unexpected error: %v", budget, err)
		}
		if !utf8.ValidString(got) {
			t.Errorf("budget %d: truncation split a UTF-8 sequence", budget)
		}
		if !strings.Contains(got, "...(truncated)") {
			t.Errorf("budget %d: expected truncation trailer", budget)
		}
	}
}

func TestPathFromHeader(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"diff --git a/main.go b/main.go\n", "main.go"},
		{"diff --git a/pkg/x.go b/pkg/x.go\n", "pkg/x.go"},
	}

	for _, tt := range tests {
		if got := pathFromHeader(tt.header); got != tt.want {
			t.Errorf("pathFromHeader(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}

package ghapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/go-github/v57/github"
)

// testClient points a Client at a local httptest server.
func testClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()

	gh := github.NewClient(nil)
	base, err := url.Parse(srv.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	gh.BaseURL = base
	gh.UploadURL = base

	c, err := newClient(gh, "acme/widgets", 7)
	if err != nil {
		t.Fatal(err)
	}
	c.backoffBase = time.Millisecond
	return c
}

func TestNewClient_Validation(t *testing.T) {
	gh := github.NewClient(nil)

	if _, err := newClient(gh, "no-slash", 7); err == nil {
		t.Error("expected error for repo without owner")
	}
	if _, err := newClient(gh, "acme/widgets", 0); err == nil {
		t.Error("expected error for PR number 0")
	}
}

func TestList_Paginated(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/repos/acme/widgets/issues/7/comments", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("sort"); got != "created" {
			t.Errorf("expected sort=created, got %q", got)
		}
		if got := r.URL.Query().Get("direction"); got != "asc" {
			t.Errorf("expected direction=asc, got %q", got)
		}

		page := r.URL.Query().Get("page")
		w.Header().Set("Content-Type", "application/json")
		if page == "" || page == "1" {
			w.Header().Set("Link", fmt.Sprintf(
				`<%s/repos/acme/widgets/issues/7/comments?page=2>; rel="next"`, srv.URL))
			fmt.Fprint(w, `[{"id":1,"body":"first","created_at":"2025-06-01T12:00:00Z","user":{"login":"alice"}}]`)
			return
		}
		fmt.Fprint(w, `[{"id":2,"body":"second","created_at":"2025-06-01T12:05:00Z","user":{"login":"bob"}}]`)
	})

	c := testClient(t, srv)

	comments, err := c.List(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(comments) != 2 {
		t.Fatalf("expected 2 comments across pages, got %d", len(comments))
	}
	if comments[0].ID != 1 || comments[0].Author != "alice" || comments[0].Body != "first" {
		t.Errorf("unexpected first comment: %+v", comments[0])
	}
	if comments[1].ID != 2 {
		t.Errorf("unexpected second comment: %+v", comments[1])
	}
	if comments[0].CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be populated")
	}
}

func TestPost(t *testing.T) {
	var gotBody string
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/widgets/issues/7/comments", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		var payload struct {
			Body string `json:"body"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatal(err)
		}
		gotBody = payload.Body
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"id":42}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := testClient(t, srv)

	id, err := c.Post(context.Background(), "hello thread")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != 42 {
		t.Errorf("expected comment ID 42, got %d", id)
	}
	if gotBody != "hello thread" {
		t.Errorf("expected body passed through, got %q", gotBody)
	}
}

func TestPost_TruncatesOversizedBody(t *testing.T) {
	var gotBody string
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/widgets/issues/7/comments", func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Body string `json:"body"`
		}
		json.NewDecoder(r.Body).Decode(&payload)
		gotBody = payload.Body
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"id":1}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := testClient(t, srv)

	if _, err := c.Post(context.Background(), strings.Repeat("x", MaxCommentLen+100)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(gotBody) > MaxCommentLen+100 {
		t.Errorf("expected truncation, got %d bytes", len(gotBody))
	}
	if !strings.Contains(gotBody, "truncated") {
		t.Error("expected truncation notice in body")
	}
}

func TestPullRequestSHAs(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/widgets/pulls/7", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"number":7,"base":{"sha":"basesha"},"head":{"sha":"headsha"}}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := testClient(t, srv)

	base, head, err := c.PullRequestSHAs(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if base != "basesha" || head != "headsha" {
		t.Errorf("got base=%q head=%q", base, head)
	}
}

func TestWithRetry_ServerErrorThenSuccess(t *testing.T) {
	var hits int
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/widgets/issues/7/comments", func(w http.ResponseWriter, r *http.Request) {
		hits++
		if hits <= 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `[]`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := testClient(t, srv)

	if _, err := c.List(context.Background()); err != nil {
		t.Fatalf("expected recovery after retries, got %v", err)
	}
	if hits != 3 {
		t.Errorf("expected 3 attempts, got %d", hits)
	}
}

func TestWithRetry_ClientErrorNotRetried(t *testing.T) {
	var hits int
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/widgets/issues/7/comments", func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusNotFound)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := testClient(t, srv)

	if _, err := c.List(context.Background()); err == nil {
		t.Fatal("expected error for 404")
	}
	if hits != 1 {
		t.Errorf("expected no retries for 404, got %d attempts", hits)
	}
}

func TestIsRetryable(t *testing.T) {
	mkResp := func(code int, rateLimit, rateRemaining int) *github.Response {
		return &github.Response{
			Response: &http.Response{StatusCode: code},
			Rate:     github.Rate{Limit: rateLimit, Remaining: rateRemaining},
		}
	}

	tests := []struct {
		name string
		resp *github.Response
		want bool
	}{
		{"network error", nil, true},
		{"429", mkResp(http.StatusTooManyRequests, 0, 0), true},
		{"500", mkResp(http.StatusInternalServerError, 0, 0), true},
		{"503", mkResp(http.StatusServiceUnavailable, 0, 0), true},
		{"403 rate limited", mkResp(http.StatusForbidden, 5000, 0), true},
		{"403 plain forbidden", mkResp(http.StatusForbidden, 0, 0), false},
		{"404", mkResp(http.StatusNotFound, 0, 0), false},
		{"422", mkResp(http.StatusUnprocessableEntity, 0, 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isRetryable(tt.resp); got != tt.want {
				t.Errorf("isRetryable = %v, want %v", got, tt.want)
			}
		})
	}
}

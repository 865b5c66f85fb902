package session

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func b64(body []byte) string {
	return base64.StdEncoding.EncodeToString(body)
}

func gz(t *testing.T, body []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(body); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func newTestRelay(t *testing.T, mux *http.ServeMux) *Bridge {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return NewBridge(srv.URL)
}

func TestOpenReturnsSession(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /sessions", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("bad open payload: %v", err)
		}
		if req["page_id"] != "12345" {
			t.Fatalf("page_id = %q", req["page_id"])
		}
		w.Write([]byte(`{"session_id":"s1"}`))
	})

	sess, err := newTestRelay(t, mux).Open("12345")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sess == nil {
		t.Fatal("nil session")
	}
}

func TestOpenFailsWithoutSessionID(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /sessions", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})
	if _, err := newTestRelay(t, mux).Open("12345"); err == nil {
		t.Fatal("expected error when relay returns no session id")
	}
}

func TestObservePicksNewestMatchAndDecompresses(t *testing.T) {
	payload := []byte(`{"posts":[{"id":"p2"}]}`)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /sessions", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"session_id":"s1"}`))
	})
	mux.HandleFunc("GET /sessions/s1/exchanges", func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]interface{}{
			"exchanges": []map[string]interface{}{
				{"url": "https://app.example.com/1/loadHistory", "body": b64([]byte(`{"posts":[{"id":"p1"}]}`))},
				{"url": "https://app.example.com/1/other", "body": b64([]byte(`{}`))},
				{"url": "https://app.example.com/1/loadHistory?limiter=x", "body": b64(gz(t, payload)),
					"request_headers": map[string]string{"x-csrf-token": "tok"}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	})

	sess, err := newTestRelay(t, mux).Open("1")
	if err != nil {
		t.Fatal(err)
	}

	ex, err := sess.Observe("loadHistory", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ex == nil {
		t.Fatal("expected an exchange")
	}
	if !bytes.Equal(ex.Body, payload) {
		t.Fatalf("body = %s", ex.Body)
	}
	if ex.RequestHeaders["x-csrf-token"] != "tok" {
		t.Fatalf("headers = %#v", ex.RequestHeaders)
	}
}

func TestObserveReturnsNilWhenNothingMatches(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /sessions", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"session_id":"s1"}`))
	})
	mux.HandleFunc("GET /sessions/s1/exchanges", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"exchanges":[]}`))
	})

	sess, _ := newTestRelay(t, mux).Open("1")
	ex, err := sess.Observe("loadHistory", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ex != nil {
		t.Fatalf("expected nil exchange, got %#v", ex)
	}
}

func TestIssueAndAwaitPollsUntilDone(t *testing.T) {
	polls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("POST /sessions", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"session_id":"s1"}`))
	})
	mux.HandleFunc("POST /sessions/s1/fetch", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			URL     string            `json:"url"`
			Headers map[string]string `json:"headers"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("bad fetch payload: %v", err)
		}
		if req.Headers["x-csrf-token"] != "tok" {
			t.Fatalf("fetch headers not forwarded: %#v", req.Headers)
		}
		w.Write([]byte(`{"request_id":"r1"}`))
	})
	mux.HandleFunc("GET /sessions/s1/fetch/r1", func(w http.ResponseWriter, r *http.Request) {
		polls++
		if polls < 3 {
			w.Write([]byte(`{"done":false}`))
			return
		}
		resp := map[string]interface{}{
			"done": true,
			"url":  "https://app.example.com/1/loadHistory?limiter=a",
			"body": b64([]byte(`{"posts":[]}`)),
		}
		json.NewEncoder(w).Encode(resp)
	})

	sess, _ := newTestRelay(t, mux).Open("1")
	ex, err := sess.IssueAndAwait("https://app.example.com/1/loadHistory?limiter=a",
		map[string]string{"x-csrf-token": "tok"}, 5, time.Millisecond)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ex == nil {
		t.Fatal("expected an exchange")
	}
	if polls != 3 {
		t.Fatalf("polls = %d, want 3", polls)
	}
}

func TestIssueAndAwaitGivesUpAfterAttempts(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /sessions", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"session_id":"s1"}`))
	})
	mux.HandleFunc("POST /sessions/s1/fetch", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"request_id":"r1"}`))
	})
	mux.HandleFunc("GET /sessions/s1/fetch/r1", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"done":false}`))
	})

	sess, _ := newTestRelay(t, mux).Open("1")
	ex, err := sess.IssueAndAwait("https://x", nil, 3, time.Millisecond)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ex != nil {
		t.Fatalf("expected nil exchange after exhausted attempts")
	}
}

func TestIssueAndAwaitSurfacesRelayError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /sessions", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"session_id":"s1"}`))
	})
	mux.HandleFunc("POST /sessions/s1/fetch", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"request_id":"r1"}`))
	})
	mux.HandleFunc("GET /sessions/s1/fetch/r1", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"done":true,"error":"net::ERR_FAILED"}`))
	})

	sess, _ := newTestRelay(t, mux).Open("1")
	if _, err := sess.IssueAndAwait("https://x", nil, 2, time.Millisecond); err == nil {
		t.Fatal("expected relay error to surface")
	}
}

package translation

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMyMemoryTranslate(t *testing.T) {
	t.Parallel()

	var gotPath string
	var gotQuery map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = map[string]string{
			"q":        r.URL.Query().Get("q"),
			"langpair": r.URL.Query().Get("langpair"),
			"de":       r.URL.Query().Get("de"),
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"responseData":{"translatedText":"你好世界"},"responseStatus":200}`))
	}))
	defer server.Close()

	backend := NewMyMemoryBackend(server.URL, "contact@example.org")
	resp, err := backend.Translate(context.Background(), Request{Text: "hello world", SourceLang: "en", TargetLang: "zh"})
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}

	if resp.Text != "你好世界" {
		t.Fatalf("unexpected translation: %q", resp.Text)
	}
	if resp.BackendName != "mymemory" {
		t.Fatalf("unexpected backend name: %q", resp.BackendName)
	}
	if gotPath != "/get" {
		t.Fatalf("unexpected path: %q", gotPath)
	}
	if gotQuery["q"] != "hello world" || gotQuery["langpair"] != "en|zh" {
		t.Fatalf("unexpected query: %v", gotQuery)
	}
	if gotQuery["de"] != "contact@example.org" {
		t.Fatalf("contact address not forwarded: %v", gotQuery)
	}
}

func TestMyMemoryTranslateOmitsEmptyContact(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Has("de") {
			t.Error("de parameter must be absent without a contact address")
		}
		w.Write([]byte(`{"responseData":{"translatedText":"ok"}}`))
	}))
	defer server.Close()

	backend := NewMyMemoryBackend(server.URL, "")
	if _, err := backend.Translate(context.Background(), Request{Text: "x", SourceLang: "en", TargetLang: "zh"}); err != nil {
		t.Fatalf("Translate: %v", err)
	}
}

func TestMyMemoryQuotaWarningPassesThroughVerbatim(t *testing.T) {
	t.Parallel()

	// Quota exhaustion arrives as a 200 with warning text in the body. The
	// backend must not treat it as an error; classification is the
	// orchestrator's job.
	warning := "MYMEMORY WARNING: YOU USED ALL AVAILABLE FREE TRANSLATIONS FOR TODAY"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"responseData":{"translatedText":"` + warning + `"}}`))
	}))
	defer server.Close()

	backend := NewMyMemoryBackend(server.URL, "")
	resp, err := backend.Translate(context.Background(), Request{Text: "hello", SourceLang: "en", TargetLang: "zh"})
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if resp.Text != warning {
		t.Fatalf("warning body must pass through verbatim, got %q", resp.Text)
	}
	if classify(resp.Text) != outcomeQuotaExceeded {
		t.Fatal("warning body must classify as quota exhaustion")
	}
}

func TestMyMemoryTranslateErrors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		status int
		body   string
	}{
		{name: "server error", status: http.StatusInternalServerError, body: `{}`},
		{name: "rate limited", status: http.StatusTooManyRequests, body: `{}`},
		{name: "malformed json", status: http.StatusOK, body: `{"responseData":`},
		{name: "empty translation", status: http.StatusOK, body: `{"responseData":{"translatedText":"  "}}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}))
			defer server.Close()

			backend := NewMyMemoryBackend(server.URL, "")
			if _, err := backend.Translate(context.Background(), Request{Text: "hello", SourceLang: "en", TargetLang: "zh"}); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestMyMemoryTranslateRejectsBlankText(t *testing.T) {
	t.Parallel()

	backend := NewMyMemoryBackend("http://127.0.0.1:0", "")
	if _, err := backend.Translate(context.Background(), Request{Text: "   ", SourceLang: "en", TargetLang: "zh"}); err == nil {
		t.Fatal("expected an error for blank text")
	}
}

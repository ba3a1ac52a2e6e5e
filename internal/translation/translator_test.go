package translation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

// stubBackend scripts per-call responses for orchestrator tests.
type stubBackend struct {
	name      string
	chunkSize int
	calls     int
	requests  []Request
	respond   func(call int, req Request) (string, error)
}

func (b *stubBackend) Translate(_ context.Context, req Request) (*Response, error) {
	call := b.calls
	b.calls++
	b.requests = append(b.requests, req)

	text := "translated:" + req.Text
	if b.respond != nil {
		var err error
		text, err = b.respond(call, req)
		if err != nil {
			return nil, err
		}
	}
	return &Response{Text: text, SourceLang: req.SourceLang, TargetLang: req.TargetLang, BackendName: b.name}, nil
}

func (b *stubBackend) Name() string {
	return b.name
}

func (b *stubBackend) ChunkSize() int {
	if b.chunkSize > 0 {
		return b.chunkSize
	}
	return 450
}

func newTestTranslator(primary, secondary Backend) *Translator {
	return NewTranslator(primary, secondary, Options{PrimaryDelay: -1, SecondaryDelay: -1})
}

func TestTranslateEmptyTextShortCircuits(t *testing.T) {
	t.Parallel()

	primary := &stubBackend{name: "primary"}
	secondary := &stubBackend{name: "secondary"}
	tr := newTestTranslator(primary, secondary)

	if got := tr.Translate(context.Background(), "", "zh", "en"); got != "" {
		t.Fatalf("expected empty result, got %q", got)
	}
	if primary.calls != 0 || secondary.calls != 0 {
		t.Fatal("empty input must not invoke any backend")
	}
}

func TestTranslateSkipsTextAlreadyInTargetScript(t *testing.T) {
	t.Parallel()

	primary := &stubBackend{name: "primary"}
	secondary := &stubBackend{name: "secondary"}
	tr := newTestTranslator(primary, secondary)

	if got := tr.Translate(context.Background(), "你好", "zh", "en"); got != "你好" {
		t.Fatalf("expected input returned unchanged, got %q", got)
	}
	if primary.calls != 0 || secondary.calls != 0 {
		t.Fatal("target-script input must not invoke any backend")
	}
}

func TestTranslateCachesWithinSession(t *testing.T) {
	t.Parallel()

	primary := &stubBackend{name: "primary"}
	secondary := &stubBackend{name: "secondary"}
	tr := newTestTranslator(primary, secondary)

	first := tr.Translate(context.Background(), "hello world", "zh", "en")
	second := tr.Translate(context.Background(), "hello world", "zh", "en")

	if first != second {
		t.Fatalf("cache must return the identical string: %q vs %q", first, second)
	}
	if primary.calls != 1 {
		t.Fatalf("expected a single backend invocation, got %d", primary.calls)
	}
	if secondary.calls != 0 {
		t.Fatalf("did not expect fallback calls, got %d", secondary.calls)
	}
}

func TestTranslateQuotaSentinelSwitchesToFallback(t *testing.T) {
	t.Parallel()

	primary := &stubBackend{
		name: "primary",
		respond: func(_ int, _ Request) (string, error) {
			return "MYMEMORY WARNING: QUOTA EXCEEDED", nil
		},
	}
	secondary := &stubBackend{name: "secondary"}
	tr := newTestTranslator(primary, secondary)

	got := tr.Translate(context.Background(), "hello world", "zh", "en")

	if got != "translated:hello world" {
		t.Fatalf("chunk must come from the fallback backend, got %q", got)
	}
	if tr.Session().Failures() != 1 {
		t.Fatalf("expected failure count 1, got %d", tr.Session().Failures())
	}
	if !tr.Session().FallbackOnly() {
		t.Fatal("quota sentinel must pin the session to the fallback backend")
	}
	if primary.calls != 1 || secondary.calls != 1 {
		t.Fatalf("unexpected call counts: primary=%d secondary=%d", primary.calls, secondary.calls)
	}
}

func TestTranslateSentinelMidTextRoutesRemainingChunks(t *testing.T) {
	t.Parallel()

	// Three chunks; the second trips the quota sentinel. The third must go
	// straight to the fallback without touching the primary again.
	primary := &stubBackend{
		name:      "primary",
		chunkSize: 10,
		respond: func(call int, req Request) (string, error) {
			if call == 1 {
				return "MYMEMORY WARNING: QUOTA EXCEEDED", nil
			}
			return "p:" + req.Text, nil
		},
	}
	secondary := &stubBackend{
		name:      "secondary",
		chunkSize: 20,
		respond: func(_ int, req Request) (string, error) {
			return "s:" + req.Text, nil
		},
	}
	tr := newTestTranslator(primary, secondary)

	text := "aaaa bbbb cccc dddd ffff gggg" // chunks into several 10-rune windows
	got := tr.Translate(context.Background(), text, "zh", "en")

	if primary.calls != 2 {
		t.Fatalf("primary must not be retried after the sentinel, got %d calls", primary.calls)
	}
	if secondary.calls == 0 {
		t.Fatal("expected fallback calls after the sentinel")
	}
	if !strings.Contains(got, "p:") || !strings.Contains(got, "s:") {
		t.Fatalf("expected mixed backend output, got %q", got)
	}
}

func TestTranslateStickyFallbackAfterThreeFailures(t *testing.T) {
	t.Parallel()

	primary := &stubBackend{
		name: "primary",
		respond: func(int, Request) (string, error) {
			return "", errors.New("connection reset")
		},
	}
	secondary := &stubBackend{name: "secondary"}
	tr := newTestTranslator(primary, secondary)

	for i := 0; i < 3; i++ {
		text := fmt.Sprintf("text number %d", i)
		if got := tr.Translate(context.Background(), text, "zh", "en"); got != "translated:"+text {
			t.Fatalf("expected fallback translation, got %q", got)
		}
	}
	if tr.Session().Failures() != 3 {
		t.Fatalf("expected 3 recorded failures, got %d", tr.Session().Failures())
	}

	primaryCallsBefore := primary.calls
	tr.Translate(context.Background(), "a fourth text", "zh", "en")

	if primary.calls != primaryCallsBefore {
		t.Fatal("fourth call must never invoke the primary backend")
	}
	if !tr.Session().FallbackOnly() {
		t.Fatal("session must be pinned to the fallback backend")
	}
	// Fallback-only calls chunk with the secondary backend's larger size.
	last := secondary.requests[len(secondary.requests)-1]
	if last.Text != "a fourth text" {
		t.Fatalf("unexpected fallback request text: %q", last.Text)
	}
}

func TestTranslateDegradesToOriginalWhenBothBackendsFail(t *testing.T) {
	t.Parallel()

	primary := &stubBackend{
		name: "primary",
		respond: func(int, Request) (string, error) {
			return "", errors.New("primary unavailable")
		},
	}
	secondary := &stubBackend{
		name: "secondary",
		respond: func(int, Request) (string, error) {
			return "", errors.New("secondary unavailable")
		},
	}
	tr := newTestTranslator(primary, secondary)

	got := tr.Translate(context.Background(), "stubborn chunk", "zh", "en")
	if !strings.Contains(got, "stubborn chunk") {
		t.Fatalf("result must contain the original text, got %q", got)
	}
}

func TestTranslatePartialFailureKeepsFailedChunkText(t *testing.T) {
	t.Parallel()

	primary := &stubBackend{
		name:      "primary",
		chunkSize: 12,
		respond: func(call int, req Request) (string, error) {
			if call == 1 {
				return "", errors.New("timeout")
			}
			return "p:" + req.Text, nil
		},
	}
	secondary := &stubBackend{
		name: "secondary",
		respond: func(int, Request) (string, error) {
			return "", errors.New("also down")
		},
	}
	tr := newTestTranslator(primary, secondary)

	text := "first part and second part and third part"
	got := tr.Translate(context.Background(), text, "zh", "en")

	if !strings.Contains(got, "p:") {
		t.Fatalf("expected some translated chunks, got %q", got)
	}
	// The failed chunk survives untranslated inside the joined output.
	if !strings.Contains(got, "second") && !strings.Contains(got, "part") {
		t.Fatalf("expected the failed chunk's original text, got %q", got)
	}
}

func TestTranslateDefaultsLanguageCodes(t *testing.T) {
	t.Parallel()

	primary := &stubBackend{name: "primary"}
	secondary := &stubBackend{name: "secondary"}
	tr := newTestTranslator(primary, secondary)

	// An empty source language is detected from the text before falling back
	// to the default; a plainly English sentence resolves to "en" either way.
	tr.Translate(context.Background(), "the quick brown fox jumps over the lazy dog", "", "")

	if len(primary.requests) != 1 {
		t.Fatalf("expected one primary request, got %d", len(primary.requests))
	}
	req := primary.requests[0]
	if req.TargetLang != DefaultTargetLang || req.SourceLang != DefaultSourceLang {
		t.Fatalf("unexpected language pair: %s|%s", req.SourceLang, req.TargetLang)
	}
}

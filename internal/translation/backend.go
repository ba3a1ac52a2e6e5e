package translation

import (
	"context"
	"strings"
)

// Backend translates one bounded chunk of text between languages.
type Backend interface {
	Translate(ctx context.Context, req Request) (*Response, error)
	Name() string
	// ChunkSize is the largest chunk (in runes) the backend accepts reliably.
	ChunkSize() int
}

// Request describes one translation request.
type Request struct {
	Text       string
	SourceLang string // ISO 639-1 (for example: "en")
	TargetLang string
}

// Response contains translated text and backend metadata.
type Response struct {
	Text        string
	SourceLang  string
	TargetLang  string
	BackendName string
}

// outcome classifies a backend response body. The primary service reports
// quota exhaustion inside a 200-level response, so classification is a body
// check, never a status check.
type outcome int

const (
	outcomeOK outcome = iota
	outcomeQuotaExceeded
)

var sentinelPhrases = []string{
	"MYMEMORY WARNING",
	"QUOTA EXCEEDED",
}

func classify(body string) outcome {
	upper := strings.ToUpper(body)
	for _, phrase := range sentinelPhrases {
		if strings.Contains(upper, phrase) {
			return outcomeQuotaExceeded
		}
	}
	return outcomeOK
}

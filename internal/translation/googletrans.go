package translation

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultGoogleTranslateBaseURL points to the keyless web translation
	// endpoint.
	DefaultGoogleTranslateBaseURL = "https://translate.googleapis.com"

	// googleTranslateChunkSize: the endpoint tolerates noticeably longer
	// inputs than the primary backend.
	googleTranslateChunkSize = 900

	googleTranslateTimeout = 5 * time.Second
)

// GoogleTranslateBackend is the secondary (fallback) translation backend.
// It speaks the unauthenticated translate_a/single protocol: a plain GET
// with a fixed client token, answered by a nested-list payload whose first
// element holds [translated_segment, source_segment, ...] pairs.
type GoogleTranslateBackend struct {
	baseURL string
	client  *http.Client
}

func NewGoogleTranslateBackend(baseURL string) *GoogleTranslateBackend {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		base = DefaultGoogleTranslateBaseURL
	}
	return &GoogleTranslateBackend{
		baseURL: base,
		client:  &http.Client{Timeout: googleTranslateTimeout},
	}
}

func (b *GoogleTranslateBackend) Name() string {
	return "googletrans"
}

func (b *GoogleTranslateBackend) ChunkSize() int {
	return googleTranslateChunkSize
}

func (b *GoogleTranslateBackend) Translate(ctx context.Context, req Request) (*Response, error) {
	if b == nil {
		return nil, fmt.Errorf("googletrans backend is nil")
	}
	if strings.TrimSpace(req.Text) == "" {
		return nil, fmt.Errorf("text is required")
	}

	params := url.Values{}
	params.Set("client", "gtx")
	params.Set("dt", "t")
	params.Set("sl", req.SourceLang)
	params.Set("tl", req.TargetLang)
	params.Set("q", req.Text)

	endpoint := b.baseURL + "/translate_a/single?" + params.Encode()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build googletrans request: %w", err)
	}

	resp, err := b.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("send googletrans request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read googletrans response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("googletrans status %d", resp.StatusCode)
	}

	translated, err := decodeGoogleTranslatePayload(body)
	if err != nil {
		return nil, err
	}

	return &Response{
		Text:        translated,
		SourceLang:  req.SourceLang,
		TargetLang:  req.TargetLang,
		BackendName: b.Name(),
	}, nil
}

// decodeGoogleTranslatePayload reassembles the translation from the
// nested-list response shape. Segments arrive in order; their first element
// is the translated text.
func decodeGoogleTranslatePayload(body []byte) (string, error) {
	var root []any
	if err := json.Unmarshal(body, &root); err != nil {
		return "", fmt.Errorf("decode googletrans response: %w", err)
	}
	if len(root) == 0 {
		return "", fmt.Errorf("googletrans response is empty")
	}

	segments, ok := root[0].([]any)
	if !ok {
		return "", fmt.Errorf("googletrans response has unexpected shape")
	}

	var out strings.Builder
	for _, segment := range segments {
		pair, ok := segment.([]any)
		if !ok || len(pair) == 0 {
			continue
		}
		if text, ok := pair[0].(string); ok {
			out.WriteString(text)
		}
	}

	if out.Len() == 0 {
		return "", fmt.Errorf("googletrans response carried no segments")
	}
	return out.String(), nil
}

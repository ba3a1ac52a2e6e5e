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
	// DefaultMyMemoryBaseURL points to the MyMemory translation memory API.
	DefaultMyMemoryBaseURL = "https://api.mymemory.translated.net"

	// myMemoryChunkSize is the largest request MyMemory answers reliably on
	// the anonymous tier.
	myMemoryChunkSize = 450

	myMemoryTimeout = 10 * time.Second
)

// MyMemoryBackend is the primary translation backend. MyMemory reports
// quota exhaustion as warning text inside a 200 response body, so the
// returned text is handed back verbatim and classified by the caller.
type MyMemoryBackend struct {
	baseURL string
	email   string // optional contact address, raises the daily quota
	client  *http.Client
}

func NewMyMemoryBackend(baseURL, email string) *MyMemoryBackend {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		base = DefaultMyMemoryBaseURL
	}
	return &MyMemoryBackend{
		baseURL: base,
		email:   strings.TrimSpace(email),
		client:  &http.Client{Timeout: myMemoryTimeout},
	}
}

func (b *MyMemoryBackend) Name() string {
	return "mymemory"
}

func (b *MyMemoryBackend) ChunkSize() int {
	return myMemoryChunkSize
}

func (b *MyMemoryBackend) Translate(ctx context.Context, req Request) (*Response, error) {
	if b == nil {
		return nil, fmt.Errorf("mymemory backend is nil")
	}
	text := req.Text
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("text is required")
	}

	params := url.Values{}
	params.Set("q", text)
	params.Set("langpair", req.SourceLang+"|"+req.TargetLang)
	if b.email != "" {
		params.Set("de", b.email)
	}

	endpoint := b.baseURL + "/get?" + params.Encode()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build mymemory request: %w", err)
	}

	resp, err := b.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("send mymemory request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read mymemory response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("mymemory status %d", resp.StatusCode)
	}

	var parsed myMemoryResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode mymemory response: %w", err)
	}

	translated := parsed.ResponseData.TranslatedText
	if strings.TrimSpace(translated) == "" {
		return nil, fmt.Errorf("mymemory response was empty")
	}

	return &Response{
		Text:        translated,
		SourceLang:  req.SourceLang,
		TargetLang:  req.TargetLang,
		BackendName: b.Name(),
	}, nil
}

type myMemoryResponse struct {
	ResponseData struct {
		TranslatedText string `json:"translatedText"`
	} `json:"responseData"`
}

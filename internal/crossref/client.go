// Package crossref is a client for the CrossRef works API. It serves as the
// backup search source when arXiv returns too few results and as the detail
// source for DOI-identified papers.
package crossref

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/arxrev/arxrev/internal/paper"
)

const (
	// DefaultBaseURL points to the public CrossRef REST API.
	DefaultBaseURL = "https://api.crossref.org"

	requestTimeout = 10 * time.Second
)

// ErrNotFound marks a DOI that CrossRef does not know.
var ErrNotFound = errors.New("work not found")

// Client queries the CrossRef works API. A contact address in the
// User-Agent routes requests to CrossRef's polite pool.
type Client struct {
	baseURL   string
	userAgent string
	client    *http.Client
	logger    zerolog.Logger
}

type Options struct {
	BaseURL      string
	ContactEmail string
	Logger       zerolog.Logger
}

func NewClient(opts Options) *Client {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	ua := "arxrev/1.0"
	if email := strings.TrimSpace(opts.ContactEmail); email != "" {
		ua = fmt.Sprintf("arxrev/1.0 (mailto:%s)", email)
	}
	return &Client{
		baseURL:   base,
		userAgent: ua,
		client:    &http.Client{Timeout: requestTimeout},
		logger:    opts.Logger,
	}
}

// SearchWorks runs a relevance-sorted journal-article query. Items without a
// title are dropped.
func (c *Client) SearchWorks(ctx context.Context, query string, rows int) ([]paper.Paper, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query is required")
	}
	if rows < 1 {
		rows = 10
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("rows", fmt.Sprintf("%d", rows))
	params.Set("sort", "relevance")
	params.Set("order", "desc")
	params.Set("filter", "type:journal-article")

	var payload struct {
		Message struct {
			Items []workItem `json:"items"`
		} `json:"message"`
	}
	if err := c.get(ctx, c.baseURL+"/works?"+params.Encode(), &payload); err != nil {
		return nil, err
	}

	papers := make([]paper.Paper, 0, len(payload.Message.Items))
	for _, item := range payload.Message.Items {
		if len(item.Title) == 0 || strings.TrimSpace(item.Title[0]) == "" {
			continue
		}
		papers = append(papers, item.toPaper())
	}
	c.logger.Debug().Str("query", query).Int("results", len(papers)).Msg("crossref search completed")
	return papers, nil
}

// GetWork fetches one work by DOI.
func (c *Client) GetWork(ctx context.Context, doi string) (*paper.Paper, error) {
	doi = strings.TrimSpace(doi)
	if doi == "" {
		return nil, fmt.Errorf("doi is required")
	}

	var payload struct {
		Message workItem `json:"message"`
	}
	endpoint := c.baseURL + "/works/" + url.PathEscape(doi)
	if err := c.get(ctx, endpoint, &payload); err != nil {
		return nil, err
	}

	p := payload.Message.toPaper()
	return &p, nil
}

func (c *Client) get(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build crossref request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("send crossref request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read crossref response: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("crossref status %d", resp.StatusCode)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode crossref response: %w", err)
	}
	return nil
}

type workItem struct {
	DOI       string       `json:"DOI"`
	Title     []string     `json:"title"`
	Subtitle  []string     `json:"subtitle"`
	Abstract  string       `json:"abstract"`
	URL       string       `json:"URL"`
	Subject   []string     `json:"subject"`
	Author    []workAuthor `json:"author"`
	Published struct {
		DateParts [][]int `json:"date-parts"`
	} `json:"published"`
	Link []struct {
		URL string `json:"URL"`
	} `json:"link"`
}

type workAuthor struct {
	Given  string `json:"given"`
	Family string `json:"family"`
}

func (w workItem) toPaper() paper.Paper {
	title := ""
	if len(w.Title) > 0 {
		title = strings.TrimSpace(w.Title[0])
	}

	summary := strings.TrimSpace(w.Abstract)
	if summary == "" && len(w.Subtitle) > 0 {
		summary = strings.TrimSpace(w.Subtitle[0])
	}

	published := formatDateParts(w.Published.DateParts)

	link := w.URL
	if link == "" {
		for _, l := range w.Link {
			if l.URL != "" {
				link = l.URL
				break
			}
		}
	}

	p := paper.Paper{
		ID:         paper.IDFromDOI(w.DOI),
		Title:      title,
		Summary:    summary,
		Published:  published,
		Updated:    published,
		Categories: w.Subject,
		PDFURL:     link,
		ArxivURL:   link,
		DOI:        w.DOI,
		Source:     paper.SourceCrossRef,
	}
	for _, a := range w.Author {
		parts := make([]string, 0, 2)
		if a.Given != "" {
			parts = append(parts, a.Given)
		}
		if a.Family != "" {
			parts = append(parts, a.Family)
		}
		if len(parts) > 0 {
			p.Authors = append(p.Authors, strings.Join(parts, " "))
		}
	}
	return p
}

// formatDateParts renders CrossRef's [[year, month, day]] shape. Partial
// dates degrade to the year alone.
func formatDateParts(parts [][]int) string {
	if len(parts) == 0 || len(parts[0]) == 0 {
		return ""
	}
	first := parts[0]
	if len(first) >= 3 {
		return fmt.Sprintf("%d-%02d-%02d", first[0], first[1], first[2])
	}
	return fmt.Sprintf("%d", first[0])
}

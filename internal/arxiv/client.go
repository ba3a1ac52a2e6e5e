// Package arxiv is a client for the arXiv Atom API: search, lookup by
// identifier, and PDF retrieval.
package arxiv

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/arxrev/arxrev/internal/paper"
)

const (
	// DefaultBaseURL points to the arXiv export API.
	DefaultBaseURL = "https://export.arxiv.org"

	defaultUserAgent = "arxrev/1.0"
	requestTimeout   = 15 * time.Second
	downloadTimeout  = 2 * time.Minute
)

// ErrNotFound marks a lookup whose identifier matched no paper.
var ErrNotFound = errors.New("paper not found")

// Sort criteria accepted by Search. Unknown values fall back to relevance.
const (
	SortRelevance       = "relevance"
	SortLastUpdatedDate = "lastUpdatedDate"
	SortSubmittedDate   = "submittedDate"
)

// Client queries the arXiv Atom API.
type Client struct {
	baseURL string
	client  *http.Client
	logger  zerolog.Logger
}

type Options struct {
	BaseURL string
	Logger  zerolog.Logger
}

func NewClient(opts Options) *Client {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	return &Client{
		baseURL: base,
		client:  &http.Client{Timeout: requestTimeout},
		logger:  opts.Logger,
	}
}

// Search queries arXiv full text and metadata. sortBy is one of the Sort
// constants; anything else sorts by relevance.
func (c *Client) Search(ctx context.Context, query string, maxResults int, sortBy string) ([]paper.Paper, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query is required")
	}
	if maxResults < 1 {
		maxResults = 10
	}

	switch sortBy {
	case SortRelevance, SortLastUpdatedDate, SortSubmittedDate:
	default:
		sortBy = SortRelevance
	}

	params := url.Values{}
	params.Set("search_query", "all:"+query)
	params.Set("max_results", strconv.Itoa(maxResults))
	params.Set("sortBy", sortBy)
	params.Set("sortOrder", "descending")

	feed, err := c.query(ctx, params)
	if err != nil {
		return nil, err
	}

	papers := make([]paper.Paper, 0, len(feed.Entries))
	for _, e := range feed.Entries {
		papers = append(papers, e.toPaper())
	}
	c.logger.Debug().Str("query", query).Int("results", len(papers)).Msg("arxiv search completed")
	return papers, nil
}

// GetByID fetches one paper by arXiv identifier. A leading "arxiv:" token is
// accepted and stripped.
func (c *Client) GetByID(ctx context.Context, id string) (*paper.Paper, error) {
	normalized := paper.NormalizeArxivID(id)
	if normalized == "" {
		return nil, fmt.Errorf("paper id is required")
	}

	params := url.Values{}
	params.Set("id_list", normalized)
	params.Set("max_results", "1")

	feed, err := c.query(ctx, params)
	if err != nil {
		return nil, err
	}
	// The API answers an id_list miss with an empty feed or a stub entry
	// that carries no title.
	if len(feed.Entries) == 0 || strings.TrimSpace(feed.Entries[0].Title) == "" {
		return nil, fmt.Errorf("arxiv id %q: %w", normalized, ErrNotFound)
	}

	p := feed.Entries[0].toPaper()
	return &p, nil
}

// DownloadPDF saves the paper's PDF under dir as <id>.pdf. An existing
// non-empty file short-circuits the download and its path is returned.
func (c *Client) DownloadPDF(ctx context.Context, id, dir string) (string, error) {
	normalized := paper.NormalizeArxivID(id)
	if normalized == "" {
		return "", fmt.Errorf("paper id is required")
	}

	dest := filepath.Join(dir, normalized+".pdf")
	if info, err := os.Stat(dest); err == nil && info.Size() > 0 {
		c.logger.Debug().Str("path", dest).Msg("pdf already downloaded")
		return dest, nil
	}

	p, err := c.GetByID(ctx, normalized)
	if err != nil {
		return "", err
	}
	if p.PDFURL == "" {
		return "", fmt.Errorf("paper %q has no pdf link", normalized)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create download dir: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.PDFURL, nil)
	if err != nil {
		return "", fmt.Errorf("build pdf request: %w", err)
	}
	req.Header.Set("User-Agent", defaultUserAgent)

	client := &http.Client{Timeout: downloadTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("download pdf: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download pdf: status %d", resp.StatusCode)
	}

	out, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("create pdf file: %w", err)
	}
	written, err := io.Copy(out, resp.Body)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(dest)
		return "", fmt.Errorf("write pdf file: %w", err)
	}
	if written == 0 {
		os.Remove(dest)
		return "", fmt.Errorf("downloaded pdf is empty")
	}

	c.logger.Info().Str("path", dest).Int64("bytes", written).Msg("pdf downloaded")
	return dest, nil
}

func (c *Client) query(ctx context.Context, params url.Values) (*atomFeed, error) {
	endpoint := c.baseURL + "/api/query?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build arxiv request: %w", err)
	}
	req.Header.Set("User-Agent", defaultUserAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send arxiv request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read arxiv response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arxiv status %d", resp.StatusCode)
	}

	var feed atomFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("decode arxiv feed: %w", err)
	}
	return &feed, nil
}

type atomFeed struct {
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	ID         string         `xml:"id"`
	Title      string         `xml:"title"`
	Summary    string         `xml:"summary"`
	Published  string         `xml:"published"`
	Updated    string         `xml:"updated"`
	Authors    []atomAuthor   `xml:"author"`
	Categories []atomCategory `xml:"category"`
	Links      []atomLink     `xml:"link"`
	Comment    string         `xml:"http://arxiv.org/schemas/atom comment"`
	JournalRef string         `xml:"http://arxiv.org/schemas/atom journal_ref"`
	DOI        string         `xml:"http://arxiv.org/schemas/atom doi"`
}

type atomAuthor struct {
	Name string `xml:"name"`
}

type atomCategory struct {
	Term string `xml:"term,attr"`
}

type atomLink struct {
	Href  string `xml:"href,attr"`
	Rel   string `xml:"rel,attr"`
	Title string `xml:"title,attr"`
	Type  string `xml:"type,attr"`
}

func (e atomEntry) toPaper() paper.Paper {
	p := paper.Paper{
		ID:         shortID(e.ID),
		Title:      collapseWhitespace(e.Title),
		Summary:    collapseWhitespace(e.Summary),
		Published:  strings.TrimSpace(e.Published),
		Updated:    strings.TrimSpace(e.Updated),
		ArxivURL:   strings.TrimSpace(e.ID),
		Comment:    collapseWhitespace(e.Comment),
		JournalRef: collapseWhitespace(e.JournalRef),
		DOI:        strings.TrimSpace(e.DOI),
		Source:     paper.SourceArxiv,
	}
	for _, a := range e.Authors {
		if name := strings.TrimSpace(a.Name); name != "" {
			p.Authors = append(p.Authors, name)
		}
	}
	for _, cat := range e.Categories {
		if cat.Term != "" {
			p.Categories = append(p.Categories, cat.Term)
		}
	}
	for _, link := range e.Links {
		if link.Title == "pdf" || link.Type == "application/pdf" {
			p.PDFURL = link.Href
			break
		}
	}
	// Older entries omit the pdf link; derive it from the abs URL.
	if p.PDFURL == "" && p.ID != "" {
		p.PDFURL = "https://arxiv.org/pdf/" + p.ID
	}
	return p
}

// shortID reduces an Atom entry id like http://arxiv.org/abs/1706.03762v5 to
// the bare identifier with its version suffix.
func shortID(entryID string) string {
	trimmed := strings.TrimSpace(entryID)
	if idx := strings.Index(trimmed, "/abs/"); idx >= 0 {
		return trimmed[idx+len("/abs/"):]
	}
	return trimmed
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

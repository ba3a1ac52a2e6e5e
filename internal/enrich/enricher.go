// Package enrich augments paper records with citation-graph metadata from
// Semantic Scholar. Enrichment is always best effort: a failed lookup yields
// an empty Metadata and never an error, so callers can merge unconditionally.
package enrich

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/arxrev/arxrev/internal/paper"
)

const (
	// DefaultBaseURL points to the Semantic Scholar API.
	DefaultBaseURL = "https://api.semanticscholar.org"

	// defaultRequestDelay spaces lookups to respect the API's anonymous
	// rate limit.
	defaultRequestDelay = time.Second

	requestTimeout = 10 * time.Second
)

// Metadata is the optional field set merged onto a paper record. Pointer
// fields distinguish "absent" from a legitimate zero value.
type Metadata struct {
	CitationCount   *int
	InfluenceFactor *int
	PublishedIn     string
	Year            *int
	DOI             string
	URL             string
	IsOpenAccess    *bool
	Topics          []string
}

// IsZero reports whether the lookup produced nothing to merge.
func (m Metadata) IsZero() bool {
	return m.CitationCount == nil &&
		m.InfluenceFactor == nil &&
		m.PublishedIn == "" &&
		m.Year == nil &&
		m.DOI == "" &&
		m.URL == "" &&
		m.IsOpenAccess == nil &&
		len(m.Topics) == 0
}

// Apply merges the metadata onto a paper record. The merge is additive:
// absent fields leave the record untouched.
func (m Metadata) Apply(p *paper.Paper) {
	if p == nil {
		return
	}
	if m.CitationCount != nil {
		p.CitationCount = m.CitationCount
	}
	if m.InfluenceFactor != nil {
		p.InfluenceFactor = m.InfluenceFactor
	}
	if m.PublishedIn != "" {
		p.PublishedIn = m.PublishedIn
	}
	if m.Year != nil {
		p.Year = m.Year
	}
	if m.DOI != "" && p.DOI == "" {
		p.DOI = m.DOI
	}
	if m.URL != "" && p.ArxivURL == "" {
		p.ArxivURL = m.URL
	}
	if m.IsOpenAccess != nil {
		p.IsOpenAccess = m.IsOpenAccess
	}
	if len(m.Topics) > 0 {
		p.Topics = m.Topics
	}
}

// Enricher looks up citation metadata by normalized arXiv identifier.
type Enricher struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	logger  zerolog.Logger
}

// Options configures an Enricher. A negative RequestDelay disables the
// pre-call pacing (used in tests); zero selects the default.
type Options struct {
	BaseURL      string
	RequestDelay time.Duration
	Logger       zerolog.Logger
}

func NewEnricher(opts Options) *Enricher {
	base := opts.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}

	delay := opts.RequestDelay
	if delay == 0 {
		delay = defaultRequestDelay
	}
	var limiter *rate.Limiter
	if delay < 0 {
		limiter = rate.NewLimiter(rate.Inf, 1)
	} else {
		limiter = rate.NewLimiter(rate.Every(delay), 1)
	}

	return &Enricher{
		baseURL: base,
		client:  &http.Client{Timeout: requestTimeout},
		limiter: limiter,
		logger:  opts.Logger,
	}
}

// Enrich fetches citation metadata for an arXiv paper. Every failure path
// returns an empty Metadata: enrichment must never break paper-detail
// retrieval.
func (e *Enricher) Enrich(ctx context.Context, paperID string) Metadata {
	id := paper.NormalizeArxivID(paperID)
	if id == "" {
		return Metadata{}
	}

	if err := e.limiter.Wait(ctx); err != nil {
		return Metadata{}
	}

	endpoint := e.baseURL + "/v1/paper/arXiv:" + url.PathEscape(id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		e.logger.Debug().Err(err).Str("paper_id", id).Msg("build enrichment request failed")
		return Metadata{}
	}

	resp, err := e.client.Do(req)
	if err != nil {
		e.logger.Debug().Err(err).Str("paper_id", id).Msg("enrichment lookup failed")
		return Metadata{}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		e.logger.Debug().Int("status", resp.StatusCode).Str("paper_id", id).Msg("enrichment lookup not available")
		return Metadata{}
	}

	var payload semanticScholarPaper
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		e.logger.Debug().Err(err).Str("paper_id", id).Msg("decode enrichment response failed")
		return Metadata{}
	}

	meta := Metadata{
		CitationCount:   payload.CitationCount,
		InfluenceFactor: payload.InfluentialCitationCount,
		PublishedIn:     payload.Venue,
		Year:            payload.Year,
		DOI:             payload.DOI,
		URL:             payload.URL,
		IsOpenAccess:    payload.IsOpenAccess,
	}
	for _, topic := range payload.Topics {
		if topic.Name != "" {
			meta.Topics = append(meta.Topics, topic.Name)
		}
	}
	return meta
}

type semanticScholarPaper struct {
	CitationCount            *int   `json:"citationCount"`
	InfluentialCitationCount *int   `json:"influentialCitationCount"`
	Venue                    string `json:"venue"`
	Year                     *int   `json:"year"`
	DOI                      string `json:"doi"`
	URL                      string `json:"url"`
	IsOpenAccess             *bool  `json:"isOpenAccess"`
	Topics                   []struct {
		Name string `json:"name"`
	} `json:"topics"`
}

package paper

import "strings"

const (
	SourceArxiv    = "arxiv"
	SourceCrossRef = "crossref"
)

const (
	arxivIDPrefix    = "arxiv:"
	crossRefIDPrefix = "doi:"
)

// Paper is one catalog record. The JSON field names double as the on-disk
// catalog format, so renaming a tag is a breaking change for existing
// papers.json files.
type Paper struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	TitleZH    string   `json:"title_zh,omitempty"`
	Authors    []string `json:"authors,omitempty"`
	Summary    string   `json:"summary,omitempty"`
	SummaryZH  string   `json:"summary_zh,omitempty"`
	Published  string   `json:"published,omitempty"`
	Updated    string   `json:"updated,omitempty"`
	Categories []string `json:"categories,omitempty"`
	PDFURL     string   `json:"pdf_url,omitempty"`
	ArxivURL   string   `json:"arxiv_url,omitempty"`
	DOI        string   `json:"doi,omitempty"`
	Comment    string   `json:"comment,omitempty"`
	JournalRef string   `json:"journal_ref,omitempty"`
	Source     string   `json:"source"`

	// Best-effort enrichment fields. Pointers distinguish "absent" from a
	// legitimate zero value so that merges stay additive.
	CitationCount   *int     `json:"citation_count,omitempty"`
	InfluenceFactor *int     `json:"influence_factor,omitempty"`
	PublishedIn     string   `json:"published_in,omitempty"`
	Year            *int     `json:"year,omitempty"`
	IsOpenAccess    *bool    `json:"is_open_access,omitempty"`
	Topics          []string `json:"topics,omitempty"`

	DownloadDate string `json:"download_date,omitempty"`
	LocalPath    string `json:"local_path,omitempty"`
}

// NormalizeArxivID strips a leading "arxiv:" token from a paper identifier.
func NormalizeArxivID(id string) string {
	trimmed := strings.TrimSpace(id)
	if strings.HasPrefix(strings.ToLower(trimmed), arxivIDPrefix) {
		return trimmed[len(arxivIDPrefix):]
	}
	return trimmed
}

// IsCrossRefID reports whether the identifier names a CrossRef-sourced paper.
func IsCrossRefID(id string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(id)), crossRefIDPrefix)
}

// DOIFromID recovers the DOI encoded in a "doi:" paper identifier. Slashes
// are stored as underscores so the identifier stays path-safe.
func DOIFromID(id string) string {
	trimmed := strings.TrimSpace(id)
	if !IsCrossRefID(trimmed) {
		return ""
	}
	return strings.ReplaceAll(trimmed[len(crossRefIDPrefix):], "_", "/")
}

// IDFromDOI builds the path-safe catalog identifier for a DOI.
func IDFromDOI(doi string) string {
	return crossRefIDPrefix + strings.ReplaceAll(strings.TrimSpace(doi), "/", "_")
}

// Package service composes the paper sources, the translator, the enricher
// and the catalog into the operations the CLI and the HTTP API expose.
package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/arxrev/arxrev/internal/enrich"
	"github.com/arxrev/arxrev/internal/langdetect"
	"github.com/arxrev/arxrev/internal/paper"
)

// minPrimaryResults is the threshold under which the backup search source is
// consulted.
const minPrimaryResults = 3

// Translator renders text into a target language, degrading to the input on
// failure.
type Translator interface {
	Translate(ctx context.Context, text, targetLang, sourceLang string) string
}

// PaperSource is the primary (arXiv) search and download source.
type PaperSource interface {
	Search(ctx context.Context, query string, maxResults int, sortBy string) ([]paper.Paper, error)
	GetByID(ctx context.Context, id string) (*paper.Paper, error)
	DownloadPDF(ctx context.Context, id, dir string) (string, error)
}

// BackupSource is the secondary (CrossRef) search and detail source.
type BackupSource interface {
	SearchWorks(ctx context.Context, query string, rows int) ([]paper.Paper, error)
	GetWork(ctx context.Context, doi string) (*paper.Paper, error)
}

// Enricher augments a paper with citation metadata. Lookups are best effort.
type Enricher interface {
	Enrich(ctx context.Context, paperID string) enrich.Metadata
}

// Catalog persists downloaded papers.
type Catalog interface {
	AddPaper(p paper.Paper, localPath string) error
	Get(id string) (paper.Paper, bool)
	List() []paper.Paper
}

// PageReader extracts readable text from a paper's landing page. It backs
// abstracts for works whose metadata carries none.
type PageReader func(ctx context.Context, pageURL, title string) (string, error)

type Service struct {
	source     PaperSource
	backup     BackupSource
	translator Translator
	enricher   Enricher
	catalog    Catalog
	pageReader PageReader

	targetLang string
	sourceLang string
	logger     zerolog.Logger
}

type Options struct {
	Source     PaperSource
	Backup     BackupSource
	Translator Translator
	Enricher   Enricher
	Catalog    Catalog
	PageReader PageReader
	TargetLang string
	SourceLang string
	Logger     zerolog.Logger
}

func New(opts Options) *Service {
	targetLang := opts.TargetLang
	if targetLang == "" {
		targetLang = "zh"
	}
	sourceLang := opts.SourceLang
	if sourceLang == "" {
		sourceLang = "en"
	}
	return &Service{
		source:     opts.Source,
		backup:     opts.Backup,
		translator: opts.Translator,
		enricher:   opts.Enricher,
		catalog:    opts.Catalog,
		pageReader: opts.PageReader,
		targetLang: targetLang,
		sourceLang: sourceLang,
		logger:     opts.Logger,
	}
}

// SearchOptions tunes one search call.
type SearchOptions struct {
	MaxResults int
	SortBy     string
	// NoTranslate skips the automatic query translation.
	NoTranslate bool
	// NoBackup skips the backup source even when the primary returns few
	// results.
	NoBackup bool
}

// SearchResult carries the papers plus the query that was actually sent,
// which differs from the input when the query was translated.
type SearchResult struct {
	Papers         []paper.Paper
	EffectiveQuery string
	Translated     bool
}

// Search queries the primary source, translating target-language queries to
// the source language first. When the primary yields fewer than three
// results the backup source supplements them, deduplicated by id.
func (s *Service) Search(ctx context.Context, query string, opts SearchOptions) (*SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("query is required")
	}

	result := &SearchResult{EffectiveQuery: query}
	if !opts.NoTranslate && langdetect.MatchesScript(query, s.targetLang) {
		translated := s.translator.Translate(ctx, query, s.sourceLang, s.targetLang)
		if translated != "" && translated != query {
			s.logger.Info().Str("query", query).Str("translated", translated).Msg("search query translated")
			result.EffectiveQuery = translated
			result.Translated = true
		}
	}

	papers, err := s.source.Search(ctx, result.EffectiveQuery, opts.MaxResults, opts.SortBy)
	if err != nil {
		s.logger.Warn().Err(err).Msg("primary search failed")
		papers = nil
	}

	if !opts.NoBackup && len(papers) < minPrimaryResults {
		s.logger.Debug().Int("results", len(papers)).Msg("few primary results, consulting backup source")
		backup, backupErr := s.backup.SearchWorks(ctx, result.EffectiveQuery, opts.MaxResults)
		if backupErr != nil {
			s.logger.Warn().Err(backupErr).Msg("backup search failed")
		} else {
			papers = mergeByID(papers, backup)
		}
	}

	if len(papers) == 0 && err != nil {
		return nil, fmt.Errorf("search %q: %w", result.EffectiveQuery, err)
	}

	result.Papers = papers
	return result, nil
}

// Detail fetches one paper with translated title and summary and, for arXiv
// papers, merged citation metadata. Translation and enrichment failures
// degrade to the untranslated, unenriched record.
func (s *Service) Detail(ctx context.Context, id string) (*paper.Paper, error) {
	if paper.IsCrossRefID(id) {
		return s.crossRefDetail(ctx, id)
	}

	p, err := s.source.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.translateInto(ctx, p)

	if s.enricher != nil {
		meta := s.enricher.Enrich(ctx, p.ID)
		meta.Apply(p)
	}
	return p, nil
}

func (s *Service) crossRefDetail(ctx context.Context, id string) (*paper.Paper, error) {
	doi := paper.DOIFromID(id)
	p, err := s.backup.GetWork(ctx, doi)
	if err != nil {
		return nil, err
	}

	// CrossRef often omits the abstract; try the landing page.
	if p.Summary == "" && s.pageReader != nil && p.ArxivURL != "" {
		if text, readErr := s.pageReader(ctx, p.ArxivURL, p.Title); readErr != nil {
			s.logger.Debug().Err(readErr).Str("paper_id", id).Msg("abstract extraction failed")
		} else {
			p.Summary = text
		}
	}

	s.translateInto(ctx, p)
	return p, nil
}

// translateInto fills the title_zh and summary_zh fields. The translator
// never fails, so a backend outage simply leaves the original text in the
// translated fields.
func (s *Service) translateInto(ctx context.Context, p *paper.Paper) {
	if s.translator == nil {
		return
	}
	if p.Title != "" {
		p.TitleZH = s.translator.Translate(ctx, p.Title, s.targetLang, s.sourceLang)
	}
	if p.Summary != "" {
		p.SummaryZH = s.translator.Translate(ctx, p.Summary, s.targetLang, s.sourceLang)
	}
}

// Download saves a paper's PDF and records it in the catalog. CrossRef
// papers have no downloadable PDF here and are rejected.
func (s *Service) Download(ctx context.Context, id, dir string) (string, error) {
	if paper.IsCrossRefID(id) {
		return "", fmt.Errorf("paper %q has no arXiv PDF, use its publisher URL", id)
	}

	path, err := s.source.DownloadPDF(ctx, id, dir)
	if err != nil {
		return "", err
	}

	p, err := s.Detail(ctx, id)
	if err != nil {
		s.logger.Warn().Err(err).Str("paper_id", id).Msg("detail lookup failed, cataloging minimal record")
		p = &paper.Paper{ID: paper.NormalizeArxivID(id), Source: paper.SourceArxiv}
	}
	if addErr := s.catalog.AddPaper(*p, path); addErr != nil {
		s.logger.Warn().Err(addErr).Str("paper_id", p.ID).Msg("catalog update failed")
	}
	return path, nil
}

// Papers lists the cataloged papers.
func (s *Service) Papers() []paper.Paper {
	return s.catalog.List()
}

// Paper returns one cataloged paper.
func (s *Service) Paper(id string) (paper.Paper, bool) {
	return s.catalog.Get(id)
}

func mergeByID(primary, extra []paper.Paper) []paper.Paper {
	seen := make(map[string]struct{}, len(primary))
	for _, p := range primary {
		seen[p.ID] = struct{}{}
	}
	merged := primary
	for _, p := range extra {
		if _, ok := seen[p.ID]; ok {
			continue
		}
		seen[p.ID] = struct{}{}
		merged = append(merged, p)
	}
	return merged
}

package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/arxrev/arxrev/internal/enrich"
	"github.com/arxrev/arxrev/internal/paper"
)

type stubSource struct {
	searchQueries []string
	searchResults []paper.Paper
	searchErr     error

	byID     map[string]paper.Paper
	download string
	dlErr    error
}

func (s *stubSource) Search(_ context.Context, query string, _ int, _ string) ([]paper.Paper, error) {
	s.searchQueries = append(s.searchQueries, query)
	return s.searchResults, s.searchErr
}

func (s *stubSource) GetByID(_ context.Context, id string) (*paper.Paper, error) {
	p, ok := s.byID[paper.NormalizeArxivID(id)]
	if !ok {
		return nil, errors.New("not found")
	}
	return &p, nil
}

func (s *stubSource) DownloadPDF(_ context.Context, id, dir string) (string, error) {
	if s.dlErr != nil {
		return "", s.dlErr
	}
	return s.download, nil
}

type stubBackup struct {
	calls   int
	results []paper.Paper
	err     error

	works map[string]paper.Paper
}

func (s *stubBackup) SearchWorks(_ context.Context, query string, _ int) ([]paper.Paper, error) {
	s.calls++
	return s.results, s.err
}

func (s *stubBackup) GetWork(_ context.Context, doi string) (*paper.Paper, error) {
	p, ok := s.works[doi]
	if !ok {
		return nil, errors.New("work not found")
	}
	return &p, nil
}

type stubTranslator struct {
	requests []string
}

func (s *stubTranslator) Translate(_ context.Context, text, targetLang, _ string) string {
	s.requests = append(s.requests, targetLang+":"+text)
	return targetLang + ">" + text
}

type stubEnricher struct {
	meta enrich.Metadata
}

func (s *stubEnricher) Enrich(context.Context, string) enrich.Metadata {
	return s.meta
}

type stubCatalog struct {
	added  []paper.Paper
	papers map[string]paper.Paper
	addErr error
}

func (s *stubCatalog) AddPaper(p paper.Paper, localPath string) error {
	p.LocalPath = localPath
	s.added = append(s.added, p)
	return s.addErr
}

func (s *stubCatalog) Get(id string) (paper.Paper, bool) {
	p, ok := s.papers[id]
	return p, ok
}

func (s *stubCatalog) List() []paper.Paper {
	out := make([]paper.Paper, 0, len(s.papers))
	for _, p := range s.papers {
		out = append(out, p)
	}
	return out
}

func newTestService(source *stubSource, backup *stubBackup, translator *stubTranslator, enricher *stubEnricher, cat *stubCatalog) *Service {
	return New(Options{
		Source:     source,
		Backup:     backup,
		Translator: translator,
		Enricher:   enricher,
		Catalog:    cat,
	})
}

func manyPapers(n int, prefix string) []paper.Paper {
	out := make([]paper.Paper, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, paper.Paper{ID: prefix + string(rune('a'+i)), Title: "t", Source: paper.SourceArxiv})
	}
	return out
}

func TestSearchTranslatesTargetLanguageQuery(t *testing.T) {
	t.Parallel()

	source := &stubSource{searchResults: manyPapers(3, "p")}
	translator := &stubTranslator{}
	svc := newTestService(source, &stubBackup{}, translator, &stubEnricher{}, &stubCatalog{})

	result, err := svc.Search(context.Background(), "注意力机制", SearchOptions{MaxResults: 10})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if !result.Translated {
		t.Fatal("expected the query to be translated")
	}
	if result.EffectiveQuery != "en>注意力机制" {
		t.Fatalf("unexpected effective query: %q", result.EffectiveQuery)
	}
	if len(source.searchQueries) != 1 || source.searchQueries[0] != "en>注意力机制" {
		t.Fatalf("source must receive the translated query, got %v", source.searchQueries)
	}
	if len(translator.requests) != 1 || translator.requests[0] != "en:注意力机制" {
		t.Fatalf("unexpected translator requests: %v", translator.requests)
	}
}

func TestSearchLeavesSourceLanguageQueryAlone(t *testing.T) {
	t.Parallel()

	source := &stubSource{searchResults: manyPapers(3, "p")}
	translator := &stubTranslator{}
	svc := newTestService(source, &stubBackup{}, translator, &stubEnricher{}, &stubCatalog{})

	result, err := svc.Search(context.Background(), "attention mechanisms", SearchOptions{})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if result.Translated || result.EffectiveQuery != "attention mechanisms" {
		t.Fatalf("query must pass through untouched: %+v", result)
	}
	if len(translator.requests) != 0 {
		t.Fatalf("no translation expected, got %v", translator.requests)
	}
}

func TestSearchNoTranslateFlag(t *testing.T) {
	t.Parallel()

	source := &stubSource{searchResults: manyPapers(3, "p")}
	translator := &stubTranslator{}
	svc := newTestService(source, &stubBackup{}, translator, &stubEnricher{}, &stubCatalog{})

	result, err := svc.Search(context.Background(), "注意力机制", SearchOptions{NoTranslate: true})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if result.Translated || len(translator.requests) != 0 {
		t.Fatal("NoTranslate must suppress query translation")
	}
}

func TestSearchConsultsBackupOnFewResults(t *testing.T) {
	t.Parallel()

	source := &stubSource{searchResults: []paper.Paper{
		{ID: "2101.00001", Title: "only one", Source: paper.SourceArxiv},
	}}
	backup := &stubBackup{results: []paper.Paper{
		{ID: "doi:10.1_a", Title: "backup a", Source: paper.SourceCrossRef},
		{ID: "2101.00001", Title: "duplicate", Source: paper.SourceCrossRef},
	}}
	svc := newTestService(source, backup, &stubTranslator{}, &stubEnricher{}, &stubCatalog{})

	result, err := svc.Search(context.Background(), "rare topic", SearchOptions{})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if backup.calls != 1 {
		t.Fatalf("expected one backup call, got %d", backup.calls)
	}
	if len(result.Papers) != 2 {
		t.Fatalf("expected merged deduplicated results, got %v", result.Papers)
	}
	// The primary result wins the duplicate id.
	if result.Papers[0].Title != "only one" || result.Papers[1].ID != "doi:10.1_a" {
		t.Fatalf("unexpected merge order: %v", result.Papers)
	}
}

func TestSearchSkipsBackupWhenEnoughResults(t *testing.T) {
	t.Parallel()

	source := &stubSource{searchResults: manyPapers(3, "p")}
	backup := &stubBackup{}
	svc := newTestService(source, backup, &stubTranslator{}, &stubEnricher{}, &stubCatalog{})

	if _, err := svc.Search(context.Background(), "popular topic", SearchOptions{}); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if backup.calls != 0 {
		t.Fatalf("backup must not be consulted, got %d calls", backup.calls)
	}
}

func TestSearchNoBackupFlag(t *testing.T) {
	t.Parallel()

	source := &stubSource{}
	backup := &stubBackup{results: manyPapers(2, "b")}
	svc := newTestService(source, backup, &stubTranslator{}, &stubEnricher{}, &stubCatalog{})

	result, err := svc.Search(context.Background(), "anything", SearchOptions{NoBackup: true})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if backup.calls != 0 || len(result.Papers) != 0 {
		t.Fatalf("NoBackup must suppress the backup source: calls=%d papers=%v", backup.calls, result.Papers)
	}
}

func TestSearchBackupCoversPrimaryOutage(t *testing.T) {
	t.Parallel()

	source := &stubSource{searchErr: errors.New("arxiv down")}
	backup := &stubBackup{results: manyPapers(2, "b")}
	svc := newTestService(source, backup, &stubTranslator{}, &stubEnricher{}, &stubCatalog{})

	result, err := svc.Search(context.Background(), "anything", SearchOptions{})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(result.Papers) != 2 {
		t.Fatalf("expected backup results, got %v", result.Papers)
	}
}

func TestSearchFailsWhenBothSourcesDown(t *testing.T) {
	t.Parallel()

	source := &stubSource{searchErr: errors.New("arxiv down")}
	backup := &stubBackup{err: errors.New("crossref down")}
	svc := newTestService(source, backup, &stubTranslator{}, &stubEnricher{}, &stubCatalog{})

	if _, err := svc.Search(context.Background(), "anything", SearchOptions{}); err == nil {
		t.Fatal("expected an error when both sources fail")
	}
}

func TestDetailTranslatesAndEnrichesArxivPaper(t *testing.T) {
	t.Parallel()

	citations := 7
	source := &stubSource{byID: map[string]paper.Paper{
		"1706.03762": {ID: "1706.03762", Title: "Attention", Summary: "An abstract.", Source: paper.SourceArxiv},
	}}
	enricher := &stubEnricher{meta: enrich.Metadata{CitationCount: &citations, PublishedIn: "NeurIPS"}}
	svc := newTestService(source, &stubBackup{}, &stubTranslator{}, enricher, &stubCatalog{})

	p, err := svc.Detail(context.Background(), "arxiv:1706.03762")
	if err != nil {
		t.Fatalf("Detail: %v", err)
	}
	if p.TitleZH != "zh>Attention" || p.SummaryZH != "zh>An abstract." {
		t.Fatalf("translated fields not filled: %+v", p)
	}
	if p.CitationCount == nil || *p.CitationCount != 7 || p.PublishedIn != "NeurIPS" {
		t.Fatalf("enrichment not merged: %+v", p)
	}
}

func TestDetailCrossRefUsesPageReaderForMissingAbstract(t *testing.T) {
	t.Parallel()

	backup := &stubBackup{works: map[string]paper.Paper{
		"10.1234/j.1": {
			ID:       "doi:10.1234_j.1",
			Title:    "Journal Paper",
			ArxivURL: "https://doi.org/10.1234/j.1",
			Source:   paper.SourceCrossRef,
		},
	}}
	svc := New(Options{
		Source:     &stubSource{},
		Backup:     backup,
		Translator: &stubTranslator{},
		Enricher:   &stubEnricher{},
		Catalog:    &stubCatalog{},
		PageReader: func(_ context.Context, pageURL, title string) (string, error) {
			if pageURL != "https://doi.org/10.1234/j.1" {
				t.Errorf("unexpected page url: %q", pageURL)
			}
			return "Extracted abstract text.", nil
		},
	})

	p, err := svc.Detail(context.Background(), "doi:10.1234_j.1")
	if err != nil {
		t.Fatalf("Detail: %v", err)
	}
	if p.Summary != "Extracted abstract text." {
		t.Fatalf("page reader abstract not used: %q", p.Summary)
	}
	if p.SummaryZH != "zh>Extracted abstract text." {
		t.Fatalf("extracted abstract must be translated: %q", p.SummaryZH)
	}
}

func TestDownloadRejectsCrossRefIDs(t *testing.T) {
	t.Parallel()

	svc := newTestService(&stubSource{}, &stubBackup{}, &stubTranslator{}, &stubEnricher{}, &stubCatalog{})
	if _, err := svc.Download(context.Background(), "doi:10.1234_j.1", "downloads"); err == nil {
		t.Fatal("expected an error for a doi-identified paper")
	}
}

func TestDownloadCatalogsPaper(t *testing.T) {
	t.Parallel()

	source := &stubSource{
		download: "downloads/1706.03762.pdf",
		byID: map[string]paper.Paper{
			"1706.03762": {ID: "1706.03762", Title: "Attention", Source: paper.SourceArxiv},
		},
	}
	cat := &stubCatalog{}
	svc := newTestService(source, &stubBackup{}, &stubTranslator{}, &stubEnricher{}, cat)

	path, err := svc.Download(context.Background(), "1706.03762", "downloads")
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if path != "downloads/1706.03762.pdf" {
		t.Fatalf("unexpected path: %q", path)
	}
	if len(cat.added) != 1 {
		t.Fatalf("expected one catalog record, got %d", len(cat.added))
	}
	added := cat.added[0]
	if added.ID != "1706.03762" || added.LocalPath != "downloads/1706.03762.pdf" {
		t.Fatalf("unexpected catalog record: %+v", added)
	}
	if added.TitleZH != "zh>Attention" {
		t.Fatalf("cataloged record must carry translations: %+v", added)
	}
}

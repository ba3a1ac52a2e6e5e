// Package catalog persists downloaded papers and their category assignments
// as flat JSON files. Both documents are schema-validated on load; a corrupt
// or missing file degrades to an empty catalog instead of failing.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/rs/zerolog"

	"github.com/arxrev/arxrev/internal/globaltime"
	"github.com/arxrev/arxrev/internal/paper"
)

// ErrCategoryNotFound marks an assignment against a category that does not
// exist.
var ErrCategoryNotFound = errors.New("category not found")

const downloadDateLayout = "2006-01-02 15:04:05"

// Store reads and writes the two catalog files. Methods load the current
// document, mutate it and write it back, so concurrent processes see each
// other's saves.
type Store struct {
	papersFile     string
	categoriesFile string
	logger         zerolog.Logger
}

type Options struct {
	PapersFile     string
	CategoriesFile string
	Logger         zerolog.Logger
}

func NewStore(opts Options) *Store {
	papersFile := opts.PapersFile
	if papersFile == "" {
		papersFile = "papers.json"
	}
	categoriesFile := opts.CategoriesFile
	if categoriesFile == "" {
		categoriesFile = "categories.json"
	}
	return &Store{
		papersFile:     papersFile,
		categoriesFile: categoriesFile,
		logger:         opts.Logger,
	}
}

// categoriesDoc is the on-disk shape of categories.json. The default bucket
// is kept for compatibility with existing files.
type categoriesDoc struct {
	Categories map[string][]string `json:"categories"`
	Default    []string            `json:"default"`
}

// AddPaper stamps the download date and local path onto the record and
// upserts it by id.
func (s *Store) AddPaper(p paper.Paper, localPath string) error {
	if p.ID == "" {
		return fmt.Errorf("paper id is required")
	}

	p.DownloadDate = globaltime.Now().Format(downloadDateLayout)
	p.LocalPath = localPath

	papers := s.loadPapers()
	papers[p.ID] = p
	return s.savePapers(papers)
}

// Get returns the stored paper, or false when the id is unknown.
func (s *Store) Get(id string) (paper.Paper, bool) {
	p, ok := s.loadPapers()[id]
	return p, ok
}

// List returns all stored papers ordered by id.
func (s *Store) List() []paper.Paper {
	papers := s.loadPapers()
	out := make([]paper.Paper, 0, len(papers))
	for _, p := range papers {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// AddCategory creates an empty category. Creating one that already exists
// succeeds.
func (s *Store) AddCategory(name string) error {
	if name == "" {
		return fmt.Errorf("category name is required")
	}

	doc := s.loadCategories()
	if _, ok := doc.Categories[name]; ok {
		return nil
	}
	doc.Categories[name] = []string{}
	return s.saveCategories(doc)
}

// DeleteCategory removes a category and its assignments. Deleting an unknown
// category succeeds.
func (s *Store) DeleteCategory(name string) error {
	doc := s.loadCategories()
	if _, ok := doc.Categories[name]; !ok {
		return nil
	}
	delete(doc.Categories, name)
	return s.saveCategories(doc)
}

// Categories returns all category names, sorted.
func (s *Store) Categories() []string {
	doc := s.loadCategories()
	names := make([]string, 0, len(doc.Categories))
	for name := range doc.Categories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AssignPaper puts a paper id into a category. Assigning one that is already
// there succeeds.
func (s *Store) AssignPaper(paperID, category string) error {
	if paperID == "" {
		return fmt.Errorf("paper id is required")
	}

	doc := s.loadCategories()
	ids, ok := doc.Categories[category]
	if !ok {
		return fmt.Errorf("category %q: %w", category, ErrCategoryNotFound)
	}
	for _, id := range ids {
		if id == paperID {
			return nil
		}
	}
	doc.Categories[category] = append(ids, paperID)
	return s.saveCategories(doc)
}

// UnassignPaper removes a paper id from a category. Removing one that is not
// there succeeds.
func (s *Store) UnassignPaper(paperID, category string) error {
	doc := s.loadCategories()
	ids, ok := doc.Categories[category]
	if !ok {
		return fmt.Errorf("category %q: %w", category, ErrCategoryNotFound)
	}

	kept := ids[:0]
	for _, id := range ids {
		if id != paperID {
			kept = append(kept, id)
		}
	}
	if len(kept) == len(ids) {
		return nil
	}
	doc.Categories[category] = kept
	return s.saveCategories(doc)
}

// PapersByCategory returns the ids assigned to a category. An unknown
// category yields an empty list.
func (s *Store) PapersByCategory(category string) []string {
	doc := s.loadCategories()
	ids := doc.Categories[category]
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}

func (s *Store) loadPapers() map[string]paper.Paper {
	raw, err := os.ReadFile(s.papersFile)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn().Err(err).Str("path", s.papersFile).Msg("read papers file failed, starting empty")
		}
		return map[string]paper.Paper{}
	}

	if err := validatePapersDocument(raw); err != nil {
		s.logger.Warn().Err(err).Str("path", s.papersFile).Msg("papers file is corrupt, starting empty")
		return map[string]paper.Paper{}
	}

	var papers map[string]paper.Paper
	if err := json.Unmarshal(raw, &papers); err != nil {
		s.logger.Warn().Err(err).Str("path", s.papersFile).Msg("decode papers file failed, starting empty")
		return map[string]paper.Paper{}
	}
	if papers == nil {
		papers = map[string]paper.Paper{}
	}
	return papers
}

func (s *Store) savePapers(papers map[string]paper.Paper) error {
	data, err := json.MarshalIndent(papers, "", "  ")
	if err != nil {
		return fmt.Errorf("encode papers: %w", err)
	}
	if err := os.WriteFile(s.papersFile, data, 0o644); err != nil {
		return fmt.Errorf("write papers file: %w", err)
	}
	return nil
}

func (s *Store) loadCategories() categoriesDoc {
	empty := categoriesDoc{Categories: map[string][]string{}, Default: []string{}}

	raw, err := os.ReadFile(s.categoriesFile)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn().Err(err).Str("path", s.categoriesFile).Msg("read categories file failed, starting empty")
		}
		return empty
	}

	if err := validateCategoriesDocument(raw); err != nil {
		s.logger.Warn().Err(err).Str("path", s.categoriesFile).Msg("categories file is corrupt, starting empty")
		return empty
	}

	var doc categoriesDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		s.logger.Warn().Err(err).Str("path", s.categoriesFile).Msg("decode categories file failed, starting empty")
		return empty
	}
	if doc.Categories == nil {
		doc.Categories = map[string][]string{}
	}
	if doc.Default == nil {
		doc.Default = []string{}
	}
	return doc
}

func (s *Store) saveCategories(doc categoriesDoc) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode categories: %w", err)
	}
	if err := os.WriteFile(s.categoriesFile, data, 0o644); err != nil {
		return fmt.Errorf("write categories file: %w", err)
	}
	return nil
}

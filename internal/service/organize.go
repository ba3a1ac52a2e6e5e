package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/arxrev/arxrev/internal/globaltime"
	"github.com/arxrev/arxrev/internal/reader"
)

const (
	// OutputMarkdown and OutputJSON are the review formats Organize renders.
	OutputMarkdown = "markdown"
	OutputJSON     = "json"

	// extractPreviewRunes bounds the extracted-text excerpt per paper.
	extractPreviewRunes = 500
)

// ReviewEntry is one paper's slice of the generated review.
type ReviewEntry struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Authors       []string `json:"authors"`
	Published     string   `json:"published"`
	Summary       string   `json:"summary"`
	ExtractedText string   `json:"extracted_text"`
}

// Organize scans inputDir for downloaded PDFs, pairs each with its catalog
// record or sidecar metadata file, extracts a text excerpt and renders a
// review document. PDFs with no metadata at all are skipped.
func (s *Service) Organize(inputDir, format string) (string, error) {
	if format != OutputJSON {
		format = OutputMarkdown
	}

	pdfFiles, err := filepath.Glob(filepath.Join(inputDir, "*.pdf"))
	if err != nil {
		return "", fmt.Errorf("scan input dir: %w", err)
	}

	entries := make([]ReviewEntry, 0, len(pdfFiles))
	for _, pdfFile := range pdfFiles {
		id := strings.TrimSuffix(filepath.Base(pdfFile), ".pdf")

		entry, ok := s.reviewEntry(id, inputDir)
		if !ok {
			s.logger.Debug().Str("paper_id", id).Msg("no metadata for pdf, skipping")
			continue
		}

		text, extractErr := extractPDFText(pdfFile)
		if extractErr != nil {
			s.logger.Warn().Err(extractErr).Str("path", pdfFile).Msg("pdf text extraction failed")
			text = "text extraction failed: " + extractErr.Error()
		}
		entry.ExtractedText, _ = reader.TruncateText(text, extractPreviewRunes)

		entries = append(entries, entry)
	}

	if format == OutputJSON {
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return "", fmt.Errorf("encode review: %w", err)
		}
		return string(data), nil
	}
	return renderMarkdownReview(entries), nil
}

// reviewEntry resolves a paper's metadata: the catalog record wins, a
// sidecar <id>.meta.txt file backs it.
func (s *Service) reviewEntry(id, inputDir string) (ReviewEntry, bool) {
	if s.catalog != nil {
		if p, ok := s.catalog.Get(id); ok {
			return ReviewEntry{
				ID:        p.ID,
				Title:     p.Title,
				Authors:   p.Authors,
				Published: p.Published,
				Summary:   p.Summary,
			}, true
		}
	}

	metaFile := filepath.Join(inputDir, id+".meta.txt")
	meta, err := readMetadataFile(metaFile)
	if err != nil {
		return ReviewEntry{}, false
	}

	entry := ReviewEntry{
		ID:        id,
		Title:     meta["title"],
		Published: meta["published"],
		Summary:   meta["summary"],
	}
	if authors := meta["authors"]; authors != "" {
		entry.Authors = strings.Split(authors, ", ")
	}
	if entry.Title == "" {
		entry.Title = "Untitled"
	}
	return entry, true
}

// readMetadataFile parses a "key: value" per line sidecar file.
func readMetadataFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	meta := map[string]string{}
	for _, line := range strings.Split(string(data), "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		meta[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return meta, nil
}

func extractPDFText(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	return reader.CleanText(buf.String()), nil
}

func renderMarkdownReview(entries []ReviewEntry) string {
	var b strings.Builder
	b.WriteString("# Paper Review\n\n")
	fmt.Fprintf(&b, "*Generated: %s*\n\n", globaltime.Now().Format("2006-01-02 15:04:05"))

	for _, entry := range entries {
		fmt.Fprintf(&b, "## %s\n\n", entry.Title)
		fmt.Fprintf(&b, "**ID:** %s  \n", entry.ID)
		fmt.Fprintf(&b, "**Authors:** %s  \n", strings.Join(entry.Authors, ", "))
		fmt.Fprintf(&b, "**Published:** %s\n\n", entry.Published)
		fmt.Fprintf(&b, "### Abstract\n\n%s\n\n", entry.Summary)
		fmt.Fprintf(&b, "### Extracted Text\n\n%s\n\n", entry.ExtractedText)
		b.WriteString("---\n\n")
	}
	return b.String()
}

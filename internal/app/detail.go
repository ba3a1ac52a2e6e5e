package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/arxrev/arxrev/internal/arxiv"
	"github.com/arxrev/arxrev/internal/cli"
	"github.com/arxrev/arxrev/internal/crossref"
	"github.com/arxrev/arxrev/internal/paper"
)

func runDetail(args []string) int {
	fs := flag.NewFlagSet("detail", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 2*time.Minute, "Command timeout")
	format := fs.String("format", outputFormatTable, "Output format: table or json")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "detail requires exactly one paper id argument")
		return 2
	}

	paperID := strings.TrimSpace(fs.Arg(0))
	if paperID == "" {
		fmt.Fprintln(os.Stderr, "paper id must not be empty")
		return 2
	}

	outputFormat, err := parseOutputFormat(*format, outputFormatTable)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid format: %v\n", err)
		return 2
	}

	cfg, logger, err := bootstrap(envLoader)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	svc, _ := buildService(cfg, logger)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	p, err := svc.Detail(ctx, paperID)
	if err != nil {
		if errors.Is(err, arxiv.ErrNotFound) || errors.Is(err, crossref.ErrNotFound) {
			fmt.Fprintf(os.Stderr, "Paper not found: %s\n", paperID)
			return 1
		}
		fmt.Fprintf(os.Stderr, "Failed to load paper detail: %v\n", err)
		return 1
	}

	if outputFormat == outputFormatJSON {
		if err := printJSON(p); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
			return 1
		}
		return 0
	}

	printPaperDetail(p)
	return 0
}

func printPaperDetail(p *paper.Paper) {
	fmt.Printf("ID:        %s\n", p.ID)
	fmt.Printf("Title:     %s\n", p.Title)
	if p.TitleZH != "" && p.TitleZH != p.Title {
		fmt.Printf("Title ZH:  %s\n", p.TitleZH)
	}
	if len(p.Authors) > 0 {
		fmt.Printf("Authors:   %s\n", strings.Join(p.Authors, ", "))
	}
	if p.Published != "" {
		fmt.Printf("Published: %s\n", p.Published)
	}
	if p.DOI != "" {
		fmt.Printf("DOI:       %s\n", p.DOI)
	}
	if p.PublishedIn != "" {
		fmt.Printf("Venue:     %s\n", p.PublishedIn)
	}
	if p.CitationCount != nil {
		fmt.Printf("Citations: %d\n", *p.CitationCount)
	}
	if p.PDFURL != "" {
		fmt.Printf("PDF:       %s\n", p.PDFURL)
	}
	if p.ArxivURL != "" {
		fmt.Printf("URL:       %s\n", p.ArxivURL)
	}
	if p.Summary != "" {
		fmt.Printf("\nAbstract:\n%s\n", p.Summary)
	}
	if p.SummaryZH != "" && p.SummaryZH != p.Summary {
		fmt.Printf("\nAbstract ZH:\n%s\n", p.SummaryZH)
	}
}

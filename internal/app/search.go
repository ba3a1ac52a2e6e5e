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
	"github.com/arxrev/arxrev/internal/paper"
	"github.com/arxrev/arxrev/internal/service"
)

func runSearch(args []string) int {
	fs := flag.NewFlagSet("search", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 2*time.Minute, "Command timeout")
	maxResults := fs.Int("max-results", 10, "Maximum papers to return")
	sortBy := fs.String("sort-by", arxiv.SortRelevance, "Sort order: relevance, lastUpdatedDate or submittedDate")
	noTranslate := fs.Bool("no-translate", false, "Skip automatic query translation")
	noBackup := fs.Bool("no-backup", false, "Skip the CrossRef backup source")
	format := fs.String("format", outputFormatTable, "Output format: table or json")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "search requires exactly one query argument")
		return 2
	}

	query := strings.TrimSpace(fs.Arg(0))
	if query == "" {
		fmt.Fprintln(os.Stderr, "query must not be empty")
		return 2
	}
	if *maxResults <= 0 {
		fmt.Fprintln(os.Stderr, "--max-results must be > 0")
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

	result, err := svc.Search(ctx, query, service.SearchOptions{
		MaxResults:  *maxResults,
		SortBy:      *sortBy,
		NoTranslate: *noTranslate,
		NoBackup:    *noBackup,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
		return 1
	}

	if outputFormat == outputFormatJSON {
		if err := printJSON(result); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
			return 1
		}
		return 0
	}

	if result.Translated {
		fmt.Printf("Query translated: %s\n", result.EffectiveQuery)
	}
	if len(result.Papers) == 0 {
		fmt.Println("No papers found.")
		return 0
	}
	if err := writePaperTable(result.Papers); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to render table: %v\n", err)
		return 1
	}
	return 0
}

func writePaperTable(papers []paper.Paper) error {
	rows := make([][]string, 0, len(papers))
	for _, p := range papers {
		rows = append(rows, []string{
			p.ID,
			truncateForTable(p.Title, 70),
			truncateForTable(p.Published, 10),
			p.Source,
		})
	}
	return writeTable([]string{"ID", "TITLE", "PUBLISHED", "SOURCE"}, rows)
}

package app

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/arxrev/arxrev/internal/cli"
	"github.com/arxrev/arxrev/internal/paper"
)

func runPapers(args []string) int {
	fs := flag.NewFlagSet("papers", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	format := fs.String("format", outputFormatTable, "Output format: table or json")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "papers does not accept positional arguments")
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

	store := newStore(cfg, logger)
	papers := store.List()

	if outputFormat == outputFormatJSON {
		if err := printJSON(papers); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
			return 1
		}
		return 0
	}

	if len(papers) == 0 {
		fmt.Println("Catalog is empty.")
		return 0
	}
	if err := writeCatalogTable(papers); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to render table: %v\n", err)
		return 1
	}
	return 0
}

func writeCatalogTable(papers []paper.Paper) error {
	rows := make([][]string, 0, len(papers))
	for _, p := range papers {
		rows = append(rows, []string{
			p.ID,
			truncateForTable(p.Title, 60),
			truncateForTable(p.DownloadDate, 19),
			truncateForTable(p.LocalPath, 40),
		})
	}
	return writeTable([]string{"ID", "TITLE", "DOWNLOADED", "PATH"}, rows)
}

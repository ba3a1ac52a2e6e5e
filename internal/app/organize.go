package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/arxrev/arxrev/internal/cli"
	"github.com/arxrev/arxrev/internal/service"
)

func runOrganize(args []string) int {
	fs := flag.NewFlagSet("organize", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	inputDir := fs.String("input-dir", "", "Directory of downloaded PDFs (default: DOWNLOAD_DIR)")
	format := fs.String("output-format", service.OutputMarkdown, "Review format: markdown or json")
	output := fs.String("output", "", "Review file path (default: review.md or review.json in the input directory)")
	stdout := fs.Bool("stdout", false, "Print the review instead of writing a file")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "organize does not accept positional arguments")
		return 2
	}

	reviewFormat := strings.TrimSpace(strings.ToLower(*format))
	if reviewFormat == "" {
		reviewFormat = service.OutputMarkdown
	}
	if reviewFormat != service.OutputMarkdown && reviewFormat != service.OutputJSON {
		fmt.Fprintln(os.Stderr, "--output-format must be markdown or json")
		return 2
	}

	cfg, logger, err := bootstrap(envLoader)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	dir := strings.TrimSpace(*inputDir)
	if dir == "" {
		dir = cfg.DownloadDir
	}

	svc, _ := buildService(cfg, logger)

	review, err := svc.Organize(dir, reviewFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to generate review: %v\n", err)
		return 1
	}

	if *stdout {
		fmt.Print(review)
		return 0
	}

	outPath := strings.TrimSpace(*output)
	if outPath == "" {
		name := "review.md"
		if reviewFormat == service.OutputJSON {
			name = "review.json"
		}
		outPath = filepath.Join(dir, name)
	}

	if err := os.WriteFile(outPath, []byte(review), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write review: %v\n", err)
		return 1
	}
	fmt.Printf("Review written to %s\n", outPath)
	return 0
}

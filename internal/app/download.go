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
)

func runDownload(args []string) int {
	fs := flag.NewFlagSet("download", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 5*time.Minute, "Command timeout")
	outputDir := fs.String("output-dir", "", "Directory for downloaded PDFs (default: DOWNLOAD_DIR)")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "download requires exactly one paper id argument")
		return 2
	}

	paperID := strings.TrimSpace(fs.Arg(0))
	if paperID == "" {
		fmt.Fprintln(os.Stderr, "paper id must not be empty")
		return 2
	}
	if paper.IsCrossRefID(paperID) {
		fmt.Fprintln(os.Stderr, "CrossRef papers have no downloadable PDF; use the publisher URL")
		return 2
	}

	cfg, logger, err := bootstrap(envLoader)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	dir := strings.TrimSpace(*outputDir)
	if dir == "" {
		dir = cfg.DownloadDir
	}

	svc, _ := buildService(cfg, logger)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	path, err := svc.Download(ctx, paperID, dir)
	if err != nil {
		if errors.Is(err, arxiv.ErrNotFound) {
			fmt.Fprintf(os.Stderr, "Paper not found: %s\n", paperID)
			return 1
		}
		fmt.Fprintf(os.Stderr, "Download failed: %v\n", err)
		return 1
	}

	fmt.Printf("Downloaded %s to %s\n", paperID, path)
	return 0
}

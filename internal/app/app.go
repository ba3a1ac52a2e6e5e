// Package app implements the arxrev command line interface.
package app

import (
	"fmt"
	"os"
	"strings"
)

// Run executes the CLI command and returns a process exit code.
func Run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return 2
	}

	switch strings.ToLower(strings.TrimSpace(args[0])) {
	case "help", "--help", "-h":
		printUsage()
		return 0
	case "search":
		return runSearch(args[1:])
	case "detail", "show":
		return runDetail(args[1:])
	case "download":
		return runDownload(args[1:])
	case "papers":
		return runPapers(args[1:])
	case "category":
		return runCategory(args[1:])
	case "organize":
		return runOrganize(args[1:])
	case "translate":
		return runTranslate(args[1:])
	case "serve":
		return runServe(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", args[0])
		printUsage()
		return 2
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "arxrev CLI")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  arxrev <command> [flags]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  search     Search papers on arXiv, with CrossRef as backup")
	fmt.Fprintln(os.Stderr, "  detail     Show one paper with translated title and abstract")
	fmt.Fprintln(os.Stderr, "  download   Download a paper's PDF and record it in the catalog")
	fmt.Fprintln(os.Stderr, "  papers     List cataloged papers")
	fmt.Fprintln(os.Stderr, "  category   Manage catalog categories")
	fmt.Fprintln(os.Stderr, "  organize   Generate a review document from downloaded PDFs")
	fmt.Fprintln(os.Stderr, "  translate  Translate a piece of text")
	fmt.Fprintln(os.Stderr, "  serve      Start Echo API server")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Use \"arxrev <command> -h\" for command-specific flags.")
}

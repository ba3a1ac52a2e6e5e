package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/arxrev/arxrev/internal/catalog"
	"github.com/arxrev/arxrev/internal/cli"
	"github.com/arxrev/arxrev/internal/paper"
)

func runCategory(args []string) int {
	if len(args) == 0 {
		printCategoryUsage()
		return 2
	}

	action := strings.ToLower(strings.TrimSpace(args[0]))
	switch action {
	case "add", "delete", "list", "assign", "unassign", "show", "papers":
	default:
		fmt.Fprintf(os.Stderr, "Unknown category action: %s\n\n", args[0])
		printCategoryUsage()
		return 2
	}

	fs := flag.NewFlagSet("category "+action, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	format := fs.String("format", outputFormatTable, "Output format: table or json")

	if err := fs.Parse(args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
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

	switch action {
	case "add":
		return runCategoryAdd(store, fs.Args())
	case "delete":
		return runCategoryDelete(store, fs.Args())
	case "list":
		return runCategoryList(store, fs.Args(), outputFormat)
	case "assign":
		return runCategoryAssign(store, fs.Args())
	case "unassign":
		return runCategoryUnassign(store, fs.Args())
	default:
		return runCategoryShow(store, fs.Args(), outputFormat)
	}
}

func runCategoryAdd(store *catalog.Store, args []string) int {
	name, ok := singleCategoryArg("category add", args)
	if !ok {
		return 2
	}
	if err := store.AddCategory(name); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to add category: %v\n", err)
		return 1
	}
	fmt.Printf("Added category: %s\n", name)
	return 0
}

func runCategoryDelete(store *catalog.Store, args []string) int {
	name, ok := singleCategoryArg("category delete", args)
	if !ok {
		return 2
	}
	if err := store.DeleteCategory(name); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to delete category: %v\n", err)
		return 1
	}
	fmt.Printf("Deleted category: %s\n", name)
	return 0
}

func runCategoryList(store *catalog.Store, args []string, outputFormat string) int {
	if len(args) != 0 {
		fmt.Fprintln(os.Stderr, "category list does not accept positional arguments")
		return 2
	}

	names := store.Categories()
	if outputFormat == outputFormatJSON {
		if err := printJSON(names); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
			return 1
		}
		return 0
	}

	if len(names) == 0 {
		fmt.Println("No categories.")
		return 0
	}
	for _, name := range names {
		fmt.Printf("%s (%d papers)\n", name, len(store.PapersByCategory(name)))
	}
	return 0
}

func runCategoryAssign(store *catalog.Store, args []string) int {
	name, paperID, ok := categoryPaperArgs("category assign", args)
	if !ok {
		return 2
	}
	if err := store.AssignPaper(paperID, name); err != nil {
		if errors.Is(err, catalog.ErrCategoryNotFound) {
			fmt.Fprintf(os.Stderr, "Category not found: %s\n", name)
			return 1
		}
		fmt.Fprintf(os.Stderr, "Failed to assign paper: %v\n", err)
		return 1
	}
	fmt.Printf("Assigned %s to %s\n", paperID, name)
	return 0
}

func runCategoryUnassign(store *catalog.Store, args []string) int {
	name, paperID, ok := categoryPaperArgs("category unassign", args)
	if !ok {
		return 2
	}
	if err := store.UnassignPaper(paperID, name); err != nil {
		if errors.Is(err, catalog.ErrCategoryNotFound) {
			fmt.Fprintf(os.Stderr, "Category not found: %s\n", name)
			return 1
		}
		fmt.Fprintf(os.Stderr, "Failed to unassign paper: %v\n", err)
		return 1
	}
	fmt.Printf("Unassigned %s from %s\n", paperID, name)
	return 0
}

func runCategoryShow(store *catalog.Store, args []string, outputFormat string) int {
	name, ok := singleCategoryArg("category show", args)
	if !ok {
		return 2
	}

	papers := make([]paper.Paper, 0)
	for _, id := range store.PapersByCategory(name) {
		if p, found := store.Get(id); found {
			papers = append(papers, p)
		}
	}

	if outputFormat == outputFormatJSON {
		if err := printJSON(papers); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
			return 1
		}
		return 0
	}

	if len(papers) == 0 {
		fmt.Printf("No papers in category: %s\n", name)
		return 0
	}
	if err := writeCatalogTable(papers); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to render table: %v\n", err)
		return 1
	}
	return 0
}

func singleCategoryArg(command string, args []string) (string, bool) {
	if len(args) != 1 {
		fmt.Fprintf(os.Stderr, "%s requires exactly one category name argument\n", command)
		return "", false
	}
	name := strings.TrimSpace(args[0])
	if name == "" {
		fmt.Fprintln(os.Stderr, "category name must not be empty")
		return "", false
	}
	return name, true
}

func categoryPaperArgs(command string, args []string) (string, string, bool) {
	if len(args) != 2 {
		fmt.Fprintf(os.Stderr, "%s requires a category name and a paper id\n", command)
		return "", "", false
	}
	name := strings.TrimSpace(args[0])
	paperID := strings.TrimSpace(args[1])
	if name == "" || paperID == "" {
		fmt.Fprintln(os.Stderr, "category name and paper id must not be empty")
		return "", "", false
	}
	return name, paperID, true
}

func printCategoryUsage() {
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  arxrev category add <name> [--env .env]")
	fmt.Fprintln(os.Stderr, "  arxrev category delete <name> [--env .env]")
	fmt.Fprintln(os.Stderr, "  arxrev category list [--format table] [--env .env]")
	fmt.Fprintln(os.Stderr, "  arxrev category assign <name> <paper_id> [--env .env]")
	fmt.Fprintln(os.Stderr, "  arxrev category unassign <name> <paper_id> [--env .env]")
	fmt.Fprintln(os.Stderr, "  arxrev category show <name> [--format table] [--env .env]")
}

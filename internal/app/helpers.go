package app

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/arxrev/arxrev/internal/arxiv"
	"github.com/arxrev/arxrev/internal/catalog"
	"github.com/arxrev/arxrev/internal/cli"
	"github.com/arxrev/arxrev/internal/config"
	"github.com/arxrev/arxrev/internal/crossref"
	"github.com/arxrev/arxrev/internal/enrich"
	"github.com/arxrev/arxrev/internal/logging"
	"github.com/arxrev/arxrev/internal/reader"
	"github.com/arxrev/arxrev/internal/service"
	"github.com/arxrev/arxrev/internal/translation"
)

const (
	outputFormatTable = "table"
	outputFormatJSON  = "json"
)

// bootstrap loads the .env file, the configuration and the logger shared by
// every command.
func bootstrap(envLoader *cli.EnvLoader) (*config.Config, zerolog.Logger, error) {
	if envLoader != nil {
		if _, err := envLoader.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Logger{}, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		return nil, zerolog.Logger{}, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return cfg, logger, nil
}

func newStore(cfg *config.Config, logger zerolog.Logger) *catalog.Store {
	return catalog.NewStore(catalog.Options{
		PapersFile:     cfg.PapersFile,
		CategoriesFile: cfg.CategoriesFile,
		Logger:         logger,
	})
}

func newTranslator(cfg *config.Config, logger zerolog.Logger) *translation.Translator {
	return translation.NewTranslator(
		translation.NewMyMemoryBackend(cfg.MyMemoryBaseURL, cfg.MyMemoryEmail),
		translation.NewGoogleTranslateBackend(cfg.GoogleTranslateBaseURL),
		translation.Options{
			PrimaryDelay:   cfg.TranslationPrimaryDelay,
			SecondaryDelay: cfg.TranslationSecondaryDelay,
			Logger:         logger,
		},
	)
}

// buildService wires the sources, the translator, the enricher and the
// catalog into the service layer.
func buildService(cfg *config.Config, logger zerolog.Logger) (*service.Service, *catalog.Store) {
	store := newStore(cfg, logger)

	svc := service.New(service.Options{
		Source: arxiv.NewClient(arxiv.Options{
			BaseURL: cfg.ArxivBaseURL,
			Logger:  logger,
		}),
		Backup: crossref.NewClient(crossref.Options{
			BaseURL:      cfg.CrossRefBaseURL,
			ContactEmail: cfg.ContactEmail,
			Logger:       logger,
		}),
		Translator: newTranslator(cfg, logger),
		Enricher: enrich.NewEnricher(enrich.Options{
			BaseURL: cfg.SemanticScholarBaseURL,
			Logger:  logger,
		}),
		Catalog:    store,
		PageReader: reader.FetchText,
		TargetLang: cfg.TargetLang,
		SourceLang: cfg.SourceLang,
		Logger:     logger,
	})

	return svc, store
}

func parseOutputFormat(raw, defaultFormat string) (string, error) {
	format := strings.TrimSpace(strings.ToLower(raw))
	if format == "" {
		format = strings.TrimSpace(strings.ToLower(defaultFormat))
	}
	switch format {
	case outputFormatTable, outputFormatJSON:
		return format, nil
	default:
		return "", fmt.Errorf("--format must be table or json")
	}
}

func truncateForTable(value string, maxLen int) string {
	trimmed := strings.TrimSpace(value)
	if maxLen <= 0 {
		return trimmed
	}
	if utf8.RuneCountInString(trimmed) <= maxLen {
		return trimmed
	}

	runes := []rune(trimmed)
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

func printJSON(value any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}

func writeTable(headers []string, rows [][]string) error {
	writer := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	if _, err := fmt.Fprintln(writer, strings.Join(headers, "\t")); err != nil {
		return err
	}
	for _, row := range rows {
		if _, err := fmt.Fprintln(writer, strings.Join(row, "\t")); err != nil {
			return err
		}
	}
	return writer.Flush()
}

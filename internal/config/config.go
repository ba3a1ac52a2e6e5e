package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"local"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	DownloadDir    string `envconfig:"DOWNLOAD_DIR" default:"downloads"`
	PapersFile     string `envconfig:"PAPERS_FILE" default:"papers.json"`
	CategoriesFile string `envconfig:"CATEGORIES_FILE" default:"categories.json"`

	TargetLang string `envconfig:"TARGET_LANG" default:"zh"`
	SourceLang string `envconfig:"SOURCE_LANG" default:"en"`

	ArxivBaseURL           string `envconfig:"ARXIV_BASE_URL" default:""`
	CrossRefBaseURL        string `envconfig:"CROSSREF_BASE_URL" default:""`
	SemanticScholarBaseURL string `envconfig:"SEMANTIC_SCHOLAR_BASE_URL" default:""`
	MyMemoryBaseURL        string `envconfig:"MYMEMORY_BASE_URL" default:""`
	GoogleTranslateBaseURL string `envconfig:"GOOGLE_TRANSLATE_BASE_URL" default:""`

	// MyMemoryEmail raises the anonymous translation quota; ContactEmail
	// routes CrossRef requests to its polite pool.
	MyMemoryEmail string `envconfig:"MYMEMORY_EMAIL" default:""`
	ContactEmail  string `envconfig:"CONTACT_EMAIL" default:""`

	TranslationPrimaryDelay   time.Duration `envconfig:"TRANSLATION_PRIMARY_DELAY" default:"500ms"`
	TranslationSecondaryDelay time.Duration `envconfig:"TRANSLATION_SECONDARY_DELAY" default:"250ms"`

	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`

	CORSAllowedOrigins string `envconfig:"CORS_ALLOWED_ORIGINS" default:""`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.DownloadDir) == "" {
		return fmt.Errorf("DOWNLOAD_DIR is required")
	}
	if strings.TrimSpace(c.PapersFile) == "" {
		return fmt.Errorf("PAPERS_FILE is required")
	}
	if strings.TrimSpace(c.CategoriesFile) == "" {
		return fmt.Errorf("CATEGORIES_FILE is required")
	}
	if strings.TrimSpace(c.TargetLang) == "" {
		return fmt.Errorf("TARGET_LANG is required")
	}
	if strings.TrimSpace(c.SourceLang) == "" {
		return fmt.Errorf("SOURCE_LANG is required")
	}
	if c.TranslationPrimaryDelay < 0 {
		return fmt.Errorf("TRANSLATION_PRIMARY_DELAY must be >= 0")
	}
	if c.TranslationSecondaryDelay < 0 {
		return fmt.Errorf("TRANSLATION_SECONDARY_DELAY must be >= 0")
	}
	if strings.TrimSpace(c.HTTPAddr) == "" {
		return fmt.Errorf("HTTP_ADDR is required")
	}
	return nil
}

func (c *Config) CORSAllowedOriginsList() []string {
	if c == nil {
		return nil
	}

	parts := strings.Split(c.CORSAllowedOrigins, ",")
	origins := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		origin := strings.TrimSpace(part)
		if origin == "" {
			continue
		}
		if _, exists := seen[origin]; exists {
			continue
		}
		seen[origin] = struct{}{}
		origins = append(origins, origin)
	}
	return origins
}

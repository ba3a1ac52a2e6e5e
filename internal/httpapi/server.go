// Package httpapi serves the paper assistant over HTTP with a jsend response
// envelope.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/arxrev/arxrev/internal/arxiv"
	"github.com/arxrev/arxrev/internal/catalog"
	"github.com/arxrev/arxrev/internal/crossref"
	"github.com/arxrev/arxrev/internal/globaltime"
	"github.com/arxrev/arxrev/internal/paper"
	"github.com/arxrev/arxrev/internal/service"
)

const (
	defaultMaxResults = 10
	maxMaxResults     = 100
)

// PaperService is the surface of the service layer the HTTP API uses.
type PaperService interface {
	Search(ctx context.Context, query string, opts service.SearchOptions) (*service.SearchResult, error)
	Detail(ctx context.Context, id string) (*paper.Paper, error)
	Download(ctx context.Context, id, dir string) (string, error)
	Organize(inputDir, format string) (string, error)
	Papers() []paper.Paper
	Paper(id string) (paper.Paper, bool)
}

// CategoryStore is the category surface of the catalog.
type CategoryStore interface {
	AddCategory(name string) error
	DeleteCategory(name string) error
	Categories() []string
	AssignPaper(paperID, category string) error
	UnassignPaper(paperID, category string) error
	PapersByCategory(category string) []string
}

type Options struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
	DownloadDir     string
}

type Server struct {
	svc        PaperService
	categories CategoryStore
	logger     zerolog.Logger
	opts       Options
}

func NewServer(svc PaperService, categories CategoryStore, logger zerolog.Logger, opts Options) *Server {
	host := strings.TrimSpace(opts.Host)
	if host == "" {
		host = "0.0.0.0"
	}
	port := opts.Port
	if port <= 0 {
		port = 8080
	}
	readTimeout := opts.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = 10 * time.Second
	}
	writeTimeout := opts.WriteTimeout
	if writeTimeout <= 0 {
		// Detail calls chain translation backends; give them room.
		writeTimeout = 120 * time.Second
	}
	shutdownTimeout := opts.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	allowedOrigins := opts.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	downloadDir := strings.TrimSpace(opts.DownloadDir)
	if downloadDir == "" {
		downloadDir = "downloads"
	}

	return &Server{
		svc:        svc,
		categories: categories,
		logger:     logger,
		opts: Options{
			Host:            host,
			Port:            port,
			ReadTimeout:     readTimeout,
			WriteTimeout:    writeTimeout,
			ShutdownTimeout: shutdownTimeout,
			AllowedOrigins:  allowedOrigins,
			DownloadDir:     downloadDir,
		},
	}
}

// Start serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	if s == nil || s.svc == nil {
		return fmt.Errorf("server is not initialized")
	}

	e := s.buildEcho()

	addr := fmt.Sprintf("%s:%d", s.opts.Host, s.opts.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      e,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		if shutdownErr := e.Shutdown(shutdownCtx); shutdownErr != nil {
			s.logger.Error().Err(shutdownErr).Msg("server shutdown failed")
		}
	}()

	s.logger.Info().Str("addr", addr).Msg("arxrev api server started")

	if err := e.StartServer(httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("start server: %w", err)
	}
	s.logger.Info().Msg("arxrev api server stopped")
	return nil
}

func (s *Server) buildEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.httpErrorHandler

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: s.opts.AllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		MaxAge:       3600,
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				s.logger.Error().
					Err(v.Error).
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Str("remote_ip", v.RemoteIP).
					Str("request_id", v.RequestID).
					Msg("http request failed")
				return nil
			}

			s.logger.Info().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote_ip", v.RemoteIP).
				Str("request_id", v.RequestID).
				Msg("http request")
			return nil
		},
	}))

	api := e.Group("/api/v1")
	api.GET("/health", s.handleHealth)
	api.GET("/search", s.handleSearch)
	api.GET("/papers", s.handlePapers)
	api.GET("/papers/:paper_id", s.handlePaperDetail)
	api.POST("/papers/:paper_id/download", s.handleDownload)
	api.GET("/categories", s.handleCategories)
	api.POST("/categories", s.handleCreateCategory)
	api.DELETE("/categories/:name", s.handleDeleteCategory)
	api.GET("/categories/:name/papers", s.handleCategoryPapers)
	api.PUT("/categories/:name/papers/:paper_id", s.handleAssignPaper)
	api.DELETE("/categories/:name/papers/:paper_id", s.handleUnassignPaper)
	api.GET("/organize", s.handleOrganize)

	return e
}

func (s *Server) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	message := "Internal server error"
	if he, ok := err.(*echo.HTTPError); ok {
		status = he.Code
		switch v := he.Message.(type) {
		case string:
			if strings.TrimSpace(v) != "" {
				message = v
			}
		default:
			if text := strings.TrimSpace(http.StatusText(status)); text != "" {
				message = text
			}
		}
	} else if err != nil {
		message = err.Error()
	}

	if status >= 500 {
		_ = internalError(c, "Internal server error")
		return
	}
	_ = fail(c, status, message, nil)
}

func (s *Server) handleHealth(c echo.Context) error {
	return success(c, map[string]any{
		"service": "arxrev",
		"time":    globaltime.UTC(),
	})
}

func (s *Server) handleSearch(c echo.Context) error {
	query := strings.TrimSpace(c.QueryParam("q"))
	if query == "" {
		return failValidation(c, map[string]string{"q": "is required"})
	}

	maxResults, err := parsePositiveInt(c.QueryParam("max_results"), defaultMaxResults, 1, maxMaxResults)
	if err != nil {
		return failValidation(c, map[string]string{"max_results": err.Error()})
	}

	opts := service.SearchOptions{
		MaxResults:  maxResults,
		SortBy:      strings.TrimSpace(c.QueryParam("sort_by")),
		NoTranslate: parseBoolParam(c.QueryParam("no_translate")),
		NoBackup:    parseBoolParam(c.QueryParam("no_backup")),
	}

	result, err := s.svc.Search(c.Request().Context(), query, opts)
	if err != nil {
		s.logger.Error().Err(err).Str("query", query).Msg("search failed")
		return internalError(c, "Search failed")
	}

	return success(c, map[string]any{
		"items":           result.Papers,
		"effective_query": result.EffectiveQuery,
		"translated":      result.Translated,
	})
}

func (s *Server) handlePapers(c echo.Context) error {
	return success(c, map[string]any{
		"items": s.svc.Papers(),
	})
}

func (s *Server) handlePaperDetail(c echo.Context) error {
	paperID := strings.TrimSpace(c.Param("paper_id"))
	if paperID == "" {
		return failValidation(c, map[string]string{"paper_id": "is required"})
	}

	p, err := s.svc.Detail(c.Request().Context(), paperID)
	if err != nil {
		if errors.Is(err, arxiv.ErrNotFound) || errors.Is(err, crossref.ErrNotFound) {
			return failNotFound(c, "Paper not found")
		}
		s.logger.Error().Err(err).Str("paper_id", paperID).Msg("paper detail failed")
		return internalError(c, "Failed to load paper detail")
	}
	return success(c, p)
}

func (s *Server) handleDownload(c echo.Context) error {
	paperID := strings.TrimSpace(c.Param("paper_id"))
	if paperID == "" {
		return failValidation(c, map[string]string{"paper_id": "is required"})
	}
	if paper.IsCrossRefID(paperID) {
		return failValidation(c, map[string]string{"paper_id": "has no downloadable PDF"})
	}

	path, err := s.svc.Download(c.Request().Context(), paperID, s.opts.DownloadDir)
	if err != nil {
		if errors.Is(err, arxiv.ErrNotFound) {
			return failNotFound(c, "Paper not found")
		}
		s.logger.Error().Err(err).Str("paper_id", paperID).Msg("download failed")
		return internalError(c, "Download failed")
	}

	return successWithStatus(c, http.StatusCreated, map[string]any{
		"paper_id":   paperID,
		"local_path": path,
	})
}

func (s *Server) handleCategories(c echo.Context) error {
	return success(c, map[string]any{
		"items": s.categories.Categories(),
	})
}

type createCategoryRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleCreateCategory(c echo.Context) error {
	var req createCategoryRequest
	if err := c.Bind(&req); err != nil {
		return failValidation(c, map[string]string{"body": "must be valid JSON"})
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return failValidation(c, map[string]string{"name": "is required"})
	}

	if err := s.categories.AddCategory(name); err != nil {
		s.logger.Error().Err(err).Str("category", name).Msg("create category failed")
		return internalError(c, "Failed to create category")
	}
	return successWithStatus(c, http.StatusCreated, map[string]any{"name": name})
}

func (s *Server) handleDeleteCategory(c echo.Context) error {
	name := strings.TrimSpace(c.Param("name"))
	if name == "" {
		return failValidation(c, map[string]string{"name": "is required"})
	}

	if err := s.categories.DeleteCategory(name); err != nil {
		s.logger.Error().Err(err).Str("category", name).Msg("delete category failed")
		return internalError(c, "Failed to delete category")
	}
	return success(c, map[string]any{"name": name})
}

func (s *Server) handleCategoryPapers(c echo.Context) error {
	name := strings.TrimSpace(c.Param("name"))
	if name == "" {
		return failValidation(c, map[string]string{"name": "is required"})
	}

	ids := s.categories.PapersByCategory(name)
	papers := make([]paper.Paper, 0, len(ids))
	for _, id := range ids {
		if p, ok := s.svc.Paper(id); ok {
			papers = append(papers, p)
		}
	}
	return success(c, map[string]any{
		"category": name,
		"items":    papers,
	})
}

func (s *Server) handleAssignPaper(c echo.Context) error {
	name := strings.TrimSpace(c.Param("name"))
	paperID := strings.TrimSpace(c.Param("paper_id"))
	if name == "" || paperID == "" {
		return failValidation(c, map[string]string{"path": "category name and paper id are required"})
	}

	if err := s.categories.AssignPaper(paperID, name); err != nil {
		if errors.Is(err, catalog.ErrCategoryNotFound) {
			return failNotFound(c, "Category not found")
		}
		s.logger.Error().Err(err).Str("category", name).Str("paper_id", paperID).Msg("assign paper failed")
		return internalError(c, "Failed to assign paper")
	}
	return success(c, map[string]any{"category": name, "paper_id": paperID})
}

func (s *Server) handleUnassignPaper(c echo.Context) error {
	name := strings.TrimSpace(c.Param("name"))
	paperID := strings.TrimSpace(c.Param("paper_id"))
	if name == "" || paperID == "" {
		return failValidation(c, map[string]string{"path": "category name and paper id are required"})
	}

	if err := s.categories.UnassignPaper(paperID, name); err != nil {
		if errors.Is(err, catalog.ErrCategoryNotFound) {
			return failNotFound(c, "Category not found")
		}
		s.logger.Error().Err(err).Str("category", name).Str("paper_id", paperID).Msg("unassign paper failed")
		return internalError(c, "Failed to unassign paper")
	}
	return success(c, map[string]any{"category": name, "paper_id": paperID})
}

func (s *Server) handleOrganize(c echo.Context) error {
	format := strings.TrimSpace(c.QueryParam("format"))
	if format == "" {
		format = service.OutputMarkdown
	}
	if format != service.OutputMarkdown && format != service.OutputJSON {
		return failValidation(c, map[string]string{"format": "must be markdown or json"})
	}

	review, err := s.svc.Organize(s.opts.DownloadDir, format)
	if err != nil {
		s.logger.Error().Err(err).Msg("organize failed")
		return internalError(c, "Failed to generate review")
	}

	return success(c, map[string]any{
		"format": format,
		"review": review,
	})
}

func parsePositiveInt(raw string, defaultValue, minValue, maxValue int) (int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return defaultValue, nil
	}

	value, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, fmt.Errorf("must be an integer")
	}
	if value < minValue || value > maxValue {
		return 0, fmt.Errorf("must be between %d and %d", minValue, maxValue)
	}
	return value, nil
}

func parseBoolParam(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}

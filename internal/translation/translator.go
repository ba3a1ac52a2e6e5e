// Package translation turns long academic text into a target language by
// chunking it, walking a primary/secondary backend chain, and memoizing the
// result. Every failure path degrades to returning the best available text;
// callers never see an error.
package translation

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/arxrev/arxrev/internal/langdetect"
	"github.com/arxrev/arxrev/internal/language"
)

const (
	// DefaultTargetLang and DefaultSourceLang match the catalog's
	// title_zh/summary_zh fields.
	DefaultTargetLang = "zh"
	DefaultSourceLang = "en"

	defaultPrimaryDelay   = 500 * time.Millisecond
	defaultSecondaryDelay = 250 * time.Millisecond
)

// Options configures a Translator.
type Options struct {
	// PrimaryDelay and SecondaryDelay pace successive backend calls within
	// one chunked translation. Negative values disable pacing; zero selects
	// the defaults.
	PrimaryDelay   time.Duration
	SecondaryDelay time.Duration
	Logger         zerolog.Logger
}

// Translator composes the chunker, the cache and the two backends into one
// translate operation. One Translator owns one Session: callers that need
// isolated failure accounting create their own instance.
type Translator struct {
	primary   Backend
	secondary Backend
	session   *Session
	cache     *Cache

	primaryLimiter   *rate.Limiter
	secondaryLimiter *rate.Limiter
	logger           zerolog.Logger
}

func NewTranslator(primary, secondary Backend, opts Options) *Translator {
	return &Translator{
		primary:          primary,
		secondary:        secondary,
		session:          NewSession(),
		cache:            NewCache(),
		primaryLimiter:   newLimiter(opts.PrimaryDelay, defaultPrimaryDelay),
		secondaryLimiter: newLimiter(opts.SecondaryDelay, defaultSecondaryDelay),
		logger:           opts.Logger,
	}
}

func newLimiter(delay, fallback time.Duration) *rate.Limiter {
	if delay == 0 {
		delay = fallback
	}
	if delay < 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(delay), 1)
}

// Session exposes the translator's failure state.
func (t *Translator) Session() *Session {
	return t.session
}

// chunkResult is the tagged per-chunk outcome: either translated text or
// the original chunk kept with a reason.
type chunkResult struct {
	text       string
	translated bool
	reason     string
}

// Translate renders text into targetLang. It never fails: every failure
// path degrades to returning the best available text, down to the original
// input. An empty target language falls back to the package default; an
// empty source language is detected from the text itself.
func (t *Translator) Translate(ctx context.Context, text, targetLang, sourceLang string) string {
	if text == "" {
		return ""
	}

	to := language.NormalizeCode(targetLang)
	if to == "" {
		to = DefaultTargetLang
	}
	from := language.NormalizeCode(sourceLang)
	if from == "" {
		from = langdetect.DetectISO6391(text)
	}
	if from == "" {
		from = DefaultSourceLang
	}

	// Already written in the target script, nothing to do.
	if langdetect.MatchesScript(text, to) {
		return text
	}

	key := cacheKey(text, from, to)
	if cached, ok := t.cache.Get(key); ok {
		t.logger.Debug().Str("target_lang", to).Msg("translation cache hit")
		return cached
	}

	var results []chunkResult
	if t.session.FallbackOnly() {
		// Quota is session-scoped: once the primary is known exhausted the
		// decision stays pinned for the rest of the session.
		t.session.ForceFallback()
		t.logger.Debug().Int("failures", t.session.Failures()).Msg("primary backend skipped for this session")
		results = t.translateChunks(ctx, Chunk(text, t.secondary.ChunkSize()), to, from)
	} else {
		results = t.translateChunks(ctx, Chunk(text, t.primary.ChunkSize()), to, from)
	}

	out := joinChunks(results)
	t.cache.Put(key, out)
	return out
}

func (t *Translator) translateChunks(ctx context.Context, chunks []string, to, from string) []chunkResult {
	results := make([]chunkResult, 0, len(chunks))
	for _, chunk := range chunks {
		// The session can flip to fallback-only mid-text; every later chunk
		// then goes straight to the secondary backend.
		if t.session.FallbackOnly() {
			results = append(results, t.secondaryChunk(ctx, chunk, to, from))
			continue
		}
		results = append(results, t.primaryChunk(ctx, chunk, to, from))
	}
	return results
}

func (t *Translator) primaryChunk(ctx context.Context, chunk, to, from string) chunkResult {
	if err := t.primaryLimiter.Wait(ctx); err != nil {
		return chunkResult{text: chunk, reason: err.Error()}
	}

	resp, err := t.primary.Translate(ctx, Request{Text: chunk, SourceLang: from, TargetLang: to})
	if err != nil {
		t.session.RecordFailure()
		t.logger.Warn().Err(err).Str("backend", t.primary.Name()).Msg("primary translation failed, retrying via fallback")
		return t.secondaryChunk(ctx, chunk, to, from)
	}

	if classify(resp.Text) == outcomeQuotaExceeded {
		t.session.RecordFailure()
		t.session.ForceFallback()
		t.logger.Warn().Str("backend", t.primary.Name()).Msg("primary translation quota exhausted, switching to fallback")
		return t.secondaryChunk(ctx, chunk, to, from)
	}

	return chunkResult{text: resp.Text, translated: true}
}

func (t *Translator) secondaryChunk(ctx context.Context, chunk, to, from string) chunkResult {
	if err := t.secondaryLimiter.Wait(ctx); err != nil {
		return chunkResult{text: chunk, reason: err.Error()}
	}

	resp, err := t.secondary.Translate(ctx, Request{Text: chunk, SourceLang: from, TargetLang: to})
	if err != nil {
		t.logger.Warn().Err(err).Str("backend", t.secondary.Name()).Msg("fallback translation failed, keeping original text")
		return chunkResult{text: chunk, reason: err.Error()}
	}
	return chunkResult{text: resp.Text, translated: true}
}

// joinChunks concatenates chunk results with single spaces. A partially
// failed translation yields mixed-language output on purpose: the caller
// still gets every chunk's best available text.
func joinChunks(results []chunkResult) string {
	parts := make([]string, 0, len(results))
	for _, r := range results {
		parts = append(parts, r.text)
	}
	return strings.Join(parts, " ")
}

// Package langdetect decides when text is already written in a target
// language. A cheap unicode range scan answers the common "is this already
// Chinese/Japanese/Korean" question; lingua handles everything else.
package langdetect

import (
	"strings"
	"sync"
	"unicode"

	lingua "github.com/pemistahl/lingua-go"

	"github.com/arxrev/arxrev/internal/language"
)

var scriptRanges = map[string][]*unicode.RangeTable{
	"zh": {unicode.Han},
	"ja": {unicode.Hiragana, unicode.Katakana, unicode.Han},
	"ko": {unicode.Hangul},
}

// MatchesScript reports whether text contains codepoints of the script
// family associated with the target language. Only CJK targets have a
// script family here; for every other language it returns false and the
// caller should fall back to full detection.
func MatchesScript(text, targetLang string) bool {
	ranges, ok := scriptRanges[language.NormalizeCode(targetLang)]
	if !ok {
		return false
	}
	for _, r := range text {
		if unicode.IsOneOf(ranges, r) {
			return true
		}
	}
	return false
}

var (
	detectorOnce sync.Once
	detector     lingua.LanguageDetector
)

// DetectISO6391 returns the two-letter code of the most likely language of
// the sample, or an empty string when the sample is too short to classify.
func DetectISO6391(text string) string {
	sample := strings.TrimSpace(text)
	if sample == "" {
		return ""
	}

	letterCount := 0
	for _, r := range sample {
		if unicode.IsLetter(r) {
			letterCount++
		}
	}
	if letterCount < 2 {
		return ""
	}

	detected, exists := getDetector().DetectLanguageOf(sample)
	if !exists {
		return ""
	}

	code := strings.ToLower(detected.IsoCode639_1().String())
	if len(code) != 2 {
		return ""
	}
	return code
}

func getDetector() lingua.LanguageDetector {
	detectorOnce.Do(func() {
		detector = lingua.NewLanguageDetectorBuilder().
			FromAllLanguages().
			WithPreloadedLanguageModels().
			Build()
	})
	return detector
}

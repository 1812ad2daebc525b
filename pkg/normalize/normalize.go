// Package normalize canonicalizes prompts and generation options before
// fingerprinting. Two requests that differ only in whitespace, politeness
// filler, or out-of-range parameters collapse to the same fingerprint, which
// is what keeps the cache hit rate honest and the upstream spend bounded.
package normalize

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/GxAditya/LinguaSpark-sub001/pkg/models"
)

// Per-content-type prompt length caps. Truncation is deterministic so a
// too-long prompt still fingerprints stably.
const (
	maxTextPromptLen  = 500
	maxImagePromptLen = 300
	truncationMarker  = "..."
)

// Option clamps.
const (
	maxTemperature  = 1.0
	maxTextTokens   = 1000
	maxImageDim     = 1024
	defaultTemp     = 0.7
	defaultTokens   = 500
	defaultImageDim = 512
)

// fillerPhrases are stripped from prompts. They carry politeness or hedging,
// not semantic intent. Longer phrases first so substrings don't shadow them.
var fillerPhrases = []string{
	"could you please",
	"would you please",
	"can you please",
	"could you",
	"would you",
	"can you",
	"please",
	"kind of",
	"sort of",
	"i think",
	"maybe",
	"thanks in advance",
	"thank you",
	"thanks",
}

// fillerPattern matches fillers only as whole words, so "please" inside
// "pleased" or "thanks" inside "thanksgiving" stays untouched. Alternation is
// leftmost-first, which is why fillerPhrases keeps longer phrases first.
var fillerPattern = regexp.MustCompile(`\b(?:` + strings.Join(fillerPhrases, `|`) + `)\b`)

// Prompt canonicalizes a free-text prompt: lowercase, filler stripped,
// whitespace collapsed, deterministically truncated. Stripping one filler
// can make two words adjacent that form another ("can <please> you"), and
// truncation can do the same at the cut point, so the whole pass repeats
// until the string stops changing. Each pass only shrinks the string, so
// this terminates; the fixpoint makes Prompt idempotent.
func Prompt(contentType models.ContentType, raw string) string {
	s := raw
	for {
		next := promptPass(contentType, s)
		if next == s {
			return s
		}
		s = next
	}
}

func promptPass(contentType models.ContentType, raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))

	s = fillerPattern.ReplaceAllString(s, " ")
	s = strings.Join(strings.Fields(s), " ")

	max := maxTextPromptLen
	if contentType == models.ContentImage {
		max = maxImagePromptLen
	}
	if len(s) > max {
		s = strings.TrimSpace(s[:max-len(truncationMarker)]) + truncationMarker
	}
	return s
}

// Options clamps generation options to safe, cheap ranges and fills defaults
// for absent fields. Idempotent.
func Options(contentType models.ContentType, opts models.GenerationOptions) models.GenerationOptions {
	out := opts

	if out.Temperature <= 0 {
		out.Temperature = defaultTemp
	}
	if out.Temperature > maxTemperature {
		out.Temperature = maxTemperature
	}

	if out.MaxTokens <= 0 {
		out.MaxTokens = defaultTokens
	}
	if out.MaxTokens > maxTextTokens {
		out.MaxTokens = maxTextTokens
	}

	if contentType == models.ContentImage {
		out.Width = clampDim(out.Width)
		out.Height = clampDim(out.Height)
	} else {
		out.Width = 0
		out.Height = 0
	}

	out.Topic = strings.ToLower(strings.TrimSpace(out.Topic))
	if out.Difficulty == "" {
		out.Difficulty = models.DifficultyBeginner
	}
	return out
}

func clampDim(d int) int {
	if d <= 0 {
		return defaultImageDim
	}
	if d > maxImageDim {
		return maxImageDim
	}
	return d
}

// Fingerprint derives the deterministic cache/dedup key for a request.
// Callers pass raw inputs; normalization happens here so every path that
// fingerprints agrees on the result.
func Fingerprint(contentType models.ContentType, prompt string, opts models.GenerationOptions) models.Fingerprint {
	norm := Options(contentType, opts)
	return models.Fingerprint{
		ContentType: contentType,
		Prompt:      Prompt(contentType, prompt),
		Params:      encodeParams(norm),
	}
}

// encodeParams renders options as sorted k=v pairs joined by "|" so field
// ordering can never change the fingerprint.
func encodeParams(opts models.GenerationOptions) string {
	pairs := []string{
		fmt.Sprintf("difficulty=%s", opts.Difficulty),
		fmt.Sprintf("maxtokens=%d", opts.MaxTokens),
		fmt.Sprintf("temp=%.2f", opts.Temperature),
	}
	if opts.Topic != "" {
		pairs = append(pairs, fmt.Sprintf("topic=%s", opts.Topic))
	}
	if opts.Width > 0 {
		pairs = append(pairs, fmt.Sprintf("size=%dx%d", opts.Width, opts.Height))
	}
	sort.Strings(pairs)
	return strings.Join(pairs, "|")
}

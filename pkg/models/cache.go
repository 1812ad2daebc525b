package models

import (
	"strings"
	"time"
)

// CacheStats reports cache performance metrics across both tiers.
type CacheStats struct {
	Entries           int64         `json:"entries"`
	PersistentEntries int64         `json:"persistent_entries"`
	Hits              int64         `json:"hits"`
	Misses            int64         `json:"misses"`
	Evictions         int64         `json:"evictions"`
	HitRate           float64       `json:"hit_rate"`
	AvgGenerationTime time.Duration `json:"avg_generation_time"`
}

// CacheFilter is a structured predicate over fingerprint fields used for
// partial invalidation.
type CacheFilter struct {
	ContentType    ContentType `json:"content_type,omitempty"`
	PromptContains string      `json:"prompt_contains,omitempty"`
	ParamsContains string      `json:"params_contains,omitempty"`
}

// Matches reports whether a fingerprint satisfies every set field.
func (f CacheFilter) Matches(fp Fingerprint) bool {
	if f.ContentType != "" && fp.ContentType != f.ContentType {
		return false
	}
	if f.PromptContains != "" && !strings.Contains(fp.Prompt, f.PromptContains) {
		return false
	}
	if f.ParamsContains != "" && !strings.Contains(fp.Params, f.ParamsContains) {
		return false
	}
	return true
}

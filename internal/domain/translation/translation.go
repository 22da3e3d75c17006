// Package translation holds the result of translating one request and the
// log record the pattern miner learns from.
package translation

import "time"

// Source tells where a compiled query came from.
type Source string

// Translation sources.
const (
	SourceCache    Source = "cache"
	SourceRule     Source = "rule"
	SourcePipeline Source = "pipeline"
	SourceFallback Source = "fallback"
)

// Result is a translated request.
type Result struct {
	Query           string   `json:"query"`
	NormalizedQuery string   `json:"normalizedQuery"`
	Compiled        string   `json:"compiled"`
	Explanation     string   `json:"explanation"`
	Confidence      float64  `json:"confidence"`
	Source          Source   `json:"source"`
	Cached          bool     `json:"cached"`
	Warnings        []string `json:"warnings,omitempty"`
}

// LogEntry records one successful translation for later mining.
type LogEntry struct {
	ID         string
	Query      string
	Normalized string
	Compiled   string
	Confidence float64
	Source     Source
	CreatedAt  time.Time
}

// Package compare fans one prompt out to every enabled backend, diagnoses
// each draft, drives the bounded repair pass, and merges the final
// candidates into one deterministically ordered result set.
package compare

import (
	"grounds/internal/backend"
	"grounds/internal/report"
)

// Request is one fan-out job.
type Request struct {
	Prompt      string  `json:"prompt"`
	System      string  `json:"system,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`

	// MaxTokens overrides the per-backend draft ceiling when positive.
	MaxTokens int `json:"max_tokens,omitempty"`

	// Backends restricts the fan-out to the named backend ids. Empty means
	// every enabled backend.
	Backends []string `json:"backends,omitempty"`
}

// Candidate is the final outcome for one backend: either a diagnosed text
// or a terminal failure. Exactly one Candidate per attempted backend
// appears in the result set.
type Candidate struct {
	BackendID string `json:"backend_id"`
	ModelID   string `json:"model_id,omitempty"`

	RawText        string `json:"raw_text,omitempty"`
	NormalizedText string `json:"normalized_text,omitempty"`

	Diagnostics *report.Diagnostics `json:"diagnostics,omitempty"`
	Score       *report.ScoreSignal `json:"score,omitempty"`

	LatencyMs    int64          `json:"latency_ms,omitempty"`
	FinishReason string         `json:"finish_reason,omitempty"`
	Usage        *backend.Usage `json:"usage,omitempty"`

	OK        bool   `json:"ok"`
	Error     string `json:"error,omitempty"`
	Repaired  bool   `json:"repaired"`
	Continued bool   `json:"continued"`
}

// Result is the merged outcome of one fan-out, sorted by backend id.
type Result struct {
	RequestID  string      `json:"request_id"`
	Candidates []Candidate `json:"candidates"`
	ElapsedMs  int64       `json:"elapsed_ms"`
}

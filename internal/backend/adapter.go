// Package backend wraps the text-generation providers behind one adapter
// contract and a shared retry/fallback policy. Raw provider schemas never
// leave this package; every adapter produces the same Result shape and
// surfaces failures as classified CallErrors.
package backend

import (
	"context"
	"fmt"
)

// Request is one generation call. MaxTokens is the output-token ceiling;
// the retry policy lowers it on a transient-overload retry.
type Request struct {
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int
	Model       string
}

// Usage is the token accounting reported by a backend, when available.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Result is the normalized outcome of one successful backend call.
type Result struct {
	Provider     string `json:"provider"`
	Model        string `json:"model"`
	Text         string `json:"text"`
	LatencyMs    int64  `json:"latency_ms"`
	FinishReason string `json:"finish_reason,omitempty"`
	Usage        *Usage `json:"usage,omitempty"`
}

// Adapter executes a single call against one provider with one concrete
// model. It performs no retries; chain traversal is the Caller's job.
type Adapter interface {
	ID() string
	Run(ctx context.Context, req Request) (*Result, error)
}

// CallError is a failed backend call with its classification attached, so
// the retry policy can pick the next action without re-parsing error text.
type CallError struct {
	Backend string
	Model   string
	Status  int
	Class   Classification
	Body    string
	Err     error
}

func (e *CallError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s call failed (model=%s): %v", e.Backend, e.Model, e.Err)
	}
	return fmt.Sprintf("%s call failed (model=%s, status=%d, class=%s): %s",
		e.Backend, e.Model, e.Status, e.Class, truncateBody(e.Body))
}

func (e *CallError) Unwrap() error { return e.Err }

func truncateBody(body string) string {
	const max = 240
	if len(body) <= max {
		return body
	}
	return body[:max] + "..."
}

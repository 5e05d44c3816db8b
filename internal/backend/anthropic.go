package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"grounds/internal/config"
	"grounds/internal/logging"
)

// AnthropicAdapter calls the Anthropic messages API.
type AnthropicAdapter struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewAnthropicAdapter creates the adapter from config.
func NewAnthropicAdapter(cfg config.BackendConfig) *AnthropicAdapter {
	return &AnthropicAdapter{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.TimeoutDuration(),
		},
	}
}

func (a *AnthropicAdapter) ID() string { return "anthropic" }

type anthropicRequest struct {
	Model       string        `json:"model"`
	MaxTokens   int           `json:"max_tokens"`
	System      string        `json:"system,omitempty"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Run sends one messages call.
func (a *AnthropicAdapter) Run(ctx context.Context, req Request) (*Result, error) {
	if a.apiKey == "" {
		return nil, &CallError{Backend: a.ID(), Model: req.Model, Class: ClassUnknown,
			Err: fmt.Errorf("API key not configured")}
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 2048
	}
	body := anthropicRequest{
		Model:     req.Model,
		MaxTokens: maxTokens,
		System:    req.System,
		Messages: []chatMessage{
			{Role: "user", Content: req.Prompt},
		},
		Temperature: req.Temperature,
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := a.baseURL + "/messages"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", a.apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	start := time.Now()
	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return nil, &CallError{Backend: a.ID(), Model: req.Model, Class: ClassUnknown,
			Err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &CallError{Backend: a.ID(), Model: req.Model, Class: ClassUnknown,
			Err: fmt.Errorf("failed to read response: %w", err)}
	}
	latency := time.Since(start).Milliseconds()

	if resp.StatusCode != http.StatusOK {
		return nil, &CallError{
			Backend: a.ID(),
			Model:   req.Model,
			Status:  resp.StatusCode,
			Class:   Classify(resp.StatusCode, string(respBody)),
			Body:    string(respBody),
		}
	}

	var ar anthropicResponse
	if err := json.Unmarshal(respBody, &ar); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if ar.Error != nil {
		return nil, &CallError{
			Backend: a.ID(),
			Model:   req.Model,
			Status:  resp.StatusCode,
			Class:   Classify(resp.StatusCode, ar.Error.Message),
			Body:    ar.Error.Message,
		}
	}

	var text strings.Builder
	for _, block := range ar.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	logging.APIDebug("anthropic: %s responded in %dms (%d out tokens)",
		req.Model, latency, ar.Usage.OutputTokens)

	return &Result{
		Provider:     a.ID(),
		Model:        req.Model,
		Text:         strings.TrimSpace(text.String()),
		LatencyMs:    latency,
		FinishReason: ar.StopReason,
		Usage: &Usage{
			PromptTokens:     ar.Usage.InputTokens,
			CompletionTokens: ar.Usage.OutputTokens,
			TotalTokens:      ar.Usage.InputTokens + ar.Usage.OutputTokens,
		},
	}, nil
}

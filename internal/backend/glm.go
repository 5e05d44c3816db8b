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

// GLMAdapter calls the Z.AI GLM chat completions API (OpenAI-compatible).
type GLMAdapter struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewGLMAdapter creates the adapter from config.
func NewGLMAdapter(cfg config.BackendConfig) *GLMAdapter {
	return &GLMAdapter{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.TimeoutDuration(),
		},
	}
}

func (a *GLMAdapter) ID() string { return "glm" }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type glmRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Stream      bool          `json:"stream"`
}

type glmResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Run sends one chat completion call.
func (a *GLMAdapter) Run(ctx context.Context, req Request) (*Result, error) {
	if a.apiKey == "" {
		return nil, &CallError{Backend: a.ID(), Model: req.Model, Class: ClassUnknown,
			Err: fmt.Errorf("API key not configured")}
	}

	messages := make([]chatMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.Prompt})

	body := glmRequest{
		Model:       req.Model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Stream:      false,
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := a.baseURL + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+a.apiKey)

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

	var gr glmResponse
	if err := json.Unmarshal(respBody, &gr); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if gr.Error != nil {
		return nil, &CallError{
			Backend: a.ID(),
			Model:   req.Model,
			Status:  resp.StatusCode,
			Class:   Classify(resp.StatusCode, gr.Error.Message),
			Body:    gr.Error.Message,
		}
	}
	if len(gr.Choices) == 0 {
		return nil, fmt.Errorf("no choices returned")
	}

	logging.APIDebug("glm: %s responded in %dms (%d tokens)",
		req.Model, latency, gr.Usage.TotalTokens)

	return &Result{
		Provider:     a.ID(),
		Model:        req.Model,
		Text:         strings.TrimSpace(gr.Choices[0].Message.Content),
		LatencyMs:    latency,
		FinishReason: gr.Choices[0].FinishReason,
		Usage: &Usage{
			PromptTokens:     gr.Usage.PromptTokens,
			CompletionTokens: gr.Usage.CompletionTokens,
			TotalTokens:      gr.Usage.TotalTokens,
		},
	}, nil
}

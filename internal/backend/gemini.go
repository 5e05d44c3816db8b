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

// GeminiAdapter calls the Google Generative Language REST API.
type GeminiAdapter struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewGeminiAdapter creates the adapter from config.
func NewGeminiAdapter(cfg config.BackendConfig) *GeminiAdapter {
	return &GeminiAdapter{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.TimeoutDuration(),
		},
	}
}

func (a *GeminiAdapter) ID() string { return "gemini" }

// geminiContent represents content in the request.
type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text,omitempty"`
}

// geminiGenerationConfig represents generation parameters.
type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type geminiRequest struct {
	Contents          []geminiContent        `json:"contents"`
	SystemInstruction *geminiContent         `json:"systemInstruction,omitempty"`
	GenerationConfig  geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
			Role  string       `json:"role"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

// Run sends one generateContent call.
func (a *GeminiAdapter) Run(ctx context.Context, req Request) (*Result, error) {
	if a.apiKey == "" {
		return nil, &CallError{Backend: a.ID(), Model: req.Model, Class: ClassUnknown,
			Err: fmt.Errorf("API key not configured")}
	}

	body := geminiRequest{
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: req.Prompt}}},
		},
		GenerationConfig: geminiGenerationConfig{
			Temperature:     req.Temperature,
			MaxOutputTokens: req.MaxTokens,
		},
	}
	if req.System != "" {
		body.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: req.System}}}
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", a.baseURL, req.Model, a.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

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

	var gr geminiResponse
	if err := json.Unmarshal(respBody, &gr); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if gr.Error != nil {
		return nil, &CallError{
			Backend: a.ID(),
			Model:   req.Model,
			Status:  gr.Error.Code,
			Class:   Classify(gr.Error.Code, gr.Error.Message),
			Body:    gr.Error.Message,
		}
	}
	if len(gr.Candidates) == 0 {
		return nil, fmt.Errorf("no candidates returned")
	}

	var text strings.Builder
	for _, part := range gr.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}

	logging.APIDebug("gemini: %s responded in %dms (%d tokens)",
		req.Model, latency, gr.UsageMetadata.TotalTokenCount)

	return &Result{
		Provider:     a.ID(),
		Model:        req.Model,
		Text:         strings.TrimSpace(text.String()),
		LatencyMs:    latency,
		FinishReason: gr.Candidates[0].FinishReason,
		Usage: &Usage{
			PromptTokens:     gr.UsageMetadata.PromptTokenCount,
			CompletionTokens: gr.UsageMetadata.CandidatesTokenCount,
			TotalTokens:      gr.UsageMetadata.TotalTokenCount,
		},
	}, nil
}

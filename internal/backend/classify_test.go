package backend

import (
	"strings"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   Classification
	}{
		{"payment required", 402, "payment required", ClassHardQuota},
		{"bare 429", 429, `{"error": {"message": "Too many requests"}}`, ClassHardQuota},
		{"429 with overload wording", 429, "The model is overloaded, try again later", ClassTransientOverload},
		{"429 overload plus quota", 429, "overloaded and quota exceeded for plan limit", ClassHardQuota},
		{"500", 500, "internal error", ClassTransientOverload},
		{"503", 503, "service temporarily unavailable", ClassTransientOverload},
		{"404 model", 404, "model gemini-9.9 not found", ClassModelMismatch},
		{"400 system instruction", 400, `Invalid JSON payload: unknown field "system_instruction"`, ClassSystemInstructionRejected},
		{"400 plain", 400, "bad request", ClassUnknown},
		{"200 quota wording", 200, "insufficient balance on account", ClassHardQuota},
		{"200 mismatch wording", 200, "the model glm-9 is not supported", ClassModelMismatch},
		{"no signal", 418, "short and stout", ClassUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.status, tt.body); got != tt.want {
				t.Errorf("Classify(%d, %q) = %s, want %s", tt.status, tt.body, got, tt.want)
			}
		})
	}
}

func TestCallErrorFormatting(t *testing.T) {
	e := &CallError{Backend: "gemini", Model: "gemini-2.5-flash", Status: 429,
		Class: ClassHardQuota, Body: "quota exceeded"}
	msg := e.Error()
	for _, want := range []string{"gemini", "gemini-2.5-flash", "429", "hard_quota_or_rate_limit"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error message %q missing %q", msg, want)
		}
	}
}

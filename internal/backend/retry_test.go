package backend

import (
	"context"
	"errors"
	"testing"
	"time"
)

// scriptedAdapter replays a fixed sequence of outcomes and records every
// request it receives.
type scriptedAdapter struct {
	id       string
	outcomes []outcome
	calls    []Request
}

type outcome struct {
	res *Result
	err error
}

func (a *scriptedAdapter) ID() string { return a.id }

func (a *scriptedAdapter) Run(ctx context.Context, req Request) (*Result, error) {
	a.calls = append(a.calls, req)
	if len(a.outcomes) == 0 {
		return nil, errors.New("script exhausted")
	}
	o := a.outcomes[0]
	a.outcomes = a.outcomes[1:]
	return o.res, o.err
}

func newTestCaller(a *scriptedAdapter, models ModelTable) *Caller {
	c := NewCaller(a.id, a, models)
	c.sleep = func(time.Duration) {}
	c.jitter = func() time.Duration { return 0 }
	return c
}

func testModels() ModelTable {
	return ModelTable{
		Aliases: map[string]string{"fast": "model-a"},
		Chains: map[string][]string{
			"model-a": {"model-a", "model-b", "model-c"},
		},
		Escalation: "model-c",
	}
}

func callErr(model string, status int, class Classification) error {
	return &CallError{Backend: "test", Model: model, Status: status, Class: class, Body: "x"}
}

func TestCallSuccessFirstModel(t *testing.T) {
	a := &scriptedAdapter{id: "test", outcomes: []outcome{
		{res: &Result{Provider: "test", Model: "model-a", Text: "ok"}},
	}}
	c := newTestCaller(a, testModels())

	res, err := c.Call(context.Background(), Request{Model: "fast", Prompt: "p"})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if res.Model != "model-a" || len(a.calls) != 1 {
		t.Errorf("model = %s, calls = %d, want model-a after 1 call", res.Model, len(a.calls))
	}
}

func TestCallHardQuotaAbortsChain(t *testing.T) {
	a := &scriptedAdapter{id: "test", outcomes: []outcome{
		{err: callErr("model-a", 429, ClassHardQuota)},
	}}
	c := newTestCaller(a, testModels())

	_, err := c.Call(context.Background(), Request{Model: "fast", Prompt: "p"})
	if err == nil {
		t.Fatal("expected error")
	}
	if len(a.calls) != 1 {
		t.Errorf("calls = %d, want 1 (no fallback after hard quota)", len(a.calls))
	}
	var ce *CallError
	if !errors.As(err, &ce) || ce.Class != ClassHardQuota {
		t.Errorf("error lost its classification: %v", err)
	}
}

func TestCallOverloadRetriesOnceWithSmallerCeiling(t *testing.T) {
	a := &scriptedAdapter{id: "test", outcomes: []outcome{
		{err: callErr("model-a", 503, ClassTransientOverload)},
		{res: &Result{Provider: "test", Model: "model-a", Text: "ok"}},
	}}
	c := newTestCaller(a, testModels())

	res, err := c.Call(context.Background(), Request{Model: "fast", Prompt: "p", MaxTokens: 1000})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if res.Text != "ok" {
		t.Errorf("text = %q", res.Text)
	}
	if len(a.calls) != 2 {
		t.Fatalf("calls = %d, want 2", len(a.calls))
	}
	if a.calls[0].MaxTokens != 1000 || a.calls[1].MaxTokens != 600 {
		t.Errorf("ceilings = %d, %d; want 1000 then 600",
			a.calls[0].MaxTokens, a.calls[1].MaxTokens)
	}
	if a.calls[1].Model != "model-a" {
		t.Errorf("retry went to %s, want the same model", a.calls[1].Model)
	}
}

func TestCallOverloadRetryThenFallback(t *testing.T) {
	a := &scriptedAdapter{id: "test", outcomes: []outcome{
		{err: callErr("model-a", 503, ClassTransientOverload)},
		{err: callErr("model-a", 503, ClassTransientOverload)},
		{res: &Result{Provider: "test", Model: "model-b", Text: "ok"}},
	}}
	c := newTestCaller(a, testModels())

	res, err := c.Call(context.Background(), Request{Model: "fast", Prompt: "p"})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if res.Model != "model-b" {
		t.Errorf("model = %s, want model-b after the single retry failed", res.Model)
	}
	if a.calls[2].Model != "model-b" {
		t.Errorf("third call went to %s, want model-b", a.calls[2].Model)
	}
}

func TestCallSystemInstructionMergedRetry(t *testing.T) {
	a := &scriptedAdapter{id: "test", outcomes: []outcome{
		{err: callErr("model-a", 400, ClassSystemInstructionRejected)},
		{res: &Result{Provider: "test", Model: "model-a", Text: "ok"}},
	}}
	c := newTestCaller(a, testModels())

	_, err := c.Call(context.Background(), Request{Model: "fast", System: "be brief", Prompt: "decide"})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if len(a.calls) != 2 {
		t.Fatalf("calls = %d, want 2", len(a.calls))
	}
	merged := a.calls[1]
	if merged.System != "" {
		t.Errorf("retry still carries a system field: %q", merged.System)
	}
	if merged.Prompt != "be brief\n\ndecide" {
		t.Errorf("merged prompt = %q", merged.Prompt)
	}
}

func TestCallMergedRetryHardQuotaAbortsChain(t *testing.T) {
	a := &scriptedAdapter{id: "test", outcomes: []outcome{
		{err: callErr("model-a", 400, ClassSystemInstructionRejected)},
		{err: callErr("model-a", 429, ClassHardQuota)},
		{res: &Result{Provider: "test", Model: "model-b", Text: "ok"}},
	}}
	c := newTestCaller(a, testModels())

	_, err := c.Call(context.Background(), Request{Model: "fast", System: "be brief", Prompt: "decide"})
	if err == nil {
		t.Fatal("expected error")
	}
	if len(a.calls) != 2 {
		t.Errorf("calls = %d, want 2 (no fallback after hard quota on the merged retry)", len(a.calls))
	}
	var ce *CallError
	if !errors.As(err, &ce) || ce.Class != ClassHardQuota {
		t.Errorf("error lost its classification: %v", err)
	}
}

func TestCallMismatchSkipsToNextModel(t *testing.T) {
	a := &scriptedAdapter{id: "test", outcomes: []outcome{
		{err: callErr("model-a", 404, ClassModelMismatch)},
		{res: &Result{Provider: "test", Model: "model-b", Text: "ok"}},
	}}
	c := newTestCaller(a, testModels())

	res, err := c.Call(context.Background(), Request{Model: "fast", Prompt: "p"})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if res.Model != "model-b" || len(a.calls) != 2 {
		t.Errorf("model = %s after %d calls, want model-b after 2", res.Model, len(a.calls))
	}
}

func TestCallChainExhausted(t *testing.T) {
	a := &scriptedAdapter{id: "test", outcomes: []outcome{
		{err: callErr("model-a", 404, ClassModelMismatch)},
		{err: callErr("model-b", 404, ClassModelMismatch)},
		{err: callErr("model-c", 404, ClassModelMismatch)},
	}}
	c := newTestCaller(a, testModels())

	_, err := c.Call(context.Background(), Request{Model: "fast", Prompt: "p"})
	if !errors.Is(err, ErrChainExhausted) {
		t.Errorf("want ErrChainExhausted, got %v", err)
	}
	if got := AttemptedModel(err); got != "model-c" {
		t.Errorf("AttemptedModel = %q, want model-c", got)
	}
}

func TestCallContextCancellation(t *testing.T) {
	a := &scriptedAdapter{id: "test", outcomes: []outcome{
		{err: callErr("model-a", 404, ClassModelMismatch)},
	}}
	c := newTestCaller(a, testModels())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Call(ctx, Request{Model: "fast", Prompt: "p"})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("want context.Canceled, got %v", err)
	}
	if len(a.calls) != 1 {
		t.Errorf("calls = %d, want 1 (no fallback after cancellation)", len(a.calls))
	}
}

func TestResolveUnknownModelSelfChain(t *testing.T) {
	id, chain := testModels().Resolve("custom-model")
	if id != "custom-model" || len(chain) != 1 || chain[0] != "custom-model" {
		t.Errorf("Resolve(custom-model) = %s %v", id, chain)
	}
	if got := testModels().EscalatedModel(); got != "model-c" {
		t.Errorf("EscalatedModel = %s, want model-c", got)
	}
}

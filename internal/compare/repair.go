package compare

import (
	"context"
	"fmt"
	"strings"

	"grounds/internal/backend"
	"grounds/internal/logging"
	"grounds/internal/report"
)

// lengthFinishReasons are the finish reasons that indicate the draft hit
// its output-token ceiling.
var lengthFinishReasons = map[string]bool{
	"MAX_TOKENS": true,
	"max_tokens": true,
	"length":     true,
	"LENGTH":     true,
}

// runBackend drives the full per-backend pipeline: draft call, diagnosis,
// optional continuation, at most one repair call, deterministic final
// selection. It always returns exactly one Candidate.
func (r *Runner) runBackend(ctx context.Context, u *unit, req Request) Candidate {
	draftReq := backend.Request{
		System:      req.System,
		Prompt:      req.Prompt,
		Temperature: req.Temperature,
		MaxTokens:   u.tuning.DraftMaxTokens,
		Model:       u.model,
	}
	if req.MaxTokens > 0 {
		draftReq.MaxTokens = req.MaxTokens
	}

	res, err := u.caller.Call(ctx, draftReq)
	if err != nil {
		logging.CompareWarn("%s: draft failed: %v", u.caller.BackendID(), err)
		return Candidate{
			BackendID: u.caller.BackendID(),
			ModelID:   backend.AttemptedModel(err),
			OK:        false,
			Error:     err.Error(),
		}
	}

	draft := r.buildCandidate(u, res)

	if cont := r.maybeContinue(ctx, u, req, res, draft); cont != nil {
		draft = *cont
	}

	if !r.needsRepair(draft) {
		return draft
	}

	repaired, err := r.runRepair(ctx, u, req, draft)
	if err != nil {
		// The draft stands; a failed repair call never discards it.
		logging.RepairWarn("%s: repair call failed, keeping draft: %v",
			u.caller.BackendID(), err)
		return draft
	}
	return r.selectFinal(draft, repaired)
}

// buildCandidate normalizes a raw result and attaches diagnostics plus the
// optional external score.
func (r *Runner) buildCandidate(u *unit, res *backend.Result) Candidate {
	normalized := report.Normalize(res.Text)
	diag := report.Diagnose(normalized, u.thresholds())

	c := Candidate{
		BackendID:      u.caller.BackendID(),
		ModelID:        res.Model,
		RawText:        res.Text,
		NormalizedText: normalized,
		Diagnostics:    &diag,
		LatencyMs:      res.LatencyMs,
		FinishReason:   res.FinishReason,
		Usage:          res.Usage,
		OK:             true,
	}
	if r.scorer != nil {
		sig := r.scorer.Score(normalized)
		c.Score = &sig
	}
	return c
}

// maybeContinue runs the single continuation pass: when the draft hit its
// token ceiling and lost its NEXT ACTIONS section, one extra call
// regenerates only that section and appends it. The draft text is never
// replaced; a failed continuation leaves the candidate untouched.
func (r *Runner) maybeContinue(ctx context.Context, u *unit, req Request, res *backend.Result, draft Candidate) *Candidate {
	if !lengthFinishReasons[res.FinishReason] {
		return nil
	}
	if !missingSection(draft.Diagnostics, report.SectionNextActions) {
		return nil
	}

	logging.Repair("%s: draft truncated without %s, requesting continuation",
		u.caller.BackendID(), report.SectionNextActions)

	contReq := backend.Request{
		Prompt:      continuationPrompt(req.Prompt, draft.NormalizedText, u.tuning.MinNextActions),
		Temperature: req.Temperature,
		MaxTokens:   u.tuning.DraftMaxTokens,
		Model:       res.Model,
	}
	contRes, err := u.caller.Call(ctx, contReq)
	if err != nil {
		logging.RepairWarn("%s: continuation failed: %v", u.caller.BackendID(), err)
		return nil
	}

	joined := res.Text + "\n\n" + string(report.SectionNextActions) + ":\n" + contRes.Text
	merged := r.buildCandidate(u, &backend.Result{
		Provider:     res.Provider,
		Model:        res.Model,
		Text:         joined,
		LatencyMs:    res.LatencyMs + contRes.LatencyMs,
		FinishReason: contRes.FinishReason,
		Usage:        sumUsage(res.Usage, contRes.Usage),
	})
	merged.Continued = true
	return &merged
}

// needsRepair decides whether the bounded repair pass fires: the structural
// predicate, or the external scorer demanding repair, or a low external
// score combined with suspected truncation.
func (r *Runner) needsRepair(c Candidate) bool {
	if c.Diagnostics.MustRepair {
		return true
	}
	if c.Score == nil {
		return false
	}
	if c.Score.MustRepair {
		return true
	}
	return c.Score.TruncationSuspected && c.Score.Score < r.policy.ScorerRepairThreshold
}

// runRepair issues the single repair call on the backend's escalation
// model with the larger token ceiling.
func (r *Runner) runRepair(ctx context.Context, u *unit, req Request, draft Candidate) (Candidate, error) {
	model := u.caller.Models().EscalatedModel()
	logging.Repair("%s: repairing with %s (draft score %d, %d headers missing)",
		u.caller.BackendID(), model,
		draft.Diagnostics.CompletenessScore, len(draft.Diagnostics.MissingHeaders))

	repairReq := backend.Request{
		System:      req.System,
		Prompt:      repairPrompt(req.Prompt, draft.NormalizedText, u.tuning.MinNextActions),
		Temperature: req.Temperature,
		MaxTokens:   u.tuning.RepairMaxTokens,
		Model:       model,
	}
	res, err := u.caller.Call(ctx, repairReq)
	if err != nil {
		return Candidate{}, err
	}

	repaired := r.buildCandidate(u, res)
	repaired.Repaired = true
	repaired.Continued = draft.Continued
	repaired.LatencyMs += draft.LatencyMs
	repaired.Usage = sumUsage(draft.Usage, res.Usage)
	return repaired, nil
}

// selectFinal picks between the draft and the repaired candidate. The
// regression guard runs first: a repair that drops the completeness score
// hard while losing headers is discarded outright. Otherwise the repaired
// candidate wins on any of: strictly fewer missing headers, strictly more
// valid action blocks, a clear score gain, or a clear length gain. Ties go
// to the draft.
func (r *Runner) selectFinal(draft, repaired Candidate) Candidate {
	dd, rd := draft.Diagnostics, repaired.Diagnostics

	if rd.CompletenessScore < dd.CompletenessScore-r.policy.RegressionGuard &&
		len(rd.MissingHeaders) > len(dd.MissingHeaders) {
		logging.Compare("%s: repair regressed (score %d -> %d), keeping draft",
			draft.BackendID, dd.CompletenessScore, rd.CompletenessScore)
		return draft
	}

	switch {
	case len(rd.MissingHeaders) < len(dd.MissingHeaders):
		return repaired
	case rd.BlockCounts[report.SectionNextActions] > dd.BlockCounts[report.SectionNextActions]:
		return repaired
	case rd.CompletenessScore >= dd.CompletenessScore+r.policy.ScoreDelta:
		return repaired
	case rd.LengthChars > dd.LengthChars+r.policy.LengthDelta:
		return repaired
	}
	return draft
}

func missingSection(d *report.Diagnostics, sec report.Section) bool {
	for _, m := range d.MissingHeaders {
		if m == sec {
			return true
		}
	}
	return false
}

func sumUsage(a, b *backend.Usage) *backend.Usage {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return &backend.Usage{
		PromptTokens:     a.PromptTokens + b.PromptTokens,
		CompletionTokens: a.CompletionTokens + b.CompletionTokens,
		TotalTokens:      a.TotalTokens + b.TotalTokens,
	}
}

// repairPrompt asks for a full regeneration that fixes every structural
// defect of the draft while keeping its substance.
func repairPrompt(task, draft string, minActions int) string {
	var b strings.Builder
	b.WriteString("Rewrite the draft report below so it fully satisfies the required structure.\n\n")
	b.WriteString("Original task:\n")
	b.WriteString(task)
	b.WriteString("\n\nRequirements:\n")
	for _, sec := range report.Sections {
		fmt.Fprintf(&b, "- Include a %s: section with substantive content.\n", sec)
	}
	fmt.Fprintf(&b, "- %s must contain at least %d items, each with Action, Owner and Timebox lines.\n",
		report.SectionNextActions, minActions)
	b.WriteString("- Remove duplicate blind spots and empty action lines.\n")
	b.WriteString("- Keep the draft's substance; fix structure, do not change conclusions.\n")
	b.WriteString("\nDraft:\n")
	b.WriteString(draft)
	return b.String()
}

// continuationPrompt asks for only the missing NEXT ACTIONS section.
func continuationPrompt(task, draft string, minActions int) string {
	var b strings.Builder
	b.WriteString("The report below was cut off before its ")
	b.WriteString(string(report.SectionNextActions))
	b.WriteString(" section. ")
	fmt.Fprintf(&b, "Write ONLY that section's content: at least %d items, each with Action, Owner and Timebox lines. ", minActions)
	b.WriteString("Do not repeat any other section.\n\n")
	b.WriteString("Original task:\n")
	b.WriteString(task)
	b.WriteString("\n\nReport so far:\n")
	b.WriteString(draft)
	return b.String()
}

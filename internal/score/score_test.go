package score

import (
	"strings"
	"testing"
)

const wellFormedReport = `BEST OPTION:
Launch the product in Q2 with a phased rollout.

RATIONALE:
- Market conditions are favorable
- Team capacity is available
- Timeline feasible

TOP RISKS:
- Competitor may launch first
- Budget could run over

ASSUMPTIONS TO VALIDATE:
- Customer demand estimates hold
- Supply chain stays stable

HALF-LIFE:
6 months - review quarterly

BLIND SPOTS:
- Competitor moves
- Regulatory changes

NEXT ACTIONS:
1. Get budget approval by Friday
2. Schedule kickoff meeting
3. Assign project lead
4. Create project charter
5. Set up tracking
6. Send stakeholder update`

func TestScoreWellFormedReport(t *testing.T) {
	engine := NewEngine(DefaultConfig())
	result := engine.Score(wellFormedReport)

	if result.Score < 80 {
		t.Errorf("score = %d, want >= 80 (notes: %v)", result.Score, result.Notes)
	}
	if result.MustRepair {
		t.Errorf("well-formed report flagged for repair: %+v", result)
	}
	if len(result.MissingHeaders) != 0 {
		t.Errorf("missing headers = %v, want none", result.MissingHeaders)
	}
	if result.NextActionsCount != 6 {
		t.Errorf("next actions = %d, want 6", result.NextActionsCount)
	}
	if result.FinishReasonHint != "OK" {
		t.Errorf("hint = %q, want OK", result.FinishReasonHint)
	}
}

func TestScoreDeterministic(t *testing.T) {
	engine := NewEngine(DefaultConfig())
	a := engine.Score(wellFormedReport)
	b := engine.Score(wellFormedReport)
	if a.Score != b.Score || a.MustRepair != b.MustRepair {
		t.Errorf("identical input scored differently: %+v vs %+v", a, b)
	}
}

func TestScoreMissingHeaderPenalty(t *testing.T) {
	engine := NewEngine(Config{EnableQualityMetrics: false})
	full := engine.Score(wellFormedReport)

	broken := strings.Replace(wellFormedReport, "BLIND SPOTS:", "OTHER THINGS:", 1)
	result := engine.Score(broken)

	if len(result.MissingHeaders) != 1 || result.MissingHeaders[0] != "BLIND SPOTS" {
		t.Errorf("missing = %v, want [BLIND SPOTS]", result.MissingHeaders)
	}
	if !result.MustRepair {
		t.Error("missing header must force repair")
	}
	if result.Score != full.Score-12 {
		t.Errorf("penalty = %d, want 12 per missing header", full.Score-result.Score)
	}
	if result.FinishReasonHint != "INCOMPLETE_STRUCTURE" {
		t.Errorf("hint = %q, want INCOMPLETE_STRUCTURE", result.FinishReasonHint)
	}
}

func TestScoreDuplicateAndEmptySections(t *testing.T) {
	engine := NewEngine(Config{EnableQualityMetrics: false})

	duped := wellFormedReport + "\n\nBLIND SPOTS:\n- Another spot"
	if r := engine.Score(duped); len(r.DuplicateHeaders) != 1 {
		t.Errorf("duplicate headers = %v, want [BLIND SPOTS]", r.DuplicateHeaders)
	}

	empty := strings.Replace(wellFormedReport,
		"HALF-LIFE:\n6 months - review quarterly", "HALF-LIFE:", 1)
	if r := engine.Score(empty); len(r.EmptySections) != 1 {
		t.Errorf("empty sections = %v, want [HALF-LIFE]", r.EmptySections)
	}
}

func TestScoreNextActionsDeficit(t *testing.T) {
	engine := NewEngine(Config{EnableQualityMetrics: false})
	full := engine.Score(wellFormedReport)

	idx := strings.Index(wellFormedReport, "4. Create project charter")
	short := wellFormedReport[:idx] + "4. Create project charter"
	result := engine.Score(short)

	if result.NextActionsCount != 4 {
		t.Fatalf("next actions = %d, want 4", result.NextActionsCount)
	}
	if result.NextActionsOK {
		t.Error("four actions against a floor of six must not be OK")
	}
	if !result.MustRepair {
		t.Error("action deficit must force repair")
	}
	// Deficit of 2: base 10 plus 3 per missing action.
	if got := full.Score - result.Score; got != 16 {
		t.Errorf("deficit penalty = %d, want 16", got)
	}
}

func TestScoreTruncationSuspected(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	truncated := wellFormedReport + "\n7. And then we..."
	result := engine.Score(truncated)
	if !result.TruncationSuspected {
		t.Error("trailing ellipsis must trigger the truncation heuristic")
	}
	if result.FinishReasonHint != "LIKELY_TRUNCATED" {
		t.Errorf("hint = %q, want LIKELY_TRUNCATED", result.FinishReasonHint)
	}

	if engine.Score("").FinishReasonHint != "LIKELY_TRUNCATED" {
		t.Error("empty input must count as truncated")
	}
}

func TestLooksTruncated(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"A complete sentence.", false},
		{"Trailing ellipsis…", true},
		{"Dangling item number\n1.", true},
		{"Ends with a colon:", true},
		{"Ends with open paren (", true},
		{"", true},
		{"Bold cut off **", true},
	}
	for _, tt := range tests {
		if got := looksTruncated(tt.text); got != tt.want {
			t.Errorf("looksTruncated(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestScoreScrambledDecoration(t *testing.T) {
	engine := NewEngine(DefaultConfig())
	decorated := strings.ReplaceAll(wellFormedReport, "BLIND SPOTS:", "## blind spots")
	result := engine.Score(decorated)
	for _, h := range result.MissingHeaders {
		if h == "BLIND SPOTS" {
			t.Error("markdown-decorated header was not recognized")
		}
	}
}

func TestSignalAdapter(t *testing.T) {
	engine := NewEngine(DefaultConfig())
	sig := engine.AsScorer().Score(wellFormedReport)
	if sig.MustRepair {
		t.Errorf("adapter signal flagged repair: %+v", sig)
	}
	if sig.Score != engine.Score(wellFormedReport).Score {
		t.Error("adapter signal score diverged from engine score")
	}
}

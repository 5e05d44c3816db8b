package report

import (
	"strings"
	"testing"
)

func TestNormalizeCanonicalizesHeaders(t *testing.T) {
	raw := strings.Join([]string{
		"## Best Option",
		"- Ship the pilot.",
		"**top risks**",
		"• Latency regressions.",
		"half life:",
		"- Six months.",
	}, "\n")

	got := Normalize(raw)

	for _, want := range []string{"BEST OPTION:", "TOP RISKS:", "HALF-LIFE:"} {
		if !strings.Contains(got, want) {
			t.Errorf("normalized text missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "•") {
		t.Errorf("unicode bullet survived normalization:\n%s", got)
	}
}

func TestNormalizeDropsRepeatedHeaders(t *testing.T) {
	raw := strings.Join([]string{
		"BLIND SPOTS:",
		"- Blind spot: Competitors.",
		"## Blind Spots",
		"- Blind spot: Regulation.",
	}, "\n")

	got := Normalize(raw)
	if n := strings.Count(got, "BLIND SPOTS:"); n != 1 {
		t.Errorf("want exactly one BLIND SPOTS heading, got %d:\n%s", n, got)
	}
	// Content under the repeated heading is kept.
	if !strings.Contains(got, "Regulation") {
		t.Errorf("content under the repeated heading was lost:\n%s", got)
	}
}

func TestNormalizeDedupsBulletsWithinSection(t *testing.T) {
	raw := strings.Join([]string{
		"TOP RISKS:",
		"- Vendor lock-in.",
		"* Vendor lock-in",
		"- Vendor Lock In",
		"RATIONALE:",
		"- Vendor lock-in.",
	}, "\n")

	got := Normalize(raw)
	if n := strings.Count(got, "Vendor"); n != 2 {
		t.Errorf("want one bullet per section, got %d occurrences:\n%s", n, got)
	}
}

func TestNormalizeBulletizesPlainParagraphs(t *testing.T) {
	raw := strings.Join([]string{
		"RATIONALE:",
		"The phased rollout reduces blast radius.",
		"It also keeps the legacy path available.",
	}, "\n")

	got := Normalize(raw)
	if !strings.Contains(got, "- The phased rollout reduces blast radius.") {
		t.Errorf("paragraph under heading was not bulletized:\n%s", got)
	}

	// With bullets anywhere in the document, paragraphs are left alone.
	raw2 := raw + "\nTOP RISKS:\n- Latency."
	got2 := Normalize(raw2)
	if strings.Contains(got2, "- The phased rollout") {
		t.Errorf("paragraph was bulletized despite existing bullets:\n%s", got2)
	}
}

func TestNormalizeStripsFencesAndSeparators(t *testing.T) {
	raw := "```\nBEST OPTION:\n- Ship it.\n---\nRATIONALE:\n- Cheap.\n```"
	got := Normalize(raw)
	if strings.Contains(got, "```") || strings.Contains(got, "---") {
		t.Errorf("fence or separator survived:\n%s", got)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		messyReport(),
		sampleReport(),
		"",
		"no headers at all, just prose\r\nwith windows endings",
	}
	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for input %.40q:\nonce:\n%s\ntwice:\n%s", in, once, twice)
		}
	}
}

func messyReport() string {
	return strings.Join([]string{
		"```markdown",
		"## Best Option",
		"**Adopt the phased rollout.**",
		"",
		"",
		"rationale:",
		"Lower blast radius than a big bang cutover.",
		"----",
		"TOP RISKS:",
		"• Pilot traffic may not represent global load.",
		"• Pilot traffic may not represent global load.",
		"## Blind Spots",
		"- Blind spot: Competitor moves.",
		"BLIND SPOTS:",
		"- Blind spot: Regulation.",
		"NEXT ACTIONS:",
		"1. Get budget approval",
		"```",
	}, "\n")
}

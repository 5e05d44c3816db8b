package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestScoreCommand(t *testing.T) {
	report := `BEST OPTION:
Launch in Q2.

RATIONALE:
- Market is ready

TOP RISKS:
- Budget overrun

ASSUMPTIONS TO VALIDATE:
- Demand holds

HALF-LIFE:
6 months

BLIND SPOTS:
- Competitors

NEXT ACTIONS:
1. Approve budget by Friday
2. Schedule kickoff meeting
3. Assign project lead
4. Create project charter
5. Set up weekly tracking
6. Send stakeholder update`

	path := filepath.Join(t.TempDir(), "report.txt")
	if err := os.WriteFile(path, []byte(report), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "score", path)
	if err != nil {
		t.Fatalf("score: %v\n%s", err, out)
	}

	var parsed struct {
		Score struct {
			Score      int  `json:"score"`
			MustRepair bool `json:"must_repair"`
		} `json:"score"`
	}
	if err := json.Unmarshal([]byte(out), &parsed); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if parsed.Score.Score < 80 || parsed.Score.MustRepair {
		t.Errorf("score = %d must_repair = %v for a compliant report",
			parsed.Score.Score, parsed.Score.MustRepair)
	}
}

func TestScoreCommandWithAnalyses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.txt")
	if err := os.WriteFile(path, []byte("BEST OPTION:\nShip it now."), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "score", path, "--monte-carlo", "--sensitivity", "--decay")
	if err != nil {
		t.Fatalf("score: %v\n%s", err, out)
	}
	for _, key := range []string{`"monte_carlo"`, `"sensitivity"`, `"decay"`} {
		if !strings.Contains(out, key) {
			t.Errorf("output missing %s section", key)
		}
	}
}

func TestCompareCommandRequiresPrompt(t *testing.T) {
	_, err := execute(t, "compare")
	if err == nil {
		t.Error("compare without --prompt must fail")
	}
}

package report

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseActions(t *testing.T) {
	lines := []string{
		"- Action: Get budget approval.",
		"  Owner: Dana",
		"  Timebox: 3 days",
		"- Action: Schedule the kickoff.",
		"  Owner: Lee",
		"- Action: ",
		"- Action: NEXT ACTIONS",
		"- Action: Assign the lead.",
		"  Owner: Dana",
		"  Owner: Sam",
		"  Timebox: 1 week",
	}

	got := ParseActions(lines)
	want := []ActionBlock{
		{Action: "Get budget approval.", Owner: "Dana", Timebox: "3 days"},
		{Action: "Schedule the kickoff.", Owner: "Lee"},
		{Action: "Assign the lead.", Owner: "Dana", Timebox: "1 week"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseActions mismatch (-want +got):\n%s", diff)
	}
}

func TestParseActionsLabelRequiresColon(t *testing.T) {
	got := ParseActions([]string{"- Actions speak louder than words."})
	if len(got) != 0 {
		t.Errorf("prose starting with the label word must not open a block, got %v", got)
	}
}

func TestParseBlindSpotsDedup(t *testing.T) {
	lines := []string{
		"- Blind spot: Competitor moves.",
		"  Question: Who watches announcements?",
		"- Blind spot: Competitor Moves",
		"  Question: A different question.",
		"- Blind spot: Regulation.",
	}

	got := ParseBlindSpots(lines)
	want := []BlindSpotBlock{
		{Spot: "Competitor moves.", Question: "Who watches announcements?"},
		{Spot: "Regulation."},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseBlindSpots mismatch (-want +got):\n%s", diff)
	}
}

func TestParseAssumptionsValidationFirstWins(t *testing.T) {
	lines := []string{
		"- Assumption: Traffic mix is stable.",
		"  Validation: Check dashboards.",
		"  Validation: Check dashboards again.",
		"- Assumption: Rollback is fast.",
	}

	got := ParseAssumptions(lines)
	want := []AssumptionBlock{
		{Assumption: "Traffic mix is stable.", Validation: "Check dashboards."},
		{Assumption: "Rollback is fast."},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseAssumptions mismatch (-want +got):\n%s", diff)
	}
}

func TestFieldValueNumberedAndCased(t *testing.T) {
	v, ok := fieldValue("3. ACTION: Ship it", "action")
	if !ok || v != "Ship it" {
		t.Errorf("fieldValue numbered = (%q, %v), want (\"Ship it\", true)", v, ok)
	}
	if _, ok := fieldValue("Ownership: nobody", "owner"); ok {
		t.Error("label must match as a whole word before the colon")
	}
}

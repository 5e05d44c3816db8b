package report

// Thresholds are the backend-specific structure floors. Tuned empirically
// per backend; they live in config, not here.
type Thresholds struct {
	MinNextActions int
	MinLengthChars int
}

// DefaultThresholds is used when a caller passes zero-valued thresholds.
var DefaultThresholds = Thresholds{
	MinNextActions: 6,
	MinLengthChars: 700,
}

// Diagnostics is the immutable structural assessment of one candidate text.
type Diagnostics struct {
	MissingHeaders    []Section       `json:"missing_headers,omitempty"`
	BlockCounts       map[Section]int `json:"block_counts"`
	ValidBlockCount   int             `json:"valid_block_count"`
	LengthChars       int             `json:"length_chars"`
	CompletenessScore int             `json:"completeness_score"`
	MustRepair        bool            `json:"must_repair"`
}

// ScoreSignal is the result of an optional pluggable external scorer.
type ScoreSignal struct {
	Score               int      `json:"score"`
	MustRepair          bool     `json:"must_repair"`
	MissingHeaders      []string `json:"missing_headers,omitempty"`
	NextActionsOK       bool     `json:"next_actions_ok"`
	TruncationSuspected bool     `json:"truncation_suspected"`
}

// Scorer scores normalized report text. Implementations may force repair
// even when the structural predicate alone would pass.
type Scorer interface {
	Score(text string) ScoreSignal
}

// Diagnose computes the full structural assessment of a (normalized) text.
func Diagnose(text string, th Thresholds) Diagnostics {
	if th.MinNextActions <= 0 {
		th.MinNextActions = DefaultThresholds.MinNextActions
	}
	if th.MinLengthChars <= 0 {
		th.MinLengthChars = DefaultThresholds.MinLengthChars
	}

	missing := FindMissingHeaders(text)
	actions := ParseActions(SliceSection(text, SectionNextActions))
	spots := ParseBlindSpots(SliceSection(text, SectionBlindSpots))
	assumptions := ParseAssumptions(SliceSection(text, SectionAssumptions))

	counts := map[Section]int{
		SectionNextActions: len(actions),
		SectionBlindSpots:  len(spots),
		SectionAssumptions: len(assumptions),
	}

	d := Diagnostics{
		MissingHeaders:  missing,
		BlockCounts:     counts,
		ValidBlockCount: len(actions) + len(spots) + len(assumptions),
		LengthChars:     len(text),
	}
	d.CompletenessScore = completenessScore(d, actions, th)
	d.MustRepair = len(missing) > 0 ||
		len(actions) < th.MinNextActions ||
		d.LengthChars < th.MinLengthChars
	return d
}

// IsStructureBroken is the primary repair-trigger predicate: any required
// header missing, too few valid NEXT ACTIONS blocks, or total length below
// the backend's floor.
func IsStructureBroken(text string, th Thresholds) bool {
	return Diagnose(text, th).MustRepair
}

// completenessScore maps diagnostics onto 0..100. Monotonic: adding valid
// content never lowers the score. Weights: headers 40, action count 25,
// action detail (owners/timeboxes) 10, blind spots 5, assumptions 5,
// length 15.
func completenessScore(d Diagnostics, actions []ActionBlock, th Thresholds) int {
	present := len(Sections) - len(d.MissingHeaders)
	score := present * 40 / len(Sections)

	score += clampRatio(d.BlockCounts[SectionNextActions], th.MinNextActions, 25)

	details := 0
	for _, a := range actions {
		if a.Owner != "" {
			details++
		}
		if a.Timebox != "" {
			details++
		}
	}
	score += clampRatio(details, th.MinNextActions, 10)

	score += clampRatio(d.BlockCounts[SectionBlindSpots], 3, 5)
	score += clampRatio(d.BlockCounts[SectionAssumptions], 4, 5)
	score += clampRatio(d.LengthChars, th.MinLengthChars, 15)

	if score > 100 {
		score = 100
	}
	return score
}

// clampRatio returns weight*min(n,floor)/floor.
func clampRatio(n, floor, weight int) int {
	if floor <= 0 {
		return weight
	}
	if n > floor {
		n = floor
	}
	if n < 0 {
		n = 0
	}
	return n * weight / floor
}

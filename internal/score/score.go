// Package score is the deterministic validator/scorer for the decision
// report template. It starts every report at 100 and subtracts fixed
// penalties for structural defects, so identical input always yields the
// identical score. It doubles as the engine's default pluggable scorer.
package score

import (
	"fmt"
	"regexp"
	"strings"

	"grounds/internal/report"
)

// Result is the full scoring outcome for one report text.
type Result struct {
	Score            int    `json:"score"`
	MustRepair       bool   `json:"must_repair"`
	FinishReasonHint string `json:"finish_reason_hint"`

	MissingHeaders   []string `json:"missing_headers"`
	EmptySections    []string `json:"empty_sections"`
	DuplicateHeaders []string `json:"duplicate_headers"`

	NextActionsCount int  `json:"next_actions_count"`
	NextActionsOK    bool `json:"next_actions_ok"`

	TruncationSuspected bool     `json:"truncation_suspected"`
	Notes               []string `json:"notes"`

	QualityMetrics     QualityMetrics     `json:"quality_metrics"`
	ConfidenceInterval ConfidenceInterval `json:"confidence_interval"`
}

// Config controls scoring.
type Config struct {
	RequiredHeaders      []string
	MinNextActions       int
	EnableQualityMetrics bool
}

// DefaultConfig returns the scoring defaults used in production.
func DefaultConfig() Config {
	headers := make([]string, 0, len(report.Sections))
	for _, sec := range report.Sections {
		headers = append(headers, string(sec))
	}
	return Config{
		RequiredHeaders:      headers,
		MinNextActions:       6,
		EnableQualityMetrics: true,
	}
}

// Engine scores report texts with a fixed config.
type Engine struct {
	cfg Config
}

// NewEngine creates a scoring engine. A zero-valued config is replaced by
// DefaultConfig.
func NewEngine(cfg Config) *Engine {
	if len(cfg.RequiredHeaders) == 0 {
		def := DefaultConfig()
		def.EnableQualityMetrics = cfg.EnableQualityMetrics
		if cfg.MinNextActions > 0 {
			def.MinNextActions = cfg.MinNextActions
		}
		cfg = def
	}
	return &Engine{cfg: cfg}
}

// Score evaluates one report text.
func (e *Engine) Score(input string) Result {
	cleaned := cleanModelText(input)
	norm := normalizeForHeaders(cleaned)

	missing, dupes, empty := evaluateHeaders(norm, e.cfg.RequiredHeaders)

	nextActions := countNextActions(norm)
	nextActionsOK := nextActions >= e.cfg.MinNextActions

	truncated := looksTruncated(cleaned)

	scoreVal := 100
	var notes []string

	if len(missing) > 0 {
		p := len(missing) * 12
		scoreVal -= p
		notes = append(notes, fmt.Sprintf("Missing headers penalty: -%d", p))
	}
	if len(empty) > 0 {
		p := len(empty) * 8
		scoreVal -= p
		notes = append(notes, fmt.Sprintf("Empty sections penalty: -%d", p))
	}
	if len(dupes) > 0 {
		p := len(dupes) * 6
		scoreVal -= p
		notes = append(notes, fmt.Sprintf("Duplicate headers penalty: -%d", p))
	}
	if !nextActionsOK {
		deficit := e.cfg.MinNextActions - nextActions
		if deficit < 0 {
			deficit = 0
		}
		p := 10 + deficit*3
		scoreVal -= p
		notes = append(notes, fmt.Sprintf("NEXT ACTIONS count too low (%d), penalty: -%d", nextActions, p))
	}
	if truncated {
		scoreVal -= 12
		notes = append(notes, "Truncation suspected penalty: -12")
	}

	if scoreVal < 0 {
		scoreVal = 0
	}
	if scoreVal > 100 {
		scoreVal = 100
	}

	var quality QualityMetrics
	if e.cfg.EnableQualityMetrics {
		quality = calculateQualityMetrics(cleaned)
	}
	interval := confidenceInterval(float64(scoreVal), quality)

	mustRepair := len(missing) > 0 || !nextActionsOK || (truncated && scoreVal < 92)

	hint := "OK"
	if truncated {
		hint = "LIKELY_TRUNCATED"
	} else if mustRepair {
		hint = "INCOMPLETE_STRUCTURE"
	}

	return Result{
		Score:               scoreVal,
		MustRepair:          mustRepair,
		FinishReasonHint:    hint,
		MissingHeaders:      missing,
		EmptySections:       empty,
		DuplicateHeaders:    dupes,
		NextActionsCount:    nextActions,
		NextActionsOK:       nextActionsOK,
		TruncationSuspected: truncated,
		Notes:               notes,
		QualityMetrics:      quality,
		ConfidenceInterval:  interval,
	}
}

// Signal adapts a Result to the pluggable scorer contract.
func (r Result) Signal() report.ScoreSignal {
	return report.ScoreSignal{
		Score:               r.Score,
		MustRepair:          r.MustRepair,
		MissingHeaders:      r.MissingHeaders,
		NextActionsOK:       r.NextActionsOK,
		TruncationSuspected: r.TruncationSuspected,
	}
}

var _ report.Scorer = scorerAdapter{}

type scorerAdapter struct{ engine *Engine }

func (s scorerAdapter) Score(text string) report.ScoreSignal {
	return s.engine.Score(text).Signal()
}

// AsScorer exposes the engine through the report.Scorer interface.
func (e *Engine) AsScorer() report.Scorer {
	return scorerAdapter{engine: e}
}

// ============================================================================
// TEXT PROCESSING
// ============================================================================

var (
	reMarkdownHead = regexp.MustCompile(`(?m)^\s{0,3}#{1,6}\s+`)
	reSeparator    = regexp.MustCompile(`(?m)^\s*[-=_]{3,}\s*$`)
	reColonHeader  = regexp.MustCompile(`(?m)^\s*([A-Z][A-Z0-9 \-]{2,})\s*:\s*$`)
	reBulletItem   = regexp.MustCompile(`(?m)^\s*[-*]\s+\S+`)
	reNumItem      = regexp.MustCompile(`(?m)^\s*\d{1,2}[.)]\s+\S+`)
	reWord         = regexp.MustCompile(`[A-Z0-9]{2,}`)
)

func cleanModelText(s string) string {
	out := strings.ReplaceAll(s, "\r\n", "\n")
	out = strings.ReplaceAll(out, "```", "")
	out = reMarkdownHead.ReplaceAllString(out, "")
	out = reSeparator.ReplaceAllString(out, "")

	lines := strings.Split(out, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func normalizeForHeaders(s string) string {
	out := strings.ReplaceAll(s, "•", "- ")
	out = strings.ReplaceAll(out, "–", "- ")
	out = strings.ReplaceAll(out, "—", "- ")
	out = reColonHeader.ReplaceAllString(out, "$1:")
	return strings.ToUpper(out)
}

func headerPattern(header string) *regexp.Regexp {
	return regexp.MustCompile(`(?m)^\s*` + regexp.QuoteMeta(header) + `\s*:?\s*$`)
}

func anyHeaderPattern(headers []string) *regexp.Regexp {
	quoted := make([]string, 0, len(headers))
	for _, h := range headers {
		quoted = append(quoted, regexp.QuoteMeta(h))
	}
	return regexp.MustCompile(`(?m)^\s*(` + strings.Join(quoted, "|") + `)\s*:?\s*$`)
}

func evaluateHeaders(normalizedUpper string, required []string) (missing, dupes, empty []string) {
	missing = []string{}
	dupes = []string{}
	empty = []string{}

	nextHeader := anyHeaderPattern(required)

	for _, h := range required {
		matches := headerPattern(h).FindAllStringIndex(normalizedUpper, -1)
		if len(matches) == 0 {
			missing = append(missing, h)
			continue
		}
		if len(matches) > 1 {
			dupes = append(dupes, h)
		}

		after := normalizedUpper[matches[0][1]:]
		end := len(after)
		if loc := nextHeader.FindStringIndex(after); loc != nil {
			end = loc[0]
		}
		section := strings.TrimSpace(after[:end])

		if section == "" || section == ":" {
			empty = append(empty, h)
			continue
		}

		hasListItem := reBulletItem.MatchString(section) || reNumItem.MatchString(section)
		words := len(reWord.FindAllString(section, -1))
		if !hasListItem && words < 1 {
			empty = append(empty, h)
		}
	}
	return missing, dupes, empty
}

func countNextActions(normalizedUpper string) int {
	header := headerPattern("NEXT ACTIONS")
	loc := header.FindStringIndex(normalizedUpper)
	if loc == nil {
		return 0
	}
	after := normalizedUpper[loc[1]:]

	stop := regexp.MustCompile(`(?m)^\s*(BEST OPTION|RATIONALE|TOP RISKS|ASSUMPTIONS TO VALIDATE|ASSUMPTIONS|HALF-LIFE|BLIND SPOTS)\s*:?\s*$`)
	end := len(after)
	if sloc := stop.FindStringIndex(after); sloc != nil {
		end = sloc[0]
	}
	section := strings.TrimSpace(after[:end])
	if section == "" {
		return 0
	}

	bullets := len(reBulletItem.FindAllString(section, -1))
	nums := len(reNumItem.FindAllString(section, -1))
	if nums > bullets {
		return nums
	}
	return bullets
}

// looksTruncated applies the truncation heuristic: empty output, a dangling
// markdown or list fragment at the end, an unfinished clause, or a trailing
// stub line in a long report.
func looksTruncated(cleaned string) bool {
	t := strings.TrimRight(cleaned, " \t\n")
	if t == "" {
		return true
	}

	badEndings := []string{"...", "…", "```", "**", "__", "- ", "* ", "1.", "2.", "3."}
	for _, e := range badEndings {
		if strings.HasSuffix(t, e) {
			return true
		}
	}
	switch t[len(t)-1] {
	case '(', ':', ',':
		return true
	}

	lines := strings.Split(t, "\n")
	if len(lines) >= 10 {
		last := strings.TrimSpace(lines[len(lines)-1])
		if len(last) <= 3 {
			return true
		}
	}
	return false
}

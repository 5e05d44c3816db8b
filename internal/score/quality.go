package score

import (
	"regexp"
	"strings"
)

// QualityMetrics are the soft NLP-style measures layered on top of the
// structural score. They never affect MustRepair; they only widen or narrow
// the confidence interval.
type QualityMetrics struct {
	ClarityScore       float64 `json:"clarity_score"`
	SpecificityScore   float64 `json:"specificity_score"`
	ActionabilityScore float64 `json:"actionability_score"`
	CompletenessScore  float64 `json:"completeness_score"`
	OverallQuality     float64 `json:"overall_quality"`
}

// ConfidenceInterval bounds the structural score given the quality signal.
type ConfidenceInterval struct {
	LowerBound      float64 `json:"lower_bound"`
	UpperBound      float64 `json:"upper_bound"`
	ConfidenceLevel float64 `json:"confidence_level"`
}

func calculateQualityMetrics(text string) QualityMetrics {
	clarity := clarityScore(text)
	specificity := specificityScore(text)
	actionability := actionabilityScore(text)
	completeness := keySectionCoverage(text)

	overall := clarity*0.25 + specificity*0.30 + actionability*0.25 + completeness*0.20

	return QualityMetrics{
		ClarityScore:       clarity,
		SpecificityScore:   specificity,
		ActionabilityScore: actionability,
		CompletenessScore:  completeness,
		OverallQuality:     overall,
	}
}

func clarityScore(text string) float64 {
	words := float64(len(strings.Fields(text)))
	if words == 0 {
		return 0
	}

	sentences := float64(strings.Count(text, ".") + strings.Count(text, "!") + strings.Count(text, "?"))
	if sentences < 1 {
		sentences = 1
	}
	avgLen := words / sentences

	var lengthScore float64
	switch {
	case avgLen < 8:
		lengthScore = 0.6 + (avgLen/8)*0.2
	case avgLen <= 20:
		lengthScore = 0.8 + ((20-avgLen)/12)*0.2
	default:
		over := (avgLen - 20) / 30
		if over > 0.4 {
			over = 0.4
		}
		lengthScore = 0.8 - over
	}

	if strings.Contains(text, "- ") || strings.Contains(text, "* ") || strings.Contains(text, "• ") {
		lengthScore += 0.1
	}
	if lengthScore > 1 {
		lengthScore = 1
	}
	return lengthScore
}

var vagueWords = []string{
	"some", "many", "few", "various", "several", "often", "sometimes",
	"might", "could", "possibly", "perhaps", "generally", "usually",
	"significant", "considerable", "substantial",
}

var specificPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\d+%`),
	regexp.MustCompile(`\$[\d,]+`),
	regexp.MustCompile(`\d+ (days?|weeks?|months?|years?)`),
	regexp.MustCompile(`\d{4}-\d{2}-\d{2}`),
	regexp.MustCompile(`Q[1-4] \d{4}`),
	regexp.MustCompile(`\d+:\d+`),
}

func specificityScore(text string) float64 {
	lower := strings.ToLower(text)
	words := float64(len(strings.Fields(lower)))
	if words == 0 {
		return 0
	}

	vague := 0
	for _, w := range vagueWords {
		vague += strings.Count(lower, w)
	}
	vaguePenalty := float64(vague) / words * 10
	if vaguePenalty > 0.3 {
		vaguePenalty = 0.3
	}

	specific := 0
	for _, re := range specificPatterns {
		specific += len(re.FindAllString(text, -1))
	}
	specificBonus := float64(specific) * 0.05
	if specificBonus > 0.3 {
		specificBonus = 0.3
	}

	s := 0.7 - vaguePenalty + specificBonus
	if s < 0 {
		s = 0
	}
	if s > 1 {
		s = 1
	}
	return s
}

var actionVerbs = []string{
	"implement", "execute", "deploy", "launch", "create", "build",
	"develop", "establish", "initiate", "complete", "deliver", "achieve",
	"schedule", "assign", "review", "analyze", "evaluate", "measure",
	"track", "monitor", "verify", "validate", "test", "approve",
}

var ownerPatterns = []string{"owner:", "assigned to", "responsible:", "lead:", "by:"}

var timelinePatterns = []string{"by", "before", "within", "deadline", "due", "target date"}

func actionabilityScore(text string) float64 {
	lower := strings.ToLower(text)
	if len(strings.Fields(lower)) == 0 {
		return 0
	}

	actions := 0
	for _, v := range actionVerbs {
		actions += strings.Count(lower, v)
	}
	actionScore := float64(actions) * 0.1
	if actionScore > 0.4 {
		actionScore = 0.4
	}

	s := 0.2 + actionScore
	for _, p := range ownerPatterns {
		if strings.Contains(lower, p) {
			s += 0.2
			break
		}
	}
	for _, p := range timelinePatterns {
		if strings.Contains(lower, p) {
			s += 0.2
			break
		}
	}
	if s > 1 {
		s = 1
	}
	return s
}

// keySectionCoverage weights the presence of each expected section.
func keySectionCoverage(text string) float64 {
	upper := strings.ToUpper(text)

	sections := []struct {
		name   string
		weight float64
	}{
		{"BEST OPTION", 0.15},
		{"RATIONALE", 0.15},
		{"RISKS", 0.15},
		{"ASSUMPTIONS", 0.15},
		{"HALF-LIFE", 0.10},
		{"BLIND SPOTS", 0.10},
		{"NEXT ACTIONS", 0.20},
	}

	s := 0.0
	for _, sec := range sections {
		if strings.Contains(upper, sec.name) {
			s += sec.weight
		}
	}
	return s
}

func confidenceInterval(scoreVal float64, metrics QualityMetrics) ConfidenceInterval {
	uncertainty := 1 - metrics.OverallQuality
	margin := uncertainty * 15

	lower := scoreVal - margin
	if lower < 0 {
		lower = 0
	}
	upper := scoreVal + margin
	if upper > 100 {
		upper = 100
	}
	return ConfidenceInterval{
		LowerBound:      lower,
		UpperBound:      upper,
		ConfidenceLevel: 0.95,
	}
}

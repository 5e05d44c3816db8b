package score

import (
	"fmt"
	"math"
)

// DecayFactor is one force eroding a decision's validity over time.
type DecayFactor struct {
	Name       string  `json:"name"`
	DecayRate  float64 `json:"decay_rate"`
	Volatility float64 `json:"volatility"`
}

// DecayConfig controls the half-life analysis.
type DecayConfig struct {
	InitialConfidence float64       `json:"initial_confidence"`
	DecayFactors      []DecayFactor `json:"decay_factors"`
	TimeHorizonDays   int           `json:"time_horizon_days"`
}

// ConfidencePoint is one day on the confidence timeline.
type ConfidencePoint struct {
	Day        int     `json:"day"`
	Confidence float64 `json:"confidence"`
	UpperBound float64 `json:"upper_bound"`
	LowerBound float64 `json:"lower_bound"`
}

// DecayClassification buckets the computed half-life.
type DecayClassification string

const (
	DecayStable   DecayClassification = "stable"   // half-life > 180 days
	DecayModerate DecayClassification = "moderate" // 60-180 days
	DecayVolatile DecayClassification = "volatile" // 14-60 days
	DecayCritical DecayClassification = "critical" // < 14 days
)

// DecayResult is the full half-life analysis output.
type DecayResult struct {
	HalfLifeDays        float64             `json:"half_life_days"`
	ConfidenceTimeline  []ConfidencePoint   `json:"confidence_timeline"`
	CriticalReviewDate  string              `json:"critical_review_date"`
	DecayClassification DecayClassification `json:"decay_classification"`
	StabilityScore      float64             `json:"stability_score"`
	Recommendations     []string            `json:"recommendations"`
}

// RunDecay computes the decision half-life and confidence timeline.
func RunDecay(cfg DecayConfig) DecayResult {
	if cfg.TimeHorizonDays <= 0 {
		cfg.TimeHorizonDays = 365
	}

	var totalDecay, totalVolatility float64
	if n := float64(len(cfg.DecayFactors)); n > 0 {
		for _, f := range cfg.DecayFactors {
			totalDecay += f.DecayRate
			totalVolatility += f.Volatility
		}
		totalDecay /= n
		totalVolatility /= n
	}

	timeline := make([]ConfidencePoint, 0, cfg.TimeHorizonDays+1)
	halfLife := 0.0
	halfLifeFound := false

	for day := 0; day <= cfg.TimeHorizonDays; day++ {
		decay := math.Exp(-(totalDecay * float64(day) / 100))
		confidence := cfg.InitialConfidence * decay

		margin := totalVolatility * math.Sqrt(float64(day)) / 10
		upper := confidence + margin
		if upper > 100 {
			upper = 100
		}
		lower := confidence - margin
		if lower < 0 {
			lower = 0
		}

		timeline = append(timeline, ConfidencePoint{
			Day:        day,
			Confidence: confidence,
			UpperBound: upper,
			LowerBound: lower,
		})

		if !halfLifeFound && confidence <= cfg.InitialConfidence/2 {
			halfLife = float64(day)
			halfLifeFound = true
		}
	}

	if !halfLifeFound && totalDecay != 0 {
		halfLife = math.Abs(0.693 / (totalDecay / 100))
	}

	var classification DecayClassification
	switch {
	case halfLife > 180:
		classification = DecayStable
	case halfLife > 60:
		classification = DecayModerate
	case halfLife > 14:
		classification = DecayVolatile
	default:
		classification = DecayCritical
	}

	stability := halfLife / 365 * 100
	if stability > 100 {
		stability = 100
	}

	return DecayResult{
		HalfLifeDays:        halfLife,
		ConfidenceTimeline:  timeline,
		CriticalReviewDate:  fmt.Sprintf("%d days from now", int(math.Round(halfLife*0.5))),
		DecayClassification: classification,
		StabilityScore:      stability,
		Recommendations:     decayRecommendations(classification, halfLife),
	}
}

func decayRecommendations(classification DecayClassification, halfLife float64) []string {
	switch classification {
	case DecayCritical:
		return []string{
			"URGENT: Decision has very short validity window",
			fmt.Sprintf("Schedule review within %d days", int(math.Round(halfLife*0.3))),
			"Consider if decision can be made more stable",
		}
	case DecayVolatile:
		return []string{
			"Decision requires frequent monitoring",
			fmt.Sprintf("Plan for review every %d days", int(math.Round(halfLife*0.4))),
			"Identify key assumptions that drive volatility",
		}
	case DecayModerate:
		return []string{
			"Decision has reasonable stability",
			fmt.Sprintf("Schedule quarterly review (every %d days)", int(math.Round(halfLife*0.5))),
		}
	default:
		return []string{
			"Decision is highly stable",
			"Annual review recommended",
			"Monitor for black swan events that could invalidate assumptions",
		}
	}
}

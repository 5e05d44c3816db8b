package score

import (
	"math"
	"sort"
)

// MonteCarloConfig controls the risk simulation.
type MonteCarloConfig struct {
	Iterations      int     `json:"iterations"`
	Seed            uint64  `json:"seed,omitempty"`
	ConfidenceLevel float64 `json:"confidence_level"`
}

// DefaultMonteCarloConfig returns the production defaults.
func DefaultMonteCarloConfig() MonteCarloConfig {
	return MonteCarloConfig{
		Iterations:      10000,
		ConfidenceLevel: 0.95,
	}
}

// RiskCategory classifies a risk factor.
type RiskCategory string

const (
	RiskTechnical   RiskCategory = "technical"
	RiskMarket      RiskCategory = "market"
	RiskFinancial   RiskCategory = "financial"
	RiskOperational RiskCategory = "operational"
	RiskStrategic   RiskCategory = "strategic"
	RiskExternal    RiskCategory = "external"
)

// RiskFactor is one stochastic risk applied during simulation.
type RiskFactor struct {
	Name        string       `json:"name"`
	Probability float64      `json:"probability"`
	ImpactLow   float64      `json:"impact_low"`
	ImpactHigh  float64      `json:"impact_high"`
	Category    RiskCategory `json:"category"`
}

// ScenarioOutcome is one bucket of the simulated score distribution.
type ScenarioOutcome struct {
	ScenarioName string  `json:"scenario_name"`
	Probability  float64 `json:"probability"`
	ScoreImpact  float64 `json:"score_impact"`
	Description  string  `json:"description"`
}

// MonteCarloResult summarizes the simulated score distribution.
type MonteCarloResult struct {
	MeanScore            float64            `json:"mean_score"`
	StdDev               float64            `json:"std_dev"`
	MinScore             float64            `json:"min_score"`
	MaxScore             float64            `json:"max_score"`
	Percentile5          float64            `json:"percentile_5"`
	Percentile25         float64            `json:"percentile_25"`
	Percentile50         float64            `json:"percentile_50"`
	Percentile75         float64            `json:"percentile_75"`
	Percentile95         float64            `json:"percentile_95"`
	ConfidenceInterval   ConfidenceInterval `json:"confidence_interval"`
	RiskOfFailure        float64            `json:"risk_of_failure"`
	IterationsRun        int                `json:"iterations_run"`
	ScenarioDistribution []ScenarioOutcome  `json:"scenario_distribution"`
}

// RunMonteCarlo simulates the score distribution under the given risks.
// A non-zero seed makes the run fully deterministic.
func RunMonteCarlo(baseScore float64, risks []RiskFactor, cfg MonteCarloConfig) MonteCarloResult {
	if cfg.Iterations <= 0 {
		cfg.Iterations = DefaultMonteCarloConfig().Iterations
	}
	if cfg.ConfidenceLevel <= 0 || cfg.ConfidenceLevel >= 1 {
		cfg.ConfidenceLevel = 0.95
	}

	// LCG so the simulation is reproducible across platforms.
	state := cfg.Seed
	if state == 0 {
		state = 12345
	}
	next := func() float64 {
		state = state*6364136223846793005 + 1442695040888963407
		return float64(state) / float64(math.MaxUint64)
	}

	results := make([]float64, 0, cfg.Iterations)
	for i := 0; i < cfg.Iterations; i++ {
		sim := baseScore
		for _, risk := range risks {
			if next() < risk.Probability {
				impact := risk.ImpactLow + (risk.ImpactHigh-risk.ImpactLow)*next()
				sim -= impact
			}
		}
		if sim < 0 {
			sim = 0
		}
		if sim > 100 {
			sim = 100
		}
		results = append(results, sim)
	}

	sort.Float64s(results)

	n := float64(len(results))
	var sum float64
	for _, r := range results {
		sum += r
	}
	mean := sum / n

	var variance float64
	for _, r := range results {
		variance += (r - mean) * (r - mean)
	}
	variance /= n
	stdDev := math.Sqrt(variance)

	percentile := func(p float64) float64 {
		idx := int(math.Round(p / 100 * float64(len(results)-1)))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(results) {
			idx = len(results) - 1
		}
		return results[idx]
	}

	failures := 0
	for _, r := range results {
		if r < 60 {
			failures++
		}
	}

	return MonteCarloResult{
		MeanScore:    mean,
		StdDev:       stdDev,
		MinScore:     results[0],
		MaxScore:     results[len(results)-1],
		Percentile5:  percentile(5),
		Percentile25: percentile(25),
		Percentile50: percentile(50),
		Percentile75: percentile(75),
		Percentile95: percentile(95),
		ConfidenceInterval: ConfidenceInterval{
			LowerBound:      percentile((1 - cfg.ConfidenceLevel) / 2 * 100),
			UpperBound:      percentile((1 + cfg.ConfidenceLevel) / 2 * 100),
			ConfidenceLevel: cfg.ConfidenceLevel,
		},
		RiskOfFailure:        float64(failures) / n,
		IterationsRun:        cfg.Iterations,
		ScenarioDistribution: categorizeScenarios(results),
	}
}

func categorizeScenarios(results []float64) []ScenarioOutcome {
	n := float64(len(results))
	var excellent, good, acceptable, poor, failure int
	for _, s := range results {
		switch {
		case s >= 90:
			excellent++
		case s >= 75:
			good++
		case s >= 60:
			acceptable++
		case s >= 40:
			poor++
		default:
			failure++
		}
	}

	return []ScenarioOutcome{
		{
			ScenarioName: "Excellent",
			Probability:  float64(excellent) / n,
			ScoreImpact:  0,
			Description:  "Decision achieves all objectives with minimal issues",
		},
		{
			ScenarioName: "Good",
			Probability:  float64(good) / n,
			ScoreImpact:  -10,
			Description:  "Decision succeeds with minor adjustments needed",
		},
		{
			ScenarioName: "Acceptable",
			Probability:  float64(acceptable) / n,
			ScoreImpact:  -25,
			Description:  "Decision achieves basic objectives but with challenges",
		},
		{
			ScenarioName: "Poor",
			Probability:  float64(poor) / n,
			ScoreImpact:  -45,
			Description:  "Decision faces significant obstacles, requires revision",
		},
		{
			ScenarioName: "Failure",
			Probability:  float64(failure) / n,
			ScoreImpact:  -70,
			Description:  "Decision likely to fail without major intervention",
		},
	}
}

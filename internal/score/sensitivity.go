package score

import (
	"fmt"
	"math"
	"sort"
)

// SensitivityVariable is one input whose influence on the score is probed.
type SensitivityVariable struct {
	Name      string  `json:"name"`
	BaseValue float64 `json:"base_value"`
	MinValue  float64 `json:"min_value"`
	MaxValue  float64 `json:"max_value"`
	Weight    float64 `json:"weight"`
}

// SensitivityConfig controls the analysis.
type SensitivityConfig struct {
	Variables []SensitivityVariable `json:"variables"`
	StepCount int                   `json:"step_count"`
}

// VariableImpact summarizes one variable's influence.
type VariableImpact struct {
	VariableName string  `json:"variable_name"`
	Elasticity   float64 `json:"elasticity"`
	Correlation  float64 `json:"correlation"`
	ScoreAtMin   float64 `json:"score_at_min"`
	ScoreAtMax   float64 `json:"score_at_max"`
	ScoreRange   float64 `json:"score_range"`
	IsCritical   bool    `json:"is_critical"`
}

// TornadoBar is one bar of the tornado chart, sorted by score range.
type TornadoBar struct {
	VariableName string  `json:"variable_name"`
	LowValue     float64 `json:"low_value"`
	HighValue    float64 `json:"high_value"`
	BaseValue    float64 `json:"base_value"`
	LowScore     float64 `json:"low_score"`
	HighScore    float64 `json:"high_score"`
}

// SensitivityResult is the full analysis output.
type SensitivityResult struct {
	VariableImpacts   []VariableImpact `json:"variable_impacts"`
	TornadoChartData  []TornadoBar     `json:"tornado_chart_data"`
	CriticalVariables []string         `json:"critical_variables"`
	Recommendations   []string         `json:"recommendations"`
}

// RunSensitivity sweeps each variable across its range and measures the
// score response.
func RunSensitivity(baseScore float64, cfg SensitivityConfig) SensitivityResult {
	if cfg.StepCount <= 0 {
		cfg.StepCount = 10
	}

	impacts := make([]VariableImpact, 0, len(cfg.Variables))
	bars := make([]TornadoBar, 0, len(cfg.Variables))

	for _, v := range cfg.Variables {
		stepSize := (v.MaxValue - v.MinValue) / float64(cfg.StepCount)

		scoreAt := func(value float64) float64 {
			delta := (value - v.BaseValue) / v.BaseValue
			s := baseScore + delta*v.Weight*20
			if s < 0 {
				s = 0
			}
			if s > 100 {
				s = 100
			}
			return s
		}

		scoreAtMin := scoreAt(v.MinValue)
		scoreAtMax := scoreAt(v.MinValue + stepSize*float64(cfg.StepCount))
		scoreRange := scoreAtMax - scoreAtMin

		pctChangeScore := scoreRange / baseScore * 100
		pctChangeVar := (v.MaxValue - v.MinValue) / v.BaseValue * 100
		elasticity := 0.0
		if pctChangeVar != 0 {
			elasticity = pctChangeScore / pctChangeVar
		}

		correlation := 1.0
		if scoreAtMax <= scoreAtMin {
			correlation = -1.0
		}

		critical := math.Abs(elasticity) > 0.5 || math.Abs(scoreRange) > 15

		impacts = append(impacts, VariableImpact{
			VariableName: v.Name,
			Elasticity:   elasticity,
			Correlation:  correlation,
			ScoreAtMin:   scoreAtMin,
			ScoreAtMax:   scoreAtMax,
			ScoreRange:   scoreRange,
			IsCritical:   critical,
		})
		bars = append(bars, TornadoBar{
			VariableName: v.Name,
			LowValue:     v.MinValue,
			HighValue:    v.MaxValue,
			BaseValue:    v.BaseValue,
			LowScore:     scoreAtMin,
			HighScore:    scoreAtMax,
		})
	}

	sort.SliceStable(bars, func(i, j int) bool {
		return math.Abs(bars[i].HighScore-bars[i].LowScore) > math.Abs(bars[j].HighScore-bars[j].LowScore)
	})

	var critical []string
	for _, imp := range impacts {
		if imp.IsCritical {
			critical = append(critical, imp.VariableName)
		}
	}

	return SensitivityResult{
		VariableImpacts:   impacts,
		TornadoChartData:  bars,
		CriticalVariables: critical,
		Recommendations:   sensitivityRecommendations(impacts),
	}
}

func sensitivityRecommendations(impacts []VariableImpact) []string {
	var recs []string
	for _, imp := range impacts {
		if imp.IsCritical {
			if imp.Correlation > 0 {
				recs = append(recs, fmt.Sprintf(
					"Focus on maximizing '%s' - positive correlation with decision success", imp.VariableName))
			} else {
				recs = append(recs, fmt.Sprintf(
					"Minimize exposure to '%s' - negative correlation with decision success", imp.VariableName))
			}
		}
		if math.Abs(imp.Elasticity) > 1 {
			recs = append(recs, fmt.Sprintf(
				"High sensitivity to '%s' (elasticity: %.2f) - small changes have large effects",
				imp.VariableName, imp.Elasticity))
		}
	}
	if len(recs) == 0 {
		recs = append(recs, "Decision appears robust to variable changes")
	}
	return recs
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"grounds/internal/compare"
	"grounds/internal/config"
	"grounds/internal/logging"
	"grounds/internal/score"
)

var (
	// Global flags
	configPath string
	debug      bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "grounds",
	Short: "grounds - decision-report synthesis across multiple model backends",
	Long: `grounds fans a decision prompt out to several model backends, checks
each draft against the required report structure, runs one bounded repair
pass on broken drafts, and emits one final candidate per backend.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logging.Initialize(debug)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
	},
}

var (
	comparePrompt   string
	compareSystem   string
	compareBackends []string
	compareTemp     float64
	compareTokens   int
)

// compareCmd runs the full fan-out pipeline
var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Fan a prompt out to every enabled backend and print the merged result",
	Long: `Runs the full pipeline: draft calls in parallel, structural diagnosis,
continuation and repair where needed, deterministic final selection, and
one JSON result set sorted by backend id.

Example:
  grounds compare --prompt "Should we migrate the billing service to event sourcing?"`,
	RunE: runCompare,
}

var (
	scoreMonteCarlo  bool
	scoreSensitivity bool
	scoreDecay       bool
)

// scoreCmd scores a report file without calling any backend
var scoreCmd = &cobra.Command{
	Use:   "score [file]",
	Short: "Score a saved report against the required structure",
	Long: `Reads a report from a file (or stdin when the argument is "-") and
prints the full structural score as JSON, without touching any backend.`,
	Args: cobra.ExactArgs(1),
	RunE: runScore,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath, "Path to config file")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	compareCmd.Flags().StringVar(&comparePrompt, "prompt", "", "Decision prompt to fan out (required)")
	compareCmd.Flags().StringVar(&compareSystem, "system", "", "System instruction")
	compareCmd.Flags().StringSliceVar(&compareBackends, "backends", nil, "Restrict to these backend ids")
	compareCmd.Flags().Float64Var(&compareTemp, "temperature", 0.4, "Sampling temperature")
	compareCmd.Flags().IntVar(&compareTokens, "max-tokens", 0, "Override the draft token ceiling")
	_ = compareCmd.MarkFlagRequired("prompt")

	scoreCmd.Flags().BoolVar(&scoreMonteCarlo, "monte-carlo", false, "Include Monte Carlo risk simulation")
	scoreCmd.Flags().BoolVar(&scoreSensitivity, "sensitivity", false, "Include sensitivity analysis")
	scoreCmd.Flags().BoolVar(&scoreDecay, "decay", false, "Include decision decay analysis")

	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(scoreCmd)
}

func runCompare(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	engine := score.NewEngine(score.DefaultConfig())
	runner, err := compare.NewFromConfig(cfg, engine.AsScorer())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := runner.Run(ctx, compare.Request{
		Prompt:      comparePrompt,
		System:      compareSystem,
		Temperature: compareTemp,
		MaxTokens:   compareTokens,
		Backends:    compareBackends,
	})
	if err != nil {
		return err
	}
	return printJSON(cmd, result)
}

func runScore(cmd *cobra.Command, args []string) error {
	var data []byte
	var err error
	if args[0] == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return fmt.Errorf("failed to read report: %w", err)
	}

	engine := score.NewEngine(score.DefaultConfig())
	result := engine.Score(string(data))

	out := map[string]any{"score": result}
	base := float64(result.Score)
	if scoreMonteCarlo {
		out["monte_carlo"] = score.RunMonteCarlo(base, defaultRisks(), score.DefaultMonteCarloConfig())
	}
	if scoreSensitivity {
		out["sensitivity"] = score.RunSensitivity(base, defaultSensitivity())
	}
	if scoreDecay {
		out["decay"] = score.RunDecay(defaultDecay(base))
	}
	return printJSON(cmd, out)
}

// Default analysis inputs for reports scored without domain context. A
// caller with real risk data should use the score package directly.
func defaultRisks() []score.RiskFactor {
	return []score.RiskFactor{
		{Name: "Market Risk", Probability: 0.3, ImpactLow: 5, ImpactHigh: 15, Category: score.RiskMarket},
		{Name: "Technical Risk", Probability: 0.2, ImpactLow: 10, ImpactHigh: 25, Category: score.RiskTechnical},
		{Name: "Operational Risk", Probability: 0.25, ImpactLow: 5, ImpactHigh: 20, Category: score.RiskOperational},
	}
}

func defaultSensitivity() score.SensitivityConfig {
	return score.SensitivityConfig{
		Variables: []score.SensitivityVariable{
			{Name: "Budget", BaseValue: 100000, MinValue: 50000, MaxValue: 150000, Weight: 0.8},
			{Name: "Timeline", BaseValue: 90, MinValue: 60, MaxValue: 120, Weight: 0.5},
			{Name: "Team Size", BaseValue: 5, MinValue: 3, MaxValue: 10, Weight: 0.3},
		},
		StepCount: 10,
	}
}

func defaultDecay(confidence float64) score.DecayConfig {
	return score.DecayConfig{
		InitialConfidence: confidence,
		DecayFactors: []score.DecayFactor{
			{Name: "Market Changes", DecayRate: 0.5, Volatility: 0.2},
			{Name: "Assumption Drift", DecayRate: 0.3, Volatility: 0.1},
		},
		TimeHorizonDays: 365,
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

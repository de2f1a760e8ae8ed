// Package main tunes the scheduler cadences with CMA-ES, trading update
// frequency against the per-tick time budget.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/swell/config"
)

// formatDuration formats a duration as 1h02m03s or 2m03s.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}

// logRecord is one row of tune_log.csv.
type logRecord struct {
	Eval int `csv:"eval"`
	Result
	VisibleCheapDelay  float64 `csv:"visible_cheap_delay"`
	VisibleCostlyDelay float64 `csv:"visible_costly_delay"`
	HiddenCheapDelay   float64 `csv:"hidden_cheap_delay"`
	HiddenCostlyDelay  float64 `csv:"hidden_costly_delay"`
	StressMax          float64 `csv:"stress_max"`
}

func newLogRecord(eval int, r Result, v []float64) logRecord {
	return logRecord{
		Eval:               eval,
		Result:             r,
		VisibleCheapDelay:  v[0],
		VisibleCostlyDelay: v[1],
		HiddenCheapDelay:   v[2],
		HiddenCostlyDelay:  v[3],
		StressMax:          v[4],
	}
}

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	ticks := flag.Int("ticks", 2000, "Ticks per run")
	seeds := flag.Int("seeds", 3, "Number of seeds per evaluation")
	maxEvals := flag.Int("max-evals", 100, "Maximum number of evaluations")
	population := flag.Int("population", 0, "CMA-ES population size (0 = auto)")
	outputDir := flag.String("output", "", "Output directory for results")
	flag.Parse()

	// Each run logs its prewarm; keep only warnings and errors.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	if *outputDir == "" {
		slog.Error("--output is required")
		return 2
	}
	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		slog.Error("failed to create output directory", "error", err)
		return 1
	}

	baseCfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}

	params := NewParamVector()
	evalSeeds := make([]int64, *seeds)
	for i := range evalSeeds {
		evalSeeds[i] = int64(i*1000 + 42)
	}
	evaluator := NewFitnessEvaluator(params, *ticks, evalSeeds, baseCfg)

	dim := params.Dim()
	initX := params.Normalize(params.ExtractFromConfig(baseCfg))

	popSize := *population
	if popSize == 0 {
		popSize = 4 + int(3.0*float64(dim)/2.0)
	}
	method := &optimize.CmaEsChol{
		InitStepSize: 0.3,
		Population:   popSize,
	}
	settings := &optimize.Settings{
		FuncEvaluations: *maxEvals,
		Concurrent:      0,
	}

	logPath := filepath.Join(*outputDir, "tune_log.csv")
	logFile, err := os.Create(logPath)
	if err != nil {
		slog.Error("failed to create log file", "error", err)
		return 1
	}
	defer logFile.Close()
	headerWritten := false

	evalCount := 0
	bestFitness := failedFitness
	var bestParams []float64
	startTime := time.Now()

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			values := params.Clamp(params.Denormalize(x))
			fitness, err := evaluator.Evaluate(values)
			if err != nil {
				slog.Warn("evaluation failed", "eval", evalCount+1, "error", err)
			}
			evalCount++

			if fitness < bestFitness || bestParams == nil {
				bestFitness = fitness
				bestParams = values
			}

			rows := []logRecord{newLogRecord(evalCount, evaluator.Last(), values)}
			if !headerWritten {
				err = gocsv.Marshal(rows, logFile)
				headerWritten = err == nil
			} else {
				err = gocsv.MarshalWithoutHeaders(rows, logFile)
			}
			if err != nil {
				slog.Warn("failed to write log row", "error", err)
			}

			elapsed := time.Since(startTime)
			remaining := time.Duration(*maxEvals-evalCount) * (elapsed / time.Duration(evalCount))
			last := evaluator.Last()
			fmt.Printf("Eval %d/%d: fitness=%.3f lag=%.2f stress=%.2f over=%.1f%% (best=%.3f) | elapsed: %s, ETA: %s\n",
				evalCount, *maxEvals, fitness, last.Lag, last.MeanStress, last.OverBudget*100, bestFitness,
				formatDuration(elapsed), formatDuration(remaining))

			return fitness
		},
	}

	fmt.Printf("Starting CMA-ES with %d parameters, population=%d, max_evals=%d\n", dim, popSize, *maxEvals)
	fmt.Printf("Seeds per evaluation: %d, ticks per run: %d\n", *seeds, *ticks)

	result, err := optimize.Minimize(problem, initX, settings, method)
	if err != nil {
		slog.Warn("optimization ended", "error", err)
	}
	if bestParams == nil && result != nil {
		bestParams = params.Clamp(params.Denormalize(result.X))
	}
	if bestParams == nil {
		slog.Error("no evaluations completed")
		return 1
	}

	fmt.Printf("\nTuning complete after %d evaluations in %s\n", evalCount, formatDuration(time.Since(startTime)))
	fmt.Printf("Best fitness: %.3f\n", bestFitness)
	fmt.Println("\nBest parameters:")
	for i, spec := range params.Specs {
		fmt.Printf("  %s: %.4f\n", spec.Path, bestParams[i])
	}

	bestCfg := *baseCfg
	params.ApplyToConfig(&bestCfg, bestParams)
	configOutPath := filepath.Join(*outputDir, "best_config.yaml")
	if err := bestCfg.WriteYAML(configOutPath); err != nil {
		slog.Error("failed to write best config", "error", err)
		return 1
	}
	fmt.Printf("\nBest config saved to: %s\n", configOutPath)
	return 0
}

package main

import (
	"fmt"
	"math"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/swell/config"
	"github.com/pthm-cable/swell/game"
)

const (
	// overBudgetWeight converts the fraction of ticks over budget into lag units.
	overBudgetWeight = 10.0

	// failedFitness is returned when a run errors out.
	failedFitness = 1e6
)

// RunResult summarizes one headless run.
type RunResult struct {
	OverBudget float64 // Fraction of ticks slower than the time budget
	MeanStress float64
}

// Result is the fitness breakdown of one evaluation, averaged over seeds.
type Result struct {
	Fitness    float64 `csv:"fitness"`
	Lag        float64 `csv:"lag"`
	OverBudget float64 `csv:"over_budget"`
	MeanStress float64 `csv:"mean_stress"`
}

// FitnessEvaluator runs headless simulations and scores a schedule. Lower is
// better: fitness is the effective lag (configured lag times mean stress)
// plus a penalty for ticks that blew the time budget.
type FitnessEvaluator struct {
	params     *ParamVector
	ticks      int
	seeds      []int64
	baseConfig *config.Config

	mu   sync.Mutex
	last Result
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, ticks int, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:     params,
		ticks:      ticks,
		seeds:      seeds,
		baseConfig: baseCfg,
	}
}

// Last returns the breakdown of the most recent evaluation.
func (fe *FitnessEvaluator) Last() Result {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.last
}

// Evaluate scores raw parameter values. Seeds run one after another since
// concurrent runs would skew tick timing.
func (fe *FitnessEvaluator) Evaluate(raw []float64) (float64, error) {
	values := fe.params.Clamp(raw)
	lag := fe.params.Lag(values)

	var over, stress []float64
	for _, seed := range fe.seeds {
		cfg := *fe.baseConfig
		fe.params.ApplyToConfig(&cfg, values)

		r, err := fe.run(&cfg, seed)
		if err != nil {
			fe.setLast(Result{Fitness: failedFitness, Lag: lag})
			return failedFitness, fmt.Errorf("seed %d: %w", seed, err)
		}
		over = append(over, r.OverBudget)
		stress = append(stress, r.MeanStress)
	}

	res := Result{
		Lag:        lag,
		OverBudget: stat.Mean(over, nil),
		MeanStress: stat.Mean(stress, nil),
	}
	res.Fitness = Score(res.Lag, res.MeanStress, res.OverBudget)
	fe.setLast(res)
	return res.Fitness, nil
}

func (fe *FitnessEvaluator) setLast(r Result) {
	fe.mu.Lock()
	fe.last = r
	fe.mu.Unlock()
}

// Score combines the configured lag, the mean stress multiplier and the
// over-budget fraction into a single fitness value.
func Score(lag, meanStress, overBudget float64) float64 {
	return lag*math.Max(meanStress, 1) + overBudgetWeight*overBudget
}

// run plays one seed headless for fe.ticks ticks.
func (fe *FitnessEvaluator) run(cfg *config.Config, seed int64) (RunResult, error) {
	g, err := game.NewGame(cfg, game.Options{
		Seed:           seed,
		Headless:       true,
		StepsPerUpdate: 1,
	})
	if err != nil {
		return RunResult{}, err
	}
	defer g.Unload()

	s := g.Simulation()
	budget := s.TimeBudget()
	stress := make([]float64, 0, fe.ticks)
	over := 0
	for i := 0; i < fe.ticks; i++ {
		start := time.Now()
		if err := g.UpdateHeadless(); err != nil {
			return RunResult{}, err
		}
		if time.Since(start) > budget {
			over++
		}
		stress = append(stress, s.Stress())
	}

	return RunResult{
		OverBudget: float64(over) / float64(max(fe.ticks, 1)),
		MeanStress: stat.Mean(stress, nil),
	}, nil
}

package main

import (
	"context"
	"math"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/hunger/config"
	"github.com/pthm-cable/hunger/game"
	"github.com/pthm-cable/hunger/telemetry"
)

// FitnessEvaluator runs short training runs and computes fitness.
type FitnessEvaluator struct {
	params     *ParamVector
	episodes   int
	seeds      []int64
	baseConfig *config.Config

	// Best run tracking
	mu             sync.Mutex
	bestFitness    float64
	bestHallOfFame *telemetry.HallOfFame
	lastQuality    float64 // quality from most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, episodes int, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		episodes:    episodes,
		seeds:       seeds,
		baseConfig:  baseCfg,
		bestFitness: math.Inf(1),
	}
}

// BestHallOfFame returns the hall of fame from the best evaluation.
func (fe *FitnessEvaluator) BestHallOfFame() *telemetry.HallOfFame {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.bestHallOfFame
}

// LastQuality returns the quality score from the most recent evaluation.
func (fe *FitnessEvaluator) LastQuality() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastQuality
}

// tailFraction is the share of a run scored for quality.
const tailFraction = 0.1

// runResult holds the results from a single training run.
type runResult struct {
	finalTicks int // ticks of the greedy final episode
	goalTicks  int
	tailTicks  []float64
	hallOfFame *telemetry.HallOfFame
}

// seedResult holds the result from one seed evaluation.
type seedResult struct {
	fitness    float64
	quality    float64
	hallOfFame *telemetry.HallOfFame
}

// Evaluate computes fitness for a parameter vector (lower = better).
// Fitness is negative greedy survival ticks averaged over seeds.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	cfg := fe.baseConfig.Clone()
	fe.params.ApplyToConfig(cfg, x)
	cfg.ComputeDerived()

	// Run all seeds in parallel
	results := make([]seedResult, len(fe.seeds))
	var wg sync.WaitGroup

	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			result := fe.runTraining(cfg, s)
			quality := computeQuality(result)
			results[idx] = seedResult{
				fitness:    computeFitness(result, quality),
				quality:    quality,
				hallOfFame: result.hallOfFame,
			}
		}(i, seed)
	}
	wg.Wait()

	// Aggregate results
	var totalFitness, totalQuality float64
	bestSeedFitness := math.Inf(1)
	var bestSeedHallOfFame *telemetry.HallOfFame

	for _, r := range results {
		totalFitness += r.fitness
		totalQuality += r.quality
		if r.fitness < bestSeedFitness {
			bestSeedFitness = r.fitness
			bestSeedHallOfFame = r.hallOfFame
		}
	}

	n := float64(len(fe.seeds))
	avgFitness := totalFitness / n

	fe.mu.Lock()
	if avgFitness < fe.bestFitness {
		fe.bestFitness = avgFitness
		fe.bestHallOfFame = bestSeedHallOfFame
	}
	fe.lastQuality = totalQuality / n
	fe.mu.Unlock()

	return avgFitness
}

// runTraining executes one training run without output or progress lines.
func (fe *FitnessEvaluator) runTraining(cfg *config.Config, seed int64) *runResult {
	tr, err := game.NewTrainer(cfg, game.Options{
		Seed:     seed,
		Episodes: fe.episodes,
		Progress: game.DiscardProgress,
	})
	if err != nil {
		// Only output setup can fail and no output dir is set
		return &runResult{goalTicks: cfg.Derived.GoalTicks}
	}
	defer tr.Close()

	res, _ := tr.Run(context.Background())

	entries := tr.ScoreBoard().Entries()
	tail := int(math.Ceil(float64(len(entries)) * tailFraction))
	tailTicks := make([]float64, 0, tail)
	for _, e := range entries[len(entries)-tail:] {
		tailTicks = append(tailTicks, float64(e.Ticks))
	}

	return &runResult{
		finalTicks: res.FinalTicks,
		goalTicks:  res.GoalTicks,
		tailTicks:  tailTicks,
		hallOfFame: tr.HallOfFame(),
	}
}

// computeFitness calculates the scalar fitness (lower = better).
// Formula: -(finalTicks × (1.0 + 0.2 × quality))
// The greedy result dominates; quality separates configs whose greedy
// episodes tie.
func computeFitness(r *runResult, quality float64) float64 {
	return -(float64(r.finalTicks) * (1.0 + 0.2*quality))
}

// computeQuality scores the exploring tail of a run in [0, 1]: mean ticks
// relative to the goal, penalized by spread.
func computeQuality(r *runResult) float64 {
	if len(r.tailTicks) == 0 || r.goalTicks == 0 {
		return 0
	}
	mean, std := stat.MeanStdDev(r.tailTicks, nil)
	if math.IsNaN(std) {
		std = 0
	}
	progress := mean / float64(r.goalTicks)
	stability := math.Exp(-std / float64(r.goalTicks))
	return clamp01(0.7*progress + 0.3*stability)
}

// clamp01 clamps x to [0, 1].
func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

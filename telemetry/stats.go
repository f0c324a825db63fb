package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a window of episodes.
type WindowStats struct {
	WindowStartEpisode int `csv:"-"`
	WindowEndEpisode   int `csv:"window_end"`
	Episodes           int `csv:"episodes"`

	// Survival (ticks per episode)
	TicksMean float64 `csv:"ticks_mean"`
	TicksStd  float64 `csv:"ticks_std"`
	TicksP10  float64 `csv:"ticks_p10"`
	TicksP50  float64 `csv:"ticks_p50"`
	TicksP90  float64 `csv:"ticks_p90"`
	TicksMax  int     `csv:"ticks_max"`

	// Score
	ScoreMean float64 `csv:"score_mean"`
	ScoreStd  float64 `csv:"score_std"`
	ScoreP50  float64 `csv:"score_p50"`
	ScoreMax  int     `csv:"score_max"`

	// Feeding behaviour
	FeedsMean       float64 `csv:"feeds_mean"`        // successful feeds per episode
	FailedFeedsMean float64 `csv:"failed_feeds_mean"` // feed decisions with no credit left
	GoalHits        int     `csv:"goal_hits"`         // episodes that reached the goal survival

	// Learning
	WeightChanges    int     `csv:"weight_changes"`
	GreedyFeedLevels int     `csv:"greedy_feed_levels"` // levels where the greedy policy feeds
	MostEagerLevel   int     `csv:"most_eager_level"`   // level with the highest weight
	WeightDrift      float64 `csv:"weight_drift"`       // L1 distance from initial weights
}

// Percentile calculates the p-th percentile of a sorted slice with linear
// interpolation. p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[len(sorted)-1]
	}
	return stat.Quantile(p, stat.LinInterp, sorted, nil)
}

// ComputeTickStats calculates mean, std and percentiles of tick counts.
func ComputeTickStats(values []float64) (mean, std, p10, p50, p90 float64) {
	n := len(values)
	if n == 0 {
		return 0, 0, 0, 0, 0
	}
	mean, std = meanStd(values)

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	p10 = Percentile(sorted, 0.10)
	p50 = Percentile(sorted, 0.50)
	p90 = Percentile(sorted, 0.90)

	return mean, std, p10, p50, p90
}

// ComputeScoreStats calculates mean, std and median of scores.
func ComputeScoreStats(values []float64) (mean, std, p50 float64) {
	n := len(values)
	if n == 0 {
		return 0, 0, 0
	}
	mean, std = meanStd(values)

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	return mean, std, Percentile(sorted, 0.50)
}

// meanStd is stat.MeanStdDev with a zero deviation for single samples.
func meanStd(values []float64) (mean, std float64) {
	if len(values) == 1 {
		return values[0], 0
	}
	return stat.MeanStdDev(values, nil)
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", s.WindowStartEpisode),
		slog.Int("window_end", s.WindowEndEpisode),
		slog.Int("episodes", s.Episodes),
		slog.Float64("ticks_mean", s.TicksMean),
		slog.Float64("ticks_std", s.TicksStd),
		slog.Float64("ticks_p10", s.TicksP10),
		slog.Float64("ticks_p50", s.TicksP50),
		slog.Float64("ticks_p90", s.TicksP90),
		slog.Int("ticks_max", s.TicksMax),
		slog.Float64("score_mean", s.ScoreMean),
		slog.Float64("score_std", s.ScoreStd),
		slog.Float64("score_p50", s.ScoreP50),
		slog.Int("score_max", s.ScoreMax),
		slog.Float64("feeds_mean", s.FeedsMean),
		slog.Float64("failed_feeds_mean", s.FailedFeedsMean),
		slog.Int("goal_hits", s.GoalHits),
		slog.Int("weight_changes", s.WeightChanges),
		slog.Int("greedy_feed_levels", s.GreedyFeedLevels),
		slog.Int("most_eager_level", s.MostEagerLevel),
		slog.Float64("weight_drift", s.WeightDrift),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats", "window", s)
}

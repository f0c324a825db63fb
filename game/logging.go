package game

import "log/slog"

// ProgressFunc is called every progress_interval episodes with the episode
// index and its survived ticks.
type ProgressFunc func(episode, ticks int)

// LogProgress is the default progress report.
func LogProgress(episode, ticks int) {
	slog.Info("progress", "episode", episode, "ticks", ticks)
}

// DiscardProgress drops progress reports.
func DiscardProgress(int, int) {}

// LogSummary reports the outcome of a run.
func LogSummary(res Result) {
	slog.Info("training complete", "result", res)
	if res.GoalReached {
		slog.Info("goal policy reached", "ticks", res.FinalTicks, "goal_ticks", res.GoalTicks)
		return
	}
	slog.Info("goal policy not reached", "ticks", res.FinalTicks, "goal_ticks", res.GoalTicks)
}

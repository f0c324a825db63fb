package game

import (
	"log/slog"
	"path/filepath"

	"github.com/pthm-cable/hunger/telemetry"
)

// recordEpisode feeds one finished episode into the collector, the hall of
// fame and the goal detector.
func (t *Trainer) recordEpisode(ep int, traj *Trajectory, changes int) {
	ticks := traj.Survived()
	score := traj.Score()

	t.collector.Record(telemetry.EpisodeRecord{
		Episode:       ep,
		Ticks:         ticks,
		Score:         score,
		Feeds:         traj.Feeds,
		FailedFeeds:   traj.FailedFeeds,
		WeightChanges: changes,
	})

	t.pendingScores = append(t.pendingScores, telemetry.ScoreEntry{Episode: ep, Score: score, Ticks: ticks})

	if t.hallOfFame.Qualifies(score) {
		t.hallOfFame.Consider(telemetry.HallEntry{
			Episode:    ep,
			Score:      score,
			Ticks:      ticks,
			Feeds:      traj.Feeds,
			FeedLevels: append([]int(nil), traj.FedLevels...),
		})
	}

	if bm := t.bookmarkDetector.CheckEpisode(ep, ticks); bm != nil {
		t.emitBookmark(*bm)
	}
}

// flushTelemetry checks if the stats window should be flushed and handles bookmarks.
func (t *Trainer) flushTelemetry(ep int) {
	if !t.collector.ShouldFlush() {
		return
	}
	t.flushWindow(ep)
}

// flushWindow closes the current window at endEpisode.
func (t *Trainer) flushWindow(endEpisode int) {
	stats := t.collector.Flush(endEpisode, telemetry.PolicySummary{
		GreedyFeedLevels: len(t.policy.PreferredLevels()),
		MostEagerLevel:   t.policy.MostEager(),
		WeightDrift:      t.policy.Drift(),
	})
	perfStats := t.perfCollector.Stats()

	if t.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if err := t.outputManager.WriteTelemetry(stats); err != nil {
		slog.Error("failed to write telemetry", "error", err)
	}
	if err := t.outputManager.WritePerf(perfStats, stats.WindowEndEpisode); err != nil {
		slog.Error("failed to write perf", "error", err)
	}
	t.flushScores()

	for _, bm := range t.bookmarkDetector.Check(stats) {
		t.emitBookmark(bm)
	}
}

// flushScores appends buffered score entries to scores.csv.
func (t *Trainer) flushScores() {
	if len(t.pendingScores) == 0 {
		return
	}
	if err := t.outputManager.WriteScores(t.pendingScores); err != nil {
		slog.Error("failed to write scores", "error", err)
	}
	t.pendingScores = t.pendingScores[:0]
}

func (t *Trainer) emitBookmark(bm telemetry.Bookmark) {
	if t.logStats {
		bm.LogBookmark()
	}
	if err := t.outputManager.WriteBookmark(bm); err != nil {
		slog.Error("failed to write bookmark", "error", err)
	}

	// Save snapshot on bookmark
	if t.outputManager != nil {
		t.saveSnapshot(&bm)
	}
}

// saveSnapshot writes the learner state at a bookmark to the snapshots dir.
func (t *Trainer) saveSnapshot(bookmark *telemetry.Bookmark) {
	snapshot := &telemetry.Snapshot{
		Version:         telemetry.SnapshotVersion,
		RNGSeed:         t.seed,
		Episode:         bookmark.Episode,
		Weights:         t.policy.Snapshot(),
		PreferredLevels: t.policy.PreferredLevels(),
		Bookmark:        bookmark,
	}

	path, err := telemetry.SaveSnapshot(snapshot, filepath.Join(t.outputManager.Dir(), "snapshots"))
	if err != nil {
		slog.Error("failed to save snapshot", "error", err)
		return
	}

	slog.Debug("snapshot saved", "path", path, "episode", bookmark.Episode)
}

// writeFinalArtifacts saves the final trajectory, the weights and the hall of fame.
func (t *Trainer) writeFinalArtifacts(res Result) {
	if t.outputManager == nil {
		return
	}

	if err := t.outputManager.WriteTrajectory(res.Ticks, res.Hunger); err != nil {
		slog.Error("failed to write trajectory", "error", err)
	}

	rows := make([]telemetry.WeightRow, len(res.Weights))
	for h, w := range res.Weights {
		rows[h] = telemetry.WeightRow{
			Hunger:      h,
			Weight:      w,
			Initial:     res.InitialWeights[h],
			Probability: t.policy.Probability(h),
		}
	}
	if err := t.outputManager.WriteWeights(rows); err != nil {
		slog.Error("failed to write weights", "error", err)
	}

	if err := t.outputManager.WriteHallOfFame(t.hallOfFame); err != nil {
		slog.Error("failed to write hall of fame", "error", err)
	}

	slog.Info("output written", "dir", t.outputManager.Dir())
}

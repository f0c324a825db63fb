package telemetry

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/hunger/config"
)

func TestScoreBoardAppendOnly(t *testing.T) {
	sb := NewScoreBoard(4)
	if sb.Len() != 0 || sb.Last(2) != nil {
		t.Fatal("new board should be empty")
	}

	for i := 0; i < 5; i++ {
		sb.Append(ScoreEntry{Episode: i, Score: 100 + i, Ticks: 50 + i})
		if sb.Len() != i+1 {
			t.Fatalf("expected length %d, got %d", i+1, sb.Len())
		}
	}

	last := sb.Last(2)
	if len(last) != 2 || last[0] != 103 || last[1] != 104 {
		t.Errorf("unexpected tail %v", last)
	}
	if got := sb.Last(10); len(got) != 5 {
		t.Errorf("Last should cap at board length, got %d", len(got))
	}

	entries := sb.Entries()
	entries[0].Score = -1
	if sb.Entries()[0].Score != 100 {
		t.Error("Entries must return a copy")
	}
}

func TestCollectorWindow(t *testing.T) {
	c := NewCollector(3, 200)

	c.Record(EpisodeRecord{Episode: 0, Ticks: 100, Score: 5000, Feeds: 2, FailedFeeds: 0})
	c.Record(EpisodeRecord{Episode: 1, Ticks: 200, Score: 9000, Feeds: 10, FailedFeeds: 3, WeightChanges: 4})
	if c.ShouldFlush() {
		t.Fatal("window should not be full after 2 episodes")
	}
	c.Record(EpisodeRecord{Episode: 2, Ticks: 150, Score: 7000, Feeds: 6, WeightChanges: 2})
	if !c.ShouldFlush() {
		t.Fatal("window should be full after 3 episodes")
	}

	stats := c.Flush(2, PolicySummary{GreedyFeedLevels: 4, MostEagerLevel: 90, WeightDrift: 1.5})
	if stats.Episodes != 3 || stats.WindowStartEpisode != 0 || stats.WindowEndEpisode != 2 {
		t.Errorf("unexpected window bounds %+v", stats)
	}
	if stats.TicksMean != 150 {
		t.Errorf("expected mean ticks 150, got %g", stats.TicksMean)
	}
	if math.Abs(stats.TicksStd-50) > 1e-9 {
		t.Errorf("expected sample std 50, got %g", stats.TicksStd)
	}
	if stats.TicksMax != 200 || stats.ScoreMax != 9000 {
		t.Errorf("unexpected maxima ticks=%d score=%d", stats.TicksMax, stats.ScoreMax)
	}
	if stats.GoalHits != 1 {
		t.Errorf("expected 1 goal hit, got %d", stats.GoalHits)
	}
	if stats.FeedsMean != 6 || stats.FailedFeedsMean != 1 {
		t.Errorf("unexpected feed means %g/%g", stats.FeedsMean, stats.FailedFeedsMean)
	}
	if stats.WeightChanges != 6 || stats.GreedyFeedLevels != 4 || stats.MostEagerLevel != 90 || stats.WeightDrift != 1.5 {
		t.Errorf("unexpected learning stats %+v", stats)
	}

	if c.Pending() != 0 {
		t.Error("flush should reset the window")
	}
	c.Record(EpisodeRecord{Episode: 3, Ticks: 90, Score: 10})
	next := c.Flush(3, PolicySummary{})
	if next.WindowStartEpisode != 3 || next.TicksMax != 90 || next.GoalHits != 0 {
		t.Errorf("counters leaked into next window: %+v", next)
	}
	if next.TicksStd != 0 {
		t.Errorf("single-episode window should have zero std, got %g", next.TicksStd)
	}
}

func TestHallOfFameOrdering(t *testing.T) {
	hof := NewHallOfFame(3)
	for i, score := range []int{50, 80, 60, 80, 10, 90} {
		hof.Consider(HallEntry{Episode: i, Score: score})
	}

	entries := hof.Entries()
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	want := []struct{ episode, score int }{{5, 90}, {1, 80}, {3, 80}}
	for i, w := range want {
		if entries[i].Episode != w.episode || entries[i].Score != w.score {
			t.Errorf("entry %d = (%d, %d), want (%d, %d)", i, entries[i].Episode, entries[i].Score, w.episode, w.score)
		}
	}
	if hof.Qualifies(80) {
		t.Error("score equal to the lowest entry should not qualify in a full hall")
	}
	top, ok := hof.Top()
	if !ok || top.Score != 90 {
		t.Errorf("unexpected top %+v", top)
	}
}

func TestHallOfFameJSON(t *testing.T) {
	hof := NewHallOfFame(2)
	hof.Consider(HallEntry{Episode: 1, Score: 100, Ticks: 50, Feeds: 2, FeedLevels: []int{90, 80}})

	data, err := hof.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON failed: %v", err)
	}
	var decoded struct {
		Entries []HallEntry `json:"entries"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(decoded.Entries) != 1 || len(decoded.Entries[0].FeedLevels) != 2 {
		t.Errorf("unexpected decoded hall %+v", decoded)
	}
}

func TestOutputManagerDisabled(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil || om != nil {
		t.Fatalf("expected nil manager for empty dir, got %v, %v", om, err)
	}
	// All methods are no-ops on nil
	if err := om.WriteScores([]ScoreEntry{{Episode: 1}}); err != nil {
		t.Error(err)
	}
	if err := om.WriteTrajectory([]int{1}, []int{99}); err != nil {
		t.Error(err)
	}
	if err := om.Close(); err != nil {
		t.Error(err)
	}
}

func TestOutputManagerWrites(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatalf("NewOutputManager failed: %v", err)
	}

	if err := om.WriteConfig(config.Default()); err != nil {
		t.Fatalf("WriteConfig failed: %v", err)
	}
	if err := om.WriteScores([]ScoreEntry{{0, 5050, 100}, {1, 6000, 110}}); err != nil {
		t.Fatal(err)
	}
	if err := om.WriteScores([]ScoreEntry{{2, 7000, 120}}); err != nil {
		t.Fatal(err)
	}
	if err := om.WriteTelemetry(WindowStats{WindowEndEpisode: 2, TicksMean: 110}); err != nil {
		t.Fatal(err)
	}
	if err := om.WriteBookmark(Bookmark{Type: BookmarkGoalReached, Episode: 2, Description: "test"}); err != nil {
		t.Fatal(err)
	}
	if err := om.WriteTrajectory([]int{1, 2, 3}, []int{99, 98, 97}); err != nil {
		t.Fatal(err)
	}
	if err := om.WriteWeights([]WeightRow{{Hunger: 0, Weight: -1}, {Hunger: 1, Weight: 2, Probability: 0.88}}); err != nil {
		t.Fatal(err)
	}
	if err := om.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	var scores []ScoreEntry
	readCSV(t, filepath.Join(dir, "scores.csv"), &scores)
	if len(scores) != 3 || scores[2].Score != 7000 {
		t.Errorf("unexpected scores %+v", scores)
	}

	var traj []TrajectoryRow
	readCSV(t, filepath.Join(dir, "trajectory.csv"), &traj)
	if len(traj) != 3 || traj[1] != (TrajectoryRow{Tick: 2, Hunger: 98}) {
		t.Errorf("unexpected trajectory %+v", traj)
	}

	var weights []WeightRow
	readCSV(t, filepath.Join(dir, "weights.csv"), &weights)
	if len(weights) != 2 || weights[1].Weight != 2 {
		t.Errorf("unexpected weights %+v", weights)
	}

	if _, err := os.Stat(filepath.Join(dir, "config.yaml")); err != nil {
		t.Errorf("config.yaml missing: %v", err)
	}
}

func readCSV(t *testing.T, path string, out any) {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening %s: %v", path, err)
	}
	defer f.Close()
	if err := gocsv.UnmarshalFile(f, out); err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
}

package telemetry

// EpisodeRecord is what the collector needs from one finished episode.
type EpisodeRecord struct {
	Episode       int
	Ticks         int
	Score         int
	Feeds         int // successful feeds
	FailedFeeds   int // feed decisions refused for lack of credit
	WeightChanges int // weights changed by the update after this episode
}

// PolicySummary describes the learner at the time of a flush.
type PolicySummary struct {
	GreedyFeedLevels int
	MostEagerLevel   int
	WeightDrift      float64
}

// Collector accumulates episodes within a window and produces WindowStats.
type Collector struct {
	windowEpisodes int
	goalTicks      int

	// Current window tracking
	windowStartEpisode int
	ticks              []float64
	scores             []float64
	ticksMax           int
	scoreMax           int
	feeds              int
	failedFeeds        int
	goalHits           int
	weightChanges      int
}

// NewCollector creates a new stats collector.
// windowEpisodes: how many episodes each stats window covers
// goalTicks: survival that counts as a goal hit
func NewCollector(windowEpisodes, goalTicks int) *Collector {
	if windowEpisodes < 1 {
		windowEpisodes = 1
	}
	return &Collector{
		windowEpisodes: windowEpisodes,
		goalTicks:      goalTicks,
		ticks:          make([]float64, 0, windowEpisodes),
		scores:         make([]float64, 0, windowEpisodes),
	}
}

// Record adds one episode to the current window.
func (c *Collector) Record(r EpisodeRecord) {
	if len(c.ticks) == 0 {
		c.windowStartEpisode = r.Episode
	}
	c.ticks = append(c.ticks, float64(r.Ticks))
	c.scores = append(c.scores, float64(r.Score))
	if r.Ticks > c.ticksMax {
		c.ticksMax = r.Ticks
	}
	if r.Score > c.scoreMax {
		c.scoreMax = r.Score
	}
	c.feeds += r.Feeds
	c.failedFeeds += r.FailedFeeds
	c.weightChanges += r.WeightChanges
	if c.goalTicks > 0 && r.Ticks >= c.goalTicks {
		c.goalHits++
	}
}

// ShouldFlush returns true once the window holds windowEpisodes episodes.
func (c *Collector) ShouldFlush() bool {
	return len(c.ticks) >= c.windowEpisodes
}

// Pending returns the number of episodes in the unflushed window.
func (c *Collector) Pending() int {
	return len(c.ticks)
}

// Flush produces a WindowStats and resets counters for the next window.
// endEpisode is the index of the last recorded episode.
func (c *Collector) Flush(endEpisode int, policy PolicySummary) WindowStats {
	n := len(c.ticks)

	ticksMean, ticksStd, p10, p50, p90 := ComputeTickStats(c.ticks)
	scoreMean, scoreStd, scoreP50 := ComputeScoreStats(c.scores)

	var feedsMean, failedMean float64
	if n > 0 {
		feedsMean = float64(c.feeds) / float64(n)
		failedMean = float64(c.failedFeeds) / float64(n)
	}

	stats := WindowStats{
		WindowStartEpisode: c.windowStartEpisode,
		WindowEndEpisode:   endEpisode,
		Episodes:           n,

		TicksMean: ticksMean,
		TicksStd:  ticksStd,
		TicksP10:  p10,
		TicksP50:  p50,
		TicksP90:  p90,
		TicksMax:  c.ticksMax,

		ScoreMean: scoreMean,
		ScoreStd:  scoreStd,
		ScoreP50:  scoreP50,
		ScoreMax:  c.scoreMax,

		FeedsMean:       feedsMean,
		FailedFeedsMean: failedMean,
		GoalHits:        c.goalHits,

		WeightChanges:    c.weightChanges,
		GreedyFeedLevels: policy.GreedyFeedLevels,
		MostEagerLevel:   policy.MostEagerLevel,
		WeightDrift:      policy.WeightDrift,
	}

	// Reset for next window
	c.windowStartEpisode = endEpisode + 1
	c.ticks = c.ticks[:0]
	c.scores = c.scores[:0]
	c.ticksMax = 0
	c.scoreMax = 0
	c.feeds = 0
	c.failedFeeds = 0
	c.goalHits = 0
	c.weightChanges = 0

	return stats
}

// Package game runs episodes and drives the learner across a training run.
package game

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/pthm-cable/hunger/components"
	"github.com/pthm-cable/hunger/config"
	"github.com/pthm-cable/hunger/neural"
	"github.com/pthm-cable/hunger/telemetry"
)

// Options configures a Trainer beyond what the config file holds.
type Options struct {
	Seed      int64 // 0 = config seed, then time-based
	Episodes  int   // 0 = config episodes
	LogStats  bool  // log window stats, perf and bookmarks
	OutputDir string
	Progress  ProgressFunc // nil = LogProgress
}

// Trainer owns all state of one training run.
type Trainer struct {
	cfg  *config.Config
	seed int64
	rng  *rand.Rand

	policy  *neural.Policy
	actions *neural.ActionRing
	scores  *telemetry.ScoreBoard

	// Telemetry
	collector        *telemetry.Collector
	bookmarkDetector *telemetry.BookmarkDetector
	perfCollector    *telemetry.PerfCollector
	hallOfFame       *telemetry.HallOfFame
	outputManager    *telemetry.OutputManager
	pendingScores    []telemetry.ScoreEntry
	logStats         bool

	progress         ProgressFunc
	progressInterval int

	episodes int // configured episode count
	episode  int // index of the next episode
	last     Trajectory
	finished bool
}

// NewTrainer creates a trainer. The only error source is the output directory.
func NewTrainer(cfg *config.Config, opts Options) (*Trainer, error) {
	seed := opts.Seed
	if seed == 0 {
		seed = cfg.Training.Seed
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	episodes := opts.Episodes
	if episodes <= 0 {
		episodes = cfg.Training.Episodes
	}

	progress := opts.Progress
	if progress == nil {
		progress = LogProgress
	}

	om, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("output: %w", err)
	}
	if err := om.WriteConfig(cfg); err != nil {
		om.Close()
		return nil, fmt.Errorf("output: %w", err)
	}

	rng := rand.New(rand.NewPCG(uint64(seed), uint64(seed)))
	tc := cfg.Telemetry

	t := &Trainer{
		cfg:              cfg,
		seed:             seed,
		rng:              rng,
		policy:           neural.NewPolicy(rng, cfg),
		actions:          neural.NewActionRing(cfg.Derived.NumLevels),
		scores:           telemetry.NewScoreBoard(episodes),
		collector:        telemetry.NewCollector(tc.Window, cfg.Derived.GoalTicks),
		bookmarkDetector: telemetry.NewBookmarkDetector(2*tc.PlateauWindows, cfg.Derived.GoalTicks, tc.PlateauWindows),
		perfCollector:    telemetry.NewPerfCollector(tc.PerfWindow),
		hallOfFame:       telemetry.NewHallOfFame(tc.HallOfFameSize),
		outputManager:    om,
		logStats:         opts.LogStats,
		progress:         progress,
		progressInterval: cfg.Training.ProgressInterval,
		episodes:         episodes,
	}
	return t, nil
}

// Seed returns the RNG seed in use.
func (t *Trainer) Seed() int64 { return t.seed }

// Episode returns the index of the next episode to run.
func (t *Trainer) Episode() int { return t.episode }

// Episodes returns the configured episode count.
func (t *Trainer) Episodes() int { return t.episodes }

// Done reports whether every episode has run.
func (t *Trainer) Done() bool { return t.episode >= t.episodes }

// Policy returns the learner.
func (t *Trainer) Policy() *neural.Policy { return t.policy }

// ScoreBoard returns the run's score board.
func (t *Trainer) ScoreBoard() *telemetry.ScoreBoard { return t.scores }

// HallOfFame returns the best episodes so far.
func (t *Trainer) HallOfFame() *telemetry.HallOfFame { return t.hallOfFame }

// decisionFor returns the greedy policy for the final episode and the
// exploring one otherwise.
func (t *Trainer) decisionFor(episode int) DecisionFunc {
	if episode == t.episodes-1 {
		return t.policy.DecideGreedy
	}
	return func(hunger int) bool {
		return t.policy.DecideStochastic(t.rng, hunger)
	}
}

// Step runs one episode, records it and updates the learner.
// Returns false if every episode has already run.
func (t *Trainer) Step() bool {
	if t.Done() {
		return false
	}
	ep := t.episode

	t.perfCollector.StartStep()
	t.perfCollector.StartPhase(telemetry.PhaseEpisode)

	subject := components.NewSubject(t.cfg.Subject)
	traj := RunEpisode(subject, t.decisionFor(ep), t.actions.Current())

	score := traj.Score()
	t.scores.Append(telemetry.ScoreEntry{Episode: ep, Score: score, Ticks: traj.Survived()})

	t.perfCollector.StartPhase(telemetry.PhaseUpdate)
	changes := 0
	if t.scores.Len() > 1 {
		changes = t.policy.Update(neural.UpdateInput{
			Ticks:    traj.Ticks,
			Hunger:   traj.Hunger,
			Current:  t.actions.Current(),
			Previous: t.actions.Previous(),
			Scores:   t.scores.Last(2),
		})
	}

	t.perfCollector.StartPhase(telemetry.PhaseTelemetry)
	t.recordEpisode(ep, &traj, changes)

	if ep%t.progressInterval == 0 {
		t.progress(ep, traj.Survived())
	}

	t.perfCollector.EndStep()
	t.flushTelemetry(ep)

	t.last = traj
	t.episode++
	t.actions.Advance()
	return true
}

// Run executes the remaining episodes. Cancellation is checked between
// episodes; a cancelled run still finalizes its output and returns the
// partial result together with the context error.
func (t *Trainer) Run(ctx context.Context) (Result, error) {
	for !t.Done() {
		if err := ctx.Err(); err != nil {
			slog.Warn("training interrupted", "episode", t.episode, "error", err)
			return t.Finish(), err
		}
		t.Step()
	}
	return t.Finish(), nil
}

// Finish flushes pending telemetry, writes the final artifacts and returns
// the run result. Calling it again only rebuilds the result.
func (t *Trainer) Finish() Result {
	res := t.result()
	if t.finished {
		return res
	}
	t.finished = true

	if t.collector.Pending() > 0 {
		t.flushWindow(t.episode - 1)
	}
	t.flushScores()
	t.writeFinalArtifacts(res)
	return res
}

// Close closes the output files.
func (t *Trainer) Close() error {
	return t.outputManager.Close()
}

// Result is the outcome of a run, in plain ordered sequences for plotting
// tools.
type Result struct {
	Seed            int64
	Episodes        int // episodes completed
	FinalTicks      int
	FinalScore      int
	GoalTicks       int
	GoalReached     bool
	Ticks           []int     // final episode tick series
	Hunger          []int     // final episode hunger series
	Weights         []float64 // learned weight per hunger level
	InitialWeights  []float64
	PreferredLevels []int // levels where the greedy policy feeds
	MostEager       int   // level with the highest weight
	Best            telemetry.HallEntry
}

func (t *Trainer) result() Result {
	res := Result{
		Seed:            t.seed,
		Episodes:        t.scores.Len(),
		FinalTicks:      t.last.Survived(),
		FinalScore:      t.last.Score(),
		GoalTicks:       t.cfg.Derived.GoalTicks,
		Ticks:           append([]int(nil), t.last.Ticks...),
		Hunger:          append([]int(nil), t.last.Hunger...),
		Weights:         t.policy.Snapshot(),
		InitialWeights:  append([]float64(nil), t.policy.InitialWeights...),
		PreferredLevels: t.policy.PreferredLevels(),
		MostEager:       t.policy.MostEager(),
	}
	res.GoalReached = res.Episodes > 0 && res.FinalTicks >= res.GoalTicks
	if best, ok := t.hallOfFame.Top(); ok {
		res.Best = best
	}
	return res
}

// LogValue implements slog.LogValuer for structured logging.
func (r Result) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("seed", r.Seed),
		slog.Int("episodes", r.Episodes),
		slog.Int("final_ticks", r.FinalTicks),
		slog.Int("final_score", r.FinalScore),
		slog.Int("goal_ticks", r.GoalTicks),
		slog.Bool("goal_reached", r.GoalReached),
		slog.Any("feed_levels", r.PreferredLevels),
		slog.Int("most_eager_level", r.MostEager),
		slog.Int("best_episode", r.Best.Episode),
		slog.Int("best_score", r.Best.Score),
	)
}

package telemetry

import (
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/stat"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkGoalReached       BookmarkType = "goal_reached"
	BookmarkScoreBreakthrough BookmarkType = "score_breakthrough"
	BookmarkScoreCollapse     BookmarkType = "score_collapse"
	BookmarkPolicyPlateau     BookmarkType = "policy_plateau"
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `csv:"type" json:"type"`
	Episode     int          `csv:"episode" json:"episode"`
	Description string       `csv:"description" json:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"episode", b.Episode,
		"description", b.Description,
	)
}

// BookmarkDetector detects interesting moments in a training run.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	goalTicks      int
	plateauWindows int

	// State tracking
	goalSeen           bool
	recentTicksPeak    float64 // peak window mean ticks since the last collapse
	plateauWindowCount int     // consecutive windows with flat mean ticks
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize, goalTicks, plateauWindows int) *BookmarkDetector {
	if plateauWindows < 2 {
		plateauWindows = 2
	}
	if historySize < plateauWindows {
		historySize = plateauWindows
	}
	return &BookmarkDetector{
		history:        make([]WindowStats, historySize),
		historySize:    historySize,
		goalTicks:      goalTicks,
		plateauWindows: plateauWindows,
	}
}

// CheckEpisode reports the first episode that survives the goal duration.
func (bd *BookmarkDetector) CheckEpisode(episode, ticks int) *Bookmark {
	if bd.goalSeen || bd.goalTicks <= 0 || ticks < bd.goalTicks {
		return nil
	}
	bd.goalSeen = true
	return &Bookmark{
		Type:        BookmarkGoalReached,
		Episode:     episode,
		Description: fmt.Sprintf("Survived %d ticks (goal %d)", ticks, bd.goalTicks),
	}
}

// Check analyzes the latest window and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark

	if bd.historyFull || bd.historyIdx > 0 {
		if b := bd.checkScoreBreakthrough(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
		if b := bd.checkScoreCollapse(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
	}

	bd.addToHistory(stats)

	if b := bd.checkPlateau(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	if stats.TicksMean > bd.recentTicksPeak {
		bd.recentTicksPeak = stats.TicksMean
	}

	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats WindowStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

// getHistory returns recorded windows oldest first.
func (bd *BookmarkDetector) getHistory() []WindowStats {
	if !bd.historyFull {
		return bd.history[:bd.historyIdx]
	}
	out := make([]WindowStats, 0, bd.historySize)
	out = append(out, bd.history[bd.historyIdx:]...)
	return append(out, bd.history[:bd.historyIdx]...)
}

func (bd *BookmarkDetector) checkScoreBreakthrough(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}

	var total float64
	for _, h := range history {
		total += h.ScoreMean
	}
	avg := total / float64(len(history))
	if avg <= 0 {
		return nil
	}

	if stats.ScoreMean > avg*1.25 {
		return &Bookmark{
			Type:        BookmarkScoreBreakthrough,
			Episode:     stats.WindowEndEpisode,
			Description: fmt.Sprintf("Mean score %.1f is %.2fx rolling average (%.1f)", stats.ScoreMean, stats.ScoreMean/avg, avg),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkScoreCollapse(stats WindowStats) *Bookmark {
	if bd.recentTicksPeak == 0 {
		return nil
	}

	drop := 1.0 - stats.TicksMean/bd.recentTicksPeak
	if drop > 0.30 {
		oldPeak := bd.recentTicksPeak
		bd.recentTicksPeak = stats.TicksMean

		return &Bookmark{
			Type:        BookmarkScoreCollapse,
			Episode:     stats.WindowEndEpisode,
			Description: fmt.Sprintf("Mean survival dropped %.0f%% from peak %.1f to %.1f", drop*100, oldPeak, stats.TicksMean),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkPlateau(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < bd.plateauWindows {
		bd.plateauWindowCount = 0
		return nil
	}

	recent := history[len(history)-bd.plateauWindows:]
	means := make([]float64, len(recent))
	for i, h := range recent {
		means[i] = h.TicksMean
	}
	mean, std := stat.PopMeanStdDev(means, nil)
	if mean <= 0 {
		bd.plateauWindowCount = 0
		return nil
	}

	// Coefficient of variation below 2%
	if std/mean < 0.02 {
		bd.plateauWindowCount++
	} else {
		bd.plateauWindowCount = 0
	}

	if bd.plateauWindowCount == 1 { // trigger once per plateau
		return &Bookmark{
			Type:        BookmarkPolicyPlateau,
			Episode:     stats.WindowEndEpisode,
			Description: fmt.Sprintf("Mean survival flat at %.1f ticks over %d windows", mean, bd.plateauWindows),
		}
	}
	return nil
}

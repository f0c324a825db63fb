package telemetry

import (
	"encoding/json"
	"sort"
)

// HallEntry is one high-scoring episode.
type HallEntry struct {
	Episode    int   `json:"episode"`
	Score      int   `json:"score"`
	Ticks      int   `json:"ticks"`
	Feeds      int   `json:"feeds"`
	FeedLevels []int `json:"feed_levels"` // hunger at each successful feed, in episode order
}

// HallOfFame keeps the best episodes of a run, highest score first.
// Ties keep the earlier episode ahead.
type HallOfFame struct {
	entries []HallEntry
	maxSize int
}

// NewHallOfFame creates a hall holding at most maxSize episodes.
func NewHallOfFame(maxSize int) *HallOfFame {
	if maxSize < 1 {
		maxSize = 1
	}
	return &HallOfFame{
		entries: make([]HallEntry, 0, maxSize),
		maxSize: maxSize,
	}
}

// Qualifies reports whether an episode with this score would enter the hall.
// Callers use it to skip building FeedLevels for episodes that would not.
func (hof *HallOfFame) Qualifies(score int) bool {
	if len(hof.entries) < hof.maxSize {
		return true
	}
	return score > hof.entries[len(hof.entries)-1].Score
}

// Consider inserts the entry if it ranks within the hall.
// Returns true if the entry was added.
func (hof *HallOfFame) Consider(entry HallEntry) bool {
	if !hof.Qualifies(entry.Score) {
		return false
	}

	// Find insertion point (sorted descending by score)
	idx := sort.Search(len(hof.entries), func(i int) bool {
		return hof.entries[i].Score < entry.Score
	})

	hof.entries = append(hof.entries, HallEntry{})
	copy(hof.entries[idx+1:], hof.entries[idx:])
	hof.entries[idx] = entry

	if len(hof.entries) > hof.maxSize {
		hof.entries = hof.entries[:hof.maxSize]
	}
	return true
}

// Size returns the number of entries.
func (hof *HallOfFame) Size() int {
	return len(hof.entries)
}

// Top returns the best entry, or false if the hall is empty.
func (hof *HallOfFame) Top() (HallEntry, bool) {
	if len(hof.entries) == 0 {
		return HallEntry{}, false
	}
	return hof.entries[0], true
}

// Entries returns a copy of the hall, best first.
func (hof *HallOfFame) Entries() []HallEntry {
	out := make([]HallEntry, len(hof.entries))
	copy(out, hof.entries)
	return out
}

// MarshalJSON serializes the hall of fame to JSON.
func (hof *HallOfFame) MarshalJSON() ([]byte, error) {
	return json.MarshalIndent(struct {
		Entries []HallEntry `json:"entries"`
	}{hof.entries}, "", "  ")
}

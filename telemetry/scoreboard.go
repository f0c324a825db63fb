package telemetry

// ScoreEntry is one finished episode on the score board.
type ScoreEntry struct {
	Episode int `csv:"episode" json:"episode"`
	Score   int `csv:"score" json:"score"`
	Ticks   int `csv:"ticks" json:"ticks"`
}

// ScoreBoard is the append-only record of every episode's score.
type ScoreBoard struct {
	entries []ScoreEntry
	scores  []int
}

// NewScoreBoard creates a board with room for capacity episodes.
func NewScoreBoard(capacity int) *ScoreBoard {
	if capacity < 0 {
		capacity = 0
	}
	return &ScoreBoard{
		entries: make([]ScoreEntry, 0, capacity),
		scores:  make([]int, 0, capacity),
	}
}

// Append records one episode.
func (sb *ScoreBoard) Append(e ScoreEntry) {
	sb.entries = append(sb.entries, e)
	sb.scores = append(sb.scores, e.Score)
}

// Len returns the number of recorded episodes.
func (sb *ScoreBoard) Len() int {
	return len(sb.entries)
}

// Last returns up to the n most recent scores, oldest first. The returned
// slice aliases the board and must not be modified.
func (sb *ScoreBoard) Last(n int) []int {
	if n > len(sb.scores) {
		n = len(sb.scores)
	}
	if n <= 0 {
		return nil
	}
	return sb.scores[len(sb.scores)-n:]
}

// Entries returns a copy of all entries.
func (sb *ScoreBoard) Entries() []ScoreEntry {
	out := make([]ScoreEntry, len(sb.entries))
	copy(out, sb.entries)
	return out
}

// Scores returns a copy of the score series.
func (sb *ScoreBoard) Scores() []int {
	out := make([]int, len(sb.scores))
	copy(out, sb.scores)
	return out
}

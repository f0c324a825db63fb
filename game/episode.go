package game

import (
	"github.com/pthm-cable/hunger/components"
	"github.com/pthm-cable/hunger/neural"
)

// DecisionFunc answers "feed now?" at the given hunger.
type DecisionFunc func(hunger int) bool

// EpisodeState is the runner's state.
type EpisodeState int

const (
	EpisodeRunning EpisodeState = iota
	EpisodeTerminated
)

func (s EpisodeState) String() string {
	if s == EpisodeTerminated {
		return "terminated"
	}
	return "running"
}

// Trajectory is the record of one episode.
type Trajectory struct {
	Ticks   []int // tick number of each record
	Hunger  []int // hunger right after that tick
	Actions *neural.ActionArray

	Feeds       int   // successful feeds
	FailedFeeds int   // feed decisions refused for lack of credit
	FedLevels   []int // hunger at each successful feed, in episode order
}

// Len returns the number of recorded ticks.
func (tr *Trajectory) Len() int {
	return len(tr.Ticks)
}

// Survived returns the tick at which the episode ended.
func (tr *Trajectory) Survived() int {
	if len(tr.Ticks) == 0 {
		return 0
	}
	return tr.Ticks[len(tr.Ticks)-1]
}

// Score is ticks survived plus the sum of every recorded hunger value.
func (tr *Trajectory) Score() int {
	score := tr.Survived()
	for _, h := range tr.Hunger {
		score += h
	}
	return score
}

// Episode advances a subject tick by tick under one decision function.
type Episode struct {
	subject *components.Subject
	decide  DecisionFunc
	state   EpisodeState
	traj    Trajectory
}

// NewEpisode prepares an episode. actions must be cleared by the caller.
func NewEpisode(s *components.Subject, decide DecisionFunc, actions *neural.ActionArray) *Episode {
	return &Episode{
		subject: s,
		decide:  decide,
		traj:    Trajectory{Actions: actions},
	}
}

// State returns the current state.
func (e *Episode) State() EpisodeState {
	return e.state
}

// Step advances one tick. It records the tick, stops on the terminal
// signal, and otherwise lets the decision function act at the new hunger.
// Returns false once the episode has terminated.
func (e *Episode) Step() bool {
	if e.state == EpisodeTerminated {
		return false
	}

	s := e.subject
	terminal := s.Tick(1)
	e.traj.Ticks = append(e.traj.Ticks, s.Ticks)
	e.traj.Hunger = append(e.traj.Hunger, s.Hunger)
	if terminal {
		e.state = EpisodeTerminated
		return false
	}

	hunger := s.Hunger
	if !e.decide(hunger) {
		e.traj.Actions.Set(hunger, false)
		return true
	}

	fed := s.FeedDefault()
	e.traj.Actions.Set(hunger, fed)
	if fed {
		e.traj.Feeds++
		e.traj.FedLevels = append(e.traj.FedLevels, hunger)
	} else {
		e.traj.FailedFeeds++
	}
	return true
}

// Run steps until the subject calls for help. There is no tick cap.
func (e *Episode) Run() Trajectory {
	for e.Step() {
	}
	return e.traj
}

// RunEpisode runs a whole episode and returns its trajectory.
func RunEpisode(s *components.Subject, decide DecisionFunc, actions *neural.ActionArray) Trajectory {
	return NewEpisode(s, decide, actions).Run()
}

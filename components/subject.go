// Package components holds the per-episode simulation state.
package components

import "github.com/pthm-cable/hunger/config"

// Subject is the hungry entity driven through one episode.
// Hunger starts at MaxHunger and never exceeds it; it may dip below zero
// on the tick that ends the episode.
type Subject struct {
	Hunger      int // current hunger level
	MaxHunger   int
	DecayRate   int // hunger lost per tick
	FoodValue   int // hunger restored by FeedDefault
	Ticks       int // elapsed ticks
	FeedCredits int // feeds left
}

// NewSubject creates a full subject.
func NewSubject(cfg config.SubjectConfig) *Subject {
	return &Subject{
		Hunger:      cfg.MaxHunger,
		MaxHunger:   cfg.MaxHunger,
		DecayRate:   cfg.DecayRate,
		FoodValue:   cfg.FoodValue,
		FeedCredits: cfg.FeedCredits,
	}
}

// Tick advances time by span ticks and reports whether the subject is
// now calling for help.
func (s *Subject) Tick(span int) bool {
	s.Hunger -= span * s.DecayRate
	s.Ticks += span
	return s.IsTerminal()
}

// Feed spends one credit to restore amount hunger, capped at MaxHunger.
// With no credits left it returns false and changes nothing.
func (s *Subject) Feed(amount int) bool {
	if s.FeedCredits <= 0 {
		return false
	}
	s.Hunger += amount
	if s.Hunger > s.MaxHunger {
		s.Hunger = s.MaxHunger
	}
	s.FeedCredits--
	return true
}

// FeedDefault feeds the configured food value.
func (s *Subject) FeedDefault() bool {
	return s.Feed(s.FoodValue)
}

// IsTerminal is true once hunger has reached zero.
func (s *Subject) IsTerminal() bool {
	return s.Hunger <= 0
}

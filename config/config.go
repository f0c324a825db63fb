// Package config provides configuration loading and validation for the learner.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid config")

// Config holds all run parameters. It is loaded once and passed to every
// constructor; there is no package-level instance.
type Config struct {
	Subject   SubjectConfig   `yaml:"subject"`
	Learner   LearnerConfig   `yaml:"learner"`
	Training  TrainingConfig  `yaml:"training"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// SubjectConfig holds the hunger model parameters.
type SubjectConfig struct {
	MaxHunger   int `yaml:"max_hunger"`   // Starting and maximum hunger
	DecayRate   int `yaml:"decay_rate"`   // Hunger lost per tick
	FoodValue   int `yaml:"food_value"`   // Hunger restored per feed
	FeedCredits int `yaml:"feed_credits"` // Feeds allowed per episode
}

// LearnerConfig holds policy initialization and update parameters.
type LearnerConfig struct {
	InitMean       float64 `yaml:"init_mean"`
	InitStd        float64 `yaml:"init_std"`
	UnusedWeight   float64 `yaml:"unused_weight"`   // Sentinel for hunger level 0
	ExplorationStd float64 `yaml:"exploration_std"` // Noise sd for stochastic decisions
	PushGain       float64 `yaml:"push_gain"`       // Update amplification
	WeightLimit    float64 `yaml:"weight_limit"`    // Weights clamp to [-limit, limit]
}

// TrainingConfig holds outer loop parameters.
type TrainingConfig struct {
	Episodes         int   `yaml:"episodes"`
	ProgressInterval int   `yaml:"progress_interval"` // Episodes between progress reports
	Seed             int64 `yaml:"seed"`              // 0 = time-based
}

// TelemetryConfig holds stats and output parameters.
type TelemetryConfig struct {
	Window         int `yaml:"window"` // Episodes per stats window
	HallOfFameSize int `yaml:"hall_of_fame_size"`
	PlateauWindows int `yaml:"plateau_windows"`
	PerfWindow     int `yaml:"perf_window"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	NumLevels int // len(weights), one per hunger level in [0, MaxHunger)
	GoalTicks int // survival of a policy that never wastes food
}

// Default returns the embedded defaults.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults: %v", err))
	}
	return cfg
}

// MustLoad is like Load but panics on error.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(fmt.Sprintf("config: failed to load: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.ComputeDerived()

	return cfg, nil
}

// Validate reports the first out-of-range parameter.
func (c *Config) Validate() error {
	s, l, t := c.Subject, c.Learner, c.Training
	switch {
	case s.MaxHunger < 2:
		return fmt.Errorf("%w: subject.max_hunger must be >= 2, got %d", ErrInvalid, s.MaxHunger)
	case s.DecayRate < 1:
		return fmt.Errorf("%w: subject.decay_rate must be >= 1, got %d", ErrInvalid, s.DecayRate)
	case s.FoodValue < 0:
		return fmt.Errorf("%w: subject.food_value must be >= 0, got %d", ErrInvalid, s.FoodValue)
	case s.FeedCredits < 0:
		return fmt.Errorf("%w: subject.feed_credits must be >= 0, got %d", ErrInvalid, s.FeedCredits)
	case !finite(l.InitMean, l.InitStd, l.UnusedWeight, l.ExplorationStd, l.WeightLimit):
		return fmt.Errorf("%w: learner weights and noise must be finite, got init_mean=%g init_std=%g unused_weight=%g exploration_std=%g weight_limit=%g",
			ErrInvalid, l.InitMean, l.InitStd, l.UnusedWeight, l.ExplorationStd, l.WeightLimit)
	case l.InitStd < 0:
		return fmt.Errorf("%w: learner.init_std must be >= 0, got %g", ErrInvalid, l.InitStd)
	case l.ExplorationStd <= 0:
		return fmt.Errorf("%w: learner.exploration_std must be > 0, got %g", ErrInvalid, l.ExplorationStd)
	case l.PushGain <= 0 || !finite(l.PushGain):
		return fmt.Errorf("%w: learner.push_gain must be finite and > 0, got %g", ErrInvalid, l.PushGain)
	case l.WeightLimit <= 0:
		return fmt.Errorf("%w: learner.weight_limit must be > 0, got %g", ErrInvalid, l.WeightLimit)
	case t.Episodes < 1:
		return fmt.Errorf("%w: training.episodes must be >= 1, got %d", ErrInvalid, t.Episodes)
	case t.ProgressInterval < 1:
		return fmt.Errorf("%w: training.progress_interval must be >= 1, got %d", ErrInvalid, t.ProgressInterval)
	}
	return nil
}

func finite(xs ...float64) bool {
	for _, x := range xs {
		if math.IsInf(x, 0) || math.IsNaN(x) {
			return false
		}
	}
	return true
}

// ComputeDerived calculates values derived from loaded config.
// Callers that edit a Config in place must call it again.
func (c *Config) ComputeDerived() {
	s := c.Subject
	c.Derived.NumLevels = s.MaxHunger

	// A feed never lifts hunger past MaxHunger, and from a full subject the
	// lowest level still alive to decide at is floor.
	floor := (s.MaxHunger-1)%s.DecayRate + 1
	gain := min(s.FoodValue, s.MaxHunger-floor)
	budget := s.MaxHunger + s.FeedCredits*gain
	c.Derived.GoalTicks = (budget + s.DecayRate - 1) / s.DecayRate

	if c.Telemetry.Window < 1 {
		c.Telemetry.Window = 1
	}
	if c.Telemetry.PerfWindow < 1 {
		c.Telemetry.PerfWindow = 100
	}
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

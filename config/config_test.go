package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Subject.MaxHunger != 100 {
		t.Errorf("expected max_hunger 100, got %d", cfg.Subject.MaxHunger)
	}
	if cfg.Subject.DecayRate != 1 {
		t.Errorf("expected decay_rate 1, got %d", cfg.Subject.DecayRate)
	}
	if cfg.Subject.FoodValue != 10 {
		t.Errorf("expected food_value 10, got %d", cfg.Subject.FoodValue)
	}
	if cfg.Subject.FeedCredits != 10 {
		t.Errorf("expected feed_credits 10, got %d", cfg.Subject.FeedCredits)
	}
	if cfg.Training.Episodes != 20000 {
		t.Errorf("expected 20000 episodes, got %d", cfg.Training.Episodes)
	}
	if cfg.Learner.InitMean != -1 || cfg.Learner.InitStd != 0.2 {
		t.Errorf("unexpected init distribution N(%g, %g)", cfg.Learner.InitMean, cfg.Learner.InitStd)
	}
	if cfg.Learner.ExplorationStd != 0.5 {
		t.Errorf("expected exploration_std 0.5, got %g", cfg.Learner.ExplorationStd)
	}
}

func TestDerivedGoalTicks(t *testing.T) {
	cfg := Default()
	if cfg.Derived.GoalTicks != 200 {
		t.Errorf("expected goal ticks 200, got %d", cfg.Derived.GoalTicks)
	}
	if cfg.Derived.NumLevels != 100 {
		t.Errorf("expected 100 levels, got %d", cfg.Derived.NumLevels)
	}

	cfg.Subject.DecayRate = 3
	cfg.ComputeDerived()
	// ceil(200 / 3)
	if cfg.Derived.GoalTicks != 67 {
		t.Errorf("expected goal ticks 67 at decay 3, got %d", cfg.Derived.GoalTicks)
	}
}

func TestDerivedGoalTicksClampsOvershoot(t *testing.T) {
	cfg := Default()
	cfg.Subject.FoodValue = 500
	cfg.Subject.DecayRate = 7
	cfg.ComputeDerived()
	// Each feed at hunger 2 restores 98, so ceil((100 + 10*98) / 7)
	if cfg.Derived.GoalTicks != 155 {
		t.Errorf("expected goal ticks 155, got %d", cfg.Derived.GoalTicks)
	}

	cfg.Subject.FoodValue = 99
	cfg.Subject.DecayRate = 1
	cfg.ComputeDerived()
	if cfg.Derived.GoalTicks != 1090 {
		t.Errorf("expected goal ticks 1090, got %d", cfg.Derived.GoalTicks)
	}
}

func TestLoadOverridesOnlyGivenFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")
	data := []byte("subject:\n  feed_credits: 3\ntraining:\n  episodes: 50\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Subject.FeedCredits != 3 {
		t.Errorf("expected feed_credits 3, got %d", cfg.Subject.FeedCredits)
	}
	if cfg.Training.Episodes != 50 {
		t.Errorf("expected 50 episodes, got %d", cfg.Training.Episodes)
	}
	if cfg.Subject.MaxHunger != 100 {
		t.Errorf("max_hunger should keep default, got %d", cfg.Subject.MaxHunger)
	}
	if cfg.Derived.GoalTicks != 130 {
		t.Errorf("expected goal ticks 130, got %d", cfg.Derived.GoalTicks)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte("subject:\n  decay_rate: 0\n"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for decay_rate 0")
	}
	if !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid, got %v", err)
	}
}

func TestLoadRejectsNonFinite(t *testing.T) {
	cases := map[string]string{
		"weight_limit inf":    "learner:\n  weight_limit: .inf\n",
		"init_mean -inf":      "learner:\n  init_mean: -.inf\n",
		"init_std nan":        "learner:\n  init_std: .nan\n",
		"exploration_std nan": "learner:\n  exploration_std: .nan\n",
		"unused_weight inf":   "learner:\n  unused_weight: .inf\n",
		"push_gain inf":       "learner:\n  push_gain: .inf\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.yaml")
			if err := os.WriteFile(path, []byte(body), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); !errors.Is(err, ErrInvalid) {
				t.Errorf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Subject.FoodValue = 7
	path := filepath.Join(t.TempDir(), "out.yaml")

	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML failed: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Subject.FoodValue != 7 {
		t.Errorf("expected food_value 7, got %d", loaded.Subject.FoodValue)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	cfg := Default()
	cp := cfg.Clone()
	cp.Learner.ExplorationStd = 0.1
	if cfg.Learner.ExplorationStd == 0.1 {
		t.Error("Clone shares state with original")
	}
}

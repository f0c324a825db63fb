// Package neural provides the per-hunger-level feeding policy and its
// episode-to-episode update rule.
package neural

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/pthm-cable/hunger/config"
)

// Policy holds one weight per hunger level. sigmoid(weight) above 0.5 means
// "feed". Weight 0 is a sentinel: hunger 0 ends the episode before any
// decision is made there.
type Policy struct {
	Weights        []float64
	InitialWeights []float64 // snapshot taken at construction

	maxHunger      float64
	explorationStd float64
	pushGain       float64
	weightLimit    float64
}

// NewPolicy draws every weight from N(init_mean, init_std) using rng.
func NewPolicy(rng *rand.Rand, cfg *config.Config) *Policy {
	lc := cfg.Learner
	n := cfg.Derived.NumLevels

	dist := distuv.Normal{Mu: lc.InitMean, Sigma: lc.InitStd, Src: rng}
	w := make([]float64, n)
	for i := range w {
		if lc.InitStd == 0 {
			w[i] = lc.InitMean
			continue
		}
		w[i] = dist.Rand()
	}
	w[0] = lc.UnusedWeight

	p := &Policy{
		Weights:        w,
		maxHunger:      float64(cfg.Subject.MaxHunger),
		explorationStd: lc.ExplorationStd,
		pushGain:       lc.PushGain,
		weightLimit:    lc.WeightLimit,
	}
	p.InitialWeights = p.Snapshot()
	return p
}

// Sigmoid is the logistic function, evaluated without overflow for large |x|.
func Sigmoid(x float64) float64 {
	if x >= 0 {
		return 1 / (1 + math.Exp(-x))
	}
	e := math.Exp(x)
	return e / (1 + e)
}

// centeredSigmoid returns Sigmoid(x) - 0.5 without cancellation near 0.
func centeredSigmoid(x float64) float64 {
	return 0.5 * math.Tanh(x/2)
}

// level maps a hunger value onto a valid weight index.
func (p *Policy) level(hunger int) int {
	if hunger < 0 {
		return 0
	}
	if hunger >= len(p.Weights) {
		return len(p.Weights) - 1
	}
	return hunger
}

// Probability returns sigmoid(weight) at hunger.
func (p *Policy) Probability(hunger int) float64 {
	return Sigmoid(p.Weights[p.level(hunger)])
}

// DecideStochastic adds N(0, exploration_std) noise drawn from rng to the
// feed probability and feeds if the result exceeds 0.5.
func (p *Policy) DecideStochastic(rng *rand.Rand, hunger int) bool {
	noise := distuv.Normal{Mu: 0, Sigma: p.explorationStd, Src: rng}
	return p.Probability(hunger)+noise.Rand() > 0.5
}

// DecideGreedy feeds iff the feed probability exceeds 0.5.
func (p *Policy) DecideGreedy(hunger int) bool {
	return p.Probability(hunger) > 0.5
}

// UpdateInput is everything the update rule reads from one finished episode.
type UpdateInput struct {
	Ticks    []int // tick number per record
	Hunger   []int // hunger recorded at that tick
	Current  *ActionArray
	Previous *ActionArray
	Scores   []int // score history; the last two entries are compared
}

// Update nudges the weights at levels where this episode acted differently
// from the previous one, toward this episode's action if the score went up
// and away from it if the score went down. For the record at tick t, the
// level is the hunger recorded at the tick before, where the decision was
// taken. Pushes decay as exp(t - lastTick) and every touched weight is
// clamped to [-weight_limit, weight_limit].
//
// Returns the number of weight writes that changed a value.
func (p *Policy) Update(in UpdateInput) int {
	if len(in.Scores) < 2 || len(in.Ticks) == 0 || in.Current == nil || in.Previous == nil {
		return 0
	}
	diff := float64(in.Scores[len(in.Scores)-1] - in.Scores[len(in.Scores)-2])
	centered := centeredSigmoid(diff / p.maxHunger)
	if centered == 0 {
		return 0
	}

	lastTick := in.Ticks[len(in.Ticks)-1]
	changed := 0
	for i := 1; i < len(in.Ticks); i++ {
		hp := in.Hunger[i-1]
		if hp < 1 || hp >= len(p.Weights) {
			continue
		}
		actionDelta := in.Current.At(hp) - in.Previous.At(hp)
		if actionDelta == 0 {
			continue
		}

		recency := math.Exp(float64(in.Ticks[i] - lastTick))
		delta := centered * p.pushGain * float64(actionDelta) * recency

		before := p.Weights[hp]
		p.Weights[hp] = p.clamp(before + delta)
		if p.Weights[hp] != before {
			changed++
		}
	}
	return changed
}

func (p *Policy) clamp(w float64) float64 {
	if w > p.weightLimit {
		return p.weightLimit
	}
	if w < -p.weightLimit {
		return -p.weightLimit
	}
	return w
}

// Snapshot returns a copy of the current weights.
func (p *Policy) Snapshot() []float64 {
	out := make([]float64, len(p.Weights))
	copy(out, p.Weights)
	return out
}

// PreferredLevels returns the hunger levels at which the greedy policy feeds.
func (p *Policy) PreferredLevels() []int {
	var levels []int
	for h := 1; h < len(p.Weights); h++ {
		if p.DecideGreedy(h) {
			levels = append(levels, h)
		}
	}
	return levels
}

// Drift returns the summed absolute change from the initial weights,
// excluding the sentinel.
func (p *Policy) Drift() float64 {
	if len(p.Weights) < 2 {
		return 0
	}
	d := make([]float64, len(p.Weights)-1)
	floats.SubTo(d, p.Weights[1:], p.InitialWeights[1:])
	return floats.Norm(d, 1)
}

// MostEager returns the hunger level with the highest weight, excluding the
// sentinel.
func (p *Policy) MostEager() int {
	if len(p.Weights) < 2 {
		return 0
	}
	return floats.MaxIdx(p.Weights[1:]) + 1
}

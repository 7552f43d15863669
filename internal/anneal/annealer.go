package anneal

import (
	"context"
	"math"
	"math/rand"
	"time"

	"decipher/internal/lm"
)

// Config holds the annealing schedule. All three schedule values are
// required; parameters are immutable once the Annealer is constructed.
type Config struct {
	// InitialTemperature is the starting temperature. Must be positive.
	InitialTemperature float64

	// CoolingRate is the per-iteration multiplicative decay of the
	// temperature. Must be strictly inside (0, 1).
	CoolingRate float64

	// Threshold is the temperature at which the search halts. Must be
	// positive and small relative to InitialTemperature.
	Threshold float64

	// RandomSeed seeds the search's random number generator. Zero
	// selects a time-based seed.
	RandomSeed int64

	// Hook, if set, receives per-iteration progress.
	Hook Hook
}

// Hook is an optional callback invoked once per iteration.
type Hook func(iteration, planned int, energy, temperature float64)

// Result is the outcome of one annealing run.
type Result struct {
	// Best is the final chain state when cooling finished. It is not
	// necessarily the lowest-energy hypothesis ever visited; callers
	// wanting a strict best-of-run must track it themselves.
	Best *Permutation

	// Energy is Best's energy on the ciphertext.
	Energy float64

	// Iterations is the number of cooling steps performed.
	Iterations int

	// Accepted and Rejected count the acceptance decisions taken.
	Accepted int
	Rejected int
}

// Annealer runs simulated annealing over the permutation neighbor
// graph, using a Metropolis acceptance rule and a geometric cooling
// schedule.
type Annealer struct {
	cfg Config
	rng *rand.Rand
}

// New validates the schedule and creates an Annealer.
func New(cfg Config) (*Annealer, error) {
	if cfg.InitialTemperature <= 0 {
		return nil, NewErrorf("initial temperature must be positive, got %v", cfg.InitialTemperature).WithComponent("annealer")
	}
	if cfg.CoolingRate <= 0 || cfg.CoolingRate >= 1 {
		return nil, NewErrorf("cooling rate must be in (0, 1), got %v", cfg.CoolingRate).WithComponent("annealer")
	}
	if cfg.Threshold <= 0 {
		return nil, NewErrorf("threshold must be positive, got %v", cfg.Threshold).WithComponent("annealer")
	}

	rng := rand.New(rand.NewSource(cfg.RandomSeed))
	if cfg.RandomSeed == 0 {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return &Annealer{cfg: cfg, rng: rng}, nil
}

// PlannedIterations returns the number of cooling steps the schedule
// will perform before the temperature drops to the threshold.
func (a *Annealer) PlannedIterations() int {
	return PlannedIterations(a.cfg)
}

// PlannedIterations computes ceil(log(threshold/t0) / log(rate)), the
// deterministic bound on the cooling loop.
func PlannedIterations(cfg Config) int {
	return int(math.Ceil(math.Log(cfg.Threshold/cfg.InitialTemperature) / math.Log(cfg.CoolingRate)))
}

// Run searches for a low-energy permutation starting from initial.
//
// Each iteration draws a random neighbor, computes the energy delta,
// accepts downhill moves unconditionally and uphill moves with
// probability exp(-delta/t), then cools the temperature. The loop stops
// once the temperature reaches the threshold and returns the final
// accepted hypothesis. The context is checked between iterations so a
// host can bound the run.
func (a *Annealer) Run(ctx context.Context, initial *Permutation, ciphertext string, model *lm.Model) (*Result, error) {
	if initial == nil {
		return nil, NewError("initial permutation is required").WithOperation("Run").WithComponent("annealer")
	}

	current := initial
	currentEnergy, err := current.Energy(ciphertext, model)
	if err != nil {
		return nil, err
	}

	planned := a.PlannedIterations()
	result := &Result{}

	for t := a.cfg.InitialTemperature; t > a.cfg.Threshold; t *= a.cfg.CoolingRate {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		candidate := current.Neighbor(a.rng)
		candidateEnergy, err := candidate.Energy(ciphertext, model)
		if err != nil {
			return nil, err
		}

		delta := candidateEnergy - currentEnergy
		if accept(delta, t, a.rng) {
			current = candidate
			currentEnergy = candidateEnergy
			result.Accepted++
		} else {
			result.Rejected++
		}

		result.Iterations++
		if a.cfg.Hook != nil {
			a.cfg.Hook(result.Iterations, planned, currentEnergy, t)
		}
	}

	result.Best = current
	result.Energy = currentEnergy
	return result, nil
}

// accept applies the Metropolis criterion: downhill moves always pass,
// uphill moves pass with probability exp(-delta/t).
func accept(delta, t float64, rng *rand.Rand) bool {
	if delta < 0 {
		return true
	}
	return rng.Float64() < math.Exp(-delta/t)
}

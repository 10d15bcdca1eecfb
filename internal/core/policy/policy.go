// Package policy trains a thrust controller against the flight
// environment's Reset/Step contract using episodic policy-gradient ascent.
package policy

import (
	"math/rand"

	"github.com/skylift/skylift/internal/core/flight"
)

// paramDim is the size of the parameter vector: one weight per observation
// component plus a bias.
const paramDim = 4

// Policy is a linear controller with gaussian exploration: the mean thrust
// is a linear function of the observation, and Act perturbs it with
// N(0, σ²) noise. Deterministic given a seeded RNG.
//
// A Policy is safe for concurrent readers; updates must not race with Act.
// The trainer only mutates it between rollout batches.
type Policy struct {
	weights [3]float64
	bias    float64
	sigma   float64
}

// NewPolicy returns a zero-initialized policy with exploration scale sigma.
func NewPolicy(sigma float64) *Policy {
	return &Policy{sigma: sigma}
}

// Mean returns the deterministic thrust command for obs. Use this for
// deployment; use Act during training.
func (p *Policy) Mean(obs flight.Observation) float64 {
	return p.weights[0]*obs.Altitude + p.weights[1]*obs.Velocity + p.weights[2]*obs.Fuel + p.bias
}

// Act samples an exploratory thrust command around the mean.
func (p *Policy) Act(obs flight.Observation, rng *rand.Rand) float64 {
	return p.Mean(obs) + p.sigma*rng.NormFloat64()
}

// Sigma returns the exploration scale.
func (p *Policy) Sigma() float64 { return p.sigma }

// Params returns a copy of the parameter vector [w_alt, w_vel, w_fuel, b].
func (p *Policy) Params() []float64 {
	return []float64{p.weights[0], p.weights[1], p.weights[2], p.bias}
}

// SetParams overwrites the parameter vector. Short slices leave the tail
// unchanged.
func (p *Policy) SetParams(params []float64) {
	for i, v := range params {
		switch i {
		case 0, 1, 2:
			p.weights[i] = v
		case 3:
			p.bias = v
		default:
			return
		}
	}
}

// GradLogProb returns ∂ log π(action|obs) / ∂ params for the gaussian
// policy, evaluated at the given action.
func (p *Policy) GradLogProb(obs flight.Observation, action float64) []float64 {
	z := (action - p.Mean(obs)) / (p.sigma * p.sigma)
	return []float64{z * obs.Altitude, z * obs.Velocity, z * obs.Fuel, z}
}

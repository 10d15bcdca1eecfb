// Package flight implements a deterministic discrete-time simulation of
// vertical ascent and descent under thrust and gravity. It exposes the
// conventional agent/environment control loop: Reset starts an episode,
// Step advances it by one time step and returns an observation, a reward,
// and a termination flag.
//
// One Environment instance is owned by exactly one caller. The package
// defines no locking; concurrent rollouts must each own an independent
// instance.
package flight

import (
	"fmt"
	"math"

	"github.com/skylift/skylift/internal/core/observability/log"
)

// Reward shaping constants.
const (
	apogeeBonus    = 50  // granted once, when the launch phase ends
	landingReward  = 100 // terminal reward for a safe touchdown
	crashPenalty   = 100 // terminal penalty for a hard touchdown
	fuelBurnFactor = 0.5 // fuel burned per unit thrust per second
	fuelCostFactor = 0.1 // reward shaping per unit of fuel burned
)

// Environment is one episode's simulation. Construct with New, drive with
// Reset and Step.
type Environment struct {
	cfg   Config
	state State
	log   log.Log
}

// Option configures an Environment.
type Option func(*Environment)

// WithLogger routes Render output through the given logger instead of the
// default no-op logger.
func WithLogger(l log.Log) Option {
	return func(e *Environment) { e.log = l }
}

// New validates cfg and returns an environment positioned at the start of
// an episode, as if Reset had been called.
func New(cfg Config, opts ...Option) (*Environment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Environment{cfg: cfg, log: log.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	e.Reset()
	return e, nil
}

// Config returns the immutable episode configuration.
func (e *Environment) Config() Config { return e.cfg }

// State returns a copy of the full current state. Observations returned by
// Step are a projection of this.
func (e *Environment) State() State { return e.state }

// Reset deterministically reinitializes the episode and returns the first
// observation. It never fails.
func (e *Environment) Reset() Observation {
	e.state = State{
		Altitude: e.cfg.InitialAltitude,
		Fuel:     e.cfg.InitialFuel,
		Phase:    PhaseLaunch,
	}
	return e.state.Observation()
}

// Step advances the simulation by one time step under the given thrust
// command. The command is clamped to [0, MaxThrust]; no input is rejected.
// It returns the new observation, the step reward, whether the episode
// terminated, and an (always empty) info map.
//
// Stepping a terminated episode returns ErrEpisodeDone and mutates nothing.
func (e *Environment) Step(thrust float64) (Observation, float64, bool, map[string]any, error) {
	if e.state.Done {
		return e.state.Observation(), 0, true, map[string]any{}, ErrEpisodeDone
	}

	if thrust < 0 {
		thrust = 0
	} else if thrust > e.cfg.MaxThrust {
		thrust = e.cfg.MaxThrust
	}

	// Fuel burns with applied thrust but does not limit it: an empty tank
	// still produces acceleration.
	burned := thrust * e.cfg.TimeStep * fuelBurnFactor
	e.state.Fuel = math.Max(e.state.Fuel-burned, 0)

	accel := thrust/e.cfg.Mass + e.cfg.Gravity
	e.state.Velocity += accel * e.cfg.TimeStep
	e.state.Altitude += e.state.Velocity * e.cfg.TimeStep
	e.state.TimeElapsed += e.cfg.TimeStep

	var reward float64

	// Launch -> Landing flips exactly once per episode, the first time the
	// target altitude is reached. Velocity is forced downward so descent
	// begins immediately.
	if e.state.Phase == PhaseLaunch && e.state.Altitude >= e.cfg.TargetAltitude {
		e.state.Phase = PhaseLanding
		e.state.Velocity = -math.Abs(e.state.Velocity)
		reward = apogeeBonus
	}

	// Touchdown. The terminal reward replaces (not adds to) the apogee
	// bonus when both fire in the same step.
	if e.state.Altitude <= 0 {
		e.state.Altitude = 0
		e.state.Done = true
		if e.state.Velocity >= e.cfg.SafeLandingVelocity {
			reward = landingReward
		} else {
			reward = -crashPenalty
		}
	}

	reward -= burned * fuelCostFactor

	return e.state.Observation(), reward, e.state.Done, map[string]any{}, nil
}

// Render logs one human-readable line describing the current state.
func (e *Environment) Render() {
	s := e.state
	e.log.Info(fmt.Sprintf("t=%6.1fs alt=%8.2fm vel=%+7.2fm/s fuel=%6.2f phase=%s",
		s.TimeElapsed, s.Altitude, s.Velocity, s.Fuel, s.Phase))
}

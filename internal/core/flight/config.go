package flight

import "fmt"

// Config holds the physical constants of an episode. It is fixed at
// construction and never mutated by the environment.
type Config struct {
	// TimeStep is the integration step in seconds.
	TimeStep float64 `json:"time_step" yaml:"time_step"`
	// Gravity is the gravitational acceleration in m/s^2. Must be negative.
	Gravity float64 `json:"gravity" yaml:"gravity"`
	// MaxThrust is the upper bound of the thrust command. Commands are
	// clamped to [0, MaxThrust], never rejected.
	MaxThrust float64 `json:"max_thrust" yaml:"max_thrust"`
	// InitialAltitude is the altitude in meters after Reset.
	InitialAltitude float64 `json:"initial_altitude" yaml:"initial_altitude"`
	// TargetAltitude is the apogee threshold that flips the episode from
	// launch to landing.
	TargetAltitude float64 `json:"target_altitude" yaml:"target_altitude"`
	// SafeLandingVelocity is the least-negative descent speed still
	// considered a safe touchdown.
	SafeLandingVelocity float64 `json:"safe_landing_velocity" yaml:"safe_landing_velocity"`
	// InitialFuel is the propellant budget per episode.
	InitialFuel float64 `json:"initial_fuel" yaml:"initial_fuel"`
	// Mass is the vehicle mass in kg, constant over the episode.
	Mass float64 `json:"mass" yaml:"mass"`
}

// DefaultConfig returns the reference vehicle: a 50 kg craft climbing to
// 100 m, integrated at 10 Hz. Peak thrust-to-weight is about 2, so a full
// burn climbs at roughly one g.
func DefaultConfig() Config {
	return Config{
		TimeStep:            0.1,
		Gravity:             -9.81,
		MaxThrust:           1000,
		InitialAltitude:     0,
		TargetAltitude:      100,
		SafeLandingVelocity: -5,
		InitialFuel:         500,
		Mass:                50,
	}
}

// Validate reports the first physically meaningless setting, if any.
func (c Config) Validate() error {
	if c.TimeStep <= 0 {
		return fmt.Errorf("flight: time_step must be positive, got %v", c.TimeStep)
	}
	if c.Gravity >= 0 {
		return fmt.Errorf("flight: gravity must be negative, got %v", c.Gravity)
	}
	if c.MaxThrust < 0 {
		return fmt.Errorf("flight: max_thrust must be non-negative, got %v", c.MaxThrust)
	}
	if c.Mass <= 0 {
		return fmt.Errorf("flight: mass must be positive, got %v", c.Mass)
	}
	if c.InitialAltitude < 0 {
		return fmt.Errorf("flight: initial_altitude must be non-negative, got %v", c.InitialAltitude)
	}
	if c.TargetAltitude <= c.InitialAltitude {
		return fmt.Errorf("flight: target_altitude must exceed initial_altitude, got %v <= %v",
			c.TargetAltitude, c.InitialAltitude)
	}
	if c.InitialFuel < 0 {
		return fmt.Errorf("flight: initial_fuel must be non-negative, got %v", c.InitialFuel)
	}
	return nil
}

package flight

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// climberConfig returns a vehicle with positive net acceleration at full
// thrust (1000/50 - 9.81 > 0), so ascent tests terminate.
func climberConfig() Config {
	cfg := DefaultConfig()
	cfg.MaxThrust = 1000
	cfg.Mass = 50
	return cfg
}

// fallerConfig starts high enough that free fall exceeds the safe landing
// velocity long before touchdown.
func fallerConfig() Config {
	cfg := DefaultConfig()
	cfg.InitialAltitude = 100
	cfg.TargetAltitude = 200
	return cfg
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero time step", func(c *Config) { c.TimeStep = 0 }},
		{"negative time step", func(c *Config) { c.TimeStep = -0.1 }},
		{"non-negative gravity", func(c *Config) { c.Gravity = 9.81 }},
		{"negative max thrust", func(c *Config) { c.MaxThrust = -1 }},
		{"zero mass", func(c *Config) { c.Mass = 0 }},
		{"negative initial altitude", func(c *Config) { c.InitialAltitude = -5 }},
		{"target below start", func(c *Config) { c.InitialAltitude = 50; c.TargetAltitude = 10 }},
		{"negative fuel", func(c *Config) { c.InitialFuel = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			_, err := New(cfg)
			assert.Error(t, err)
		})
	}
}

func TestResetReturnsInitialObservation(t *testing.T) {
	env, err := New(DefaultConfig())
	require.NoError(t, err)

	obs := env.Reset()
	assert.Equal(t, DefaultConfig().InitialAltitude, obs.Altitude)
	assert.Zero(t, obs.Velocity)
	assert.Equal(t, DefaultConfig().InitialFuel, obs.Fuel)

	st := env.State()
	assert.Equal(t, PhaseLaunch, st.Phase)
	assert.Zero(t, st.TimeElapsed)
	assert.False(t, st.Done)
}

func TestResetAfterEpisode(t *testing.T) {
	env, err := New(fallerConfig())
	require.NoError(t, err)

	for i := 0; i < 10_000; i++ {
		if _, _, done, _, err := env.Step(0); err != nil || done {
			require.NoError(t, err)
			break
		}
	}
	require.True(t, env.State().Done)

	obs := env.Reset()
	assert.Equal(t, fallerConfig().InitialAltitude, obs.Altitude)
	assert.False(t, env.State().Done)
	assert.Equal(t, PhaseLaunch, env.State().Phase)
}

func TestFuelMonotonicAndAltitudeNonNegative(t *testing.T) {
	env, err := New(climberConfig())
	require.NoError(t, err)

	// Vary the command to exercise both burn and coast.
	thrusts := []float64{1000, 0, 700, 300, 0, 1000, 50}
	prevFuel := env.State().Fuel

	for i := 0; i < 5_000; i++ {
		obs, _, done, _, err := env.Step(thrusts[i%len(thrusts)])
		require.NoError(t, err)
		assert.GreaterOrEqual(t, obs.Altitude, 0.0, "altitude observed negative at step %d", i)
		assert.LessOrEqual(t, obs.Fuel, prevFuel, "fuel increased at step %d", i)
		assert.GreaterOrEqual(t, obs.Fuel, 0.0, "fuel negative at step %d", i)
		prevFuel = obs.Fuel
		if done {
			break
		}
	}
}

func TestFullThrustReachesTargetAndFlipsPhaseOnce(t *testing.T) {
	cfg := climberConfig()
	env, err := New(cfg)
	require.NoError(t, err)

	transitions := 0
	prevAlt := env.State().Altitude
	var bonusReward float64

	for i := 0; i < 10_000; i++ {
		before := env.State().Phase
		obs, reward, done, _, err := env.Step(cfg.MaxThrust)
		require.NoError(t, err)

		if before == PhaseLaunch && env.State().Phase == PhaseLanding {
			transitions++
			bonusReward = reward
			// Descent must begin immediately.
			assert.LessOrEqual(t, env.State().Velocity, 0.0)
			assert.GreaterOrEqual(t, obs.Altitude, cfg.TargetAltitude)
			break
		}

		// Strictly climbing until apogee under positive net acceleration.
		assert.Greater(t, obs.Altitude, prevAlt, "altitude not increasing at step %d", i)
		prevAlt = obs.Altitude
		require.False(t, done)
	}

	require.Equal(t, 1, transitions, "launch phase must end exactly once")

	// The apogee step pays +50 minus the fuel shaping for that step's burn.
	burn := cfg.MaxThrust * cfg.TimeStep * fuelBurnFactor
	assert.InDelta(t, apogeeBonus-burn*fuelCostFactor, bonusReward, 1e-9)

	// Coast down: the phase never returns to launch.
	for i := 0; i < 10_000; i++ {
		_, _, done, _, err := env.Step(0)
		require.NoError(t, err)
		assert.Equal(t, PhaseLanding, env.State().Phase)
		if done {
			return
		}
	}
	t.Fatal("episode did not terminate during descent")
}

func TestZeroThrustCrashes(t *testing.T) {
	env, err := New(fallerConfig())
	require.NoError(t, err)

	for i := 0; i < 10_000; i++ {
		obs, reward, done, info, err := env.Step(0)
		require.NoError(t, err)
		assert.Empty(t, info)
		if done {
			assert.Zero(t, obs.Altitude)
			// No burn means no shaping term: the crash penalty is exact.
			assert.Equal(t, float64(-crashPenalty), reward)
			assert.Less(t, env.State().Velocity, fallerConfig().SafeLandingVelocity)
			return
		}
	}
	t.Fatal("free fall did not terminate")
}

func TestImmediateSafeTouchdown(t *testing.T) {
	// From altitude zero with no thrust, the first step dips below ground
	// at well under the safe landing speed.
	env, err := New(DefaultConfig())
	require.NoError(t, err)

	obs, reward, done, _, err := env.Step(0)
	require.NoError(t, err)
	assert.True(t, done)
	assert.Zero(t, obs.Altitude)
	assert.Equal(t, float64(landingReward), reward)
}

func TestThrustCommandClamped(t *testing.T) {
	cfg := climberConfig()

	over, err := New(cfg)
	require.NoError(t, err)
	max, err := New(cfg)
	require.NoError(t, err)

	// A command above MaxThrust behaves exactly like MaxThrust.
	obsOver, rOver, _, _, err := over.Step(cfg.MaxThrust * 10)
	require.NoError(t, err)
	obsMax, rMax, _, _, err := max.Step(cfg.MaxThrust)
	require.NoError(t, err)
	assert.Equal(t, obsMax, obsOver)
	assert.Equal(t, rMax, rOver)

	// A negative command burns no fuel.
	neg, err := New(cfg)
	require.NoError(t, err)
	obsNeg, _, _, _, err := neg.Step(-50)
	require.NoError(t, err)
	assert.Equal(t, cfg.InitialFuel, obsNeg.Fuel)
}

func TestStepAfterDoneRejected(t *testing.T) {
	env, err := New(fallerConfig())
	require.NoError(t, err)

	for i := 0; i < 10_000; i++ {
		if _, _, done, _, err := env.Step(0); err != nil || done {
			require.NoError(t, err)
			break
		}
	}
	require.True(t, env.State().Done)
	frozen := env.State()

	obs, reward, done, _, err := env.Step(500)
	assert.ErrorIs(t, err, ErrEpisodeDone)
	assert.True(t, done)
	assert.Zero(t, reward)
	assert.Equal(t, frozen, env.State(), "terminated state must not mutate")
	assert.Equal(t, frozen.Observation(), obs)
}

func TestFuelDoesNotLimitThrust(t *testing.T) {
	cfg := climberConfig()
	cfg.InitialFuel = 1 // empty after the first burn
	env, err := New(cfg)
	require.NoError(t, err)

	_, _, _, _, err = env.Step(cfg.MaxThrust)
	require.NoError(t, err)
	require.Zero(t, env.State().Fuel)

	// Thrust still accelerates the vehicle on an empty tank.
	vBefore := env.State().Velocity
	_, _, _, _, err = env.Step(cfg.MaxThrust)
	require.NoError(t, err)
	accel := cfg.MaxThrust/cfg.Mass + cfg.Gravity
	assert.InDelta(t, vBefore+accel*cfg.TimeStep, env.State().Velocity, 1e-9)
}

func TestRenderDoesNotMutate(t *testing.T) {
	env, err := New(DefaultConfig())
	require.NoError(t, err)

	before := env.State()
	env.Render()
	assert.Equal(t, before, env.State())
}

package flight

// Phase is the coarse flight stage of an episode.
type Phase uint8

const (
	// PhaseLaunch covers the ascent toward the target altitude.
	PhaseLaunch Phase = iota
	// PhaseLanding covers the descent back to the ground.
	PhaseLanding
)

func (p Phase) String() string {
	switch p {
	case PhaseLaunch:
		return "launch"
	case PhaseLanding:
		return "landing"
	default:
		return "unknown"
	}
}

// MarshalText renders the phase as its name in JSON and YAML output.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Observation is the 3-tuple handed to the controlling policy after every
// transition. External optimizers depend on its exact shape and ordering.
type Observation struct {
	Altitude float64 `json:"altitude"`
	Velocity float64 `json:"velocity"`
	Fuel     float64 `json:"fuel"`
}

// State is the full mutable state of one episode. It is owned exclusively
// by a single Environment instance.
type State struct {
	Altitude    float64 `json:"altitude"` // meters, never negative
	Velocity    float64 `json:"velocity"` // m/s, signed (negative = descending)
	Fuel        float64 `json:"fuel"`     // remaining propellant, never negative
	TimeElapsed float64 `json:"timeElapsed"`
	Phase       Phase   `json:"phase"`
	Done        bool    `json:"done"`
}

// Observation projects the state onto the tuple visible to the policy.
func (s State) Observation() Observation {
	return Observation{Altitude: s.Altitude, Velocity: s.Velocity, Fuel: s.Fuel}
}

package flight

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
)

// Frame records one transition of an episode: the command issued and what
// came back.
type Frame struct {
	Step   int         `json:"step"`
	Thrust float64     `json:"thrust"`
	Obs    Observation `json:"obs"`
	Reward float64     `json:"reward"`
	Done   bool        `json:"done"`
}

// Trace accumulates the frames of one episode. The zero value is ready to
// use.
type Trace struct {
	frames []Frame
}

// Append records one transition.
func (t *Trace) Append(thrust float64, obs Observation, reward float64, done bool) {
	t.frames = append(t.frames, Frame{
		Step:   len(t.frames),
		Thrust: thrust,
		Obs:    obs,
		Reward: reward,
		Done:   done,
	})
}

// Frames returns the recorded transitions in order.
func (t *Trace) Frames() []Frame { return t.frames }

// Len returns the number of recorded transitions.
func (t *Trace) Len() int { return len(t.frames) }

// Reset discards all recorded frames, keeping capacity.
func (t *Trace) Reset() { t.frames = t.frames[:0] }

// Digest returns an xxhash over the canonical little-endian encoding of the
// trace. The simulation is free of randomness, so two episodes with the
// same configuration and action sequence hash identically, bit for bit.
func (t *Trace) Digest() uint64 {
	h := xxhash.New()
	var buf [8]byte
	writeF64 := func(v float64) {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		_, _ = h.Write(buf[:])
	}
	for _, f := range t.frames {
		binary.LittleEndian.PutUint64(buf[:], uint64(f.Step))
		_, _ = h.Write(buf[:])
		writeF64(f.Thrust)
		writeF64(f.Obs.Altitude)
		writeF64(f.Obs.Velocity)
		writeF64(f.Obs.Fuel)
		writeF64(f.Reward)
		if f.Done {
			_, _ = h.Write([]byte{1})
		} else {
			_, _ = h.Write([]byte{0})
		}
	}
	return h.Sum64()
}

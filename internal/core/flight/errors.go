package flight

import "errors"

// Sentinel errors for the flight package.
// Use errors.Is to check: errors.Is(err, flight.ErrEpisodeDone)
var (
	// ErrEpisodeDone is returned by Step once the vehicle has touched down.
	// The terminated state is frozen; call Reset to begin a new episode.
	ErrEpisodeDone = errors.New("flight: episode already terminated, call Reset")
)

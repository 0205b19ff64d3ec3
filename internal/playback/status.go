// Package playback owns the playback state machine. It drives the injected
// engine against a fixed playlist, applies the track transition policy, and
// publishes state snapshots to subscribers.
package playback

// Status represents the playback state.
//
// States: Idle -> Loading -> (Playing | Paused) -> Ended, with Error
// reachable from Loading and Playing/Paused. Ended is transient: it is
// immediately followed by an auto-advance load of the next track. There is
// no terminal state; the controller stays usable after any failure.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusPlaying
	StatusPaused
	StatusEnded
	StatusError
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "Idle"
	case StatusLoading:
		return "Loading"
	case StatusPlaying:
		return "Playing"
	case StatusPaused:
		return "Paused"
	case StatusEnded:
		return "Ended"
	case StatusError:
		return "Error"
	default:
		return "Unknown"
	}
}

// IsActive returns true if a resource is loaded and usable (playing or paused).
func (s Status) IsActive() bool {
	return s == StatusPlaying || s == StatusPaused
}

// Package engine wraps the underlying audio playback primitive behind a
// narrow contract. One engine owns at most one playable resource at a time;
// loading a new source replaces the previous one.
//
// Every Load call carries the caller's generation token. The engine stamps
// all events for the loaded resource with that token so that the controller
// can discard events from a resource it has already abandoned.
package engine

import (
	"time"

	"github.com/cockroachdb/errors"
)

// Errors reported by engine implementations.
var (
	// ErrNoResource is returned by Play when nothing is loaded.
	ErrNoResource = errors.New("engine: no resource loaded")
	// ErrUnsupportedFormat is returned by Load for unknown audio formats.
	ErrUnsupportedFormat = errors.New("engine: unsupported format")
	// ErrPlaybackBlocked is returned by Play when the platform refuses to
	// start playback even though the call itself was correct.
	ErrPlaybackBlocked = errors.New("engine: playback blocked")
	// ErrLoadSuperseded is returned by Load when a newer load settled
	// first; the late result is discarded.
	ErrLoadSuperseded = errors.New("engine: load superseded")
)

// Metadata describes a successfully loaded resource.
// A zero Duration means the duration is not known (e.g. a live stream).
type Metadata struct {
	Duration time.Duration
}

// EventKind identifies the type of an engine event.
type EventKind int

const (
	EventTimeUpdate  EventKind = iota // playback position advanced
	EventStateChange                  // engine-side play/pause flip
	EventFinished                     // resource played to the end
	EventError                        // asynchronous engine failure
)

// String returns the event kind name.
func (k EventKind) String() string {
	switch k {
	case EventTimeUpdate:
		return "time_update"
	case EventStateChange:
		return "state_change"
	case EventFinished:
		return "finished"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is an asynchronous notification from the engine.
// Gen is the generation token of the resource the event belongs to.
type Event struct {
	Gen      uint64
	Kind     EventKind
	Position time.Duration // set for EventTimeUpdate
	Playing  bool          // set for EventStateChange
	Err      error         // set for EventError
}

// Interface defines the engine contract for dependency injection and testing.
//
// Load and Play block until the engine settles and are expected to be called
// from dedicated goroutines. Pause, SeekTo and SetVolume are synchronous and
// never fail. Events delivers notifications for the currently loaded
// resource; the channel is never closed — consumers stop on their own
// shutdown signal. Events emitted after Close are discarded.
type Interface interface {
	Load(src string, gen uint64) (Metadata, error)
	Play() error
	Pause()
	SeekTo(pos time.Duration)
	SetVolume(level float64)
	Events() <-chan Event
	Close() error
}

package playback

import (
	"time"

	"github.com/lmenard/spindle/internal/playlist"
)

// ErrorKind classifies a surfaced playback failure.
type ErrorKind int

const (
	// KindLoadFailure means the resource could not be fetched or decoded.
	KindLoadFailure ErrorKind = iota
	// KindPlaybackBlocked means the engine refused to start or sustain
	// playback, typically a platform autoplay restriction.
	KindPlaybackBlocked
)

// String returns the error kind name.
func (k ErrorKind) String() string {
	switch k {
	case KindLoadFailure:
		return "load_failure"
	case KindPlaybackBlocked:
		return "playback_blocked"
	default:
		return "unknown"
	}
}

// ErrorEvent is a surfaced playback failure.
type ErrorEvent struct {
	Kind ErrorKind
	Op   string // e.g. "load", "play"
	Err  error
}

// Snapshot is the full published playback state. Subscribers receive one on
// every change; all fields are values, safe to retain.
type Snapshot struct {
	Index         int
	Track         playlist.Track
	Status        Status
	Position      time.Duration
	Duration      time.Duration // meaningful only when DurationKnown
	DurationKnown bool
	Volume        float64
	Previewing    bool // a seek drag is in progress; Position tracks it
	Err           *ErrorEvent
}

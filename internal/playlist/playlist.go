// Package playlist provides the fixed, circular track list that playback
// navigates over. The list is built once at startup and never mutated.
package playlist

import "github.com/cockroachdb/errors"

// ErrEmpty is returned when a playlist is constructed without tracks.
var ErrEmpty = errors.New("playlist: needs at least one track")

// Track is a single playlist entry. Tracks have no identity beyond their
// position in the playlist.
type Track struct {
	Title    string
	Subtitle string
	AudioSrc string // file path or URL for playback
	CoverSrc string // cover image path or URL, may be empty
}

// Playlist holds an ordered, immutable collection of tracks.
// Index arithmetic is circular: any integer maps onto a valid index.
type Playlist struct {
	tracks []Track
}

// New creates a playlist from the given tracks.
// Returns ErrEmpty if no tracks are provided.
func New(tracks ...Track) (*Playlist, error) {
	if len(tracks) == 0 {
		return nil, ErrEmpty
	}
	owned := make([]Track, len(tracks))
	copy(owned, tracks)
	return &Playlist{tracks: owned}, nil
}

// Len returns the number of tracks.
func (p *Playlist) Len() int {
	return len(p.tracks)
}

// Normalize maps any integer onto a valid index by wrapping around the
// playlist length. Negative values wrap from the end.
func (p *Playlist) Normalize(index int) int {
	n := len(p.tracks)
	i := index % n
	if i < 0 {
		i += n
	}
	return i
}

// Track returns the track at the given index, wrapping if out of range.
func (p *Playlist) Track(index int) Track {
	return p.tracks[p.Normalize(index)]
}

// Tracks returns a copy of all tracks.
func (p *Playlist) Tracks() []Track {
	result := make([]Track, len(p.tracks))
	copy(result, p.tracks)
	return result
}

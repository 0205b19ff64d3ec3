package playlist

import (
	"errors"
	"testing"
)

func sixTracks() *Playlist {
	p, err := New(
		Track{Title: "a", AudioSrc: "/music/a.mp3"},
		Track{Title: "b", AudioSrc: "/music/b.mp3"},
		Track{Title: "c", AudioSrc: "/music/c.mp3"},
		Track{Title: "d", AudioSrc: "/music/d.mp3"},
		Track{Title: "e", AudioSrc: "/music/e.mp3"},
		Track{Title: "f", AudioSrc: "/music/f.mp3"},
	)
	if err != nil {
		panic(err)
	}
	return p
}

func TestNew_Empty_ReturnsError(t *testing.T) {
	_, err := New()
	if !errors.Is(err, ErrEmpty) {
		t.Fatalf("New() error = %v, want ErrEmpty", err)
	}
}

func TestPlaylist_Len(t *testing.T) {
	p := sixTracks()
	if p.Len() != 6 {
		t.Errorf("Len() = %d, want 6", p.Len())
	}
}

func TestPlaylist_Normalize(t *testing.T) {
	p := sixTracks()

	tests := []struct {
		index int
		want  int
	}{
		{0, 0},
		{5, 5},
		{6, 0},  // next from last wraps to first
		{-1, 5}, // prev from first wraps to last
		{7, 1},
		{-7, 5},
		{12, 0},
		{-12, 0},
	}
	for _, tt := range tests {
		if got := p.Normalize(tt.index); got != tt.want {
			t.Errorf("Normalize(%d) = %d, want %d", tt.index, got, tt.want)
		}
	}
}

func TestPlaylist_Normalize_RoundTrip(t *testing.T) {
	p := sixTracks()

	// n forward steps from i always land on (i+n) mod len
	for i := range p.Len() {
		idx := i
		for n := 1; n <= 13; n++ {
			idx = p.Normalize(idx + 1)
			if want := p.Normalize(i + n); idx != want {
				t.Fatalf("%d steps from %d = %d, want %d", n, i, idx, want)
			}
		}
	}
}

func TestPlaylist_Track_Wraps(t *testing.T) {
	p := sixTracks()

	if got := p.Track(6); got.Title != "a" {
		t.Errorf("Track(6).Title = %q, want a", got.Title)
	}
	if got := p.Track(-1); got.Title != "f" {
		t.Errorf("Track(-1).Title = %q, want f", got.Title)
	}
}

func TestPlaylist_Tracks_ReturnsCopy(t *testing.T) {
	p := sixTracks()

	tracks := p.Tracks()
	tracks[0].Title = "mutated"

	if p.Track(0).Title != "a" {
		t.Error("mutating Tracks() result changed the playlist")
	}
}

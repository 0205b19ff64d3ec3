package playlist

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
)

// Entry is a raw playlist entry as declared in configuration.
// Title and Subtitle are optional; missing values are filled from embedded
// tags when the audio source is a readable local file.
type Entry struct {
	Title    string
	Subtitle string
	Audio    string
	Cover    string
}

// FromEntries builds a playlist from configuration entries.
// Returns ErrEmpty if no entries are given.
func FromEntries(entries []Entry) (*Playlist, error) {
	tracks := make([]Track, 0, len(entries))
	for _, e := range entries {
		t := Track{
			Title:    e.Title,
			Subtitle: e.Subtitle,
			AudioSrc: e.Audio,
			CoverSrc: e.Cover,
		}
		if t.Title == "" || t.Subtitle == "" {
			fillFromTags(&t)
		}
		if t.Title == "" {
			t.Title = titleFromSource(t.AudioSrc)
		}
		tracks = append(tracks, t)
	}
	return New(tracks...)
}

// fillFromTags reads embedded metadata from a local audio file and fills
// missing Title/Subtitle fields. Remote sources and unreadable files are
// left as-is.
func fillFromTags(t *Track) {
	if isRemote(t.AudioSrc) {
		return
	}
	f, err := os.Open(t.AudioSrc)
	if err != nil {
		return
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return
	}
	if t.Title == "" {
		t.Title = m.Title()
	}
	if t.Subtitle == "" {
		t.Subtitle = m.Artist()
	}
}

// titleFromSource derives a display title from the audio source path.
func titleFromSource(src string) string {
	base := filepath.Base(src)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func isRemote(src string) bool {
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")
}

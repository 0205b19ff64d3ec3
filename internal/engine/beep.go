package engine

import (
	"io"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/vorbis"
	zlog "github.com/rs/zerolog/log"
)

// All tracks are resampled to a fixed output rate so the speaker is
// initialized exactly once for the engine's lifetime.
const outputSampleRate = beep.SampleRate(44100)

const (
	eventBufferSize    = 32
	timeUpdateInterval = 500 * time.Millisecond
)

var speakerOnce sync.Once

// Engine is the beep-backed implementation of Interface.
// Load prepares a paused resource; Play unpauses it.
type Engine struct {
	mu sync.Mutex

	mixer  *beep.Mixer
	volume *effects.Volume

	ctrl     *beep.Ctrl
	streamer beep.StreamSeekCloser
	format   beep.Format
	source   io.Closer // file or HTTP body backing the streamer
	gen      uint64

	events chan Event
	done   chan struct{}
	closed bool
}

// Verify Engine implements Interface at compile time.
var _ Interface = (*Engine)(nil)

// New creates the engine and starts the output stream.
func New() (*Engine, error) {
	var initErr error
	speakerOnce.Do(func() {
		initErr = speaker.Init(outputSampleRate, outputSampleRate.N(time.Second/10))
	})
	if initErr != nil {
		return nil, errors.Wrap(initErr, "init speaker")
	}

	mixer := &beep.Mixer{}
	vol := &effects.Volume{Streamer: mixer, Base: 2, Volume: 0}
	speaker.Play(vol)

	e := &Engine{
		mixer:  mixer,
		volume: vol,
		events: make(chan Event, eventBufferSize),
		done:   make(chan struct{}),
	}
	go e.tickLoop()
	return e, nil
}

// Load replaces the current resource with the given source, paused.
// src may be a local file path or an http(s) URL.
func (e *Engine) Load(src string, gen uint64) (Metadata, error) {
	reader, err := openSource(src)
	if err != nil {
		return Metadata{}, errors.Wrapf(err, "open %s", src)
	}

	streamer, format, err := decode(src, reader)
	if err != nil {
		reader.Close()
		return Metadata{}, errors.Wrapf(err, "decode %s", src)
	}

	return e.install(src, gen, streamer, format, reader)
}

// install swaps the decoded resource in. Open and decode run unlocked, so
// two overlapping loads can finish out of order; a completion older than
// the installed generation is rejected instead of clobbering the newer
// resource.
func (e *Engine) install(src string, gen uint64, streamer beep.StreamSeekCloser, format beep.Format, reader io.Closer) (Metadata, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		streamer.Close()
		reader.Close()
		return Metadata{}, errors.New("engine: closed")
	}
	if gen < e.gen {
		streamer.Close()
		reader.Close()
		zlog.Debug().Msgf("engine: dropping superseded load %s gen=%d current=%d",
			src, gen, e.gen)
		return Metadata{}, errors.Wrapf(ErrLoadSuperseded, "%s", src)
	}

	e.releaseLocked()

	ctrl := &beep.Ctrl{Streamer: streamer, Paused: true}
	var out beep.Streamer = ctrl
	if format.SampleRate != outputSampleRate {
		out = beep.Resample(4, format.SampleRate, outputSampleRate, ctrl)
	}

	var duration time.Duration
	if n := streamer.Len(); n > 0 {
		duration = format.SampleRate.D(n)
	}

	e.ctrl = ctrl
	e.streamer = streamer
	e.format = format
	e.source = reader
	e.gen = gen

	speaker.Lock()
	e.mixer.Clear()
	e.mixer.Add(beep.Seq(out, beep.Callback(func() {
		e.emit(Event{Gen: gen, Kind: EventFinished})
	})))
	speaker.Unlock()

	zlog.Debug().Msgf("engine: loaded %s gen=%d duration=%v", src, gen, duration)
	return Metadata{Duration: duration}, nil
}

// Play unpauses the current resource.
func (e *Engine) Play() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ctrl == nil {
		return ErrNoResource
	}

	speaker.Lock()
	e.ctrl.Paused = false
	speaker.Unlock()

	e.emit(Event{Gen: e.gen, Kind: EventStateChange, Playing: true})
	return nil
}

// Pause pauses the current resource. No-op when nothing is loaded.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ctrl == nil || e.ctrl.Paused {
		return
	}

	speaker.Lock()
	e.ctrl.Paused = true
	speaker.Unlock()

	e.emit(Event{Gen: e.gen, Kind: EventStateChange, Playing: false})
}

// SeekTo moves the playback position, clamped to the resource bounds.
// No-op when nothing is loaded or the resource is not seekable.
func (e *Engine) SeekTo(pos time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.streamer == nil {
		return
	}

	n := e.format.SampleRate.N(pos)
	n = max(n, 0)
	if total := e.streamer.Len(); total > 0 && n > total {
		n = total
	}

	speaker.Lock()
	err := e.streamer.Seek(n)
	speaker.Unlock()
	if err != nil {
		zlog.Debug().Msgf("engine: seek to %v failed: %v", pos, err)
	}
}

// SetVolume sets the output volume level, clamped to [0, 1].
func (e *Engine) SetVolume(level float64) {
	level = min(max(level, 0), 1)

	speaker.Lock()
	e.volume.Volume = levelToVolume(level)
	e.volume.Silent = level <= 0
	speaker.Unlock()
}

// Events returns the event channel.
func (e *Engine) Events() <-chan Event {
	return e.events
}

// Close stops playback and releases the current resource.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	close(e.done)

	speaker.Lock()
	e.mixer.Clear()
	speaker.Unlock()
	e.releaseLocked()
	return nil
}

// releaseLocked closes the current streamer and its backing source.
func (e *Engine) releaseLocked() {
	if e.streamer != nil {
		e.streamer.Close()
		e.streamer = nil
	}
	if e.source != nil {
		e.source.Close()
		e.source = nil
	}
	e.ctrl = nil
}

// tickLoop emits periodic time updates while the resource is playing.
func (e *Engine) tickLoop() {
	ticker := time.NewTicker(timeUpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.done:
			return
		case <-ticker.C:
			e.tick()
		}
	}
}

func (e *Engine) tick() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ctrl == nil || e.ctrl.Paused || e.streamer == nil {
		return
	}

	speaker.Lock()
	pos := e.format.SampleRate.D(e.streamer.Position())
	speaker.Unlock()

	e.emit(Event{Gen: e.gen, Kind: EventTimeUpdate, Position: pos})
}

// emit sends an event without blocking, dropping it when the buffer is
// full or the engine is shut down. Safe to call from the speaker goroutine
// (beep callbacks), which must not take e.mu.
func (e *Engine) emit(ev Event) {
	select {
	case <-e.done:
		return
	default:
	}
	select {
	case e.events <- ev:
	default:
	}
}

// openSource opens a local file or an HTTP stream.
func openSource(src string) (io.ReadCloser, error) {
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		resp, err := http.Get(src)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, errors.Newf("fetch %s: %s", src, resp.Status)
		}
		return resp.Body, nil
	}
	return os.Open(src)
}

// decode picks a decoder from the source extension.
func decode(src string, r io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error) {
	switch strings.ToLower(filepath.Ext(stripQuery(src))) {
	case ".mp3":
		return mp3.Decode(r)
	case ".flac":
		return flac.Decode(r)
	case ".ogg", ".oga":
		return vorbis.Decode(r)
	default:
		return nil, beep.Format{}, errors.Wrapf(ErrUnsupportedFormat, "%s", src)
	}
}

// stripQuery removes a URL query string so extension sniffing works on URLs.
func stripQuery(src string) string {
	if i := strings.IndexByte(src, '?'); i >= 0 {
		return src[:i]
	}
	return src
}

// levelToVolume converts a 0.0-1.0 level to beep's logarithmic Volume value.
// Volume 0 means no change, -1 half volume, -2 quarter. Levels at or below
// zero map to -10, which is effectively silent.
func levelToVolume(level float64) float64 {
	if level <= 0 {
		return -10
	}
	if level >= 1 {
		return 0
	}
	return math.Log2(level)
}

package playback

import (
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/lmenard/spindle/internal/engine"
	"github.com/lmenard/spindle/internal/playlist"
)

// Controller drives one engine against a fixed playlist, one track at a
// time. It owns all playback state; the engine is only ever mutated from
// here.
//
// Engine Load and Play calls run in goroutines tagged with the generation
// active at issuance. A completion whose generation no longer matches was
// superseded by a newer load and is silently dropped, so a late result from
// an abandoned track can never corrupt the current one. Issuing a new load
// is the only form of cancellation; there is no explicit cancel primitive.
type Controller struct {
	mu sync.Mutex

	engine engine.Interface
	list   *playlist.Playlist

	index         int
	status        Status
	position      time.Duration
	duration      time.Duration
	durationKnown bool
	volume        float64
	previewing    bool
	generation    uint64
	pendingPlay   bool // play chained after the in-flight load settles
	lastErr       *ErrorEvent

	subs   []*Subscription
	subsMu sync.RWMutex

	done   chan struct{}
	closed bool
}

// New creates a controller over the given engine and playlist.
// The initial state is Idle at index 0; nothing is loaded until the first
// Load or Play command.
func New(e engine.Interface, list *playlist.Playlist, volume float64) *Controller {
	c := &Controller{
		engine: e,
		list:   list,
		status: StatusIdle,
		volume: clampVolume(volume),
		done:   make(chan struct{}),
	}
	e.SetVolume(c.volume)
	go c.eventLoop()
	return c
}

// Load switches playback to the track at the given index, wrapping out of
// range values onto the playlist. When autoPlay is set, a play attempt is
// chained after the load settles.
func (c *Controller) Load(index int, autoPlay bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loadLocked(index, autoPlay)
}

// Play starts or resumes playback. From Idle, or after a failed load, it
// reloads the current track first. While loading it arms a play attempt
// for when the load settles. No-op while playing.
func (c *Controller) Play() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.playLocked()
}

// Pause pauses playback immediately. Issued while a load is in flight it
// cancels that load's chained play, so the track settles paused.
func (c *Controller) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pauseLocked()
}

// Toggle pauses when playing, otherwise attempts to play.
func (c *Controller) Toggle() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status == StatusPlaying {
		c.pauseLocked()
	} else {
		c.playLocked()
	}
}

func (c *Controller) playLocked() {
	switch {
	case c.status == StatusPlaying:
		return
	case c.status == StatusLoading:
		c.pendingPlay = true
	case c.status == StatusIdle,
		c.status == StatusError && c.lastErr != nil && c.lastErr.Kind == KindLoadFailure:
		// No usable resource: start a fresh load of the current track.
		c.loadLocked(c.index, true)
	default:
		c.startPlayLocked(c.generation)
	}
}

func (c *Controller) pauseLocked() {
	switch c.status {
	case StatusLoading:
		// The pause was issued after the load command, so it wins over
		// the load's chained play.
		c.pendingPlay = false
	case StatusPlaying:
		c.engine.Pause()
		c.status = StatusPaused
		c.publishLocked()
	}
}

// Next switches to the following track, wrapping past the end, and plays.
func (c *Controller) Next() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loadLocked(c.index+1, true)
}

// Previous switches to the preceding track, wrapping before the start, and
// plays.
func (c *Controller) Previous() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loadLocked(c.index-1, true)
}

// SeekPreview updates the visible position during a seek drag without
// touching the engine. Time updates are suppressed until the drag is
// committed, so the published position tracks the gesture.
func (c *Controller) SeekPreview(pos time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.previewing = true
	c.position = c.clampSeekLocked(pos)
	c.publishLocked()
}

// SeekCommit ends a seek gesture: it writes the engine position exactly
// once and resumes applying engine time updates. Values outside the known
// duration are clamped.
func (c *Controller) SeekCommit(pos time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	clamped := c.clampSeekLocked(pos)
	if clamped != pos {
		zlog.Debug().Msgf("playback: seek %v clamped to %v", pos, clamped)
	}
	c.previewing = false
	c.position = clamped
	c.engine.SeekTo(clamped)
	c.publishLocked()
}

// SetVolume sets the playback volume, clamped to [0, 1].
func (c *Controller) SetVolume(level float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.volume = clampVolume(level)
	c.engine.SetVolume(c.volume)
	c.publishLocked()
}

// Snapshot returns the current playback state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Index returns the current playlist index.
func (c *Controller) Index() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index
}

// Status returns the current playback status.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Position returns the current (or previewed) playback position.
func (c *Controller) Position() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.position
}

// Duration returns the current track duration and whether it is known yet.
// It is unknown from every load until that load's metadata settles.
func (c *Controller) Duration() (time.Duration, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.duration, c.durationKnown
}

// Volume returns the current volume level.
func (c *Controller) Volume() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.volume
}

// CurrentTrack returns the track at the current index.
func (c *Controller) CurrentTrack() playlist.Track {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.list.Track(c.index)
}

// Subscribe creates a new event subscription.
func (c *Controller) Subscribe() *Subscription {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()
	sub := newSubscription()
	c.subs = append(c.subs, sub)
	return sub
}

// Unsubscribe removes a subscription and signals its Done channel.
func (c *Controller) Unsubscribe(sub *Subscription) {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()
	for i, s := range c.subs {
		if s == sub {
			c.subs = append(c.subs[:i], c.subs[i+1:]...)
			sub.close()
			return
		}
	}
}

// Close shuts down the controller and the engine it owns.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.done)
	c.mu.Unlock()

	err := c.engine.Close()

	c.subsMu.Lock()
	for _, sub := range c.subs {
		sub.close()
	}
	c.subs = nil
	c.subsMu.Unlock()

	return err
}

// loadLocked begins a track switch: it advances the generation, resets the
// per-track state, and issues the engine load asynchronously. Any pending
// completions from earlier loads become no-ops from this point on.
func (c *Controller) loadLocked(index int, autoPlay bool) {
	if c.closed {
		return
	}

	idx := c.list.Normalize(index)
	c.generation++
	gen := c.generation
	c.index = idx
	c.status = StatusLoading
	c.position = 0
	c.duration = 0
	c.durationKnown = false
	c.previewing = false
	c.pendingPlay = autoPlay
	c.lastErr = nil

	track := c.list.Track(idx)
	zlog.Debug().Msgf("playback: loading track %d (%s) gen=%d autoplay=%v",
		idx, track.Title, gen, autoPlay)
	c.publishLocked()

	go func() {
		meta, err := c.engine.Load(track.AudioSrc, gen)
		c.settleLoad(gen, meta, err)
	}()
}

// settleLoad applies a load completion, unless it belongs to a superseded
// load. The chained play intent is read from the controller, not the load
// command, so a pause issued while the load was in flight sticks.
func (c *Controller) settleLoad(gen uint64, meta engine.Metadata, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || gen != c.generation {
		zlog.Debug().Msgf("playback: dropping stale load completion gen=%d current=%d",
			gen, c.generation)
		return
	}

	if err != nil {
		c.pendingPlay = false
		c.failLocked(KindLoadFailure, "load", err)
		return
	}

	c.duration = meta.Duration
	c.durationKnown = meta.Duration > 0
	c.status = StatusPaused
	c.publishLocked()

	if c.pendingPlay {
		c.pendingPlay = false
		c.startPlayLocked(gen)
	}
}

// startPlayLocked issues the asynchronous engine play tagged with gen.
func (c *Controller) startPlayLocked(gen uint64) {
	go func() {
		err := c.engine.Play()
		c.settlePlay(gen, err)
	}()
}

// settlePlay applies a play completion, unless it belongs to a superseded
// load.
func (c *Controller) settlePlay(gen uint64, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || gen != c.generation {
		zlog.Debug().Msgf("playback: dropping stale play completion gen=%d current=%d",
			gen, c.generation)
		return
	}

	if err != nil {
		kind := KindPlaybackBlocked
		if errors.Is(err, engine.ErrNoResource) {
			// The engine has no usable resource, so a retry must reload.
			kind = KindLoadFailure
		}
		c.failLocked(kind, "play", err)
		return
	}

	c.status = StatusPlaying
	c.publishLocked()
}

// eventLoop consumes engine events for the controller's lifetime.
func (c *Controller) eventLoop() {
	for {
		select {
		case <-c.done:
			return
		case ev, ok := <-c.engine.Events():
			if !ok {
				return
			}
			c.handleEvent(ev)
		}
	}
}

func (c *Controller) handleEvent(ev engine.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if ev.Gen != c.generation {
		zlog.Debug().Msgf("playback: dropping stale %s event gen=%d current=%d",
			ev.Kind, ev.Gen, c.generation)
		return
	}

	switch ev.Kind {
	case engine.EventTimeUpdate:
		if c.previewing {
			// Drag in progress: the previewed position wins.
			return
		}
		pos := ev.Position
		if c.durationKnown && pos > c.duration {
			pos = c.duration
		}
		c.position = pos
		c.publishLocked()

	case engine.EventStateChange:
		switch {
		case ev.Playing && c.status != StatusPlaying:
			c.status = StatusPlaying
			c.publishLocked()
		case !ev.Playing && c.status == StatusPlaying:
			c.status = StatusPaused
			c.publishLocked()
		}

	case engine.EventFinished:
		c.status = StatusEnded
		if c.durationKnown {
			c.position = c.duration
		}
		c.publishLocked()
		// The sole automatic transition: advance to the next track,
		// wrapping past the end, and attempt playback.
		c.loadLocked(c.index+1, true)

	case engine.EventError:
		kind := KindLoadFailure
		if errors.Is(ev.Err, engine.ErrPlaybackBlocked) {
			kind = KindPlaybackBlocked
		}
		c.failLocked(kind, "engine", ev.Err)
	}
}

// failLocked records a surfaced failure and publishes it. The controller
// remains usable; an explicit command can retry or move on.
func (c *Controller) failLocked(kind ErrorKind, op string, err error) {
	c.status = StatusError
	ev := ErrorEvent{Kind: kind, Op: op, Err: err}
	c.lastErr = &ev
	zlog.Debug().Msgf("playback: %s failed (%s): %v", op, kind, err)
	c.publishLocked()

	c.subsMu.RLock()
	for _, sub := range c.subs {
		sub.sendError(ev)
	}
	c.subsMu.RUnlock()
}

// clampSeekLocked bounds a requested seek position to the playable range.
// When the duration is not yet known only the lower bound applies.
func (c *Controller) clampSeekLocked(pos time.Duration) time.Duration {
	pos = max(pos, 0)
	if c.durationKnown && pos > c.duration {
		pos = c.duration
	}
	return pos
}

func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{
		Index:         c.index,
		Track:         c.list.Track(c.index),
		Status:        c.status,
		Position:      c.position,
		Duration:      c.duration,
		DurationKnown: c.durationKnown,
		Volume:        c.volume,
		Previewing:    c.previewing,
		Err:           c.lastErr,
	}
}

// publishLocked sends the current snapshot to all subscribers.
func (c *Controller) publishLocked() {
	snap := c.snapshotLocked()
	c.subsMu.RLock()
	for _, sub := range c.subs {
		sub.sendState(snap)
	}
	c.subsMu.RUnlock()
}

func clampVolume(level float64) float64 {
	return min(max(level, 0), 1)
}

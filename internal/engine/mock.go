package engine

import (
	"sync"
	"time"
)

// Mock is a test double for Interface.
// It records every call, lets tests script failures, and can hold Play
// calls un-settled to reproduce completion races.
type Mock struct {
	mu sync.Mutex

	gen    uint64
	loaded bool

	loadCalls   []string
	playCalls   int
	pauseCalls  int
	seekCalls   []time.Duration
	volumeCalls []float64

	loadErr      error
	playErr      error
	loadDuration time.Duration
	loadGate     chan struct{}
	playGate     chan struct{}

	events chan Event
	closed bool
}

// NewMock creates a new mock engine for testing.
func NewMock() *Mock {
	return &Mock{
		events: make(chan Event, eventBufferSize),
	}
}

func (m *Mock) Load(src string, gen uint64) (Metadata, error) {
	m.mu.Lock()
	m.loadCalls = append(m.loadCalls, src)
	gate := m.loadGate
	m.mu.Unlock()

	if gate != nil {
		<-gate
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return Metadata{}, m.loadErr
	}
	m.gen = gen
	m.loaded = true
	return Metadata{Duration: m.loadDuration}, nil
}

func (m *Mock) Play() error {
	m.mu.Lock()
	m.playCalls++
	gate := m.playGate
	err := m.playErr
	loaded := m.loaded
	m.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if !loaded {
		return ErrNoResource
	}
	return err
}

func (m *Mock) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pauseCalls++
}

func (m *Mock) SeekTo(pos time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seekCalls = append(m.seekCalls, pos)
}

func (m *Mock) SetVolume(level float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.volumeCalls = append(m.volumeCalls, level)
}

func (m *Mock) Events() <-chan Event {
	return m.events
}

func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Test helpers

// SetLoadDuration sets the duration returned by subsequent Load calls.
func (m *Mock) SetLoadDuration(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadDuration = d
}

// SetLoadError makes subsequent Load calls fail.
func (m *Mock) SetLoadError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadErr = err
}

// SetPlayError makes subsequent Play calls fail after settling.
func (m *Mock) SetPlayError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playErr = err
}

// HoldLoads makes Load calls block until ReleaseLoads is called.
func (m *Mock) HoldLoads() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadGate == nil {
		m.loadGate = make(chan struct{})
	}
}

// ReleaseLoads unblocks all held Load calls.
func (m *Mock) ReleaseLoads() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadGate != nil {
		close(m.loadGate)
		m.loadGate = nil
	}
}

// HoldPlays makes Play calls block until ReleasePlays is called.
func (m *Mock) HoldPlays() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.playGate == nil {
		m.playGate = make(chan struct{})
	}
}

// ReleasePlays unblocks all held Play calls.
func (m *Mock) ReleasePlays() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.playGate != nil {
		close(m.playGate)
		m.playGate = nil
	}
}

// Gen returns the generation stamped by the most recent successful Load.
func (m *Mock) Gen() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gen
}

func (m *Mock) LoadCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.loadCalls...)
}

func (m *Mock) PlayCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playCalls
}

func (m *Mock) PauseCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pauseCalls
}

func (m *Mock) SeekCalls() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]time.Duration(nil), m.seekCalls...)
}

func (m *Mock) VolumeCalls() []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]float64(nil), m.volumeCalls...)
}

// Emit delivers a raw event, for stale-generation scenarios.
// Events emitted after Close are discarded.
func (m *Mock) Emit(ev Event) {
	m.mu.Lock()
	closed := m.closed
	m.mu.Unlock()
	if closed {
		return
	}
	select {
	case m.events <- ev:
	default:
	}
}

// EmitTimeUpdate emits a time update for the current resource.
func (m *Mock) EmitTimeUpdate(pos time.Duration) {
	m.Emit(Event{Gen: m.Gen(), Kind: EventTimeUpdate, Position: pos})
}

// EmitStateChange emits an engine-side play/pause flip for the current resource.
func (m *Mock) EmitStateChange(playing bool) {
	m.Emit(Event{Gen: m.Gen(), Kind: EventStateChange, Playing: playing})
}

// EmitFinished emits end-of-track for the current resource.
func (m *Mock) EmitFinished() {
	m.Emit(Event{Gen: m.Gen(), Kind: EventFinished})
}

// EmitError emits an asynchronous failure for the current resource.
func (m *Mock) EmitError(err error) {
	m.Emit(Event{Gen: m.Gen(), Kind: EventError, Err: err})
}

// Verify Mock implements Interface at compile time.
var _ Interface = (*Mock)(nil)

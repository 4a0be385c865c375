package engine

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/opd-ai/voicehal/routing"
)

// Sentinel errors returned by the simulated engine.
var (
	// ErrStreamClosed indicates an operation on a closed stream handle.
	ErrStreamClosed = errors.New("stream handle is closed")

	// ErrOpenFailed is returned by SimEngine when open failure injection
	// is enabled.
	ErrOpenFailed = errors.New("simulated open failure")

	// ErrStartFailed is returned by SimStream when start failure injection
	// is enabled.
	ErrStartFailed = errors.New("simulated start failure")
)

// SimEngine is a deterministic in-memory Engine implementation.
//
// It is used by the voicesim binary and by integration-style tests. Every
// operation on every stream is appended to an operation log so tests can
// assert exact engine call ordering. Failure injection flags allow
// exercising the error paths of the voice layer.
type SimEngine struct {
	mu      sync.Mutex
	streams []*SimStream
	ops     []string

	// FailOpen makes the next OpenStream calls fail until cleared.
	FailOpen bool

	// FailStart makes Start on newly opened streams fail until cleared.
	FailStart bool
}

// NewSimEngine creates an empty simulated engine.
func NewSimEngine() *SimEngine {
	return &SimEngine{}
}

// OpenStream opens a simulated voice stream.
func (e *SimEngine) OpenStream(cfg StreamConfig) (StreamHandle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.FailOpen {
		e.record("open:failed")
		return nil, ErrOpenFailed
	}

	s := &SimStream{
		id:     uuid.NewString(),
		engine: e,
		cfg:    cfg,
		volume: -1,
	}
	s.failStart = e.FailStart
	e.streams = append(e.streams, s)
	e.record(fmt.Sprintf("open:rx=%d,tx=%d,tag=%s", cfg.RxDevice, cfg.TxDevice, cfg.DeviceTag))

	logrus.WithFields(logrus.Fields{
		"function":  "OpenStream",
		"stream_id": s.id,
		"rx_device": cfg.RxDevice,
		"tx_device": cfg.TxDevice,
	}).Debug("Simulated stream opened")

	return s, nil
}

// Ops returns a copy of the engine operation log.
func (e *SimEngine) Ops() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, len(e.ops))
	copy(out, e.ops)
	return out
}

// OpCount returns the number of recorded engine operations.
func (e *SimEngine) OpCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.ops)
}

// ResetOps clears the operation log. Streams stay as they are.
func (e *SimEngine) ResetOps() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ops = nil
}

// OpenStreams returns the number of streams opened and not yet closed.
func (e *SimEngine) OpenStreams() int {
	e.mu.Lock()
	streams := make([]*SimStream, len(e.streams))
	copy(streams, e.streams)
	e.mu.Unlock()

	open := 0
	for _, s := range streams {
		if !s.closed() {
			open++
		}
	}
	return open
}

// record must be called with e.mu held.
func (e *SimEngine) record(op string) {
	e.ops = append(e.ops, op)
}

func (e *SimEngine) recordLocked(op string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.record(op)
}

// SimStream is a stream handle backed by SimEngine.
type SimStream struct {
	mu        sync.Mutex
	id        string
	engine    *SimEngine
	cfg       StreamConfig
	started   bool
	isClosed  bool
	failStart bool

	params map[string]string
	volume float64
	muted  bool
}

// ID returns the stream's unique identifier.
func (s *SimStream) ID() string {
	return s.id
}

// Start begins audio flow on the simulated stream.
func (s *SimStream) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isClosed {
		return ErrStreamClosed
	}
	if s.failStart {
		s.engine.recordLocked("start:failed")
		return ErrStartFailed
	}
	s.started = true
	s.engine.recordLocked("start")
	return nil
}

// Stop halts audio flow on the simulated stream.
func (s *SimStream) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isClosed {
		return ErrStreamClosed
	}
	s.started = false
	s.engine.recordLocked("stop")
	return nil
}

// Close releases the simulated stream.
func (s *SimStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isClosed {
		return ErrStreamClosed
	}
	s.isClosed = true
	s.started = false
	s.engine.recordLocked("close")
	return nil
}

// SwitchDevices moves the simulated stream onto a new device pair.
func (s *SimStream) SwitchDevices(rx, tx routing.PlatformDeviceID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isClosed {
		return ErrStreamClosed
	}
	s.cfg.RxDevice = rx
	s.cfg.TxDevice = tx
	// Platform engines drop the capture mute on a device change; the sim
	// mirrors that so callers must re-apply it.
	delete(s.params, ParamDeviceMute)
	s.engine.recordLocked(fmt.Sprintf("switch:rx=%d,tx=%d", rx, tx))
	return nil
}

// SetParameter applies a feature parameter to the simulated stream.
func (s *SimStream) SetParameter(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isClosed {
		return ErrStreamClosed
	}
	if s.params == nil {
		s.params = make(map[string]string)
	}
	s.params[key] = value
	s.engine.recordLocked(fmt.Sprintf("param:%s=%s", key, value))
	return nil
}

// SetVolume applies the voice volume to the simulated stream.
func (s *SimStream) SetVolume(volume float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isClosed {
		return ErrStreamClosed
	}
	s.volume = volume
	s.engine.recordLocked(fmt.Sprintf("volume:%.2f", volume))
	return nil
}

// SetMute applies the capture mute state to the simulated stream.
func (s *SimStream) SetMute(muted bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isClosed {
		return ErrStreamClosed
	}
	s.muted = muted
	s.engine.recordLocked(fmt.Sprintf("mute:%t", muted))
	return nil
}

// Started reports whether the stream is currently started.
func (s *SimStream) Started() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

// Param returns the last value applied for a parameter key.
func (s *SimStream) Param(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.params[key]
	return v, ok
}

// Volume returns the last applied volume, or -1 when never set.
func (s *SimStream) Volume() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

// Muted returns the last applied capture mute state.
func (s *SimStream) Muted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.muted
}

// Devices returns the stream's current platform device pair.
func (s *SimStream) Devices() (rx, tx routing.PlatformDeviceID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.RxDevice, s.cfg.TxDevice
}

func (s *SimStream) closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isClosed
}

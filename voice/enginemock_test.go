package voice

import (
	"errors"
	"fmt"

	"github.com/opd-ai/voicehal/engine"
	"github.com/opd-ai/voicehal/routing"
)

// errMockEngine is the failure returned by the mock engine when failure
// injection is enabled.
var errMockEngine = errors.New("mock engine failure")

// mockEngine is an in-package engine test double recording every operation
// across all streams in order, with per-operation failure injection.
// Controller operations are serialized, so the mock needs no locking.
type mockEngine struct {
	failOpen   bool
	failStart  bool
	failStop   bool
	failClose  bool
	failSwitch bool
	failParam  bool

	streams []*mockStream
	ops     []string
}

func newMockEngine() *mockEngine {
	return &mockEngine{}
}

func (e *mockEngine) OpenStream(cfg engine.StreamConfig) (engine.StreamHandle, error) {
	if e.failOpen {
		e.ops = append(e.ops, "open:failed")
		return nil, errMockEngine
	}
	s := &mockStream{engine: e, cfg: cfg, volume: -1, params: make(map[string]string)}
	e.streams = append(e.streams, s)
	e.ops = append(e.ops, "open")
	return s, nil
}

// lastStream returns the most recently opened stream, nil when none exists.
func (e *mockEngine) lastStream() *mockStream {
	if len(e.streams) == 0 {
		return nil
	}
	return e.streams[len(e.streams)-1]
}

// openStreams counts streams opened and not yet closed.
func (e *mockEngine) openStreams() int {
	open := 0
	for _, s := range e.streams {
		if !s.closed {
			open++
		}
	}
	return open
}

type mockStream struct {
	engine  *mockEngine
	cfg     engine.StreamConfig
	started bool
	closed  bool

	params map[string]string
	volume float64
	muted  bool
}

func (s *mockStream) record(op string) {
	s.engine.ops = append(s.engine.ops, op)
}

func (s *mockStream) Start() error {
	if s.engine.failStart {
		s.record("start:failed")
		return errMockEngine
	}
	s.started = true
	s.record("start")
	return nil
}

func (s *mockStream) Stop() error {
	if s.engine.failStop {
		s.record("stop:failed")
		return errMockEngine
	}
	s.started = false
	s.record("stop")
	return nil
}

func (s *mockStream) Close() error {
	if s.engine.failClose {
		s.record("close:failed")
		return errMockEngine
	}
	s.closed = true
	s.started = false
	s.record("close")
	return nil
}

func (s *mockStream) SwitchDevices(rx, tx routing.PlatformDeviceID) error {
	if s.engine.failSwitch {
		s.record("switch:failed")
		return errMockEngine
	}
	s.cfg.RxDevice = rx
	s.cfg.TxDevice = tx
	s.record(fmt.Sprintf("switch:rx=%d,tx=%d", rx, tx))
	return nil
}

func (s *mockStream) SetParameter(key, value string) error {
	if s.engine.failParam {
		s.record("param:failed")
		return errMockEngine
	}
	s.params[key] = value
	s.record(fmt.Sprintf("param:%s=%s", key, value))
	return nil
}

func (s *mockStream) SetVolume(volume float64) error {
	s.volume = volume
	s.record(fmt.Sprintf("volume:%.2f", volume))
	return nil
}

func (s *mockStream) SetMute(muted bool) error {
	s.muted = muted
	s.record(fmt.Sprintf("mute:%t", muted))
	return nil
}

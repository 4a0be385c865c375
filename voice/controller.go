package voice

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/voicehal/engine"
	"github.com/opd-ai/voicehal/features"
	"github.com/opd-ai/voicehal/metrics"
	"github.com/opd-ai/voicehal/params"
	"github.com/opd-ai/voicehal/routing"
)

// PlatformMapper resolves logical devices to platform engine identifiers.
//
// The voice layer obtains this mapping from the currently active primary
// playback stream; the relation is a weak back-reference used only for
// queries, never for ownership.
type PlatformMapper interface {
	PlatformDeviceIDs(devs routing.DeviceSet) []routing.PlatformDeviceID
}

// Controller is the telephony voice controller the rest of the audio layer
// talks to. It owns the session registry, the current audio mode and the
// cached mic-mute state, and orchestrates mode changes, parameter updates
// and routing requests.
//
// A single mutex serializes every state-mutating operation, and engine calls
// are issued while holding it. Call setup, teardown and device switches are
// low-frequency, latency-tolerant operations; serializing them buys out the
// whole class of interleaved switch/teardown races at an acceptable cost.
// Every public operation blocks until the underlying engine call returns.
type Controller struct {
	mu sync.Mutex

	engine  engine.Engine
	hooks   *features.Hooks
	metrics *metrics.Metrics

	registry *sessionRegistry

	mode   AudioMode
	inCall bool

	// micMute is the process-wide capture mute, applied to every live
	// stream and re-applied on the next start.
	micMute bool

	// usbCapture reports whether the USB capture path is usable.
	usbCapture bool

	// External display path indices used for digital output resolution.
	extController int
	extStream     int

	// primary is the device-mapping query of the active primary playback
	// stream. Nil until one registers; routing requests are deferred
	// while it is absent.
	primary PlatformMapper

	// route is the current logical playback route.
	route routing.DeviceSet
}

// NewController creates the voice controller for the given platform engine.
//
// The controller and its session registry live for the lifetime of the
// audio subsystem; sessions are allocated once here and never reallocated.
func NewController(eng engine.Engine) (*Controller, error) {
	if eng == nil {
		logrus.WithFields(logrus.Fields{
			"function": "NewController",
			"error":    ErrNilEngine.Error(),
		}).Error("Engine validation failed")
		return nil, ErrNilEngine
	}

	c := &Controller{
		engine:   eng,
		registry: newSessionRegistry(),
		mode:     ModeNormal,
	}

	logrus.WithFields(logrus.Fields{
		"function": "NewController",
		"sessions": SessionCount,
	}).Info("Voice controller created")

	return c, nil
}

// SetHooks installs the optional platform capability hooks. A nil value
// disables all of them.
func (c *Controller) SetHooks(h *features.Hooks) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hooks = h
}

// SetMetrics installs the instrumentation recorder. A nil value disables
// instrumentation.
func (c *Controller) SetMetrics(m *metrics.Metrics) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.metrics = m
}

// SetPrimaryStream registers (or clears, with nil) the primary playback
// stream's device-mapping query.
func (c *Controller) SetPrimaryStream(m PlatformMapper) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.primary = m

	logrus.WithFields(logrus.Fields{
		"function": "SetPrimaryStream",
		"present":  m != nil,
	}).Debug("Primary playback stream mapping updated")
}

// SetUSBCaptureSupported reports whether the USB capture path is currently
// usable; it controls the capture match for USB playback devices.
func (c *Controller) SetUSBCaptureSupported(supported bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.usbCapture = supported
}

// SetExtDisplay records the external display controller/stream pair used
// when resolving digital outputs.
func (c *Controller) SetExtDisplay(controller, stream int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.extController = controller
	c.extStream = stream
}

// SetMode applies a host framework audio mode change.
//
// An unchanged mode is a no-op. Switching directly between the in-call and
// call-screen modes is a device-only change: the sessions' streams are moved
// to the new route live and the call stays up. Entering normal mode while a
// call was active tears every session down. All other mode changes leave the
// sessions alone; the next routing or call-state event drives them.
func (c *Controller) SetMode(mode AudioMode) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if mode == c.mode {
		logrus.WithFields(logrus.Fields{
			"function": "SetMode",
			"mode":     mode.String(),
		}).Debug("Audio mode unchanged")
		return nil
	}

	old := c.mode
	c.mode = mode

	logrus.WithFields(logrus.Fields{
		"function": "SetMode",
		"old_mode": old.String(),
		"new_mode": mode.String(),
	}).Info("Audio mode changed")

	switch {
	case old.callMode() && mode.callMode():
		// InCall <-> CallScreen: the call must not be interrupted, only
		// re-routed onto the other mode's device pair.
		c.registry.each(c.switchSessionDevices)

	case mode == ModeNormal && c.inCall:
		c.registry.each(func(s *CallSession) {
			s.newState = CallInactive
		})
		if err := c.updateCalls(); err != nil {
			return err
		}
		c.inCall = false
	}

	return nil
}

// RouteStream applies a playback device routing request from the framework
// or from a stream object reporting a routing change.
//
// Empty or sentinel-only device sets are accepted as a no-op. A route whose
// capture match contains the None sentinel is rejected with no engine call
// issued; teardown is preferable to partial routing. Without a
// registered primary playback stream, device-identifier resolution yields
// None and the request is silently deferred.
//
// With a call already active the sessions are moved live onto the new route;
// with no active call and a call-capable mode, the call is considered in
// progress and a full state-machine pass brings the sessions up.
func (c *Controller) RouteStream(playback routing.DeviceSet) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if playback.Empty() {
		logrus.WithFields(logrus.Fields{
			"function": "RouteStream",
		}).Debug("Ignoring empty routing request")
		return nil
	}

	capture := routing.MatchingCaptureDevices(playback, c.usbCapture)
	if capture.Contains(routing.DeviceNone) {
		logrus.WithFields(logrus.Fields{
			"function": "RouteStream",
			"playback": playback.String(),
			"capture":  capture.String(),
		}).Error("Rejecting route with unresolved capture device")
		return fmt.Errorf("%w: capture match for %s", ErrInvalidRoute, playback)
	}

	if c.primary == nil {
		logrus.WithFields(logrus.Fields{
			"function": "RouteStream",
			"playback": playback.String(),
		}).Debug("No primary playback stream yet, routing deferred")
		return nil
	}
	if hasNoneID(c.primary.PlatformDeviceIDs(playback)) || hasNoneID(c.primary.PlatformDeviceIDs(capture)) {
		logrus.WithFields(logrus.Fields{
			"function": "RouteStream",
			"playback": playback.String(),
		}).Debug("Platform identifiers unresolved, routing deferred")
		return nil
	}

	c.route = append(routing.DeviceSet(nil), playback...)

	logrus.WithFields(logrus.Fields{
		"function": "RouteStream",
		"playback": playback.String(),
		"capture":  capture.String(),
		"mode":     c.mode.String(),
		"in_call":  c.inCall,
	}).Info("Voice route updated")

	switch {
	case c.registry.anyActive():
		// Live switch, no teardown.
		c.registry.each(c.switchSessionDevices)

	case c.mode.callMode() && !c.inCall:
		c.inCall = true
		if !c.registry.anyRequestedActive() {
			// No explicit per-subsystem call state arrived before
			// routing; the primary voice session carries the call.
			c.registry.byID(VSIDVoice).newState = CallActive
		}
		return c.updateCalls()
	}

	return nil
}

// UpdateCallState records the requested call state for one voice subsystem
// and, when a call is actually in progress, drives the state machine.
//
// Running the machine is gated on the session being active already or on a
// call being logically in progress under the current mode; this keeps a
// state update that arrives before routing from spuriously starting the
// session.
func (c *Controller) UpdateCallState(vsid SubsystemID, state CallState) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.updateCallStateLocked(vsid, state)
}

// updateCallStateLocked implements UpdateCallState with c.mu held.
func (c *Controller) updateCallStateLocked(vsid SubsystemID, state CallState) error {
	if !state.valid() {
		return fmt.Errorf("%w: %d", ErrInvalidCallState, state)
	}
	s := c.registry.byID(vsid)
	if s == nil {
		return fmt.Errorf("%w: 0x%x", ErrUnknownSubsystem, uint32(vsid))
	}

	s.newState = state

	logrus.WithFields(logrus.Fields{
		"function":  "UpdateCallState",
		"vsid":      vsid,
		"requested": state.String(),
		"current":   s.state.String(),
	}).Info("Call state requested")

	if s.active() || (c.inCall && c.mode.callMode()) {
		return c.updateCalls()
	}

	logrus.WithFields(logrus.Fields{
		"function": "UpdateCallState",
		"vsid":     vsid,
	}).Debug("No call in progress, state machine pass deferred")
	return nil
}

// parameterChanges is the validated changeset of one SetParameters call.
// Validation fills it completely before anything is applied, so an invalid
// value leaves the controller untouched.
type parameterChanges struct {
	hasCallState bool
	vsid         SubsystemID
	callState    CallState

	tty         *TTYMode
	volumeBoost *bool
	slowTalk    *bool
	hdVoice     *bool
	hac         *bool

	deviceMute    *bool
	muteDirection MuteDirection
}

// SetParameters applies a framework parameter string.
//
// Recognized keys: the vsid/call_state pair, tty_mode, volume_boost,
// st_enable, hd_voice, device_mute (+direction) and HACSetting. Keys that
// are absent are skipped; partial parameter strings are valid. A malformed
// value on a recognized key returns an invalid-argument error with no state
// mutated.
//
// Changed feature flags are cached on every session and pushed live to any
// session with an open stream; TTY carry-over and HAC changes additionally
// re-resolve the device pair with a live switch.
func (c *Controller) SetParameters(kv string) error {
	p, err := params.Parse(kv)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidParameter, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	changes, err := c.validateParameters(p)
	if err != nil {
		return err
	}
	return c.applyParameters(changes)
}

// validateParameters builds the typed changeset. Must be called with c.mu
// held (it reads the cached flags for change detection).
func (c *Controller) validateParameters(p *params.Params) (*parameterChanges, error) {
	ch := &parameterChanges{}

	vsidVal, vsidOK, err := p.GetInt(KeyVSID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidParameter, KeyVSID)
	}
	stateVal, stateOK, err := p.GetInt(KeyCallState)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidParameter, KeyCallState)
	}
	if vsidOK != stateOK {
		return nil, fmt.Errorf("%w: %s and %s must arrive together", ErrInvalidParameter, KeyVSID, KeyCallState)
	}
	if vsidOK {
		vsid := SubsystemID(vsidVal)
		if c.registry.byID(vsid) == nil {
			return nil, fmt.Errorf("%w: 0x%x", ErrUnknownSubsystem, uint32(vsid))
		}
		switch stateVal {
		case wireCallInactive:
			ch.callState = CallInactive
		case wireCallActive:
			ch.callState = CallActive
		default:
			return nil, fmt.Errorf("%w: %d", ErrInvalidCallState, stateVal)
		}
		ch.hasCallState = true
		ch.vsid = vsid
	}

	if v, ok := p.Get(KeyTTYMode); ok {
		tty, err := parseTTYMode(v)
		if err != nil {
			return nil, err
		}
		ch.tty = &tty
	}

	if v, ok := p.Get(KeyVolumeBoost); ok {
		b, err := parseToken(KeyVolumeBoost, v, valueOn, valueOff)
		if err != nil {
			return nil, err
		}
		ch.volumeBoost = &b
	}

	if v, ok := p.Get(KeySlowTalk); ok {
		b, err := parseToken(KeySlowTalk, v, valueTrue, valueFalse)
		if err != nil {
			return nil, err
		}
		ch.slowTalk = &b
	}

	if v, ok := p.Get(KeyHDVoice); ok {
		b, err := parseToken(KeyHDVoice, v, valueTrue, valueFalse)
		if err != nil {
			return nil, err
		}
		ch.hdVoice = &b
	}

	if v, ok := p.Get(KeyDeviceMute); ok {
		b, err := parseToken(KeyDeviceMute, v, valueTrue, valueFalse)
		if err != nil {
			return nil, err
		}
		ch.deviceMute = &b

		ch.muteDirection = MuteRx
		if dir, ok := p.Get(KeyMuteDirection); ok {
			switch dir {
			case valueRx:
				ch.muteDirection = MuteRx
			case valueTx:
				ch.muteDirection = MuteTx
			default:
				return nil, fmt.Errorf("%w: %s=%s", ErrInvalidParameter, KeyMuteDirection, dir)
			}
		}
	}

	if v, ok := p.Get(KeyHAC); ok {
		b, err := parseToken(KeyHAC, v, valueHACOn, valueHACOff)
		if err != nil {
			return nil, err
		}
		ch.hac = &b
	}

	return ch, nil
}

// applyParameters writes the validated changeset into the session caches,
// pushes changed flags onto live streams and triggers a device switch when
// the change alters the resolved device pair. Must be called with c.mu held.
func (c *Controller) applyParameters(ch *parameterChanges) error {
	needSwitch := false

	if ch.tty != nil && c.registry.sessions[0].ttyMode != *ch.tty {
		tty := *ch.tty
		c.registry.each(func(s *CallSession) {
			s.ttyMode = tty
			if s.handle != nil {
				if err := s.handle.SetParameter(engine.ParamTTYMode, tty.String()); err != nil {
					c.logFeatureError(s, engine.ParamTTYMode, err)
				}
			}
		})
		// Every TTY change can alter the carry-over device substitution.
		needSwitch = true

		logrus.WithFields(logrus.Fields{
			"function": "SetParameters",
			"tty_mode": tty.String(),
		}).Info("TTY mode updated")
	}

	if ch.volumeBoost != nil && c.registry.sessions[0].volumeBoost != *ch.volumeBoost {
		c.applyBoolFeature(engine.ParamVolumeBoost, *ch.volumeBoost, valueOn, valueOff,
			func(s *CallSession, v bool) { s.volumeBoost = v })
	}
	if ch.slowTalk != nil && c.registry.sessions[0].slowTalk != *ch.slowTalk {
		c.applyBoolFeature(engine.ParamSlowTalk, *ch.slowTalk, valueTrue, valueFalse,
			func(s *CallSession, v bool) { s.slowTalk = v })
	}
	if ch.hdVoice != nil && c.registry.sessions[0].hdVoice != *ch.hdVoice {
		c.applyBoolFeature(engine.ParamHDVoice, *ch.hdVoice, valueTrue, valueFalse,
			func(s *CallSession, v bool) { s.hdVoice = v })
	}

	if ch.deviceMute != nil {
		muted := *ch.deviceMute
		dir := ch.muteDirection
		c.registry.each(func(s *CallSession) {
			s.deviceMute = muted
			s.muteDirection = dir
			if s.handle != nil {
				c.applyDeviceMute(s, s.handle)
			}
		})

		logrus.WithFields(logrus.Fields{
			"function":  "SetParameters",
			"muted":     muted,
			"direction": dir.String(),
		}).Info("Device mute updated")
	}

	if ch.hac != nil && c.registry.sessions[0].hac != *ch.hac {
		hac := *ch.hac
		c.registry.each(func(s *CallSession) {
			s.hac = hac
		})
		// HAC attaches a device configuration tag, so the pair must be
		// re-resolved.
		needSwitch = true

		logrus.WithFields(logrus.Fields{
			"function": "SetParameters",
			"hac":      hac,
		}).Info("Hearing aid compatibility updated")
	}

	if needSwitch && c.registry.anyActive() {
		c.registry.each(c.switchSessionDevices)
	}

	if ch.hasCallState {
		return c.updateCallStateLocked(ch.vsid, ch.callState)
	}
	return nil
}

// applyBoolFeature caches a boolean feature flag on every session and pushes
// the corresponding parameter to every open stream. Must be called with c.mu
// held.
func (c *Controller) applyBoolFeature(param string, value bool, onToken, offToken string, set func(*CallSession, bool)) {
	token := offToken
	if value {
		token = onToken
	}
	c.registry.each(func(s *CallSession) {
		set(s, value)
		if s.handle != nil {
			if err := s.handle.SetParameter(param, token); err != nil {
				c.logFeatureError(s, param, err)
			}
		}
	})

	logrus.WithFields(logrus.Fields{
		"function": "SetParameters",
		"feature":  param,
		"value":    token,
	}).Info("Voice feature updated")
}

// SetVoiceVolume caches the voice volume on every session and applies it to
// any open stream. The cached value is authoritative for the next start.
// Out-of-range values are clamped into [0.0, 1.0].
func (c *Controller) SetVoiceVolume(volume float64) error {
	if volume < 0.0 || volume > 1.0 {
		logrus.WithFields(logrus.Fields{
			"function": "SetVoiceVolume",
			"volume":   volume,
		}).Warn("Clamping out-of-range voice volume")
		volume = min(max(volume, 0.0), 1.0)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var firstErr error
	c.registry.each(func(s *CallSession) {
		s.volume = volume
		if s.handle == nil {
			return
		}
		if err := s.handle.SetVolume(volume); err != nil {
			c.recordEngineError()
			logrus.WithFields(logrus.Fields{
				"function": "SetVoiceVolume",
				"vsid":     s.vsid,
				"error":    err.Error(),
			}).Warn("Applying voice volume failed")
			if firstErr == nil {
				firstErr = err
			}
		}
	})

	return firstErr
}

// SetMicMute caches the process-wide capture mute and applies it to any open
// stream. The cached value is re-applied on the next start.
func (c *Controller) SetMicMute(mute bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.micMute = mute

	var firstErr error
	c.registry.each(func(s *CallSession) {
		if s.handle == nil {
			return
		}
		if err := s.handle.SetMute(mute); err != nil {
			c.recordEngineError()
			logrus.WithFields(logrus.Fields{
				"function": "SetMicMute",
				"vsid":     s.vsid,
				"error":    err.Error(),
			}).Warn("Applying mic mute failed")
			if firstErr == nil {
				firstErr = err
			}
		}
	})

	logrus.WithFields(logrus.Fields{
		"function": "SetMicMute",
		"muted":    mute,
	}).Info("Mic mute updated")

	return firstErr
}

// Shutdown tears every session down and returns the controller to normal
// mode. It is called once when the audio subsystem shuts down.
func (c *Controller) Shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function": "Shutdown",
	}).Info("Shutting down voice controller")

	c.registry.each(func(s *CallSession) {
		s.newState = CallInactive
	})
	// Stop transitions never propagate engine errors.
	_ = c.updateCalls()
	c.inCall = false
	c.mode = ModeNormal
}

// Mode returns the current audio mode.
func (c *Controller) Mode() AudioMode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// IsInCall reports whether a call is logically in progress.
func (c *Controller) IsInCall() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inCall
}

// MicMute returns the cached process-wide capture mute.
func (c *Controller) MicMute() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.micMute
}

// CallState returns the current state of the given voice subsystem's
// session.
func (c *Controller) CallState(vsid SubsystemID) (CallState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.registry.byID(vsid)
	if s == nil {
		return 0, fmt.Errorf("%w: 0x%x", ErrUnknownSubsystem, uint32(vsid))
	}
	return s.state, nil
}

// SessionDevices returns the resolved platform device pair of the given
// session; both are PlatformNone while the session is unrouted.
func (c *Controller) SessionDevices(vsid SubsystemID) (rx, tx routing.PlatformDeviceID, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.registry.byID(vsid)
	if s == nil {
		return 0, 0, fmt.Errorf("%w: 0x%x", ErrUnknownSubsystem, uint32(vsid))
	}
	return s.rxDevice, s.txDevice, nil
}

// platformIDs resolves logical devices through the primary playback stream
// when one is registered, falling back to the static translation table.
// Must be called with c.mu held.
func (c *Controller) platformIDs(devs routing.DeviceSet) []routing.PlatformDeviceID {
	if c.primary != nil {
		return c.primary.PlatformDeviceIDs(devs)
	}
	return routing.TableMapper{ExtController: c.extController, ExtStream: c.extStream}.PlatformDeviceIDs(devs)
}

// parseTTYMode maps a framework TTY token to its mode.
func parseTTYMode(v string) (TTYMode, error) {
	switch v {
	case "tty_off":
		return TTYOff, nil
	case "tty_vco":
		return TTYVCO, nil
	case "tty_hco":
		return TTYHCO, nil
	case "tty_full":
		return TTYFull, nil
	default:
		return 0, fmt.Errorf("%w: %s=%s", ErrInvalidParameter, KeyTTYMode, v)
	}
}

// parseToken maps a two-token framework value to a bool.
func parseToken(key, v, onToken, offToken string) (bool, error) {
	switch v {
	case onToken:
		return true, nil
	case offToken:
		return false, nil
	default:
		return false, fmt.Errorf("%w: %s=%s", ErrInvalidParameter, key, v)
	}
}

// hasNoneID reports whether any resolved platform identifier is the None
// sentinel.
func hasNoneID(ids []routing.PlatformDeviceID) bool {
	for _, id := range ids {
		if id == routing.PlatformNone {
			return true
		}
	}
	return false
}

// Instrumentation helpers; each is a no-op without an installed recorder.

func (c *Controller) recordCallStarted() {
	if c.metrics == nil {
		return
	}
	c.metrics.RecordCallStarted()
	c.metrics.SetActiveSessions(c.openHandles())
}

func (c *Controller) recordCallStopped(s *CallSession) {
	if c.metrics == nil {
		return
	}
	c.metrics.RecordCallStopped(time.Since(s.startedAt).Seconds())
	c.metrics.SetActiveSessions(c.openHandles())
}

func (c *Controller) recordCallStartFailure() {
	if c.metrics == nil {
		return
	}
	c.metrics.RecordCallStartFailure()
}

func (c *Controller) recordDeviceSwitch() {
	if c.metrics == nil {
		return
	}
	c.metrics.RecordDeviceSwitch()
}

func (c *Controller) recordEngineError() {
	if c.metrics == nil {
		return
	}
	c.metrics.RecordEngineError()
}

// openHandles counts sessions holding an open stream. Must be called with
// c.mu held.
func (c *Controller) openHandles() int {
	open := 0
	c.registry.each(func(s *CallSession) {
		if s.handle != nil {
			open++
		}
	})
	return open
}

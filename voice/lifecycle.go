package voice

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/voicehal/engine"
	"github.com/opd-ai/voicehal/routing"
)

// Stream lifecycle coordination: opening, configuring, starting, stopping
// and live-switching the engine-side voice stream of one session. Invoked by
// the state machine and by device-switch requests; always runs under the
// controller mutex.

// startSession brings up the engine stream for a session: resolve the device
// pair (with overrides), open, re-apply cached features, then start.
//
// On open or start failure the session's handle is left nil and an error is
// returned; cached flags and the pending request are untouched so the next
// pass can retry. Must be called with c.mu held.
func (c *Controller) startSession(s *CallSession) error {
	rxID, txID, tag, err := c.resolveSessionRoute(s)
	if err != nil {
		return err
	}

	release := c.hooks.AcquirePerfLock()
	defer release()

	cfg := engine.VoiceStreamConfig(rxID, txID)
	cfg.DeviceTag = tag

	logrus.WithFields(logrus.Fields{
		"function":   "startSession",
		"vsid":       s.vsid,
		"rx_device":  rxID,
		"tx_device":  txID,
		"device_tag": tag,
	}).Debug("Opening voice stream")

	handle, err := c.engine.OpenStream(cfg)
	if err != nil {
		c.recordEngineError()
		return fmt.Errorf("%w: %v", ErrStreamOpen, err)
	}

	// Re-apply every cached feature that is currently on. Each parameter
	// is independent: a failure is logged and the rest still go through.
	c.applyCachedFeatures(s, handle)
	c.applyBTSampleRate(s, handle, rxID)

	if s.volume != volumeUnset {
		if err := handle.SetVolume(s.volume); err != nil {
			c.logFeatureError(s, "volume", err)
		}
	}
	if err := handle.SetMute(c.micMute); err != nil {
		c.logFeatureError(s, "mic_mute", err)
	}

	if err := handle.Start(); err != nil {
		c.recordEngineError()
		if cerr := handle.Close(); cerr != nil {
			logrus.WithFields(logrus.Fields{
				"function": "startSession",
				"vsid":     s.vsid,
				"error":    cerr.Error(),
			}).Warn("Closing unstarted voice stream failed")
		}
		return fmt.Errorf("%w: %v", ErrStreamStart, err)
	}

	s.handle = handle
	s.rxDevice = rxID
	s.txDevice = txID
	s.startedAt = time.Now()

	c.hooks.NotifyBatteryCallState(true)
	c.recordCallStarted()

	logrus.WithFields(logrus.Fields{
		"function":  "startSession",
		"vsid":      s.vsid,
		"rx_device": rxID,
		"tx_device": txID,
	}).Info("Voice stream started")

	return nil
}

// stopSession tears down the session's engine stream. Stop and close are
// both attempted unconditionally and best-effort; the handle is always
// cleared afterwards. Calling it on a session without a handle is a no-op
// that issues no engine calls. Must be called with c.mu held.
func (c *Controller) stopSession(s *CallSession) {
	if s.handle == nil {
		return
	}

	if err := s.handle.Stop(); err != nil {
		c.recordEngineError()
		logrus.WithFields(logrus.Fields{
			"function": "stopSession",
			"vsid":     s.vsid,
			"error":    err.Error(),
		}).Warn("Voice stream stop failed")
	}
	if err := s.handle.Close(); err != nil {
		c.recordEngineError()
		logrus.WithFields(logrus.Fields{
			"function": "stopSession",
			"vsid":     s.vsid,
			"error":    err.Error(),
		}).Warn("Voice stream close failed")
	}

	s.handle = nil
	s.rxDevice = routing.PlatformNone
	s.txDevice = routing.PlatformNone

	c.hooks.NotifyBatteryCallState(false)
	c.recordCallStopped(s)

	logrus.WithFields(logrus.Fields{
		"function": "stopSession",
		"vsid":     s.vsid,
	}).Info("Voice stream torn down")
}

// switchSessionDevices moves an already-running session onto the current
// route without a stop/start cycle. The device pair is recomputed with the
// same override rules as startSession. Device mute is re-applied afterwards
// because platform engines may reset mute state on a device change.
// Sessions without a handle are skipped. Must be called with c.mu held.
func (c *Controller) switchSessionDevices(s *CallSession) {
	if s.handle == nil {
		logrus.WithFields(logrus.Fields{
			"function": "switchSessionDevices",
			"vsid":     s.vsid,
		}).Debug("No open stream, skipping device switch")
		return
	}

	rxID, txID, _, err := c.resolveSessionRoute(s)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "switchSessionDevices",
			"vsid":     s.vsid,
			"error":    err.Error(),
		}).Error("Device switch aborted, route unresolved")
		return
	}

	release := c.hooks.AcquirePerfLock()
	defer release()

	if err := s.handle.SwitchDevices(rxID, txID); err != nil {
		c.recordEngineError()
		logrus.WithFields(logrus.Fields{
			"function":  "switchSessionDevices",
			"vsid":      s.vsid,
			"rx_device": rxID,
			"tx_device": txID,
			"error":     err.Error(),
		}).Warn("Live device switch failed")
		return
	}

	s.rxDevice = rxID
	s.txDevice = txID

	if s.deviceMute {
		c.applyDeviceMute(s, s.handle)
	}
	c.applyBTSampleRate(s, s.handle, rxID)

	c.recordDeviceSwitch()

	logrus.WithFields(logrus.Fields{
		"function":  "switchSessionDevices",
		"vsid":      s.vsid,
		"rx_device": rxID,
		"tx_device": txID,
	}).Info("Voice stream switched to new device pair")
}

// resolveSessionRoute computes the platform device pair for a session from
// the controller's current playback route, applying the known overrides:
//
//   - Call-screening mode routes through dedicated proxy devices.
//   - TTY HCO/VCO/FULL substitute one or both sides per the accessibility
//     mode's carry-over rules.
//   - Hearing-aid compatibility tags the devices when playback is the
//     built-in handset.
//
// A route that resolves to the None sentinel on either side aborts with
// ErrInvalidRoute before any engine call. Must be called with c.mu held.
func (c *Controller) resolveSessionRoute(s *CallSession) (rxID, txID routing.PlatformDeviceID, tag string, err error) {
	// Call screening bypasses the user-facing route entirely.
	if c.mode == ModeCallScreen {
		return routing.PlatformOutCallProxy, routing.PlatformInCallProxy, "", nil
	}

	rx := c.route.Primary()
	if rx == routing.DeviceNone {
		// A call can legitimately start before any routing request has
		// arrived; the handset is the platform default route.
		rx = routing.DeviceEarpiece
	}
	tx := routing.MatchingCaptureDevices(routing.DeviceSet{rx}, c.usbCapture)[0]
	if tx == routing.DeviceNone {
		return 0, 0, "", fmt.Errorf("%w: no capture match for %s", ErrInvalidRoute, rx)
	}

	rx, tx = applyTTYOverride(s.vsid, s.ttyMode, rx, tx)

	if s.hac && rx == routing.DeviceEarpiece {
		tag = engine.DeviceTagHAC
	}

	ids := c.platformIDs(routing.DeviceSet{rx, tx})
	rxID, txID = ids[0], ids[1]
	if rxID == routing.PlatformNone || txID == routing.PlatformNone {
		return 0, 0, "", fmt.Errorf("%w: %s/%s has no platform identifier", ErrInvalidRoute, rx, tx)
	}

	return rxID, txID, tag, nil
}

// applyTTYOverride substitutes devices for the TTY carry-over modes.
//
// HCO (user hears, types): with speaker playback the capture side moves to
// the TTY's wired-headset mic; with wired-headset playback the playback side
// moves to the handset. VCO (user speaks, reads) mirrors the substitution on
// the playback side. FULL routes both directions through the TTY device.
// Any other device pairing under HCO/VCO is invalid and logged.
func applyTTYOverride(vsid SubsystemID, mode TTYMode, rx, tx routing.Device) (routing.Device, routing.Device) {
	switch mode {
	case TTYOff:
		return rx, tx

	case TTYHCO:
		switch rx {
		case routing.DeviceSpeaker:
			tx = routing.DeviceWiredHeadsetMic
		case routing.DeviceWiredHeadset:
			rx = routing.DeviceEarpiece
		default:
			logTTYInvalid(vsid, mode, rx)
		}

	case TTYVCO:
		switch rx {
		case routing.DeviceSpeaker:
			rx = routing.DeviceWiredHeadset
		case routing.DeviceWiredHeadset:
			tx = routing.DeviceBuiltinMic
		default:
			logTTYInvalid(vsid, mode, rx)
		}

	case TTYFull:
		rx = routing.DeviceWiredHeadset
		tx = routing.DeviceWiredHeadsetMic
	}

	return rx, tx
}

func logTTYInvalid(vsid SubsystemID, mode TTYMode, rx routing.Device) {
	logrus.WithFields(logrus.Fields{
		"function":  "applyTTYOverride",
		"vsid":      vsid,
		"tty_mode":  mode.String(),
		"rx_device": rx.String(),
	}).Warn("No TTY device substitution for playback device")
}

// applyCachedFeatures pushes every cached "on" feature flag onto a freshly
// opened handle. Failures are independent and non-fatal. Must be called with
// c.mu held.
func (c *Controller) applyCachedFeatures(s *CallSession, handle engine.StreamHandle) {
	if s.slowTalk {
		if err := handle.SetParameter(engine.ParamSlowTalk, valueTrue); err != nil {
			c.logFeatureError(s, engine.ParamSlowTalk, err)
		}
	}
	if s.volumeBoost {
		if err := handle.SetParameter(engine.ParamVolumeBoost, valueOn); err != nil {
			c.logFeatureError(s, engine.ParamVolumeBoost, err)
		}
	}
	if s.hdVoice {
		if err := handle.SetParameter(engine.ParamHDVoice, valueTrue); err != nil {
			c.logFeatureError(s, engine.ParamHDVoice, err)
		}
	}
	if s.ttyMode != TTYOff {
		if err := handle.SetParameter(engine.ParamTTYMode, s.ttyMode.String()); err != nil {
			c.logFeatureError(s, engine.ParamTTYMode, err)
		}
	}
	if s.deviceMute {
		c.applyDeviceMute(s, handle)
	}
}

// applyBTSampleRate configures the SCO link rate when the stream routes
// through a Bluetooth SCO device: wideband when the hands-free profile
// negotiated it, narrowband otherwise. Non-SCO routes are left alone. Must be
// called with c.mu held.
func (c *Controller) applyBTSampleRate(s *CallSession, handle engine.StreamHandle, rxID routing.PlatformDeviceID) {
	if rxID != routing.PlatformOutBluetoothSCO {
		return
	}
	rate := "8000"
	if c.hooks.WidebandVoiceSupported() {
		rate = "16000"
	}
	if err := handle.SetParameter(engine.ParamBTSampleRate, rate); err != nil {
		c.logFeatureError(s, engine.ParamBTSampleRate, err)
	}
}

// applyDeviceMute pushes the session's device mute and its direction as a
// parameter pair. Must be called with c.mu held.
func (c *Controller) applyDeviceMute(s *CallSession, handle engine.StreamHandle) {
	value := valueFalse
	if s.deviceMute {
		value = valueTrue
	}
	if err := handle.SetParameter(engine.ParamMuteDirection, s.muteDirection.String()); err != nil {
		c.logFeatureError(s, engine.ParamMuteDirection, err)
	}
	if err := handle.SetParameter(engine.ParamDeviceMute, value); err != nil {
		c.logFeatureError(s, engine.ParamDeviceMute, err)
	}
}

// logFeatureError records a tolerated per-feature engine failure.
func (c *Controller) logFeatureError(s *CallSession, feature string, err error) {
	c.recordEngineError()
	logrus.WithFields(logrus.Fields{
		"function": "applyCachedFeatures",
		"vsid":     s.vsid,
		"feature":  feature,
		"error":    err.Error(),
	}).Warn("Feature parameter application failed")
}

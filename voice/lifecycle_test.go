package voice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/voicehal/engine"
	"github.com/opd-ai/voicehal/features"
	"github.com/opd-ai/voicehal/routing"
)

func TestApplyTTYOverride(t *testing.T) {
	tests := []struct {
		name   string
		mode   TTYMode
		rx     routing.Device
		tx     routing.Device
		wantRx routing.Device
		wantTx routing.Device
	}{
		{
			name: "off passes through",
			mode: TTYOff,
			rx:   routing.DeviceSpeaker, tx: routing.DeviceBackMic,
			wantRx: routing.DeviceSpeaker, wantTx: routing.DeviceBackMic,
		},
		{
			name: "hco speaker moves capture to tty mic",
			mode: TTYHCO,
			rx:   routing.DeviceSpeaker, tx: routing.DeviceBackMic,
			wantRx: routing.DeviceSpeaker, wantTx: routing.DeviceWiredHeadsetMic,
		},
		{
			name: "hco headset moves playback to handset",
			mode: TTYHCO,
			rx:   routing.DeviceWiredHeadset, tx: routing.DeviceWiredHeadsetMic,
			wantRx: routing.DeviceEarpiece, wantTx: routing.DeviceWiredHeadsetMic,
		},
		{
			name: "hco earpiece has no substitution",
			mode: TTYHCO,
			rx:   routing.DeviceEarpiece, tx: routing.DeviceBuiltinMic,
			wantRx: routing.DeviceEarpiece, wantTx: routing.DeviceBuiltinMic,
		},
		{
			name: "vco speaker moves playback to tty device",
			mode: TTYVCO,
			rx:   routing.DeviceSpeaker, tx: routing.DeviceBackMic,
			wantRx: routing.DeviceWiredHeadset, wantTx: routing.DeviceBackMic,
		},
		{
			name: "vco headset moves capture to builtin mic",
			mode: TTYVCO,
			rx:   routing.DeviceWiredHeadset, tx: routing.DeviceWiredHeadsetMic,
			wantRx: routing.DeviceWiredHeadset, wantTx: routing.DeviceBuiltinMic,
		},
		{
			name: "full routes both sides through the tty device",
			mode: TTYFull,
			rx:   routing.DeviceSpeaker, tx: routing.DeviceBackMic,
			wantRx: routing.DeviceWiredHeadset, wantTx: routing.DeviceWiredHeadsetMic,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rx, tx := applyTTYOverride(VSIDVoice, tt.mode, tt.rx, tt.tx)
			assert.Equal(t, tt.wantRx, rx)
			assert.Equal(t, tt.wantTx, tx)
		})
	}
}

// TestResolveRouteDefaultsToHandset verifies that a session starting before
// any routing request resolves to the handset pair.
func TestResolveRouteDefaultsToHandset(t *testing.T) {
	c, _ := newTestController(t)

	s := c.registry.byID(VSIDVoice)
	rx, tx, tag, err := c.resolveSessionRoute(s)
	require.NoError(t, err)
	assert.Equal(t, routing.PlatformOutHandset, rx)
	assert.Equal(t, routing.PlatformInHandsetMic, tx)
	assert.Empty(t, tag)
}

func TestResolveRouteCallScreenBypass(t *testing.T) {
	c, _ := newTestController(t)
	c.mode = ModeCallScreen
	c.route = routing.DeviceSet{routing.DeviceSpeaker}

	rx, tx, tag, err := c.resolveSessionRoute(c.registry.byID(VSIDVoice))
	require.NoError(t, err)
	assert.Equal(t, routing.PlatformOutCallProxy, rx)
	assert.Equal(t, routing.PlatformInCallProxy, tx)
	assert.Empty(t, tag)
}

// TestResolveRouteUSBCapture verifies that USB playback resolves its capture
// side by the availability of the USB capture path.
func TestResolveRouteUSBCapture(t *testing.T) {
	c, _ := newTestController(t)
	c.route = routing.DeviceSet{routing.DeviceUSBHeadset}

	c.usbCapture = true
	rx, tx, _, err := c.resolveSessionRoute(c.registry.byID(VSIDVoice))
	require.NoError(t, err)
	assert.Equal(t, routing.PlatformOutUSBHeadset, rx)
	assert.Equal(t, routing.PlatformInUSBHeadsetMic, tx)

	c.usbCapture = false
	rx, tx, _, err = c.resolveSessionRoute(c.registry.byID(VSIDVoice))
	require.NoError(t, err)
	assert.Equal(t, routing.PlatformOutUSBHeadset, rx)
	assert.Equal(t, routing.PlatformInHandsetMic, tx)
}

func TestResolveRouteHACTag(t *testing.T) {
	c, _ := newTestController(t)
	c.route = routing.DeviceSet{routing.DeviceEarpiece}
	c.registry.each(func(s *CallSession) { s.hac = true })

	_, _, tag, err := c.resolveSessionRoute(c.registry.byID(VSIDVoice))
	require.NoError(t, err)
	assert.NotEmpty(t, tag)

	// HAC does not apply off the handset.
	c.route = routing.DeviceSet{routing.DeviceWiredHeadset}
	_, _, tag, err = c.resolveSessionRoute(c.registry.byID(VSIDVoice))
	require.NoError(t, err)
	assert.Empty(t, tag)
}

// TestStopSessionWithoutHandle verifies that stopping an unstarted session
// issues no engine calls.
func TestStopSessionWithoutHandle(t *testing.T) {
	c, eng := newTestController(t)

	s := c.registry.byID(VSIDVoice)
	c.stopSession(s)

	assert.Empty(t, eng.ops)
	assert.Equal(t, routing.PlatformNone, s.rxDevice)
}

// TestBluetoothSampleRate verifies that an SCO route configures the link
// rate from the hands-free profile's wideband state.
func TestBluetoothSampleRate(t *testing.T) {
	c, eng := newTestController(t)
	c.SetHooks(&features.Hooks{
		HandsFreeWidebandSupported: func() bool { return true },
	})

	require.NoError(t, c.SetMode(ModeInCall))
	require.NoError(t, c.RouteStream(routing.DeviceSet{routing.DeviceBluetoothSCO}))

	assert.Equal(t, "16000", eng.lastStream().params[engine.ParamBTSampleRate])

	// Narrowband without the capability, and the rate follows a switch onto
	// the SCO route too.
	c2, eng2 := newTestController(t)
	require.NoError(t, c2.SetMode(ModeInCall))
	require.NoError(t, c2.RouteStream(routing.DeviceSet{routing.DeviceEarpiece}))
	require.NoError(t, c2.RouteStream(routing.DeviceSet{routing.DeviceBluetoothSCOHeadset}))

	assert.Equal(t, "8000", eng2.lastStream().params[engine.ParamBTSampleRate])
}

// TestBatteryAndPerfHooks verifies the hook choreography around a call:
// perf lock held across setup, battery notified on start and stop.
func TestBatteryAndPerfHooks(t *testing.T) {
	c, _ := newTestController(t)

	var events []string
	c.SetHooks(&features.Hooks{
		BatteryCallState: func(active bool) {
			if active {
				events = append(events, "battery_on")
			} else {
				events = append(events, "battery_off")
			}
		},
		PerfLockAcquire: func() { events = append(events, "perf_acquire") },
		PerfLockRelease: func() { events = append(events, "perf_release") },
	})

	require.NoError(t, c.SetMode(ModeInCall))
	require.NoError(t, c.RouteStream(routing.DeviceSet{routing.DeviceSpeaker}))
	require.NoError(t, c.SetMode(ModeNormal))

	assert.Equal(t, []string{
		"perf_acquire",
		"battery_on",
		"perf_release",
		"battery_off",
	}, events)
}

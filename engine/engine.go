// Package engine defines the interface boundary between the voice call layer
// and the native audio platform engine.
//
// The voice layer never talks to platform audio drivers directly; it opens
// and drives engine streams through the interfaces in this package. The
// design mirrors the interface-based decoupling used across the codebase so
// that the call coordination logic can be exercised against test doubles and
// against the simulated engine.
package engine

import "github.com/opd-ai/voicehal/routing"

// Fixed voice stream format. Telephony audio always runs at this
// configuration; the engine owns any resampling behind the boundary.
const (
	VoiceSampleRate = 48000
	VoiceBitDepth   = 16
	// RxChannels is the playback channel count (stereo).
	RxChannels = 2
	// TxChannels is the capture channel count (mono).
	TxChannels = 1
)

// Engine parameter keys understood by stream handles. These are the discrete
// feature toggles the voice layer pushes onto an open stream.
const (
	ParamTTYMode       = "tty_mode"
	ParamVolumeBoost   = "volume_boost"
	ParamSlowTalk      = "st_enable"
	ParamHDVoice       = "hd_voice"
	ParamDeviceMute    = "device_mute"
	ParamMuteDirection = "direction"

	// ParamBTSampleRate carries the Bluetooth SCO link sample rate, set
	// whenever the stream routes through an SCO device.
	ParamBTSampleRate = "bt_samplerate"
)

// DeviceTagHAC is the custom device configuration tag attached when
// hearing-aid compatibility is requested on the handset route.
const DeviceTagHAC = "hac"

// StreamConfig describes the bidirectional voice stream to open.
type StreamConfig struct {
	SampleRate int
	BitDepth   int
	RxChannels int
	TxChannels int

	// Resolved platform device identifiers for the route.
	RxDevice routing.PlatformDeviceID
	TxDevice routing.PlatformDeviceID

	// DeviceTag carries an optional custom device configuration tag
	// (e.g. DeviceTagHAC) applied to both devices.
	DeviceTag string
}

// VoiceStreamConfig returns a StreamConfig with the fixed telephony format
// and the given device pair.
func VoiceStreamConfig(rx, tx routing.PlatformDeviceID) StreamConfig {
	return StreamConfig{
		SampleRate: VoiceSampleRate,
		BitDepth:   VoiceBitDepth,
		RxChannels: RxChannels,
		TxChannels: TxChannels,
		RxDevice:   rx,
		TxDevice:   tx,
	}
}

// Engine is the native audio platform engine.
type Engine interface {
	// OpenStream opens a bidirectional voice stream with the given
	// configuration. The returned handle is exclusively owned by the
	// caller until Close.
	OpenStream(cfg StreamConfig) (StreamHandle, error)
}

// StreamHandle is one open engine-side voice stream.
//
// A handle is driven by exactly one owner; the engine does not serialize
// concurrent calls on the same handle.
type StreamHandle interface {
	// Start begins audio flow on the stream.
	Start() error

	// Stop halts audio flow. The handle remains open and can be
	// reconfigured or closed.
	Stop() error

	// Close releases the stream. The handle must not be used afterwards.
	Close() error

	// SwitchDevices moves the open stream onto a new device pair without
	// stopping it.
	SwitchDevices(rx, tx routing.PlatformDeviceID) error

	// SetParameter applies one discrete feature parameter to the stream.
	SetParameter(key, value string) error

	// SetVolume applies the voice volume, in [0.0, 1.0].
	SetVolume(volume float64) error

	// SetMute applies the capture-path mute state.
	SetMute(muted bool) error
}

package voice

// CallState is the activity state of one call session. A session's current
// state only ever changes through the state machine; callers express intent
// by setting the requested state.
type CallState uint32

const (
	// CallInactive indicates no active voice leg on the session.
	CallInactive CallState = iota + 1
	// CallActive indicates the session's voice leg is up.
	CallActive
)

// String returns a human-readable state name for logging.
func (s CallState) String() string {
	switch s {
	case CallInactive:
		return "inactive"
	case CallActive:
		return "active"
	default:
		return "unknown"
	}
}

// valid reports whether the value is a known call state.
func (s CallState) valid() bool {
	return s == CallInactive || s == CallActive
}

// AudioMode is the host framework's global audio mode.
type AudioMode int

const (
	// ModeNormal is ordinary media playback, no call in progress.
	ModeNormal AudioMode = iota
	// ModeRingtone is incoming-call alerting.
	ModeRingtone
	// ModeInCall is a circuit-switched voice call.
	ModeInCall
	// ModeInCommunication is a VoIP-style communication session.
	ModeInCommunication
	// ModeCallScreen is automated call screening; voice audio is routed
	// through proxy devices instead of the user-facing route.
	ModeCallScreen
)

// String returns a human-readable mode name for logging.
func (m AudioMode) String() string {
	switch m {
	case ModeNormal:
		return "normal"
	case ModeRingtone:
		return "ringtone"
	case ModeInCall:
		return "in_call"
	case ModeInCommunication:
		return "in_communication"
	case ModeCallScreen:
		return "call_screen"
	default:
		return "unknown"
	}
}

// callMode reports whether sessions may be driven active under this mode.
func (m AudioMode) callMode() bool {
	return m == ModeInCall || m == ModeCallScreen
}

// SubsystemID identifies a voice subsystem, correlating a session to a
// specific call leg. The values match the platform's voice subsystem
// numbering and are fixed per session slot.
type SubsystemID uint32

const (
	// VSIDVoice is the primary voice subsystem.
	VSIDVoice SubsystemID = 0x10C01000
	// VSIDVoice2 is the secondary voice subsystem.
	VSIDVoice2 SubsystemID = 0x10DC1000
)

// TTYMode is the teletypewriter accessibility mode.
type TTYMode int

const (
	// TTYOff disables TTY handling.
	TTYOff TTYMode = iota
	// TTYVCO is voice carry-over: the user speaks and reads.
	TTYVCO
	// TTYHCO is hearing carry-over: the user hears and types.
	TTYHCO
	// TTYFull routes both directions through the TTY device.
	TTYFull
)

// String returns the framework token for the TTY mode.
func (t TTYMode) String() string {
	switch t {
	case TTYOff:
		return "tty_off"
	case TTYVCO:
		return "tty_vco"
	case TTYHCO:
		return "tty_hco"
	case TTYFull:
		return "tty_full"
	default:
		return "unknown"
	}
}

// MuteDirection selects which side of the stream a device mute applies to.
type MuteDirection int

const (
	// MuteRx mutes the playback path.
	MuteRx MuteDirection = iota
	// MuteTx mutes the capture path.
	MuteTx
)

// String returns the framework token for the mute direction.
func (d MuteDirection) String() string {
	if d == MuteTx {
		return "tx"
	}
	return "rx"
}

// Parameter keys recognized on the framework's SetParameters interface.
const (
	// KeyVSID and KeyCallState arrive together to drive one session's
	// call state.
	KeyVSID      = "vsid"
	KeyCallState = "call_state"

	KeyTTYMode       = "tty_mode"
	KeyVolumeBoost   = "volume_boost"
	KeySlowTalk      = "st_enable"
	KeyHDVoice       = "hd_voice"
	KeyDeviceMute    = "device_mute"
	KeyMuteDirection = "direction"
	KeyHAC           = "HACSetting"
)

// Framework token values for the parameter keys above.
const (
	valueOn     = "on"
	valueOff    = "off"
	valueTrue   = "true"
	valueFalse  = "false"
	valueRx     = "rx"
	valueTx     = "tx"
	valueHACOn  = "ON"
	valueHACOff = "OFF"
)

// Wire values for KeyCallState.
const (
	wireCallInactive = 1
	wireCallActive   = 2
)

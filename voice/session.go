package voice

import (
	"time"

	"github.com/opd-ai/voicehal/engine"
	"github.com/opd-ai/voicehal/routing"
)

// SessionCount is the fixed number of concurrent call sessions, one per
// telephony voice subsystem.
const SessionCount = 2

// volumeUnset is the cached-volume sentinel meaning the caller has never
// explicitly set a voice volume on this session.
const volumeUnset = -1.0

// CallSession is one tracked telephony call leg.
//
// Sessions live for the lifetime of the registry; only their state changes.
// All fields are guarded by the owning Controller's mutex. A session has no
// lock of its own because every access happens inside a serialized
// controller operation.
type CallSession struct {
	// slot is the session's stable index in the registry.
	slot int

	// vsid correlates the session to a voice subsystem. Assigned at
	// construction, immutable thereafter.
	vsid SubsystemID

	// state is the session's current activity; newState is the last
	// requested activity. state moves only via the state machine.
	state    CallState
	newState CallState

	// Resolved platform device identifiers for the session's current
	// route. PlatformNone when unrouted.
	rxDevice routing.PlatformDeviceID
	txDevice routing.PlatformDeviceID

	// Cached feature flags. These are set independently of call state and
	// survive stop/start cycles; the lifecycle re-applies them on the
	// next start.
	ttyMode       TTYMode
	volumeBoost   bool
	slowTalk      bool
	hdVoice       bool
	hac           bool
	deviceMute    bool
	muteDirection MuteDirection

	// handle is the engine-side voice stream, exclusively owned by this
	// session. Non-nil only while the session is active.
	handle engine.StreamHandle

	// volume is the last explicitly set voice volume, volumeUnset when
	// never set. Valid even with no active handle.
	volume float64

	// startedAt records when the current active period began.
	startedAt time.Time
}

// VSID returns the session's voice subsystem id.
func (s *CallSession) VSID() SubsystemID {
	return s.vsid
}

// active reports whether the session currently owns a started stream.
func (s *CallSession) active() bool {
	return s.state == CallActive
}

// sessionRegistry is the fixed-capacity collection of call sessions, indexed
// by slot and looked up by subsystem id. It never grows; the two sessions
// are value objects allocated once with the registry.
type sessionRegistry struct {
	sessions [SessionCount]CallSession
}

// slotSubsystems fixes the subsystem id of each registry slot.
var slotSubsystems = [SessionCount]SubsystemID{VSIDVoice, VSIDVoice2}

// newSessionRegistry creates the registry with every session inactive,
// unrouted and carrying default feature flags.
func newSessionRegistry() *sessionRegistry {
	r := &sessionRegistry{}
	for i := range r.sessions {
		s := &r.sessions[i]
		s.slot = i
		s.vsid = slotSubsystems[i]
		s.state = CallInactive
		s.newState = CallInactive
		s.volume = volumeUnset
	}
	return r
}

// byID returns the session owning the given subsystem id, or nil when the id
// matches no slot.
func (r *sessionRegistry) byID(vsid SubsystemID) *CallSession {
	for i := range r.sessions {
		if r.sessions[i].vsid == vsid {
			return &r.sessions[i]
		}
	}
	return nil
}

// each invokes fn on every session in slot order. Iteration order is
// deterministic: slot 0 first, always.
func (r *sessionRegistry) each(fn func(*CallSession)) {
	for i := range r.sessions {
		fn(&r.sessions[i])
	}
}

// anyActive reports whether any session is currently active.
func (r *sessionRegistry) anyActive() bool {
	for i := range r.sessions {
		if r.sessions[i].active() {
			return true
		}
	}
	return false
}

// anyRequestedActive reports whether any session has a pending request to
// become active.
func (r *sessionRegistry) anyRequestedActive() bool {
	for i := range r.sessions {
		if r.sessions[i].newState == CallActive {
			return true
		}
	}
	return false
}

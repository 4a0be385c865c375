// Package voice implements the telephony call session coordinator for the
// audio control layer.
//
// The package owns a fixed-size registry of call sessions (one per
// concurrent telephony leg), the per-session call-state machine, the stream
// lifecycle that keeps engine-side voice streams consistent with session
// state, and the Controller that the rest of the audio layer talks to.
//
// The design follows the established patterns of this codebase:
// - Interface-based decoupling from the platform engine for testability
// - A single mutex serializing all state-mutating operations
// - Structured logging on every lifecycle transition
// - Sentinel errors for reliable classification with errors.Is()
package voice

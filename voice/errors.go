package voice

import "errors"

// Sentinel errors for voice package operations.
// These errors enable reliable error classification using errors.Is().

// Invalid-argument errors. Nothing is mutated when one of these is returned.
var (
	// ErrUnknownSubsystem indicates a voice subsystem id that matches no
	// session slot.
	ErrUnknownSubsystem = errors.New("unknown voice subsystem id")

	// ErrInvalidCallState indicates a call state value outside the
	// inactive/active enum.
	ErrInvalidCallState = errors.New("invalid call state value")

	// ErrInvalidParameter indicates a recognized parameter key with a
	// malformed or unsupported value.
	ErrInvalidParameter = errors.New("invalid parameter value")
)

// Routing errors.
var (
	// ErrInvalidRoute indicates a device route containing the None
	// sentinel. The route is rejected before any engine call is issued.
	ErrInvalidRoute = errors.New("route contains unresolved device")
)

// Engine interaction errors.
var (
	// ErrStreamOpen indicates the engine refused to open a voice stream.
	ErrStreamOpen = errors.New("voice stream open failed")

	// ErrStreamStart indicates the engine failed to start an open stream.
	ErrStreamStart = errors.New("voice stream start failed")
)

// Controller construction errors.
var (
	// ErrNilEngine indicates the controller was constructed without an
	// engine.
	ErrNilEngine = errors.New("engine cannot be nil")
)

package voice

import (
	"github.com/sirupsen/logrus"
)

// updateCalls drives every session's state machine, applying the transition
// table to the (current, requested) pair of each session in registry order.
// Registry order, not request arrival order, makes multi-session updates
// deterministic.
//
// Transition table:
//
//	inactive -> active:   start the voice stream; current becomes active
//	                      only on success. On failure the request is kept
//	                      so the caller can retry.
//	active   -> inactive: stop the voice stream; current becomes inactive
//	                      regardless of the engine result, because a stuck
//	                      active session with a dead handle is worse than a
//	                      teardown that failed engine-side.
//	anything else:        logged and ignored.
//
// The first start error encountered is returned; later sessions are still
// processed so one failing leg cannot wedge the other.
//
// Must be called with c.mu held.
func (c *Controller) updateCalls() error {
	var firstErr error

	c.registry.each(func(s *CallSession) {
		if err := c.applyTransition(s); err != nil && firstErr == nil {
			firstErr = err
		}
	})

	return firstErr
}

// applyTransition applies one row of the transition table to a session.
// Must be called with c.mu held.
func (c *Controller) applyTransition(s *CallSession) error {
	switch {
	case s.newState == CallActive && s.state == CallInactive:
		logrus.WithFields(logrus.Fields{
			"function": "applyTransition",
			"vsid":     s.vsid,
			"slot":     s.slot,
		}).Info("Starting voice session")

		if err := c.startSession(s); err != nil {
			c.recordCallStartFailure()
			logrus.WithFields(logrus.Fields{
				"function": "applyTransition",
				"vsid":     s.vsid,
				"error":    err.Error(),
			}).Error("Voice session start failed")
			// newState stays CallActive: the request survives so a
			// later pass can retry.
			return err
		}
		s.state = CallActive

	case s.newState == CallInactive && s.state == CallActive:
		logrus.WithFields(logrus.Fields{
			"function": "applyTransition",
			"vsid":     s.vsid,
			"slot":     s.slot,
		}).Info("Stopping voice session")

		// Stop failures are logged inside stopSession and never
		// surfaced; the session is considered torn down after any stop
		// attempt.
		c.stopSession(s)
		s.state = CallInactive

	default:
		// Covers inactive->inactive and active->active requests.
		logrus.WithFields(logrus.Fields{
			"function":  "applyTransition",
			"vsid":      s.vsid,
			"current":   s.state.String(),
			"requested": s.newState.String(),
		}).Debug("Ignoring no-op state transition request")
	}

	return nil
}

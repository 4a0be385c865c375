// Package features carries the optional platform capabilities the voice
// layer can use when they are present: the battery-status listener, the
// hands-free-profile query and the performance-lock hint.
//
// On real devices these come from dynamically loaded vendor libraries, so
// none of them is guaranteed to exist. Each capability is modeled as an
// optional function on Hooks; the notify/acquire methods perform the
// presence check so call sites never test for nil themselves. A nil *Hooks
// behaves as "no capabilities present".
package features

import "github.com/sirupsen/logrus"

// Hooks bundles the optional platform capability callbacks.
type Hooks struct {
	// BatteryCallState, when present, is told whenever a voice call leg
	// starts or stops so the battery service can account for modem audio.
	BatteryCallState func(active bool)

	// PerfLockAcquire, when present, requests a short performance lock
	// around call setup and device switches. PerfLockRelease releases it.
	PerfLockAcquire func()
	PerfLockRelease func()

	// HandsFreeWidebandSupported, when present, reports whether the
	// Bluetooth hands-free profile negotiated a wideband link.
	HandsFreeWidebandSupported func() bool
}

// NotifyBatteryCallState reports a call leg state change to the battery
// listener when one is installed.
func (h *Hooks) NotifyBatteryCallState(active bool) {
	if h == nil || h.BatteryCallState == nil {
		return
	}
	h.BatteryCallState(active)
	logrus.WithFields(logrus.Fields{
		"function": "NotifyBatteryCallState",
		"active":   active,
	}).Debug("Battery listener notified")
}

// AcquirePerfLock takes the performance lock when the capability exists and
// returns the matching release function. The returned function is never nil
// and is safe to call exactly once.
func (h *Hooks) AcquirePerfLock() func() {
	if h == nil || h.PerfLockAcquire == nil {
		return func() {}
	}
	h.PerfLockAcquire()
	release := h.PerfLockRelease
	if release == nil {
		return func() {}
	}
	return release
}

// WidebandVoiceSupported reports the hands-free profile's wideband state,
// defaulting to false when the capability is absent.
func (h *Hooks) WidebandVoiceSupported() bool {
	if h == nil || h.HandsFreeWidebandSupported == nil {
		return false
	}
	return h.HandsFreeWidebandSupported()
}

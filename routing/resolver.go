package routing

import (
	"github.com/sirupsen/logrus"
)

// PlatformDeviceID is the audio platform engine's own device enumeration,
// resolved from a logical device.
type PlatformDeviceID int

// PlatformNone is the sentinel for an unresolved platform device.
const PlatformNone PlatformDeviceID = 0

// Output (RX) identifiers.
const (
	PlatformOutHandset PlatformDeviceID = iota + 100
	PlatformOutSpeaker
	PlatformOutHeadset
	PlatformOutHeadphones
	PlatformOutUSBHeadset
	PlatformOutBluetoothSCO
	PlatformOutHearingAid
	PlatformOutAuxDigital
	PlatformOutAuxDigitalAlt
	PlatformOutCallProxy
)

// Input (TX) identifiers.
const (
	PlatformInHandsetMic PlatformDeviceID = iota + 200
	PlatformInBackMic
	PlatformInHeadsetMic
	PlatformInUSBHeadsetMic
	PlatformInBluetoothSCOMic
	PlatformInCallProxy
)

// captureMatch pairs each playback device with the capture device used
// alongside it during a voice call. USB playback is handled separately in
// MatchingCaptureDevices because its pairing depends on whether the USB
// capture path is available.
var captureMatch = map[Device]Device{
	DeviceEarpiece:            DeviceBuiltinMic,
	DeviceSpeaker:             DeviceBackMic,
	DeviceWiredHeadset:        DeviceWiredHeadsetMic,
	DeviceWiredHeadphone:      DeviceBuiltinMic,
	DeviceBluetoothSCO:        DeviceBluetoothSCOMic,
	DeviceBluetoothSCOHeadset: DeviceBluetoothSCOMic,
	DeviceBluetoothSCOCarkit:  DeviceBluetoothSCOMic,
	DeviceHearingAid:          DeviceBuiltinMic,
}

// MatchingCaptureDevices derives the capture device set that pairs with the
// given playback device set for a voice call.
//
// Every playback device maps to exactly one capture device. An unrecognized
// playback device maps to DeviceNone and is logged as an error; the sentinel
// is deliberately kept in the result so the caller can reject the whole route
// instead of routing it partially.
//
// usbCapture reports whether the USB capture path is currently usable; when
// it is not, USB playback devices fall back to the built-in mic.
func MatchingCaptureDevices(playback DeviceSet, usbCapture bool) DeviceSet {
	capture := make(DeviceSet, 0, len(playback))
	for _, dev := range playback {
		capture = append(capture, matchCaptureDevice(dev, usbCapture))
	}
	return capture
}

func matchCaptureDevice(dev Device, usbCapture bool) Device {
	switch dev {
	case DeviceUSBHeadset, DeviceUSBDevice:
		if usbCapture {
			return DeviceUSBHeadsetMic
		}
		return DeviceBuiltinMic
	}

	match, ok := captureMatch[dev]
	if !ok {
		logrus.WithFields(logrus.Fields{
			"function": "MatchingCaptureDevices",
			"device":   dev.String(),
		}).Error("No capture device match for playback device")
		return DeviceNone
	}
	return match
}

// platformIDs translates logical devices to platform engine identifiers.
// DeviceAuxDigital is absent here; it is resolved in PlatformID because its
// identifier depends on the external display controller/stream pair.
var platformIDs = map[Device]PlatformDeviceID{
	DeviceEarpiece:            PlatformOutHandset,
	DeviceSpeaker:             PlatformOutSpeaker,
	DeviceWiredHeadset:        PlatformOutHeadset,
	DeviceWiredHeadphone:      PlatformOutHeadphones,
	DeviceUSBHeadset:          PlatformOutUSBHeadset,
	DeviceUSBDevice:           PlatformOutUSBHeadset,
	DeviceBluetoothSCO:        PlatformOutBluetoothSCO,
	DeviceBluetoothSCOHeadset: PlatformOutBluetoothSCO,
	DeviceBluetoothSCOCarkit:  PlatformOutBluetoothSCO,
	DeviceHearingAid:          PlatformOutHearingAid,
	DeviceBuiltinMic:          PlatformInHandsetMic,
	DeviceBackMic:             PlatformInBackMic,
	DeviceWiredHeadsetMic:     PlatformInHeadsetMic,
	DeviceUSBHeadsetMic:       PlatformInUSBHeadsetMic,
	DeviceBluetoothSCOMic:     PlatformInBluetoothSCOMic,
}

// PlatformID resolves a logical device to the platform engine's identifier.
//
// Digital (HDMI-class) outputs resolve to an alternate identifier when the
// external display controller/stream index pair is non-zero. Devices with no
// platform mapping resolve to PlatformNone.
func PlatformID(dev Device, extController, extStream int) PlatformDeviceID {
	if dev == DeviceAuxDigital {
		if extController != 0 || extStream != 0 {
			return PlatformOutAuxDigitalAlt
		}
		return PlatformOutAuxDigital
	}

	id, ok := platformIDs[dev]
	if !ok {
		logrus.WithFields(logrus.Fields{
			"function": "PlatformID",
			"device":   dev.String(),
		}).Error("No platform identifier for logical device")
		return PlatformNone
	}
	return id
}

// TableMapper resolves logical devices to platform identifiers using the
// static translation table. It implements the device-mapping query interface
// that the voice layer otherwise obtains from the primary playback stream.
type TableMapper struct {
	// ExtController and ExtStream identify the external display path used
	// for digital output resolution. Zero values select the default path.
	ExtController int
	ExtStream     int
}

// PlatformDeviceIDs resolves each logical device in the set.
func (m TableMapper) PlatformDeviceIDs(devs DeviceSet) []PlatformDeviceID {
	ids := make([]PlatformDeviceID, len(devs))
	for i, dev := range devs {
		ids[i] = PlatformID(dev, m.ExtController, m.ExtStream)
	}
	return ids
}

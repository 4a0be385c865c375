package routing

import "strings"

// Device is a framework-level logical audio device category.
type Device int

const (
	// DeviceNone is the sentinel for an unresolved or unmapped device.
	// Its presence anywhere in a route marks the whole route invalid.
	DeviceNone Device = iota

	// Playback (RX) devices.
	DeviceEarpiece
	DeviceSpeaker
	DeviceWiredHeadset
	DeviceWiredHeadphone
	DeviceUSBHeadset
	DeviceUSBDevice
	DeviceBluetoothSCO
	DeviceBluetoothSCOHeadset
	DeviceBluetoothSCOCarkit
	DeviceHearingAid
	DeviceAuxDigital

	// Capture (TX) devices.
	DeviceBuiltinMic
	DeviceBackMic
	DeviceWiredHeadsetMic
	DeviceUSBHeadsetMic
	DeviceBluetoothSCOMic
)

// String returns a human-readable device name for logging.
func (d Device) String() string {
	switch d {
	case DeviceNone:
		return "none"
	case DeviceEarpiece:
		return "earpiece"
	case DeviceSpeaker:
		return "speaker"
	case DeviceWiredHeadset:
		return "wired_headset"
	case DeviceWiredHeadphone:
		return "wired_headphone"
	case DeviceUSBHeadset:
		return "usb_headset"
	case DeviceUSBDevice:
		return "usb_device"
	case DeviceBluetoothSCO:
		return "bt_sco"
	case DeviceBluetoothSCOHeadset:
		return "bt_sco_headset"
	case DeviceBluetoothSCOCarkit:
		return "bt_sco_carkit"
	case DeviceHearingAid:
		return "hearing_aid"
	case DeviceAuxDigital:
		return "aux_digital"
	case DeviceBuiltinMic:
		return "builtin_mic"
	case DeviceBackMic:
		return "back_mic"
	case DeviceWiredHeadsetMic:
		return "wired_headset_mic"
	case DeviceUSBHeadsetMic:
		return "usb_headset_mic"
	case DeviceBluetoothSCOMic:
		return "bt_sco_mic"
	default:
		return "unknown"
	}
}

// ParseDevice maps a device name (as produced by Device.String) back to its
// logical device. It reports false for unknown names.
func ParseDevice(name string) (Device, bool) {
	for d := DeviceNone; d <= DeviceBluetoothSCOMic; d++ {
		if d.String() == name {
			return d, true
		}
	}
	return DeviceNone, false
}

// DeviceSet is an ordered collection of logical devices. Order is preserved
// so that route resolution is deterministic for a given input.
type DeviceSet []Device

// Contains reports whether the set includes the given device.
func (s DeviceSet) Contains(d Device) bool {
	for _, dev := range s {
		if dev == d {
			return true
		}
	}
	return false
}

// Empty reports whether the set has no devices, or only the None sentinel.
func (s DeviceSet) Empty() bool {
	for _, dev := range s {
		if dev != DeviceNone {
			return false
		}
	}
	return true
}

// Primary returns the first non-sentinel device in the set, or DeviceNone
// when the set is empty.
func (s DeviceSet) Primary() Device {
	for _, dev := range s {
		if dev != DeviceNone {
			return dev
		}
	}
	return DeviceNone
}

// String renders the set for logging, e.g. "[speaker earpiece]".
func (s DeviceSet) String() string {
	names := make([]string, len(s))
	for i, dev := range s {
		names[i] = dev.String()
	}
	return "[" + strings.Join(names, " ") + "]"
}

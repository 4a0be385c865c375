package routing

import "testing"

func TestDeviceStringRoundTrip(t *testing.T) {
	for d := DeviceNone; d <= DeviceBluetoothSCOMic; d++ {
		name := d.String()
		if name == "unknown" {
			t.Errorf("device %d has no name", d)
			continue
		}
		parsed, ok := ParseDevice(name)
		if !ok {
			t.Errorf("ParseDevice(%q) failed", name)
			continue
		}
		if parsed != d {
			t.Errorf("ParseDevice(%q) = %v, want %v", name, parsed, d)
		}
	}
}

func TestParseDeviceUnknown(t *testing.T) {
	if _, ok := ParseDevice("gramophone"); ok {
		t.Error("ParseDevice must reject unknown names")
	}
	if _, ok := ParseDevice(""); ok {
		t.Error("ParseDevice must reject the empty name")
	}
}

func TestDeviceSetContains(t *testing.T) {
	s := DeviceSet{DeviceSpeaker, DeviceEarpiece}

	if !s.Contains(DeviceSpeaker) {
		t.Error("Contains must find a member")
	}
	if s.Contains(DeviceWiredHeadset) {
		t.Error("Contains must not find a non-member")
	}
}

func TestDeviceSetEmpty(t *testing.T) {
	if !(DeviceSet{}).Empty() {
		t.Error("nil-length set must be empty")
	}
	if !(DeviceSet{DeviceNone}).Empty() {
		t.Error("sentinel-only set must be empty")
	}
	if (DeviceSet{DeviceNone, DeviceSpeaker}).Empty() {
		t.Error("a set with a real device must not be empty")
	}
}

func TestDeviceSetPrimary(t *testing.T) {
	if got := (DeviceSet{DeviceNone, DeviceSpeaker, DeviceEarpiece}).Primary(); got != DeviceSpeaker {
		t.Errorf("Primary = %v, want speaker", got)
	}
	if got := (DeviceSet{}).Primary(); got != DeviceNone {
		t.Errorf("Primary of empty set = %v, want none", got)
	}
}

func TestDeviceSetString(t *testing.T) {
	got := DeviceSet{DeviceSpeaker, DeviceEarpiece}.String()
	if got != "[speaker earpiece]" {
		t.Errorf("String = %q", got)
	}
}

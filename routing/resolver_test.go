package routing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchingCaptureDevices(t *testing.T) {
	tests := []struct {
		name     string
		playback DeviceSet
		usb      bool
		want     DeviceSet
	}{
		{
			name:     "earpiece pairs with builtin mic",
			playback: DeviceSet{DeviceEarpiece},
			want:     DeviceSet{DeviceBuiltinMic},
		},
		{
			name:     "speaker pairs with back mic",
			playback: DeviceSet{DeviceSpeaker},
			want:     DeviceSet{DeviceBackMic},
		},
		{
			name:     "wired headset pairs with its own mic",
			playback: DeviceSet{DeviceWiredHeadset},
			want:     DeviceSet{DeviceWiredHeadsetMic},
		},
		{
			name:     "wired headphone falls back to builtin mic",
			playback: DeviceSet{DeviceWiredHeadphone},
			want:     DeviceSet{DeviceBuiltinMic},
		},
		{
			name:     "every sco variant pairs with the sco mic",
			playback: DeviceSet{DeviceBluetoothSCO, DeviceBluetoothSCOHeadset, DeviceBluetoothSCOCarkit},
			want:     DeviceSet{DeviceBluetoothSCOMic, DeviceBluetoothSCOMic, DeviceBluetoothSCOMic},
		},
		{
			name:     "hearing aid captures on builtin mic",
			playback: DeviceSet{DeviceHearingAid},
			want:     DeviceSet{DeviceBuiltinMic},
		},
		{
			name:     "usb headset with usb capture path",
			playback: DeviceSet{DeviceUSBHeadset},
			usb:      true,
			want:     DeviceSet{DeviceUSBHeadsetMic},
		},
		{
			name:     "usb headset without usb capture path",
			playback: DeviceSet{DeviceUSBHeadset},
			want:     DeviceSet{DeviceBuiltinMic},
		},
		{
			name:     "usb device follows the usb headset rule",
			playback: DeviceSet{DeviceUSBDevice},
			usb:      true,
			want:     DeviceSet{DeviceUSBHeadsetMic},
		},
		{
			name:     "unmatched playback keeps the sentinel",
			playback: DeviceSet{DeviceBuiltinMic},
			want:     DeviceSet{DeviceNone},
		},
		{
			name:     "mixed set preserves order and sentinel",
			playback: DeviceSet{DeviceSpeaker, DeviceAuxDigital},
			want:     DeviceSet{DeviceBackMic, DeviceNone},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MatchingCaptureDevices(tt.playback, tt.usb)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPlatformID(t *testing.T) {
	tests := []struct {
		name          string
		dev           Device
		extController int
		extStream     int
		want          PlatformDeviceID
	}{
		{name: "earpiece", dev: DeviceEarpiece, want: PlatformOutHandset},
		{name: "speaker", dev: DeviceSpeaker, want: PlatformOutSpeaker},
		{name: "wired headset", dev: DeviceWiredHeadset, want: PlatformOutHeadset},
		{name: "usb device aliases usb headset", dev: DeviceUSBDevice, want: PlatformOutUSBHeadset},
		{name: "sco carkit aliases sco", dev: DeviceBluetoothSCOCarkit, want: PlatformOutBluetoothSCO},
		{name: "back mic", dev: DeviceBackMic, want: PlatformInBackMic},
		{name: "default digital path", dev: DeviceAuxDigital, want: PlatformOutAuxDigital},
		{name: "alternate digital controller", dev: DeviceAuxDigital, extController: 1, want: PlatformOutAuxDigitalAlt},
		{name: "alternate digital stream", dev: DeviceAuxDigital, extStream: 1, want: PlatformOutAuxDigitalAlt},
		{name: "sentinel has no identifier", dev: DeviceNone, want: PlatformNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PlatformID(tt.dev, tt.extController, tt.extStream)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTableMapperResolvesSets(t *testing.T) {
	m := TableMapper{}

	ids := m.PlatformDeviceIDs(DeviceSet{DeviceSpeaker, DeviceBackMic})
	assert.Equal(t, []PlatformDeviceID{PlatformOutSpeaker, PlatformInBackMic}, ids)

	// The sentinel propagates instead of being dropped.
	ids = m.PlatformDeviceIDs(DeviceSet{DeviceNone})
	assert.Equal(t, []PlatformDeviceID{PlatformNone}, ids)
}

func TestTableMapperExternalDisplay(t *testing.T) {
	plain := TableMapper{}
	alt := TableMapper{ExtController: 2, ExtStream: 1}

	assert.Equal(t,
		[]PlatformDeviceID{PlatformOutAuxDigital},
		plain.PlatformDeviceIDs(DeviceSet{DeviceAuxDigital}))
	assert.Equal(t,
		[]PlatformDeviceID{PlatformOutAuxDigitalAlt},
		alt.PlatformDeviceIDs(DeviceSet{DeviceAuxDigital}))
}

// Package routing provides the device-route resolution tables for the voice
// call layer.
//
// The package is a pure leaf: it maps framework-level logical audio devices
// to the capture devices that pair with them for a voice call, and translates
// logical devices into the platform engine's own device identifiers. All
// tables are immutable static data; nothing in this package holds state.
package routing

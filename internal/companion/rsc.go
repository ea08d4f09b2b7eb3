// Package companion watches for a wearable running sensor over BLE. When one
// is connected and streaming, the wearable records the route and the local
// tracker stays off.
package companion

import (
	"fmt"
)

// Bluetooth Service and Characteristic UUIDs for running sensors
const (
	ServiceUUIDRunningSpeedCadence = "00001814-0000-1000-8000-00805f9b34fb"
	CharUUIDRSCMeasurement         = "00002a53-0000-1000-8000-00805f9b34fb"
)

// RSCMeasurement is one Running Speed and Cadence notification
type RSCMeasurement struct {
	SpeedMetersPerSecond float64
	CadenceStepsPerMin   int
	StrideLengthMeters   *float64
	TotalDistanceMeters  *float64
	Running              bool // false means walking
}

// ParseRSCMeasurement parses RSC measurement characteristic data
// See: https://www.bluetooth.com/specifications/specs/running-speed-and-cadence-service-1-0/
func ParseRSCMeasurement(buf []byte) (RSCMeasurement, error) {
	if len(buf) < 4 {
		return RSCMeasurement{}, fmt.Errorf("RSC data too short: %d bytes", len(buf))
	}

	flags := buf[0]
	// Bit 0: Instantaneous Stride Length Present
	// Bit 1: Total Distance Present
	// Bit 2: Walking (0) or Running (1)
	hasStride := flags&0x01 != 0
	hasDistance := flags&0x02 != 0

	m := RSCMeasurement{
		// UINT16, 1/256 m/s
		SpeedMetersPerSecond: float64(uint16(buf[1])|uint16(buf[2])<<8) / 256.0,
		CadenceStepsPerMin:   int(buf[3]),
		Running:              flags&0x04 != 0,
	}
	offset := 4

	if hasStride {
		if offset+2 > len(buf) {
			return RSCMeasurement{}, fmt.Errorf("RSC data too short for stride length at offset %d", offset)
		}
		// UINT16, 1/100 m
		stride := float64(uint16(buf[offset])|uint16(buf[offset+1])<<8) / 100.0
		m.StrideLengthMeters = &stride
		offset += 2
	}

	if hasDistance {
		if offset+4 > len(buf) {
			return RSCMeasurement{}, fmt.Errorf("RSC data too short for total distance at offset %d", offset)
		}
		// UINT32, 1/10 m
		raw := uint32(buf[offset]) | uint32(buf[offset+1])<<8 | uint32(buf[offset+2])<<16 | uint32(buf[offset+3])<<24
		distance := float64(raw) / 10.0
		m.TotalDistanceMeters = &distance
	}

	return m, nil
}

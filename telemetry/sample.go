// Package telemetry defines the normalized records delivered by every
// transport and validates them before they reach a widget.
package telemetry

import (
	"math"
	"time"
)

// Scalar is a single angle reading in degrees: heading, roll, pitch or steer.
type Scalar struct {
	Value     float64   `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}

// RangeBearing is one lidar return. Range is in sensor units (cm for the
// LidarLite) and Bearing is in degrees.
type RangeBearing struct {
	Range     float64   `json:"range"`
	Bearing   float64   `json:"bearing"`
	Timestamp time.Time `json:"timestamp"`
}

// Validate rejects readings that cannot be drawn.
func (s Scalar) Validate(field string) error {
	if !finite(s.Value) {
		return InvalidSampleError{Field: field, Value: s.Value, Reason: "not a finite number"}
	}
	return nil
}

// Validate rejects returns with a non-finite or negative range, or a bearing
// outside [0, 360).
func (s RangeBearing) Validate() error {
	switch {
	case !finite(s.Range):
		return InvalidSampleError{Field: "range", Value: s.Range, Reason: "not a finite number"}
	case s.Range < 0:
		return InvalidSampleError{Field: "range", Value: s.Range, Reason: "negative range"}
	case !finite(s.Bearing):
		return InvalidSampleError{Field: "bearing_deg", Value: s.Bearing, Reason: "not a finite number"}
	case s.Bearing < 0 || s.Bearing >= 360:
		return InvalidSampleError{Field: "bearing_deg", Value: s.Bearing, Reason: "outside [0, 360)"}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

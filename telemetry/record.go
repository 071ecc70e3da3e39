package telemetry

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Type discriminates the normalized record shapes.
type Type string

const (
	Orientation Type = "orientation"
	Steering    Type = "steering"
	Lidar       Type = "lidar"
	Calibration Type = "calibration"
)

// Record is one normalized telemetry message. Only the fields belonging to
// Type are meaningful.
type Record struct {
	Type    Type
	Time    time.Time
	Heading float64 // degrees
	Roll    float64 // degrees
	Pitch   float64 // degrees
	Angle   float64 // steering angle, degrees
	Return  RangeBearing
	Status  CalibrationStatus
}

// wire is the JSON shape shared with the vehicle bridge and the browser.
type wire struct {
	Type    Type     `json:"type"`
	T       *int64   `json:"t,omitempty"`
	Heading *float64 `json:"heading_deg,omitempty"`
	Roll    *float64 `json:"roll_deg,omitempty"`
	Pitch   *float64 `json:"pitch_deg,omitempty"`
	Angle   *float64 `json:"angle_deg,omitempty"`
	Range   *float64 `json:"range,omitempty"`
	Bearing *float64 `json:"bearing_deg,omitempty"`
	Accel   *int     `json:"accel,omitempty"`
	Mag     *int     `json:"mag,omitempty"`
	Gyro    *int     `json:"gyro,omitempty"`
	System  *int     `json:"system,omitempty"`
}

// Heading etc. return the scalar readings of an orientation record.
func (r Record) HeadingSample() Scalar { return Scalar{Value: r.Heading, Timestamp: r.Time} }
func (r Record) RollSample() Scalar    { return Scalar{Value: r.Roll, Timestamp: r.Time} }
func (r Record) PitchSample() Scalar   { return Scalar{Value: r.Pitch, Timestamp: r.Time} }
func (r Record) AngleSample() Scalar   { return Scalar{Value: r.Angle, Timestamp: r.Time} }

// Validate checks the fields that belong to the record's type.
func (r Record) Validate() error {
	switch r.Type {
	case Orientation:
		for _, f := range []struct {
			name string
			s    Scalar
		}{
			{"heading_deg", r.HeadingSample()},
			{"roll_deg", r.RollSample()},
			{"pitch_deg", r.PitchSample()},
		} {
			if err := f.s.Validate(f.name); err != nil {
				return err
			}
		}
		return nil
	case Steering:
		return r.AngleSample().Validate("angle_deg")
	case Lidar:
		return r.Return.Validate()
	case Calibration:
		return r.Status.Validate()
	default:
		return InvalidSampleError{Field: "type", Value: string(r.Type), Reason: "unknown record type"}
	}
}

// Decode parses and validates one JSON record.
func Decode(data []byte) (r Record, err error) {
	var w wire
	if err = json.Unmarshal(data, &w); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return r, InvalidSampleError{Field: typeErr.Field, Value: typeErr.Value, Reason: "not a number"}
		}
		return r, fmt.Errorf("decoding telemetry record: %w", err)
	}

	r.Type = w.Type
	if w.T != nil {
		r.Time = time.Unix(0, *w.T*int64(time.Millisecond))
	}

	need := func(field string, v *float64) float64 {
		if v == nil && err == nil {
			err = InvalidSampleError{Field: field, Reason: "missing"}
			return 0
		}
		if v == nil {
			return 0
		}
		return *v
	}
	needInt := func(field string, v *int) int {
		if v == nil && err == nil {
			err = InvalidSampleError{Field: field, Reason: "missing"}
			return 0
		}
		if v == nil {
			return 0
		}
		return *v
	}

	switch r.Type {
	case Orientation:
		r.Heading = need("heading_deg", w.Heading)
		r.Roll = need("roll_deg", w.Roll)
		r.Pitch = need("pitch_deg", w.Pitch)
	case Steering:
		r.Angle = need("angle_deg", w.Angle)
	case Lidar:
		r.Return.Range = need("range", w.Range)
		r.Return.Bearing = need("bearing_deg", w.Bearing)
		r.Return.Timestamp = r.Time
	case Calibration:
		r.Status = CalibrationStatus{
			Accel:  needInt("accel", w.Accel),
			Mag:    needInt("mag", w.Mag),
			Gyro:   needInt("gyro", w.Gyro),
			System: needInt("system", w.System),
		}
	}
	if err != nil {
		return Record{}, err
	}

	if err = r.Validate(); err != nil {
		return Record{}, err
	}
	return r, nil
}

// MarshalJSON writes the record in the same shape Decode reads.
func (r Record) MarshalJSON() ([]byte, error) {
	w := wire{Type: r.Type}
	if !r.Time.IsZero() {
		ms := r.Time.UnixNano() / int64(time.Millisecond)
		w.T = &ms
	}
	switch r.Type {
	case Orientation:
		w.Heading, w.Roll, w.Pitch = &r.Heading, &r.Roll, &r.Pitch
	case Steering:
		w.Angle = &r.Angle
	case Lidar:
		w.Range, w.Bearing = &r.Return.Range, &r.Return.Bearing
	case Calibration:
		w.Accel, w.Mag, w.Gyro, w.System = &r.Status.Accel, &r.Status.Mag, &r.Status.Gyro, &r.Status.System
	}
	return json.Marshal(w)
}

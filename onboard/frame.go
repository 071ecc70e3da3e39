package onboard

import (
	"fmt"
	"github.com/CodedInternet/vehicledash/telemetry"
	"github.com/go-gl/mathgl/mgl64"
	"strconv"
	"strings"
	"time"
)

// Frame is one telemetry line from the vehicle controller:
//
//	t:<ms>,AMGS:<digits>,qw:<raw>,qx:<raw>,qy:<raw>,qz:<raw>,sa:<0..1000>,odo:<ticks>,r:<cm>,b:<deg>
type Frame struct {
	Uptime      time.Duration
	Calibration telemetry.CalibrationStatus
	Quat        mgl64.Quat
	Pot         int // steering potentiometer, 0..1000
	Odometer    int
	Range       int // 0 when no new lidar reading is available
	Bearing     int
}

var frameFields = []string{"t", "AMGS", "qw", "qx", "qy", "qz", "sa", "odo", "r", "b"}

// NotTelemetryError marks controller output that is not a telemetry line,
// such as the setpoint echo or boot messages.
type NotTelemetryError struct {
	Line string
}

func (err NotTelemetryError) Error() string {
	return fmt.Sprintf("not a telemetry line: %q", err.Line)
}

type FrameError struct {
	Field string
	Value string
	Err   error
}

func (err FrameError) Error() string {
	return fmt.Sprintf("malformed telemetry field %s=%q: %v", err.Field, err.Value, err.Err)
}

func (err FrameError) Unwrap() error {
	return err.Err
}

// ParseFrame decodes one line. Surrounding whitespace and the trailing \r
// are ignored.
func ParseFrame(line string) (f Frame, err error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "t:") {
		return f, NotTelemetryError{Line: line}
	}

	parts := strings.Split(line, ",")
	if len(parts) != len(frameFields) {
		return f, NotTelemetryError{Line: line}
	}

	values := make(map[string]string, len(parts))
	for i, part := range parts {
		kv := strings.SplitN(part, ":", 2)
		if len(kv) != 2 || kv[0] != frameFields[i] {
			return f, NotTelemetryError{Line: line}
		}
		values[kv[0]] = kv[1]
	}

	ints := make(map[string]int, len(values))
	for _, name := range frameFields {
		if name == "AMGS" {
			continue
		}
		v, err := strconv.Atoi(values[name])
		if err != nil {
			return f, FrameError{Field: name, Value: values[name], Err: err}
		}
		ints[name] = v
	}

	if f.Calibration, err = telemetry.UnpackStatus(values["AMGS"]); err != nil {
		return f, FrameError{Field: "AMGS", Value: values["AMGS"], Err: err}
	}
	f.Uptime = time.Duration(ints["t"]) * time.Millisecond
	f.Quat = telemetry.RawQuat(ints["qw"], ints["qx"], ints["qy"], ints["qz"])
	f.Pot = ints["sa"]
	f.Odometer = ints["odo"]
	f.Range = ints["r"]
	f.Bearing = ints["b"]
	return f, nil
}

// Records turns a frame into dashboard records stamped with now.
func (f Frame) Records(now time.Time) []telemetry.Record {
	records := []telemetry.Record{
		telemetry.OrientationRecord(f.Quat, now),
		{Type: telemetry.Steering, Time: now, Angle: PotToAngle(f.Pot)},
		{Type: telemetry.Calibration, Time: now, Status: f.Calibration},
	}
	if f.Range > 0 {
		records = append(records, telemetry.Record{
			Type: telemetry.Lidar,
			Time: now,
			Return: telemetry.RangeBearing{
				Range:     float64(f.Range),
				Bearing:   float64(f.Bearing),
				Timestamp: now,
			},
		})
	}
	return records
}

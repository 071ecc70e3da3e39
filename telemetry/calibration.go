package telemetry

import (
	"strconv"
	"strings"
)

// CalibrationStatus holds the BNO055 calibration codes, 0 (uncalibrated) to
// 3 (fully calibrated).
type CalibrationStatus struct {
	Accel  int `json:"accel"`
	Mag    int `json:"mag"`
	Gyro   int `json:"gyro"`
	System int `json:"system"`
}

// CalibrationLine is one row of the calibration readout.
type CalibrationLine struct {
	Name   string `json:"name"`
	Status int    `json:"status"`
}

// Validate checks every code is within 0-3.
func (c CalibrationStatus) Validate() error {
	for _, l := range c.Lines() {
		if l.Status < 0 || l.Status > 3 {
			return InvalidSampleError{Field: strings.ToLower(l.Name), Value: l.Status, Reason: "outside 0-3"}
		}
	}
	return nil
}

// Lines lists the codes in display order.
func (c CalibrationStatus) Lines() []CalibrationLine {
	return []CalibrationLine{
		{"Accel", c.Accel},
		{"Mag", c.Mag},
		{"Gyro", c.Gyro},
		{"System", c.System},
	}
}

// UnpackStatus splits the firmware's packed AMGS field, four digits in
// accel, mag, gyro, system order. Leading zeros may have been dropped, so
// "123" reads as accel 0, mag 1, gyro 2, system 3.
func UnpackStatus(packed string) (c CalibrationStatus, err error) {
	if len(packed) == 0 || len(packed) > 4 {
		return c, InvalidSampleError{Field: "AMGS", Value: packed, Reason: "expected up to four digits"}
	}
	packed = strings.Repeat("0", 4-len(packed)) + packed

	codes := make([]int, 4)
	for i, ch := range packed {
		d, err := strconv.Atoi(string(ch))
		if err != nil {
			return c, InvalidSampleError{Field: "AMGS", Value: packed, Reason: "not a digit string"}
		}
		codes[i] = d
	}

	c = CalibrationStatus{Accel: codes[0], Mag: codes[1], Gyro: codes[2], System: codes[3]}
	return c, c.Validate()
}

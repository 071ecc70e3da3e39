package calcs

import (
	"github.com/CodedInternet/vehicledash/telemetry"
	"github.com/go-gl/mathgl/mgl64"
	"math"
)

// Cartesian converts a return into sensor-plane coordinates, x along bearing
// 0 and y along bearing 90, in the same units as the range.
func Cartesian(p telemetry.RangeBearing) mgl64.Vec2 {
	phi := mgl64.DegToRad(p.Bearing)
	return mgl64.Vec2{p.Range * math.Cos(phi), p.Range * math.Sin(phi)}
}

// MaxRange returns the furthest return, or 0 for an empty set.
func MaxRange(points []telemetry.RangeBearing) (max float64) {
	for _, p := range points {
		if p.Range > max {
			max = p.Range
		}
	}
	return
}

// Centroid is the mean position of the returns that hit something. Slots
// still holding the zero sample are ignored; ok is false when none are left.
func Centroid(points []telemetry.RangeBearing) (c mgl64.Vec2, ok bool) {
	var n float64
	for _, p := range points {
		if p.Range == 0 {
			continue
		}
		c = c.Add(Cartesian(p))
		n++
	}
	if n == 0 {
		return c, false
	}
	return c.Mul(1 / n), true
}

// Package polar converts polar telemetry readings into screen offsets.
//
// Screen space follows SVG conventions: the origin is the pivot of the widget
// and y grows downwards.
package polar

import (
	"github.com/go-gl/mathgl/mgl64"
	"math"
)

// Needle returns the tip of a needle of length k pointing at value degrees.
// The offset is subtracted from the angle, so an offset of 90 puts 0° at the
// top of the screen instead of the right.
func Needle(value, offset, k float64) mgl64.Vec2 {
	phi := mgl64.DegToRad(value) - mgl64.DegToRad(offset)
	return mgl64.Vec2{k * math.Cos(phi), k * math.Sin(phi)}
}

// RangeBearing projects a single lidar return through the radial scale.
// Bearings grow counter-clockwise from the positive x axis, so y is negated.
func RangeBearing(r, bearing float64, s Scale) mgl64.Vec2 {
	phi := mgl64.DegToRad(bearing)
	return mgl64.Vec2{
		s.Apply(r * math.Cos(phi)),
		-s.Apply(r * math.Sin(phi)),
	}
}

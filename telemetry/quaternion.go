package telemetry

import (
	"github.com/go-gl/mathgl/mgl64"
	"math"
	"time"
)

// QuatScale converts raw BNO055 quaternion units (2^14 LSB per unit).
const QuatScale = 1.0 / (1 << 14)

// RawQuat builds a quaternion from the sensor's integer registers.
func RawQuat(w, x, y, z int) mgl64.Quat {
	return mgl64.Quat{
		W: float64(w) * QuatScale,
		V: mgl64.Vec3{float64(x) * QuatScale, float64(y) * QuatScale, float64(z) * QuatScale},
	}
}

// Euler decomposes q into Z-Y-X (yaw, pitch, roll) angles in radians.
func Euler(q mgl64.Quat) (yaw, pitch, roll float64) {
	q = q.Normalize()
	w, x, y, z := q.W, q.V[0], q.V[1], q.V[2]

	roll = math.Atan2(2*(w*x+y*z), 1-2*(x*x+y*y))

	sinp := 2 * (w*y - z*x)
	sinp = math.Max(-1, math.Min(1, sinp)) // gimbal lock
	pitch = math.Asin(sinp)

	yaw = math.Atan2(2*(w*z+x*y), 1-2*(y*y+z*z))
	return
}

// OrientationRecord converts an IMU quaternion into the dashboard's heading,
// roll and pitch. Yaw grows counter-clockwise from east, so heading is
// 90° - yaw to read clockwise from north; pitch is negated so nose-up reads
// positive.
func OrientationRecord(q mgl64.Quat, t time.Time) Record {
	yaw, pitch, roll := Euler(q)
	return Record{
		Type:    Orientation,
		Time:    t,
		Heading: 90 - mgl64.RadToDeg(yaw),
		Roll:    mgl64.RadToDeg(roll),
		Pitch:   -mgl64.RadToDeg(pitch),
	}
}

package polar

import "math"

// Policy folds a raw angle reading into the range a widget can display.
type Policy func(deg float64) float64

// Wrap folds deg into [0, 360).
func Wrap(deg float64) float64 {
	w := math.Mod(deg, 360)
	if w < 0 {
		w += 360
	}
	if w >= 360 {
		w = 0
	}
	return w + 0 // no negative zero
}

// WrapSigned folds deg into (-180, 180].
func WrapSigned(deg float64) float64 {
	w := Wrap(deg)
	if w > 180 {
		w -= 360
	}
	return w
}

// Clamp returns a Policy limiting readings to [lo, hi].
func Clamp(lo, hi float64) Policy {
	return func(deg float64) float64 {
		return math.Max(lo, math.Min(hi, deg))
	}
}

// PassThrough leaves readings alone.
func PassThrough(deg float64) float64 {
	return deg
}

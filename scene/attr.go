package scene

import (
	"fmt"
	"math"
	"strconv"
)

// Attr is a single presentation attribute. Values are kept as strings so the
// scene can compare, journal and serialise them without knowing their type.
type Attr struct {
	Name  string
	Value string
}

// Str builds a string attribute.
func Str(name, value string) Attr {
	return Attr{Name: name, Value: value}
}

// Num builds a numeric attribute rounded to a thousandth of a pixel, so
// repeated redraws of the same value never show up as changes.
func Num(name string, v float64) Attr {
	return Attr{Name: name, Value: FormatFloat(v)}
}

// FormatFloat renders v with at most three decimals and no negative zero.
func FormatFloat(v float64) string {
	if r := math.Round(v*1000) / 1000; !math.IsInf(r, 0) && !math.IsNaN(r) {
		v = r
	}
	v += 0 // no negative zero
	if math.Abs(v) >= 1e21 {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Translate renders an SVG translate transform.
func Translate(x, y float64) string {
	return fmt.Sprintf("translate(%s,%s)", FormatFloat(x), FormatFloat(y))
}

// Rotate renders an SVG rotate transform in degrees.
func Rotate(deg float64) string {
	return fmt.Sprintf("rotate(%s)", FormatFloat(deg))
}

// RotateAbout renders a rotation about the point (x, y).
func RotateAbout(deg, x, y float64) string {
	return fmt.Sprintf("rotate(%s %s,%s)", FormatFloat(deg), FormatFloat(x), FormatFloat(y))
}

// URL references an element id, as used by fill and marker attributes.
func URL(id string) string {
	return "url(#" + id + ")"
}

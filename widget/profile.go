package widget

import (
	"github.com/CodedInternet/vehicledash/polar"
	"math"
)

// Style selects how a gauge moves when its value changes.
type Style int

const (
	// NeedleStyle swings a needle from the pivot to the projected tip.
	NeedleStyle Style = iota
	// HorizonStyle rotates a shaded disc carrying a fixed pointer.
	HorizonStyle
	// PointerStyle rotates a short pointer about a pivot below the panel.
	PointerStyle
)

// GaugeProfile is everything that tells one kind of gauge from another.
type GaugeProfile struct {
	Kind  string
	Style Style

	// Tick labels are drawn at TickMin, TickMin+TickStep, ... up to and
	// including TickMax. Labels with |d| >= LabelLimit keep their slot but
	// have no text; zero disables the limit.
	TickMin, TickMax, TickStep float64
	LabelLimit                 float64

	// Labels sit LabelScale*radius+LabelPad from the pivot.
	LabelScale, LabelPad float64
	// Flip turns a label upside down so it reads left to right.
	Flip func(deg float64) bool
	// Anchor is the text-anchor of unflipped labels, empty for the default.
	Anchor string

	// Rings is the tick count of the bezel ring scale; zero draws none.
	Rings int

	// RotationOffset is subtracted from every value before projection.
	RotationOffset float64
	// Needle runs from NeedleTail to NeedleLength, as fractions of radius.
	NeedleTail, NeedleLength float64

	Normalize polar.Policy

	Radius  func(cfg Config) float64
	Pivot   func(cfg Config) (x, y float64)
	Readout func(cfg Config, radius float64) (x, y float64)
}

// Ticks lists the label angles.
func (p GaugeProfile) Ticks() []float64 {
	if p.TickStep <= 0 {
		return nil
	}
	n := int(math.Floor((p.TickMax-p.TickMin)/p.TickStep+1e-9)) + 1
	ticks := make([]float64, n)
	for i := range ticks {
		ticks[i] = p.TickMin + float64(i)*p.TickStep
	}
	return ticks
}

func centred(cfg Config) (float64, float64) {
	return cfg.Width/2 - cfg.Margin.Left, cfg.Height/2 - cfg.Margin.Top
}

func thirdOfSide(cfg Config) float64 {
	return math.Min(cfg.Width, cfg.Height) / 3
}

func cornerReadout(cfg Config, r float64) (float64, float64) {
	return -1.4 * r, -1.3 * r
}

var Compass = GaugeProfile{
	Kind:           "compass",
	Style:          NeedleStyle,
	TickMin:        0,
	TickMax:        330,
	TickStep:       30,
	LabelScale:     1,
	LabelPad:       6,
	Flip:           func(d float64) bool { return d > 180 },
	Rings:          1,
	RotationOffset: 90,
	NeedleTail:     0,
	NeedleLength:   0.9,
	Normalize:      polar.Wrap,
	Radius:         thirdOfSide,
	Pivot:          centred,
	Readout:        cornerReadout,
}

var Tilt = GaugeProfile{
	Kind:           "tilt",
	Style:          HorizonStyle,
	TickMin:        -180,
	TickMax:        150,
	TickStep:       30,
	LabelLimit:     180,
	LabelScale:     1,
	LabelPad:       6,
	Flip:           func(d float64) bool { return d < 0 },
	RotationOffset: 90,
	NeedleTail:     0.6,
	NeedleLength:   0.9,
	Normalize:      polar.WrapSigned,
	Radius:         thirdOfSide,
	Pivot:          centred,
	Readout:        cornerReadout,
}

// STEER_LOCK is the steering range either side of centre, in degrees.
const STEER_LOCK = 45

var Steer = GaugeProfile{
	Kind:           "steer",
	Style:          PointerStyle,
	TickMin:        -STEER_LOCK,
	TickMax:        STEER_LOCK,
	TickStep:       5,
	LabelScale:     1.1,
	Anchor:         "end",
	RotationOffset: 90,
	NeedleTail:     0.75,
	NeedleLength:   0.9,
	Normalize:      polar.Clamp(-STEER_LOCK, STEER_LOCK),
	Radius:         func(cfg Config) float64 { return 1.2 * cfg.Height },
	Pivot: func(cfg Config) (float64, float64) {
		return cfg.Width/2 - cfg.Margin.Left, 1.5*cfg.Height - cfg.Margin.Top
	},
	Readout: func(cfg Config, _ float64) (float64, float64) {
		return -cfg.Width/2 + 10, -1.35 * cfg.Height
	},
}

// Profiles indexes the built in profiles by Kind.
var Profiles = map[string]GaugeProfile{
	Compass.Kind: Compass,
	Tilt.Kind:    Tilt,
	Steer.Kind:   Steer,
}

package polar

import "math"

// Scale is a linear mapping from [0, DomainMax] onto [0, OuterRadius].
type Scale struct {
	DomainMax   float64
	OuterRadius float64
}

// NewScale builds a scale. A domain that is zero, negative or not finite
// falls back to 1 so that Apply never divides by zero.
func NewScale(domainMax, outerRadius float64) Scale {
	return Scale{DomainMax: sanitizeDomain(domainMax), OuterRadius: outerRadius}
}

func sanitizeDomain(d float64) float64 {
	if d <= 0 || !finite(d) {
		return 1
	}
	return d
}

// Domain returns the effective domain maximum.
func (s Scale) Domain() float64 {
	return sanitizeDomain(s.DomainMax)
}

// Apply maps a domain value to pixels. Values outside the domain are
// extrapolated, negative values included.
func (s Scale) Apply(v float64) float64 {
	return v / s.Domain() * s.OuterRadius
}

// Ticks returns roughly count evenly spaced, human friendly values covering
// the domain, both ends included when they land on a step.
func (s Scale) Ticks(count int) []float64 {
	if count < 1 {
		count = 1
	}
	span := s.Domain()

	step := math.Pow(10, math.Floor(math.Log10(span/float64(count))))
	e := float64(count) / span * step
	switch {
	case e <= .15:
		step *= 10
	case e <= .35:
		step *= 5
	case e <= .75:
		step *= 2
	}

	// round away the float noise of i*step
	precision := math.Pow(10, math.Max(0, -math.Floor(math.Log10(step))+1))

	hi := math.Floor(span/step + 1e-9)
	ticks := make([]float64, 0, int(hi)+1)
	for i := 0.0; i <= hi; i++ {
		v := i * step
		if r := math.Round(v*precision) / precision; finite(r) {
			v = r
		}
		ticks = append(ticks, v)
	}
	return ticks
}

// Headroom scales a domain maximum by factor, keeping max itself when the
// product would overflow.
func Headroom(max, factor float64) float64 {
	if d := max * factor; finite(d) {
		return d
	}
	return max
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

package widget

import (
	"fmt"
	"github.com/CodedInternet/vehicledash/polar"
	"github.com/CodedInternet/vehicledash/scene"
	"github.com/CodedInternet/vehicledash/telemetry"
	"github.com/go-gl/mathgl/mgl64"
)

// Gauge is a single-value polar indicator: compass, tilt or steering.
type Gauge struct {
	lifecycle
	profile GaugeProfile
	cfg     Config
	value   float64

	origin  scene.Key
	body    scene.Key // rotated group for horizon and pointer styles
	needle  scene.Key
	readout scene.Key
}

// NewGauge creates an unbound gauge.
func NewGauge(profile GaugeProfile, cfg Config) (*Gauge, error) {
	if err := cfg.Validate(); err != nil {
		return nil, withWidget(err, profile.Kind)
	}
	if profile.Normalize == nil {
		profile.Normalize = polar.PassThrough
	}
	return &Gauge{
		lifecycle: lifecycle{name: profile.Kind},
		profile:   profile,
		cfg:       cfg.clone(),
	}, nil
}

func withWidget(err error, name string) error {
	if cfgErr, ok := err.(ConfigurationError); ok {
		cfgErr.Widget = name
		return cfgErr
	}
	return err
}

func (g *Gauge) Profile() GaugeProfile { return g.profile }
func (g *Gauge) Config() Config         { return g.cfg.clone() }

// Radius is the gauge's outer radius in pixels.
func (g *Gauge) Radius() float64 {
	return g.profile.Radius(g.cfg)
}

// Value is the last value drawn, after normalization.
func (g *Gauge) Value() float64 {
	return g.value
}

// Reconfigure replaces the configuration of an unbound gauge.
func (g *Gauge) Reconfigure(cfg Config) error {
	if err := g.unbound(); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return withWidget(err, g.name)
	}
	g.cfg = cfg.clone()
	return nil
}

// Bind draws the gauge into s at zero.
func (g *Gauge) Bind(s *scene.Scene) error {
	if err := g.bind(s); err != nil {
		return err
	}

	ox, oy := g.profile.Pivot(g.cfg)
	g.frame, g.origin = panel(s, g.cfg, ox, oy)

	switch g.profile.Style {
	case NeedleStyle:
		g.rings()
		g.labels()
		arrowhead(s, g.origin)
		g.needle = s.Create(g.origin, scene.Line,
			scene.Num("x1", 0),
			scene.Num("y1", 0),
			scene.Str("marker-end", scene.URL("arrow")),
			scene.Str("class", "needle"),
		)
		g.readout = g.createReadout()
	case HorizonStyle:
		g.body = s.Create(g.origin, scene.Group, scene.Str("class", "horizon"))
		g.readout = g.createReadout()
		g.labels()
		g.horizon()
		arrowhead(s, g.body)
		g.needle = g.fixedNeedle(g.body)
	case PointerStyle:
		g.labels()
		g.readout = g.createReadout()
		g.body = s.Create(g.origin, scene.Group, scene.Str("class", "pointer"))
		arrowhead(s, g.body)
		g.needle = g.fixedNeedle(g.body)
	}

	g.draw(0)
	return nil
}

func (g *Gauge) rings() {
	if g.profile.Rings == 0 {
		return
	}
	s, r := g.scene, g.Radius()
	// the domain only sets the ring spacing, the outermost ring is the bezel
	scale := polar.NewScale(0.5, r)
	bezel := s.Create(g.origin, scene.Group, scene.Str("class", "bezel "+g.profile.Kind))
	for _, t := range scale.Ticks(g.profile.Rings)[1:] {
		ring := s.Create(bezel, scene.Group)
		s.Create(ring, scene.Circle, scene.Num("r", scale.Apply(t)))
	}
}

func (g *Gauge) labels() {
	s, p := g.scene, g.profile
	x := p.LabelScale*g.Radius() + p.LabelPad
	axis := s.Create(g.origin, scene.Group, scene.Str("class", "a axis"))
	for _, d := range p.Ticks() {
		tick := s.Create(axis, scene.Group, scene.Str("transform", scene.Rotate(d-90)))
		attrs := []scene.Attr{scene.Num("x", x), scene.Str("dy", ".35em")}
		switch {
		case p.Flip != nil && p.Flip(d):
			attrs = append(attrs,
				scene.Str("text-anchor", "end"),
				scene.Str("transform", scene.RotateAbout(180, x, 0)))
		case p.Anchor != "":
			attrs = append(attrs, scene.Str("text-anchor", p.Anchor))
		}
		label := s.Create(tick, scene.Text, attrs...)
		if p.LabelLimit == 0 || (d < p.LabelLimit && d > -p.LabelLimit) {
			s.SetText(label, scene.FormatFloat(d)+"°")
		}
	}
}

func (g *Gauge) horizon() {
	s, r := g.scene, g.Radius()
	defs := s.Create(g.body, scene.Defs)
	grad := s.Create(defs, scene.Gradient,
		scene.Str("id", "grad"),
		scene.Str("x1", "0%"),
		scene.Str("x2", "0%"),
		scene.Str("y1", "100%"),
		scene.Str("y2", "0%"),
	)
	s.Create(grad, scene.Stop, scene.Str("offset", "50%"), scene.Str("stop-color", "#777"))
	s.Create(grad, scene.Stop, scene.Str("offset", "50%"), scene.Str("stop-color", "white"))
	s.Create(g.body, scene.Circle,
		scene.Str("class", "bezel"),
		scene.Num("r", r),
		scene.Str("fill", scene.URL("grad")),
	)
	for _, l := range g.cfg.Labels {
		t := s.Create(g.body, scene.Text,
			scene.Str("class", "side-labels"),
			scene.Str("transform", scene.Translate(l.XF*r, -0.1*r)),
		)
		s.SetText(t, l.Label)
	}
}

// fixedNeedle draws an upright needle that moves with its parent group.
func (g *Gauge) fixedNeedle(parent scene.Key) scene.Key {
	r := g.Radius()
	return g.scene.Create(parent, scene.Line,
		scene.Num("x1", 0),
		scene.Num("y1", -g.profile.NeedleTail*r),
		scene.Num("x2", 0),
		scene.Num("y2", -g.profile.NeedleLength*r),
		scene.Str("marker-end", scene.URL("arrow")),
		scene.Str("class", "needle"),
	)
}

func (g *Gauge) createReadout() scene.Key {
	x, y := g.profile.Readout(g.cfg, g.Radius())
	return g.scene.Create(g.origin, scene.Text,
		scene.Str("class", "readout"),
		scene.Str("transform", scene.Translate(x, y)),
	)
}

// Update redraws the gauge at value degrees.
func (g *Gauge) Update(value float64) error {
	if err := g.ready(); err != nil {
		return err
	}
	if err := (telemetry.Scalar{Value: value}).Validate(g.name); err != nil {
		return err
	}
	g.draw(value)
	return nil
}

func (g *Gauge) draw(value float64) {
	v := g.profile.Normalize(value)
	g.value = v
	switch g.profile.Style {
	case NeedleStyle:
		tip := g.NeedleTip()
		g.scene.Set(g.needle, scene.Num("x2", tip.X()), scene.Num("y2", tip.Y()))
	default:
		g.scene.Set(g.body, scene.Str("transform", scene.Rotate(v)))
	}
	g.scene.SetText(g.readout, g.ReadoutText())
}

// NeedleTip is where the needle points for the current value, relative to
// the pivot. Rotated styles land on the same point.
func (g *Gauge) NeedleTip() mgl64.Vec2 {
	return polar.Needle(g.value, g.profile.RotationOffset, g.profile.NeedleLength*g.Radius())
}

// ReadoutText is the caption shown for the current value.
func (g *Gauge) ReadoutText() string {
	return fmt.Sprintf("%s: %s°", g.cfg.Title, scene.FormatFloat(roundHalfUp(g.value)))
}

// Needle and ReadoutKey expose the mutable elements.
func (g *Gauge) Needle() scene.Key     { return g.needle }
func (g *Gauge) ReadoutKey() scene.Key { return g.readout }
func (g *Gauge) Body() scene.Key       { return g.body }

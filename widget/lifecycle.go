// Package widget draws telemetry gauges and the lidar view into a scene.
//
// A widget owns the elements it creates. Bind builds the static scaffold and
// the mutable elements once; every later Update or Draw only changes the
// attributes that moved.
package widget

import (
	"github.com/CodedInternet/vehicledash/scene"
	"math"
)

// State of a widget's binding to a scene.
type State int

const (
	Unbound State = iota
	Bound
	Disposed
)

func (s State) String() string {
	switch s {
	case Unbound:
		return "unbound"
	case Bound:
		return "bound"
	case Disposed:
		return "disposed"
	}
	return "unknown"
}

// lifecycle is embedded by every widget and guards its state transitions.
type lifecycle struct {
	name  string
	state State
	scene *scene.Scene
	frame scene.Key // the margin group, parent of everything the widget draws
}

func (l *lifecycle) State() State {
	return l.state
}

// Scene returns the scene the widget is bound to, or nil.
func (l *lifecycle) Scene() *scene.Scene {
	return l.scene
}

func (l *lifecycle) bind(s *scene.Scene) error {
	switch {
	case l.state == Bound:
		return ConfigurationError{Widget: l.name, Reason: "already bound"}
	case l.state == Disposed:
		return ConfigurationError{Widget: l.name, Reason: "disposed widgets cannot be bound again"}
	case s == nil:
		return ConfigurationError{Widget: l.name, Reason: "nil scene"}
	}
	if err := s.Claim(l.name); err != nil {
		return ConfigurationError{Widget: l.name, Reason: "scene unavailable", Err: err}
	}
	l.scene = s
	l.state = Bound
	return nil
}

func (l *lifecycle) ready() error {
	if l.state != Bound {
		return NotBoundError{Widget: l.name, State: l.state}
	}
	return nil
}

func (l *lifecycle) unbound() error {
	if l.state != Unbound {
		return ConfigurationError{Widget: l.name, Reason: "cannot reconfigure once " + l.state.String()}
	}
	return nil
}

// Dispose removes the widget's elements and the panel styling of the root
// from its scene and releases it. Disposing twice is a no-op.
func (l *lifecycle) Dispose() {
	if l.state == Bound {
		if l.scene.Has(l.frame) {
			l.scene.Remove(l.frame)
		}
		l.scene.Unset(l.scene.Root(), panelAttrs...)
		l.scene.Release()
	}
	l.state = Disposed
	l.scene = nil
}

// panelAttrs are set on the root by panel and cleared by Dispose.
var panelAttrs = []string{"class", "width", "height"}

// panel styles the root element and returns the margin group and the origin
// group translated to (ox, oy) within it.
func panel(s *scene.Scene, cfg Config, ox, oy float64) (frame, origin scene.Key) {
	s.Set(s.Root(),
		scene.Str("class", "panel"),
		scene.Num("width", cfg.Width),
		scene.Num("height", cfg.Height),
	)
	frame = s.Create(s.Root(), scene.Group,
		scene.Str("transform", scene.Translate(cfg.Margin.Left, cfg.Margin.Top)))
	origin = s.Create(frame, scene.Group,
		scene.Str("class", "origin"),
		scene.Str("transform", scene.Translate(ox, oy)))
	return
}

// arrowhead adds the marker referenced by needles as url(#arrow).
func arrowhead(s *scene.Scene, parent scene.Key) scene.Key {
	g := s.Create(parent, scene.Group)
	defs := s.Create(g, scene.Defs)
	marker := s.Create(defs, scene.Marker,
		scene.Str("id", "arrow"),
		scene.Str("viewBox", "0 -5 10 10"),
		scene.Num("refX", 5),
		scene.Num("refY", 0),
		scene.Num("markerWidth", 4),
		scene.Num("markerHeight", 4),
		scene.Str("orient", "auto"),
	)
	s.Create(marker, scene.Path, scene.Str("d", "M0,-5L10,0L0,5"))
	return g
}

// roundHalfUp rounds halves towards positive infinity, so -2.5 reads as -2.
func roundHalfUp(v float64) float64 {
	return math.Floor(v+0.5) + 0
}

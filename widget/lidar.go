package widget

import (
	"github.com/CodedInternet/vehicledash/buffer"
	"github.com/CodedInternet/vehicledash/calcs"
	"github.com/CodedInternet/vehicledash/polar"
	"github.com/CodedInternet/vehicledash/scene"
	"github.com/CodedInternet/vehicledash/telemetry"
	"math"
	"time"
)

const (
	LIDAR_DOMAIN    = 40 // initial range domain before the first draw
	LIDAR_TICKS     = 5
	POINT_RADIUS    = 4
	POINT_ENTRANCE  = 750 * time.Millisecond
	DOMAIN_HEADROOM = 1.1
)

const (
	roleRing   scene.Role = "ring"
	roleCircle scene.Role = "circle"
	roleTick   scene.Role = "tick"
	roleLabel  scene.Role = "label"
	rolePoint  scene.Role = "point"
)

// Lidar plots a rolling window of range/bearing returns around the sensor.
type Lidar struct {
	lifecycle
	cfg   Config
	buf   *buffer.Ring[telemetry.RangeBearing]
	scale polar.Scale

	origin scene.Key
	rings  scene.Key
	axis   scene.Key
	points scene.Key
}

// NewLidar creates an unbound view holding the last capacity returns.
func NewLidar(capacity int, cfg Config) (*Lidar, error) {
	if err := cfg.Validate(); err != nil {
		return nil, withWidget(err, "lidar")
	}
	buf, err := buffer.New(capacity, telemetry.RangeBearing{})
	if err != nil {
		return nil, err
	}
	l := &Lidar{
		lifecycle: lifecycle{name: "lidar"},
		cfg:       cfg.clone(),
		buf:       buf,
	}
	l.scale = polar.NewScale(LIDAR_DOMAIN, l.OuterRadius())
	return l, nil
}

func (l *Lidar) Config() Config { return l.cfg.clone() }

// OuterRadius is the pixel radius of the outermost ring.
func (l *Lidar) OuterRadius() float64 {
	return math.Min(l.cfg.Width, l.cfg.Height) / 2
}

// DomainMax is the range mapped onto the outer radius by the last draw.
func (l *Lidar) DomainMax() float64 {
	return l.scale.Domain()
}

func (l *Lidar) Scale() polar.Scale {
	return l.scale
}

// Snapshot copies the buffered returns in storage order.
func (l *Lidar) Snapshot() []telemetry.RangeBearing {
	return l.buf.Snapshot()
}

func (l *Lidar) Buffer() *buffer.Ring[telemetry.RangeBearing] {
	return l.buf
}

// Reconfigure replaces the geometry of an unbound view.
func (l *Lidar) Reconfigure(cfg Config) error {
	if err := l.unbound(); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return withWidget(err, l.name)
	}
	l.cfg = cfg.clone()
	l.scale = polar.NewScale(LIDAR_DOMAIN, l.OuterRadius())
	return nil
}

// Bind draws the scale rings, crosshairs and axis into s. Points appear on
// the first Draw.
func (l *Lidar) Bind(s *scene.Scene) error {
	if err := l.bind(s); err != nil {
		return err
	}
	ox, oy := l.cfg.Width/2-l.cfg.Margin.Left, l.cfg.Height/2-l.cfg.Margin.Top
	l.frame, l.origin = panel(s, l.cfg, ox, oy)

	l.rings = s.Create(l.origin, scene.Group, scene.Str("class", "lidar-scale"))
	outer := l.OuterRadius()
	s.Create(l.origin, scene.Line,
		scene.Num("x1", -outer), scene.Num("y1", 0),
		scene.Num("x2", outer), scene.Num("y2", 0),
		scene.Str("class", "lidar-scale"))
	s.Create(l.origin, scene.Line,
		scene.Num("x1", 0), scene.Num("y1", -outer),
		scene.Num("x2", 0), scene.Num("y2", outer),
		scene.Str("class", "lidar-scale"))
	l.axis = s.Create(l.origin, scene.Group, scene.Str("class", "lidar-scale axis"))
	l.points = s.Create(l.origin, scene.Group, scene.Str("class", "lidar-points"))

	l.drawScale()
	return nil
}

// Push buffers one return and redraws the whole window.
func (l *Lidar) Push(sample telemetry.RangeBearing) error {
	if err := l.ready(); err != nil {
		return err
	}
	if err := sample.Validate(); err != nil {
		return err
	}
	l.buf.Add(sample)
	return l.Draw(l.buf.Snapshot())
}

// Draw rescales the view to fit points and reconciles one marker per slot.
// Nothing is changed if any point is invalid.
func (l *Lidar) Draw(points []telemetry.RangeBearing) error {
	if err := l.ready(); err != nil {
		return err
	}
	for _, p := range points {
		if err := p.Validate(); err != nil {
			return err
		}
	}

	l.scale = polar.NewScale(polar.Headroom(calcs.MaxRange(points), DOMAIN_HEADROOM), l.OuterRadius())
	l.drawScale()

	s := l.scene
	s.Join(l.points, rolePoint, scene.Circle, len(points),
		func(slot int, k scene.Key) {
			s.Set(k, scene.Str("class", "lidar-points"), scene.Num("r", 0))
			s.Animate(k, POINT_ENTRANCE, scene.Num("r", POINT_RADIUS))
		},
		func(slot int, k scene.Key) {
			xy := polar.RangeBearing(points[slot].Range, points[slot].Bearing, l.scale)
			s.Set(k, scene.Num("cx", xy.X()), scene.Num("cy", xy.Y()))
		})
	return nil
}

// drawScale reconciles rings and axis labels with the current domain. The
// number of ticks can change between draws.
func (l *Lidar) drawScale() {
	s := l.scene
	ticks := l.scale.Ticks(LIDAR_TICKS)

	s.Join(l.rings, roleRing, scene.Group, len(ticks),
		func(slot int, k scene.Key) {
			s.CreateRole(k, scene.Circle, roleCircle, 0)
		},
		func(slot int, k scene.Key) {
			ring, _ := s.Lookup(k, roleCircle, 0)
			s.Set(ring, scene.Num("r", l.scale.Apply(ticks[slot])))
		})

	s.Join(l.axis, roleTick, scene.Group, len(ticks),
		func(slot int, k scene.Key) {
			s.Create(k, scene.Line, scene.Num("y2", 6))
			s.CreateRole(k, scene.Text, roleLabel, 0,
				scene.Num("y", 9),
				scene.Str("dy", ".71em"),
				scene.Str("text-anchor", "middle"))
		},
		func(slot int, k scene.Key) {
			s.Set(k, scene.Str("transform", scene.Translate(l.scale.Apply(ticks[slot]), 0)))
			label, _ := s.Lookup(k, roleLabel, 0)
			s.SetText(label, scene.FormatFloat(ticks[slot]))
		})
}

// Package dashboard builds the panels described by a Layout and routes
// telemetry records to them.
package dashboard

import (
	"fmt"
	"github.com/CodedInternet/vehicledash/scene"
	"github.com/CodedInternet/vehicledash/telemetry"
	"github.com/CodedInternet/vehicledash/widget"
	"io"
)

// Panel is one widget bound to its own scene.
type Panel struct {
	Config PanelConfig
	Scene  *scene.Scene
	Gauge  *widget.Gauge // nil for lidar panels
	Lidar  *widget.Lidar // nil for gauges
}

// PanelInfo is what a browser needs to lay out the page.
type PanelInfo struct {
	Name   string  `json:"name"`
	Kind   string  `json:"kind"`
	Title  string  `json:"title"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// PanelPatch carries the changes to one panel's scene.
type PanelPatch struct {
	Panel string      `json:"panel"`
	Ops   scene.Patch `json:"ops"`
}

// Frame is the outcome of applying one record.
type Frame struct {
	Patches     []PanelPatch
	Calibration *telemetry.CalibrationStatus
}

// Empty reports whether the frame has nothing to send.
func (f Frame) Empty() bool {
	return len(f.Patches) == 0 && f.Calibration == nil
}

type UnknownPanelError struct {
	Name string
}

func (err UnknownPanelError) Error() string {
	return fmt.Sprintf("no such panel %s", err.Name)
}

// Dashboard owns every panel. It is not safe for concurrent use.
type Dashboard struct {
	layout      Layout
	panels      []*Panel
	byName      map[string]*Panel
	calibration telemetry.CalibrationStatus
	calibrated  bool
}

// New validates layout and binds one widget per panel.
func New(layout Layout) (*Dashboard, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	d := &Dashboard{layout: layout, byName: make(map[string]*Panel)}
	for _, pc := range layout.Panels {
		p, err := newPanel(pc)
		if err != nil {
			d.Close()
			return nil, fmt.Errorf("panel %s: %w", pc.Name, err)
		}
		d.panels = append(d.panels, p)
		d.byName[pc.Name] = p
	}
	return d, nil
}

func newPanel(pc PanelConfig) (p *Panel, err error) {
	p = &Panel{Config: pc, Scene: scene.New()}
	switch pc.Kind {
	case KindLidar:
		if p.Lidar, err = widget.NewLidar(pc.Capacity, pc.Widget); err != nil {
			return nil, err
		}
		err = p.Lidar.Bind(p.Scene)
	case KindGauge:
		if p.Gauge, err = widget.NewGauge(widget.Profiles[pc.Profile], pc.Widget); err != nil {
			return nil, err
		}
		err = p.Gauge.Bind(p.Scene)
	}
	if err != nil {
		return nil, err
	}
	// the initial scaffold goes out through Replay, not as a patch
	p.Scene.Flush()
	return p, nil
}

func (d *Dashboard) Layout() Layout {
	return d.layout
}

func (d *Dashboard) Panel(name string) (*Panel, error) {
	p, ok := d.byName[name]
	if !ok {
		return nil, UnknownPanelError{Name: name}
	}
	return p, nil
}

// Panels lists the panels in layout order.
func (d *Dashboard) Panels() []PanelInfo {
	info := make([]PanelInfo, len(d.panels))
	for i, p := range d.panels {
		info[i] = PanelInfo{
			Name:   p.Config.Name,
			Kind:   p.Config.Kind,
			Title:  p.Config.Widget.Title,
			Width:  p.Config.Widget.Width,
			Height: p.Config.Widget.Height,
		}
	}
	return info
}

// Calibration returns the last calibration status, if one has arrived.
func (d *Dashboard) Calibration() (telemetry.CalibrationStatus, bool) {
	return d.calibration, d.calibrated
}

// Apply draws a record into every panel fed by it and collects the
// resulting patches.
func (d *Dashboard) Apply(r telemetry.Record) (f Frame, err error) {
	if err = r.Validate(); err != nil {
		return
	}

	for _, p := range d.panels {
		if err = p.apply(r); err != nil {
			return f, fmt.Errorf("panel %s: %w", p.Config.Name, err)
		}
	}
	if r.Type == telemetry.Calibration {
		d.calibration, d.calibrated = r.Status, true
		status := r.Status
		f.Calibration = &status
	}

	f.Patches = d.flush()
	return
}

func (p *Panel) apply(r telemetry.Record) error {
	src := p.Config.Source
	switch {
	case r.Type == telemetry.Lidar && src == SourceLidar:
		return p.Lidar.Push(r.Return)
	case r.Type == telemetry.Steering && src == SourceSteer:
		return p.Gauge.Update(r.Angle)
	case r.Type == telemetry.Orientation:
		switch src {
		case SourceHeading:
			return p.Gauge.Update(r.Heading)
		case SourceRoll:
			return p.Gauge.Update(r.Roll)
		case SourcePitch:
			return p.Gauge.Update(r.Pitch)
		}
	}
	return nil
}

func (d *Dashboard) flush() (patches []PanelPatch) {
	for _, p := range d.panels {
		if p.Scene.Pending() == 0 {
			continue
		}
		patches = append(patches, PanelPatch{Panel: p.Config.Name, Ops: p.Scene.Flush()})
	}
	return
}

// Replay describes every panel in full, for a view that has just connected.
// Pending changes are flushed first so the replay and the live stream do not
// overlap.
func (d *Dashboard) Replay() (patches []PanelPatch, pending []PanelPatch) {
	pending = d.flush()
	for _, p := range d.panels {
		patches = append(patches, PanelPatch{Panel: p.Config.Name, Ops: p.Scene.Replay()})
	}
	return
}

// Render writes one panel as a standalone SVG document.
func (d *Dashboard) Render(name string, w io.Writer) error {
	p, err := d.Panel(name)
	if err != nil {
		return err
	}
	return p.Scene.WriteSVG(w)
}

// LidarPoints copies the buffered returns of a lidar panel.
func (d *Dashboard) LidarPoints(name string) ([]telemetry.RangeBearing, error) {
	p, err := d.Panel(name)
	if err != nil {
		return nil, err
	}
	if p.Lidar == nil {
		return nil, UnknownPanelError{Name: name}
	}
	return p.Lidar.Snapshot(), nil
}

// Close disposes every widget.
func (d *Dashboard) Close() {
	for _, p := range d.panels {
		if p.Gauge != nil {
			p.Gauge.Dispose()
		}
		if p.Lidar != nil {
			p.Lidar.Dispose()
		}
	}
}

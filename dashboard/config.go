package dashboard

import (
	"fmt"
	"github.com/CodedInternet/vehicledash/widget"
	"gopkg.in/yaml.v2"
	"io/ioutil"
)

const LAYOUT_VERSION = 1

// Panel kinds.
const (
	KindGauge = "gauge"
	KindLidar = "lidar"
)

// Source names the telemetry field that drives a panel.
type Source string

const (
	SourceHeading Source = "heading"
	SourceRoll    Source = "roll"
	SourcePitch   Source = "pitch"
	SourceSteer   Source = "steer"
	SourceLidar   Source = "lidar"
)

type Layout struct {
	Version int
	Panels  []PanelConfig
}

// PanelConfig describes one widget and where its data comes from.
type PanelConfig struct {
	Name     string
	Kind     string
	Profile  string // gauge profile, see widget.Profiles
	Source   Source
	Capacity int // lidar history length
	Widget   widget.Config
}

type YAMLPanel struct {
	Name     string             `yaml:"name"`
	Kind     string             `yaml:"kind"`
	Profile  string             `yaml:"profile,omitempty"`
	Source   Source             `yaml:"source"`
	Capacity int                `yaml:"capacity,omitempty"`
	Title    string             `yaml:"title"`
	Width    float64            `yaml:"width"`
	Height   float64            `yaml:"height"`
	Margin   []float64          `yaml:"margin,flow,omitempty"` // top, right, bottom, left
	Labels   []widget.SideLabel `yaml:"labels,omitempty"`
}

func (pc PanelConfig) MarshalYAML() (interface{}, error) {
	m := pc.Widget.Margin
	return &YAMLPanel{
		Name:     pc.Name,
		Kind:     pc.Kind,
		Profile:  pc.Profile,
		Source:   pc.Source,
		Capacity: pc.Capacity,
		Title:    pc.Widget.Title,
		Width:    pc.Widget.Width,
		Height:   pc.Widget.Height,
		Margin:   []float64{m.Top, m.Right, m.Bottom, m.Left},
		Labels:   pc.Widget.Labels,
	}, nil
}

func (pc *PanelConfig) UnmarshalYAML(unmarshal func(interface{}) error) error {
	yp := YAMLPanel{Width: widget.DEFAULT_WIDTH, Height: widget.DEFAULT_HEIGHT, Title: widget.DEFAULT_TITLE}
	if err := unmarshal(&yp); err != nil {
		return err
	}

	cfg := widget.DefaultConfig()
	cfg.Title, cfg.Width, cfg.Height, cfg.Labels = yp.Title, yp.Width, yp.Height, yp.Labels
	switch len(yp.Margin) {
	case 0:
	case 1:
		v := yp.Margin[0]
		cfg.Margin = widget.Margin{Top: v, Right: v, Bottom: v, Left: v}
	case 4:
		cfg.Margin = widget.Margin{Top: yp.Margin[0], Right: yp.Margin[1], Bottom: yp.Margin[2], Left: yp.Margin[3]}
	default:
		return LayoutError{Panel: yp.Name, Reason: "margin takes one or four values"}
	}

	*pc = PanelConfig{
		Name:     yp.Name,
		Kind:     yp.Kind,
		Profile:  yp.Profile,
		Source:   yp.Source,
		Capacity: yp.Capacity,
		Widget:   cfg,
	}
	return nil
}

type LayoutError struct {
	Panel  string
	Reason string
}

func (err LayoutError) Error() string {
	if len(err.Panel) == 0 {
		return fmt.Sprintf("invalid layout: %s", err.Reason)
	}
	return fmt.Sprintf("invalid layout: panel %s: %s", err.Panel, err.Reason)
}

// Validate checks the layout can be built before any widget is created.
func (l Layout) Validate() error {
	if l.Version != LAYOUT_VERSION {
		return LayoutError{Reason: fmt.Sprintf("unsupported version %d", l.Version)}
	}
	if len(l.Panels) == 0 {
		return LayoutError{Reason: "no panels"}
	}

	seen := make(map[string]bool, len(l.Panels))
	for _, p := range l.Panels {
		switch {
		case p.Name == "":
			return LayoutError{Reason: "panel without a name"}
		case seen[p.Name]:
			return LayoutError{Panel: p.Name, Reason: "duplicate name"}
		}
		seen[p.Name] = true

		switch p.Kind {
		case KindLidar:
			if p.Source != SourceLidar {
				return LayoutError{Panel: p.Name, Reason: "lidar panels take the lidar source"}
			}
			if p.Capacity < 1 {
				return LayoutError{Panel: p.Name, Reason: "capacity must be at least 1"}
			}
		case KindGauge:
			if _, ok := widget.Profiles[p.Profile]; !ok {
				return LayoutError{Panel: p.Name, Reason: fmt.Sprintf("unknown profile %q", p.Profile)}
			}
			switch p.Source {
			case SourceHeading, SourceRoll, SourcePitch, SourceSteer:
			default:
				return LayoutError{Panel: p.Name, Reason: fmt.Sprintf("unknown source %q", p.Source)}
			}
		default:
			return LayoutError{Panel: p.Name, Reason: fmt.Sprintf("unknown kind %q", p.Kind)}
		}

		if err := p.Widget.Validate(); err != nil {
			return LayoutError{Panel: p.Name, Reason: err.Error()}
		}
	}
	return nil
}

// ParseLayout reads and validates a YAML layout.
func ParseLayout(data []byte) (l Layout, err error) {
	if err = yaml.Unmarshal(data, &l); err != nil {
		return
	}
	err = l.Validate()
	return
}

func LoadLayout(path string) (Layout, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return Layout{}, err
	}
	return ParseLayout(data)
}

// DefaultLayout is the vehicle monitoring page at a 1000 pixel page width:
// the lidar view across the top row, four indicators below it.
func DefaultLayout() Layout {
	gauge := func(name, profile string, src Source, title string, h float64, labels ...widget.SideLabel) PanelConfig {
		cfg := widget.DefaultConfig()
		cfg.Width, cfg.Height, cfg.Title, cfg.Labels = 248, h, title, labels
		return PanelConfig{Name: name, Kind: KindGauge, Profile: profile, Source: src, Widget: cfg}
	}
	lidar := widget.DefaultConfig()
	lidar.Width, lidar.Height, lidar.Title = 498, 410, "Lidar data"

	return Layout{
		Version: LAYOUT_VERSION,
		Panels: []PanelConfig{
			{Name: "lidar", Kind: KindLidar, Source: SourceLidar, Capacity: 90, Widget: lidar},
			gauge("heading", "compass", SourceHeading, "Heading", 204),
			gauge("roll", "tilt", SourceRoll, "Roll", 204,
				widget.SideLabel{Label: "Left", XF: -0.85}, widget.SideLabel{Label: "Right", XF: 0.5}),
			gauge("pitch", "tilt", SourcePitch, "Pitch", 204,
				widget.SideLabel{Label: "Front", XF: -0.85}, widget.SideLabel{Label: "Rear", XF: 0.5}),
			gauge("steer", "steer", SourceSteer, "Steer angle", 102),
		},
	}
}

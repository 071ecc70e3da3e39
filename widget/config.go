package widget

// Default panel geometry, in pixels.
const (
	DEFAULT_WIDTH  = 250
	DEFAULT_HEIGHT = 250
	DEFAULT_TITLE  = "Title"
)

// Margin goes between the root <svg> and its first child group.
type Margin struct {
	Top    float64 `yaml:"top" json:"top"`
	Right  float64 `yaml:"right" json:"right"`
	Bottom float64 `yaml:"bottom" json:"bottom"`
	Left   float64 `yaml:"left" json:"left"`
}

// SideLabel is a fixed caption drawn on a tilt horizon, placed at XF times
// the gauge radius from the pivot.
type SideLabel struct {
	Label string  `yaml:"label" json:"label"`
	XF    float64 `yaml:"xf" json:"xf"`
}

// Config is the immutable geometry of a widget. Copy it, change the copy and
// hand it back through Reconfigure before binding.
type Config struct {
	Width  float64
	Height float64
	Margin Margin
	Title  string
	Labels []SideLabel
}

// DefaultConfig returns a 250x250 panel with a one pixel margin.
func DefaultConfig() Config {
	return Config{
		Width:  DEFAULT_WIDTH,
		Height: DEFAULT_HEIGHT,
		Margin: Margin{1, 1, 1, 1},
		Title:  DEFAULT_TITLE,
	}
}

// Validate rejects geometry no widget can be drawn in.
func (c Config) Validate() error {
	switch {
	case !(c.Width > 0) || !(c.Height > 0):
		return ConfigurationError{Reason: "width and height must be positive"}
	case c.Margin.Left < 0 || c.Margin.Right < 0 || c.Margin.Top < 0 || c.Margin.Bottom < 0:
		return ConfigurationError{Reason: "margins must not be negative"}
	}
	return nil
}

func (c Config) clone() Config {
	c.Labels = append([]SideLabel(nil), c.Labels...)
	return c
}

// Builder assembles a Config from the defaults.
type Builder struct {
	cfg Config
}

func NewBuilder() *Builder {
	return &Builder{cfg: DefaultConfig()}
}

func (b *Builder) Width(w float64) *Builder {
	b.cfg.Width = w
	return b
}

func (b *Builder) Height(h float64) *Builder {
	b.cfg.Height = h
	return b
}

func (b *Builder) Margin(m Margin) *Builder {
	b.cfg.Margin = m
	return b
}

func (b *Builder) Title(t string) *Builder {
	b.cfg.Title = t
	return b
}

func (b *Builder) Labels(labels ...SideLabel) *Builder {
	b.cfg.Labels = append([]SideLabel(nil), labels...)
	return b
}

// Build validates and returns the configuration.
func (b *Builder) Build() (Config, error) {
	cfg := b.cfg.clone()
	return cfg, cfg.Validate()
}

package dashboard

import (
	"bytes"
	"github.com/CodedInternet/vehicledash/scene"
	"github.com/CodedInternet/vehicledash/telemetry"
	"github.com/CodedInternet/vehicledash/widget"
	. "github.com/smartystreets/goconvey/convey"
	"gopkg.in/yaml.v2"
	"testing"
)

const testLayout = `
version: 1
panels:
- name: heading
  kind: gauge
  profile: compass
  source: heading
  title: Heading
  width: 240
  height: 180
  margin: [2, 3, 4, 5]
- name: roll
  kind: gauge
  profile: tilt
  source: roll
  title: Roll
  margin: [1]
  labels:
  - {label: Left, xf: -0.85}
  - {label: Right, xf: 0.5}
- name: lidar
  kind: lidar
  source: lidar
  capacity: 3
  title: Lidar data
`

func TestLayoutParsing(t *testing.T) {
	Convey("parsing a layout", t, func() {
		l, err := ParseLayout([]byte(testLayout))
		So(err, ShouldBeNil)
		So(l.Panels, ShouldHaveLength, 3)

		Convey("margins accept four values or one", func() {
			So(l.Panels[0].Widget.Margin, ShouldResemble, widget.Margin{Top: 2, Right: 3, Bottom: 4, Left: 5})
			So(l.Panels[1].Widget.Margin, ShouldResemble, widget.Margin{Top: 1, Right: 1, Bottom: 1, Left: 1})
		})

		Convey("missing sizes fall back to the defaults", func() {
			So(l.Panels[1].Widget.Width, ShouldEqual, widget.DEFAULT_WIDTH)
			So(l.Panels[1].Widget.Labels, ShouldResemble, []widget.SideLabel{{Label: "Left", XF: -0.85}, {Label: "Right", XF: 0.5}})
		})

		Convey("a layout survives a round trip", func() {
			data, err := yaml.Marshal(l)
			So(err, ShouldBeNil)
			again, err := ParseLayout(data)
			So(err, ShouldBeNil)
			So(again, ShouldResemble, l)
		})
	})

	Convey("invalid layouts are rejected", t, func() {
		cases := map[string]string{
			"version":   "version: 2\npanels: [{name: a, kind: lidar, source: lidar, capacity: 1}]",
			"empty":     "version: 1",
			"kind":      "version: 1\npanels: [{name: a, kind: radar, source: lidar}]",
			"profile":   "version: 1\npanels: [{name: a, kind: gauge, profile: altimeter, source: heading}]",
			"source":    "version: 1\npanels: [{name: a, kind: gauge, profile: compass, source: lidar}]",
			"capacity":  "version: 1\npanels: [{name: a, kind: lidar, source: lidar}]",
			"duplicate": "version: 1\npanels: [{name: a, kind: lidar, source: lidar, capacity: 1}, {name: a, kind: lidar, source: lidar, capacity: 1}]",
			"size":      "version: 1\npanels: [{name: a, kind: gauge, profile: steer, source: steer, width: -1}]",
		}
		for name, doc := range cases {
			_, err := ParseLayout([]byte(doc))
			So(err, ShouldHaveSameTypeAs, LayoutError{})
			Printf("%s rejected\n", name)
		}

		_, err := ParseLayout([]byte("version: 1\npanels: [{name: a, kind: lidar, source: lidar, capacity: 1, margin: [1, 2]}]"))
		So(err, ShouldNotBeNil)
	})

	Convey("the default layout is valid", t, func() {
		l := DefaultLayout()
		So(l.Validate(), ShouldBeNil)
		So(l.Panels[0].Capacity, ShouldEqual, 90)
		So(l.Panels[4].Widget.Height, ShouldEqual, 102)
	})
}

func TestDashboard(t *testing.T) {
	Convey("Given the default dashboard", t, func() {
		d, err := New(DefaultLayout())
		So(err, ShouldBeNil)
		So(d.Panels(), ShouldHaveLength, 5)

		heading, _ := d.Panel("heading")
		roll, _ := d.Panel("roll")
		pitch, _ := d.Panel("pitch")

		Convey("an orientation record moves the three orientation gauges", func() {
			f, err := d.Apply(telemetry.Record{Type: telemetry.Orientation, Heading: 90, Roll: 185, Pitch: -5})
			So(err, ShouldBeNil)
			So(f.Patches, ShouldHaveLength, 3)
			So(f.Patches[0].Panel, ShouldEqual, "heading")
			So(heading.Gauge.ReadoutText(), ShouldEqual, "Heading: 90°")
			So(roll.Gauge.Value(), ShouldEqual, -175)
			So(pitch.Gauge.ReadoutText(), ShouldEqual, "Pitch: -5°")
		})

		Convey("a repeated record produces no patches", func() {
			r := telemetry.Record{Type: telemetry.Steering, Angle: 12}
			_, err := d.Apply(r)
			So(err, ShouldBeNil)
			f, err := d.Apply(r)
			So(err, ShouldBeNil)
			So(f.Empty(), ShouldBeTrue)
		})

		Convey("lidar records are buffered", func() {
			_, err := d.Apply(telemetry.Record{Type: telemetry.Lidar, Return: telemetry.RangeBearing{Range: 12, Bearing: 356}})
			So(err, ShouldBeNil)
			pts, err := d.LidarPoints("lidar")
			So(err, ShouldBeNil)
			So(pts, ShouldHaveLength, 90)
			So(pts[0].Range, ShouldEqual, 12)

			_, err = d.LidarPoints("heading")
			So(err, ShouldHaveSameTypeAs, UnknownPanelError{})
		})

		Convey("calibration is remembered and forwarded", func() {
			status := telemetry.CalibrationStatus{Accel: 1, Mag: 2, Gyro: 3, System: 0}
			f, err := d.Apply(telemetry.Record{Type: telemetry.Calibration, Status: status})
			So(err, ShouldBeNil)
			So(f.Patches, ShouldBeEmpty)
			So(*f.Calibration, ShouldResemble, status)
			got, ok := d.Calibration()
			So(ok, ShouldBeTrue)
			So(got, ShouldResemble, status)
		})

		Convey("invalid records change nothing", func() {
			_, err := d.Apply(telemetry.Record{Type: telemetry.Lidar, Return: telemetry.RangeBearing{Range: -1}})
			So(err, ShouldHaveSameTypeAs, telemetry.InvalidSampleError{})
			for _, p := range []*Panel{heading, roll, pitch} {
				So(p.Scene.Pending(), ShouldEqual, 0)
			}
		})

		Convey("replay describes every element of every panel", func() {
			patches, pending := d.Replay()
			So(pending, ShouldBeEmpty)
			So(patches, ShouldHaveLength, 5)
			created, _, _ := patches[1].Ops.Counts()
			So(created, ShouldEqual, heading.Scene.Len()-1)

			Convey("and a scene rebuilt from it has the same elements", func() {
				remote := applyPatch(patches[1].Ops)
				So(remote.Len(), ShouldEqual, heading.Scene.Len())
				var svg bytes.Buffer
				So(remote.WriteSVG(&svg), ShouldBeNil)
				So(svg.String(), ShouldContainSubstring, ">Heading: 0°</text>")
			})
		})

		Convey("rendering an unknown panel fails", func() {
			var buf bytes.Buffer
			So(d.Render("altimeter", &buf), ShouldHaveSameTypeAs, UnknownPanelError{})
		})

		Convey("closing disposes every widget", func() {
			d.Close()
			So(heading.Scene.Len(), ShouldEqual, 1)
			So(heading.Gauge.State(), ShouldEqual, widget.Disposed)
		})
	})
}

// applyPatch mimics the browser: a remote copy built only from ops.
func applyPatch(p scene.Patch) *scene.Scene {
	s := scene.New()
	keys := map[scene.Key]scene.Key{p[0].Key: s.Root()}
	for _, op := range p {
		var attrs []scene.Attr
		for name, v := range op.Attrs {
			attrs = append(attrs, scene.Str(name, v))
		}
		switch op.Op {
		case scene.OpUpdate:
			s.Set(keys[op.Key], attrs...)
			s.Unset(keys[op.Key], op.Unset...)
		case scene.OpCreate:
			k := s.Create(keys[op.Parent], op.Kind, attrs...)
			keys[op.Key] = k
			if op.Text != nil {
				s.SetText(k, *op.Text)
			}
		}
	}
	return s
}

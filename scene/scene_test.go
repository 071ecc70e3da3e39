package scene

import (
	"bytes"
	"errors"
	. "github.com/smartystreets/goconvey/convey"
	"strings"
	"testing"
	"time"
)

func TestScene(t *testing.T) {
	Convey("a new scene only holds the root", t, func() {
		s := New()
		So(s.Len(), ShouldEqual, 1)
		So(s.Kind(s.Root()), ShouldEqual, SVG)
		So(s.Pending(), ShouldEqual, 0)

		Convey("creating elements journals a create op", func() {
			g := s.Create(s.Root(), Group, Str("class", "origin"))
			l := s.Create(g, Line, Num("x1", 0), Num("x2", 10.00001))

			p := s.Flush()
			So(len(p), ShouldEqual, 2)
			So(p[0], ShouldResemble, Op{Op: OpCreate, Key: g, Parent: s.Root(), Kind: Group, Attrs: map[string]string{"class": "origin"}})
			So(p[1].Attrs, ShouldResemble, map[string]string{"x1": "0", "x2": "10"})
			So(s.Pending(), ShouldEqual, 0)

			Convey("unsetting removes attributes and journals their names", func() {
				So(s.Unset(l, "x1", "stroke"), ShouldBeTrue)
				_, ok := s.Attr(l, "x1")
				So(ok, ShouldBeFalse)
				So(s.Flush(), ShouldResemble, Patch{{Op: OpUpdate, Key: l, Unset: []string{"x1"}}})
				So(s.Unset(l, "x1"), ShouldBeFalse)
				So(s.Pending(), ShouldEqual, 0)
			})

			Convey("setting an unchanged value is not journalled", func() {
				So(s.Set(l, Num("x2", 10)), ShouldBeFalse)
				So(s.Pending(), ShouldEqual, 0)
			})

			Convey("only changed attributes are journalled", func() {
				So(s.Set(l, Num("x1", 0), Num("x2", 12.5)), ShouldBeTrue)
				p := s.Flush()
				So(len(p), ShouldEqual, 1)
				So(p[0].Attrs, ShouldResemble, map[string]string{"x2": "12.5"})

				v, ok := s.Attr(l, "x2")
				So(ok, ShouldBeTrue)
				So(v, ShouldEqual, "12.5")
			})

			Convey("animations carry their duration", func() {
				s.Animate(l, 750*time.Millisecond, Num("x2", 4))
				p := s.Flush()
				So(p[0].Duration, ShouldEqual, 750)
			})

			Convey("text is journalled once per change", func() {
				txt := s.Create(g, Text)
				s.Flush()
				So(s.SetText(txt, "Heading: 0°"), ShouldBeTrue)
				So(s.SetText(txt, "Heading: 0°"), ShouldBeFalse)
				p := s.Flush()
				So(len(p), ShouldEqual, 1)
				So(*p[0].Text, ShouldEqual, "Heading: 0°")
				So(s.Text(txt), ShouldEqual, "Heading: 0°")
			})

			Convey("removing a group removes its subtree", func() {
				s.Remove(g)
				So(s.Has(g), ShouldBeFalse)
				So(s.Has(l), ShouldBeFalse)
				So(s.Len(), ShouldEqual, 1)
				So(s.Children(s.Root()), ShouldBeEmpty)
				So(s.Flush(), ShouldResemble, Patch{{Op: OpRemove, Key: g}})
			})
		})

		Convey("the root cannot be removed", func() {
			So(func() { s.Remove(s.Root()) }, ShouldPanic)
		})

		Convey("unknown keys panic", func() {
			So(func() { s.Set(Key(999), Num("r", 1)) }, ShouldPanic)
		})
	})

	Convey("a scene hosts a single owner", t, func() {
		s := New()
		So(s.Claim("compass"), ShouldBeNil)
		err := s.Claim("lidar")
		So(err, ShouldResemble, ClaimedError{Owner: "compass"})
		So(s.Owner(), ShouldEqual, "compass")

		s.Release()
		So(s.Claim("lidar"), ShouldBeNil)
	})
}

func TestJoin(t *testing.T) {
	Convey("joining slots against a parent", t, func() {
		s := New()
		g := s.Create(s.Root(), Group)
		s.Flush()

		var enters, updates int
		enter := func(slot int, k Key) {
			enters++
			s.Set(k, Num("r", 0))
		}
		update := func(slot int, k Key) {
			updates++
			s.Set(k, Num("cx", float64(slot)))
		}

		entered, exited := s.Join(g, "point", Circle, 3, enter, update)
		So(entered, ShouldEqual, 3)
		So(exited, ShouldEqual, 0)
		So(enters, ShouldEqual, 3)
		So(updates, ShouldEqual, 3)
		So(s.Count("point"), ShouldEqual, 3)

		first, ok := s.Lookup(g, "point", 0)
		So(ok, ShouldBeTrue)

		Convey("rejoining the same slots reuses every element", func() {
			s.Flush()
			entered, exited := s.Join(g, "point", Circle, 3, enter, update)
			So(entered, ShouldEqual, 0)
			So(exited, ShouldEqual, 0)
			So(enters, ShouldEqual, 3)
			So(updates, ShouldEqual, 6)
			So(s.Pending(), ShouldEqual, 0)

			again, _ := s.Lookup(g, "point", 0)
			So(again, ShouldEqual, first)
		})

		Convey("fewer slots remove the tail", func() {
			entered, exited := s.Join(g, "point", Circle, 1, nil, nil)
			So(entered, ShouldEqual, 0)
			So(exited, ShouldEqual, 2)
			So(s.Count("point"), ShouldEqual, 1)
			_, ok := s.Lookup(g, "point", 2)
			So(ok, ShouldBeFalse)
		})

		Convey("roles are scoped to their parent", func() {
			other := s.Create(s.Root(), Group)
			s.Join(other, "point", Circle, 2, nil, nil)
			So(s.Count("point"), ShouldEqual, 5)
			_, ok := s.Lookup(other, "point", 2)
			So(ok, ShouldBeFalse)
		})
	})
}

func TestReplay(t *testing.T) {
	Convey("replaying rebuilds the same tree", t, func() {
		s := New()
		s.Set(s.Root(), Num("width", 250))
		g := s.Create(s.Root(), Group, Str("transform", Translate(1, 1)))
		txt := s.Create(g, Text, Str("class", "readout"))
		s.SetText(txt, "Roll: 0°")
		s.CreateRole(g, Circle, "point", 0, Num("r", 4))

		p := s.Replay()
		So(len(p), ShouldEqual, 4)
		So(p[0].Op, ShouldEqual, OpUpdate)
		So(p[0].Attrs["width"], ShouldEqual, "250")
		So(p[1].Key, ShouldEqual, g)
		So(p[2].Key, ShouldEqual, txt)
		So(*p[2].Text, ShouldEqual, "Roll: 0°")
		So(p[3].Role, ShouldEqual, Role("point"))

		created, updated, removed := p.Counts()
		So(created, ShouldEqual, 3)
		So(updated, ShouldEqual, 1)
		So(removed, ShouldEqual, 0)
	})
}

func TestWriteSVG(t *testing.T) {
	Convey("svg output is escaped and nested", t, func() {
		s := New()
		g := s.Create(s.Root(), Group, Str("class", "a & b"))
		txt := s.Create(g, Text)
		s.SetText(txt, "<left>")
		s.CreateRole(g, Circle, "point", 0, Num("r", 4))

		var buf bytes.Buffer
		So(s.WriteSVG(&buf), ShouldBeNil)
		So(buf.String(), ShouldEqual,
			`<svg xmlns="http://www.w3.org/2000/svg"><g class="a &amp; b"><text>&lt;left&gt;</text><circle r="4" data-role="point"/></g></svg>`)
	})
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestWriteSVGErrors(t *testing.T) {
	Convey("a failing writer is reported while writing a role", t, func() {
		s := New()
		s.CreateRole(s.Root(), Circle, Role(strings.Repeat("point", 1000)), 0)
		err := s.WriteSVG(failingWriter{})
		So(err, ShouldNotBeNil)
		So(err.Error(), ShouldEqual, "disk full")
	})
}

func TestFormat(t *testing.T) {
	Convey("numbers are rounded to thousandths", t, func() {
		So(FormatFloat(1.23456), ShouldEqual, "1.235")
		So(FormatFloat(-0.0001), ShouldEqual, "0")
		So(FormatFloat(100), ShouldEqual, "100")
		So(Translate(-1.5, 2), ShouldEqual, "translate(-1.5,2)")
		So(Rotate(-90), ShouldEqual, "rotate(-90)")
		So(RotateAbout(180, 81, 0), ShouldEqual, "rotate(180 81,0)")
		So(URL("arrow"), ShouldEqual, "url(#arrow)")
	})

	Convey("numbers too large to round are written as they are", t, func() {
		So(FormatFloat(1e308), ShouldEqual, "1e+308")
		So(FormatFloat(-2e306), ShouldEqual, "-2e+306")
		So(FormatFloat(2e-311), ShouldEqual, "0")
	})
}

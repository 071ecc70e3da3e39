package main

import (
	"context"
	"encoding/json"
	"github.com/CodedInternet/vehicledash/comms"
	"github.com/CodedInternet/vehicledash/dashboard"
	"github.com/CodedInternet/vehicledash/telemetry"
	"github.com/benbjohnson/clock"
	"github.com/gorilla/websocket"
	. "github.com/smartystreets/goconvey/convey"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

type testServer struct {
	conductor *comms.Conductor
	server    *httptest.Server
	cancel    context.CancelFunc
}

type recordingSteerer struct {
	values chan float64
}

func (s *recordingSteerer) SetSteering(v float64) error {
	s.values <- v
	return nil
}

// saveUser replaces any earlier user with the same email.
func saveUser(email string, admin, driver bool) {
	var existing User
	if ENV.DB.One("Email", email, &existing) == nil {
		So(ENV.DB.DeleteStruct(&existing), ShouldBeNil)
	}
	user := &User{Email: email, Name: email, Admin: admin, Driver: driver}
	user.SetPassword([]byte("testing123"))
	So(ENV.DB.Save(user), ShouldBeNil)
}

func newTestServer() *testServer {
	return newTestServerWithLink(nil)
}

func newTestServerWithLink(link comms.Steerer) *testServer {
	dash, err := dashboard.New(dashboard.DefaultLayout())
	if err != nil {
		panic(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	clk := clock.NewMock()
	clk.Set(time.Unix(1500000000, 0))
	c := comms.NewConductor(dash, comms.NewHub(0), link, clk)
	go c.Run(ctx)
	return &testServer{
		conductor: c,
		server:    httptest.NewServer(newRouter(c)),
		cancel:    cancel,
	}
}

func (ts *testServer) Close() {
	ts.server.Close()
	ts.cancel()
}

func (ts *testServer) get(path string) (*http.Response, string) {
	resp, err := http.Get(ts.server.URL + path)
	So(err, ShouldBeNil)
	defer resp.Body.Close()
	body, err := ioutil.ReadAll(resp.Body)
	So(err, ShouldBeNil)
	return resp, string(body)
}

func (ts *testServer) dial(path string) *websocket.Conn {
	url := "ws" + strings.TrimPrefix(ts.server.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	So(err, ShouldBeNil)
	return conn
}

// sync waits until every record submitted so far has been applied.
func (ts *testServer) sync() {
	So(ts.conductor.Do(context.Background(), func(*dashboard.Dashboard) {}), ShouldBeNil)
}

func readMessage(conn *websocket.Conn) comms.Message {
	var msg comms.Message
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	So(conn.ReadJSON(&msg), ShouldBeNil)
	return msg
}

func TestPanelRoutes(t *testing.T) {
	Convey("Given a running dashboard server", t, func() {
		ts := newTestServer()
		defer ts.Close()

		Convey("Panels are listed in layout order", func() {
			resp, body := ts.get("/api/panels")
			So(resp.StatusCode, ShouldEqual, http.StatusOK)

			var panels []dashboard.PanelInfo
			So(json.Unmarshal([]byte(body), &panels), ShouldBeNil)
			So(len(panels), ShouldEqual, 5)
			So(panels[0].Name, ShouldEqual, "lidar")
			So(panels[0].Kind, ShouldEqual, dashboard.KindLidar)
		})

		Convey("A panel renders as an SVG document", func() {
			resp, body := ts.get("/api/panels/heading.svg")
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(resp.Header.Get("Content-Type"), ShouldEqual, "image/svg+xml")
			So(body, ShouldStartWith, "<svg")
			So(body, ShouldContainSubstring, "Heading: 0°")
		})

		Convey("Rendering follows injected telemetry", func() {
			ts.conductor.Submit(telemetry.Record{Type: telemetry.Orientation, Heading: 90})
			ts.sync()
			_, body := ts.get("/api/panels/heading.svg")
			So(body, ShouldContainSubstring, "Heading: 90°")
		})

		Convey("Unknown panels are 404", func() {
			resp, body := ts.get("/api/panels/sonar.svg")
			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
			So(body, ShouldContainSubstring, "no such panel sonar")
		})

		Convey("Calibration is 404 until a status arrives", func() {
			resp, _ := ts.get("/api/calibration")
			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)

			ts.conductor.Submit(telemetry.Record{
				Type:   telemetry.Calibration,
				Status: telemetry.CalibrationStatus{Accel: 3, Mag: 2, Gyro: 1, System: 0},
			})
			ts.sync()

			resp, body := ts.get("/api/calibration")
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			var lines []telemetry.CalibrationLine
			So(json.Unmarshal([]byte(body), &lines), ShouldBeNil)
			So(lines, ShouldResemble, telemetry.CalibrationStatus{Accel: 3, Mag: 2, Gyro: 1, System: 0}.Lines())
		})

		Convey("Stats count applied records", func() {
			ts.conductor.Submit(telemetry.Record{Type: telemetry.Steering, Angle: 10})
			ts.sync()
			_, body := ts.get("/api/stats")
			var stats StatsPayload
			So(json.Unmarshal([]byte(body), &stats), ShouldBeNil)
			So(stats.Applied, ShouldEqual, uint64(1))
			So(stats.Dropped, ShouldEqual, uint64(0))
		})

		Convey("The lidar debug chart is an echarts page", func() {
			ts.conductor.Submit(telemetry.Record{Type: telemetry.Lidar, Return: telemetry.RangeBearing{Range: 12, Bearing: 30}})
			ts.sync()
			resp, body := ts.get("/debug/lidar")
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(body, ShouldContainSubstring, "Lidar returns")
			So(body, ShouldContainSubstring, "centroid")

			resp, _ = ts.get("/debug/lidar?panel=heading")
			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
		})

		Convey("Refreshing a token needs a token", func() {
			resp, _ := ts.get("/api/refresh_token")
			So(resp.StatusCode, ShouldEqual, http.StatusUnauthorized)

			token, err := newJWT("driver@test.case")
			So(err, ShouldBeNil)
			resp, body := ts.get("/api/refresh_token?jwt=" + token)
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(body, ShouldContainSubstring, `"token":`)
		})
	})
}

func TestDashboardStream(t *testing.T) {
	Convey("Given a running dashboard server", t, func() {
		ts := newTestServer()
		defer ts.Close()

		Convey("A view with a supported version gets a replay then live patches", func() {
			conn := ts.dial("/ws/dashboard")
			defer conn.Close()
			So(conn.WriteJSON(comms.Hello{Type: "update", Text: "ready", ID: 1, Version: "1.0.3"}), ShouldBeNil)

			msg := readMessage(conn)
			So(msg.Type, ShouldEqual, comms.MsgPanels)
			So(len(msg.Panels), ShouldEqual, 5)

			msg = readMessage(conn)
			So(msg.Type, ShouldEqual, comms.MsgPatch)
			So(len(msg.Patches), ShouldEqual, 5)

			ts.conductor.Submit(telemetry.Record{Type: telemetry.Steering, Angle: 20})
			msg = readMessage(conn)
			So(msg.Type, ShouldEqual, comms.MsgPatch)
			So(len(msg.Patches), ShouldEqual, 1)
			So(msg.Patches[0].Panel, ShouldEqual, "steer")
		})

		Convey("Commands that fail are answered with an error", func() {
			saveUser("nolink@test.case", false, true)
			token, err := newJWT("nolink@test.case")
			So(err, ShouldBeNil)
			conn := ts.dial("/ws/dashboard?jwt=" + token)
			defer conn.Close()
			So(conn.WriteJSON(comms.Hello{Type: "update", Text: "ready", Version: "1.0.0"}), ShouldBeNil)
			readMessage(conn)
			readMessage(conn)

			So(conn.WriteJSON(comms.Cmd{Cmd: "setpoint", Value: 0.5}), ShouldBeNil)
			msg := readMessage(conn)
			So(msg.Type, ShouldEqual, comms.MsgError)
			So(msg.Error, ShouldEqual, comms.NoLinkError{}.Error())
		})

		Convey("A token that does not validate cannot open the stream", func() {
			url := "ws" + strings.TrimPrefix(ts.server.URL, "http") + "/ws/dashboard?jwt=garbage"
			_, resp, err := websocket.DefaultDialer.Dial(url, nil)
			So(err, ShouldNotBeNil)
			So(resp.StatusCode, ShouldEqual, http.StatusUnauthorized)
		})

		Convey("An incompatible view is rejected", func() {
			conn := ts.dial("/ws/dashboard")
			defer conn.Close()
			So(conn.WriteJSON(comms.Hello{Type: "update", Text: "ready", Version: "2.1.0"}), ShouldBeNil)

			msg := readMessage(conn)
			So(msg.Type, ShouldEqual, comms.MsgError)
			So(msg.Error, ShouldContainSubstring, PROTOCOL_VERSION)
		})
	})
}

func TestSteeringRights(t *testing.T) {
	Convey("Given a server attached to a vehicle", t, func() {
		link := &recordingSteerer{values: make(chan float64, 4)}
		ts := newTestServerWithLink(link)
		defer ts.Close()

		saveUser("watcher@test.case", false, false)
		saveUser("driver@test.case", false, true)
		saveUser("admin@test.case", true, false)

		attach := func(subject string) *websocket.Conn {
			path := "/ws/dashboard"
			if subject != "" {
				token, err := newJWT(subject)
				So(err, ShouldBeNil)
				path += "?jwt=" + token
			}
			conn := ts.dial(path)
			So(conn.WriteJSON(comms.Hello{Type: "update", Text: "ready", Version: "1.0.0"}), ShouldBeNil)
			So(readMessage(conn).Type, ShouldEqual, comms.MsgPanels)
			So(readMessage(conn).Type, ShouldEqual, comms.MsgPatch)
			return conn
		}
		steer := func(conn *websocket.Conn) {
			So(conn.WriteJSON(comms.Cmd{Cmd: "setpoint", Value: 0.25}), ShouldBeNil)
		}

		Convey("anonymous viewers may watch but not steer", func() {
			conn := attach("")
			defer conn.Close()
			steer(conn)
			msg := readMessage(conn)
			So(msg.Type, ShouldEqual, comms.MsgError)
			So(msg.Error, ShouldEqual, SteeringDeniedError{}.Error())
			So(len(link.values), ShouldEqual, 0)
		})

		Convey("users without steering rights are refused", func() {
			conn := attach("watcher@test.case")
			defer conn.Close()
			steer(conn)
			msg := readMessage(conn)
			So(msg.Error, ShouldEqual, SteeringDeniedError{Subject: "watcher@test.case"}.Error())
			So(len(link.values), ShouldEqual, 0)
		})

		Convey("tokens for users that no longer exist are refused", func() {
			conn := attach("gone@test.case")
			defer conn.Close()
			steer(conn)
			So(readMessage(conn).Error, ShouldContainSubstring, "may not steer")
		})

		Convey("drivers and admins reach the vehicle", func() {
			for _, subject := range []string{"driver@test.case", "admin@test.case"} {
				conn := attach(subject)
				steer(conn)
				select {
				case v := <-link.values:
					So(v, ShouldEqual, 0.25)
				case <-time.After(2 * time.Second):
					t.Fatalf("setpoint from %s never reached the vehicle", subject)
				}
				conn.Close()
			}
		})
	})
}

func TestTelemetryIngest(t *testing.T) {
	Convey("Given a telemetry socket", t, func() {
		ts := newTestServer()
		defer ts.Close()
		conn := ts.dial("/ws/telemetry")
		defer conn.Close()

		Convey("Valid records reach the dashboard", func() {
			So(conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"steering","angle_deg":12}`)), ShouldBeNil)

			deadline := time.Now().Add(2 * time.Second)
			for time.Now().Before(deadline) {
				if applied, _ := ts.conductor.Stats(); applied > 0 {
					break
				}
				time.Sleep(10 * time.Millisecond)
			}
			applied, _ := ts.conductor.Stats()
			So(applied, ShouldEqual, uint64(1))
		})

		Convey("Invalid records are answered with an error", func() {
			So(conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"lidar","range":5,"bearing_deg":400}`)), ShouldBeNil)
			msg := readMessage(conn)
			So(msg.Type, ShouldEqual, comms.MsgError)
			So(msg.Error, ShouldContainSubstring, "bearing_deg")
		})
	})
}

func TestCheckHello(t *testing.T) {
	Convey("Hello messages are version checked", t, func() {
		hello := comms.Hello{Type: "update", Text: "ready", Version: "1.0.9"}
		So(checkHello(hello), ShouldBeNil)

		hello.Version = "1.1.0"
		So(checkHello(hello), ShouldNotBeNil)

		hello.Version = "not a version"
		So(checkHello(hello), ShouldNotBeNil)

		hello.Version = "1.0.0"
		hello.Text = "hello"
		So(checkHello(hello), ShouldNotBeNil)
	})
}

func TestParseInject(t *testing.T) {
	Convey("Shell arguments become records", t, func() {
		r, err := parseInject([]string{"orientation", "90", "-5", "2.5"})
		So(err, ShouldBeNil)
		So(r.Type, ShouldEqual, telemetry.Orientation)
		So(r.Heading, ShouldEqual, 90)
		So(r.Roll, ShouldEqual, -5)
		So(r.Pitch, ShouldEqual, 2.5)

		r, err = parseInject([]string{"lidar", "20", "45"})
		So(err, ShouldBeNil)
		So(r.Return.Range, ShouldEqual, 20)
		So(r.Return.Bearing, ShouldEqual, 45)

		r, err = parseInject([]string{"cal", "123"})
		So(err, ShouldBeNil)
		So(r.Status, ShouldResemble, telemetry.CalibrationStatus{Accel: 0, Mag: 1, Gyro: 2, System: 3})

		Convey("Bad input is rejected", func() {
			_, err = parseInject(nil)
			So(err, ShouldNotBeNil)
			_, err = parseInject([]string{"steer"})
			So(err, ShouldNotBeNil)
			_, err = parseInject([]string{"steer", "left"})
			So(err, ShouldNotBeNil)
			_, err = parseInject([]string{"lidar", "-1", "10"})
			So(err, ShouldNotBeNil)
			_, err = parseInject([]string{"sonar", "1"})
			So(err, ShouldNotBeNil)
		})
	})
}

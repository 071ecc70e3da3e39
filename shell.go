package main

import (
	"bytes"
	"context"
	"errors"
	"github.com/CodedInternet/vehicledash/comms"
	"github.com/CodedInternet/vehicledash/dashboard"
	"github.com/CodedInternet/vehicledash/onboard"
	"github.com/CodedInternet/vehicledash/telemetry"
	"github.com/abiosoft/ishell"
	"gopkg.in/yaml.v2"
	"io/ioutil"
	"strconv"
	"time"
)

const SHELL_TIMEOUT = 2 * time.Second

// parseInject turns shell arguments into a record:
//
//	orientation <heading> <roll> <pitch>
//	steer <angle>
//	lidar <range> <bearing>
//	cal <AMGS digits>
func parseInject(args []string) (r telemetry.Record, err error) {
	if len(args) == 0 {
		return r, errors.New("usage: inject orientation|steer|lidar|cal <values...>")
	}
	floats := func(n int) ([]float64, error) {
		if len(args)-1 != n {
			return nil, errors.New("wrong number of values for " + args[0])
		}
		vals := make([]float64, n)
		for i := range vals {
			v, err := strconv.ParseFloat(args[i+1], 64)
			if err != nil {
				return nil, err
			}
			vals[i] = v
		}
		return vals, nil
	}

	r.Time = time.Now()
	switch args[0] {
	case "orientation":
		vals, err := floats(3)
		if err != nil {
			return r, err
		}
		r.Type, r.Heading, r.Roll, r.Pitch = telemetry.Orientation, vals[0], vals[1], vals[2]
	case "steer":
		vals, err := floats(1)
		if err != nil {
			return r, err
		}
		r.Type, r.Angle = telemetry.Steering, vals[0]
	case "lidar":
		vals, err := floats(2)
		if err != nil {
			return r, err
		}
		r.Type = telemetry.Lidar
		r.Return = telemetry.RangeBearing{Range: vals[0], Bearing: vals[1], Timestamp: r.Time}
	case "cal":
		if len(args) != 2 {
			return r, errors.New("usage: inject cal <AMGS digits>")
		}
		status, err := telemetry.UnpackStatus(args[1])
		if err != nil {
			return r, err
		}
		r.Type, r.Status = telemetry.Calibration, status
	default:
		return r, errors.New("unknown record type " + args[0])
	}
	return r, r.Validate()
}

// createUser prompts for whatever credentials were not given as arguments
// and saves user.
func createUser(c *ishell.Context, user *User) error {
	// disable the '>>>' for cleaner same line input.
	c.ShowPrompt(false)
	defer c.ShowPrompt(true) // yes, revert when done.

	if len(c.Args) >= 1 {
		user.Email = c.Args[0]
	} else {
		c.Print("Email: ")
		user.Email = c.ReadLine()
	}

	var password string
	if len(c.Args) >= 2 {
		password = c.Args[1]
	} else {
		c.Print("Password: ")
		password = c.ReadPassword()
	}

	user.Name = user.Email
	user.SetPassword([]byte(password))
	return ENV.DB.Save(user)
}

// newShell builds the development shell around a running conductor.
func newShell(conductor *comms.Conductor) *ishell.Shell {
	withDash := func(fn func(d *dashboard.Dashboard)) error {
		ctx, cancel := context.WithTimeout(context.Background(), SHELL_TIMEOUT)
		defer cancel()
		return conductor.Do(ctx, fn)
	}

	panelNames := func([]string) []string {
		var names []string
		withDash(func(d *dashboard.Dashboard) {
			for _, p := range d.Panels() {
				names = append(names, p.Name)
			}
		})
		return names
	}

	shell := ishell.New()
	shell.Println("Vehicle dashboard development shell")
	shell.ShowPrompt(true)
	shell.AddCmd(&ishell.Cmd{
		Name: "createsuperuser",
		Help: "createsuperuser <email> <password>",
		Func: func(c *ishell.Context) {
			if err := createUser(c, &User{Admin: true}); err != nil {
				c.Err(err)
				return
			}
			c.Println("Superuser created")
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "createdriver",
		Help: "createdriver <email> <password>",
		Func: func(c *ishell.Context) {
			if err := createUser(c, &User{Driver: true}); err != nil {
				c.Err(err)
				return
			}
			c.Println("Driver created")
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "inject",
		Help: "inject orientation <heading> <roll> <pitch> | steer <angle> | lidar <range> <bearing> | cal <AMGS>",
		Func: func(c *ishell.Context) {
			r, err := parseInject(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			if !conductor.Submit(r) {
				c.Err(errQueueFull)
				return
			}
			c.Printf("Queued %s record\n", r.Type)
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name:      "svg",
		Completer: panelNames,
		Help:      "svg <panel> [file]",
		Func: func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(errors.New("usage: svg <panel> [file]"))
				return
			}
			var buf bytes.Buffer
			var renderErr error
			err := withDash(func(d *dashboard.Dashboard) {
				renderErr = d.Render(c.Args[0], &buf)
			})
			if err == nil {
				err = renderErr
			}
			if err != nil {
				c.Err(err)
				return
			}
			if len(c.Args) >= 2 {
				if err := ioutil.WriteFile(c.Args[1], buf.Bytes(), 0644); err != nil {
					c.Err(err)
					return
				}
				c.Printf("Wrote %s\n", c.Args[1])
				return
			}
			c.Println(buf.String())
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "layout",
		Help: "Print the active layout as YAML",
		Func: func(c *ishell.Context) {
			var layout dashboard.Layout
			if err := withDash(func(d *dashboard.Dashboard) { layout = d.Layout() }); err != nil {
				c.Err(err)
				return
			}
			yml, err := yaml.Marshal(layout)
			if err != nil {
				c.Err(err)
				return
			}
			c.Println(string(yml))
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "stats",
		Help: "Show record and view counters",
		Func: func(c *ishell.Context) {
			applied, dropped := conductor.Stats()
			c.Printf("applied: %d dropped: %d views: %d\n", applied, dropped, conductor.Hub().Len())
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "setpoint",
		Help: "setpoint <0..1>",
		Func: func(c *ishell.Context) {
			if len(c.Args) != 1 {
				c.Err(errors.New("usage: setpoint <0..1>"))
				return
			}
			value, err := strconv.ParseFloat(c.Args[0], 64)
			if err != nil {
				c.Err(err)
				return
			}
			if err := conductor.ProcessCommand(comms.Cmd{Cmd: "setpoint", Value: value}); err != nil {
				c.Err(err)
			}
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "ports",
		Help: "List serial ports",
		Func: func(c *ishell.Context) {
			ports, err := onboard.Ports()
			if err != nil {
				c.Err(err)
				return
			}
			for _, p := range ports {
				c.Println(p)
			}
		},
	})

	return shell
}

// Package comms runs the dashboard's event loop and fans its patches out to
// connected views.
package comms

import (
	"context"
	"github.com/CodedInternet/vehicledash/dashboard"
	"github.com/CodedInternet/vehicledash/logger"
	"github.com/CodedInternet/vehicledash/telemetry"
	"github.com/benbjohnson/clock"
	"math"
	"sync/atomic"
)

const RECORD_QUEUE = 256

// Steerer accepts steering setpoints in [0, 1], 0.5 being straight ahead.
type Steerer interface {
	SetSteering(value float64) error
}

// ConductorInterface is the part of the conductor views talk to.
type ConductorInterface interface {
	Submit(r telemetry.Record) bool
	ProcessCommand(cmd Cmd) error
	Attach(ctx context.Context) (*Subscriber, error)
	Detach(s *Subscriber)
}

// Conductor owns the dashboard. Everything that touches a widget runs on the
// goroutine inside Run; other goroutines hand work over with Submit and Do.
type Conductor struct {
	dash    *dashboard.Dashboard
	hub     *Hub
	link    Steerer
	clock   clock.Clock
	records chan telemetry.Record
	jobs    chan job
	dropped uint64
	applied uint64
}

type job struct {
	fn   func(d *dashboard.Dashboard)
	done chan struct{}
}

// NewConductor wires a dashboard to a hub. link may be nil when no vehicle
// is attached.
func NewConductor(d *dashboard.Dashboard, hub *Hub, link Steerer, clk clock.Clock) *Conductor {
	if clk == nil {
		clk = clock.New()
	}
	return &Conductor{
		dash:    d,
		hub:     hub,
		link:    link,
		clock:   clk,
		records: make(chan telemetry.Record, RECORD_QUEUE),
		jobs:    make(chan job),
	}
}

func (c *Conductor) Hub() *Hub {
	return c.hub
}

// Run processes records and jobs until ctx is cancelled.
func (c *Conductor) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case r := <-c.records:
			c.apply(r)
		case j := <-c.jobs:
			c.drain()
			j.fn(c.dash)
			close(j.done)
		}
	}
}

// drain applies every queued record, so a job sees all records submitted
// before it.
func (c *Conductor) drain() {
	for {
		select {
		case r := <-c.records:
			c.apply(r)
		default:
			return
		}
	}
}

// Submit queues a record without blocking. It returns false and counts the
// record as dropped when the queue is full.
func (c *Conductor) Submit(r telemetry.Record) bool {
	select {
	case c.records <- r:
		return true
	default:
		atomic.AddUint64(&c.dropped, 1)
		return false
	}
}

// Do runs fn on the event loop and waits for it to finish. ctx only bounds
// the wait for the loop to pick the job up; once taken, fn always runs to
// completion before Do returns.
func (c *Conductor) Do(ctx context.Context, fn func(d *dashboard.Dashboard)) error {
	j := job{fn: fn, done: make(chan struct{})}
	select {
	case c.jobs <- j:
	case <-ctx.Done():
		return ctx.Err()
	}
	<-j.done
	return nil
}

// Stats reports how many records were applied and dropped.
func (c *Conductor) Stats() (applied, dropped uint64) {
	return atomic.LoadUint64(&c.applied), atomic.LoadUint64(&c.dropped)
}

func (c *Conductor) apply(r telemetry.Record) {
	if r.Time.IsZero() {
		r.Time = c.clock.Now()
		r.Return.Timestamp = r.Time
	}
	frame, err := c.dash.Apply(r)
	if err != nil {
		logger.Warn().Err(err).Str("type", string(r.Type)).Msg("dropping record")
		return
	}
	atomic.AddUint64(&c.applied, 1)

	if len(frame.Patches) > 0 {
		c.broadcast(patchMessage(frame.Patches))
	}
	if frame.Calibration != nil {
		c.broadcast(calibrationMessage(*frame.Calibration))
	}
}

func (c *Conductor) broadcast(msg Message) {
	if err := c.hub.Broadcast(msg); err != nil {
		logger.Error().Err(err).Str("type", string(msg.Type)).Msg("unable to broadcast")
	}
}

// Attach subscribes a new view. It receives the panel list and a full
// replay of every scene before any live patch. No subscriber is left behind
// when ctx ends first.
func (c *Conductor) Attach(ctx context.Context) (*Subscriber, error) {
	var sub *Subscriber
	var subErr error
	doErr := c.Do(ctx, func(d *dashboard.Dashboard) {
		if subErr = ctx.Err(); subErr != nil {
			return
		}
		replay, pending := d.Replay()
		if len(pending) > 0 {
			c.broadcast(patchMessage(pending))
		}
		first := []Message{
			{Type: MsgPanels, Panels: d.Panels()},
			patchMessage(replay),
		}
		if status, ok := d.Calibration(); ok {
			first = append(first, calibrationMessage(status))
		}
		sub, subErr = c.hub.Subscribe(first...)
	})
	if doErr != nil {
		return nil, doErr
	}
	if subErr != nil {
		return nil, subErr
	}
	return sub, nil
}

func (c *Conductor) Detach(s *Subscriber) {
	c.hub.Unsubscribe(s)
}

// ProcessCommand handles a control request from a view.
func (c *Conductor) ProcessCommand(cmd Cmd) error {
	switch cmd.Cmd {
	case "setpoint":
		if math.IsNaN(cmd.Value) || cmd.Value < 0 || cmd.Value > 1 {
			return SetpointRangeError{Value: cmd.Value}
		}
		if c.link == nil {
			return NoLinkError{}
		}
		logger.Info().Float64("value", cmd.Value).Msg("steering setpoint")
		return c.link.SetSteering(cmd.Value)

	default:
		return UnknownCommandError{Cmd: cmd.Cmd}
	}
}

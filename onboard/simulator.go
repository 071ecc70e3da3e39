package onboard

import (
	"context"
	"github.com/CodedInternet/vehicledash/telemetry"
	"github.com/benbjohnson/clock"
	"math"
	"math/rand"
	"sync"
	"time"
)

const SIM_INTERVAL = time.Second / 10

// SIM_BEARING_START is where the simulated lidar sweep begins; it steps
// down by SIM_BEARING_STEP each frame and wraps back to the start after 0.
const (
	SIM_BEARING_START = 356
	SIM_BEARING_STEP  = 4
	SIM_LIDAR_POINTS  = 90
)

// Simulator generates a plausible but meaningless telemetry stream for
// running the dashboard without a vehicle.
type Simulator struct {
	clock   clock.Clock
	rand    *rand.Rand
	j       int
	bearing float64
}

func NewSimulator(clk clock.Clock, seed int64) *Simulator {
	if clk == nil {
		clk = clock.New()
	}
	return &Simulator{
		clock:   clk,
		rand:    rand.New(rand.NewSource(seed)),
		bearing: SIM_BEARING_START,
	}
}

// Step is the number of frames generated so far.
func (s *Simulator) Step() int {
	return s.j
}

// Frame generates the next set of records: one lidar return, an
// orientation, a steering angle and a calibration status.
func (s *Simulator) Frame() []telemetry.Record {
	now := s.clock.Now()
	j := float64(s.j)

	lidar := telemetry.Record{
		Type: telemetry.Lidar,
		Time: now,
		Return: telemetry.RangeBearing{
			Range:     10 + 5*math.Cos(j/100)*s.rand.Float64(),
			Bearing:   s.bearing,
			Timestamp: now,
		},
	}
	if s.bearing > 0 {
		s.bearing -= SIM_BEARING_STEP
	} else {
		s.bearing = SIM_BEARING_START
	}

	orientation := telemetry.Record{
		Type:    telemetry.Orientation,
		Time:    now,
		Heading: 360 * math.Sin(j/100),
		Pitch:   10 * math.Sin(j/5),
	}
	steer := telemetry.Record{
		Type:  telemetry.Steering,
		Time:  now,
		Angle: 30 * math.Cos(j/10),
	}
	calibration := telemetry.Record{
		Type: telemetry.Calibration,
		Time: now,
		Status: telemetry.CalibrationStatus{
			Accel:  s.rand.Intn(3),
			Mag:    s.rand.Intn(3),
			Gyro:   s.rand.Intn(3),
			System: s.rand.Intn(3),
		},
	}

	s.j++
	return []telemetry.Record{lidar, orientation, steer, calibration}
}

// Task is a running simulator loop.
type Task struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Stop ends the loop and waits for it to exit.
func (t *Task) Stop() {
	t.once.Do(t.cancel)
	<-t.done
}

// Done is closed once the loop has exited.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Start emits a frame into sink on every tick of the simulator's clock
// until ctx is cancelled or the task is stopped.
func (s *Simulator) Start(ctx context.Context, sink func(telemetry.Record)) *Task {
	ctx, cancel := context.WithCancel(ctx)
	t := &Task{cancel: cancel, done: make(chan struct{})}
	ticker := s.clock.Ticker(SIM_INTERVAL)

	go func() {
		defer close(t.done)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				for _, r := range s.Frame() {
					sink(r)
				}
			}
		}
	}()
	return t
}

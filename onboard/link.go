package onboard

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"github.com/CodedInternet/vehicledash/logger"
	"github.com/CodedInternet/vehicledash/telemetry"
	"github.com/CodedInternet/vehicledash/widget"
	"github.com/benbjohnson/clock"
	"go.bug.st/serial"
	"io"
	"math"
	"sync"
)

const DEFAULT_BAUD = 115200

// POT_FULL_SCALE is the controller's potentiometer reading at full lock
// right; setpoints use the same scale.
const POT_FULL_SCALE = 1000

// PotToAngle maps a potentiometer reading onto the steering lock range.
func PotToAngle(pot int) float64 {
	return (float64(pot)/POT_FULL_SCALE - 0.5) * 2 * widget.STEER_LOCK
}

// Link talks to the vehicle controller over a serial line.
type Link struct {
	port      io.ReadWriteCloser
	clock     clock.Clock
	mu        sync.Mutex // serialises writes
	closeOnce sync.Once
}

// OpenSerial opens the controller's serial port.
func OpenSerial(name string, baud int) (*Link, error) {
	if baud <= 0 {
		baud = DEFAULT_BAUD
	}
	port, err := serial.Open(name, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", name, err)
	}
	return NewLink(port, nil), nil
}

// Ports lists the serial ports present on this machine.
func Ports() ([]string, error) {
	return serial.GetPortsList()
}

// NewLink wraps an already open port.
func NewLink(port io.ReadWriteCloser, clk clock.Clock) *Link {
	if clk == nil {
		clk = clock.New()
	}
	return &Link{port: port, clock: clk}
}

// Run reads telemetry lines and hands the decoded records to sink until
// ctx is cancelled or the port fails. The port is closed on return.
func (l *Link) Run(ctx context.Context, sink func(telemetry.Record)) error {
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			l.Close()
		case <-stop:
		}
	}()
	defer l.Close()

	log := logger.Component("serial")
	scanner := bufio.NewScanner(l.port)
	for scanner.Scan() {
		frame, err := ParseFrame(scanner.Text())
		if err != nil {
			var other NotTelemetryError
			if errors.As(err, &other) {
				log.Debug().Str("line", other.Line).Msg("controller output")
			} else {
				log.Warn().Err(err).Msg("skipping frame")
			}
			continue
		}
		for _, r := range frame.Records(l.clock.Now()) {
			sink(r)
		}
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return io.EOF
}

// Close releases the port. It is safe to call more than once.
func (l *Link) Close() (err error) {
	l.closeOnce.Do(func() { err = l.port.Close() })
	return
}

// SetSteering sends a setpoint in [0, 1] as the controller's digit command.
func (l *Link) SetSteering(value float64) error {
	if math.IsNaN(value) || value < 0 || value > 1 {
		return fmt.Errorf("steering setpoint %v outside [0, 1]", value)
	}
	cmd := fmt.Sprintf("%d\r", int(math.Round(value*POT_FULL_SCALE)))

	l.mu.Lock()
	defer l.mu.Unlock()
	_, err := io.WriteString(l.port, cmd)
	return err
}

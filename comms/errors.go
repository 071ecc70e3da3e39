package comms

import "fmt"

type UnknownCommandError struct {
	Cmd string
}

func (err UnknownCommandError) Error() string {
	return fmt.Sprintf("unable to process command %q", err.Cmd)
}

// SetpointRangeError rejects steering setpoints outside [0, 1].
type SetpointRangeError struct {
	Value float64
}

func (err SetpointRangeError) Error() string {
	return fmt.Sprintf("setpoint %v outside [0, 1]", err.Value)
}

type NoLinkError struct{}

func (err NoLinkError) Error() string {
	return "no vehicle link to send commands to"
}

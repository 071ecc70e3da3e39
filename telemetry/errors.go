package telemetry

import "fmt"

// InvalidSampleError reports a telemetry value that failed validation. The
// transport that produced it decides whether to drop or retry.
type InvalidSampleError struct {
	Field  string
	Value  interface{}
	Reason string
}

func (err InvalidSampleError) Error() string {
	if err.Value == nil {
		return fmt.Sprintf("invalid sample: %s %s", err.Field, err.Reason)
	}
	return fmt.Sprintf("invalid sample: %s=%v %s", err.Field, err.Value, err.Reason)
}

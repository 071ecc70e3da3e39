package widget

import "fmt"

type ConfigurationError struct {
	Widget string
	Reason string
	Err    error
}

func (err ConfigurationError) Error() string {
	if len(err.Widget) == 0 {
		err.Widget = "widget"
	}
	if err.Err != nil {
		return fmt.Sprintf("%s: %s: %v", err.Widget, err.Reason, err.Err)
	}
	return fmt.Sprintf("%s: %s", err.Widget, err.Reason)
}

func (err ConfigurationError) Unwrap() error {
	return err.Err
}

// NotBoundError is returned when a widget is drawn before Bind or after
// Dispose.
type NotBoundError struct {
	Widget string
	State  State
}

func (err NotBoundError) Error() string {
	return fmt.Sprintf("%s is %s, bind it to a scene first", err.Widget, err.State)
}

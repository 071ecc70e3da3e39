package comms

import (
	"github.com/CodedInternet/vehicledash/dashboard"
	"github.com/CodedInternet/vehicledash/telemetry"
)

type MessageType string

const (
	MsgPanels      MessageType = "panels"
	MsgPatch       MessageType = "patch"
	MsgCalibration MessageType = "calibration"
	MsgError       MessageType = "error"
)

// Message is sent from the server to dashboard views.
type Message struct {
	Type        MessageType                 `json:"type"`
	Panels      []dashboard.PanelInfo       `json:"panels,omitempty"`
	Patches     []dashboard.PanelPatch      `json:"patches,omitempty"`
	Calibration []telemetry.CalibrationLine `json:"calibration,omitempty"`
	Error       string                      `json:"error,omitempty"`
}

// Cmd is a control request from a view, e.g. {"cmd":"setpoint","value":0.5}.
type Cmd struct {
	Cmd   string  `json:"cmd"`
	Name  string  `json:"name,omitempty"`
	Value float64 `json:"value"`
}

// Hello is the first message a view sends once its socket is open.
type Hello struct {
	Type    string `json:"type"`
	Text    string `json:"text"`
	ID      int    `json:"id"`
	Date    int64  `json:"date"`
	Version string `json:"version"`
}

func patchMessage(patches []dashboard.PanelPatch) Message {
	return Message{Type: MsgPatch, Patches: patches}
}

func calibrationMessage(c telemetry.CalibrationStatus) Message {
	return Message{Type: MsgCalibration, Calibration: c.Lines()}
}

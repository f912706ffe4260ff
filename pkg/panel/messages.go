package panel

import (
	"github.com/flutterfly/devbridge/pkg/adb"
	"github.com/flutterfly/devbridge/pkg/poller"
)

// Inbound command names sent by panel clients
const (
	CmdConnectDevice     = "connectDevice"
	CmdRunFlutterCommand = "runFlutterCommand"
	CmdRefreshDevices    = "refreshDevices"
	CmdDisconnectDevice  = "disconnectDevice"
)

// Outbound command names sent to panel clients
const (
	CmdUpdateDevices    = "updateDevices"
	CmdAddStatusMessage = "addStatusMessage"
	CmdShowToast        = "showToast"
	CmdPollState        = "pollState"
)

// Message severities for addStatusMessage and showToast
const (
	TypeInfo    = "info"
	TypeSuccess = "success"
	TypeWarning = "warning"
	TypeError   = "error"
)

// Inbound is a command received from a client
type Inbound struct {
	Command   string `json:"command"`
	IP        string `json:"ip,omitempty"`
	Port      string `json:"port,omitempty"`
	CommandID string `json:"commandId,omitempty"`
	Mode      string `json:"mode,omitempty"`
	DeviceID  string `json:"deviceId,omitempty"`
}

// Outbound is a message pushed to clients
type Outbound struct {
	Command string            `json:"command"`
	Devices []adb.DeviceEntry `json:"devices,omitempty"`
	Message string            `json:"message,omitempty"`
	Type    string            `json:"type,omitempty"`
	State   *poller.State     `json:"state,omitempty"`
}

func updateDevices(devices []adb.DeviceEntry) Outbound {
	if devices == nil {
		devices = []adb.DeviceEntry{}
	}
	return Outbound{Command: CmdUpdateDevices, Devices: devices}
}

func statusMessage(message, kind string) Outbound {
	return Outbound{Command: CmdAddStatusMessage, Message: message, Type: kind}
}

func toast(message, kind string) Outbound {
	return Outbound{Command: CmdShowToast, Message: message, Type: kind}
}

func pollState(s poller.State) Outbound {
	return Outbound{Command: CmdPollState, State: &s}
}

// ConnectRequest is the body of POST /api/devices/connect
type ConnectRequest struct {
	IP   string `json:"ip"`
	Port string `json:"port"`
}

// ErrorResponse is returned by the REST endpoints on failure
type ErrorResponse struct {
	Error  string `json:"error"`
	Kind   string `json:"kind,omitempty"`
	Output string `json:"output,omitempty"`
	Hint   string `json:"hint,omitempty"`
}

package adb

import "strings"

// Classifier decides whether raw adb output means success. All substring
// heuristics live here so a structured-output tool only needs a new Classifier.
type Classifier interface {
	// ToolReachable reports a valid "list devices" response
	ToolReachable(output string) bool

	// Connected reports a successful (or already established) connect
	Connected(output string) bool

	// Installed reports a successful package install
	Installed(output string) bool

	// Paired reports a successful wireless pairing
	Paired(output string) bool

	// TCPModeRestarted reports that adbd switched to TCP mode
	TCPModeRestarted(output string) bool
}

// Markers printed by the adb client
const (
	MarkerDeviceList       = "List of"
	MarkerConnected        = "connected to"
	MarkerAlreadyConnected = "already connected to"
	MarkerInstallSuccess   = "Success"
	MarkerPaired           = "Successfully paired"
	MarkerTCPMode          = "restarting in TCP mode"
)

var connectFailureMarkers = []string{"failed to", "cannot", "unable to"}

// TextClassifier matches the markers of the adb text output
type TextClassifier struct{}

func (TextClassifier) ToolReachable(output string) bool {
	return strings.Contains(output, MarkerDeviceList)
}

func (TextClassifier) Connected(output string) bool {
	if !strings.Contains(output, MarkerConnected) && !strings.Contains(output, MarkerAlreadyConnected) {
		return false
	}
	lower := strings.ToLower(output)
	for _, marker := range connectFailureMarkers {
		if strings.Contains(lower, marker) {
			return false
		}
	}
	return true
}

func (TextClassifier) Installed(output string) bool {
	return strings.Contains(output, MarkerInstallSuccess) && !strings.Contains(output, "Failure")
}

func (TextClassifier) Paired(output string) bool {
	return strings.Contains(output, MarkerPaired)
}

func (TextClassifier) TCPModeRestarted(output string) bool {
	return strings.Contains(output, MarkerTCPMode)
}

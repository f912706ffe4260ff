package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	yaml "gopkg.in/yaml.v2"

	"github.com/flutterfly/devbridge/pkg/adb"
	"github.com/flutterfly/devbridge/pkg/poller"
)

// DeviceList is the machine-readable form of `devbridge list`
type DeviceList struct {
	Count   int               `json:"count" yaml:"count"`
	Devices []adb.DeviceEntry `json:"devices" yaml:"devices"`
}

// ToolLocation is the machine-readable form of `devbridge tool-path`
type ToolLocation struct {
	Strategy adb.StrategyKind `json:"strategy" yaml:"strategy"`
	Dir      string           `json:"dir,omitempty" yaml:"dir,omitempty"`
	Custom   string           `json:"custom,omitempty" yaml:"custom,omitempty"`
}

// OutputFormat represents the output format for command results
type OutputFormat string

const (
	OutputFormatTable OutputFormat = "table"
	OutputFormatJSON  OutputFormat = "json"
	OutputFormatYAML  OutputFormat = "yaml"
)

// ParseOutputFormat validates a -o flag value
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case "", OutputFormatTable:
		return OutputFormatTable, nil
	case OutputFormatJSON, OutputFormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", s)
	}
}

// FormatDevices outputs the device list in the specified format
func FormatDevices(devices []adb.DeviceEntry, format OutputFormat) (string, error) {
	if devices == nil {
		devices = []adb.DeviceEntry{}
	}
	list := DeviceList{Count: len(devices), Devices: devices}

	switch format {
	case OutputFormatTable:
		return formatDeviceTable(devices), nil
	case OutputFormatJSON:
		return formatJSON(list)
	case OutputFormatYAML:
		return formatYAML(list)
	default:
		return "", fmt.Errorf("unsupported output format: %s", format)
	}
}

// FormatState outputs a poll state in the specified format
func FormatState(s poller.State, format OutputFormat) (string, error) {
	switch format {
	case OutputFormatTable:
		line := fmt.Sprintf("%s: %s", s.Connectivity, s.Summary)
		if s.DeviceCount > 1 {
			line += fmt.Sprintf(" (+%d more)", s.DeviceCount-1)
		}
		if s.LastError != "" {
			line += "\n  " + s.LastError
		}
		return line, nil
	case OutputFormatJSON:
		return formatJSON(s)
	case OutputFormatYAML:
		return formatYAML(s)
	default:
		return "", fmt.Errorf("unsupported output format: %s", format)
	}
}

// formatJSON formats v as indented JSON
func formatJSON(v interface{}) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data), nil
}

// formatYAML formats v as YAML
func formatYAML(v interface{}) (string, error) {
	data, err := yaml.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal YAML: %w", err)
	}
	return string(data), nil
}

// formatDeviceTable renders an aligned table, or a short notice when empty
func formatDeviceTable(devices []adb.DeviceEntry) string {
	if len(devices) == 0 {
		return "No devices connected"
	}

	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintln(w, "ADDRESS\tNAME\tSTATUS\tKIND")
	_, _ = fmt.Fprintln(w, "-------\t----\t------\t----")
	for _, d := range devices {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", d.Address, d.DisplayName, d.Status, d.Kind)
	}
	_ = w.Flush()
	return strings.TrimRight(b.String(), "\n")
}

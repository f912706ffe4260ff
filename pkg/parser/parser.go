package parser

import (
	"regexp"
	"strings"
)

// DeviceLine is one row of `adb devices -l`
type DeviceLine struct {
	Address     string
	State       string // Raw state token: device, unauthorized, offline, ...
	Model       string
	Product     string
	Device      string
	TransportID string
}

// MDNSService is one row of `adb mdns services`
type MDNSService struct {
	Instance string
	Type     string
	Address  string // ip:port
}

// Service types advertised by Android wireless debugging
const (
	ServiceTLSConnect = "_adb-tls-connect._tcp"
	ServiceTLSPairing = "_adb-tls-pairing._tcp"
	ServiceLegacy     = "_adb._tcp"
)

var ipPattern = regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`)

// ParseDeviceList parses the output of `adb devices` or `adb devices -l`.
// The header, blank lines, daemon notices ("* daemon started ...") and adb's
// own server notices are skipped.
func ParseDeviceList(output string) []DeviceLine {
	var devices []DeviceLine
	for _, line := range splitLines(output) {
		if isNoise(line) {
			continue
		}

		fields := strings.Fields(line)
		d := DeviceLine{Address: fields[0]}
		if len(fields) > 1 {
			d.State = fields[1]
		}

		// Remaining tokens are key:value qualifiers from -l
		for _, token := range fields[min(2, len(fields)):] {
			key, value, ok := strings.Cut(token, ":")
			if !ok {
				continue
			}
			switch key {
			case "model":
				d.Model = value
			case "product":
				d.Product = value
			case "device":
				d.Device = value
			case "transport_id":
				d.TransportID = value
			}
		}
		devices = append(devices, d)
	}
	return devices
}

// ParseMDNSServices parses the output of `adb mdns services`
func ParseMDNSServices(output string) []MDNSService {
	var services []MDNSService
	for _, line := range splitLines(output) {
		if isNoise(line) {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		services = append(services, MDNSService{
			Instance: fields[0],
			Type:     strings.TrimSuffix(fields[1], "."),
			Address:  fields[len(fields)-1],
		})
	}
	return services
}

// ExtractIP returns the first IPv4 address found in text, or "" when there is none.
// Quick-pick labels such as "Pixel 7 | 192.168.1.5:5555" reduce to the bare address.
func ExtractIP(text string) string {
	for _, match := range ipPattern.FindAllString(text, -1) {
		if IsIPv4(match) {
			return match
		}
	}
	return ""
}

func splitLines(output string) []string {
	return strings.Split(strings.ReplaceAll(output, "\r\n", "\n"), "\n")
}

// isNoise reports header, blank and daemon lines, plus notices adb prints about
// itself such as "adb server version (41) doesn't match this client; killing..."
func isNoise(line string) bool {
	trimmed := strings.TrimSpace(line)
	return trimmed == "" ||
		strings.HasPrefix(trimmed, "List of") ||
		strings.HasPrefix(trimmed, "*") ||
		strings.HasPrefix(trimmed, "adb server") ||
		strings.HasPrefix(trimmed, "adb: ")
}

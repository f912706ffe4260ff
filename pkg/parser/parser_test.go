package parser

import (
	"reflect"
	"testing"
)

func TestParseDeviceList(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   []DeviceLine
	}{
		{
			name:   "header only",
			output: "List of devices attached\n\n",
			want:   nil,
		},
		{
			name: "plain devices output",
			output: "List of devices attached\n" +
				"192.168.1.5:5555\tdevice\n" +
				"R58M123ABC\tunauthorized\n",
			want: []DeviceLine{
				{Address: "192.168.1.5:5555", State: "device"},
				{Address: "R58M123ABC", State: "unauthorized"},
			},
		},
		{
			name: "long listing with qualifiers",
			output: "List of devices attached\n" +
				"emulator-5554          device product:sdk_gphone64_x86_64 model:sdk_gphone64_x86_64 device:emu64xa transport_id:1\n" +
				"192.168.1.5:5555       offline transport_id:3\n",
			want: []DeviceLine{
				{
					Address:     "emulator-5554",
					State:       "device",
					Model:       "sdk_gphone64_x86_64",
					Product:     "sdk_gphone64_x86_64",
					Device:      "emu64xa",
					TransportID: "1",
				},
				{Address: "192.168.1.5:5555", State: "offline", TransportID: "3"},
			},
		},
		{
			name: "daemon notices and CRLF",
			output: "* daemon not running; starting now at tcp:5037\r\n" +
				"* daemon started successfully\r\n" +
				"List of devices attached\r\n" +
				"192.168.1.9:5555\tdevice\r\n",
			want: []DeviceLine{
				{Address: "192.168.1.9:5555", State: "device"},
			},
		},
		{
			name: "server version notice",
			output: "adb server version (41) doesn't match this client (39); killing...\n" +
				"* daemon started successfully\n" +
				"List of devices attached\n" +
				"emulator-5554\tdevice\n",
			want: []DeviceLine{
				{Address: "emulator-5554", State: "device"},
			},
		},
		{
			name:   "address without state",
			output: "List of devices attached\nweird-line\n",
			want: []DeviceLine{
				{Address: "weird-line"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseDeviceList(tt.output)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseDeviceList() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseMDNSServices(t *testing.T) {
	output := "List of discovered mdns services\n" +
		"adb-R58M123ABC-Xyz12\t_adb-tls-connect._tcp\t192.168.1.5:37215\n" +
		"devbridge-1a2b3c4d\t_adb-tls-pairing._tcp.\t192.168.1.5:41877\n" +
		"garbage\n"

	want := []MDNSService{
		{Instance: "adb-R58M123ABC-Xyz12", Type: ServiceTLSConnect, Address: "192.168.1.5:37215"},
		{Instance: "devbridge-1a2b3c4d", Type: ServiceTLSPairing, Address: "192.168.1.5:41877"},
	}

	got := ParseMDNSServices(output)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseMDNSServices() = %+v, want %+v", got, want)
	}
}

func TestExtractIP(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"bare ip", "192.168.1.5", "192.168.1.5"},
		{"ip with port", "192.168.1.5:5555", "192.168.1.5"},
		{"labelled candidate", "Pixel 7 | 192.168.100.25:5555", "192.168.100.25"},
		{"invalid octets skipped", "999.1.1.1 then 10.0.0.2", "10.0.0.2"},
		{"serial", "emulator-5554", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractIP(tt.text); got != tt.want {
				t.Errorf("ExtractIP(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

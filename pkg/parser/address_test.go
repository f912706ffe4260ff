package parser

import (
	"testing"
)

func TestSplitAddress(t *testing.T) {
	tests := []struct {
		name     string
		addr     string
		wantHost string
		wantPort string
	}{
		{
			name:     "ip with port",
			addr:     "192.168.1.5:5555",
			wantHost: "192.168.1.5",
			wantPort: "5555",
		},
		{
			name:     "hostname with port",
			addr:     "pixel.local:37215",
			wantHost: "pixel.local",
			wantPort: "37215",
		},
		{
			name:     "bracketed ipv6",
			addr:     "[fe80::1]:5555",
			wantHost: "fe80::1",
			wantPort: "5555",
		},
		{
			name:     "emulator serial",
			addr:     "emulator-5554",
			wantHost: "emulator-5554",
			wantPort: "",
		},
		{
			name:     "usb serial with whitespace",
			addr:     "  R58M123ABC ",
			wantHost: "R58M123ABC",
			wantPort: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host, port := SplitAddress(tt.addr)
			if host != tt.wantHost {
				t.Errorf("SplitAddress() host = %v, want %v", host, tt.wantHost)
			}
			if port != tt.wantPort {
				t.Errorf("SplitAddress() port = %v, want %v", port, tt.wantPort)
			}
		})
	}
}

func TestIsNetworkAddress(t *testing.T) {
	tests := []struct {
		addr     string
		expected bool
	}{
		{"192.168.1.5:5555", true},
		{"192.168.1.5", false},
		{"emulator-5554", false},
		{"R58M123ABC", false},
		{"pixel.local:5555", false},
	}

	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			if got := IsNetworkAddress(tt.addr); got != tt.expected {
				t.Errorf("IsNetworkAddress(%q) = %v, want %v", tt.addr, got, tt.expected)
			}
		})
	}
}

func TestIsIPv4(t *testing.T) {
	tests := []struct {
		str      string
		expected bool
	}{
		{"10.0.0.1", true},
		{"256.0.0.1", false},
		{"fe80::1", false},
		{"::ffff:10.0.0.1", false},
		{"host", false},
	}

	for _, tt := range tests {
		t.Run(tt.str, func(t *testing.T) {
			if got := IsIPv4(tt.str); got != tt.expected {
				t.Errorf("IsIPv4(%q) = %v, want %v", tt.str, got, tt.expected)
			}
		})
	}
}

func TestJoinAddress(t *testing.T) {
	if got := JoinAddress(" 192.168.1.5 ", "5555"); got != "192.168.1.5:5555" {
		t.Errorf("JoinAddress() = %q", got)
	}
}

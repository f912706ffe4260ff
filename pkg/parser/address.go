package parser

import (
	"net"
	"strings"
)

// AddressComponents represents a device address split into host and port
type AddressComponents struct {
	Host string // IP address, hostname or serial
	Port string // TCP port (optional)
}

// SplitAddress splits a device address into host and port. Serials such as
// emulator-5554 have no port.
// Format: 192.168.1.5:5555, [fe80::1]:5555, emulator-5554
func SplitAddress(addr string) (host, port string) {
	c := ParseAddress(addr)
	return c.Host, c.Port
}

// ParseAddress parses a device address that may contain a port
func ParseAddress(addr string) *AddressComponents {
	addr = strings.TrimSpace(addr)
	components := &AddressComponents{}

	if h, p, err := net.SplitHostPort(addr); err == nil {
		components.Host = h
		components.Port = p
		return components
	}

	components.Host = addr
	return components
}

// IsIPv4 checks if the given string is a dotted IPv4 address
func IsIPv4(str string) bool {
	ip := net.ParseIP(str)
	return ip != nil && ip.To4() != nil && !strings.Contains(str, ":")
}

// IsNetworkAddress checks if the given device address is an ip:port pair as
// opposed to a USB serial or emulator name
func IsNetworkAddress(addr string) bool {
	host, port := SplitAddress(addr)
	return port != "" && net.ParseIP(host) != nil
}

// JoinAddress builds host:port
func JoinAddress(host, port string) string {
	return net.JoinHostPort(strings.TrimSpace(host), strings.TrimSpace(port))
}

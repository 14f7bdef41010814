package ecp

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// DefaultPort is the TCP port Roku devices serve ECP on.
const DefaultPort = 8060

// Device identifies the Roku that commands are sent to.
type Device struct {
	Name string `toml:"name" json:"name"`
	Addr string `toml:"addr" json:"addr"`
}

// String returns the display name, falling back to the address.
func (d Device) String() string {
	if name := strings.TrimSpace(d.Name); name != "" {
		return name
	}
	return d.Addr
}

// BaseURL returns the http root for the device, e.g. http://192.168.1.3:8060.
func (d Device) BaseURL() (string, error) {
	addr := strings.TrimSpace(d.Addr)
	if addr == "" {
		return "", fmt.Errorf("device %q has no address", d.Name)
	}
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return "", fmt.Errorf("device address %q: %w", addr, err)
	}
	return "http://" + addr, nil
}

// Application is an installed channel as reported by /query/apps.
type Application struct {
	ID      string `toml:"id" json:"id"`
	Type    string `toml:"type" json:"type"`
	Version string `toml:"version" json:"version"`
	Name    string `toml:"name" json:"name"`
}

// Ref returns the launch reference for the application.
func (a Application) Ref() AppRef {
	return AppRef{ID: a.ID, Type: a.Type, Name: a.Name}
}

// NormalizeAddr returns addr in host:port form, appending port when addr
// carries none. IPv6 literals are bracketed.
func NormalizeAddr(addr string, port int) (string, error) {
	addr = strings.TrimSpace(addr)
	addr = strings.TrimPrefix(addr, "http://")
	addr = strings.TrimSuffix(addr, "/")
	if addr == "" {
		return "", fmt.Errorf("empty device address")
	}
	if strings.Contains(addr, "://") {
		return "", fmt.Errorf("device address %q: only http is supported", addr)
	}
	if port <= 0 {
		port = DefaultPort
	}
	if host, p, err := net.SplitHostPort(addr); err == nil {
		if host == "" {
			return "", fmt.Errorf("device address %q has no host", addr)
		}
		if n, err := strconv.Atoi(p); err != nil || n <= 0 || n > 65535 {
			return "", fmt.Errorf("device address %q has invalid port", addr)
		}
		if !validHost(host) {
			return "", fmt.Errorf("device address %q has invalid host", addr)
		}
		return net.JoinHostPort(host, p), nil
	}
	host := addr
	if strings.HasPrefix(host, "[") && strings.HasSuffix(host, "]") {
		host = host[1 : len(host)-1]
	}
	if !validHost(host) {
		return "", fmt.Errorf("device address %q is not a host or host:port", addr)
	}
	return net.JoinHostPort(host, strconv.Itoa(port)), nil
}

// validHost accepts an IP literal or a bare hostname. Colons are only
// allowed inside IPv6 literals.
func validHost(host string) bool {
	if host == "" {
		return false
	}
	if net.ParseIP(host) != nil {
		return true
	}
	return !strings.ContainsAny(host, ":/@?#[] \t")
}

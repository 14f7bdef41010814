package discovery

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"rokuctl/internal/ecp"
)

var (
	// ErrNoResponse means no datagram arrived within the discovery window.
	ErrNoResponse = errors.New("no roku responded to discovery")
	// ErrMalformedResponse means datagrams arrived but none described a device.
	ErrMalformedResponse = errors.New("malformed discovery response")
)

// Candidate is a device that answered the search.
type Candidate struct {
	Name     string `json:"name"`
	Addr     string `json:"addr"`
	Location string `json:"location"`
	USN      string `json:"usn,omitempty"`
	Server   string `json:"server,omitempty"`
}

// Device converts the candidate into the registry's device record.
func (c Candidate) Device() ecp.Device {
	return ecp.Device{Name: c.Name, Addr: c.Addr}
}

// Serial extracts the serial number from a Roku USN such as
// "uuid:roku:ecp:P0A070000007".
func (c Candidate) Serial() string {
	usn := strings.TrimSpace(c.USN)
	if usn == "" {
		return ""
	}
	if idx := strings.LastIndex(usn, ":"); idx >= 0 {
		return usn[idx+1:]
	}
	return usn
}

func (c Candidate) fallbackName() string {
	if serial := c.Serial(); serial != "" {
		return "Roku " + serial
	}
	return "Roku " + c.Addr
}

func buildSearch(host, searchTarget string, mx int) []byte {
	var b bytes.Buffer
	b.WriteString("M-SEARCH * HTTP/1.1\r\n")
	fmt.Fprintf(&b, "HOST: %s\r\n", host)
	b.WriteString("MAN: \"ssdp:discover\"\r\n")
	fmt.Fprintf(&b, "ST: %s\r\n", searchTarget)
	fmt.Fprintf(&b, "MX: %d\r\n", mx)
	b.WriteString("\r\n")
	return b.Bytes()
}

// parseReply turns one SSDP datagram into a Candidate. Name is left empty.
func parseReply(data []byte, searchTarget string) (Candidate, error) {
	resp, err := http.ReadResponse(bufio.NewReader(bytes.NewReader(data)), nil)
	if err != nil {
		return Candidate{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Candidate{}, fmt.Errorf("%w: status %d", ErrMalformedResponse, resp.StatusCode)
	}
	if st := strings.TrimSpace(resp.Header.Get("ST")); st != "" && !strings.EqualFold(st, searchTarget) {
		return Candidate{}, fmt.Errorf("%w: unexpected search target %q", ErrMalformedResponse, st)
	}

	location := strings.TrimSpace(resp.Header.Get("Location"))
	if location == "" {
		return Candidate{}, fmt.Errorf("%w: missing LOCATION header", ErrMalformedResponse)
	}
	u, err := url.Parse(location)
	if err != nil {
		return Candidate{}, fmt.Errorf("%w: location %q: %v", ErrMalformedResponse, location, err)
	}
	if !strings.EqualFold(u.Scheme, "http") || u.Host == "" {
		return Candidate{}, fmt.Errorf("%w: location %q is not an absolute http url", ErrMalformedResponse, location)
	}
	addr, err := ecp.NormalizeAddr(u.Host, ecp.DefaultPort)
	if err != nil {
		return Candidate{}, fmt.Errorf("%w: location %q: %v", ErrMalformedResponse, location, err)
	}

	return Candidate{
		Addr:     addr,
		Location: location,
		USN:      strings.TrimSpace(resp.Header.Get("USN")),
		Server:   strings.TrimSpace(resp.Header.Get("Server")),
	}, nil
}

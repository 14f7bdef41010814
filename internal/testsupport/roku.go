package testsupport

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"rokuctl/internal/ecp"
)

// DefaultApps mirrors a typical Roku channel list.
func DefaultApps() []ecp.Application {
	return []ecp.Application{
		{ID: "12", Type: "appl", Version: "5.2.0", Name: "Netflix"},
		{ID: "837", Type: "appl", Version: "2.21.100", Name: "YouTube"},
		{ID: "551012", Type: "appl", Version: "14.1.7", Name: "Apple TV"},
		{ID: "tvinput.hdmi1", Type: "tvin", Version: "1.0.0", Name: "Roku TV HDMI 1"},
	}
}

// FakeRoku is an httptest ECP endpoint that records every request.
type FakeRoku struct {
	Server *httptest.Server

	mu       sync.Mutex
	name     string
	apps     []ecp.Application
	requests []string
	failures map[string]int
}

// NewFakeRoku starts a fake device serving DefaultApps.
func NewFakeRoku(t testing.TB) *FakeRoku {
	t.Helper()

	fake := &FakeRoku{
		name:     "Living Room",
		apps:     DefaultApps(),
		failures: make(map[string]int),
	}
	fake.Server = httptest.NewServer(http.HandlerFunc(fake.serve))
	t.Cleanup(fake.Server.Close)
	return fake
}

// Addr returns the host:port of the fake device.
func (f *FakeRoku) Addr() string {
	return strings.TrimPrefix(f.Server.URL, "http://")
}

// Device returns the device record for the fake.
func (f *FakeRoku) Device() ecp.Device {
	f.mu.Lock()
	defer f.mu.Unlock()
	return ecp.Device{Name: f.name, Addr: f.Addr()}
}

// SetApps replaces the installed application list.
func (f *FakeRoku) SetApps(apps []ecp.Application) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.apps = append([]ecp.Application(nil), apps...)
}

// FailPath makes requests to path answer with status.
func (f *FakeRoku) FailPath(path string, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[path] = status
}

// Requests returns the "METHOD /path?query" lines received so far.
func (f *FakeRoku) Requests() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

func (f *FakeRoku) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	line := r.Method + " " + r.URL.Path
	if r.URL.RawQuery != "" {
		line += "?" + r.URL.RawQuery
	}
	f.requests = append(f.requests, line)
	status, failing := f.failures[r.URL.Path]
	name := f.name
	apps := append([]ecp.Application(nil), f.apps...)
	f.mu.Unlock()

	if failing {
		http.Error(w, http.StatusText(status), status)
		return
	}

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/query/apps":
		w.Header().Set("Content-Type", "text/xml; charset=utf-8")
		_, _ = w.Write(appsXML(apps))
	case r.Method == http.MethodGet && r.URL.Path == "/query/device-info":
		w.Header().Set("Content-Type", "text/xml; charset=utf-8")
		_, _ = w.Write(deviceInfoXML(name))
	case r.Method == http.MethodGet && r.URL.Path == "/search/browse":
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodPost && strings.HasPrefix(r.URL.Path, "/keypress/"):
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodPost && strings.HasPrefix(r.URL.Path, "/launch/"):
		id := strings.TrimPrefix(r.URL.Path, "/launch/")
		for _, app := range apps {
			if app.ID == id {
				w.WriteHeader(http.StatusOK)
				return
			}
		}
		http.NotFound(w, r)
	default:
		http.NotFound(w, r)
	}
}

func appsXML(apps []ecp.Application) []byte {
	var b bytes.Buffer
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" ?>` + "\n<apps>\n")
	for _, app := range apps {
		fmt.Fprintf(&b, "\t<app id=%q type=%q version=%q>", app.ID, app.Type, app.Version)
		_ = xml.EscapeText(&b, []byte(app.Name))
		b.WriteString("</app>\n")
	}
	b.WriteString("</apps>\n")
	return b.Bytes()
}

func deviceInfoXML(name string) []byte {
	var b bytes.Buffer
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" ?>` + "\n<device-info>\n")
	b.WriteString("\t<udn>29780000-0000-1000-8000-d83134000000</udn>\n")
	b.WriteString("\t<serial-number>X00400000000</serial-number>\n")
	b.WriteString("\t<vendor-name>Roku</vendor-name>\n")
	b.WriteString("\t<model-name>Roku Ultra</model-name>\n")
	b.WriteString("\t<model-number>4800X</model-number>\n")
	b.WriteString("\t<friendly-device-name>")
	_ = xml.EscapeText(&b, []byte(name))
	b.WriteString("</friendly-device-name>\n")
	b.WriteString("\t<software-version>12.5.0</software-version>\n")
	b.WriteString("\t<power-mode>PowerOn</power-mode>\n")
	b.WriteString("\t<network-type>wifi</network-type>\n")
	b.WriteString("</device-info>\n")
	return b.Bytes()
}

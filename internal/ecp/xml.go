package ecp

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
)

// DeviceInfoReport is the subset of /query/device-info that rokuctl surfaces.
type DeviceInfoReport struct {
	UDN                string `xml:"udn" json:"udn,omitempty"`
	SerialNumber       string `xml:"serial-number" json:"serial_number,omitempty"`
	DeviceID           string `xml:"device-id" json:"device_id,omitempty"`
	VendorName         string `xml:"vendor-name" json:"vendor_name,omitempty"`
	ModelName          string `xml:"model-name" json:"model_name,omitempty"`
	ModelNumber        string `xml:"model-number" json:"model_number,omitempty"`
	IsTV               bool   `xml:"is-tv" json:"is_tv"`
	FriendlyDeviceName string `xml:"friendly-device-name" json:"friendly_device_name,omitempty"`
	FriendlyModelName  string `xml:"friendly-model-name" json:"friendly_model_name,omitempty"`
	DefaultDeviceName  string `xml:"default-device-name" json:"default_device_name,omitempty"`
	UserDeviceName     string `xml:"user-device-name" json:"user_device_name,omitempty"`
	UserDeviceLocation string `xml:"user-device-location" json:"user_device_location,omitempty"`
	SoftwareVersion    string `xml:"software-version" json:"software_version,omitempty"`
	SoftwareBuild      string `xml:"software-build" json:"software_build,omitempty"`
	NetworkType        string `xml:"network-type" json:"network_type,omitempty"`
	NetworkName        string `xml:"network-name" json:"network_name,omitempty"`
	PowerMode          string `xml:"power-mode" json:"power_mode,omitempty"`
	SupportsFindRemote bool   `xml:"supports-find-remote" json:"supports_find_remote"`
	DeveloperEnabled   bool   `xml:"developer-enabled" json:"developer_enabled"`
	SearchEnabled      bool   `xml:"search-enabled" json:"search_enabled"`
}

// DisplayName picks the most human friendly name the device reported.
func (r DeviceInfoReport) DisplayName() string {
	for _, candidate := range []string{r.FriendlyDeviceName, r.UserDeviceName, r.DefaultDeviceName, r.FriendlyModelName, r.ModelName} {
		if name := strings.TrimSpace(candidate); name != "" {
			return name
		}
	}
	return ""
}

// ParseDeviceInfo decodes a /query/device-info response body.
func ParseDeviceInfo(body []byte) (DeviceInfoReport, error) {
	var report DeviceInfoReport
	if err := decodeXML(body, "device-info", &report); err != nil {
		return DeviceInfoReport{}, fmt.Errorf("parse device-info: %w", err)
	}
	return trimReport(report), nil
}

func trimReport(r DeviceInfoReport) DeviceInfoReport {
	for _, field := range []*string{
		&r.UDN, &r.SerialNumber, &r.DeviceID, &r.VendorName, &r.ModelName, &r.ModelNumber,
		&r.FriendlyDeviceName, &r.FriendlyModelName, &r.DefaultDeviceName, &r.UserDeviceName,
		&r.UserDeviceLocation, &r.SoftwareVersion, &r.SoftwareBuild, &r.NetworkType,
		&r.NetworkName, &r.PowerMode,
	} {
		*field = strings.TrimSpace(*field)
	}
	return r
}

type appsPayload struct {
	Apps []struct {
		ID      string `xml:"id,attr"`
		Type    string `xml:"type,attr"`
		Version string `xml:"version,attr"`
		Name    string `xml:",chardata"`
	} `xml:"app"`
}

// ParseApps decodes a /query/apps response body, preserving device order.
// Entries without an id are dropped.
func ParseApps(body []byte) ([]Application, error) {
	var payload appsPayload
	if err := decodeXML(body, "apps", &payload); err != nil {
		return nil, fmt.Errorf("parse apps: %w", err)
	}
	apps := make([]Application, 0, len(payload.Apps))
	for _, app := range payload.Apps {
		id := strings.TrimSpace(app.ID)
		if id == "" {
			continue
		}
		apps = append(apps, Application{
			ID:      id,
			Type:    strings.TrimSpace(app.Type),
			Version: strings.TrimSpace(app.Version),
			Name:    strings.TrimSpace(app.Name),
		})
	}
	return apps, nil
}

// decodeXML unmarshals body into v after checking the root element name.
func decodeXML(body []byte, root string, v any) error {
	if len(bytes.TrimSpace(body)) == 0 {
		return fmt.Errorf("empty body")
	}
	decoder := xml.NewDecoder(bytes.NewReader(body))
	for {
		tok, err := decoder.Token()
		if err != nil {
			return fmt.Errorf("find <%s>: %w", root, err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if start.Name.Local != root {
			return fmt.Errorf("unexpected root element <%s>, want <%s>", start.Name.Local, root)
		}
		return decoder.DecodeElement(v, &start)
	}
}

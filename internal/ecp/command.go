package ecp

import (
	"fmt"
	"sort"
	"strings"
)

// Key is a Roku remote button name as used in /keypress/<Key>.
type Key string

const (
	KeyUp         Key = "Up"
	KeyDown       Key = "Down"
	KeyLeft       Key = "Left"
	KeyRight      Key = "Right"
	KeySelect     Key = "Select"
	KeyBack       Key = "Back"
	KeyHome       Key = "Home"
	KeyPlay       Key = "Play"
	KeyPause      Key = "Pause"
	KeyMute       Key = "VolumeMute"
	KeyVolumeUp   Key = "VolumeUp"
	KeyVolumeDown Key = "VolumeDown"
	KeyPowerOff   Key = "PowerOff"
)

// keyNames maps CLI command names to keys. Each entry is one button of the
// fixed vocabulary.
var keyNames = map[string]Key{
	"up":          KeyUp,
	"down":        KeyDown,
	"left":        KeyLeft,
	"right":       KeyRight,
	"select":      KeySelect,
	"back":        KeyBack,
	"home":        KeyHome,
	"play":        KeyPlay,
	"pause":       KeyPause,
	"mute":        KeyMute,
	"volume-up":   KeyVolumeUp,
	"volume-down": KeyVolumeDown,
	"power-off":   KeyPowerOff,
}

// Command is one entry of the closed command vocabulary. The variants are
// KeyPress, DeviceInfo, ListApps, Launch, and Search.
type Command interface {
	// Name is the CLI spelling of the command, used in logs.
	Name() string
	command()
}

// KeyPress presses a single remote button.
type KeyPress struct {
	Key Key
}

// DeviceInfo queries /query/device-info.
type DeviceInfo struct{}

// ListApps queries /query/apps.
type ListApps struct{}

// AppRef is the identifier + type pair required to launch an application.
// Name is informational only.
type AppRef struct {
	ID   string
	Type string
	Name string
}

// Launch starts an installed application, optionally deep linking into content.
type Launch struct {
	App       AppRef
	ContentID string
	MediaType string
}

// Search opens the Roku search UI. Options are keyed by their CLI flag names;
// see SearchOptionKeys.
type Search struct {
	Query   string
	Options map[string]string
}

func (KeyPress) command()   {}
func (DeviceInfo) command() {}
func (ListApps) command()   {}
func (Launch) command()     {}
func (Search) command()     {}

func (k KeyPress) Name() string {
	for name, key := range keyNames {
		if key == k.Key {
			return name
		}
	}
	return "keypress"
}

func (DeviceInfo) Name() string { return "device-info" }
func (ListApps) Name() string   { return "list-apps" }
func (Launch) Name() string     { return "launch" }
func (Search) Name() string     { return "search" }

// ParseKey returns the KeyPress for a CLI command name such as "volume-up".
func ParseKey(name string) (KeyPress, error) {
	key, ok := keyNames[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return KeyPress{}, fmt.Errorf("unknown key command %q", name)
	}
	return KeyPress{Key: key}, nil
}

// KeyCommandNames lists the key-press command names in sorted order.
func KeyCommandNames() []string {
	names := make([]string, 0, len(keyNames))
	for name := range keyNames {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

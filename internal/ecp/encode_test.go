package ecp_test

import (
	"errors"
	"net/http"
	"reflect"
	"testing"

	"rokuctl/internal/ecp"
)

func TestEncodeKeyPresses(t *testing.T) {
	cases := []struct {
		name  string
		path  string
		retry ecp.RetryPolicy
	}{
		{"up", "/keypress/Up", ecp.RetryOnce},
		{"down", "/keypress/Down", ecp.RetryOnce},
		{"left", "/keypress/Left", ecp.RetryOnce},
		{"right", "/keypress/Right", ecp.RetryOnce},
		{"select", "/keypress/Select", ecp.NoRetry},
		{"back", "/keypress/Back", ecp.RetryOnce},
		{"home", "/keypress/Home", ecp.RetryOnce},
		{"play", "/keypress/Play", ecp.RetryOnce},
		{"pause", "/keypress/Pause", ecp.RetryOnce},
		{"mute", "/keypress/VolumeMute", ecp.RetryOnce},
		{"volume-up", "/keypress/VolumeUp", ecp.NoRetry},
		{"volume-down", "/keypress/VolumeDown", ecp.NoRetry},
		{"power-off", "/keypress/PowerOff", ecp.NoRetry},
	}
	if len(cases) != len(ecp.KeyCommandNames()) {
		t.Fatalf("vocabulary drift: %d cases, %d key commands", len(cases), len(ecp.KeyCommandNames()))
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cmd, err := ecp.ParseKey(tc.name)
			if err != nil {
				t.Fatalf("ParseKey: %v", err)
			}
			req, err := ecp.Encode(cmd)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			if req.Method != http.MethodPost || req.Path != tc.path {
				t.Fatalf("unexpected request: %s", req.Target())
			}
			if req.Retry != tc.retry {
				t.Fatalf("retry policy: got %s want %s", req.Retry, tc.retry)
			}
			if req.Command != tc.name {
				t.Fatalf("command name: got %q want %q", req.Command, tc.name)
			}
		})
	}
}

func TestParseKeyRejectsUnknown(t *testing.T) {
	if _, err := ecp.ParseKey("rewind-everything"); err == nil {
		t.Fatal("expected error for unknown key")
	}
	if _, err := ecp.Encode(ecp.KeyPress{Key: "Turbo"}); err == nil {
		t.Fatal("expected error for unknown key value")
	}
}

func TestEncodeQueries(t *testing.T) {
	info, err := ecp.Encode(ecp.DeviceInfo{})
	if err != nil {
		t.Fatalf("Encode device-info: %v", err)
	}
	if info.Target() != "GET /query/device-info" || info.Retry != ecp.RetryOnce {
		t.Fatalf("unexpected device-info request: %+v", info)
	}
	apps, err := ecp.Encode(ecp.ListApps{})
	if err != nil {
		t.Fatalf("Encode list-apps: %v", err)
	}
	if apps.Target() != "GET /query/apps" {
		t.Fatalf("unexpected list-apps request: %s", apps.Target())
	}
}

func TestEncodeLaunch(t *testing.T) {
	req, err := ecp.Encode(ecp.Launch{
		App:       ecp.AppRef{ID: "837", Type: "appl", Name: "YouTube"},
		ContentID: "https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42",
		MediaType: "live",
	})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if req.Target() != "POST /launch/837?contentId=dQw4w9WgXcQ&mediaType=live" {
		t.Fatalf("unexpected launch target: %s", req.Target())
	}
	if req.Retry != ecp.NoRetry {
		t.Fatal("launch must never be retried")
	}

	plain, err := ecp.Encode(ecp.Launch{App: ecp.AppRef{ID: "12", Type: "appl"}})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if plain.Target() != "POST /launch/12" {
		t.Fatalf("unexpected plain launch: %s", plain.Target())
	}
}

func TestEncodeLaunchBareNameIsUnresolved(t *testing.T) {
	for _, ref := range []ecp.AppRef{
		{Name: "Netflix"},
		{ID: "12", Name: "Netflix"},
		{Type: "appl", Name: "Netflix"},
	} {
		_, err := ecp.Encode(ecp.Launch{App: ref})
		if !errors.Is(err, ecp.ErrUnresolvedReference) {
			t.Fatalf("expected ErrUnresolvedReference for %+v, got %v", ref, err)
		}
	}
}

func TestEncodeLaunchMediaTypeNeedsContent(t *testing.T) {
	_, err := ecp.Encode(ecp.Launch{App: ecp.AppRef{ID: "12", Type: "appl"}, MediaType: "movie"})
	if !errors.Is(err, ecp.ErrInvalidOption) {
		t.Fatalf("expected ErrInvalidOption, got %v", err)
	}
}

func TestEncodeSearch(t *testing.T) {
	req, err := ecp.Encode(ecp.Search{
		Query: "  The Office ",
		Options: map[string]string{
			"type":        "TV-Show",
			"season":      "3",
			"provider-id": "12",
		},
	})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := "GET /search/browse?keyword=The+Office&provider-id=12&season=3&type=tv-show"
	if req.Target() != want {
		t.Fatalf("unexpected search target:\n got %s\nwant %s", req.Target(), want)
	}
	if req.Retry != ecp.RetryOnce {
		t.Fatal("plain search should be retryable")
	}

	launching, err := ecp.Encode(ecp.Search{Query: "Inception", Options: map[string]string{"launch": "yes"}})
	if err == nil {
		t.Fatalf("expected invalid bool to fail, got %s", launching.Target())
	}
	launching, err = ecp.Encode(ecp.Search{Query: "Inception", Options: map[string]string{"launch": "1"}})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if launching.Query.Get("launch") != "true" || launching.Retry != ecp.NoRetry {
		t.Fatalf("search with launch must not retry: %+v", launching)
	}
}

func TestEncodeSearchRejectsUnknownAndInvalidOptions(t *testing.T) {
	_, err := ecp.Encode(ecp.Search{Query: "x", Options: map[string]string{"lanuch": "true"}})
	if !errors.Is(err, ecp.ErrUnrecognizedOption) {
		t.Fatalf("expected ErrUnrecognizedOption, got %v", err)
	}
	for _, opts := range []map[string]string{
		{"season": "two"},
		{"type": "podcast"},
		{"title": "  "},
	} {
		if _, err := ecp.Encode(ecp.Search{Query: "x", Options: opts}); !errors.Is(err, ecp.ErrInvalidOption) {
			t.Fatalf("expected ErrInvalidOption for %v, got %v", opts, err)
		}
	}
	if _, err := ecp.Encode(ecp.Search{Query: " "}); !errors.Is(err, ecp.ErrInvalidOption) {
		t.Fatalf("expected empty query to fail, got %v", err)
	}
}

func TestEncodeIsDeterministic(t *testing.T) {
	commands := []ecp.Command{
		ecp.KeyPress{Key: ecp.KeyUp},
		ecp.DeviceInfo{},
		ecp.ListApps{},
		ecp.Launch{App: ecp.AppRef{ID: "551012", Type: "appl"}, ContentID: "abc"},
		ecp.Search{Query: "news", Options: map[string]string{"match-any": "true", "tmsid": "MV1", "provider": "Netflix"}},
	}
	for _, cmd := range commands {
		first, err := ecp.Encode(cmd)
		if err != nil {
			t.Fatalf("Encode %s: %v", cmd.Name(), err)
		}
		for i := 0; i < 20; i++ {
			again, err := ecp.Encode(cmd)
			if err != nil {
				t.Fatalf("Encode %s: %v", cmd.Name(), err)
			}
			if !reflect.DeepEqual(first, again) || first.Target() != again.Target() {
				t.Fatalf("Encode %s not deterministic: %s vs %s", cmd.Name(), first.Target(), again.Target())
			}
		}
	}
}

func TestEncodeNilCommand(t *testing.T) {
	if _, err := ecp.Encode(nil); err == nil {
		t.Fatal("expected error for nil command")
	}
}

func TestNormalizeContentID(t *testing.T) {
	cases := map[string]string{
		"":                                    "",
		" abc123 ":                            "abc123",
		"https://youtu.be/dQw4w9WgXcQ":        "dQw4w9WgXcQ",
		"https://m.youtube.com/watch?v=xyz":   "xyz",
		"https://example.com/watch?v=keepme":  "https://example.com/watch?v=keepme",
		"https://www.youtube.com/feed/trends": "https://www.youtube.com/feed/trends",
	}
	for in, want := range cases {
		if got := ecp.NormalizeContentID(in); got != want {
			t.Fatalf("NormalizeContentID(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeAddr(t *testing.T) {
	cases := map[string]string{
		"192.168.1.3":              "192.168.1.3:8060",
		"192.168.1.3:9000":         "192.168.1.3:9000",
		"http://192.168.1.3:8060/": "192.168.1.3:8060",
		"fe80::1":                  "[fe80::1]:8060",
		"[fe80::1]:8060":           "[fe80::1]:8060",
	}
	for in, want := range cases {
		got, err := ecp.NormalizeAddr(in, 8060)
		if err != nil {
			t.Fatalf("NormalizeAddr(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("NormalizeAddr(%q) = %q, want %q", in, got, want)
		}
	}
	for _, bad := range []string{"", ":8060", "host:port", "https://192.168.1.3:8060", "a:b:c", "roku/box", "192.168.1.3:0", "[a:b:c]"} {
		if _, err := ecp.NormalizeAddr(bad, 8060); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"rokuctl/internal/appresolver"
	"rokuctl/internal/discovery"
	"rokuctl/internal/ecp"
	"rokuctl/internal/registry"
	"rokuctl/internal/testsupport"
)

func nonInteractive(t *testing.T) {
	t.Helper()
	prev := stdinIsTerminal
	stdinIsTerminal = func() bool { return false }
	t.Cleanup(func() { stdinIsTerminal = prev })
}

func TestKeyCommandsSendKeypress(t *testing.T) {
	env := setupCLITestEnv(t).withRegistry(t)

	for name, want := range map[string]string{
		"up":          "POST /keypress/Up",
		"select":      "POST /keypress/Select",
		"mute":        "POST /keypress/VolumeMute",
		"volume-down": "POST /keypress/VolumeDown",
		"power-off":   "POST /keypress/PowerOff",
	} {
		if _, err := runCLI(t, env, name); err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		requireRequest(t, env.fake, want)
	}
}

func TestKeyCommandRepeat(t *testing.T) {
	env := setupCLITestEnv(t).withRegistry(t)
	if _, err := runCLI(t, env, "right", "--repeat", "3"); err != nil {
		t.Fatalf("right: %v", err)
	}
	if got := len(env.fake.Requests()); got != 3 {
		t.Fatalf("expected 3 key presses, got %v", env.fake.Requests())
	}
}

func TestCommandWithoutRegistrySuggestsDiscover(t *testing.T) {
	env := setupCLITestEnv(t)
	_, err := runCLI(t, env, "home")
	if !errors.Is(err, registry.ErrNotFound) {
		t.Fatalf("expected registry.ErrNotFound, got %v", err)
	}
	requireContains(t, formatError(err), "rokuctl discover")
	if len(env.fake.Requests()) != 0 {
		t.Fatalf("no request should reach the device: %v", env.fake.Requests())
	}
}

func TestRegistryFlagOverridesConfig(t *testing.T) {
	env := setupCLITestEnv(t)
	other := filepath.Join(t.TempDir(), "other.toml")
	cfg := *env.cfg
	cfg.Registry.Path = other
	testsupport.MustSaveRegistry(t, &cfg, env.fake.Device(), nil)

	if _, err := runCLI(t, env, "--registry", other, "back"); err != nil {
		t.Fatalf("back: %v", err)
	}
	requireRequest(t, env.fake, "POST /keypress/Back")
}

func TestListAppsTableAndJSON(t *testing.T) {
	env := setupCLITestEnv(t).withRegistry(t)

	out, err := runCLI(t, env, "list-apps")
	if err != nil {
		t.Fatalf("list-apps: %v", err)
	}
	requireContains(t, out, "Netflix")
	requireContains(t, out, "551012")
	if len(env.fake.Requests()) != 0 {
		t.Fatalf("cached list should not hit the device: %v", env.fake.Requests())
	}

	out, err = runCLI(t, env, "list-apps", "--json")
	if err != nil {
		t.Fatalf("list-apps --json: %v", err)
	}
	var apps []ecp.Application
	if err := json.Unmarshal([]byte(out), &apps); err != nil {
		t.Fatalf("decode json: %v\n%s", err, out)
	}
	if len(apps) != len(testsupport.DefaultApps()) || apps[0].Name != "Netflix" {
		t.Fatalf("unexpected apps: %+v", apps)
	}
}

func TestListAppsRefreshUpdatesRegistry(t *testing.T) {
	env := setupCLITestEnv(t).withRegistry(t)
	env.fake.SetApps([]ecp.Application{{ID: "2285", Type: "appl", Version: "6.1", Name: "Hulu"}})

	out, err := runCLI(t, env, "list-apps", "--refresh")
	if err != nil {
		t.Fatalf("list-apps --refresh: %v", err)
	}
	requireContains(t, out, "Hulu")
	requireRequest(t, env.fake, "GET /query/apps")

	store := testsupport.MustLoadRegistry(t, env.cfg)
	if len(store.Apps) != 1 || store.Apps[0].ID != "2285" {
		t.Fatalf("registry not refreshed: %+v", store.Apps)
	}
}

func TestLaunchResolvesName(t *testing.T) {
	env := setupCLITestEnv(t).withRegistry(t)

	out, err := runCLI(t, env, "launch", "apple", "tv")
	if err != nil {
		t.Fatalf("launch: %v", err)
	}
	requireContains(t, out, "Launched Apple TV (551012)")
	requireRequest(t, env.fake, "POST /launch/551012")

	if _, err := runCLI(t, env, "launch", "YouTube", "--content-id", "https://www.youtube.com/watch?v=dQw4w9WgXcQ"); err != nil {
		t.Fatalf("launch youtube: %v", err)
	}
	requireRequest(t, env.fake, "POST /launch/837?contentId=dQw4w9WgXcQ")
}

func TestLaunchAmbiguousAndUnknown(t *testing.T) {
	env := setupCLITestEnv(t).withRegistry(t)

	_, err := runCLI(t, env, "launch", "TV")
	var ambiguous *appresolver.AmbiguousError
	if !errors.As(err, &ambiguous) {
		t.Fatalf("expected AmbiguousError, got %v", err)
	}
	requireContains(t, formatError(err), "ambiguous application")

	_, err = runCLI(t, env, "launch", "xyz-nonexistent")
	if !errors.Is(err, appresolver.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(env.fake.Requests()) != 0 {
		t.Fatalf("failed resolution must not send requests: %v", env.fake.Requests())
	}
}

func TestLaunchUninstalledAppHintsRefresh(t *testing.T) {
	env := setupCLITestEnv(t).withRegistry(t)
	env.fake.SetApps(nil)

	_, err := runCLI(t, env, "launch", "netflix")
	var protoErr *ecp.ProtocolError
	if !errors.As(err, &protoErr) || protoErr.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 ProtocolError, got %v", err)
	}
	msg := formatError(err)
	requireContains(t, msg, "application not installed")
	requireContains(t, msg, "list-apps --refresh")
}

func TestSearchPassesOptions(t *testing.T) {
	env := setupCLITestEnv(t).withRegistry(t)

	out, err := runCLI(t, env, "search", "the", "office", "--type", "tv-show", "--season", "3", "--provider-id", "12")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	requireContains(t, out, `Searching for "the office"`)
	requireRequest(t, env.fake, "GET /search/browse?keyword=the+office&provider-id=12&season=3&type=tv-show")
}

func TestSearchRejectsInvalidTypeBeforeLoadingRegistry(t *testing.T) {
	env := setupCLITestEnv(t)
	_, err := runCLI(t, env, "search", "news", "--type", "podcast")
	if !errors.Is(err, ecp.ErrInvalidOption) {
		t.Fatalf("expected ErrInvalidOption, got %v", err)
	}
}

func TestDeviceInfoJSON(t *testing.T) {
	env := setupCLITestEnv(t).withRegistry(t)

	out, err := runCLI(t, env, "device-info", "--json")
	if err != nil {
		t.Fatalf("device-info: %v", err)
	}
	var payload struct {
		Device ecp.Device           `json:"device"`
		Info   ecp.DeviceInfoReport `json:"info"`
	}
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("decode json: %v\n%s", err, out)
	}
	if payload.Info.FriendlyDeviceName != "Living Room" || payload.Info.SerialNumber != "X00400000000" {
		t.Fatalf("unexpected info: %+v", payload.Info)
	}
	if payload.Device.Addr != env.fake.Addr() {
		t.Fatalf("unexpected device: %+v", payload.Device)
	}

	out, err = runCLI(t, env, "device-info")
	if err != nil {
		t.Fatalf("device-info table: %v", err)
	}
	requireContains(t, out, "Roku Ultra (4800X)")
}

func TestDeviceRefusingControl(t *testing.T) {
	env := setupCLITestEnv(t).withRegistry(t)
	env.fake.FailPath("/keypress/Home", http.StatusForbidden)

	_, err := runCLI(t, env, "home")
	requireContains(t, formatError(err), "Control by mobile apps")
}

func TestUnreachableDeviceReportsKind(t *testing.T) {
	env := setupCLITestEnv(t).withRegistry(t)
	env.fake.Server.Close()

	_, err := runCLI(t, env, "up")
	if !errors.Is(err, ecp.ErrUnreachable) {
		t.Fatalf("expected ErrUnreachable, got %v", err)
	}
	requireContains(t, formatError(err), "device unreachable")
}

func TestDiscoverSavesSingleDevice(t *testing.T) {
	nonInteractive(t)
	env := setupCLITestEnv(t, testsupport.WithNameResolution(true))
	env.cfg.Discovery.MulticastAddress = startSSDPResponder(t, env.fake.Server.URL+"/")
	writeTestConfig(t, env.configPath, env.cfg)

	out, err := runCLI(t, env, "discover")
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	requireContains(t, out, "Living Room")
	requireContains(t, out, "Saved Living Room")

	store := testsupport.MustLoadRegistry(t, env.cfg)
	if store.Device.Addr != env.fake.Addr() || store.Device.Name != "Living Room" {
		t.Fatalf("unexpected saved device: %+v", store.Device)
	}
	if len(store.Apps) != len(testsupport.DefaultApps()) {
		t.Fatalf("expected apps saved with the device, got %+v", store.Apps)
	}
}

func TestDiscoverMultipleRequiresPick(t *testing.T) {
	nonInteractive(t)
	env := setupCLITestEnv(t)
	second := testsupport.NewFakeRoku(t)
	env.cfg.Discovery.MulticastAddress = startSSDPResponder(t, env.fake.Server.URL+"/", second.Server.URL+"/")
	writeTestConfig(t, env.configPath, env.cfg)

	_, err := runCLI(t, env, "discover")
	if err == nil || !strings.Contains(err.Error(), "--pick") {
		t.Fatalf("expected a --pick hint, got %v", err)
	}
	if _, statErr := os.Stat(env.cfg.Registry.Path); !os.IsNotExist(statErr) {
		t.Fatalf("registry must not be written without a choice")
	}
}

func TestDiscoverPickSavesChosenDevice(t *testing.T) {
	nonInteractive(t)
	env := setupCLITestEnv(t)
	second := testsupport.NewFakeRoku(t)
	env.cfg.Discovery.MulticastAddress = startSSDPResponder(t, env.fake.Server.URL+"/", second.Server.URL+"/")
	writeTestConfig(t, env.configPath, env.cfg)

	if _, err := runCLI(t, env, "discover", "--pick", "2"); err != nil {
		t.Fatalf("discover --pick 2: %v", err)
	}
	store := testsupport.MustLoadRegistry(t, env.cfg)
	if store.Device.Addr != second.Addr() {
		t.Fatalf("expected second device saved, got %+v", store.Device)
	}
	if store.Device.Name != "Roku TEST00000002" {
		t.Fatalf("expected serial fallback name, got %q", store.Device.Name)
	}
}

func TestDiscoverNoResponse(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.Discovery.MulticastAddress = startSSDPResponder(t)
	writeTestConfig(t, env.configPath, env.cfg)

	_, err := runCLI(t, env, "discover", "--list")
	if !errors.Is(err, discovery.ErrNoResponse) {
		t.Fatalf("expected ErrNoResponse, got %v", err)
	}
	requireContains(t, formatError(err), "no devices found")
}

func TestConfigInitValidateAndPath(t *testing.T) {
	env := setupCLITestEnv(t)

	out, err := runCLI(t, env, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, env.cfg.Registry.Path)

	target := filepath.Join(t.TempDir(), "config.toml")
	out, err = runCLI(t, env, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}
	if _, err := runCLI(t, env, "config", "init", "--path", target); err == nil {
		t.Fatal("expected init to refuse overwriting without --overwrite")
	}

	out, err = runCLI(t, env, "config", "path")
	if err != nil {
		t.Fatalf("config path: %v", err)
	}
	requireContains(t, out, env.configPath)
}

func TestInvalidConfigFails(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.WriteFile(t, env.configPath, "[ecp]\ntimeout_seconds = 0\n")

	if _, err := runCLI(t, env, "up"); err == nil || !strings.Contains(err.Error(), "ecp.timeout_seconds") {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestVerboseWritesLogFile(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithLogFile()).withRegistry(t)
	if _, err := runCLI(t, env, "--verbose", "home"); err != nil {
		t.Fatalf("home: %v", err)
	}
	logPath := filepath.Join(testsupport.BaseDir(env.cfg), "logs", "rokuctl.log")
	logged := testsupport.ReadFile(t, logPath)
	requireContains(t, logged, "command started")
	requireContains(t, logged, "/keypress/Home")
}

func TestDoctorReportsChecks(t *testing.T) {
	env := setupCLITestEnv(t)
	out, err := runCLI(t, env, "doctor")
	if err == nil {
		t.Fatal("expected doctor to fail without a registry")
	}
	requireContains(t, out, "FAIL")

	env.withRegistry(t)
	out, err = runCLI(t, env, "doctor")
	if err != nil {
		t.Fatalf("doctor: %v", err)
	}
	requireContains(t, out, "Reachable (Roku Ultra")
}

package main

import (
	"bytes"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"rokuctl/internal/config"
	"rokuctl/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	fake       *testsupport.FakeRoku
	configPath string
}

// setupCLITestEnv starts a fake Roku and writes a config pointing the
// registry into a temp dir. The registry itself is not created.
func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	homeDir := filepath.Join(t.TempDir(), "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("ROKUCTL_REGISTRY", "")
	t.Setenv("ROKUCTL_LOG_LEVEL", "")

	cfg := testsupport.NewConfig(t, opts...)
	configPath := filepath.Join(homeDir, ".config", "rokuctl", "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{
		cfg:        cfg,
		fake:       testsupport.NewFakeRoku(t),
		configPath: configPath,
	}
}

// withRegistry saves the fake device and its default apps.
func (e *cliTestEnv) withRegistry(t *testing.T) *cliTestEnv {
	t.Helper()
	testsupport.MustSaveRegistry(t, e.cfg, e.fake.Device(), testsupport.DefaultApps())
	return e
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, env *cliTestEnv, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs(append([]string{"--config", env.configPath}, args...))
	err := cmd.Execute()
	return stdout.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected %q to contain %q", haystack, needle)
	}
}

func requireRequest(t *testing.T, fake *testsupport.FakeRoku, want string) {
	t.Helper()
	for _, got := range fake.Requests() {
		if got == want {
			return
		}
	}
	t.Fatalf("expected request %q, got %v", want, fake.Requests())
}

// startSSDPResponder answers one M-SEARCH with a reply per location.
func startSSDPResponder(t *testing.T, locations ...string) string {
	t.Helper()
	conn, err := net.ListenPacket("udp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen responder: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	go func() {
		buf := make([]byte, 2048)
		_, from, err := conn.ReadFrom(buf)
		if err != nil {
			return
		}
		for i, loc := range locations {
			reply := fmt.Sprintf("HTTP/1.1 200 OK\r\nST: roku:ecp\r\nLocation: %s\r\nUSN: uuid:roku:ecp:TEST%08d\r\n\r\n", loc, i+1)
			_, _ = conn.WriteTo([]byte(reply), from)
		}
	}()
	return conn.LocalAddr().String()
}

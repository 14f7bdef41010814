package preflight

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"golang.org/x/sys/unix"

	"rokuctl/internal/ecp"
	"rokuctl/internal/registry"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist; discover creates it)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckRegistry loads the registry. The store is nil when the check fails.
func CheckRegistry(reg *registry.Registry) (*registry.Store, Result) {
	const name = "Registry"

	store, err := reg.Load()
	switch {
	case errors.Is(err, registry.ErrNotFound):
		return nil, Result{Name: name, Detail: fmt.Sprintf("%s missing; run `rokuctl discover`", reg.Path())}
	case err != nil:
		return nil, Result{Name: name, Detail: err.Error()}
	}
	return store, Result{
		Name:   name,
		Passed: true,
		Detail: fmt.Sprintf("%s at %s, %d apps cached", store.Device, store.Device.Addr, len(store.Apps)),
	}
}

// CheckDevice queries /query/device-info on device.
func CheckDevice(ctx context.Context, executor ecp.Executor, device ecp.Device) Result {
	const name = "Device"

	if executor == nil {
		return Result{Name: name, Detail: "no ecp client configured"}
	}
	req, err := ecp.Encode(ecp.DeviceInfo{})
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	resp, err := executor.Execute(ctx, req, device)
	if err != nil {
		return Result{Name: name, Detail: summarizeDeviceError(err)}
	}
	report, err := ecp.ParseDeviceInfo(resp.Body)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("unexpected device-info reply (%v)", err)}
	}
	detail := "Reachable"
	if model := report.ModelName; model != "" {
		detail = fmt.Sprintf("Reachable (%s, software %s, power %s)", model, report.SoftwareVersion, report.PowerMode)
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

// summarizeDeviceError produces a human-readable summary for device check failures.
func summarizeDeviceError(err error) string {
	var protoErr *ecp.ProtocolError
	switch {
	case errors.As(err, &protoErr) && protoErr.StatusCode == http.StatusForbidden:
		return "control disabled on the device (enable Control by mobile apps)"
	case errors.As(err, &protoErr):
		return fmt.Sprintf("device answered http %d", protoErr.StatusCode)
	case errors.Is(err, ecp.ErrTimeout):
		return "timed out (device asleep or unresponsive)"
	case errors.Is(err, ecp.ErrUnreachable):
		return "unreachable (powered off or address changed; rerun discover)"
	default:
		return err.Error()
	}
}

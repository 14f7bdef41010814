package main

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"rokuctl/internal/appresolver"
	"rokuctl/internal/discovery"
	"rokuctl/internal/ecp"
	"rokuctl/internal/registry"
)

// errorKind is the short label printed before a failure.
type errorKind struct {
	label string
	hint  string
}

// classifyError maps a command failure onto a user-facing kind and an
// actionable hint. Unknown errors get the generic "error" label.
func classifyError(err error) errorKind {
	var protoErr *ecp.ProtocolError
	var ambiguous *appresolver.AmbiguousError

	switch {
	case errors.Is(err, registry.ErrNotFound):
		return errorKind{"no device configured", "run `rokuctl discover` to find and save a Roku"}
	case errors.Is(err, registry.ErrCorrupt):
		return errorKind{"registry corrupt", "fix the file by hand or rerun `rokuctl discover` to rewrite it"}
	case errors.Is(err, registry.ErrIOFailure):
		return errorKind{"registry unavailable", "check that the registry path is readable and its directory is writable"}
	case errors.Is(err, discovery.ErrNoResponse):
		return errorKind{"no devices found", "make sure the Roku is powered on and on the same network; routers that block multicast prevent discovery"}
	case errors.Is(err, discovery.ErrMalformedResponse):
		return errorKind{"discovery failed", "devices answered but none looked like a Roku; rerun with --verbose for details"}
	case errors.As(err, &ambiguous):
		return errorKind{"ambiguous application", "use a longer name or the application ID from `rokuctl list-apps`"}
	case errors.Is(err, appresolver.ErrNotFound):
		return errorKind{"application not found", "run `rokuctl list-apps --refresh` to update the installed list"}
	case errors.Is(err, ecp.ErrUnresolvedReference):
		return errorKind{"unresolved application", "launch by installed name or ID"}
	case errors.Is(err, ecp.ErrUnrecognizedOption), errors.Is(err, ecp.ErrInvalidOption):
		return errorKind{"invalid option", "see `rokuctl <command> --help` for accepted values"}
	case errors.As(err, &protoErr):
		return protocolKind(protoErr)
	case errors.Is(err, ecp.ErrTimeout):
		return errorKind{"device timed out", "the Roku may be asleep or busy; try again or raise ecp.timeout_seconds"}
	case errors.Is(err, ecp.ErrUnreachable):
		return errorKind{"device unreachable", "check the Roku is powered on; if its address changed, rerun `rokuctl discover`"}
	default:
		return errorKind{label: "error"}
	}
}

func protocolKind(err *ecp.ProtocolError) errorKind {
	switch {
	case err.StatusCode == http.StatusForbidden:
		return errorKind{"device refused control", "enable Settings > System > Advanced system settings > Control by mobile apps"}
	case err.StatusCode == http.StatusNotFound && strings.HasPrefix(err.Path, "/launch/"):
		return errorKind{"application not installed", "it may have been removed; run `rokuctl list-apps --refresh`"}
	case err.StatusCode == http.StatusServiceUnavailable:
		return errorKind{"device busy", "wait a moment and try again"}
	default:
		return errorKind{"device rejected request", "rerun with --verbose to see the request"}
	}
}

// formatError renders err for stderr: the kind, the underlying message, and
// a hint line when one applies.
func formatError(err error) string {
	if err == nil {
		return ""
	}
	kind := classifyError(err)
	msg := fmt.Sprintf("%s: %v", kind.label, err)
	if kind.hint != "" {
		msg += "\nhint: " + kind.hint
	}
	return msg
}

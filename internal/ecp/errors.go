package ecp

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Encoding failures.
var (
	ErrUnresolvedReference = errors.New("unresolved app reference")
	ErrUnrecognizedOption  = errors.New("unrecognized option")
	ErrInvalidOption       = errors.New("invalid option value")
)

// Transport failures.
var (
	ErrUnreachable = errors.New("device unreachable")
	ErrTimeout     = errors.New("device timed out")
)

// ProtocolError reports a non-2xx response from the device.
type ProtocolError struct {
	StatusCode int
	Method     string
	Path       string
	Body       string
}

func (e *ProtocolError) Error() string {
	msg := fmt.Sprintf("device rejected %s %s: http %d %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode))
	if body := strings.TrimSpace(e.Body); body != "" {
		msg += ": " + body
	}
	return msg
}

package ecp

import (
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// RetryPolicy tells the Client whether a request may be repeated after a
// connection-level failure.
type RetryPolicy int

const (
	// NoRetry marks state-changing requests where a duplicate is worse than a
	// visible failure.
	NoRetry RetryPolicy = iota
	// RetryOnce allows one repeat after a refused, reset, or timed out connection.
	RetryOnce
)

func (p RetryPolicy) String() string {
	if p == RetryOnce {
		return "retry-once"
	}
	return "no-retry"
}

// Request is a fully encoded ECP call.
type Request struct {
	Command string
	Method  string
	Path    string
	Query   url.Values
	Retry   RetryPolicy
}

// Target returns "METHOD /path?query" for logs and error messages.
func (r Request) Target() string {
	return r.Method + " " + r.pathWithQuery()
}

func (r Request) pathWithQuery() string {
	if len(r.Query) == 0 {
		return r.Path
	}
	return r.Path + "?" + r.Query.Encode()
}

// URL joins the request onto the device's base URL.
func (r Request) URL(device Device) (string, error) {
	base, err := device.BaseURL()
	if err != nil {
		return "", err
	}
	return base + r.pathWithQuery(), nil
}

// retryableKeys are buttons where a repeated press is harmless: navigation,
// transport controls, and the mute toggle.
var retryableKeys = map[Key]bool{
	KeyUp:    true,
	KeyDown:  true,
	KeyLeft:  true,
	KeyRight: true,
	KeyBack:  true,
	KeyHome:  true,
	KeyPlay:  true,
	KeyPause: true,
	KeyMute:  true,
}

// searchOptions maps accepted option keys to their ECP query parameter and
// value kind.
var searchOptions = map[string]struct {
	param string
	kind  optionKind
}{
	"launch":           {"launch", optionBool},
	"provider":         {"provider", optionText},
	"provider-id":      {"provider-id", optionText},
	"type":             {"type", optionSearchType},
	"title":            {"title", optionText},
	"season":           {"season", optionInt},
	"tmsid":            {"tmsid", optionText},
	"show-unavailable": {"show-unavailable", optionBool},
	"match-any":        {"match-any", optionBool},
}

type optionKind int

const (
	optionText optionKind = iota
	optionBool
	optionInt
	optionSearchType
)

var searchTypes = map[string]bool{
	"movie":   true,
	"tv-show": true,
	"person":  true,
	"channel": true,
	"game":    true,
}

// SearchOptionKeys lists the option keys Search accepts, sorted.
func SearchOptionKeys() []string {
	keys := make([]string, 0, len(searchOptions))
	for key := range searchOptions {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Encode maps a Command onto its ECP request. It performs no I/O and returns
// the same Request for the same Command.
func Encode(cmd Command) (Request, error) {
	switch c := cmd.(type) {
	case KeyPress:
		return encodeKeyPress(c)
	case DeviceInfo:
		return Request{Command: c.Name(), Method: http.MethodGet, Path: "/query/device-info", Retry: RetryOnce}, nil
	case ListApps:
		return Request{Command: c.Name(), Method: http.MethodGet, Path: "/query/apps", Retry: RetryOnce}, nil
	case Launch:
		return encodeLaunch(c)
	case Search:
		return encodeSearch(c)
	case nil:
		return Request{}, fmt.Errorf("encode: nil command")
	default:
		return Request{}, fmt.Errorf("encode: unsupported command %T", cmd)
	}
}

func encodeKeyPress(c KeyPress) (Request, error) {
	known := false
	for _, key := range keyNames {
		if key == c.Key {
			known = true
			break
		}
	}
	if !known {
		return Request{}, fmt.Errorf("encode keypress: unknown key %q", c.Key)
	}
	retry := NoRetry
	if retryableKeys[c.Key] {
		retry = RetryOnce
	}
	return Request{
		Command: c.Name(),
		Method:  http.MethodPost,
		Path:    "/keypress/" + string(c.Key),
		Retry:   retry,
	}, nil
}

func encodeLaunch(c Launch) (Request, error) {
	id := strings.TrimSpace(c.App.ID)
	appType := strings.TrimSpace(c.App.Type)
	if id == "" || appType == "" {
		label := strings.TrimSpace(c.App.Name)
		if label == "" {
			label = id
		}
		return Request{}, fmt.Errorf("encode launch %q: %w: app id and type are required", label, ErrUnresolvedReference)
	}
	query := url.Values{}
	if contentID := NormalizeContentID(c.ContentID); contentID != "" {
		query.Set("contentId", contentID)
	}
	if mediaType := strings.TrimSpace(c.MediaType); mediaType != "" {
		if query.Get("contentId") == "" {
			return Request{}, fmt.Errorf("encode launch: %w: media type requires a content id", ErrInvalidOption)
		}
		query.Set("mediaType", mediaType)
	}
	return Request{
		Command: c.Name(),
		Method:  http.MethodPost,
		Path:    "/launch/" + url.PathEscape(id),
		Query:   query,
		Retry:   NoRetry,
	}, nil
}

func encodeSearch(c Search) (Request, error) {
	keyword := strings.TrimSpace(c.Query)
	if keyword == "" {
		return Request{}, fmt.Errorf("encode search: %w: query must not be empty", ErrInvalidOption)
	}
	query := url.Values{}
	query.Set("keyword", keyword)

	keys := make([]string, 0, len(c.Options))
	for key := range c.Options {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		def, ok := searchOptions[key]
		if !ok {
			return Request{}, fmt.Errorf("encode search: %w %q (accepted: %s)", ErrUnrecognizedOption, key, strings.Join(SearchOptionKeys(), ", "))
		}
		value, err := normalizeOption(key, def.kind, c.Options[key])
		if err != nil {
			return Request{}, err
		}
		query.Set(def.param, value)
	}

	retry := RetryOnce
	if query.Get("launch") == "true" {
		retry = NoRetry
	}
	return Request{
		Command: c.Name(),
		Method:  http.MethodGet,
		Path:    "/search/browse",
		Query:   query,
		Retry:   retry,
	}, nil
}

func normalizeOption(key string, kind optionKind, raw string) (string, error) {
	value := strings.TrimSpace(raw)
	switch kind {
	case optionBool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return "", fmt.Errorf("encode search: %w: %s must be true or false, got %q", ErrInvalidOption, key, raw)
		}
		return strconv.FormatBool(b), nil
	case optionInt:
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return "", fmt.Errorf("encode search: %w: %s must be a non-negative integer, got %q", ErrInvalidOption, key, raw)
		}
		return strconv.Itoa(n), nil
	case optionSearchType:
		value = strings.ToLower(value)
		if !searchTypes[value] {
			return "", fmt.Errorf("encode search: %w: %s must be one of movie, tv-show, person, channel, game; got %q", ErrInvalidOption, key, raw)
		}
		return value, nil
	default:
		if value == "" {
			return "", fmt.Errorf("encode search: %w: %s must not be empty", ErrInvalidOption, key)
		}
		return value, nil
	}
}

// NormalizeContentID reduces YouTube watch and short links to their video id
// and returns other values trimmed but otherwise unchanged.
func NormalizeContentID(raw string) string {
	value := strings.TrimSpace(raw)
	if value == "" {
		return ""
	}
	u, err := url.Parse(value)
	if err != nil || u.Host == "" {
		return value
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	host = strings.TrimPrefix(host, "m.")
	switch host {
	case "youtube.com", "music.youtube.com":
		if v := u.Query().Get("v"); v != "" {
			return v
		}
	case "youtu.be":
		if id := strings.Trim(u.Path, "/"); id != "" {
			return id
		}
	}
	return value
}

package discovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"time"

	"golang.org/x/net/ipv4"

	"rokuctl/internal/config"
	"rokuctl/internal/ecp"
	"rokuctl/internal/logging"
)

const (
	DefaultSearchTarget     = "roku:ecp"
	DefaultMulticastAddress = "239.255.255.250:1900"
	DefaultWindow           = 3 * time.Second

	maxDatagram = 2048
)

// Agent runs SSDP searches.
type Agent struct {
	searchTarget string
	target       string
	iface        string
	ttl          int
	window       time.Duration
	resolveNames bool
	executor     ecp.Executor
	logger       *slog.Logger
}

// Option customizes an Agent.
type Option func(*Agent)

// WithSearchTarget overrides the ST header.
func WithSearchTarget(st string) Option {
	return func(a *Agent) {
		if st != "" {
			a.searchTarget = st
		}
	}
}

// WithMulticastAddress overrides where the M-SEARCH is sent. Tests point it
// at a loopback responder.
func WithMulticastAddress(addr string) Option {
	return func(a *Agent) {
		if addr != "" {
			a.target = addr
		}
	}
}

// WithInterface pins outgoing multicast to the named interface.
func WithInterface(name string) Option {
	return func(a *Agent) {
		a.iface = name
	}
}

// WithTTL sets the multicast hop limit.
func WithTTL(ttl int) Option {
	return func(a *Agent) {
		if ttl > 0 {
			a.ttl = ttl
		}
	}
}

// WithWindow bounds how long replies are collected.
func WithWindow(window time.Duration) Option {
	return func(a *Agent) {
		if window > 0 {
			a.window = window
		}
	}
}

// WithNameResolution toggles device-info lookups for display names.
func WithNameResolution(enabled bool) Option {
	return func(a *Agent) {
		a.resolveNames = enabled
	}
}

// WithExecutor sets the ECP executor used for name lookups.
func WithExecutor(executor ecp.Executor) Option {
	return func(a *Agent) {
		a.executor = executor
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Agent) {
		a.logger = logger
	}
}

// NewAgent constructs an Agent with the standard SSDP settings.
func NewAgent(opts ...Option) *Agent {
	agent := &Agent{
		searchTarget: DefaultSearchTarget,
		target:       DefaultMulticastAddress,
		ttl:          2,
		window:       DefaultWindow,
		resolveNames: true,
	}
	for _, opt := range opts {
		opt(agent)
	}
	agent.logger = logging.NewComponentLogger(agent.logger, "discovery")
	return agent
}

// NewAgentFromConfig builds an Agent from the [discovery] settings.
func NewAgentFromConfig(cfg *config.Config, executor ecp.Executor, logger *slog.Logger) *Agent {
	return NewAgent(
		WithSearchTarget(cfg.Discovery.SearchTarget),
		WithMulticastAddress(cfg.Discovery.MulticastAddress),
		WithInterface(cfg.Discovery.Interface),
		WithTTL(cfg.Discovery.TTL),
		WithWindow(cfg.DiscoveryTimeout()),
		WithNameResolution(cfg.Discovery.ResolveNames),
		WithExecutor(executor),
		WithLogger(logger),
	)
}

// Discover sends one M-SEARCH and returns every distinct device that replied
// within the window, in arrival order.
func (a *Agent) Discover(ctx context.Context) ([]Candidate, error) {
	logger := logging.WithContext(ctx, a.logger)

	dst, err := net.ResolveUDPAddr("udp4", a.target)
	if err != nil {
		return nil, fmt.Errorf("resolve multicast address %q: %w", a.target, err)
	}
	conn, err := net.ListenPacket("udp4", ":0")
	if err != nil {
		return nil, fmt.Errorf("open discovery socket: %w", err)
	}
	defer conn.Close()

	if err := a.configureMulticast(conn); err != nil {
		return nil, err
	}

	if _, err := conn.WriteTo(buildSearch(a.target, a.searchTarget, a.mx()), dst); err != nil {
		return nil, fmt.Errorf("send m-search to %s: %w", dst, err)
	}
	logger.Debug("m-search sent",
		logging.String("target", dst.String()),
		logging.String("st", a.searchTarget),
		logging.Duration("window", a.window),
	)

	candidates, received, err := a.collect(ctx, conn, logger)
	if err != nil {
		return nil, err
	}
	switch {
	case received == 0:
		return nil, fmt.Errorf("%w within %s", ErrNoResponse, a.window)
	case len(candidates) == 0:
		return nil, fmt.Errorf("%w: %d replies, none usable", ErrMalformedResponse, received)
	}

	for i := range candidates {
		candidates[i].Name = a.resolveName(ctx, candidates[i], logger)
	}
	logger.Info("discovery complete", logging.Int("devices", len(candidates)), logging.Int("replies", received))
	return candidates, nil
}

func (a *Agent) configureMulticast(conn net.PacketConn) error {
	pc := ipv4.NewPacketConn(conn)
	if err := pc.SetMulticastTTL(a.ttl); err != nil {
		return fmt.Errorf("set multicast ttl: %w", err)
	}
	if a.iface == "" {
		return nil
	}
	ifi, err := net.InterfaceByName(a.iface)
	if err != nil {
		return fmt.Errorf("discovery interface %q: %w", a.iface, err)
	}
	if err := pc.SetMulticastInterface(ifi); err != nil {
		return fmt.Errorf("set multicast interface %q: %w", a.iface, err)
	}
	return nil
}

// collect reads replies until the window closes or ctx is cancelled.
func (a *Agent) collect(ctx context.Context, conn net.PacketConn, logger *slog.Logger) ([]Candidate, int, error) {
	deadline := time.Now().Add(a.window)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.SetReadDeadline(time.Now())
		case <-stop:
		}
	}()

	var (
		candidates []Candidate
		received   int
		seenUSN    = make(map[string]bool)
		seenAddr   = make(map[string]bool)
		buf        = make([]byte, maxDatagram)
	)
	for {
		if err := conn.SetReadDeadline(deadline); err != nil {
			return nil, received, fmt.Errorf("set read deadline: %w", err)
		}
		if ctx.Err() != nil {
			return nil, received, ctx.Err()
		}
		n, from, err := conn.ReadFrom(buf)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil && !time.Now().After(deadline) {
				return nil, received, ctxErr
			}
			if errors.Is(err, os.ErrDeadlineExceeded) {
				return candidates, received, nil
			}
			return nil, received, fmt.Errorf("read discovery reply: %w", err)
		}
		received++

		candidate, err := parseReply(buf[:n], a.searchTarget)
		if err != nil {
			logger.Warn("skipping discovery reply", logging.String("from", from.String()), logging.Error(err))
			continue
		}
		if (candidate.USN != "" && seenUSN[candidate.USN]) || seenAddr[candidate.Addr] {
			logger.Debug("duplicate discovery reply", logging.String("addr", candidate.Addr), logging.String("usn", candidate.USN))
			continue
		}
		if candidate.USN != "" {
			seenUSN[candidate.USN] = true
		}
		seenAddr[candidate.Addr] = true
		candidates = append(candidates, candidate)
	}
}

func (a *Agent) resolveName(ctx context.Context, candidate Candidate, logger *slog.Logger) string {
	if !a.resolveNames || a.executor == nil {
		return candidate.fallbackName()
	}
	req, err := ecp.Encode(ecp.DeviceInfo{})
	if err != nil {
		return candidate.fallbackName()
	}
	resp, err := a.executor.Execute(ctx, req, ecp.Device{Addr: candidate.Addr})
	if err != nil {
		logger.Debug("device-info lookup failed", logging.String("addr", candidate.Addr), logging.Error(err))
		return candidate.fallbackName()
	}
	report, err := ecp.ParseDeviceInfo(resp.Body)
	if err != nil {
		logger.Debug("device-info unreadable", logging.String("addr", candidate.Addr), logging.Error(err))
		return candidate.fallbackName()
	}
	if name := report.DisplayName(); name != "" {
		return name
	}
	return candidate.fallbackName()
}

// mx is the maximum response delay advertised to devices, kept inside the
// collection window.
func (a *Agent) mx() int {
	secs := int(a.window / time.Second)
	switch {
	case secs <= 1:
		return 1
	case secs > 5:
		return 5
	default:
		return secs - 1
	}
}

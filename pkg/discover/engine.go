// Package discover drives MAC-address-based host discovery: it
// broadcasts address resolution requests over a capture handle on a
// fixed interval and matches the filtered replies against a registry of
// target hardware addresses, publishing a binding event whenever a
// target resolves or moves to a different protocol address.
package discover

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/macwatch/macwatch/pkg/arp"
	"github.com/macwatch/macwatch/pkg/capture"
	pkgip "github.com/macwatch/macwatch/pkg/ip"
)

const DefaultProbeInterval = 5 * time.Second

// IPContainer is the set of protocol addresses whose replies are
// suppressed.
type IPContainer interface {
	Contains(ip net.IP) (bool, error)
}

type Config struct {
	// Targets are registered before the engine starts; later changes go
	// through AddTarget/RemoveTarget.
	Targets []net.HardwareAddr

	// ProbeSubnet is swept with broadcast requests while any target is
	// unresolved. A nil subnet makes the engine purely passive.
	ProbeSubnet *net.IPNet
	SrcIP       net.IP
	SrcMAC      net.HardwareAddr

	Interval    time.Duration
	Exclude     IPContainer
	EventBuffer int
	Logger      *zap.Logger
}

// Engine owns the target registry. All registry access happens on the
// engine goroutine; external callers submit commands over a channel and
// consume the Events stream.
type Engine struct {
	handle capture.Handle
	reg    *Registry
	cfg    Config
	logger *zap.Logger

	cmdc   chan func(*Registry)
	events chan *Binding
}

func New(handle capture.Handle, cfg Config) *Engine {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultProbeInterval
	}
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = 64
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		handle: handle,
		reg:    NewRegistry(cfg.Targets...),
		cfg:    cfg,
		logger: logger,
		cmdc:   make(chan func(*Registry)),
		events: make(chan *Binding, cfg.EventBuffer),
	}
}

// Events returns the binding event stream. The channel is closed when
// the engine stops.
func (e *Engine) Events() <-chan *Binding {
	return e.events
}

type observation struct {
	record *arp.AddressRecord
	seen   time.Time
}

// Start launches the reader and the broadcaster. Both stop on context
// cancellation; done is closed once both have exited and errc carries
// the non-fatal operational errors of either.
func (e *Engine) Start(ctx context.Context) (done <-chan struct{}, errc <-chan error) {
	observations := make(chan *observation, 100)
	errs := make(chan error, 100)
	finished := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		e.receive(ctx, observations, errs)
	}()
	go func() {
		defer wg.Done()
		e.run(ctx, observations, errs)
	}()
	go func() {
		wg.Wait()
		close(errs)
		close(finished)
	}()
	return finished, errs
}

func (e *Engine) receive(ctx context.Context, observations chan<- *observation, errc chan<- error) {
	defer close(observations)
	dec := arp.NewDecoder()
	for {
		frame, err := e.handle.Next(ctx)
		if err != nil {
			if errors.Is(err, capture.ErrCancelled) || errors.Is(err, capture.ErrClosed) {
				return
			}
			select {
			case errc <- err:
			case <-ctx.Done():
				return
			}
			time.Sleep(5 * time.Millisecond)
			continue
		}
		record, err := dec.Decode(frame.Data)
		if err != nil {
			// stray traffic the installed filter let through; skip the frame
			e.logger.Debug("discover: skipping frame", zap.Error(err))
			continue
		}
		select {
		case observations <- &observation{record: record, seen: frame.Timestamp}:
		case <-ctx.Done():
			return
		}
	}
}

func (e *Engine) run(ctx context.Context, observations <-chan *observation, errc chan<- error) {
	defer close(e.events)
	ticker := time.NewTicker(e.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-e.cmdc:
			cmd(e.reg)
		case obs, ok := <-observations:
			if !ok {
				return
			}
			e.observe(ctx, obs)
		case <-ticker.C:
			e.broadcast(ctx, errc)
		}
	}
}

func (e *Engine) observe(ctx context.Context, obs *observation) {
	// only replies carry a confirmed sender binding
	if obs.record.Operation != arp.OpReply {
		return
	}
	if e.cfg.Exclude != nil {
		if excluded, err := e.cfg.Exclude.Contains(obs.record.SenderIP); err == nil && excluded {
			return
		}
	}
	event := e.reg.Observe(obs.record.SenderHw, obs.record.SenderIP, obs.seen)
	if event == nil {
		return
	}
	select {
	case e.events <- event:
	case <-ctx.Done():
	}
}

func (e *Engine) broadcast(ctx context.Context, errc chan<- error) {
	if e.cfg.ProbeSubnet == nil || !e.reg.HasUnresolved() {
		return
	}
	ipnet := e.cfg.ProbeSubnet
	for addr := ipnet.IP.Mask(ipnet.Mask); ipnet.Contains(addr); pkgip.Inc(addr) {
		if ctx.Err() != nil {
			return
		}
		pkt, err := arp.Request(e.cfg.SrcMAC, e.cfg.SrcIP, addr)
		if err == nil {
			err = e.handle.Write(pkt)
		}
		if err != nil {
			select {
			case errc <- err:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (e *Engine) exec(ctx context.Context, cmd func(*Registry)) error {
	executed := make(chan struct{})
	wrapped := func(r *Registry) {
		cmd(r)
		close(executed)
	}
	select {
	case e.cmdc <- wrapped:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-executed:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// AddTarget registers a hardware address on a running engine.
func (e *Engine) AddTarget(ctx context.Context, mac net.HardwareAddr) error {
	return e.exec(ctx, func(r *Registry) { r.Add(mac) })
}

func (e *Engine) RemoveTarget(ctx context.Context, mac net.HardwareAddr) error {
	return e.exec(ctx, func(r *Registry) { r.Remove(mac) })
}

// Reset moves a target back to unresolved so the next interval probes
// it again.
func (e *Engine) Reset(ctx context.Context, mac net.HardwareAddr) error {
	return e.exec(ctx, func(r *Registry) { r.Reset(mac) })
}

// Snapshot returns a copy of the registry state.
func (e *Engine) Snapshot(ctx context.Context) (map[string]TargetStatus, error) {
	var snapshot map[string]TargetStatus
	err := e.exec(ctx, func(r *Registry) { snapshot = r.Snapshot() })
	return snapshot, err
}

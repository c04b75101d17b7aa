package discover

import (
	"net"
	"time"

	"github.com/google/gopacket/macs"

	pkgip "github.com/macwatch/macwatch/pkg/ip"
)

type State int

const (
	StateUnresolved State = iota
	StateResolved
)

func (s State) String() string {
	if s == StateResolved {
		return "resolved"
	}
	return "unresolved"
}

// TargetStatus is the discovery state of one registered hardware
// address.
type TargetStatus struct {
	State State
	IP    net.IP
	Seen  time.Time
}

// Registry maps target hardware addresses to their discovery state. It
// is not safe for concurrent use: the engine goroutine owns it
// exclusively and external mutation goes through the engine's command
// channel.
type Registry struct {
	targets map[string]*TargetStatus
}

func NewRegistry(targets ...net.HardwareAddr) *Registry {
	r := &Registry{targets: make(map[string]*TargetStatus)}
	for _, mac := range targets {
		r.Add(mac)
	}
	return r
}

// Add registers a hardware address in the unresolved state. It reports
// false if the address is already registered; the existing state is kept.
func (r *Registry) Add(mac net.HardwareAddr) bool {
	key := mac.String()
	if _, ok := r.targets[key]; ok {
		return false
	}
	r.targets[key] = &TargetStatus{}
	return true
}

func (r *Registry) Remove(mac net.HardwareAddr) bool {
	key := mac.String()
	if _, ok := r.targets[key]; !ok {
		return false
	}
	delete(r.targets, key)
	return true
}

// Reset moves a resolved target back to unresolved. It is the only
// transition out of the resolved state.
func (r *Registry) Reset(mac net.HardwareAddr) bool {
	status, ok := r.targets[mac.String()]
	if !ok {
		return false
	}
	*status = TargetStatus{}
	return true
}

func (r *Registry) HasUnresolved() bool {
	for _, status := range r.targets {
		if status.State == StateUnresolved {
			return true
		}
	}
	return false
}

// Observe applies one reply observation. It returns a binding event when
// the sender is a registered target resolving for the first time or
// answering from a different protocol address than before; otherwise nil.
func (r *Registry) Observe(mac net.HardwareAddr, ip net.IP, seen time.Time) *Binding {
	status, ok := r.targets[mac.String()]
	if !ok {
		return nil
	}
	if status.State == StateResolved {
		if status.IP.Equal(ip) {
			status.Seen = seen
			return nil
		}
		status.IP, status.Seen = pkgip.Dup(ip), seen
		return newBinding(mac, ip, seen, true)
	}
	status.State = StateResolved
	status.IP, status.Seen = pkgip.Dup(ip), seen
	return newBinding(mac, ip, seen, false)
}

func (r *Registry) Snapshot() map[string]TargetStatus {
	snapshot := make(map[string]TargetStatus, len(r.targets))
	for key, status := range r.targets {
		copied := *status
		copied.IP = pkgip.Dup(status.IP)
		snapshot[key] = copied
	}
	return snapshot
}

func newBinding(mac net.HardwareAddr, ip net.IP, seen time.Time, changed bool) *Binding {
	var prefix [3]byte
	copy(prefix[:], mac)
	return &Binding{
		MAC:     mac.String(),
		IP:      ip.String(),
		Vendor:  macs.ValidMACPrefixMap[prefix],
		Time:    seen,
		Changed: changed,
	}
}

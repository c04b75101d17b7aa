//go:generate easyjson -output_filename event_easyjson.go event.go

package discover

import (
	"fmt"
	"strings"
	"time"
)

// Binding is one published discovery event: a target hardware address
// bound to the protocol address it answered from. Changed marks a
// re-resolution of an already resolved target.
//easyjson:json
type Binding struct {
	MAC     string    `json:"mac"`
	IP      string    `json:"ip"`
	Vendor  string    `json:"vendor,omitempty"`
	Time    time.Time `json:"time"`
	Changed bool      `json:"changed,omitempty"`
}

func (b *Binding) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%-20s %-18s %s", b.MAC, b.IP, b.Vendor)
	if b.Changed {
		sb.WriteString(" (address changed)")
	}
	return sb.String()
}

func (b *Binding) ID() string {
	return b.MAC
}

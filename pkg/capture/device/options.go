// Package device opens link-layer capture handles on the platform's raw
// capture primitive. One backend per platform family; shared code never
// branches on the platform.
package device

import "time"

type config struct {
	promisc     bool
	pollTimeout time.Duration
}

func defaultConfig() config {
	return config{pollTimeout: 100 * time.Millisecond}
}

type Option func(*config)

// Promiscuous captures all frames seen on the wire, not only the ones
// addressed to the interface.
func Promiscuous() Option {
	return func(c *config) {
		c.promisc = true
	}
}

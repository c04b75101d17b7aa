//go:build !linux && !darwin && !dragonfly && !freebsd && !netbsd && !openbsd
// +build !linux,!darwin,!dragonfly,!freebsd,!netbsd,!openbsd

package device

import (
	"errors"

	"github.com/macwatch/macwatch/pkg/capture"
)

var ErrOS = errors.New("raw capture is not supported on your OS platform")

func Open(iface string, opts ...Option) (capture.Handle, error) {
	return nil, ErrOS
}

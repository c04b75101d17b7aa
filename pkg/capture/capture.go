//go:generate mockgen -destination=mock_capture_test.go -package=capture -source capture.go

package capture

import (
	"context"
	"errors"
	"time"

	"github.com/macwatch/macwatch/pkg/filter"
)

var (
	ErrNoCaptureDeviceAvailable = errors.New("no capture device available")
	ErrProgramTooLarge          = errors.New("filter program exceeds device instruction limit")
	ErrCancelled                = errors.New("capture cancelled")
	ErrClosed                   = errors.New("capture handle is closed")
)

// Frame is one raw link-layer frame together with its capture timestamp.
// It is produced by a Handle and consumed exactly once.
type Frame struct {
	Data      []byte
	Timestamp time.Time
}

// Handle is an open link-layer capture endpoint bound to a network
// interface. Write and Next are safe to call concurrently from different
// goroutines without external locking.
//
// Next never yields a frame rejected by the installed filter program;
// with a kernel backend the rejection happens before the frame is copied
// to user space. Install atomically replaces any previously installed
// program: no frame is ever classified by a mixture of the two.
type Handle interface {
	Install(p filter.Program) error
	Next(ctx context.Context) (*Frame, error)
	Write(pkt []byte) error
	Close() error
}

type Limiter interface {
	// Take should block to make sure that the RPS is met.
	Take() time.Time
}

type rateLimitHandle struct {
	Handle
	limiter Limiter
}

// NewRateLimitHandle wraps a Handle so that outgoing writes are paced by
// the limiter. Reads are not limited.
func NewRateLimitHandle(delegate Handle, limiter Limiter) Handle {
	return &rateLimitHandle{Handle: delegate, limiter: limiter}
}

func (h *rateLimitHandle) Write(pkt []byte) error {
	h.limiter.Take()
	return h.Handle.Write(pkt)
}

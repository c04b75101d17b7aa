package capture

import (
	"context"
	"sync"

	"github.com/macwatch/macwatch/pkg/filter"
)

type userFiltered struct {
	Handle

	mu   sync.RWMutex
	prog filter.Program
}

// NewUserFiltered wraps a Handle so that the installed program is
// evaluated by the software VM against every frame the inner handle
// yields. It makes the filter semantics portable to backends that cannot
// install programs into the kernel: Install never reaches the inner
// handle and Next only returns frames the program accepts.
//
// With no program installed every frame passes, matching the kernel
// behavior of an unfiltered capture socket.
func NewUserFiltered(delegate Handle) Handle {
	return &userFiltered{Handle: delegate}
}

func (h *userFiltered) Install(p filter.Program) error {
	prog := make(filter.Program, len(p))
	copy(prog, p)
	h.mu.Lock()
	h.prog = prog
	h.mu.Unlock()
	return nil
}

func (h *userFiltered) Next(ctx context.Context) (*Frame, error) {
	for {
		frame, err := h.Handle.Next(ctx)
		if err != nil {
			return nil, err
		}
		h.mu.RLock()
		prog := h.prog
		h.mu.RUnlock()
		if len(prog) == 0 {
			return frame, nil
		}
		// A VM error means a malformed program; treat it like the kernel
		// would and drop the frame.
		accepted, err := filter.Run(prog, frame.Data)
		if err != nil || accepted == 0 {
			continue
		}
		if accepted < len(frame.Data) {
			frame.Data = frame.Data[:accepted]
		}
		return frame, nil
	}
}

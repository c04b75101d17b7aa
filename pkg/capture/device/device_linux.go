//go:build linux
// +build linux

package device

import (
	"context"
	"sync"
	"time"

	afp "github.com/google/gopacket/afpacket"
	"github.com/vishvananda/netlink"

	"github.com/macwatch/macwatch/pkg/capture"
	"github.com/macwatch/macwatch/pkg/filter"
)

// Linux caps socket filters at BPF_MAXINSNS instructions.
const maxProgramLen = 4096

type handle struct {
	tp *afp.TPacket

	installMu sync.Mutex

	closeOnce sync.Once
	closed    chan struct{}

	link    netlink.Link
	promisc bool
}

// Assert that the AF_PACKET handle conforms to the capture.Handle interface
var _ capture.Handle = (*handle)(nil)

// Open binds an AF_PACKET socket to the named interface. The poll
// timeout keeps reads short so Next can observe cancellation, and a
// short block timeout hands frames to the reader as they arrive instead
// of batching them per ring block.
func Open(iface string, opts ...Option) (capture.Handle, error) {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}

	tp, err := afp.NewTPacket(
		afp.SocketRaw,
		afp.OptInterface(iface),
		afp.OptPollTimeout(cfg.pollTimeout),
		afp.OptBlockTimeout(time.Millisecond),
	)
	if err != nil {
		return nil, err
	}
	h := &handle{tp: tp, closed: make(chan struct{})}
	if cfg.promisc {
		if h.link, err = netlink.LinkByName(iface); err != nil {
			tp.Close()
			return nil, err
		}
		if err = netlink.SetPromiscOn(h.link); err != nil {
			tp.Close()
			return nil, err
		}
		h.promisc = true
	}
	return h, nil
}

func (h *handle) Install(p filter.Program) error {
	if len(p) > maxProgramLen {
		return capture.ErrProgramTooLarge
	}
	h.installMu.Lock()
	defer h.installMu.Unlock()
	// SO_ATTACH_FILTER swaps the whole program in one setsockopt call;
	// every frame is classified by either the old or the new program.
	return h.tp.SetBPF(p.RawInstructions())
}

func (h *handle) Next(ctx context.Context) (*capture.Frame, error) {
	for {
		select {
		case <-h.closed:
			return nil, capture.ErrClosed
		case <-ctx.Done():
			return nil, capture.ErrCancelled
		default:
		}
		data, ci, err := h.tp.ZeroCopyReadPacketData()
		if err != nil {
			if err == afp.ErrTimeout || isTemporaryError(err) {
				continue
			}
			select {
			case <-h.closed:
				return nil, capture.ErrClosed
			default:
			}
			if isClosedError(err) {
				return nil, capture.ErrClosed
			}
			return nil, err
		}
		// the ring entry is reused after the next read, detach from it
		frame := &capture.Frame{Data: make([]byte, len(data)), Timestamp: ci.Timestamp}
		copy(frame.Data, data)
		return frame, nil
	}
}

func (h *handle) Write(pkt []byte) error {
	select {
	case <-h.closed:
		return capture.ErrClosed
	default:
	}
	return h.tp.WritePacketData(pkt)
}

func (h *handle) Close() error {
	var err error
	h.closeOnce.Do(func() {
		close(h.closed)
		if h.promisc {
			err = netlink.SetPromiscOff(h.link)
		}
		h.tp.Close()
	})
	return err
}

//go:build darwin || dragonfly || freebsd || netbsd || openbsd
// +build darwin dragonfly freebsd netbsd openbsd

package device

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"syscall"
	"unsafe"

	"github.com/google/gopacket/bsdbpf"
	"golang.org/x/sys/unix"

	"github.com/macwatch/macwatch/pkg/capture"
	"github.com/macwatch/macwatch/pkg/filter"
)

// BSD kernels cap filters at BPF_MAXINSNS = 512 instructions.
const maxProgramLen = 512

// size of the numbered /dev/bpfN pool to scan
const devicePoolSize = 256

type handle struct {
	sniffer *bsdbpf.BPFSniffer
	fd      int

	installMu sync.Mutex

	closeOnce sync.Once
	closed    chan struct{}
}

// Assert that the /dev/bpf handle conforms to the capture.Handle interface
var _ capture.Handle = (*handle)(nil)

// Open claims a free node from the /dev/bpfN pool and binds it to the
// named interface. Busy nodes are skipped; when every node is taken the
// pool is exhausted and ErrNoCaptureDeviceAvailable is returned.
func Open(iface string, opts ...Option) (capture.Handle, error) {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}

	timeout := syscall.NsecToTimeval(cfg.pollTimeout.Nanoseconds())
	options := bsdbpf.Options{
		Promisc:          cfg.promisc,
		Immediate:        true,
		PreserveLinkAddr: true,
		Timeout:          &timeout,
	}

	var sniffer *bsdbpf.BPFSniffer
	var err error
	for i := 0; i < devicePoolSize; i++ {
		options.BPFDeviceName = fmt.Sprintf("/dev/bpf%d", i)
		if sniffer, err = bsdbpf.NewBPFSniffer(iface, &options); err == nil {
			break
		}
		// a busy node means the next one may still be free
		if !errors.Is(err, syscall.EBUSY) {
			return nil, err
		}
	}
	if sniffer == nil {
		return nil, capture.ErrNoCaptureDeviceAvailable
	}

	/*
	* BPFSniffer does not provide API to install a BPF filter, moreover it does not allow to access the BPF device fd.
	* Therefore, in order to do not duplicate the code, it requires a bit of dark magic
	 */

	rs := reflect.ValueOf(sniffer).Elem()
	rf := rs.Field(2) // BPFSniffer.fd is the 3rd field
	rf = reflect.NewAt(rf.Type(), unsafe.Pointer(rf.UnsafeAddr())).Elem()
	f := rf.Interface()
	val := reflect.ValueOf(f)
	fd := int(val.Int())

	// Locally generated packets on the interface should not be returned by BPF.
	if err = unix.IoctlSetPointerInt(fd, syscall.BIOCSSEESENT, 0); err != nil {
		sniffer.Close()
		return nil, err
	}

	return &handle{sniffer: sniffer, fd: fd, closed: make(chan struct{})}, nil
}

func (h *handle) Install(p filter.Program) error {
	if len(p) > maxProgramLen {
		return capture.ErrProgramTooLarge
	}
	bpfIns := make([]syscall.BpfInsn, 0, len(p))
	for _, op := range p {
		bpfIns = append(bpfIns, syscall.BpfInsn{
			Code: op.Code,
			Jt:   op.SkipTrue,
			Jf:   op.SkipFalse,
			K:    op.K,
		})
	}
	h.installMu.Lock()
	defer h.installMu.Unlock()
	// BIOCSETF installs the whole program in one ioctl and flushes the
	// store buffer, so no frame sees a half-installed program.
	return syscall.SetBpf(h.fd, bpfIns)
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
		data, ci, err := h.sniffer.ReadPacketData()
		if err != nil {
			if isTemporaryError(err) {
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
		if len(data) == 0 {
			// read timer expired with no frames buffered
			continue
		}
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
	_, err := unix.Write(h.fd, pkt)
	return err
}

func (h *handle) Close() error {
	var err error
	h.closeOnce.Do(func() {
		close(h.closed)
		err = h.sniffer.Close()
	})
	return err
}

package device

import (
	"errors"
	"io"
	"net"
	"strings"
	"syscall"
)

func isTemporaryError(err error) bool {
	if errors.Is(err, syscall.EAGAIN) || errors.Is(err, syscall.EINTR) ||
		errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	nerr, ok := err.(net.Error)
	return ok && nerr.Timeout()
}

func isClosedError(err error) bool {
	switch err {
	case io.EOF, io.ErrUnexpectedEOF, io.ErrClosedPipe, syscall.EBADF:
		return true
	default:
		return strings.Contains(err.Error(), "use of closed file")
	}
}

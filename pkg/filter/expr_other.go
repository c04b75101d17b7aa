//go:build !linux && !darwin && !dragonfly && !freebsd && !netbsd && !openbsd
// +build !linux,!darwin,!dragonfly,!freebsd,!netbsd,!openbsd

package filter

import "errors"

var ErrExpressionUnsupported = errors.New("filter expressions are not supported on your OS platform")

func CompileExpression(expr string, maxPacketLength int) (Program, error) {
	return nil, ErrExpressionUnsupported
}

package capture

import (
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
)

func TestRateLimitHandleWrite(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	pkt := []byte{0x1, 0x2, 0x3}
	handle := NewMockHandle(ctrl)
	limiter := NewMockLimiter(ctrl)
	gomock.InOrder(
		limiter.EXPECT().Take().Return(time.Time{}),
		handle.EXPECT().Write(pkt).Return(nil),
	)

	rw := NewRateLimitHandle(handle, limiter)
	err := rw.Write(pkt)
	require.NoError(t, err)
}

func TestRateLimitHandleWritePacedPerPacket(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	pkt := []byte{0x1}
	handle := NewMockHandle(ctrl)
	limiter := NewMockLimiter(ctrl)
	limiter.EXPECT().Take().Return(time.Time{}).Times(3)
	handle.EXPECT().Write(pkt).Return(nil).Times(3)

	rw := NewRateLimitHandle(handle, limiter)
	for i := 0; i < 3; i++ {
		require.NoError(t, rw.Write(pkt))
	}
}

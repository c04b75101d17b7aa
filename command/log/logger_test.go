package log

import (
	"bytes"
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macwatch/macwatch/pkg/discover"
)

func newBinding(ip net.IP) *discover.Binding {
	return &discover.Binding{
		MAC:    net.HardwareAddr{0x11, 0x22, 0x33, 0x44, 0x55, 0x66}.String(),
		IP:     ip.String(),
		Vendor: "Sunny Industries",
		Time:   time.Date(2022, time.March, 5, 12, 30, 0, 0, time.UTC),
	}
}

func bindingToJSON(t *testing.T, binding *discover.Binding) string {
	t.Helper()
	data, err := binding.MarshalJSON()
	require.NoError(t, err)
	return string(data)
}

func TestJSONLoggerBindings(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		expected string
		bindings []*discover.Binding
	}{
		{
			name:     "emptyBindings",
			expected: "",
			bindings: nil,
		},
		{
			name:     "oneBinding",
			expected: bindingToJSON(t, newBinding(net.IPv4(192, 168, 0, 3).To4())) + "\n",
			bindings: []*discover.Binding{
				newBinding(net.IPv4(192, 168, 0, 3).To4()),
			},
		},
		{
			name: "twoBindings",
			expected: strings.Join([]string{
				bindingToJSON(t, newBinding(net.IPv4(192, 168, 0, 3).To4())),
				bindingToJSON(t, newBinding(net.IPv4(192, 168, 0, 5).To4())),
			}, "\n") + "\n",
			bindings: []*discover.Binding{
				newBinding(net.IPv4(192, 168, 0, 3).To4()),
				newBinding(net.IPv4(192, 168, 0, 5).To4()),
			},
		},
	}

	for _, vtt := range tests {
		tt := vtt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			logger, err := NewLogger(&buf, "watch", JSON())
			require.NoError(t, err)

			bindings := make(chan *discover.Binding, len(tt.bindings))
			for _, binding := range tt.bindings {
				bindings <- binding
			}
			close(bindings)
			logger.LogBindings(context.Background(), bindings)

			assert.Equal(t, tt.expected, buf.String())
		})
	}
}

func TestPlainLoggerBindings(t *testing.T) {
	t.Parallel()

	binding := newBinding(net.IPv4(192, 168, 0, 3).To4())

	var buf bytes.Buffer
	logger, err := NewLogger(&buf, "watch", Plain())
	require.NoError(t, err)

	bindings := make(chan *discover.Binding, 1)
	bindings <- binding
	close(bindings)
	logger.LogBindings(context.Background(), bindings)

	assert.Equal(t, binding.String()+"\n", buf.String())
}

func TestLoggerStopsOnContextCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	logger, err := NewLogger(&buf, "watch")
	require.NoError(t, err)

	done := make(chan interface{})
	go func() {
		defer close(done)
		logger.LogBindings(ctx, make(chan *discover.Binding))
	}()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("logger did not stop on context cancel")
	}
}

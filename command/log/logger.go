package log

import (
	"bufio"
	"context"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/macwatch/macwatch/pkg/discover"
)

type Logger interface {
	Error(err error)
	LogBindings(ctx context.Context, bindings <-chan *discover.Binding)
}

type FlushWriter interface {
	io.Writer
	Flush() error
}

type BindingWriter interface {
	Write(w io.Writer, binding *discover.Binding) error
}

type logger struct {
	zapl  *zap.Logger
	label string

	w             io.Writer
	bw            BindingWriter
	flushInterval time.Duration
}

type LoggerOption func(*logger)

func JSON() LoggerOption {
	return func(l *logger) {
		l.bw = &JSONBindingWriter{}
	}
}

func Plain() LoggerOption {
	return func(l *logger) {
		l.bw = &PlainBindingWriter{}
	}
}

func FlushInterval(interval time.Duration) LoggerOption {
	return func(l *logger) {
		l.flushInterval = interval
	}
}

func NewLogger(w io.Writer, label string, opts ...LoggerOption) (Logger, error) {
	zapl, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}

	l := &logger{
		zapl:          zapl,
		label:         label,
		bw:            &PlainBindingWriter{},
		w:             w,
		flushInterval: 1 * time.Second,
	}
	for _, o := range opts {
		o(l)
	}
	return l, nil
}

func (l *logger) Error(err error) {
	l.zapl.Error(l.label, zap.Error(err))
}

func (l *logger) LogBindings(ctx context.Context, bindings <-chan *discover.Binding) {
	bw := bufio.NewWriter(l.w)
	defer bw.Flush()
	timec := time.After(l.flushInterval)
	for {
		select {
		case <-ctx.Done():
			return
		case binding, ok := <-bindings:
			if !ok {
				return
			}
			if err := l.bw.Write(bw, binding); err != nil {
				l.Error(err)
			}
		case <-timec:
			if err := bw.Flush(); err != nil {
				l.Error(err)
			}
			timec = time.After(l.flushInterval)
		}
	}
}

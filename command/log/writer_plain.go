package log

import (
	"fmt"
	"io"

	"github.com/macwatch/macwatch/pkg/discover"
)

type PlainBindingWriter struct{}

func (*PlainBindingWriter) Write(w io.Writer, binding *discover.Binding) error {
	_, err := fmt.Fprintf(w, "%s\n", binding.String())
	return err
}

package log

import (
	"fmt"
	"io"

	"github.com/macwatch/macwatch/pkg/discover"
)

type JSONBindingWriter struct{}

func (*JSONBindingWriter) Write(w io.Writer, binding *discover.Binding) error {
	data, err := binding.MarshalJSON()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}

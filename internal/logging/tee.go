package logging

import (
	"io"

	"go.uber.org/multierr"
)

// teeWriter writes every log line to all outputs. A failing output does not
// stop the others; the write reports the combined error.
type teeWriter struct {
	outputs []io.Writer
}

func newTeeWriter(outputs ...io.Writer) *teeWriter {
	return &teeWriter{outputs: outputs}
}

func (tw *teeWriter) Write(p []byte) (int, error) {
	var err error
	for _, w := range tw.outputs {
		n, werr := w.Write(p)
		if werr == nil && n < len(p) {
			werr = io.ErrShortWrite
		}
		err = multierr.Append(err, werr)
	}
	if err != nil {
		return 0, err
	}
	return len(p), nil
}

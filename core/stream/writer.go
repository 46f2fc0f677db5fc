package stream

import (
	"bytes"
	"fmt"
	"io"

	"github.com/kilianp07/pvcast/core/model"
)

// ReadyLine is written once before any prediction.
const ReadyLine = "OK"

// DefaultDelimiter separates the values of one prediction line.
const DefaultDelimiter = ","

// Flusher is implemented by sinks that buffer writes.
type Flusher interface {
	Flush() error
}

// Writer streams prediction batches to a sink.
type Writer struct {
	out   io.Writer
	delim string
	buf   bytes.Buffer
	lines int
}

// Option configures a Writer.
type Option func(*Writer)

// WithDelimiter overrides the value delimiter.
func WithDelimiter(d string) Option {
	return func(w *Writer) {
		if d != "" {
			w.delim = d
		}
	}
}

// NewWriter returns a Writer on out.
func NewWriter(out io.Writer, opts ...Option) *Writer {
	w := &Writer{out: out, delim: DefaultDelimiter}
	for _, o := range opts {
		o(w)
	}
	return w
}

// Ready writes the readiness line and flushes it.
func (w *Writer) Ready() error {
	if _, err := w.out.Write([]byte(ReadyLine + "\n")); err != nil {
		return fmt.Errorf("write ready line: %w", err)
	}
	return w.flush()
}

// WriteBatch writes one line per prediction and flushes once. Shapes are
// checked before anything is written, so a batch holding a malformed
// prediction leaves the sink untouched.
func (w *Writer) WriteBatch(preds []model.Prediction) error {
	if err := CheckShapes(preds); err != nil {
		return err
	}
	w.buf.Reset()
	for _, p := range preds {
		for i, v := range p {
			if i > 0 {
				w.buf.WriteString(w.delim)
			}
			w.buf.WriteString(FormatValue(v))
		}
		w.buf.WriteByte('\n')
	}
	if _, err := w.out.Write(w.buf.Bytes()); err != nil {
		return fmt.Errorf("write batch: %w", err)
	}
	w.lines += len(preds)
	return w.flush()
}

// Lines returns the number of prediction lines written so far.
func (w *Writer) Lines() int { return w.lines }

func (w *Writer) flush() error {
	f, ok := w.out.(Flusher)
	if !ok {
		return nil
	}
	if err := f.Flush(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	return nil
}

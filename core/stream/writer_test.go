package stream

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/pvcast/core/model"
)

// recordingSink tracks how many lines were visible at each flush.
type recordingSink struct {
	bytes.Buffer
	flushes   int
	atFlush   []int
	failWrite bool
}

func (s *recordingSink) Write(p []byte) (int, error) {
	if s.failWrite {
		return 0, errors.New("disk full")
	}
	return s.Buffer.Write(p)
}

func (s *recordingSink) Flush() error {
	s.flushes++
	s.atFlush = append(s.atFlush, strings.Count(s.String(), "\n"))
	return nil
}

func constant(v float64, n int) model.Prediction {
	p := make(model.Prediction, n)
	for i := range p {
		p[i] = v
	}
	return p
}

func TestWriter_Protocol(t *testing.T) {
	sink := &recordingSink{}
	w := NewWriter(sink)
	require.NoError(t, w.Ready())
	require.NoError(t, w.WriteBatch([]model.Prediction{constant(0.5, 48), constant(1, 48), constant(0.25, 48)}))
	require.NoError(t, w.WriteBatch([]model.Prediction{constant(0, 48)}))

	lines := strings.Split(strings.TrimSuffix(sink.String(), "\n"), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "OK", lines[0])
	for _, l := range lines[1:] {
		fields := strings.Split(l, ",")
		assert.Len(t, fields, model.Horizon)
	}
	assert.True(t, strings.HasPrefix(lines[1], "0.5,0.5,"))
	assert.True(t, strings.HasPrefix(lines[2], "1.0,1.0,"))
	assert.True(t, strings.HasPrefix(lines[4], "0.0,0.0,"))

	// one flush for the ready line and one per batch
	assert.Equal(t, 3, sink.flushes)
	assert.Equal(t, []int{1, 4, 5}, sink.atFlush)
	assert.Equal(t, 4, w.Lines())
}

func TestWriter_ShapeError(t *testing.T) {
	sink := &recordingSink{}
	w := NewWriter(sink)
	require.NoError(t, w.Ready())
	require.NoError(t, w.WriteBatch([]model.Prediction{constant(0.1, 48)}))

	err := w.WriteBatch([]model.Prediction{constant(0.2, 48), constant(0.3, 47)})
	var se *ShapeError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 1, se.Index)
	assert.Equal(t, 47, se.Len)
	assert.True(t, errors.Is(err, ErrShape))

	// earlier flushed batch survives, nothing of the failing batch is written
	assert.Equal(t, 2, strings.Count(sink.String(), "\n"))
	assert.NotContains(t, sink.String(), "0.3")
	assert.NotContains(t, sink.String(), "0.2")
}

func TestWriter_Delimiter(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, WithDelimiter(";"))
	require.NoError(t, w.WriteBatch([]model.Prediction{constant(2, 48)}))
	assert.Equal(t, strings.Repeat("2.0;", 47)+"2.0\n", buf.String())
}

func TestWriter_WriteError(t *testing.T) {
	w := NewWriter(&recordingSink{failWrite: true})
	assert.Error(t, w.Ready())
	assert.Error(t, w.WriteBatch([]model.Prediction{constant(0, 48)}))
}

func TestFormatValue(t *testing.T) {
	cases := map[float64]string{
		0:                     "0.0",
		1:                     "1.0",
		-3:                    "-3.0",
		0.5:                   "0.5",
		0.1:                   "0.1",
		0.0001:                "0.0001",
		0.00001:               "1e-05",
		123456.789:            "123456.789",
		1e16:                  "1e+16",
		0.5199999809265137:    "0.5199999809265137",
		float64(float32(0.3)): "0.30000001192092896",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatValue(in), "value %v", in)
	}
}

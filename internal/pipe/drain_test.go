package pipe

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

// drainPipe builds a Pipe with only the output read end populated, which is
// all readOutput touches.
func drainPipe(t *testing.T, sink PrintFunc) (*Pipe, *os.File) {
	t.Helper()
	r, w, err := os.Pipe()
	require.NoError(t, err)
	t.Cleanup(func() {
		r.Close()
		w.Close()
	})
	return &Pipe{stdoutR: r, print: sink}, w
}

func TestReadOutputConsumesAvailableBytes(t *testing.T) {
	var collected bytes.Buffer
	p, w := drainPipe(t, func(b []byte) { collected.Write(b) })

	_, err := w.WriteString("hello")
	require.NoError(t, err)

	require.Equal(t, 5, p.readOutput())
	require.Equal(t, "hello", collected.String())
}

func TestReadOutputNeverBlocksOnEmptyPipe(t *testing.T) {
	p, _ := drainPipe(t, nil)
	require.Equal(t, 0, p.readOutput())
}

func TestReadOutputChunksLargePayloads(t *testing.T) {
	var chunks [][]byte
	p, w := drainPipe(t, func(b []byte) {
		chunks = append(chunks, append([]byte(nil), b...))
	})

	payload := bytes.Repeat([]byte{0xAB}, drainChunk*3+17)
	_, err := w.Write(payload)
	require.NoError(t, err)

	require.Equal(t, len(payload), p.readOutput())

	var total int
	for _, c := range chunks {
		require.LessOrEqual(t, len(c), drainChunk)
		total += len(c)
	}
	require.Equal(t, len(payload), total)
}

func TestReadOutputWithNilSinkStillDrains(t *testing.T) {
	p, w := drainPipe(t, nil)

	_, err := w.WriteString("discarded")
	require.NoError(t, err)

	require.Equal(t, 9, p.readOutput())
	require.Equal(t, 0, p.readOutput())
}

func TestReadOutputAfterWriterClosed(t *testing.T) {
	var collected bytes.Buffer
	p, w := drainPipe(t, func(b []byte) { collected.Write(b) })

	_, err := w.WriteString("tail")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	// Buffered bytes remain readable after the writer is gone.
	require.Equal(t, 4, p.readOutput())
	require.Equal(t, "tail", collected.String())
}

func TestReadOutputReleasedSlot(t *testing.T) {
	p := &Pipe{}
	require.Equal(t, 0, p.readOutput())
}

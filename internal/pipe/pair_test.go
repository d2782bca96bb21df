package pipe

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewPairRoundTrip(t *testing.T) {
	p, err := newPair("stdin", 0)
	require.NoError(t, err)
	defer p.close()

	_, err = p.w.WriteString("ping")
	require.NoError(t, err)

	buf := make([]byte, 16)
	n, err := p.r.Read(buf)
	require.NoError(t, err)
	require.Equal(t, "ping", string(buf[:n]))
}

func TestNewPairBufferSizeIsBestEffort(t *testing.T) {
	// Requests beyond fs/pipe-max-size are capped by the kernel, not
	// turned into errors.
	p, err := newPair("stdout", DefaultBufferSize)
	require.NoError(t, err)
	p.close()
}

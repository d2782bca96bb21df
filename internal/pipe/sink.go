package pipe

import "os"

// PrintFunc receives chunks of the child's merged stdout and stderr. Chunk
// boundaries carry no meaning; a chunk may end in the middle of a multibyte
// sequence.
type PrintFunc func(p []byte)

// DefaultPrint writes the child's output to the parent's stdout unchanged.
func DefaultPrint(p []byte) {
	os.Stdout.Write(p)
}

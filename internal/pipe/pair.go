package pipe

import (
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// pair is a connected pipe, created for one of the child's standard streams.
// Exactly one end is handed to the child at launch; the other stays with the
// Pipe. The role only appears in error messages.
type pair struct {
	role string
	r, w *os.File
}

// newPair creates a connected pipe and asks the kernel for the given buffer
// size. The kernel caps the buffer at fs/pipe-max-size, so the resize is
// best-effort and failure is ignored.
func newPair(role string, bufferSize int) (*pair, error) {
	r, w, err := os.Pipe()
	if err != nil {
		return nil, errors.Wrapf(err, "create %s pipe", role)
	}
	if bufferSize > 0 {
		growBuffer(w, bufferSize)
	}
	return &pair{role: role, r: r, w: w}, nil
}

// growBuffer resizes the kernel pipe buffer. Resizing either end resizes the
// whole pipe. Unprivileged processes cannot exceed fs/pipe-max-size and the
// kernel rejects such requests outright instead of capping them, so on
// failure the resize is retried at the published cap.
func growBuffer(f *os.File, size int) {
	rc, err := f.SyscallConn()
	if err != nil {
		return
	}
	_ = rc.Control(func(fd uintptr) {
		if _, err := unix.FcntlInt(fd, unix.F_SETPIPE_SZ, size); err == nil {
			return
		}
		if max, ok := pipeMaxSize(); ok && max < size {
			_, _ = unix.FcntlInt(fd, unix.F_SETPIPE_SZ, max)
		}
	})
}

// pipeMaxSize reads the per-pipe buffer cap for unprivileged processes.
func pipeMaxSize() (int, bool) {
	data, err := os.ReadFile("/proc/sys/fs/pipe-max-size")
	if err != nil {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// close releases both ends. Used on construction failures, where no end has
// been handed off yet.
func (p *pair) close() {
	if p.r != nil {
		p.r.Close()
	}
	if p.w != nil {
		p.w.Close()
	}
}

package pipe

import "golang.org/x/sys/unix"

// drainChunk keeps single reads small so a chatty child never pins the write
// loop for long.
const drainChunk = 256

// readOutput consumes whatever the child has written to its merged
// stdout/stderr so far and forwards it to the print sink. It never waits for
// more data: the available byte count is peeked first and at most that much
// is read. Errors are swallowed; the next write iteration drains again.
//
// Running this between write iterations is what keeps the child alive: if
// the output pipe fills, FFmpeg blocks writing progress lines to stderr and
// stops reading stdin, and both sides deadlock.
func (p *Pipe) readOutput() int {
	f := p.stdoutR
	if f == nil {
		return 0
	}
	rc, err := f.SyscallConn()
	if err != nil {
		return 0
	}

	var avail int
	var ioctlErr error
	if err := rc.Control(func(fd uintptr) {
		avail, ioctlErr = unix.IoctlGetInt(int(fd), unix.TIOCINQ)
	}); err != nil || ioctlErr != nil {
		return 0
	}

	var buf [drainChunk]byte
	total := 0
	for total < avail {
		want := avail - total
		if want > len(buf) {
			want = len(buf)
		}

		var n int
		var readErr error
		if err := rc.Read(func(fd uintptr) bool {
			n, readErr = unix.Read(int(fd), buf[:want])
			return true // never park; we only read what TIOCINQ reported
		}); err != nil {
			break
		}
		if readErr != nil || n <= 0 {
			break
		}

		total += n
		if fn := p.print; fn != nil {
			fn(buf[:n])
		}
	}
	return total
}

// Package pipe runs an external encoder (FFmpeg) as a child process and
// feeds raw input to its stdin while surfacing its merged stdout/stderr.
//
// A Pipe is single-producer: Write and Close must not be called
// concurrently on the same instance. The child runs concurrently as an OS
// process; one monitor goroutine waits on it so writes can fail promptly
// when the child dies.
package pipe

import (
	"os"
	"os/exec"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var (
	// ErrClosed is returned by Write after Close.
	ErrClosed = errors.New("pipe: closed")
	// ErrBroken is returned by Write after an earlier write failed. Only
	// Close is defined on a broken instance.
	ErrBroken = errors.New("pipe: unusable after failed write")
	// ErrWriteTimeout means a single write iteration did not complete
	// within the configured timeout. The write may still be pending in the
	// kernel; the instance must be closed.
	ErrWriteTimeout = errors.New("pipe: write timed out")
	// ErrChildExited means the child terminated while input was still
	// being delivered.
	ErrChildExited = errors.New("pipe: child exited during write")
)

const (
	// DefaultTimeout bounds each write iteration.
	DefaultTimeout = 10 * time.Second
	// DefaultBufferSize is the kernel buffer size requested for both
	// pipes. Large enough that the child is rarely the bottleneck; the
	// kernel caps it at fs/pipe-max-size.
	DefaultBufferSize = 4096 * 4096

	// defaultWriteChunk bounds a single write iteration so the output
	// drain runs at least once per chunk.
	defaultWriteChunk = 64 * 1024
)

// Config configures a Pipe. The zero value is usable; all fields default.
type Config struct {
	// Args is the child's argument list, passed verbatim. For FFmpeg it
	// must include whatever makes it read from stdin ("-i -"); the pipe
	// does not validate this.
	Args []string

	// Timeout bounds each write iteration and the completion wait.
	// Defaults to DefaultTimeout.
	Timeout time.Duration

	// BufferSize is the kernel pipe buffer size hint. Defaults to
	// DefaultBufferSize.
	BufferSize int

	// WriteChunk caps the bytes issued per write iteration. Defaults to
	// 64 KiB.
	WriteChunk int

	// Print receives the child's merged stdout/stderr. Defaults to
	// DefaultPrint; use SetPrintFunc(nil) to discard output.
	Print PrintFunc

	// Logger for lifecycle events. Defaults to the logrus standard logger.
	Logger *logrus.Logger
}

type writeResult struct {
	n   int
	err error
}

// Pipe is one live (or already terminated) child session. It owns the write
// end of the child's stdin and the read end of the child's merged
// stdout/stderr; released slots are set to nil so teardown is idempotent.
type Pipe struct {
	id  string
	log *logrus.Entry

	cmd     *exec.Cmd
	stdinW  *os.File
	stdoutR *os.File

	// writeDone is the completion signal for the single in-flight write.
	// Buffered so a write that completes after a timeout parks its result
	// instead of leaking the goroutine.
	writeDone chan writeResult
	// procDone closes when the monitor observes child exit; waitErr is
	// valid after that.
	procDone chan struct{}
	waitErr  error

	timeout    time.Duration
	writeChunk int
	print      PrintFunc

	broken bool
	closed bool
}

// Create launches ffmpegPath with cfg.Args, wiring the child's stdin to the
// returned Pipe and merging the child's stdout and stderr into the print
// sink. On any failure everything acquired so far is released and only the
// error is returned.
func Create(ffmpegPath string, cfg Config) (*Pipe, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultBufferSize
	}
	if cfg.WriteChunk <= 0 {
		cfg.WriteChunk = defaultWriteChunk
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	printFn := cfg.Print
	if printFn == nil {
		printFn = DefaultPrint
	}

	stdin, err := newPair("stdin", cfg.BufferSize)
	if err != nil {
		return nil, err
	}
	stdout, err := newPair("stdout", cfg.BufferSize)
	if err != nil {
		stdin.close()
		return nil, err
	}

	cmd := exec.Command(ffmpegPath, cfg.Args...)
	cmd.Stdin = stdin.r
	cmd.Stdout = stdout.w
	cmd.Stderr = stdout.w

	if err := cmd.Start(); err != nil {
		stdin.close()
		stdout.close()
		return nil, errors.Wrapf(err, "start %s", ffmpegPath)
	}

	// The child holds its own copies now. Dropping ours is what makes EOF
	// propagate: stdin sees EOF when stdinW closes, and the output pipe
	// drains dry once the child exits.
	stdin.r.Close()
	stdout.w.Close()

	p := &Pipe{
		id:         uuid.NewString()[:8],
		cmd:        cmd,
		stdinW:     stdin.w,
		stdoutR:    stdout.r,
		writeDone:  make(chan writeResult, 1),
		procDone:   make(chan struct{}),
		timeout:    cfg.Timeout,
		writeChunk: cfg.WriteChunk,
		print:      printFn,
	}
	p.log = logger.WithField("pipe", p.id)

	go p.monitor()

	p.log.WithFields(logrus.Fields{
		"path": ffmpegPath,
		"pid":  cmd.Process.Pid,
	}).Debug("child started")
	return p, nil
}

// monitor waits for the child so writes and Close have something to select
// on. waitErr is published before procDone closes.
func (p *Pipe) monitor() {
	p.waitErr = p.cmd.Wait()
	close(p.procDone)
}

// SetPrintFunc replaces the sink receiving the child's output. nil discards
// output; the drain still consumes it so the child never blocks.
func (p *Pipe) SetPrintFunc(fn PrintFunc) {
	p.print = fn
}

// Exited reports whether the child process has exited.
func (p *Pipe) Exited() bool {
	select {
	case <-p.procDone:
		return true
	default:
		return false
	}
}

// Write delivers all of data to the child's stdin, draining the child's
// output between chunks. It blocks until every byte has been accepted by the
// kernel or an iteration fails: each iteration is bounded by the configured
// timeout and fails early if the child exits. After a failure the instance
// accepts no further writes; only Close is defined.
func (p *Pipe) Write(data []byte) error {
	if p.closed {
		return ErrClosed
	}
	if p.broken {
		return ErrBroken
	}

	written := 0
	for written < len(data) {
		chunk := data[written:]
		if len(chunk) > p.writeChunk {
			chunk = chunk[:p.writeChunk]
		}

		// The asynchronous write: issue and wait on its completion
		// alongside child exit. Closing stdinW unblocks a straggler, and
		// the buffered channel keeps its late result from leaking.
		w := p.stdinW
		go func(b []byte) {
			n, err := w.Write(b)
			p.writeDone <- writeResult{n: n, err: err}
		}(chunk)

		select {
		case res := <-p.writeDone:
			if res.err != nil {
				p.broken = true
				return errors.Wrap(res.err, "write to child stdin")
			}
			written += res.n
			p.readOutput()

		case <-p.procDone:
			// The write may have completed in the same instant; take its
			// result if it is already there.
			select {
			case res := <-p.writeDone:
				if res.err == nil {
					written += res.n
					p.readOutput()
					continue
				}
			default:
			}
			p.broken = true
			if p.waitErr != nil {
				return errors.WithMessage(ErrChildExited, p.waitErr.Error())
			}
			return ErrChildExited

		case <-time.After(p.timeout):
			p.broken = true
			return ErrWriteTimeout
		}
	}
	return nil
}

// Close signals EOF on the child's stdin, waits for the child to exit and
// terminates it if the wait fails. Equivalent to CloseTimeout(0, true).
func (p *Pipe) Close() error {
	return p.CloseTimeout(0, true)
}

// CloseTimeout closes the stdin write end, waits up to timeout for the child
// to exit (0 waits forever), kills the child on expiry when terminate is
// set, drains any final output and releases every remaining handle. Safe to
// call after a failed write, and a no-op when called again.
func (p *Pipe) CloseTimeout(timeout time.Duration, terminate bool) error {
	if p.closed {
		return nil
	}
	p.closed = true

	var errs *multierror.Error

	if p.stdinW != nil {
		if err := p.stdinW.Close(); err != nil {
			errs = multierror.Append(errs, errors.Wrap(err, "close stdin"))
		}
		p.stdinW = nil
	}

	if !p.waitChild(timeout) {
		if terminate {
			p.log.Warn("child did not exit in time, terminating")
			if err := p.terminate(); err != nil {
				errs = multierror.Append(errs, errors.Wrap(err, "kill child"))
			}
			<-p.procDone
		} else {
			p.log.Warn("child did not exit in time, leaving it running")
			p.readOutput()
			p.releaseOutputOnExit()
			p.log.Debug("closed")
			return errs.ErrorOrNil()
		}
	}

	p.readOutput()

	if p.stdoutR != nil {
		if err := p.stdoutR.Close(); err != nil {
			errs = multierror.Append(errs, errors.Wrap(err, "close stdout"))
		}
		p.stdoutR = nil
	}

	p.log.Debug("closed")
	return errs.ErrorOrNil()
}

// waitChild waits for child exit, draining the output pipe while it waits.
// A child flushing its last diagnostics into a full output pipe would
// otherwise block there and never exit, turning close into the same
// cross-pipe deadlock the write loop's per-iteration drain prevents.
// timeout 0 means forever.
func (p *Pipe) waitChild(timeout time.Duration) bool {
	var deadline <-chan time.Time
	if timeout > 0 {
		deadline = time.After(timeout)
	}

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for {
		p.readOutput()
		select {
		case <-p.procDone:
			return true
		case <-deadline:
			return false
		case <-ticker.C:
		}
	}
}

// terminate force-kills the child. The child winning the race and exiting
// on its own first is not an error.
func (p *Pipe) terminate() error {
	if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}
	return nil
}

// releaseOutputOnExit hands the output read end to a goroutine that closes
// it once an abandoned child exits, so the child is not killed by SIGPIPE
// on its next diagnostic write. Nothing drains the pipe anymore; a chatty
// child can still fill it and block, which is the bargain for leaving it
// running.
func (p *Pipe) releaseOutputOnExit() {
	out := p.stdoutR
	if out == nil {
		return
	}
	p.stdoutR = nil
	go func() {
		<-p.procDone
		out.Close()
	}()
}

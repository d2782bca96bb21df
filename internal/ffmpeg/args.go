// Package ffmpeg assembles FFmpeg command lines and locates the binary. The
// pipe engine passes arguments to the child verbatim; everything that knows
// FFmpeg flag syntax lives here.
package ffmpeg

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// DefaultPixelFormat is the pixel format assumed when none is given.
const DefaultPixelFormat = "rgb24"

// RawVideoInput describes uncompressed frames delivered on stdin.
type RawVideoInput struct {
	Width       int
	Height      int
	Framerate   int
	PixelFormat string // defaults to rgb24
}

// Args returns the input half of the command line. "-i -" is what makes
// FFmpeg read the frames from stdin.
func (in RawVideoInput) Args() []string {
	pixFmt := in.PixelFormat
	if pixFmt == "" {
		pixFmt = DefaultPixelFormat
	}
	return []string{
		"-c:v", "rawvideo",
		"-f", "rawvideo",
		"-pix_fmt", pixFmt,
		"-s:v", fmt.Sprintf("%dx%d", in.Width, in.Height),
		"-framerate", strconv.Itoa(in.Framerate),
		"-i", "-",
	}
}

// BuildArgs appends the caller's output arguments after the input block.
// Output arguments must include the destination file name; "-y" allows
// overwriting it.
func BuildArgs(in RawVideoInput, outputArgs []string) []string {
	args := in.Args()
	return append(args, outputArgs...)
}

// SplitArgs splits a single argument string on whitespace. Quoting is the
// caller's responsibility; arguments containing spaces must be passed as a
// list instead.
func SplitArgs(s string) []string {
	return strings.Fields(s)
}

// Find resolves the FFmpeg executable. An explicit path wins; otherwise
// PATH is searched.
func Find(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	return exec.LookPath("ffmpeg")
}

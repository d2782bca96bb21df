// A complete runnable example that:
//  1. Launches FFmpeg and feeds it raw RGB24 frames over stdin
//  2. Synthesizes an animated gradient clip (no camera needed)
//  3. Prints FFmpeg's progress output while streaming
//
// Build & run:
//
//	go run ./cmd "-y out.mp4"
//
// The positional argument holds the output half of the FFmpeg command line
// and must include the destination file; the input half (rawvideo from
// stdin) is assembled from the frame flags. Configuration can also come
// from FFMPIPE_* environment variables, with flags taking precedence.
//
// -----------------------------------------------------------------------------
package main

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"ffmpipe/internal/config"
	"ffmpipe/internal/ffmpeg"
	"ffmpipe/internal/frame"
	"ffmpipe/internal/pipe"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatal(err)
	}

	cmd := &cobra.Command{
		Use:   "ffmpipe \"<output args>\"",
		Short: "Stream a synthetic raw video clip into FFmpeg over stdin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cfg, args[0])
		},
		SilenceUsage: true,
	}

	cmd.Flags().StringVar(&cfg.FFmpegPath, "ffmpeg", cfg.FFmpegPath, "path to the ffmpeg executable (default: search PATH)")
	cmd.Flags().IntVar(&cfg.Width, "width", cfg.Width, "frame width in pixels")
	cmd.Flags().IntVar(&cfg.Height, "height", cfg.Height, "frame height in pixels")
	cmd.Flags().IntVar(&cfg.Framerate, "framerate", cfg.Framerate, "frames per second")
	cmd.Flags().DurationVar(&cfg.Duration, "duration", cfg.Duration, "clip duration")
	cmd.Flags().DurationVar(&cfg.WriteTimeout, "write-timeout", cfg.WriteTimeout, "per-write timeout")
	cmd.Flags().DurationVar(&cfg.CloseTimeout, "close-timeout", cfg.CloseTimeout, "time to wait for FFmpeg to finish before killing it")

	if err := cmd.Execute(); err != nil {
		logrus.Fatal(err)
	}
}

func run(cfg config.Config, outputArgs string) error {
	path, err := ffmpeg.Find(cfg.FFmpegPath)
	if err != nil {
		return errors.Wrap(err, "locate ffmpeg")
	}

	input := ffmpeg.RawVideoInput{
		Width:     cfg.Width,
		Height:    cfg.Height,
		Framerate: cfg.Framerate,
	}
	args := ffmpeg.BuildArgs(input, ffmpeg.SplitArgs(outputArgs))

	p, err := pipe.Create(path, pipe.Config{
		Args:    args,
		Timeout: cfg.WriteTimeout,
	})
	if err != nil {
		return err
	}

	gen := frame.NewGenerator(cfg.Width, cfg.Height, cfg.Framerate)
	frames := int(cfg.Duration.Seconds() * float64(cfg.Framerate))

	logrus.Infof("Streaming %d frames of %dx%d RGB24 at %d fps", frames, cfg.Width, cfg.Height, cfg.Framerate)

	for i := 0; i < frames; i++ {
		if err := p.Write(gen.Next()); err != nil {
			p.CloseTimeout(cfg.CloseTimeout, true)
			return errors.Wrapf(err, "write frame %d", i)
		}
	}

	return p.CloseTimeout(cfg.CloseTimeout, true)
}

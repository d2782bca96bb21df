// Package frame synthesizes raw RGB24 test frames for the demo encoder.
package frame

import "math"

// Generator produces an animated cosine gradient, one frame per Next call.
type Generator struct {
	width     int
	height    int
	framerate int
	frame     int
	buf       []byte
}

// NewGenerator returns a generator for width x height RGB24 frames animated
// at the given framerate.
func NewGenerator(width, height, framerate int) *Generator {
	return &Generator{
		width:     width,
		height:    height,
		framerate: framerate,
		buf:       make([]byte, width*height*3),
	}
}

// Size returns the byte size of one frame.
func (g *Generator) Size() int {
	return len(g.buf)
}

// Next renders the next frame. The returned buffer is reused by the
// following call, so it must be consumed before calling Next again.
func (g *Generator) Next() []byte {
	t := float64(g.frame) / float64(g.framerate)
	for y := 0; y < g.height; y++ {
		v := float64(y) / float64(g.height)
		for x := 0; x < g.width; x++ {
			u := float64(x) / float64(g.width)
			i := (y*g.width + x) * 3
			g.buf[i] = channel(t + u)
			g.buf[i+1] = channel(t + v + 2)
			g.buf[i+2] = channel(t + u + 4)
		}
	}
	g.frame++
	return g.buf
}

func channel(phase float64) byte {
	return byte((0.5 + 0.5*math.Cos(phase)) * 255)
}

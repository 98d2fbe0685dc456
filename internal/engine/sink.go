package engine

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"image"
	"io"
)

// ManifestSink writes each frame state as one JSON line.
type ManifestSink struct {
	w   *bufio.Writer
	enc *json.Encoder
	c   io.Closer
}

// NewManifestSink writes to w. If w is an io.Closer it is closed by Close.
func NewManifestSink(w io.Writer) *ManifestSink {
	bw := bufio.NewWriter(w)
	s := &ManifestSink{w: bw, enc: json.NewEncoder(bw)}
	if c, ok := w.(io.Closer); ok {
		s.c = c
	}
	return s
}

func (s *ManifestSink) WriteFrame(_ context.Context, f Frame) error {
	return s.enc.Encode(f.State)
}

func (s *ManifestSink) Close() error {
	err := s.w.Flush()
	if s.c != nil {
		err = errors.Join(err, s.c.Close())
	}
	return err
}

// FrameEncoder accepts raw frames in order, e.g. an ffmpeg process.
type FrameEncoder interface {
	Encode(img *image.RGBA) error
	Close() error
}

// RasterSink feeds rasterized frames to an encoder. Release, if set, gets
// every image back once it has been written.
type RasterSink struct {
	Encoder FrameEncoder
	Release func(*image.RGBA)
}

func (s *RasterSink) WriteFrame(ctx context.Context, f Frame) error {
	if f.Image == nil {
		return errors.New("raster sink: frame was not rasterized")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.Encoder.Encode(f.Image)
	if s.Release != nil {
		s.Release(f.Image)
	}
	return err
}

func (s *RasterSink) Close() error {
	return s.Encoder.Close()
}

// MultiSink fans every frame out to several sinks in order.
type MultiSink []Sink

func (m MultiSink) WriteFrame(ctx context.Context, f Frame) error {
	for _, s := range m {
		if err := s.WriteFrame(ctx, f); err != nil {
			return err
		}
	}
	return nil
}

func (m MultiSink) Close() error {
	var errs []error
	for _, s := range m {
		errs = append(errs, s.Close())
	}
	return errors.Join(errs...)
}

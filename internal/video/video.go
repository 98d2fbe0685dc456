// Package video streams rendered frames into ffmpeg and mixes the audio cues
// of a composition into the result.
package video

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"io"
	"os/exec"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// Options describes one encode.
type Options struct {
	FFmpeg  string // binary, "ffmpeg" when empty
	Width   int
	Height  int
	FPS     float64
	Frames  int // output length
	From    int // composition frame the output starts at
	Encoder string
	Quality int
	Output  string
	Audio   []AudioInput
}

func (o Options) binary() string {
	if o.FFmpeg == "" {
		return "ffmpeg"
	}
	return o.FFmpeg
}

// Args builds the ffmpeg command line: raw RGBA frames on stdin, one input
// per audio cue.
func Args(o Options) []string {
	fps := strconv.FormatFloat(o.FPS, 'f', -1, 64)
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", o.Width, o.Height),
		"-framerate", fps,
		"-i", "-",
	}
	for _, in := range o.Audio {
		args = append(args, "-i", in.Path)
	}
	if graph := AudioGraph(o.Audio, o.FPS, 1, o.From); graph != "" {
		args = append(args, "-filter_complex", graph, "-map", "0:v", "-map", "[aout]", "-c:a", "aac", "-b:a", "192k")
	}

	encoder := o.Encoder
	if encoder == "" {
		encoder = "libx264"
	}
	args = append(args, "-c:v", encoder, "-pix_fmt", "yuv420p", "-r", fps)
	args = append(args, qualityArgs(encoder, o.Quality)...)
	args = append(args,
		"-t", fmt.Sprintf("%.6f", seconds(float64(o.Frames), o.FPS)),
		"-movflags", "+faststart",
		o.Output,
	)
	return args
}

// qualityArgs maps one quality number onto each encoder's own knob.
func qualityArgs(encoder string, quality int) []string {
	switch encoder {
	case "h264_videotoolbox":
		// No constant-quality mode: quality 75 means 7.5 Mbit/s.
		return []string{"-b:v", fmt.Sprintf("%dk", quality*100)}
	case "h264_nvenc":
		return []string{"-cq", strconv.Itoa(quality)}
	case "h264_qsv":
		return []string{"-global_quality", strconv.Itoa(quality)}
	default:
		return []string{"-crf", strconv.Itoa(quality), "-preset", "medium"}
	}
}

// Encoder is a running ffmpeg process fed one frame at a time.
type Encoder struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr bytes.Buffer
	size   image.Point
	frames int
}

// Start launches ffmpeg. The process is killed if ctx is cancelled.
func Start(ctx context.Context, o Options) (*Encoder, error) {
	if o.Width <= 0 || o.Height <= 0 || o.FPS <= 0 || o.Output == "" {
		return nil, errors.New("video: width, height, fps and output are required")
	}
	args := Args(o)
	e := &Encoder{size: image.Pt(o.Width, o.Height)}
	e.cmd = exec.CommandContext(ctx, o.binary(), args...)
	e.cmd.Stderr = &e.stderr

	stdin, err := e.cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe error: %w", err)
	}
	e.stdin = stdin
	if err := e.cmd.Start(); err != nil {
		return nil, fmt.Errorf("ffmpeg start error: %w", err)
	}
	log.Debug().Str("ffmpeg", o.binary()).Strs("args", args).Msg("encoder started")
	return e, nil
}

// Encode writes one frame. Frames must match the configured size.
func (e *Encoder) Encode(img *image.RGBA) error {
	if img.Rect.Size() != e.size {
		return fmt.Errorf("video: frame is %v, encoder expects %v", img.Rect.Size(), e.size)
	}
	if err := writeRawRGBA(e.stdin, img); err != nil {
		return fmt.Errorf("write raw error: %w%s", err, e.tail())
	}
	e.frames++
	return nil
}

// Close ends the stream and waits for ffmpeg to finish the file.
func (e *Encoder) Close() error {
	closeErr := e.stdin.Close()
	if err := e.cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg wait error: %w%s", err, e.tail())
	}
	log.Debug().Int("frames", e.frames).Msg("encoder finished")
	return closeErr
}

func (e *Encoder) tail() string {
	out := strings.TrimSpace(e.stderr.String())
	if out == "" {
		return ""
	}
	if len(out) > 2000 {
		out = out[len(out)-2000:]
	}
	return ", output: " + out
}

// writeRawRGBA writes packed rows, copying only when the image has padding
// or an offset origin.
func writeRawRGBA(w io.Writer, img *image.RGBA) error {
	b := img.Bounds()
	if img.Stride != b.Dx()*4 || b.Min != (image.Point{}) {
		packed := image.NewRGBA(image.Rectangle{Max: b.Size()})
		draw.Draw(packed, packed.Rect, img, b.Min, draw.Src)
		img = packed
	}
	_, err := w.Write(img.Pix[:b.Dx()*b.Dy()*4])
	return err
}

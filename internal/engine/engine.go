// Package engine drives a composition frame by frame. Frames are evaluated on
// a worker pool in any order and handed to a Sink strictly in frame order.
package engine

import (
	"context"
	"errors"
	"fmt"
	"image"
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/ivlev/framereel/internal/composition"
	"github.com/ivlev/framereel/internal/scene"
	"github.com/ivlev/framereel/internal/timeline"
)

// ErrInvalidRange is returned for frame ranges outside the composition.
var ErrInvalidRange = errors.New("invalid frame range")

// Layer is one active scene at a frame. Layers are ordered back to front.
type Layer struct {
	SceneID    string        `json:"scene"`
	ClipIndex  int           `json:"clip"`
	LocalFrame int           `json:"local"`
	Props      scene.Props   `json:"props,omitempty"`
	Shapes     []scene.Shape `json:"shapes,omitempty"`
}

// Cue is an audible audio cue at a frame.
type Cue struct {
	Source   string  `json:"source"`
	Index    int     `json:"index"`
	CueFrame int     `json:"cueFrame"`
	Volume   float64 `json:"volume"`
}

// FrameState is everything needed to draw and mix one output frame.
type FrameState struct {
	Frame  int     `json:"frame"`
	Layers []Layer `json:"layers"`
	Audio  []Cue   `json:"audio,omitempty"`
}

// Evaluate computes the state of c at frame. It is pure: the same composition
// and frame always give the same state.
func Evaluate(c *composition.Composition, frame int) FrameState {
	fs := FrameState{Frame: frame, Layers: []Layer{}}
	for _, a := range c.Timeline.ActiveAt(frame) {
		props, shapes := a.Clip.Scene.At(a.LocalFrame)
		fs.Layers = append(fs.Layers, Layer{
			SceneID:    a.Clip.Scene.ID(),
			ClipIndex:  a.Index,
			LocalFrame: a.LocalFrame,
			Props:      props,
			Shapes:     shapes,
		})
	}
	for _, cs := range c.Timeline.AudioAt(frame) {
		fs.Audio = append(fs.Audio, cueOf(cs))
	}
	return fs
}

func cueOf(cs timeline.CueState) Cue {
	return Cue{Source: cs.Cue.Source, Index: cs.Index, CueFrame: cs.CueFrame, Volume: cs.Volume}
}

// FrameRange is the half-open range [From, To).
type FrameRange struct {
	From, To int
}

// Len returns the number of frames in the range.
func (r FrameRange) Len() int { return r.To - r.From }

// FullRange covers the whole composition.
func FullRange(c *composition.Composition) FrameRange {
	return FrameRange{From: 0, To: c.DurationInFrames}
}

func (r FrameRange) check(duration int) error {
	if r.From < 0 || r.To > duration || r.From > r.To {
		return fmt.Errorf("%w: [%d, %d) outside [0, %d)", ErrInvalidRange, r.From, r.To, duration)
	}
	return nil
}

// Frame is an evaluated frame on its way to the sink. Image is set only when
// the project has a rasterizer.
type Frame struct {
	State FrameState
	Image *image.RGBA
}

// Rasterizer draws a frame state. It is called concurrently.
type Rasterizer interface {
	Rasterize(fs FrameState) (*image.RGBA, error)
}

// Sink consumes frames in frame order.
type Sink interface {
	WriteFrame(ctx context.Context, f Frame) error
	Close() error
}

// Stats summarises a finished run.
type Stats struct {
	Frames  int
	Elapsed time.Duration
}

// FPS is the effective throughput of the run.
func (s Stats) FPS() float64 {
	if s.Elapsed <= 0 {
		return 0
	}
	return float64(s.Frames) / s.Elapsed.Seconds()
}

// Project renders one composition into a sink.
type Project struct {
	Composition *composition.Composition
	Sink        Sink
	Rasterizer  Rasterizer
	Workers     int
	// Progress, if set, is called from the delivering goroutine after each
	// frame reaches the sink.
	Progress func(done, total int)
}

// NewProject creates a project with one worker per CPU.
func NewProject(c *composition.Composition, sink Sink) *Project {
	return &Project{
		Composition: c,
		Sink:        sink,
		Workers:     runtime.NumCPU(),
	}
}

// Run evaluates every frame in r and delivers it to the sink in order. The
// first error from a worker or the sink cancels the rest of the run. The sink
// is not closed.
func (p *Project) Run(ctx context.Context, r FrameRange) (Stats, error) {
	if p.Composition == nil || p.Sink == nil {
		return Stats{}, errors.New("project needs a composition and a sink")
	}
	if err := r.check(p.Composition.DurationInFrames); err != nil {
		return Stats{}, err
	}

	workers := p.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > r.Len() && r.Len() > 0 {
		workers = r.Len()
	}

	start := time.Now()
	log.Info().
		Str("composition", p.Composition.Name).
		Int("from", r.From).
		Int("to", r.To).
		Int("workers", workers).
		Msg("render started")

	g, ctx := errgroup.WithContext(ctx)

	// window bounds the frames that are evaluated but not yet delivered.
	window := make(chan struct{}, workers*2)
	jobs := make(chan int)
	results := make(chan Frame, workers)

	g.Go(func() error {
		defer close(jobs)
		for f := r.From; f < r.To; f++ {
			select {
			case window <- struct{}{}:
			case <-ctx.Done():
				return ctx.Err()
			}
			select {
			case jobs <- f:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	var running sync.WaitGroup
	workersDone := make(chan struct{})
	for w := 0; w < workers; w++ {
		running.Add(1)
		g.Go(func() error {
			defer running.Done()
			for f := range jobs {
				frame, err := p.evaluate(f)
				if err != nil {
					return err
				}
				select {
				case results <- frame:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			return nil
		})
	}
	go func() {
		running.Wait()
		close(workersDone)
	}()

	g.Go(func() error {
		pending := make(map[int]Frame)
		next := r.From
		for next < r.To {
			select {
			case frame := <-results:
				pending[frame.State.Frame] = frame
			case <-workersDone:
				// Workers are gone. Drain what is buffered, then stop if
				// frames are still missing.
				for {
					select {
					case frame := <-results:
						pending[frame.State.Frame] = frame
						continue
					default:
					}
					break
				}
				if _, ok := pending[next]; !ok {
					return ctx.Err()
				}
			case <-ctx.Done():
				return ctx.Err()
			}
			for {
				frame, ok := pending[next]
				if !ok {
					break
				}
				delete(pending, next)
				if err := p.Sink.WriteFrame(ctx, frame); err != nil {
					return fmt.Errorf("frame %d: %w", next, err)
				}
				<-window
				next++
				if p.Progress != nil {
					p.Progress(next-r.From, r.Len())
				}
			}
		}
		return nil
	})

	err := g.Wait()
	stats := Stats{Frames: r.Len(), Elapsed: time.Since(start)}
	if err != nil {
		log.Error().Err(err).Str("composition", p.Composition.Name).Msg("render failed")
		return stats, err
	}
	log.Info().
		Str("composition", p.Composition.Name).
		Int("frames", stats.Frames).
		Dur("elapsed", stats.Elapsed).
		Float64("fps", stats.FPS()).
		Msg("render finished")
	return stats, nil
}

func (p *Project) evaluate(f int) (Frame, error) {
	frame := Frame{State: Evaluate(p.Composition, f)}
	if p.Rasterizer != nil {
		img, err := p.Rasterizer.Rasterize(frame.State)
		if err != nil {
			return Frame{}, fmt.Errorf("frame %d: %w", f, err)
		}
		frame.Image = img
	}
	return frame, nil
}

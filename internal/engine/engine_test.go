package engine

import (
	"bytes"
	"context"
	"errors"
	"image"
	"sync"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/framereel/internal/composition"
	"github.com/ivlev/framereel/internal/director"
)

const goldenYAML = `
name: Golden
duration: 3
fps: 30
width: 64
height: 36
scenes:
  - id: a
    duration: 3
    properties:
      - name: op
        frames: [0, 10]
        values: [0, 1]
    elements:
      - kind: rect
        x: 0
        y: 0
        w: 8
        h: 4
        color: "#ff0000"
        opacity: $op
audio:
  - source: music.mp3
    volume: 0.5
`

const layeredYAML = `
name: Layered
duration: 200
fps: 30
width: 64
height: 36
scenes:
  - id: back
    start: 0
    duration: 120
    properties:
      - {name: x, frames: [0, 128], values: [0, 128]}
  - id: front
    start: 100
    duration: 100
    properties:
      - {name: x, kind: const, value: 7}
`

const proceduralYAML = `
name: Procedural
duration: 90
fps: 30
width: 64
height: 36
overlap: 10
scenes:
  - id: sea
    duration: 50
    properties:
      - {name: swell, kind: wave, wave: sin, freq: 0.07, amp: 12, offset: 18}
      - {name: grain, kind: noise, seed: 3, rate: 0.4, scale: 0.5}
      - {name: y, kind: sum, of: [swell, grain]}
      - {name: fade, frames: [0, 20], values: [0, 1], easing: ease-in-out}
    elements:
      - {kind: rect, x: 0, y: $y, w: 64, h: 4, color: "#0040ff", opacity: $fade}
  - id: sky
    start: auto
    duration: 50
    properties:
      - {name: glow, kind: wave, wave: cos, freq: 0.11, amp: 0.4, offset: 0.5, repeat: {count: 3, valueStep: 0.1}}
      - {name: jitter, kind: noise, seed: 9, rate: 1.3, repeat: {count: 3}}
    elements:
      - {kind: circle, x: 32, y: 12, r: 6, color: "#ffcc00", opacity: $glow.0}
`

func compose(t *testing.T, src string) *composition.Composition {
	t.Helper()
	s, err := director.ParseScenario([]byte(src))
	require.NoError(t, err)
	c, err := director.Build(s)
	require.NoError(t, err)
	return c
}

// recorder keeps delivered frame numbers.
type recorder struct {
	mu     sync.Mutex
	frames []int
	failAt int
	closed bool
}

func (r *recorder) WriteFrame(_ context.Context, f Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAt > 0 && f.State.Frame == r.failAt {
		return errors.New("disk full")
	}
	r.frames = append(r.frames, f.State.Frame)
	return nil
}

func (r *recorder) Close() error { r.closed = true; return nil }

// stateRecorder keeps delivered frame states.
type stateRecorder struct {
	states []FrameState
}

func (r *stateRecorder) WriteFrame(_ context.Context, f Frame) error {
	r.states = append(r.states, f.State)
	return nil
}

func (r *stateRecorder) Close() error { return nil }

// jitter sleeps a frame-dependent amount so workers finish out of order.
type jitter struct {
	failAt int
}

func (j jitter) Rasterize(fs FrameState) (*image.RGBA, error) {
	if j.failAt > 0 && fs.Frame == j.failAt {
		return nil, errors.New("boom")
	}
	time.Sleep(time.Duration((7*fs.Frame)%5) * time.Millisecond)
	return image.NewRGBA(image.Rect(0, 0, 1, 1)), nil
}

func TestEvaluate(t *testing.T) {
	c := compose(t, layeredYAML)

	fs := Evaluate(c, 110)
	require.Len(t, fs.Layers, 2)
	assert.Equal(t, "back", fs.Layers[0].SceneID)
	assert.Equal(t, 110.0, fs.Layers[0].Props.Get("x"))
	assert.Equal(t, "front", fs.Layers[1].SceneID)
	assert.Equal(t, 1, fs.Layers[1].ClipIndex)
	assert.Equal(t, 10, fs.Layers[1].LocalFrame)

	assert.Equal(t, fs, Evaluate(c, 110))
	assert.Empty(t, Evaluate(c, 200).Layers)
	assert.Empty(t, Evaluate(c, -1).Layers)
}

func TestRunDeliversInOrder(t *testing.T) {
	c := compose(t, layeredYAML)
	rec := &recorder{}
	p := NewProject(c, rec)
	p.Workers = 8
	p.Rasterizer = jitter{}

	var progress []int
	p.Progress = func(done, total int) {
		assert.Equal(t, 200, total)
		progress = append(progress, done)
	}

	stats, err := p.Run(context.Background(), FullRange(c))
	require.NoError(t, err)
	assert.Equal(t, 200, stats.Frames)

	want := make([]int, 200)
	for i := range want {
		want[i] = i
	}
	assert.Equal(t, want, rec.frames)
	assert.Len(t, progress, 200)
	assert.Equal(t, 200, progress[len(progress)-1])
	assert.False(t, rec.closed, "Run must leave the sink open")
}

func TestRunMatchesSequentialEvaluation(t *testing.T) {
	c := compose(t, proceduralYAML)
	rec := &stateRecorder{}
	p := NewProject(c, rec)
	p.Workers = 6
	p.Rasterizer = jitter{}

	_, err := p.Run(context.Background(), FullRange(c))
	require.NoError(t, err)
	require.Len(t, rec.states, c.DurationInFrames)
	for f, got := range rec.states {
		assert.Equal(t, Evaluate(c, f), got, "frame %d", f)
	}
	// the overlap frames carry both scenes
	assert.Len(t, rec.states[45].Layers, 2)
}

func TestRunSubRange(t *testing.T) {
	c := compose(t, layeredYAML)
	rec := &recorder{}
	p := NewProject(c, rec)
	p.Workers = 3

	_, err := p.Run(context.Background(), FrameRange{From: 95, To: 105})
	require.NoError(t, err)
	assert.Equal(t, []int{95, 96, 97, 98, 99, 100, 101, 102, 103, 104}, rec.frames)
}

func TestRunErrors(t *testing.T) {
	c := compose(t, layeredYAML)

	t.Run("rasterizer", func(t *testing.T) {
		rec := &recorder{}
		p := NewProject(c, rec)
		p.Workers = 4
		p.Rasterizer = jitter{failAt: 50}
		_, err := p.Run(context.Background(), FullRange(c))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "boom")
		assert.Less(t, len(rec.frames), 200)
		for i, f := range rec.frames {
			assert.Equal(t, i, f)
		}
	})

	t.Run("sink", func(t *testing.T) {
		rec := &recorder{failAt: 20}
		p := NewProject(c, rec)
		p.Workers = 4
		_, err := p.Run(context.Background(), FullRange(c))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "disk full")
		assert.Len(t, rec.frames, 20)
	})

	t.Run("range", func(t *testing.T) {
		p := NewProject(c, &recorder{})
		_, err := p.Run(context.Background(), FrameRange{From: 10, To: 201})
		assert.ErrorIs(t, err, ErrInvalidRange)
		_, err = p.Run(context.Background(), FrameRange{From: 10, To: 5})
		assert.ErrorIs(t, err, ErrInvalidRange)
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		p := NewProject(c, &recorder{})
		_, err := p.Run(ctx, FullRange(c))
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestRasterSinkNeedsImage(t *testing.T) {
	s := &RasterSink{}
	err := s.WriteFrame(context.Background(), Frame{})
	assert.Error(t, err)
}

func TestManifestGolden(t *testing.T) {
	c := compose(t, goldenYAML)
	var buf bytes.Buffer
	sink := NewManifestSink(&buf)
	p := NewProject(c, sink)
	p.Workers = 2

	_, err := p.Run(context.Background(), FullRange(c))
	require.NoError(t, err)
	require.NoError(t, sink.Close())

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "manifest", buf.Bytes())
}

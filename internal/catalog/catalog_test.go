package catalog

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/framereel/internal/composition"
)

func load(t *testing.T) *composition.Registry {
	t.Helper()
	reg, err := Load()
	require.NoError(t, err)
	return reg
}

func TestRegistry(t *testing.T) {
	reg := load(t)
	assert.Equal(t, []string{"Trailer", "LaunchFilm", "BrandFilm", "ChaosFilm", "TechIntro"}, reg.Names())

	for _, name := range reg.Names() {
		c, err := reg.Get(name)
		require.NoError(t, err)
		assert.Equal(t, 30.0, c.FPS, name)
		assert.Equal(t, 1920, c.Width, name)
		assert.Equal(t, 1080, c.Height, name)
	}

	c, err := reg.Get("TechIntro")
	require.NoError(t, err)
	assert.Equal(t, 480, c.DurationInFrames)

	_, err = reg.Get("brandfilm")
	assert.ErrorIs(t, err, composition.ErrUnknownComposition)
}

func TestBrandFilmEndToEnd(t *testing.T) {
	c, err := load(t).Get("BrandFilm")
	require.NoError(t, err)
	assert.Equal(t, 600, c.DurationInFrames)
	assert.Equal(t, 20.0, c.Seconds())

	first := c.Timeline.ActiveAt(0)
	require.Len(t, first, 1)
	assert.Equal(t, "minds", first[0].Clip.Scene.ID())
	assert.Equal(t, 0, first[0].LocalFrame)

	last := c.Timeline.ActiveAt(599)
	require.Len(t, last, 1)
	assert.Equal(t, "brand", last[0].Clip.Scene.ID())
	assert.Equal(t, 119, last[0].LocalFrame)

	assert.Empty(t, c.Timeline.ActiveAt(600))

	cues := c.Timeline.AudioAt(50)
	require.Len(t, cues, 2)
	assert.InDelta(t, 0.18, cues[0].Volume, 1e-12)
	assert.Equal(t, 0, cues[1].CueFrame)
	assert.Equal(t, 0.9, cues[1].Volume)

	cues = c.Timeline.AudioAt(599)
	require.Len(t, cues, 6)
	assert.InDelta(t, 0.18/31, cues[0].Volume, 1e-12)
	assert.Equal(t, 99, cues[5].CueFrame)
}

func TestBrandFilmMerge(t *testing.T) {
	c, err := load(t).Get("BrandFilm")
	require.NoError(t, err)

	active := c.Timeline.ActiveAt(360 + 100)
	require.Len(t, active, 1)
	props := active[0].Clip.Scene.PropertiesAt(active[0].LocalFrame)
	for _, name := range []string{"nodex.0", "nodex.1", "nodex.2"} {
		assert.InDelta(t, 960, props.Get(name), 1e-9, name)
	}
	assert.InDelta(t, 540, props.Get("nodey"), 1e-9)

	props = active[0].Clip.Scene.PropertiesAt(0)
	assert.InDelta(t, 560, props.Get("nodex.0"), 1e-9)
	assert.InDelta(t, 1360, props.Get("nodex.2"), 1e-9)
}

func TestLaunchFilmOverlap(t *testing.T) {
	c, err := load(t).Get("LaunchFilm")
	require.NoError(t, err)

	var starts []int
	for _, clip := range c.Timeline.Clips() {
		starts = append(starts, clip.Start)
	}
	assert.Equal(t, []int{0, 160, 340, 540}, starts)

	active := c.Timeline.ActiveAt(170)
	require.Len(t, active, 2)
	assert.Equal(t, "drops", active[0].Clip.Scene.ID())
	assert.Equal(t, "waves", active[1].Clip.Scene.ID())
	assert.Equal(t, 10, active[1].LocalFrame)

	active = c.Timeline.ActiveAt(599)
	require.Len(t, active, 1)
	assert.Equal(t, "closing", active[0].Clip.Scene.ID())
	assert.Equal(t, 59, active[0].LocalFrame)
}

func TestTrailerEndCardLayers(t *testing.T) {
	c, err := load(t).Get("Trailer")
	require.NoError(t, err)

	active := c.Timeline.ActiveAt(590)
	require.Len(t, active, 2)
	assert.Equal(t, "endcard", active[0].Clip.Scene.ID())
	assert.Equal(t, "endcode", active[1].Clip.Scene.ID())

	_, shapes := active[1].Clip.Scene.At(active[1].LocalFrame)
	require.Len(t, shapes, 1)
	assert.Equal(t, "qr", shapes[0].Kind)
	assert.Equal(t, "https://brainpuddle.ai", shapes[0].Text("data", ""))
}

func TestTechIntroFromCUE(t *testing.T) {
	s, err := Scenario("techintro.cue")
	require.NoError(t, err)
	require.Len(t, s.Scenes, 5)
	// 12 bars expanded by comprehension, plus fill, codes and fragments.
	assert.Len(t, s.Scenes[0].Elements, 1+12+6+3)
	assert.Equal(t, "$barY11", string(s.Scenes[0].Elements[12].Attrs["y"]))
}

// Every frame of every production evaluates to finite numbers.
func TestAllFramesFinite(t *testing.T) {
	reg := load(t)
	for _, name := range reg.Names() {
		c, err := reg.Get(name)
		require.NoError(t, err)
		for f := 0; f < c.DurationInFrames; f++ {
			for _, a := range c.Timeline.ActiveAt(f) {
				props, shapes := a.Clip.Scene.At(a.LocalFrame)
				for k, v := range props {
					if math.IsNaN(v) || math.IsInf(v, 0) {
						t.Fatalf("%s frame %d: %s.%s = %v", name, f, a.Clip.Scene.ID(), k, v)
					}
				}
				for _, sh := range shapes {
					for k, v := range sh.Num {
						if math.IsNaN(v) || math.IsInf(v, 0) {
							t.Fatalf("%s frame %d: %s %s = %v", name, f, sh.Kind, k, v)
						}
					}
				}
			}
		}
	}
}

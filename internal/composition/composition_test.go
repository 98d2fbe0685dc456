package composition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/framereel/internal/timeline"
)

func mustTimeline(t *testing.T, frames int) *timeline.Timeline {
	t.Helper()
	tl, err := timeline.New(frames, nil, nil)
	require.NoError(t, err)
	return tl
}

func TestNewValidation(t *testing.T) {
	tl := mustTimeline(t, 600)

	c, err := New("BrandFilm", 600, 30, 1920, 1080, tl)
	require.NoError(t, err)
	assert.Equal(t, 20.0, c.Seconds())
	assert.Equal(t, 45, c.FrameAt(1.5))

	tests := []struct {
		name   string
		cname  string
		frames int
		fps    float64
		w, h   int
		tl     *timeline.Timeline
	}{
		{"empty name", "", 600, 30, 1920, 1080, tl},
		{"negative duration", "x", -1, 30, 1920, 1080, tl},
		{"zero fps", "x", 600, 0, 1920, 1080, tl},
		{"zero width", "x", 600, 30, 0, 1080, tl},
		{"negative height", "x", 600, 30, 1920, -1, tl},
		{"nil timeline", "x", 600, 30, 1920, 1080, nil},
		{"length mismatch", "x", 480, 30, 1920, 1080, tl},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cname, tt.frames, tt.fps, tt.w, tt.h, tt.tl)
			assert.ErrorIs(t, err, ErrInvalidComposition)
		})
	}
}

func TestZeroLengthComposition(t *testing.T) {
	c, err := New("Empty", 0, 30, 10, 10, mustTimeline(t, 0))
	require.NoError(t, err)
	assert.Equal(t, 0.0, c.Seconds())
}

func TestRegistryRoundTrip(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"Trailer", "BrandFilm", "TechIntro"} {
		frames := 600
		if name == "TechIntro" {
			frames = 480
		}
		c, err := New(name, frames, 30, 1920, 1080, mustTimeline(t, frames))
		require.NoError(t, err)
		require.NoError(t, r.Register(c))
	}

	got, err := r.Get("TechIntro")
	require.NoError(t, err)
	assert.Equal(t, "TechIntro", got.Name)
	assert.Equal(t, 480, got.DurationInFrames)
	assert.Equal(t, 30.0, got.FPS)
	assert.Equal(t, 1920, got.Width)
	assert.Equal(t, 1080, got.Height)

	assert.Equal(t, []string{"Trailer", "BrandFilm", "TechIntro"}, r.Names())
	assert.Equal(t, 3, r.Len())

	_, err = r.Get("DoesNotExist")
	assert.ErrorIs(t, err, ErrUnknownComposition)
	_, err = r.Get("brandfilm")
	assert.ErrorIs(t, err, ErrUnknownComposition)

	dup, err := New("Trailer", 600, 30, 1920, 1080, mustTimeline(t, 600))
	require.NoError(t, err)
	assert.ErrorIs(t, r.Register(dup), ErrDuplicateComposition)
	assert.Equal(t, 3, r.Len())
}

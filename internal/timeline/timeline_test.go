package timeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/framereel/internal/animation"
	"github.com/ivlev/framereel/internal/scene"
)

func mustScene(t *testing.T, id string) *scene.Scene {
	t.Helper()
	s, err := scene.New(id, []scene.PropertySpec{{Name: "op", Frames: []float64{0, 10}, Values: []float64{0, 1}}}, nil)
	require.NoError(t, err)
	return s
}

func TestSceneWindow(t *testing.T) {
	tl, err := New(600, []Clip{{Scene: mustScene(t, "s2"), Start: 120, Duration: 120}}, nil)
	require.NoError(t, err)

	assert.Empty(t, tl.ActiveAt(119))

	a := tl.ActiveAt(120)
	require.Len(t, a, 1)
	assert.Equal(t, 0, a[0].LocalFrame)

	a = tl.ActiveAt(239)
	require.Len(t, a, 1)
	assert.Equal(t, 119, a[0].LocalFrame)

	assert.Empty(t, tl.ActiveAt(240))
}

func TestOverlappingClipsKeepDeclarationOrder(t *testing.T) {
	clips := []Clip{
		{Scene: mustScene(t, "a"), Start: 0, Duration: 180},
		{Scene: mustScene(t, "b"), Start: 160, Duration: 200},
		{Scene: mustScene(t, "c"), Start: 340, Duration: 200},
	}
	tl, err := New(600, clips, nil)
	require.NoError(t, err)

	a := tl.ActiveAt(170)
	require.Len(t, a, 2)
	assert.Equal(t, "a", a[0].Clip.Scene.ID())
	assert.Equal(t, 170, a[0].LocalFrame)
	assert.Equal(t, "b", a[1].Clip.Scene.ID())
	assert.Equal(t, 10, a[1].LocalFrame)
	assert.Equal(t, 1, a[1].Index)

	// Gap after the last clip.
	assert.Empty(t, tl.ActiveAt(560))
}

func TestOutsideComposition(t *testing.T) {
	env := animation.MustKeyframes([]float64{0, 10}, []float64{0, 1})
	tl, err := New(100,
		[]Clip{{Scene: mustScene(t, "a"), Start: 0, Duration: 200}},
		[]AudioCue{{Source: "music.mp3", Envelope: &env}})
	require.NoError(t, err)

	assert.Empty(t, tl.ActiveAt(-1))
	assert.Empty(t, tl.ActiveAt(100))
	assert.Empty(t, tl.AudioAt(-1))
	assert.Empty(t, tl.AudioAt(100))
	assert.Len(t, tl.AudioAt(99), 1)
}

func TestAudioOverlap(t *testing.T) {
	env := animation.MustKeyframes([]float64{0, 25, 569, 600}, []float64{0, 0.18, 0.18, 0})
	tl, err := New(600, nil, []AudioCue{
		{Source: "music.mp3", Envelope: &env},
		{Source: "vo1.mp3", Start: 50, Volume: 0.9},
	})
	require.NoError(t, err)

	cues := tl.AudioAt(60)
	require.Len(t, cues, 2)
	assert.InDelta(t, 0.18, cues[0].Volume, 1e-12)
	assert.Equal(t, 60, cues[0].CueFrame)
	assert.Equal(t, 0.9, cues[1].Volume)
	assert.Equal(t, 10, cues[1].CueFrame)

	cues = tl.AudioAt(10)
	require.Len(t, cues, 1)
	assert.InDelta(t, 0.072, cues[0].Volume, 1e-12)

	cues = tl.AudioAt(599)
	require.Len(t, cues, 2)
	assert.InDelta(t, 0.18/31, cues[0].Volume, 1e-12)
}

func TestBoundedCue(t *testing.T) {
	tl, err := New(300, nil, []AudioCue{{Source: "sfx.wav", Start: 100, End: 130, SourceOffset: 15, Volume: 1.4}})
	require.NoError(t, err)

	assert.Empty(t, tl.AudioAt(99))
	c := tl.AudioAt(100)
	require.Len(t, c, 1)
	assert.Equal(t, 15, c[0].CueFrame)
	// No gain clamping.
	assert.Equal(t, 1.4, c[0].Volume)
	assert.Len(t, tl.AudioAt(129), 1)
	assert.Empty(t, tl.AudioAt(130))
}

func TestNewValidation(t *testing.T) {
	s := mustScene(t, "s")
	tests := []struct {
		name     string
		duration int
		clips    []Clip
		cues     []AudioCue
	}{
		{"negative duration", -1, nil, nil},
		{"negative start", 10, []Clip{{Scene: s, Start: -1, Duration: 5}}, nil},
		{"zero clip duration", 10, []Clip{{Scene: s, Start: 0, Duration: 0}}, nil},
		{"nil scene", 10, []Clip{{Start: 0, Duration: 5}}, nil},
		{"negative cue start", 10, nil, []AudioCue{{Source: "a", Start: -2}}},
		{"end before start", 10, nil, []AudioCue{{Source: "a", Start: 5, End: 5}}},
		{"no source", 10, nil, []AudioCue{{Start: 0}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.duration, tt.clips, tt.cues)
			assert.ErrorIs(t, err, ErrInvalidTimeline)
		})
	}

	tl, err := New(0, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, tl.ActiveAt(0))
}

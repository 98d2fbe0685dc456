package assets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/framereel/internal/director"
)

const refsYAML = `
name: Refs
duration: 60
fps: 30
width: 320
height: 180
scenes:
  - id: a
    start: 0
    duration: 30
    elements:
      - {kind: image, src: stills/b.png, x: 160, y: 90}
      - {kind: image, src: stills/a.png, x: 160, y: 90}
      - {kind: text, text: hello, x: 160, y: 90}
  - id: b
    start: auto
    duration: 30
    elements:
      - {kind: image, src: stills/a.png, x: 160, y: 90}
audio:
  - source: music.mp3
  - source: vo.mp3
    start: 10
  - source: music.mp3
    start: 40
`

func TestReferences(t *testing.T) {
	s, err := director.ParseScenario([]byte(refsYAML))
	require.NoError(t, err)
	c, err := director.Build(s)
	require.NoError(t, err)

	images, audio := References(c)
	assert.Equal(t, []string{"stills/a.png", "stills/b.png"}, images)
	assert.Equal(t, []string{"music.mp3", "vo.mp3"}, audio)
}

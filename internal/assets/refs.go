package assets

import (
	"sort"

	"github.com/ivlev/framereel/internal/composition"
)

// References lists the image and audio files a composition points at, sorted
// and without duplicates. String attributes never animate, so one evaluation
// per clip is enough.
func References(c *composition.Composition) (images, audio []string) {
	seenImg := make(map[string]bool)
	for _, clip := range c.Timeline.Clips() {
		_, shapes := clip.Scene.At(0)
		for _, sh := range shapes {
			if sh.Kind != "image" {
				continue
			}
			if src := sh.Text("src", ""); src != "" && !seenImg[src] {
				seenImg[src] = true
				images = append(images, src)
			}
		}
	}
	seenAud := make(map[string]bool)
	for _, cue := range c.Timeline.Cues() {
		if !seenAud[cue.Source] {
			seenAud[cue.Source] = true
			audio = append(audio, cue.Source)
		}
	}
	sort.Strings(images)
	sort.Strings(audio)
	return images, audio
}

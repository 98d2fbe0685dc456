package video

import (
	"fmt"
	"strings"

	"github.com/ivlev/framereel/internal/animation"
	"github.com/ivlev/framereel/internal/timeline"
)

// AudioInput is a cue whose source has been resolved to a file.
type AudioInput struct {
	Path string
	Cue  timeline.AudioCue
}

func seconds(frames, fps float64) float64 { return frames / fps }

// VolumeExpr turns a cue's gain into an expression over the filter's t (in
// seconds on the composition timeline). Envelopes become nested linear
// pieces held flat outside their keyframes.
func VolumeExpr(c timeline.AudioCue, fps float64) string {
	if c.Envelope == nil {
		return fmt.Sprintf("%.6f", c.Volume)
	}
	return envelopeExpr(c.Envelope.Keys(), fps)
}

func envelopeExpr(keys []animation.Keyframe, fps float64) string {
	first, last := keys[0], keys[len(keys)-1]

	var b strings.Builder
	fmt.Fprintf(&b, "if(lte(t,%.6f),%.6f", seconds(first.Frame, fps), first.Value)
	for i := 0; i < len(keys)-1; i++ {
		t0, t1 := seconds(keys[i].Frame, fps), seconds(keys[i+1].Frame, fps)
		v0, v1 := keys[i].Value, keys[i+1].Value
		// v0+(t-t0)/(t1-t0)*(v1-v0) while t <= t1
		fmt.Fprintf(&b, ",if(lte(t,%.6f),%.6f+(t-%.6f)/%.6f*(%.6f)", t1, v0, t0, t1-t0, v1-v0)
	}
	fmt.Fprintf(&b, ",%.6f", last.Value)
	b.WriteString(strings.Repeat(")", len(keys)))
	return b.String()
}

// CueFilter is the chain for one cue: skip SourceOffset, delay to Start,
// apply the gain per frame and cut at End.
func CueFilter(c timeline.AudioCue, fps float64) string {
	parts := make([]string, 0, 5)
	if c.SourceOffset > 0 {
		parts = append(parts,
			fmt.Sprintf("atrim=start=%.6f", seconds(float64(c.SourceOffset), fps)),
			"asetpts=PTS-STARTPTS")
	}
	if c.Start > 0 {
		ms := int(seconds(float64(c.Start), fps)*1000 + 0.5)
		parts = append(parts, fmt.Sprintf("adelay=%d:all=1", ms))
	}
	parts = append(parts, fmt.Sprintf("volume='%s':eval=frame", VolumeExpr(c, fps)))
	if c.Bounded() {
		parts = append(parts, fmt.Sprintf("atrim=end=%.6f", seconds(float64(c.End), fps)))
	}
	return strings.Join(parts, ",")
}

// AudioGraph builds the filter_complex that mixes every cue into [aout].
// Input indexes start at first. Gains are summed without normalisation so an
// envelope means the same thing regardless of how many cues overlap. A
// positive skip drops that many frames from the head of the mix, for output
// that starts mid-composition.
func AudioGraph(inputs []AudioInput, fps float64, first, skip int) string {
	if len(inputs) == 0 {
		return ""
	}
	var b strings.Builder
	labels := make([]string, len(inputs))
	for i, in := range inputs {
		labels[i] = fmt.Sprintf("[a%d]", i)
		fmt.Fprintf(&b, "[%d:a]%s%s;", first+i, CueFilter(in.Cue, fps), labels[i])
	}
	fmt.Fprintf(&b, "%samix=inputs=%d:duration=longest:normalize=0", strings.Join(labels, ""), len(inputs))
	if skip > 0 {
		fmt.Fprintf(&b, "[mix];[mix]atrim=start=%.6f,asetpts=PTS-STARTPTS", seconds(float64(skip), fps))
	}
	b.WriteString("[aout]")
	return b.String()
}

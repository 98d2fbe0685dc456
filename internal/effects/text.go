package effects

import (
	"strconv"

	"github.com/ivlev/framereel/internal/scene"
)

const (
	lightText = "#F5F5F7"
	darkText  = "#1d1d1f"
	paper     = "#FBFBFD"
)

// typewriter reveals the text about three frames per character with a blinking
// cursor that is only shown while typing.
func typewriter(p Params) (Expansion, error) {
	runes, text, err := requireText("typewriter", p)
	if err != nil {
		return Expansion{}, err
	}
	p = p.withDefaults("typewriter", 140, lightText)
	if p.Font == "" {
		p.Font = "mono"
	}
	n := float64(len(runes))
	end := p.Delay + 3*n

	props := []scene.PropertySpec{
		ramp(p.prop("chars"), p.Delay, end, 0, n, "smooth"),
		{
			Name:   p.prop("blink"),
			Kind:   scene.KindKeyframes,
			Frames: []float64{0, 10, 20},
			Values: []float64{1, 0, 1},
			Period: 20,
		},
		{
			Name:   p.prop("typing"),
			Kind:   scene.KindKeyframes,
			Frames: []float64{p.Delay - 1, p.Delay, end - 1, end},
			Values: []float64{0, 1, 1, 0},
		},
		{Name: p.prop("cursor"), Kind: scene.KindProduct, Of: []string{p.prop("blink"), p.prop("typing")}},
	}
	el := textElement(p, text)
	el.Attrs["visible"] = scene.Ref(p.prop("chars"))
	el.Attrs["cursor"] = scene.Ref(p.prop("cursor"))
	return Expansion{Properties: props, Elements: []scene.ElementSpec{el}}, nil
}

// stagger fades each character in two frames after the previous one and pops
// its scale with a stiff spring.
func stagger(p Params) (Expansion, error) {
	runes, text, err := requireText("stagger", p)
	if err != nil {
		return Expansion{}, err
	}
	p = p.withDefaults("stagger", 140, lightText)
	n := len(runes)

	op := ramp(p.prop("op"), p.Delay, p.Delay+15, 0, 1, "ease-out")
	op.Repeat = &scene.Repeat{Count: n, FrameStep: 2}
	sc := spring(p.prop("scale"), p.Delay, 100, 200)
	sc.Repeat = &scene.Repeat{Count: n, FrameStep: 2}

	return Expansion{
		Properties: []scene.PropertySpec{op, sc},
		Elements: perGlyph(p, text, n, func(i string) map[string]scene.Attr {
			return map[string]scene.Attr{
				"opacity": scene.Ref(p.prop("op." + i)),
				"scale":   scene.Ref(p.prop("scale." + i)),
			}
		}),
	}, nil
}

// riseFade lifts each character 30px into place while it fades in.
func riseFade(p Params) (Expansion, error) {
	runes, text, err := requireText("risefade", p)
	if err != nil {
		return Expansion{}, err
	}
	p = p.withDefaults("risefade", 140, lightText)
	n := len(runes)

	op := ramp(p.prop("op"), p.Delay, p.Delay+20, 0, 1, "ease-out")
	op.Repeat = &scene.Repeat{Count: n, FrameStep: 2.5}
	dy := ramp(p.prop("dy"), p.Delay, p.Delay+25, 30, 0, "ease-out")
	dy.Repeat = &scene.Repeat{Count: n, FrameStep: 2.5}

	return Expansion{
		Properties: []scene.PropertySpec{op, dy},
		Elements: perGlyph(p, text, n, func(i string) map[string]scene.Attr {
			return map[string]scene.Attr{
				"opacity": scene.Ref(p.prop("op." + i)),
				"dy":      scene.Ref(p.prop("dy." + i)),
			}
		}),
	}, nil
}

// zoomGrow scales the whole line from 10% to full size over 135 frames.
func zoomGrow(p Params) (Expansion, error) {
	_, text, err := requireText("zoomgrow", p)
	if err != nil {
		return Expansion{}, err
	}
	p = p.withDefaults("zoomgrow", 140, lightText)

	el := textElement(p, text)
	el.Attrs["scale"] = scene.Ref(p.prop("scale"))
	el.Attrs["opacity"] = scene.Ref(p.prop("op"))
	return Expansion{
		Properties: []scene.PropertySpec{
			ramp(p.prop("scale"), p.Delay, p.Delay+135, 0.1, 1, "ease-out"),
			ramp(p.prop("op"), p.Delay, p.Delay+20, 0, 1, "smooth"),
		},
		Elements: []scene.ElementSpec{el},
	}, nil
}

// fadeIn holds the text invisible for the first 30% of Duration, then fades it
// in while a soft spring settles its scale from 0.95 to 1.
func fadeIn(p Params) (Expansion, error) {
	_, text, err := requireText("fadein", p)
	if err != nil {
		return Expansion{}, err
	}
	p = p.withDefaults("fadein", 120, darkText)
	if p.Duration <= 0 {
		p.Duration = 60
	}
	if p.Font == "" {
		p.Font = "light"
	}

	el := textElement(p, text)
	el.Attrs["opacity"] = scene.Ref(p.prop("op"))
	el.Attrs["scale"] = scene.Ref(p.prop("scale"))
	return Expansion{
		Properties: []scene.PropertySpec{
			{
				Name:   p.prop("op"),
				Kind:   scene.KindKeyframes,
				Frames: []float64{p.Delay, p.Delay + p.Duration*0.3, p.Delay + p.Duration},
				Values: []float64{0, 0, 1},
			},
			spring(p.prop("spring"), p.Delay, 100, 50),
			{
				Name:        p.prop("scale"),
				Kind:        scene.KindKeyframes,
				Frames:      []float64{0, 1},
				Values:      []float64{0.95, 1},
				Input:       p.prop("spring"),
				Extrapolate: "extend",
			},
		},
		Elements: []scene.ElementSpec{el},
	}, nil
}

// reveal brings a wrapped paragraph up 20px while it fades in over 50 frames.
func reveal(p Params) (Expansion, error) {
	_, text, err := requireText("reveal", p)
	if err != nil {
		return Expansion{}, err
	}
	p = p.withDefaults("reveal", 64, darkText)

	el := textElement(p, text)
	el.Attrs["opacity"] = scene.Ref(p.prop("op"))
	el.Attrs["dy"] = scene.Ref(p.prop("dy"))
	el.Attrs["wrap"] = "1080"
	el.Attrs["lineHeight"] = "1.3"
	return Expansion{
		Properties: []scene.PropertySpec{
			ramp(p.prop("op"), p.Delay, p.Delay+50, 0, 1, "ease-out"),
			ramp(p.prop("dy"), p.Delay, p.Delay+50, 20, 0, "ease-out"),
		},
		Elements: []scene.ElementSpec{el},
	}, nil
}

// perGlyph emits one text element per character. Every element carries the
// whole line so the renderer lays out identical positions and draws only the
// glyph at its index.
func perGlyph(p Params, text string, n int, attrs func(i string) map[string]scene.Attr) []scene.ElementSpec {
	out := make([]scene.ElementSpec, n)
	for i := 0; i < n; i++ {
		idx := strconv.Itoa(i)
		el := textElement(p, text)
		el.Attrs["glyph"] = scene.Attr(idx)
		for k, v := range attrs(idx) {
			el.Attrs[k] = v
		}
		out[i] = el
	}
	return out
}

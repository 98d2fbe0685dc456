package effects

import (
	"github.com/ivlev/framereel/internal/scene"
)

// DefaultLogo is the asset the end card shows when Src is empty.
const DefaultLogo = "logo_horizontal.png"

// endFrame paints a light card and fades the logo in over it, settling it
// with a soft spring and a 20px rise.
func endFrame(p Params) (Expansion, error) {
	p = p.withDefaults("endframe", 0, paper)
	if p.Src == "" {
		p.Src = DefaultLogo
	}

	logo := scene.ElementSpec{Kind: scene.ElementImage, Attrs: map[string]scene.Attr{
		"src":     scene.Attr(p.Src),
		"x":       scene.Num(p.X),
		"y":       scene.Num(p.Y),
		"w":       scene.Num(float64(p.Width)),
		"h":       scene.Num(float64(p.Height)),
		"fit":     "contain",
		"opacity": scene.Ref(p.prop("op")),
		"scale":   scene.Ref(p.prop("scale")),
		"dy":      scene.Ref(p.prop("dy")),
	}}
	card := scene.ElementSpec{Kind: scene.ElementFill, Attrs: map[string]scene.Attr{
		"color": scene.Attr(p.Color),
	}}

	return Expansion{
		Properties: []scene.PropertySpec{
			ramp(p.prop("op"), p.Delay, p.Delay+30, 0, 1, "ease-out"),
			spring(p.prop("scale"), p.Delay, 100, 50),
			ramp(p.prop("dy"), p.Delay, p.Delay+35, 20, 0, "ease-out"),
		},
		Elements: []scene.ElementSpec{card, logo},
	}, nil
}

package renderer

import (
	"fmt"
	"image"
	"math"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/ivlev/framereel/internal/scene"
)

// Font families a text element can name. The Go fonts have no light weight,
// so light maps to regular.
var fontFiles = map[string][]byte{
	"regular": goregular.TTF,
	"light":   goregular.TTF,
	"medium":  gomedium.TTF,
	"bold":    gobold.TTF,
	"mono":    gomono.TTF,
}

var parsedFonts = sync.OnceValues(func() (map[string]*opentype.Font, error) {
	out := make(map[string]*opentype.Font, len(fontFiles))
	for name, data := range fontFiles {
		f, err := opentype.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("parse font %s: %w", name, err)
		}
		out[name] = f
	}
	return out, nil
})

// newFace opens a face for one draw call. Faces are not safe for concurrent
// use, parsed fonts are.
func newFace(family string, size float64) (font.Face, error) {
	fonts, err := parsedFonts()
	if err != nil {
		return nil, err
	}
	if family == "" {
		family = "regular"
	}
	f, ok := fonts[family]
	if !ok {
		return nil, fmt.Errorf("unknown font %q", family)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create font face: %w", err)
	}
	return face, nil
}

type glyph struct {
	r   rune
	idx int     // position in the element's text
	x   float64 // pen position from the line start
	adv float64
}

type textLine struct {
	glyphs []glyph
	width  float64
}

type indexed struct {
	r   rune
	idx int
}

// layoutText breaks text into lines on newlines and, when wrap > 0, between
// words so no line is wider than wrap. Glyph indexes survive wrapping so
// per-glyph elements stay addressable.
func layoutText(face font.Face, text string, spacing, wrap float64) []textLine {
	var paragraphs [][]indexed
	var cur []indexed
	idx := 0
	for _, r := range text {
		if r == '\n' {
			paragraphs = append(paragraphs, cur)
			cur = nil
		} else {
			cur = append(cur, indexed{r, idx})
		}
		idx++
	}
	paragraphs = append(paragraphs, cur)

	var lines []textLine
	for _, p := range paragraphs {
		if wrap <= 0 {
			lines = append(lines, placeLine(face, p, spacing))
			continue
		}
		lines = append(lines, wrapLine(face, p, spacing, wrap)...)
	}
	return lines
}

func wrapLine(face font.Face, p []indexed, spacing, wrap float64) []textLine {
	var words [][]indexed
	var word []indexed
	for _, g := range p {
		if g.r == ' ' {
			if len(word) > 0 {
				words = append(words, word)
				word = nil
			}
			continue
		}
		word = append(word, g)
	}
	if len(word) > 0 {
		words = append(words, word)
	}
	if len(words) == 0 {
		return []textLine{{}}
	}

	var lines []textLine
	current := words[0]
	for _, w := range words[1:] {
		// The space keeps the index of the one between the words.
		candidate := append(append(append([]indexed(nil), current...), indexed{' ', w[0].idx - 1}), w...)
		if placeLine(face, candidate, spacing).width > wrap {
			lines = append(lines, placeLine(face, current, spacing))
			current = w
			continue
		}
		current = candidate
	}
	return append(lines, placeLine(face, current, spacing))
}

func placeLine(face font.Face, runes []indexed, spacing float64) textLine {
	line := textLine{glyphs: make([]glyph, 0, len(runes))}
	pen := 0.0
	prev := rune(-1)
	for i, g := range runes {
		if prev >= 0 {
			pen += fromFixed(face.Kern(prev, g.r))
		}
		adv, _ := face.GlyphAdvance(g.r)
		line.glyphs = append(line.glyphs, glyph{r: g.r, idx: g.idx, x: pen, adv: fromFixed(adv)})
		pen += fromFixed(adv)
		line.width = pen
		if i < len(runes)-1 {
			pen += spacing
		}
		prev = g.r
	}
	return line
}

func fromFixed(v fixed.Int26_6) float64 { return float64(v) / 64 }

func toFixed(v float64) fixed.Int26_6 { return fixed.Int26_6(math.Round(v * 64)) }

// drawText lays out a text element around (x+dx, y+dy). Lines are stacked and
// centred vertically on that point; align picks the horizontal anchor.
func drawText(dst *image.RGBA, sh scene.Shape) error {
	text := sh.Text("text", "")
	opacity := sh.Float("opacity", 1)
	scale := sh.Float("scale", 1)
	size := sh.Float("size", 48) * scale
	if text == "" || opacity <= 0 || size <= 0 {
		return nil
	}
	col, err := ParseColor(sh.Text("color", "#FFFFFF"))
	if err != nil {
		return err
	}
	face, err := newFace(sh.Text("font", "regular"), size)
	if err != nil {
		return err
	}
	defer face.Close()

	spacing := sh.Float("spacing", 0) * size
	lines := layoutText(face, text, spacing, sh.Float("wrap", 0)*scale)

	m := face.Metrics()
	ascent, descent := fromFixed(m.Ascent), fromFixed(m.Descent)
	advance := size * sh.Float("lineHeight", 1.2)
	x := sh.Float("x", 0) + sh.Float("dx", 0)
	y := sh.Float("y", 0) + sh.Float("dy", 0)
	top := y - float64(len(lines)-1)*advance/2 + (ascent-descent)/2

	visible := math.MaxInt
	if v, ok := sh.Num["visible"]; ok {
		visible = int(math.Floor(v))
	}
	only := -1
	if g, ok := sh.Num["glyph"]; ok {
		only = int(g)
	}

	d := &font.Drawer{Dst: dst, Src: image.NewUniform(fade(col, opacity)), Face: face}
	cursorX, cursorY := math.NaN(), top
	for i, line := range lines {
		baseline := top + float64(i)*advance
		start := x
		switch strings.ToLower(sh.Text("align", "center")) {
		case "center":
			start -= line.width / 2
		case "right":
			start -= line.width
		}
		if i == 0 {
			cursorX = start
		}
		for _, g := range line.glyphs {
			if g.idx >= visible {
				break
			}
			cursorX, cursorY = start+g.x+g.adv+spacing/2, baseline
			if only >= 0 && g.idx != only {
				continue
			}
			d.Dot = fixed.Point26_6{X: toFixed(start + g.x), Y: toFixed(baseline)}
			d.DrawString(string(g.r))
		}
	}

	if c := sh.Float("cursor", 0); c > 0 && only < 0 {
		w := math.Max(2, size*0.06)
		h := ascent + descent
		fillPath(dst, fade(col, opacity*c), rectContour(cursorX+w/2, cursorY-ascent+h/2, w, h, 0))
	}
	return nil
}

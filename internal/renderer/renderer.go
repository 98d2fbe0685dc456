// Package renderer is the reference drawing surface: it rasterises evaluated
// frame states into RGBA images. Layers are painted back to front and the
// elements of a layer in declaration order.
package renderer

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"
	"sync"

	"github.com/ivlev/framereel/internal/assets"
	"github.com/ivlev/framereel/internal/engine"
	"github.com/ivlev/framereel/internal/scene"
	"github.com/ivlev/framereel/internal/system"
)

// Renderer draws frames of a fixed size. It is safe for concurrent use.
type Renderer struct {
	Width, Height int
	Background    color.NRGBA
	Assets        *assets.Resolver // nil skips image elements

	pool *system.ImagePool
	qr   sync.Map // qrKey -> image.Image
}

// New creates a renderer with a black background that draws into buffers
// from the shared frame pool.
func New(width, height int, res *assets.Resolver) *Renderer {
	return &Renderer{
		Width:      width,
		Height:     height,
		Background: color.NRGBA{A: 0xff},
		Assets:     res,
	}
}

// WithPool makes the renderer take buffers from p instead of the shared pool.
func (r *Renderer) WithPool(p *system.ImagePool) *Renderer {
	r.pool = p
	return r
}

// Rasterize implements engine.Rasterizer.
func (r *Renderer) Rasterize(fs engine.FrameState) (*image.RGBA, error) {
	if r.Width <= 0 || r.Height <= 0 {
		return nil, fmt.Errorf("renderer: invalid size %dx%d", r.Width, r.Height)
	}
	rect := image.Rect(0, 0, r.Width, r.Height)
	var dst *image.RGBA
	if r.pool != nil {
		dst = r.pool.Get(rect)
	} else {
		dst = system.GetImage(rect)
	}
	draw.Draw(dst, rect, image.NewUniform(r.Background), image.Point{}, draw.Src)

	for _, layer := range fs.Layers {
		for i, sh := range layer.Shapes {
			if err := r.Draw(dst, sh); err != nil {
				r.Release(dst)
				return nil, fmt.Errorf("scene %s element %d (%s): %w", layer.SceneID, i, sh.Kind, err)
			}
		}
	}
	return dst, nil
}

// Release hands a frame back to the pool it came from.
func (r *Renderer) Release(img *image.RGBA) {
	if r.pool != nil {
		r.pool.Put(img)
		return
	}
	system.PutImage(img)
}

// Draw paints one resolved element onto dst.
func (r *Renderer) Draw(dst *image.RGBA, sh scene.Shape) error {
	switch sh.Kind {
	case scene.ElementFill:
		col, err := shapeColor(sh, "#000000")
		if err != nil {
			return err
		}
		draw.Draw(dst, dst.Bounds(), image.NewUniform(col), image.Point{}, draw.Over)
	case scene.ElementRect:
		return drawRect(dst, sh)
	case scene.ElementCircle:
		return drawCircle(dst, sh)
	case scene.ElementLine:
		return drawLine(dst, sh)
	case scene.ElementPolygon:
		return drawPolygon(dst, sh)
	case scene.ElementText:
		return drawText(dst, sh)
	case scene.ElementImage:
		return r.drawImage(dst, sh)
	case scene.ElementQR:
		return r.drawQR(dst, sh)
	default:
		return fmt.Errorf("unknown element kind %q", sh.Kind)
	}
	return nil
}

func shapeColor(sh scene.Shape, def string) (color.NRGBA, error) {
	col, err := ParseColor(sh.Text("color", def))
	if err != nil {
		return col, err
	}
	return fade(col, sh.Float("opacity", 1)), nil
}

// outline fills the band between two nested contours, or all of outer when
// the stroke swallows the inside.
func outline(dst *image.RGBA, col color.NRGBA, outer, inner contour, innerOK bool) {
	if innerOK {
		fillPath(dst, col, outer, inner.reversed())
		return
	}
	fillPath(dst, col, outer)
}

// drawRect: (x, y) is the top-left corner; scale and rotation apply around
// the centre.
func drawRect(dst *image.RGBA, sh scene.Shape) error {
	col, err := shapeColor(sh, "#FFFFFF")
	if err != nil {
		return err
	}
	scale := sh.Float("scale", 1)
	w, h := sh.Float("w", 0), sh.Float("h", 0)
	cx, cy := sh.Float("x", 0)+w/2, sh.Float("y", 0)+h/2
	w, h = w*scale, h*scale
	if w <= 0 || h <= 0 {
		return nil
	}
	rot := sh.Float("rotation", 0)
	if s := sh.Float("stroke", 0); s > 0 {
		outline(dst, col,
			rectContour(cx, cy, w+s, h+s, rot),
			rectContour(cx, cy, w-s, h-s, rot),
			w > s && h > s)
		return nil
	}
	fillPath(dst, col, rectContour(cx, cy, w, h, rot))
	return nil
}

func drawCircle(dst *image.RGBA, sh scene.Shape) error {
	col, err := shapeColor(sh, "#FFFFFF")
	if err != nil {
		return err
	}
	cx, cy, radius := sh.Float("cx", 0), sh.Float("cy", 0), sh.Float("r", 0)
	if radius <= 0 {
		return nil
	}
	if s := sh.Float("stroke", 0); s > 0 {
		outline(dst, col, circleContour(cx, cy, radius+s/2), circleContour(cx, cy, radius-s/2), radius > s/2)
		return nil
	}
	fillPath(dst, col, circleContour(cx, cy, radius))
	return nil
}

// drawLine draws the first progress fraction of the segment.
func drawLine(dst *image.RGBA, sh scene.Shape) error {
	col, err := shapeColor(sh, "#FFFFFF")
	if err != nil {
		return err
	}
	progress := math.Min(sh.Float("progress", 1), 1)
	if progress <= 0 {
		return nil
	}
	a := point{sh.Float("x1", 0), sh.Float("y1", 0)}
	b := point{sh.Float("x2", 0), sh.Float("y2", 0)}
	b = point{a.x + (b.x-a.x)*progress, a.y + (b.y-a.y)*progress}
	if c := segmentContour(a, b, sh.Float("width", 2)); c != nil {
		fillPath(dst, col, c)
	}
	return nil
}

func drawPolygon(dst *image.RGBA, sh scene.Shape) error {
	col, err := shapeColor(sh, "#FFFFFF")
	if err != nil {
		return err
	}
	n := int(sh.Float("sides", 6))
	radius := sh.Float("r", 0)
	if n < 3 || radius <= 0 {
		return nil
	}
	cx, cy, rot := sh.Float("cx", 0), sh.Float("cy", 0), sh.Float("rotation", 0)
	if s := sh.Float("stroke", 0); s > 0 {
		// Offsetting each edge by s/2 moves the vertices by s/2/cos(pi/n).
		d := s / 2 / math.Cos(math.Pi/float64(n))
		outline(dst, col,
			regularContour(cx, cy, radius+d, n, rot),
			regularContour(cx, cy, radius-d, n, rot),
			radius > d)
		return nil
	}
	fillPath(dst, col, regularContour(cx, cy, radius, n, rot))
	return nil
}

// WritePNG encodes a rendered frame.
func WritePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("failed to encode PNG: %w", err)
	}
	return nil
}

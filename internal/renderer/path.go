package renderer

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"sync"

	"golang.org/x/image/vector"
)

type point struct{ x, y float64 }

// contour is a closed polygon. A path fills the union of its contours; a
// contour wound the other way cuts a hole.
type contour []point

func (c contour) reversed() contour {
	out := make(contour, len(c))
	for i, p := range c {
		out[len(c)-1-i] = p
	}
	return out
}

var rasterizers = sync.Pool{
	New: func() interface{} { return vector.NewRasterizer(0, 0) },
}

// fillPath composites c over dst through the coverage of the contours.
// Contours are clipped to dst first.
func fillPath(dst *image.RGBA, col color.NRGBA, contours ...contour) {
	if col.A == 0 {
		return
	}
	b := dst.Bounds()
	clipped := make([]contour, 0, len(contours))
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, c := range contours {
		c = clip(c, b)
		if len(c) < 3 {
			continue
		}
		for _, p := range c {
			minX, maxX = math.Min(minX, p.x), math.Max(maxX, p.x)
			minY, maxY = math.Min(minY, p.y), math.Max(maxY, p.y)
		}
		clipped = append(clipped, c)
	}
	if len(clipped) == 0 {
		return
	}
	r := image.Rect(int(math.Floor(minX)), int(math.Floor(minY)), int(math.Ceil(maxX)), int(math.Ceil(maxY))).Intersect(b)
	if r.Empty() {
		return
	}

	z := rasterizers.Get().(*vector.Rasterizer)
	defer rasterizers.Put(z)
	z.Reset(r.Dx(), r.Dy())
	z.DrawOp = draw.Over
	ox, oy := float64(r.Min.X), float64(r.Min.Y)
	for _, c := range clipped {
		z.MoveTo(float32(c[0].x-ox), float32(c[0].y-oy))
		for _, p := range c[1:] {
			z.LineTo(float32(p.x-ox), float32(p.y-oy))
		}
		z.ClosePath()
	}
	z.Draw(dst, r, image.NewUniform(col), image.Point{})
}

// clip cuts a contour to the rectangle (Sutherland-Hodgman).
func clip(c contour, r image.Rectangle) contour {
	x0, y0 := float64(r.Min.X), float64(r.Min.Y)
	x1, y1 := float64(r.Max.X), float64(r.Max.Y)
	edges := []struct {
		inside func(p point) bool
		cross  func(a, b point) point
	}{
		{func(p point) bool { return p.x >= x0 }, func(a, b point) point { return atX(a, b, x0) }},
		{func(p point) bool { return p.x <= x1 }, func(a, b point) point { return atX(a, b, x1) }},
		{func(p point) bool { return p.y >= y0 }, func(a, b point) point { return atY(a, b, y0) }},
		{func(p point) bool { return p.y <= y1 }, func(a, b point) point { return atY(a, b, y1) }},
	}
	out := c
	for _, e := range edges {
		if len(out) == 0 {
			return nil
		}
		in := out
		out = make(contour, 0, len(in)+4)
		prev := in[len(in)-1]
		for _, p := range in {
			switch {
			case e.inside(p) && !e.inside(prev):
				out = append(out, e.cross(prev, p), p)
			case e.inside(p):
				out = append(out, p)
			case e.inside(prev):
				out = append(out, e.cross(prev, p))
			}
			prev = p
		}
	}
	return out
}

func atX(a, b point, x float64) point {
	t := (x - a.x) / (b.x - a.x)
	return point{x, a.y + t*(b.y-a.y)}
}

func atY(a, b point, y float64) point {
	t := (y - a.y) / (b.y - a.y)
	return point{a.x + t*(b.x-a.x), y}
}

// rectContour is a w x h rectangle centred on (cx, cy), rotated by deg.
func rectContour(cx, cy, w, h, deg float64) contour {
	hw, hh := w/2, h/2
	c := contour{{-hw, -hh}, {hw, -hh}, {hw, hh}, {-hw, hh}}
	return transform(c, cx, cy, deg)
}

// regularContour has n vertices on a circle of radius r, the first at deg
// degrees from the positive x axis.
func regularContour(cx, cy, r float64, n int, deg float64) contour {
	c := make(contour, n)
	start := deg * math.Pi / 180
	for i := range c {
		a := start + 2*math.Pi*float64(i)/float64(n)
		c[i] = point{cx + r*math.Cos(a), cy + r*math.Sin(a)}
	}
	return c
}

// circleContour flattens a circle finely enough that segments stay short.
func circleContour(cx, cy, r float64) contour {
	n := int(math.Ceil(2 * math.Pi * r / 4))
	if n < 24 {
		n = 24
	}
	if n > 360 {
		n = 360
	}
	return regularContour(cx, cy, r, n, 0)
}

// segmentContour is a line of the given width from a to b with butt ends.
func segmentContour(a, b point, width float64) contour {
	dx, dy := b.x-a.x, b.y-a.y
	l := math.Hypot(dx, dy)
	if l == 0 || width <= 0 {
		return nil
	}
	nx, ny := -dy/l*width/2, dx/l*width/2
	return contour{
		{a.x + nx, a.y + ny},
		{b.x + nx, b.y + ny},
		{b.x - nx, b.y - ny},
		{a.x - nx, a.y - ny},
	}
}

func transform(c contour, cx, cy, deg float64) contour {
	sin, cos := math.Sincos(deg * math.Pi / 180)
	out := make(contour, len(c))
	for i, p := range c {
		out[i] = point{cx + p.x*cos - p.y*sin, cy + p.x*sin + p.y*cos}
	}
	return out
}

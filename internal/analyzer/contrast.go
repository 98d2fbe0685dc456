package analyzer

import (
	"image"
	"math"
	"sort"

	xdraw "golang.org/x/image/draw"
)

// ContrastDetector groups strong luminance edges into blocks.
type ContrastDetector struct {
	MinBlockArea  int     // in source pixels
	EdgeThreshold float64 // Sobel gradient magnitude
	MaxSide       int     // images are analysed at most this large
	Radius        int     // dilation radius joining nearby edges
}

// NewContrastDetector creates a detector with defaults tuned for slides and
// photos.
func NewContrastDetector() *ContrastDetector {
	return &ContrastDetector{
		MinBlockArea:  500,
		EdgeThreshold: 30,
		MaxSide:       320,
		Radius:        2,
	}
}

// Detect returns blocks sorted by area, largest first.
func (d *ContrastDetector) Detect(img image.Image) ([]Block, error) {
	b := img.Bounds()
	if b.Empty() {
		return nil, nil
	}
	k := 1.0
	if side := max(b.Dx(), b.Dy()); d.MaxSide > 0 && side > d.MaxSide {
		k = float64(d.MaxSide) / float64(side)
	}
	w := max(1, int(math.Round(float64(b.Dx())*k)))
	h := max(1, int(math.Round(float64(b.Dy())*k)))

	gray := image.NewGray(image.Rect(0, 0, w, h))
	if k < 1 {
		xdraw.ApproxBiLinear.Scale(gray, gray.Bounds(), img, b, xdraw.Src, nil)
	} else {
		xdraw.Draw(gray, gray.Bounds(), img, b.Min, xdraw.Src)
	}

	mask := sobel(gray, d.EdgeThreshold)
	for i := 0; i < 2; i++ {
		mask = dilate(mask, w, h, d.Radius)
	}

	minArea := float64(d.MinBlockArea) * k * k
	var blocks []Block
	for _, c := range components(mask, w, h) {
		r := c.rect
		if float64(r.Dx()*r.Dy()) < minArea {
			continue
		}
		blocks = append(blocks, Block{
			Rect:    unscale(r, k, b),
			Density: float64(c.edges) / float64(r.Dx()*r.Dy()),
		})
	}
	sort.SliceStable(blocks, func(i, j int) bool {
		return blocks[i].Rect.Dx()*blocks[i].Rect.Dy() > blocks[j].Rect.Dx()*blocks[j].Rect.Dy()
	})
	return blocks, nil
}

func unscale(r image.Rectangle, k float64, b image.Rectangle) image.Rectangle {
	if k == 1 {
		return r.Add(b.Min)
	}
	out := image.Rect(
		int(math.Floor(float64(r.Min.X)/k)), int(math.Floor(float64(r.Min.Y)/k)),
		int(math.Ceil(float64(r.Max.X)/k)), int(math.Ceil(float64(r.Max.Y)/k)),
	).Add(b.Min)
	return out.Intersect(b)
}

// sobel marks pixels whose gradient magnitude exceeds threshold. Border
// pixels are never marked.
func sobel(g *image.Gray, threshold float64) []bool {
	w, h := g.Rect.Dx(), g.Rect.Dy()
	out := make([]bool, w*h)
	at := func(x, y int) float64 { return float64(g.Pix[y*g.Stride+x]) }
	t2 := threshold * threshold
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			gx := at(x+1, y-1) + 2*at(x+1, y) + at(x+1, y+1) - at(x-1, y-1) - 2*at(x-1, y) - at(x-1, y+1)
			gy := at(x-1, y+1) + 2*at(x, y+1) + at(x+1, y+1) - at(x-1, y-1) - 2*at(x, y-1) - at(x+1, y-1)
			out[y*w+x] = gx*gx+gy*gy > t2
		}
	}
	return out
}

// dilate grows marked pixels by r in each direction, as a horizontal then a
// vertical pass.
func dilate(m []bool, w, h, r int) []bool {
	if r <= 0 {
		return m
	}
	tmp := make([]bool, len(m))
	for y := 0; y < h; y++ {
		row := m[y*w : (y+1)*w]
		for x := range row {
			if !row[x] {
				continue
			}
			for i := max(0, x-r); i <= min(w-1, x+r); i++ {
				tmp[y*w+i] = true
			}
		}
	}
	out := make([]bool, len(m))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if !tmp[y*w+x] {
				continue
			}
			for j := max(0, y-r); j <= min(h-1, y+r); j++ {
				out[j*w+x] = true
			}
		}
	}
	return out
}

type component struct {
	rect  image.Rectangle
	edges int
}

// components returns the bounding boxes of 4-connected marked regions in
// scan order.
func components(m []bool, w, h int) []component {
	seen := make([]bool, len(m))
	var out []component
	var stack []int
	for start := range m {
		if !m[start] || seen[start] {
			continue
		}
		c := component{rect: image.Rect(start%w, start/w, start%w+1, start/w+1)}
		seen[start] = true
		stack = append(stack[:0], start)
		for len(stack) > 0 {
			i := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			x, y := i%w, i/w
			c.edges++
			c.rect = c.rect.Union(image.Rect(x, y, x+1, y+1))
			for _, n := range [4]int{i - 1, i + 1, i - w, i + w} {
				switch {
				case n < 0 || n >= len(m):
					continue
				case (n == i-1 && x == 0) || (n == i+1 && x == w-1):
					continue
				case !m[n] || seen[n]:
					continue
				}
				seen[n] = true
				stack = append(stack, n)
			}
		}
		out = append(out, c)
	}
	return out
}

package renderer

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"

	"github.com/skip2/go-qrcode"
	xdraw "golang.org/x/image/draw"

	"github.com/ivlev/framereel/internal/assets"
	"github.com/ivlev/framereel/internal/scene"
)

// drawImage places a still centred on (x, y+dy) in a w x h box scaled by
// scale. fit is contain (default), cover, focus (cover cropped around the
// busiest region) or fill. Missing assets draw nothing.
func (r *Renderer) drawImage(dst *image.RGBA, sh scene.Shape) error {
	opacity := sh.Float("opacity", 1)
	scale := sh.Float("scale", 1)
	src := sh.Text("src", "")
	if opacity <= 0 || scale <= 0 || src == "" || r.Assets == nil {
		return nil
	}
	img, err := r.Assets.Image(src)
	if errors.Is(err, assets.ErrMissing) {
		return nil
	}
	if err != nil {
		return err
	}

	sb := img.Bounds()
	iw, ih := float64(sb.Dx()), float64(sb.Dy())
	w, h := sh.Float("w", 0), sh.Float("h", 0)
	switch {
	case w <= 0 && h <= 0:
		w, h = iw, ih
	case w <= 0:
		w = h * iw / ih
	case h <= 0:
		h = w * ih / iw
	}
	w, h = w*scale, h*scale
	cx, cy := sh.Float("x", 0), sh.Float("y", 0)+sh.Float("dy", 0)

	sr := sb
	fit := strings.ToLower(sh.Text("fit", "contain"))
	switch fit {
	case "contain":
		k := math.Min(w/iw, h/ih)
		w, h = iw*k, ih*k
	case "cover", "focus":
		k := math.Max(w/iw, h/ih)
		cw, ch := w/k, h/k
		fx, fy := float64(sb.Min.X)+iw/2, float64(sb.Min.Y)+ih/2
		if fit == "focus" {
			p, err := r.Assets.Focus(src)
			if err != nil {
				return err
			}
			fx, fy = float64(p.X), float64(p.Y)
		}
		x0 := clampInt(int(math.Round(fx-cw/2)), sb.Min.X, sb.Max.X-int(math.Round(cw)))
		y0 := clampInt(int(math.Round(fy-ch/2)), sb.Min.Y, sb.Max.Y-int(math.Round(ch)))
		sr = image.Rect(x0, y0, x0+int(math.Round(cw)), y0+int(math.Round(ch)))
	case "fill":
	default:
		return fmt.Errorf("image %s: unknown fit %q", src, sh.Text("fit", ""))
	}

	dr := centered(cx, cy, w, h)
	if dr.Empty() {
		return nil
	}
	xdraw.ApproxBiLinear.Scale(dst, dr, img, sr, xdraw.Over, maskFor(opacity))
	return nil
}

func clampInt(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	return min(max(v, lo), hi)
}

type qrKey struct {
	data   string
	size   int
	fg, bg color.NRGBA
}

// drawQR renders data as a size x size QR code centred on (x, y). Codes are
// cached since they rarely change between frames.
func (r *Renderer) drawQR(dst *image.RGBA, sh scene.Shape) error {
	opacity := sh.Float("opacity", 1)
	data := sh.Text("data", "")
	size := int(math.Round(sh.Float("size", 256)))
	if opacity <= 0 || data == "" || size <= 0 {
		return nil
	}
	fg, err := ParseColor(sh.Text("color", "#000000"))
	if err != nil {
		return err
	}
	bg, err := ParseColor(sh.Text("background", "#FFFFFF"))
	if err != nil {
		return err
	}

	key := qrKey{data: data, size: size, fg: fg, bg: bg}
	v, ok := r.qr.Load(key)
	if !ok {
		q, err := qrcode.New(data, qrcode.Medium)
		if err != nil {
			return fmt.Errorf("qr %q: %w", data, err)
		}
		q.ForegroundColor = fg
		q.BackgroundColor = bg
		v, _ = r.qr.LoadOrStore(key, q.Image(size))
	}
	code := v.(image.Image)

	dr := centered(sh.Float("x", 0), sh.Float("y", 0), float64(size), float64(size))
	xdraw.NearestNeighbor.Scale(dst, dr, code, code.Bounds(), xdraw.Over, maskFor(opacity))
	return nil
}

func centered(cx, cy, w, h float64) image.Rectangle {
	x0, y0 := int(math.Round(cx-w/2)), int(math.Round(cy-h/2))
	return image.Rect(x0, y0, x0+int(math.Round(w)), y0+int(math.Round(h)))
}

func maskFor(opacity float64) *xdraw.Options {
	if opacity >= 1 {
		return nil
	}
	return &xdraw.Options{SrcMask: image.NewUniform(alpha(opacity))}
}

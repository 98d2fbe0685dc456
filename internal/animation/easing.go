package animation

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Easing maps linear progress in [0,1] to eased progress. Results may leave
// [0,1] for overshoot curves such as Snap.
type Easing func(p float64) float64

// Built-in curves. The bezier parameters match the CSS/Remotion conventions the
// films were authored with.
var (
	Linear         Easing = func(p float64) float64 { return p }
	EaseIn                = Bezier(0.42, 0, 1, 1)
	EaseOut               = Bezier(0.16, 1, 0.3, 1)
	EaseInOut             = Bezier(0.42, 0, 0.58, 1)
	Smooth                = Bezier(0.25, 0.1, 0.25, 1)
	Snap                  = Bezier(0.68, -0.55, 0.27, 1.55)
	EaseInOutCubic Easing = easeInOutCubic
)

var namedEasings = map[string]Easing{
	"":             Linear,
	"linear":       Linear,
	"ease-in":      EaseIn,
	"ease-out":     EaseOut,
	"ease-in-out":  EaseInOut,
	"smooth":       Smooth,
	"snap":         Snap,
	"bounce":       Snap,
	"cubic-in-out": EaseInOutCubic,
}

// ParseEasing resolves an easing identifier. Besides the named curves it accepts
// "bezier(x1,y1,x2,y2)".
func ParseEasing(name string) (Easing, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if e, ok := namedEasings[key]; ok {
		return e, nil
	}
	if strings.HasPrefix(key, "bezier(") && strings.HasSuffix(key, ")") {
		parts := strings.Split(key[len("bezier("):len(key)-1], ",")
		if len(parts) != 4 {
			return nil, fmt.Errorf("easing %q: bezier needs 4 control values", name)
		}
		var c [4]float64
		for i, p := range parts {
			v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
			if err != nil {
				return nil, fmt.Errorf("easing %q: %w", name, err)
			}
			c[i] = v
		}
		if c[0] < 0 || c[0] > 1 || c[2] < 0 || c[2] > 1 {
			return nil, fmt.Errorf("easing %q: x control points must be within [0,1]", name)
		}
		return Bezier(c[0], c[1], c[2], c[3]), nil
	}
	return nil, fmt.Errorf("unknown easing %q (want %s or bezier(x1,y1,x2,y2))", name, strings.Join(EasingNames(), ", "))
}

// EasingNames lists the named curves accepted by ParseEasing.
func EasingNames() []string {
	return []string{"linear", "ease-in", "ease-out", "ease-in-out", "smooth", "snap", "bounce", "cubic-in-out"}
}

// Bezier returns a cubic-bezier easing through (0,0), (x1,y1), (x2,y2), (1,1).
// x1 and x2 are expected to lie in [0,1] so that x(t) is monotonic.
func Bezier(x1, y1, x2, y2 float64) Easing {
	if x1 == y1 && x2 == y2 {
		return Linear
	}
	return func(p float64) float64 {
		if p <= 0 {
			return 0
		}
		if p >= 1 {
			return 1
		}
		return bezierCoord(solveBezierT(p, x1, x2), y1, y2)
	}
}

// bezierCoord evaluates one axis of the curve at parameter t.
func bezierCoord(t, a1, a2 float64) float64 {
	a := 1 - 3*a2 + 3*a1
	b := 3*a2 - 6*a1
	c := 3 * a1
	return ((a*t+b)*t + c) * t
}

func bezierSlope(t, a1, a2 float64) float64 {
	a := 1 - 3*a2 + 3*a1
	b := 3*a2 - 6*a1
	c := 3 * a1
	return 3*a*t*t + 2*b*t + c
}

// solveBezierT finds t with x(t) == x. Newton first, bisection if the slope
// flattens out.
func solveBezierT(x, x1, x2 float64) float64 {
	t := x
	for i := 0; i < 8; i++ {
		diff := bezierCoord(t, x1, x2) - x
		if math.Abs(diff) < 1e-7 {
			return t
		}
		slope := bezierSlope(t, x1, x2)
		if math.Abs(slope) < 1e-6 {
			break
		}
		t -= diff / slope
	}

	lo, hi := 0.0, 1.0
	t = x
	for i := 0; i < 50; i++ {
		v := bezierCoord(t, x1, x2)
		if math.Abs(v-x) < 1e-7 {
			return t
		}
		if v < x {
			lo = t
		} else {
			hi = t
		}
		t = (lo + hi) / 2
	}
	return t
}

// easeInOutCubic applies smooth easing function
func easeInOutCubic(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	return 1 - math.Pow(-2*t+2, 3)/2
}

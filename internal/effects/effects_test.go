package effects

import (
	"errors"
	"math"
	"testing"

	"github.com/ivlev/framereel/internal/scene"
)

func build(t *testing.T, p Params) *scene.Scene {
	t.Helper()
	exp, err := Apply(p)
	if err != nil {
		t.Fatalf("Apply(%s): %v", p.Type, err)
	}
	s, err := scene.New("fx", exp.Properties, exp.Elements)
	if err != nil {
		t.Fatalf("scene.New(%s): %v", p.Type, err)
	}
	return s
}

func TestAllEffectsCompile(t *testing.T) {
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			s := build(t, Params{Type: name, Text: "Systems", Width: 1920, Height: 1080})
			if s.ElementCount() == 0 {
				t.Errorf("%s produced no elements", name)
			}
			// Every frame, including ones outside the scene, must evaluate.
			for _, f := range []int{-30, 0, 15, 149, 1000} {
				props, shapes := s.At(f)
				for k, v := range props {
					if math.IsNaN(v) || math.IsInf(v, 0) {
						t.Errorf("frame %d: %s = %v", f, k, v)
					}
				}
				if len(shapes) != s.ElementCount() {
					t.Errorf("frame %d: %d shapes, want %d", f, len(shapes), s.ElementCount())
				}
			}
		})
	}
}

func TestTypewriter(t *testing.T) {
	s := build(t, Params{Type: "typewriter", Name: "title", Text: "Domains", Delay: 10})

	tests := []struct {
		frame   int
		visible float64
		cursor  float64
	}{
		{0, 0, 0},
		{9, 0, 0},
		{10, 0, 0},
		{20, -1, 1}, // blink period restarts every 20 frames
		{25, -1, 0.5},
		{30, -1, 0},
		{31, 7, 0},
		{100, 7, 0},
	}
	for _, tt := range tests {
		p := s.PropertiesAt(tt.frame)
		if tt.visible >= 0 && p.Get("title.chars") != tt.visible {
			t.Errorf("frame %d: chars = %v, want %v", tt.frame, p.Get("title.chars"), tt.visible)
		}
		if p.Get("title.cursor") != tt.cursor {
			t.Errorf("frame %d: cursor = %v, want %v", tt.frame, p.Get("title.cursor"), tt.cursor)
		}
	}

	_, shapes := s.At(100)
	if got := shapes[0].Text("font", ""); got != "mono" {
		t.Errorf("font = %q, want mono", got)
	}
}

func TestStaggerPerCharacterDelay(t *testing.T) {
	s := build(t, Params{Type: "stagger", Name: "s", Text: "abc"})
	if s.ElementCount() != 3 {
		t.Fatalf("elements = %d, want 3", s.ElementCount())
	}

	p := s.PropertiesAt(2)
	if p.Get("s.op.1") != 0 {
		t.Errorf("second glyph should start at frame 2, got %v", p.Get("s.op.1"))
	}
	if p.Get("s.op.0") <= 0 {
		t.Errorf("first glyph should be fading in at frame 2")
	}
	if v := s.PropertiesAt(20).Get("s.op.2"); v != 1 {
		t.Errorf("third glyph opacity at 20 = %v, want 1", v)
	}

	_, shapes := s.At(5)
	for i, sh := range shapes {
		if int(sh.Float("glyph", -1)) != i {
			t.Errorf("shape %d glyph = %v", i, sh.Float("glyph", -1))
		}
		if sh.Text("text", "") != "abc" {
			t.Errorf("shape %d text = %q", i, sh.Text("text", ""))
		}
	}
}

func TestTextIsNormalized(t *testing.T) {
	// "e" + combining acute composes to a single character.
	s := build(t, Params{Type: "risefade", Text: "Cafe\u0301"})
	if s.ElementCount() != 4 {
		t.Errorf("elements = %d, want 4", s.ElementCount())
	}
	_, shapes := s.At(0)
	if got := shapes[0].Text("text", ""); got != "Caf\u00e9" {
		t.Errorf("text = %q, want NFC form", got)
	}
}

func TestZoomGrowAndReveal(t *testing.T) {
	s := build(t, Params{Type: "zoomgrow", Name: "z", Text: "Dimensions"})
	if v := s.PropertiesAt(0).Get("z.scale"); v != 0.1 {
		t.Errorf("start scale = %v", v)
	}
	if v := s.PropertiesAt(135).Get("z.scale"); v != 1 {
		t.Errorf("end scale = %v", v)
	}

	r := build(t, Params{Type: "reveal", Name: "r", Text: "Exploring intelligence across domains, systems, and dimensions."})
	p := r.PropertiesAt(0)
	if p.Get("r.dy") != 20 || p.Get("r.op") != 0 {
		t.Errorf("reveal start = dy %v op %v", p.Get("r.dy"), p.Get("r.op"))
	}
	p = r.PropertiesAt(50)
	if p.Get("r.dy") != 0 || p.Get("r.op") != 1 {
		t.Errorf("reveal end = dy %v op %v", p.Get("r.dy"), p.Get("r.op"))
	}
}

func TestFadeIn(t *testing.T) {
	s := build(t, Params{Type: "fadein", Name: "f", Text: "Hello", Delay: 0, Duration: 60})
	if v := s.PropertiesAt(18).Get("f.op"); v != 0 {
		t.Errorf("opacity should hold at 0 until 30%%, got %v", v)
	}
	if v := s.PropertiesAt(60).Get("f.op"); v != 1 {
		t.Errorf("opacity at end = %v", v)
	}
	if v := s.PropertiesAt(0).Get("f.scale"); v != 0.95 {
		t.Errorf("scale at rest = %v", v)
	}
}

func TestEndFrame(t *testing.T) {
	s := build(t, Params{Type: "endframe", Name: "end", Width: 1920, Height: 1080})
	_, shapes := s.At(0)
	if len(shapes) != 2 || shapes[0].Kind != scene.ElementFill || shapes[1].Kind != scene.ElementImage {
		t.Fatalf("unexpected shapes %+v", shapes)
	}
	if shapes[1].Text("src", "") != DefaultLogo {
		t.Errorf("src = %q", shapes[1].Text("src", ""))
	}
	if shapes[1].Float("x", 0) != 960 || shapes[1].Float("y", 0) != 540 {
		t.Errorf("logo not centred: %v,%v", shapes[1].Float("x", 0), shapes[1].Float("y", 0))
	}
}

func TestErrors(t *testing.T) {
	if _, err := Get("sparkle"); !errors.Is(err, ErrUnknownEffect) {
		t.Errorf("Get(sparkle) err = %v", err)
	}
	if _, err := Apply(Params{Type: "stagger"}); err == nil {
		t.Error("empty text should fail")
	}
}

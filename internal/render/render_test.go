package render

import (
	"image"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/guidoenr/vaporwall/internal/analyzer"
	"github.com/guidoenr/vaporwall/internal/model"
	"github.com/guidoenr/vaporwall/internal/params"
	"github.com/guidoenr/vaporwall/internal/scene"
)

func TestNewRejectsInvalidDimensions(t *testing.T) {
	if _, err := New(0, 10); err == nil {
		t.Fatalf("expected error for zero width")
	}
	if _, err := New(10, -1); err == nil {
		t.Fatalf("expected error for negative height")
	}
}

func TestRenderProducesOpaqueFrame(t *testing.T) {
	st := scene.New(scene.Config{Width: 320, Height: 180, Seed: 7, FPS: 60})
	for i := 0; i < 30; i++ {
		st.Step(analyzer.Signals{Raw: 0.4, Level: 0.4, Beat: 0.3, Energy: 0.5}, scene.TickSeconds)
	}
	st.AddRipple(100, 90)

	r, err := New(320, 180)
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	frame := r.Render(st, time.Date(2026, 1, 1, 12, 34, 0, 0, time.UTC))
	if frame.Bounds() != image.Rect(0, 0, 320, 180) {
		t.Fatalf("unexpected bounds %v", frame.Bounds())
	}
	for _, pt := range []image.Point{{0, 0}, {160, 90}, {319, 179}} {
		px := frame.RGBAAt(pt.X, pt.Y)
		if px.A != 255 {
			t.Fatalf("pixel %v alpha = %d, want 255 in full mode", pt, px.A)
		}
	}
}

func TestRenderFollowsStateResize(t *testing.T) {
	st := scene.New(scene.Config{Width: 200, Height: 120, Seed: 1})
	r, _ := New(200, 120)
	r.Render(st, time.Now())

	st.Resize(120, 200)
	st.Step(analyzer.Signals{}, scene.TickSeconds)
	frame := r.Render(st, time.Now())
	if frame.Bounds().Dx() != 120 || frame.Bounds().Dy() != 200 {
		t.Fatalf("frame not resized: %v", frame.Bounds())
	}
}

func TestRenderWithBrokenMeshDoesNotPanic(t *testing.T) {
	st := scene.New(scene.Config{Width: 160, Height: 90, Seed: 3})
	r, _ := New(160, 90)
	r.SetModel(&model.Mesh{
		Vertices: [][3]float64{{0, 0, 0}, {1, 0, 0}},
		Edges:    [][2]int{{0, 1}, {0, 5}, {-1, 1}},
	})
	r.Render(st, time.Now())
	if r.Model() == nil {
		t.Fatalf("model dropped")
	}
}

func TestBackgroundBrightnessFloor(t *testing.T) {
	if got := BackgroundBrightness(analyzer.Signals{}); got != MinBackgroundBrightness {
		t.Fatalf("silent brightness = %f, want %f", got, MinBackgroundBrightness)
	}
	if got := BackgroundBrightness(analyzer.Signals{Energy: -3, Beat: -1}); got < MinBackgroundBrightness {
		t.Fatalf("brightness fell below floor: %f", got)
	}
	if got := BackgroundBrightness(analyzer.Signals{Energy: 5, Beat: 5}); got > 1 {
		t.Fatalf("brightness above 1: %f", got)
	}
}

func TestSilentBackgroundStaysVisible(t *testing.T) {
	st := scene.New(scene.Config{Width: 120, Height: 80, Seed: 2})
	for i := 0; i < 300; i++ {
		st.Step(analyzer.Signals{}, scene.TickSeconds)
	}
	c := NewCanvas(120, 80)
	paintBackground(c, st)
	col, a := c.At(0, 0)
	if a != 1 {
		t.Fatalf("alpha = %f, want 1", a)
	}
	if math.Max(col.R, math.Max(col.G, col.B)) <= 0.02 {
		t.Fatalf("background went black: %+v", col)
	}
}

func TestOverlayBackgroundAlpha(t *testing.T) {
	st := scene.New(scene.Config{Width: 120, Height: 80, Seed: 2, Background: params.BackgroundOverlay})
	c := NewCanvas(120, 80)
	paintBackground(c, st)
	_, a := c.At(0, 0)
	if math.Abs(a-0.42) > 1e-6 {
		t.Fatalf("overlay alpha = %f, want 0.42", a)
	}
}

func TestBlendModes(t *testing.T) {
	c := NewCanvas(3, 1)
	white := RGB{1, 1, 1}

	c.Set(0, 0, RGB{}, 1)
	c.Blend(0, 0, white, 0.5, BlendOver)
	if col, _ := c.At(0, 0); math.Abs(col.R-0.5) > 1e-6 {
		t.Fatalf("over = %f, want 0.5", col.R)
	}

	c.Set(1, 0, RGB{0.8, 0.8, 0.8}, 1)
	c.Blend(1, 0, white, 0.5, BlendAdd)
	if col, _ := c.At(1, 0); col.R != 1 {
		t.Fatalf("add should saturate, got %f", col.R)
	}

	c.Set(2, 0, RGB{0.5, 0.5, 0.5}, 0)
	c.Blend(2, 0, white, 0.5, BlendScreen)
	col, a := c.At(2, 0)
	if math.Abs(col.R-0.75) > 1e-6 {
		t.Fatalf("screen = %f, want 0.75", col.R)
	}
	if math.Abs(a-0.5) > 1e-6 {
		t.Fatalf("coverage = %f, want 0.5", a)
	}
}

func TestExportPremultiplies(t *testing.T) {
	c := NewCanvas(1, 1)
	c.Set(0, 0, RGB{1, 1, 1}, 0.5)
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	c.Export(img)
	px := img.RGBAAt(0, 0)
	if px.A != 128 || px.R != 128 {
		t.Fatalf("unexpected pixel %+v", px)
	}
}

func TestCrossingStrokesDoNotCancel(t *testing.T) {
	c := NewCanvas(20, 20)
	c.Segments([][2]Point{
		{{0, 10}, {20, 10}},
		{{10, 20}, {10, 0}},
	}, 2, RGB{1, 1, 1}, 1, BlendOver)
	if _, a := c.At(10, 10); a < 0.99 {
		t.Fatalf("intersection coverage = %f", a)
	}
}

func TestRingLeavesCentreEmpty(t *testing.T) {
	c := NewCanvas(40, 40)
	c.Ring(20, 20, 10, 2, RGB{1, 1, 1}, 1, BlendOver)
	if _, a := c.At(20, 20); a != 0 {
		t.Fatalf("centre coverage = %f", a)
	}
	if _, a := c.At(30, 20); a < 0.5 {
		t.Fatalf("ring coverage = %f", a)
	}
}

func TestPrimitivesClipOffCanvas(t *testing.T) {
	c := NewCanvas(10, 10)
	c.FillCircle(-50, -50, 5, RGB{1, 1, 1}, 1, BlendOver)
	c.Line(-5, -5, 50, 50, 3, RGB{1, 1, 1}, 1, BlendScreen)
	c.Glow(100, 100, 20, RGB{1, 1, 1}, 1, BlendAdd)
	c.Ring(5, 5, 0, 2, RGB{1, 1, 1}, 1, BlendOver)
	c.Line(math.NaN(), 0, 1, 1, 1, RGB{1, 1, 1}, 1, BlendOver)
	if _, a := c.At(5, 5); a <= 0 {
		t.Fatalf("diagonal line should cross the centre")
	}
}

func TestHueStaysInRange(t *testing.T) {
	for _, cycle := range []float64{-3.7, -0.2, 0, 0.5, 0.999, 12.3, math.NaN()} {
		for _, off := range []float64{0, 0.55, 0.95} {
			c := Hue(cycle, off, 1.4, 2)
			for _, v := range []float64{c.R, c.G, c.B} {
				if v < 0 || v > 1 || math.IsNaN(v) {
					t.Fatalf("Hue(%f,%f) out of range: %+v", cycle, off, c)
				}
			}
		}
	}
}

func TestGlyphGlowsIsStableAndSparse(t *testing.T) {
	if GlyphGlows(3, 4, 60) != GlyphGlows(3, 4, 61) {
		t.Fatalf("glow choice changed inside one time key")
	}
	hits := 0
	for line := 0; line < 100; line++ {
		for col := 0; col < 100; col++ {
			if GlyphGlows(line, col, 120) {
				hits++
			}
		}
	}
	if hits < 200 || hits > 500 {
		t.Fatalf("glow hits = %d of 10000", hits)
	}
}

func TestPulseAndRippleSizesGrowWithSignals(t *testing.T) {
	if PulseRadius(500, 1, 1) <= PulseRadius(500, 0, 0) {
		t.Fatalf("pulse should grow with energy and beat")
	}
	if RippleRadius(1, 0) <= RippleRadius(0, 0) {
		t.Fatalf("ripple should expand with progress")
	}
	if GridAmplitude(-1, -1) < 0 {
		t.Fatalf("negative grid amplitude")
	}
}

func TestTextMasks(t *testing.T) {
	if w := textWidth("15:04"); w != 35 {
		t.Fatalf("text width = %d, want 35", w)
	}
	tc := newTextCache()
	m := tc.mask("15:04", 3)
	if m.Bounds().Dx() != 105 || m.Bounds().Dy() != 39 {
		t.Fatalf("scaled bounds = %v", m.Bounds())
	}
	if tc.mask("15:04", 3) != m {
		t.Fatalf("mask not cached")
	}
	if ClockScale(100, 100) != 3 || ClockScale(1920, 1080) != 12 {
		t.Fatalf("unexpected clock scales")
	}
}

func TestANSIEncode(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 40, 20))
	var enc ANSIEncoder
	frame := enc.Encode(img, 8, 4)
	if len(frame.Lines) != 4 {
		t.Fatalf("lines = %d, want 4", len(frame.Lines))
	}
	for _, line := range frame.Lines {
		if strings.Count(line, halfBlock) != 8 || !strings.HasSuffix(line, resetANSI) {
			t.Fatalf("malformed line %q", line)
		}
	}
	if got := enc.Encode(nil, 8, 4); len(got.Lines) != 0 {
		t.Fatalf("nil image should produce empty frame")
	}
}

func TestRGBToANSI(t *testing.T) {
	cases := []struct {
		r, g, b float64
		want    int
	}{
		{0, 0, 0, 232},
		{1, 1, 1, 255},
		{1, 0, 0, 196},
		{0, 0, 1, 21},
	}
	for _, tc := range cases {
		if got := rgbToANSI(tc.r, tc.g, tc.b); got != tc.want {
			t.Fatalf("rgbToANSI(%v,%v,%v) = %d, want %d", tc.r, tc.g, tc.b, got, tc.want)
		}
	}
}

func TestStatusLine(t *testing.T) {
	st := scene.New(scene.Config{Width: 10, Height: 10})
	var enc ANSIEncoder
	s := enc.Status(st, "simulated", false, 59.94)
	if !strings.Contains(s, "audio=simulated bg=") || !strings.Contains(s, "fps 59.9") {
		t.Fatalf("unexpected status %q", s)
	}
	if s := enc.Status(st, "microphone", true, 60); !strings.Contains(s, "audio=microphone (stopped) bg=") {
		t.Fatalf("stopped stream not shown: %q", s)
	}
}

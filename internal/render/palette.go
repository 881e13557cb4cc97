package render

import (
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// RGB is a linear colour with components in [0,1].
type RGB struct {
	R, G, B float64
}

// Scale multiplies every component by f.
func (c RGB) Scale(f float64) RGB {
	return RGB{c.R * f, c.G * f, c.B * f}
}

// Mix interpolates between a and b.
func Mix(a, b RGB, t float64) RGB {
	t = clamp01(t)
	return RGB{lerp(a.R, b.R, t), lerp(a.G, b.G, t), lerp(a.B, b.B, t)}
}

// Hue derives a layer colour from the global colour cycle. offset shifts the
// hue per layer so every layer drifts together without sharing one colour.
func Hue(cycle, offset, sat, val float64) RGB {
	h := math.Mod(cycle+offset, 1)
	switch {
	case math.IsNaN(h):
		h = 0
	case h < 0:
		h++
	}
	c := colorful.Hsv(h*360, clamp01(sat), clamp01(val)).Clamped()
	return RGB{c.R, c.G, c.B}
}

// MixHcl blends two colours in HCL space, which keeps the midpoint of neon
// pairs from going muddy.
func MixHcl(a, b RGB, t float64) RGB {
	ca := colorful.Color{R: a.R, G: a.G, B: a.B}
	cb := colorful.Color{R: b.R, G: b.G, B: b.B}
	m := ca.BlendHcl(cb, clamp01(t)).Clamped()
	return RGB{m.R, m.G, m.B}
}

func clamp01(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo || math.IsNaN(v) {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func lerp(a, b, t float64) float64 {
	return a*(1-t) + b*t
}

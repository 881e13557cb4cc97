package render

import (
	"math"

	"github.com/guidoenr/vaporwall/internal/scene"
)

const (
	gridRows    = 18
	gridColumns = 24
	gridSamples = 48
)

// StarBrightness is the twinkling brightness of one star this frame.
func StarBrightness(s scene.Star, phase, energy float64) float64 {
	tw := 0.65 + 0.35*math.Sin(phase*2.1+s.Twinkle)
	return clamp01(s.Brightness * tw * (0.7 + clamp01(energy)*0.6))
}

func paintStars(c *Canvas, st *scene.State) {
	sig := st.Signals
	zoom := scene.Zoom(sig.Raw, sig.Beat)
	trail := 3 + clamp01(sig.Beat)*6
	for _, s := range st.Stars.Stars {
		b := StarBrightness(s, st.Phase, sig.Energy)
		if b <= 0.01 {
			continue
		}
		col := Hue(st.ColorCycle, 0.55+s.Hue*0.3, 0.35, 1)
		tx := s.X - s.VX*zoom*s.Depth*trail
		ty := s.Y - s.VY*zoom*s.Depth*trail
		c.Line(tx, ty, s.X, s.Y, math.Max(0.6, s.Size*0.8), col, b*0.55, BlendScreen)
		c.Glow(s.X, s.Y, s.Size*2.4+clamp01(sig.Beat)*2, col, b*0.8, BlendScreen)
		c.FillCircle(s.X, s.Y, math.Max(0.5, s.Size*0.6), col, b, BlendScreen)
	}
}

// GridAmplitude is the peak displacement of the grid lines in pixels.
func GridAmplitude(raw, beat float64) float64 {
	return 3 + clamp01(raw)*26 + clamp01(beat)*18
}

// paintGrid draws the perspective floor: horizontal rows bunched toward the
// horizon and rays from the vanishing point, both displaced by sinusoids
// whose amplitude follows the signals.
func paintGrid(c *Canvas, st *scene.State) {
	w, h := c.Size()
	fw, fh := float64(w), float64(h)
	hz := horizonY(fh)
	sig := st.Signals
	amp := GridAmplitude(sig.Raw, sig.Beat)

	rowCol := Hue(st.ColorCycle, 0.83, 0.7, 0.9)
	scroll := frac(st.Phase * 0.08)
	pts := make([]Point, gridSamples+1)
	for i := 0; i < gridRows; i++ {
		t := (float64(i) + scroll) / gridRows
		e := math.Pow(t, 2.1)
		y0 := hz + e*(fh-hz)
		for k := range pts {
			x := fw * float64(k) / gridSamples
			pts[k] = Point{x, y0 + gridWarp(x, float64(i), st.Phase)*amp*e}
		}
		c.Polyline(pts, 1+e*1.6, rowCol, 0.25+0.6*e, BlendScreen)
	}

	rayCol := Hue(st.ColorCycle, 0.50, 0.7, 0.85)
	ray := make([]Point, 25)
	span := fw * 1.6 / gridColumns
	for j := -gridColumns / 2; j <= gridColumns/2; j++ {
		xb := fw/2 + float64(j)*span
		fj := float64(j)
		for k := range ray {
			t := float64(k) / float64(len(ray)-1)
			dx := math.Sin(t*5+st.Phase*1.1+fj*0.4)*amp*0.6*t + math.Cos(st.Phase*0.7+fj)*amp*0.25*t
			ray[k] = Point{lerp(fw/2, xb, t) + dx, hz + t*(fh-hz)}
		}
		c.Polyline(ray, 1.2, rayCol, 0.35, BlendScreen)
	}
}

// PulseRadius is the radius of the centre pulse ring on a surface whose
// shorter side is u pixels.
func PulseRadius(u, energy, beat float64) float64 {
	return u * 0.08 * (1 + clamp01(energy)*0.9 + clamp01(beat)*0.6)
}

// flashThreshold is the beat level above which the pulse gains a flash ring.
const flashThreshold = 0.08

func paintPulse(c *Canvas, st *scene.State) {
	w, h := c.Size()
	fw, fh := float64(w), float64(h)
	sig := st.Signals
	energy, beat := clamp01(sig.Energy), clamp01(sig.Beat)
	cx, cy := fw/2, fh*0.42
	r := PulseRadius(math.Min(fw, fh), energy, beat)

	col := Hue(st.ColorCycle, 0.92, 0.6, 1)
	c.Glow(cx, cy, r*1.4, col, 0.15+energy*0.25, BlendScreen)
	c.Ring(cx, cy, r, 2+energy*3, col, 0.5+energy*0.4, BlendScreen)
	if beat > flashThreshold {
		c.Ring(cx, cy, r*1.35, 1.5+beat*4, Hue(st.ColorCycle, 0.08, 0.4, 1), beat*0.8, BlendScreen)
	}
}

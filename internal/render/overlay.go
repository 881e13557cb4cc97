package render

import (
	"image"
	"math"
	"time"

	"github.com/guidoenr/vaporwall/internal/scene"
)

const (
	glyphGlowChance = 0.035
	glowKeyTicks    = 6
)

// TickerPanel is the panel rectangle on a width x height surface.
func TickerPanel(width, height int) image.Rectangle {
	fw, fh := float64(width), float64(height)
	x := int(fw * 0.035)
	y := int(fh * 0.12)
	pw := int(math.Max(160, fw*0.24))
	ph := int(fh * 0.46)
	return image.Rect(x, y, x+pw, y+ph)
}

// GlyphGlows reports whether a glyph gets the extra glow pass. The choice
// depends only on the line, the column and a coarse time key, so it is
// stable for glowKeyTicks ticks at a time.
func GlyphGlows(line, col int, tick uint64) bool {
	return scene.Hash(int64(line), int64(col), int64(tick/glowKeyTicks)) < glyphGlowChance
}

func (r *Renderer) paintTicker(c *Canvas, st *scene.State) {
	lines := st.Ticker
	if len(lines) == 0 {
		return
	}
	panel := TickerPanel(c.Size()).Intersect(c.Bounds())
	if panel.Empty() {
		return
	}
	px, py := float64(panel.Min.X), float64(panel.Min.Y)
	pw, ph := float64(panel.Dx()), float64(panel.Dy())
	beat := clamp01(st.Signals.Beat)

	c.FillRect(px, py, pw, ph, Hue(st.ColorCycle, 0.72, 0.6, 0.12), 0.45, BlendOver)
	border := Hue(st.ColorCycle, 0.50, 0.6, 0.9)
	c.Polyline([]Point{{px, py}, {px + pw, py}, {px + pw, py + ph}, {px, py + ph}, {px, py}}, 1, border, 0.4, BlendScreen)

	text := Hue(st.ColorCycle, 0.48, 0.5, 0.85)
	spark := Hue(st.ColorCycle, 0.90, 0.5, 1)
	inner := panel.Inset(3)

	lh := float64(scene.TickerLineHeight)
	off := math.Max(0, st.TickerScroll)
	first := int(off / lh)
	fracOff := off - float64(first)*lh
	visible := int(ph/lh) + 2

	for k := 0; k < visible; k++ {
		idx := (first + k) % len(lines)
		y := int(py + 4 + float64(k)*lh - fracOff)
		x := int(px) + 6
		line := lines[idx]
		c.DrawMask(r.text.mask(line, 1), x, y, inner, text, 0.75, BlendOver)

		for col, ch := range []rune(line) {
			if ch == ' ' || !GlyphGlows(idx, col, st.Tick) {
				continue
			}
			gx := x + col*glyphWidth
			if gx+glyphWidth > inner.Max.X {
				break
			}
			c.Glow(float64(gx)+glyphWidth/2, float64(y)+glyphHeight/2, glyphWidth, spark, 0.6+beat*0.4, BlendScreen)
			c.DrawMask(r.text.mask(string(ch), 1), gx, y, inner, spark, 1, BlendScreen)
		}
	}
}

func paintWaveform(c *Canvas, st *scene.State) {
	n := st.Wave.Len()
	if n < 2 {
		return
	}
	w, h := c.Size()
	fw, fh := float64(w), float64(h)
	width := fw * 0.62
	left := (fw - width) / 2
	base := fh * 0.86
	amp := fh * 0.075

	top := make([]Point, n)
	poly := make([]Point, 0, 2*n)
	for i := 0; i < n; i++ {
		t := float64(i) / float64(n-1)
		env := math.Pow(math.Sin(math.Pi*t), 0.7)
		a := clamp01(st.Wave.At(i)) * amp * env
		top[i] = Point{left + t*width, base - a}
	}
	poly = append(poly, top...)
	for i := n - 1; i >= 0; i-- {
		t := float64(i) / float64(n-1)
		env := math.Pow(math.Sin(math.Pi*t), 0.7)
		a := clamp01(st.Wave.At(i)) * amp * env
		poly = append(poly, Point{left + t*width, base + a*0.6})
	}
	c.FillPolygon(poly, Hue(st.ColorCycle, 0.55, 0.6, 0.8), 0.28, BlendScreen)
	c.Polyline(top, 1.6, Hue(st.ColorCycle, 0.90, 0.5, 1), 0.8, BlendScreen)

	sweep := left + frac(st.Phase*0.045)*width
	c.GlowEllipse(sweep, base, width*0.04, amp*1.4, Hue(st.ColorCycle, 0.15, 0.3, 1), 0.35+clamp01(st.Signals.Beat)*0.3, BlendScreen)
}

// ClockScale is the integer glyph magnification for the clock.
func ClockScale(width, height int) int {
	return max(3, int(math.Min(float64(width), float64(height))/90))
}

func (r *Renderer) paintClock(c *Canvas, st *scene.State, now time.Time) {
	label := now.Format("15:04")
	w, h := c.Size()
	scale := ClockScale(w, h)
	total := textWidth(label) * scale
	x0 := int(float64(w)*0.95) - total
	y0 := int(float64(h) * 0.07)
	energy := clamp01(st.Signals.Energy)

	layers := 6
	step := math.Max(1, float64(scale)*0.35)
	bounds := c.Bounds()
	for i, ch := range []rune(label) {
		m := r.text.mask(string(ch), scale)
		gx := x0 + i*glyphWidth*scale
		fi := float64(i)

		for k := layers; k >= 1; k-- {
			off := int(float64(k) * step)
			shade := 0.25 + 0.5*(1-float64(k)/float64(layers))
			c.DrawMask(m, gx+off, y0+off, bounds, Hue(st.ColorCycle, 0.78+fi*0.02, 0.7, shade), 0.9, BlendOver)
		}

		ga := 0.12 + energy*0.15
		glow := Hue(st.ColorCycle, 0.92, 0.5, 1)
		for _, d := range [4][2]int{{-scale, 0}, {scale, 0}, {0, -scale}, {0, scale}} {
			c.DrawMask(m, gx+d[0], y0+d[1], bounds, glow, ga, BlendScreen)
		}

		c.DrawMask(m, gx, y0, bounds, Hue(st.ColorCycle, 0.50+fi*0.03, 0.35, 1), 1, BlendOver)
	}
}

// RippleRadius is the radius of a ripple at progress p.
func RippleRadius(p, energy float64) float64 {
	return 18 + clamp01(p)*(140+clamp01(energy)*80)
}

func paintRipples(c *Canvas, st *scene.State) {
	energy, beat := clamp01(st.Signals.Energy), clamp01(st.Signals.Beat)
	for _, rp := range st.Ripples {
		p := rp.Progress()
		a := math.Pow(1-p, 1.5) * (0.6 + beat*0.4)
		if a <= 0.005 {
			continue
		}
		rad := RippleRadius(p, energy)
		col := Hue(st.ColorCycle, 0.52+p*0.2, 0.6, 1)
		c.Ring(rp.X, rp.Y, rad, 2+beat*3*(1-p), col, a, BlendScreen)
		c.Ring(rp.X, rp.Y, rad*0.6, 1.2, col, a*0.5, BlendScreen)
	}
}

func (r *Renderer) paintCredit(c *Canvas, st *scene.State) {
	credit := st.Params.Credit
	if credit == "" {
		return
	}
	w, h := c.Size()
	x := w - textWidth(credit) - 12
	y := h - 10 - glyphHeight
	c.DrawMask(r.text.mask(credit, 1), x, y, c.Bounds(), Hue(st.ColorCycle, 0.10, 0.2, 0.9), 0.32, BlendOver)
}

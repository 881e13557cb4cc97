package render

import (
	"math"
	"runtime"
	"sync"

	"github.com/guidoenr/vaporwall/internal/analyzer"
	"github.com/guidoenr/vaporwall/internal/scene"
)

const (
	// MinBackgroundBrightness keeps the backdrop visible through silence.
	MinBackgroundBrightness = 0.16

	horizonRel = 0.58
	sunRel     = 0.16
	scanPeriod = 9.0
)

// BackgroundBrightness is the backdrop value for the current signals. It
// never drops below MinBackgroundBrightness.
func BackgroundBrightness(sig analyzer.Signals) float64 {
	b := MinBackgroundBrightness + clamp01(sig.Energy)*0.22 + clamp01(sig.Beat)*0.10
	return clampFloat(b, MinBackgroundBrightness, 1)
}

func horizonY(h float64) float64 { return h * horizonRel }

// paintBackground fills every pixel with the gradient at the current
// background opacity, splitting rows across workers.
func paintBackground(c *Canvas, st *scene.State) {
	w, h := c.Size()
	sig := st.Signals
	bright := BackgroundBrightness(sig)
	opacity := clampFloat(st.Params.Opacity, 0, 1)

	top := Hue(st.ColorCycle, 0.70, 0.75, bright*0.55)
	mid := Hue(st.ColorCycle, 0.88, 0.85, bright)
	floor := Hue(st.ColorCycle, 0.75, 0.80, bright*0.45)
	glow := Hue(st.ColorCycle, 0.95, 0.60, bright)

	fw, fh := float64(w), float64(h)
	hz := horizonY(fh)
	glowGain := 0.35 + clamp01(sig.Energy)*0.25

	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers > h {
		numWorkers = h
	}
	if numWorkers < 1 {
		numWorkers = 1
	}

	var wg sync.WaitGroup
	rowJobs := make(chan int, numWorkers)
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for y := range rowJobs {
				fy := float64(y) + 0.5
				var base RGB
				if fy < hz {
					base = MixHcl(top, mid, smoothstep(fy/hz))
				} else {
					base = Mix(mid, floor, (fy-hz)/math.Max(1, fh-hz))
				}
				// One haze sample per row keeps the fill cheap.
				n := 1 + haze(fy*0.006, float64(y%97)*0.01, st.Phase*0.2)*0.04
				base = base.Scale(n)
				dy := (fy - hz) / fh
				for x := 0; x < w; x++ {
					dx := (float64(x) + 0.5 - fw/2) / fw
					g := math.Exp(-(dx*dx*6+dy*dy*18)) * glowGain
					c.Set(x, y, RGB{
						R: base.R + glow.R*g,
						G: base.G + glow.G*g,
						B: base.B + glow.B*g,
					}, opacity)
				}
			}
		}()
	}
	for y := 0; y < h; y++ {
		rowJobs <- y
	}
	close(rowJobs)
	wg.Wait()

	paintGlowEllipses(c, st)
	paintSun(c, st)
}

func paintGlowEllipses(c *Canvas, st *scene.State) {
	w, h := c.Size()
	fw, fh := float64(w), float64(h)
	level := clamp01(st.Signals.Level)
	a := 0.10 + level*0.25
	c.GlowEllipse(fw*0.25, fh*0.30, fw*0.30, fh*0.22, Hue(st.ColorCycle, 0.58, 0.6, 0.9), a, BlendScreen)
	c.GlowEllipse(fw*0.78, fh*0.40, fw*0.26, fh*0.20, Hue(st.ColorCycle, 0.85, 0.6, 0.9), a*0.8, BlendScreen)
}

// paintSun draws the horizon sun with scan-line gaps that widen toward its
// base.
func paintSun(c *Canvas, st *scene.State) {
	w, h := c.Size()
	fw, fh := float64(w), float64(h)
	sig := st.Signals
	u := math.Min(fw, fh)
	hz := horizonY(fh)
	r := u * sunRel * (1 + clamp01(sig.Energy)*0.08)
	cx, cy := fw/2, hz-r*0.35

	hot := Hue(st.ColorCycle, 0.13, 0.80, 1)
	cool := Hue(st.ColorCycle, 0.93, 0.80, 1)
	c.Glow(cx, cy, r*1.9, cool, 0.22+clamp01(sig.Beat)*0.2, BlendScreen)

	top := cy - r
	y0, y1 := max(0, int(top)), min(h, int(math.Ceil(hz)))
	x0, x1 := max(0, int(cx-r)-1), min(w, int(cx+r)+2)
	scroll := math.Mod(st.Phase*0.6, scanPeriod)
	for y := y0; y < y1; y++ {
		fy := float64(y) + 0.5
		t := (fy - top) / (2 * r)
		if t > 0.4 {
			gap := (t - 0.4) / 0.6 * scanPeriod * 0.6
			if math.Mod(fy-top+scroll, scanPeriod) < gap {
				continue
			}
		}
		col := Mix(hot, cool, t)
		for x := x0; x < x1; x++ {
			d := math.Hypot(float64(x)+0.5-cx, fy-cy)
			cov := clamp01(r - d)
			if cov <= 0 {
				continue
			}
			c.Blend(x, y, col, 0.95*cov, BlendOver)
		}
	}
}

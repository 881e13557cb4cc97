package scene

import (
	"math"

	"github.com/guidoenr/vaporwall/internal/analyzer"
	"github.com/guidoenr/vaporwall/internal/params"
)

// TickSeconds is the nominal simulation step.
const TickSeconds = 1.0 / 60.0

// Config describes one surface's scene.
type Config struct {
	Width      int
	Height     int
	Seed       uint64
	FPS        int
	Ticker     []string
	Background params.BackgroundMode
	Credit     string
}

// State is the animated state of one display surface. Only the render loop
// mutates it.
type State struct {
	Width  int
	Height int

	Phase        float64
	ColorCycle   float64
	TickerScroll float64
	Tick         uint64
	Elapsed      float64

	Stars   *Starfield
	Ripples []Ripple
	Wave    *Waveform
	Ticker  []string
	Model   ModelMotion
	Params  params.Parameters
	Signals analyzer.Signals
}

// New builds a scene for a surface.
func New(cfg Config) *State {
	if cfg.Width <= 0 {
		cfg.Width = 960
	}
	if cfg.Height <= 0 {
		cfg.Height = 540
	}
	if cfg.Ticker == nil {
		cfg.Ticker = GenerateTicker(cfg.Seed, TickerLineCount)
	}

	p := params.Defaults(cfg.FPS)
	if cfg.Background != "" {
		p.SnapMode(cfg.Background)
	}
	if cfg.Credit != "" {
		p.Credit = cfg.Credit
	}

	return &State{
		Width:  cfg.Width,
		Height: cfg.Height,
		Stars:  NewStarfield(cfg.Width, cfg.Height, cfg.Seed),
		Wave:   NewWaveform(WaveformCapacity),
		Ticker: cfg.Ticker,
		Params: p,
	}
}

// Resize updates the surface size, regenerating the starfield when it
// changed. It reports whether anything changed.
func (s *State) Resize(width, height int) bool {
	if width <= 0 || height <= 0 || (width == s.Width && height == s.Height) {
		return false
	}
	s.Width, s.Height = width, height
	s.Stars.Resize(width, height)
	kept := s.Ripples[:0]
	for _, r := range s.Ripples {
		if r.X <= float64(width) && r.Y <= float64(height) {
			kept = append(kept, r)
		}
	}
	s.Ripples = kept
	return true
}

// Step advances every accumulator by one tick of dt seconds.
func (s *State) Step(sig analyzer.Signals, dt float64) {
	if dt <= 0 {
		dt = TickSeconds
	}
	s.Signals = sig

	s.Phase += 0.035 + sig.Raw*0.16 + sig.Beat*0.09
	s.ColorCycle = math.Mod(s.ColorCycle+0.0010+sig.Raw*0.0005, 1)

	s.Wave.Push(WaveSample(sig.Raw, sig.Energy, sig.Beat))
	s.Ripples = advanceRipples(s.Ripples, dt)
	s.Stars.Update(sig.Raw, sig.Beat, s.Phase)
	s.Model.Update(sig.Beat, s.Phase)
	s.TickerScroll = advanceTicker(s.TickerScroll, s.Ticker)
	s.Params.Update()

	s.Tick++
	s.Elapsed += dt
}

// AddRipple spawns a ripple at a surface-local point. Points outside the
// surface are clamped onto it.
func (s *State) AddRipple(x, y float64) {
	x = clamp(x, 0, float64(s.Width))
	y = clamp(y, 0, float64(s.Height))
	if len(s.Ripples) >= maxRipples {
		copy(s.Ripples, s.Ripples[1:])
		s.Ripples = s.Ripples[:len(s.Ripples)-1]
	}
	s.Ripples = append(s.Ripples, Ripple{X: x, Y: y, Lifespan: RippleLifespan})
}

// ToggleBackground flips the background preset.
func (s *State) ToggleBackground() params.BackgroundMode {
	return s.Params.Toggle()
}

func clamp(v, minVal, maxVal float64) float64 {
	if v < minVal {
		return minVal
	}
	if v > maxVal {
		return maxVal
	}
	return v
}

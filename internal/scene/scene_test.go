package scene

import (
	"math"
	"testing"

	"github.com/guidoenr/vaporwall/internal/analyzer"
	"github.com/guidoenr/vaporwall/internal/params"
)

func TestStarCount(t *testing.T) {
	cases := []struct {
		w, h, want int
	}{
		{0, 0, minStars},
		{320, 200, minStars},
		{1280, 1200, 153},
		{1920, 1080, 207},
		{3840, 2160, maxStars},
	}
	for _, tc := range cases {
		if got := StarCount(tc.w, tc.h); got != tc.want {
			t.Fatalf("StarCount(%d,%d)=%d want=%d", tc.w, tc.h, got, tc.want)
		}
	}
}

func assertStarsValid(t *testing.T, f *Starfield) {
	t.Helper()
	for i, s := range f.Stars {
		if f.Outside(s.X, s.Y) {
			t.Fatalf("star %d out of bounds at (%f,%f) for %fx%f", i, s.X, s.Y, f.Width, f.Height)
		}
		if s.Depth < minStarDepth || s.Depth > maxStarDepth {
			t.Fatalf("star %d depth %f out of range", i, s.Depth)
		}
	}
}

func TestStarRespawnNearCenter(t *testing.T) {
	f := NewStarfield(800, 600, 3)
	f.Stars[0].X = -500
	f.Stars[0].Y = 300
	f.Stars[1].X = 400
	f.Stars[1].Y = 600 + respawnMargin + 5

	f.Update(0, 0, 0)

	for _, i := range []int{0, 1} {
		s := f.Stars[i]
		if d := math.Hypot(s.X-400, s.Y-300); d > f.SpawnRadius()+1e-9 {
			t.Fatalf("star %d respawned %f px from centre, radius %f", i, d, f.SpawnRadius())
		}
		if s.Depth < minStarDepth || s.Depth > maxStarDepth {
			t.Fatalf("star %d depth %f out of range", i, s.Depth)
		}
	}
	if f.Respawns < 2 {
		t.Fatalf("respawns=%d want >= 2", f.Respawns)
	}
}

func TestStarsStayInBounds(t *testing.T) {
	f := NewStarfield(1280, 720, 11)
	rng := NewRand(5)
	phase := 0.0
	for i := 0; i < 2000; i++ {
		phase += 0.05
		f.Update(rng.Float64(), rng.Float64(), phase)
		assertStarsValid(t, f)
	}
	if f.Respawns == 0 {
		t.Fatalf("expected stars to cycle through respawns")
	}
}

func TestResizeRegeneratesStarfield(t *testing.T) {
	s := New(Config{Width: 960, Height: 540, Seed: 1})
	for i := 0; i < 30; i++ {
		s.Step(analyzer.Signals{Raw: 0.4, Beat: 0.2, Energy: 0.3}, TickSeconds)
	}

	if !s.Resize(1920, 1080) {
		t.Fatalf("resize reported no change")
	}
	if got := len(s.Stars.Stars); got != StarCount(1920, 1080) {
		t.Fatalf("stars=%d want=%d", got, StarCount(1920, 1080))
	}

	s.Resize(320, 200)
	if got := len(s.Stars.Stars); got != minStars {
		t.Fatalf("stars=%d want=%d", got, minStars)
	}
	s.Step(analyzer.Signals{}, TickSeconds)
	assertStarsValid(t, s.Stars)

	if s.Resize(320, 200) {
		t.Fatalf("same size must not regenerate")
	}
}

func TestSingleSpikeDoesNotCauseRespawnStorm(t *testing.T) {
	run := func(seq []float64) int {
		sm := analyzer.New(analyzer.Config{})
		s := New(Config{Width: 1280, Height: 720, Seed: 9})
		for i := 0; i < 120; i++ {
			sm.Decay()
			s.Step(sm.Snapshot(), TickSeconds)
		}
		before := s.Stars.Respawns
		for _, v := range seq {
			sm.Push(v)
			sm.Decay()
			s.Step(sm.Snapshot(), TickSeconds)
		}
		return s.Stars.Respawns - before
	}

	quiet := run([]float64{0, 0, 0, 0, 0, 0, 0})
	spike := run([]float64{0, 0, 0, 0.9, 0, 0, 0})
	if spike-quiet > StarCount(1280, 720)/4 {
		t.Fatalf("spike caused %d extra respawns (quiet=%d)", spike-quiet, quiet)
	}
}

func TestRippleLifecycle(t *testing.T) {
	s := New(Config{Width: 400, Height: 300})
	s.AddRipple(100, 120)

	prevAge := -1.0
	presentTicks := 0
	gone := false
	for i := 0; i < 200; i++ {
		s.Step(analyzer.Signals{}, TickSeconds)
		if len(s.Ripples) == 0 {
			gone = true
			continue
		}
		if gone {
			t.Fatalf("ripple reappeared at tick %d", i)
		}
		r := s.Ripples[0]
		if r.Age > r.Lifespan {
			t.Fatalf("expired ripple still present: age=%f", r.Age)
		}
		if r.Age <= prevAge {
			t.Fatalf("age did not increase: %f -> %f", prevAge, r.Age)
		}
		if prevAge >= 0 && math.Abs(r.Age-prevAge-TickSeconds) > 1e-9 {
			t.Fatalf("age advanced by %f want %f", r.Age-prevAge, TickSeconds)
		}
		prevAge = r.Age
		presentTicks++
	}
	if !gone {
		t.Fatalf("ripple never expired")
	}
	want := int(RippleLifespan / TickSeconds)
	if presentTicks < want-1 || presentTicks > want+1 {
		t.Fatalf("ripple present for %d ticks want ~%d", presentTicks, want)
	}
}

func TestAddRippleClampsAndCaps(t *testing.T) {
	s := New(Config{Width: 200, Height: 100})
	s.AddRipple(-10, 500)
	if r := s.Ripples[0]; r.X != 0 || r.Y != 100 {
		t.Fatalf("ripple not clamped: %+v", r)
	}
	for i := 0; i < maxRipples*2; i++ {
		s.AddRipple(float64(i), 10)
	}
	if len(s.Ripples) != maxRipples {
		t.Fatalf("ripples=%d want=%d", len(s.Ripples), maxRipples)
	}
}

func TestWaveformFIFO(t *testing.T) {
	w := NewWaveform(WaveformCapacity)
	for i := 0; i < 1000; i++ {
		w.Push(float64(i))
		if w.Len() > w.Capacity() {
			t.Fatalf("len %d exceeds capacity", w.Len())
		}
	}
	if w.Len() != WaveformCapacity {
		t.Fatalf("len=%d want=%d", w.Len(), WaveformCapacity)
	}
	vals := w.Values()
	if vals[0] != float64(1000-WaveformCapacity) || vals[len(vals)-1] != 999 {
		t.Fatalf("unexpected order: first=%f last=%f", vals[0], vals[len(vals)-1])
	}
	for i := 1; i < len(vals); i++ {
		if vals[i] != vals[i-1]+1 {
			t.Fatalf("history not in FIFO order at %d", i)
		}
	}
}

func TestWaveSampleClamps(t *testing.T) {
	if got := WaveSample(0, 0, 0); got != 0.02 {
		t.Fatalf("floor=%f want=0.02", got)
	}
	if got := WaveSample(1, 1, 1); got != 1 {
		t.Fatalf("ceiling=%f want=1", got)
	}
	if got := WaveSample(0.5, 0.5, 0); math.Abs(got-0.48) > 1e-9 {
		t.Fatalf("sample=%f want=0.48", got)
	}
}

func TestTickerDeterministic(t *testing.T) {
	a := GenerateTicker(42, TickerLineCount)
	b := GenerateTicker(42, TickerLineCount)
	c := GenerateTicker(43, TickerLineCount)
	if len(a) != TickerLineCount {
		t.Fatalf("lines=%d want=%d", len(a), TickerLineCount)
	}
	differs := false
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("line %d differs for same seed", i)
		}
		if a[i] != c[i] {
			differs = true
		}
		if len(a[i]) == 0 || len(a[i]) > tickerMaxColumns {
			t.Fatalf("line %d has length %d", i, len(a[i]))
		}
		for _, r := range a[i] {
			if r < 0x20 || r > 0x7e {
				t.Fatalf("line %d has non-printable rune %q", i, r)
			}
		}
	}
	if !differs {
		t.Fatalf("different seeds produced identical tickers")
	}
}

func TestTickerScrollWraps(t *testing.T) {
	lines := GenerateTicker(1, 2)
	wrap := TickerContentHeight(lines) * tickerWrapMultiple
	offset := advanceTicker(wrap-TickerScrollStep/2, lines)
	if offset < 0 || offset >= wrap {
		t.Fatalf("offset %f not wrapped into [0,%f)", offset, wrap)
	}
	if got := advanceTicker(10, lines); got != 10+TickerScrollStep {
		t.Fatalf("offset=%f want=%f", got, 10+TickerScrollStep)
	}
}

func TestModelMotionStaysClamped(t *testing.T) {
	var m ModelMotion
	peak := 0.0
	for i := 0; i < 300; i++ {
		m.Update(1, float64(i)*0.05)
		if m.JumpOffset < 0 || m.JumpOffset > jumpCap {
			t.Fatalf("offset %f out of [0,%f]", m.JumpOffset, jumpCap)
		}
		peak = math.Max(peak, m.JumpOffset)
	}
	if peak <= 0 {
		t.Fatalf("beats never lifted the model")
	}
	for i := 0; i < 300; i++ {
		m.Update(0, 0)
	}
	if m.JumpOffset != 0 {
		t.Fatalf("model did not settle: offset=%f", m.JumpOffset)
	}
	if pos := m.Position(); math.Abs(pos[2]) > depthAmplitude+1e-9 {
		t.Fatalf("depth %f beyond amplitude", pos[2])
	}
}

func TestBeatBelowThresholdDoesNotJump(t *testing.T) {
	var m ModelMotion
	for i := 0; i < 60; i++ {
		m.Update(jumpThreshold, 0)
	}
	if m.JumpOffset != 0 {
		t.Fatalf("offset=%f want=0", m.JumpOffset)
	}
}

func TestStepAccumulators(t *testing.T) {
	s := New(Config{Width: 320, Height: 240})
	s.Step(analyzer.Signals{Raw: 1, Beat: 1}, TickSeconds)
	if want := 0.035 + 0.16 + 0.09; math.Abs(s.Phase-want) > 1e-12 {
		t.Fatalf("phase=%f want=%f", s.Phase, want)
	}
	for i := 0; i < 5000; i++ {
		s.Step(analyzer.Signals{Raw: 1}, TickSeconds)
		if s.ColorCycle < 0 || s.ColorCycle >= 1 {
			t.Fatalf("colour cycle %f outside [0,1)", s.ColorCycle)
		}
	}
	if s.Wave.Len() != WaveformCapacity {
		t.Fatalf("waveform len=%d", s.Wave.Len())
	}
	if s.Tick != 5001 {
		t.Fatalf("tick=%d want=5001", s.Tick)
	}
}

func TestToggleBackground(t *testing.T) {
	s := New(Config{Width: 320, Height: 240, Background: params.BackgroundOverlay})
	if s.Params.Opacity != params.BackgroundOverlay.Opacity() {
		t.Fatalf("initial opacity=%f", s.Params.Opacity)
	}
	if s.ToggleBackground() != params.BackgroundFull {
		t.Fatalf("toggle did not switch to full")
	}
	for i := 0; i < 180; i++ {
		s.Step(analyzer.Signals{}, TickSeconds)
	}
	if math.Abs(s.Params.Opacity-1) > 1e-3 {
		t.Fatalf("opacity=%f want=1", s.Params.Opacity)
	}
}

func TestRandDeterministic(t *testing.T) {
	a, b := NewRand(99), NewRand(99)
	for i := 0; i < 100; i++ {
		fa, fb := a.Float64(), b.Float64()
		if fa != fb {
			t.Fatalf("streams diverged at %d", i)
		}
		if fa < 0 || fa >= 1 {
			t.Fatalf("float %f outside [0,1)", fa)
		}
	}
	for i := 0; i < 100; i++ {
		if h := Hash(int64(i), 3, -7); h < 0 || h >= 1 {
			t.Fatalf("hash %f outside [0,1)", h)
		}
	}
	if Hash(1, 2, 3) != Hash(1, 2, 3) {
		t.Fatalf("hash not reproducible")
	}
}

package analyzer

import (
	"math"
	"math/rand"
	"sync"
	"testing"
)

func inUnit(v float64) bool { return v >= 0 && v <= 1 }

func TestSignalsStayInUnitRange(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	s := New(Config{})
	for i := 0; i < 20000; i++ {
		s.Push(rng.Float64())
		if i%3 == 0 {
			s.Decay()
		}
		sig := s.Snapshot()
		if !inUnit(sig.Level) || !inUnit(sig.Beat) || !inUnit(sig.Energy) || !inUnit(sig.Raw) {
			t.Fatalf("signals out of range at %d: %+v", i, sig)
		}
	}
}

func TestOutOfRangeInputIsClamped(t *testing.T) {
	s := New(Config{})
	for _, v := range []float64{5, -3, math.Inf(1), 2} {
		s.Push(v)
		sig := s.Snapshot()
		if !inUnit(sig.Level) || !inUnit(sig.Beat) || !inUnit(sig.Energy) {
			t.Fatalf("signals out of range after %f: %+v", v, sig)
		}
	}
}

func TestNonFiniteSamplesAreDropped(t *testing.T) {
	s := New(Config{})
	s.Push(0.4)
	before := s.Snapshot()
	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		s.Push(v)
	}
	if got := s.Snapshot(); got != before || s.Updates() != 1 {
		t.Fatalf("non-finite samples changed state: %+v -> %+v (updates=%d)", before, got, s.Updates())
	}
	for i := 0; i < 100; i++ {
		s.Push(0.5)
		s.Decay()
	}
	sig := s.Snapshot()
	if !inUnit(sig.Level) || !inUnit(sig.Beat) || !inUnit(sig.Energy) || math.Abs(sig.Level-0.5) > 0.01 {
		t.Fatalf("signals did not recover: %+v", sig)
	}
}

func TestSilenceDecaysBeatPulse(t *testing.T) {
	s := New(Config{})
	s.Push(1)
	prev := s.Snapshot().Beat
	for i := 0; i < 80; i++ {
		s.Push(0)
		beat := s.Snapshot().Beat
		if beat > prev {
			t.Fatalf("beat rose during silence at update %d: %f > %f", i, beat, prev)
		}
		prev = beat
	}
	if prev > 1e-3 {
		t.Fatalf("beat did not decay to ~0: %f", prev)
	}
}

func TestSpikeDecaysGeometrically(t *testing.T) {
	s := New(Config{})
	for i := 0; i < 3; i++ {
		s.Push(0)
	}
	s.Push(1)
	if beat := s.Snapshot().Beat; beat != 1 {
		t.Fatalf("beat after spike=%f want=1", beat)
	}
	prev := 1.0
	for i := 0; i < 10; i++ {
		s.Push(0)
		beat := s.Snapshot().Beat
		if math.Abs(beat-prev*beatRelease) > 1e-9 {
			t.Fatalf("update %d: beat=%f want=%f", i, beat, prev*beatRelease)
		}
		prev = beat
	}
}

func TestSingleSpikeSequence(t *testing.T) {
	s := New(Config{})
	seq := []float64{0, 0, 0, 0.9, 0, 0, 0}
	var beats []float64
	for _, v := range seq {
		s.Push(v)
		beats = append(beats, s.Snapshot().Beat)
	}
	for i := 0; i < 3; i++ {
		if beats[i] != 0 {
			t.Fatalf("beat before spike at %d = %f", i, beats[i])
		}
	}
	if beats[3] <= 0.5 {
		t.Fatalf("beat after spike=%f want > 0.5", beats[3])
	}
	for i := 4; i < len(beats); i++ {
		if beats[i] >= beats[i-1] {
			t.Fatalf("beat did not decay at %d: %v", i, beats)
		}
	}
}

func TestEnergyReleaseIsBounded(t *testing.T) {
	s := New(Config{})
	s.Push(1)
	s.Push(1)
	prev := s.Snapshot().Energy
	for i := 0; i < 30; i++ {
		s.Push(0)
		e := s.Snapshot().Energy
		if e < prev*energyRelease-1e-12 {
			t.Fatalf("energy dropped faster than 10%%: %f -> %f", prev, e)
		}
		prev = e
	}
}

func TestTickDecayDuringSilence(t *testing.T) {
	s := New(Config{})
	for i := 0; i < 20; i++ {
		s.Push(0.8)
	}
	// five seconds of silent ticks at 60 Hz
	for i := 0; i < 300; i++ {
		s.Push(0)
		s.Decay()
	}
	sig := s.Snapshot()
	if sig.Beat > 1e-6 {
		t.Fatalf("beat=%f want ~0", sig.Beat)
	}
	if sig.Energy > 1e-3 {
		t.Fatalf("energy=%f want ~0", sig.Energy)
	}
}

func TestDecayWithoutAudio(t *testing.T) {
	s := New(Config{})
	s.Push(1)
	before := s.Snapshot()
	s.Decay()
	after := s.Snapshot()
	if math.Abs(after.Energy-before.Energy*tickEnergyDecay) > 1e-12 {
		t.Fatalf("energy=%f want=%f", after.Energy, before.Energy*tickEnergyDecay)
	}
	if math.Abs(after.Beat-before.Beat*tickBeatDecay) > 1e-12 {
		t.Fatalf("beat=%f want=%f", after.Beat, before.Beat*tickBeatDecay)
	}
	if after.Level != before.Level {
		t.Fatalf("decay must not touch the smoothed level")
	}
}

func TestConcurrentPushAndDecay(t *testing.T) {
	s := New(Config{})
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for i := 0; i < 5000; i++ {
				s.Push(rng.Float64())
			}
		}(int64(w))
	}
	for i := 0; i < 5000; i++ {
		s.Decay()
		sig := s.Snapshot()
		if !inUnit(sig.Beat) || !inUnit(sig.Energy) {
			t.Fatalf("signals out of range: %+v", sig)
		}
	}
	wg.Wait()
	if got := s.Updates(); got != 20000 {
		t.Fatalf("updates=%d want=20000", got)
	}
}

func TestGate(t *testing.T) {
	cases := []struct {
		v, floor, want float64
	}{
		{0.5, 0, 0.5},
		{0.05, 0.1, 0},
		{0.1, 0.1, 0},
		{0.55, 0.1, 0.5},
		{1, 0.1, 1},
	}
	for _, tc := range cases {
		if got := Gate(tc.v, tc.floor); math.Abs(got-tc.want) > 1e-9 {
			t.Fatalf("Gate(%f,%f)=%f want=%f", tc.v, tc.floor, got, tc.want)
		}
	}

	s := New(Config{NoiseFloor: 0.2})
	s.Push(0.15)
	if sig := s.Snapshot(); sig.Level != 0 || sig.Beat != 0 {
		t.Fatalf("gated sample leaked through: %+v", sig)
	}
}

func TestClamp(t *testing.T) {
	if clamp(2, 0, 1) != 1 {
		t.Fatalf("expected clamp high to be 1")
	}
	if clamp(-1, 0, 1) != 0 {
		t.Fatalf("expected clamp low to be 0")
	}
	if clamp(0.5, 0, 1) != 0.5 {
		t.Fatalf("expected clamp middle to be unchanged")
	}
}

func tone(freq, rate, amp float64, n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(amp * math.Sin(2*math.Pi*freq*float64(i)/rate))
	}
	return out
}

func TestSpectrumSeparatesBands(t *testing.T) {
	s := NewSpectrum(44_100)

	low := s.Analyze(tone(100, 44_100, 0.01, 2048))
	if low.Bass <= low.Treble {
		t.Fatalf("100 Hz tone: bass %f should exceed treble %f", low.Bass, low.Treble)
	}
	if math.Abs(low.PeakHz-100) > 25 {
		t.Fatalf("peak = %f Hz, want about 100", low.PeakHz)
	}

	high := s.Analyze(tone(4000, 44_100, 0.01, 2048))
	if high.Treble <= high.Bass {
		t.Fatalf("4 kHz tone: treble %f should exceed bass %f", high.Treble, high.Bass)
	}

	if got := s.Analyze(nil); got != (Bands{}) {
		t.Fatalf("empty buffer should give zero bands, got %+v", got)
	}
}

func TestNextPow2(t *testing.T) {
	cases := map[int]int{0: 1, 1: 1, 3: 4, 256: 256, 1000: 1024}
	for in, want := range cases {
		if got := nextPow2(in); got != want {
			t.Fatalf("nextPow2(%d) = %d, want %d", in, got, want)
		}
	}
}

package analyzer

import (
	"math"
	"sync/atomic"
)

// Smoothing and decay constants. Audio-rate constants apply per pushed
// sample; tick-rate constants apply once per render tick.
const (
	levelRetain   = 0.82
	levelAttack   = 0.18
	beatFloor     = 0.035
	beatGain      = 8.0
	beatRelease   = 0.84
	energyBeat    = 0.95
	energyRelease = 0.90

	tickEnergyDecay = 0.972
	tickBeatDecay   = 0.90
)

// Smoother turns raw level samples into smoothed level, beat pulse and
// energy envelopes. Push is called from capture goroutines and Decay and
// Snapshot from the render loop; state lives behind an atomic pointer and is
// replaced with compare-and-swap, so neither side blocks.
type Smoother struct {
	state   atomic.Pointer[Signals]
	gate    float64
	updates atomic.Uint64
}

// Config controls Smoother behavior.
type Config struct {
	// NoiseFloor gates raw levels before smoothing; 0 disables the gate.
	NoiseFloor float64
}

// New creates a Smoother starting from silence.
func New(cfg Config) *Smoother {
	s := &Smoother{gate: clamp(cfg.NoiseFloor, 0, 0.95)}
	s.state.Store(&Signals{})
	return s
}

// Push folds one raw level sample into the envelopes. NaN and infinite
// samples are dropped.
func (s *Smoother) Push(raw float64) {
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		return
	}
	raw = Gate(clamp(raw, 0, 1), s.gate)
	for {
		cur := s.state.Load()
		next := step(*cur, raw)
		if s.state.CompareAndSwap(cur, &next) {
			s.updates.Add(1)
			return
		}
	}
}

// Decay applies the fixed per-tick decay to energy and beat pulse.
func (s *Smoother) Decay() {
	for {
		cur := s.state.Load()
		next := *cur
		next.Energy = clamp(next.Energy*tickEnergyDecay, 0, 1)
		next.Beat = clamp(next.Beat*tickBeatDecay, 0, 1)
		if s.state.CompareAndSwap(cur, &next) {
			return
		}
	}
}

// Snapshot returns the latest published signals.
func (s *Smoother) Snapshot() Signals {
	return *s.state.Load()
}

// Updates returns how many samples have been folded in so far.
func (s *Smoother) Updates() uint64 {
	return s.updates.Load()
}

func step(cur Signals, raw float64) Signals {
	prevLevel := cur.Level
	level := prevLevel*levelRetain + raw*levelAttack

	transient := max(0, raw-prevLevel)
	trigger := max(0, transient-beatFloor) * beatGain
	beat := max(cur.Beat*beatRelease, min(1, trigger))

	energy := max(level, max(beat*energyBeat, cur.Energy*energyRelease))

	return Signals{
		Raw:    raw,
		Level:  clamp(level, 0, 1),
		Beat:   clamp(beat, 0, 1),
		Energy: clamp(energy, 0, 1),
	}
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

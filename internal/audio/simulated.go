package audio

import (
	"math"
	"time"
)

const (
	simulatedAmplitude = 0.35
	simulatedFrequency = 0.25
	simulatedRate      = 50.0
)

// Oscillator produces the deterministic substitute loudness signal used when
// no capture device is available. The level depends only on the sample index.
type Oscillator struct {
	Amplitude float64
	Frequency float64
	Rate      float64

	n uint64
}

// NewOscillator returns an oscillator with the default slow sine parameters.
func NewOscillator() *Oscillator {
	return &Oscillator{
		Amplitude: simulatedAmplitude,
		Frequency: simulatedFrequency,
		Rate:      simulatedRate,
	}
}

// Next returns the next level in [0, Amplitude].
func (o *Oscillator) Next() float64 {
	t := float64(o.n) / o.Rate
	o.n++
	return clamp01(o.Amplitude * (0.5 + 0.5*math.Sin(2*math.Pi*o.Frequency*t)))
}

// SimulatedSource never fails; it drives an Oscillator from a ticker goroutine.
type SimulatedSource struct {
	Rate float64
}

// NewSimulatedSource returns a source delivering simulatedRate levels per second.
func NewSimulatedSource() *SimulatedSource {
	return &SimulatedSource{Rate: simulatedRate}
}

// Mode implements Source.
func (s *SimulatedSource) Mode() Mode { return Simulated }

// Open implements Source.
func (s *SimulatedSource) Open(sink Sink) (Stream, error) {
	rate := s.Rate
	if rate <= 0 {
		rate = simulatedRate
	}
	osc := NewOscillator()
	osc.Rate = rate

	st := &simulatedStream{lifecycle: newLifecycle()}
	st.wg.Add(1)
	go func() {
		defer st.wg.Done()
		ticker := time.NewTicker(time.Duration(float64(time.Second) / rate))
		defer ticker.Stop()
		for {
			select {
			case <-st.quit:
				return
			case <-ticker.C:
				sink.Push(osc.Next())
			}
		}
	}()
	return st, nil
}

type simulatedStream struct {
	*lifecycle
}

func (s *simulatedStream) Stop() error {
	s.shutdown(nil)
	return nil
}

package audio

import (
	"math"
	"sync/atomic"
	"testing"
	"time"
)

func TestOscillatorDeterministicAndBounded(t *testing.T) {
	a, b := NewOscillator(), NewOscillator()
	lo, hi := math.Inf(1), math.Inf(-1)
	for i := 0; i < 1000; i++ {
		va, vb := a.Next(), b.Next()
		if va != vb {
			t.Fatalf("sample %d differs: %f vs %f", i, va, vb)
		}
		lo = math.Min(lo, va)
		hi = math.Max(hi, va)
	}
	if lo < 0 || hi > simulatedAmplitude+1e-9 {
		t.Fatalf("range [%f,%f] outside [0,%f]", lo, hi, simulatedAmplitude)
	}
	if hi-lo < simulatedAmplitude*0.9 {
		t.Fatalf("expected a full oscillation, got range [%f,%f]", lo, hi)
	}
}

func TestOscillatorStartsAtMidpoint(t *testing.T) {
	if got := NewOscillator().Next(); math.Abs(got-simulatedAmplitude/2) > 1e-9 {
		t.Fatalf("first sample=%f want=%f", got, simulatedAmplitude/2)
	}
}

func TestSimulatedSourceDeliversAndStops(t *testing.T) {
	var count atomic.Int64
	src := &SimulatedSource{Rate: 500}
	stream, err := src.Open(SinkFunc(func(float64) { count.Add(1) }))
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for count.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if count.Load() < 3 {
		t.Fatalf("expected levels to be delivered, got %d", count.Load())
	}

	if err := stream.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if err := stream.Stop(); err != nil {
		t.Fatalf("second stop: %v", err)
	}
	select {
	case <-stream.Done():
	default:
		t.Fatalf("done not closed after stop")
	}

	after := count.Load()
	time.Sleep(20 * time.Millisecond)
	if count.Load() != after {
		t.Fatalf("levels delivered after stop")
	}
}

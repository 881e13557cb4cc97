package analyzer

import (
	"math"

	"github.com/mjibson/go-dsp/fft"
)

// Bands is the normalized spectral energy of one buffer.
type Bands struct {
	Bass   float64
	Mid    float64
	Treble float64
	PeakHz float64
}

// Spectrum splits mono buffers into bass/mid/treble energy with a
// Hann-windowed FFT. It reuses its workspace and is not safe for concurrent use.
type Spectrum struct {
	sampleRate float64
	buffer     []complex128
	window     []float64
}

// NewSpectrum creates a Spectrum for the given sample rate.
func NewSpectrum(sampleRate float64) *Spectrum {
	if sampleRate <= 0 {
		sampleRate = 44_100
	}
	return &Spectrum{sampleRate: sampleRate}
}

// Analyze returns band energies for the provided mono samples.
func (s *Spectrum) Analyze(samples []float32) Bands {
	if len(samples) == 0 {
		return Bands{}
	}

	size := nextPow2(min(len(samples), 2048))
	if size < 256 {
		size = 256
	}
	s.ensureWorkspace(size)

	buffer := s.buffer[:size]
	for i := 0; i < size; i++ {
		if i < len(samples) {
			buffer[i] = complex(float64(samples[i])*s.window[i], 0)
			continue
		}
		buffer[i] = 0
	}

	res := fft.FFT(buffer)
	resolution := s.sampleRate / float64(size)

	peak, peakBin := 0.0, 0
	for i, v := range res[1 : size/2] {
		if m := cmag(v); m > peak {
			peak, peakBin = m, i+1
		}
	}

	return Bands{
		Bass:   bandEnergy(res, resolution, 20, 250),
		Mid:    bandEnergy(res, resolution, 250, 2000),
		Treble: bandEnergy(res, resolution, 2000, 8000),
		PeakHz: float64(peakBin) * resolution,
	}
}

func (s *Spectrum) ensureWorkspace(size int) {
	if len(s.buffer) != size {
		s.buffer = make([]complex128, size)
	}
	if len(s.window) != size {
		s.window = make([]float64, size)
		sizeF := float64(size)
		for i := range s.window {
			s.window[i] = hann(float64(i), sizeF)
		}
	}
}

func bandEnergy(buffer []complex128, resolution float64, minHz, maxHz float64) float64 {
	if minHz >= maxHz {
		return 0
	}
	lo := int(math.Floor(minHz / resolution))
	hi := int(math.Ceil(maxHz/resolution)) + 1
	if hi > len(buffer)/2 {
		hi = len(buffer) / 2
	}
	if lo >= hi {
		return 0
	}
	sum := 0.0
	for _, val := range buffer[lo:hi] {
		sum += cmag(val)
	}
	return math.Min(1, sum/float64(hi-lo))
}

func hann(i, size float64) float64 {
	return 0.5 * (1.0 - math.Cos(2.0*math.Pi*i/size))
}

func cmag(c complex128) float64 {
	return math.Sqrt(real(c)*real(c) + imag(c)*imag(c))
}

func nextPow2(n int) int {
	if n <= 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	return n + 1
}

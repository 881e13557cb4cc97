package audio

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrEmptyBuffer is returned for buffers that carry zero frames or channels.
	ErrEmptyBuffer = errors.New("audio: empty buffer")
	// ErrUnsupportedFormat is returned for sample formats other than 16/32-bit integer or 32-bit float.
	ErrUnsupportedFormat = errors.New("audio: unsupported sample format")
	// ErrNoSamples is returned when the buffer declares frames but holds no sample data for its format.
	ErrNoSamples = errors.New("audio: missing sample data")
	// ErrNonFinite is returned when a sample is NaN or infinite.
	ErrNonFinite = errors.New("audio: non-finite sample")
)

// Gain compensation applied on top of the raw RMS value.
const (
	MicrophoneGain  = 4.0
	SystemAudioGain = 8.5
)

// SampleFormat describes how samples in a Buffer are encoded.
type SampleFormat struct {
	Float    bool
	BitDepth int
}

var (
	FormatInt16   = SampleFormat{BitDepth: 16}
	FormatInt32   = SampleFormat{BitDepth: 32}
	FormatFloat32 = SampleFormat{Float: true, BitDepth: 32}
)

func (f SampleFormat) String() string {
	if f.Float {
		return fmt.Sprintf("float%d", f.BitDepth)
	}
	return fmt.Sprintf("int%d", f.BitDepth)
}

// Buffer is one block of PCM delivered by a capture callback. Exactly one of
// the typed sample slices is populated, matching Format. Interleaved buffers
// store frame-major samples; planar buffers store each channel contiguously.
type Buffer struct {
	Format   SampleFormat
	Channels int
	Frames   int
	Planar   bool

	Int16   []int16
	Int32   []int32
	Float32 []float32
}

// Extractor reduces PCM buffers to a single normalized loudness value.
type Extractor struct {
	Gain float64
}

// NewExtractor returns an extractor using the provided gain, defaulting to MicrophoneGain.
func NewExtractor(gain float64) Extractor {
	if gain <= 0 {
		gain = MicrophoneGain
	}
	return Extractor{Gain: gain}
}

// Level returns the gain-compensated RMS of the first channel clamped to [0,1].
// A non-nil error means the buffer must be skipped for this cycle.
func (e Extractor) Level(buf Buffer) (float64, error) {
	if buf.Frames <= 0 || buf.Channels <= 0 {
		return 0, ErrEmptyBuffer
	}

	stride := buf.Channels
	if buf.Planar {
		stride = 1
	}
	need := (buf.Frames-1)*stride + 1

	var (
		sumSq float64
		err   error
	)
	switch buf.Format {
	case FormatInt16:
		sumSq, err = sumSquares(buf.Int16, need, stride, buf.Frames, 1.0/math.MaxInt16)
	case FormatInt32:
		sumSq, err = sumSquares(buf.Int32, need, stride, buf.Frames, 1.0/math.MaxInt32)
	case FormatFloat32:
		sumSq, err = sumSquares(buf.Float32, need, stride, buf.Frames, 1.0)
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedFormat, buf.Format)
	}
	if err != nil {
		return 0, err
	}

	gain := e.Gain
	if gain <= 0 {
		gain = MicrophoneGain
	}
	rms := math.Sqrt(sumSq / float64(buf.Frames))
	if math.IsNaN(rms) || math.IsInf(rms, 0) {
		return 0, ErrNonFinite
	}
	return clamp01(rms * gain), nil
}

type sample interface {
	~int16 | ~int32 | ~float32
}

func sumSquares[T sample](data []T, need, stride, frames int, scale float64) (float64, error) {
	if data == nil {
		return 0, ErrNoSamples
	}
	if len(data) < need {
		return 0, fmt.Errorf("%w: have %d samples, need %d", ErrNoSamples, len(data), need)
	}
	sum := 0.0
	for i := 0; i < frames; i++ {
		v := float64(data[i*stride]) * scale
		sum += v * v
	}
	return sum, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

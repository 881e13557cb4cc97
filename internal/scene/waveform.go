package scene

// WaveformCapacity is the number of samples kept for the waveform ribbon.
const WaveformCapacity = 240

// WaveSample derives the waveform value for one tick.
func WaveSample(raw, energy, beat float64) float64 {
	return clamp(raw*0.74+energy*0.22+beat*0.55, 0.02, 1)
}

// Waveform is a fixed-capacity FIFO of recent samples.
type Waveform struct {
	buf   []float64
	start int
	n     int
}

// NewWaveform creates an empty history with the given capacity.
func NewWaveform(capacity int) *Waveform {
	if capacity <= 0 {
		capacity = WaveformCapacity
	}
	return &Waveform{buf: make([]float64, capacity)}
}

// Push appends a sample, dropping the oldest when full.
func (w *Waveform) Push(v float64) {
	if w.n < len(w.buf) {
		w.buf[(w.start+w.n)%len(w.buf)] = v
		w.n++
		return
	}
	w.buf[w.start] = v
	w.start = (w.start + 1) % len(w.buf)
}

// Len returns the number of stored samples.
func (w *Waveform) Len() int { return w.n }

// Capacity returns the maximum number of stored samples.
func (w *Waveform) Capacity() int { return len(w.buf) }

// At returns the i-th sample, oldest first.
func (w *Waveform) At(i int) float64 {
	if i < 0 || i >= w.n {
		return 0
	}
	return w.buf[(w.start+i)%len(w.buf)]
}

// Values copies the history out, oldest first.
func (w *Waveform) Values() []float64 {
	out := make([]float64, w.n)
	for i := range out {
		out[i] = w.At(i)
	}
	return out
}

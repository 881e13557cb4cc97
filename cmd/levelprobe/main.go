// Command levelprobe runs a WAV file through the level extractor and signal
// smoother and prints what the visuals would react to, one row per buffer.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"text/tabwriter"

	"github.com/mjibson/go-dsp/wav"

	"github.com/guidoenr/vaporwall/internal/analyzer"
	"github.com/guidoenr/vaporwall/internal/audio"
)

func main() {
	var (
		frames     = flag.Int("buffer", 1024, "Frames per analysed buffer")
		source     = flag.String("source", "system", "Gain preset to emulate (system|microphone)")
		noiseFloor = flag.Float64("noise-floor", 0, "Raw levels at or below this value count as silence")
		every      = flag.Int("every", 1, "Print every Nth buffer")
		fps        = flag.Int("fps", 60, "Render ticks per second used for decay")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] file.wav\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	logger := log.New(os.Stderr, "[levelprobe] ", 0)
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	if *frames <= 0 || *every <= 0 || *fps <= 0 {
		logger.Fatalf("buffer, every and fps must be positive")
	}

	gain := audio.SystemAudioGain
	if *source == "microphone" {
		gain = audio.MicrophoneGain
	}

	f, err := os.Open(flag.Arg(0))
	if err != nil {
		logger.Fatalf("open: %v", err)
	}
	defer f.Close()

	w, err := wav.New(f)
	if err != nil {
		logger.Fatalf("read wav header: %v", err)
	}
	channels := max(1, int(w.NumChannels))
	rate := float64(w.SampleRate)
	logger.Printf("%s: %d ch, %d bit, %.0f Hz, %s", flag.Arg(0), channels, w.BitsPerSample, rate, w.Duration)

	p := probe{
		extractor: audio.NewExtractor(gain),
		smoother:  analyzer.New(analyzer.Config{NoiseFloor: *noiseFloor}),
		spectrum:  analyzer.NewSpectrum(rate),
		channels:  channels,
		tick:      1 / float64(*fps),
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "time\traw\tlevel\tbeat\tenergy\tbass\tmid\ttreble\tpeak_hz\t")

	for n := 0; ; n++ {
		buf, err := readBuffer(w, *frames, channels)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				logger.Printf("stopped after %d buffers: %v", n, err)
			}
			break
		}
		if buf.Frames == 0 {
			break
		}
		row, ok := p.feed(buf, rate)
		if !ok || n%*every != 0 {
			continue
		}
		fmt.Fprintf(tw, "%.3f\t%.3f\t%.3f\t%.3f\t%.3f\t%.3f\t%.3f\t%.3f\t%.0f\t\n",
			row.at, row.sig.Raw, row.sig.Level, row.sig.Beat, row.sig.Energy,
			row.bands.Bass, row.bands.Mid, row.bands.Treble, row.bands.PeakHz)
	}
	if err := tw.Flush(); err != nil {
		logger.Fatalf("write: %v", err)
	}
}

type probe struct {
	extractor audio.Extractor
	smoother  *analyzer.Smoother
	spectrum  *analyzer.Spectrum
	channels  int
	tick      float64

	elapsed  float64
	nextTick float64
}

type row struct {
	at    float64
	sig   analyzer.Signals
	bands analyzer.Bands
}

// feed pushes one buffer and runs every render tick that elapsed during it.
func (p *probe) feed(buf audio.Buffer, rate float64) (row, bool) {
	level, err := p.extractor.Level(buf)
	if err != nil {
		return row{}, false
	}
	p.smoother.Push(level)

	p.elapsed += float64(buf.Frames) / math.Max(1, rate)
	for p.nextTick+p.tick <= p.elapsed {
		p.nextTick += p.tick
		p.smoother.Decay()
	}
	return row{
		at:    p.elapsed,
		sig:   p.smoother.Snapshot(),
		bands: p.spectrum.Analyze(firstChannel(buf)),
	}, true
}

// readBuffer pulls up to frames interleaved frames. 16-bit files keep their
// integer samples; everything else is read as floats.
func readBuffer(w *wav.Wav, frames, channels int) (audio.Buffer, error) {
	if w.BitsPerSample == 16 {
		raw, err := w.ReadSamples(frames * channels)
		if err != nil {
			return audio.Buffer{}, err
		}
		samples, ok := raw.([]int16)
		if !ok {
			return audio.Buffer{}, fmt.Errorf("unexpected sample type %T", raw)
		}
		return audio.Buffer{
			Format:   audio.FormatInt16,
			Channels: channels,
			Frames:   len(samples) / channels,
			Int16:    samples,
		}, nil
	}

	samples, err := w.ReadFloats(frames * channels)
	if err != nil {
		return audio.Buffer{}, err
	}
	return audio.Buffer{
		Format:   audio.FormatFloat32,
		Channels: channels,
		Frames:   len(samples) / channels,
		Float32:  samples,
	}, nil
}

func firstChannel(buf audio.Buffer) []float32 {
	out := make([]float32, buf.Frames)
	for i := range out {
		j := i * buf.Channels
		switch {
		case buf.Int16 != nil && j < len(buf.Int16):
			out[i] = float32(buf.Int16[j]) / math.MaxInt16
		case buf.Float32 != nil && j < len(buf.Float32):
			out[i] = buf.Float32[j]
		}
	}
	return out
}

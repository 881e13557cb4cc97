package audio

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gordonklaus/portaudio"
)

var (
	// ErrNoLoopbackDevice means no monitor/loopback input exposes system output.
	ErrNoLoopbackDevice = errors.New("audio: no loopback device found")
	// ErrNoInputDevice means no microphone-style input device is available.
	ErrNoInputDevice = errors.New("audio: no suitable input device found")
)

const (
	defaultFramesPerBuffer = 512
	defaultStallTimeout    = 2 * time.Second
	watchdogInterval       = 250 * time.Millisecond
)

var loopbackKeywords = []string{"monitor", "loopback", "stereo mix", "what u hear", "blackhole", "soundflower"}

// Config controls how a PortAudioSource opens its stream.
type Config struct {
	DeviceName      string
	FramesPerBuffer int
	Channels        int
	Gain            float64
	StallTimeout    time.Duration
}

// PortAudioSource opens PortAudio input streams. SystemAudio sources only
// accept loopback/monitor devices; Microphone sources take the default input.
type PortAudioSource struct {
	mode Mode
	cfg  Config
}

// NewSystemSource captures system output through a loopback device as int16 PCM.
func NewSystemSource(cfg Config) *PortAudioSource {
	if cfg.Gain <= 0 {
		cfg.Gain = SystemAudioGain
	}
	return &PortAudioSource{mode: SystemAudio, cfg: normalizeConfig(cfg)}
}

// NewMicrophoneSource captures the default (or named) input as float32 PCM.
func NewMicrophoneSource(cfg Config) *PortAudioSource {
	if cfg.Gain <= 0 {
		cfg.Gain = MicrophoneGain
	}
	return &PortAudioSource{mode: Microphone, cfg: normalizeConfig(cfg)}
}

func normalizeConfig(cfg Config) Config {
	if cfg.FramesPerBuffer <= 0 {
		cfg.FramesPerBuffer = defaultFramesPerBuffer
	}
	if cfg.Channels <= 0 {
		cfg.Channels = 2
	}
	if cfg.StallTimeout <= 0 {
		cfg.StallTimeout = defaultStallTimeout
	}
	return cfg
}

// Mode implements Source.
func (p *PortAudioSource) Mode() Mode { return p.mode }

// Open implements Source.
func (p *PortAudioSource) Open(sink Sink) (Stream, error) {
	var (
		device *portaudio.DeviceInfo
		err    error
	)
	if err := Initialize(); err != nil {
		return nil, err
	}
	if p.mode == SystemAudio {
		device, err = findLoopbackDevice(p.cfg.DeviceName)
	} else {
		device, err = findInputDevice(p.cfg.DeviceName)
	}
	if err != nil {
		return nil, err
	}

	channels := p.cfg.Channels
	if device.MaxInputChannels < channels {
		channels = device.MaxInputChannels
	}

	capture := &Capture{
		lifecycle: newLifecycle(),
		channels:  channels,
		extractor: NewExtractor(p.cfg.Gain),
		sink:      sink,
		stall:     p.cfg.StallTimeout,
	}
	capture.touch()

	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   device,
			Channels: channels,
			Latency:  device.DefaultLowInputLatency,
		},
		SampleRate:      device.DefaultSampleRate,
		FramesPerBuffer: p.cfg.FramesPerBuffer,
	}

	var stream *portaudio.Stream
	if p.mode == SystemAudio {
		stream, err = portaudio.OpenStream(params, capture.processInt16)
	} else {
		stream, err = portaudio.OpenStream(params, capture.processFloat32)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s stream on %q: %w", p.mode, device.Name, err)
	}
	capture.stream = stream

	if err := stream.Start(); err != nil {
		_ = stream.Close()
		return nil, fmt.Errorf("start %s stream on %q: %w", p.mode, device.Name, err)
	}

	capture.wg.Add(1)
	go capture.watchdog()
	return capture, nil
}

// Capture wraps a running PortAudio input stream and forwards one level per
// delivered buffer to its sink.
type Capture struct {
	*lifecycle

	stream    *portaudio.Stream
	channels  int
	extractor Extractor
	sink      Sink
	stall     time.Duration

	lastCallback atomic.Int64
	stopErr      error
}

// Stop stops and closes the PortAudio stream. Repeated calls return the first result.
func (c *Capture) Stop() error {
	c.shutdown(func() {
		if c.stream == nil {
			return
		}
		if err := c.stream.Stop(); err != nil && !errorsIsInvalidStreamState(err) {
			c.stopErr = err
		}
		if err := c.stream.Close(); err != nil && c.stopErr == nil {
			c.stopErr = err
		}
	})
	return c.stopErr
}

func (c *Capture) processInt16(in []int16) {
	c.touch()
	c.deliver(Buffer{
		Format:   FormatInt16,
		Channels: c.channels,
		Frames:   len(in) / max(1, c.channels),
		Int16:    in,
	})
}

func (c *Capture) processFloat32(in []float32) {
	c.touch()
	c.deliver(Buffer{
		Format:   FormatFloat32,
		Channels: c.channels,
		Frames:   len(in) / max(1, c.channels),
		Float32:  in,
	})
}

func (c *Capture) deliver(buf Buffer) {
	level, err := c.extractor.Level(buf)
	if err != nil {
		return
	}
	c.sink.Push(level)
}

func (c *Capture) touch() {
	c.lastCallback.Store(time.Now().UnixNano())
}

// watchdog reports the stream as stopped once callbacks stall.
func (c *Capture) watchdog() {
	defer c.wg.Done()
	ticker := time.NewTicker(watchdogInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.quit:
			return
		case now := <-ticker.C:
			last := time.Unix(0, c.lastCallback.Load())
			if now.Sub(last) > c.stall {
				c.finish()
				return
			}
		}
	}
}

func findLoopbackDevice(name string) (*portaudio.DeviceInfo, error) {
	if name != "" {
		return findDeviceByName(name)
	}
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("list audio devices: %w", err)
	}
	if dev := pickBestDevice(devices, true); dev != nil {
		return dev, nil
	}
	return nil, ErrNoLoopbackDevice
}

func findInputDevice(name string) (*portaudio.DeviceInfo, error) {
	if name != "" {
		return findDeviceByName(name)
	}

	if dev, err := portaudio.DefaultInputDevice(); err == nil && dev != nil && dev.MaxInputChannels > 0 {
		return dev, nil
	}

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("list audio devices: %w", err)
	}
	if dev := pickBestDevice(devices, false); dev != nil {
		return dev, nil
	}
	return nil, ErrNoInputDevice
}

func findDeviceByName(name string) (*portaudio.DeviceInfo, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("list audio devices: %w", err)
	}

	name = strings.ToLower(name)
	for _, device := range devices {
		if device.MaxInputChannels == 0 {
			continue
		}
		if strings.Contains(strings.ToLower(device.Name), name) {
			return device, nil
		}
	}

	return nil, fmt.Errorf("audio device %q not found", name)
}

// pickBestDevice scores input devices. With loopback set only devices whose
// name matches a loopback keyword qualify; otherwise those are penalised so a
// real microphone wins.
func pickBestDevice(devices []*portaudio.DeviceInfo, loopback bool) *portaudio.DeviceInfo {
	ranked := rankDevices(devices, loopback)
	if len(ranked) == 0 {
		return nil
	}
	return ranked[0].dev
}

func isLoopbackName(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range loopbackKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// errorsIsInvalidStreamState checks if the provided error stems from stopping an already stopped stream.
func errorsIsInvalidStreamState(err error) bool {
	if err == nil {
		return false
	}
	const invalidStateMsg = "PaErrorCode -9986"
	return strings.Contains(err.Error(), invalidStateMsg)
}

// AutoDetectDevice returns the input device the Microphone source would pick.
func AutoDetectDevice() (*portaudio.DeviceInfo, error) {
	return findInputDevice("")
}

// AutoDetectLoopback returns the device the SystemAudio source would pick.
func AutoDetectLoopback() (*portaudio.DeviceInfo, error) {
	return findLoopbackDevice("")
}

type scoredDevice struct {
	dev   *portaudio.DeviceInfo
	score int
}

func rankDevices(devices []*portaudio.DeviceInfo, loopback bool) []scoredDevice {
	defaultInputIndex := -1
	if def, err := portaudio.DefaultInputDevice(); err == nil && def != nil {
		defaultInputIndex = def.Index
	}

	var results []scoredDevice
	for _, d := range devices {
		if d == nil || d.MaxInputChannels <= 0 {
			continue
		}
		isLoop := isLoopbackName(d.Name)
		if loopback && !isLoop {
			continue
		}

		score := d.MaxInputChannels
		if d.Index == defaultInputIndex {
			score += 50
		}
		if !loopback && isLoop {
			score -= 40
		}
		if strings.Contains(strings.ToLower(d.Name), "default") {
			score += 10
		}
		results = append(results, scoredDevice{dev: d, score: score})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].score == results[j].score {
			return strings.ToLower(results[i].dev.Name) < strings.ToLower(results[j].dev.Name)
		}
		return results[i].score > results[j].score
	})
	return results
}

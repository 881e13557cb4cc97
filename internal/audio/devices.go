package audio

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/gordonklaus/portaudio"
)

// PortAudio is process-global. Every source shares a single initialisation
// that stays up until Terminate.
var pa struct {
	init sync.Once
	term sync.Once
	err  error
}

// Initialize starts PortAudio. A failure is sticky: every later capture
// attempt returns it, which sends the selector down the fallback chain.
func Initialize() error {
	pa.init.Do(func() {
		if err := portaudio.Initialize(); err != nil {
			pa.err = fmt.Errorf("audio: portaudio init: %w", err)
		}
	})
	return pa.err
}

// Terminate releases PortAudio after a successful Initialize. It is a no-op
// otherwise.
func Terminate() {
	pa.init.Do(func() { pa.err = errNeverInitialized })
	if pa.err != nil {
		return
	}
	pa.term.Do(func() { _ = portaudio.Terminate() })
}

var errNeverInitialized = errors.New("audio: portaudio was never initialized")

// Device describes an input-capable device and the capture modes that would
// accept it.
type Device struct {
	Name            string
	HostAPI         string
	MaxInput        int
	MaxOutput       int
	DefaultSampleHz float64
	IsDefaultInput  bool
	Loopback        bool
	Modes           []Mode
}

// ListDevices returns every device across host APIs. Loopback devices sort
// first, then the default input, then by host and name.
func ListDevices() ([]Device, error) {
	hosts, err := portaudio.HostApis()
	if err != nil {
		return nil, fmt.Errorf("audio: host apis: %w", err)
	}

	defaultInput := -1
	if def, err := portaudio.DefaultInputDevice(); err == nil && def != nil {
		defaultInput = def.Index
	}

	var devices []Device
	for _, host := range hosts {
		for _, d := range host.Devices {
			devices = append(devices, describe(d, host.Name, defaultInput))
		}
	}
	sortDevices(devices)
	return devices, nil
}

func describe(d *portaudio.DeviceInfo, host string, defaultInput int) Device {
	dev := Device{
		Name:            d.Name,
		HostAPI:         host,
		MaxInput:        d.MaxInputChannels,
		MaxOutput:       d.MaxOutputChannels,
		DefaultSampleHz: d.DefaultSampleRate,
		IsDefaultInput:  d.Index == defaultInput,
	}
	if dev.MaxInput == 0 {
		return dev
	}
	dev.Loopback = isLoopbackName(d.Name)
	if dev.Loopback {
		dev.Modes = append(dev.Modes, SystemAudio)
	}
	dev.Modes = append(dev.Modes, Microphone)
	return dev
}

func sortDevices(devices []Device) {
	rank := func(d Device) int {
		switch {
		case d.Loopback:
			return 0
		case d.IsDefaultInput:
			return 1
		case d.MaxInput > 0:
			return 2
		}
		return 3
	}
	sort.SliceStable(devices, func(i, j int) bool {
		a, b := devices[i], devices[j]
		if ra, rb := rank(a), rank(b); ra != rb {
			return ra < rb
		}
		if a.HostAPI != b.HostAPI {
			return a.HostAPI < b.HostAPI
		}
		return a.Name < b.Name
	})
}

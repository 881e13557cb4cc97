package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/guidoenr/vaporwall/internal/app"
	"github.com/guidoenr/vaporwall/internal/audio"
	"github.com/guidoenr/vaporwall/internal/display"
	"github.com/guidoenr/vaporwall/internal/params"
)

func main() {
	var (
		targetFPS    = flag.Int("fps", 60, "Simulation and render ticks per second")
		seed         = flag.Uint64("seed", 0x5eed, "Seed for the starfield and glyph ticker")
		background   = flag.String("background", "full", "Background preset (full|overlay)")
		displayKind  = flag.String("display", "terminal", "Output backend (terminal|sdl|headless)")
		width        = flag.Int("width", 960, "Logical surface width for terminal/headless output")
		height       = flag.Int("height", 540, "Logical surface height for terminal/headless output")
		modelPaths   = flag.String("model", "", "Comma separated model files (.glb/.gltf) tried in order")
		deviceName   = flag.String("audio-device", "", "Microphone device name (substring match)")
		systemDevice = flag.String("system-device", "", "Loopback/monitor device name for system audio (substring match)")
		noAudio      = flag.Bool("no-audio", false, "Skip capture devices and start in simulated mode")
		noiseFloor   = flag.Float64("noise-floor", 0, "Raw levels at or below this value count as silence")
		credit       = flag.String("credit", "vaporwall", "Credit text drawn in the corner")
		listDevs     = flag.Bool("list-audio-devices", false, "List available audio input devices and exit")
		profilePath  = flag.String("profile", "", "Append per-frame timings as CSV to this file")
		debug        = flag.Bool("debug", false, "Enable verbose logging")
	)

	flag.Parse()

	if *targetFPS <= 0 {
		log.Fatalf("fps must be positive (got %d)", *targetFPS)
	}
	if *width <= 0 || *height <= 0 {
		log.Fatalf("invalid dimensions: width=%d height=%d", *width, *height)
	}
	if *noiseFloor < 0 || *noiseFloor >= 1 {
		log.Fatalf("noise-floor must be in [0,1) (got %.3f)", *noiseFloor)
	}
	kind, err := display.ParseKind(*displayKind)
	if err != nil {
		log.Fatalf("%v", err)
	}
	mode := params.ParseBackgroundMode(*background)
	if mode == params.BackgroundFull && !strings.EqualFold(strings.TrimSpace(*background), string(params.BackgroundFull)) {
		log.Fatalf("unknown background preset %q (full|overlay)", *background)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := log.New(os.Stdout, "[vaporwall] ", log.LstdFlags)
	if !*debug {
		logger.SetOutput(os.Stderr)
		logger.SetFlags(0)
	}

	if *listDevs {
		listDevices(logger)
		return
	}

	out, err := display.Open(display.Config{
		Kind:   kind,
		Width:  *width,
		Height: *height,
		Out:    os.Stdout,
		Log:    logger,
	})
	if err != nil {
		logger.Fatalf("open display: %v", err)
	}
	if kind == display.KindTerminal && !*debug {
		// Log lines would tear the ANSI preview.
		logger.SetOutput(io.Discard)
	}

	cfg := app.Config{
		FPS:         *targetFPS,
		Seed:        *seed,
		Background:  mode,
		Credit:      *credit,
		ModelPaths:  splitList(*modelPaths),
		NoiseFloor:  *noiseFloor,
		Display:     out,
		Simulated:   audio.NewSimulatedSource(),
		Keyboard:    kind == display.KindTerminal,
		ProfilePath: *profilePath,
		Log:         logger,
	}
	if !*noAudio {
		cfg.System = audio.NewSystemSource(audio.Config{DeviceName: *systemDevice})
		cfg.Microphone = audio.NewMicrophoneSource(audio.Config{DeviceName: *deviceName})
		defer audio.Terminate()
	}

	a, err := app.New(cfg)
	if err != nil {
		_ = out.Close()
		logger.Fatalf("failed to create app: %v", err)
	}

	runErr := a.Run(ctx)
	if err := a.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "cleanup error: %v\n", err)
	}
	if err := out.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "display cleanup error: %v\n", err)
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		fmt.Fprintf(os.Stderr, "runtime error: %v\n", runErr)
		os.Exit(1)
	}
	time.Sleep(50 * time.Millisecond)
}

func listDevices(logger *log.Logger) {
	if err := audio.Initialize(); err != nil {
		logger.Fatalf("failed to initialize PortAudio: %v", err)
	}
	defer audio.Terminate()

	devices, err := audio.ListDevices()
	if err != nil {
		logger.Fatalf("list devices: %v", err)
	}
	fmt.Printf("\n=== Audio Input Devices ===\n\n")
	for _, dev := range devices {
		if dev.MaxInput == 0 {
			continue
		}
		markers := ""
		if dev.IsDefaultInput {
			markers += " (default)"
		}
		modes := make([]string, len(dev.Modes))
		for i, m := range dev.Modes {
			modes[i] = m.String()
		}
		fmt.Printf("- %s [%s]%s\n    inputs:%d outputs:%d sample:%.0f Hz usable as:%s\n",
			dev.Name, dev.HostAPI, markers, dev.MaxInput, dev.MaxOutput, dev.DefaultSampleHz, strings.Join(modes, ","))
	}
	if dev, err := audio.AutoDetectLoopback(); err == nil && dev != nil {
		fmt.Printf("\nSystem audio would use: %s (%.0f Hz, %d channels)\n", dev.Name, dev.DefaultSampleRate, dev.MaxInputChannels)
	} else {
		fmt.Printf("\nNo loopback device found; system audio capture will fall back to the microphone\n")
	}
	if dev, err := audio.AutoDetectDevice(); err == nil && dev != nil {
		fmt.Printf("Microphone would use: %s (%.0f Hz, %d channels)\n", dev.Name, dev.DefaultSampleRate, dev.MaxInputChannels)
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

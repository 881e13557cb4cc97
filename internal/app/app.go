package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/guidoenr/vaporwall/internal/analyzer"
	"github.com/guidoenr/vaporwall/internal/audio"
	"github.com/guidoenr/vaporwall/internal/display"
	"github.com/guidoenr/vaporwall/internal/model"
	"github.com/guidoenr/vaporwall/internal/params"
	"github.com/guidoenr/vaporwall/internal/render"
	"github.com/guidoenr/vaporwall/internal/scene"
)

// Config configures the application runtime. Display is required; nil
// audio sources are skipped by the fallback chain.
type Config struct {
	FPS         int
	Seed        uint64
	Background  params.BackgroundMode
	Credit      string
	ModelPaths  []string
	NoiseFloor  float64
	Display     display.Backend
	System      audio.Source
	Microphone  audio.Source
	Simulated   audio.Source
	Keyboard    bool
	ProfilePath string
	Log         *log.Logger
}

type click struct {
	surface int
	x, y    float64
	centre  bool
}

type surface struct {
	info     display.Surface
	state    *scene.State
	renderer *render.Renderer
}

// App wires audio capture, smoothing, per-surface scene state and rendering
// into one fixed-cadence loop. Scene state is only touched by Run.
type App struct {
	cfg      Config
	log      *log.Logger
	display  display.Backend
	smoother *analyzer.Smoother
	selector *audio.Selector
	surfaces []*surface
	profiler *profiler
	status   render.ANSIEncoder

	clicks     chan click
	toggles    chan struct{}
	quit       chan struct{}
	quitOnce   sync.Once
	restarting atomic.Bool
	started    atomic.Bool
	mode       atomic.Int32
	mesh       atomic.Pointer[model.Mesh]
	meshSet    *model.Mesh

	last time.Time
	fps  float64
}

// New constructs the application using the provided configuration.
func New(cfg Config) (*App, error) {
	if cfg.Display == nil {
		return nil, errors.New("app: display backend is required")
	}
	if cfg.FPS <= 0 {
		cfg.FPS = 60
	}
	if cfg.Background == "" {
		cfg.Background = params.BackgroundFull
	}
	if cfg.Log == nil {
		cfg.Log = log.New(io.Discard, "", 0)
	}

	a := &App{
		cfg:      cfg,
		log:      cfg.Log,
		display:  cfg.Display,
		smoother: analyzer.New(analyzer.Config{NoiseFloor: cfg.NoiseFloor}),
		clicks:   make(chan click, 64),
		toggles:  make(chan struct{}, 8),
		quit:     make(chan struct{}),
		profiler: newProfiler(cfg.ProfilePath, cfg.Log),
		fps:      float64(cfg.FPS),
	}

	a.selector = audio.NewSelector(audio.SelectorConfig{
		System:     cfg.System,
		Microphone: cfg.Microphone,
		Simulated:  cfg.Simulated,
		Sink:       a.smoother,
		Log:        cfg.Log,
	})
	a.mode.Store(int32(a.selector.Mode()))
	a.selector.OnModeChange(func(m audio.Mode) {
		a.mode.Store(int32(m))
		a.log.Printf("audio mode -> %s", m)
	})

	infos := cfg.Display.Surfaces()
	if len(infos) == 0 {
		return nil, errors.New("app: display exposes no surfaces")
	}
	for i, info := range infos {
		r, err := render.New(info.Width, info.Height)
		if err != nil {
			return nil, fmt.Errorf("surface %d: %w", info.ID, err)
		}
		a.surfaces = append(a.surfaces, &surface{
			info: info,
			state: scene.New(scene.Config{
				Width:      info.Width,
				Height:     info.Height,
				Seed:       cfg.Seed + uint64(i)*0x9E37,
				FPS:        cfg.FPS,
				Background: cfg.Background,
				Credit:     cfg.Credit,
			}),
			renderer: r,
		})
	}
	return a, nil
}

// Run starts audio and the model load in the background, then ticks until
// the context is cancelled or the user quits.
func (a *App) Run(ctx context.Context) error {
	frameDuration := time.Second / time.Duration(a.cfg.FPS)
	ticker := time.NewTicker(frameDuration)
	defer ticker.Stop()

	go a.startAudio()
	go a.loadModel()

	if a.cfg.Keyboard {
		inputCtx, cancelInput := context.WithCancel(ctx)
		defer cancelInput()
		a.startInputListener(inputCtx)
	}

	a.last = time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-a.quit:
			return nil
		case now := <-ticker.C:
			if err := a.step(now); err != nil {
				if errors.Is(err, display.ErrQuit) {
					return nil
				}
				return err
			}
		}
	}
}

// startAudio runs the fallback chain once. After Close it opens nothing.
func (a *App) startAudio() {
	a.selector.Start()
	a.started.Store(true)
}

// Close stops audio capture and the profiler. The display belongs to the caller.
func (a *App) Close() error {
	err := a.selector.Stop()
	if perr := a.profiler.Close(); err == nil {
		err = perr
	}
	return err
}

// RestartAudio re-runs the capture fallback chain from SystemAudio without
// blocking the caller. Requests made while a restart is running coalesce.
func (a *App) RestartAudio() {
	if !a.restarting.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer a.restarting.Store(false)
		a.selector.Restart()
	}()
}

// ToggleBackground flips every surface between the full and overlay presets.
func (a *App) ToggleBackground() {
	select {
	case a.toggles <- struct{}{}:
	default:
	}
}

// RegisterClick spawns a ripple at a surface-local point. Clicks beyond the
// queue capacity are dropped.
func (a *App) RegisterClick(surface int, x, y float64) {
	select {
	case a.clicks <- click{surface: surface, x: x, y: y}:
	default:
	}
}

// Quit asks Run to return.
func (a *App) Quit() {
	a.quitOnce.Do(func() { close(a.quit) })
}

// Mode returns the active audio mode.
func (a *App) Mode() audio.Mode {
	return audio.Mode(a.mode.Load())
}

// Signals returns the latest smoothed signals.
func (a *App) Signals() analyzer.Signals {
	return a.smoother.Snapshot()
}

func (a *App) loadModel() {
	paths := a.cfg.ModelPaths
	if len(paths) == 0 {
		paths = model.Candidates(".", model.DefaultNames, model.DefaultExtensions)
	}
	if mesh := model.LoadFirst(paths, a.log); mesh != nil {
		a.mesh.Store(mesh)
	}
}

// step runs one tick: inputs, signal decay, scene advance, render, present.
func (a *App) step(now time.Time) error {
	a.profiler.beginFrame()

	if err := a.pollDisplay(); err != nil {
		return err
	}
	a.drainCommands()
	if m := a.mesh.Load(); m != a.meshSet {
		for _, s := range a.surfaces {
			s.renderer.SetModel(m)
		}
		a.meshSet = m
	}

	a.smoother.Decay()
	sig := a.smoother.Snapshot()
	dt := 1.0 / float64(a.cfg.FPS)
	for _, s := range a.surfaces {
		s.state.Step(sig, dt)
	}
	a.profiler.markSection("tick")

	for _, s := range a.surfaces {
		frame := s.renderer.Render(s.state, now)
		a.profiler.markSection("render")
		if err := a.display.Present(s.info.ID, frame); err != nil {
			return fmt.Errorf("present surface %d: %w", s.info.ID, err)
		}
		a.profiler.markSection("present")
	}

	if !a.last.IsZero() {
		if delta := now.Sub(a.last).Seconds(); delta > 0 {
			a.fps = a.fps*0.9 + (1/delta)*0.1
		}
	}
	a.last = now
	stopped := a.started.Load() && !a.selector.Active()
	a.display.SetStatus(a.status.Status(a.surfaces[0].state, a.Mode().String(), stopped, a.fps))

	a.profiler.endFrame()
	return nil
}

func (a *App) pollDisplay() error {
	for _, ev := range a.display.Poll() {
		switch ev.Kind {
		case display.EventQuit:
			return display.ErrQuit
		case display.EventClick:
			a.addRipple(ev.Surface, ev.X, ev.Y)
		case display.EventResize:
			if s := a.surfaceByID(ev.Surface); s != nil {
				if s.state.Resize(ev.Width, ev.Height) {
					s.info.Width, s.info.Height = ev.Width, ev.Height
					a.log.Printf("surface %d resized to %dx%d (%d stars)", ev.Surface, ev.Width, ev.Height, len(s.state.Stars.Stars))
				}
			}
		case display.EventKey:
			if a.handleKey(ev.Key) {
				return display.ErrQuit
			}
		}
	}
	return nil
}

func (a *App) drainCommands() {
	for {
		select {
		case c := <-a.clicks:
			if c.centre {
				s := a.surfaces[0]
				c = click{surface: s.info.ID, x: float64(s.info.Width) / 2, y: float64(s.info.Height) / 2}
			}
			a.addRipple(c.surface, c.x, c.y)
		case <-a.toggles:
			for _, s := range a.surfaces {
				mode := s.state.ToggleBackground()
				if s == a.surfaces[0] {
					a.log.Printf("background mode -> %s", mode)
				}
			}
		default:
			return
		}
	}
}

func (a *App) addRipple(id int, x, y float64) {
	if s := a.surfaceByID(id); s != nil {
		s.state.AddRipple(x, y)
	}
}

func (a *App) surfaceByID(id int) *surface {
	for _, s := range a.surfaces {
		if s.info.ID == id {
			return s
		}
	}
	return nil
}

// centreClick queues a click at the middle of the first surface.
func (a *App) centreClick() {
	select {
	case a.clicks <- click{centre: true}:
	default:
	}
}

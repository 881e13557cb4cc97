//go:build sdl

package display

import (
	"fmt"
	"image"
	"log"

	"github.com/veandco/go-sdl2/sdl"
)

type sdlWindow struct {
	window   *sdl.Window
	renderer *sdl.Renderer
	texture  *sdl.Texture
	texW     int
	texH     int
	surface  Surface
}

type sdlBackend struct {
	windows []*sdlWindow
	byID    map[uint32]int
	status  string
	log     *log.Logger
}

// SupportsSDL reports whether the SDL backend was compiled in.
func SupportsSDL() bool { return true }

// openSDL opens one borderless window covering each physical display.
func openSDL(cfg Config) (Backend, error) {
	if err := sdl.InitSubSystem(sdl.INIT_VIDEO); err != nil {
		return nil, fmt.Errorf("init sdl video: %w", err)
	}
	n, err := sdl.GetNumVideoDisplays()
	if err != nil || n <= 0 {
		sdl.QuitSubSystem(sdl.INIT_VIDEO)
		return nil, fmt.Errorf("enumerate displays: %w", err)
	}

	b := &sdlBackend{byID: make(map[uint32]int), log: cfg.Log}
	for i := 0; i < n; i++ {
		bounds, err := sdl.GetDisplayBounds(i)
		if err != nil {
			b.log.Printf("display %d skipped: %v", i, err)
			continue
		}
		name, _ := sdl.GetDisplayName(i)
		w, err := openSDLWindow(cfg.Title, len(b.windows), name, bounds)
		if err != nil {
			b.log.Printf("display %d (%s) skipped: %v", i, name, err)
			continue
		}
		id, err := w.window.GetID()
		if err == nil {
			b.byID[id] = len(b.windows)
		}
		b.windows = append(b.windows, w)
		b.log.Printf("surface %d on %q at %dx%d+%d+%d", w.surface.ID, name, bounds.W, bounds.H, bounds.X, bounds.Y)
	}
	if len(b.windows) == 0 {
		sdl.QuitSubSystem(sdl.INIT_VIDEO)
		return nil, fmt.Errorf("no sdl window could be opened")
	}
	return b, nil
}

func openSDLWindow(title string, id int, name string, bounds sdl.Rect) (*sdlWindow, error) {
	window, err := sdl.CreateWindow(
		title,
		bounds.X, bounds.Y,
		bounds.W, bounds.H,
		sdl.WINDOW_SHOWN|sdl.WINDOW_BORDERLESS|sdl.WINDOW_RESIZABLE,
	)
	if err != nil {
		return nil, err
	}
	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED)
	if err != nil {
		window.Destroy()
		return nil, err
	}
	return &sdlWindow{
		window:   window,
		renderer: renderer,
		surface: Surface{
			ID:     id,
			Name:   name,
			Origin: image.Pt(int(bounds.X), int(bounds.Y)),
			Width:  int(bounds.W),
			Height: int(bounds.H),
		},
	}, nil
}

func (b *sdlBackend) Surfaces() []Surface {
	out := make([]Surface, len(b.windows))
	for i, w := range b.windows {
		out[i] = w.surface
	}
	return out
}

func (b *sdlBackend) Present(surface int, frame *image.RGBA) error {
	if surface < 0 || surface >= len(b.windows) {
		return ErrUnknownSurface
	}
	if frame == nil {
		return nil
	}
	w := b.windows[surface]
	fw, fh := frame.Bounds().Dx(), frame.Bounds().Dy()
	if w.texture == nil || w.texW != fw || w.texH != fh {
		if w.texture != nil {
			w.texture.Destroy()
			w.texture = nil
		}
		tex, err := w.renderer.CreateTexture(
			sdl.PIXELFORMAT_ABGR8888,
			sdl.TEXTUREACCESS_STREAMING,
			int32(fw), int32(fh),
		)
		if err != nil {
			return fmt.Errorf("create texture: %w", err)
		}
		w.texture, w.texW, w.texH = tex, fw, fh
	}
	if err := w.texture.Update(nil, frame.Pix, frame.Stride); err != nil {
		return err
	}
	if err := w.renderer.Clear(); err != nil {
		return err
	}
	if err := w.renderer.Copy(w.texture, nil, nil); err != nil {
		return err
	}
	w.renderer.Present()
	return nil
}

func (b *sdlBackend) SetStatus(text string) { b.status = text }

func (b *sdlBackend) Poll() []Event {
	var events []Event
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch e := event.(type) {
		case *sdl.QuitEvent:
			events = append(events, Event{Kind: EventQuit})
		case *sdl.MouseButtonEvent:
			if e.Type != sdl.MOUSEBUTTONDOWN || e.Button != sdl.BUTTON_LEFT {
				continue
			}
			if idx, ok := b.byID[e.WindowID]; ok {
				events = append(events, Event{Kind: EventClick, Surface: idx, X: float64(e.X), Y: float64(e.Y)})
			}
		case *sdl.WindowEvent:
			idx, ok := b.byID[e.WindowID]
			if !ok {
				continue
			}
			switch e.Event {
			case sdl.WINDOWEVENT_SIZE_CHANGED:
				w := b.windows[idx]
				w.surface.Width, w.surface.Height = int(e.Data1), int(e.Data2)
				events = append(events, Event{Kind: EventResize, Surface: idx, Width: w.surface.Width, Height: w.surface.Height})
			case sdl.WINDOWEVENT_CLOSE:
				events = append(events, Event{Kind: EventQuit})
			}
		case *sdl.KeyboardEvent:
			if e.Type != sdl.KEYDOWN {
				continue
			}
			if e.Keysym.Sym == sdl.K_ESCAPE {
				events = append(events, Event{Kind: EventKey, Key: 'q'})
				continue
			}
			events = append(events, Event{Kind: EventKey, Key: rune(e.Keysym.Sym)})
		}
	}
	return events
}

func (b *sdlBackend) Close() error {
	for _, w := range b.windows {
		if w.texture != nil {
			w.texture.Destroy()
		}
		if w.renderer != nil {
			w.renderer.Destroy()
		}
		if w.window != nil {
			w.window.Destroy()
		}
	}
	b.windows = nil
	sdl.QuitSubSystem(sdl.INIT_VIDEO)
	return nil
}

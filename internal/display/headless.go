package display

import (
	"image"
	"sync"
)

// Headless keeps frames in memory. Tests inject events through Inject.
type Headless struct {
	mu       sync.Mutex
	surfaces []Surface
	frames   []int
	last     []*image.RGBA
	events   []Event
	status   string
	closed   bool
}

// NewHeadless creates one surface per size, laid out left to right.
func NewHeadless(sizes ...image.Point) *Headless {
	h := &Headless{}
	x := 0
	for i, sz := range sizes {
		h.surfaces = append(h.surfaces, Surface{
			ID:     i,
			Name:   "headless",
			Origin: image.Pt(x, 0),
			Width:  max(1, sz.X),
			Height: max(1, sz.Y),
		})
		x += max(1, sz.X)
	}
	h.frames = make([]int, len(h.surfaces))
	h.last = make([]*image.RGBA, len(h.surfaces))
	return h
}

// Surfaces implements Backend.
func (h *Headless) Surfaces() []Surface {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Surface(nil), h.surfaces...)
}

// Present implements Backend. The frame is copied.
func (h *Headless) Present(surface int, frame *image.RGBA) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrQuit
	}
	if surface < 0 || surface >= len(h.surfaces) {
		return ErrUnknownSurface
	}
	h.frames[surface]++
	if frame != nil {
		cp := image.NewRGBA(frame.Bounds())
		copy(cp.Pix, frame.Pix)
		h.last[surface] = cp
	}
	return nil
}

// SetStatus implements Backend.
func (h *Headless) SetStatus(text string) {
	h.mu.Lock()
	h.status = text
	h.mu.Unlock()
}

// Poll implements Backend.
func (h *Headless) Poll() []Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.events) == 0 {
		return nil
	}
	out := h.events
	h.events = nil
	return out
}

// Close implements Backend.
func (h *Headless) Close() error {
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()
	return nil
}

// Inject queues an event for the next Poll. Resize events also update the
// surface size. Safe from any goroutine.
func (h *Headless) Inject(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ev.Kind == EventResize && ev.Surface >= 0 && ev.Surface < len(h.surfaces) {
		h.surfaces[ev.Surface].Width = ev.Width
		h.surfaces[ev.Surface].Height = ev.Height
	}
	h.events = append(h.events, ev)
}

// Frames returns how many frames were presented to a surface.
func (h *Headless) Frames(surface int) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if surface < 0 || surface >= len(h.frames) {
		return 0
	}
	return h.frames[surface]
}

// Last returns a copy of the most recent frame of a surface.
func (h *Headless) Last(surface int) *image.RGBA {
	h.mu.Lock()
	defer h.mu.Unlock()
	if surface < 0 || surface >= len(h.last) {
		return nil
	}
	return h.last[surface]
}

// Status returns the last status text.
func (h *Headless) Status() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.status
}

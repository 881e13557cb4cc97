package render

import (
	"fmt"
	"image"
	"time"

	"github.com/guidoenr/vaporwall/internal/model"
	"github.com/guidoenr/vaporwall/internal/scene"
)

// Renderer paints a scene.State into an RGBA frame. It is owned by the
// render loop; one Renderer serves one surface.
type Renderer struct {
	width  int
	height int
	canvas *Canvas
	frame  *image.RGBA
	text   *textCache
	mesh   *model.Mesh
}

// New creates a Renderer for a width x height surface.
func New(width, height int) (*Renderer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid dimensions: width=%d height=%d", width, height)
	}
	r := &Renderer{text: newTextCache()}
	r.Resize(width, height)
	return r, nil
}

// Resize updates the framebuffer dimensions.
func (r *Renderer) Resize(width, height int) {
	if width <= 0 || height <= 0 || (width == r.width && height == r.height) {
		return
	}
	r.width, r.height = width, height
	if r.canvas == nil {
		r.canvas = NewCanvas(width, height)
	} else {
		r.canvas.Resize(width, height)
	}
	r.frame = image.NewRGBA(image.Rect(0, 0, width, height))
}

// Size returns the framebuffer dimensions.
func (r *Renderer) Size() (int, int) { return r.width, r.height }

// SetModel installs the wireframe drawn above the globes. Nil removes it.
func (r *Renderer) SetModel(m *model.Mesh) { r.mesh = m }

// Model returns the installed mesh, if any.
func (r *Renderer) Model() *model.Mesh { return r.mesh }

// Render paints every layer back to front and returns the frame. The
// returned image is reused by the next call.
func (r *Renderer) Render(st *scene.State, now time.Time) *image.RGBA {
	if st == nil {
		return r.frame
	}
	r.Resize(st.Width, st.Height)

	c := r.canvas
	c.Clear()
	paintBackground(c, st)
	paintStars(c, st)
	paintGrid(c, st)
	paintPulse(c, st)
	paintGlobes(c, st)
	paintModel(c, st, r.mesh)
	r.paintTicker(c, st)
	paintWaveform(c, st)
	r.paintClock(c, st, now)
	paintRipples(c, st)
	r.paintCredit(c, st)

	c.Export(r.frame)
	return r.frame
}

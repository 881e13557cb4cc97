package render

import (
	"image"
	"image/draw"
	"math"

	"golang.org/x/image/vector"
)

// BlendMode selects how a source colour combines with the canvas.
type BlendMode int

const (
	BlendOver BlendMode = iota
	BlendAdd
	BlendScreen
)

// Canvas is a floating point RGB buffer with a separate coverage (alpha)
// plane. Layers paint into it back to front; Export converts to RGBA.
type Canvas struct {
	w, h  int
	pix   []float32
	alpha []float32

	rast    vector.Rasterizer
	maskBuf []uint8
}

// NewCanvas allocates a canvas of the given size.
func NewCanvas(width, height int) *Canvas {
	c := &Canvas{}
	c.Resize(width, height)
	return c
}

// Resize reallocates the buffers when the size changes.
func (c *Canvas) Resize(width, height int) {
	width, height = max(1, width), max(1, height)
	if c.w == width && c.h == height {
		return
	}
	c.w, c.h = width, height
	c.pix = make([]float32, width*height*3)
	c.alpha = make([]float32, width*height)
}

// Size returns the canvas dimensions.
func (c *Canvas) Size() (int, int) { return c.w, c.h }

// Clear resets every pixel to transparent black.
func (c *Canvas) Clear() {
	clear(c.pix)
	clear(c.alpha)
}

// Set writes a pixel directly, replacing colour and coverage.
func (c *Canvas) Set(x, y int, col RGB, a float64) {
	if x < 0 || y < 0 || x >= c.w || y >= c.h {
		return
	}
	i := y*c.w + x
	c.pix[i*3] = float32(clamp01(col.R))
	c.pix[i*3+1] = float32(clamp01(col.G))
	c.pix[i*3+2] = float32(clamp01(col.B))
	c.alpha[i] = float32(clamp01(a))
}

// At returns the colour and coverage of a pixel.
func (c *Canvas) At(x, y int) (RGB, float64) {
	if x < 0 || y < 0 || x >= c.w || y >= c.h {
		return RGB{}, 0
	}
	i := y*c.w + x
	return RGB{float64(c.pix[i*3]), float64(c.pix[i*3+1]), float64(c.pix[i*3+2])}, float64(c.alpha[i])
}

// Blend combines col at strength a into one pixel.
func (c *Canvas) Blend(x, y int, col RGB, a float64, mode BlendMode) {
	if x < 0 || y < 0 || x >= c.w || y >= c.h || a <= 0 {
		return
	}
	c.blendIndex(y*c.w+x, col, a, mode)
}

func (c *Canvas) blendIndex(i int, col RGB, a float64, mode BlendMode) {
	a = clamp01(a)
	src := [3]float32{float32(clamp01(col.R)), float32(clamp01(col.G)), float32(clamp01(col.B))}
	af := float32(a)
	p := c.pix[i*3 : i*3+3 : i*3+3]
	switch mode {
	case BlendAdd:
		for k := range p {
			p[k] = min(1, p[k]+src[k]*af)
		}
	case BlendScreen:
		for k := range p {
			p[k] = 1 - (1-p[k])*(1-src[k]*af)
		}
	default:
		for k := range p {
			p[k] = p[k]*(1-af) + src[k]*af
		}
	}
	c.alpha[i] += af * (1 - c.alpha[i])
}

// FillRect blends a solid rectangle.
func (c *Canvas) FillRect(x, y, w, h float64, col RGB, a float64, mode BlendMode) {
	x0, y0 := max(0, int(math.Floor(x))), max(0, int(math.Floor(y)))
	x1, y1 := min(c.w, int(math.Ceil(x+w))), min(c.h, int(math.Ceil(y+h)))
	for py := y0; py < y1; py++ {
		for px := x0; px < x1; px++ {
			c.blendIndex(py*c.w+px, col, a, mode)
		}
	}
}

// Glow blends a soft radial blob with quadratic falloff.
func (c *Canvas) Glow(cx, cy, radius float64, col RGB, a float64, mode BlendMode) {
	c.GlowEllipse(cx, cy, radius, radius, col, a, mode)
}

// GlowEllipse blends a soft elliptical blob.
func (c *Canvas) GlowEllipse(cx, cy, rx, ry float64, col RGB, a float64, mode BlendMode) {
	if rx <= 0.5 || ry <= 0.5 || a <= 0 {
		return
	}
	x0, y0 := max(0, int(cx-rx)), max(0, int(cy-ry))
	x1, y1 := min(c.w, int(cx+rx)+1), min(c.h, int(cy+ry)+1)
	for py := y0; py < y1; py++ {
		dy := (float64(py) + 0.5 - cy) / ry
		for px := x0; px < x1; px++ {
			dx := (float64(px) + 0.5 - cx) / rx
			d := dx*dx + dy*dy
			if d >= 1 {
				continue
			}
			f := 1 - math.Sqrt(d)
			c.blendIndex(py*c.w+px, col, a*f*f, mode)
		}
	}
}

// Line strokes a straight segment.
func (c *Canvas) Line(x0, y0, x1, y1, width float64, col RGB, a float64, mode BlendMode) {
	c.Polyline([]Point{{x0, y0}, {x1, y1}}, width, col, a, mode)
}

// Polyline strokes connected segments as one coverage pass so joints are
// not blended twice.
func (c *Canvas) Polyline(pts []Point, width float64, col RGB, a float64, mode BlendMode) {
	if len(pts) < 2 || a <= 0 {
		return
	}
	var p path
	for i := 1; i < len(pts); i++ {
		p.segment(pts[i-1], pts[i], width)
	}
	c.fill(&p, col, a, mode)
}

// Segments strokes independent segments in a single coverage pass.
func (c *Canvas) Segments(segs [][2]Point, width float64, col RGB, a float64, mode BlendMode) {
	if len(segs) == 0 || a <= 0 {
		return
	}
	var p path
	for _, s := range segs {
		p.segment(s[0], s[1], width)
	}
	c.fill(&p, col, a, mode)
}

// FillPolygon fills a closed polygon.
func (c *Canvas) FillPolygon(pts []Point, col RGB, a float64, mode BlendMode) {
	if len(pts) < 3 || a <= 0 {
		return
	}
	var p path
	p.polygon(pts, false)
	c.fill(&p, col, a, mode)
}

// FillCircle fills a disc.
func (c *Canvas) FillCircle(cx, cy, r float64, col RGB, a float64, mode BlendMode) {
	if r <= 0 || a <= 0 {
		return
	}
	var p path
	p.polygon(circlePoints(cx, cy, r), false)
	c.fill(&p, col, a, mode)
}

// Ring strokes a circle outline of the given width.
func (c *Canvas) Ring(cx, cy, r, width float64, col RGB, a float64, mode BlendMode) {
	if r <= 0 || width <= 0 || a <= 0 {
		return
	}
	outer := r + width/2
	inner := max(0, r-width/2)
	var p path
	p.polygon(circlePoints(cx, cy, outer), false)
	if inner > 0 {
		p.polygon(circlePoints(cx, cy, inner), true)
	}
	c.fill(&p, col, a, mode)
}

// DrawMask blends col through an alpha mask placed with its origin at (x,y),
// clipped to clip (use the canvas bounds for no extra clipping).
func (c *Canvas) DrawMask(mask *image.Alpha, x, y int, clip image.Rectangle, col RGB, a float64, mode BlendMode) {
	if mask == nil || a <= 0 {
		return
	}
	b := mask.Bounds()
	dst := image.Rect(x, y, x+b.Dx(), y+b.Dy()).Intersect(clip).Intersect(image.Rect(0, 0, c.w, c.h))
	for py := dst.Min.Y; py < dst.Max.Y; py++ {
		my := py - y + b.Min.Y
		for px := dst.Min.X; px < dst.Max.X; px++ {
			cov := mask.Pix[(my-b.Min.Y)*mask.Stride+(px-x)]
			if cov == 0 {
				continue
			}
			c.blendIndex(py*c.w+px, col, a*float64(cov)/255, mode)
		}
	}
}

// Bounds returns the canvas rectangle.
func (c *Canvas) Bounds() image.Rectangle {
	return image.Rect(0, 0, c.w, c.h)
}

// Export writes the canvas into dst as premultiplied RGBA.
func (c *Canvas) Export(dst *image.RGBA) {
	b := dst.Bounds().Intersect(c.Bounds())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := dst.Pix[(y-dst.Rect.Min.Y)*dst.Stride:]
		for x := b.Min.X; x < b.Max.X; x++ {
			i := y*c.w + x
			a := clamp01(float64(c.alpha[i]))
			o := (x - dst.Rect.Min.X) * 4
			row[o] = uint8(clamp01(float64(c.pix[i*3])*a)*255 + 0.5)
			row[o+1] = uint8(clamp01(float64(c.pix[i*3+1])*a)*255 + 0.5)
			row[o+2] = uint8(clamp01(float64(c.pix[i*3+2])*a)*255 + 0.5)
			row[o+3] = uint8(a*255 + 0.5)
		}
	}
}

// fill rasterizes a path into a coverage mask over its bounding box and
// blends it into the canvas.
func (c *Canvas) fill(p *path, col RGB, a float64, mode BlendMode) {
	if len(p.contours) == 0 {
		return
	}
	box := image.Rect(
		int(math.Floor(p.minX))-1, int(math.Floor(p.minY))-1,
		int(math.Ceil(p.maxX))+1, int(math.Ceil(p.maxY))+1,
	).Intersect(c.Bounds())
	if box.Empty() {
		return
	}

	bw, bh := box.Dx(), box.Dy()
	if cap(c.maskBuf) < bw*bh {
		c.maskBuf = make([]uint8, bw*bh)
	}
	mask := &image.Alpha{Pix: c.maskBuf[:bw*bh], Stride: bw, Rect: image.Rect(0, 0, bw, bh)}

	ox, oy := float32(box.Min.X), float32(box.Min.Y)
	c.rast.Reset(bw, bh)
	c.rast.DrawOp = draw.Src
	for _, contour := range p.contours {
		c.rast.MoveTo(float32(contour[0].X)-ox, float32(contour[0].Y)-oy)
		for _, pt := range contour[1:] {
			c.rast.LineTo(float32(pt.X)-ox, float32(pt.Y)-oy)
		}
		c.rast.ClosePath()
	}
	c.rast.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})

	for y := 0; y < bh; y++ {
		row := mask.Pix[y*bw : (y+1)*bw]
		base := (box.Min.Y+y)*c.w + box.Min.X
		for x, cov := range row {
			if cov == 0 {
				continue
			}
			c.blendIndex(base+x, col, a*float64(cov)/255, mode)
		}
	}
}

// Point is a position in surface pixels.
type Point struct {
	X, Y float64
}

// path collects closed contours and their bounding box.
type path struct {
	contours               [][]Point
	minX, minY, maxX, maxY float64
}

func (p *path) add(contour []Point) {
	if len(contour) < 3 {
		return
	}
	for _, pt := range contour {
		if math.IsNaN(pt.X) || math.IsNaN(pt.Y) || math.IsInf(pt.X, 0) || math.IsInf(pt.Y, 0) {
			return
		}
	}
	if len(p.contours) == 0 {
		p.minX, p.minY = math.Inf(1), math.Inf(1)
		p.maxX, p.maxY = math.Inf(-1), math.Inf(-1)
	}
	for _, pt := range contour {
		p.minX = math.Min(p.minX, pt.X)
		p.minY = math.Min(p.minY, pt.Y)
		p.maxX = math.Max(p.maxX, pt.X)
		p.maxY = math.Max(p.maxY, pt.Y)
	}
	p.contours = append(p.contours, contour)
}

// polygon adds a contour wound counter-clockwise, or clockwise when
// reversed is set so it cuts a hole.
func (p *path) polygon(pts []Point, reversed bool) {
	if (signedArea(pts) < 0) != reversed {
		flipped := make([]Point, len(pts))
		for i, pt := range pts {
			flipped[len(pts)-1-i] = pt
		}
		pts = flipped
	}
	p.add(pts)
}

// segment adds the quad covering a stroked segment. Every quad shares the
// same winding so overlapping strokes never cancel.
func (p *path) segment(a, b Point, width float64) {
	hw := math.Max(0.5, width/2)
	dx, dy := b.X-a.X, b.Y-a.Y
	l := math.Hypot(dx, dy)
	if l < 1e-6 {
		dx, dy, l = 1, 0, 1
		a.X -= hw / 2
		b.X += hw / 2
	}
	nx, ny := -dy/l*hw, dx/l*hw
	p.polygon([]Point{
		{a.X + nx, a.Y + ny},
		{b.X + nx, b.Y + ny},
		{b.X - nx, b.Y - ny},
		{a.X - nx, a.Y - ny},
	}, false)
}

func signedArea(pts []Point) float64 {
	s := 0.0
	for i := range pts {
		j := (i + 1) % len(pts)
		s += pts[i].X*pts[j].Y - pts[j].X*pts[i].Y
	}
	return s / 2
}

func circlePoints(cx, cy, r float64) []Point {
	n := int(math.Ceil(r * 0.9))
	n = min(96, max(12, n))
	pts := make([]Point, n)
	for i := range pts {
		s, co := math.Sincos(float64(i) / float64(n) * 2 * math.Pi)
		pts[i] = Point{cx + co*r, cy + s*r}
	}
	return pts
}

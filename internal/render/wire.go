package render

import (
	"math"

	"github.com/guidoenr/vaporwall/internal/model"
	"github.com/guidoenr/vaporwall/internal/scene"
)

const (
	fov        = 2.6
	depthBands = 4
)

type globeSpec struct {
	cx, cy, r float64
	lat, lon  int
	spin      float64
	tilt      float64
	hue       float64
}

var globes = [2]globeSpec{
	{cx: 0.16, cy: 0.30, r: 0.085, lat: 8, lon: 12, spin: 0.9, tilt: 0.45, hue: 0.55},
	{cx: 0.84, cy: 0.26, r: 0.065, lat: 6, lon: 10, spin: -1.3, tilt: -0.3, hue: 0.12},
}

// projector rotates a unit-space point around Y then X and projects it.
type projector struct {
	cx, cy, scale      float64
	sinYaw, cosYaw     float64
	sinPitch, cosPitch float64
	offset             [3]float64
}

func newProjector(cx, cy, scale, yaw, pitch float64) projector {
	sy, cy2 := math.Sincos(yaw)
	sp, cp := math.Sincos(pitch)
	return projector{cx: cx, cy: cy, scale: scale, sinYaw: sy, cosYaw: cy2, sinPitch: sp, cosPitch: cp}
}

// project returns screen coordinates and view depth in roughly [-1,1],
// negative toward the viewer.
func (p projector) project(v [3]float64) (Point, float64) {
	x := v[0]*p.cosYaw - v[2]*p.sinYaw
	z := v[0]*p.sinYaw + v[2]*p.cosYaw
	y := v[1]*p.cosPitch - z*p.sinPitch
	z = v[1]*p.sinPitch + z*p.cosPitch

	x += p.offset[0]
	y += p.offset[1]
	z += p.offset[2]

	persp := fov / math.Max(0.2, fov+z)
	return Point{p.cx + x*p.scale*persp, p.cy - y*p.scale*persp}, z
}

// bandedSegments buckets segments by depth so each band is one coverage pass.
type bandedSegments [depthBands][][2]Point

func (b *bandedSegments) add(a, c Point, za, zc float64) {
	d := clamp01(((za+zc)/2 + 1) / 2)
	i := min(depthBands-1, int(d*depthBands))
	b[i] = append(b[i], [2]Point{a, c})
}

// draw paints near bands brighter; band 0 is closest.
func (b *bandedSegments) draw(c *Canvas, cycle, hue float64, width float64) {
	for i := depthBands - 1; i >= 0; i-- {
		shade := 1 - float64(i)/float64(depthBands-1)*0.65
		col := Hue(cycle, hue+0.1*shade, 0.6, shade)
		c.Segments(b[i], width*(1+shade*0.6), col, 0.25+0.6*shade, BlendScreen)
	}
}

func paintGlobes(c *Canvas, st *scene.State) {
	w, h := c.Size()
	fw, fh := float64(w), float64(h)
	u := math.Min(fw, fh)
	grow := 1 + clamp01(st.Signals.Energy)*0.12
	for _, g := range globes {
		p := newProjector(fw*g.cx, fh*g.cy, u*g.r*2*grow, st.Phase*g.spin*0.35, g.tilt)
		var bands bandedSegments
		globeWire(&bands, p, g.lat, g.lon)
		bands.draw(c, st.ColorCycle, g.hue, 1)
	}
}

func globeWire(b *bandedSegments, p projector, lat, lon int) {
	const ringSteps = 32
	const meridianSteps = 16
	for i := 1; i < lat; i++ {
		theta := -math.Pi/2 + float64(i)*math.Pi/float64(lat)
		st, ct := math.Sincos(theta)
		var prev Point
		var prevZ float64
		for k := 0; k <= ringSteps; k++ {
			sp, cp := math.Sincos(float64(k) / ringSteps * 2 * math.Pi)
			pt, z := p.project([3]float64{ct * cp, st, ct * sp})
			if k > 0 {
				b.add(prev, pt, prevZ, z)
			}
			prev, prevZ = pt, z
		}
	}
	for j := 0; j < lon; j++ {
		sp, cp := math.Sincos(float64(j) / float64(lon) * 2 * math.Pi)
		var prev Point
		var prevZ float64
		for k := 0; k <= meridianSteps; k++ {
			st, ct := math.Sincos(-math.Pi/2 + float64(k)/meridianSteps*math.Pi)
			pt, z := p.project([3]float64{ct * cp, st, ct * sp})
			if k > 0 {
				b.add(prev, pt, prevZ, z)
			}
			prev, prevZ = pt, z
		}
	}
}

// paintModel draws the loaded mesh as a wireframe above the centre pulse,
// offset by the beat-driven jump.
func paintModel(c *Canvas, st *scene.State, mesh *model.Mesh) {
	if mesh == nil || len(mesh.Edges) == 0 {
		return
	}
	w, h := c.Size()
	fw, fh := float64(w), float64(h)
	u := math.Min(fw, fh)

	p := newProjector(fw*0.5, fh*0.36, u*0.14, st.Phase*0.25, 0.35)
	p.offset = st.Model.Position()

	proj := make([]Point, len(mesh.Vertices))
	depth := make([]float64, len(mesh.Vertices))
	for i, v := range mesh.Vertices {
		proj[i], depth[i] = p.project(v)
	}

	var bands bandedSegments
	for _, e := range mesh.Edges {
		a, b := e[0], e[1]
		if a < 0 || b < 0 || a >= len(proj) || b >= len(proj) {
			continue
		}
		bands.add(proj[a], proj[b], depth[a], depth[b])
	}
	bands.draw(c, st.ColorCycle, 0.6, 0.9)
}

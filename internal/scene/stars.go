package scene

import "math"

const (
	minStars       = 95
	maxStars       = 210
	areaPerStar    = 10000.0
	respawnMargin  = 40.0
	spawnRadiusRel = 0.08

	minStarDepth = 0.45
	maxStarDepth = 1.0

	zoomLevelGain = 2.3
	zoomBeatGain  = 5.6
	beatPushGain  = 1.6
	driftGain     = 0.18
)

// Star is one particle of the starfield in surface-local pixels.
type Star struct {
	X, Y       float64
	VX, VY     float64
	Size       float64
	Brightness float64
	Depth      float64
	Twinkle    float64
	Hue        float64
}

// StarCount returns the star budget for a surface, proportional to its area.
func StarCount(width, height int) int {
	if width <= 0 || height <= 0 {
		return minStars
	}
	n := int(float64(width) * float64(height) / areaPerStar)
	return min(maxStars, max(minStars, n))
}

// Starfield owns the stars of one surface.
type Starfield struct {
	Stars  []Star
	Width  float64
	Height float64

	// Respawns counts stars replaced after leaving the bounds.
	Respawns int

	rng Rand
}

// NewStarfield scatters a fresh star set across a width x height surface.
func NewStarfield(width, height int, seed uint64) *Starfield {
	f := &Starfield{rng: NewRand(seed)}
	f.Resize(width, height)
	return f
}

// Resize regenerates the whole set for the new bounds.
func (f *Starfield) Resize(width, height int) {
	f.Width = float64(max(1, width))
	f.Height = float64(max(1, height))
	n := StarCount(width, height)
	if cap(f.Stars) >= n {
		f.Stars = f.Stars[:n]
	} else {
		f.Stars = make([]Star, n)
	}
	for i := range f.Stars {
		f.Stars[i] = f.scatter()
	}
}

// SpawnRadius is the radius around the centre where respawned stars appear.
func (f *Starfield) SpawnRadius() float64 {
	return spawnRadiusRel * math.Min(f.Width, f.Height)
}

// Outside reports whether a point left the bounds expanded by the margin.
func (f *Starfield) Outside(x, y float64) bool {
	return x < -respawnMargin || x > f.Width+respawnMargin ||
		y < -respawnMargin || y > f.Height+respawnMargin
}

// Zoom is the audio-driven velocity multiplier.
func Zoom(raw, beat float64) float64 {
	return 1 + raw*zoomLevelGain + beat*zoomBeatGain
}

// Update integrates every star and replaces those that left the bounds.
func (f *Starfield) Update(raw, beat, phase float64) {
	zoom := Zoom(raw, beat)
	cx, cy := f.Width/2, f.Height/2

	for i := range f.Stars {
		s := &f.Stars[i]

		ux, uy := s.X-cx, s.Y-cy
		if d := math.Hypot(ux, uy); d > 1e-6 {
			ux, uy = ux/d, uy/d
		} else {
			ux, uy = math.Cos(s.Hue*2*math.Pi), math.Sin(s.Hue*2*math.Pi)
		}

		push := beat * beatPushGain * s.Depth
		drift := math.Sin(phase*0.8+s.Twinkle) * driftGain

		s.X += s.VX*zoom*s.Depth + ux*push - uy*drift
		s.Y += s.VY*zoom*s.Depth + uy*push + ux*drift

		if f.Outside(s.X, s.Y) {
			*s = f.spawn()
			f.Respawns++
		}
	}
}

// spawn creates a star near the centre moving outward.
func (f *Starfield) spawn() Star {
	angle := f.rng.Range(0, 2*math.Pi)
	r := f.rng.Float64() * f.SpawnRadius()
	s := f.randomStar(angle)
	s.X = f.Width/2 + math.Cos(angle)*r
	s.Y = f.Height/2 + math.Sin(angle)*r
	return s
}

// scatter places a star anywhere on the surface, used to fill a new field.
func (f *Starfield) scatter() Star {
	x := f.rng.Range(0, f.Width)
	y := f.rng.Range(0, f.Height)
	s := f.randomStar(math.Atan2(y-f.Height/2, x-f.Width/2))
	s.X, s.Y = x, y
	return s
}

func (f *Starfield) randomStar(heading float64) Star {
	heading += f.rng.Range(-0.35, 0.35)
	speed := f.rng.Range(0.25, 1.3)
	depth := f.rng.Range(minStarDepth, maxStarDepth)
	return Star{
		VX:         math.Cos(heading) * speed,
		VY:         math.Sin(heading) * speed,
		Size:       f.rng.Range(0.6, 2.2) * depth,
		Brightness: f.rng.Range(0.45, 1.0),
		Depth:      depth,
		Twinkle:    f.rng.Range(0, 2*math.Pi),
		Hue:        f.rng.Float64(),
	}
}

package scene

// RippleLifespan is how long a click ripple stays on screen, in seconds.
const RippleLifespan = 1.6

const maxRipples = 48

// Ripple is an expanding ring spawned by a click.
type Ripple struct {
	X, Y     float64
	Age      float64
	Lifespan float64
}

// Progress returns age/lifespan in [0,1].
func (r Ripple) Progress() float64 {
	if r.Lifespan <= 0 {
		return 1
	}
	return clamp(r.Age/r.Lifespan, 0, 1)
}

// advanceRipples ages every ripple by dt and drops expired ones in place.
func advanceRipples(ripples []Ripple, dt float64) []Ripple {
	if dt < 0 {
		dt = 0
	}
	kept := ripples[:0]
	for _, r := range ripples {
		r.Age += dt
		if r.Age > r.Lifespan {
			continue
		}
		kept = append(kept, r)
	}
	return kept
}

package params

import (
	"strings"

	"github.com/charmbracelet/harmonica"
)

// BackgroundMode selects how opaque the painted background is.
type BackgroundMode string

const (
	BackgroundFull    BackgroundMode = "full"
	BackgroundOverlay BackgroundMode = "overlay"

	fullOpacity    = 1.0
	overlayOpacity = 0.42

	opacityFrequency = 6.0
	opacityDamping   = 1.0
)

// ParseBackgroundMode maps user input onto a preset, defaulting to full.
func ParseBackgroundMode(name string) BackgroundMode {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "overlay", "translucent", "transparent":
		return BackgroundOverlay
	default:
		return BackgroundFull
	}
}

// Opacity returns the preset alpha for the mode.
func (m BackgroundMode) Opacity() float64 {
	if m == BackgroundOverlay {
		return overlayOpacity
	}
	return fullOpacity
}

// Parameters holds per-surface presentation state that is not driven by audio.
type Parameters struct {
	Mode    BackgroundMode
	Opacity float64
	Credit  string

	velocity float64
	spring   harmonica.Spring
}

// Defaults returns parameters for the full background preset.
func Defaults(fps int) Parameters {
	if fps <= 0 {
		fps = 60
	}
	return Parameters{
		Mode:    BackgroundFull,
		Opacity: fullOpacity,
		Credit:  "vaporwall",
		spring:  harmonica.NewSpring(harmonica.FPS(fps), opacityFrequency, opacityDamping),
	}
}

// SetMode selects a preset; the opacity eases toward it over the following ticks.
func (p *Parameters) SetMode(mode BackgroundMode) {
	p.Mode = mode
}

// SnapMode selects a preset and jumps straight to its opacity.
func (p *Parameters) SnapMode(mode BackgroundMode) {
	p.Mode = mode
	p.Opacity = mode.Opacity()
	p.velocity = 0
}

// Toggle flips between the full and overlay presets.
func (p *Parameters) Toggle() BackgroundMode {
	if p.Mode == BackgroundOverlay {
		p.SetMode(BackgroundFull)
	} else {
		p.SetMode(BackgroundOverlay)
	}
	return p.Mode
}

// Update advances the opacity spring by one tick.
func (p *Parameters) Update() {
	target := p.Mode.Opacity()
	p.Opacity, p.velocity = p.spring.Update(p.Opacity, p.velocity, target)
	if p.Opacity < overlayOpacity {
		p.Opacity = overlayOpacity
		p.velocity = 0
	}
	if p.Opacity > fullOpacity {
		p.Opacity = fullOpacity
		p.velocity = 0
	}
}

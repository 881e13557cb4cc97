package scene

import "math"

const (
	jumpThreshold = 0.20
	jumpImpulse   = 0.070
	jumpGravity   = 0.006
	jumpDamping   = 0.89
	jumpCap       = 0.28

	hoverAmplitude = 0.03
	hoverRate      = 0.35
	depthAmplitude = 0.12
	depthStep      = 0.011
)

// ModelMotion animates the externally supplied 3D model: a beat-driven
// jump with gravity and damping plus slow hover and depth breathing.
type ModelMotion struct {
	JumpOffset   float64
	JumpVelocity float64
	DepthPhase   float64
	Hover        float64
}

// Update advances the motion by one tick.
func (m *ModelMotion) Update(beat, phase float64) {
	m.JumpVelocity += max(0, beat-jumpThreshold) * jumpImpulse
	m.JumpVelocity -= jumpGravity
	m.JumpVelocity *= jumpDamping
	m.JumpOffset += m.JumpVelocity

	if m.JumpOffset < 0 {
		m.JumpOffset = 0
		if m.JumpVelocity < 0 {
			m.JumpVelocity = 0
		}
	}
	if m.JumpOffset > jumpCap {
		m.JumpOffset = jumpCap
		if m.JumpVelocity > 0 {
			m.JumpVelocity = 0
		}
	}

	m.Hover = hoverAmplitude * math.Sin(phase*hoverRate)
	m.DepthPhase = math.Mod(m.DepthPhase+depthStep, 2*math.Pi)
}

// Position returns the local offset applied to the model node.
func (m ModelMotion) Position() [3]float64 {
	return [3]float64{0, m.Hover + m.JumpOffset, depthAmplitude * math.Sin(m.DepthPhase)}
}

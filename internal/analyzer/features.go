package analyzer

// Signals is the audio-reactive state consumed by the scene each tick. All
// fields are in [0,1].
type Signals struct {
	Raw    float64
	Level  float64
	Beat   float64
	Energy float64
}

// Gate applies a noise floor: values at or below floor become 0 and the
// rest is rescaled to [0,1].
func Gate(v, floor float64) float64 {
	if floor <= 0 {
		return v
	}
	if v <= floor {
		return 0
	}
	return clamp((v-floor)/(1.0-floor), 0, 1)
}

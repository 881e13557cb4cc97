package scene

// Rand is a 64-bit linear congruential generator. It is a value type so
// each owner carries its own reproducible stream; there is no shared state.
type Rand struct {
	state uint64
}

// NewRand seeds a generator. A zero seed is replaced by 1.
func NewRand(seed uint64) Rand {
	if seed == 0 {
		seed = 1
	}
	return Rand{state: seed}
}

// Uint64 advances the generator.
func (r *Rand) Uint64() uint64 {
	r.state = r.state*6364136223846793005 + 1442695040888963407
	return r.state
}

// Float64 returns a value in [0,1) built from the high 53 bits.
func (r *Rand) Float64() float64 {
	return float64(r.Uint64()>>11) / (1 << 53)
}

// Range returns a value in [lo,hi).
func (r *Rand) Range(lo, hi float64) float64 {
	return lo + (hi-lo)*r.Float64()
}

// Intn returns a value in [0,n). n <= 0 yields 0.
func (r *Rand) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return int((r.Uint64() >> 33) % uint64(n))
}

// Hash mixes three integers into a value in [0,1). Used for per-frame
// decisions that must be reproducible without keeping per-item state.
func Hash(a, b, c int64) float64 {
	x := uint64(a)*0x9E3779B97F4A7C15 ^ uint64(b)*0xC2B2AE3D27D4EB4F ^ uint64(c)*0x165667B19E3779F9
	x ^= x >> 33
	x *= 0xFF51AFD7ED558CCD
	x ^= x >> 33
	x *= 0xC4CEB9FE1A85EC53
	x ^= x >> 33
	return float64(x>>11) / (1 << 53)
}

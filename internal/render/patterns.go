package render

import "math"

// haze returns a slowly drifting value in [-1,1] used to break up large
// flat gradients.
func haze(x, y, t float64) float64 {
	return fractalNoise(x+t*0.07, y-t*0.05)
}

// gridWarp is the vertical displacement of the perspective grid at a point,
// before it is scaled by the audio amplitude.
func gridWarp(x, row, phase float64) float64 {
	return math.Sin(x*0.011+phase*1.3+row*0.7) + 0.5*math.Cos(x*0.023-phase*0.9+row*0.3)
}

func fractalNoise(x, y float64) float64 {
	amp := 0.5
	freq := 1.0
	total := 0.0
	sumAmp := 0.0

	for i := 0; i < 4; i++ {
		total += valueNoise2(x*freq, y*freq) * amp
		sumAmp += amp
		amp *= 0.5
		freq *= 2.0
	}

	return (total/sumAmp)*2.0 - 1.0
}

func valueNoise2(x, y float64) float64 {
	x0 := math.Floor(x)
	y0 := math.Floor(y)

	sx := smoothstep(x - x0)
	sy := smoothstep(y - y0)

	ix0 := lerp(hash2(x0, y0), hash2(x0+1, y0), sx)
	ix1 := lerp(hash2(x0, y0+1), hash2(x0+1, y0+1), sx)
	return lerp(ix0, ix1, sy)
}

func hash2(x, y float64) float64 {
	return frac(math.Sin(x*127.1+y*311.7) * 43758.5453123)
}

func smoothstep(v float64) float64 {
	v = clamp01(v)
	return v * v * (3 - 2*v)
}

func frac(v float64) float64 {
	return v - math.Floor(v)
}

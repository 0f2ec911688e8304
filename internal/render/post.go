package render

import "math"

// WhiteCap returns a limiter that scales each LED so r+g+b <= whiteCap*3*255.
// Caps outside (0,1) disable it.
func WhiteCap(whiteCap float64) func([]byte) {
	return func(rgb []byte) { applyWhiteCap(rgb, whiteCap) }
}

func applyWhiteCap(rgb []byte, whiteCap float64) {
	if whiteCap <= 0 || whiteCap >= 1 {
		return
	}
	limit := whiteCap * 3.0 * 255.0
	for i := 0; i+2 < len(rgb); i += 3 {
		s := float64(rgb[i]) + float64(rgb[i+1]) + float64(rgb[i+2])
		if s > limit && s > 0 {
			scale := limit / s
			rgb[i] = byte(math.Round(float64(rgb[i]) * scale))
			rgb[i+1] = byte(math.Round(float64(rgb[i+1]) * scale))
			rgb[i+2] = byte(math.Round(float64(rgb[i+2]) * scale))
		}
	}
}

// EstimateCurrent returns estimated amps for a frame at 20mA per channel full-scale.
func EstimateCurrent(rgb []byte) float64 {
	var sum float64
	for i := 0; i+2 < len(rgb); i += 3 {
		sum += float64(rgb[i]) + float64(rgb[i+1]) + float64(rgb[i+2])
	}
	return sum / 255.0 * 0.020
}

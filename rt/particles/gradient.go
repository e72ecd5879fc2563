package particles

import (
	colorful "github.com/lucasb-eyer/go-colorful"
)

// Gradient breakpoints, keyed by normalized anchor distance.
var (
	ColorNear = colorful.Color{R: 0.0, G: 0.1, B: 0.8} // blue
	ColorMid  = colorful.Color{R: 0.0, G: 0.9, B: 1.0} // cyan
	ColorFar  = colorful.Color{R: 1.0, G: 1.0, B: 1.0} // white
)

// GradientColor maps t in [0,1] onto blue->cyan->white. Values outside the
// range are clamped.
func GradientColor(t float32) [3]float32 {
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	var c colorful.Color
	if t < 0.5 {
		c = ColorNear.BlendRgb(ColorMid, float64(t*2))
	} else {
		c = ColorMid.BlendRgb(ColorFar, float64((t-0.5)*2))
	}
	return [3]float32{float32(c.R), float32(c.G), float32(c.B)}
}

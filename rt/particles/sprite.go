package particles

import (
	"image"
	"image/color"

	"github.com/chewxy/math32"
	colorful "github.com/lucasb-eyer/go-colorful"
)

type spriteStop struct {
	at    float32
	color colorful.Color
	alpha float32
}

var spriteStops = []spriteStop{
	{0.0, colorful.Color{R: 1, G: 1, B: 1}, 0.8},
	{0.3, colorful.Color{R: 1, G: 1, B: 1}, 0.3},
	{0.6, colorful.Color{R: 1, G: 1, B: 1}, 0.1},
	{1.0, colorful.Color{R: 249.0 / 255, G: 141.0 / 255, B: 17.0 / 255}, 0},
}

// Sprite renders the soft round particle texture: a radial gradient from a
// bright white core to a transparent orange rim.
func Sprite(size int) *image.NRGBA {
	if size <= 0 {
		size = 64
	}
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	center := float32(size) / 2
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx := float32(x) + 0.5 - center
			dy := float32(y) + 0.5 - center
			img.SetNRGBA(x, y, spriteAt(math32.Sqrt(dx*dx+dy*dy)/center))
		}
	}
	return img
}

func spriteAt(r float32) color.NRGBA {
	if r >= 1 {
		last := spriteStops[len(spriteStops)-1]
		return toNRGBA(last.color, last.alpha)
	}
	for i := 1; i < len(spriteStops); i++ {
		a, b := spriteStops[i-1], spriteStops[i]
		if r <= b.at {
			t := (r - a.at) / (b.at - a.at)
			return toNRGBA(a.color.BlendRgb(b.color, float64(t)), a.alpha+(b.alpha-a.alpha)*t)
		}
	}
	return color.NRGBA{}
}

func toNRGBA(c colorful.Color, alpha float32) color.NRGBA {
	r, g, b := c.Clamped().RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: uint8(math32.Round(alpha * 255))}
}

package core

import (
	"image"
)

// Environment is an equirectangular radiance map used for reflections.
// Texels are linear RGBA floats, row-major, top row first.
type Environment struct {
	Resource
	Source string
	Width  int
	Height int
	Texels []float32
}

func NewEnvironment(source string, width, height int, texels []float32) *Environment {
	env := &Environment{Source: source, Width: width, Height: height, Texels: texels}
	env.MarkDirty()
	return env
}

// Texture is an 8-bit RGBA image used as a sprite or color map.
type Texture struct {
	Resource
	Image *image.NRGBA
}

func NewTexture(img *image.NRGBA) *Texture {
	t := &Texture{Image: img}
	t.MarkDirty()
	return t
}

func (t *Texture) Size() (int, int) {
	if t.Image == nil {
		return 0, 0
	}
	b := t.Image.Bounds()
	return b.Dx(), b.Dy()
}

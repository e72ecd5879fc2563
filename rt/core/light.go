package core

import (
	"github.com/go-gl/mathgl/mgl32"
)

type LightType uint32

const (
	LightTypePoint       LightType = 0
	LightTypeDirectional LightType = 1
)

// DirectionalLight shines from Position towards Target.
type DirectionalLight struct {
	Type      LightType
	Color     [3]float32 // RGB
	Intensity float32
	Position  mgl32.Vec3
	Target    mgl32.Vec3
}

func NewDirectionalLight(hex uint32, intensity float32, position mgl32.Vec3) *DirectionalLight {
	return &DirectionalLight{
		Type:      LightTypeDirectional,
		Color:     HexColor(hex),
		Intensity: intensity,
		Position:  position,
	}
}

// Direction returns the normalized direction the light travels in.
func (l *DirectionalLight) Direction() mgl32.Vec3 {
	d := l.Target.Sub(l.Position)
	if d.Len() == 0 {
		return mgl32.Vec3{0, -1, 0}
	}
	return d.Normalize()
}

// HexColor converts 0xRRGGBB into linear-ish [0,1] floats.
func HexColor(hex uint32) [3]float32 {
	return [3]float32{
		float32((hex>>16)&0xff) / 255,
		float32((hex>>8)&0xff) / 255,
		float32(hex&0xff) / 255,
	}
}

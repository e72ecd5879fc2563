package core

import (
	"github.com/go-gl/mathgl/mgl32"
)

// PerspectiveCamera is a Y-up camera with a fixed vertical field of view.
type PerspectiveCamera struct {
	FovDegrees float32
	Aspect     float32
	Near       float32
	Far        float32
	Position   mgl32.Vec3
	Target     mgl32.Vec3
	Up         mgl32.Vec3
}

func NewPerspectiveCamera(fovDegrees, aspect, near, far float32) *PerspectiveCamera {
	if aspect <= 0 {
		aspect = 1
	}
	return &PerspectiveCamera{
		FovDegrees: fovDegrees,
		Aspect:     aspect,
		Near:       near,
		Far:        far,
		Up:         mgl32.Vec3{0, 1, 0},
	}
}

func (c *PerspectiveCamera) LookAt(target mgl32.Vec3) {
	c.Target = target
}

// SetAspect updates the projection aspect ratio. Non-positive values are
// ignored so a collapsed container never corrupts the projection.
func (c *PerspectiveCamera) SetAspect(aspect float32) bool {
	if aspect <= 0 {
		return false
	}
	c.Aspect = aspect
	return true
}

func (c *PerspectiveCamera) ViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position, c.Target, c.Up)
}

func (c *PerspectiveCamera) ProjectionMatrix() mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(c.FovDegrees), c.Aspect, c.Near, c.Far)
}

func (c *PerspectiveCamera) ViewProjection() mgl32.Mat4 {
	return c.ProjectionMatrix().Mul4(c.ViewMatrix())
}

// Right and Up in world space, used for camera-facing billboards.
func (c *PerspectiveCamera) Basis() (right, up mgl32.Vec3) {
	forward := c.Target.Sub(c.Position)
	if forward.Len() == 0 {
		return mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0}
	}
	forward = forward.Normalize()
	right = forward.Cross(c.Up).Normalize()
	up = right.Cross(forward)
	return right, up
}

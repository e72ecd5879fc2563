package post

import (
	"github.com/gekko3d/compass/rt/core"
	"github.com/gekko3d/compass/rt/gpu"
)

// RenderPass draws the scene through the camera. It ignores its input.
type RenderPass struct {
	scene  *core.Scene
	camera *core.PerspectiveCamera
}

func NewRenderPass(scene *core.Scene, camera *core.PerspectiveCamera) *RenderPass {
	return &RenderPass{scene: scene, camera: camera}
}

func (p *RenderPass) Name() string { return "render" }

func (p *RenderPass) Setup(gpu.Device, int, int) error  { return nil }
func (p *RenderPass) Resize(gpu.Device, int, int) error { return nil }

func (p *RenderPass) Render(ctx *Context) error {
	return ctx.Device.RenderScene(ctx.Frame, ctx.Output, p.scene, p.camera)
}

func (p *RenderPass) Release() {}

package post

import (
	"fmt"

	"github.com/gekko3d/compass/rt/gpu"
	"github.com/gekko3d/compass/rt/interact"
	"github.com/gekko3d/compass/rt/shaders"
)

// effect is a single fullscreen program over the previous pass's output.
type effect struct {
	label   string
	source  string
	program gpu.Program
}

func (e *effect) setup(dev gpu.Device) error {
	prog, err := dev.CreateProgram(gpu.ProgramDesc{
		Label:  e.label,
		Source: shaders.Fullscreen(e.source),
		Inputs: 1,
	})
	if err != nil {
		return err
	}
	e.program = prog
	return nil
}

func (e *effect) draw(ctx *Context, params []byte) error {
	if ctx.Input == nil {
		return fmt.Errorf("%s: no input", e.label)
	}
	return e.program.Draw(ctx.Frame, []gpu.Target{ctx.Input}, ctx.Output, params)
}

func (e *effect) release() {
	if e.program != nil {
		e.program.Release()
		e.program = nil
	}
}

// DistortionPass applies the pointer-driven ripple. Its fields are the
// mutable uniforms and are read on every Render.
type DistortionPass struct {
	effect
	Time      float32
	Intensity float32
	Pointer   [2]float32
	Active    bool
}

func NewDistortionPass() *DistortionPass {
	return &DistortionPass{
		effect:  effect{label: "Distortion", source: shaders.DistortionFS},
		Pointer: [2]float32{0.5, 0.5},
	}
}

func (p *DistortionPass) Name() string { return "distortion" }

func (p *DistortionPass) Setup(dev gpu.Device, _, _ int) error { return p.setup(dev) }
func (p *DistortionPass) Resize(gpu.Device, int, int) error    { return nil }
func (p *DistortionPass) Release()                             { p.release() }

// Set copies the controller output into the uniforms.
func (p *DistortionPass) Set(u interact.Uniforms) {
	p.Time = u.Time
	p.Intensity = u.Intensity
	p.Pointer = u.Pointer
	p.Active = u.Active
}

func (p *DistortionPass) Render(ctx *Context) error {
	var active float32
	if p.Active {
		active = 1
	}
	params := gpu.MustPackUniforms(struct {
		Wave    [4]float32
		Pointer [4]float32
	}{
		Wave:    [4]float32{p.Time, p.Intensity, active, 0},
		Pointer: [4]float32{p.Pointer[0], p.Pointer[1], 0, 0},
	})
	return p.draw(ctx, params)
}

// FilmPass adds animated grain.
type FilmPass struct {
	effect
	Intensity float32
	Grayscale bool
	time      float32
}

func NewFilmPass(intensity float32, grayscale bool) *FilmPass {
	return &FilmPass{
		effect:    effect{label: "Film", source: shaders.FilmFS},
		Intensity: intensity,
		Grayscale: grayscale,
	}
}

func (p *FilmPass) Name() string { return "film" }

func (p *FilmPass) Setup(dev gpu.Device, _, _ int) error { return p.setup(dev) }
func (p *FilmPass) Resize(gpu.Device, int, int) error    { return nil }
func (p *FilmPass) Release()                             { p.release() }

func (p *FilmPass) Render(ctx *Context) error {
	p.time += ctx.Delta
	var gray float32
	if p.Grayscale {
		gray = 1
	}
	return p.draw(ctx, gpu.MustPackUniforms([4]float32{p.Intensity, gray, p.time, 0}))
}

// FXAAPass anti-aliases the final image. Its resolution uniform follows
// the device pixel size of the pipeline.
type FXAAPass struct {
	effect
	resolution [2]float32
}

func NewFXAAPass() *FXAAPass {
	return &FXAAPass{effect: effect{label: "FXAA", source: shaders.FXAAFS}}
}

func (p *FXAAPass) Name() string { return "fxaa" }

// Resolution returns 1/width and 1/height in device pixels.
func (p *FXAAPass) Resolution() [2]float32 { return p.resolution }

func (p *FXAAPass) setResolution(width, height int) {
	p.resolution = [2]float32{1 / float32(width), 1 / float32(height)}
}

func (p *FXAAPass) Setup(dev gpu.Device, width, height int) error {
	p.setResolution(width, height)
	return p.setup(dev)
}

func (p *FXAAPass) Resize(_ gpu.Device, width, height int) error {
	p.setResolution(width, height)
	return nil
}

func (p *FXAAPass) Release() { p.release() }

func (p *FXAAPass) Render(ctx *Context) error {
	return p.draw(ctx, gpu.MustPackUniforms([4]float32{p.resolution[0], p.resolution[1], 0, 0}))
}

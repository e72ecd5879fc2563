package post

import (
	"fmt"

	"github.com/gekko3d/compass/rt/gpu"
	"github.com/gekko3d/compass/rt/shaders"
)

const BloomMips = 5

type BloomOptions struct {
	Strength    float32
	Radius      float32
	Threshold   float32
	SmoothWidth float32
}

func DefaultBloomOptions() BloomOptions {
	return BloomOptions{
		Strength:    0.1,
		Radius:      0.4,
		Threshold:   0.9,
		SmoothWidth: 0.01,
	}
}

var bloomKernelRadii = [BloomMips]float32{3, 5, 7, 9, 11}

// BloomPass extracts highlights, blurs them over a chain of half-size mips
// and adds the result back onto the input.
type BloomPass struct {
	opts BloomOptions

	highpass  gpu.Program
	blur      gpu.Program
	composite gpu.Program

	bloomTargets
}

// bloomTargets are the highpass output and the blur mip chain.
type bloomTargets struct {
	bright gpu.Target
	horiz  [BloomMips]gpu.Target
	vert   [BloomMips]gpu.Target
}

func (t *bloomTargets) release() {
	releaseTargets([]gpu.Target{t.bright})
	releaseTargets(t.horiz[:])
	releaseTargets(t.vert[:])
	*t = bloomTargets{}
}

func NewBloomPass(opts BloomOptions) *BloomPass {
	return &BloomPass{opts: opts}
}

func (p *BloomPass) Name() string          { return "bloom" }
func (p *BloomPass) Options() BloomOptions { return p.opts }

func (p *BloomPass) Setup(dev gpu.Device, width, height int) error {
	var err error
	if p.highpass, err = dev.CreateProgram(gpu.ProgramDesc{
		Label:  "Bloom highpass",
		Source: shaders.Fullscreen(shaders.BloomHighpassFS),
		Inputs: 1,
	}); err != nil {
		return err
	}
	if p.blur, err = dev.CreateProgram(gpu.ProgramDesc{
		Label:  "Bloom blur",
		Source: shaders.Fullscreen(shaders.BloomBlurFS),
		Inputs: 1,
	}); err != nil {
		return err
	}
	if p.composite, err = dev.CreateProgram(gpu.ProgramDesc{
		Label:  "Bloom composite",
		Source: shaders.Fullscreen(shaders.BloomCompositeFS),
		Inputs: 1 + BloomMips,
	}); err != nil {
		return err
	}
	targets, err := newBloomTargets(dev, width, height)
	if err != nil {
		return err
	}
	p.bloomTargets = targets
	return nil
}

func mipSize(size, level int) int {
	s := size >> level
	if s < 1 {
		return 1
	}
	return s
}

// newBloomTargets allocates the whole chain or nothing.
func newBloomTargets(dev gpu.Device, width, height int) (bloomTargets, error) {
	var t bloomTargets
	var err error
	if t.bright, err = dev.CreateTarget("Bloom bright", mipSize(width, 1), mipSize(height, 1)); err != nil {
		return bloomTargets{}, err
	}
	for i := 0; i < BloomMips; i++ {
		w, h := mipSize(width, i+1), mipSize(height, i+1)
		if t.horiz[i], err = dev.CreateTarget(fmt.Sprintf("Bloom h%d", i), w, h); err != nil {
			t.release()
			return bloomTargets{}, err
		}
		if t.vert[i], err = dev.CreateTarget(fmt.Sprintf("Bloom v%d", i), w, h); err != nil {
			t.release()
			return bloomTargets{}, err
		}
	}
	return t, nil
}

// Resize keeps the current chain when the new one cannot be allocated.
func (p *BloomPass) Resize(dev gpu.Device, width, height int) error {
	targets, err := newBloomTargets(dev, width, height)
	if err != nil {
		return err
	}
	p.bloomTargets.release()
	p.bloomTargets = targets
	return nil
}

func (p *BloomPass) Render(ctx *Context) error {
	if ctx.Input == nil {
		return fmt.Errorf("bloom: no input")
	}
	threshold := gpu.MustPackUniforms([4]float32{p.opts.Threshold, p.opts.SmoothWidth, 0, 0})
	if err := p.highpass.Draw(ctx.Frame, []gpu.Target{ctx.Input}, p.bright, threshold); err != nil {
		return err
	}

	src := p.bright
	for i := 0; i < BloomMips; i++ {
		w, h := p.horiz[i].Size()
		r := bloomKernelRadii[i]
		hp := gpu.MustPackUniforms([4]float32{1 / float32(w), 0, r, r})
		if err := p.blur.Draw(ctx.Frame, []gpu.Target{src}, p.horiz[i], hp); err != nil {
			return err
		}
		vp := gpu.MustPackUniforms([4]float32{0, 1 / float32(h), r, r})
		if err := p.blur.Draw(ctx.Frame, []gpu.Target{p.horiz[i]}, p.vert[i], vp); err != nil {
			return err
		}
		src = p.vert[i]
	}

	inputs := make([]gpu.Target, 0, 1+BloomMips)
	inputs = append(inputs, ctx.Input)
	inputs = append(inputs, p.vert[:]...)
	params := gpu.MustPackUniforms([4]float32{p.opts.Strength, p.opts.Radius, 0, 0})
	return p.composite.Draw(ctx.Frame, inputs, ctx.Output, params)
}

func (p *BloomPass) Release() {
	p.bloomTargets.release()
	for _, prog := range []gpu.Program{p.highpass, p.blur, p.composite} {
		if prog != nil {
			prog.Release()
		}
	}
	p.highpass, p.blur, p.composite = nil, nil, nil
}

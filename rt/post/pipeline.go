// Package post builds the post-processing chain that turns the scene into
// the displayed frame.
package post

import (
	"errors"
	"fmt"

	"github.com/gekko3d/compass/rt/core"
	"github.com/gekko3d/compass/rt/gpu"
)

var ErrDisposed = errors.New("post: pipeline disposed")

type Options struct {
	Bloom         BloomOptions
	FilmIntensity float32
	FilmGrayscale bool
}

func DefaultOptions() Options {
	return Options{
		Bloom:         DefaultBloomOptions(),
		FilmIntensity: 0.1,
	}
}

// Pipeline runs its passes in order each frame. Consecutive passes
// alternate between two shared targets; the last one is presented.
type Pipeline struct {
	surface *gpu.Surface
	device  gpu.Device
	camera  *core.PerspectiveCamera

	passes  []Pass
	targets [2]gpu.Target
	width   int
	height  int

	distortion *DistortionPass
	fxaa       *FXAAPass

	elapsed  float32
	disposed bool
}

// Build creates the fixed chain render, bloom, distortion, film, fxaa for
// the surface's current viewport.
func Build(surface *gpu.Surface, scene *core.Scene, camera *core.PerspectiveCamera, opts Options) (*Pipeline, error) {
	if surface == nil || surface.Disposed() {
		return nil, gpu.ErrNoValidContainer
	}
	p := &Pipeline{
		surface:    surface,
		device:     surface.Device(),
		camera:     camera,
		distortion: NewDistortionPass(),
		fxaa:       NewFXAAPass(),
	}
	p.passes = []Pass{
		NewRenderPass(scene, camera),
		NewBloomPass(opts.Bloom),
		p.distortion,
		NewFilmPass(opts.FilmIntensity, opts.FilmGrayscale),
		p.fxaa,
	}

	vp := surface.Viewport()
	p.width, p.height = 1, 1
	if vp.Valid() {
		p.width, p.height = vp.DeviceSize()
		camera.SetAspect(vp.Aspect())
	}
	targets, err := p.createTargets(p.width, p.height)
	if err != nil {
		p.Dispose()
		return nil, err
	}
	p.targets = targets
	for _, pass := range p.passes {
		if err := pass.Setup(p.device, p.width, p.height); err != nil {
			p.Dispose()
			return nil, fmt.Errorf("setup %s: %w", pass.Name(), err)
		}
	}
	return p, nil
}

// createTargets allocates both ping-pong targets or none of them.
func (p *Pipeline) createTargets(width, height int) ([2]gpu.Target, error) {
	var targets [2]gpu.Target
	for i := range targets {
		t, err := p.device.CreateTarget(fmt.Sprintf("Post %d", i), width, height)
		if err != nil {
			releaseTargets(targets[:])
			return [2]gpu.Target{}, err
		}
		targets[i] = t
	}
	return targets, nil
}

func (p *Pipeline) Passes() []Pass { return p.passes }

func (p *Pipeline) PassNames() []string {
	names := make([]string, len(p.passes))
	for i, pass := range p.passes {
		names[i] = pass.Name()
	}
	return names
}

func (p *Pipeline) Distortion() *DistortionPass { return p.distortion }
func (p *Pipeline) FXAA() *FXAAPass             { return p.fxaa }
func (p *Pipeline) Size() (int, int)            { return p.width, p.height }
func (p *Pipeline) Disposed() bool              { return p.disposed }

// Render draws and presents one frame. A failed frame is discarded and
// nothing is presented.
func (p *Pipeline) Render(dt float32) error {
	if p.disposed {
		return ErrDisposed
	}
	frame, err := p.device.BeginFrame()
	if err != nil {
		return fmt.Errorf("begin frame: %w", err)
	}
	p.elapsed += dt

	var input gpu.Target
	for i, pass := range p.passes {
		out := p.targets[i%2]
		ctx := &Context{
			Device: p.device,
			Frame:  frame,
			Input:  input,
			Output: out,
			Time:   p.elapsed,
			Delta:  dt,
		}
		if err := pass.Render(ctx); err != nil {
			frame.Discard()
			return fmt.Errorf("%s pass: %w", pass.Name(), err)
		}
		input = out
	}
	if err := p.device.Present(frame, input); err != nil {
		frame.Discard()
		return fmt.Errorf("present: %w", err)
	}
	return nil
}

// Resize follows a container resize or pixel ratio change. Zero sizes
// leave everything, including the camera aspect, untouched and report
// false. If new targets cannot be allocated the previous ones stay in use
// and the size is not committed, so a later Resize retries.
func (p *Pipeline) Resize(width, height int) (bool, error) {
	if p.disposed || !p.surface.Resize(width, height) {
		return false, nil
	}
	vp := p.surface.Viewport()
	p.camera.SetAspect(vp.Aspect())
	w, h := vp.DeviceSize()
	if w == p.width && h == p.height {
		return true, nil
	}

	targets, err := p.createTargets(w, h)
	if err != nil {
		return true, err
	}
	for _, pass := range p.passes {
		if err := pass.Resize(p.device, w, h); err != nil {
			releaseTargets(targets[:])
			return true, fmt.Errorf("resize %s: %w", pass.Name(), err)
		}
	}
	releaseTargets(p.targets[:])
	p.targets = targets
	p.width, p.height = w, h
	return true, nil
}

// Dispose releases every pass and the shared targets. The surface is owned
// by the caller. Safe to call more than once.
func (p *Pipeline) Dispose() {
	if p == nil || p.disposed {
		return
	}
	p.disposed = true
	for _, pass := range p.passes {
		pass.Release()
	}
	releaseTargets(p.targets[:])
	p.targets = [2]gpu.Target{}
}

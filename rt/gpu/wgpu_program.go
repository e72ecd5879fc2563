package gpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

type wgpuTarget struct {
	label    string
	width    int
	height   int
	tex      *wgpu.Texture
	view     *wgpu.TextureView
	released bool
}

func (t *wgpuTarget) Label() string    { return t.label }
func (t *wgpuTarget) Size() (int, int)  { return t.width, t.height }

// Release frees the texture. Borrowed targets (the surface view) have no
// texture and are left alone.
func (t *wgpuTarget) Release() {
	if t.released || t.tex == nil {
		return
	}
	t.released = true
	t.view.Release()
	t.tex.Release()
}

type releaser interface {
	Release()
}

type wgpuFrame struct {
	index       uint64
	encoder     *wgpu.CommandEncoder
	surfaceTex  *wgpu.Texture
	surfaceView *wgpu.TextureView
	transients  []releaser
	done        bool
}

func (f *wgpuFrame) Index() uint64 { return f.index }

// keep holds per-frame GPU objects until the frame ends.
func (f *wgpuFrame) keep(r releaser) {
	f.transients = append(f.transients, r)
}

func (f *wgpuFrame) Discard() {
	if f.done {
		return
	}
	f.encoder.Release()
	f.finish()
}

func (f *wgpuFrame) finish() {
	f.done = true
	for _, r := range f.transients {
		r.Release()
	}
	f.transients = nil
	f.surfaceView.Release()
	f.surfaceTex.Release()
}

type wgpuProgram struct {
	dev      *WGPUDevice
	label    string
	inputs   int
	pipeline *wgpu.RenderPipeline
	layout   *wgpu.BindGroupLayout
	released bool
}

func (d *WGPUDevice) createProgram(desc ProgramDesc, format wgpu.TextureFormat) (*wgpuProgram, error) {
	module, err := d.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          desc.Label,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: desc.Source},
	})
	if err != nil {
		return nil, fmt.Errorf("%s shader: %w", desc.Label, err)
	}
	defer module.Release()

	pipeline, err := d.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label: desc.Label,
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: "vs_main",
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{{
				Format:    format,
				WriteMask: wgpu.ColorWriteMaskAll,
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology: wgpu.PrimitiveTopologyTriangleList,
			CullMode: wgpu.CullModeNone,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%s pipeline: %w", desc.Label, err)
	}
	return &wgpuProgram{
		dev:      d,
		label:    desc.Label,
		inputs:   desc.Inputs,
		pipeline: pipeline,
		layout:   pipeline.GetBindGroupLayout(0),
	}, nil
}

func (p *wgpuProgram) Label() string { return p.label }

func (p *wgpuProgram) Draw(frame Frame, inputs []Target, out Target, uniforms []byte) error {
	if p.released {
		return ErrReleased
	}
	f, err := p.dev.frame(frame)
	if err != nil {
		return err
	}
	if len(inputs) != p.inputs {
		return fmt.Errorf("%s: want %d inputs, got %d", p.label, p.inputs, len(inputs))
	}
	dst, ok := out.(*wgpuTarget)
	if !ok || dst == nil {
		return fmt.Errorf("%s: invalid output target", p.label)
	}
	if len(uniforms) == 0 {
		uniforms = make([]byte, 16)
	}

	buf, err := p.dev.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    p.label + " params",
		Contents: uniforms,
		Usage:    wgpu.BufferUsageUniform,
	})
	if err != nil {
		return err
	}
	f.keep(buf)

	entries := []wgpu.BindGroupEntry{
		{Binding: 0, Buffer: buf, Size: uint64(len(uniforms))},
		{Binding: 1, Sampler: p.dev.clampSampler},
	}
	for i, in := range inputs {
		src, ok := in.(*wgpuTarget)
		if !ok || src == nil || src.released {
			return fmt.Errorf("%s: invalid input %d", p.label, i)
		}
		entries = append(entries, wgpu.BindGroupEntry{Binding: uint32(2 + i), TextureView: src.view})
	}
	bg, err := p.dev.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   p.label,
		Layout:  p.layout,
		Entries: entries,
	})
	if err != nil {
		return err
	}
	f.keep(bg)

	pass := f.encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       dst.view,
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: wgpu.Color{R: 0, G: 0, B: 0, A: 0},
		}},
	})
	pass.SetPipeline(p.pipeline)
	pass.SetBindGroup(0, bg, nil)
	pass.Draw(3, 1, 0, 0)
	if err := pass.End(); err != nil {
		return fmt.Errorf("%s pass: %w", p.label, err)
	}
	return nil
}

func (p *wgpuProgram) Release() {
	if p.released {
		return
	}
	p.released = true
	p.layout.Release()
	p.pipeline.Release()
}

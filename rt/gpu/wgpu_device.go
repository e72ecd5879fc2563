package gpu

import (
	"errors"
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/gekko3d/compass/rt/core"
	"github.com/gekko3d/compass/rt/shaders"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// TargetFormat is the format of every offscreen target. Half floats keep
// highlights above 1.0 for the bloom threshold.
const TargetFormat = wgpu.TextureFormatRGBA16Float

// WGPUDevice renders into a glfw window surface with WebGPU.
type WGPUDevice struct {
	window   *glfw.Window
	instance *wgpu.Instance
	surface  *wgpu.Surface
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	config   *wgpu.SurfaceConfiguration

	clampSampler *wgpu.Sampler
	envSampler   *wgpu.Sampler
	blit         *wgpuProgram
	scene        *sceneRenderer

	frames   uint64
	released bool
}

// NewWGPUFactory returns a context factory for the given window. The
// window is the container's drawing element.
func NewWGPUFactory(window *glfw.Window) ContextFactory {
	return func(c Container) (Device, error) {
		return NewWGPUDevice(window)
	}
}

func NewWGPUDevice(window *glfw.Window) (*WGPUDevice, error) {
	if window == nil {
		return nil, errors.New("no window")
	}
	d := &WGPUDevice{window: window}
	if err := d.init(); err != nil {
		d.Release()
		return nil, err
	}
	return d, nil
}

func (d *WGPUDevice) init() error {
	d.instance = wgpu.CreateInstance(nil)
	d.surface = d.instance.CreateSurface(wgpuglfw.GetSurfaceDescriptor(d.window))

	adapter, err := d.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: d.surface,
		PowerPreference:   wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		return fmt.Errorf("request adapter: %w", err)
	}
	d.adapter = adapter

	d.device, err = adapter.RequestDevice(nil)
	if err != nil {
		return fmt.Errorf("request device: %w", err)
	}
	d.queue = d.device.GetQueue()

	caps := d.surface.GetCapabilities(adapter)
	if len(caps.Formats) == 0 || len(caps.AlphaModes) == 0 {
		return errors.New("surface has no usable formats")
	}
	alpha := caps.AlphaModes[0]
	for _, m := range caps.AlphaModes {
		if m == wgpu.CompositeAlphaModePremultiplied {
			alpha = m
		}
	}
	width, height := d.window.GetFramebufferSize()
	d.config = &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      caps.Formats[0],
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: wgpu.PresentModeFifo,
		AlphaMode:   alpha,
	}
	if width > 0 && height > 0 {
		d.surface.Configure(d.adapter, d.device, d.config)
	}

	d.clampSampler, err = d.device.CreateSampler(&wgpu.SamplerDescriptor{
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MinFilter:     wgpu.FilterModeLinear,
		MagFilter:     wgpu.FilterModeLinear,
		LodMaxClamp:   32,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return err
	}
	d.envSampler, err = d.device.CreateSampler(&wgpu.SamplerDescriptor{
		AddressModeU:  wgpu.AddressModeRepeat,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MinFilter:     wgpu.FilterModeLinear,
		MagFilter:     wgpu.FilterModeLinear,
		LodMaxClamp:   32,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return err
	}

	d.blit, err = d.createProgram(ProgramDesc{
		Label:  "Blit",
		Source: shaders.Fullscreen(shaders.BlitFS),
		Inputs: 1,
	}, d.config.Format)
	if err != nil {
		return err
	}

	d.scene, err = newSceneRenderer(d)
	return err
}

func (d *WGPUDevice) CreateTarget(label string, width, height int) (Target, error) {
	if d.released {
		return nil, ErrReleased
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("target %s: invalid size %dx%d", label, width, height)
	}
	tex, err := d.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         label,
		Size:          wgpu.Extent3D{Width: uint32(width), Height: uint32(height), DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        TargetFormat,
		Usage:         wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding,
	})
	if err != nil {
		return nil, err
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, err
	}
	return &wgpuTarget{label: label, width: width, height: height, tex: tex, view: view}, nil
}

func (d *WGPUDevice) CreateProgram(desc ProgramDesc) (Program, error) {
	if d.released {
		return nil, ErrReleased
	}
	return d.createProgram(desc, TargetFormat)
}

func (d *WGPUDevice) BeginFrame() (Frame, error) {
	if d.released {
		return nil, ErrReleased
	}
	if d.config.Width == 0 || d.config.Height == 0 {
		return nil, errors.New("surface not configured")
	}
	tex, err := d.surface.GetCurrentTexture()
	if err != nil {
		return nil, fmt.Errorf("GetCurrentTexture: %w", err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("CreateView: %w", err)
	}
	encoder, err := d.device.CreateCommandEncoder(nil)
	if err != nil {
		view.Release()
		tex.Release()
		return nil, fmt.Errorf("CreateCommandEncoder: %w", err)
	}
	d.frames++
	return &wgpuFrame{
		index:       d.frames,
		encoder:     encoder,
		surfaceTex:  tex,
		surfaceView: view,
	}, nil
}

func (d *WGPUDevice) RenderScene(frame Frame, out Target, scene *core.Scene, cam *core.PerspectiveCamera) error {
	f, err := d.frame(frame)
	if err != nil {
		return err
	}
	dst, ok := out.(*wgpuTarget)
	if !ok {
		return fmt.Errorf("render scene: foreign target %T", out)
	}
	return d.scene.render(f, dst, scene, cam)
}

func (d *WGPUDevice) Present(frame Frame, src Target) error {
	f, err := d.frame(frame)
	if err != nil {
		return err
	}
	screen := &wgpuTarget{
		label:  "surface",
		width:  int(d.config.Width),
		height: int(d.config.Height),
		view:   f.surfaceView,
	}
	gain := MustPackUniforms([4]float32{1, 0, 0, 0})
	if err := d.blit.Draw(f, []Target{src}, screen, gain); err != nil {
		f.Discard()
		return err
	}
	cmd, err := f.encoder.Finish(nil)
	if err != nil {
		f.Discard()
		return fmt.Errorf("encoder Finish: %w", err)
	}
	d.queue.Submit(cmd)
	d.surface.Present()
	f.finish()
	return nil
}

func (d *WGPUDevice) frame(frame Frame) (*wgpuFrame, error) {
	if d.released {
		return nil, ErrReleased
	}
	f, ok := frame.(*wgpuFrame)
	if !ok {
		return nil, fmt.Errorf("foreign frame %T", frame)
	}
	if f.done {
		return nil, errors.New("frame already ended")
	}
	return f, nil
}

// Resize reconfigures the surface. Zero sizes are ignored.
func (d *WGPUDevice) Resize(width, height int) {
	if d.released || width <= 0 || height <= 0 {
		return
	}
	d.config.Width = uint32(width)
	d.config.Height = uint32(height)
	d.surface.Configure(d.adapter, d.device, d.config)
}

func (d *WGPUDevice) Release() {
	if d.released {
		return
	}
	d.released = true
	if d.scene != nil {
		d.scene.release()
	}
	if d.blit != nil {
		d.blit.Release()
	}
	if d.envSampler != nil {
		d.envSampler.Release()
	}
	if d.clampSampler != nil {
		d.clampSampler.Release()
	}
	if d.queue != nil {
		d.queue.Release()
	}
	if d.device != nil {
		d.device.Release()
	}
	if d.adapter != nil {
		d.adapter.Release()
	}
	if d.surface != nil {
		d.surface.Release()
	}
	if d.instance != nil {
		d.instance.Release()
	}
}

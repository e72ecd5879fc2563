// Package gputest provides recording fakes of the gpu device and container
// so the render path can run without a window or a GPU.
package gputest

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gekko3d/compass/rt/core"
	"github.com/gekko3d/compass/rt/gpu"
	"github.com/gekko3d/compass/rt/interact"
)

type Target struct {
	Name     string
	W, H     int
	Released bool
}

func (t *Target) Label() string    { return t.Name }
func (t *Target) Size() (int, int) { return t.W, t.H }
func (t *Target) Release()         { t.Released = true }

type Program struct {
	dev          *Device
	Desc         gpu.ProgramDesc
	Draws        int
	LastUniforms []byte
	LastOutput   gpu.Target
	Released     bool
}

func (p *Program) Label() string { return p.Desc.Label }

func (p *Program) Draw(frame gpu.Frame, inputs []gpu.Target, out gpu.Target, uniforms []byte) error {
	if p.Released {
		return gpu.ErrReleased
	}
	if err := p.dev.checkFrame(frame); err != nil {
		return err
	}
	if len(inputs) != p.Desc.Inputs {
		return fmt.Errorf("%s: want %d inputs, got %d", p.Desc.Label, p.Desc.Inputs, len(inputs))
	}
	for i, in := range inputs {
		t, ok := in.(*Target)
		if !ok || t == nil || t.Released {
			return fmt.Errorf("%s: invalid input %d", p.Desc.Label, i)
		}
	}
	if t, ok := out.(*Target); !ok || t == nil || t.Released {
		return fmt.Errorf("%s: invalid output", p.Desc.Label)
	}
	p.Draws++
	p.LastUniforms = append(p.LastUniforms[:0], uniforms...)
	p.LastOutput = out
	p.dev.Calls = append(p.dev.Calls, "draw "+p.Desc.Label)
	return nil
}

func (p *Program) Release() { p.Released = true }

type Frame struct {
	index     uint64
	Discarded bool
	Presented bool
}

func (f *Frame) Index() uint64 { return f.index }
func (f *Frame) Discard()      { f.Discarded = true }

// Device records every call made through the gpu.Device interface.
type Device struct {
	Targets  []*Target
	Programs []*Program
	Frames   []*Frame

	Presented    int
	SceneRenders int
	LastScene    *core.Scene
	ResizeW      int
	ResizeH      int
	Resizes      int
	Released     bool
	Calls        []string

	// FailBeginFrame, when set, is returned by BeginFrame.
	FailBeginFrame error
	// FailCreateTarget, when set, is returned by CreateTarget.
	FailCreateTarget error
}

func NewDevice() *Device { return &Device{} }

func (d *Device) checkFrame(frame gpu.Frame) error {
	if d.Released {
		return gpu.ErrReleased
	}
	f, ok := frame.(*Frame)
	if !ok || f == nil {
		return errors.New("foreign frame")
	}
	if f.Discarded || f.Presented {
		return errors.New("frame already ended")
	}
	return nil
}

func (d *Device) CreateTarget(label string, width, height int) (gpu.Target, error) {
	if d.Released {
		return nil, gpu.ErrReleased
	}
	if d.FailCreateTarget != nil {
		return nil, d.FailCreateTarget
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("target %s: invalid size %dx%d", label, width, height)
	}
	t := &Target{Name: label, W: width, H: height}
	d.Targets = append(d.Targets, t)
	return t, nil
}

func (d *Device) CreateProgram(desc gpu.ProgramDesc) (gpu.Program, error) {
	if d.Released {
		return nil, gpu.ErrReleased
	}
	p := &Program{dev: d, Desc: desc}
	d.Programs = append(d.Programs, p)
	return p, nil
}

// Program returns the program created with label, or nil.
func (d *Device) Program(label string) *Program {
	for _, p := range d.Programs {
		if p.Desc.Label == label {
			return p
		}
	}
	return nil
}

// LiveTargets returns targets that have not been released.
func (d *Device) LiveTargets() []*Target {
	var live []*Target
	for _, t := range d.Targets {
		if !t.Released {
			live = append(live, t)
		}
	}
	return live
}

func (d *Device) BeginFrame() (gpu.Frame, error) {
	if d.Released {
		return nil, gpu.ErrReleased
	}
	if d.FailBeginFrame != nil {
		return nil, d.FailBeginFrame
	}
	f := &Frame{index: uint64(len(d.Frames) + 1)}
	d.Frames = append(d.Frames, f)
	return f, nil
}

func (d *Device) RenderScene(frame gpu.Frame, out gpu.Target, scene *core.Scene, cam *core.PerspectiveCamera) error {
	if err := d.checkFrame(frame); err != nil {
		return err
	}
	if scene == nil || cam == nil {
		return errors.New("render scene: missing scene or camera")
	}
	d.SceneRenders++
	d.LastScene = scene
	d.Calls = append(d.Calls, "scene")
	return nil
}

func (d *Device) Present(frame gpu.Frame, src gpu.Target) error {
	if err := d.checkFrame(frame); err != nil {
		return err
	}
	if t, ok := src.(*Target); !ok || t == nil || t.Released {
		return errors.New("present: invalid source")
	}
	frame.(*Frame).Presented = true
	d.Presented++
	d.Calls = append(d.Calls, "present")
	return nil
}

func (d *Device) Resize(width, height int) {
	if d.Released || width <= 0 || height <= 0 {
		return
	}
	d.ResizeW, d.ResizeH = width, height
	d.Resizes++
}

func (d *Device) Release() { d.Released = true }

// Factory returns a context factory that always hands out dev.
func Factory(dev *Device) gpu.ContextFactory {
	return func(gpu.Container) (gpu.Device, error) { return dev, nil }
}

// FailingFactory returns a context factory that always fails with err.
func FailingFactory(err error) gpu.ContextFactory {
	return func(gpu.Container) (gpu.Device, error) { return nil, err }
}

// Container is an in-memory host element with a size, resize observers and
// a pointer source.
type Container struct {
	mu        sync.Mutex
	W, H      int
	Ratio     float64
	Attached  bool
	AttachErr error

	observers map[int]func(int, int)
	moves     map[int]func(interact.PointerEvent)
	leaves    map[int]func()
	nextID    int
}

func NewContainer(w, h int, ratio float64) *Container {
	return &Container{
		W:         w,
		H:         h,
		Ratio:     ratio,
		observers: make(map[int]func(int, int)),
		moves:     make(map[int]func(interact.PointerEvent)),
		leaves:    make(map[int]func()),
	}
}

func (c *Container) Size() (int, int)    { return c.W, c.H }
func (c *Container) PixelRatio() float64 { return c.Ratio }

func (c *Container) Attach() error {
	if c.AttachErr != nil {
		return c.AttachErr
	}
	c.Attached = true
	return nil
}

func (c *Container) Detach() { c.Attached = false }

func (c *Container) Observe(fn func(width, height int)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	c.observers[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.observers, id)
	}
}

// OnPointer registers pointer callbacks and returns their disconnect func.
func (c *Container) OnPointer(move func(interact.PointerEvent), leave func()) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	c.moves[id] = move
	c.leaves[id] = leave
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.moves, id)
		delete(c.leaves, id)
	}
}

// Observers returns the number of connected resize observers.
func (c *Container) Observers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.observers)
}

// PointerListeners returns the number of connected pointer listeners.
func (c *Container) PointerListeners() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.moves)
}

// SetSize changes the container size and notifies observers.
func (c *Container) SetSize(w, h int) {
	c.mu.Lock()
	c.W, c.H = w, h
	c.mu.Unlock()
	c.notify()
}

// SetPixelRatio changes the pixel density, as when a window moves to
// another display, and notifies observers with the unchanged size.
func (c *Container) SetPixelRatio(ratio float64) {
	c.mu.Lock()
	c.Ratio = ratio
	c.mu.Unlock()
	c.notify()
}

func (c *Container) notify() {
	c.mu.Lock()
	w, h := c.W, c.H
	fns := make([]func(int, int), 0, len(c.observers))
	for _, fn := range c.observers {
		fns = append(fns, fn)
	}
	c.mu.Unlock()
	for _, fn := range fns {
		fn(w, h)
	}
}

// Move delivers a pointer move to every listener.
func (c *Container) Move(ev interact.PointerEvent) {
	c.mu.Lock()
	fns := make([]func(interact.PointerEvent), 0, len(c.moves))
	for _, fn := range c.moves {
		fns = append(fns, fn)
	}
	c.mu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}

// Leave delivers a pointer leave to every listener.
func (c *Container) Leave() {
	c.mu.Lock()
	fns := make([]func(), 0, len(c.leaves))
	for _, fn := range c.leaves {
		fns = append(fns, fn)
	}
	c.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

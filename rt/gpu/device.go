package gpu

import (
	"errors"

	"github.com/gekko3d/compass/rt/core"
)

var (
	ErrNoValidContainer = errors.New("gpu: no valid container")
	ErrSurfaceInit      = errors.New("gpu: surface init failed")
	ErrReleased         = errors.New("gpu: resource already released")
)

// Target is an offscreen color image that passes render into and sample
// from.
type Target interface {
	Label() string
	Size() (int, int)
	Release()
}

// ProgramDesc describes a fullscreen fragment program. Source must define
// vs_main and fs_main. Bindings in group 0 are fixed: 0 is the uniform
// block, 1 the sampler, 2 onwards the Inputs textures in order.
type ProgramDesc struct {
	Label  string
	Source string
	Inputs int
}

// Program draws one fullscreen triangle into a target.
type Program interface {
	Label() string
	Draw(frame Frame, inputs []Target, out Target, uniforms []byte) error
	Release()
}

// Frame is the recording state of a single displayed frame. A frame ends
// with either Device.Present or Discard.
type Frame interface {
	Index() uint64
	Discard()
}

// Device is the rendering context. All methods are called from the frame
// loop goroutine.
type Device interface {
	CreateTarget(label string, width, height int) (Target, error)
	CreateProgram(desc ProgramDesc) (Program, error)
	BeginFrame() (Frame, error)
	RenderScene(frame Frame, out Target, scene *core.Scene, cam *core.PerspectiveCamera) error
	Present(frame Frame, src Target) error
	Resize(width, height int)
	Release()
}

// Container is the host element the drawing surface lives in. Sizes are in
// container pixels; PixelRatio converts them to device pixels.
type Container interface {
	Size() (int, int)
	PixelRatio() float64
	// Attach inserts the drawing element into the container.
	Attach() error
	Detach()
	// Observe registers a callback run with the current size whenever the
	// size or the pixel ratio changes, and returns its disconnect func.
	Observe(fn func(width, height int)) (disconnect func())
}

// ContextFactory creates a Device bound to a container.
type ContextFactory func(c Container) (Device, error)

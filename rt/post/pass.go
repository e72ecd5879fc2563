package post

import (
	"github.com/gekko3d/compass/rt/gpu"
)

// Context is what a pass sees while rendering one frame. Input is the
// previous pass's output and is nil for the first pass.
type Context struct {
	Device gpu.Device
	Frame  gpu.Frame
	Input  gpu.Target
	Output gpu.Target
	Time   float32
	Delta  float32
}

// Pass is one stage of the chain. A pass consumes Input and writes Output;
// any intermediate targets it needs are its own and are released with it.
type Pass interface {
	Name() string
	Setup(dev gpu.Device, width, height int) error
	Resize(dev gpu.Device, width, height int) error
	Render(ctx *Context) error
	Release()
}

func releaseTargets(targets []gpu.Target) {
	for _, t := range targets {
		if t != nil {
			t.Release()
		}
	}
}

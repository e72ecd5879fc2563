package gpu

import (
	"fmt"

	"github.com/gekko3d/compass/rt/core"
)

const DefaultMaxPixelRatio = 2.0

// Surface owns the device for one container and keeps the viewport in sync
// with the container size.
type Surface struct {
	container     Container
	device        Device
	viewport      core.Viewport
	maxPixelRatio float64
	disposed      bool
}

// Initialize attaches a drawing element to c and creates its device.
func Initialize(c Container, factory ContextFactory, maxPixelRatio float64) (*Surface, error) {
	if c == nil {
		return nil, ErrNoValidContainer
	}
	if factory == nil {
		return nil, fmt.Errorf("%w: no context factory", ErrSurfaceInit)
	}
	if maxPixelRatio <= 0 {
		maxPixelRatio = DefaultMaxPixelRatio
	}
	if err := c.Attach(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoValidContainer, err)
	}
	dev, err := factory(c)
	if err != nil {
		c.Detach()
		return nil, fmt.Errorf("%w: %v", ErrSurfaceInit, err)
	}
	if dev == nil {
		c.Detach()
		return nil, fmt.Errorf("%w: factory returned no device", ErrSurfaceInit)
	}

	s := &Surface{container: c, device: dev, maxPixelRatio: maxPixelRatio}
	w, h := c.Size()
	s.viewport = core.Viewport{Width: w, Height: h, PixelRatio: s.clampRatio(c.PixelRatio())}
	if s.viewport.Valid() {
		dw, dh := s.viewport.DeviceSize()
		dev.Resize(dw, dh)
	}
	return s, nil
}

func (s *Surface) clampRatio(r float64) float64 {
	if r <= 0 {
		return 1
	}
	if r > s.maxPixelRatio {
		return s.maxPixelRatio
	}
	return r
}

func (s *Surface) Device() Device          { return s.device }
func (s *Surface) Container() Container    { return s.container }
func (s *Surface) Viewport() core.Viewport { return s.viewport }
func (s *Surface) Disposed() bool          { return s.disposed }

// Resize applies a new container size. Zero or negative sizes are ignored
// and reported as false.
func (s *Surface) Resize(width, height int) bool {
	if s.disposed || width <= 0 || height <= 0 {
		return false
	}
	s.viewport = core.Viewport{
		Width:      width,
		Height:     height,
		PixelRatio: s.clampRatio(s.container.PixelRatio()),
	}
	dw, dh := s.viewport.DeviceSize()
	s.device.Resize(dw, dh)
	return true
}

// Dispose releases the device and removes the drawing element. Safe to call
// more than once.
func (s *Surface) Dispose() {
	if s == nil || s.disposed {
		return
	}
	s.disposed = true
	s.device.Release()
	s.container.Detach()
}

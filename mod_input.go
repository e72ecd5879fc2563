package compass

import (
	"github.com/gekko3d/compass/rt/interact"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// PointerSource delivers pointer moves and leaves over the container.
// Containers that implement it get interaction distortion.
type PointerSource interface {
	OnPointer(move func(interact.PointerEvent), leave func()) (disconnect func())
}

func (c *WindowContainer) installPointerCallbacks() {
	c.win.SetCursorPosCallback(func(w *glfw.Window, x, y float64) {
		width, height := w.GetSize()
		ev := interact.PointerEvent{
			X:      float32(x),
			Y:      float32(y),
			Width:  float32(width),
			Height: float32(height),
			Time:   c.Now(),
		}
		for _, fn := range c.snapshotMoves() {
			fn(ev)
		}
	})
	c.win.SetCursorEnterCallback(func(_ *glfw.Window, entered bool) {
		if entered {
			return
		}
		for _, fn := range c.snapshotLeaves() {
			fn()
		}
	})
}

func (c *WindowContainer) OnPointer(move func(interact.PointerEvent), leave func()) func() {
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

func (c *WindowContainer) snapshotMoves() []func(interact.PointerEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fns := make([]func(interact.PointerEvent), 0, len(c.moves))
	for _, fn := range c.moves {
		fns = append(fns, fn)
	}
	return fns
}

func (c *WindowContainer) snapshotLeaves() []func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	fns := make([]func(), 0, len(c.leaves))
	for _, fn := range c.leaves {
		fns = append(fns, fn)
	}
	return fns
}

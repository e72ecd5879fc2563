package compass

import (
	"errors"
	"sync"
	"time"

	"github.com/gekko3d/compass/rt/gpu"
	"github.com/gekko3d/compass/rt/interact"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// WindowContainer hosts the widget in a desktop window. The window is the
// drawing element. Size is in window coordinates and the pixel ratio is the
// framebuffer size over the window size, so their product is always the
// framebuffer size. All methods must be called from the thread that
// created it.
type WindowContainer struct {
	win   *glfw.Window
	start time.Time

	mu        sync.Mutex
	nextID    int
	observers map[int]func(int, int)
	moves     map[int]func(interact.PointerEvent)
	leaves    map[int]func()
}

// OpenWindow initializes glfw and creates a hidden window without a client
// API, ready for a WebGPU surface.
func OpenWindow(width, height int, title string) (*WindowContainer, error) {
	if width <= 0 {
		width = 800
	}
	if height <= 0 {
		height = 800
	}
	if title == "" {
		title = "compass"
	}
	if err := glfw.Init(); err != nil {
		return nil, err
	}
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.Visible, glfw.False)
	glfw.WindowHint(glfw.TransparentFramebuffer, glfw.True)

	win, err := glfw.CreateWindow(width, height, title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, err
	}
	c := &WindowContainer{
		win:       win,
		start:     time.Now(),
		observers: make(map[int]func(int, int)),
		moves:     make(map[int]func(interact.PointerEvent)),
		leaves:    make(map[int]func()),
	}
	win.SetFramebufferSizeCallback(func(*glfw.Window, int, int) { c.notify() })
	// A move to a display with another scale may keep the window size.
	win.SetContentScaleCallback(func(*glfw.Window, float32, float32) { c.notify() })
	c.installPointerCallbacks()
	return c, nil
}

// Window is the drawing element handed to the WebGPU factory.
func (c *WindowContainer) Window() *glfw.Window { return c.win }

// Factory returns the WebGPU context factory for this window.
func (c *WindowContainer) Factory() gpu.ContextFactory {
	return gpu.NewWGPUFactory(c.win)
}

// Now is the host clock shared by frames and pointer events.
func (c *WindowContainer) Now() time.Duration { return time.Since(c.start) }

func (c *WindowContainer) Size() (int, int) {
	if c.win == nil {
		return 0, 0
	}
	return c.win.GetSize()
}

func (c *WindowContainer) PixelRatio() float64 {
	if c.win == nil {
		return 1
	}
	w, h := c.win.GetSize()
	fw, fh := c.win.GetFramebufferSize()
	return framebufferRatio(w, h, fw, fh)
}

// framebufferRatio returns the pixel ratio for a w×h window whose
// framebuffer is fw×fh. Windows and X11 report both in pixels; macOS
// reports the window in points. A minimized window reports 1.
func framebufferRatio(w, h, fw, fh int) float64 {
	if w <= 0 || h <= 0 || fw <= 0 || fh <= 0 {
		return 1
	}
	return float64(fw) / float64(w)
}

func (c *WindowContainer) Attach() error {
	if c.win == nil {
		return errors.New("window closed")
	}
	c.win.Show()
	return nil
}

func (c *WindowContainer) Detach() {
	if c.win != nil {
		c.win.Hide()
	}
}

func (c *WindowContainer) Observe(fn func(width, height int)) func() {
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

func (c *WindowContainer) notify() {
	if c.win == nil {
		return
	}
	w, h := c.win.GetSize()
	for _, fn := range c.snapshotObservers() {
		fn(w, h)
	}
}

func (c *WindowContainer) snapshotObservers() []func(int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fns := make([]func(int, int), 0, len(c.observers))
	for _, fn := range c.observers {
		fns = append(fns, fn)
	}
	return fns
}

// ShouldClose reports whether the user asked to close the window.
func (c *WindowContainer) ShouldClose() bool {
	return c.win == nil || c.win.ShouldClose()
}

// PollEvents delivers pending window events to the registered callbacks.
func (c *WindowContainer) PollEvents() {
	glfw.PollEvents()
}

// WaitEvents sleeps until an event arrives or timeout passes.
func (c *WindowContainer) WaitEvents(timeout time.Duration) {
	glfw.WaitEventsTimeout(timeout.Seconds())
}

// Close destroys the window and shuts glfw down.
func (c *WindowContainer) Close() {
	if c.win == nil {
		return
	}
	c.win.Destroy()
	c.win = nil
	glfw.Terminate()
}

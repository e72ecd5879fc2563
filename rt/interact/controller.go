package interact

import (
	"time"

	"github.com/chewxy/math32"
)

type State int

const (
	Idle State = iota
	Engaged
)

func (s State) String() string {
	if s == Engaged {
		return "engaged"
	}
	return "idle"
}

// Config holds the controller tunables. Per-frame factors are expressed for a
// nominal 60 Hz frame and rescaled by the real frame time.
type Config struct {
	MaxSpeed     float32 // container pixels per millisecond
	Gain         float32 // speed to intensity
	MaxIntensity float32
	MaxMomentum  float32
	Quiescence   time.Duration
	Smoothing    float32
	Decay        float32
	Epsilon      float32
	TimeRate     float32 // distortion clock units per second

	// Disabled turns the controller into a constant zero signal. Used on
	// touch form factors where there is no hover.
	Disabled bool
}

func DefaultConfig() Config {
	return Config{
		MaxSpeed:     3.0,
		Gain:         0.1,
		MaxIntensity: 0.8,
		MaxMomentum:  1.0,
		Quiescence:   50 * time.Millisecond,
		Smoothing:    0.2,
		Decay:        0.99,
		Epsilon:      0.01,
		TimeRate:     0.016 * 60,
	}
}

// PointerEvent is a pointer move sample in container pixels.
type PointerEvent struct {
	X, Y          float32
	Width, Height float32
	Time          time.Duration

	// OverInteractive is set when the pointer is over a control (button,
	// input, link) rather than the bare viewport.
	OverInteractive bool
}

// Uniforms is what the distortion pass consumes.
type Uniforms struct {
	Time      float32
	Intensity float32
	Pointer   [2]float32
	Active    bool
}

// Controller turns pointer motion into a smoothed, decaying distortion
// intensity. All methods must be called from the frame loop goroutine.
type Controller struct {
	cfg   Config
	state State

	pointer     [2]float32 // normalized, Y up
	prevPointer [2]float32
	lastX       float32
	lastY       float32
	lastSample  time.Duration
	hasSample   bool

	speed    float32
	target   float32
	momentum float32
	current  float32

	passActive bool
	clock      float32
}

func New(cfg Config) *Controller {
	return &Controller{
		cfg:         cfg,
		pointer:     [2]float32{0.5, 0.5},
		prevPointer: [2]float32{0.5, 0.5},
	}
}

func (c *Controller) Enabled() bool      { return !c.cfg.Disabled }
func (c *Controller) State() State       { return c.state }
func (c *Controller) Speed() float32     { return c.speed }
func (c *Controller) Target() float32    { return c.target }
func (c *Controller) Momentum() float32  { return c.momentum }
func (c *Controller) Intensity() float32 { return c.current }
func (c *Controller) Pointer() [2]float32 {
	return c.pointer
}

func (c *Controller) Uniforms() Uniforms {
	return Uniforms{
		Time:      c.clock,
		Intensity: c.current,
		Pointer:   c.pointer,
		Active:    c.passActive,
	}
}

// PointerMove handles a pointer sample. Samples over interactive controls
// deactivate the effect without recording motion.
func (c *Controller) PointerMove(ev PointerEvent) {
	if c.cfg.Disabled {
		return
	}
	if ev.OverInteractive {
		c.state = Idle
		c.passActive = false
		return
	}
	if ev.Width <= 0 || ev.Height <= 0 {
		return
	}

	c.speed = c.sampleSpeed(ev)
	c.lastX, c.lastY = ev.X, ev.Y
	c.lastSample = ev.Time
	c.hasSample = true

	c.prevPointer = c.pointer
	c.pointer = [2]float32{ev.X / ev.Width, 1 - ev.Y/ev.Height}

	c.target = math32.Min(c.speed*c.cfg.Gain, c.cfg.MaxIntensity)
	c.momentum = math32.Min(c.speed*c.cfg.Gain, c.cfg.MaxMomentum)
	c.state = Engaged
	c.passActive = true
}

func (c *Controller) sampleSpeed(ev PointerEvent) float32 {
	if !c.hasSample {
		return 0
	}
	dx := ev.X - c.lastX
	dy := ev.Y - c.lastY
	dist := math32.Sqrt(dx*dx + dy*dy)
	elapsed := float32(ev.Time-c.lastSample) / float32(time.Millisecond)
	if elapsed <= 0 {
		if dist == 0 {
			return 0
		}
		return c.cfg.MaxSpeed
	}
	return math32.Min(dist/elapsed, c.cfg.MaxSpeed)
}

// PointerLeave ends engagement and drops the effect at once.
func (c *Controller) PointerLeave() {
	if c.cfg.Disabled {
		return
	}
	c.state = Idle
	c.passActive = false
	c.current = 0
	c.momentum = 0
}

// Step runs once per frame: quiescence check, then smoothing or decay.
func (c *Controller) Step(now time.Duration, dt float32) {
	if c.cfg.Disabled || dt <= 0 {
		return
	}
	c.clock += dt * c.cfg.TimeRate

	if c.state == Engaged && now-c.lastSample > c.cfg.Quiescence {
		c.state = Idle
	}

	frames := dt * 60
	if c.state == Engaged {
		keep := math32.Pow(1-c.cfg.Smoothing, frames)
		c.current += (c.target - c.current) * (1 - keep)
		return
	}

	decay := math32.Pow(c.cfg.Decay, frames)
	c.momentum = math32.Max(c.momentum*decay, 0)
	c.current = math32.Max(c.current*decay, 0)
	if c.current < c.cfg.Epsilon && c.momentum < c.cfg.Epsilon {
		c.current = 0
		c.momentum = 0
		c.passActive = false
	}
}

package tween

// Prop is one float field animated by a tween.
type Prop struct {
	Ptr  *float32
	To   float32
	from float32
}

// Tween moves a set of float fields from their values at Start to fixed
// targets over a duration. It is a plain state machine: nothing happens
// unless Advance is called.
type Tween struct {
	props      []Prop
	duration   float32
	elapsed    float32
	ease       Ease
	onComplete func()

	running bool
	killed  bool
}

func New(duration float32, ease Ease, props ...Prop) *Tween {
	if ease == nil {
		ease = Linear
	}
	return &Tween{
		props:    props,
		duration: duration,
		ease:     ease,
	}
}

// OnComplete registers fn to run once when the tween reaches its end.
func (tw *Tween) OnComplete(fn func()) *Tween {
	tw.onComplete = fn
	return tw
}

// Start captures the current field values as the origin and restarts.
func (tw *Tween) Start() *Tween {
	for i := range tw.props {
		if tw.props[i].Ptr != nil {
			tw.props[i].from = *tw.props[i].Ptr
		}
	}
	tw.elapsed = 0
	tw.running = true
	tw.killed = false
	if tw.duration <= 0 {
		tw.finish()
	}
	return tw
}

func (tw *Tween) IsAnimating() bool { return tw.running }

func (tw *Tween) Duration() float32 { return tw.duration }

// Progress returns linear progress in [0,1].
func (tw *Tween) Progress() float32 {
	if tw.duration <= 0 {
		return 1
	}
	p := tw.elapsed / tw.duration
	if p > 1 {
		return 1
	}
	return p
}

// Value returns the current eased value of the i-th property.
func (tw *Tween) Value(i int) float32 {
	p := tw.props[i]
	return p.from + (p.To-p.from)*tw.ease(tw.Progress())
}

// Advance moves the tween forward by dt seconds and writes the fields.
// It reports whether the tween completed during this call.
func (tw *Tween) Advance(dt float32) bool {
	if !tw.running || dt <= 0 {
		return false
	}
	tw.elapsed += dt
	if tw.elapsed >= tw.duration {
		tw.finish()
		return true
	}
	tw.apply()
	return false
}

// Kill stops the tween where it is. The completion callback does not run.
func (tw *Tween) Kill() {
	tw.running = false
	tw.killed = true
}

func (tw *Tween) apply() {
	for i := range tw.props {
		if tw.props[i].Ptr != nil {
			*tw.props[i].Ptr = tw.Value(i)
		}
	}
}

func (tw *Tween) finish() {
	tw.elapsed = tw.duration
	for i := range tw.props {
		if tw.props[i].Ptr != nil {
			*tw.props[i].Ptr = tw.props[i].To
		}
	}
	tw.running = false
	if tw.onComplete != nil {
		tw.onComplete()
	}
}

package tween

// Call is a delayed callback scheduled on a Timeline.
type Call struct {
	remaining float32
	fn        func()
	cancelled bool
}

func (c *Call) Cancel() { c.cancelled = true }

// Timeline advances fire-and-forget tweens and delayed calls from the frame
// loop. Callbacks may schedule more work; anything scheduled during Advance
// starts moving on the next Advance.
type Timeline struct {
	now    float32
	epoch  int
	tweens []*Tween
	calls  []*Call
}

func NewTimeline() *Timeline {
	return &Timeline{}
}

// Now returns the accumulated timeline time in seconds.
func (tl *Timeline) Now() float32 { return tl.now }

// To starts a tween of props towards their targets and schedules it.
func (tl *Timeline) To(duration float32, ease Ease, props ...Prop) *Tween {
	return tl.Add(New(duration, ease, props...))
}

// Add starts tw and schedules it.
func (tl *Timeline) Add(tw *Tween) *Tween {
	tw.Start()
	if tw.IsAnimating() {
		tl.tweens = append(tl.tweens, tw)
	}
	return tw
}

// Delay runs fn after the given number of seconds of timeline time.
func (tl *Timeline) Delay(seconds float32, fn func()) *Call {
	c := &Call{remaining: seconds, fn: fn}
	tl.calls = append(tl.calls, c)
	return c
}

// Active returns the number of running tweens plus pending calls.
func (tl *Timeline) Active() int {
	n := 0
	for _, tw := range tl.tweens {
		if tw.IsAnimating() {
			n++
		}
	}
	for _, c := range tl.calls {
		if !c.cancelled {
			n++
		}
	}
	return n
}

func (tl *Timeline) Advance(dt float32) {
	if dt <= 0 {
		return
	}
	tl.now += dt

	tweens, calls := tl.tweens, tl.calls
	tl.tweens, tl.calls = nil, nil
	epoch := tl.epoch

	keep := make([]*Tween, 0, len(tweens))
	for _, tw := range tweens {
		tw.Advance(dt)
		if tw.IsAnimating() {
			keep = append(keep, tw)
		}
	}
	if tl.epoch == epoch {
		tl.tweens = append(keep, tl.tweens...)
	} else {
		for _, tw := range keep {
			tw.Kill()
		}
	}

	pending := make([]*Call, 0, len(calls))
	for _, c := range calls {
		if c.cancelled || tl.epoch != epoch {
			continue
		}
		c.remaining -= dt
		if c.remaining <= 0 {
			c.fn()
			continue
		}
		pending = append(pending, c)
	}
	if tl.epoch != epoch {
		// Killed from a callback.
		return
	}
	tl.calls = append(pending, tl.calls...)
}

// Kill drops every scheduled tween and call without running callbacks.
func (tl *Timeline) Kill() {
	tl.epoch++
	for _, tw := range tl.tweens {
		tw.Kill()
	}
	for _, c := range tl.calls {
		c.Cancel()
	}
	tl.tweens = nil
	tl.calls = nil
}

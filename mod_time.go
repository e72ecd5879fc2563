package compass

import (
	"time"
)

// MaxFrameDelta caps the step after a stall so tweens and decay don't jump.
const MaxFrameDelta = 0.1

// Clock is the frame time. Now is host time of the current frame; Dt is
// the seconds since the previous one.
type Clock struct {
	Now    time.Duration
	Dt     float32
	Frames uint64

	pending time.Duration
	started bool
}

// Tick records the host timestamp of the frame about to run.
func (c *Clock) Tick(now time.Duration) {
	c.pending = now
}

type TimeModule struct{}

func (mod TimeModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(&Clock{})
	cmd.UseSystem(System(timeSystem).InStage(Prelude).InState(OnExecute(StateRunning)))
}

func timeSystem(clock *Clock) {
	now := clock.pending
	switch {
	case !clock.started:
		clock.started = true
		clock.Dt = 1.0 / 60
	default:
		dt := float32((now - clock.Now).Seconds())
		if dt < 0 {
			dt = 0
		}
		if dt > MaxFrameDelta {
			dt = MaxFrameDelta
		}
		clock.Dt = dt
	}
	clock.Now = now
	clock.Frames++
}

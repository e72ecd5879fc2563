package cinematic

import (
	"math/rand"
	"testing"

	"github.com/gekko3d/compass/rt/core"
	"github.com/gekko3d/compass/rt/tween"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rig struct {
	driver   *Driver
	timeline *tween.Timeline
}

func newRig(seed int64) rig {
	tl := tween.NewTimeline()
	return rig{driver: New(DefaultConfig(), rand.New(rand.NewSource(seed)), tl), timeline: tl}
}

// frame mirrors the loop order: tweens first, then the driver.
func (r rig) frame(dt float32) {
	r.timeline.Advance(dt)
	r.driver.Update(dt)
}

func (r rig) run(seconds float32, fps int) {
	dt := 1 / float32(fps)
	frames := int(seconds * float32(fps))
	for i := 0; i < frames; i++ {
		r.frame(dt)
	}
}

func TestFirstFrameRetargets(t *testing.T) {
	r := newRig(1)
	r.frame(1.0 / 60)
	assert.Equal(t, 1, r.driver.Retargets())
	assert.True(t, r.driver.State().Tilt.Animating)
}

func TestTiltStaysInsideBounds(t *testing.T) {
	r := newRig(7)
	for i := 0; i < 60*300; i++ {
		r.frame(1.0 / 60)
		s := r.driver.State().Tilt
		require.GreaterOrEqual(t, s.X, float32(-0.64)-1e-5)
		require.LessOrEqual(t, s.X, float32(0.16)+1e-5)
		require.GreaterOrEqual(t, s.Y, float32(-0.56)-1e-5)
		require.LessOrEqual(t, s.Y, float32(0.24)+1e-5)
	}
	assert.Greater(t, r.driver.Retargets(), 10)
}

func TestTiltHoldsBeforeNextRetarget(t *testing.T) {
	r := newRig(3)
	r.frame(1.0 / 60)
	target := r.driver.State().Tilt

	// Tween 2 s then hold 2 s: no new target inside that span.
	r.run(3.9, 60)
	s := r.driver.State().Tilt
	assert.Equal(t, 1, r.driver.Retargets())
	assert.Equal(t, target.TargetX, s.X)
	assert.Equal(t, target.TargetY, s.Y)
}

func TestDollyReturnsToRest(t *testing.T) {
	for seed := int64(0); seed < 20; seed++ {
		r := newRig(seed)
		minDist := float32(3)
		for i := 0; i < 60*30; i++ {
			r.frame(1.0 / 60)
			d := r.driver.State().Camera.Distance
			require.GreaterOrEqual(t, d, float32(2.5)-1e-5)
			require.LessOrEqual(t, d, float32(3.5)+1e-5)
			if d < minDist {
				minDist = d
			}
		}
		if r.driver.Dollies() > 0 && !r.driver.State().Camera.Animating {
			assert.Equal(t, float32(3), r.driver.State().Camera.Distance)
		}
	}
}

func TestCadenceIsFrameRateIndependent(t *testing.T) {
	slow := newRig(11)
	fast := newRig(11)
	slow.run(60, 30)
	fast.run(60, 144)

	assert.InDelta(t, fast.driver.Retargets(), slow.driver.Retargets(), 1)
	assert.InDelta(t, 14, fast.driver.Retargets(), 1)
}

func TestApplyPosesModelAndCamera(t *testing.T) {
	r := newRig(5)
	r.run(1.5, 60)

	model := core.NewNode("model")
	cam := core.NewPerspectiveCamera(45, 1, 0.1, 100)
	r.driver.Apply(model, cam)
	first := model.Transform
	r.driver.Apply(model, cam)
	assert.Equal(t, first, model.Transform, "apply is idempotent")

	s := r.driver.State()
	assert.InDelta(t, 1.8+r.driver.BobOffset(), model.Transform.Position.Y(), 1e-6)
	assert.LessOrEqual(t, r.driver.BobOffset(), float32(0.05))
	assert.Equal(t, mgl32.Vec3{0, 1.3, s.Camera.Distance}, cam.Position)
	assert.Equal(t, mgl32.Vec3{0, 1.3, 0}, cam.Target)

	// Nil targets are fine.
	r.driver.Apply(nil, nil)
}

package cinematic

import (
	"math/rand"

	"github.com/chewxy/math32"
	"github.com/gekko3d/compass/rt/core"
	"github.com/gekko3d/compass/rt/tween"
	"github.com/go-gl/mathgl/mgl32"
)

type Config struct {
	Anchor     mgl32.Vec3
	BaseHeight float32

	BobAmplitude float32
	BobRate      float32 // radians per second

	// Tilt re-targets fire when the scaled timeline counter passes a multiple
	// of CadenceModulo.
	TimelineRate  float32 // timeline units per second
	CadenceScale  float32
	CadenceModulo float32

	TiltDuration float32
	TiltHold     float32
	TiltBiasX    float32
	TiltBiasY    float32
	TiltRange    float32

	RestDistance  float32
	DollyMin      float32
	DollyRange    float32
	DollyChance   float32
	DollyDuration float32
	DollyHold     float32
}

func DefaultConfig() Config {
	return Config{
		Anchor:        mgl32.Vec3{0, 1.3, 0},
		BaseHeight:    1.8,
		BobAmplitude:  0.05,
		BobRate:       0.01 * 60,
		TimelineRate:  0.01 * 60,
		CadenceScale:  60,
		CadenceModulo: 80,
		TiltDuration:  2,
		TiltHold:      2,
		TiltBiasX:     0.8,
		TiltBiasY:     0.7,
		TiltRange:     0.8,
		RestDistance:  3,
		DollyMin:      2.5,
		DollyRange:    1,
		DollyChance:   0.5,
		DollyDuration: 2,
		DollyHold:     2,
	}
}

type Tilt struct {
	X, Y             float32
	TargetX, TargetY float32
	Animating        bool
}

type Dolly struct {
	Distance       float32
	TargetDistance float32
	Animating      bool
}

type Bob struct {
	Phase     float32
	Amplitude float32
}

// State is the full cinematic pose. Tweens write into it; Apply reads it.
type State struct {
	Timeline float32
	Tilt     Tilt
	Camera   Dolly
	Bob      Bob
}

// Driver evolves the model pose and camera distance on its own, with no
// user input. Tweens are scheduled on a shared timeline that the frame loop
// advances; the driver never waits on them.
type Driver struct {
	cfg       Config
	rng       *rand.Rand
	timeline  *tween.Timeline
	state     State
	retargets int
	dollies   int
}

func New(cfg Config, rng *rand.Rand, timeline *tween.Timeline) *Driver {
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	if timeline == nil {
		timeline = tween.NewTimeline()
	}
	return &Driver{
		cfg:      cfg,
		rng:      rng,
		timeline: timeline,
		state: State{
			Camera: Dolly{Distance: cfg.RestDistance, TargetDistance: cfg.RestDistance},
			Bob:    Bob{Amplitude: cfg.BobAmplitude},
		},
	}
}

func (d *Driver) State() State { return d.state }

// Retargets counts tilt re-targets so far.
func (d *Driver) Retargets() int { return d.retargets }

// Dollies counts camera dolly moves so far.
func (d *Driver) Dollies() int { return d.dollies }

// Update advances the timeline counter and bobbing phase by dt seconds and
// schedules new tilt and dolly tweens when the cadence fires.
func (d *Driver) Update(dt float32) {
	if dt <= 0 {
		return
	}
	prev := d.state.Timeline * d.cfg.CadenceScale
	d.state.Timeline += dt * d.cfg.TimelineRate
	cur := d.state.Timeline * d.cfg.CadenceScale

	if !d.state.Tilt.Animating && cadenceHit(prev, cur, d.cfg.CadenceModulo) {
		d.retarget()
	}

	d.state.Bob.Phase += dt * d.cfg.BobRate
}

// cadenceHit reports whether the scaled counter sits in, or stepped over,
// the unit window that starts at a multiple of m.
func cadenceHit(prev, cur, m float32) bool {
	if m <= 0 {
		return false
	}
	if math32.Mod(math32.Floor(cur), m) == 0 {
		return true
	}
	return math32.Floor(cur/m) > math32.Floor(prev/m)
}

func (d *Driver) retarget() {
	tilt := &d.state.Tilt
	tilt.TargetX = (d.rng.Float32() - d.cfg.TiltBiasX) * d.cfg.TiltRange
	tilt.TargetY = (d.rng.Float32() - d.cfg.TiltBiasY) * d.cfg.TiltRange
	tilt.Animating = true
	d.retargets++

	d.timeline.To(d.cfg.TiltDuration, tween.Power2InOut,
		tween.Prop{Ptr: &tilt.X, To: tilt.TargetX},
		tween.Prop{Ptr: &tilt.Y, To: tilt.TargetY},
	).OnComplete(func() {
		d.timeline.Delay(d.cfg.TiltHold, func() {
			tilt.Animating = false
		})
	})

	cam := &d.state.Camera
	if d.rng.Float32() > d.cfg.DollyChance && !cam.Animating {
		cam.Animating = true
		cam.TargetDistance = d.cfg.DollyMin + d.rng.Float32()*d.cfg.DollyRange
		d.dollies++

		d.timeline.To(d.cfg.DollyDuration, tween.Power2InOut,
			tween.Prop{Ptr: &cam.Distance, To: cam.TargetDistance},
		).OnComplete(func() {
			d.timeline.Delay(d.cfg.DollyHold, func() {
				d.timeline.To(d.cfg.DollyDuration, tween.Power2InOut,
					tween.Prop{Ptr: &cam.Distance, To: d.cfg.RestDistance},
				).OnComplete(func() {
					cam.Animating = false
				})
			})
		})
	}
}

// BobOffset is the current vertical offset added to the base height.
func (d *Driver) BobOffset() float32 {
	return math32.Sin(d.state.Bob.Phase) * d.state.Bob.Amplitude
}

// Apply poses the model and camera from the current state. It is idempotent
// and safe to call with a nil model.
func (d *Driver) Apply(model *core.Node, cam *core.PerspectiveCamera) {
	a := d.cfg.Anchor
	if model != nil {
		model.Transform.SetEuler(d.state.Tilt.X, d.state.Tilt.Y, 0)
		model.Transform.Position = mgl32.Vec3{a.X(), d.cfg.BaseHeight + d.BobOffset(), a.Z()}
	}
	if cam != nil {
		cam.Position = mgl32.Vec3{a.X(), a.Y(), a.Z() + d.state.Camera.Distance}
		cam.LookAt(a)
	}
}

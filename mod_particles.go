package compass

import (
	"math/rand"

	"github.com/gekko3d/compass/rt/particles"
	"github.com/go-gl/mathgl/mgl32"
)

type ParticlesState struct {
	Field *particles.Field

	opts   particles.Options
	anchor mgl32.Vec3
	rng    *rand.Rand
}

type ParticlesModule struct {
	Options particles.Options
	Anchor  mgl32.Vec3
	Rand    *rand.Rand
}

func (m ParticlesModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(&ParticlesState{opts: m.Options, anchor: m.Anchor, rng: m.Rand})
	cmd.UseSystem(System(spawnParticlesSystem).InStage(Update).InState(OnEnter(StateRunning)))
	cmd.UseSystem(System(advanceParticlesSystem).InStage(Update).InState(OnExecute(StateRunning)))
}

// The field is generated once; a reload keeps the existing one.
func spawnParticlesSystem(p *ParticlesState, scene *SceneState) {
	if p.Field != nil {
		return
	}
	p.Field = particles.Generate(p.rng, p.anchor, p.opts)
	scene.Scene.Add(p.Field.Node())
}

func advanceParticlesSystem(p *ParticlesState, clock *Clock) {
	if p.Field != nil {
		p.Field.Advance(clock.Dt)
	}
}

package compass

import (
	"math/rand"

	"github.com/gekko3d/compass/rt/cinematic"
	"github.com/gekko3d/compass/rt/tween"
)

type CinematicState struct {
	Timeline *tween.Timeline
	Driver   *cinematic.Driver
}

type CinematicModule struct {
	Config cinematic.Config
	Rand   *rand.Rand
}

func (m CinematicModule) Install(app *App, cmd *Commands) {
	tl := tween.NewTimeline()
	cmd.AddResources(&CinematicState{
		Timeline: tl,
		Driver:   cinematic.New(m.Config, m.Rand, tl),
	})
	cmd.UseSystem(System(timelineSystem).InStage(PreUpdate).InState(OnExecute(StateRunning)))
	cmd.UseSystem(System(cinematicSystem).InStage(Update).InState(OnExecute(StateRunning)))
	cmd.UseSystem(System(poseSystem).InStage(Update).InState(OnEnter(StateRunning)))
	cmd.UseSystem(System(stopTimelineSystem).InStage(Prelude).InState(OnEnter(StateDisposed)))
}

func timelineSystem(c *CinematicState, clock *Clock) {
	c.Timeline.Advance(clock.Dt)
}

func cinematicSystem(c *CinematicState, clock *Clock, scene *SceneState) {
	c.Driver.Update(clock.Dt)
	c.Driver.Apply(scene.Model, scene.Camera)
}

func poseSystem(c *CinematicState, scene *SceneState) {
	c.Driver.Apply(scene.Model, scene.Camera)
}

func stopTimelineSystem(c *CinematicState) {
	c.Timeline.Kill()
}

package compass

import (
	"github.com/gekko3d/compass/rt/interact"
)

type InteractionState struct {
	Controller *interact.Controller

	source     PointerSource
	disconnect func()
}

type InteractionModule struct {
	Config interact.Config
	// Source is nil when the container has no pointer.
	Source PointerSource
}

func (m InteractionModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(&InteractionState{
		Controller: interact.New(m.Config),
		source:     m.Source,
	})
	cmd.UseSystem(System(attachPointerSystem).InStage(Update).InState(OnEnter(StateRunning)))
	cmd.UseSystem(System(interactionSystem).InStage(Update).InState(OnExecute(StateRunning)))
	cmd.UseSystem(System(distortionUniformsSystem).InStage(PostUpdate).InState(OnExecute(StateRunning)))
	cmd.UseSystem(System(detachPointerSystem).InStage(Prelude).InState(OnEnter(StateDisposed)))
}

func attachPointerSystem(i *InteractionState) {
	if !i.Controller.Enabled() || i.source == nil || i.disconnect != nil {
		return
	}
	i.disconnect = i.source.OnPointer(i.Controller.PointerMove, i.Controller.PointerLeave)
}

func interactionSystem(i *InteractionState, clock *Clock) {
	i.Controller.Step(clock.Now, clock.Dt)
}

func distortionUniformsSystem(i *InteractionState, p *PipelineState) {
	if p.Pipeline != nil {
		p.Pipeline.Distortion().Set(i.Controller.Uniforms())
	}
}

func detachPointerSystem(i *InteractionState) {
	if i.disconnect != nil {
		i.disconnect()
		i.disconnect = nil
	}
}

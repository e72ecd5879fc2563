package compass

import (
	"github.com/gekko3d/compass/rt/post"
)

type PipelineState struct {
	Pipeline *post.Pipeline
	// Failures counts frames that could not be presented.
	Failures int

	opts   post.Options
	logger Logger
}

type PipelineModule struct {
	Options post.Options
}

func (m PipelineModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(&PipelineState{opts: m.Options, logger: app.Logger()})
	cmd.UseSystem(System(buildPipelineSystem).InStage(Prelude).InState(OnEnter(StateRunning)))
	cmd.UseSystem(System(buildPipelineSystem).InStage(Prelude).InState(OnEnter(StateFailed)))
	cmd.UseSystem(System(renderSystem).InStage(Render).InState(OnExecute(StateRunning)))
	cmd.UseSystem(System(disposePipelineSystem).InStage(PreRender).InState(OnEnter(StateDisposed)))
}

func buildPipelineSystem(p *PipelineState, surf *SurfaceState, scene *SceneState, cmd *Commands) {
	if p.Pipeline != nil {
		return
	}
	pl, err := post.Build(surf.Surface, scene.Scene, scene.Camera, p.opts)
	if err != nil {
		p.logger.Errorf("build pipeline: %v", err)
		if cmd.State() == StateRunning {
			cmd.ChangeState(StateFailed)
		}
		return
	}
	p.Pipeline = pl
	p.logger.Debugf("pipeline built: %v", pl.PassNames())
}

func renderSystem(p *PipelineState, clock *Clock) {
	if p.Pipeline == nil {
		return
	}
	if err := p.Pipeline.Render(clock.Dt); err != nil {
		p.Failures++
		p.logger.Errorf("frame %d: %v", clock.Frames, err)
	}
}

func disposePipelineSystem(p *PipelineState) {
	p.Pipeline.Dispose()
	p.Pipeline = nil
}

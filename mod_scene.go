package compass

import (
	"github.com/gekko3d/compass/rt/core"
	"github.com/gekko3d/compass/rt/gpu"
	"github.com/go-gl/mathgl/mgl32"
)

// SceneState owns the scene, its single camera and, once loaded, the model.
type SceneState struct {
	Scene  *core.Scene
	Camera *core.PerspectiveCamera
	Model  *core.Node
}

type SceneModule struct {
	Config Config
}

func (m SceneModule) Install(app *App, cmd *Commands) {
	cfg := m.Config
	anchor := cfg.Cinematic.Anchor

	scene := core.NewScene()
	scene.Exposure = cfg.Scene.Exposure
	p := cfg.Scene.LightPosition
	scene.Light = core.NewDirectionalLight(cfg.Scene.LightColor, cfg.Scene.LightIntensity, mgl32.Vec3{p[0], p[1], p[2]})

	aspect := float32(1)
	if surf, ok := Resource[SurfaceState](app); ok && surf.Surface != nil {
		if vp := surf.Surface.Viewport(); vp.Valid() {
			aspect = vp.Aspect()
		}
	}
	cam := core.NewPerspectiveCamera(cfg.Camera.Fov, aspect, cfg.Camera.Near, cfg.Camera.Far)
	cam.Position = anchor.Add(mgl32.Vec3{0, 0, cfg.Cinematic.RestDistance})
	cam.LookAt(anchor)

	cmd.AddResources(&SceneState{Scene: scene, Camera: cam})
	cmd.UseSystem(System(disposeSceneSystem).InStage(PostRender).InState(OnEnter(StateDisposed)))
}

func disposeSceneSystem(s *SceneState) {
	s.Scene.Dispose()
	s.Model = nil
}

// SurfaceState holds the render surface and its resize observer.
type SurfaceState struct {
	Surface    *gpu.Surface
	disconnect func()
}

type SurfaceModule struct {
	Surface *gpu.Surface
}

func (m SurfaceModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(&SurfaceState{Surface: m.Surface})
	cmd.UseSystem(System(releaseSurfaceSystem).InStage(Finale).InState(OnEnter(StateDisposed)))
}

func releaseSurfaceSystem(s *SurfaceState) {
	if s.disconnect != nil {
		s.disconnect()
		s.disconnect = nil
	}
	s.Surface.Dispose()
}

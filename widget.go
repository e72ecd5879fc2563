package compass

import (
	"errors"
	"fmt"
	"io/fs"
	"math/rand"
	"time"

	"github.com/gekko3d/compass/rt/core"
	"github.com/gekko3d/compass/rt/gpu"
	"github.com/gekko3d/compass/rt/interact"
	"github.com/gekko3d/compass/rt/particles"
	"github.com/gekko3d/compass/rt/post"
)

var (
	ErrDisposed  = errors.New("compass: widget disposed")
	ErrNotFailed = errors.New("compass: widget has not failed")
)

type Options struct {
	Config Config
	// Assets resolves model and environment paths. Defaults to the
	// config's asset root on disk.
	Assets  fs.FS
	Factory gpu.ContextFactory
	Loop    *FrameLoop
	Logger  Logger
}

// Widget is one mounted showcase: surface, scene, animation and pipeline.
type Widget struct {
	app       *App
	loop      *FrameLoop
	container gpu.Container
	logger    Logger
	disposed  bool
}

// Mount attaches a widget to container and starts loading its assets.
// Frames are requested from the loop once the model has loaded. A surface
// that cannot be created is logged and returned as an error; nothing is
// left attached.
func Mount(container gpu.Container, opts Options) (*Widget, error) {
	cfg := opts.Config
	logger := opts.Logger
	if logger == nil {
		logger = NewDefaultLogger("compass", cfg.Debug)
	}
	loop := opts.Loop
	if loop == nil {
		loop = NewFrameLoop()
	}

	surface, err := gpu.Initialize(container, opts.Factory, cfg.MaxPixelRatio)
	if err != nil {
		logger.Errorf("mount: %v", err)
		return nil, err
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	interaction := cfg.Interaction
	var source PointerSource
	if cfg.Mobile {
		interaction.Disabled = true
	} else if ps, ok := container.(PointerSource); ok {
		source = ps
	}

	w := &Widget{loop: loop, container: container, logger: logger}
	w.app = NewAppBuilder().
		UseStates(StateLoading, StateDisposed).
		UseModule(
			LoggingModule{Logger: logger, Debug: cfg.Debug},
			TimeModule{},
			SurfaceModule{Surface: surface},
			SceneModule{Config: cfg},
			AssetsModule{Config: cfg, FS: opts.Assets, Loop: loop},
			CinematicModule{Config: cfg.Cinematic, Rand: rng},
			ParticlesModule{Options: cfg.Particles, Anchor: cfg.Cinematic.Anchor, Rand: rng},
			InteractionModule{Config: interaction, Source: source},
			PipelineModule{Options: cfg.Post},
			FramesModule{Loop: loop},
		).
		Build()

	surf, _ := Resource[SurfaceState](w.app)
	surf.disconnect = container.Observe(w.Resize)

	w.app.Start()
	return w, nil
}

// Resize follows the container size. Zero sizes are ignored.
func (w *Widget) Resize(width, height int) {
	if w == nil || w.disposed {
		return
	}
	if p := w.Pipeline(); p != nil {
		if _, err := p.Resize(width, height); err != nil {
			w.logger.Errorf("resize %dx%d: %v", width, height, err)
		}
		return
	}
	surf, _ := Resource[SurfaceState](w.app)
	if surf.Surface.Resize(width, height) {
		w.Camera().SetAspect(surf.Surface.Viewport().Aspect())
	}
}

// Reload retries loading after a failed model load.
func (w *Widget) Reload() error {
	if w == nil || w.disposed {
		return ErrDisposed
	}
	if s := w.app.State(); s != StateFailed {
		return fmt.Errorf("%w: %s", ErrNotFailed, s)
	}
	w.app.Transition(StateLoading)
	return nil
}

// Dispose halts the frame loop and releases every GPU and scene resource.
// Safe on a nil widget and safe to call more than once.
func (w *Widget) Dispose() {
	if w == nil || w.disposed {
		return
	}
	w.disposed = true
	w.app.Transition(StateDisposed)
	w.logger.Debugf("widget disposed")
}

func (w *Widget) State() State     { return w.app.State() }
func (w *Widget) Loop() *FrameLoop { return w.loop }

func (w *Widget) Scene() *core.Scene {
	s, _ := Resource[SceneState](w.app)
	return s.Scene
}

func (w *Widget) Camera() *core.PerspectiveCamera {
	s, _ := Resource[SceneState](w.app)
	return s.Camera
}

func (w *Widget) Model() *core.Node {
	s, _ := Resource[SceneState](w.app)
	return s.Model
}

func (w *Widget) Pipeline() *post.Pipeline {
	p, _ := Resource[PipelineState](w.app)
	return p.Pipeline
}

func (w *Widget) Field() *particles.Field {
	p, _ := Resource[ParticlesState](w.app)
	return p.Field
}

func (w *Widget) Controller() *interact.Controller {
	i, _ := Resource[InteractionState](w.app)
	return i.Controller
}

func (w *Widget) Surface() *gpu.Surface {
	s, _ := Resource[SurfaceState](w.app)
	return s.Surface
}

// WaitLoads blocks until in-flight asset loads have posted their results
// to the loop. The results are applied on the next Pump.
func (w *Widget) WaitLoads() {
	l, _ := Resource[Loader](w.app)
	l.Wait()
}

// frameDriver keeps exactly one frame requested while the app is running.
type frameDriver struct {
	app    *App
	loop   *FrameLoop
	clock  *Clock
	id     FrameID
	active bool
}

type FramesModule struct {
	Loop *FrameLoop
}

func (m FramesModule) Install(app *App, cmd *Commands) {
	clock, _ := Resource[Clock](app)
	cmd.AddResources(&frameDriver{app: app, loop: m.Loop, clock: clock})
	cmd.UseSystem(System(startFramesSystem).InStage(Finale).InState(OnEnter(StateRunning)))
	cmd.UseSystem(System(stopFramesSystem).InStage(Prelude).InState(OnExit(StateRunning)))
}

func startFramesSystem(d *frameDriver) { d.start() }
func stopFramesSystem(d *frameDriver)  { d.stop() }

func (d *frameDriver) start() {
	if d.active {
		return
	}
	d.active = true
	d.id = d.loop.RequestFrame(d.frame)
}

func (d *frameDriver) stop() {
	if !d.active {
		return
	}
	d.active = false
	d.loop.CancelFrame(d.id)
}

func (d *frameDriver) frame(now time.Duration) {
	if !d.active {
		return
	}
	d.clock.Tick(now)
	d.app.Step()
	if d.active {
		d.id = d.loop.RequestFrame(d.frame)
	}
}

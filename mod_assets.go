package compass

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gekko3d/compass/rt/assets"
	"github.com/gekko3d/compass/rt/core"
	"github.com/google/uuid"
)

const watchDebounce = 200 * time.Millisecond

// Loader runs model and environment loads off the render thread and hands
// the results back through the frame loop. Every load carries a token;
// results whose token is no longer current are disposed unseen.
type Loader struct {
	app    *App
	loop   *FrameLoop
	logger Logger
	fsys   fs.FS
	cfg    Config

	scene    *SceneState
	ctx      context.Context
	cancel   context.CancelFunc
	token    uuid.UUID
	envToken uuid.UUID
	watcher  *assets.Watcher
	inflight sync.WaitGroup
	stopped  bool
}

type AssetsModule struct {
	Config Config
	FS     fs.FS
	Loop   *FrameLoop
}

func (m AssetsModule) Install(app *App, cmd *Commands) {
	fsys := m.FS
	if fsys == nil {
		fsys = os.DirFS(m.Config.AssetRoot)
	}
	cmd.AddResources(&Loader{
		app:    app,
		loop:   m.Loop,
		logger: app.Logger(),
		fsys:   fsys,
		cfg:    m.Config,
	})
	cmd.UseSystem(System(startLoadsSystem).InStage(Prelude).InState(OnEnter(StateLoading)))
	cmd.UseSystem(System(stopLoadsSystem).InStage(Prelude).InState(OnEnter(StateDisposed)))
}

func startLoadsSystem(l *Loader, scene *SceneState) {
	l.start(scene)
}

func stopLoadsSystem(l *Loader) {
	l.stop()
}

func (l *Loader) start(scene *SceneState) {
	if l.stopped {
		return
	}
	l.scene = scene
	if l.cancel != nil {
		l.cancel()
	}
	l.ctx, l.cancel = context.WithCancel(context.Background())
	l.token = uuid.New()
	l.logger.Infof("loading model %s (load %s)", l.cfg.ModelPath, l.token)

	token := l.token
	ctx := l.ctx
	opts := assets.ModelOptions{Metalness: l.cfg.Scene.Metalness, Roughness: l.cfg.Scene.Roughness}
	l.inflight.Add(1)
	go func() {
		defer l.inflight.Done()
		node, err := assets.LoadModel(ctx, l.fsys, l.cfg.ModelPath, opts)
		l.loop.Post(func() { l.modelLoaded(token, node, err) })
	}()

	if scene.Scene.Environment == nil && l.cfg.EnvironmentPath != "" {
		l.loadEnvironment()
	}
	if l.cfg.WatchAssets && l.watcher == nil && l.cfg.EnvironmentPath != "" {
		l.watch()
	}
}

func (l *Loader) loadEnvironment() {
	l.envToken = uuid.New()
	token := l.envToken
	ctx := l.ctx
	opts := assets.EnvironmentOptions{MaxWidth: l.cfg.Scene.EnvMaxWidth}
	l.inflight.Add(1)
	go func() {
		defer l.inflight.Done()
		env, err := assets.LoadEnvironment(ctx, l.fsys, l.cfg.EnvironmentPath, opts)
		l.loop.Post(func() { l.environmentLoaded(token, env, err) })
	}()
}

func (l *Loader) watch() {
	file := filepath.Join(l.cfg.AssetRoot, filepath.FromSlash(l.cfg.EnvironmentPath))
	w, err := assets.Watch(context.Background(), file, watchDebounce,
		func() {
			l.loop.Post(func() {
				if l.stopped {
					return
				}
				l.logger.Infof("environment %s changed, reloading", l.cfg.EnvironmentPath)
				l.loadEnvironment()
			})
		},
		func(err error) { l.logger.Warnf("watch %s: %v", file, err) },
	)
	if err != nil {
		l.logger.Warnf("watch %s: %v", file, err)
		return
	}
	l.watcher = w
}

func (l *Loader) modelLoaded(token uuid.UUID, node *core.Node, err error) {
	if l.stopped || token != l.token || l.app.State() != StateLoading {
		if node != nil {
			node.Dispose()
		}
		return
	}
	if err != nil {
		l.logger.Errorf("%v", err)
		l.app.Transition(StateFailed)
		return
	}
	node.Transform.SetUniformScale(l.cfg.Scene.ModelScale)
	l.scene.Model = node
	l.scene.Scene.Add(node)
	l.app.Transition(StateRunning)
}

func (l *Loader) environmentLoaded(token uuid.UUID, env *core.Environment, err error) {
	if l.stopped || token != l.envToken {
		if env != nil {
			env.Dispose()
		}
		return
	}
	if err != nil {
		l.logger.Warnf("%v; materials stay non-reflective", err)
		return
	}
	l.scene.Scene.SetEnvironment(env)
	l.logger.Debugf("environment %s applied (%dx%d)", env.Source, env.Width, env.Height)
}

// Wait blocks until every started load has posted its result.
func (l *Loader) Wait() {
	l.inflight.Wait()
}

func (l *Loader) stop() {
	if l.stopped {
		return
	}
	l.stopped = true
	if l.cancel != nil {
		l.cancel()
	}
	if l.watcher != nil {
		l.watcher.Close()
	}
}

package compass

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/gekko3d/compass/rt/gpu"
	"github.com/gekko3d/compass/rt/gpu/gputest"
	"github.com/gekko3d/compass/rt/interact"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const frame = 16 * time.Millisecond

func modelGLB(t *testing.T) []byte {
	t.Helper()
	doc := gltf.NewDocument()
	pos := modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1}})
	idx := modeler.WriteIndices(doc, []uint16{0, 1, 2, 0, 2, 3})
	doc.Meshes = []*gltf.Mesh{{
		Name: "dial",
		Primitives: []*gltf.Primitive{{
			Indices:    gltf.Index(idx),
			Attributes: map[string]int{gltf.POSITION: pos},
		}},
	}}
	doc.Nodes = []*gltf.Node{{Name: "compass", Mesh: gltf.Index(0)}}
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, 0)

	var buf bytes.Buffer
	enc := gltf.NewEncoder(&buf)
	enc.AsBinary = true
	require.NoError(t, enc.Encode(doc))
	return buf.Bytes()
}

func environmentPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 8, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 8; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 200, G: 180, B: 160, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Seed = 7
	cfg.ModelPath = "models/compass.glb"
	cfg.EnvironmentPath = "textures/env.png"
	return cfg
}

type harness struct {
	w   *Widget
	dev *gputest.Device
	c   *gputest.Container
	now time.Duration
}

func mount(t *testing.T, fsys fs.FS, cfg Config) *harness {
	t.Helper()
	h := &harness{dev: gputest.NewDevice(), c: gputest.NewContainer(300, 300, 1)}
	w, err := Mount(h.c, Options{
		Config:  cfg,
		Assets:  fsys,
		Factory: gputest.Factory(h.dev),
		Logger:  NewNopLogger(),
	})
	require.NoError(t, err)
	h.w = w
	return h
}

// settle applies finished loads.
func (h *harness) settle() {
	h.w.WaitLoads()
	h.w.Loop().Pump(h.now)
}

func (h *harness) frames(n int) {
	for i := 0; i < n; i++ {
		h.now += frame
		h.w.Loop().Pump(h.now)
	}
}

func fullAssets(t *testing.T) fstest.MapFS {
	return fstest.MapFS{
		"models/compass.glb": {Data: modelGLB(t)},
		"textures/env.png":   {Data: environmentPNG(t)},
	}
}

func TestWidgetEndToEnd(t *testing.T) {
	cfg := testConfig()
	h := mount(t, fullAssets(t), cfg)

	assert.Equal(t, StateLoading, h.w.State())
	assert.Equal(t, 0, h.w.Loop().RequestedFrames())
	assert.True(t, h.c.Attached)

	h.settle()
	require.Equal(t, StateRunning, h.w.State())

	p := h.w.Pipeline()
	require.NotNil(t, p)
	assert.Equal(t, []string{"render", "bloom", "distortion", "film", "fxaa"}, p.PassNames())

	field := h.w.Field()
	require.NotNil(t, field)
	assert.Equal(t, 7500, field.Count())
	rest := field.Rest()
	anchor := field.Anchor()
	for i := 0; i < field.Count(); i++ {
		v := mgl32.Vec3{rest.Positions[i*3], rest.Positions[i*3+1], rest.Positions[i*3+2]}.Sub(anchor)
		r := v.Len()
		require.GreaterOrEqual(t, r, cfg.Particles.MinRadius-1e-4)
		require.LessOrEqual(t, r, cfg.Particles.MaxRadius+1e-4)
	}

	assert.NotNil(t, h.w.Scene().Environment)
	assert.False(t, h.w.Scene().Empty())
	require.NotNil(t, h.w.Model())
	assert.InDelta(t, 0.035, h.w.Model().Transform.Scale.X(), 1e-6)

	h.frames(3)
	assert.Equal(t, 3, h.dev.Presented)
	assert.Equal(t, 3, h.dev.SceneRenders)
	assert.InDelta(t, 1.0, h.w.Camera().Aspect, 1e-6)
	assert.Greater(t, field.Clock(), float32(0))
}

func TestWidgetEnvironmentFailureStillShowsModel(t *testing.T) {
	fsys := fstest.MapFS{"models/compass.glb": {Data: modelGLB(t)}}
	h := mount(t, fsys, testConfig())

	h.settle()
	assert.Equal(t, StateRunning, h.w.State())
	assert.Nil(t, h.w.Scene().Environment)
	assert.False(t, h.w.Scene().Empty())

	h.frames(1)
	assert.Equal(t, 1, h.dev.Presented)
}

func TestWidgetModelFailureFailsClosed(t *testing.T) {
	fsys := fstest.MapFS{"textures/env.png": {Data: environmentPNG(t)}}
	h := mount(t, fsys, testConfig())

	h.settle()
	assert.Equal(t, StateFailed, h.w.State())
	assert.NotNil(t, h.w.Pipeline())
	assert.Nil(t, h.w.Model())
	assert.Nil(t, h.w.Field())

	h.frames(5)
	assert.Equal(t, 0, h.w.Loop().RequestedFrames())
	assert.Equal(t, 0, h.dev.Presented)

	assert.NotPanics(t, func() { h.w.Resize(200, 100) })
	assert.InDelta(t, 2.0, h.w.Camera().Aspect, 1e-6)

	fsys["models/compass.glb"] = &fstest.MapFile{Data: modelGLB(t)}
	require.NoError(t, h.w.Reload())
	assert.Equal(t, StateLoading, h.w.State())
	h.settle()
	assert.Equal(t, StateRunning, h.w.State())
	assert.Equal(t, 1, h.w.Loop().RequestedFrames())
}

func TestWidgetReloadOnlyAfterFailure(t *testing.T) {
	h := mount(t, fullAssets(t), testConfig())
	h.settle()
	assert.ErrorIs(t, h.w.Reload(), ErrNotFailed)

	h.w.Dispose()
	assert.ErrorIs(t, h.w.Reload(), ErrDisposed)
}

func TestWidgetResize(t *testing.T) {
	h := mount(t, fullAssets(t), testConfig())
	h.settle()

	h.c.SetSize(600, 300)
	assert.InDelta(t, 2.0, h.w.Camera().Aspect, 1e-6)
	w, ht := h.w.Pipeline().Size()
	assert.Equal(t, 600, w)
	assert.Equal(t, 300, ht)

	h.c.SetSize(0, 300)
	h.c.SetSize(600, 0)
	assert.InDelta(t, 2.0, h.w.Camera().Aspect, 1e-6)
	assert.InDelta(t, 1.0/600, h.w.Pipeline().FXAA().Resolution()[0], 1e-9)

	h.c.SetSize(300, 300)
	assert.InDelta(t, 1.0, h.w.Camera().Aspect, 1e-6)
	h.frames(1)
	assert.Equal(t, 1, h.dev.Presented)
}

func TestWidgetPixelRatioChangeRecomputesFXAA(t *testing.T) {
	h := mount(t, fullAssets(t), testConfig())
	h.settle()
	p := h.w.Pipeline()
	assert.InDelta(t, 1.0/300, p.FXAA().Resolution()[0], 1e-9)

	h.c.SetPixelRatio(2)
	w, ht := p.Size()
	assert.Equal(t, 600, w)
	assert.Equal(t, 600, ht)
	assert.InDelta(t, 1.0/600, p.FXAA().Resolution()[0], 1e-9)
	assert.InDelta(t, 1.0/600, p.FXAA().Resolution()[1], 1e-9)
	assert.InDelta(t, 1.0, h.w.Camera().Aspect, 1e-6)
	assert.Equal(t, 600, h.dev.ResizeW)

	h.c.SetPixelRatio(3)
	w, _ = p.Size()
	assert.Equal(t, 600, w)

	h.frames(1)
	assert.Equal(t, 1, h.dev.Presented)
}

// gatedFS holds back one file until release is closed.
type gatedFS struct {
	files   fstest.MapFS
	name    string
	release chan struct{}
}

func (g gatedFS) Open(name string) (fs.File, error) {
	if name == g.name {
		<-g.release
	}
	return g.files.Open(name)
}

func TestWidgetLateEnvironmentSwapsInWhileRunning(t *testing.T) {
	release := make(chan struct{})
	h := mount(t, gatedFS{files: fullAssets(t), name: "textures/env.png", release: release}, testConfig())

	require.Eventually(t, func() bool {
		h.w.Loop().Pump(h.now)
		return h.w.State() == StateRunning
	}, 5*time.Second, time.Millisecond)
	h.frames(3)
	assert.Nil(t, h.w.Scene().Environment)
	presented := h.dev.Presented
	requested := h.w.Loop().RequestedFrames()

	close(release)
	h.w.WaitLoads()
	h.frames(2)

	env := h.w.Scene().Environment
	require.NotNil(t, env)
	assert.Equal(t, "textures/env.png", env.Source)
	assert.Equal(t, StateRunning, h.w.State())
	assert.Equal(t, presented+2, h.dev.Presented)
	assert.Equal(t, requested+2, h.w.Loop().RequestedFrames())
}

func TestWidgetWatchedEnvironmentAppearsWhileRunning(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "models"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "textures"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "models", "compass.glb"), modelGLB(t), 0o644))

	cfg := testConfig()
	cfg.AssetRoot = root
	cfg.WatchAssets = true
	h := mount(t, nil, cfg)
	defer h.w.Dispose()

	h.settle()
	require.Equal(t, StateRunning, h.w.State())
	h.frames(1)
	assert.Nil(t, h.w.Scene().Environment)

	require.NoError(t, os.WriteFile(filepath.Join(root, "textures", "env.png"), environmentPNG(t), 0o644))
	require.Eventually(t, func() bool {
		h.frames(1)
		return h.w.Scene().Environment != nil
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, StateRunning, h.w.State())
	assert.Equal(t, h.w.Loop().RequestedFrames()-1, h.dev.Presented)
}

func TestWidgetDisposeIsIdempotentAndStopsFrames(t *testing.T) {
	h := mount(t, fullAssets(t), testConfig())
	h.settle()
	h.frames(2)

	h.w.Dispose()
	h.w.Dispose()
	assert.Equal(t, StateDisposed, h.w.State())

	requested := h.w.Loop().RequestedFrames()
	presented := h.dev.Presented
	h.frames(5)
	assert.Equal(t, requested, h.w.Loop().RequestedFrames())
	assert.Equal(t, presented, h.dev.Presented)
	assert.False(t, h.w.Loop().Pending())

	assert.True(t, h.dev.Released)
	assert.False(t, h.c.Attached)
	assert.Equal(t, 0, h.c.Observers())
	assert.Equal(t, 0, h.c.PointerListeners())
	assert.Empty(t, h.dev.LiveTargets())
	for _, prog := range h.dev.Programs {
		assert.True(t, prog.Released, prog.Desc.Label)
	}
	assert.True(t, h.w.Scene().Empty())

	var nilWidget *Widget
	assert.NotPanics(t, nilWidget.Dispose)
}

func TestWidgetDisposeBeforeLoadsFinish(t *testing.T) {
	h := mount(t, fullAssets(t), testConfig())
	h.w.Dispose()

	h.settle()
	h.frames(2)
	assert.Equal(t, StateDisposed, h.w.State())
	assert.Nil(t, h.w.Model())
	assert.Nil(t, h.w.Scene().Environment)
	assert.True(t, h.w.Scene().Empty())
	assert.Equal(t, 0, h.w.Loop().RequestedFrames())
	assert.True(t, h.dev.Released)
}

func TestWidgetPointerDrivesDistortion(t *testing.T) {
	h := mount(t, fullAssets(t), testConfig())
	h.settle()
	require.Equal(t, 1, h.c.PointerListeners())

	h.frames(1)
	h.c.Move(interact.PointerEvent{X: 100, Y: 100, Width: 300, Height: 300, Time: h.now})
	h.c.Move(interact.PointerEvent{X: 160, Y: 100, Width: 300, Height: 300, Time: h.now + 10*time.Millisecond})
	h.frames(1)

	assert.Equal(t, interact.Engaged, h.w.Controller().State())
	d := h.w.Pipeline().Distortion()
	assert.True(t, d.Active)
	assert.Greater(t, d.Intensity, float32(0))
	assert.LessOrEqual(t, d.Intensity, float32(0.8))

	h.c.Leave()
	h.frames(1)
	assert.False(t, h.w.Pipeline().Distortion().Active)
}

func TestWidgetMobileAttachesNoPointer(t *testing.T) {
	cfg := testConfig()
	cfg.Mobile = true
	h := mount(t, fullAssets(t), cfg)
	h.settle()

	assert.Equal(t, StateRunning, h.w.State())
	assert.Equal(t, 0, h.c.PointerListeners())
	assert.False(t, h.w.Controller().Enabled())
}

func TestMountSurfaceFailure(t *testing.T) {
	c := gputest.NewContainer(300, 300, 1)
	w, err := Mount(c, Options{
		Config:  testConfig(),
		Factory: gputest.FailingFactory(errors.New("no adapter")),
		Logger:  NewNopLogger(),
	})
	assert.Nil(t, w)
	assert.ErrorIs(t, err, gpu.ErrSurfaceInit)
	assert.False(t, c.Attached)
}

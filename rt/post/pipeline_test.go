package post_test

import (
	"errors"
	"testing"

	"github.com/gekko3d/compass/rt/core"
	"github.com/gekko3d/compass/rt/gpu"
	"github.com/gekko3d/compass/rt/gpu/gputest"
	"github.com/gekko3d/compass/rt/interact"
	"github.com/gekko3d/compass/rt/post"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPipeline(t *testing.T, w, h int, ratio float64) (*post.Pipeline, *gputest.Device, *core.PerspectiveCamera) {
	t.Helper()
	dev := gputest.NewDevice()
	surface, err := gpu.Initialize(gputest.NewContainer(w, h, ratio), gputest.Factory(dev), 2)
	require.NoError(t, err)
	cam := core.NewPerspectiveCamera(45, 1, 0.1, 100)
	p, err := post.Build(surface, core.NewScene(), cam, post.DefaultOptions())
	require.NoError(t, err)
	return p, dev, cam
}

func TestBuildPassOrder(t *testing.T) {
	p, _, cam := newPipeline(t, 300, 150, 1)

	assert.Equal(t, []string{"render", "bloom", "distortion", "film", "fxaa"}, p.PassNames())
	assert.Len(t, p.Passes(), 5)
	assert.InDelta(t, 2.0, cam.Aspect, 1e-6)
}

func TestRenderChainsPasses(t *testing.T) {
	p, dev, _ := newPipeline(t, 300, 300, 1)

	require.NoError(t, p.Render(1.0/60))

	want := []string{"scene", "draw Bloom highpass"}
	for i := 0; i < post.BloomMips*2; i++ {
		want = append(want, "draw Bloom blur")
	}
	want = append(want, "draw Bloom composite", "draw Distortion", "draw Film", "draw FXAA", "present")
	assert.Equal(t, want, dev.Calls)
	assert.Equal(t, 1, dev.Presented)
	assert.Equal(t, 1, dev.SceneRenders)
}

func TestRenderBeginFrameFailure(t *testing.T) {
	p, dev, _ := newPipeline(t, 300, 300, 1)
	dev.FailBeginFrame = errors.New("surface lost")

	assert.Error(t, p.Render(1.0/60))
	assert.Equal(t, 0, dev.Presented)
}

func TestDistortionUniforms(t *testing.T) {
	p, dev, _ := newPipeline(t, 300, 300, 1)
	p.Distortion().Set(interact.Uniforms{Time: 2, Intensity: 0.5, Pointer: [2]float32{0.25, 0.75}, Active: true})

	require.NoError(t, p.Render(1.0/60))
	prog := dev.Program("Distortion")
	require.NotNil(t, prog)
	assert.Equal(t, gpu.MustPackUniforms([8]float32{2, 0.5, 1, 0, 0.25, 0.75, 0, 0}), prog.LastUniforms)
}

func TestResizeZeroIsNoop(t *testing.T) {
	p, dev, cam := newPipeline(t, 300, 150, 1)
	targets := len(dev.Targets)

	ok, err := p.Resize(0, 100)
	assert.NoError(t, err)
	assert.False(t, ok)
	ok, err = p.Resize(100, 0)
	assert.NoError(t, err)
	assert.False(t, ok)

	assert.InDelta(t, 2.0, cam.Aspect, 1e-6)
	assert.Equal(t, targets, len(dev.Targets))

	ok, err = p.Resize(400, 100)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.InDelta(t, 4.0, cam.Aspect, 1e-6)
}

func TestResizeRecomputesFXAAResolution(t *testing.T) {
	p, _, _ := newPipeline(t, 300, 200, 2)
	assert.InDelta(t, 1.0/600, p.FXAA().Resolution()[0], 1e-9)
	assert.InDelta(t, 1.0/400, p.FXAA().Resolution()[1], 1e-9)

	_, err := p.Resize(500, 250)
	require.NoError(t, err)
	w, h := p.Size()
	assert.Equal(t, 1000, w)
	assert.Equal(t, 500, h)
	assert.InDelta(t, 1.0/1000, p.FXAA().Resolution()[0], 1e-9)
	assert.InDelta(t, 1.0/500, p.FXAA().Resolution()[1], 1e-9)
}

func TestResizeReallocatesTargets(t *testing.T) {
	p, dev, _ := newPipeline(t, 300, 300, 1)
	live := len(dev.LiveTargets())

	_, err := p.Resize(200, 200)
	require.NoError(t, err)
	assert.Len(t, dev.LiveTargets(), live)
	for _, tgt := range dev.LiveTargets() {
		w, _ := tgt.Size()
		assert.LessOrEqual(t, w, 200)
	}
	require.NoError(t, p.Render(1.0/60))
}

func TestResizeFailureKeepsTargetsUntilRetry(t *testing.T) {
	p, dev, _ := newPipeline(t, 300, 300, 1)
	live := dev.LiveTargets()
	dev.FailCreateTarget = errors.New("out of memory")

	ok, err := p.Resize(600, 300)
	assert.True(t, ok)
	assert.Error(t, err)
	w, h := p.Size()
	assert.Equal(t, 300, w)
	assert.Equal(t, 300, h)
	assert.Equal(t, live, dev.LiveTargets())
	assert.InDelta(t, 1.0/300, p.FXAA().Resolution()[0], 1e-9)
	require.NoError(t, p.Render(1.0/60))

	dev.FailCreateTarget = nil
	ok, err = p.Resize(600, 300)
	require.NoError(t, err)
	assert.True(t, ok)
	w, h = p.Size()
	assert.Equal(t, 600, w)
	assert.Equal(t, 300, h)
	assert.Len(t, dev.LiveTargets(), len(live))
	assert.InDelta(t, 1.0/600, p.FXAA().Resolution()[0], 1e-9)
	require.NoError(t, p.Render(1.0/60))
	assert.Equal(t, 2, dev.Presented)
}

func TestBloomResizeFailureKeepsChain(t *testing.T) {
	dev := gputest.NewDevice()
	bloom := post.NewBloomPass(post.DefaultBloomOptions())
	require.NoError(t, bloom.Setup(dev, 320, 320))
	chain := dev.LiveTargets()
	require.Len(t, chain, 1+2*post.BloomMips)

	dev.FailCreateTarget = errors.New("out of memory")
	assert.Error(t, bloom.Resize(dev, 640, 640))
	assert.Equal(t, chain, dev.LiveTargets())

	dev.FailCreateTarget = nil
	in, err := dev.CreateTarget("in", 320, 320)
	require.NoError(t, err)
	out, err := dev.CreateTarget("out", 320, 320)
	require.NoError(t, err)
	frame, err := dev.BeginFrame()
	require.NoError(t, err)
	require.NoError(t, bloom.Render(&post.Context{Device: dev, Frame: frame, Input: in, Output: out}))

	require.NoError(t, bloom.Resize(dev, 640, 640))
	for _, tgt := range chain {
		assert.True(t, tgt.Released, tgt.Name)
	}
	assert.Len(t, dev.LiveTargets(), 2+1+2*post.BloomMips)
}

func TestDisposeReleasesEverything(t *testing.T) {
	p, dev, _ := newPipeline(t, 300, 300, 1)
	require.NoError(t, p.Render(1.0/60))

	p.Dispose()
	p.Dispose()

	assert.True(t, p.Disposed())
	assert.Empty(t, dev.LiveTargets())
	for _, prog := range dev.Programs {
		assert.True(t, prog.Released, prog.Desc.Label)
	}
	assert.ErrorIs(t, p.Render(1.0/60), post.ErrDisposed)
	ok, err := p.Resize(100, 100)
	assert.False(t, ok)
	assert.NoError(t, err)
}

func TestBuildOnDisposedSurface(t *testing.T) {
	dev := gputest.NewDevice()
	surface, err := gpu.Initialize(gputest.NewContainer(10, 10, 1), gputest.Factory(dev), 2)
	require.NoError(t, err)
	surface.Dispose()

	_, err = post.Build(surface, core.NewScene(), core.NewPerspectiveCamera(45, 1, 0.1, 100), post.DefaultOptions())
	assert.ErrorIs(t, err, gpu.ErrNoValidContainer)
}

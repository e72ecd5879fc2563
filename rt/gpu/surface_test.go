package gpu_test

import (
	"errors"
	"testing"

	"github.com/gekko3d/compass/rt/gpu"
	"github.com/gekko3d/compass/rt/gpu/gputest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeNilContainer(t *testing.T) {
	s, err := gpu.Initialize(nil, gputest.Factory(gputest.NewDevice()), 2)
	assert.Nil(t, s)
	assert.ErrorIs(t, err, gpu.ErrNoValidContainer)
}

func TestInitializeAttachFailure(t *testing.T) {
	c := gputest.NewContainer(800, 600, 1)
	c.AttachErr = errors.New("detached host")
	_, err := gpu.Initialize(c, gputest.Factory(gputest.NewDevice()), 2)
	assert.ErrorIs(t, err, gpu.ErrNoValidContainer)
}

func TestInitializeFactoryFailureDetaches(t *testing.T) {
	c := gputest.NewContainer(800, 600, 1)
	_, err := gpu.Initialize(c, gputest.FailingFactory(errors.New("no adapter")), 2)
	assert.ErrorIs(t, err, gpu.ErrSurfaceInit)
	assert.False(t, c.Attached)
}

func TestInitializeClampsPixelRatio(t *testing.T) {
	dev := gputest.NewDevice()
	c := gputest.NewContainer(800, 600, 3)
	s, err := gpu.Initialize(c, gputest.Factory(dev), 2)
	require.NoError(t, err)

	assert.True(t, c.Attached)
	assert.Equal(t, 2.0, s.Viewport().PixelRatio)
	assert.Equal(t, 1600, dev.ResizeW)
	assert.Equal(t, 1200, dev.ResizeH)
}

func TestResize(t *testing.T) {
	dev := gputest.NewDevice()
	c := gputest.NewContainer(800, 600, 1)
	s, err := gpu.Initialize(c, gputest.Factory(dev), 0)
	require.NoError(t, err)

	assert.True(t, s.Resize(400, 300))
	assert.Equal(t, 400, dev.ResizeW)
	assert.Equal(t, 300, dev.ResizeH)

	resizes := dev.Resizes
	assert.False(t, s.Resize(0, 300))
	assert.False(t, s.Resize(400, 0))
	assert.Equal(t, resizes, dev.Resizes)
	assert.Equal(t, 400, s.Viewport().Width)
}

func TestDisposeIdempotent(t *testing.T) {
	dev := gputest.NewDevice()
	c := gputest.NewContainer(800, 600, 1)
	s, err := gpu.Initialize(c, gputest.Factory(dev), 2)
	require.NoError(t, err)

	s.Dispose()
	s.Dispose()
	assert.True(t, s.Disposed())
	assert.True(t, dev.Released)
	assert.False(t, c.Attached)
	assert.False(t, s.Resize(10, 10))

	var nilSurface *gpu.Surface
	assert.NotPanics(t, func() { nilSurface.Dispose() })
}

package particles

import (
	"math/rand"
	"testing"

	"github.com/gekko3d/compass/rt/core"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var anchor = mgl32.Vec3{0, 1.3, 0}

func newField(t *testing.T, count int) *Field {
	t.Helper()
	opts := DefaultOptions()
	opts.Count = count
	return Generate(rand.New(rand.NewSource(42)), anchor, opts)
}

func TestGenerateCountAndRadiusBand(t *testing.T) {
	f := newField(t, 7500)
	require.Equal(t, 7500, f.Count())

	rest := f.Rest()
	for i := 0; i < f.Count(); i++ {
		p := mgl32.Vec3{rest.Positions[i*3], rest.Positions[i*3+1], rest.Positions[i*3+2]}
		d := p.Sub(anchor).Len()
		if d < 1.0-1e-4 || d > 2.5+1e-4 {
			t.Fatalf("particle %d at distance %f outside [1, 2.5]", i, d)
		}
		s := rest.Sizes[i]
		if s < 0.005 || s > 0.02 {
			t.Fatalf("particle %d size %f outside [0.005, 0.02]", i, s)
		}
	}
}

func TestGradientBreakpoints(t *testing.T) {
	cases := []struct {
		t    float32
		want [3]float32
	}{
		{0, [3]float32{0, 0.1, 0.8}},
		{0.5, [3]float32{0, 0.9, 1.0}},
		{1, [3]float32{1, 1, 1}},
		{3, [3]float32{1, 1, 1}},
	}
	for _, c := range cases {
		got := GradientColor(c.t)
		for k := 0; k < 3; k++ {
			assert.InDelta(t, c.want[k], got[k], 1e-5, "t=%v channel %d", c.t, k)
		}
	}
}

func TestGradientMonotonic(t *testing.T) {
	prev := GradientColor(0)
	for i := 1; i <= 100; i++ {
		c := GradientColor(float32(i) / 100)
		for k := 0; k < 3; k++ {
			assert.GreaterOrEqual(t, c[k]+1e-6, prev[k], "channel %d decreased at step %d", k, i)
		}
		prev = c
	}
}

func TestAdvanceReplayIsIdempotent(t *testing.T) {
	a := newField(t, 500)
	b := newField(t, 500)

	// a steps through many small frames, b jumps straight to the end.
	for i := 0; i < 600; i++ {
		a.Advance(1.0 / 60)
	}
	direct := core.NewPoints(b.Count())
	b.EvaluateAt(a.Clock(), direct)

	live := a.Points()
	for i := range direct.Positions {
		assert.InDelta(t, direct.Positions[i], live.Positions[i], 1e-5)
		assert.InDelta(t, direct.Colors[i], live.Colors[i], 1e-5)
	}
	for i := range direct.Sizes {
		assert.InDelta(t, direct.Sizes[i], live.Sizes[i], 1e-6)
	}
}

func TestRestSnapshotIsImmutable(t *testing.T) {
	f := newField(t, 200)
	before := f.Rest()

	for i := 0; i < 120; i++ {
		f.Advance(1.0 / 30)
	}

	// Mutating a returned copy must not leak into the field.
	leaked := f.Rest()
	leaked.Positions[0] = 999

	assert.Equal(t, before, f.Rest())
}

func TestLiveAttributesStayNearRest(t *testing.T) {
	f := newField(t, 300)
	rest := f.Rest()
	f.Advance(17)

	live := f.Points()
	for i := 0; i < f.Count(); i++ {
		for k := 0; k < 3; k++ {
			d := live.Positions[i*3+k] - rest.Positions[i*3+k]
			assert.LessOrEqual(t, d*d, float32(0.02*0.8*0.02*0.8)+1e-9)
		}
		ratio := live.Sizes[i] / rest.Sizes[i]
		assert.InDelta(t, 1.0, ratio, 0.2+1e-5)
	}
}

func TestNodeCarriesAdditiveMaterial(t *testing.T) {
	f := newField(t, 10)
	n := f.Node()
	require.Same(t, n, f.Node())
	assert.Equal(t, core.BlendAdditive, n.Material.Blending)
	assert.False(t, n.Material.DepthWrite)
	assert.InDelta(t, 0.7, n.Material.Opacity, 1e-6)
	require.NotNil(t, n.Material.Map)
	w, h := n.Material.Map.Size()
	assert.Equal(t, 64, w)
	assert.Equal(t, 64, h)

	n.Dispose()
	assert.True(t, f.Points().Disposed())
}

func TestSpriteFadesToTransparentRim(t *testing.T) {
	img := Sprite(64)
	center := img.NRGBAAt(32, 32)
	corner := img.NRGBAAt(0, 0)
	assert.Greater(t, center.A, uint8(180))
	assert.Equal(t, uint8(0), corner.A)
}

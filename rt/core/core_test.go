package core

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func closeEnough(a, b, eps float32) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= eps
}

func TestTransformComposition(t *testing.T) {
	tr := NewTransform()
	tr.Position = mgl32.Vec3{0, 1.8, 0}
	tr.SetUniformScale(0.035)
	tr.SetEuler(0.3, -0.2, 0)

	identity := tr.ObjectToWorld().Mul4(tr.WorldToObject())

	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			want := float32(0)
			if i == j {
				want = 1
			}
			if !closeEnough(identity.At(i, j), want, 0.001) {
				t.Errorf("Identity matrix element [%d,%d] should be %f, got %f", i, j, want, identity.At(i, j))
			}
		}
	}
}

func TestNodeHierarchy(t *testing.T) {
	root := NewNode("root")
	a := NewNode("a")
	b := NewNode("b")
	root.Add(a)
	a.Add(b)

	root.Transform.Position = mgl32.Vec3{1, 0, 0}
	b.Transform.Position = mgl32.Vec3{0, 2, 0}

	world := b.WorldMatrix().Mul4x1(mgl32.Vec4{0, 0, 0, 1}).Vec3()
	assert.InDelta(t, 1.0, world.X(), 1e-5)
	assert.InDelta(t, 2.0, world.Y(), 1e-5)

	// Re-parenting detaches from the previous parent.
	root.Add(b)
	assert.Empty(t, a.Children())
	assert.Equal(t, root, b.Parent())

	var visited []string
	root.Traverse(func(n *Node) bool {
		visited = append(visited, n.Name)
		return true
	})
	assert.Equal(t, []string{"root", "a", "b"}, visited)
}

func TestResourceDisposeRunsHooksOnce(t *testing.T) {
	m := NewMesh(nil, nil, nil)
	calls := 0
	m.OnDispose(func() { calls++ })

	m.Dispose()
	m.Dispose()
	assert.Equal(t, 1, calls)

	// Hooks registered after dispose run immediately.
	m.OnDispose(func() { calls++ })
	assert.Equal(t, 2, calls)
}

func TestSceneDisposeReleasesSubtree(t *testing.T) {
	scene := NewScene()
	node := NewNode("mesh")
	node.Geometry = NewMesh(nil, nil, nil)
	node.Material = DefaultMaterial()
	node.Material.Map = NewTexture(nil)
	scene.Add(node)
	scene.SetEnvironment(NewEnvironment("env", 1, 1, make([]float32, 4)))

	require.False(t, scene.Empty())
	scene.Dispose()

	assert.True(t, node.Geometry.Disposed())
	assert.True(t, node.Material.Disposed())
	assert.True(t, node.Material.Map.Disposed())
	assert.True(t, scene.Environment.Disposed())
}

func TestSetEnvironmentTagsReflectiveMaterials(t *testing.T) {
	scene := NewScene()
	node := NewNode("mesh")
	node.Geometry = NewMesh(nil, nil, nil)
	node.Material = DefaultMaterial()
	node.Material.MakeReflective(0.9, 0.1)
	scene.Add(node)

	before := node.Material.Version()
	first := NewEnvironment("a", 1, 1, make([]float32, 4))
	scene.SetEnvironment(first)
	assert.Greater(t, node.Material.Version(), before)

	scene.SetEnvironment(NewEnvironment("b", 1, 1, make([]float32, 4)))
	assert.True(t, first.Disposed(), "replaced environment must be released")
}

func TestCameraAspectGuard(t *testing.T) {
	cam := NewPerspectiveCamera(45, 1.5, 0.1, 100)
	assert.False(t, cam.SetAspect(0))
	assert.Equal(t, float32(1.5), cam.Aspect)
	assert.True(t, cam.SetAspect(2))
	assert.Equal(t, float32(2), cam.Aspect)

	cam.Position = mgl32.Vec3{0, 1.3, 3}
	cam.LookAt(mgl32.Vec3{0, 1.3, 0})
	right, up := cam.Basis()
	assert.InDelta(t, 1.0, right.X(), 1e-5)
	assert.InDelta(t, 1.0, up.Y(), 1e-5)
}

func TestViewportDeviceSize(t *testing.T) {
	v := Viewport{Width: 300, Height: 200, PixelRatio: 2}
	w, h := v.DeviceSize()
	assert.Equal(t, 600, w)
	assert.Equal(t, 400, h)
	assert.InDelta(t, 1.5, v.Aspect(), 1e-6)
	assert.False(t, Viewport{Width: 0, Height: 10}.Valid())
}

package core

// Geometry is the drawable payload of a Node.
type Geometry interface {
	Version() uint64
	MarkDirty()
	OnDispose(fn func())
	Dispose()
	Disposed() bool
}

// Mesh is an indexed triangle list with per-vertex normals.
type Mesh struct {
	Resource
	Positions [][3]float32
	Normals   [][3]float32
	Indices   []uint32
}

func NewMesh(positions, normals [][3]float32, indices []uint32) *Mesh {
	m := &Mesh{Positions: positions, Normals: normals, Indices: indices}
	m.MarkDirty()
	return m
}

func (m *Mesh) VertexCount() int { return len(m.Positions) }

// Points is a point cloud with per-point color and size attributes.
// The slices are flat: 3 floats per position and color, 1 per size.
type Points struct {
	Resource
	Positions []float32
	Colors    []float32
	Sizes     []float32
}

func NewPoints(count int) *Points {
	p := &Points{
		Positions: make([]float32, count*3),
		Colors:    make([]float32, count*3),
		Sizes:     make([]float32, count),
	}
	p.MarkDirty()
	return p
}

func (p *Points) Count() int { return len(p.Sizes) }

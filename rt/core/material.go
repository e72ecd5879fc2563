package core

type BlendMode uint32

const (
	BlendNormal BlendMode = iota
	BlendAdditive
)

type Material struct {
	Resource
	Name      string
	BaseColor [4]float32 // RGBA
	Emissive  [3]float32
	Roughness float32
	Metalness float32
	Opacity   float32

	// Reflective materials sample the scene environment when one is present.
	Reflective bool

	// Point rendering. Size scales the per-point size attribute.
	Blending        BlendMode
	DepthWrite      bool
	Size            float32
	SizeAttenuation bool
	Map             *Texture
}

func NewMaterial(baseColor [4]float32) *Material {
	m := &Material{
		BaseColor:  baseColor,
		Roughness:  1.0,
		Metalness:  0.0,
		Opacity:    1.0,
		DepthWrite: true,
	}
	m.MarkDirty()
	return m
}

// Helper for default white
func DefaultMaterial() *Material {
	return NewMaterial([4]float32{1, 1, 1, 1})
}

// MakeReflective reconfigures the material for strong, sharp reflections and
// tags it for GPU upload.
func (m *Material) MakeReflective(metalness, roughness float32) {
	m.Metalness = metalness
	m.Roughness = roughness
	m.Reflective = true
	m.MarkDirty()
}

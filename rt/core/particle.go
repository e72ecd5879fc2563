package core

// ParticleInstance matches the WGSL layout in points.wgsl
// struct ParticleInstance { vec3 pos; float size; vec4 color; }
type ParticleInstance struct {
	Pos   [3]float32
	Size  float32
	Color [4]float32
}

// Instances packs the live point attributes into GPU instance records.
// alpha is applied to every record.
func (p *Points) Instances(dst []ParticleInstance, alpha float32) []ParticleInstance {
	n := p.Count()
	if cap(dst) < n {
		dst = make([]ParticleInstance, n)
	}
	dst = dst[:n]
	for i := 0; i < n; i++ {
		dst[i] = ParticleInstance{
			Pos:   [3]float32{p.Positions[i*3], p.Positions[i*3+1], p.Positions[i*3+2]},
			Size:  p.Sizes[i],
			Color: [4]float32{p.Colors[i*3], p.Colors[i*3+1], p.Colors[i*3+2], alpha},
		}
	}
	return dst
}

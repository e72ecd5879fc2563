package particles

import (
	"math/rand"

	"github.com/chewxy/math32"
	"github.com/gekko3d/compass/rt/core"
	"github.com/go-gl/mathgl/mgl32"
)

// Options controls the shape of the field and its motion.
type Options struct {
	Count     int
	CubeSize  float32 // side of the sampling cube
	Reject    float32 // samples closer than this to the anchor are redrawn
	MinRadius float32
	MaxRadius float32
	SizeMin   float32
	SizeRange float32

	ClockRate    float32 // animation clock units per second
	Amplitude    float32 // positional wobble
	MaxMovement  float32 // cap on the distance-based amplitude scale
	ColorPulse   float32
	SizePulse    float32
	GradientSpan float32 // distance that maps to t = 1

	// SizeScale multiplies the per-point size attribute into world units.
	// The default puts the mean sprite at 0.03.
	SizeScale float32
	Opacity   float32
}

func DefaultOptions() Options {
	return Options{
		Count:        7500,
		CubeSize:     3,
		Reject:       0.1,
		MinRadius:    1.0,
		MaxRadius:    2.5,
		SizeMin:      0.005,
		SizeRange:    0.015,
		ClockRate:    0.006 * 60,
		Amplitude:    0.02,
		MaxMovement:  0.8,
		ColorPulse:   0.15,
		SizePulse:    0.2,
		GradientSpan: 2.5,
		SizeScale:    2.4,
		Opacity:      0.7,
	}
}

// Snapshot holds flat per-particle attributes: 3 floats per position and
// color, 1 per size.
type Snapshot struct {
	Positions []float32
	Colors    []float32
	Sizes     []float32
}

func (s Snapshot) clone() Snapshot {
	return Snapshot{
		Positions: append([]float32(nil), s.Positions...),
		Colors:    append([]float32(nil), s.Colors...),
		Sizes:     append([]float32(nil), s.Sizes...),
	}
}

// Field is a point cloud around an anchor. The rest snapshot is captured at
// generation and never written again; the live attributes in Points are
// recomputed from it on every Advance.
type Field struct {
	opts   Options
	anchor mgl32.Vec3
	rest   Snapshot
	scale  []float32 // per-particle movement scale, derived from rest

	clock  float32
	points *core.Points
	node   *core.Node
}

// Generate samples a spherical shell of particles around anchor.
func Generate(rng *rand.Rand, anchor mgl32.Vec3, opts Options) *Field {
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	n := opts.Count
	if n < 0 {
		n = 0
	}
	rest := Snapshot{
		Positions: make([]float32, n*3),
		Colors:    make([]float32, n*3),
		Sizes:     make([]float32, n),
	}
	scale := make([]float32, n)

	for i := 0; i < n; i++ {
		var dir mgl32.Vec3
		for {
			dir = mgl32.Vec3{
				(rng.Float32() - 0.5) * opts.CubeSize,
				(rng.Float32() - 0.5) * opts.CubeSize,
				(rng.Float32() - 0.5) * opts.CubeSize,
			}
			if dir.Len() >= opts.Reject {
				break
			}
		}
		radius := opts.MinRadius + rng.Float32()*(opts.MaxRadius-opts.MinRadius)
		offset := dir.Normalize().Mul(radius)
		p := anchor.Add(offset)
		rest.Positions[i*3+0] = p.X()
		rest.Positions[i*3+1] = p.Y()
		rest.Positions[i*3+2] = p.Z()

		dist := offset.Len()
		c := GradientColor(math32.Min(dist/opts.GradientSpan, 1))
		copy(rest.Colors[i*3:i*3+3], c[:])

		rest.Sizes[i] = rng.Float32()*opts.SizeRange + opts.SizeMin
		scale[i] = math32.Min(dist/2, opts.MaxMovement)
	}

	f := &Field{
		opts:   opts,
		anchor: anchor,
		rest:   rest,
		scale:  scale,
		points: core.NewPoints(n),
	}
	f.evaluate(f.points, 0)
	return f
}

func (f *Field) Count() int           { return len(f.rest.Sizes) }
func (f *Field) Anchor() mgl32.Vec3   { return f.anchor }
func (f *Field) Clock() float32       { return f.clock }
func (f *Field) Points() *core.Points { return f.points }
func (f *Field) Options() Options     { return f.opts }

// Rest returns a copy of the rest snapshot.
func (f *Field) Rest() Snapshot { return f.rest.clone() }

// Advance moves the animation clock by dt seconds and recomputes the live
// attributes.
func (f *Field) Advance(dt float32) {
	if dt > 0 {
		f.clock += dt * f.opts.ClockRate
	}
	f.evaluate(f.points, f.clock)
	f.points.MarkDirty()
}

// EvaluateAt writes the attributes for clock value t into dst without
// touching the field. It is a pure function of the rest snapshot, t and the
// particle index.
func (f *Field) EvaluateAt(t float32, dst *core.Points) {
	f.evaluate(dst, t)
}

func (f *Field) evaluate(dst *core.Points, t float32) {
	amp := f.opts.Amplitude
	for i := range f.rest.Sizes {
		fi := float32(i)
		s := f.scale[i] * amp
		j := i * 3

		dst.Positions[j+0] = f.rest.Positions[j+0] + math32.Sin(t+fi*0.21)*s
		dst.Positions[j+1] = f.rest.Positions[j+1] + math32.Cos(t*0.8+fi*0.37)*s
		dst.Positions[j+2] = f.rest.Positions[j+2] + math32.Sin(t*1.2+fi*0.16)*s

		colorPulse := math32.Sin(t*2+fi*0.1)*f.opts.ColorPulse + 0.9
		dst.Colors[j+0] = f.rest.Colors[j+0] * colorPulse
		dst.Colors[j+1] = f.rest.Colors[j+1] * colorPulse
		dst.Colors[j+2] = f.rest.Colors[j+2] * colorPulse

		sizePulse := math32.Sin(t*3+fi*0.2)*f.opts.SizePulse + 1
		dst.Sizes[i] = f.rest.Sizes[i] * sizePulse
	}
}

// Node wraps the live points in a scene node with the additive sprite
// material. The node is created once and owns the points and material.
func (f *Field) Node() *core.Node {
	if f.node != nil {
		return f.node
	}
	mat := core.NewMaterial([4]float32{1, 1, 1, f.opts.Opacity})
	mat.Name = "particles"
	mat.Opacity = f.opts.Opacity
	mat.Blending = core.BlendAdditive
	mat.DepthWrite = false
	mat.Size = f.opts.SizeScale
	mat.SizeAttenuation = true
	mat.Map = core.NewTexture(Sprite(64))

	n := core.NewNode("particles")
	n.Geometry = f.points
	n.Material = mat
	f.node = n
	return n
}

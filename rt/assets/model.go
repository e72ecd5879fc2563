package assets

import (
	"context"
	"fmt"
	"io/fs"

	"github.com/gekko3d/compass/rt/core"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// ModelOptions controls how decoded materials are set up.
type ModelOptions struct {
	Metalness float32
	Roughness float32
}

func DefaultModelOptions() ModelOptions {
	return ModelOptions{Metalness: 0.9, Roughness: 0.1}
}

// LoadModel decodes a glTF or GLB file from fsys into a node tree. Every mesh
// material is made reflective. Decoding is all or nothing: on failure no
// partial tree is returned and everything built so far is disposed.
func LoadModel(ctx context.Context, fsys fs.FS, path string, opts ModelOptions) (*core.Node, error) {
	root, err := loadModel(ctx, fsys, path, opts)
	if err != nil {
		return nil, &LoadError{Kind: "model", Path: path, Err: err}
	}
	return root, nil
}

func loadModel(ctx context.Context, fsys fs.FS, path string, opts ModelOptions) (*core.Node, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc := new(gltf.Document)
	if err := gltf.NewDecoderFS(f, fsys).Decode(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelDecode, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b := modelBuilder{ctx: ctx, doc: doc, opts: opts, materials: make(map[int]*core.Material)}
	root := core.NewNode(path)
	if err := b.buildScene(root); err != nil {
		root.Dispose()
		return nil, err
	}
	if len(root.Meshes()) == 0 {
		return nil, fmt.Errorf("%w: no meshes", ErrModelDecode)
	}
	return root, nil
}

type modelBuilder struct {
	ctx       context.Context
	doc       *gltf.Document
	opts      ModelOptions
	materials map[int]*core.Material
}

func (b *modelBuilder) buildScene(root *core.Node) error {
	var nodes []int
	switch {
	case b.doc.Scene != nil && *b.doc.Scene < len(b.doc.Scenes):
		nodes = b.doc.Scenes[*b.doc.Scene].Nodes
	case len(b.doc.Scenes) > 0:
		nodes = b.doc.Scenes[0].Nodes
	default:
		// No scene: treat every mesh as a root.
		for i := range b.doc.Meshes {
			n := core.NewNode(b.doc.Meshes[i].Name)
			if err := b.attachMesh(n, i); err != nil {
				return err
			}
			root.Add(n)
		}
		return nil
	}
	for _, idx := range nodes {
		if err := b.buildNode(root, idx, 0); err != nil {
			return err
		}
	}
	return nil
}

func (b *modelBuilder) buildNode(parent *core.Node, idx int, depth int) error {
	if idx < 0 || idx >= len(b.doc.Nodes) {
		return fmt.Errorf("%w: node index %d out of range", ErrModelDecode, idx)
	}
	if depth > 64 {
		return fmt.Errorf("%w: node hierarchy too deep", ErrModelDecode)
	}
	if err := b.ctx.Err(); err != nil {
		return err
	}
	src := b.doc.Nodes[idx]
	n := core.NewNode(src.Name)
	applyNodeTransform(&n.Transform, src)
	parent.Add(n)

	if src.Mesh != nil {
		if err := b.attachMesh(n, *src.Mesh); err != nil {
			return err
		}
	}
	for _, c := range src.Children {
		if err := b.buildNode(n, c, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func applyNodeTransform(t *core.Transform, src *gltf.Node) {
	tr := src.TranslationOrDefault()
	rot := src.RotationOrDefault()
	sc := src.ScaleOrDefault()
	t.Position = mgl32.Vec3{float32(tr[0]), float32(tr[1]), float32(tr[2])}
	t.Rotation = mgl32.Quat{W: float32(rot[3]), V: mgl32.Vec3{float32(rot[0]), float32(rot[1]), float32(rot[2])}}
	t.Scale = mgl32.Vec3{float32(sc[0]), float32(sc[1]), float32(sc[2])}
}

// attachMesh adds one child per triangle primitive of mesh idx under n.
func (b *modelBuilder) attachMesh(n *core.Node, idx int) error {
	if idx < 0 || idx >= len(b.doc.Meshes) {
		return fmt.Errorf("%w: mesh index %d out of range", ErrModelDecode, idx)
	}
	mesh := b.doc.Meshes[idx]
	for pi, prim := range mesh.Primitives {
		if prim.Mode != gltf.PrimitiveTriangles {
			continue
		}
		geom, err := b.readPrimitive(prim)
		if err != nil {
			return fmt.Errorf("%w: mesh %q primitive %d: %v", ErrModelDecode, mesh.Name, pi, err)
		}
		child := core.NewNode(fmt.Sprintf("%s#%d", mesh.Name, pi))
		child.Geometry = geom
		child.Material = b.material(prim.Material)
		n.Add(child)
	}
	return nil
}

func (b *modelBuilder) readPrimitive(prim *gltf.Primitive) (*core.Mesh, error) {
	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok || posIdx >= len(b.doc.Accessors) {
		return nil, fmt.Errorf("missing POSITION")
	}
	positions, err := modeler.ReadPosition(b.doc, b.doc.Accessors[posIdx], nil)
	if err != nil {
		return nil, err
	}

	var indices []uint32
	if prim.Indices != nil {
		if *prim.Indices >= len(b.doc.Accessors) {
			return nil, fmt.Errorf("indices accessor %d out of range", *prim.Indices)
		}
		indices, err = modeler.ReadIndices(b.doc, b.doc.Accessors[*prim.Indices], nil)
		if err != nil {
			return nil, err
		}
	} else {
		indices = make([]uint32, len(positions))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}
	for _, ix := range indices {
		if int(ix) >= len(positions) {
			return nil, fmt.Errorf("index %d out of range", ix)
		}
	}

	var normals [][3]float32
	if nIdx, ok := prim.Attributes[gltf.NORMAL]; ok && nIdx < len(b.doc.Accessors) {
		normals, err = modeler.ReadNormal(b.doc, b.doc.Accessors[nIdx], nil)
		if err != nil {
			return nil, err
		}
	}
	if len(normals) != len(positions) {
		normals = ComputeNormals(positions, indices)
	}
	return core.NewMesh(positions, normals, indices), nil
}

// material returns the shared reflective material for a glTF material
// index. Primitives without one get a default white material.
func (b *modelBuilder) material(idx *int) *core.Material {
	key := -1
	if idx != nil {
		key = *idx
	}
	if m, ok := b.materials[key]; ok {
		return m
	}

	m := core.DefaultMaterial()
	if key >= 0 && key < len(b.doc.Materials) {
		src := b.doc.Materials[key]
		m.Name = src.Name
		if pbr := src.PBRMetallicRoughness; pbr != nil && pbr.BaseColorFactor != nil {
			c := pbr.BaseColorFactor
			m.BaseColor = [4]float32{float32(c[0]), float32(c[1]), float32(c[2]), float32(c[3])}
		}
		if src.EmissiveFactor != [3]float64{} {
			e := src.EmissiveFactor
			m.Emissive = [3]float32{float32(e[0]), float32(e[1]), float32(e[2])}
		}
	}
	m.MakeReflective(b.opts.Metalness, b.opts.Roughness)
	b.materials[key] = m
	return m
}

// ComputeNormals returns area-weighted smooth vertex normals.
func ComputeNormals(positions [][3]float32, indices []uint32) [][3]float32 {
	acc := make([]mgl32.Vec3, len(positions))
	for i := 0; i+2 < len(indices); i += 3 {
		a, b, c := indices[i], indices[i+1], indices[i+2]
		pa, pb, pc := mgl32.Vec3(positions[a]), mgl32.Vec3(positions[b]), mgl32.Vec3(positions[c])
		n := pb.Sub(pa).Cross(pc.Sub(pa))
		acc[a] = acc[a].Add(n)
		acc[b] = acc[b].Add(n)
		acc[c] = acc[c].Add(n)
	}
	out := make([][3]float32, len(positions))
	for i, n := range acc {
		if n.Len() > 0 {
			n = n.Normalize()
		} else {
			n = mgl32.Vec3{0, 1, 0}
		}
		out[i] = [3]float32(n)
	}
	return out
}

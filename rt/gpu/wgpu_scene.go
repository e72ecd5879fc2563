package gpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/compass/rt/core"
	"github.com/gekko3d/compass/rt/shaders"
	"github.com/go-gl/mathgl/mgl32"
)

const depthFormat = wgpu.TextureFormatDepth24Plus

// meshUniforms matches MeshUniforms in mesh.wgsl.
type meshUniforms struct {
	ViewProj   mgl32.Mat4
	Model      mgl32.Mat4
	Normal     mgl32.Mat4
	CameraPos  [4]float32
	LightDir   [4]float32
	LightColor [4]float32
	BaseColor  [4]float32
	Emissive   [4]float32
	Params     [4]float32
}

// pointsUniforms matches PointsUniforms in points.wgsl.
type pointsUniforms struct {
	ViewProj mgl32.Mat4
	Right    [4]float32
	Up       [4]float32
}

type gpuTexture struct {
	tex     *wgpu.Texture
	view    *wgpu.TextureView
	version uint64
}

func (t *gpuTexture) Release() {
	t.view.Release()
	t.tex.Release()
}

type meshBuffers struct {
	vertex  *wgpu.Buffer
	index   *wgpu.Buffer
	count   uint32
	version uint64
}

func (b *meshBuffers) Release() {
	b.vertex.Release()
	b.index.Release()
}

type pointBuffers struct {
	instance *wgpu.Buffer
	capacity int
	count    uint32
	version  uint64
}

func (b *pointBuffers) Release() {
	if b.instance != nil {
		b.instance.Release()
	}
}

// sceneRenderer draws meshes and then points into one target. GPU copies of
// scene resources are cached per resource and dropped when it is disposed.
type sceneRenderer struct {
	dev *WGPUDevice

	meshPipeline   *wgpu.RenderPipeline
	meshLayout     *wgpu.BindGroupLayout
	pointsPipeline *wgpu.RenderPipeline
	pointsLayout   *wgpu.BindGroupLayout

	depthTex  *wgpu.Texture
	depthView *wgpu.TextureView
	depthW    int
	depthH    int

	blackEnv    *gpuTexture
	whiteSprite *gpuTexture

	meshes   map[*core.Mesh]*meshBuffers
	points   map[*core.Points]*pointBuffers
	textures map[*core.Texture]*gpuTexture
	envs     map[*core.Environment]*gpuTexture

	scratch []core.ParticleInstance
}

type meshDraw struct {
	buffers *meshBuffers
	bind    *wgpu.BindGroup
}

type pointsDraw struct {
	buffers *pointBuffers
	bind    *wgpu.BindGroup
}

func newSceneRenderer(d *WGPUDevice) (*sceneRenderer, error) {
	r := &sceneRenderer{
		dev:      d,
		meshes:   make(map[*core.Mesh]*meshBuffers),
		points:   make(map[*core.Points]*pointBuffers),
		textures: make(map[*core.Texture]*gpuTexture),
		envs:     make(map[*core.Environment]*gpuTexture),
	}
	if err := r.createPipelines(); err != nil {
		r.release()
		return nil, err
	}
	var err error
	r.blackEnv, err = r.uploadTexture("env fallback", 1, 1, wgpu.TextureFormatRGBA16Float, HalfFloatBytes([]float32{0, 0, 0, 1}), 8)
	if err != nil {
		r.release()
		return nil, err
	}
	r.whiteSprite, err = r.uploadTexture("sprite fallback", 1, 1, wgpu.TextureFormatRGBA8Unorm, []byte{255, 255, 255, 255}, 4)
	if err != nil {
		r.release()
		return nil, err
	}
	return r, nil
}

func (r *sceneRenderer) createPipelines() error {
	device := r.dev.device

	meshModule, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "Mesh",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.MeshWGSL},
	})
	if err != nil {
		return fmt.Errorf("mesh shader: %w", err)
	}
	defer meshModule.Release()

	r.meshPipeline, err = device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label: "Mesh",
		Vertex: wgpu.VertexState{
			Module:     meshModule,
			EntryPoint: "vs_main",
			Buffers: []wgpu.VertexBufferLayout{{
				ArrayStride: 24,
				StepMode:    wgpu.VertexStepModeVertex,
				Attributes: []wgpu.VertexAttribute{
					{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
					{Format: wgpu.VertexFormatFloat32x3, Offset: 12, ShaderLocation: 1},
				},
			}},
		},
		Fragment: &wgpu.FragmentState{
			Module:     meshModule,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{{
				Format:    TargetFormat,
				WriteMask: wgpu.ColorWriteMaskAll,
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            depthFormat,
			DepthWriteEnabled: true,
			DepthCompare:      wgpu.CompareFunctionLess,
			StencilFront:      wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
			StencilBack:       wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
		},
		Multisample: wgpu.MultisampleState{Count: 1, Mask: 0xFFFFFFFF},
	})
	if err != nil {
		return fmt.Errorf("mesh pipeline: %w", err)
	}
	r.meshLayout = r.meshPipeline.GetBindGroupLayout(0)

	pointsModule, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "Points",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.PointsWGSL},
	})
	if err != nil {
		return fmt.Errorf("points shader: %w", err)
	}
	defer pointsModule.Release()

	r.pointsPipeline, err = device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label: "Points",
		Vertex: wgpu.VertexState{
			Module:     pointsModule,
			EntryPoint: "vs_main",
			Buffers: []wgpu.VertexBufferLayout{{
				ArrayStride: 32,
				StepMode:    wgpu.VertexStepModeInstance,
				Attributes: []wgpu.VertexAttribute{
					{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
					{Format: wgpu.VertexFormatFloat32, Offset: 12, ShaderLocation: 1},
					{Format: wgpu.VertexFormatFloat32x4, Offset: 16, ShaderLocation: 2},
				},
			}},
		},
		Fragment: &wgpu.FragmentState{
			Module:     pointsModule,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{{
				Format:    TargetFormat,
				WriteMask: wgpu.ColorWriteMaskAll,
				Blend: &wgpu.BlendState{
					Color: wgpu.BlendComponent{
						Operation: wgpu.BlendOperationAdd,
						SrcFactor: wgpu.BlendFactorSrcAlpha,
						DstFactor: wgpu.BlendFactorOne,
					},
					Alpha: wgpu.BlendComponent{
						Operation: wgpu.BlendOperationAdd,
						SrcFactor: wgpu.BlendFactorOne,
						DstFactor: wgpu.BlendFactorOne,
					},
				},
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology: wgpu.PrimitiveTopologyTriangleList,
			CullMode: wgpu.CullModeNone,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            depthFormat,
			DepthWriteEnabled: false,
			DepthCompare:      wgpu.CompareFunctionLess,
			StencilFront:      wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
			StencilBack:       wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
		},
		Multisample: wgpu.MultisampleState{Count: 1, Mask: 0xFFFFFFFF},
	})
	if err != nil {
		return fmt.Errorf("points pipeline: %w", err)
	}
	r.pointsLayout = r.pointsPipeline.GetBindGroupLayout(0)
	return nil
}

func (r *sceneRenderer) ensureDepth(w, h int) error {
	if r.depthTex != nil && r.depthW == w && r.depthH == h {
		return nil
	}
	if r.depthTex != nil {
		r.depthView.Release()
		r.depthTex.Release()
		r.depthTex, r.depthView = nil, nil
	}
	tex, err := r.dev.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "Scene depth",
		Size:          wgpu.Extent3D{Width: uint32(w), Height: uint32(h), DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        depthFormat,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		return err
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return err
	}
	r.depthTex, r.depthView, r.depthW, r.depthH = tex, view, w, h
	return nil
}

func (r *sceneRenderer) uploadTexture(label string, w, h int, format wgpu.TextureFormat, data []byte, bytesPerPixel int) (*gpuTexture, error) {
	extent := wgpu.Extent3D{Width: uint32(w), Height: uint32(h), DepthOrArrayLayers: 1}
	tex, err := r.dev.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         label,
		Size:          extent,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        format,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, err
	}
	err = r.dev.queue.WriteTexture(tex.AsImageCopy(), data, &wgpu.TextureDataLayout{
		Offset:       0,
		BytesPerRow:  uint32(w * bytesPerPixel),
		RowsPerImage: uint32(h),
	}, &extent)
	if err != nil {
		tex.Release()
		return nil, err
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, err
	}
	return &gpuTexture{tex: tex, view: view}, nil
}

func (r *sceneRenderer) environment(env *core.Environment) (*gpuTexture, bool, error) {
	if env == nil || env.Disposed() || env.Width == 0 || env.Height == 0 {
		return r.blackEnv, false, nil
	}
	cached, ok := r.envs[env]
	if ok && cached.version == env.Version() {
		return cached, true, nil
	}
	uploaded, err := r.uploadTexture("Environment "+env.Source, env.Width, env.Height,
		wgpu.TextureFormatRGBA16Float, HalfFloatBytes(env.Texels), 8)
	if err != nil {
		return nil, false, err
	}
	uploaded.version = env.Version()
	if ok {
		cached.Release()
	} else {
		env.OnDispose(func() { r.forgetEnvironment(env) })
	}
	r.envs[env] = uploaded
	return uploaded, true, nil
}

func (r *sceneRenderer) forgetEnvironment(env *core.Environment) {
	if t, ok := r.envs[env]; ok {
		t.Release()
		delete(r.envs, env)
	}
}

func (r *sceneRenderer) sprite(tex *core.Texture) (*gpuTexture, error) {
	if tex == nil || tex.Image == nil || tex.Disposed() {
		return r.whiteSprite, nil
	}
	cached, ok := r.textures[tex]
	if ok && cached.version == tex.Version() {
		return cached, nil
	}
	w, h := tex.Size()
	img := tex.Image
	data := img.Pix
	if img.Stride != w*4 {
		data = make([]byte, 0, w*h*4)
		for y := 0; y < h; y++ {
			off := y * img.Stride
			data = append(data, img.Pix[off:off+w*4]...)
		}
	}
	uploaded, err := r.uploadTexture("Sprite", w, h, wgpu.TextureFormatRGBA8Unorm, data, 4)
	if err != nil {
		return nil, err
	}
	uploaded.version = tex.Version()
	if ok {
		cached.Release()
	} else {
		tex.OnDispose(func() {
			if t, ok := r.textures[tex]; ok {
				t.Release()
				delete(r.textures, tex)
			}
		})
	}
	r.textures[tex] = uploaded
	return uploaded, nil
}

func (r *sceneRenderer) mesh(m *core.Mesh) (*meshBuffers, error) {
	cached, ok := r.meshes[m]
	if ok && cached.version == m.Version() {
		return cached, nil
	}
	vertices := make([]float32, 0, len(m.Positions)*6)
	for i, p := range m.Positions {
		n := [3]float32{0, 1, 0}
		if i < len(m.Normals) {
			n = m.Normals[i]
		}
		vertices = append(vertices, p[0], p[1], p[2], n[0], n[1], n[2])
	}
	vb, err := r.dev.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "Mesh vertices",
		Contents: wgpu.ToBytes(vertices),
		Usage:    wgpu.BufferUsageVertex,
	})
	if err != nil {
		return nil, err
	}
	ib, err := r.dev.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "Mesh indices",
		Contents: wgpu.ToBytes(m.Indices),
		Usage:    wgpu.BufferUsageIndex,
	})
	if err != nil {
		vb.Release()
		return nil, err
	}
	b := &meshBuffers{vertex: vb, index: ib, count: uint32(len(m.Indices)), version: m.Version()}
	if ok {
		cached.Release()
	} else {
		m.OnDispose(func() {
			if b, ok := r.meshes[m]; ok {
				b.Release()
				delete(r.meshes, m)
			}
		})
	}
	r.meshes[m] = b
	return b, nil
}

func (r *sceneRenderer) pointCloud(p *core.Points, alpha float32) (*pointBuffers, error) {
	b, ok := r.points[p]
	if !ok {
		b = &pointBuffers{}
		r.points[p] = b
		p.OnDispose(func() {
			if b, ok := r.points[p]; ok {
				b.Release()
				delete(r.points, p)
			}
		})
	}
	if b.instance != nil && b.version == p.Version() {
		return b, nil
	}
	r.scratch = p.Instances(r.scratch, alpha)
	if b.capacity < len(r.scratch) {
		b.Release()
		buf, err := r.dev.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: "Particle instances",
			Size:  uint64(len(r.scratch) * 32),
			Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			b.instance = nil
			b.capacity = 0
			return nil, err
		}
		b.instance = buf
		b.capacity = len(r.scratch)
	}
	if err := r.dev.queue.WriteBuffer(b.instance, 0, wgpu.ToBytes(r.scratch)); err != nil {
		return nil, err
	}
	b.count = uint32(len(r.scratch))
	b.version = p.Version()
	return b, nil
}

func (r *sceneRenderer) bindGroup(f *wgpuFrame, label string, layout *wgpu.BindGroupLayout, uniforms []byte, sampler *wgpu.Sampler, view *wgpu.TextureView) (*wgpu.BindGroup, error) {
	buf, err := r.dev.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    label + " uniforms",
		Contents: uniforms,
		Usage:    wgpu.BufferUsageUniform,
	})
	if err != nil {
		return nil, err
	}
	f.keep(buf)
	bg, err := r.dev.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  label,
		Layout: layout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: buf, Size: uint64(len(uniforms))},
			{Binding: 1, Sampler: sampler},
			{Binding: 2, TextureView: view},
		},
	})
	if err != nil {
		return nil, err
	}
	f.keep(bg)
	return bg, nil
}

func (r *sceneRenderer) render(f *wgpuFrame, out *wgpuTarget, scene *core.Scene, cam *core.PerspectiveCamera) error {
	if scene == nil || cam == nil {
		return fmt.Errorf("render scene: missing scene or camera")
	}
	if err := r.ensureDepth(out.width, out.height); err != nil {
		return err
	}
	env, hasEnv, err := r.environment(scene.Environment)
	if err != nil {
		return err
	}

	viewProj := cam.ViewProjection()
	right, up := cam.Basis()
	var lightDir, lightColor [4]float32
	if l := scene.Light; l != nil {
		d := l.Direction()
		lightDir = [4]float32{d.X(), d.Y(), d.Z(), l.Intensity}
		lightColor = [4]float32{l.Color[0], l.Color[1], l.Color[2], 1}
	}
	envFlag := float32(0)
	if hasEnv {
		envFlag = 1
	}

	var meshes []meshDraw
	var clouds []pointsDraw
	var walkErr error
	scene.Root.Traverse(func(n *core.Node) bool {
		if walkErr != nil || !n.Visible {
			return false
		}
		mat := n.Material
		if mat == nil {
			mat = core.DefaultMaterial()
		}
		switch g := n.Geometry.(type) {
		case *core.Mesh:
			if g.Disposed() || len(g.Indices) == 0 {
				return true
			}
			b, err := r.mesh(g)
			if err != nil {
				walkErr = err
				return false
			}
			model := n.WorldMatrix()
			flag := float32(0)
			if mat.Reflective {
				flag = envFlag
			}
			u := meshUniforms{
				ViewProj:   viewProj,
				Model:      model,
				Normal:     model.Inv().Transpose(),
				CameraPos:  [4]float32{cam.Position.X(), cam.Position.Y(), cam.Position.Z(), 1},
				LightDir:   lightDir,
				LightColor: lightColor,
				BaseColor:  mat.BaseColor,
				Emissive:   [4]float32{mat.Emissive[0], mat.Emissive[1], mat.Emissive[2], 0},
				Params:     [4]float32{mat.Metalness, mat.Roughness, flag, scene.Exposure},
			}
			bg, err := r.bindGroup(f, "Mesh "+n.Name, r.meshLayout, MustPackUniforms(u), r.dev.envSampler, env.view)
			if err != nil {
				walkErr = err
				return false
			}
			meshes = append(meshes, meshDraw{buffers: b, bind: bg})
		case *core.Points:
			if g.Disposed() || g.Count() == 0 {
				return true
			}
			b, err := r.pointCloud(g, 1)
			if err != nil {
				walkErr = err
				return false
			}
			sprite, err := r.sprite(mat.Map)
			if err != nil {
				walkErr = err
				return false
			}
			size := mat.Size
			if size <= 0 {
				size = 1
			}
			u := pointsUniforms{
				ViewProj: viewProj.Mul4(n.WorldMatrix()),
				Right:    [4]float32{right.X(), right.Y(), right.Z(), size},
				Up:       [4]float32{up.X(), up.Y(), up.Z(), mat.Opacity},
			}
			bg, err := r.bindGroup(f, "Points "+n.Name, r.pointsLayout, MustPackUniforms(u), r.dev.clampSampler, sprite.view)
			if err != nil {
				walkErr = err
				return false
			}
			clouds = append(clouds, pointsDraw{buffers: b, bind: bg})
		}
		return true
	})
	if walkErr != nil {
		return walkErr
	}

	pass := f.encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       out.view,
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: wgpu.Color{R: 0, G: 0, B: 0, A: 0},
		}},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            r.depthView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: 1,
		},
	})
	if len(meshes) > 0 {
		pass.SetPipeline(r.meshPipeline)
		for _, d := range meshes {
			pass.SetBindGroup(0, d.bind, nil)
			pass.SetVertexBuffer(0, d.buffers.vertex, 0, d.buffers.vertex.GetSize())
			pass.SetIndexBuffer(d.buffers.index, wgpu.IndexFormatUint32, 0, d.buffers.index.GetSize())
			pass.DrawIndexed(d.buffers.count, 1, 0, 0, 0)
		}
	}
	if len(clouds) > 0 {
		pass.SetPipeline(r.pointsPipeline)
		for _, d := range clouds {
			pass.SetBindGroup(0, d.bind, nil)
			pass.SetVertexBuffer(0, d.buffers.instance, 0, uint64(d.buffers.count)*32)
			pass.Draw(6, d.buffers.count, 0, 0)
		}
	}
	if err := pass.End(); err != nil {
		return fmt.Errorf("scene pass: %w", err)
	}
	return nil
}

func (r *sceneRenderer) release() {
	for m, b := range r.meshes {
		b.Release()
		delete(r.meshes, m)
	}
	for p, b := range r.points {
		b.Release()
		delete(r.points, p)
	}
	for t, g := range r.textures {
		g.Release()
		delete(r.textures, t)
	}
	for e, g := range r.envs {
		g.Release()
		delete(r.envs, e)
	}
	if r.blackEnv != nil {
		r.blackEnv.Release()
		r.blackEnv = nil
	}
	if r.whiteSprite != nil {
		r.whiteSprite.Release()
		r.whiteSprite = nil
	}
	if r.depthTex != nil {
		r.depthView.Release()
		r.depthTex.Release()
		r.depthTex = nil
	}
	if r.pointsLayout != nil {
		r.pointsLayout.Release()
	}
	if r.pointsPipeline != nil {
		r.pointsPipeline.Release()
	}
	if r.meshLayout != nil {
		r.meshLayout.Release()
	}
	if r.meshPipeline != nil {
		r.meshPipeline.Release()
	}
}

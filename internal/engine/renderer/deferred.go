// Package renderer draws a scene graph with a two-pass deferred lighting
// pipeline: a geometry pass fills a G-buffer and a fullscreen lighting pass
// shades it with every point light of the scene.
package renderer

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Faultbox/scenery/internal/engine/lighting"
	"github.com/Faultbox/scenery/internal/engine/scenegraph"
	"github.com/Faultbox/scenery/internal/engine/shader"
	"github.com/Faultbox/scenery/internal/logger"
)

// RendererName keys this renderer's node states and metadata.
const RendererName = "DeferredLightingRenderer"

// Default program stages.
const (
	DefaultVertexShader   = "DefaultDeferred.vert"
	DefaultFragmentShader = "DefaultDeferred.frag"
)

var lightingStages = []string{"Dummy.vert", "FullscreenQuadGenerator.geom", "DeferredLighting.frag"}

var (
	// ErrResourceInitialization marks a node whose GPU resources could not be
	// created. The node is skipped; rendering continues.
	ErrResourceInitialization = errors.New("resource initialization failed")
	// ErrMissingResourceState means a renderable node reached a pass without
	// a state. This is a structural error and aborts the frame.
	ErrMissingResourceState = errors.New("missing resource state")
	// ErrUniformNotFound is returned when a required uniform is not active in
	// a node's program. Only that node's draw is aborted.
	ErrUniformNotFound = errors.New("uniform not found")
)

// Fixed light block of the geometry pass.
var (
	geometryLightPosition = mgl32.Vec3{5, 5, 5}
	geometryLightAmbient  = mgl32.Vec3{0.4, 0.4, 0.4}
	geometryLightDiffuse  = mgl32.Vec3{1, 1, 0.8}
	geometryLightSpecular = mgl32.Vec3{0, 0, 0}
)

const materialShininess = 0.001

// G-buffer texture units of the lighting pass.
const (
	unitPosition = 0
	unitNormal   = 1
	unitAlbedo   = 2
	unitDepth    = 3
)

var lightUniforms [lighting.MaxPointLights][3]string

func init() {
	for i := range lightUniforms {
		lightUniforms[i] = [3]string{
			fmt.Sprintf("lights[%d].Position", i),
			fmt.Sprintf("lights[%d].Color", i),
			fmt.Sprintf("lights[%d].Intensity", i),
		}
	}
}

// Stats describes the last rendered frame.
type Stats struct {
	Drawn   int // nodes drawn in the geometry pass
	Skipped int // failed, uninitialized or aborted nodes
	Lights  int // lights uploaded to the lighting pass
}

// DeferredRenderer renders scenes through a G-buffer. All methods except the
// toggles must be called from the goroutine that owns the graphics context.
type DeferredRenderer struct {
	dev      Device
	shaders  ShaderLoader
	textures TextureLoader
	cfg      Config
	log      *zap.Logger

	registry *Registry
	uniforms *uniformCache
	lights   *lighting.PointLightBuffer

	gbuffer         GBuffer
	lightingProgram uint32
	emptyVAO        uint32

	// programs caches linked programs by joined stage names.
	programs      map[string]uint32
	programStages map[string][]string

	debug atomic.Bool
	ssao  atomic.Bool

	hooked map[*scenegraph.Scene]bool
	// owners maps states back to their nodes for metadata cleanup.
	owners map[uuid.UUID]*scenegraph.Node
	stats  Stats
	width  int32
	height int32
}

// NewDeferredRenderer creates the G-buffer and the lighting program.
// textures may be nil when no node carries material textures.
func NewDeferredRenderer(dev Device, shaders ShaderLoader, textures TextureLoader, cfg Config) (*DeferredRenderer, error) {
	r := &DeferredRenderer{
		dev:           dev,
		shaders:       shaders,
		textures:      textures,
		cfg:           cfg,
		log:           logger.Named("renderer"),
		registry:      NewRegistry(),
		uniforms:      newUniformCache(dev),
		lights:        lighting.NewPointLightBuffer(),
		programs:      make(map[string]uint32),
		programStages: make(map[string][]string),
		hooked:        make(map[*scenegraph.Scene]bool),
		owners:        make(map[uuid.UUID]*scenegraph.Node),
		width:         cfg.Width,
		height:        cfg.Height,
	}
	r.debug.Store(cfg.DebugBuffers)
	r.ssao.Store(cfg.SSAO)

	gb, err := dev.NewGBuffer(cfg.Width, cfg.Height)
	if err != nil {
		return nil, fmt.Errorf("creating g-buffer: %w", err)
	}
	r.gbuffer = gb

	prog, err := r.compile(lightingStages)
	if err != nil {
		gb.Destroy()
		return nil, fmt.Errorf("lighting program: %w", err)
	}
	r.lightingProgram = prog
	r.emptyVAO = dev.CreateVertexArray()

	r.log.Info("deferred renderer created",
		zap.Int32("width", cfg.Width),
		zap.Int32("height", cfg.Height),
		zap.Bool("ssao", cfg.SSAO),
	)
	return r, nil
}

// Registry returns the node state registry.
func (r *DeferredRenderer) Registry() *Registry { return r.registry }

// State returns the state of node, if it has one.
func (r *DeferredRenderer) State(n *scenegraph.Node) (*ObjectState, bool) {
	return r.registry.Get(RendererName, n.ID)
}

// InitializeScene creates GPU resources for every geometry node of sc.
// Failing nodes are logged and skipped; their errors are returned joined.
func (r *DeferredRenderer) InitializeScene(sc *scenegraph.Scene) error {
	r.hook(sc)
	sc.UpdateWorld(true, false)

	nodes := sc.Discover(func(n *scenegraph.Node) bool { return n.Is(scenegraph.HasGeometry) })
	sc.TakePendingInit()

	var errs []error
	for _, n := range nodes {
		if err := r.InitializeNode(n); err != nil {
			errs = append(errs, err)
		}
	}
	r.log.Info("scene initialized", zap.Int("nodes", len(nodes)), zap.Int("failed", len(errs)))
	return errors.Join(errs...)
}

// IsResourceInitialization reports whether err is made only of per-node
// initialization failures, as returned by InitializeScene. Such errors leave
// the rest of the scene renderable.
func IsResourceInitialization(err error) bool {
	if err == nil {
		return false
	}
	if err == ErrResourceInitialization {
		return true
	}
	j, ok := err.(interface{ Unwrap() []error })
	if !ok {
		return IsResourceInitialization(errors.Unwrap(err))
	}
	errs := j.Unwrap()
	// a node failure wraps the sentinel next to its cause
	for _, e := range errs {
		if e == ErrResourceInitialization {
			return true
		}
	}
	for _, e := range errs {
		if !IsResourceInitialization(e) {
			return false
		}
	}
	return len(errs) > 0
}

// IsNodeFailure is IsResourceInitialization.
func (r *DeferredRenderer) IsNodeFailure(err error) bool {
	return IsResourceInitialization(err)
}

// InitializeNode creates the state and GPU resources of n. Calling it again
// for an initialized node does nothing; for a failed node it returns the
// original error.
func (r *DeferredRenderer) InitializeNode(n *scenegraph.Node) error {
	st, ok := r.registry.Get(RendererName, n.ID)
	if ok {
		if st.Failed {
			return st.Err
		}
		if st.Initialized {
			return nil
		}
	} else {
		st = NewObjectState(n.ID)
		r.registry.Put(RendererName, n.ID, st)
		r.owners[n.ID] = n
		n.SetMetadata(st)
	}

	if err := r.upload(n, st); err != nil {
		r.freeResources(st)
		st.Failed = true
		st.Err = fmt.Errorf("%w: node %q: %w", ErrResourceInitialization, n.Name, err)
		r.log.Error("node initialization failed",
			zap.String("node", n.Name),
			zap.Stringer("id", n.ID),
			zap.Error(err),
		)
		return st.Err
	}
	st.Initialized = true
	r.log.Debug("node initialized",
		zap.String("node", n.Name),
		zap.Int32("vertices", st.StoredPrimitiveCount),
		zap.Int32("indices", st.StoredIndexCount),
	)
	return nil
}

func (r *DeferredRenderer) upload(n *scenegraph.Node, st *ObjectState) error {
	g := n.Geometry()
	if g == nil || g.VertexCount() == 0 {
		return errors.New("no vertex data")
	}
	if len(g.Normals) > 0 && len(g.Normals) != len(g.Vertices) {
		return fmt.Errorf("%d normal components for %d vertex components", len(g.Normals), len(g.Vertices))
	}

	prog, key, err := r.programFor(n)
	if err != nil {
		return err
	}
	st.Program = prog
	st.programKey = key

	usage := StaticDraw
	if g.Dynamic {
		usage = DynamicDraw
	}

	st.VAO = r.dev.CreateVertexArray()
	st.VertexBuffer = r.dev.UploadAttribute(st.VAO, SlotPosition, int32(g.VertexSize), g.Vertices, usage)
	if len(g.Normals) > 0 {
		st.NormalBuffer = r.dev.UploadAttribute(st.VAO, SlotNormal, int32(g.VertexSize), g.Normals, usage)
	}
	if len(g.TexCoords) > 0 {
		st.TexCoordBuffer = r.dev.UploadAttribute(st.VAO, SlotTexCoord, int32(g.TexCoordSize), g.TexCoords, usage)
	}
	if len(g.Indices) > 0 {
		st.IndexBuffer = r.dev.UploadIndices(st.VAO, g.Indices, usage)
		st.StoredIndexCount = int32(len(g.Indices))
	}
	st.StoredPrimitiveCount = int32(g.VertexCount())

	return r.loadTextures(n, st)
}

func (r *DeferredRenderer) loadTextures(n *scenegraph.Node, st *ObjectState) error {
	if n.Material == nil || len(n.Material.Textures) == 0 {
		return nil
	}
	if r.textures == nil {
		return errors.New("material has textures but no texture loader is configured")
	}

	slots := make([]string, 0, len(n.Material.Textures))
	for slot := range n.Material.Textures {
		slots = append(slots, slot)
	}
	sort.Strings(slots)

	for _, slot := range slots {
		file := n.Material.Textures[slot]
		tex, err := r.textures.Load(file)
		if err != nil {
			return fmt.Errorf("texture %s: %w", slot, err)
		}
		st.Textures = append(st.Textures, tex)
	}
	return nil
}

// programFor picks the material program, the class-derived program or the
// default program, in that order.
func (r *DeferredRenderer) programFor(n *scenegraph.Node) (uint32, string, error) {
	if n.Material != nil && n.Material.Program != 0 {
		return n.Material.Program, "", nil
	}

	stages := []string{DefaultVertexShader, DefaultFragmentShader}
	if n.UseClassDerivedShader {
		stages = r.derivedStages(n.Kind)
		if len(stages) == 0 {
			return 0, "", fmt.Errorf("no shader stages found for %s", n.Kind)
		}
	}
	return r.program(stages)
}

func (r *DeferredRenderer) derivedStages(kind string) []string {
	var found []string
	for _, name := range shader.FileNames(kind) {
		if r.shaders.Has(name) {
			found = append(found, name)
		}
	}
	return found
}

func (r *DeferredRenderer) program(stages []string) (uint32, string, error) {
	key := strings.Join(stages, "+")
	if p, ok := r.programs[key]; ok {
		return p, key, nil
	}
	p, err := r.compile(stages)
	if err != nil {
		return 0, "", err
	}
	r.programs[key] = p
	r.programStages[key] = stages
	return p, key, nil
}

func (r *DeferredRenderer) compile(stages []string) (uint32, error) {
	srcs, err := r.shaders.Sources(stages...)
	if err != nil {
		return 0, err
	}
	p, err := r.dev.CompileProgram(srcs)
	if err != nil {
		return 0, fmt.Errorf("compiling %s: %w", strings.Join(stages, ", "), err)
	}
	return p, nil
}

// Render draws one frame of sc: pending mutations are applied, nodes
// attached since the last frame are initialized, then the geometry and
// lighting passes run.
func (r *DeferredRenderer) Render(sc *scenegraph.Scene) error {
	r.hook(sc)
	sc.ApplyPending()
	sc.UpdateWorld(true, false)

	cam, err := sc.FindObserver()
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	cam.UpdateView()

	for _, n := range sc.TakePendingInit() {
		_ = r.InitializeNode(n) // logged; the node is skipped
	}

	var stats Stats
	if err := r.geometryPass(sc, cam, &stats); err != nil {
		return err
	}
	r.lightingPass(sc, &stats)
	r.stats = stats
	return nil
}

func (r *DeferredRenderer) geometryPass(sc *scenegraph.Scene, cam *scenegraph.Camera, stats *Stats) error {
	r.gbuffer.Bind()
	r.dev.SetPipelineState(PipelineState{DepthTest: true, CullFace: true})
	r.dev.Clear(r.cfg.ClearColor)

	nodes := sc.Discover(func(n *scenegraph.Node) bool {
		return n.Visible && n.Is(scenegraph.Renderable|scenegraph.HasGeometry)
	})
	// back to front by world Z of the node origin
	sort.SliceStable(nodes, func(i, j int) bool {
		return nodes[i].WorldPosition().Z() < nodes[j].WorldPosition().Z()
	})

	view := cam.ViewRotation()
	for _, n := range nodes {
		st, ok := r.registry.Get(RendererName, n.ID)
		if !ok {
			r.dev.UseProgram(0)
			return fmt.Errorf("%w: node %q", ErrMissingResourceState, n.Name)
		}
		if st.Failed || !st.Initialized {
			stats.Skipped++
			continue
		}
		if err := r.drawGeometry(n, st, cam, view); err != nil {
			r.dev.UseProgram(0)
			if !errors.Is(err, ErrUniformNotFound) {
				return err
			}
			if st.warnOnce(err.Error()) {
				r.log.Warn("node draw aborted", zap.String("node", n.Name), zap.Error(err))
			}
			stats.Skipped++
			continue
		}
		stats.Drawn++
	}
	r.dev.UseProgram(0)
	return nil
}

func (r *DeferredRenderer) drawGeometry(n *scenegraph.Node, st *ObjectState, cam *scenegraph.Camera, view mgl32.Mat4) error {
	n.UpdateWorld(false, false)

	model := n.World
	mv := view.Mul4(model)
	mvp := cam.Projection.Mul4(mv)

	p := st.Program
	u := r.uniforms
	r.dev.UseProgram(p)

	for _, m := range []struct {
		name string
		mat  mgl32.Mat4
	}{
		{"ModelMatrix", model},
		{"ModelViewMatrix", mv},
		{"ProjectionMatrix", cam.Projection},
		{"MVP", mvp},
	} {
		if err := u.requireMat4(p, m.name, m.mat); err != nil {
			return err
		}
	}

	u.setVec3(p, "Light.Ld", geometryLightDiffuse)
	u.setVec3(p, "Light.Position", geometryLightPosition)
	u.setVec3(p, "Light.La", geometryLightAmbient)
	u.setVec3(p, "Light.Ls", geometryLightSpecular)
	u.setFloat(p, "Material.Shinyness", materialShininess)

	if mat := n.Material; mat != nil {
		u.setVec3(p, "Material.Ka", mat.Ambient)
		u.setVec3(p, "Material.Kd", mat.Diffuse)
		u.setVec3(p, "Material.Ks", mat.Specular)
	} else {
		pos := n.Position()
		u.setVec3(p, "Material.Ka", pos)
		u.setVec3(p, "Material.Kd", pos)
		u.setVec3(p, "Material.Ks", pos)
	}

	for i, tex := range st.Textures {
		unit := r.cfg.TextureUnitOffset + uint32(i)
		r.dev.BindTexture(unit, tex)
		u.setInt(p, fmt.Sprintf("ObjectTextures[%d]", i), int32(unit))
	}
	u.setBool(p, "materialType", len(st.Textures) > 0)

	return r.DrawNode(n)
}

// DrawNode issues the draw call of an initialized node with the currently
// bound program. Failed and uninitialized nodes are not drawn.
func (r *DeferredRenderer) DrawNode(n *scenegraph.Node) error {
	st, ok := r.registry.Get(RendererName, n.ID)
	if !ok {
		return fmt.Errorf("%w: node %q", ErrMissingResourceState, n.Name)
	}
	if st.Failed || !st.Initialized {
		return nil
	}

	topo := topologyOf(n.Geometry().Type)
	r.dev.BindVertexArray(st.VAO)
	if st.StoredIndexCount > 0 {
		r.dev.DrawElements(topo, st.StoredIndexCount)
	} else {
		r.dev.DrawArrays(topo, st.StoredPrimitiveCount)
	}
	r.dev.BindVertexArray(0)
	return nil
}

func (r *DeferredRenderer) lightingPass(sc *scenegraph.Scene, stats *Stats) {
	r.dev.BindDefaultFramebuffer()
	r.dev.Viewport(r.width, r.height)
	r.dev.SetPipelineState(PipelineState{})
	r.dev.Clear(r.cfg.ClearColor)

	p := r.lightingProgram
	u := r.uniforms
	r.dev.UseProgram(p)
	r.gbuffer.BindTextures(unitPosition)

	r.lights.FromScene(sc)
	u.setInt(p, "numLights", int32(r.lights.Len()))
	for i, l := range r.lights.Lights {
		names := lightUniforms[i]
		u.setVec3(p, names[0], l.Position)
		u.setVec3(p, names[1], l.Color)
		u.setFloat(p, names[2], l.Intensity)
	}

	u.setInt(p, "gPosition", unitPosition)
	u.setInt(p, "gNormal", unitNormal)
	u.setInt(p, "gAlbedoSpec", unitAlbedo)
	u.setInt(p, "gDepth", unitDepth)

	u.setBool(p, "debugDeferredBuffers", r.debug.Load())
	u.setVec2(p, "ssao_filterRadius", r.cfg.SSAOFilterRadius)
	u.setFloat(p, "ssao_distanceThreshold", r.cfg.SSAODistanceThreshold)
	u.setBool(p, "doSSAO", r.ssao.Load())

	r.dev.BindVertexArray(r.emptyVAO)
	r.dev.DrawArrays(TopologyPoints, 1)
	r.dev.BindVertexArray(0)
	r.dev.UseProgram(0)

	stats.Lights = r.lights.Len()
	if r.lights.Dropped > 0 {
		r.log.Debug("lights over capacity ignored", zap.Int("dropped", r.lights.Dropped))
	}
}

func topologyOf(t scenegraph.GeometryType) Topology {
	switch t {
	case scenegraph.TriangleStrip:
		return TopologyTriangleStrip
	case scenegraph.TriangleFan:
		return TopologyTriangleFan
	case scenegraph.Points:
		return TopologyPoints
	case scenegraph.Line:
		return TopologyLineStrip
	default:
		// Polygon is drawn as triangles
		return TopologyTriangles
	}
}

// ReleaseNode deletes the GPU resources of n and forgets its state. It is
// registered as a removal hook on every scene the renderer sees.
func (r *DeferredRenderer) ReleaseNode(n *scenegraph.Node) {
	st, ok := r.registry.Get(RendererName, n.ID)
	if !ok {
		return
	}
	r.freeResources(st)
	r.registry.Delete(RendererName, n.ID)
	delete(r.owners, n.ID)
	n.DeleteMetadata(RendererName)
	r.log.Debug("node released", zap.String("node", n.Name))
}

// freeResources deletes everything a state owns. Cached and material
// programs are not owned by the state.
func (r *DeferredRenderer) freeResources(st *ObjectState) {
	for _, buf := range []uint32{st.VertexBuffer, st.NormalBuffer, st.TexCoordBuffer, st.IndexBuffer} {
		if buf != 0 {
			r.dev.DeleteBuffer(buf)
		}
	}
	if st.VAO != 0 {
		r.dev.DeleteVertexArray(st.VAO)
	}
	for _, tex := range st.Textures {
		r.dev.DeleteTexture(tex)
	}
	st.VAO, st.VertexBuffer, st.NormalBuffer, st.TexCoordBuffer, st.IndexBuffer = 0, 0, 0, 0, 0
	st.Textures = nil
	st.Initialized = false
}

func (r *DeferredRenderer) hook(sc *scenegraph.Scene) {
	if r.hooked[sc] {
		return
	}
	sc.OnRemove(r.ReleaseNode)
	r.hooked[sc] = true
}

// ToggleDebug flips the G-buffer debug view and returns the new setting.
// Safe for concurrent use.
func (r *DeferredRenderer) ToggleDebug() bool {
	v := flip(&r.debug)
	r.log.Info("deferred buffer debug view", zap.Bool("enabled", v))
	return v
}

// ToggleSSAO flips screen-space ambient occlusion and returns the new setting.
// Safe for concurrent use.
func (r *DeferredRenderer) ToggleSSAO() bool {
	v := flip(&r.ssao)
	r.log.Info("ssao", zap.Bool("enabled", v))
	return v
}

// flip negates b atomically and returns the new value.
func flip(b *atomic.Bool) bool {
	for {
		old := b.Load()
		if b.CompareAndSwap(old, !old) {
			return !old
		}
	}
}

// Debug reports whether the G-buffer debug view is on.
func (r *DeferredRenderer) Debug() bool { return r.debug.Load() }

// SSAO reports whether ambient occlusion is on.
func (r *DeferredRenderer) SSAO() bool { return r.ssao.Load() }

// Stats returns the statistics of the last frame.
func (r *DeferredRenderer) Stats() Stats { return r.stats }

// Resize reallocates the G-buffer for the new window size.
func (r *DeferredRenderer) Resize(width, height int32) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid size %dx%d", width, height)
	}
	if err := r.gbuffer.Resize(width, height); err != nil {
		return fmt.Errorf("resizing g-buffer: %w", err)
	}
	r.width, r.height = width, height
	r.log.Debug("renderer resized", zap.Int32("width", width), zap.Int32("height", height))
	return nil
}

// ReloadShaders relinks the lighting program and every cached program from
// current sources. A program that fails to compile keeps its previous version.
func (r *DeferredRenderer) ReloadShaders(changed ...string) error {
	if inv, ok := r.shaders.(interface{ Invalidate(...string) }); ok {
		inv.Invalidate(changed...)
	}

	var errs []error
	if p, err := r.compile(lightingStages); err != nil {
		errs = append(errs, err)
	} else {
		r.dev.DeleteProgram(r.lightingProgram)
		r.uniforms.forget(r.lightingProgram)
		r.lightingProgram = p
	}

	keys := make([]string, 0, len(r.programs))
	for key := range r.programs {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		p, err := r.compile(r.programStages[key])
		if err != nil {
			errs = append(errs, err)
			continue
		}
		old := r.programs[key]
		r.programs[key] = p
		r.registry.Each(RendererName, func(st *ObjectState) {
			if st.programKey == key {
				st.Program = p
			}
		})
		r.dev.DeleteProgram(old)
		r.uniforms.forget(old)
	}

	err := errors.Join(errs...)
	if err != nil {
		r.log.Error("shader reload failed", zap.Error(err))
	} else {
		r.log.Info("shaders reloaded", zap.Int("programs", len(keys)+1))
	}
	return err
}

// Close releases every node state, cached program and the G-buffer.
func (r *DeferredRenderer) Close() {
	r.registry.Each(RendererName, func(st *ObjectState) {
		r.freeResources(st)
		r.registry.Delete(RendererName, st.NodeID)
		if n, ok := r.owners[st.NodeID]; ok {
			n.DeleteMetadata(RendererName)
			delete(r.owners, st.NodeID)
		}
	})
	for key, p := range r.programs {
		r.dev.DeleteProgram(p)
		delete(r.programs, key)
	}
	if r.lightingProgram != 0 {
		r.dev.DeleteProgram(r.lightingProgram)
		r.lightingProgram = 0
	}
	if r.emptyVAO != 0 {
		r.dev.DeleteVertexArray(r.emptyVAO)
		r.emptyVAO = 0
	}
	if r.gbuffer != nil {
		r.gbuffer.Destroy()
		r.gbuffer = nil
	}
	r.log.Info("deferred renderer closed")
}

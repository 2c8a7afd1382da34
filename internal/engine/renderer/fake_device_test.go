package renderer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/scenery/internal/engine/shader"
)

// fakeDevice records every call instead of talking to a GPU.
type fakeDevice struct {
	next  uint32
	calls []string

	programs     map[uint32][]string // program -> stage names
	current      uint32
	boundVAO     uint32
	uniformNames map[int32]string
	uniformLocs  map[string]int32
	// values holds the last value per program and uniform name
	values map[uint32]map[string]any

	// missingUniforms lists names reported inactive in every program
	missingUniforms map[string]bool
	failCompile     map[string]bool

	deletedBuffers  []uint32
	deletedVAOs     []uint32
	deletedPrograms []uint32
	deletedTextures []uint32
	textureUnits    map[uint32]uint32

	draws   []fakeDraw
	gbuffer *fakeGBuffer
}

type fakeDraw struct {
	program  uint32
	vao      uint32
	topology Topology
	count    int32
	indexed  bool
	// model is the ModelMatrix bound at draw time
	model mgl32.Mat4
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{
		next:            100,
		programs:        make(map[uint32][]string),
		uniformNames:    make(map[int32]string),
		uniformLocs:     make(map[string]int32),
		values:          make(map[uint32]map[string]any),
		missingUniforms: make(map[string]bool),
		failCompile:     make(map[string]bool),
		textureUnits:    make(map[uint32]uint32),
	}
}

func (d *fakeDevice) handle() uint32 {
	d.next++
	return d.next
}

func (d *fakeDevice) record(format string, args ...any) {
	d.calls = append(d.calls, fmt.Sprintf(format, args...))
}

// index returns the position of the first call starting with prefix, or -1.
func (d *fakeDevice) index(prefix string) int {
	for i, c := range d.calls {
		if strings.HasPrefix(c, prefix) {
			return i
		}
	}
	return -1
}

func (d *fakeDevice) CreateVertexArray() uint32 {
	h := d.handle()
	d.record("CreateVertexArray %d", h)
	return h
}

func (d *fakeDevice) BindVertexArray(vao uint32) {
	d.boundVAO = vao
}

func (d *fakeDevice) DeleteVertexArray(vao uint32) {
	d.deletedVAOs = append(d.deletedVAOs, vao)
}

func (d *fakeDevice) UploadAttribute(vao, slot uint32, components int32, data []float32, usage BufferUsage) uint32 {
	h := d.handle()
	d.record("UploadAttribute vao=%d slot=%d components=%d len=%d usage=%d", vao, slot, components, len(data), usage)
	return h
}

func (d *fakeDevice) UploadIndices(vao uint32, data []uint32, usage BufferUsage) uint32 {
	h := d.handle()
	d.record("UploadIndices vao=%d len=%d usage=%d", vao, len(data), usage)
	return h
}

func (d *fakeDevice) DeleteBuffer(buf uint32) {
	d.deletedBuffers = append(d.deletedBuffers, buf)
}

func (d *fakeDevice) CompileProgram(sources []shader.Source) (uint32, error) {
	names := make([]string, 0, len(sources))
	for _, s := range sources {
		if d.failCompile[s.Name] {
			return 0, errors.New("syntax error in " + s.Name)
		}
		names = append(names, s.Name)
	}
	h := d.handle()
	d.programs[h] = names
	d.record("CompileProgram %d %s", h, strings.Join(names, ","))
	return h, nil
}

func (d *fakeDevice) UseProgram(program uint32) {
	d.current = program
}

func (d *fakeDevice) DeleteProgram(program uint32) {
	d.deletedPrograms = append(d.deletedPrograms, program)
}

func (d *fakeDevice) UniformLocation(program uint32, name string) int32 {
	if d.missingUniforms[name] {
		return -1
	}
	key := fmt.Sprintf("%d/%s", program, name)
	if loc, ok := d.uniformLocs[key]; ok {
		return loc
	}
	loc := int32(len(d.uniformLocs))
	d.uniformLocs[key] = loc
	d.uniformNames[loc] = name
	return loc
}

func (d *fakeDevice) set(loc int32, v any) {
	m, ok := d.values[d.current]
	if !ok {
		m = make(map[string]any)
		d.values[d.current] = m
	}
	name := d.uniformNames[loc]
	m[name] = v
	d.record("Uniform %s", name)
}

func (d *fakeDevice) UniformMatrix4(loc int32, m mgl32.Mat4) { d.set(loc, m) }
func (d *fakeDevice) Uniform3(loc int32, v mgl32.Vec3)       { d.set(loc, v) }
func (d *fakeDevice) Uniform2(loc int32, v mgl32.Vec2)       { d.set(loc, v) }
func (d *fakeDevice) Uniform1f(loc int32, v float32)         { d.set(loc, v) }
func (d *fakeDevice) Uniform1i(loc int32, v int32)           { d.set(loc, v) }

func (d *fakeDevice) BindTexture(unit, tex uint32) {
	d.textureUnits[unit] = tex
}

func (d *fakeDevice) DeleteTexture(tex uint32) {
	d.deletedTextures = append(d.deletedTextures, tex)
}

func (d *fakeDevice) model() mgl32.Mat4 {
	m, _ := d.values[d.current]["ModelMatrix"].(mgl32.Mat4)
	return m
}

func (d *fakeDevice) DrawArrays(t Topology, count int32) {
	d.draws = append(d.draws, fakeDraw{program: d.current, vao: d.boundVAO, topology: t, count: count, model: d.model()})
	d.record("DrawArrays %d %d", t, count)
}

func (d *fakeDevice) DrawElements(t Topology, count int32) {
	d.draws = append(d.draws, fakeDraw{program: d.current, vao: d.boundVAO, topology: t, count: count, indexed: true, model: d.model()})
	d.record("DrawElements %d %d", t, count)
}

func (d *fakeDevice) SetPipelineState(s PipelineState) {
	d.record("SetPipelineState depth=%t cull=%t blend=%t", s.DepthTest, s.CullFace, s.Blend)
}

func (d *fakeDevice) Clear(mgl32.Vec4) { d.record("Clear") }

func (d *fakeDevice) BindDefaultFramebuffer() { d.record("BindDefaultFramebuffer") }

func (d *fakeDevice) Viewport(width, height int32) { d.record("Viewport %dx%d", width, height) }

func (d *fakeDevice) NewGBuffer(width, height int32) (GBuffer, error) {
	d.gbuffer = &fakeGBuffer{dev: d, width: width, height: height}
	return d.gbuffer, nil
}

// value returns the last value of a uniform in program.
func (d *fakeDevice) value(program uint32, name string) (any, bool) {
	v, ok := d.values[program][name]
	return v, ok
}

// drawsOf returns the draws issued with program.
func (d *fakeDevice) drawsOf(program uint32) []fakeDraw {
	var out []fakeDraw
	for _, dr := range d.draws {
		if dr.program == program {
			out = append(out, dr)
		}
	}
	return out
}

type fakeGBuffer struct {
	dev           *fakeDevice
	width, height int32
	destroyed     bool
	textureBase   uint32
}

func (g *fakeGBuffer) Bind() { g.dev.record("GBuffer.Bind") }

func (g *fakeGBuffer) BindTextures(first uint32) {
	g.textureBase = first
	g.dev.record("GBuffer.BindTextures %d", first)
}

func (g *fakeGBuffer) Resize(width, height int32) error {
	g.width, g.height = width, height
	return nil
}

func (g *fakeGBuffer) Size() (int32, int32) { return g.width, g.height }

func (g *fakeGBuffer) Destroy() { g.destroyed = true }

// fakeShaders serves stage sources from a set of available names.
type fakeShaders struct {
	available   map[string]bool
	invalidated [][]string
}

func newFakeShaders(extra ...string) *fakeShaders {
	s := &fakeShaders{available: make(map[string]bool)}
	for _, name := range append([]string{
		DefaultVertexShader, DefaultFragmentShader,
		"Dummy.vert", "FullscreenQuadGenerator.geom", "DeferredLighting.frag",
	}, extra...) {
		s.available[name] = true
	}
	return s
}

func (s *fakeShaders) Has(name string) bool { return s.available[name] }

func (s *fakeShaders) Sources(names ...string) ([]shader.Source, error) {
	var out []shader.Source
	for _, name := range names {
		if !s.available[name] {
			return nil, errors.New("missing " + name)
		}
		stage, err := shader.StageOf(name)
		if err != nil {
			return nil, err
		}
		out = append(out, shader.Source{Name: name, Stage: stage, Code: "// " + name})
	}
	return out, nil
}

func (s *fakeShaders) Invalidate(names ...string) {
	s.invalidated = append(s.invalidated, names)
}

// fakeTextures hands out texture handles for known files.
type fakeTextures struct {
	next   uint32
	files  map[string]bool
	loaded []string
}

func (t *fakeTextures) Load(name string) (uint32, error) {
	if !t.files[name] {
		return 0, errors.New("no such texture " + name)
	}
	t.next++
	t.loaded = append(t.loaded, name)
	return 9000 + t.next, nil
}

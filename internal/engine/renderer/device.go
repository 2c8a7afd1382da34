package renderer

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/scenery/internal/engine/shader"
)

// Topology is the primitive type of a draw call.
type Topology int

const (
	TopologyTriangles Topology = iota
	TopologyTriangleStrip
	TopologyTriangleFan
	TopologyPoints
	TopologyLineStrip
)

// BufferUsage hints how often buffer data changes.
type BufferUsage int

const (
	StaticDraw BufferUsage = iota
	DynamicDraw
)

// Vertex attribute slots shared with the shaders.
const (
	SlotPosition uint32 = 0
	SlotNormal   uint32 = 1
	SlotTexCoord uint32 = 2
)

// PipelineState is the fixed-function state of a pass. Depth testing uses
// LEQUAL and culling removes back faces with counter-clockwise front faces.
type PipelineState struct {
	DepthTest bool
	CullFace  bool
	Blend     bool
}

// GBuffer is an offscreen target with position, normal, albedo and depth
// attachments.
type GBuffer interface {
	// Bind makes the buffer the draw target and sets the viewport to its size.
	Bind()
	// BindTextures binds position, normal, albedo and depth to consecutive
	// texture units starting at first.
	BindTextures(first uint32)
	Resize(width, height int32) error
	Size() (width, height int32)
	Destroy()
}

// Device is the subset of a graphics API the renderer needs. Every method must
// be called from the thread that owns the graphics context.
type Device interface {
	CreateVertexArray() uint32
	BindVertexArray(vao uint32)
	DeleteVertexArray(vao uint32)

	// UploadAttribute creates a buffer with data, attached to vao at slot.
	UploadAttribute(vao, slot uint32, components int32, data []float32, usage BufferUsage) uint32
	// UploadIndices creates an element buffer attached to vao.
	UploadIndices(vao uint32, data []uint32, usage BufferUsage) uint32
	DeleteBuffer(buf uint32)

	CompileProgram(sources []shader.Source) (uint32, error)
	UseProgram(program uint32)
	DeleteProgram(program uint32)

	// UniformLocation returns -1 when the program has no active uniform name.
	UniformLocation(program uint32, name string) int32
	UniformMatrix4(loc int32, m mgl32.Mat4)
	Uniform3(loc int32, v mgl32.Vec3)
	Uniform2(loc int32, v mgl32.Vec2)
	Uniform1f(loc int32, v float32)
	Uniform1i(loc int32, v int32)

	BindTexture(unit, tex uint32)
	DeleteTexture(tex uint32)

	DrawArrays(t Topology, count int32)
	DrawElements(t Topology, count int32)

	SetPipelineState(s PipelineState)
	Clear(color mgl32.Vec4)
	BindDefaultFramebuffer()
	Viewport(width, height int32)

	NewGBuffer(width, height int32) (GBuffer, error)
}

// ShaderLoader resolves shader stage files by name.
type ShaderLoader interface {
	Has(name string) bool
	Sources(names ...string) ([]shader.Source, error)
}

// TextureLoader loads a texture file and returns a texture owned by the caller.
type TextureLoader interface {
	Load(name string) (uint32, error)
}

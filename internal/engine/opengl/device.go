// Package opengl implements the renderer device on OpenGL 4.1 core.
package opengl

import (
	"errors"
	"fmt"
	"image"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/scenery/internal/engine/renderer"
	"github.com/Faultbox/scenery/internal/engine/shader"
	"github.com/Faultbox/scenery/internal/logger"
)

var topologies = map[renderer.Topology]uint32{
	renderer.TopologyTriangles:     gl.TRIANGLES,
	renderer.TopologyTriangleStrip: gl.TRIANGLE_STRIP,
	renderer.TopologyTriangleFan:   gl.TRIANGLE_FAN,
	renderer.TopologyPoints:        gl.POINTS,
	renderer.TopologyLineStrip:     gl.LINE_STRIP,
}

// Device talks to the current OpenGL context. It must only be used from the
// thread the context is bound to.
type Device struct {
	log *zap.Logger
}

// NewDevice loads the OpenGL function pointers.
// It must be called after the context is created and made current.
func NewDevice() (*Device, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	d := &Device{log: logger.Named("opengl")}
	d.log.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
		zap.String("glsl", gl.GoStr(gl.GetString(gl.SHADING_LANGUAGE_VERSION))),
	)
	return d, nil
}

func usageOf(u renderer.BufferUsage) uint32 {
	if u == renderer.DynamicDraw {
		return gl.DYNAMIC_DRAW
	}
	return gl.STATIC_DRAW
}

func (d *Device) CreateVertexArray() uint32 {
	var vao uint32
	gl.GenVertexArrays(1, &vao)
	return vao
}

func (d *Device) BindVertexArray(vao uint32) { gl.BindVertexArray(vao) }

func (d *Device) DeleteVertexArray(vao uint32) { gl.DeleteVertexArrays(1, &vao) }

func (d *Device) UploadAttribute(vao, slot uint32, components int32, data []float32, usage renderer.BufferUsage) uint32 {
	var buf uint32
	gl.BindVertexArray(vao)
	gl.GenBuffers(1, &buf)
	gl.BindBuffer(gl.ARRAY_BUFFER, buf)
	gl.BufferData(gl.ARRAY_BUFFER, len(data)*4, gl.Ptr(data), usageOf(usage))
	gl.EnableVertexAttribArray(slot)
	gl.VertexAttribPointerWithOffset(slot, components, gl.FLOAT, false, 0, 0)
	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	return buf
}

func (d *Device) UploadIndices(vao uint32, data []uint32, usage renderer.BufferUsage) uint32 {
	var buf uint32
	gl.BindVertexArray(vao)
	gl.GenBuffers(1, &buf)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, buf)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(data)*4, gl.Ptr(data), usageOf(usage))
	// the element binding is VAO state and must stay bound
	gl.BindVertexArray(0)
	return buf
}

func (d *Device) DeleteBuffer(buf uint32) { gl.DeleteBuffers(1, &buf) }

func (d *Device) CompileProgram(sources []shader.Source) (uint32, error) {
	return CompileProgram(sources)
}

func (d *Device) UseProgram(program uint32) { gl.UseProgram(program) }

func (d *Device) DeleteProgram(program uint32) { gl.DeleteProgram(program) }

func (d *Device) UniformLocation(program uint32, name string) int32 {
	return gl.GetUniformLocation(program, gl.Str(name+"\x00"))
}

func (d *Device) UniformMatrix4(loc int32, m mgl32.Mat4) { gl.UniformMatrix4fv(loc, 1, false, &m[0]) }

func (d *Device) Uniform3(loc int32, v mgl32.Vec3) { gl.Uniform3f(loc, v[0], v[1], v[2]) }

func (d *Device) Uniform2(loc int32, v mgl32.Vec2) { gl.Uniform2f(loc, v[0], v[1]) }

func (d *Device) Uniform1f(loc int32, v float32) { gl.Uniform1f(loc, v) }

func (d *Device) Uniform1i(loc int32, v int32) { gl.Uniform1i(loc, v) }

func (d *Device) BindTexture(unit, tex uint32) {
	gl.ActiveTexture(gl.TEXTURE0 + unit)
	gl.BindTexture(gl.TEXTURE_2D, tex)
	gl.ActiveTexture(gl.TEXTURE0)
}

func (d *Device) DeleteTexture(tex uint32) { gl.DeleteTextures(1, &tex) }

func (d *Device) DrawArrays(t renderer.Topology, count int32) {
	gl.DrawArrays(topologies[t], 0, count)
}

func (d *Device) DrawElements(t renderer.Topology, count int32) {
	gl.DrawElementsWithOffset(topologies[t], count, gl.UNSIGNED_INT, 0)
}

func (d *Device) SetPipelineState(s renderer.PipelineState) {
	if s.DepthTest {
		gl.Enable(gl.DEPTH_TEST)
		gl.DepthFunc(gl.LEQUAL)
	} else {
		gl.Disable(gl.DEPTH_TEST)
	}
	if s.CullFace {
		gl.Enable(gl.CULL_FACE)
		gl.CullFace(gl.BACK)
		gl.FrontFace(gl.CCW)
	} else {
		gl.Disable(gl.CULL_FACE)
	}
	if s.Blend {
		gl.Enable(gl.BLEND)
		gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	} else {
		gl.Disable(gl.BLEND)
	}
}

func (d *Device) Clear(c mgl32.Vec4) {
	gl.ClearColor(c[0], c[1], c[2], c[3])
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

func (d *Device) BindDefaultFramebuffer() { gl.BindFramebuffer(gl.FRAMEBUFFER, 0) }

func (d *Device) Viewport(width, height int32) { gl.Viewport(0, 0, width, height) }

func (d *Device) NewGBuffer(width, height int32) (renderer.GBuffer, error) {
	return NewGBuffer(width, height)
}

// UploadTexture creates a mipmapped RGBA texture from img.
func (d *Device) UploadTexture(img *image.RGBA) (uint32, error) {
	b := img.Bounds()
	if b.Empty() {
		return 0, errors.New("empty image")
	}
	var tex uint32
	gl.GenTextures(1, &tex)
	gl.BindTexture(gl.TEXTURE_2D, tex)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(b.Dx()), int32(b.Dy()), 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(img.Pix))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.REPEAT)
	gl.GenerateMipmap(gl.TEXTURE_2D)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return tex, nil
}

// ReadPixels reads the default framebuffer as RGBA rows, bottom row first.
func (d *Device) ReadPixels(width, height int32) []byte {
	pixels := make([]byte, width*height*4)
	var prev int32
	gl.GetIntegerv(gl.FRAMEBUFFER_BINDING, &prev)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, width, height, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	gl.BindFramebuffer(gl.FRAMEBUFFER, uint32(prev))
	return pixels
}

var _ renderer.Device = (*Device)(nil)

package opengl

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
)

type attachment struct {
	internalFormat int32
	format         uint32
	xtype          uint32
}

// Color attachments in draw buffer order: position, normal, albedo/specular.
var gbufferLayout = []attachment{
	{gl.RGB32F, gl.RGB, gl.FLOAT},
	{gl.RGB16F, gl.RGB, gl.FLOAT},
	{gl.RGBA8, gl.RGBA, gl.UNSIGNED_BYTE},
}

// GBuffer is the geometry pass target: three color textures and a depth texture.
type GBuffer struct {
	fbo    uint32
	color  [3]uint32
	depth  uint32
	width  int32
	height int32
}

// NewGBuffer creates a G-buffer of the given size.
func NewGBuffer(width, height int32) (*GBuffer, error) {
	g := &GBuffer{width: max(width, 1), height: max(height, 1)}
	if err := g.create(); err != nil {
		return nil, fmt.Errorf("creating g-buffer: %w", err)
	}
	return g, nil
}

func (g *GBuffer) create() error {
	gl.GenFramebuffers(1, &g.fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, g.fbo)

	drawBuffers := make([]uint32, len(gbufferLayout))
	for i, a := range gbufferLayout {
		gl.GenTextures(1, &g.color[i])
		gl.BindTexture(gl.TEXTURE_2D, g.color[i])
		gl.TexImage2D(gl.TEXTURE_2D, 0, a.internalFormat, g.width, g.height, 0, a.format, a.xtype, nil)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
		attach := uint32(gl.COLOR_ATTACHMENT0 + i)
		gl.FramebufferTexture2D(gl.FRAMEBUFFER, attach, gl.TEXTURE_2D, g.color[i], 0)
		drawBuffers[i] = attach
	}
	gl.DrawBuffers(int32(len(drawBuffers)), &drawBuffers[0])

	gl.GenTextures(1, &g.depth)
	gl.BindTexture(gl.TEXTURE_2D, g.depth)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.DEPTH_COMPONENT24, g.width, g.height, 0, gl.DEPTH_COMPONENT, gl.FLOAT, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.TEXTURE_2D, g.depth, 0)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	if status != gl.FRAMEBUFFER_COMPLETE {
		g.Destroy()
		return fmt.Errorf("framebuffer incomplete: 0x%x", status)
	}
	return nil
}

// Bind makes the G-buffer the draw target.
func (g *GBuffer) Bind() {
	gl.BindFramebuffer(gl.FRAMEBUFFER, g.fbo)
	gl.Viewport(0, 0, g.width, g.height)
}

// BindTextures binds position, normal, albedo and depth to units first..first+3.
func (g *GBuffer) BindTextures(first uint32) {
	for i, tex := range g.color {
		gl.ActiveTexture(gl.TEXTURE0 + first + uint32(i))
		gl.BindTexture(gl.TEXTURE_2D, tex)
	}
	gl.ActiveTexture(gl.TEXTURE0 + first + uint32(len(g.color)))
	gl.BindTexture(gl.TEXTURE_2D, g.depth)
	gl.ActiveTexture(gl.TEXTURE0)
}

// Size returns the G-buffer dimensions.
func (g *GBuffer) Size() (width, height int32) {
	return g.width, g.height
}

// Resize recreates the attachments when the size changed.
func (g *GBuffer) Resize(width, height int32) error {
	width, height = max(width, 1), max(height, 1)
	if width == g.width && height == g.height {
		return nil
	}
	g.Destroy()
	g.width, g.height = width, height
	return g.create()
}

// Textures returns the position, normal, albedo and depth textures.
func (g *GBuffer) Textures() [4]uint32 {
	return [4]uint32{g.color[0], g.color[1], g.color[2], g.depth}
}

// Destroy releases all OpenGL resources.
func (g *GBuffer) Destroy() {
	if g.fbo != 0 {
		gl.DeleteFramebuffers(1, &g.fbo)
		g.fbo = 0
	}
	for i := range g.color {
		if g.color[i] != 0 {
			gl.DeleteTextures(1, &g.color[i])
			g.color[i] = 0
		}
	}
	if g.depth != 0 {
		gl.DeleteTextures(1, &g.depth)
		g.depth = 0
	}
}

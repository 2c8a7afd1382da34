package renderer

import "github.com/go-gl/mathgl/mgl32"

// Config holds deferred renderer settings.
type Config struct {
	Width  int32
	Height int32

	DebugBuffers bool
	SSAO         bool

	SSAOFilterRadius      mgl32.Vec2
	SSAODistanceThreshold float32

	// TextureUnitOffset is the first texture unit used for object textures.
	// Units below it are taken by the G-buffer in the lighting pass.
	TextureUnitOffset uint32

	ClearColor mgl32.Vec4
}

// DefaultConfig returns the default renderer settings.
func DefaultConfig() Config {
	return Config{
		Width:                 1280,
		Height:                720,
		SSAOFilterRadius:      mgl32.Vec2{0.001, 0.001},
		SSAODistanceThreshold: 0.5,
		TextureUnitOffset:     5,
		ClearColor:            mgl32.Vec4{0, 0, 0, 1},
	}
}

// Package shaders embeds the default GLSL sources of the deferred renderer.
package shaders

import "embed"

// FS holds every default shader stage file.
//
//go:embed *.vert *.frag *.geom
var FS embed.FS

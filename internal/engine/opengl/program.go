package opengl

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/scenery/internal/engine/shader"
)

var stageTypes = map[shader.Stage]uint32{
	shader.Vertex:         gl.VERTEX_SHADER,
	shader.Geometry:       gl.GEOMETRY_SHADER,
	shader.TessEvaluation: gl.TESS_EVALUATION_SHADER,
	shader.TessControl:    gl.TESS_CONTROL_SHADER,
	shader.Fragment:       gl.FRAGMENT_SHADER,
}

// CompileProgram compiles every stage and links them into a program.
func CompileProgram(sources []shader.Source) (uint32, error) {
	if len(sources) == 0 {
		return 0, shader.ErrNoStages
	}

	compiled := make([]uint32, 0, len(sources))
	defer func() {
		for _, s := range compiled {
			gl.DeleteShader(s)
		}
	}()

	for _, src := range sources {
		typ, ok := stageTypes[src.Stage]
		if !ok {
			// compute shaders need GL 4.3
			return 0, fmt.Errorf("%s: %s stage not supported by OpenGL 4.1", src.Name, src.Stage)
		}
		s, err := compileShader(src.Code, typ)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", src.Name, err)
		}
		compiled = append(compiled, s)
	}

	program := gl.CreateProgram()
	for _, s := range compiled {
		gl.AttachShader(program, s)
	}
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLen)
		log := make([]byte, logLen+1)
		gl.GetProgramInfoLog(program, logLen, nil, &log[0])
		gl.DeleteProgram(program)
		return 0, fmt.Errorf("link: %s", gl.GoStr(&log[0]))
	}
	for _, s := range compiled {
		gl.DetachShader(program, s)
	}
	return program, nil
}

func compileShader(source string, shaderType uint32) (uint32, error) {
	s := gl.CreateShader(shaderType)
	csource, free := gl.Strs(source + "\x00")
	gl.ShaderSource(s, 1, csource, nil)
	free()
	gl.CompileShader(s)

	var status int32
	gl.GetShaderiv(s, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(s, gl.INFO_LOG_LENGTH, &logLen)
		log := make([]byte, logLen+1)
		gl.GetShaderInfoLog(s, logLen, nil, &log[0])
		gl.DeleteShader(s)
		return 0, fmt.Errorf("compile: %s", gl.GoStr(&log[0]))
	}
	return s, nil
}

// Package shader resolves GLSL stage sources by file name and watches shader
// directories for changes.
package shader

import (
	"fmt"
	"path"
	"strings"
)

// Stage identifies a programmable pipeline stage.
type Stage int

const (
	Vertex Stage = iota
	Geometry
	TessEvaluation
	TessControl
	Fragment
	Compute
)

// Stages lists every stage in the order class-derived programs are probed.
var Stages = []Stage{Vertex, Geometry, TessEvaluation, TessControl, Fragment, Compute}

var stageExt = map[Stage]string{
	Vertex:         ".vert",
	Geometry:       ".geom",
	TessEvaluation: ".tese",
	TessControl:    ".tesc",
	Fragment:       ".frag",
	Compute:        ".comp",
}

// Ext returns the file extension of the stage, dot included.
func (s Stage) Ext() string { return stageExt[s] }

func (s Stage) String() string {
	switch s {
	case Vertex:
		return "vertex"
	case Geometry:
		return "geometry"
	case TessEvaluation:
		return "tessellation evaluation"
	case TessControl:
		return "tessellation control"
	case Fragment:
		return "fragment"
	case Compute:
		return "compute"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// StageOf derives the stage from a file name's extension.
func StageOf(name string) (Stage, error) {
	ext := strings.ToLower(path.Ext(name))
	for s, e := range stageExt {
		if e == ext {
			return s, nil
		}
	}
	return 0, fmt.Errorf("%s: unknown shader stage extension %q", name, ext)
}

// Source is the code of one stage.
type Source struct {
	Name  string
	Stage Stage
	Code  string
}

// FileNames returns base + ext for every stage, in Stages order.
func FileNames(base string) []string {
	names := make([]string, 0, len(Stages))
	for _, s := range Stages {
		names = append(names, base+s.Ext())
	}
	return names
}

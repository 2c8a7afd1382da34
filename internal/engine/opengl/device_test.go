package opengl

import (
	"testing"

	"github.com/Faultbox/scenery/internal/engine/renderer"
	"github.com/Faultbox/scenery/internal/engine/shader"
)

func TestEveryTopologyHasAPrimitive(t *testing.T) {
	for _, topo := range []renderer.Topology{
		renderer.TopologyTriangles,
		renderer.TopologyTriangleStrip,
		renderer.TopologyTriangleFan,
		renderer.TopologyPoints,
		renderer.TopologyLineStrip,
	} {
		if _, ok := topologies[topo]; !ok {
			t.Errorf("topology %d has no GL primitive", topo)
		}
	}
}

func TestStageTypes(t *testing.T) {
	for _, s := range shader.Stages {
		_, ok := stageTypes[s]
		if s == shader.Compute && ok {
			t.Error("compute stage must be rejected on GL 4.1")
		}
		if s != shader.Compute && !ok {
			t.Errorf("%s stage has no GL shader type", s)
		}
	}
}

func TestCompileProgramRejectsComputeBeforeTouchingGL(t *testing.T) {
	_, err := CompileProgram([]shader.Source{{Name: "Particles.comp", Stage: shader.Compute}})
	if err == nil {
		t.Fatal("expected error for compute stage")
	}
	if _, err := CompileProgram(nil); err != shader.ErrNoStages {
		t.Fatalf("expected ErrNoStages, got %v", err)
	}
}

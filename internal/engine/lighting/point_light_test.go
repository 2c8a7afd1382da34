package lighting

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/scenery/internal/engine/scenegraph"
)

func TestAddLightClamps(t *testing.T) {
	b := NewPointLightBuffer()
	require.True(t, b.AddLight(PointLight{Color: mgl32.Vec3{2, -1, 0.5}, Intensity: -3}))

	l := b.Lights[0]
	assert.Equal(t, mgl32.Vec3{1, 0, 0.5}, l.Color)
	assert.Equal(t, float32(0), l.Intensity)
}

func TestBufferCapacity(t *testing.T) {
	b := NewPointLightBuffer()
	for i := 0; i < MaxPointLights; i++ {
		require.True(t, b.AddLight(PointLight{Intensity: 1}))
	}
	assert.False(t, b.AddLight(PointLight{}))
	assert.Equal(t, MaxPointLights, b.Len())
	assert.Equal(t, 1, b.Dropped)

	b.Clear()
	assert.Equal(t, 0, b.Len())
	assert.Equal(t, 0, b.Dropped)
}

func TestFromSceneUsesWorldPositions(t *testing.T) {
	sc := scenegraph.NewScene()
	rig := scenegraph.NewNode("rig")
	rig.SetPosition(mgl32.Vec3{10, 0, 0})
	require.NoError(t, sc.AddChild(rig))

	lamp := scenegraph.NewPointLight("lamp")
	lamp.SetPosition(mgl32.Vec3{0, 2, 0})
	lamp.EmissionColor = mgl32.Vec3{1, 0.5, 0}
	lamp.Intensity = 4
	require.NoError(t, rig.AddChild(lamp))

	hidden := scenegraph.NewPointLight("hidden")
	hidden.Visible = false
	require.NoError(t, sc.AddChild(hidden))

	require.NoError(t, sc.AddChild(scenegraph.NewBox(mgl32.Vec3{1, 1, 1})))

	sc.UpdateWorld(true, false)

	b := NewPointLightBuffer()
	b.FromScene(sc)
	require.Equal(t, 1, b.Len())
	assert.Equal(t, mgl32.Vec3{10, 2, 0}, b.Lights[0].Position)
	assert.Equal(t, mgl32.Vec3{1, 0.5, 0}, b.Lights[0].Color)
	assert.Equal(t, float32(4), b.Lights[0].Intensity)
}

package renderer

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// uniformCache memoizes uniform locations per program.
type uniformCache struct {
	dev  Device
	locs map[uint32]map[string]int32
}

func newUniformCache(dev Device) *uniformCache {
	return &uniformCache{dev: dev, locs: make(map[uint32]map[string]int32)}
}

func (c *uniformCache) location(program uint32, name string) int32 {
	m, ok := c.locs[program]
	if !ok {
		m = make(map[string]int32)
		c.locs[program] = m
	}
	if loc, ok := m[name]; ok {
		return loc
	}
	loc := c.dev.UniformLocation(program, name)
	m[name] = loc
	return loc
}

// forget drops the locations of a deleted or relinked program.
func (c *uniformCache) forget(program uint32) {
	delete(c.locs, program)
}

// requireMat4 fails with ErrUniformNotFound when the program lacks name.
func (c *uniformCache) requireMat4(program uint32, name string, m mgl32.Mat4) error {
	loc := c.location(program, name)
	if loc < 0 {
		return fmt.Errorf("%w: %s", ErrUniformNotFound, name)
	}
	c.dev.UniformMatrix4(loc, m)
	return nil
}

// The setters below skip uniforms the compiler optimized away.

func (c *uniformCache) setVec3(program uint32, name string, v mgl32.Vec3) {
	if loc := c.location(program, name); loc >= 0 {
		c.dev.Uniform3(loc, v)
	}
}

func (c *uniformCache) setVec2(program uint32, name string, v mgl32.Vec2) {
	if loc := c.location(program, name); loc >= 0 {
		c.dev.Uniform2(loc, v)
	}
}

func (c *uniformCache) setFloat(program uint32, name string, v float32) {
	if loc := c.location(program, name); loc >= 0 {
		c.dev.Uniform1f(loc, v)
	}
}

func (c *uniformCache) setInt(program uint32, name string, v int32) {
	if loc := c.location(program, name); loc >= 0 {
		c.dev.Uniform1i(loc, v)
	}
}

func (c *uniformCache) setBool(program uint32, name string, v bool) {
	var i int32
	if v {
		i = 1
	}
	c.setInt(program, name, i)
}

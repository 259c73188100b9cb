package wavefront

import (
	"github.com/achilleasa/wavepath/scene"
	"github.com/achilleasa/wavepath/types"
)

// MaterialProvider maps materials to shading kernels.
type MaterialProvider interface {
	// Map a material to its coherence key; 0 means the material is not
	// available yet.
	ResolveCoherenceKey(materialID uint32) uint32

	Material(materialID uint32) (scene.Material, bool)

	// The largest key ResolveCoherenceKey may return.
	MaxCoherenceKey() uint32
}

// Accelerator answers ray queries against the scene geometry.
type Accelerator interface {
	Intersect(r scene.Ray) (scene.Hit, bool)
	Occluded(origin, dir types.Vec3, maxDist float32) bool
}

// LightProvider exposes the lights sampled by next event estimation and the
// radiance of escaped rays.
type LightProvider interface {
	PointLights() []scene.PointLight
	SkyRadiance(dir types.Vec3) types.Vec3
}

// Provider bundles everything the shading kernels read from the scene.
type Provider interface {
	MaterialProvider
	Accelerator
	LightProvider
}

// ShaderLibrary reports the availability of the shading kernels.
type ShaderLibrary interface {
	// A version that changes whenever any kernel is reloaded.
	ContentVersion() int64

	Ready(key uint32) bool
}

// A committed per-pixel sample.
type Sample struct {
	Radiance types.Vec3

	// View-space depth of the primary hit.
	Depth float32

	// Denoiser guides captured at the first vertex.
	AuxAlbedo types.Vec3
	AuxNormal types.Vec3
	AuxMotion types.Vec2
}

// Accumulator receives committed samples. Accumulate is invoked concurrently
// for distinct pixels.
type Accumulator interface {
	Accumulate(x, y int, sample Sample)
}

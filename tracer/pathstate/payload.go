package pathstate

import "github.com/achilleasa/wavepath/types"

// The sort key of a path that is not scheduled for further work.
const InactiveKey uint32 = 0

type PathFlag uint32

const (
	// Roughness is clamped to the maximum seen along the path.
	PathRegularization PathFlag = 1 << iota
	// The path writes a debug view value instead of radiance.
	DebugViz
	// The path has terminated.
	Stopped
	// The current vertex is the last one the path will shade.
	LastBounce
)

// Per-slot path state carried between bounces.
type PathPayload struct {
	PixelPos [2]uint32

	// Accumulated radiance, pre-multiplied by the camera exposure.
	Radiance types.Vec3

	// Path throughput.
	Beta types.Vec3

	BounceIndex int32
	HashSeed    uint32
	Flags       PathFlag

	ConeSpreadAngle float32
	ConeWidth       float32

	MaxRoughness     float32
	LastSpecularness float32
	PathSpecularness float32

	// Debug view output; replaces radiance on commit when DebugViz is set.
	Debug types.Vec3

	// View-space depth of the primary hit; 0 when the primary ray missed.
	Depth float32

	// Denoiser guides captured at the first vertex.
	AuxAlbedo types.Vec3
	AuxNormal types.Vec3

	// Screen-space offset in pixels from the current to the previous frame
	// position of the primary hit.
	AuxMotion types.Vec2
}

// Set a flag.
func (p *PathPayload) Set(flag PathFlag) {
	p.Flags |= flag
}

// Check whether a flag is set.
func (p *PathPayload) Has(flag PathFlag) bool {
	return p.Flags&flag != 0
}

// Mark the path as terminated.
func (p *PathPayload) Stop() {
	p.Flags |= Stopped
}

// The geometry hit written by the last trace for a slot.
type GeometryHitPayload struct {
	Barycentrics   types.Vec2
	InstanceIndex  uint32
	PrimitiveIndex uint32
	MaterialIndex  uint32

	// Geometric normal at the hit.
	Normal types.Vec3

	// Origin and direction*length of the ray that produced the hit.
	Origin       types.Vec3
	RayDirLength types.Vec3
}

// Reconstruct the world-space hit position.
func (h *GeometryHitPayload) Position() types.Vec3 {
	return h.Origin.Add(h.RayDirLength)
}

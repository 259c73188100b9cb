package scene

import (
	"fmt"

	"github.com/achilleasa/wavepath/types"
)

type MaterialKind uint8

// The closed set of shading behaviors. Each kind is backed by one shading
// kernel and maps to its own coherence key.
const (
	DiffuseMaterial MaterialKind = iota
	MirrorMaterial
	GlossyMaterial
	EmissiveMaterial
	//
	NumMaterialKinds
)

func (k MaterialKind) String() string {
	switch k {
	case DiffuseMaterial:
		return "diffuse"
	case MirrorMaterial:
		return "mirror"
	case GlossyMaterial:
		return "glossy"
	case EmissiveMaterial:
		return "emissive"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

// Get the coherence key used for sorting paths that hit this kind of
// material. Key 0 is reserved for inactive paths.
func (k MaterialKind) CoherenceKey() uint32 {
	return uint32(k) + 1
}

// Defines a scene material.
type Material struct {
	Name string

	// The shading behavior.
	Kind MaterialKind

	// Base (albedo) color.
	BaseColor types.Vec3

	// Emitted radiance (emissive materials only).
	Emissive types.Vec3

	// Surface roughness in [0, 1]; used by glossy materials.
	Roughness float32
}

// Returns the roughness of the material as seen by a path. Delta materials
// have zero roughness and diffuse surfaces are fully rough.
func (m Material) EffectiveRoughness() float32 {
	switch m.Kind {
	case MirrorMaterial:
		return 0
	case GlossyMaterial:
		return m.Roughness
	default:
		return 1
	}
}

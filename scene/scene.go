package scene

import (
	"fmt"

	"github.com/achilleasa/wavepath/types"
)

// A point light; only sampled through next event estimation.
type PointLight struct {
	Position  types.Vec3
	Intensity types.Vec3
}

// The result of a successful ray query.
type Hit struct {
	T              float32
	Position       types.Vec3
	Normal         types.Vec3
	Barycentrics   types.Vec2
	InstanceIndex  uint32
	PrimitiveIndex uint32
	MaterialIndex  uint32
}

type Scene struct {
	Name   string
	Camera *Camera

	Materials  []Material
	Primitives []Primitive
	Lights     []PointLight

	// Constant sky radiance returned for rays that escape the scene.
	Sky types.Vec3
}

func NewScene(name string) *Scene {
	return &Scene{
		Name:       name,
		Materials:  make([]Material, 0),
		Primitives: make([]Primitive, 0),
	}
}

// Attach a camera to the scene.
func (s *Scene) SetCamera(camera *Camera) {
	s.Camera = camera
}

// Add a material to the scene and return its index.
func (s *Scene) AddMaterial(material Material) (uint32, error) {
	if material.Kind >= NumMaterialKinds {
		return 0, fmt.Errorf("scene: material %q has unsupported kind %s", material.Name, material.Kind)
	}
	s.Materials = append(s.Materials, material)
	return uint32(len(s.Materials) - 1), nil
}

// Add a primitive to the scene.
func (s *Scene) AddPrimitive(primitive Primitive) error {
	if int(primitive.Material) >= len(s.Materials) {
		return fmt.Errorf("scene: primitive references unknown material %d; ensure that the material is added to the scene before adding the primitive", primitive.Material)
	}
	s.Primitives = append(s.Primitives, primitive)
	return nil
}

// Add a point light to the scene.
func (s *Scene) AddLight(light PointLight) {
	s.Lights = append(s.Lights, light)
}

// Map a material to the coherence key of its shading kernel. Unknown
// materials map to key 0.
func (s *Scene) ResolveCoherenceKey(materialID uint32) uint32 {
	if int(materialID) >= len(s.Materials) {
		return 0
	}
	return s.Materials[materialID].Kind.CoherenceKey()
}

// Get the largest coherence key any material can resolve to.
func (s *Scene) MaxCoherenceKey() uint32 {
	return uint32(NumMaterialKinds)
}

// Lookup a material by index.
func (s *Scene) Material(materialID uint32) (Material, bool) {
	if int(materialID) >= len(s.Materials) {
		return Material{}, false
	}
	return s.Materials[materialID], true
}

// Get the point lights.
func (s *Scene) PointLights() []PointLight {
	return s.Lights
}

// Get the sky radiance for a ray that escaped the scene.
func (s *Scene) SkyRadiance(dir types.Vec3) types.Vec3 {
	return s.Sky
}

// Find the closest hit along the ray. The scene is small enough that a brute
// force loop over all primitives is used instead of a BVH.
func (s *Scene) Intersect(r Ray) (Hit, bool) {
	var hit Hit
	found := false
	for primIndex := range s.Primitives {
		prim := &s.Primitives[primIndex]
		t, n, uv, ok := prim.intersect(r)
		if !ok || (found && t >= hit.T) {
			continue
		}
		found = true
		hit = Hit{
			T:              t,
			Normal:         n,
			Barycentrics:   uv,
			InstanceIndex:  uint32(primIndex),
			PrimitiveIndex: 0,
			MaterialIndex:  prim.Material,
		}
	}

	if found {
		hit.Position = r.At(hit.T)
	}
	return hit, found
}

// Check whether anything blocks the segment from origin along dir up to
// maxDist.
func (s *Scene) Occluded(origin, dir types.Vec3, maxDist float32) bool {
	r := Ray{Origin: origin, Dir: dir}
	limit := maxDist - rayEpsilon
	for primIndex := range s.Primitives {
		if t, _, _, ok := s.Primitives[primIndex].intersect(r); ok && t < limit {
			return true
		}
	}
	return false
}

package scene

import (
	"errors"
	"fmt"
	"sort"

	"github.com/achilleasa/wavepath/types"
)

var ErrUnknownScene = errors.New("scene: unknown built-in scene")

type builder func() (*Scene, error)

var builtins = map[string]struct {
	description string
	build       builder
}{
	"quad-light": {"white lambertian quad lit by a point light under a black sky", QuadLight},
	"cornell":    {"cornell box with a mirror and a glossy sphere", Cornell},
	"spheres":    {"spheres of every material kind on a ground plane under a blue sky", Spheres},
}

// Get the sorted list of built-in scene names.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get the description of a built-in scene.
func BuiltinDescription(name string) string {
	return builtins[name].description
}

// Build a built-in scene by name.
func Builtin(name string) (*Scene, error) {
	b, exists := builtins[name]
	if !exists {
		return nil, fmt.Errorf("%w: %q", ErrUnknownScene, name)
	}
	return b.build()
}

// Parameters of the quad-light scene.
const (
	QuadLightCameraDist = 2
	QuadLightIntensity  = 10
)

// A large white lambertian quad on the z=0 plane facing a camera placed at
// (0, 0, QuadLightCameraDist) with a 90 degree FOV. A point light sits at
// the camera position and the sky is black.
func QuadLight() (*Scene, error) {
	sc := NewScene("quad-light")

	white, err := sc.AddMaterial(Material{Name: "white", Kind: DiffuseMaterial, BaseColor: types.Splat3(1)})
	if err != nil {
		return nil, err
	}
	if err = sc.AddPrimitive(NewQuad(types.XYZ(-5, -5, 0), types.XYZ(10, 0, 0), types.XYZ(0, 10, 0), white)); err != nil {
		return nil, err
	}

	sc.AddLight(PointLight{Position: types.XYZ(0, 0, QuadLightCameraDist), Intensity: types.Splat3(QuadLightIntensity)})

	cam := NewCamera(90)
	cam.Position = types.XYZ(0, 0, QuadLightCameraDist)
	cam.LookAt = types.XYZ(0, 0, 0)
	cam.Update()
	sc.SetCamera(cam)
	return sc, nil
}

func Cornell() (*Scene, error) {
	sc := NewScene("cornell")

	mats := []Material{
		{Name: "white", Kind: DiffuseMaterial, BaseColor: types.Splat3(0.73)},
		{Name: "red", Kind: DiffuseMaterial, BaseColor: types.XYZ(0.65, 0.05, 0.05)},
		{Name: "green", Kind: DiffuseMaterial, BaseColor: types.XYZ(0.12, 0.45, 0.15)},
		{Name: "light", Kind: EmissiveMaterial, BaseColor: types.Splat3(0.78), Emissive: types.Splat3(15)},
		{Name: "mirror", Kind: MirrorMaterial, BaseColor: types.Splat3(0.95)},
		{Name: "gold", Kind: GlossyMaterial, BaseColor: types.XYZ(1.0, 0.78, 0.34), Roughness: 0.3},
	}
	ids := make([]uint32, len(mats))
	for i, m := range mats {
		id, err := sc.AddMaterial(m)
		if err != nil {
			return nil, err
		}
		ids[i] = id
	}
	white, red, green, light, mirror, gold := ids[0], ids[1], ids[2], ids[3], ids[4], ids[5]

	prims := []Primitive{
		// floor, ceiling, back wall
		NewQuad(types.XYZ(-1, -1, -1), types.XYZ(0, 0, 2), types.XYZ(2, 0, 0), white),
		NewQuad(types.XYZ(-1, 1, -1), types.XYZ(2, 0, 0), types.XYZ(0, 0, 2), white),
		NewQuad(types.XYZ(-1, -1, -1), types.XYZ(2, 0, 0), types.XYZ(0, 2, 0), white),
		// left and right walls
		NewQuad(types.XYZ(-1, -1, -1), types.XYZ(0, 2, 0), types.XYZ(0, 0, 2), red),
		NewQuad(types.XYZ(1, -1, -1), types.XYZ(0, 0, 2), types.XYZ(0, 2, 0), green),
		// area light patch
		NewQuad(types.XYZ(-0.25, 0.999, -0.25), types.XYZ(0.5, 0, 0), types.XYZ(0, 0, 0.5), light),
		NewSphere(types.XYZ(-0.45, -0.6, -0.3), 0.4, mirror),
		NewSphere(types.XYZ(0.45, -0.65, 0.25), 0.35, gold),
	}
	for _, p := range prims {
		if err := sc.AddPrimitive(p); err != nil {
			return nil, err
		}
	}

	sc.AddLight(PointLight{Position: types.XYZ(0, 0.9, 0), Intensity: types.Splat3(1.5)})

	cam := NewCamera(40)
	cam.Position = types.XYZ(0, 0, 3.8)
	cam.LookAt = types.XYZ(0, 0, 0)
	cam.Update()
	sc.SetCamera(cam)
	return sc, nil
}

func Spheres() (*Scene, error) {
	sc := NewScene("spheres")
	sc.Sky = types.XYZ(0.5, 0.7, 1.0)

	ground, err := sc.AddMaterial(Material{Name: "ground", Kind: DiffuseMaterial, BaseColor: types.Splat3(0.5)})
	if err != nil {
		return nil, err
	}
	if err = sc.AddPrimitive(NewQuad(types.XYZ(-20, 0, -20), types.XYZ(0, 0, 40), types.XYZ(40, 0, 0), ground)); err != nil {
		return nil, err
	}

	spheres := []Material{
		{Name: "matte", Kind: DiffuseMaterial, BaseColor: types.XYZ(0.8, 0.3, 0.3)},
		{Name: "chrome", Kind: MirrorMaterial, BaseColor: types.Splat3(0.9)},
		{Name: "satin", Kind: GlossyMaterial, BaseColor: types.XYZ(0.3, 0.5, 0.8), Roughness: 0.5},
		{Name: "lamp", Kind: EmissiveMaterial, BaseColor: types.Splat3(0.8), Emissive: types.XYZ(4, 3.2, 2)},
	}
	for i, m := range spheres {
		id, err := sc.AddMaterial(m)
		if err != nil {
			return nil, err
		}
		x := float32(i)*1.1 - 1.65
		if err = sc.AddPrimitive(NewSphere(types.XYZ(x, 0.5, 0), 0.5, id)); err != nil {
			return nil, err
		}
	}

	sc.AddLight(PointLight{Position: types.XYZ(3, 5, 4), Intensity: types.Splat3(60)})

	cam := NewCamera(45)
	cam.Position = types.XYZ(0, 1.5, 5)
	cam.LookAt = types.XYZ(0, 0.5, 0)
	cam.Update()
	sc.SetCamera(cam)
	return sc, nil
}

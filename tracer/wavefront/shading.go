package wavefront

import (
	"math"

	"github.com/achilleasa/wavepath/scene"
	"github.com/achilleasa/wavepath/types"
)

// The outcome of sampling a BSDF.
type bsdfSample struct {
	dir types.Vec3

	// f * cos / pdf
	weight types.Vec3

	// How close the lobe is to a perfect mirror, in [0, 1].
	specularness float32

	valid bool
}

// A shading kernel evaluates and samples the BSDF of one material kind.
// Directions point away from the surface and n faces wo.
type shadingKernel struct {
	kind scene.MaterialKind

	// Evaluate f(wo, wi) without the cosine term; delta lobes return zero.
	eval func(mat *scene.Material, roughness float32, n, wo, wi types.Vec3) types.Vec3

	sample func(mat *scene.Material, roughness float32, n, wo types.Vec3, u1, u2 float32) bsdfSample
}

// Kernels indexed by coherence key. Key 0 marks inactive paths and has no
// kernel.
var shadingKernels = [...]*shadingKernel{
	nil,
	{scene.DiffuseMaterial, evalLambert, sampleLambert},
	{scene.MirrorMaterial, evalDelta, sampleMirror},
	{scene.GlossyMaterial, evalPhong, samplePhong},
	{scene.EmissiveMaterial, evalLambert, sampleLambert},
}

// Lookup the kernel for a coherence key.
func kernelForKey(key uint32) *shadingKernel {
	if key == 0 || int(key) >= len(shadingKernels) {
		return nil
	}
	return shadingKernels[key]
}

func evalLambert(mat *scene.Material, _ float32, n, wo, wi types.Vec3) types.Vec3 {
	if n.Dot(wi) <= 0 {
		return types.Vec3{}
	}
	return mat.BaseColor.Mul(1.0 / math.Pi)
}

func sampleLambert(mat *scene.Material, _ float32, n, wo types.Vec3, u1, u2 float32) bsdfSample {
	return bsdfSample{
		dir:    cosineSampleHemisphere(n, u1, u2),
		weight: mat.BaseColor,
		valid:  true,
	}
}

func evalDelta(*scene.Material, float32, types.Vec3, types.Vec3, types.Vec3) types.Vec3 {
	return types.Vec3{}
}

func sampleMirror(mat *scene.Material, _ float32, n, wo types.Vec3, _, _ float32) bsdfSample {
	return bsdfSample{
		dir:          wo.Mul(-1).Reflect(n),
		weight:       mat.BaseColor,
		specularness: 1,
		valid:        true,
	}
}

// Map roughness to a Phong exponent.
func phongExponent(roughness float32) float32 {
	e := 2/(roughness*roughness+1e-4) - 2
	if e < 1 {
		e = 1
	}
	return e
}

func evalPhong(mat *scene.Material, roughness float32, n, wo, wi types.Vec3) types.Vec3 {
	if n.Dot(wi) <= 0 {
		return types.Vec3{}
	}
	e := phongExponent(roughness)
	cosA := wo.Mul(-1).Reflect(n).Dot(wi)
	if cosA <= 0 {
		return types.Vec3{}
	}
	norm := (e + 2) / (2 * math.Pi) * float32(math.Pow(float64(cosA), float64(e)))
	return mat.BaseColor.Mul(norm)
}

func samplePhong(mat *scene.Material, roughness float32, n, wo types.Vec3, u1, u2 float32) bsdfSample {
	e := phongExponent(roughness)
	r := wo.Mul(-1).Reflect(n)

	cosA := float32(math.Pow(float64(u1), 1/float64(e+1)))
	sinA := float32(math.Sqrt(math.Max(0, float64(1-cosA*cosA))))
	phi := 2 * math.Pi * float64(u2)

	t, b := types.OrthoBasis(r)
	dir := t.Mul(sinA * float32(math.Cos(phi))).
		Add(b.Mul(sinA * float32(math.Sin(phi)))).
		Add(r.Mul(cosA)).
		Normalize()

	cosN := n.Dot(dir)
	if cosN <= 0 {
		return bsdfSample{}
	}
	return bsdfSample{
		dir:          dir,
		weight:       mat.BaseColor.Mul((e + 2) / (e + 1) * cosN),
		specularness: 1 - roughness,
		valid:        true,
	}
}

func cosineSampleHemisphere(n types.Vec3, u1, u2 float32) types.Vec3 {
	r := float32(math.Sqrt(float64(u1)))
	phi := 2 * math.Pi * float64(u2)
	z := float32(math.Sqrt(math.Max(0, float64(1-u1))))

	t, b := types.OrthoBasis(n)
	return t.Mul(r * float32(math.Cos(phi))).
		Add(b.Mul(r * float32(math.Sin(phi)))).
		Add(n.Mul(z)).
		Normalize()
}

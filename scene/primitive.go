package scene

import (
	"math"

	"github.com/achilleasa/wavepath/types"
)

// Minimum ray distance accepted as a hit; avoids self intersections.
const rayEpsilon = 1e-4

type PrimitiveType uint32

const (
	QuadPrimitive PrimitiveType = iota
	SpherePrimitive
)

// A ray with a normalized direction.
type Ray struct {
	Origin types.Vec3
	Dir    types.Vec3
}

// Get the point at distance t along the ray.
func (r Ray) At(t float32) types.Vec3 {
	return r.Origin.Add(r.Dir.Mul(t))
}

// Defines a scene primitive.
type Primitive struct {
	// The primitive type.
	Type PrimitiveType

	// Quad corner or sphere center.
	Origin types.Vec3

	// Quad edge vectors; the quad spans Origin + u*EdgeU + v*EdgeV for u,v in [0, 1].
	EdgeU types.Vec3
	EdgeV types.Vec3

	// Sphere radius.
	Radius float32

	// Index into the scene material list.
	Material uint32
}

// Create a new quad (parallelogram) primitive.
func NewQuad(origin, edgeU, edgeV types.Vec3, material uint32) Primitive {
	return Primitive{
		Type:     QuadPrimitive,
		Origin:   origin,
		EdgeU:    edgeU,
		EdgeV:    edgeV,
		Material: material,
	}
}

// Create new sphere primitive.
func NewSphere(origin types.Vec3, radius float32, material uint32) Primitive {
	return Primitive{
		Type:     SpherePrimitive,
		Origin:   origin,
		Radius:   radius,
		Material: material,
	}
}

// Intersect the primitive with a ray. Returns the hit distance, the
// geometric normal and the surface parameterization.
func (p *Primitive) intersect(r Ray) (float32, types.Vec3, types.Vec2, bool) {
	switch p.Type {
	case QuadPrimitive:
		return p.intersectQuad(r)
	case SpherePrimitive:
		return p.intersectSphere(r)
	}
	return 0, types.Vec3{}, types.Vec2{}, false
}

func (p *Primitive) intersectQuad(r Ray) (float32, types.Vec3, types.Vec2, bool) {
	n := p.EdgeU.Cross(p.EdgeV)
	denom := n.Dot(r.Dir)
	if float32(math.Abs(float64(denom))) < 1e-9 {
		return 0, types.Vec3{}, types.Vec2{}, false
	}

	t := n.Dot(p.Origin.Sub(r.Origin)) / denom
	if t < rayEpsilon {
		return 0, types.Vec3{}, types.Vec2{}, false
	}

	// Solve for the barycentrics by projecting onto the edge vectors
	d := r.At(t).Sub(p.Origin)
	nn := n.Dot(n)
	u := d.Cross(p.EdgeV).Dot(n) / nn
	v := p.EdgeU.Cross(d).Dot(n) / nn
	if u < 0 || u > 1 || v < 0 || v > 1 {
		return 0, types.Vec3{}, types.Vec2{}, false
	}

	return t, n.Normalize(), types.XY(u, v), true
}

func (p *Primitive) intersectSphere(r Ray) (float32, types.Vec3, types.Vec2, bool) {
	oc := r.Origin.Sub(p.Origin)
	b := oc.Dot(r.Dir)
	c := oc.Dot(oc) - p.Radius*p.Radius
	disc := b*b - c
	if disc < 0 {
		return 0, types.Vec3{}, types.Vec2{}, false
	}

	sq := float32(math.Sqrt(float64(disc)))
	t := -b - sq
	if t < rayEpsilon {
		t = -b + sq
		if t < rayEpsilon {
			return 0, types.Vec3{}, types.Vec2{}, false
		}
	}

	n := r.At(t).Sub(p.Origin).Normalize()
	u := 0.5 + float32(math.Atan2(float64(n[2]), float64(n[0])))/(2*math.Pi)
	v := 0.5 - float32(math.Asin(float64(n[1])))/math.Pi
	return t, n, types.XY(u, v), true
}

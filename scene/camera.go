package scene

import (
	"fmt"
	"math"

	"github.com/achilleasa/wavepath/types"
)

// Stores the ray directions at the four corners of the camera frustrum. It
// is used as a shortcut for generating per pixel rays via interpolation of
// the corner rays.
type Frustrum [4]types.Vec4

func (fr Frustrum) String() string {
	return fmt.Sprintf(
		"Frustrum Rays:\nTL : (%3.3f, %3.3f, %3.3f)\nTR : (%3.3f, %3.3f, %3.3f)\nBL : (%3.3f, %3.3f, %3.3f)\nBR : (%3.3f, %3.3f, %3.3f)",
		fr[0][0], fr[0][1], fr[0][2],
		fr[1][0], fr[1][1], fr[1][2],
		fr[2][0], fr[2][1], fr[2][2],
		fr[3][0], fr[3][1], fr[3][2],
	)
}

// The subset of camera state that invalidates accumulated samples when it
// changes.
type CameraPose struct {
	Position types.Vec3
	LookAt   types.Vec3
	Up       types.Vec3
	FOV      float32
}

// The camera type controls the scene camera.
type Camera struct {
	Position types.Vec3
	LookAt   types.Vec3
	Up       types.Vec3

	// Vertical field of view in degrees.
	FOV float32

	// Pre-exposure multiplier applied to radiance while shading.
	Exposure float32

	Frustrum Frustrum

	forward types.Vec3
	aspect  float32
}

func NewCamera(fov float32) *Camera {
	c := &Camera{
		Position: types.Vec3{0, 0, 0},
		LookAt:   types.Vec3{0, 0, -1},
		Up:       types.Vec3{0, 1, 0},
		FOV:      fov,
		Exposure: 1,
	}
	c.SetupProjection(1)
	return c
}

// Setup the viewport aspect ratio and recalculate the frustrum.
func (c *Camera) SetupProjection(aspect float32) {
	c.aspect = aspect
	c.Update()
}

// Get the camera pose.
func (c *Camera) Pose() CameraPose {
	return CameraPose{Position: c.Position, LookAt: c.LookAt, Up: c.Up, FOV: c.FOV}
}

// Get the normalized view direction.
func (c *Camera) Forward() types.Vec3 {
	return c.forward
}

// Rotate the camera position around its look-at target by angle radians
// about the up axis.
func (c *Camera) Orbit(angle float32) {
	q := types.QuatFromAxisAngle(c.Up.Normalize(), angle)
	c.Position = c.LookAt.Add(q.Rotate(c.Position.Sub(c.LookAt)))
	c.Update()
}

// Update the view basis and the frustrum corner rays.
func (c *Camera) Update() {
	c.forward = c.LookAt.Sub(c.Position).Normalize()
	right := c.forward.Cross(c.Up).Normalize()
	up := right.Cross(c.forward)

	halfH := float32(math.Tan(float64(c.FOV) * math.Pi / 360.0))
	halfW := halfH * c.aspect

	r := right.Mul(halfW)
	u := up.Mul(halfH)
	c.Frustrum[0] = c.forward.Sub(r).Add(u).Vec4(0)
	c.Frustrum[1] = c.forward.Add(r).Add(u).Vec4(0)
	c.Frustrum[2] = c.forward.Sub(r).Sub(u).Vec4(0)
	c.Frustrum[3] = c.forward.Add(r).Sub(u).Vec4(0)
}

// Generate a primary ray through the normalized viewport coordinates (u, v);
// (0, 0) is the top-left corner.
func (c *Camera) Ray(u, v float32) Ray {
	top := c.Frustrum[0].Mul(1 - u).Add(c.Frustrum[1].Mul(u))
	bottom := c.Frustrum[2].Mul(1 - u).Add(c.Frustrum[3].Mul(u))
	dir := top.Mul(1 - v).Add(bottom.Mul(v)).Vec3()
	return Ray{Origin: c.Position, Dir: dir.Normalize()}
}

// Get the angle subtended by a single pixel for a viewport of the given
// height. Used to seed ray cone spread.
func (c *Camera) PixelSpreadAngle(height int) float32 {
	if height <= 0 {
		return 0
	}
	halfH := math.Tan(float64(c.FOV) * math.Pi / 360.0)
	return float32(math.Atan(2 * halfH / float64(height)))
}

// Project a world-space point to normalized viewport coordinates; the inverse
// of Ray. Returns false for points behind the camera.
func (c *Camera) Project(p types.Vec3) (float32, float32, bool) {
	d := p.Sub(c.Position)
	z := d.Dot(c.forward)
	if z <= rayEpsilon {
		return 0, 0, false
	}

	right := c.forward.Cross(c.Up).Normalize()
	up := right.Cross(c.forward)
	halfH := float32(math.Tan(float64(c.FOV) * math.Pi / 360.0))
	halfW := halfH * c.aspect

	x := d.Dot(right) / (z * halfW)
	y := d.Dot(up) / (z * halfH)
	return (x + 1) * 0.5, (1 - y) * 0.5, true
}

// Get the view-space depth of a world-space point.
func (c *Camera) ViewDepth(p types.Vec3) float32 {
	return p.Sub(c.Position).Dot(c.forward)
}

package wavefront

import (
	"math"

	"github.com/achilleasa/wavepath/types"
)

// Extra headroom given to paths that so far only met specular surfaces.
const SpecularClampScale = 50

// Calculate the firefly clamp threshold. Variance falls with the square root
// of the sample count so the threshold grows with the target count. Mirror
// paths legitimately carry high energy and get a higher threshold.
func FireflyThreshold(userThreshold float32, targetSamples int, pathSpecularness float32) float32 {
	if targetSamples < 1 {
		targetSamples = 1
	}
	k := 4 + float32(math.Sqrt(float64(targetSamples)))
	scale := k * SpecularClampScale
	return userThreshold*k + userThreshold*pathSpecularness*scale
}

// Clamp each component of a contribution to threshold. Values equal to the
// threshold pass unchanged.
func ClampContribution(c types.Vec3, threshold float32) types.Vec3 {
	for i := 0; i < 3; i++ {
		if c[i] > threshold {
			c[i] = threshold
		}
	}
	return c
}

package accum

import (
	"github.com/achilleasa/wavepath/scene"
	"github.com/achilleasa/wavepath/tracer/wavefront"
)

// Settings captures everything that invalidates accumulated samples when it
// changes.
type Settings struct {
	Camera scene.CameraPose

	Width  int
	Height int

	MaxBounces   int
	AntiAliasing bool

	// Content version of the shading kernels.
	KernelVersion int64

	PathRegularization bool
	DebugView          wavefront.DebugView

	// The firefly threshold depends on the target count.
	TargetSamples    int
	FireflyClamp     bool
	FireflyThreshold float32

	DivergenceStress float32
}

// RequiresRestart reports whether samples accumulated with prev can not be
// blended with samples produced with cur.
func RequiresRestart(prev, cur Settings) bool {
	switch {
	case prev.Camera != cur.Camera:
		return true
	case prev.Width != cur.Width || prev.Height != cur.Height:
		return true
	case prev.MaxBounces != cur.MaxBounces:
		return true
	case prev.AntiAliasing != cur.AntiAliasing:
		return true
	case prev.KernelVersion != cur.KernelVersion:
		return true
	case prev.PathRegularization != cur.PathRegularization:
		return true
	case prev.DebugView != cur.DebugView:
		return true
	case prev.TargetSamples != cur.TargetSamples:
		return true
	case prev.FireflyClamp != cur.FireflyClamp || prev.FireflyThreshold != cur.FireflyThreshold:
		return true
	case prev.DivergenceStress != cur.DivergenceStress:
		return true
	}
	return false
}

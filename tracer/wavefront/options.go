package wavefront

import (
	"fmt"
	"strings"

	"github.com/achilleasa/wavepath/scene"
)

type DebugView uint8

// Debug views replace the committed radiance with a diagnostic value.
const (
	DebugViewNone DebugView = iota
	DebugViewBounceIndex
	DebugViewViewspaceDepth
	DebugViewGeometryNormal
	DebugViewMaterialBaseColor
	DebugViewMaterialID
	DebugViewShaderID
	DebugViewDenoiserAuxAlbedo
	DebugViewDenoiserAuxNormals
	//
	numDebugViews
)

var debugViewNames = [numDebugViews]string{
	"none",
	"bounce-index",
	"viewspace-depth",
	"geometry-normal",
	"material-base-color",
	"material-id",
	"shader-id",
	"denoiser-aux-albedo",
	"denoiser-aux-normals",
}

func (v DebugView) String() string {
	if v >= numDebugViews {
		return fmt.Sprintf("unknown(%d)", uint8(v))
	}
	return debugViewNames[v]
}

// Surface views only need the primary hit.
func (v DebugView) IsSurfaceView() bool {
	return v != DebugViewNone && v != DebugViewBounceIndex
}

// Get the names of all debug views.
func DebugViewNames() []string {
	return append([]string(nil), debugViewNames[:]...)
}

// Parse a debug view name.
func ParseDebugView(name string) (DebugView, error) {
	for i, n := range debugViewNames {
		if strings.EqualFold(n, name) {
			return DebugView(i), nil
		}
	}
	return DebugViewNone, fmt.Errorf("wavefront: unknown debug view %q; supported views: %s", name, strings.Join(debugViewNames[:], ", "))
}

// Per-sample tracing options.
type Options struct {
	MaxBounces int

	// Russian roulette is only applied when enabled and from this bounce on.
	RussianRoulette bool
	MinBouncesForRR int

	AntiAliasing bool

	// Amount of per-pixel ray direction noise in [0, 1] used to stress
	// coherence.
	DivergenceStress float32

	EnableFireflyClamp bool
	FireflyThreshold   float32

	PathRegularization bool
	PerBounceSort      bool

	DebugView DebugView

	// Capture albedo and normals at the first vertex.
	CaptureDenoiserAux bool
}

// The effective bounce limit; surface debug views only shade the primary hit.
func (o Options) EffectiveMaxBounces() int {
	if o.DebugView.IsSurfaceView() {
		return 0
	}
	return o.MaxBounces
}

// Everything needed to run one sample.
type SampleRequest struct {
	Provider Provider
	Shaders  ShaderLibrary
	Camera   scene.Camera

	// Camera of the previously presented frame; used to derive the motion
	// guide. Nil means no history and zero motion.
	PrevCamera *scene.Camera

	// Index of this sample within the accumulation run.
	SampleIndex int

	// Number of samples the run converges to; scales the firefly threshold.
	TargetSamples int

	Options Options

	// Run the sample without committing its results.
	IgnoreResults bool
}

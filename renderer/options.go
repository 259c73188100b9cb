package renderer

import (
	"github.com/achilleasa/wavepath/log"
	"github.com/achilleasa/wavepath/tracer/accum"
	"github.com/achilleasa/wavepath/tracer/wavefront"
)

// Hard limits for the configuration surface.
const (
	MaxBounces     = 1024
	MaxFrameDim    = 16384
	MinExposure    = 1e-4
	MaxExposure    = 1e4
	MinFireflyClip = 1e-3
	MaxFireflyClip = 1e6
)

type Options struct {
	Mode accum.Mode

	// Frame dims.
	FrameW int
	FrameH int

	// Number of bounces after the primary hit.
	NumBounces int

	// Min bounces before applying russian roulette for path elimination.
	RussianRoulette bool
	MinBouncesForRR int

	// Samples a static frame converges to.
	TargetSamples int

	// Samples per tick in real-time mode.
	RealTimeSamples int

	FireflyClamp     bool
	FireflyThreshold float32

	PathRegularization bool
	PerBounceSort      bool
	AntiAliasing       bool
	DivergenceStress   float32

	DebugView wavefront.DebugView

	// Denoise the real-time output.
	Denoise bool

	// Exposure for tonemapping.
	Exposure float32

	// Device setup; only read when the path tracer is created.
	Workers      int
	MemoryBudget int64
}

// Get the default options.
func DefaultOptions() Options {
	return Options{
		Mode:             accum.StaticAccumulate,
		FrameW:           512,
		FrameH:           512,
		NumBounces:       4,
		MinBouncesForRR:  3,
		TargetSamples:    256,
		RealTimeSamples:  1,
		FireflyClamp:     true,
		FireflyThreshold: 1,
		PerBounceSort:    true,
		AntiAliasing:     true,
		Exposure:         1,
	}
}

func clampInt(logger log.Logger, name string, v, min, max int) int {
	out := v
	if out < min {
		out = min
	} else if out > max {
		out = max
	}
	if out != v && logger != nil {
		logger.Debugf("clamping %s from %d to %d", name, v, out)
	}
	return out
}

func clampFloat(logger log.Logger, name string, v, min, max float32) float32 {
	out := v
	if out < min {
		out = min
	} else if out > max {
		out = max
	}
	if out != v && logger != nil {
		logger.Debugf("clamping %s from %g to %g", name, v, out)
	}
	return out
}

// Clamp returns a copy of the options with every value moved into its valid
// range. Adjustments are logged at debug level.
func (o Options) Clamp(logger log.Logger) Options {
	o.FrameW = clampInt(logger, "frame width", o.FrameW, 1, MaxFrameDim)
	o.FrameH = clampInt(logger, "frame height", o.FrameH, 1, MaxFrameDim)
	o.NumBounces = clampInt(logger, "bounce count", o.NumBounces, 0, MaxBounces)
	o.MinBouncesForRR = clampInt(logger, "min bounces for russian roulette", o.MinBouncesForRR, 0, MaxBounces)
	o.TargetSamples = clampInt(logger, "target samples", o.TargetSamples, 1, accum.MaxTargetSamples)
	o.RealTimeSamples = clampInt(logger, "real-time samples", o.RealTimeSamples, 1, accum.MaxRealTimeSamples)
	o.FireflyThreshold = clampFloat(logger, "firefly threshold", o.FireflyThreshold, MinFireflyClip, MaxFireflyClip)
	o.DivergenceStress = clampFloat(logger, "divergence stress", o.DivergenceStress, 0, 1)
	o.Exposure = clampFloat(logger, "exposure", o.Exposure, MinExposure, MaxExposure)

	if int(o.DebugView) >= len(wavefront.DebugViewNames()) {
		if logger != nil {
			logger.Debugf("unknown debug view %d; disabling debug output", o.DebugView)
		}
		o.DebugView = wavefront.DebugViewNone
	}
	if o.Mode != accum.StaticAccumulate && o.Mode != accum.RealTime {
		o.Mode = accum.StaticAccumulate
	}
	if o.Workers < 0 {
		o.Workers = 0
	}
	if o.MemoryBudget < 0 {
		o.MemoryBudget = 0
	}
	return o
}

// Get the per-sample tracing options.
func (o Options) tracingOptions() wavefront.Options {
	return wavefront.Options{
		MaxBounces:         o.NumBounces,
		RussianRoulette:    o.RussianRoulette,
		MinBouncesForRR:    o.MinBouncesForRR,
		AntiAliasing:       o.AntiAliasing,
		DivergenceStress:   o.DivergenceStress,
		EnableFireflyClamp: o.FireflyClamp,
		FireflyThreshold:   o.FireflyThreshold,
		PathRegularization: o.PathRegularization,
		PerBounceSort:      o.PerBounceSort,
		DebugView:          o.DebugView,
		CaptureDenoiserAux: o.Denoise || o.DebugView == wavefront.DebugViewDenoiserAuxAlbedo || o.DebugView == wavefront.DebugViewDenoiserAuxNormals,
	}
}

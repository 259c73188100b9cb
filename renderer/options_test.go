package renderer

import (
	"testing"

	"github.com/achilleasa/wavepath/tracer/accum"
	"github.com/achilleasa/wavepath/tracer/wavefront"
)

func TestOptionsClamp(t *testing.T) {
	specs := []struct {
		in  func(*Options)
		exp func(Options) bool
	}{
		{func(o *Options) { o.NumBounces = 5000 }, func(o Options) bool { return o.NumBounces == MaxBounces }},
		{func(o *Options) { o.NumBounces = -1 }, func(o Options) bool { return o.NumBounces == 0 }},
		{func(o *Options) { o.TargetSamples = 0 }, func(o Options) bool { return o.TargetSamples == 1 }},
		{func(o *Options) { o.TargetSamples = 1 << 30 }, func(o Options) bool { return o.TargetSamples == accum.MaxTargetSamples }},
		{func(o *Options) { o.RealTimeSamples = 100 }, func(o Options) bool { return o.RealTimeSamples == accum.MaxRealTimeSamples }},
		{func(o *Options) { o.DivergenceStress = 1.5 }, func(o Options) bool { return o.DivergenceStress == 1 }},
		{func(o *Options) { o.DivergenceStress = -1 }, func(o Options) bool { return o.DivergenceStress == 0 }},
		{func(o *Options) { o.FrameW, o.FrameH = 0, -3 }, func(o Options) bool { return o.FrameW == 1 && o.FrameH == 1 }},
		{func(o *Options) { o.Exposure = 0 }, func(o Options) bool { return o.Exposure == MinExposure }},
		{func(o *Options) { o.FireflyThreshold = -2 }, func(o Options) bool { return o.FireflyThreshold == MinFireflyClip }},
		{func(o *Options) { o.DebugView = 200 }, func(o Options) bool { return o.DebugView == wavefront.DebugViewNone }},
		{func(o *Options) { o.Workers, o.MemoryBudget = -1, -1 }, func(o Options) bool { return o.Workers == 0 && o.MemoryBudget == 0 }},
	}

	for specIndex, spec := range specs {
		opts := DefaultOptions()
		spec.in(&opts)
		if out := opts.Clamp(nil); !spec.exp(out) {
			t.Fatalf("[spec %d] unexpected clamped options %+v", specIndex, out)
		}
	}

	if DefaultOptions().Clamp(nil) != DefaultOptions() {
		t.Fatal("expected default options to be valid")
	}
}

func TestTracingOptions(t *testing.T) {
	opts := DefaultOptions()
	opts.DebugView = wavefront.DebugViewDenoiserAuxNormals
	if !opts.tracingOptions().CaptureDenoiserAux {
		t.Fatal("expected aux debug views to capture denoiser guides")
	}

	opts = DefaultOptions()
	if opts.tracingOptions().CaptureDenoiserAux {
		t.Fatal("expected denoiser guides to be skipped when not needed")
	}
	opts.Denoise = true
	if !opts.tracingOptions().CaptureDenoiserAux {
		t.Fatal("expected denoising to capture guides")
	}
}

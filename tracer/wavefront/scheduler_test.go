package wavefront

import (
	"math"
	"sync/atomic"
	"testing"

	"github.com/achilleasa/wavepath/log"
	"github.com/achilleasa/wavepath/scene"
	"github.com/achilleasa/wavepath/tracer/device"
	"github.com/achilleasa/wavepath/tracer/pathstate"
	"github.com/achilleasa/wavepath/tracer/sorter"
	"github.com/achilleasa/wavepath/types"
)

type testAccumulator struct {
	w, h   int
	values []types.Vec3
	depth  []float32
	albedo []types.Vec3
	motion []types.Vec2
	calls  atomic.Int64
}

func newTestAccumulator(w, h int) *testAccumulator {
	return &testAccumulator{
		w:      w,
		h:      h,
		values: make([]types.Vec3, w*h),
		depth:  make([]float32, w*h),
		albedo: make([]types.Vec3, w*h),
		motion: make([]types.Vec2, w*h),
	}
}

func (a *testAccumulator) Accumulate(x, y int, s Sample) {
	if x < 0 || y < 0 || x >= a.w || y >= a.h {
		panic("accumulate outside the viewport")
	}
	i := y*a.w + x
	a.values[i] = a.values[i].Add(s.Radiance)
	a.depth[i] = s.Depth
	a.albedo[i] = a.albedo[i].Add(s.AuxAlbedo)
	a.motion[i] = s.AuxMotion
	a.calls.Add(1)
}

func newTestScheduler(t *testing.T, w, h int) *Scheduler {
	dev := device.NewCPU(4, 0)
	store := pathstate.New(dev)
	if err := store.Resize(w, h); err != nil {
		t.Fatal(err)
	}
	return New(dev, store, sorter.New(dev), log.New("wavefront_test"))
}

func mustScene(t *testing.T, name string) *scene.Scene {
	sc, err := scene.Builtin(name)
	if err != nil {
		t.Fatal(err)
	}
	return sc
}

func defaultOptions() Options {
	return Options{
		MaxBounces:         4,
		AntiAliasing:       true,
		EnableFireflyClamp: true,
		FireflyThreshold:   1,
		PerBounceSort:      true,
		CaptureDenoiserAux: true,
	}
}

func TestFireflyClampBoundary(t *testing.T) {
	specs := []struct {
		user     float32
		target   int
		pathSpec float32
	}{
		{1, 64, 0},
		{0.5, 1, 1},
		{2, 1024, 0.25},
	}

	for specIndex, spec := range specs {
		threshold := FireflyThreshold(spec.user, spec.target, spec.pathSpec)

		k := 4 + float32(math.Sqrt(float64(spec.target)))
		exp := spec.user*k + spec.user*spec.pathSpec*k*SpecularClampScale
		if math.Abs(float64(threshold-exp)) > 1e-3 {
			t.Fatalf("[spec %d] expected threshold %f; got %f", specIndex, exp, threshold)
		}

		at := ClampContribution(types.XYZ(threshold, 0, threshold/2), threshold)
		if at != types.XYZ(threshold, 0, threshold/2) {
			t.Fatalf("[spec %d] expected contribution at threshold to pass unchanged; got %v", specIndex, at)
		}

		above := threshold + threshold*1e-3
		clamped := ClampContribution(types.XYZ(above, above, 0), threshold)
		if clamped != types.XYZ(threshold, threshold, 0) {
			t.Fatalf("[spec %d] expected contribution above threshold to clamp to %f; got %v", specIndex, threshold, clamped)
		}
	}

	if FireflyThreshold(1, 64, 1) <= FireflyThreshold(1, 64, 0) {
		t.Fatal("expected specular paths to get a higher threshold")
	}
}

func TestQuadLightDirectIllumination(t *testing.T) {
	sc := mustScene(t, "quad-light")
	s := newTestScheduler(t, 2, 2)
	acc := newTestAccumulator(2, 2)

	opts := defaultOptions()
	opts.MaxBounces = 1
	opts.AntiAliasing = false

	result, timings := s.RunSample(SampleRequest{
		Provider:      sc,
		Shaders:       scene.NewShaderCache(),
		Camera:        *sc.Camera,
		TargetSamples: 64,
		Options:       opts,
	}, acc)
	if !result.OK() {
		t.Fatalf("expected sample to succeed; got %s", result)
	}
	if len(timings) == 0 {
		t.Fatal("expected dispatch timings to be recorded")
	}

	// Every pixel center maps to a point at distance sqrt(6) from the light
	// with cos = 2/sqrt(6).
	cosTheta := 2 / math.Sqrt(6)
	exp := scene.QuadLightIntensity * cosTheta / (math.Pi * 6)
	for i, v := range acc.values {
		for c := 0; c < 3; c++ {
			if math.Abs(float64(v[c])-exp)/exp > 0.01 {
				t.Fatalf("pixel %d: expected radiance %f; got %v", i, exp, v)
			}
		}
		if math.Abs(float64(acc.depth[i])-2) > 1e-3 {
			t.Fatalf("pixel %d: expected view depth 2; got %f", i, acc.depth[i])
		}
	}
}

func runCornell(t *testing.T, opts Options, sampleIndex int) []types.Vec3 {
	sc := mustScene(t, "cornell")
	s := newTestScheduler(t, 24, 20)
	acc := newTestAccumulator(24, 20)

	result, _ := s.RunSample(SampleRequest{
		Provider:      sc,
		Shaders:       scene.NewShaderCache(),
		Camera:        *sc.Camera,
		SampleIndex:   sampleIndex,
		TargetSamples: 16,
		Options:       opts,
	}, acc)
	if !result.OK() {
		t.Fatalf("expected sample to succeed; got %s", result)
	}
	if got := acc.calls.Load(); got != 24*20 {
		t.Fatalf("expected one commit per viewport pixel (%d); got %d", 24*20, got)
	}
	return acc.values
}

func TestSortingDoesNotChangeResults(t *testing.T) {
	opts := defaultOptions()
	opts.PathRegularization = true
	opts.DivergenceStress = 0.3

	opts.PerBounceSort = true
	sortedRun := runCornell(t, opts, 3)

	opts.PerBounceSort = false
	unsortedRun := runCornell(t, opts, 3)

	for i := range sortedRun {
		if sortedRun[i] != unsortedRun[i] {
			t.Fatalf("pixel %d: sorted run %v differs from unsorted run %v", i, sortedRun[i], unsortedRun[i])
		}
	}
}

func TestDeterminism(t *testing.T) {
	opts := defaultOptions()
	opts.RussianRoulette = true
	opts.MinBouncesForRR = 1

	a := runCornell(t, opts, 5)
	b := runCornell(t, opts, 5)
	c := runCornell(t, opts, 6)

	differs := false
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("pixel %d: expected identical results for identical inputs; got %v and %v", i, a[i], b[i])
		}
		if a[i] != c[i] {
			differs = true
		}
	}
	if !differs {
		t.Fatal("expected a different sample index to produce a different sample")
	}
}

func TestShadersStillCompiling(t *testing.T) {
	sc := mustScene(t, "quad-light")
	shaders := scene.NewShaderCache()
	shaders.Reload(scene.DiffuseMaterial.CoherenceKey())

	s := newTestScheduler(t, 4, 4)
	result, _ := s.RunSample(SampleRequest{
		Provider:      sc,
		Shaders:       shaders,
		Camera:        *sc.Camera,
		TargetSamples: 1,
		Options:       defaultOptions(),
	}, newTestAccumulator(4, 4))
	if !result.Has(DrawResultShadersStillCompiling) {
		t.Fatalf("expected DrawResultShadersStillCompiling; got %s", result)
	}

	shaders.Compile()
	result, _ = s.RunSample(SampleRequest{
		Provider:      sc,
		Shaders:       shaders,
		Camera:        *sc.Camera,
		TargetSamples: 1,
		Options:       defaultOptions(),
	}, newTestAccumulator(4, 4))
	if !result.OK() {
		t.Fatalf("expected sample to succeed once kernels compiled; got %s", result)
	}
}

type loadingProvider struct {
	*scene.Scene
}

func (p loadingProvider) ResolveCoherenceKey(uint32) uint32 {
	return pathstate.InactiveKey
}

func TestAssetsStillLoading(t *testing.T) {
	sc := mustScene(t, "quad-light")
	s := newTestScheduler(t, 2, 2)
	result, _ := s.RunSample(SampleRequest{
		Provider:      loadingProvider{sc},
		Shaders:       scene.NewShaderCache(),
		Camera:        *sc.Camera,
		TargetSamples: 1,
		Options:       defaultOptions(),
	}, newTestAccumulator(2, 2))
	if !result.Has(DrawResultAssetsStillLoading) {
		t.Fatalf("expected DrawResultAssetsStillLoading; got %s", result)
	}
}

type panickingProvider struct {
	*scene.Scene
}

func (p panickingProvider) Intersect(scene.Ray) (scene.Hit, bool) {
	panic("acceleration structure corrupted")
}

func TestKernelFailureReportsUnspecifiedError(t *testing.T) {
	sc := mustScene(t, "quad-light")
	s := newTestScheduler(t, 2, 2)
	acc := newTestAccumulator(2, 2)
	result, _ := s.RunSample(SampleRequest{
		Provider:      panickingProvider{sc},
		Shaders:       scene.NewShaderCache(),
		Camera:        *sc.Camera,
		TargetSamples: 1,
		Options:       defaultOptions(),
	}, acc)
	if !result.Has(DrawResultUnspecifiedError) {
		t.Fatalf("expected DrawResultUnspecifiedError; got %s", result)
	}
	if acc.calls.Load() != 0 {
		t.Fatal("expected failed sample not to commit")
	}
}

func TestPaddingAndIgnoreResults(t *testing.T) {
	sc := mustScene(t, "spheres")
	s := newTestScheduler(t, 11, 5)

	acc := newTestAccumulator(11, 5)
	req := SampleRequest{
		Provider:      sc,
		Shaders:       scene.NewShaderCache(),
		Camera:        *sc.Camera,
		TargetSamples: 4,
		Options:       defaultOptions(),
	}
	if result, _ := s.RunSample(req, acc); !result.OK() {
		t.Fatalf("expected sample to succeed; got %s", result)
	}
	if got := acc.calls.Load(); got != 55 {
		t.Fatalf("expected 55 commits; got %d", got)
	}

	req.IgnoreResults = true
	acc = newTestAccumulator(11, 5)
	if result, _ := s.RunSample(req, acc); !result.OK() {
		t.Fatalf("expected sample to succeed; got %s", result)
	}
	if got := acc.calls.Load(); got != 0 {
		t.Fatalf("expected no commits when ignoring results; got %d", got)
	}
}

func TestMotionGuide(t *testing.T) {
	sc := mustScene(t, "quad-light")

	// Shifting the camera one unit to the right moves the plane at depth 2
	// by a quarter viewport, i.e. half a pixel in a 2x2 frame.
	shifted := *sc.Camera
	shifted.Position = shifted.Position.Add(types.XYZ(1, 0, 0))
	shifted.LookAt = shifted.LookAt.Add(types.XYZ(1, 0, 0))

	specs := []struct {
		prev *scene.Camera
		exp  types.Vec2
	}{
		{nil, types.Vec2{}},
		{sc.Camera, types.Vec2{}},
		{&shifted, types.XY(-0.5, 0)},
	}

	for specIndex, spec := range specs {
		s := newTestScheduler(t, 2, 2)
		acc := newTestAccumulator(2, 2)
		opts := defaultOptions()
		opts.AntiAliasing = false
		opts.MaxBounces = 1

		result, _ := s.RunSample(SampleRequest{
			Provider:      sc,
			Shaders:       scene.NewShaderCache(),
			Camera:        *sc.Camera,
			PrevCamera:    spec.prev,
			TargetSamples: 1,
			Options:       opts,
		}, acc)
		if !result.OK() {
			t.Fatalf("[spec %d] expected sample to succeed; got %s", specIndex, result)
		}
		for i, m := range acc.motion {
			if math.Abs(float64(m[0]-spec.exp[0])) > 1e-4 || math.Abs(float64(m[1]-spec.exp[1])) > 1e-4 {
				t.Fatalf("[spec %d] pixel %d: expected motion %v; got %v", specIndex, i, spec.exp, m)
			}
		}
	}
}

func TestDebugViews(t *testing.T) {
	sc := mustScene(t, "quad-light")

	specs := []struct {
		view DebugView
		exp  types.Vec3
	}{
		{DebugViewGeometryNormal, types.XYZ(0.5, 0.5, 1)},
		{DebugViewMaterialBaseColor, types.Splat3(1)},
		{DebugViewViewspaceDepth, types.Splat3(2)},
		{DebugViewShaderID, idColor(scene.DiffuseMaterial.CoherenceKey())},
		{DebugViewBounceIndex, types.Splat3(0.5)},
	}

	for specIndex, spec := range specs {
		s := newTestScheduler(t, 2, 2)
		acc := newTestAccumulator(2, 2)
		opts := defaultOptions()
		opts.AntiAliasing = false
		opts.MaxBounces = 2
		opts.DebugView = spec.view

		result, _ := s.RunSample(SampleRequest{
			Provider:      sc,
			Shaders:       scene.NewShaderCache(),
			Camera:        *sc.Camera,
			TargetSamples: 1,
			Options:       opts,
		}, acc)
		if !result.OK() {
			t.Fatalf("[spec %d] expected sample to succeed; got %s", specIndex, result)
		}
		for i, v := range acc.values {
			if !types.ApproxEqual(v, spec.exp, 1e-3) {
				t.Fatalf("[spec %d] pixel %d: expected debug value %v; got %v", specIndex, i, spec.exp, v)
			}
		}
	}
}

func TestParseDebugView(t *testing.T) {
	for _, name := range DebugViewNames() {
		v, err := ParseDebugView(name)
		if err != nil {
			t.Fatal(err)
		}
		if v.String() != name {
			t.Fatalf("expected view %q to round-trip; got %q", name, v.String())
		}
	}
	if _, err := ParseDebugView("bogus"); err == nil {
		t.Fatal("expected error for unknown debug view")
	}
	if !DebugViewMaterialID.IsSurfaceView() || DebugViewBounceIndex.IsSurfaceView() {
		t.Fatal("unexpected surface view classification")
	}
}

func TestDrawResultString(t *testing.T) {
	r := DrawResultShadersStillCompiling | DrawResultAssetsStillLoading
	if r.String() != "shaders still compiling|assets still loading" {
		t.Fatalf("unexpected draw result string %q", r.String())
	}
	if DrawResultNone.String() != "none" || !DrawResultNone.OK() {
		t.Fatal("unexpected string for DrawResultNone")
	}
}

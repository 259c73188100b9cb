package wavefront

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/achilleasa/wavepath/log"
	"github.com/achilleasa/wavepath/scene"
	"github.com/achilleasa/wavepath/tracer/device"
	"github.com/achilleasa/wavepath/tracer/pathstate"
	"github.com/achilleasa/wavepath/tracer/sorter"
	"github.com/achilleasa/wavepath/types"
)

const (
	// Offset applied along the normal to avoid self intersections.
	surfaceOffset = 1e-3

	// Max direction perturbation applied at full divergence stress.
	divergenceScale = 0.25

	// Cone spread added per bounce at full roughness.
	coneRoughnessSpread = 0.5

	minRussianRouletteSurvival = 0.05
)

// Timing information for a single dispatch.
type DispatchTiming struct {
	Kernel   string
	Bounce   int
	Items    int
	Duration time.Duration
}

// The dispatches issued for a sample.
type Timings []DispatchTiming

// Get the total time spent in dispatches.
func (t Timings) Total() time.Duration {
	var total time.Duration
	for _, d := range t {
		total += d.Duration
	}
	return total
}

// Scheduler runs samples as a sequence of dispatches: kickoff, a trace
// dispatch per bounce that is optionally preceded by a sort, and a commit.
type Scheduler struct {
	dev    *device.Device
	store  *pathstate.Store
	sorter *sorter.Sorter
	logger log.Logger
}

// Create a scheduler that drives paths stored in store.
func New(dev *device.Device, store *pathstate.Store, sorter *sorter.Sorter, logger log.Logger) *Scheduler {
	return &Scheduler{
		dev:    dev,
		store:  store,
		sorter: sorter,
		logger: logger,
	}
}

// RunSample traces one path per pixel and commits the results to acc. The
// returned DrawResult is DrawResultNone only if every path could be shaded.
func (s *Scheduler) RunSample(req SampleRequest, acc Accumulator) (DrawResult, Timings) {
	var timings Timings

	capacity := s.store.Capacity()
	if capacity == 0 || req.Provider == nil || req.Shaders == nil {
		s.logger.Errorf("sample %d: scheduler is not ready (capacity %d)", req.SampleIndex, capacity)
		return DrawResultUnspecifiedError, timings
	}

	ctx := newSampleContext(s.store, &req, acc)
	record := func(kernel kernelType, bounce, items int, elapsed time.Duration) {
		timings = append(timings, DispatchTiming{Kernel: kernel.String(), Bounce: bounce, Items: items, Duration: elapsed})
	}
	fail := func(kernel kernelType, err error) (DrawResult, Timings) {
		s.logger.Errorf("sample %d: %s dispatch failed: %v", req.SampleIndex, kernel, err)
		return ctx.drawResult() | DrawResultUnspecifiedError, timings
	}

	elapsed, err := s.dev.Exec1D(kickoffPaths, capacity, ctx.kickoff)
	record(kickoffPaths, -1, capacity, elapsed)
	if err != nil {
		return fail(kickoffPaths, err)
	}

	keys := s.store.Keys()
	sorted := s.store.Sorted()
	if !ctx.opts.PerBounceSort {
		elapsed, err = s.sorter.Identity(sorted)
		record(identityPaths, -1, capacity, elapsed)
		if err != nil {
			return fail(identityPaths, err)
		}
	}

	bounces := 0
	for bounce := 0; bounce <= ctx.maxBounces; bounce++ {
		active := capacity
		if ctx.opts.PerBounceSort {
			active, elapsed, err = s.sorter.Sort(keys, sorted, ctx.maxKey)
			record(sortPaths, bounce, capacity, elapsed)
			if err != nil {
				return fail(sortPaths, err)
			}
			if active == 0 {
				break
			}
		}

		ctx.refreshKernelTable()
		ctx.alive.Store(0)
		elapsed, err = s.dev.Exec1D(tracePaths, active, func(i int) {
			ctx.trace(int(sorted[i]), bounce)
		})
		record(tracePaths, bounce, active, elapsed)
		if err != nil {
			return fail(tracePaths, err)
		}

		bounces++
		if ctx.alive.Load() == 0 {
			break
		}
	}

	if !req.IgnoreResults && acc != nil {
		elapsed, err = s.dev.Exec1D(commitPaths, capacity, ctx.commit)
		record(commitPaths, -1, capacity, elapsed)
		if err != nil {
			return fail(commitPaths, err)
		}
	}

	result := ctx.drawResult()
	s.logger.Debugf("sample %d: %d trace dispatches, result %s, %s", req.SampleIndex, bounces, result, timings.Total())
	return result, timings
}

// State shared read-only by all kernels of a sample, plus atomically
// updated counters.
type sampleContext struct {
	store    *pathstate.Store
	payloads []pathstate.PathPayload
	hits     []pathstate.GeometryHitPayload
	keys     []uint32

	provider Provider
	shaders  ShaderLibrary
	acc      Accumulator
	lights   []scene.PointLight
	camera   scene.Camera

	prevCamera    scene.Camera
	hasPrevCamera bool

	opts          Options
	sampleIndex   uint32
	targetSamples int
	maxBounces    int
	maxKey        uint32
	exposure      float32
	width         int
	height        int
	pixelSpread   float32

	// Kernel readiness indexed by coherence key; refreshed before every
	// trace dispatch.
	ready []bool

	result atomic.Uint32
	alive  atomic.Int64
}

func newSampleContext(store *pathstate.Store, req *SampleRequest, acc Accumulator) *sampleContext {
	c := &sampleContext{
		store:         store,
		payloads:      store.Payloads(),
		hits:          store.Hits(),
		keys:          store.Keys(),
		provider:      req.Provider,
		shaders:       req.Shaders,
		acc:           acc,
		lights:        req.Provider.PointLights(),
		camera:        req.Camera,
		opts:          req.Options,
		sampleIndex:   uint32(req.SampleIndex),
		targetSamples: req.TargetSamples,
		maxBounces:    req.Options.EffectiveMaxBounces(),
		maxKey:        req.Provider.MaxCoherenceKey(),
		exposure:      req.Camera.Exposure,
		width:         store.Width(),
		height:        store.Height(),
	}
	if c.maxBounces < 0 {
		c.maxBounces = 0
	}
	if c.exposure <= 0 {
		c.exposure = 1
	}
	c.camera.SetupProjection(float32(c.width) / float32(c.height))
	if req.PrevCamera != nil {
		c.prevCamera = *req.PrevCamera
		c.prevCamera.SetupProjection(float32(c.width) / float32(c.height))
		c.hasPrevCamera = true
	}
	c.pixelSpread = c.camera.PixelSpreadAngle(c.height)
	c.ready = make([]bool, c.maxKey+1)
	return c
}

func (c *sampleContext) refreshKernelTable() {
	for key := range c.ready {
		c.ready[key] = key != 0 && c.shaders.Ready(uint32(key))
	}
}

func (c *sampleContext) report(result DrawResult) {
	c.result.Or(uint32(result))
}

func (c *sampleContext) drawResult() DrawResult {
	return DrawResult(c.result.Load())
}

// Terminate a path and remove it from further dispatches.
func (c *sampleContext) stop(slot int, p *pathstate.PathPayload) {
	c.keys[slot] = pathstate.InactiveKey
	p.Stop()
	if c.opts.DebugView == DebugViewBounceIndex {
		denom := c.maxBounces
		if denom < 1 {
			denom = 1
		}
		p.Debug = types.Splat3(float32(p.BounceIndex) / float32(denom))
	}
}

// Add a pre-exposed contribution weighted by the path throughput.
func (c *sampleContext) addRadiance(p *pathstate.PathPayload, li types.Vec3) {
	if c.opts.EnableFireflyClamp {
		li = ClampContribution(li, FireflyThreshold(c.opts.FireflyThreshold, c.targetSamples, p.PathSpecularness))
	}
	p.Radiance = p.Radiance.Add(li.MulVec(p.Beta))
}

// Trace a ray for a slot. On a hit the geometry payload and sort key are
// updated and true is returned; on a miss the sky is added and the path
// stops.
func (c *sampleContext) traceRay(slot int, p *pathstate.PathPayload, r scene.Ray) bool {
	hit, ok := c.provider.Intersect(r)
	if !ok {
		c.addRadiance(p, c.provider.SkyRadiance(r.Dir).Mul(c.exposure))
		c.stop(slot, p)
		return false
	}

	c.hits[slot] = pathstate.GeometryHitPayload{
		Barycentrics:   hit.Barycentrics,
		InstanceIndex:  hit.InstanceIndex,
		PrimitiveIndex: hit.PrimitiveIndex,
		MaterialIndex:  hit.MaterialIndex,
		Normal:         hit.Normal,
		Origin:         r.Origin,
		RayDirLength:   r.Dir.Mul(hit.T),
	}

	key := c.provider.ResolveCoherenceKey(hit.MaterialIndex)
	if key == pathstate.InactiveKey {
		c.report(DrawResultAssetsStillLoading)
		c.stop(slot, p)
		return false
	}

	c.keys[slot] = key
	p.ConeWidth += p.ConeSpreadAngle * hit.T
	return true
}

// Initialize the path for a slot and resolve its primary hit.
func (c *sampleContext) kickoff(slot int) {
	p := &c.payloads[slot]
	x, y := c.store.SlotToPixel(slot)
	if x >= c.width || y >= c.height {
		*p = pathstate.PathPayload{Flags: pathstate.Stopped}
		c.keys[slot] = pathstate.InactiveKey
		return
	}

	seed := pathSeed(uint32(y*c.width+x), c.sampleIndex)

	jx, jy := float32(0.5), float32(0.5)
	if c.opts.AntiAliasing {
		h := hashCombine(seed, hashSeedAAJitter)
		jx, jy = hashToFloat(h), hashToFloat(hash32(h))
	}

	ray := c.camera.Ray((float32(x)+jx)/float32(c.width), (float32(y)+jy)/float32(c.height))
	if c.opts.DivergenceStress > 0 {
		h := hashCombine(seed, hashSeedDivergence)
		h2 := hash32(h)
		noise := types.XYZ(hashToFloat(h)*2-1, hashToFloat(h2)*2-1, hashToFloat(hash32(h2))*2-1)
		ray.Dir = ray.Dir.Add(noise.Mul(c.opts.DivergenceStress * divergenceScale)).Normalize()
	}

	*p = pathstate.PathPayload{
		PixelPos:         [2]uint32{uint32(x), uint32(y)},
		Beta:             types.Splat3(1),
		HashSeed:         seed,
		ConeSpreadAngle:  c.pixelSpread,
		PathSpecularness: 1,
	}
	if c.opts.PathRegularization {
		p.Set(pathstate.PathRegularization)
	}
	if c.opts.DebugView != DebugViewNone {
		p.Set(pathstate.DebugViz)
	}

	if c.traceRay(slot, p, ray) {
		p.Depth = c.camera.ViewDepth(c.hits[slot].Position())
	}
}

// Shade the current vertex of a path and trace its continuation.
func (c *sampleContext) trace(slot int, bounce int) {
	key := c.keys[slot]
	if key == pathstate.InactiveKey {
		return
	}

	p := &c.payloads[slot]
	h := &c.hits[slot]

	kernel := kernelForKey(key)
	if kernel == nil || int(key) >= len(c.ready) {
		c.report(DrawResultUnspecifiedError)
		c.stop(slot, p)
		return
	}
	if !c.ready[key] {
		c.report(DrawResultShadersStillCompiling)
		c.stop(slot, p)
		return
	}
	mat, ok := c.provider.Material(h.MaterialIndex)
	if !ok {
		c.report(DrawResultAssetsStillLoading)
		c.stop(slot, p)
		return
	}

	pos := h.Position()
	wo := h.RayDirLength.Normalize().Mul(-1)
	n := h.Normal
	if n.Dot(wo) < 0 {
		n = n.Mul(-1)
	}

	roughness := mat.EffectiveRoughness()
	if p.Has(pathstate.PathRegularization) && roughness < p.MaxRoughness {
		roughness = p.MaxRoughness
	}

	if bounce == 0 {
		if c.opts.CaptureDenoiserAux {
			p.AuxAlbedo = mat.BaseColor
			p.AuxNormal = n
			p.AuxMotion = c.motion(pos)
		}
		if c.opts.DebugView.IsSurfaceView() {
			p.Debug = c.debugValue(p, h, &mat, key, n)
			c.stop(slot, p)
			return
		}
	}

	last := bounce >= c.maxBounces
	if last {
		p.Set(pathstate.LastBounce)
	}

	if !mat.Emissive.IsZero() {
		c.addRadiance(p, mat.Emissive.Mul(c.exposure))
	}

	// Next event estimation
	origin := pos.Add(n.Mul(surfaceOffset))
	for _, light := range c.lights {
		toLight := light.Position.Sub(origin)
		dist := toLight.Len()
		if dist <= 0 {
			continue
		}
		wi := toLight.Mul(1 / dist)
		cosI := n.Dot(wi)
		if cosI <= 0 {
			continue
		}
		f := kernel.eval(&mat, roughness, n, wo, wi)
		if f.IsZero() || c.provider.Occluded(origin, wi, dist) {
			continue
		}
		li := light.Intensity.Mul(c.exposure * cosI / (dist * dist))
		c.addRadiance(p, f.MulVec(li))
	}

	p.BounceIndex++
	if last {
		c.stop(slot, p)
		return
	}

	u1 := nextFloat(&p.HashSeed)
	u2 := nextFloat(&p.HashSeed)
	bs := kernel.sample(&mat, roughness, n, wo, u1, u2)
	if !bs.valid || bs.weight.IsZero() {
		c.stop(slot, p)
		return
	}

	p.Beta = p.Beta.MulVec(bs.weight)
	p.LastSpecularness = bs.specularness
	p.PathSpecularness *= bs.specularness
	if roughness > p.MaxRoughness {
		p.MaxRoughness = roughness
	}
	p.ConeSpreadAngle += roughness * roughness * coneRoughnessSpread

	if c.opts.RussianRoulette && int(p.BounceIndex) >= c.opts.MinBouncesForRR {
		survival := p.Beta.MaxComponent()
		if survival < minRussianRouletteSurvival {
			survival = minRussianRouletteSurvival
		}
		if survival < 1 {
			if streamFloat(p.HashSeed, hashSeedRussianRoulette) >= survival {
				c.stop(slot, p)
				return
			}
			p.Beta = p.Beta.Mul(1 / survival)
		}
	}

	if c.traceRay(slot, p, scene.Ray{Origin: origin, Dir: bs.dir}) {
		c.alive.Add(1)
	}
}

// Write the final value of a path to the accumulator.
func (c *sampleContext) commit(slot int) {
	if !c.store.InViewport(slot) {
		return
	}

	p := &c.payloads[slot]
	value := p.Radiance.Mul(1 / c.exposure)
	if p.Has(pathstate.DebugViz) {
		value = p.Debug
	}

	c.acc.Accumulate(int(p.PixelPos[0]), int(p.PixelPos[1]), Sample{
		Radiance:  value,
		Depth:     p.Depth,
		AuxAlbedo: p.AuxAlbedo,
		AuxNormal: p.AuxNormal,
		AuxMotion: p.AuxMotion,
	})
}

// Get the pixel offset of a world-space point between the current and the
// previous camera. Points that were not visible before get zero motion.
func (c *sampleContext) motion(pos types.Vec3) types.Vec2 {
	if !c.hasPrevCamera {
		return types.Vec2{}
	}
	pu, pv, okPrev := c.prevCamera.Project(pos)
	cu, cv, okCur := c.camera.Project(pos)
	if !okPrev || !okCur {
		return types.Vec2{}
	}
	return types.XY((pu-cu)*float32(c.width), (pv-cv)*float32(c.height))
}

func (c *sampleContext) debugValue(p *pathstate.PathPayload, h *pathstate.GeometryHitPayload, mat *scene.Material, key uint32, n types.Vec3) types.Vec3 {
	switch c.opts.DebugView {
	case DebugViewViewspaceDepth:
		return types.Splat3(p.Depth)
	case DebugViewGeometryNormal, DebugViewDenoiserAuxNormals:
		return n.Mul(0.5).Add(types.Splat3(0.5))
	case DebugViewMaterialBaseColor, DebugViewDenoiserAuxAlbedo:
		return mat.BaseColor
	case DebugViewMaterialID:
		return idColor(h.MaterialIndex)
	case DebugViewShaderID:
		return idColor(key)
	}
	return types.Vec3{}
}

// Map an id to a stable pseudo-random color.
func idColor(id uint32) types.Vec3 {
	h := hash32(id + 1)
	return types.XYZ(
		float32(h&0xff)/255,
		float32((h>>8)&0xff)/255,
		float32((h>>16)&0xff)/255,
	)
}

// Implements Stringer.
func (t DispatchTiming) String() string {
	if t.Bounce < 0 {
		return fmt.Sprintf("%s (%d items): %s", t.Kernel, t.Items, t.Duration)
	}
	return fmt.Sprintf("%s [bounce %d] (%d items): %s", t.Kernel, t.Bounce, t.Items, t.Duration)
}

package renderer

import (
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/achilleasa/wavepath/log"
	"github.com/achilleasa/wavepath/scene"
	"github.com/achilleasa/wavepath/tracer/accum"
	"github.com/achilleasa/wavepath/tracer/denoise"
	"github.com/achilleasa/wavepath/tracer/device"
	"github.com/achilleasa/wavepath/tracer/pathstate"
	"github.com/achilleasa/wavepath/tracer/sorter"
	"github.com/achilleasa/wavepath/tracer/wavefront"
	"github.com/achilleasa/wavepath/types"
)

const denoiseStage device.KernelName = "denoise"

// The output of a tick.
type FrameResult struct {
	Width  int
	Height int

	// Tone-mapped output.
	Image *image.RGBA

	// Accumulated radiance (xyz) and primary hit depth (w). The slice is
	// owned by the path tracer and is only valid until the next Tick.
	Radiance []types.Vec4

	// Combined result of all samples drawn during the tick.
	Result wavefront.DrawResult

	Stats FrameStats
}

// PathTracer renders a scene progressively. Every call to Tick produces one
// or more samples per pixel, blends them into the accumulation buffer and
// post-processes the result into an image.
type PathTracer struct {
	logger log.Logger

	dev        *device.Device
	store      *pathstate.Store
	sorter     *sorter.Sorter
	scheduler  *wavefront.Scheduler
	controller *accum.Controller
	bridge     *denoise.Bridge

	scene   *scene.Scene
	camera  scene.Camera
	shaders wavefront.ShaderLibrary
	options Options

	// Camera used by the previous tick; feeds the motion guide.
	prevCamera    scene.Camera
	hasPrevCamera bool

	// Post-processing stages; rebuilt when options change.
	PostProcess []PipelineStage

	updateMutex  sync.Mutex
	updateBuffer map[UpdateType]interface{}

	tick  int
	frame FrameResult
	stats FrameStats
}

// Create a path tracer for the given scene. The scene must define a camera.
// Options are clamped to their valid ranges.
func NewPathTracer(sc *scene.Scene, shaders wavefront.ShaderLibrary, opts Options, logger log.Logger) (*PathTracer, error) {
	if logger == nil {
		logger = log.New("path tracer")
	}
	if shaders == nil {
		shaders = scene.NewShaderCache()
	}

	opts = opts.Clamp(logger)
	dev := device.NewCPU(opts.Workers, opts.MemoryBudget)
	store := pathstate.New(dev)
	srt := sorter.New(dev)

	pt := &PathTracer{
		logger:       logger,
		dev:          dev,
		store:        store,
		sorter:       srt,
		scheduler:    wavefront.New(dev, store, srt, logger),
		controller:   accum.New(opts.Mode, opts.TargetSamples, opts.RealTimeSamples),
		bridge:       denoise.NewBridge(denoise.NewBilateralEngine(), logger),
		shaders:      shaders,
		updateBuffer: make(map[UpdateType]interface{}, 0),
	}

	if err := pt.setScene(sc); err != nil {
		return nil, err
	}
	pt.setOptions(opts)

	logger.Infof("using %s", dev)
	return pt, nil
}

// Replace the denoise engine. A nil engine disables denoising.
func (pt *PathTracer) SetDenoiser(engine denoise.Engine) {
	pt.bridge = denoise.NewBridge(engine, pt.logger)
}

func (pt *PathTracer) setScene(sc *scene.Scene) error {
	if sc == nil {
		return ErrSceneNotDefined
	}
	if sc.Camera == nil {
		return fmt.Errorf("%w: scene %q", ErrCameraNotDefined, sc.Name)
	}
	pt.scene = sc
	pt.camera = *sc.Camera
	pt.hasPrevCamera = false

	// Geometry and materials are not part of the restart settings so a new
	// scene always starts a new run.
	pt.controller.Reset()
	return nil
}

func (pt *PathTracer) setOptions(opts Options) {
	opts = opts.Clamp(pt.logger)

	// A zero frame width means the path tracer is still being set up.
	if pt.options.FrameW != 0 && (opts.Workers != pt.options.Workers || opts.MemoryBudget != pt.options.MemoryBudget) {
		pt.logger.Warning("device settings can only be changed when the path tracer is created; ignoring")
		opts.Workers, opts.MemoryBudget = pt.options.Workers, pt.options.MemoryBudget
	}

	pt.options = opts
	pt.controller.SetMode(opts.Mode)
	pt.controller.SetTarget(opts.TargetSamples)
	pt.controller.SetRealTimeSamples(opts.RealTimeSamples)
	pt.PostProcess = DefaultPipeline(opts)
}

// Get the active options.
func (pt *PathTracer) Options() Options {
	return pt.options
}

// Get the device the path tracer runs on.
func (pt *PathTracer) Device() *device.Device {
	return pt.dev
}

// Get the accumulation controller.
func (pt *PathTracer) Controller() *accum.Controller {
	return pt.controller
}

// Retrieve last frame statistics.
func (pt *PathTracer) Stats() FrameStats {
	return pt.stats
}

// Build the settings that decide whether accumulated samples are still valid.
func (pt *PathTracer) settings() accum.Settings {
	opts := pt.options
	return accum.Settings{
		Camera:             pt.camera.Pose(),
		Width:              opts.FrameW,
		Height:             opts.FrameH,
		MaxBounces:         opts.NumBounces,
		AntiAliasing:       opts.AntiAliasing,
		KernelVersion:      pt.shaders.ContentVersion(),
		PathRegularization: opts.PathRegularization,
		DebugView:          opts.DebugView,
		TargetSamples:      opts.TargetSamples,
		FireflyClamp:       opts.FireflyClamp,
		FireflyThreshold:   opts.FireflyThreshold,
		DivergenceStress:   opts.DivergenceStress,
	}
}

// Tick applies queued updates and renders the next frame. Path tracing
// failures that only affect the current frame, like shaders still compiling,
// are reported through FrameResult.Result; an error is only returned if no
// frame could be produced.
func (pt *PathTracer) Tick() (*FrameResult, error) {
	start := time.Now()
	pt.tick++
	pt.stats = FrameStats{Tick: pt.tick}

	if err := pt.commitUpdates(); err != nil {
		return nil, err
	}

	opts := pt.options
	if err := pt.allocate(opts.FrameW, opts.FrameH); err != nil {
		return nil, err
	}

	plan := pt.controller.BeginTick(pt.settings())
	pt.stats.Restarted = plan.Restarted

	var result wavefront.DrawResult
	tracingOpts := opts.tracingOptions()
	for s := 0; s < plan.Samples; s++ {
		req := wavefront.SampleRequest{
			Provider:      pt.scene,
			Shaders:       pt.shaders,
			Camera:        pt.camera,
			SampleIndex:   pt.controller.SampleIndex(),
			TargetSamples: pt.controller.Target(),
			Options:       tracingOpts,
			IgnoreResults: pt.controller.IgnoreResults(),
		}
		if pt.hasPrevCamera {
			req.PrevCamera = &pt.prevCamera
		}

		sampleResult, timings := pt.scheduler.RunSample(req, pt.controller)
		pt.stats.addTimings(timings)
		pt.stats.Samples++
		result |= sampleResult

		pt.controller.EndSample(sampleResult)
		if !sampleResult.OK() {
			pt.logger.Debugf("tick %d: sample %d reported %s; restarting accumulation", pt.tick, req.SampleIndex, sampleResult)
			break
		}
	}

	// Kernels may have been reloaded while the samples were in flight.
	if pt.controller.ObserveKernelVersion(pt.shaders.ContentVersion()) {
		pt.logger.Debugf("tick %d: shading kernels changed while drawing; restarting accumulation", pt.tick)
	}

	pt.prevCamera, pt.hasPrevCamera = pt.camera, true

	pt.frame.Width, pt.frame.Height = opts.FrameW, opts.FrameH
	pt.frame.Radiance = pt.controller.Buffer()
	pt.frame.Result = result

	if opts.Mode == accum.RealTime && opts.Denoise && result.OK() && pt.controller.SampleIndex() > 0 {
		pt.denoise()
	}

	for _, stage := range pt.PostProcess {
		if _, err := stage(pt, &pt.frame); err != nil {
			return nil, err
		}
	}

	pt.stats.Mode = pt.controller.Mode()
	pt.stats.State = pt.controller.State()
	pt.stats.SampleIndex = pt.controller.SampleIndex()
	pt.stats.TargetSamples = pt.controller.Target()
	pt.stats.Result = result
	pt.stats.RenderTime = time.Since(start)
	pt.frame.Stats = pt.stats
	return &pt.frame, nil
}

// Size the path state and the sorter scratch for the viewport. If either does
// not fit the device budget both are released so the next tick starts from a
// clean slate.
func (pt *PathTracer) allocate(width, height int) error {
	err := pt.store.Resize(width, height)
	if err == nil {
		err = pt.sorter.Reserve(pt.store.Capacity())
	}
	if err == nil {
		return nil
	}

	pt.controller.Reset()
	if !errors.Is(err, device.ErrOutOfMemory) {
		return err
	}
	pt.store.Release()
	pt.sorter.Release()
	pt.logger.Errorf("unable to allocate path state for %dx%d frame: %v", width, height, err)
	return fmt.Errorf("%w: %w", ErrResourceExhausted, err)
}

// Denoise the accumulation buffer in place. Failures leave the noisy frame
// untouched.
func (pt *PathTracer) denoise() {
	start := time.Now()
	err := pt.bridge.Run(denoise.Frame{
		Width:       pt.controller.Width(),
		Height:      pt.controller.Height(),
		Color:       pt.controller.Buffer(),
		AuxAlbedo:   pt.controller.AuxAlbedo(),
		AuxNormal:   pt.controller.AuxNormal(),
		AuxMotion:   pt.controller.AuxMotion(),
		SampleCount: pt.controller.SampleIndex(),
	})
	pt.stats.addKernelTime(denoiseStage.String(), pt.controller.Width()*pt.controller.Height(), time.Since(start))
	if err != nil {
		pt.logger.Debugf("tick %d: %v", pt.tick, err)
		return
	}
	pt.stats.Denoised = true
}

// Release device resources.
func (pt *PathTracer) Close() {
	pt.store.Release()
	pt.sorter.Release()
}

package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/achilleasa/wavepath/renderer"
	"github.com/achilleasa/wavepath/scene"
	"github.com/achilleasa/wavepath/tracer/accum"
	"github.com/achilleasa/wavepath/tracer/wavefront"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// Number of consecutive failed ticks before giving up on a frame.
const maxFailedTicks = 16

// Build renderer options from the command line flags.
func renderOptions(ctx *cli.Context, mode accum.Mode) (renderer.Options, error) {
	opts := renderer.DefaultOptions()
	opts.Mode = mode
	opts.FrameW = ctx.Int("width")
	opts.FrameH = ctx.Int("height")
	opts.NumBounces = ctx.Int("num-bounces")
	opts.RussianRoulette = ctx.Int("rr-bounces") > 0
	opts.MinBouncesForRR = ctx.Int("rr-bounces")
	opts.TargetSamples = ctx.Int("spp")
	opts.RealTimeSamples = ctx.Int("rt-spp")
	opts.Exposure = float32(ctx.Float64("exposure"))
	opts.FireflyClamp = !ctx.Bool("no-firefly-clamp")
	opts.FireflyThreshold = float32(ctx.Float64("firefly-threshold"))
	opts.PathRegularization = ctx.Bool("path-regularization")
	opts.PerBounceSort = !ctx.Bool("no-sort")
	opts.AntiAliasing = !ctx.Bool("no-aa")
	opts.DivergenceStress = float32(ctx.Float64("divergence"))
	opts.Denoise = ctx.Bool("denoise")
	opts.Workers = ctx.Int("workers")
	opts.MemoryBudget = ctx.Int64("memory-budget")

	if opts.RussianRoulette && opts.MinBouncesForRR >= opts.NumBounces {
		logger.Notice("disabling RR for path elimination")
		opts.RussianRoulette = false
	}

	view, err := wavefront.ParseDebugView(ctx.String("debug-view"))
	if err != nil {
		return opts, err
	}
	opts.DebugView = view

	return opts.Clamp(logger), nil
}

// Load the scene named by the first argument and attach a path tracer to it.
func setupPathTracer(ctx *cli.Context, opts renderer.Options) (*renderer.PathTracer, *scene.Scene, error) {
	if ctx.NArg() != 1 {
		return nil, nil, errors.New("missing scene name argument")
	}

	sc, err := scene.Builtin(ctx.Args().First())
	if err != nil {
		return nil, nil, err
	}

	pt, err := renderer.NewPathTracer(sc, scene.NewShaderCache(), opts, logger)
	if err != nil {
		return nil, nil, err
	}
	return pt, sc, nil
}

// Render a still frame by accumulating samples until the target sample
// count is reached.
func RenderFrame(ctx *cli.Context) error {
	setupLogging(ctx)

	opts, err := renderOptions(ctx, accum.StaticAccumulate)
	if err != nil {
		return err
	}

	pt, sc, err := setupPathTracer(ctx, opts)
	if err != nil {
		return err
	}
	defer pt.Close()

	logger.Noticef("rendering scene %q at %dx%d with %d spp", sc.Name, opts.FrameW, opts.FrameH, opts.TargetSamples)
	start := time.Now()

	var (
		frame  *renderer.FrameResult
		failed int
		kernel time.Duration
	)
	for {
		if frame, err = pt.Tick(); err != nil {
			return err
		}
		kernel += frame.Stats.KernelTime()

		if !frame.Result.OK() {
			if failed++; failed >= maxFailedTicks {
				return fmt.Errorf("giving up after %d failed ticks: %s", failed, frame.Result)
			}
			continue
		}
		failed = 0

		if frame.Stats.SampleIndex%64 == 0 {
			logger.Infof("accumulated %d/%d samples", frame.Stats.SampleIndex, frame.Stats.TargetSamples)
		}
		if frame.Stats.State == accum.Saturated {
			break
		}
	}
	logger.Noticef("rendered frame in %s (%s in kernels)", time.Since(start), kernel)

	// Write the converged frame
	out := ctx.String("out")
	if _, err = renderer.SaveFrameBuffer(out)(pt, frame); err != nil {
		return err
	}
	logger.Noticef("wrote frame to %s", out)

	displayFrameStats(frame.Stats)
	return nil
}

// Render a sequence of real-time frames while orbiting the camera around
// its look-at point.
func RenderRealTime(ctx *cli.Context) error {
	setupLogging(ctx)

	opts, err := renderOptions(ctx, accum.RealTime)
	if err != nil {
		return err
	}

	pt, sc, err := setupPathTracer(ctx, opts)
	if err != nil {
		return err
	}
	defer pt.Close()

	ticks := ctx.Int("ticks")
	orbitStep := float32(ctx.Float64("orbit"))
	if out := ctx.String("out"); out != "" {
		pt.PostProcess = append(pt.PostProcess, renderer.SaveFrameBuffer(out))
	}

	logger.Noticef("rendering %d real-time frames of scene %q at %dx%d with %d spp per frame", ticks, sc.Name, opts.FrameW, opts.FrameH, opts.RealTimeSamples)
	camera := *sc.Camera
	var frameTime time.Duration
	for tick := 0; tick < ticks; tick++ {
		frame, err := pt.Tick()
		if err != nil {
			return err
		}
		frameTime += frame.Stats.RenderTime

		if !frame.Result.OK() {
			logger.Warningf("frame %d: %s", tick, frame.Result)
		}
		if ctx.GlobalBool("v") || ctx.GlobalBool("vv") {
			displayFrameStats(frame.Stats)
		}

		if orbitStep != 0 {
			camera.Orbit(orbitStep)
			pt.Update(renderer.UpdateCamera, &camera)
		}
	}

	if ticks > 0 {
		logger.Noticef("rendered %d frames; average frame time %s", ticks, frameTime/time.Duration(ticks))
	}
	return nil
}

func displayFrameStats(stats renderer.FrameStats) {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Kernel", "Invocations", "Work items", "% of frame", "Time"})
	for _, stat := range stats.Kernels {
		var percent float64
		if stats.RenderTime > 0 {
			percent = 100 * float64(stat.Time) / float64(stats.RenderTime)
		}
		table.Append([]string{
			stat.Kernel,
			fmt.Sprintf("%d", stat.Invocations),
			fmt.Sprintf("%d", stat.Items),
			fmt.Sprintf("%02.1f %%", percent),
			stat.Time.String(),
		})
	}
	table.SetFooter([]string{"", "", "", "TOTAL", stats.RenderTime.String()})

	table.Render()
	logger.Noticef(
		"frame %d statistics (%s, %s, %d/%d samples, result %s)\n%s",
		stats.Tick, stats.Mode, stats.State, stats.SampleIndex, stats.TargetSamples, stats.Result, buf.String(),
	)
}

package main

import (
	"fmt"
	"os"

	"github.com/achilleasa/wavepath/cmd"
	"github.com/achilleasa/wavepath/renderer"
	"github.com/urfave/cli"
)

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	defaults := renderer.DefaultOptions()

	deviceFlags := []cli.Flag{
		cli.IntFlag{
			Name:  "workers",
			Value: 0,
			Usage: "number of concurrent dispatch workers (0 = GOMAXPROCS)",
		},
		cli.Int64Flag{
			Name:  "memory-budget",
			Value: 0,
			Usage: "device memory budget in bytes (0 = unlimited)",
		},
	}

	renderFlags := append([]cli.Flag{
		cli.IntFlag{
			Name:  "width",
			Value: defaults.FrameW,
			Usage: "frame width",
		},
		cli.IntFlag{
			Name:  "height",
			Value: defaults.FrameH,
			Usage: "frame height",
		},
		cli.IntFlag{
			Name:  "num-bounces, nb",
			Value: defaults.NumBounces,
			Usage: "number of indirect ray bounces",
		},
		cli.IntFlag{
			Name:  "rr-bounces, rr",
			Value: 0,
			Usage: "number of indirect ray bounces before applying RR (0 = disable RR)",
		},
		cli.Float64Flag{
			Name:  "exposure",
			Value: float64(defaults.Exposure),
			Usage: "camera exposure for tone-mapping",
		},
		cli.Float64Flag{
			Name:  "firefly-threshold",
			Value: float64(defaults.FireflyThreshold),
			Usage: "scale of the per-sample contribution clamp",
		},
		cli.BoolFlag{
			Name:  "no-firefly-clamp",
			Usage: "disable clamping of high energy samples",
		},
		cli.BoolFlag{
			Name:  "path-regularization",
			Usage: "roughen glossy lobes after diffuse bounces",
		},
		cli.BoolFlag{
			Name:  "no-sort",
			Usage: "disable per-bounce coherence sorting of paths",
		},
		cli.BoolFlag{
			Name:  "no-aa",
			Usage: "disable sub-pixel jittering of primary rays",
		},
		cli.Float64Flag{
			Name:  "divergence",
			Value: 0,
			Usage: "amount of ray direction noise in [0, 1] for stress testing",
		},
		cli.StringFlag{
			Name:  "debug-view",
			Value: "none",
			Usage: "render a diagnostic view instead of radiance",
		},
	}, deviceFlags...)

	app := cli.NewApp()
	app.Name = "wavepath"
	app.Usage = "render scenes using wavefront path tracing"
	app.Version = "0.0.1"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:   "list-devices",
			Usage:  "list available devices",
			Flags:  deviceFlags,
			Action: cmd.ListDevices,
		},
		{
			Name:      "scenes",
			Usage:     "list built-in scenes",
			ArgsUsage: "[scene_name ...]",
			Action:    cmd.ListScenes,
		},
		{
			Name:  "render",
			Usage: "render scene",
			Subcommands: []cli.Command{
				{
					Name:  "frame",
					Usage: "render single frame",
					Description: `
Accumulate samples for a built-in scene until the target sample count is
reached and write the tone-mapped frame to a png file.`,
					ArgsUsage: "scene_name",
					Flags: append([]cli.Flag{
						cli.IntFlag{
							Name:  "spp",
							Value: defaults.TargetSamples,
							Usage: "samples per pixel",
						},
						cli.StringFlag{
							Name:  "out, o",
							Value: "frame.png",
							Usage: "image filename for the rendered frame",
						},
					}, renderFlags...),
					Action: cmd.RenderFrame,
				},
				{
					Name:  "realtime",
					Usage: "render a sequence of real-time frames",
					Description: `
Render a fixed number of frames in real-time mode. Every frame draws a fresh
set of samples which are optionally denoised. The camera orbits around its
look-at point between frames.`,
					ArgsUsage: "scene_name",
					Flags: append([]cli.Flag{
						cli.IntFlag{
							Name:  "ticks",
							Value: 16,
							Usage: "number of frames to render",
						},
						cli.IntFlag{
							Name:  "rt-spp",
							Value: defaults.RealTimeSamples,
							Usage: "samples per pixel per frame",
						},
						cli.Float64Flag{
							Name:  "orbit",
							Value: 0.05,
							Usage: "camera orbit angle in radians per frame",
						},
						cli.BoolFlag{
							Name:  "denoise",
							Usage: "denoise each frame",
						},
						cli.StringFlag{
							Name:  "out, o",
							Value: "",
							Usage: "image filename pattern for the rendered frames (e.g. frame-%03d.png)",
						},
					}, renderFlags...),
					Action: cmd.RenderRealTime,
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

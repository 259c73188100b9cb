package renderer

import (
	"time"

	"github.com/achilleasa/wavepath/tracer/accum"
	"github.com/achilleasa/wavepath/tracer/wavefront"
)

// Aggregated timing for all dispatches of a kernel during a tick.
type KernelStat struct {
	Kernel      string
	Invocations int
	Items       int
	Time        time.Duration
}

type FrameStats struct {
	Tick int

	Mode  accum.Mode
	State accum.State

	// Accumulated samples after the tick and the run target.
	SampleIndex   int
	TargetSamples int

	// Samples produced during the tick.
	Samples int

	Result    wavefront.DrawResult
	Restarted bool
	Denoised  bool

	Kernels []KernelStat

	// Total render time for entire frame.
	RenderTime time.Duration
}

// Get the time spent in all kernels.
func (fs *FrameStats) KernelTime() time.Duration {
	var total time.Duration
	for _, k := range fs.Kernels {
		total += k.Time
	}
	return total
}

func (fs *FrameStats) addKernelTime(kernel string, items int, elapsed time.Duration) {
	for i := range fs.Kernels {
		if fs.Kernels[i].Kernel == kernel {
			fs.Kernels[i].Invocations++
			fs.Kernels[i].Items += items
			fs.Kernels[i].Time += elapsed
			return
		}
	}
	fs.Kernels = append(fs.Kernels, KernelStat{Kernel: kernel, Invocations: 1, Items: items, Time: elapsed})
}

func (fs *FrameStats) addTimings(timings wavefront.Timings) {
	for _, t := range timings {
		fs.addKernelTime(t.Kernel, t.Items, t.Duration)
	}
}

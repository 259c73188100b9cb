package renderer

import (
	"fmt"
	"image"
	"image/png"
	"math"
	"os"
	"strings"
	"time"

	"github.com/achilleasa/wavepath/tracer/device"
	"github.com/achilleasa/wavepath/tracer/wavefront"
	"github.com/achilleasa/wavepath/types"
)

// Post-process kernel names.
const (
	tonemapSimpleReinhard device.KernelName = "tonemapSimpleReinhard"
	tonemapLinear         device.KernelName = "tonemapLinear"
	saveFrameBuffer       device.KernelName = "saveFrameBuffer"
)

const displayGamma = 1.0 / 2.2

// An alias for functions that can be used as part of the post-processing
// pipeline. Stages run after all samples of a tick have been accumulated.
type PipelineStage func(pt *PathTracer, frame *FrameResult) (time.Duration, error)

// Build the default post-processing stages for the given options.
func DefaultPipeline(opts Options) []PipelineStage {
	if opts.DebugView != wavefront.DebugViewNone {
		return []PipelineStage{TonemapLinear()}
	}
	return []PipelineStage{TonemapSimpleReinhard(opts.Exposure)}
}

// Apply simple Reinhard tone-mapping followed by gamma correction.
func TonemapSimpleReinhard(exposure float32) PipelineStage {
	return func(pt *PathTracer, frame *FrameResult) (time.Duration, error) {
		return pt.writeImage(tonemapSimpleReinhard, frame, func(c types.Vec3) types.Vec3 {
			c = c.Mul(exposure)
			return types.Vec3{c[0] / (1 + c[0]), c[1] / (1 + c[1]), c[2] / (1 + c[2])}
		})
	}
}

// Copy radiance to the frame buffer without any tone-mapping. Used for the
// debug views which already emit display values.
func TonemapLinear() PipelineStage {
	return func(pt *PathTracer, frame *FrameResult) (time.Duration, error) {
		return pt.writeImage(tonemapLinear, frame, func(c types.Vec3) types.Vec3 {
			return c
		})
	}
}

// Save the RGBA framebuffer as a png file. If imgFile contains a formatting
// verb it is expanded with the tick number.
func SaveFrameBuffer(imgFile string) PipelineStage {
	return func(pt *PathTracer, frame *FrameResult) (time.Duration, error) {
		start := time.Now()

		name := imgFile
		if strings.Contains(name, "%") {
			name = fmt.Sprintf(imgFile, pt.tick)
		}
		if frame.Image == nil {
			return 0, fmt.Errorf("renderer: no frame to save to %s", name)
		}
		f, err := os.Create(name)
		if err != nil {
			return 0, err
		}
		defer f.Close()

		err = png.Encode(f, frame.Image)
		elapsed := time.Since(start)
		pt.stats.addKernelTime(saveFrameBuffer.String(), frame.Height, elapsed)
		return elapsed, err
	}
}

func toByte(v float32, gamma bool) uint8 {
	if v <= 0 || v != v {
		return 0
	}
	if v >= 1 {
		return 255
	}
	if gamma {
		v = float32(math.Pow(float64(v), displayGamma))
	}
	return uint8(v*255 + 0.5)
}

// Map the accumulation buffer through fn into the frame image, one row per
// work item.
func (pt *PathTracer) writeImage(kernel device.KernelName, frame *FrameResult, fn func(types.Vec3) types.Vec3) (time.Duration, error) {
	w, h := frame.Width, frame.Height
	if frame.Image == nil || frame.Image.Rect.Dx() != w || frame.Image.Rect.Dy() != h {
		frame.Image = image.NewRGBA(image.Rect(0, 0, w, h))
	}

	gamma := kernel == tonemapSimpleReinhard
	img := frame.Image
	radiance := frame.Radiance
	elapsed, err := pt.dev.Exec1D(kernel, h, func(y int) {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < w; x++ {
			c := fn(radiance[y*w+x].Vec3())
			row[4*x+0] = toByte(c[0], gamma)
			row[4*x+1] = toByte(c[1], gamma)
			row[4*x+2] = toByte(c[2], gamma)
			row[4*x+3] = 255
		}
	})
	pt.stats.addKernelTime(kernel.String(), h, elapsed)
	return elapsed, err
}

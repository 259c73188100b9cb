package denoise

import (
	"fmt"

	"github.com/achilleasa/wavepath/log"
	"github.com/achilleasa/wavepath/types"
)

// Engine is an external denoiser. Execute receives private staging copies
// and returns the filtered color; the w channel carries depth and should be
// preserved. Motion holds per-pixel offsets to the previous frame for
// engines that keep temporal history.
type Engine interface {
	Name() string
	Configure(width, height int) error
	Execute(color []types.Vec4, albedo, normal []types.Vec3, motion []types.Vec2) ([]types.Vec4, error)
}

// The accumulated data a denoise pass reads and writes.
type Frame struct {
	Width  int
	Height int

	// Accumulated radiance; denoised in place on success.
	Color []types.Vec4

	// Sums of the albedo and normal guides over SampleCount samples.
	AuxAlbedo   []types.Vec3
	AuxNormal   []types.Vec3
	SampleCount int

	// Sums of the motion guide; optional.
	AuxMotion []types.Vec2
}

// Bridge runs an engine over an accumulation buffer in three phases: stage
// in, execute and stage out. If any phase fails the buffer is left untouched.
type Bridge struct {
	engine Engine
	logger log.Logger
	latch  *log.WarnLatch

	width  int
	height int

	color  []types.Vec4
	albedo []types.Vec3
	normal []types.Vec3
	motion []types.Vec2
}

// Create a bridge for the given engine. A nil engine makes every Run a
// pass-through.
func NewBridge(engine Engine, logger log.Logger) *Bridge {
	return &Bridge{
		engine: engine,
		logger: logger,
		latch:  log.NewWarnLatch(logger),
	}
}

// Run denoises frame.Color in place. Failures are not fatal: the noisy
// frame is passed through, a warning is logged once per failure streak and
// an error wrapping ErrDenoiserUnavailable is returned.
func (b *Bridge) Run(frame Frame) error {
	if err := b.run(frame); err != nil {
		engineName := "none"
		if b.engine != nil {
			engineName = b.engine.Name()
		}
		b.latch.Warningf("denoiser %s unavailable; passing through noisy frame: %v", engineName, err)
		return fmt.Errorf("%w: %w", ErrDenoiserUnavailable, err)
	}

	b.latch.Reset()
	return nil
}

func (b *Bridge) run(frame Frame) error {
	if b.engine == nil {
		return ErrNoEngine
	}

	pixels := frame.Width * frame.Height
	if pixels <= 0 || len(frame.Color) != pixels || len(frame.AuxAlbedo) != pixels || len(frame.AuxNormal) != pixels || (frame.AuxMotion != nil && len(frame.AuxMotion) != pixels) {
		return fmt.Errorf("%w: %dx%d frame with %d color, %d albedo and %d normal entries", ErrInvalidFrame, frame.Width, frame.Height, len(frame.Color), len(frame.AuxAlbedo), len(frame.AuxNormal))
	}

	if err := b.stageIn(frame); err != nil {
		return err
	}

	out, err := b.engine.Execute(b.color, b.albedo, b.normal, b.motion)
	if err != nil {
		return fmt.Errorf("engine %s failed: %w", b.engine.Name(), err)
	}
	if len(out) != pixels {
		return fmt.Errorf("engine %s returned %d pixels; expected %d", b.engine.Name(), len(out), pixels)
	}

	// Stage out
	copy(frame.Color, out)
	return nil
}

// Copy the frame into private staging buffers, converting guide sums into
// averages.
func (b *Bridge) stageIn(frame Frame) error {
	pixels := frame.Width * frame.Height
	if frame.Width != b.width || frame.Height != b.height {
		if err := b.engine.Configure(frame.Width, frame.Height); err != nil {
			b.width, b.height = 0, 0
			return fmt.Errorf("could not configure engine %s for %dx%d: %w", b.engine.Name(), frame.Width, frame.Height, err)
		}
		b.width, b.height = frame.Width, frame.Height
		b.color = make([]types.Vec4, pixels)
		b.albedo = make([]types.Vec3, pixels)
		b.normal = make([]types.Vec3, pixels)
		b.motion = make([]types.Vec2, pixels)
	}

	scale := float32(1)
	if frame.SampleCount > 1 {
		scale = 1 / float32(frame.SampleCount)
	}

	copy(b.color, frame.Color)
	for i := 0; i < pixels; i++ {
		b.albedo[i] = frame.AuxAlbedo[i].Mul(scale)
		b.normal[i] = frame.AuxNormal[i].Mul(scale).Normalize()
		b.motion[i] = types.Vec2{}
		if frame.AuxMotion != nil {
			b.motion[i] = types.XY(frame.AuxMotion[i][0]*scale, frame.AuxMotion[i][1]*scale)
		}
	}
	return nil
}

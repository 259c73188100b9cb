package denoise

import (
	"errors"
	"fmt"
	"testing"

	"github.com/achilleasa/wavepath/types"
)

type recordingLogger struct {
	warnings int
}

func (l *recordingLogger) Debug(v ...interface{})                   {}
func (l *recordingLogger) Debugf(format string, v ...interface{})   {}
func (l *recordingLogger) Notice(v ...interface{})                  {}
func (l *recordingLogger) Noticef(format string, v ...interface{})  {}
func (l *recordingLogger) Info(v ...interface{})                    {}
func (l *recordingLogger) Infof(format string, v ...interface{})    {}
func (l *recordingLogger) Warning(v ...interface{})                 { l.warnings++ }
func (l *recordingLogger) Warningf(format string, v ...interface{}) { l.warnings++ }
func (l *recordingLogger) Error(v ...interface{})                   {}
func (l *recordingLogger) Errorf(format string, v ...interface{})   {}

// An engine that replaces every pixel with a constant and records the
// staged guides.
type constEngine struct {
	value      types.Vec4
	failures   int
	configured int
	albedo     []types.Vec3
	normal     []types.Vec3
	motion     []types.Vec2
}

func (e *constEngine) Name() string { return "const" }

func (e *constEngine) Configure(width, height int) error {
	e.configured++
	return nil
}

func (e *constEngine) Execute(color []types.Vec4, albedo, normal []types.Vec3, motion []types.Vec2) ([]types.Vec4, error) {
	if e.failures > 0 {
		e.failures--
		return nil, fmt.Errorf("device lost")
	}
	e.albedo = append([]types.Vec3(nil), albedo...)
	e.normal = append([]types.Vec3(nil), normal...)
	e.motion = append([]types.Vec2(nil), motion...)
	out := make([]types.Vec4, len(color))
	for i := range out {
		out[i] = e.value
	}
	return out, nil
}

func testFrame(w, h int, v float32) Frame {
	f := Frame{
		Width:       w,
		Height:      h,
		Color:       make([]types.Vec4, w*h),
		AuxAlbedo:   make([]types.Vec3, w*h),
		AuxNormal:   make([]types.Vec3, w*h),
		SampleCount: 4,
	}
	for i := range f.Color {
		f.Color[i] = types.XYZW(v, v, v, 1)
		f.AuxAlbedo[i] = types.Splat3(2)
		f.AuxNormal[i] = types.XYZ(0, 0, 4)
	}
	return f
}

func TestBridgeStagesData(t *testing.T) {
	engine := &constEngine{value: types.XYZW(0.5, 0.5, 0.5, 1)}
	b := NewBridge(engine, &recordingLogger{})

	frame := testFrame(3, 2, 9)
	if err := b.Run(frame); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, c := range frame.Color {
		if c != engine.value {
			t.Fatalf("pixel %d: expected denoised value %v; got %v", i, engine.value, c)
		}
	}
	if engine.albedo[0] != types.Splat3(0.5) {
		t.Fatalf("expected staged albedo to be averaged over 4 samples; got %v", engine.albedo[0])
	}
	if engine.normal[0] != types.XYZ(0, 0, 1) {
		t.Fatalf("expected staged normal to be normalized; got %v", engine.normal[0])
	}
	if frame.AuxAlbedo[0] != types.Splat3(2) {
		t.Fatal("expected stage-in not to modify the caller's guide buffers")
	}

	// Same dimensions do not reconfigure the engine
	b.Run(testFrame(3, 2, 9))
	if engine.configured != 1 {
		t.Fatalf("expected engine to be configured once; got %d", engine.configured)
	}
}

func TestBridgeStagesMotion(t *testing.T) {
	engine := &constEngine{value: types.XYZW(0.5, 0.5, 0.5, 1)}
	b := NewBridge(engine, &recordingLogger{})

	frame := testFrame(2, 2, 1)
	frame.AuxMotion = make([]types.Vec2, 4)
	for i := range frame.AuxMotion {
		frame.AuxMotion[i] = types.XY(-2, 4)
	}
	if err := b.Run(frame); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(engine.motion) != 4 || engine.motion[3] != types.XY(-0.5, 1) {
		t.Fatalf("expected staged motion to be averaged over 4 samples; got %v", engine.motion)
	}

	// Frames without history stage zero motion
	if err := b.Run(testFrame(2, 2, 1)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if engine.motion[3] != (types.Vec2{}) {
		t.Fatalf("expected zero motion without a motion guide; got %v", engine.motion[3])
	}

	frame = testFrame(2, 2, 1)
	frame.AuxMotion = make([]types.Vec2, 3)
	if err := b.Run(frame); !errors.Is(err, ErrInvalidFrame) {
		t.Fatalf("expected ErrInvalidFrame for a short motion guide; got %v", err)
	}
}

func TestBridgePassThroughOnFailure(t *testing.T) {
	engine := &constEngine{value: types.XYZW(0.5, 0.5, 0.5, 1), failures: 3}
	logger := &recordingLogger{}
	b := NewBridge(engine, logger)

	for i := 0; i < 3; i++ {
		frame := testFrame(2, 2, 9)
		err := b.Run(frame)
		if !errors.Is(err, ErrDenoiserUnavailable) {
			t.Fatalf("run %d: expected ErrDenoiserUnavailable; got %v", i, err)
		}
		if frame.Color[0] != types.XYZW(9, 9, 9, 1) {
			t.Fatalf("run %d: expected noisy frame to pass through; got %v", i, frame.Color[0])
		}
	}
	if logger.warnings != 1 {
		t.Fatalf("expected a single warning for the failure streak; got %d", logger.warnings)
	}

	// Recovery re-arms the warning
	if err := b.Run(testFrame(2, 2, 9)); err != nil {
		t.Fatalf("expected engine to recover; got %v", err)
	}
	engine.failures = 1
	b.Run(testFrame(2, 2, 9))
	if logger.warnings != 2 {
		t.Fatalf("expected a new streak to warn again; got %d warnings", logger.warnings)
	}
}

func TestBridgeWithoutEngine(t *testing.T) {
	b := NewBridge(nil, &recordingLogger{})
	err := b.Run(testFrame(2, 2, 1))
	if !errors.Is(err, ErrDenoiserUnavailable) || !errors.Is(err, ErrNoEngine) {
		t.Fatalf("expected ErrDenoiserUnavailable wrapping ErrNoEngine; got %v", err)
	}
}

func TestBridgeInvalidFrame(t *testing.T) {
	b := NewBridge(&constEngine{}, &recordingLogger{})
	frame := testFrame(2, 2, 1)
	frame.AuxNormal = frame.AuxNormal[:1]
	if err := b.Run(frame); !errors.Is(err, ErrInvalidFrame) {
		t.Fatalf("expected ErrInvalidFrame; got %v", err)
	}
}

func TestBilateralReducesNoise(t *testing.T) {
	const w, h = 16, 16
	frame := testFrame(w, h, 0)
	for i := range frame.Color {
		// Checkerboard noise around a mean of 0.5
		v := float32(0.4)
		if (i%w+i/w)%2 == 0 {
			v = 0.6
		}
		frame.Color[i] = types.XYZW(v, v, v, 7)
	}

	variance := func(c []types.Vec4) float64 {
		var sum, sum2 float64
		for _, px := range c {
			sum += float64(px[0])
			sum2 += float64(px[0] * px[0])
		}
		mean := sum / float64(len(c))
		return sum2/float64(len(c)) - mean*mean
	}
	before := variance(frame.Color)

	b := NewBridge(NewBilateralEngine(), &recordingLogger{})
	if err := b.Run(frame); err != nil {
		t.Fatal(err)
	}
	after := variance(frame.Color)
	if after >= before/2 {
		t.Fatalf("expected bilateral filter to at least halve the variance; before %f, after %f", before, after)
	}
	if frame.Color[5][3] != 7 {
		t.Fatalf("expected depth channel to be preserved; got %f", frame.Color[5][3])
	}
}

func TestBilateralPreservesGuideEdges(t *testing.T) {
	const w, h = 8, 4
	frame := testFrame(w, h, 0)
	for i := range frame.Color {
		// Left half dark and right half bright, with matching albedo edge
		if i%w < w/2 {
			frame.Color[i] = types.XYZW(0.05, 0.05, 0.05, 1)
			frame.AuxAlbedo[i] = types.Splat3(0.4)
		} else {
			frame.Color[i] = types.XYZW(4, 4, 4, 1)
			frame.AuxAlbedo[i] = types.Splat3(3.6)
		}
	}

	b := NewBridge(NewBilateralEngine(), &recordingLogger{})
	if err := b.Run(frame); err != nil {
		t.Fatal(err)
	}
	if v := frame.Color[w/2-1][0]; v > 0.1 {
		t.Fatalf("expected dark side of the edge to stay dark; got %f", v)
	}
}

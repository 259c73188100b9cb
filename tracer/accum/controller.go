package accum

import (
	"github.com/achilleasa/wavepath/tracer/wavefront"
	"github.com/achilleasa/wavepath/types"
)

// Configuration limits. Out of range values are clamped.
const (
	MaxTargetSamples   = 1048576
	MaxRealTimeSamples = 64
)

// The work scheduled for a tick.
type Plan struct {
	// Number of samples to produce.
	Samples int

	// True if accumulation starts over this tick.
	Restarted bool
}

// Controller owns the accumulation buffer and decides how many samples each
// tick produces. Accumulate may be called concurrently for distinct pixels;
// every other method must be called from the thread driving the ticks.
type Controller struct {
	mode            Mode
	target          int
	realTimeSamples int

	state       State
	sampleIndex int

	settings    Settings
	hasSettings bool

	width     int
	height    int
	buffer    []types.Vec4
	auxAlbedo []types.Vec3
	auxNormal []types.Vec3
	auxMotion []types.Vec2
}

// Create a controller. Sample counts are clamped to their valid ranges.
func New(mode Mode, target, realTimeSamples int) *Controller {
	c := &Controller{mode: mode}
	c.SetTarget(target)
	c.SetRealTimeSamples(realTimeSamples)
	return c
}

func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// Set the number of samples a static run converges to.
func (c *Controller) SetTarget(target int) {
	c.target = clampInt(target, 1, MaxTargetSamples)
}

// Set the number of samples produced per real-time tick.
func (c *Controller) SetRealTimeSamples(samples int) {
	c.realTimeSamples = clampInt(samples, 1, MaxRealTimeSamples)
}

// Switch accumulation mode. Switching always restarts accumulation.
func (c *Controller) SetMode(mode Mode) {
	if mode != c.mode {
		c.mode = mode
		c.Reset()
	}
}

func (c *Controller) Mode() Mode {
	return c.mode
}

func (c *Controller) State() State {
	return c.state
}

// Get the sample count the current run converges to.
func (c *Controller) Target() int {
	if c.mode == RealTime {
		return c.realTimeSamples
	}
	return c.target
}

// Get the index of the next sample; also the number of committed samples.
func (c *Controller) SampleIndex() int {
	return c.sampleIndex
}

// Check whether the next sample overwrites the buffer.
func (c *Controller) FirstSample() bool {
	return c.sampleIndex == 0
}

// Check whether produced samples must be discarded.
func (c *Controller) IgnoreResults() bool {
	return c.state == Saturated
}

// Get the settings recorded when the current run started.
func (c *Controller) Settings() (Settings, bool) {
	return c.settings, c.hasSettings
}

// Start a tick. Accumulation restarts when the settings differ from the ones
// recorded at the start of the run and always in real-time mode.
func (c *Controller) BeginTick(cur Settings) Plan {
	var plan Plan

	if cur.Width != c.width || cur.Height != c.height {
		c.Resize(cur.Width, cur.Height)
	}

	if c.mode == RealTime || (c.hasSettings && RequiresRestart(c.settings, cur)) {
		c.Reset()
	}

	if c.sampleIndex == 0 {
		c.settings = cur
		c.hasSettings = true
		plan.Restarted = true
	}

	switch c.mode {
	case RealTime:
		plan.Samples = c.realTimeSamples
		c.state = Accumulating
	default:
		if c.sampleIndex < c.target {
			plan.Samples = 1
			c.state = Accumulating
		} else {
			c.state = Saturated
		}
	}
	return plan
}

// Accumulate implements wavefront.Accumulator. The first sample of a run
// overwrites the pixel; later samples update the running mean. The w channel
// keeps the depth of the first sample.
func (c *Controller) Accumulate(x, y int, sample wavefront.Sample) {
	if x < 0 || y < 0 || x >= c.width || y >= c.height {
		return
	}

	i := y*c.width + x
	if c.sampleIndex == 0 {
		c.buffer[i] = sample.Radiance.Vec4(sample.Depth)
		c.auxAlbedo[i] = sample.AuxAlbedo
		c.auxNormal[i] = sample.AuxNormal
		c.auxMotion[i] = sample.AuxMotion
		return
	}

	prev := c.buffer[i]
	mean := prev.Vec3()
	mean = mean.Add(sample.Radiance.Sub(mean).Mul(1 / float32(c.sampleIndex+1)))
	c.buffer[i] = mean.Vec4(prev[3])
	c.auxAlbedo[i] = c.auxAlbedo[i].Add(sample.AuxAlbedo)
	c.auxNormal[i] = c.auxNormal[i].Add(sample.AuxNormal)
	c.auxMotion[i] = types.XY(c.auxMotion[i][0]+sample.AuxMotion[0], c.auxMotion[i][1]+sample.AuxMotion[1])
}

// Finish a sample. Any draw result other than none restarts accumulation;
// otherwise the sample index advances up to the target.
func (c *Controller) EndSample(result wavefront.DrawResult) {
	if !result.OK() {
		c.Reset()
		return
	}

	target := c.Target()
	if c.sampleIndex < target {
		c.sampleIndex++
	}
	if c.mode == StaticAccumulate && c.sampleIndex >= target {
		c.state = Saturated
	}
}

// Check the kernel content version after drawing. A version that differs
// from the one recorded for the run means kernels were reloaded mid-run and
// accumulation restarts. Returns true if a restart was triggered.
func (c *Controller) ObserveKernelVersion(version int64) bool {
	if !c.hasSettings || c.settings.KernelVersion == version {
		return false
	}
	c.Reset()
	return true
}

// Restart accumulation. Buffers are not cleared; the next sample overwrites
// them.
func (c *Controller) Reset() {
	c.sampleIndex = 0
	c.hasSettings = false
	c.state = Idle
}

// Reallocate the buffers for a new resolution and restart accumulation.
func (c *Controller) Resize(width, height int) {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	c.width, c.height = width, height
	c.buffer = make([]types.Vec4, width*height)
	c.auxAlbedo = make([]types.Vec3, width*height)
	c.auxNormal = make([]types.Vec3, width*height)
	c.auxMotion = make([]types.Vec2, width*height)
	c.Reset()
}

func (c *Controller) Width() int {
	return c.width
}

func (c *Controller) Height() int {
	return c.height
}

// Get the accumulated radiance (xyz) and depth (w).
func (c *Controller) Buffer() []types.Vec4 {
	return c.buffer
}

// Get the sum of albedo guides over all committed samples.
func (c *Controller) AuxAlbedo() []types.Vec3 {
	return c.auxAlbedo
}

// Get the sum of normal guides over all committed samples.
func (c *Controller) AuxNormal() []types.Vec3 {
	return c.auxNormal
}

// Get the sum of motion guides over all committed samples.
func (c *Controller) AuxMotion() []types.Vec2 {
	return c.auxMotion
}

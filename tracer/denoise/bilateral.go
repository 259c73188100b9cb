package denoise

import (
	"fmt"
	"math"
	"runtime"

	"github.com/achilleasa/wavepath/types"
	"golang.org/x/sync/errgroup"
)

// Default filter parameters.
const (
	DefaultSigmaSpatial = 1.0
	DefaultSigmaRange   = 0.15
)

// BilateralEngine is a joint bilateral filter guided by the albedo and
// normal buffers. The range term compares colors after a simple Reinhard
// mapping so that HDR values behave like display values.
type BilateralEngine struct {
	SigmaSpatial float64
	SigmaRange   float64
	SigmaAlbedo  float64

	// Exponent applied to the normal similarity.
	NormalPower float64

	Workers int

	width  int
	height int
	out    []types.Vec4
}

// Create a bilateral engine with default parameters.
func NewBilateralEngine() *BilateralEngine {
	return &BilateralEngine{
		SigmaSpatial: DefaultSigmaSpatial,
		SigmaRange:   DefaultSigmaRange,
		SigmaAlbedo:  0.1,
		NormalPower:  32,
		Workers:      runtime.GOMAXPROCS(0),
	}
}

func (e *BilateralEngine) Name() string {
	return "bilateral"
}

func (e *BilateralEngine) Configure(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("bilateral: invalid dimensions %dx%d", width, height)
	}
	if e.SigmaSpatial <= 0 || e.SigmaRange <= 0 {
		return fmt.Errorf("bilateral: sigma values must be positive")
	}
	e.width, e.height = width, height
	e.out = make([]types.Vec4, width*height)
	return nil
}

func reinhard(v types.Vec3) types.Vec3 {
	return types.XYZ(v[0]/(1+v[0]), v[1]/(1+v[1]), v[2]/(1+v[2]))
}

// Execute filters a single frame. The filter keeps no history so the motion
// guide is ignored.
func (e *BilateralEngine) Execute(color []types.Vec4, albedo, normal []types.Vec3, _ []types.Vec2) ([]types.Vec4, error) {
	pixels := e.width * e.height
	if pixels == 0 {
		return nil, fmt.Errorf("bilateral: engine not configured")
	}
	if len(color) != pixels || len(albedo) != pixels || len(normal) != pixels {
		return nil, fmt.Errorf("bilateral: expected %d pixels", pixels)
	}

	radius := int(math.Ceil(2 * e.SigmaSpatial))
	if radius < 1 {
		radius = 1
	}
	twoSigmaS2 := 2 * e.SigmaSpatial * e.SigmaSpatial
	twoSigmaR2 := 2 * e.SigmaRange * e.SigmaRange
	twoSigmaA2 := 2 * e.SigmaAlbedo * e.SigmaAlbedo

	var g errgroup.Group
	workers := e.Workers
	if workers <= 0 {
		workers = 1
	}
	g.SetLimit(workers)

	w, h := e.width, e.height
	for y := 0; y < h; y++ {
		row := y
		g.Go(func() error {
			for x := 0; x < w; x++ {
				ci := row*w + x
				c0 := reinhard(color[ci].Vec3())
				a0 := albedo[ci]
				n0 := normal[ci]

				var sum types.Vec3
				var sumW float64
				for ky := -radius; ky <= radius; ky++ {
					ny := row + ky
					if ny < 0 || ny >= h {
						continue
					}
					for kx := -radius; kx <= radius; kx++ {
						nx := x + kx
						if nx < 0 || nx >= w {
							continue
						}
						ni := ny*w + nx
						c := color[ni].Vec3()

						dc := reinhard(c).Sub(c0)
						da := albedo[ni].Sub(a0)

						wgt := math.Exp(-float64(kx*kx+ky*ky) / twoSigmaS2)
						wgt *= math.Exp(-float64(dc.Dot(dc)) / twoSigmaR2)
						if twoSigmaA2 > 0 {
							wgt *= math.Exp(-float64(da.Dot(da)) / twoSigmaA2)
						}
						if e.NormalPower > 0 && !n0.IsZero() {
							cosN := math.Max(0, float64(normal[ni].Dot(n0)))
							wgt *= math.Pow(cosN, e.NormalPower)
						}

						sum = sum.Add(c.Mul(float32(wgt)))
						sumW += wgt
					}
				}

				if sumW > 0 {
					e.out[ci] = sum.Mul(float32(1 / sumW)).Vec4(color[ci][3])
				} else {
					e.out[ci] = color[ci]
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return e.out, nil
}

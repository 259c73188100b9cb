package device

import (
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

// A free-form kernel name for dispatches without a dedicated kernel type.
type KernelName string

func (n KernelName) String() string {
	return string(n)
}

// A kernel body invoked once per work item.
type KernelFunc func(index int)

// Execute a 1D kernel over [0, globalWorkSize). Work items are split into
// dispatch tiles that are processed by at most Workers() goroutines. The
// call returns once every work item has completed, so consecutive calls are
// ordered like kernels on an in-order command queue.
func (d *Device) Exec1D(name fmt.Stringer, globalWorkSize int, fn KernelFunc) (time.Duration, error) {
	if globalWorkSize < 0 {
		return 0, fmt.Errorf("device (%s): unable to execute kernel %s with work size %d: %w", d.Name, name, globalWorkSize, ErrInvalidWorkSz)
	}

	tick := time.Now()
	if globalWorkSize == 0 {
		return 0, nil
	}

	var g errgroup.Group
	g.SetLimit(d.workers)

	for start := 0; start < globalWorkSize; start += DispatchTileSize {
		from := start
		to := start + DispatchTileSize
		if to > globalWorkSize {
			to = globalWorkSize
		}
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("device (%s): kernel %s panicked on work items [%d, %d): %v: %w", d.Name, name, from, to, r, ErrKernelPanic)
				}
			}()
			for i := from; i < to; i++ {
				fn(i)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return time.Since(tick), err
	}
	return time.Since(tick), nil
}

// Execute a 1D kernel where each work item is a whole dispatch tile. fn
// receives the tile index and its [from, to) work item range.
func (d *Device) ExecTiles(name fmt.Stringer, globalWorkSize int, fn func(tile, from, to int)) (time.Duration, error) {
	numTiles := (globalWorkSize + DispatchTileSize - 1) / DispatchTileSize
	return d.Exec1D(name, numTiles, func(tile int) {
		from := tile * DispatchTileSize
		to := from + DispatchTileSize
		if to > globalWorkSize {
			to = globalWorkSize
		}
		fn(tile, from, to)
	})
}

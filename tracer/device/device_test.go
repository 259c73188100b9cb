package device

import (
	"errors"
	"strings"
	"sync/atomic"
	"testing"
)

func TestExec1D(t *testing.T) {
	specs := []struct {
		workers  int
		workSize int
	}{
		{1, 1},
		{4, 63},
		{4, 64},
		{8, 1000},
		{3, 4096},
	}

	for specIndex, spec := range specs {
		dev := NewCPU(spec.workers, 0)
		visits := make([]int32, spec.workSize)

		_, err := dev.Exec1D(KernelName("visit"), spec.workSize, func(i int) {
			atomic.AddInt32(&visits[i], 1)
		})
		if err != nil {
			t.Fatalf("[spec %d] unexpected error: %v", specIndex, err)
		}

		for i, v := range visits {
			if v != 1 {
				t.Fatalf("[spec %d] expected work item %d to run once; ran %d times", specIndex, i, v)
			}
		}
	}
}

func TestExec1DConcurrencyLimit(t *testing.T) {
	dev := NewCPU(2, 0)

	var active, peak int32
	_, err := dev.Exec1D(KernelName("limit"), 64*16, func(i int) {
		cur := atomic.AddInt32(&active, 1)
		for {
			old := atomic.LoadInt32(&peak)
			if cur <= old || atomic.CompareAndSwapInt32(&peak, old, cur) {
				break
			}
		}
		atomic.AddInt32(&active, -1)
	})
	if err != nil {
		t.Fatal(err)
	}
	if peak > 2 {
		t.Fatalf("expected at most 2 concurrent work items; got %d", peak)
	}
}

func TestExec1DPanic(t *testing.T) {
	dev := NewCPU(4, 0)
	_, err := dev.Exec1D(KernelName("boom"), 256, func(i int) {
		if i == 130 {
			panic("bad slot")
		}
	})
	if !errors.Is(err, ErrKernelPanic) {
		t.Fatalf("expected ErrKernelPanic; got %v", err)
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected error to mention the kernel name; got %v", err)
	}
}

func TestExec1DInvalidWorkSize(t *testing.T) {
	dev := NewCPU(1, 0)
	if _, err := dev.Exec1D(KernelName("neg"), -1, func(int) {}); !errors.Is(err, ErrInvalidWorkSz) {
		t.Fatalf("expected ErrInvalidWorkSz; got %v", err)
	}
	if _, err := dev.Exec1D(KernelName("empty"), 0, func(int) { t.Fatal("kernel should not run") }); err != nil {
		t.Fatalf("expected empty dispatch to succeed; got %v", err)
	}
}

func TestExecTiles(t *testing.T) {
	dev := NewCPU(4, 0)
	var covered int64
	_, err := dev.ExecTiles(KernelName("tiles"), 200, func(tile, from, to int) {
		if from != tile*DispatchTileSize {
			t.Errorf("expected tile %d to start at %d; got %d", tile, tile*DispatchTileSize, from)
		}
		atomic.AddInt64(&covered, int64(to-from))
	})
	if err != nil {
		t.Fatal(err)
	}
	if covered != 200 {
		t.Fatalf("expected tiles to cover 200 items; got %d", covered)
	}
}

func TestReserve(t *testing.T) {
	dev := NewCPU(1, 1000)

	if err := dev.Reserve("a", 600); err != nil {
		t.Fatal(err)
	}
	if err := dev.Reserve("b", 500); !errors.Is(err, ErrOutOfMemory) {
		t.Fatalf("expected ErrOutOfMemory; got %v", err)
	}
	if got := dev.MemoryInUse(); got != 600 {
		t.Fatalf("expected failed reservation to leave 600 bytes in use; got %d", got)
	}

	// Replacing a reservation only accounts for the difference
	if err := dev.Reserve("a", 900); err != nil {
		t.Fatalf("expected resize of existing reservation to fit; got %v", err)
	}

	dev.ReleaseReservation("a")
	dev.ReleaseReservation("unknown")
	if got := dev.MemoryInUse(); got != 0 {
		t.Fatalf("expected 0 bytes in use after release; got %d", got)
	}
}

func TestPlatformInfo(t *testing.T) {
	info := PlatformInfo(SelectDevices(3, 0))
	if !strings.Contains(info, "Device 00") || !strings.Contains(info, "3 workers") {
		t.Fatalf("unexpected platform info:\n%s", info)
	}
}

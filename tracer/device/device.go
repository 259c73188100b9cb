package device

import (
	"fmt"
	"regexp"
	"runtime"
	"sync"
)

type DeviceType uint8

// Supported device types.
const (
	CpuDevice DeviceType = 1 << iota
)

// Work items are dispatched in chunks of one 8x8 tile.
const DispatchTileSize = 64

var (
	indentRegex = regexp.MustCompile("(?m)^")
)

func (dt DeviceType) String() string {
	switch dt {
	case CpuDevice:
		return "CPU"
	}
	panic("device: unsupported device type")
}

// A data-parallel device that runs kernels as goroutines on the host. All
// arena memory used by the tracer is accounted against the device budget.
type Device struct {
	Name string
	Type DeviceType

	workers int

	mu           sync.Mutex
	memoryBudget int64
	reserved     map[string]int64
	inUse        int64
}

// A list of devices.
type DeviceList []*Device

// Create a CPU device. A non-positive worker count selects GOMAXPROCS and a
// non-positive budget disables memory accounting limits.
func NewCPU(workers int, memoryBudget int64) *Device {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Device{
		Name:         fmt.Sprintf("host CPU (%s/%s)", runtime.GOOS, runtime.GOARCH),
		Type:         CpuDevice,
		workers:      workers,
		memoryBudget: memoryBudget,
		reserved:     make(map[string]int64),
	}
}

// Implements Stringer.
func (d *Device) String() string {
	budget := "unlimited"
	if d.memoryBudget > 0 {
		budget = fmt.Sprintf("%d bytes", d.memoryBudget)
	}
	return fmt.Sprintf(
		"Name: %s\nType: %s\nSpecs: %d workers, %d slot dispatch tile, %s memory budget",
		d.Name,
		d.Type.String(),
		d.workers,
		DispatchTileSize,
		budget,
	)
}

// Get the number of concurrent workers used for dispatches.
func (d *Device) Workers() int {
	return d.workers
}

// Get the configured memory budget (0 = unlimited).
func (d *Device) MemoryBudget() int64 {
	return d.memoryBudget
}

// Get the number of bytes currently reserved.
func (d *Device) MemoryInUse() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.inUse
}

// Reserve memory for a named allocation. A previous reservation with the
// same name is replaced. If the budget cannot hold the new size the previous
// reservation is kept and ErrOutOfMemory is returned.
func (d *Device) Reserve(name string, bytes int64) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	next := d.inUse - d.reserved[name] + bytes
	if d.memoryBudget > 0 && next > d.memoryBudget {
		return fmt.Errorf("device (%s): could not allocate buffer %s of size %d (%d of %d bytes in use): %w", d.Name, name, bytes, d.inUse, d.memoryBudget, ErrOutOfMemory)
	}

	d.inUse = next
	d.reserved[name] = bytes
	return nil
}

// Release a named reservation. Releasing an unknown name is a no-op.
func (d *Device) ReleaseReservation(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.inUse -= d.reserved[name]
	delete(d.reserved, name)
}

// Return the list of devices that can run the tracer.
func SelectDevices(workers int, memoryBudget int64) DeviceList {
	return DeviceList{NewCPU(workers, memoryBudget)}
}

// Describe the host platform and its devices.
func PlatformInfo(devices DeviceList) string {
	out := fmt.Sprintf("Platform:   Go %s\nCPUs:       %d\nDevices:\n", runtime.Version(), runtime.NumCPU())
	for dIdx, d := range devices {
		out += fmt.Sprintf("  Device %02d:\n", dIdx)
		out += indentRegex.ReplaceAllString(d.String(), "    ")
		out += "\n"
	}
	return out
}

package pathstate

import (
	"fmt"
	"unsafe"

	"github.com/achilleasa/wavepath/tracer/device"
)

// Paths are laid out in 8x8 tiles so that a dispatch chunk covers a screen
// tile.
const TileSize = 8

const slotsPerTile = TileSize * TileSize

// Size of buffer elements in bytes.
var (
	sizeofPayload = int64(unsafe.Sizeof(PathPayload{}))
	sizeofHit     = int64(unsafe.Sizeof(GeometryHitPayload{}))
	sizeofKey     = int64(4)
)

// Names of the device memory reservations.
const (
	payloadBuffer = "pathPayloads"
	hitBuffer     = "geometryHits"
	keyBuffer     = "sortKeys"
	sortedBuffer  = "sortedIndices"
)

// Store is an arena of parallel per-slot arrays. All arrays are indexed by
// slot and hold Capacity() entries.
type Store struct {
	dev *device.Device

	width   int
	height  int
	tilesX  int
	tilesY  int
	payload []PathPayload
	hits    []GeometryHitPayload
	keys    []uint32
	sorted  []uint32
}

// Create an empty store that allocates from the given device.
func New(dev *device.Device) *Store {
	return &Store{dev: dev}
}

func align(v int) int {
	return (v + TileSize - 1) / TileSize * TileSize
}

// Get the slot count needed for a viewport.
func CapacityFor(width, height int) int {
	return align(width) * align(height)
}

// Get the device memory needed for a viewport.
func BytesFor(width, height int) int64 {
	capacity := int64(CapacityFor(width, height))
	return capacity * (sizeofPayload + sizeofHit + 2*sizeofKey)
}

// Reallocate all arrays for the given viewport. Calling Resize with the
// current dimensions is a no-op. If the device cannot hold the arrays the
// store is left empty and the wrapped device.ErrOutOfMemory is returned.
func (s *Store) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	if width == s.width && height == s.height && s.payload != nil {
		return nil
	}

	s.Release()

	capacity := CapacityFor(width, height)
	reservations := []struct {
		name  string
		bytes int64
	}{
		{payloadBuffer, int64(capacity) * sizeofPayload},
		{hitBuffer, int64(capacity) * sizeofHit},
		{keyBuffer, int64(capacity) * sizeofKey},
		{sortedBuffer, int64(capacity) * sizeofKey},
	}
	for _, r := range reservations {
		if err := s.dev.Reserve(r.name, r.bytes); err != nil {
			s.Release()
			return fmt.Errorf("path state: could not resize to %dx%d: %w", width, height, err)
		}
	}

	s.width, s.height = width, height
	s.tilesX, s.tilesY = align(width)/TileSize, align(height)/TileSize
	s.payload = make([]PathPayload, capacity)
	s.hits = make([]GeometryHitPayload, capacity)
	s.keys = make([]uint32, capacity)
	s.sorted = make([]uint32, capacity)
	return nil
}

// Free all arrays and their device reservations.
func (s *Store) Release() {
	for _, name := range []string{payloadBuffer, hitBuffer, keyBuffer, sortedBuffer} {
		s.dev.ReleaseReservation(name)
	}
	s.width, s.height = 0, 0
	s.tilesX, s.tilesY = 0, 0
	s.payload = nil
	s.hits = nil
	s.keys = nil
	s.sorted = nil
}

// Get the number of slots; always >= Width()*Height().
func (s *Store) Capacity() int {
	return len(s.payload)
}

func (s *Store) Width() int {
	return s.width
}

func (s *Store) Height() int {
	return s.height
}

// Get the number of tiles per row.
func (s *Store) TilesX() int {
	return s.tilesX
}

// Map a slot to its pixel coordinates. Padding slots map outside the
// viewport.
func (s *Store) SlotToPixel(slot int) (int, int) {
	tileIndex := slot / slotsPerTile
	tilePixel := slot % slotsPerTile
	x := (tileIndex%s.tilesX)*TileSize + tilePixel%TileSize
	y := (tileIndex/s.tilesX)*TileSize + tilePixel/TileSize
	return x, y
}

// Map a pixel to its slot.
func (s *Store) PixelToSlot(x, y int) int {
	tileIndex := (y/TileSize)*s.tilesX + x/TileSize
	return tileIndex*slotsPerTile + (y%TileSize)*TileSize + x%TileSize
}

// Check whether a slot maps to a pixel inside the viewport.
func (s *Store) InViewport(slot int) bool {
	x, y := s.SlotToPixel(slot)
	return x < s.width && y < s.height
}

func (s *Store) Payloads() []PathPayload {
	return s.payload
}

func (s *Store) Hits() []GeometryHitPayload {
	return s.hits
}

func (s *Store) Keys() []uint32 {
	return s.keys
}

func (s *Store) Sorted() []uint32 {
	return s.sorted
}

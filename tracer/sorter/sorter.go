package sorter

import (
	"fmt"
	"math/bits"
	"time"

	"github.com/achilleasa/wavepath/tracer/device"
)

const (
	// Bits consumed per radix pass.
	RadixBits = 4

	radixBuckets = 1 << RadixBits
	radixMask    = radixBuckets - 1

	// Elements processed by one block of the count and scatter kernels.
	blockSize = 16 * device.DispatchTileSize

	scratchBuffer = "sortScratch"
)

// Sorter orders slot indices by their coherence keys using a parallel LSD
// radix sort. Keys are only read; the permutation is written to the index
// buffer. Inactive (zero) keys are ranked after every other key so they form
// the contiguous tail of the output.
type Sorter struct {
	dev *device.Device

	scratch    []uint32
	histograms [][radixBuckets]uint32
	zeros      []uint32
}

// Create a sorter that runs its kernels on dev.
func New(dev *device.Device) *Sorter {
	return &Sorter{dev: dev}
}

// Get the number of radix passes needed to sort keys in [0, maxKey].
func Passes(maxKey uint32) int {
	if maxKey < 1 {
		maxKey = 1
	}
	passes := (bits.Len32(maxKey) + RadixBits - 1) / RadixBits
	if passes < 1 {
		passes = 1
	}
	return passes
}

// Fill the index buffer with the identity permutation. Used when sorting is
// disabled.
func (s *Sorter) Identity(sorted []uint32) (time.Duration, error) {
	return s.dev.Exec1D(fillIdentity, len(sorted), func(i int) {
		sorted[i] = uint32(i)
	})
}

// Release scratch memory.
func (s *Sorter) Release() {
	s.dev.ReleaseReservation(scratchBuffer)
	s.scratch = nil
	s.histograms = nil
	s.zeros = nil
}

// Reserve scratch memory for sorting n keys. Sort reserves on demand; callers
// that size buffers up front call Reserve so an exhausted budget surfaces
// before any dispatch.
func (s *Sorter) Reserve(n int) error {
	if n <= 0 {
		return nil
	}
	return s.ensureScratch(n)
}

func (s *Sorter) ensureScratch(n int) error {
	numBlocks := (n + blockSize - 1) / blockSize
	if len(s.scratch) == n && len(s.histograms) == numBlocks {
		return nil
	}

	bytes := int64(n)*4 + int64(numBlocks)*(radixBuckets+1)*4
	if err := s.dev.Reserve(scratchBuffer, bytes); err != nil {
		return fmt.Errorf("sorter: could not allocate scratch for %d keys: %w", n, err)
	}
	s.scratch = make([]uint32, n)
	s.histograms = make([][radixBuckets]uint32, numBlocks)
	s.zeros = make([]uint32, numBlocks)
	return nil
}

// Sort writes to sorted a permutation of [0, len(keys)) that groups equal
// keys together, orders active keys first and places all zero keys at the
// tail. Keys above maxKey are treated as maxKey. It returns the number of
// active (non-zero) keys, which is also the index of the first inactive
// entry in sorted.
func (s *Sorter) Sort(keys, sorted []uint32, maxKey uint32) (int, time.Duration, error) {
	if len(keys) != len(sorted) {
		return 0, 0, fmt.Errorf("%w: %d keys, %d indices", ErrLengthMismatch, len(keys), len(sorted))
	}

	n := len(keys)
	if n == 0 {
		return 0, 0, nil
	}
	if maxKey < 1 {
		maxKey = 1
	}

	tick := time.Now()
	if err := s.ensureScratch(n); err != nil {
		return 0, 0, err
	}

	// Zero keys rank last; the rest shift down by one so ranks span [0, maxKey].
	rank := func(key uint32) uint32 {
		if key == 0 {
			return maxKey
		}
		if key > maxKey {
			key = maxKey
		}
		return key - 1
	}

	// Ping-pong between sorted and scratch so that the last pass writes into
	// sorted.
	passes := Passes(maxKey)
	src, dst := sorted, s.scratch
	if passes%2 == 1 {
		src, dst = s.scratch, sorted
	}
	if _, err := s.dev.Exec1D(fillIdentity, n, func(i int) { src[i] = uint32(i) }); err != nil {
		return 0, time.Since(tick), err
	}

	numBlocks := len(s.histograms)
	active := n
	for pass := 0; pass < passes; pass++ {
		shift := uint(pass * RadixBits)

		_, err := s.dev.Exec1D(countDigits, numBlocks, func(block int) {
			var hist [radixBuckets]uint32
			var zeros uint32
			from, to := blockRange(block, n)
			for i := from; i < to; i++ {
				key := keys[src[i]]
				if key == 0 {
					zeros++
				}
				hist[(rank(key)>>shift)&radixMask]++
			}
			s.histograms[block] = hist
			s.zeros[block] = zeros
		})
		if err != nil {
			return 0, time.Since(tick), err
		}

		if pass == 0 {
			for _, z := range s.zeros {
				active -= int(z)
			}
			// Nothing to order; a single pass was enough to find out.
			if active == 0 {
				if _, err = s.Identity(sorted); err != nil {
					return 0, time.Since(tick), err
				}
				return 0, time.Since(tick), nil
			}
		}

		s.scanHistograms()

		_, err = s.dev.Exec1D(scatterIndices, numBlocks, func(block int) {
			offsets := s.histograms[block]
			from, to := blockRange(block, n)
			for i := from; i < to; i++ {
				index := src[i]
				digit := (rank(keys[index]) >> shift) & radixMask
				dst[offsets[digit]] = index
				offsets[digit]++
			}
		})
		if err != nil {
			return 0, time.Since(tick), err
		}

		src, dst = dst, src
	}

	return active, time.Since(tick), nil
}

// Convert per-block digit counts into per-block scatter offsets: an exclusive
// scan over digits first and blocks second.
func (s *Sorter) scanHistograms() {
	var sum uint32
	for digit := 0; digit < radixBuckets; digit++ {
		for block := range s.histograms {
			count := s.histograms[block][digit]
			s.histograms[block][digit] = sum
			sum += count
		}
	}
}

func blockRange(block, n int) (int, int) {
	from := block * blockSize
	to := from + blockSize
	if to > n {
		to = n
	}
	return from, to
}

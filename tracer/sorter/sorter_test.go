package sorter

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/achilleasa/wavepath/tracer/device"
)

func checkSorted(t *testing.T, specIndex int, keys, sorted []uint32, active int) {
	t.Helper()

	seen := make([]bool, len(keys))
	for _, index := range sorted {
		if int(index) >= len(keys) || seen[index] {
			t.Fatalf("[spec %d] output is not a permutation; index %d repeated or out of range", specIndex, index)
		}
		seen[index] = true
	}

	expActive := 0
	for _, k := range keys {
		if k != 0 {
			expActive++
		}
	}
	if active != expActive {
		t.Fatalf("[spec %d] expected %d active keys; got %d", specIndex, expActive, active)
	}

	// Active keys first, zero keys contiguous at the tail
	for pos, index := range sorted {
		isZero := keys[index] == 0
		if pos < active && isZero {
			t.Fatalf("[spec %d] found zero key at position %d before the active count %d", specIndex, pos, active)
		}
		if pos >= active && !isZero {
			t.Fatalf("[spec %d] found active key at tail position %d", specIndex, pos)
		}
	}

	// Equal keys form a single run
	closed := make(map[uint32]bool)
	for pos := 0; pos < active; pos++ {
		key := keys[sorted[pos]]
		if closed[key] {
			t.Fatalf("[spec %d] key %d appears in more than one run", specIndex, key)
		}
		if pos+1 < active && keys[sorted[pos+1]] != key {
			closed[key] = true
		}
	}
}

func TestSort(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	random := func(n int, maxKey uint32) []uint32 {
		keys := make([]uint32, n)
		for i := range keys {
			keys[i] = uint32(rng.Intn(int(maxKey) + 1))
		}
		return keys
	}

	specs := []struct {
		keys   []uint32
		maxKey uint32
	}{
		{[]uint32{3, 0, 1, 2, 0, 3, 1}, 4},
		{[]uint32{0, 0, 0, 0}, 4},
		{[]uint32{2, 2, 2, 2, 2}, 4},
		{[]uint32{1}, 1},
		{random(64, 4), 4},
		{random(5000, 4), 4},
		{random(20000, 300), 300},
		{random(3000, 70000), 70000},
	}

	for specIndex, spec := range specs {
		s := New(device.NewCPU(4, 0))
		keysCopy := append([]uint32(nil), spec.keys...)
		sorted := make([]uint32, len(spec.keys))

		active, _, err := s.Sort(spec.keys, sorted, spec.maxKey)
		if err != nil {
			t.Fatalf("[spec %d] unexpected error: %v", specIndex, err)
		}
		checkSorted(t, specIndex, spec.keys, sorted, active)

		for i := range keysCopy {
			if keysCopy[i] != spec.keys[i] {
				t.Fatalf("[spec %d] sort modified key %d", specIndex, i)
			}
		}
	}
}

func TestSortAllZero(t *testing.T) {
	s := New(device.NewCPU(2, 0))
	keys := make([]uint32, 300)
	sorted := make([]uint32, 300)
	for i := range sorted {
		sorted[i] = 7
	}

	active, _, err := s.Sort(keys, sorted, 4)
	if err != nil {
		t.Fatal(err)
	}
	if active != 0 {
		t.Fatalf("expected 0 active keys; got %d", active)
	}
	for i, index := range sorted {
		if index != uint32(i) {
			t.Fatalf("expected identity permutation for all-zero keys; got %d at %d", index, i)
		}
	}
}

func TestSortIsStable(t *testing.T) {
	s := New(device.NewCPU(3, 0))
	keys := []uint32{2, 1, 2, 0, 1, 2, 0, 1}
	sorted := make([]uint32, len(keys))

	if _, _, err := s.Sort(keys, sorted, 2); err != nil {
		t.Fatal(err)
	}

	exp := []uint32{1, 4, 7, 0, 2, 5, 3, 6}
	for i := range exp {
		if sorted[i] != exp[i] {
			t.Fatalf("expected stable order %v; got %v", exp, sorted)
		}
	}
}

func TestSortClampsLargeKeys(t *testing.T) {
	s := New(device.NewCPU(1, 0))
	keys := []uint32{9, 0, 4, 1, 12}
	sorted := make([]uint32, len(keys))

	active, _, err := s.Sort(keys, sorted, 4)
	if err != nil {
		t.Fatal(err)
	}
	if active != 4 {
		t.Fatalf("expected 4 active keys; got %d", active)
	}
	if sorted[len(sorted)-1] != 1 {
		t.Fatalf("expected the zero key to sort last; got %v", sorted)
	}
}

func TestPasses(t *testing.T) {
	specs := []struct {
		maxKey    uint32
		expPasses int
	}{
		{0, 1},
		{1, 1},
		{15, 1},
		{16, 2},
		{255, 2},
		{256, 3},
		{0xFFFFFFFF, 8},
	}
	for specIndex, spec := range specs {
		if got := Passes(spec.maxKey); got != spec.expPasses {
			t.Fatalf("[spec %d] expected %d passes for max key %d; got %d", specIndex, spec.expPasses, spec.maxKey, got)
		}
	}
}

func TestSortErrors(t *testing.T) {
	s := New(device.NewCPU(1, 0))
	if _, _, err := s.Sort(make([]uint32, 3), make([]uint32, 4), 4); !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("expected ErrLengthMismatch; got %v", err)
	}

	s = New(device.NewCPU(1, 16))
	if err := s.Reserve(1024); !errors.Is(err, device.ErrOutOfMemory) {
		t.Fatalf("expected Reserve to fail with ErrOutOfMemory; got %v", err)
	}
	if err := s.Reserve(0); err != nil {
		t.Fatalf("expected empty reservation to succeed; got %v", err)
	}

	if _, _, err := s.Sort(make([]uint32, 1024), make([]uint32, 1024), 4); !errors.Is(err, device.ErrOutOfMemory) {
		t.Fatalf("expected ErrOutOfMemory; got %v", err)
	}
}

package scene

import "sync"

// A ShaderCache tracks the shading kernels available for each coherence key.
// Reloading bumps the content version and marks the reloaded kernels as
// compiling until Compile is called.
type ShaderCache struct {
	mu        sync.RWMutex
	version   int64
	compiling map[uint32]bool
}

// Create a cache where every kernel is ready.
func NewShaderCache() *ShaderCache {
	return &ShaderCache{
		version:   1,
		compiling: make(map[uint32]bool),
	}
}

// Get the content version. It changes every time a kernel is reloaded.
func (sc *ShaderCache) ContentVersion() int64 {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.version
}

// Check whether the kernel for a coherence key can run.
func (sc *ShaderCache) Ready(key uint32) bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return !sc.compiling[key]
}

// Simulate a hot reload of the kernels for the given keys. With no keys the
// version is bumped without invalidating any kernel.
func (sc *ShaderCache) Reload(keys ...uint32) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	sc.version++
	for _, key := range keys {
		sc.compiling[key] = true
	}
}

// Finish compiling all pending kernels.
func (sc *ShaderCache) Compile() {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if len(sc.compiling) == 0 {
		return
	}
	sc.compiling = make(map[uint32]bool)
	sc.version++
}

// Get the number of kernels still compiling.
func (sc *ShaderCache) Pending() int {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return len(sc.compiling)
}

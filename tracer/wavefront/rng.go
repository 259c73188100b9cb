package wavefront

// Seeds that decorrelate the random streams used for different purposes.
const (
	hashSeedAAJitter        uint32 = 0x09FFF95B
	hashSeedRussianRoulette uint32 = 0x1D6F5FC9
	hashSeedDivergence      uint32 = 0x5A3C1E7D
)

// A 32 bit integer hash with good avalanche behavior (lowbias32).
func hash32(x uint32) uint32 {
	x ^= x >> 16
	x *= 0x7feb352d
	x ^= x >> 15
	x *= 0x846ca68b
	x ^= x >> 16
	return x
}

func hashCombine(seed, v uint32) uint32 {
	return hash32(seed ^ (hash32(v) + 0x9e3779b9 + (seed << 6) + (seed >> 2)))
}

// Map a hash to a float in [0, 1).
func hashToFloat(h uint32) float32 {
	return float32(h>>8) * (1.0 / (1 << 24))
}

// Seed the path for a pixel and sample index.
func pathSeed(pixelIndex, sampleIndex uint32) uint32 {
	return hashCombine(hash32(pixelIndex), sampleIndex)
}

// Advance the seed and return a float in [0, 1).
func nextFloat(seed *uint32) float32 {
	*seed = hash32(*seed + 0x68e31da4)
	return hashToFloat(*seed)
}

// Draw a float from an independent stream without advancing the seed.
func streamFloat(seed, stream uint32) float32 {
	return hashToFloat(hashCombine(seed, stream))
}

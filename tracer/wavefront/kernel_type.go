package wavefront

import "fmt"

type kernelType uint8

// The list of kernels that implement a sample.
const (
	kickoffPaths kernelType = iota
	identityPaths
	sortPaths
	tracePaths
	commitPaths
	//
	numKernels
)

// Implements Stringer.
func (kt kernelType) String() string {
	switch kt {
	case kickoffPaths:
		return "kickoffPaths"
	case identityPaths:
		return "identityPaths"
	case sortPaths:
		return "sortPaths"
	case tracePaths:
		return "tracePaths"
	case commitPaths:
		return "commitPaths"
	default:
		panic(fmt.Sprintf("Unsupported kernel type: %d", kt))
	}
}

// Get the names of all kernels in dispatch order.
func KernelNames() []string {
	names := make([]string, numKernels)
	for kt := kernelType(0); kt < numKernels; kt++ {
		names[kt] = kt.String()
	}
	return names
}

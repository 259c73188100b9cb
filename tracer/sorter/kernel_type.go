package sorter

import "fmt"

type kernelType uint8

// The list of kernels that implement the sort.
const (
	fillIdentity kernelType = iota
	countDigits
	scatterIndices
	//
	numKernels
)

// Implements Stringer.
func (kt kernelType) String() string {
	switch kt {
	case fillIdentity:
		return "sortFillIdentity"
	case countDigits:
		return "sortCountDigits"
	case scatterIndices:
		return "sortScatterIndices"
	default:
		panic(fmt.Sprintf("Unsupported kernel type: %d", kt))
	}
}

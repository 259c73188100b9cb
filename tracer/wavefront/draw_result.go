package wavefront

import "strings"

// DrawResult is a bitset describing why a sample could not be produced.
// Results from several samples are OR-combined.
type DrawResult uint32

const (
	DrawResultNone             DrawResult = 0
	DrawResultUnspecifiedError DrawResult = 1 << (iota - 1)
	DrawResultShadersStillCompiling
	DrawResultAssetsStillLoading
	DrawResultPendingVisualDependencies
)

// Check whether the sample is valid.
func (r DrawResult) OK() bool {
	return r == DrawResultNone
}

// Check whether all bits of flag are set.
func (r DrawResult) Has(flag DrawResult) bool {
	return flag != 0 && r&flag == flag
}

func (r DrawResult) String() string {
	if r == DrawResultNone {
		return "none"
	}

	var parts []string
	names := []struct {
		flag DrawResult
		name string
	}{
		{DrawResultUnspecifiedError, "unspecified error"},
		{DrawResultShadersStillCompiling, "shaders still compiling"},
		{DrawResultAssetsStillLoading, "assets still loading"},
		{DrawResultPendingVisualDependencies, "pending visual dependencies"},
	}
	for _, n := range names {
		if r&n.flag != 0 {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}

package accum

import (
	"fmt"
	"strings"
)

type Mode uint8

const (
	// Converge a still image to the target sample count.
	StaticAccumulate Mode = iota
	// Restart every tick and average a fixed number of samples.
	RealTime
)

func (m Mode) String() string {
	switch m {
	case StaticAccumulate:
		return "static"
	case RealTime:
		return "realtime"
	}
	return fmt.Sprintf("unknown(%d)", uint8(m))
}

// Parse a mode name.
func ParseMode(name string) (Mode, error) {
	switch strings.ToLower(name) {
	case "static":
		return StaticAccumulate, nil
	case "realtime", "real-time":
		return RealTime, nil
	}
	return StaticAccumulate, fmt.Errorf("accum: unknown mode %q", name)
}

type State uint8

const (
	Idle State = iota
	Accumulating
	Saturated
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Accumulating:
		return "accumulating"
	case Saturated:
		return "saturated"
	}
	return fmt.Sprintf("unknown(%d)", uint8(s))
}

package graph

import "time"

// Bound is a default plus an inclusive range for a caller supplied integer.
type Bound struct {
	Default int
	Min     int
	Max     int
}

// Clamp returns v forced into [Min, Max]. A nil v takes the default.
func (b Bound) Clamp(v *int) int {
	n := b.Default
	if v != nil {
		n = *v
	}
	if n < b.Min {
		return b.Min
	}
	if n > b.Max {
		return b.Max
	}
	return n
}

// Limit is like Clamp but treats non-positive values as "use the default".
func (b Bound) Limit(v *int) int {
	if v == nil || *v <= 0 {
		return b.Default
	}
	if *v > b.Max {
		return b.Max
	}
	return *v
}

var (
	ListLimit     = Bound{Default: 25, Min: 1, Max: 500}
	SearchLimit   = Bound{Default: 20, Min: 1, Max: 50}
	NeighborLimit = Bound{Default: 50, Min: 1, Max: 300}
	GraphLimit    = Bound{Default: 300, Min: 1, Max: 3000}
	ViewportLimit = Bound{Default: 800, Min: 1, Max: 5000}
	TimelineLimit = Bound{Default: 500, Min: 1, Max: 3000}

	ViewportNetworkHops = Bound{Default: 2, Min: 1, Max: 6}
	ViewportTreeHops    = Bound{Default: 3, Min: 1, Max: 6}
	TreeDepth           = Bound{Default: 3, Min: 0, Max: 6}
	PathHops            = Bound{Default: 10, Min: 1, Max: 20}
)

const DefaultYearFrom = 1500

// DefaultYearTo is the current calendar year.
func DefaultYearTo() int {
	return time.Now().Year()
}

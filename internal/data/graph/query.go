package graph

import "strings"

// Query is a parameterized Cypher statement. Name identifies the view for
// logs, spans and metrics.
type Query struct {
	Name   string
	Cypher string
	Params map[string]any
}

// Direction is the traversal direction for one-hop neighbor expansion.
type Direction int

const (
	DirectionBoth Direction = iota
	DirectionIn
	DirectionOut
)

// ParseDirection maps "in"/"out" to their variants; anything else is both.
func ParseDirection(raw string) Direction {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "in":
		return DirectionIn
	case "out":
		return DirectionOut
	default:
		return DirectionBoth
	}
}

func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "in"
	case DirectionOut:
		return "out"
	default:
		return "both"
	}
}

// neighborPatterns is the fixed pattern per direction; no caller text is
// ever spliced into Cypher.
var neighborPatterns = map[Direction]string{
	DirectionIn:   `MATCH (n)<-[r]-(m:Theory)`,
	DirectionOut:  `MATCH (n)-[r]->(m:Theory)`,
	DirectionBoth: `MATCH (n)-[r]-(m:Theory)`,
}

func (d Direction) pattern() string {
	if p, ok := neighborPatterns[d]; ok {
		return p
	}
	return neighborPatterns[DirectionBoth]
}

// Strategy selects how the path resolver constrains candidate paths.
type Strategy string

const (
	StrategyShortest        Strategy = "shortest"
	StrategyTimeConstrained Strategy = "time_constrained"
)

// ParseStrategy accepts "time_constrained"; everything else is shortest.
func ParseStrategy(raw string) Strategy {
	if strings.TrimSpace(raw) == string(StrategyTimeConstrained) {
		return StrategyTimeConstrained
	}
	return StrategyShortest
}

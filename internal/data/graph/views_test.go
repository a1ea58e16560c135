package graph

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intp(v int) *int { return &v }

func TestParseDirection(t *testing.T) {
	assert.Equal(t, DirectionIn, ParseDirection("in"))
	assert.Equal(t, DirectionOut, ParseDirection(" OUT "))
	assert.Equal(t, DirectionBoth, ParseDirection("both"))
	assert.Equal(t, DirectionBoth, ParseDirection("sideways"))
	assert.Equal(t, DirectionBoth, ParseDirection(""))
}

func TestNeighborsPatternPerDirection(t *testing.T) {
	cases := map[Direction]string{
		DirectionIn:   "(n)<-[r]-(m:Theory)",
		DirectionOut:  "(n)-[r]->(m:Theory)",
		DirectionBoth: "(n)-[r]-(m:Theory)",
	}
	for dir, want := range cases {
		q := Neighbors("x", dir, nil, 10)
		assert.Contains(t, q.Cypher, want, dir.String())
		assert.Nil(t, q.Params["relTypes"])
		assert.Equal(t, int64(10), q.Params["limit"])
	}

	q := Neighbors("x", DirectionOut, []string{"INCLUDES"}, 5)
	assert.Equal(t, []string{"INCLUDES"}, q.Params["relTypes"])
}

func TestBoundClampAndLimit(t *testing.T) {
	assert.Equal(t, 3, TreeDepth.Clamp(nil))
	assert.Equal(t, 0, TreeDepth.Clamp(intp(-4)))
	assert.Equal(t, 6, TreeDepth.Clamp(intp(99)))
	assert.Equal(t, 1, PathHops.Clamp(intp(0)))
	assert.Equal(t, 20, PathHops.Clamp(intp(21)))

	assert.Equal(t, 20, SearchLimit.Limit(nil))
	assert.Equal(t, 20, SearchLimit.Limit(intp(0)))
	assert.Equal(t, 50, SearchLimit.Limit(intp(1000)))
	assert.Equal(t, 7, SearchLimit.Limit(intp(7)))
	assert.Equal(t, 5000, ViewportLimit.Limit(intp(1<<20)))
}

func TestTreeInterpolatesClampedDepthOnly(t *testing.T) {
	q := Tree("科学", 42)
	assert.Contains(t, q.Cypher, "[:INCLUDES*0..6]")
	assert.Equal(t, "科学", q.Params["rootId"])

	q = Tree("科学", 0)
	assert.Contains(t, q.Cypher, "[:INCLUDES*0..0]")
}

func TestViewportQueries(t *testing.T) {
	q := ViewportCandidates("c1", 9)
	assert.Contains(t, q.Cypher, "[*1..6]")
	assert.Equal(t, "c1", q.Params["centerId"])

	ids := []string{"4:a:1", "4:a:2"}
	e := ViewportEdges(ids, 100)
	ids[0] = "mutated"
	assert.Equal(t, []string{"4:a:1", "4:a:2"}, e.Params["ids"])
	assert.Equal(t, int64(100), e.Params["limit"])
}

func TestShortestPathPredicates(t *testing.T) {
	q := ShortestPath(PathSpec{StartID: "a", EndID: "b", Strategy: StrategyShortest, MaxHops: 10, YearFrom: intp(1900)})
	assert.Contains(t, q.Cypher, "shortestPath((src)-[*..10]-(dst))")
	assert.Contains(t, q.Cypher, "type(x) IN $allowRel")
	assert.NotContains(t, q.Cypher, "coalesce(")
	assert.Nil(t, q.Params["allowRel"])
	assert.Nil(t, q.Params["fromYear"], "shortest strategy ignores the year window")

	q = ShortestPath(PathSpec{
		StartID:         "a",
		EndID:           "b",
		Strategy:        StrategyTimeConstrained,
		AllowedRelTypes: []string{"INCLUDES"},
		YearFrom:        intp(1900),
		MaxHops:         50,
	})
	assert.Contains(t, q.Cypher, "[*..20]")
	assert.Equal(t, 2, strings.Count(q.Cypher, "coalesce(x.year, src.year, dst.year)"))
	assert.Equal(t, []string{"INCLUDES"}, q.Params["allowRel"])
	assert.Equal(t, int64(1900), q.Params["fromYear"])
	require.Contains(t, q.Params, "toYear")
	assert.Nil(t, q.Params["toYear"])
}

func TestShortestPathSkipsSameNode(t *testing.T) {
	q := ShortestPath(PathSpec{StartID: "a", EndID: "Alpha", Strategy: StrategyShortest, MaxHops: 5})
	same := strings.Index(q.Cypher, "WHERE src = dst")
	differ := strings.Index(q.Cypher, "WHERE src <> dst")
	search := strings.Index(q.Cypher, "shortestPath(")
	require.True(t, same >= 0 && differ >= 0, q.Cypher)
	assert.Contains(t, q.Cypher, "RETURN null AS p")
	assert.Contains(t, q.Cypher, "UNION")
	assert.Less(t, differ, search, "shortestPath only runs on the src <> dst branch")
	assert.Less(t, same, differ)
}

func TestParseStrategy(t *testing.T) {
	assert.Equal(t, StrategyTimeConstrained, ParseStrategy("time_constrained"))
	assert.Equal(t, StrategyShortest, ParseStrategy("shortest"))
	assert.Equal(t, StrategyShortest, ParseStrategy("fastest"))
}

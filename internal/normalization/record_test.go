package normalization

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToNativeConvertsNestedIntegers(t *testing.T) {
	in := map[string]any{
		"a": int32(7),
		"b": []any{int8(1), uint16(2), map[string]any{"c": int(3), "d": []any{uint64(4)}}},
		"e": float32(1.5),
		"f": json.Number("42"),
		"g": "text",
		"h": nil,
	}

	out, ok := ToNative(in).(map[string]any)
	require.True(t, ok)

	assert.Equal(t, int64(7), out["a"])
	b := out["b"].([]any)
	require.Len(t, b, 3)
	assert.Equal(t, int64(1), b[0])
	assert.Equal(t, int64(2), b[1])
	inner := b[2].(map[string]any)
	assert.Equal(t, int64(3), inner["c"])
	assert.Equal(t, []any{int64(4)}, inner["d"])
	assert.Equal(t, float64(1.5), out["e"])
	assert.Equal(t, int64(42), out["f"])
	assert.Equal(t, "text", out["g"])
	assert.Nil(t, out["h"])
	assertNoWrappers(t, out)
}

func TestToNativeTemporalAndSpatial(t *testing.T) {
	d := dbtype.Date(time.Date(1905, time.June, 30, 0, 0, 0, 0, time.UTC))
	out := ToNative(map[string]any{
		"published": d,
		"where":     dbtype.Point2D{X: 1, Y: 2, SpatialRefId: 7203},
	}).(map[string]any)

	assert.Equal(t, "1905-06-30", out["published"])
	assert.Equal(t, map[string]any{"x": float64(1), "y": float64(2), "srid": int64(7203)}, out["where"])
}

func assertNoWrappers(t *testing.T, v any) {
	t.Helper()
	switch x := v.(type) {
	case map[string]any:
		for _, inner := range x {
			assertNoWrappers(t, inner)
		}
	case []any:
		for _, inner := range x {
			assertNoWrappers(t, inner)
		}
	case nil, int64, float64, string, bool:
	default:
		t.Fatalf("unexpected leaf type %T", v)
	}
}

func TestEntityIDFallsBackToName(t *testing.T) {
	e := Entity(dbtype.Node{Props: map[string]any{"name": "相对论", "year": int64(1905)}})
	assert.Equal(t, "相对论", e.ID)
	assert.Equal(t, "相对论", e.Name)
	require.NotNil(t, e.Year)
	assert.Equal(t, 1905, *e.Year)
}

func TestEntityAbsentFieldsStayAbsent(t *testing.T) {
	e := Entity(dbtype.Node{Props: map[string]any{"id": "physics", "name": "物理学"}})
	assert.Nil(t, e.Year)
	assert.Nil(t, e.Level)
	assert.Nil(t, e.CitationGrowth)
	assert.Empty(t, e.Keywords)

	raw, err := json.Marshal(e)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"physics","name":"物理学"}`, string(raw))
}

func TestEntityToleratesMalformedProps(t *testing.T) {
	e := Entity(dbtype.Node{Props: map[string]any{
		"id":              "x",
		"name":            "X",
		"year":            "not a year",
		"level":           float64(2),
		"citation_growth": float64(12.5),
		"keywords":        []any{"a", "b", nil, " c "},
	}})
	assert.Nil(t, e.Year)
	require.NotNil(t, e.Level)
	assert.Equal(t, 2, *e.Level)
	assert.Nil(t, e.CitationGrowth)
	assert.Equal(t, "a,b,c", e.Keywords)
}

func TestEntityNilProps(t *testing.T) {
	e := Entity(dbtype.Node{})
	assert.Empty(t, e.ID)
	assert.Empty(t, e.Name)
}

func TestEdgeDefaultsID(t *testing.T) {
	rel := dbtype.Relationship{Type: "INCLUDES", Props: map[string]any{"description": "d", "year": int32(1920)}}
	e := Edge(rel, "a", "b")
	assert.Equal(t, "a::INCLUDES::b", e.ID)
	assert.Equal(t, "a", e.Source)
	assert.Equal(t, "b", e.Target)
	assert.Equal(t, "INCLUDES", e.Type)
	assert.Equal(t, "d", e.Description)
	require.NotNil(t, e.Year)
	assert.Equal(t, 1920, *e.Year)

	withID := Edge(dbtype.Relationship{Type: "RELATED_TO", Props: map[string]any{"id": "r1"}}, "a", "b")
	assert.Equal(t, "r1", withID.ID)
}

func TestEdgeYearPresence(t *testing.T) {
	year := func(v any) Year {
		return EdgeYear(dbtype.Relationship{Props: map[string]any{"year": v}})
	}
	assert.Equal(t, Year{Value: 1920, Present: true, Numeric: true}, year(int32(1920)))
	assert.Equal(t, Year{Value: 1950.5, Present: true, Numeric: true}, year(1950.5))
	assert.Equal(t, Year{Present: true}, year("1950"))
	assert.Equal(t, Year{}, year(nil))
	assert.Equal(t, Year{}, EdgeYear(dbtype.Relationship{}))

	nan := year(math.NaN())
	assert.True(t, nan.Present)
	assert.False(t, nan.Numeric)

	assert.Equal(t, Year{Value: 1687, Present: true, Numeric: true}, NodeYear(dbtype.Node{Props: map[string]any{"year": int64(1687)}}))
}

func TestTypeSet(t *testing.T) {
	assert.Equal(t, []string{"INCLUDES", "RELATED_TO"}, TypeSet([]string{" RELATED_TO", "INCLUDES", "RELATED_TO", ""}))
	assert.Nil(t, TypeSet([]string{" ", ""}))
	assert.Nil(t, SplitList("  "))
	assert.Equal(t, []string{"A", "B"}, SplitList("B, A,,"))
}

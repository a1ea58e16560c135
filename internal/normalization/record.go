package normalization

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"

	"github.com/yungbote/sciencemap-backend/internal/domain"
)

// ToNative converts driver-native values into plain Go values with the same
// shape: every integer kind becomes int64, float32 becomes float64, temporal
// and spatial wrappers become strings/maps, and maps/slices are walked
// recursively.
func ToNative(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case int:
		return int64(t)
	case int8:
		return int64(t)
	case int16:
		return int64(t)
	case int32:
		return int64(t)
	case int64:
		return t
	case uint:
		return clampUint(uint64(t))
	case uint8:
		return int64(t)
	case uint16:
		return int64(t)
	case uint32:
		return int64(t)
	case uint64:
		return clampUint(t)
	case float32:
		return float64(t)
	case float64, string, bool:
		return t
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case []byte:
		return string(t)
	case time.Time:
		return t.Format(time.RFC3339Nano)
	case dbtype.Date:
		return time.Time(t).Format("2006-01-02")
	case dbtype.LocalDateTime:
		return time.Time(t).Format("2006-01-02T15:04:05.999999999")
	case dbtype.LocalTime:
		return time.Time(t).Format("15:04:05.999999999")
	case dbtype.Time:
		return time.Time(t).Format("15:04:05.999999999Z07:00")
	case dbtype.Duration:
		return t.String()
	case dbtype.Point2D:
		return map[string]any{"x": t.X, "y": t.Y, "srid": int64(t.SpatialRefId)}
	case dbtype.Point3D:
		return map[string]any{"x": t.X, "y": t.Y, "z": t.Z, "srid": int64(t.SpatialRefId)}
	case dbtype.Node:
		return ToNative(t.Props)
	case dbtype.Relationship:
		return ToNative(t.Props)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, inner := range t {
			out[k] = ToNative(inner)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, inner := range t {
			out[i] = ToNative(inner)
		}
		return out
	case []string:
		out := make([]any, len(t))
		for i, inner := range t {
			out[i] = inner
		}
		return out
	case []int64:
		out := make([]any, len(t))
		for i, inner := range t {
			out[i] = inner
		}
		return out
	default:
		return v
	}
}

func clampUint(u uint64) int64 {
	if u > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(u)
}

// Props returns the natively converted property map, never nil.
func Props(raw map[string]any) map[string]any {
	if raw == nil {
		return map[string]any{}
	}
	if m, ok := ToNative(raw).(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

// Entity shapes a Theory node. id falls back to name; fields that are absent
// or of an unusable type stay absent.
func Entity(node dbtype.Node) domain.Entity {
	props := Props(node.Props)
	name := stringProp(props, "name")
	id := stringProp(props, "id")
	if id == "" {
		id = name
	}
	return domain.Entity{
		ID:             id,
		Name:           name,
		EnName:         stringProp(props, "en_name"),
		Discipline:     stringProp(props, "discipline"),
		Description:    stringProp(props, "description"),
		Level:          intProp(props, "level"),
		Year:           intProp(props, "year"),
		Keywords:       keywordsProp(props, "keywords"),
		DOI:            stringProp(props, "doi"),
		CitationGrowth: intProp(props, "citation_growth"),
	}
}

// Edge shapes a relationship between already-normalized endpoint ids.
func Edge(rel dbtype.Relationship, sourceID, targetID string) domain.Relationship {
	props := Props(rel.Props)
	id := stringProp(props, "id")
	if id == "" {
		id = EdgeID(sourceID, rel.Type, targetID)
	}
	return domain.Relationship{
		ID:          id,
		Source:      sourceID,
		Target:      targetID,
		Type:        rel.Type,
		Description: stringProp(props, "description"),
		Year:        intProp(props, "year"),
	}
}

func EdgeID(sourceID, relType, targetID string) string {
	return sourceID + "::" + relType + "::" + targetID
}

// Year is a raw year property as the store compares it. Present means the
// property is set and non-null; Numeric means Value is a usable number,
// fractional values included.
type Year struct {
	Value   float64
	Present bool
	Numeric bool
}

// EdgeYear reads the year property of a raw relationship.
func EdgeYear(rel dbtype.Relationship) Year {
	return yearProp(Props(rel.Props), "year")
}

// NodeYear reads the year property of a raw node.
func NodeYear(node dbtype.Node) Year {
	return yearProp(Props(node.Props), "year")
}

func yearProp(props map[string]any, key string) Year {
	switch v := props[key].(type) {
	case nil:
		return Year{}
	case int64:
		return Year{Value: float64(v), Present: true, Numeric: true}
	case float64:
		return Year{Value: v, Present: true, Numeric: !math.IsNaN(v)}
	default:
		return Year{Present: true}
	}
}

func stringProp(props map[string]any, key string) string {
	switch v := props[key].(type) {
	case string:
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

func intProp(props map[string]any, key string) *int {
	switch v := props[key].(type) {
	case int64:
		n := int(v)
		return &n
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
			return nil
		}
		n := int(v)
		return &n
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return nil
		}
		return &n
	default:
		return nil
	}
}

func keywordsProp(props map[string]any, key string) string {
	switch v := props[key].(type) {
	case string:
		return v
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			if item == nil {
				continue
			}
			s := strings.TrimSpace(fmt.Sprint(item))
			if s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ",")
	default:
		return ""
	}
}

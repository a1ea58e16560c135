package graph

import (
	"fmt"
	"strings"
)

const matchByKey = `(%[1]s.id = $%[2]s OR %[1]s.name = $%[2]s)`

func keyed(alias, param string) string {
	return fmt.Sprintf(matchByKey, alias, param)
}

func ListEntities(limit int) Query {
	return Query{
		Name:   "list_entities",
		Cypher: `MATCH (n:Theory) RETURN n LIMIT $limit`,
		Params: map[string]any{"limit": int64(limit)},
	}
}

func Search(q string, limit int) Query {
	return Query{
		Name: "search",
		Cypher: `
MATCH (n:Theory)
WHERE toLower(n.name) CONTAINS toLower($q)
   OR (n.en_name IS NOT NULL AND toLower(n.en_name) CONTAINS toLower($q))
RETURN n
LIMIT $limit
`,
		Params: map[string]any{"q": q, "limit": int64(limit)},
	}
}

func EntityByKey(id string) Query {
	return Query{
		Name: "entity",
		Cypher: `
MATCH (n:Theory)
WHERE ` + keyed("n", "id") + `
RETURN n
LIMIT 1
`,
		Params: map[string]any{"id": id},
	}
}

// Neighbors expands exactly one hop from the matched entity. A nil relTypes
// means every relation type.
func Neighbors(id string, dir Direction, relTypes []string, limit int) Query {
	var types any
	if len(relTypes) > 0 {
		types = relTypes
	}
	return Query{
		Name: "neighbors",
		Cypher: `
MATCH (n:Theory)
WHERE ` + keyed("n", "id") + `
` + dir.pattern() + `
WHERE $relTypes IS NULL OR type(r) IN $relTypes
RETURN n, r, m
LIMIT $limit
`,
		Params: map[string]any{"id": id, "relTypes": types, "limit": int64(limit)},
	}
}

func FullGraph(limit int) Query {
	return Query{
		Name:   "graph",
		Cypher: `MATCH (n:Theory)-[r]->(m:Theory) RETURN n, r, m LIMIT $limit`,
		Params: map[string]any{"limit": int64(limit)},
	}
}

// ViewportCandidates collects the element ids of every entity within
// 1..maxHops of the center, in any direction, plus the center itself.
func ViewportCandidates(centerID string, maxHops int) Query {
	hops := ViewportNetworkHops.Clamp(&maxHops)
	return Query{
		Name: "viewport_candidates",
		Cypher: fmt.Sprintf(`
MATCH (c:Theory)
WHERE `+keyed("c", "centerId")+`
WITH c LIMIT 1
OPTIONAL MATCH (c)-[*1..%d]-(n:Theory)
WITH c, collect(DISTINCT n) AS ns
RETURN c, [x IN ns WHERE x <> c | elementId(x)] + [elementId(c)] AS ids
`, hops),
		Params: map[string]any{"centerId": centerID},
	}
}

// ViewportEdges re-queries every direct edge whose endpoints are both in
// the candidate set; variable-length matching alone does not yield them.
func ViewportEdges(elementIDs []string, limit int) Query {
	ids := make([]string, len(elementIDs))
	copy(ids, elementIDs)
	return Query{
		Name: "viewport_edges",
		Cypher: `
MATCH (a:Theory)-[rel]->(b:Theory)
WHERE elementId(a) IN $ids AND elementId(b) IN $ids
RETURN a, rel, b
LIMIT $limit
`,
		Params: map[string]any{"ids": ids, "limit": int64(limit)},
	}
}

// Tree returns full INCLUDES paths from the root so every segment's
// relation type is visible to the assembler.
func Tree(rootID string, depth int) Query {
	d := TreeDepth.Clamp(&depth)
	return Query{
		Name: "tree",
		Cypher: fmt.Sprintf(`
MATCH (root:Theory)
WHERE `+keyed("root", "rootId")+`
MATCH p=(root)-[:INCLUDES*0..%d]->(n:Theory)
RETURN p
`, d),
		Params: map[string]any{"rootId": rootID},
	}
}

func Timeline(yearFrom, yearTo, limit int) Query {
	return Query{
		Name: "timeline",
		Cypher: `
MATCH (n:Theory)
WHERE n.year IS NOT NULL AND n.year >= $yearFrom AND n.year <= $yearTo
RETURN n
ORDER BY n.year ASC
LIMIT $limit
`,
		Params: map[string]any{"yearFrom": int64(yearFrom), "yearTo": int64(yearTo), "limit": int64(limit)},
	}
}

// PathSpec is the effective (already clamped) input of a path query.
type PathSpec struct {
	StartID         string
	EndID           string
	Strategy        Strategy
	AllowedRelTypes []string
	YearFrom        *int
	YearTo          *int
	MaxHops         int
}

// ShortestPath asks the store for one undirected shortest path whose every
// relationship satisfies the relation allow-list and, for time_constrained,
// the year window. When both keys resolve to the same node the row carries
// a null p and the caller answers with that single node.
func ShortestPath(spec PathSpec) Query {
	hops := PathHops.Clamp(&spec.MaxHops)

	preds := []string{`($allowRel IS NULL OR type(x) IN $allowRel)`}
	if spec.Strategy == StrategyTimeConstrained {
		preds = append(preds,
			`($fromYear IS NULL OR coalesce(x.year, src.year, dst.year) >= $fromYear)`,
			`($toYear IS NULL OR coalesce(x.year, src.year, dst.year) <= $toYear)`,
		)
	}

	params := map[string]any{
		"startId":  spec.StartID,
		"endId":    spec.EndID,
		"allowRel": nil,
		"fromYear": nil,
		"toYear":   nil,
	}
	if len(spec.AllowedRelTypes) > 0 {
		params["allowRel"] = spec.AllowedRelTypes
	}
	if spec.Strategy == StrategyTimeConstrained {
		if spec.YearFrom != nil {
			params["fromYear"] = int64(*spec.YearFrom)
		}
		if spec.YearTo != nil {
			params["toYear"] = int64(*spec.YearTo)
		}
	}

	return Query{
		Name: "path",
		Cypher: fmt.Sprintf(`
MATCH (src:Theory)
WHERE `+keyed("src", "startId")+`
WITH src LIMIT 1
MATCH (dst:Theory)
WHERE `+keyed("dst", "endId")+`
WITH src, dst LIMIT 1
CALL {
  WITH src, dst
  WITH src, dst WHERE src = dst
  RETURN null AS p
  UNION
  WITH src, dst
  WITH src, dst WHERE src <> dst
  MATCH p = shortestPath((src)-[*..%d]-(dst))
  WHERE all(x IN relationships(p) WHERE %s)
  RETURN p
}
RETURN p, src, dst
LIMIT 1
`, hops, strings.Join(preds, " AND ")),
		Params: params,
	}
}

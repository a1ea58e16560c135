package graphview

import (
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"

	"github.com/yungbote/sciencemap-backend/internal/domain"
	"github.com/yungbote/sciencemap-backend/internal/normalization"
)

// payloadBuilder accumulates a GraphPayload. The first entity seen for an id
// wins; edges are appended in traversal order without dedup. Edges are only
// ever added together with both endpoints, so every link resolves.
type payloadBuilder struct {
	index map[string]int
	nodes []domain.Entity
	links []domain.Relationship
}

func newPayloadBuilder() *payloadBuilder {
	return &payloadBuilder{
		index: map[string]int{},
		nodes: []domain.Entity{},
		links: []domain.Relationship{},
	}
}

func (b *payloadBuilder) addNode(n dbtype.Node) domain.Entity {
	e := normalization.Entity(n)
	if i, ok := b.index[e.ID]; ok {
		return b.nodes[i]
	}
	b.index[e.ID] = len(b.nodes)
	b.nodes = append(b.nodes, e)
	return e
}

// addEdge records rel between x and y, given in traversal order. The edge
// keeps the relationship's stored direction.
func (b *payloadBuilder) addEdge(rel dbtype.Relationship, x, y dbtype.Node) {
	src, dst := orient(rel, x, y)
	a := b.addNode(src)
	c := b.addNode(dst)
	b.links = append(b.links, normalization.Edge(rel, a.ID, c.ID))
}

func (b *payloadBuilder) payload() *domain.GraphPayload {
	return &domain.GraphPayload{Nodes: b.nodes, Links: b.links}
}

// orient returns (source, target) for rel where x and y are its endpoints in
// traversal order. Undirected matches may walk a relationship backwards.
func orient(rel dbtype.Relationship, x, y dbtype.Node) (dbtype.Node, dbtype.Node) {
	if rel.StartElementId != "" && x.ElementId != "" {
		if rel.StartElementId == y.ElementId && rel.EndElementId == x.ElementId && x.ElementId != y.ElementId {
			return y, x
		}
		return x, y
	}
	//lint:ignore SA1019 legacy numeric ids are the only handle on pre-5.x servers
	if rel.StartId == y.Id && rel.EndId == x.Id && x.Id != y.Id {
		return y, x
	}
	return x, y
}

func recordNode(rec *neo4j.Record, key string) (dbtype.Node, bool) {
	if rec == nil {
		return dbtype.Node{}, false
	}
	v, ok := rec.Get(key)
	if !ok {
		return dbtype.Node{}, false
	}
	n, ok := v.(dbtype.Node)
	return n, ok
}

func recordRel(rec *neo4j.Record, key string) (dbtype.Relationship, bool) {
	if rec == nil {
		return dbtype.Relationship{}, false
	}
	v, ok := rec.Get(key)
	if !ok {
		return dbtype.Relationship{}, false
	}
	r, ok := v.(dbtype.Relationship)
	return r, ok
}

func recordPath(rec *neo4j.Record, key string) (dbtype.Path, bool) {
	if rec == nil {
		return dbtype.Path{}, false
	}
	v, ok := rec.Get(key)
	if !ok {
		return dbtype.Path{}, false
	}
	p, ok := v.(dbtype.Path)
	return p, ok && len(p.Nodes) > 0 && len(p.Nodes) == len(p.Relationships)+1
}

func recordStrings(rec *neo4j.Record, key string) []string {
	if rec == nil {
		return nil
	}
	v, ok := rec.Get(key)
	if !ok {
		return nil
	}
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

// assembleTriples builds a payload from (source, rel, target) rows.
func assembleTriples(records []*neo4j.Record, srcKey, relKey, dstKey string) *domain.GraphPayload {
	b := newPayloadBuilder()
	addTriples(b, records, srcKey, relKey, dstKey)
	return b.payload()
}

func addTriples(b *payloadBuilder, records []*neo4j.Record, srcKey, relKey, dstKey string) {
	for _, rec := range records {
		x, okX := recordNode(rec, srcKey)
		rel, okR := recordRel(rec, relKey)
		y, okY := recordNode(rec, dstKey)
		if okX && okR && okY {
			b.addEdge(rel, x, y)
		}
	}
}

func firstNode(records []*neo4j.Record, key string) (dbtype.Node, bool) {
	for _, rec := range records {
		if n, ok := recordNode(rec, key); ok {
			return n, true
		}
	}
	return dbtype.Node{}, false
}

func assembleEntities(records []*neo4j.Record, key string) []domain.Entity {
	out := make([]domain.Entity, 0, len(records))
	for _, rec := range records {
		if n, ok := recordNode(rec, key); ok {
			out = append(out, normalization.Entity(n))
		}
	}
	return out
}

// treeIndex is the flattened form of a set of INCLUDES paths.
type treeIndex struct {
	nodes    map[string]domain.Entity
	byName   map[string]string
	children map[string][]string
	seenEdge map[[2]string]struct{}
}

func newTreeIndex() *treeIndex {
	return &treeIndex{
		nodes:    map[string]domain.Entity{},
		byName:   map[string]string{},
		children: map[string][]string{},
		seenEdge: map[[2]string]struct{}{},
	}
}

func (t *treeIndex) addNode(n dbtype.Node) string {
	e := normalization.Entity(n)
	if _, ok := t.nodes[e.ID]; !ok {
		t.nodes[e.ID] = e
	}
	if e.Name != "" {
		if _, ok := t.byName[e.Name]; !ok {
			t.byName[e.Name] = e.ID
		}
	}
	return e.ID
}

func (t *treeIndex) addPath(p dbtype.Path) {
	t.addNode(p.Nodes[0])
	for i, rel := range p.Relationships {
		src, dst := orient(rel, p.Nodes[i], p.Nodes[i+1])
		parent := t.addNode(src)
		child := t.addNode(dst)
		if rel.Type != domain.RelIncludes {
			continue
		}
		edge := [2]string{parent, child}
		if _, dup := t.seenEdge[edge]; dup {
			continue
		}
		t.seenEdge[edge] = struct{}{}
		t.children[parent] = append(t.children[parent], child)
	}
}

// resolve finds the root among the indexed nodes: by id, then by name.
func (t *treeIndex) resolve(key string) (string, bool) {
	if key == "" {
		return "", false
	}
	if _, ok := t.nodes[key]; ok {
		return key, true
	}
	if id, ok := t.byName[key]; ok {
		return id, true
	}
	return "", false
}

// build materializes the subtree under id. Nodes at maxDepth get no
// children; a child already on the current branch is dropped so a cyclic
// INCLUDES structure terminates.
func (t *treeIndex) build(id string, level, maxDepth int, onBranch map[string]bool) *domain.TreeNode {
	node := &domain.TreeNode{Entity: t.nodes[id], Children: []*domain.TreeNode{}}
	if level >= maxDepth {
		return node
	}
	onBranch[id] = true
	defer delete(onBranch, id)
	for _, childID := range t.children[id] {
		if onBranch[childID] {
			continue
		}
		if _, ok := t.nodes[childID]; !ok {
			continue
		}
		node.Children = append(node.Children, t.build(childID, level+1, maxDepth, onBranch))
	}
	return node
}

// assembleTree turns INCLUDES paths into a nested tree rooted at rootKey,
// falling back to defaultRoot when rootKey is not among the returned nodes.
func assembleTree(records []*neo4j.Record, rootKey, defaultRoot string, depth int) (*domain.TreeNode, bool) {
	idx := newTreeIndex()
	for _, rec := range records {
		if p, ok := recordPath(rec, "p"); ok {
			idx.addPath(p)
		}
	}
	rootID, ok := idx.resolve(rootKey)
	if !ok {
		rootID, ok = idx.resolve(defaultRoot)
	}
	if !ok {
		return nil, false
	}
	return idx.build(rootID, 0, depth, map[string]bool{}), true
}

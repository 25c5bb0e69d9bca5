// Package dag checks the parent structure of a concept graph.
// It supports cycle detection, topological ordering and depth levels over the
// parent edges of one relationship type.
package dag

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/leapstack-labs/loincgraph/internal/graph"
)

// Node is a concept in the parent structure.
type Node struct {
	// ID is the concept identifier
	ID uuid.UUID
	// Key is the concept code, used in diagnostics
	Key string
}

// Graph is a directed graph of child to parent edges.
type Graph struct {
	nodes    map[uuid.UUID]*Node
	order    []uuid.UUID
	children map[uuid.UUID][]uuid.UUID // parent -> children
	parents  map[uuid.UUID][]uuid.UUID // child -> parents
}

// NewGraph creates a new empty graph.
func NewGraph() *Graph {
	return &Graph{
		nodes:    make(map[uuid.UUID]*Node),
		children: make(map[uuid.UUID][]uuid.UUID),
		parents:  make(map[uuid.UUID][]uuid.UUID),
	}
}

// FromConcepts builds the parent structure of g from relationships named relType.
// Edges whose target is not in g are left out; they are reported as referential gaps
// elsewhere. Self references are returned separately since AddEdge rejects them.
func FromConcepts(g *graph.Graph, relType string) (*Graph, []*Node) {
	d := NewGraph()
	concepts := g.Concepts()
	for _, c := range concepts {
		d.AddNode(c.ID, c.Key)
	}
	var selfRefs []*Node
	for _, c := range concepts {
		for _, r := range c.Relationships {
			if r.Type.Name != relType || !d.Has(r.Target) {
				continue
			}
			if r.Target == c.ID {
				selfRefs = append(selfRefs, d.nodes[c.ID])
				continue
			}
			_ = d.AddEdge(r.Target, c.ID)
		}
	}
	return d, selfRefs
}

// AddNode adds a node to the graph. Adding an existing node updates its key.
func (g *Graph) AddNode(id uuid.UUID, key string) {
	if n, exists := g.nodes[id]; exists {
		n.Key = key
		return
	}
	g.nodes[id] = &Node{ID: id, Key: key}
	g.order = append(g.order, id)
}

// Has reports whether id is a node.
func (g *Graph) Has(id uuid.UUID) bool {
	_, ok := g.nodes[id]
	return ok
}

// AddEdge adds an edge from parent to child.
func (g *Graph) AddEdge(parentID, childID uuid.UUID) error {
	if !g.Has(parentID) {
		return fmt.Errorf("parent node %s does not exist", parentID)
	}
	if !g.Has(childID) {
		return fmt.Errorf("child node %s does not exist", childID)
	}
	if parentID == childID {
		return fmt.Errorf("self-loop detected: %s", g.nodes[parentID].Key)
	}

	if !contains(g.children[parentID], childID) {
		g.children[parentID] = append(g.children[parentID], childID)
	}
	if !contains(g.parents[childID], parentID) {
		g.parents[childID] = append(g.parents[childID], parentID)
	}
	return nil
}

// GetNode returns a node by ID.
func (g *Graph) GetNode(id uuid.UUID) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// GetParents returns the parents of a node.
func (g *Graph) GetParents(id uuid.UUID) []uuid.UUID {
	return g.parents[id]
}

// GetChildren returns the children of a node.
func (g *Graph) GetChildren(id uuid.UUID) []uuid.UUID {
	return g.children[id]
}

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of edges in the graph.
func (g *Graph) EdgeCount() int {
	count := 0
	for _, children := range g.children {
		count += len(children)
	}
	return count
}

// FindCycle returns the keys along the first cycle found, starting and ending
// with the same key, or nil when the graph is acyclic. Nodes are searched in
// insertion order so the reported cycle is stable between runs.
func (g *Graph) FindCycle() []string {
	const (
		unvisited = iota
		onStack
		done
	)
	state := make(map[uuid.UUID]int, len(g.nodes))
	via := make(map[uuid.UUID]uuid.UUID)

	var cycle []string
	var dfs func(id uuid.UUID) bool
	dfs = func(id uuid.UUID) bool {
		state[id] = onStack
		for _, child := range g.children[id] {
			switch state[child] {
			case unvisited:
				via[child] = id
				if dfs(child) {
					return true
				}
			case onStack:
				cycle = []string{g.nodes[child].Key}
				for cur := id; cur != child; cur = via[cur] {
					cycle = append([]string{g.nodes[cur].Key}, cycle...)
				}
				cycle = append([]string{g.nodes[child].Key}, cycle...)
				return true
			}
		}
		state[id] = done
		return false
	}

	for _, id := range g.order {
		if state[id] == unvisited && dfs(id) {
			return cycle
		}
	}
	return nil
}

// TopologicalSort returns nodes with every parent before its children.
// Returns an error if the graph contains a cycle.
func (g *Graph) TopologicalSort() ([]*Node, error) {
	if cycle := g.FindCycle(); cycle != nil {
		return nil, fmt.Errorf("cycle detected: %v", cycle)
	}

	visited := make(map[uuid.UUID]bool, len(g.nodes))
	result := make([]*Node, 0, len(g.nodes))

	var visit func(id uuid.UUID)
	visit = func(id uuid.UUID) {
		if visited[id] {
			return
		}
		visited[id] = true
		for _, parent := range g.parents[id] {
			visit(parent)
		}
		result = append(result, g.nodes[id])
	}

	for _, id := range g.order {
		visit(id)
	}
	return result, nil
}

// Levels groups node keys by depth. Level 0 holds the nodes without parents;
// a node sits one level below its deepest parent. Keys are sorted within a level.
func (g *Graph) Levels() ([][]string, error) {
	nodes, err := g.TopologicalSort()
	if err != nil {
		return nil, err
	}

	depth := make(map[uuid.UUID]int, len(nodes))
	maxDepth := -1
	for _, n := range nodes {
		d := 0
		for _, parent := range g.parents[n.ID] {
			if pd := depth[parent] + 1; pd > d {
				d = pd
			}
		}
		depth[n.ID] = d
		if d > maxDepth {
			maxDepth = d
		}
	}

	levels := make([][]string, maxDepth+1)
	for _, n := range nodes {
		levels[depth[n.ID]] = append(levels[depth[n.ID]], n.Key)
	}
	for i := range levels {
		sort.Strings(levels[i])
	}
	return levels, nil
}

// GetRoots returns the keys of nodes with no parents.
func (g *Graph) GetRoots() []string {
	var roots []string
	for _, id := range g.order {
		if len(g.parents[id]) == 0 {
			roots = append(roots, g.nodes[id].Key)
		}
	}
	sort.Strings(roots)
	return roots
}

// GetLeaves returns the keys of nodes with no children.
func (g *Graph) GetLeaves() []string {
	var leaves []string
	for _, id := range g.order {
		if len(g.children[id]) == 0 {
			leaves = append(leaves, g.nodes[id].Key)
		}
	}
	sort.Strings(leaves)
	return leaves
}

// GetUpstream returns the keys of every ancestor of id.
func (g *Graph) GetUpstream(id uuid.UUID) []string {
	seen := make(map[uuid.UUID]bool)

	var mark func(nodeID uuid.UUID)
	mark = func(nodeID uuid.UUID) {
		for _, parent := range g.parents[nodeID] {
			if !seen[parent] {
				seen[parent] = true
				mark(parent)
			}
		}
	}
	mark(id)

	result := make([]string, 0, len(seen))
	for nodeID := range seen {
		result = append(result, g.nodes[nodeID].Key)
	}
	sort.Strings(result)
	return result
}

func contains(ids []uuid.UUID, id uuid.UUID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

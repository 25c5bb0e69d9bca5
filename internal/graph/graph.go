// Package graph holds the in-memory concept store shared by the load passes.
//
// Concepts are kept in first-insertion order so that emission is deterministic.
// Replacing a concept keeps its original position.
package graph

import (
	"github.com/google/uuid"

	"github.com/leapstack-labs/loincgraph/pkg/concept"
)

// Graph is an insertion-ordered set of concepts keyed by identifier.
// It is not safe for concurrent use.
type Graph struct {
	concepts map[uuid.UUID]*concept.Concept
	order    []uuid.UUID
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{concepts: make(map[uuid.UUID]*concept.Concept)}
}

// Put stores c, replacing any concept with the same identifier.
// It returns the replaced concept, or nil.
func (g *Graph) Put(c *concept.Concept) *concept.Concept {
	old, ok := g.concepts[c.ID]
	if !ok {
		g.order = append(g.order, c.ID)
	}
	g.concepts[c.ID] = c
	return old
}

// Get returns the concept with identifier id.
func (g *Graph) Get(id uuid.UUID) (*concept.Concept, bool) {
	c, ok := g.concepts[id]
	return c, ok
}

// Has reports whether id is present.
func (g *Graph) Has(id uuid.UUID) bool {
	_, ok := g.concepts[id]
	return ok
}

// Len returns the number of concepts.
func (g *Graph) Len() int {
	return len(g.order)
}

// Concepts returns every concept in first-insertion order.
func (g *Graph) Concepts() []*concept.Concept {
	out := make([]*concept.Concept, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.concepts[id])
	}
	return out
}

// IDs returns every identifier in first-insertion order.
func (g *Graph) IDs() []uuid.UUID {
	return append([]uuid.UUID(nil), g.order...)
}

// Relationships returns the total number of edges.
func (g *Graph) Relationships() int {
	n := 0
	for _, c := range g.concepts {
		n += len(c.Relationships)
	}
	return n
}

// Gap is an edge whose target is not in the graph.
type Gap struct {
	Source    uuid.UUID
	SourceKey string
	Target    uuid.UUID
	Type      string
}

// Gaps returns every edge whose target is missing, in emission order.
func (g *Graph) Gaps() []Gap {
	var gaps []Gap
	for _, id := range g.order {
		c := g.concepts[id]
		for _, r := range c.Relationships {
			if !g.Has(r.Target) {
				gaps = append(gaps, Gap{Source: c.ID, SourceKey: c.Key, Target: r.Target, Type: r.Type.Name})
			}
		}
	}
	return gaps
}

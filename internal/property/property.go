// Package property classifies release columns into the categories that decide how a
// field value is loaded: as an identifier, a description, an attribute, a grouping
// axis, a class grouping, a relationship, or not at all.
package property

import (
	"github.com/google/uuid"

	"github.com/leapstack-labs/loincgraph/pkg/concept"
)

// Category decides how the values of a column are loaded.
type Category int

const (
	Identifier Category = iota
	Description
	Attribute
	HierarchicalAxis
	ClassGroup
	Relation
	Skip
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case Identifier:
		return "identifier"
	case Description:
		return "description"
	case Attribute:
		return "attribute"
	case HierarchicalAxis:
		return "axis"
	case ClassGroup:
		return "class"
	case Relation:
		return "relation"
	case Skip:
		return "skip"
	default:
		return "unknown"
	}
}

// GroupLabel returns the label used to key grouping concepts and to name the
// structural category concept. Only the grouping categories have one.
func (c Category) GroupLabel() string {
	switch c {
	case HierarchicalAxis:
		return "Axis"
	case ClassGroup:
		return "Class"
	default:
		return ""
	}
}

// Priority values for description columns. Lower wins the preferred name.
const (
	PriorityPreferred = 0
	PrioritySynonym   = 1
	PriorityOther     = 2
	PriorityFallback  = 3
)

// Property is a registered column definition.
type Property struct {
	Name     string
	Category Category
	ID       uuid.UUID
	// MinTier and MaxTier bound the releases that carry the column; MaxTier 0 is unbounded.
	MinTier  Tier
	MaxTier  Tier
	Disabled bool
	Priority int
}

// ValidIn reports whether the column exists in releases of tier t.
func (p *Property) ValidIn(t Tier) bool {
	return t >= p.MinTier && (p.MaxTier == 0 || t <= p.MaxTier)
}

// Ref returns the reference recorded on concept components loaded from this column.
func (p *Property) Ref() concept.Property {
	return concept.Property{ID: p.ID, Name: p.Name}
}

// Active reports whether values of this column are emitted as active components.
func (p *Property) Active() bool {
	return !p.Disabled
}

// def is a table entry before identifiers are assigned.
type def struct {
	name     string
	min, max Tier
	disabled bool
	priority int
}

func col(name string) def {
	return def{name: name}
}

func ranged(name string, min, max Tier) def {
	return def{name: name, min: min, max: max}
}

func retired(name string, min, max Tier) def {
	return def{name: name, min: min, max: max, disabled: true}
}

func described(name string, priority int) def {
	return def{name: name, priority: priority}
}

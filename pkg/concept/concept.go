// Package concept defines the terminology graph records produced by the converter:
// concepts and the descriptions, attributes, identifiers and relationships hung off them.
//
// A Concept owns all of its components. Relationships are directed from the owning
// concept to a target identifier; the target does not need to exist when the edge is
// added (graph verification reports unresolved targets after the load completes).
package concept

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Role identifies what kind of business key a concept identifier was derived from.
type Role int

const (
	// RoleData is a concept for a source code (LOINC_NUM, multi-axial part code).
	RoleData Role = iota
	// RoleGrouping is a synthesized concept shared by every row presenting the same axis or class value.
	RoleGrouping
	// RoleMetadata is a structural concept (dataset root, axis/class categories, source organizations).
	RoleMetadata
)

// String returns the lowercase role name.
func (r Role) String() string {
	switch r {
	case RoleData:
		return "data"
	case RoleGrouping:
		return "grouping"
	case RoleMetadata:
		return "metadata"
	default:
		return "unknown"
	}
}

// DescriptionKind distinguishes the single preferred name from the remaining synonyms.
type DescriptionKind int

const (
	// PreferredName is the one display name of a concept.
	PreferredName DescriptionKind = iota
	// Synonym is any other description.
	Synonym
)

// String returns the wire name of the kind.
func (k DescriptionKind) String() string {
	if k == PreferredName {
		return "preferred_name"
	}
	return "synonym"
}

// Property references the property-type a component was loaded from.
type Property struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// Description is a textual name of a concept.
type Description struct {
	Text     string          `json:"text"`
	Kind     DescriptionKind `json:"-"`
	Property Property        `json:"property"`
}

// Attribute is a string-valued annotation. Attributes loaded from columns that a
// release marks as retired are kept but flagged inactive.
type Attribute struct {
	Property Property `json:"property"`
	Value    string   `json:"value"`
	Active   bool     `json:"active"`
}

// Identifier is an additional code for a concept in a non-primary code system.
type Identifier struct {
	Property Property `json:"property"`
	Value    string   `json:"value"`
	Active   bool     `json:"active"`
}

// Relationship is a directed, typed edge from Source to Target.
type Relationship struct {
	Source      uuid.UUID   `json:"source"`
	Target      uuid.UUID   `json:"target"`
	Type        Property    `json:"type"`
	Annotations []Attribute `json:"annotations,omitempty"`
}

// Concept is a node of the terminology graph.
type Concept struct {
	ID            uuid.UUID
	Key           string
	Role          Role
	Time          time.Time
	Status        string
	Active        bool
	Descriptions  []Description
	Attributes    []Attribute
	Identifiers   []Identifier
	Relationships []Relationship
}

// New returns an active concept with no components.
func New(id uuid.UUID, key string, role Role, t time.Time) *Concept {
	return &Concept{
		ID:     id,
		Key:    key,
		Role:   role,
		Time:   t,
		Active: true,
	}
}

// AddAttribute appends a string attribute.
func (c *Concept) AddAttribute(p Property, value string, active bool) {
	c.Attributes = append(c.Attributes, Attribute{Property: p, Value: value, Active: active})
}

// AddIdentifier appends an additional identifier.
func (c *Concept) AddIdentifier(p Property, value string, active bool) {
	c.Identifiers = append(c.Identifiers, Identifier{Property: p, Value: value, Active: active})
}

// AddRelationship appends an edge from c to target. Annotations are attached to the edge itself.
func (c *Concept) AddRelationship(target uuid.UUID, typ Property, annotations ...Attribute) {
	c.Relationships = append(c.Relationships, Relationship{
		Source:      c.ID,
		Target:      target,
		Type:        typ,
		Annotations: annotations,
	})
}

// HasRelationship reports whether c already has an edge of any type to target.
func (c *Concept) HasRelationship(target uuid.UUID) bool {
	for _, r := range c.Relationships {
		if r.Source == c.ID && r.Target == target {
			return true
		}
	}
	return false
}

// Candidate is a description value waiting for preferred-name selection.
// Lower Priority wins; ties keep the order in which candidates were collected.
type Candidate struct {
	Text     string
	Property Property
	Priority int
}

// AddDescriptions applies a set of candidate descriptions. The highest-priority candidate
// becomes the preferred name unless c already has one, in which case every candidate is
// added as a synonym. The candidates slice is not modified.
func (c *Concept) AddDescriptions(candidates []Candidate) {
	if len(candidates) == 0 {
		return
	}
	sorted := make([]Candidate, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority < sorted[j].Priority
	})

	havePreferred := c.PreferredName() != ""
	for _, cand := range sorted {
		kind := Synonym
		if !havePreferred {
			kind = PreferredName
			havePreferred = true
		}
		c.Descriptions = append(c.Descriptions, Description{
			Text:     cand.Text,
			Kind:     kind,
			Property: cand.Property,
		})
	}
}

// PreferredName returns the text of the preferred-name description, or "".
func (c *Concept) PreferredName() string {
	for _, d := range c.Descriptions {
		if d.Kind == PreferredName {
			return d.Text
		}
	}
	return ""
}

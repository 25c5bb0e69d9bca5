package sink

import (
	"time"

	"github.com/leapstack-labs/loincgraph/pkg/concept"
)

// Record is the flat, serializable form of a concept.
type Record struct {
	ID            string               `json:"id"`
	Code          string               `json:"code"`
	Role          string               `json:"role"`
	ChangedAt     time.Time            `json:"changed_at"`
	Status        string               `json:"status,omitempty"`
	Active        bool                 `json:"active"`
	PreferredName string               `json:"preferred_name"`
	Descriptions  []DescriptionRecord  `json:"descriptions,omitempty"`
	Attributes    []ValueRecord        `json:"attributes,omitempty"`
	Identifiers   []ValueRecord        `json:"identifiers,omitempty"`
	Relationships []RelationshipRecord `json:"relationships,omitempty"`
}

// DescriptionRecord is a flattened description.
type DescriptionRecord struct {
	Text       string `json:"text"`
	Kind       string `json:"kind"`
	PropertyID string `json:"property_id"`
	Property   string `json:"property"`
}

// ValueRecord is a flattened attribute or identifier.
type ValueRecord struct {
	PropertyID string `json:"property_id"`
	Property   string `json:"property"`
	Value      string `json:"value"`
	Active     bool   `json:"active"`
}

// RelationshipRecord is a flattened edge.
type RelationshipRecord struct {
	Target      string        `json:"target"`
	TypeID      string        `json:"type_id"`
	Type        string        `json:"type"`
	Annotations []ValueRecord `json:"annotations,omitempty"`
}

// NewRecord flattens c.
func NewRecord(c *concept.Concept) Record {
	r := Record{
		ID:            c.ID.String(),
		Code:          c.Key,
		Role:          c.Role.String(),
		ChangedAt:     c.Time,
		Status:        c.Status,
		Active:        c.Active,
		PreferredName: c.PreferredName(),
	}
	for _, d := range c.Descriptions {
		r.Descriptions = append(r.Descriptions, DescriptionRecord{
			Text:       d.Text,
			Kind:       d.Kind.String(),
			PropertyID: d.Property.ID.String(),
			Property:   d.Property.Name,
		})
	}
	for _, a := range c.Attributes {
		r.Attributes = append(r.Attributes, valueRecord(a.Property, a.Value, a.Active))
	}
	for _, id := range c.Identifiers {
		r.Identifiers = append(r.Identifiers, valueRecord(id.Property, id.Value, id.Active))
	}
	for _, rel := range c.Relationships {
		rr := RelationshipRecord{
			Target: rel.Target.String(),
			TypeID: rel.Type.ID.String(),
			Type:   rel.Type.Name,
		}
		for _, a := range rel.Annotations {
			rr.Annotations = append(rr.Annotations, valueRecord(a.Property, a.Value, a.Active))
		}
		r.Relationships = append(r.Relationships, rr)
	}
	return r
}

func valueRecord(p concept.Property, value string, active bool) ValueRecord {
	return ValueRecord{PropertyID: p.ID.String(), Property: p.Name, Value: value, Active: active}
}

package builder

import (
	"errors"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/leapstack-labs/loincgraph/internal/diag"
	"github.com/leapstack-labs/loincgraph/internal/property"
	"github.com/leapstack-labs/loincgraph/internal/source"
	"github.com/leapstack-labs/loincgraph/pkg/concept"
)

// Structural concept names.
const (
	RootName           = "LOINC"
	RootLongName       = "Logical Observation Identifiers Names and Codes"
	SourceOrgName      = "Source Organization"
	AllConceptsName    = "All LOINC concepts"
	categoryNamePrefix = "LOINC "
)

// RootInfo is recorded on the dataset root.
type RootInfo struct {
	Version          string
	ReleaseDate      string
	ConverterVersion string
}

// AddRoot creates the dataset root concept.
func (b *Builder) AddRoot(info RootInfo) *concept.Concept {
	root := b.newConcept(concept.RoleMetadata, RootName, b.defaultTime)
	nameRef := b.classes.Ref(property.ColName)
	root.AddDescriptions([]concept.Candidate{
		{Text: RootName, Property: nameRef, Priority: property.PriorityPreferred},
		{Text: RootLongName, Property: nameRef, Priority: property.PrioritySynonym},
	})
	for _, a := range []struct{ name, value string }{
		{property.AttrSourceVersion, info.Version},
		{property.AttrReleaseDate, info.ReleaseDate},
		{property.AttrConverterVersion, info.ConverterVersion},
	} {
		if a.value != "" {
			root.AddAttribute(b.classes.Ref(a.name), a.value, true)
		}
	}
	b.graph.Put(root)
	b.root = root
	return root
}

// RootID returns the identifier of the dataset root.
func (b *Builder) RootID() uuid.UUID {
	return b.ns.MetadataID(RootName)
}

// AllConceptsID returns the identifier of the grouping that lists every emitted concept.
func (b *Builder) AllConceptsID() uuid.UUID {
	return b.ns.MetadataID("grouping:" + AllConceptsName)
}

// AddStructure creates one category concept per grouping category under the root
// and one concept per registered column of that category.
func (b *Builder) AddStructure() {
	for _, cat := range []property.Category{property.ClassGroup, property.HierarchicalAxis} {
		label := cat.GroupLabel()
		catConcept := b.newConcept(concept.RoleMetadata, "category:"+label, b.defaultTime)
		b.describe(catConcept, categoryNamePrefix+label, property.ColName)
		catConcept.AddRelationship(b.RootID(), b.classes.Ref(property.RelIsA))
		b.graph.Put(catConcept)

		for _, p := range b.classes.Properties(cat) {
			colConcept := b.newConcept(concept.RoleMetadata, label+":"+p.Name, b.defaultTime)
			b.describe(colConcept, p.Name, property.ColName)
			colConcept.AddRelationship(catConcept.ID, b.classes.Ref(property.RelIsA))
			b.graph.Put(colConcept)
		}
	}
}

func (b *Builder) columnConceptID(p *property.Property) uuid.UUID {
	return b.ns.MetadataID(p.Category.GroupLabel() + ":" + p.Name)
}

// grouping returns the shared concept for a column value, creating it on first sight.
func (b *Builder) grouping(p *property.Property, value string) *concept.Concept {
	label := p.Category.GroupLabel()
	id := b.ns.GroupingID(label, p.Name, value)
	if c, ok := b.graph.Get(id); ok {
		return c
	}

	c := concept.New(id, label+":"+p.Name+":"+value, concept.RoleGrouping, b.defaultTime)
	name := value
	if p.Category == property.ClassGroup && b.names != nil {
		name = b.names.Lookup(value)
		if b.names.HasMatch(value) {
			c.AddIdentifier(b.classes.Ref(property.ColAbbreviation), value, true)
		}
	}
	c.AddDescriptions([]concept.Candidate{{Text: name, Property: p.Ref()}})
	c.AddRelationship(b.columnConceptID(p), b.classes.Ref(property.RelIsA))
	b.graph.Put(c)
	b.stats.Groupings++
	return c
}

// AddSourceOrganizations loads the copyright holders table under a
// "Source Organization" concept attached to the root.
func (b *Builder) AddSourceOrganizations(r source.Reader) error {
	parent := b.newConcept(concept.RoleMetadata, SourceOrgName, b.defaultTime)
	b.describe(parent, SourceOrgName, property.ColName)
	parent.AddRelationship(b.RootID(), b.classes.Ref(property.RelIsA))
	b.graph.Put(parent)

	cols := r.Columns()
	if _, ok := cols.Index(property.ColCopyrightID); !ok {
		return diag.Fatalf(diag.ErrMissingColumn, r.Name(), 0, "no %s column", property.ColCopyrightID)
	}

	for {
		row, err := r.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		id := strings.TrimSpace(cols.Value(row, property.ColCopyrightID))
		if id == "" {
			b.ledger.Record(diag.KindMissingCode, "source organization without id", "source", r.Name(), "line", r.Line())
			continue
		}
		org := b.newConcept(concept.RoleMetadata, "source-organization:"+id, b.defaultTime)
		name := cols.Value(row, property.ColName)
		if name == "" {
			name = id
		}
		b.describe(org, name, property.ColName)
		for _, col := range []string{property.ColCopyright, property.ColTermsOfUse, property.ColURL} {
			if v := cols.Value(row, col); v != "" {
				org.AddAttribute(b.classes.Ref(col), v, true)
			}
		}
		org.AddIdentifier(b.classes.Ref(property.ColCopyrightID), id, true)
		org.AddRelationship(parent.ID, b.classes.Ref(property.RelIsA))
		if old := b.graph.Put(org); old != nil {
			b.ledger.Record(diag.KindDuplicateConcept, "duplicate source organization", "id", id)
			continue
		}
		b.stats.SourceOrgs++
	}
}

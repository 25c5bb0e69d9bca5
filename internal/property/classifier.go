package property

import (
	"sort"

	"github.com/leapstack-labs/loincgraph/pkg/concept"
)

// Options configures a Classifier for one conversion.
type Options struct {
	Tier       Tier
	Namespaces concept.Namespaces
	// SkipColumns are moved to the Skip category regardless of their table.
	SkipColumns []string
}

// Conflict records a column name registered twice.
type Conflict struct {
	Name     string
	Existing Category
	Incoming Category
}

// Classifier maps column names to property definitions for one release tier.
// It is built once and is read-only afterwards.
type Classifier struct {
	tier       Tier
	ns         concept.Namespaces
	skip       map[string]bool
	byName     map[string]*Property
	byCategory map[Category][]*Property
	conflicts  []Conflict
}

// NewClassifier registers the LOINC column tables for opts.Tier.
func NewClassifier(opts Options) *Classifier {
	c := &Classifier{
		tier:       opts.Tier,
		ns:         opts.Namespaces,
		skip:       make(map[string]bool, len(opts.SkipColumns)),
		byName:     make(map[string]*Property),
		byCategory: make(map[Category][]*Property),
	}
	for _, s := range opts.SkipColumns {
		c.skip[s] = true
	}

	c.registerAll(Identifier, identifierDefs)
	c.registerAll(Description, descriptionDefs)
	c.registerAll(Attribute, attributeDefs)
	c.registerAll(HierarchicalAxis, axisDefs)
	c.registerAll(ClassGroup, classDefs)
	c.registerAll(Relation, relationDefs)
	c.registerAll(Relation, groupingRelationDefs())
	c.registerAll(Skip, skipDefs)

	for _, s := range opts.SkipColumns {
		if _, ok := c.byName[s]; !ok {
			c.register(Skip, col(s))
		}
	}
	return c
}

func groupingRelationDefs() []def {
	var defs []def
	for _, d := range axisDefs {
		defs = append(defs, col(HasPrefix+d.name))
	}
	for _, d := range classDefs {
		defs = append(defs, col(HasPrefix+d.name))
	}
	return defs
}

func (c *Classifier) registerAll(cat Category, defs []def) {
	for _, d := range defs {
		c.register(cat, d)
	}
}

// register adds a definition when its tier range covers the classifier's tier.
// A name that is already claimed is recorded as a conflict and the newer claim wins.
func (c *Classifier) register(cat Category, d def) *Property {
	p := &Property{
		Name:     d.name,
		Category: cat,
		ID:       c.ns.MetadataID("property:" + d.name),
		MinTier:  d.min,
		MaxTier:  d.max,
		Disabled: d.disabled,
		Priority: d.priority,
	}
	if !p.ValidIn(c.tier) {
		return nil
	}
	if c.skip[p.Name] && cat != Skip {
		p.Category = Skip
	}

	if existing, ok := c.byName[p.Name]; ok {
		c.conflicts = append(c.conflicts, Conflict{Name: p.Name, Existing: existing.Category, Incoming: p.Category})
		c.removeFromCategory(existing)
	}
	c.byName[p.Name] = p
	c.byCategory[p.Category] = append(c.byCategory[p.Category], p)
	return p
}

func (c *Classifier) removeFromCategory(p *Property) {
	list := c.byCategory[p.Category]
	for i, q := range list {
		if q == p {
			c.byCategory[p.Category] = append(list[:i:i], list[i+1:]...)
			return
		}
	}
}

// Classify returns the definition registered for a column name.
func (c *Classifier) Classify(name string) (*Property, bool) {
	p, ok := c.byName[name]
	return p, ok
}

// Ref returns the component reference for a registered name. Names that are not
// registered in this tier still get a stable reference.
func (c *Classifier) Ref(name string) concept.Property {
	if p, ok := c.byName[name]; ok {
		return p.Ref()
	}
	return concept.Property{ID: c.ns.MetadataID("property:" + name), Name: name}
}

// Properties returns the definitions of a category in registration order.
func (c *Classifier) Properties(cat Category) []*Property {
	return append([]*Property(nil), c.byCategory[cat]...)
}

// Unresolved returns the header names that no definition claims, sorted.
func (c *Classifier) Unresolved(header []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, h := range header {
		if _, ok := c.byName[h]; ok || seen[h] {
			continue
		}
		seen[h] = true
		out = append(out, h)
	}
	sort.Strings(out)
	return out
}

// Conflicts returns every duplicate claim seen during registration.
func (c *Classifier) Conflicts() []Conflict {
	return append([]Conflict(nil), c.conflicts...)
}

// Tier returns the release tier the classifier was built for.
func (c *Classifier) Tier() Tier {
	return c.tier
}

// Len returns the number of registered names.
func (c *Classifier) Len() int {
	return len(c.byName)
}

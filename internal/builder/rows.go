package builder

import (
	"sort"
	"strings"
	"time"

	"github.com/leapstack-labs/loincgraph/internal/diag"
	"github.com/leapstack-labs/loincgraph/internal/property"
	"github.com/leapstack-labs/loincgraph/internal/source"
	"github.com/leapstack-labs/loincgraph/pkg/concept"
)

// DateLayout is the layout of the last-changed columns.
const DateLayout = "20060102"

// deletedChangeType marks codes removed from the release.
const deletedChangeType = "DEL"

// CheckHeader validates the primary header before the data pass. Columns that no
// property claims are recorded as anomalies; a missing code column is fatal.
func (b *Builder) CheckHeader(cols *source.Columns, name string) error {
	if _, ok := cols.Index(property.ColCode); !ok {
		return diag.Fatalf(diag.ErrMissingColumn, name, 0, "no %s column", property.ColCode)
	}
	for _, col := range b.classes.Unresolved(cols.Names()) {
		b.ledger.Record(diag.KindUnmappedColumn, "column has no property mapping", "source", name, "column", col)
	}
	return nil
}

// AddDataRow builds the concept for one primary row and commits it. A later row for
// the same code replaces the earlier concept and is recorded as a duplicate.
func (b *Builder) AddDataRow(cols *source.Columns, row []string, src string, line int) error {
	b.stats.DataRows++

	code := strings.TrimSpace(cols.Value(row, property.ColCode))
	if code == "" {
		b.ledger.Record(diag.KindMissingCode, "row has no code", "source", src, "line", line)
		return nil
	}

	t, err := b.rowTime(cols, row, src, line)
	if err != nil {
		return err
	}

	c := b.newConcept(concept.RoleData, code, t)
	status := strings.ToUpper(strings.TrimSpace(cols.Value(row, property.ColStatus)))
	active, known := b.status.Resolve(status)
	if !known {
		b.ledger.Record(diag.KindUnknownStatus, "unknown status, treating as active", "code", code, "status", status)
	}
	c.Status = status
	c.Active = active

	var candidates []concept.Candidate
	for i, v := range row {
		if v == "" {
			continue
		}
		p, ok := b.classes.Classify(cols.Name(i))
		if !ok {
			b.stats.UnmappedFields++
			continue
		}

		switch p.Category {
		case property.Attribute:
			b.addAttribute(c, p, v)
		case property.Description:
			candidates = append(candidates, concept.Candidate{Text: v, Property: p.Ref(), Priority: p.Priority})
		case property.Identifier:
			c.AddIdentifier(p.Ref(), v, p.Active())
		case property.HierarchicalAxis, property.ClassGroup:
			g := b.grouping(p, v)
			c.AddRelationship(g.ID, b.classes.Ref(property.HasPrefix+p.Name))
		case property.Relation:
			c.AddRelationship(b.ns.DataID(v), p.Ref())
		case property.Skip:
			b.stats.SkippedFields++
		}
	}

	for _, e := range b.xref.Targets(code) {
		var notes []concept.Attribute
		if e.Comment != "" {
			notes = append(notes, concept.Attribute{Property: b.classes.Ref(property.AttrComment), Value: e.Comment, Active: true})
		}
		c.AddRelationship(b.ns.DataID(e.Target), b.classes.Ref(property.RelMapTo), notes...)
		b.stats.CrossRefEdges++
	}

	if len(candidates) == 0 {
		if strings.EqualFold(strings.TrimSpace(cols.Value(row, property.ColChangeType)), deletedChangeType) {
			b.stats.SkippedDeleted++
			b.ledger.Expect(diag.KindDeletedWithoutNameSkip, "skipping deleted code without names", "code", code)
			return nil
		}
		b.ledger.Record(diag.KindMissingDescription, "code has no names, using the code", "code", code)
		candidates = append(candidates, concept.Candidate{Text: code, Property: b.classes.Ref(property.ColCode)})
	}
	c.AddDescriptions(candidates)

	if old := b.graph.Put(c); old != nil {
		b.stats.Duplicates++
		b.ledger.Record(diag.KindDuplicateConcept, "duplicate code, later row wins", "code", code, "source", src, "line", line)
		return nil
	}
	b.stats.Concepts++
	return nil
}

func (b *Builder) addAttribute(c *concept.Concept, p *property.Property, v string) {
	switch {
	case property.IsRankColumn(p.Name) && v == "0":
		return
	case property.IsMultiValueColumn(p.Name):
		for _, s := range SplitList(v) {
			c.AddAttribute(p.Ref(), s, p.Active())
		}
	default:
		c.AddAttribute(p.Ref(), v, p.Active())
	}
}

// rowTime returns the last-changed timestamp of a row, preferring the pre-2.38 column.
func (b *Builder) rowTime(cols *source.Columns, row []string, src string, line int) (time.Time, error) {
	col := property.ColDateLastChOld
	if _, ok := cols.Index(col); !ok {
		col = property.ColDateLastChanged
	}
	v := strings.TrimSpace(cols.Value(row, col))
	if v == "" {
		return b.defaultTime, nil
	}
	t, err := time.ParseInLocation(DateLayout, v, time.UTC)
	if err != nil {
		return time.Time{}, diag.Fatalf(diag.ErrBadDate, src, line, "%s=%q", col, v)
	}
	return t, nil
}

// SplitList splits a ';'-separated value into its distinct, trimmed, non-empty
// members in lexical order.
func SplitList(v string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, s := range strings.Split(v, ";") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

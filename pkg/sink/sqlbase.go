package sink

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/pressly/goose/v3"

	"github.com/leapstack-labs/loincgraph/pkg/concept"
)

//go:embed migrations/*.sql
var migrations embed.FS

//go:embed schema.sql
var schemaSQL string

// Schema returns the plain DDL of the relational layout, for engines goose does not support.
func Schema() string {
	return schemaSQL
}

// Migrate applies the relational layout to db using goose migrations.
// dialect is a goose dialect name ("sqlite3", "postgres").
func Migrate(db *sql.DB, dialect string) error {
	goose.SetBaseFS(migrations)

	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// Placeholder styles for BaseSQLSink.
const (
	// PlaceholderQuestion uses ? for every bind parameter.
	PlaceholderQuestion = iota
	// PlaceholderDollar uses $1, $2, ... bind parameters.
	PlaceholderDollar
)

// BaseSQLSink writes concepts into the relational layout through database/sql.
// Embed this struct in concrete sinks; they only need to implement Open.
type BaseSQLSink struct {
	DB          *sql.DB
	Logger      *slog.Logger
	Placeholder int

	stmts map[string]string
}

const (
	insertConcept      = `INSERT INTO concepts (id, code, role, changed_at, status, active, preferred_name) VALUES (?, ?, ?, ?, ?, ?, ?)`
	insertDescription  = `INSERT INTO descriptions (concept_id, ordinal, term, kind, property_id, property_name) VALUES (?, ?, ?, ?, ?, ?)`
	insertAttribute    = `INSERT INTO attributes (concept_id, ordinal, property_id, property_name, value, active) VALUES (?, ?, ?, ?, ?, ?)`
	insertIdentifier   = `INSERT INTO identifiers (concept_id, ordinal, property_id, property_name, value, active) VALUES (?, ?, ?, ?, ?, ?)`
	insertRelationship = `INSERT INTO relationships (concept_id, ordinal, target_id, type_id, type_name) VALUES (?, ?, ?, ?, ?)`
	insertAnnotation   = `INSERT INTO relationship_annotations (concept_id, relationship_ordinal, ordinal, property_id, property_name, value, active) VALUES (?, ?, ?, ?, ?, ?, ?)`
	insertGrouping     = `INSERT INTO groupings (id, name) VALUES (?, ?)`
	insertMember       = `INSERT INTO grouping_members (grouping_id, concept_id) VALUES (?, ?)`
)

func (b *BaseSQLSink) stmt(q string) string {
	if b.Placeholder != PlaceholderDollar {
		return q
	}
	if b.stmts == nil {
		b.stmts = make(map[string]string)
	}
	if s, ok := b.stmts[q]; ok {
		return s
	}
	s := Rebind(q)
	b.stmts[q] = s
	return s
}

// Rebind rewrites ? placeholders to $n.
func Rebind(q string) string {
	var sb strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// WriteConcept writes c and its components in one transaction.
func (b *BaseSQLSink) WriteConcept(ctx context.Context, c *concept.Concept) (err error) {
	if b.DB == nil {
		return fmt.Errorf("database connection not established")
	}
	tx, err := b.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin concept %s: %w", c.Key, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	id := c.ID.String()
	if _, err = tx.ExecContext(ctx, b.stmt(insertConcept),
		id, c.Key, c.Role.String(), c.Time, c.Status, c.Active, c.PreferredName()); err != nil {
		return fmt.Errorf("insert concept %s: %w", c.Key, err)
	}
	for i, d := range c.Descriptions {
		if _, err = tx.ExecContext(ctx, b.stmt(insertDescription),
			id, i, d.Text, d.Kind.String(), d.Property.ID.String(), d.Property.Name); err != nil {
			return fmt.Errorf("insert description of %s: %w", c.Key, err)
		}
	}
	for i, a := range c.Attributes {
		if _, err = tx.ExecContext(ctx, b.stmt(insertAttribute),
			id, i, a.Property.ID.String(), a.Property.Name, a.Value, a.Active); err != nil {
			return fmt.Errorf("insert attribute of %s: %w", c.Key, err)
		}
	}
	for i, ident := range c.Identifiers {
		if _, err = tx.ExecContext(ctx, b.stmt(insertIdentifier),
			id, i, ident.Property.ID.String(), ident.Property.Name, ident.Value, ident.Active); err != nil {
			return fmt.Errorf("insert identifier of %s: %w", c.Key, err)
		}
	}
	for i, r := range c.Relationships {
		if _, err = tx.ExecContext(ctx, b.stmt(insertRelationship),
			id, i, r.Target.String(), r.Type.ID.String(), r.Type.Name); err != nil {
			return fmt.Errorf("insert relationship of %s: %w", c.Key, err)
		}
		for j, a := range r.Annotations {
			if _, err = tx.ExecContext(ctx, b.stmt(insertAnnotation),
				id, i, j, a.Property.ID.String(), a.Property.Name, a.Value, a.Active); err != nil {
				return fmt.Errorf("insert relationship annotation of %s: %w", c.Key, err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit concept %s: %w", c.Key, err)
	}
	return nil
}

// WriteGrouping writes g and its members in one transaction.
func (b *BaseSQLSink) WriteGrouping(ctx context.Context, g Grouping) (err error) {
	if b.DB == nil {
		return fmt.Errorf("database connection not established")
	}
	tx, err := b.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin grouping %s: %w", g.Name, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	gid := g.ID.String()
	if _, err = tx.ExecContext(ctx, b.stmt(insertGrouping), gid, g.Name); err != nil {
		return fmt.Errorf("insert grouping %s: %w", g.Name, err)
	}
	for _, m := range g.Members {
		if _, err = tx.ExecContext(ctx, b.stmt(insertMember), gid, m.String()); err != nil {
			return fmt.Errorf("insert member of %s: %w", g.Name, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit grouping %s: %w", g.Name, err)
	}
	if b.Logger != nil {
		b.Logger.Debug("wrote grouping", slog.String("name", g.Name), slog.Int("members", len(g.Members)))
	}
	return nil
}

// Close closes the database connection.
func (b *BaseSQLSink) Close() error {
	if b.DB != nil {
		if b.Logger != nil {
			b.Logger.Debug("closing database connection")
		}
		err := b.DB.Close()
		b.DB = nil
		return err
	}
	return nil
}

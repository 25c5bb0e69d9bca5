// Package neo4j writes concepts as a property graph into Neo4j.
//
// Concepts become (:Concept) nodes keyed by id. Each relationship becomes a
// [:REL {type, ordinal}] edge; edge targets are merged as bare nodes so edges
// may point at concepts written later. Groupings become (:Grouping) nodes with
// [:CONTAINS] edges to their members. Writes are buffered and sent in
// UNWIND batches of batch_size concepts.
package neo4j

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/leapstack-labs/loincgraph/pkg/concept"
	"github.com/leapstack-labs/loincgraph/pkg/sink"
)

const (
	defaultBatchSize = 500
	defaultTimeout   = 10
)

var constraints = []string{
	`CREATE CONSTRAINT concept_id_unique IF NOT EXISTS FOR (c:Concept) REQUIRE c.id IS UNIQUE`,
	`CREATE CONSTRAINT grouping_id_unique IF NOT EXISTS FOR (g:Grouping) REQUIRE g.id IS UNIQUE`,
	`CREATE INDEX concept_code_idx IF NOT EXISTS FOR (c:Concept) ON (c.code)`,
}

const upsertNodes = `
UNWIND $nodes AS n
MERGE (c:Concept {id: n.id})
SET c += n
`

const upsertRels = `
UNWIND $rels AS r
MERGE (a:Concept {id: r.from_id})
MERGE (b:Concept {id: r.to_id})
MERGE (a)-[e:REL {type: r.type, ordinal: r.ordinal}]->(b)
SET e.type_id = r.type_id,
    e.annotations_json = r.annotations_json
`

const upsertGrouping = `
MERGE (g:Grouping {id: $id})
SET g.name = $name
`

const upsertMembers = `
UNWIND $members AS m
MATCH (g:Grouping {id: $id})
MERGE (c:Concept {id: m})
MERGE (g)-[:CONTAINS]->(c)
`

// runFunc executes one statement in a write transaction.
type runFunc func(ctx context.Context, cypher string, params map[string]any) error

// Sink buffers concepts and writes them to Neo4j in batches.
type Sink struct {
	logger    *slog.Logger
	driver    neo4j.DriverWithContext
	database  string
	batchSize int
	run       runFunc

	nodes   []map[string]any
	rels    []map[string]any
	written int
}

// New creates a Neo4j sink.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Sink {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Sink{logger: logger, batchSize: defaultBatchSize}
}

// Open connects to opts.DSN (a bolt or neo4j URI) and creates constraints.
// Params: user, password, database, batch_size, timeout_seconds.
func (s *Sink) Open(ctx context.Context, opts sink.Options) error {
	if opts.DSN == "" {
		return fmt.Errorf("neo4j output requires output.dsn")
	}
	timeout := time.Duration(opts.IntParam("timeout_seconds", defaultTimeout)) * time.Second

	auth := neo4j.BasicAuth(opts.Param("user", "neo4j"), opts.Param("password", ""), "")
	driver, err := neo4j.NewDriverWithContext(opts.DSN, auth, func(cfg *neo4j.Config) {
		cfg.SocketConnectTimeout = timeout
	})
	if err != nil {
		return fmt.Errorf("neo4j: init driver: %w", err)
	}

	vctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := driver.VerifyConnectivity(vctx); err != nil {
		_ = driver.Close(ctx)
		return fmt.Errorf("neo4j: verify connectivity: %w", err)
	}

	s.driver = driver
	s.database = opts.Param("database", "")
	s.batchSize = opts.IntParam("batch_size", defaultBatchSize)
	s.run = s.executeWrite

	s.createConstraints(ctx)
	s.logger.Debug("connected to neo4j", slog.String("uri", opts.DSN), slog.Int("batch_size", s.batchSize))
	return nil
}

// createConstraints is best-effort; restricted users may not manage schema.
func (s *Sink) createConstraints(ctx context.Context) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: s.database,
	})
	defer session.Close(ctx)

	for _, stmt := range constraints {
		res, err := session.Run(ctx, stmt, nil)
		if err != nil {
			s.logger.Warn("neo4j schema init failed (continuing)", slog.Any("error", err))
			continue
		}
		_, _ = res.Consume(ctx)
	}
}

func (s *Sink) executeWrite(ctx context.Context, cypher string, params map[string]any) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: s.database,
	})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		return res.Consume(ctx)
	})
	return err
}

// WriteConcept buffers c, flushing when the batch is full.
func (s *Sink) WriteConcept(ctx context.Context, c *concept.Concept) error {
	if s.run == nil {
		return fmt.Errorf("neo4j output not open")
	}
	r := sink.NewRecord(c)
	node, err := nodeParams(r)
	if err != nil {
		return err
	}
	rels, err := relParams(r)
	if err != nil {
		return err
	}
	s.nodes = append(s.nodes, node)
	s.rels = append(s.rels, rels...)

	if len(s.nodes) >= s.batchSize {
		return s.flush(ctx)
	}
	return nil
}

// WriteGrouping flushes pending concepts, then writes g with member edges in batches.
func (s *Sink) WriteGrouping(ctx context.Context, g sink.Grouping) error {
	if s.run == nil {
		return fmt.Errorf("neo4j output not open")
	}
	if err := s.flush(ctx); err != nil {
		return err
	}

	id := g.ID.String()
	if err := s.run(ctx, upsertGrouping, map[string]any{"id": id, "name": g.Name}); err != nil {
		return fmt.Errorf("neo4j: write grouping %s: %w", g.Name, err)
	}
	for start := 0; start < len(g.Members); start += s.batchSize {
		end := min(start+s.batchSize, len(g.Members))
		members := make([]string, 0, end-start)
		for _, m := range g.Members[start:end] {
			members = append(members, m.String())
		}
		if err := s.run(ctx, upsertMembers, map[string]any{"id": id, "members": members}); err != nil {
			return fmt.Errorf("neo4j: write members of %s: %w", g.Name, err)
		}
	}
	return nil
}

func (s *Sink) flush(ctx context.Context) error {
	if len(s.nodes) > 0 {
		if err := s.run(ctx, upsertNodes, map[string]any{"nodes": s.nodes}); err != nil {
			return fmt.Errorf("neo4j: write concepts: %w", err)
		}
		s.written += len(s.nodes)
		s.logger.Debug("flushed concepts", slog.Int("batch", len(s.nodes)), slog.Int("written", s.written))
	}
	if len(s.rels) > 0 {
		if err := s.run(ctx, upsertRels, map[string]any{"rels": s.rels}); err != nil {
			return fmt.Errorf("neo4j: write relationships: %w", err)
		}
	}
	s.nodes = nil
	s.rels = nil
	return nil
}

// Close flushes buffered concepts and closes the driver.
func (s *Sink) Close() error {
	if s.run == nil {
		return nil
	}
	ctx := context.Background()
	err := s.flush(ctx)
	if s.driver != nil {
		if cerr := s.driver.Close(ctx); cerr != nil && err == nil {
			err = cerr
		}
		s.driver = nil
	}
	s.run = nil
	return err
}

func nodeParams(r sink.Record) (map[string]any, error) {
	descriptions, err := json.Marshal(r.Descriptions)
	if err != nil {
		return nil, fmt.Errorf("neo4j: encode descriptions of %s: %w", r.Code, err)
	}
	attributes, err := json.Marshal(r.Attributes)
	if err != nil {
		return nil, fmt.Errorf("neo4j: encode attributes of %s: %w", r.Code, err)
	}
	identifiers, err := json.Marshal(r.Identifiers)
	if err != nil {
		return nil, fmt.Errorf("neo4j: encode identifiers of %s: %w", r.Code, err)
	}

	synonyms := make([]string, 0, len(r.Descriptions))
	for _, d := range r.Descriptions {
		if d.Kind == concept.Synonym.String() {
			synonyms = append(synonyms, d.Text)
		}
	}

	return map[string]any{
		"id":                r.ID,
		"code":              r.Code,
		"role":              r.Role,
		"status":            r.Status,
		"active":            r.Active,
		"changed_at":        r.ChangedAt.UTC().Format(time.RFC3339),
		"preferred_name":    r.PreferredName,
		"synonyms":          synonyms,
		"descriptions_json": string(descriptions),
		"attributes_json":   string(attributes),
		"identifiers_json":  string(identifiers),
	}, nil
}

func relParams(r sink.Record) ([]map[string]any, error) {
	rels := make([]map[string]any, 0, len(r.Relationships))
	for i, rel := range r.Relationships {
		annotations := ""
		if len(rel.Annotations) > 0 {
			b, err := json.Marshal(rel.Annotations)
			if err != nil {
				return nil, fmt.Errorf("neo4j: encode annotations of %s: %w", r.Code, err)
			}
			annotations = string(b)
		}
		rels = append(rels, map[string]any{
			"from_id":          r.ID,
			"to_id":            rel.Target,
			"type":             rel.Type,
			"type_id":          rel.TypeID,
			"ordinal":          int64(i),
			"annotations_json": annotations,
		})
	}
	return rels, nil
}

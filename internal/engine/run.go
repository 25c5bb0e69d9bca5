package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/leapstack-labs/loincgraph/internal/builder"
	"github.com/leapstack-labs/loincgraph/internal/crossref"
	"github.com/leapstack-labs/loincgraph/internal/dag"
	"github.com/leapstack-labs/loincgraph/internal/diag"
	"github.com/leapstack-labs/loincgraph/internal/graph"
	"github.com/leapstack-labs/loincgraph/internal/hierarchy"
	"github.com/leapstack-labs/loincgraph/internal/property"
	"github.com/leapstack-labs/loincgraph/internal/report"
	"github.com/leapstack-labs/loincgraph/internal/source"
	"github.com/leapstack-labs/loincgraph/pkg/sink"
)

// Run converts the input directory and writes the graph to the configured sink.
//
// Phases run in a fixed order: load the cross-reference table, classify the
// columns, stream the primary file, stream the hierarchy file, then emit every
// concept followed by the all-concepts grouping. Fatal conditions abort the run;
// anomalies are collected into the summary. Anomaly kinds listed in FailOn turn
// into an error after output and summary are written. Every opened file and the
// sink are closed on all exit paths.
func (e *Engine) Run(ctx context.Context) (summary *report.Summary, err error) {
	started := time.Now()
	ledger := diag.NewLedger(e.logger)

	inputs, err := source.Discover(e.cfg.InputDir)
	if err != nil {
		return nil, err
	}
	e.logger.Info("starting conversion", "input_dir", inputs.Dir, "primary", inputs.Primary, "format", e.cfg.Format)

	var closers []io.Closer
	defer func() { err = closeAll(err, closers) }()

	primary, err := inputs.OpenPrimary()
	if err != nil {
		return nil, err
	}
	closers = append(closers, primary)

	releaseTime, err := ParseReleaseDate(primary.ReleaseDate())
	if err != nil {
		return nil, err
	}
	rel := property.SelectRelease(primary.Version())
	if !rel.Known {
		ledger.Record(diag.KindUnknownVersion, "untested release version, using newest property tables",
			"version", primary.Version(), "tier", int(rel.Tier))
	}
	names, err := e.loadNames(rel, ledger)
	if err != nil {
		return nil, err
	}

	// Phase 1: cross-reference table.
	xref := crossref.New()
	if inputs.CrossRef != "" {
		r, err := source.OpenCSV(inputs.CrossRef)
		if err != nil {
			return nil, err
		}
		closers = append(closers, r)
		if xref, err = crossref.Load(r); err != nil {
			return nil, err
		}
		e.logger.Info("loaded cross references", "sources", xref.Sources(), "links", xref.Len())
	}

	// Phase 2: classification and structural concepts.
	classes := e.classifier(rel, ledger)
	g := graph.New()
	b := builder.New(g, classes, names, xref, builder.Options{
		Namespaces:  e.ns,
		DefaultTime: releaseTime,
		Status:      e.statusPolicy(),
		Logger:      e.logger,
		Ledger:      ledger,
	})
	root := b.AddRoot(builder.RootInfo{
		Version:          primary.Version(),
		ReleaseDate:      primary.ReleaseDate(),
		ConverterVersion: e.cfg.ConverterVersion,
	})
	b.AddStructure()
	if inputs.SourceOrg != "" {
		r, err := source.OpenCSV(inputs.SourceOrg)
		if err != nil {
			return nil, err
		}
		closers = append(closers, r)
		if err := b.AddSourceOrganizations(r); err != nil {
			return nil, err
		}
	}
	if err := b.CheckHeader(primary.Columns(), primary.Name()); err != nil {
		return nil, err
	}

	// Phase 3: primary data.
	if err := e.each(primary, "data", func(row []string) error {
		return b.AddDataRow(primary.Columns(), row, primary.Name(), primary.Line())
	}); err != nil {
		return nil, err
	}
	e.logger.Info("read data file", "rows", b.Stats().DataRows, "concepts", g.Len())

	// Phase 4: hierarchy.
	hr, err := source.OpenCSV(inputs.Hierarchy)
	if err != nil {
		return nil, err
	}
	closers = append(closers, hr)
	linker := hierarchy.NewLinker(g, classes, hierarchy.Options{
		Namespaces:  e.ns,
		Root:        root.ID,
		DefaultTime: releaseTime,
		Ledger:      ledger,
	})
	if err := linker.Bind(hr.Columns(), hr.Name()); err != nil {
		return nil, err
	}
	if err := e.each(hr, "hierarchy", func(row []string) error {
		return linker.AddRow(row, hr.Line())
	}); err != nil {
		return nil, err
	}
	e.logger.Info("read hierarchy file", "rows", linker.Stats().Rows, "created", linker.Stats().Created)
	depth := e.checkHierarchy(g, ledger)

	summary = &report.Summary{
		Version:          primary.Version(),
		ReleaseDate:      primary.ReleaseDate(),
		Tier:             int(rel.Tier),
		KnownRelease:     rel.Known,
		ClassMap:         names.Name(),
		ConverterVersion: e.cfg.ConverterVersion,
		InputDir:         inputs.Dir,
		PrimaryFile:      inputs.Primary,
		HierarchyFile:    inputs.Hierarchy,
		Format:           e.cfg.Format,
		Output:           outputTarget(e.cfg.Output),
		StartedAt:        started,
		CrossReferences:  xref.Len(),
		Concepts:         g.Len(),
		Relationships:    g.Relationships(),
		HierarchyDepth:   depth,
	}
	for _, gap := range g.Gaps() {
		ledger.Record(diag.KindReferentialGap, "relationship target does not exist",
			"source", gap.SourceKey, "target", gap.Target.String(), "type", gap.Type)
		summary.Gaps = append(summary.Gaps, report.Gap{Source: gap.SourceKey, Target: gap.Target.String(), Type: gap.Type})
	}

	// Phase 5: output.
	emitted, err := e.emit(ctx, g, b)
	if err != nil {
		return nil, err
	}

	summary.Builder = b.Stats()
	summary.Hierarchy = linker.Stats()
	summary.Emitted = emitted
	summary.Anomalies = ledger.Counts()
	summary.Entries = ledger.Entries()
	summary.FinishedAt = time.Now()
	summary.Elapsed = summary.FinishedAt.Sub(started)

	if e.cfg.SummaryFile != "" {
		if err := summary.WriteYAML(e.cfg.SummaryFile); err != nil {
			return summary, err
		}
	}

	e.logger.Info("conversion complete",
		"concepts", emitted,
		"duplicates", summary.Builder.Duplicates,
		"skipped_deleted", summary.Builder.SkippedDeleted,
		"anomalies", summary.TotalAnomalies(),
		"elapsed", summary.Elapsed.Round(time.Millisecond).String())

	return summary, ledger.Promote(e.cfg.FailOn)
}

// checkHierarchy records cycles among parent edges and returns the number of
// hierarchy levels, or 0 when the parent edges are cyclic.
func (e *Engine) checkHierarchy(g *graph.Graph, ledger *diag.Ledger) int {
	parents, selfRefs := dag.FromConcepts(g, property.RelMultiaxialChild)
	for _, n := range selfRefs {
		ledger.Record(diag.KindHierarchyCycle, "concept is its own parent", "code", n.Key)
	}
	if cycle := parents.FindCycle(); cycle != nil {
		ledger.Record(diag.KindHierarchyCycle, "parent edges form a cycle", "path", strings.Join(cycle, " > "))
		return 0
	}
	levels, err := parents.Levels()
	if err != nil {
		return 0
	}
	e.logger.Debug("checked hierarchy", "roots", len(parents.GetRoots()), "levels", len(levels))
	return len(levels)
}

// each streams r to fn, logging a progress record every ProgressInterval rows.
func (e *Engine) each(r source.Reader, phase string, fn func(row []string) error) error {
	rows := 0
	for {
		row, err := r.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(row); err != nil {
			return err
		}
		rows++
		if rows%e.cfg.ProgressInterval == 0 {
			e.logger.Info("progress", "phase", phase, "rows", rows)
		}
	}
}

// emit writes every concept in graph order, then the all-concepts grouping.
func (e *Engine) emit(ctx context.Context, g *graph.Graph, b *builder.Builder) (n int, err error) {
	out, err := sink.New(e.cfg.Format, e.logger)
	if err != nil {
		return 0, err
	}
	if err := out.Open(ctx, e.cfg.Output); err != nil {
		return 0, fmt.Errorf("failed to open %s output: %w", e.cfg.Format, err)
	}
	defer func() { err = closeAll(err, []io.Closer{out}) }()

	concepts := g.Concepts()
	for _, c := range concepts {
		if err := out.WriteConcept(ctx, c); err != nil {
			return n, err
		}
		n++
		if n%e.cfg.ProgressInterval == 0 {
			e.logger.Info("progress", "phase", "output", "rows", n)
		}
	}

	if err := out.WriteGrouping(ctx, sink.Grouping{
		ID:      b.AllConceptsID(),
		Name:    builder.AllConceptsName,
		Members: g.IDs(),
	}); err != nil {
		return n, err
	}
	return n, nil
}

func outputTarget(o sink.Options) string {
	if o.Path != "" {
		return o.Path
	}
	return o.DSN
}

package classify

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/dtnitsch/sra-classifier/models"
	"github.com/dtnitsch/sra-classifier/pkg/keyword"
)

// Engine evaluates candidate records against a blacklist and an ordered set
// of class definitions. Evaluation of one record never depends on another;
// the engine holds no mutable state across records.
type Engine struct {
	// Blacklist excludes records ahead of any class assignment. Nil disables
	// exclusion.
	Blacklist *keyword.Set

	// Classes are evaluated independently, in declared order. A record may
	// land in several classes, or in none.
	Classes []ClassDefinition

	// Workers bounds optional record-range parallelism. Values below 2 keep
	// classification sequential.
	Workers int
}

// ClassResult holds the matches of one class, in candidate-table order.
type ClassResult struct {
	Name    string
	Matches []models.ClassMatch
}

// Result partitions the candidate table. Every declared class appears in
// Classes, including classes with zero matches.
type Result struct {
	Classes   []ClassResult
	Excluded  []models.Exclusion
	Undefined []models.Record
}

// ClassNames returns the declared class order of the result.
func (r *Result) ClassNames() []string {
	names := make([]string, len(r.Classes))
	for i, cr := range r.Classes {
		names[i] = cr.Name
	}
	return names
}

// Run classifies every record of the candidate table. Field references are
// validated against the table schema up front; a record merely lacking a
// value for a field is a non-match, not an error.
func (e *Engine) Run(ctx context.Context, table *models.Table) (*Result, error) {
	if err := validateFields(e.Classes, table); err != nil {
		return nil, err
	}

	n := table.Len()
	if e.Workers > 1 && n > 1 {
		return e.runParallel(ctx, table)
	}

	part := e.classifyRange(table, 0, n)
	return part, ctx.Err()
}

// classifyRange evaluates records [lo, hi) and returns a partial result in
// input order.
func (e *Engine) classifyRange(table *models.Table, lo, hi int) *Result {
	part := &Result{Classes: make([]ClassResult, len(e.Classes))}
	for i, def := range e.Classes {
		part.Classes[i].Name = def.Name
	}

	for ri := lo; ri < hi; ri++ {
		record := table.Record(ri)

		if e.Blacklist != nil && e.Blacklist.Len() > 0 {
			values := fieldValues(record, DefaultFields)
			if m, ok := e.Blacklist.MatchAny(values); ok {
				part.Excluded = append(part.Excluded, models.Exclusion{
					Record: record,
					Hit:    models.KeywordHit{Keyword: m.Keyword, Field: DefaultFields[m.FieldIndex]},
				})
				continue
			}
		}

		matchedAny := false
		for ci, def := range e.Classes {
			values := fieldValues(record, def.Fields)
			if _, ok := def.Keywords.MatchAny(values); !ok {
				continue
			}
			matchedAny = true

			// Detection found the first hit; the annotation pass records
			// every hit for the reports.
			all := def.Keywords.MatchAll(values)
			hits := make([]models.KeywordHit, len(all))
			for k, m := range all {
				hits[k] = models.KeywordHit{Keyword: m.Keyword, Field: def.Fields[m.FieldIndex]}
			}
			part.Classes[ci].Matches = append(part.Classes[ci].Matches, models.ClassMatch{
				Record: record,
				Hits:   hits,
			})
		}
		if !matchedAny {
			part.Undefined = append(part.Undefined, record)
		}
	}
	return part
}

// runParallel splits the table into disjoint record ranges, one per worker,
// and merges the partial results in range order so per-class output keeps
// stable candidate order.
func (e *Engine) runParallel(ctx context.Context, table *models.Table) (*Result, error) {
	n := table.Len()
	workers := e.Workers
	if workers > n {
		workers = n
	}
	chunk := (n + workers - 1) / workers

	parts := make([]*Result, 0, workers)
	var bounds [][2]int
	for lo := 0; lo < n; lo += chunk {
		hi := lo + chunk
		if hi > n {
			hi = n
		}
		bounds = append(bounds, [2]int{lo, hi})
		parts = append(parts, nil)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, b := range bounds {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			parts[i] = e.classifyRange(table, b[0], b[1])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := &Result{Classes: make([]ClassResult, len(e.Classes))}
	for i, def := range e.Classes {
		merged.Classes[i].Name = def.Name
	}
	for _, part := range parts {
		for ci := range part.Classes {
			merged.Classes[ci].Matches = append(merged.Classes[ci].Matches, part.Classes[ci].Matches...)
		}
		merged.Excluded = append(merged.Excluded, part.Excluded...)
		merged.Undefined = append(merged.Undefined, part.Undefined...)
	}
	return merged, nil
}

// fieldValues gathers the named fields of a record. Fields without a value
// yield empty strings, which the matcher skips.
func fieldValues(record models.Record, fields []string) []string {
	values := make([]string, len(fields))
	for i, field := range fields {
		values[i], _ = record.Field(field)
	}
	return values
}

// Package models defines data structures shared across the classification pipeline.
package models

import "strconv"

// Canonical columns of the SRA relation as materialized by the prefiltering
// query. The candidate table may carry more columns than these; classification
// only touches the ones it is configured to search.
const (
	ColRunAccession        = "run_accession"
	ColExperimentAccession = "experiment_accession"
	ColSampleAccession     = "sample_accession"
	ColStudyAccession      = "study_accession"
	ColSubmissionAccession = "submission_accession"
	ColSampleName          = "sample_name"
	ColExperimentTitle     = "experiment_title"
	ColStudyTitle          = "study_title"
	ColStudyAbstract       = "study_abstract"
	ColStudyDescription    = "study_description"
	ColSampleDescription   = "sample_description"
	ColDesignDescription   = "design_description"
	ColSampleAttribute     = "sample_attribute"
	ColTaxonID             = "taxon_id"
	ColLibraryStrategy     = "library_strategy"
	ColSize                = "size"
	ColSpots               = "spots"
	ColBases               = "bases"
)

// Table is a flat, read-only projection of catalog rows: a header plus
// string-typed cells in catalog order.
type Table struct {
	Columns []string
	Rows    [][]string
}

// Len returns the number of rows in the table.
func (t *Table) Len() int {
	return len(t.Rows)
}

// ColumnIndex returns the position of a named column.
func (t *Table) ColumnIndex(name string) (int, bool) {
	for i, col := range t.Columns {
		if col == name {
			return i, true
		}
	}
	return 0, false
}

// Record returns a view over row i.
func (t *Table) Record(i int) Record {
	return Record{Index: i, Row: t.Rows[i], table: t}
}

// Record is a view over a single candidate-table row. Index is the zero-based
// position in the candidate table, stable for the lifetime of a run.
type Record struct {
	Index int
	Row   []string

	table *Table
}

// Field returns the value of a named column. A column absent from the table
// schema, or a row too short to hold it, reports ok=false.
func (r Record) Field(name string) (string, bool) {
	if r.table == nil {
		return "", false
	}
	idx, ok := r.table.ColumnIndex(name)
	if !ok || idx >= len(r.Row) {
		return "", false
	}
	return r.Row[idx], true
}

// RunAccession returns the record's run accession, the unique output key.
func (r Record) RunAccession() string {
	v, _ := r.Field(ColRunAccession)
	return v
}

// StudyAccession returns the record's parent study (project) accession.
func (r Record) StudyAccession() string {
	v, _ := r.Field(ColStudyAccession)
	return v
}

// SizeBytes returns the declared data size of the record. Absent or
// unparseable sizes report zero; declared sizes are advisory, not load-bearing.
func (r Record) SizeBytes() int64 {
	v, ok := r.Field(ColSize)
	if !ok || v == "" {
		return 0
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

package catalog

import (
	"bytes"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/dtnitsch/sra-classifier/models"
	"github.com/dtnitsch/sra-classifier/pkg/keyword"
)

const testSchema = `
CREATE TABLE sra (
    run_accession TEXT,
    experiment_accession TEXT,
    sample_accession TEXT,
    study_accession TEXT,
    submission_accession TEXT,
    sample_name TEXT,
    experiment_title TEXT,
    study_title TEXT,
    study_abstract TEXT,
    study_description TEXT,
    sample_description TEXT,
    design_description TEXT,
    sample_attribute TEXT,
    taxon_id INTEGER,
    library_strategy TEXT,
    size INTEGER,
    spots INTEGER,
    bases INTEGER
);`

// setupTestCatalog creates an in-memory catalog with the sra relation.
func setupTestCatalog(t *testing.T) *Catalog {
	t.Helper()

	sqlDB, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	// The pool must not open a second connection: every :memory: connection
	// is its own database.
	sqlDB.SetMaxOpenConns(1)

	if _, err := sqlDB.Exec(testSchema); err != nil {
		t.Fatalf("failed to create test schema: %v", err)
	}

	cat := &Catalog{DB: sqlDB, path: ":memory:"}
	t.Cleanup(func() { _ = cat.Close() })
	return cat
}

// insertRun adds a minimal run row. Unset text fields stay empty.
func insertRun(t *testing.T, cat *Catalog, run, study, sampleName, expTitle, sampleAttr string, taxon int, strategy string, size int64) {
	t.Helper()
	_, err := cat.Exec(
		`INSERT INTO sra (run_accession, study_accession, sample_name, experiment_title, sample_attribute, taxon_id, library_strategy, size)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run, study, sampleName, expTitle, sampleAttr, taxon, strategy, size,
	)
	if err != nil {
		t.Fatalf("failed to insert run %s: %v", run, err)
	}
}

func TestPrefilterEmptyKeywordsFailsBeforeQuery(t *testing.T) {
	p := NewPrefilter(nil)
	_, err := p.Run(nil) // nil catalog: the keyword check must fire first
	if !errors.Is(err, keyword.ErrEmptyKeywordList) {
		t.Fatalf("Run with no keywords: got %v, want ErrEmptyKeywordList", err)
	}
}

func TestPrefilterRun(t *testing.T) {
	cat := setupTestCatalog(t)

	insertRun(t, cat, "SRR001", "SRP001", "s1", "Breast tumor RNA-Seq", "tissue: breast", 9606, "RNA-Seq", 100)
	insertRun(t, cat, "SRR002", "SRP001", "s2", "Liver expression", "disease: carcinoma", 9606, "RNA-Seq", 200)
	// Wrong taxon, matching keyword.
	insertRun(t, cat, "SRR003", "SRP002", "s3", "Mouse tumor model", "tissue: tumor", 10090, "RNA-Seq", 50)
	// Wrong strategy, matching keyword.
	insertRun(t, cat, "SRR004", "SRP003", "s4", "Tumor exome", "tissue: tumor", 9606, "WGS", 50)
	// Right taxon and strategy, no keyword in any searched field.
	insertRun(t, cat, "SRR005", "SRP004", "s5", "Healthy cohort", "tissue: blood", 9606, "RNA-Seq", 10)

	p := NewPrefilter([]string{"tumor", "carcinoma"})
	table, err := p.Run(cat)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if table.Len() != 2 {
		t.Fatalf("Run returned %d rows, want 2", table.Len())
	}
	got := []string{table.Record(0).RunAccession(), table.Record(1).RunAccession()}
	if got[0] != "SRR001" || got[1] != "SRR002" {
		t.Errorf("Run accessions = %v, want [SRR001 SRR002]", got)
	}
	if len(table.Columns) != 18 {
		t.Errorf("Run projection has %d columns, want the full 18", len(table.Columns))
	}
}

func TestPrefilterCaseInsensitive(t *testing.T) {
	cat := setupTestCatalog(t)
	insertRun(t, cat, "SRR010", "SRP010", "s1", "PANCREATIC CANCER TISSUE", "", 9606, "RNA-Seq", 0)

	p := NewPrefilter([]string{"Cancer"})
	table, err := p.Run(cat)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if table.Len() != 1 {
		t.Errorf("case-insensitive prefilter matched %d rows, want 1", table.Len())
	}
}

func TestPrefilterDefaults(t *testing.T) {
	p := Prefilter{Keywords: []string{"tumor"}}
	query, args, err := p.buildQuery()
	if err != nil {
		t.Fatalf("buildQuery: %v", err)
	}
	if args[0] != DefaultTaxonID || args[1] != DefaultLibraryStrategy {
		t.Errorf("default args = %v %v, want %d %q", args[0], args[1], DefaultTaxonID, DefaultLibraryStrategy)
	}
	// One pattern arg per keyword per searched field.
	if len(args) != 2+3 {
		t.Errorf("buildQuery produced %d args, want 5", len(args))
	}
	if query == "" {
		t.Error("buildQuery produced empty query")
	}
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "no-such-catalog.sqlite"))
	if !errors.Is(err, ErrCatalogUnavailable) {
		t.Fatalf("Open missing file: got %v, want ErrCatalogUnavailable", err)
	}
}

func TestStats(t *testing.T) {
	cat := setupTestCatalog(t)
	insertRun(t, cat, "SRR001", "SRP001", "s1", "a", "", 9606, "RNA-Seq", 0)
	insertRun(t, cat, "SRR002", "SRP001", "s2", "b", "", 9606, "RNA-Seq", 0)
	insertRun(t, cat, "SRR003", "SRP002", "s3", "c", "", 9606, "WGS", 0)

	total, byStrategy, err := cat.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if total != 3 {
		t.Errorf("total = %d, want 3", total)
	}
	if len(byStrategy) != 2 || byStrategy[0].LibraryStrategy != "RNA-Seq" || byStrategy[0].Runs != 2 {
		t.Errorf("byStrategy = %+v, want RNA-Seq first with 2 runs", byStrategy)
	}
}

func TestTableRoundTrip(t *testing.T) {
	table := &models.Table{
		Columns: []string{"run_accession", "sample_attribute"},
		Rows: [][]string{
			{"SRR001", "tissue: breast"},
			{"SRR002", "cell line\twith tab"}, // tab gets flattened
		},
	}

	var buf bytes.Buffer
	if err := WriteTable(&buf, table); err != nil {
		t.Fatalf("WriteTable: %v", err)
	}

	got, err := ReadTable(&buf)
	if err != nil {
		t.Fatalf("ReadTable: %v", err)
	}
	if got.Len() != 2 {
		t.Fatalf("round trip lost rows: %d", got.Len())
	}
	if got.Columns[0] != "run_accession" {
		t.Errorf("columns = %v", got.Columns)
	}
	if v, _ := got.Record(1).Field("sample_attribute"); v != "cell line with tab" {
		t.Errorf("tab not sanitized: %q", v)
	}
}

func TestReadTableRejectsMissingIndexColumn(t *testing.T) {
	_, err := ReadTable(bytes.NewBufferString("run_accession\tsample_name\nSRR1\ts1\n"))
	if err == nil {
		t.Fatal("ReadTable accepted a table without the row index column")
	}
}

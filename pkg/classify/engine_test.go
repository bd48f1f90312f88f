package classify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dtnitsch/sra-classifier/models"
	"github.com/dtnitsch/sra-classifier/pkg/keyword"
)

// candidateTable builds a table with the searchable schema and one row per
// sample_attribute value; run and study accessions are synthesized.
func candidateTable(t *testing.T, attributes ...string) *models.Table {
	t.Helper()
	table := &models.Table{
		Columns: []string{
			models.ColRunAccession,
			models.ColStudyAccession,
			models.ColExperimentTitle,
			models.ColSampleName,
			models.ColSampleAttribute,
			models.ColStudyTitle,
			models.ColStudyAbstract,
			models.ColSampleDescription,
			models.ColSize,
		},
	}
	for i, attr := range attributes {
		table.Rows = append(table.Rows, []string{
			"SRR00" + string(rune('1'+i)),
			"SRP00" + string(rune('1'+i)),
			"", "", attr, "", "", "", "",
		})
	}
	return table
}

func mustSet(t *testing.T, name string, keywords ...string) *keyword.Set {
	t.Helper()
	s, err := keyword.NewSet(name, keywords)
	if err != nil {
		t.Fatalf("NewSet(%s): %v", name, err)
	}
	return s
}

func mustDefs(t *testing.T, doc string) []ClassDefinition {
	t.Helper()
	defs, err := ParseDefinitions(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("ParseDefinitions: %v", err)
	}
	return defs
}

func runAccessions(matches []models.ClassMatch) []string {
	accs := make([]string, len(matches))
	for i, m := range matches {
		accs[i] = m.Record.RunAccession()
	}
	return accs
}

func TestEndToEndScenario(t *testing.T) {
	// R1 tumor, R2 normal, R3 tumor but blacklisted.
	table := candidateTable(t,
		"primary tumor, breast",
		"normal tissue, breast",
		"primary tumor, lung, excluded_term",
	)

	engine := &Engine{
		Blacklist: mustSet(t, "blacklist", "excluded_term"),
		Classes:   mustDefs(t, "tumor: [tumor]\nnormal: [normal]\n"),
	}
	result, err := engine.Run(context.Background(), table)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got := runAccessions(result.Classes[0].Matches); len(got) != 1 || got[0] != "SRR001" {
		t.Errorf("tumor class = %v, want [SRR001]", got)
	}
	if got := runAccessions(result.Classes[1].Matches); len(got) != 1 || got[0] != "SRR002" {
		t.Errorf("normal class = %v, want [SRR002]", got)
	}
	if len(result.Excluded) != 1 || result.Excluded[0].Record.RunAccession() != "SRR003" {
		t.Fatalf("excluded = %+v, want SRR003 only", result.Excluded)
	}
	if hit := result.Excluded[0].Hit; hit.Keyword != "excluded_term" || hit.Field != models.ColSampleAttribute {
		t.Errorf("exclusion hit = %+v", hit)
	}
}

func TestBlacklistPrecedence(t *testing.T) {
	// The record matches every class keyword, but the blacklist wins.
	table := candidateTable(t, "tumor and normal tissue, excluded_term")
	engine := &Engine{
		Blacklist: mustSet(t, "blacklist", "excluded_term"),
		Classes:   mustDefs(t, "tumor: [tumor]\nnormal: [normal]\n"),
	}
	result, err := engine.Run(context.Background(), table)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	for _, cr := range result.Classes {
		if len(cr.Matches) != 0 {
			t.Errorf("class %s has %d matches despite blacklist", cr.Name, len(cr.Matches))
		}
	}
	if len(result.Excluded) != 1 {
		t.Errorf("excluded = %d records, want 1", len(result.Excluded))
	}
}

func TestMultiMembership(t *testing.T) {
	table := candidateTable(t, "primary tumor, adjacent normal tissue")
	engine := &Engine{
		Classes: mustDefs(t, "tumor: [tumor]\nnormal: [normal]\n"),
	}
	result, err := engine.Run(context.Background(), table)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	for _, cr := range result.Classes {
		if len(cr.Matches) != 1 {
			t.Fatalf("class %s = %d matches, want 1", cr.Name, len(cr.Matches))
		}
	}
	// Per-class annotations cite each class's own keyword.
	if kw := result.Classes[0].Matches[0].Hits[0].Keyword; kw != "tumor" {
		t.Errorf("tumor annotation = %q", kw)
	}
	if kw := result.Classes[1].Matches[0].Hits[0].Keyword; kw != "normal" {
		t.Errorf("normal annotation = %q", kw)
	}
	if len(result.Undefined) != 0 {
		t.Errorf("undefined = %d, want 0", len(result.Undefined))
	}
}

func TestUndefinedRecords(t *testing.T) {
	table := candidateTable(t, "unrelated metadata")
	engine := &Engine{Classes: mustDefs(t, "tumor: [tumor]\n")}
	result, err := engine.Run(context.Background(), table)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Undefined) != 1 {
		t.Errorf("undefined = %d, want 1", len(result.Undefined))
	}
}

func TestAnnotationCollectsAllHits(t *testing.T) {
	table := candidateTable(t, "tumor biopsy; metastatic carcinoma")
	engine := &Engine{
		Classes: mustDefs(t, "tumor: [tumor, carcinoma]\n"),
	}
	result, err := engine.Run(context.Background(), table)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	hits := result.Classes[0].Matches[0].Hits
	if len(hits) != 2 {
		t.Fatalf("hits = %+v, want both keywords recorded", hits)
	}
}

func TestFieldRestriction(t *testing.T) {
	// Keyword present only in experiment_title; the class searches only
	// sample_attribute and must not match.
	table := candidateTable(t, "plain attribute")
	table.Rows[0][2] = "tumor expression profiling" // experiment_title

	engine := &Engine{
		Classes: mustDefs(t, "tumor:\n  keywords: [tumor]\n  fields: [sample_attribute]\n"),
	}
	result, err := engine.Run(context.Background(), table)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Classes[0].Matches) != 0 {
		t.Error("field-restricted class matched outside its fields")
	}
}

func TestMissingFieldIsFatal(t *testing.T) {
	table := &models.Table{
		Columns: []string{models.ColRunAccession, models.ColSampleAttribute},
		Rows:    [][]string{{"SRR001", "tumor"}},
	}
	engine := &Engine{Classes: mustDefs(t, "tumor: [tumor]\n")}
	_, err := engine.Run(context.Background(), table)
	if !errors.Is(err, ErrMissingField) {
		t.Fatalf("Run on narrow schema: got %v, want ErrMissingField", err)
	}
}

func TestParallelMatchesSequential(t *testing.T) {
	attrs := make([]string, 0, 23)
	for i := 0; i < 23; i++ {
		switch i % 3 {
		case 0:
			attrs = append(attrs, "primary tumor")
		case 1:
			attrs = append(attrs, "normal tissue")
		default:
			attrs = append(attrs, "unrelated")
		}
	}
	table := candidateTable(t, attrs...)
	// candidateTable synthesizes single-rune suffixes; rewrite accessions so
	// they stay unique across 23 rows.
	for i := range table.Rows {
		table.Rows[i][0] = "SRR" + strings.Repeat("0", 3-len(itoa(i))) + itoa(i)
	}

	defs := mustDefs(t, "tumor: [tumor]\nnormal: [normal]\n")
	sequential := &Engine{Classes: defs}
	parallel := &Engine{Classes: defs, Workers: 4}

	seq, err := sequential.Run(context.Background(), table)
	if err != nil {
		t.Fatalf("sequential Run: %v", err)
	}
	par, err := parallel.Run(context.Background(), table)
	if err != nil {
		t.Fatalf("parallel Run: %v", err)
	}

	for ci := range seq.Classes {
		sa, pa := runAccessions(seq.Classes[ci].Matches), runAccessions(par.Classes[ci].Matches)
		if len(sa) != len(pa) {
			t.Fatalf("class %s: sequential %d vs parallel %d matches", seq.Classes[ci].Name, len(sa), len(pa))
		}
		for i := range sa {
			if sa[i] != pa[i] {
				t.Errorf("class %s order diverges at %d: %s vs %s", seq.Classes[ci].Name, i, sa[i], pa[i])
			}
		}
	}
	if len(seq.Undefined) != len(par.Undefined) {
		t.Errorf("undefined: sequential %d vs parallel %d", len(seq.Undefined), len(par.Undefined))
	}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

func TestParseDefinitions(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr error
	}{
		{
			name: "list and mapping shapes",
			doc:  "tumor: [tumor]\nnormal:\n  keywords: [normal]\n  fields: [sample_attribute]\n",
		},
		{
			name:    "empty keyword set",
			doc:     "tumor: []\n",
			wantErr: ErrInvalidClassDefinition,
		},
		{
			name:    "blank keyword",
			doc:     "tumor: [\"  \"]\n",
			wantErr: ErrInvalidClassDefinition,
		},
		{
			name:    "duplicate class",
			doc:     "tumor: [a]\ntumor: [b]\n",
			wantErr: ErrInvalidClassDefinition,
		},
		{
			name:    "scalar value",
			doc:     "tumor: yes\n",
			wantErr: ErrInvalidClassDefinition,
		},
		{
			name:    "no classes",
			doc:     "{}\n",
			wantErr: ErrInvalidClassDefinition,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defs, err := ParseDefinitions(strings.NewReader(tt.doc))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ParseDefinitions error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDefinitions: %v", err)
			}
			if len(defs) != 2 || defs[0].Name != "tumor" || defs[1].Name != "normal" {
				t.Errorf("declared order lost: %+v", defs)
			}
			if got := defs[1].Fields; len(got) != 1 || got[0] != models.ColSampleAttribute {
				t.Errorf("fields restriction = %v", got)
			}
			if got := defs[0].Fields; len(got) != len(DefaultFields) {
				t.Errorf("default fields = %v", got)
			}
		})
	}
}

func TestParseDefinitionsAcceptsJSON(t *testing.T) {
	// The historical class file was JSON; YAML parses it unchanged.
	doc := `{"tumor": ["tumor", "carcinoma"], "normal": ["normal"]}`
	defs, err := ParseDefinitions(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("ParseDefinitions(JSON): %v", err)
	}
	if len(defs) != 2 || defs[0].Keywords.Len() != 2 {
		t.Errorf("JSON class document parsed wrong: %+v", defs)
	}
}

package catalog

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/dtnitsch/sra-classifier/models"
	"github.com/dtnitsch/sra-classifier/pkg/keyword"
)

const (
	// DefaultTaxonID is human (NCBI taxonomy 9606).
	DefaultTaxonID = 9606

	// DefaultLibraryStrategy is the default sequencing assay type.
	DefaultLibraryStrategy = "RNA-Seq"
)

// prefilterFields are the fixed text fields each preselection keyword is
// tested against.
var prefilterFields = []string{
	models.ColExperimentTitle,
	models.ColSampleName,
	models.ColSampleAttribute,
}

// Prefilter composes the candidate-narrowing query: exact match on taxon and
// library strategy, OR-combined substring predicates over the preselection
// keywords.
type Prefilter struct {
	TaxonID         int
	LibraryStrategy string
	Keywords        []string
}

// NewPrefilter returns a Prefilter with default taxon and strategy.
func NewPrefilter(keywords []string) Prefilter {
	return Prefilter{
		TaxonID:         DefaultTaxonID,
		LibraryStrategy: DefaultLibraryStrategy,
		Keywords:        keywords,
	}
}

// buildQuery expands the prefilter into a single SQL statement. Each keyword
// k becomes (f1 LIKE %k% OR f2 LIKE %k% OR f3 LIKE %k%); SQLite LIKE is
// case-insensitive for ASCII, matching the keyword matcher's semantics.
func (p Prefilter) buildQuery() (string, []any, error) {
	if len(p.Keywords) == 0 {
		return "", nil, keyword.ErrEmptyKeywordList
	}
	taxon := p.TaxonID
	if taxon == 0 {
		taxon = DefaultTaxonID
	}
	strategy := p.LibraryStrategy
	if strategy == "" {
		strategy = DefaultLibraryStrategy
	}

	var sb strings.Builder
	args := []any{taxon, strategy}

	sb.WriteString("SELECT * FROM ")
	sb.WriteString(relation)
	sb.WriteString(" WHERE taxon_id = ? AND library_strategy = ? AND (")
	for ki, kw := range p.Keywords {
		if ki > 0 {
			sb.WriteString(" OR ")
		}
		sb.WriteString("(")
		pattern := "%" + kw + "%"
		for fi, field := range prefilterFields {
			if fi > 0 {
				sb.WriteString(" OR ")
			}
			sb.WriteString(field)
			sb.WriteString(" LIKE ?")
			args = append(args, pattern)
		}
		sb.WriteString(")")
	}
	sb.WriteString(")")

	return sb.String(), args, nil
}

// Run executes the prefilter against the catalog and returns the full row
// projection of every matching run as a candidate table. This method does not
// retry; callers re-invoke with a freshly opened catalog on failure.
func (p Prefilter) Run(cat *Catalog) (*models.Table, error) {
	query, args, err := p.buildQuery()
	if err != nil {
		return nil, err
	}

	rows, err := cat.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}

	table := &models.Table{Columns: columns}
	for rows.Next() {
		cells := make([]sql.NullString, len(columns))
		dest := make([]any, len(columns))
		for i := range cells {
			dest[i] = &cells[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrQueryFailed, err)
		}

		row := make([]string, len(columns))
		for i, cell := range cells {
			if cell.Valid {
				row[i] = cell.String
			}
		}
		table.Rows = append(table.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}
	return table, nil
}

package catalog

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dtnitsch/sra-classifier/models"
)

// indexColumn is the leading zero-based row index column of the candidate
// table. It is consumed (and discarded) when the table is read back.
const indexColumn = "row_index"

// WriteTable writes the candidate table as tab-delimited text with a leading
// zero-based row index column. Tabs and newlines inside cells are flattened
// to spaces so the table stays one row per line.
func WriteTable(w io.Writer, table *models.Table) error {
	bw := bufio.NewWriter(w)

	header := make([]string, 0, len(table.Columns)+1)
	header = append(header, indexColumn)
	for _, col := range table.Columns {
		header = append(header, sanitizeCell(col))
	}
	if _, err := bw.WriteString(strings.Join(header, "\t") + "\n"); err != nil {
		return fmt.Errorf("failed to write candidate header: %w", err)
	}

	line := make([]string, 0, len(table.Columns)+1)
	for i, row := range table.Rows {
		line = line[:0]
		line = append(line, fmt.Sprintf("%d", i))
		for _, cell := range row {
			line = append(line, sanitizeCell(cell))
		}
		if _, err := bw.WriteString(strings.Join(line, "\t") + "\n"); err != nil {
			return fmt.Errorf("failed to write candidate row %d: %w", i, err)
		}
	}
	return bw.Flush()
}

// WriteTableFile writes the candidate table to a file.
func WriteTableFile(path string, table *models.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create candidate table %s: %w", path, err)
	}
	if err := WriteTable(f, table); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// ReadTable parses a candidate table written by WriteTable. The leading row
// index column is dropped; row order is preserved.
func ReadTable(r io.Reader) (*models.Table, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("failed to read candidate header: %w", err)
		}
		return nil, fmt.Errorf("candidate table is empty")
	}

	header := strings.Split(scanner.Text(), "\t")
	if len(header) < 2 || header[0] != indexColumn {
		return nil, fmt.Errorf("candidate table has no %s column", indexColumn)
	}
	table := &models.Table{Columns: header[1:]}

	lineNo := 1
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if line == "" {
			continue
		}
		cells := strings.Split(line, "\t")
		if len(cells) != len(header) {
			return nil, fmt.Errorf("candidate table line %d: %d columns, want %d", lineNo, len(cells), len(header))
		}
		table.Rows = append(table.Rows, cells[1:])
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read candidate table: %w", err)
	}
	return table, nil
}

// ReadTableFile reads a candidate table from a file.
func ReadTableFile(path string) (*models.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open candidate table %s: %w", path, err)
	}
	defer f.Close()

	table, err := ReadTable(f)
	if err != nil {
		return nil, fmt.Errorf("candidate table %s: %w", path, err)
	}
	return table, nil
}

var cellSanitizer = strings.NewReplacer("\t", " ", "\n", " ", "\r", " ")

func sanitizeCell(cell string) string {
	return cellSanitizer.Replace(cell)
}

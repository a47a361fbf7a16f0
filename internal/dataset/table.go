package dataset

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Sentinel errors for tabular operations. Handlers map these to API errors.
var (
	// ErrParse indicates an uploaded workbook could not be read.
	ErrParse = errors.New("workbook parse failed")
	// ErrMissingColumn indicates a referenced column does not exist.
	// Raised at the point of use; there is no upfront schema check.
	ErrMissingColumn = errors.New("column not found")
)

// Table is an ordered, in-memory tabular dataset. Cells are string, int or
// float64. Row identity is positional only; operations that combine tables
// never carry an index over.
type Table struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// NewTable creates a table with the given columns and no rows.
func NewTable(columns ...string) *Table {
	return &Table{Columns: columns}
}

// ColumnIndex returns the position of the named column.
func (t *Table) ColumnIndex(name string) (int, error) {
	for i, c := range t.Columns {
		if c == name {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %s", ErrMissingColumn, name)
}

// HasColumn reports whether the named column exists.
func (t *Table) HasColumn(name string) bool {
	_, err := t.ColumnIndex(name)
	return err == nil
}

// AppendRow adds a row, padding or truncating to the column count.
func (t *Table) AppendRow(cells ...any) {
	row := make([]any, len(t.Columns))
	for i := range row {
		if i < len(cells) {
			row[i] = cells[i]
		} else {
			row[i] = ""
		}
	}
	t.Rows = append(t.Rows, row)
}

// NumRows returns the data row count.
func (t *Table) NumRows() int {
	return len(t.Rows)
}

// CellString renders a cell value as a string.
func CellString(v any) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return c
	default:
		return fmt.Sprintf("%v", c)
	}
}

// WithEntity returns a copy of the table with a constant Entity column.
// An existing Entity column is overwritten in place; otherwise the column
// is appended after the source columns.
func (t *Table) WithEntity(entity string) *Table {
	out := &Table{Columns: append([]string(nil), t.Columns...)}
	idx, err := t.ColumnIndex("Entity")
	if err != nil {
		out.Columns = append(out.Columns, "Entity")
		idx = len(out.Columns) - 1
	}
	for _, row := range t.Rows {
		cells := make([]any, len(out.Columns))
		copy(cells, row)
		for i := len(row); i < len(cells); i++ {
			cells[i] = ""
		}
		cells[idx] = entity
		out.Rows = append(out.Rows, cells)
	}
	return out
}

// EntityFromFilename derives the entity label for an uploaded file: the
// extension is stripped and the prefix before the first " - " separator is
// taken. A filename without the separator yields the whole stem.
func EntityFromFilename(name string) string {
	base := filepath.Base(name)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if i := strings.Index(stem, " - "); i >= 0 {
		return stem[:i]
	}
	return stem
}

// Concat concatenates tables in order, preserving row order within each
// input. Columns are unioned in first-seen order; cells for columns a row's
// source table lacks become empty strings. No schema compatibility check is
// performed.
func Concat(tables ...*Table) *Table {
	out := &Table{}
	seen := make(map[string]int)
	for _, t := range tables {
		for _, c := range t.Columns {
			if _, ok := seen[c]; !ok {
				seen[c] = len(out.Columns)
				out.Columns = append(out.Columns, c)
			}
		}
	}
	for _, t := range tables {
		for _, row := range t.Rows {
			cells := make([]any, len(out.Columns))
			for i := range cells {
				cells[i] = ""
			}
			for i, c := range t.Columns {
				if i < len(row) {
					cells[seen[c]] = row[i]
				}
			}
			out.Rows = append(out.Rows, cells)
		}
	}
	return out
}

// ExplodeColumn splits the named column on commas and emits one row per
// piece, with all other cells copied. A row whose cell contains no comma
// passes through unchanged. Pieces are not trimmed; splitting mirrors the
// raw comma-separated source values.
func ExplodeColumn(t *Table, column string) (*Table, error) {
	idx, err := t.ColumnIndex(column)
	if err != nil {
		return nil, err
	}
	out := &Table{Columns: append([]string(nil), t.Columns...)}
	for _, row := range t.Rows {
		parts := strings.Split(CellString(row[idx]), ",")
		for _, p := range parts {
			cells := append([]any(nil), row...)
			cells[idx] = p
			out.Rows = append(out.Rows, cells)
		}
	}
	return out, nil
}

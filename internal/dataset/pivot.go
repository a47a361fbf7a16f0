package dataset

import "sort"

// Crosstab counts co-occurrences of two categorical columns. The result has
// the row column first, then one column per distinct value of colCol in
// ascending order; row keys are ascending too. Rows where either value is
// empty are dropped, matching the null-dropping behavior of the upstream
// spreadsheets.
func Crosstab(t *Table, rowCol, colCol string) (*Table, error) {
	ri, err := t.ColumnIndex(rowCol)
	if err != nil {
		return nil, err
	}
	ci, err := t.ColumnIndex(colCol)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]map[string]int)
	colSet := make(map[string]struct{})
	for _, row := range t.Rows {
		key := CellString(row[ri])
		col := CellString(row[ci])
		if key == "" || col == "" {
			continue
		}
		if counts[key] == nil {
			counts[key] = make(map[string]int)
		}
		counts[key][col]++
		colSet[col] = struct{}{}
	}

	cols := make([]string, 0, len(colSet))
	for c := range colSet {
		cols = append(cols, c)
	}
	sort.Strings(cols)

	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := NewTable(append([]string{rowCol}, cols...)...)
	for _, k := range keys {
		cells := make([]any, 0, len(out.Columns))
		cells = append(cells, k)
		for _, c := range cols {
			cells = append(cells, counts[k][c])
		}
		out.Rows = append(out.Rows, cells)
	}
	return out, nil
}

// AddTotalColumn appends a column holding the sum of all int cells per row.
func AddTotalColumn(t *Table, name string) {
	t.Columns = append(t.Columns, name)
	for i, row := range t.Rows {
		t.Rows[i] = append(row, SumIntCells(row))
	}
}

// AddTotalRow appends a row labeled in the first column, summing every
// column past the label over the existing rows. Cells start at zero, so a
// table with no data rows still gets a zero-valued margin.
func AddTotalRow(t *Table, label string) {
	cells := make([]any, len(t.Columns))
	for i := range cells {
		cells[i] = 0
	}
	cells[0] = label
	for _, row := range t.Rows {
		for i, v := range row {
			if i == 0 {
				continue
			}
			if n, ok := intCell(v); ok {
				cur, _ := intCell(cells[i])
				cells[i] = cur + n
			}
		}
	}
	t.Rows = append(t.Rows, cells)
}

// SortByIntColumnDesc stably sorts rows descending by an int column. Rows
// whose cell is not numeric sort as zero.
func SortByIntColumnDesc(t *Table, column string) error {
	idx, err := t.ColumnIndex(column)
	if err != nil {
		return err
	}
	sort.SliceStable(t.Rows, func(i, j int) bool {
		a, _ := intCell(t.Rows[i][idx])
		b, _ := intCell(t.Rows[j][idx])
		return a > b
	})
	return nil
}

// SumIntCells totals the int cells of a row.
func SumIntCells(row []any) int {
	sum := 0
	for _, v := range row {
		if n, ok := intCell(v); ok {
			sum += n
		}
	}
	return sum
}

func intCell(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case float64:
		return int(n), true
	}
	return 0, false
}

package dataset

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ContentTypeXLSX is the MIME type for open XML workbook downloads.
const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReadWorkbook parses an uploaded XLSX byte stream. The first sheet is read;
// its first row provides the column headers. Cells come back as strings, the
// way the sheet displays them. A malformed stream fails with ErrParse.
func ReadWorkbook(data []byte) (*Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrParse)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if len(rows) == 0 {
		return &Table{}, nil
	}

	t := NewTable(rows[0]...)
	for _, row := range rows[1:] {
		cells := make([]any, len(row))
		for i, v := range row {
			cells[i] = v
		}
		t.AppendRow(cells...)
	}
	return t, nil
}

// WriteWorkbook serializes a table to a single-sheet XLSX byte stream with
// the table's columns as the header row. Nothing touches disk; the bytes are
// returned for download.
func WriteWorkbook(t *Table, sheetName string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]any, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header row: %w", err)
	}
	for i, row := range t.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("resolve cell: %w", err)
		}
		cells := append([]any(nil), row...)
		if err := f.SetSheetRow(sheetName, cell, &cells); err != nil {
			return nil, fmt.Errorf("write data row %d: %w", i+1, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}

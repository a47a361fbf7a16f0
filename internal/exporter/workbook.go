// Package exporter assembles a report bundle into one styled worksheet. The
// layout is fully determined by table sizes and bundle order: header block,
// then each titled table stacked vertically with fixed spacing.
package exporter

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"mediasov/internal/dataset"
	"mediasov/internal/reports"
)

const (
	sheetName = "Results"

	fontName  = "Gill Sans"
	fillColor = "FFA500"

	// The write cursor skips this many rows past the header block before the
	// first table, and (rows + 2) + 2 between tables.
	headerBlockOffset = 6
	tableFooterGap    = 2
	tableSpacingGap   = 2
)

type styleSet struct {
	border      int
	entityLabel int
	plainLabel  int
	title       int
	header      int
	cell        int
}

// WriteBundle serializes the bundle into a single-sheet workbook and returns
// the raw bytes for download; nothing is written to disk.
func WriteBundle(bundle *reports.Bundle) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	styles, err := newStyleSet(f)
	if err != nil {
		return nil, err
	}

	currentRow := 1
	if err := writeEntityInfo(f, styles, bundle.EntityInfo, currentRow); err != nil {
		return nil, err
	}
	currentRow += headerBlockOffset

	for _, section := range bundle.Sections {
		if err := writeSection(f, styles, section, currentRow); err != nil {
			return nil, fmt.Errorf("write section %q: %w", section.Name, err)
		}
		currentRow += section.Table.NumRows() + tableFooterGap
		currentRow += tableSpacingGap
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// writeEntityInfo writes the free-text header block, one physical row per
// line, every cell bordered. Recognized label lines receive emphasis:
// "Entity:" lines are bold on an orange fill, "Source:" and "Time Period of
// analysis:" lines get the plain styled font.
func writeEntityInfo(f *excelize.File, styles styleSet, entityInfo string, startRow int) error {
	for i, line := range strings.Split(entityInfo, "\n") {
		cell, err := excelize.CoordinatesToCellName(1, startRow+i)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetName, cell, line); err != nil {
			return err
		}
		style := styles.border
		switch {
		case strings.HasPrefix(line, "Entity:"):
			style = styles.entityLabel
		case strings.HasPrefix(line, "Source:"), strings.HasPrefix(line, "Time Period of analysis:"):
			style = styles.plainLabel
		}
		if err := f.SetCellStyle(sheetName, cell, cell, style); err != nil {
			return err
		}
	}
	return nil
}

// writeSection writes one titled table: a merged title cell spanning exactly
// the table's column count, a bold header row, then centered bordered data
// rows. A title wider than the merge is truncated visually, never reflowed.
func writeSection(f *excelize.File, styles styleSet, section reports.Section, startRow int) error {
	table := section.Table

	titleCell, err := excelize.CoordinatesToCellName(1, startRow)
	if err != nil {
		return err
	}
	if err := f.SetCellValue(sheetName, titleCell, section.Title); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetName, titleCell, titleCell, styles.title); err != nil {
		return err
	}
	if len(table.Columns) > 1 {
		titleEnd, err := excelize.CoordinatesToCellName(len(table.Columns), startRow)
		if err != nil {
			return err
		}
		if err := f.MergeCell(sheetName, titleCell, titleEnd); err != nil {
			return err
		}
	}

	headerRow := startRow + 1
	for col, name := range table.Columns {
		cell, err := excelize.CoordinatesToCellName(col+1, headerRow)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetName, cell, name); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheetName, cell, cell, styles.header); err != nil {
			return err
		}
	}

	for r, row := range table.Rows {
		for col, value := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, headerRow+1+r)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return err
			}
			if err := f.SetCellStyle(sheetName, cell, cell, styles.cell); err != nil {
				return err
			}
		}
	}
	return nil
}

func newStyleSet(f *excelize.File) (styleSet, error) {
	border := []excelize.Border{
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
		{Type: "left", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
	}
	fill := excelize.Fill{Type: "pattern", Color: []string{fillColor}, Pattern: 1}
	center := &excelize.Alignment{Horizontal: "center"}

	var s styleSet
	var err error

	s.border, err = f.NewStyle(&excelize.Style{Border: border})
	if err != nil {
		return s, fmt.Errorf("create border style: %w", err)
	}
	s.entityLabel, err = f.NewStyle(&excelize.Style{
		Border: border,
		Font:   &excelize.Font{Bold: true, Color: "000000", Family: fontName},
		Fill:   fill,
	})
	if err != nil {
		return s, fmt.Errorf("create entity label style: %w", err)
	}
	s.plainLabel, err = f.NewStyle(&excelize.Style{
		Border: border,
		Font:   &excelize.Font{Color: "000000", Family: fontName},
	})
	if err != nil {
		return s, fmt.Errorf("create label style: %w", err)
	}
	s.title, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "000000", Family: fontName},
		Fill:      fill,
		Alignment: center,
	})
	if err != nil {
		return s, fmt.Errorf("create title style: %w", err)
	}
	s.header, err = f.NewStyle(&excelize.Style{
		Border:    border,
		Font:      &excelize.Font{Bold: true, Family: fontName},
		Alignment: center,
	})
	if err != nil {
		return s, fmt.Errorf("create header style: %w", err)
	}
	s.cell, err = f.NewStyle(&excelize.Style{
		Border:    border,
		Font:      &excelize.Font{Family: fontName},
		Alignment: center,
	})
	if err != nil {
		return s, fmt.Errorf("create cell style: %w", err)
	}
	return s, nil
}

// ContentType is the MIME type of exported workbooks.
const ContentType = dataset.ContentTypeXLSX

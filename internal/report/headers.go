package report

import (
	"fmt"
	"strconv"
)

// minColumnWidth keeps narrow headers readable.
const minColumnWidth = 10

// writeSectionHeaders writes one section sheet's header row: the common
// identity columns, the base column names, and one indexed header per
// product per template, all positioned through the layout. Unless
// large-dataset mode is active it then zero-fills the numeric data region
// so sparse writes land on consistently typed cells.
func writeSectionHeaders(wb *Workbook, sheet string, layout Layout, productCount, userCount int, mode DatasetSizeMode) error {
	f := wb.File

	for i, name := range commonHeadNames {
		if err := f.SetCellStr(sheet, cellName(i+1, 1), name); err != nil {
			return fmt.Errorf("write identity header %s on %s: %w", name, sheet, err)
		}
	}

	for i, name := range layout.BaseColumns {
		col := commonHeadCount + 1 + i
		if err := f.SetCellStr(sheet, cellName(col, 1), name); err != nil {
			return fmt.Errorf("write base header %s on %s: %w", name, sheet, err)
		}
		if err := setHeaderWidth(wb, sheet, col, len(name)); err != nil {
			return err
		}
	}

	for p := 0; p < productCount; p++ {
		for t, template := range layout.IndexedTemplates {
			col := layout.ColumnIndex(p, t)
			header := template + strconv.Itoa(p+1)
			if err := f.SetCellStr(sheet, cellName(col, 1), header); err != nil {
				return fmt.Errorf("write indexed header %s on %s: %w", header, sheet, err)
			}
			if err := setHeaderWidth(wb, sheet, col, len(header)); err != nil {
				return err
			}
		}
	}

	if err := f.SetRowStyle(sheet, 1, 1, wb.HeaderStyle); err != nil {
		return fmt.Errorf("style header row on %s: %w", sheet, err)
	}

	if mode != ModeLargeDataset {
		if err := zeroFillNumericRegion(wb, sheet, layout, userCount); err != nil {
			return err
		}
	}

	filterRange := fmt.Sprintf("A1:%s1", columnName(layout.TotalColumns))
	if err := f.AutoFilter(sheet, filterRange, nil); err != nil {
		return fmt.Errorf("set auto filter on %s: %w", sheet, err)
	}

	return nil
}

// zeroFillNumericRegion pre-fills rows 2..userCount+1 across the indexed
// column span with zeros. Skipped in large mode as a memory/time
// optimization; blank cells read back as zero either way.
func zeroFillNumericRegion(wb *Workbook, sheet string, layout Layout, userCount int) error {
	for row := 2; row <= userCount+1; row++ {
		for col := layout.FirstIndexed; col <= layout.TotalColumns; col++ {
			if err := wb.File.SetCellInt(sheet, cellName(col, row), 0); err != nil {
				return fmt.Errorf("zero fill %s on %s: %w", cellName(col, row), sheet, err)
			}
		}
	}
	return nil
}

func setHeaderWidth(wb *Workbook, sheet string, col, textLen int) error {
	width := float64(textLen) + 2
	if width < minColumnWidth {
		width = minColumnWidth
	}
	name := columnName(col)
	if err := wb.File.SetColWidth(sheet, name, name, width); err != nil {
		return fmt.Errorf("set column width %s on %s: %w", name, sheet, err)
	}
	return nil
}

package report

import (
	"fmt"

	"github.com/openshelf/reportgen/internal/domain"
)

var (
	timersHeadNames      = []string{"idSurvey", "idMaster", "idCell", "TotalTime", "ShoppingTime"}
	findabilityHeadNames = []string{"idSurvey", "idMaster", "idCell", "Targets", "Selected", "Timer", "Validator"}
)

// populateTimers writes one row per user with the session time aggregates
// and a footer row of column averages.
func populateTimers(wb *Workbook, users []domain.UserRecord) error {
	f := wb.File

	for i, name := range timersHeadNames {
		if err := f.SetCellStr(SheetTimers, cellName(i+1, 1), name); err != nil {
			return fmt.Errorf("write timers header %s: %w", name, err)
		}
	}
	if err := f.SetRowStyle(SheetTimers, 1, 1, wb.HeaderStyle); err != nil {
		return fmt.Errorf("style timers header row: %w", err)
	}

	for i, u := range users {
		row := i + 2
		cells := []any{u.IDSurvey, u.IDMaster, u.IDCell, u.Timers.TotalTime, u.Timers.ShoppingTime}
		for c, v := range cells {
			if err := f.SetCellValue(SheetTimers, cellName(c+1, row), v); err != nil {
				return fmt.Errorf("write timers cell: %w", err)
			}
		}
	}

	if len(users) == 0 {
		return nil
	}

	footer := len(users) + 2
	if err := f.SetCellStr(SheetTimers, cellName(1, footer), "Average"); err != nil {
		return fmt.Errorf("write timers footer label: %w", err)
	}
	for _, col := range []int{4, 5} {
		name := columnName(col)
		formula := fmt.Sprintf("AVERAGE(%s2:%s%d)", name, name, len(users)+1)
		if err := f.SetCellFormula(SheetTimers, cellName(col, footer), formula); err != nil {
			return fmt.Errorf("write timers average formula: %w", err)
		}
	}
	return nil
}

// populateFindability writes one row per findability record and a footer
// block of validator counts computed as formulas over the data range.
// A nil record list means findability was disabled for the run; the sheet
// then keeps only its header.
func populateFindability(wb *Workbook, records []domain.FindabilityRecord) error {
	f := wb.File

	for i, name := range findabilityHeadNames {
		if err := f.SetCellStr(SheetFindability, cellName(i+1, 1), name); err != nil {
			return fmt.Errorf("write findability header %s: %w", name, err)
		}
	}
	if err := f.SetRowStyle(SheetFindability, 1, 1, wb.HeaderStyle); err != nil {
		return fmt.Errorf("style findability header row: %w", err)
	}

	for i, rec := range records {
		row := i + 2
		cells := []any{rec.IDSurvey, rec.IDMaster, rec.IDCell, rec.Targets, rec.Selected, rec.TimerRaw, rec.Validator}
		for c, v := range cells {
			if err := f.SetCellValue(SheetFindability, cellName(c+1, row), v); err != nil {
				return fmt.Errorf("write findability cell: %w", err)
			}
		}
	}

	if len(records) == 0 {
		return nil
	}

	validatorCol := columnName(len(findabilityHeadNames))
	lastRow := len(records) + 1
	footer := lastRow + 1

	labels := []struct {
		name  string
		match int
	}{
		{"Validated", 1},
		{"NotValidated", 0},
	}
	for i, l := range labels {
		row := footer + i
		if err := f.SetCellStr(SheetFindability, cellName(1, row), l.name); err != nil {
			return fmt.Errorf("write findability footer label: %w", err)
		}
		formula := fmt.Sprintf("COUNTIF(%s2:%s%d,%d)", validatorCol, validatorCol, lastRow, l.match)
		if err := f.SetCellFormula(SheetFindability, cellName(len(findabilityHeadNames), row), formula); err != nil {
			return fmt.Errorf("write validator count formula: %w", err)
		}
	}
	return nil
}

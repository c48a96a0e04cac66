package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// Sheet names of the generated report.
const (
	SheetProducts     = "Products"
	SheetSales        = "Sales"
	SheetClicks       = "Clicks"
	SheetViews        = "Views"
	SheetTimers       = "Timers"
	SheetFindability  = "Findability"
	SheetFunnel       = "Funnel"
	SheetNotPurchased = "NotPurchased"
)

// Workbook wraps the in-progress excelize document together with the shared
// header style every populator reuses. Cell writers are not thread-safe;
// all writes to a Workbook are serialized by the orchestrator.
type Workbook struct {
	File        *excelize.File
	HeaderStyle int
	Sheets      []string
}

// NewWorkbook creates the output document and its named sheets. Funnel and
// NotPurchased exist only for partners with funnel capability. All sheets
// must exist before any header or value writer runs.
func NewWorkbook(partner Partner) (*Workbook, error) {
	f := excelize.NewFile()

	sheets := []string{SheetProducts, SheetSales, SheetClicks, SheetViews, SheetTimers, SheetFindability}
	if partner.HasFunnelSheets {
		sheets = append(sheets, SheetFunnel, SheetNotPurchased)
	}

	if err := f.SetSheetName("Sheet1", sheets[0]); err != nil {
		return nil, fmt.Errorf("rename default sheet: %w", err)
	}
	for _, name := range sheets[1:] {
		if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#E2E8F0"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	return &Workbook{
		File:        f,
		HeaderStyle: headerStyle,
		Sheets:      sheets,
	}, nil
}

// Close releases the underlying document.
func (wb *Workbook) Close() error {
	return wb.File.Close()
}

// cellName converts 1-based coordinates to an A1-style reference. Layout
// guarantees columns stay within sheet bounds, so conversion errors are
// programming errors.
func cellName(col, row int) string {
	name, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		panic(fmt.Sprintf("invalid cell coordinates (%d,%d): %v", col, row, err))
	}
	return name
}

func columnName(col int) string {
	name, err := excelize.ColumnNumberToName(col)
	if err != nil {
		panic(fmt.Sprintf("invalid column number %d: %v", col, err))
	}
	return name
}

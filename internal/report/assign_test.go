package report

import (
	"testing"

	"github.com/openshelf/reportgen/internal/domain"
)

func buildWorkbook(t *testing.T, projectID string) (*Workbook, *RunConfig) {
	t.Helper()
	cfg, err := NewRunConfig(projectID)
	if err != nil {
		t.Fatal(err)
	}
	wb, err := NewWorkbook(cfg.Partner)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { wb.Close() })
	return wb, cfg
}

func cellValue(t *testing.T, wb *Workbook, sheet string, col, row int) string {
	t.Helper()
	v, err := wb.File.GetCellValue(sheet, cellName(col, row))
	if err != nil {
		t.Fatalf("read %s!%s: %v", sheet, cellName(col, row), err)
	}
	return v
}

var twoProducts = []domain.Product{
	{IDProduct: "p1", Description: "Cereal"},
	{IDProduct: "p2", Description: "Milk"},
}

func TestAssignViewsTimerFloor(t *testing.T) {
	wb, cfg := buildWorkbook(t, "acme_x1")
	assigner := newUserAssigner(wb, cfg, twoProducts, false)

	users := []domain.UserRecord{{
		IDSurvey: "s1", IDMaster: "m1", IDCell: "c1",
		Views: []domain.ViewEvent{
			{Index: 1, Timer: 0.4999},
			{Index: 2, Timer: 0.5},
			{Index: -1, Timer: 3},
		},
	}}
	if err := assigner.writeUsers(users); err != nil {
		t.Fatal(err)
	}

	views := viewsLayout(len(twoProducts))
	if got := cellValue(t, wb, SheetViews, views.ColumnIndex(0, 0), 2); got != "" {
		t.Errorf("view at timer floor should not be written, got %q", got)
	}
	if got := cellValue(t, wb, SheetViews, views.ColumnIndex(1, 0), 2); got != "1" {
		t.Errorf("view above floor: Viewed = %q, want 1", got)
	}
	if got := cellValue(t, wb, SheetViews, views.ColumnIndex(1, 1), 2); got != "0.5" {
		t.Errorf("view above floor: TimeViewed = %q, want 0.5", got)
	}
}

func TestAssignSalesTotalsAndDwellSentinel(t *testing.T) {
	wb, cfg := buildWorkbook(t, "acme_x1")
	assigner := newUserAssigner(wb, cfg, twoProducts, false)

	users := []domain.UserRecord{{
		IDSurvey: "s1", IDMaster: "m1", IDCell: "c1",
		Sales: []domain.SaleEvent{
			{IDProduct: "p1", Index: 1, Quantity: 2, Sequence: 1, DwellTime: nil},
			{IDProduct: "p2", Index: 0, Quantity: 3, Sequence: 2},
		},
	}}
	if err := assigner.writeUsers(users); err != nil {
		t.Fatal(err)
	}

	sales := salesLayout(len(twoProducts), cfg.Partner, false)

	if got := cellValue(t, wb, SheetSales, 1, 2); got != "s1" {
		t.Errorf("identity idSurvey = %q", got)
	}
	if got := cellValue(t, wb, SheetSales, sales.BaseColumnIndex(colTotalItemsPurchased), 2); got != "5" {
		t.Errorf("TotalItemsPurchased = %q, want 5 (unplaced events still count)", got)
	}
	if got := cellValue(t, wb, SheetSales, sales.BaseColumnIndex(colTotalBasketItems), 2); got != "2" {
		t.Errorf("TotalBasketItems = %q, want 2", got)
	}
	if got := cellValue(t, wb, SheetSales, sales.ColumnIndex(0, 3), 2); got != "-1" {
		t.Errorf("missing dwell time = %q, want -1 sentinel", got)
	}
	if got := cellValue(t, wb, SheetSales, sales.ColumnIndex(1, 0), 2); got != "" {
		t.Errorf("unplaced event wrote into indexed block: %q", got)
	}
}

func TestBasketAverageFormulas(t *testing.T) {
	wb, cfg := buildWorkbook(t, "niq_001")
	products := []domain.Product{{IDProduct: "p1", Price: strPtr("2")}}
	assigner := newUserAssigner(wb, cfg, products, true)

	users := []domain.UserRecord{
		{IDSurvey: "s1", Sales: []domain.SaleEvent{{IDProduct: "p1", Index: 1, Quantity: 2, Sequence: 1, DwellTime: new(float64)}}},
		{IDSurvey: "s2"},
	}
	if err := assigner.writeUsers(users); err != nil {
		t.Fatal(err)
	}

	sales := salesLayout(len(products), cfg.Partner, true)
	avgPrice := sales.BaseColumnIndex(colAvgBasketPrice)
	avgProducts := sales.BaseColumnIndex(colAvgProductsPurchased)

	formula, err := wb.File.GetCellFormula(SheetSales, cellName(avgPrice, 2))
	if err != nil {
		t.Fatal(err)
	}
	wantPrice := cellName(sales.BaseColumnIndex(colTotalSpend), 2) + "/" + cellName(sales.BaseColumnIndex(colTotalItemsPurchased), 2)
	if formula != wantPrice {
		t.Errorf("AvgBasketPrice formula = %q, want %q", formula, wantPrice)
	}

	formula, err = wb.File.GetCellFormula(SheetSales, cellName(avgProducts, 2))
	if err != nil {
		t.Fatal(err)
	}
	wantProducts := cellName(sales.BaseColumnIndex(colTotalItemsPurchased), 2) + "/" + cellName(sales.BaseColumnIndex(colTotalBasketItems), 2)
	if formula != wantProducts {
		t.Errorf("AvgProductsPurchased formula = %q, want %q", formula, wantProducts)
	}

	// Zero totals get a literal zero, never a division formula.
	if got := cellValue(t, wb, SheetSales, avgPrice, 3); got != "0" {
		t.Errorf("empty basket AvgBasketPrice = %q, want literal 0", got)
	}
	formula, err = wb.File.GetCellFormula(SheetSales, cellName(avgPrice, 3))
	if err != nil {
		t.Fatal(err)
	}
	if formula != "" {
		t.Errorf("empty basket still carries formula %q", formula)
	}
}

func TestFunnelPass(t *testing.T) {
	wb, cfg := buildWorkbook(t, "niq_001")
	assigner := newUserAssigner(wb, cfg, twoProducts, false)

	users := []domain.UserRecord{
		{
			IDSurvey: "s1",
			Funnels: []domain.FunnelEvent{
				{Index: 1, Conversion: 1},
				{Index: 2, Conversion: 0},
			},
			NotPurchased: []domain.NonPurchaseEvent{{Index: 2}},
		},
		{IDSurvey: "s2"},
	}
	if err := assigner.writeFunnelPass(users, len(twoProducts)); err != nil {
		t.Fatal(err)
	}

	funnel := funnelLayout(len(twoProducts))
	nonPurchase := nonPurchaseLayout(len(twoProducts))

	if got := cellValue(t, wb, SheetFunnel, funnel.ColumnIndex(0, 0), 2); got != "1" {
		t.Errorf("converted funnel cell = %q, want 1", got)
	}
	if got := cellValue(t, wb, SheetFunnel, funnel.BaseColumnIndex(colTotalConversionRate), 2); got != "0.5" {
		t.Errorf("conversion rate = %q, want 0.5", got)
	}
	if got := cellValue(t, wb, SheetNotPurchased, nonPurchase.ColumnIndex(1, 0), 2); got != "1" {
		t.Errorf("not-purchased flag = %q, want 1", got)
	}
	if got := cellValue(t, wb, SheetNotPurchased, nonPurchase.ColumnIndex(1, 1), 2); got != "1" {
		t.Errorf("not-purchased sequence = %q, want 1", got)
	}

	// Absent lists contribute zero aggregates without error.
	if got := cellValue(t, wb, SheetFunnel, funnel.BaseColumnIndex(colTotalConversionRate), 3); got != "0" {
		t.Errorf("conversion rate without funnels = %q, want 0", got)
	}
	if got := cellValue(t, wb, SheetNotPurchased, nonPurchase.BaseColumnIndex(colTotalNotPurchased), 3); got != "0" {
		t.Errorf("TotalNotPurchased without list = %q, want 0", got)
	}
}

func TestAssignClicksFirstSelection(t *testing.T) {
	wb, cfg := buildWorkbook(t, "acme_x1")
	assigner := newUserAssigner(wb, cfg, twoProducts, false)

	dwell := 2.25
	users := []domain.UserRecord{
		{
			IDSurvey: "s1",
			Clicks: []domain.ClickEvent{
				{Index: -1, Time: 1.5, Count: 2},
				{Index: 2, Time: 4, Count: 1, DwellTime: &dwell},
			},
		},
		{IDSurvey: "s2"},
	}
	if err := assigner.writeUsers(users); err != nil {
		t.Fatal(err)
	}

	clicks := clicksLayout(len(twoProducts), cfg.Partner)

	// The first event counts even when it had no product target.
	if got := cellValue(t, wb, SheetClicks, clicks.BaseColumnIndex(colFirstSelection), 2); got != "-1" {
		t.Errorf("FirstSelection = %q, want -1", got)
	}
	if got := cellValue(t, wb, SheetClicks, clicks.BaseColumnIndex(colTimeFirstSelection), 2); got != "1.5" {
		t.Errorf("TimeFirstSelection = %q, want 1.5", got)
	}
	if got := cellValue(t, wb, SheetClicks, clicks.BaseColumnIndex(colTotalProductsSelected), 2); got != "2" {
		t.Errorf("TotalProductsSelected = %q, want 2", got)
	}
	if got := cellValue(t, wb, SheetClicks, clicks.ColumnIndex(1, 1), 2); got != "2.25" {
		t.Errorf("click dwell = %q, want 2.25", got)
	}

	// No clicks: totals still written, first-selection cells left alone.
	if got := cellValue(t, wb, SheetClicks, clicks.BaseColumnIndex(colTotalProductsSelected), 3); got != "0" {
		t.Errorf("TotalProductsSelected without clicks = %q, want 0", got)
	}
	if got := cellValue(t, wb, SheetClicks, clicks.BaseColumnIndex(colFirstSelection), 3); got != "" {
		t.Errorf("FirstSelection without clicks = %q, want empty", got)
	}
}

func TestAOIModeSkipsSalesEvents(t *testing.T) {
	wb, cfg := buildWorkbook(t, "acme_x1")
	cfg.AOIMode = true
	assigner := newUserAssigner(wb, cfg, twoProducts, false)

	users := []domain.UserRecord{{
		IDSurvey: "s1", IDMaster: "m1", IDCell: "c1",
		Sales: []domain.SaleEvent{{IDProduct: "p1", Index: 1, Quantity: 2, Sequence: 1, DwellTime: new(float64)}},
	}}
	if err := assigner.writeUsers(users); err != nil {
		t.Fatal(err)
	}

	sales := salesLayout(len(twoProducts), cfg.Partner, false)
	if got := cellValue(t, wb, SheetSales, 1, 2); got != "s1" {
		t.Errorf("identity should still be written in AOI mode, got %q", got)
	}
	if got := cellValue(t, wb, SheetSales, sales.BaseColumnIndex(colTotalItemsPurchased), 2); got != "" {
		t.Errorf("AOI mode wrote sales totals: %q", got)
	}
	if got := cellValue(t, wb, SheetSales, sales.ColumnIndex(0, 0), 2); got != "" {
		t.Errorf("AOI mode wrote sales events: %q", got)
	}
}

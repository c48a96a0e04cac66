package report

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/openshelf/reportgen/internal/domain"
)

// userAssigner walks every user record and writes its sales, clicks, and
// views into the section sheets, deriving every column position from the
// section layouts. A separate funnel pass runs for partners with funnel
// sheets.
type userAssigner struct {
	wb      *Workbook
	cfg     *RunConfig
	sales   Layout
	clicks  Layout
	views   Layout
	pricing bool
	prices  map[string]float64
}

func newUserAssigner(wb *Workbook, cfg *RunConfig, products []domain.Product, pricing bool) *userAssigner {
	prices := make(map[string]float64, len(products))
	for _, p := range products {
		if v, ok := parsePrice(p.Price); ok {
			prices[p.IDProduct] = v
		}
	}

	return &userAssigner{
		wb:      wb,
		cfg:     cfg,
		sales:   salesLayout(len(products), cfg.Partner, pricing),
		clicks:  clicksLayout(len(products), cfg.Partner),
		views:   viewsLayout(len(products)),
		pricing: pricing,
		prices:  prices,
	}
}

// writeUsers runs the main per-user pass over the Sales, Clicks, and Views
// sheets.
func (a *userAssigner) writeUsers(users []domain.UserRecord) error {
	for i, u := range users {
		row := i + 2

		for _, sheet := range []string{SheetSales, SheetClicks, SheetViews} {
			if err := a.writeIdentity(sheet, row, u); err != nil {
				return err
			}
		}

		if !a.cfg.AOIMode {
			if err := a.assignSales(row, u); err != nil {
				return err
			}
		}
		if err := a.assignClicks(row, u); err != nil {
			return err
		}
		if err := a.assignViews(row, u); err != nil {
			return err
		}
	}
	return nil
}

// writeFunnelPass writes the Funnel and NotPurchased sheets. Users with
// absent funnel or non-purchase lists contribute zero to every aggregate.
func (a *userAssigner) writeFunnelPass(users []domain.UserRecord, productCount int) error {
	funnel := funnelLayout(productCount)
	nonPurchase := nonPurchaseLayout(productCount)

	for i, u := range users {
		row := i + 2

		for _, sheet := range []string{SheetFunnel, SheetNotPurchased} {
			if err := a.writeIdentity(sheet, row, u); err != nil {
				return err
			}
		}

		purchases := 0
		for _, ev := range u.Funnels {
			if ev.Conversion == 1 {
				purchases++
			}
			if ev.Index != -1 {
				col := funnel.ColumnIndex(ev.Index-1, 0)
				if err := a.setInt(SheetFunnel, col, row, ev.Conversion); err != nil {
					return err
				}
			}
		}

		rate := 0.0
		if len(u.Funnels) > 0 {
			rate = float64(purchases) / float64(len(u.Funnels))
		}
		if err := a.setFloat(SheetFunnel, funnel.BaseColumnIndex(colTotalConversionRate), row, rate); err != nil {
			return err
		}

		for pos, ev := range u.NotPurchased {
			if ev.Index == -1 {
				continue
			}
			p := ev.Index - 1
			if err := a.setInt(SheetNotPurchased, nonPurchase.ColumnIndex(p, 0), row, 1); err != nil {
				return err
			}
			if err := a.setInt(SheetNotPurchased, nonPurchase.ColumnIndex(p, 1), row, pos+1); err != nil {
				return err
			}
		}
		if err := a.setInt(SheetNotPurchased, nonPurchase.BaseColumnIndex(colTotalNotPurchased), row, len(u.NotPurchased)); err != nil {
			return err
		}
	}
	return nil
}

func (a *userAssigner) assignSales(row int, u domain.UserRecord) error {
	var totalItems, totalSpend float64
	cartItems := len(u.Sales)

	for _, ev := range u.Sales {
		price := a.prices[ev.IDProduct]
		totalItems += ev.Quantity
		if a.pricing {
			totalSpend += ev.Quantity * price
		}

		p := ev.Index - 1
		if p < 0 {
			continue
		}

		if err := a.setInt(SheetSales, a.sales.ColumnIndex(p, 0), row, 1); err != nil {
			return err
		}
		if err := a.setFloat(SheetSales, a.sales.ColumnIndex(p, 1), row, ev.Quantity); err != nil {
			return err
		}
		if err := a.setInt(SheetSales, a.sales.ColumnIndex(p, 2), row, ev.Sequence); err != nil {
			return err
		}
		if err := a.setDwell(SheetSales, a.sales.ColumnIndex(p, 3), row, u.IDSurvey, ev.DwellTime); err != nil {
			return err
		}
		if a.pricing {
			if err := a.setFloat(SheetSales, a.sales.ColumnIndex(p, 4), row, price); err != nil {
				return err
			}
		}
	}

	if err := a.setFloat(SheetSales, a.sales.BaseColumnIndex(colTotalItemsPurchased), row, totalItems); err != nil {
		return err
	}
	if err := a.setInt(SheetSales, a.sales.BaseColumnIndex(colTotalBasketItems), row, cartItems); err != nil {
		return err
	}
	if a.pricing {
		if err := a.setFloat(SheetSales, a.sales.BaseColumnIndex(colTotalSpend), row, totalSpend); err != nil {
			return err
		}
	}

	if a.cfg.Partner.HasBasketAverages && a.pricing {
		if err := a.writeBasketAverages(row, totalItems, totalSpend); err != nil {
			return err
		}
	}
	return nil
}

// writeBasketAverages writes the partner's average columns as spreadsheet
// formulas referencing the same row's totals. When either total is zero
// the cells get a literal 0 instead, so the workbook never carries a
// division-by-zero formula.
func (a *userAssigner) writeBasketAverages(row int, totalItems, totalSpend float64) error {
	avgPriceCol := a.sales.BaseColumnIndex(colAvgBasketPrice)
	avgProductsCol := a.sales.BaseColumnIndex(colAvgProductsPurchased)

	if totalItems == 0 || totalSpend == 0 {
		if err := a.setInt(SheetSales, avgPriceCol, row, 0); err != nil {
			return err
		}
		return a.setInt(SheetSales, avgProductsCol, row, 0)
	}

	spendCell := cellName(a.sales.BaseColumnIndex(colTotalSpend), row)
	itemsCell := cellName(a.sales.BaseColumnIndex(colTotalItemsPurchased), row)
	basketCell := cellName(a.sales.BaseColumnIndex(colTotalBasketItems), row)

	if err := a.wb.File.SetCellFormula(SheetSales, cellName(avgPriceCol, row),
		fmt.Sprintf("%s/%s", spendCell, itemsCell)); err != nil {
		return fmt.Errorf("write avg basket price formula: %w", err)
	}
	if err := a.wb.File.SetCellFormula(SheetSales, cellName(avgProductsCol, row),
		fmt.Sprintf("%s/%s", itemsCell, basketCell)); err != nil {
		return fmt.Errorf("write avg products formula: %w", err)
	}
	return nil
}

func (a *userAssigner) assignClicks(row int, u domain.UserRecord) error {
	var sumCount float64

	for _, ev := range u.Clicks {
		sumCount += ev.Count
		if ev.Index == -1 {
			continue
		}
		p := ev.Index - 1
		if err := a.setInt(SheetClicks, a.clicks.ColumnIndex(p, 0), row, 1); err != nil {
			return err
		}
		if err := a.setDwell(SheetClicks, a.clicks.ColumnIndex(p, 1), row, u.IDSurvey, ev.DwellTime); err != nil {
			return err
		}
	}

	// First selection tracks the first event even when it has no target.
	if len(u.Clicks) > 0 {
		first := u.Clicks[0]
		if err := a.setInt(SheetClicks, a.clicks.BaseColumnIndex(colFirstSelection), row, first.Index); err != nil {
			return err
		}
		if err := a.setFloat(SheetClicks, a.clicks.BaseColumnIndex(colTimeFirstSelection), row, first.Time); err != nil {
			return err
		}
	}

	if err := a.setInt(SheetClicks, a.clicks.BaseColumnIndex(colTotalProductsSelected), row, len(u.Clicks)); err != nil {
		return err
	}

	if a.cfg.Partner.HasInteractionAverage {
		avg := 0.0
		if len(u.Clicks) > 0 {
			avg = sumCount / float64(len(u.Clicks))
		}
		if err := a.setFloat(SheetClicks, a.clicks.BaseColumnIndex(colAvgInteractionsPerProduct), row, avg); err != nil {
			return err
		}
	}
	return nil
}

// viewTimerFloor is deliberately asymmetric: 0.4999 stays unwritten while
// 0.5 is written.
const viewTimerFloor = 0.4999

func (a *userAssigner) assignViews(row int, u domain.UserRecord) error {
	for _, ev := range u.Views {
		if ev.Index == -1 || ev.Timer <= viewTimerFloor {
			continue
		}
		p := ev.Index - 1
		if err := a.setInt(SheetViews, a.views.ColumnIndex(p, 0), row, 1); err != nil {
			return err
		}
		if err := a.setFloat(SheetViews, a.views.ColumnIndex(p, 1), row, ev.Timer); err != nil {
			return err
		}
	}
	return nil
}

func (a *userAssigner) writeIdentity(sheet string, row int, u domain.UserRecord) error {
	values := [commonHeadCount]string{u.IDSurvey, u.IDMaster, u.IDCell}
	for i, v := range values {
		if err := a.wb.File.SetCellStr(sheet, cellName(i+1, row), v); err != nil {
			return fmt.Errorf("write identity on %s row %d: %w", sheet, row, err)
		}
	}
	return nil
}

// setDwell writes a dwell time, falling back to a -1 sentinel with a
// warning when the value is missing.
func (a *userAssigner) setDwell(sheet string, col, row int, surveyID string, dwell *float64) error {
	if dwell == nil {
		log.Warn().
			Str("project_id", a.cfg.ProjectID).
			Str("survey_id", surveyID).
			Str("sheet", sheet).
			Msg("missing dwell time, writing -1 sentinel")
		return a.setInt(sheet, col, row, -1)
	}
	return a.setFloat(sheet, col, row, *dwell)
}

func (a *userAssigner) setInt(sheet string, col, row, value int) error {
	if err := a.wb.File.SetCellInt(sheet, cellName(col, row), int64(value)); err != nil {
		return fmt.Errorf("write %s on %s: %w", cellName(col, row), sheet, err)
	}
	return nil
}

func (a *userAssigner) setFloat(sheet string, col, row int, value float64) error {
	if err := a.wb.File.SetCellValue(sheet, cellName(col, row), value); err != nil {
		return fmt.Errorf("write %s on %s: %w", cellName(col, row), sheet, err)
	}
	return nil
}

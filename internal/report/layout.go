package report

// Common identity columns present on every per-user sheet.
const commonHeadCount = 3

var commonHeadNames = [commonHeadCount]string{"idSurvey", "idMaster", "idCell"}

// Base column names shared by the layout builders.
const (
	colTotalItemsPurchased       = "TotalItemsPurchased"
	colTotalBasketItems          = "TotalBasketItems"
	colAvgBasketPrice            = "AvgBasketPrice"
	colAvgProductsPurchased      = "AvgProductsPurchased"
	colTotalSpend                = "TotalSpend"
	colFirstSelection            = "FirstSelection"
	colTimeFirstSelection        = "TimeFirstSelection"
	colTotalProductsSelected     = "TotalProductsSelected"
	colAvgInteractionsPerProduct = "AvgInteractionsPerProduct"
	colTotalConversionRate       = "TotalConversionRate"
	colTotalNotPurchased         = "TotalNotPurchased"
)

// Layout describes one section's column space: the fixed base (summary)
// columns after the common head, followed by one indexed column block per
// product. ColumnIndex is the single source of truth for every cell write;
// header and value writers must both derive positions through it.
type Layout struct {
	TotalColumns     int
	FirstIndexed     int
	BaseColumns      []string
	IndexedTemplates []string
}

func newLayout(productCount int, base, templates []string) Layout {
	return Layout{
		TotalColumns:     commonHeadCount + len(base) + productCount*len(templates),
		FirstIndexed:     commonHeadCount + len(base) + 1,
		BaseColumns:      base,
		IndexedTemplates: templates,
	}
}

// ColumnIndex returns the 1-based sheet column of indexed template t
// (0-based) for product p (0-based).
func (l Layout) ColumnIndex(p, t int) int {
	return p*len(l.IndexedTemplates) + l.FirstIndexed + t
}

// BaseColumnIndex returns the 1-based sheet column of the named base
// column, or 0 when the layout has no such column.
func (l Layout) BaseColumnIndex(name string) int {
	for i, col := range l.BaseColumns {
		if col == name {
			return commonHeadCount + 1 + i
		}
	}
	return 0
}

func salesLayout(productCount int, partner Partner, pricingIncluded bool) Layout {
	base := []string{colTotalItemsPurchased, colTotalBasketItems}
	if partner.HasBasketAverages {
		base = append(base, colAvgBasketPrice, colAvgProductsPurchased)
	}
	if pricingIncluded {
		base = append(base, colTotalSpend)
	}

	templates := []string{"Purchased", "Quantity", "Sequence", "DwellTime"}
	if pricingIncluded {
		templates = append(templates, "Price")
	}

	return newLayout(productCount, base, templates)
}

func clicksLayout(productCount int, partner Partner) Layout {
	base := []string{colFirstSelection, colTimeFirstSelection, colTotalProductsSelected}
	if partner.HasInteractionAverage {
		base = append(base, colAvgInteractionsPerProduct)
	}
	return newLayout(productCount, base, []string{"Selected", "DwellTime"})
}

func viewsLayout(productCount int) Layout {
	return newLayout(productCount, nil, []string{"Viewed", "TimeViewed"})
}

func funnelLayout(productCount int) Layout {
	return newLayout(productCount, []string{colTotalConversionRate}, []string{"ConversionFunnel"})
}

func nonPurchaseLayout(productCount int) Layout {
	return newLayout(productCount, []string{colTotalNotPurchased}, []string{"ProductNotPurchased", "Sequence"})
}

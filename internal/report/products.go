package report

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"

	"github.com/openshelf/reportgen/internal/domain"
)

// ThumbnailFetcher resolves a product's thumbnail to a local file. The
// production implementation lives in internal/images.
type ThumbnailFetcher interface {
	Fetch(ctx context.Context, projectID, productID string) (string, error)
}

var productHeadNames = []string{"Image", "Cells", "ProductID", "Index", "Name"}

const productImageRowHeight = 60

// populateProducts writes one row per product, embedding a thumbnail in the
// first column. A failed thumbnail fetch is logged and the row proceeds
// without an image; it never fails the run.
func populateProducts(ctx context.Context, wb *Workbook, cfg *RunConfig, products []domain.Product, thumbs ThumbnailFetcher) error {
	f := wb.File

	for i, name := range productHeadNames {
		if err := f.SetCellStr(SheetProducts, cellName(i+1, 1), name); err != nil {
			return fmt.Errorf("write product header %s: %w", name, err)
		}
	}
	if err := f.SetRowStyle(SheetProducts, 1, 1, wb.HeaderStyle); err != nil {
		return fmt.Errorf("style product header row: %w", err)
	}

	widths := make([]int, len(productHeadNames))
	for i, name := range productHeadNames {
		widths[i] = len(name)
	}

	for i, p := range products {
		row := i + 2

		if thumbs != nil {
			path, err := thumbs.Fetch(ctx, cfg.ProjectID, p.IDProduct)
			if err != nil {
				log.Warn().
					Str("project_id", cfg.ProjectID).
					Str("product_id", p.IDProduct).
					Err(err).
					Msg("product row continues without thumbnail")
			} else {
				if err := f.AddPicture(SheetProducts, cellName(1, row), path, &excelize.GraphicOptions{
					AutoFit: true,
				}); err != nil {
					log.Warn().
						Str("product_id", p.IDProduct).
						Err(err).
						Msg("failed to embed thumbnail")
				} else if err := f.SetRowHeight(SheetProducts, row, productImageRowHeight); err != nil {
					return fmt.Errorf("set image row height: %w", err)
				}
			}
		}

		values := []string{
			"",
			p.Cells,
			p.IDProduct,
			fmt.Sprintf("%d", i+1),
			p.Description,
		}
		for c := 1; c < len(values); c++ {
			if err := f.SetCellStr(SheetProducts, cellName(c+1, row), values[c]); err != nil {
				return fmt.Errorf("write product cell: %w", err)
			}
			if l := len(values[c]); l > widths[c] {
				widths[c] = l
			}
		}
	}

	for c, w := range widths {
		name := columnName(c + 1)
		width := float64(w) + 2
		if width < minColumnWidth {
			width = minColumnWidth
		}
		if err := f.SetColWidth(SheetProducts, name, name, width); err != nil {
			return fmt.Errorf("set product column width: %w", err)
		}
	}

	filterRange := fmt.Sprintf("A1:%s1", columnName(len(productHeadNames)))
	if err := f.AutoFilter(SheetProducts, filterRange, nil); err != nil {
		return fmt.Errorf("set product auto filter: %w", err)
	}

	return nil
}

// dedupeCells normalizes the comma-joined cell list, dropping duplicates
// while preserving first-seen order.
func dedupeCells(raw string) string {
	parts := strings.Split(raw, ",")
	seen := make(map[string]struct{}, len(parts))
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if _, ok := seen[part]; ok {
			continue
		}
		seen[part] = struct{}{}
		out = append(out, part)
	}
	return strings.Join(out, ",")
}

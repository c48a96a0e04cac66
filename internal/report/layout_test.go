package report

import "testing"

func TestColumnIndexCoversIndexedSpan(t *testing.T) {
	layout := salesLayout(4, PartnerFor("niq999"), true)

	seen := make(map[int]bool)
	for p := 0; p < 4; p++ {
		for tmpl := range layout.IndexedTemplates {
			col := layout.ColumnIndex(p, tmpl)
			if col < layout.FirstIndexed || col > layout.TotalColumns {
				t.Fatalf("ColumnIndex(%d,%d) = %d, outside [%d,%d]", p, tmpl, col, layout.FirstIndexed, layout.TotalColumns)
			}
			if seen[col] {
				t.Fatalf("ColumnIndex(%d,%d) = %d collides with another cell", p, tmpl, col)
			}
			seen[col] = true
		}
	}

	want := layout.TotalColumns - layout.FirstIndexed + 1
	if len(seen) != want {
		t.Fatalf("indexed span has %d columns, want %d", len(seen), want)
	}
}

func TestSalesLayoutVariants(t *testing.T) {
	standard := salesLayout(2, PartnerFor("acme01"), false)
	if got := len(standard.BaseColumns); got != 2 {
		t.Fatalf("standard base columns = %d, want 2", got)
	}
	if got := len(standard.IndexedTemplates); got != 4 {
		t.Fatalf("standard templates = %d, want 4", got)
	}
	if standard.TotalColumns != commonHeadCount+2+2*4 {
		t.Fatalf("standard TotalColumns = %d", standard.TotalColumns)
	}

	niq := salesLayout(2, PartnerFor("niq001"), true)
	if got := len(niq.BaseColumns); got != 5 {
		t.Fatalf("niq+pricing base columns = %d, want 5", got)
	}
	if got := len(niq.IndexedTemplates); got != 5 {
		t.Fatalf("niq+pricing templates = %d, want 5", got)
	}
	if niq.BaseColumnIndex(colAvgBasketPrice) == 0 {
		t.Fatal("niq layout is missing AvgBasketPrice")
	}
	if standard.BaseColumnIndex(colAvgBasketPrice) != 0 {
		t.Fatal("standard layout should not carry AvgBasketPrice")
	}
}

func TestBaseColumnIndex(t *testing.T) {
	layout := clicksLayout(3, PartnerFor("niq001"))

	if got := layout.BaseColumnIndex(colFirstSelection); got != commonHeadCount+1 {
		t.Fatalf("FirstSelection column = %d, want %d", got, commonHeadCount+1)
	}
	if got := layout.BaseColumnIndex(colAvgInteractionsPerProduct); got != commonHeadCount+4 {
		t.Fatalf("AvgInteractionsPerProduct column = %d, want %d", got, commonHeadCount+4)
	}
	if got := layout.BaseColumnIndex("NoSuchColumn"); got != 0 {
		t.Fatalf("unknown column = %d, want 0", got)
	}
}

func TestFirstIndexedFollowsBaseColumns(t *testing.T) {
	for _, layout := range []Layout{
		viewsLayout(5),
		funnelLayout(5),
		nonPurchaseLayout(5),
		clicksLayout(5, PartnerFor("acme01")),
	} {
		want := commonHeadCount + len(layout.BaseColumns) + 1
		if layout.FirstIndexed != want {
			t.Fatalf("FirstIndexed = %d, want %d (base=%v)", layout.FirstIndexed, want, layout.BaseColumns)
		}
	}
}

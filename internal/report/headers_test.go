package report

import "testing"

func TestWriteSectionHeaders(t *testing.T) {
	wb, cfg := buildWorkbook(t, "acme_x1")

	layout := salesLayout(2, cfg.Partner, false)
	if err := writeSectionHeaders(wb, SheetSales, layout, 2, 3, ModeStandard); err != nil {
		t.Fatal(err)
	}

	wantHeaders := []string{
		"idSurvey", "idMaster", "idCell",
		"TotalItemsPurchased", "TotalBasketItems",
		"Purchased1", "Quantity1", "Sequence1", "DwellTime1",
		"Purchased2", "Quantity2", "Sequence2", "DwellTime2",
	}
	for i, want := range wantHeaders {
		if got := cellValue(t, wb, SheetSales, i+1, 1); got != want {
			t.Errorf("header col %d = %q, want %q", i+1, got, want)
		}
	}
	if layout.TotalColumns != len(wantHeaders) {
		t.Fatalf("TotalColumns = %d, want %d", layout.TotalColumns, len(wantHeaders))
	}
}

func TestZeroFillByDatasetMode(t *testing.T) {
	layout := viewsLayout(2)
	userCount := 3

	standard, _ := buildWorkbook(t, "acme_x1")
	if err := writeSectionHeaders(standard, SheetViews, layout, 2, userCount, ModeStandard); err != nil {
		t.Fatal(err)
	}
	for _, row := range []int{2, userCount + 1} {
		if got := cellValue(t, standard, SheetViews, layout.FirstIndexed, row); got != "0" {
			t.Errorf("standard mode row %d not zero-filled: %q", row, got)
		}
		if got := cellValue(t, standard, SheetViews, layout.TotalColumns, row); got != "0" {
			t.Errorf("standard mode last column row %d not zero-filled: %q", row, got)
		}
	}
	if got := cellValue(t, standard, SheetViews, layout.FirstIndexed, userCount+2); got != "" {
		t.Errorf("zero fill leaked past the user rows: %q", got)
	}

	large, _ := buildWorkbook(t, "acme_x1")
	if err := writeSectionHeaders(large, SheetViews, layout, 2, userCount, ModeLargeDataset); err != nil {
		t.Fatal(err)
	}
	if got := cellValue(t, large, SheetViews, layout.FirstIndexed, 2); got != "" {
		t.Errorf("large mode should skip zero fill, got %q", got)
	}
	if got := cellValue(t, large, SheetViews, 1, 1); got != "idSurvey" {
		t.Errorf("large mode header missing: %q", got)
	}
}

func TestDedupeCells(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"A1,A2,A1", "A1,A2"},
		{"A1, A1 ,A2", "A1,A2"},
		{"", ""},
		{"A1", "A1"},
		{",,A1,", "A1"},
	}
	for _, tt := range tests {
		if got := dedupeCells(tt.raw); got != tt.want {
			t.Errorf("dedupeCells(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

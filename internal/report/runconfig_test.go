package report

import (
	"testing"

	"github.com/openshelf/reportgen/internal/domain"
)

func strPtr(s string) *string { return &s }

func TestNewRunConfigRequiresProject(t *testing.T) {
	for _, id := range []string{"", "   "} {
		_, err := NewRunConfig(id)
		if err == nil {
			t.Fatalf("NewRunConfig(%q) succeeded, want configuration error", id)
		}
		if got := CategoryOf(err); got != CategoryConfiguration {
			t.Fatalf("CategoryOf = %q, want %q", got, CategoryConfiguration)
		}
	}
}

func TestInputKeys(t *testing.T) {
	cfg, err := NewRunConfig("acme_x1")
	if err != nil {
		t.Fatal(err)
	}

	cfg.DataPrefix = "projects/"
	keys := cfg.InputKeys()
	if keys.Products != "projects/acme_x1-products.json" {
		t.Errorf("Products = %q", keys.Products)
	}
	if keys.Sessions != "projects/acme_x1-scv.json" {
		t.Errorf("Sessions = %q", keys.Sessions)
	}
	if keys.Findability != "projects/acme_x1-find.json" {
		t.Errorf("Findability = %q", keys.Findability)
	}
	if keys.Heatmaps != "projects/acme_x1-heatmapsData.json" {
		t.Errorf("Heatmaps = %q", keys.Heatmaps)
	}

	cfg.DataPrefix = ""
	if got := cfg.InputKeys().Products; got != "acme_x1-products.json" {
		t.Errorf("unprefixed Products = %q", got)
	}
}

func TestNeedsLargeDataset(t *testing.T) {
	cfg, err := NewRunConfig("acme_x1")
	if err != nil {
		t.Fatal(err)
	}
	cfg.LargeDatasetThreshold = 1000

	// 40 users * 5 products * 5 cells = 1000: equality keeps standard mode.
	if cfg.NeedsLargeDataset(40, 5) {
		t.Error("exactly at threshold should stay standard")
	}
	if !cfg.NeedsLargeDataset(41, 5) {
		t.Error("above threshold should need large mode")
	}
	if cfg.NeedsLargeDataset(0, 0) {
		t.Error("empty dataset should stay standard")
	}
}

func TestSwitchToLargeDatasetIsOneShot(t *testing.T) {
	cfg, err := NewRunConfig("acme_x1")
	if err != nil {
		t.Fatal(err)
	}

	if cfg.DatasetSizeMode() != ModeStandard {
		t.Fatalf("fresh config mode = %q", cfg.DatasetSizeMode())
	}
	cfg.SwitchToLargeDataset("test")
	cfg.SwitchToLargeDataset("again")
	if cfg.DatasetSizeMode() != ModeLargeDataset {
		t.Fatalf("mode after switch = %q", cfg.DatasetSizeMode())
	}
}

func TestDetectHasPricing(t *testing.T) {
	cfg, err := NewRunConfig("acme_x1")
	if err != nil {
		t.Fatal(err)
	}
	cfg.PriceDetectionThreshold = 0.5

	tests := []struct {
		name     string
		products []domain.Product
		want     bool
	}{
		{"empty list", nil, false},
		{"all valid", []domain.Product{{Price: strPtr("2.50")}, {Price: strPtr("1")}}, true},
		{"exactly at threshold", []domain.Product{{Price: strPtr("2.50")}, {Price: nil}}, true},
		{"below threshold", []domain.Product{{Price: strPtr("2.50")}, {Price: nil}, {Price: strPtr("abc")}}, false},
		{"zero prices are not valid", []domain.Product{{Price: strPtr("0")}, {Price: strPtr("0.00")}}, false},
	}

	for _, tt := range tests {
		if got := cfg.DetectHasPricing(tt.products); got != tt.want {
			t.Errorf("%s: DetectHasPricing = %t, want %t", tt.name, got, tt.want)
		}
	}
}

func TestResolvePricingMode(t *testing.T) {
	cfg, err := NewRunConfig("acme_x1")
	if err != nil {
		t.Fatal(err)
	}

	priced := []domain.Product{{Price: strPtr("3.99")}}
	unpriced := []domain.Product{{Price: nil}}

	// Detection runs once and the result sticks for the run.
	if !cfg.ResolvePricingMode(priced) {
		t.Fatal("priced products should resolve to pricing included")
	}
	if !cfg.ResolvePricingMode(unpriced) {
		t.Fatal("cached pricing decision should not be re-detected")
	}

	off := false
	cfg2, _ := NewRunConfig("acme_x1")
	cfg2.PricingOverride = &off
	if cfg2.ResolvePricingMode(priced) {
		t.Fatal("explicit override should win over detection")
	}
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		raw    *string
		want   float64
		wantOK bool
	}{
		{nil, 0, false},
		{strPtr("1.25"), 1.25, true},
		{strPtr(" 2 "), 2, true},
		{strPtr("0"), 0, true},
		{strPtr("free"), 0, false},
		{strPtr(""), 0, false},
	}

	for _, tt := range tests {
		got, ok := parsePrice(tt.raw)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("parsePrice(%v) = (%v, %t), want (%v, %t)", tt.raw, got, ok, tt.want, tt.wantOK)
		}
	}
}

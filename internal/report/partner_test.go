package report

import "testing"

func TestPartnerFor(t *testing.T) {
	tests := []struct {
		projectID string
		wantCode  string
		wantNIQ   bool
	}{
		{"niq12345", "niq", true},
		{"niq", "niq", true},
		{"NIQ12345", "NIQ", false},
		{"acme_x1", "acm", false},
		{"ni", "ni", false},
		{"", "", false},
	}

	for _, tt := range tests {
		p := PartnerFor(tt.projectID)
		if p.Code != tt.wantCode {
			t.Errorf("PartnerFor(%q).Code = %q, want %q", tt.projectID, p.Code, tt.wantCode)
		}
		if p.HasBasketAverages != tt.wantNIQ || p.HasFunnelSheets != tt.wantNIQ || p.HasInteractionAverage != tt.wantNIQ {
			t.Errorf("PartnerFor(%q) capabilities = %+v, want all %t", tt.projectID, p, tt.wantNIQ)
		}
	}
}

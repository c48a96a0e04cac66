package report

// Partner is the closed set of partner variants selected once per run from
// the project identifier. Components ask for capabilities instead of
// re-checking the code.
type Partner struct {
	Code                  string
	HasBasketAverages     bool
	HasFunnelSheets       bool
	HasInteractionAverage bool
}

const partnerCodeLen = 3

// PartnerFor derives the partner variant from a project identifier. The
// code is the first 3 characters, case-sensitive, with no further
// validation.
func PartnerFor(projectID string) Partner {
	code := projectID
	if len(code) > partnerCodeLen {
		code = code[:partnerCodeLen]
	}

	if code == "niq" {
		return Partner{
			Code:                  code,
			HasBasketAverages:     true,
			HasFunnelSheets:       true,
			HasInteractionAverage: true,
		}
	}

	return Partner{Code: code}
}

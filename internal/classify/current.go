package classify

import (
	"strings"

	"golang.org/x/text/cases"
)

var currentAssetCodes = map[string]struct{}{
	"asset_current":     {},
	"asset_receivable":  {},
	"asset_cash":        {},
	"asset_prepayments": {},
}

var currentLiabilityCodes = map[string]struct{}{
	"liability_current":     {},
	"liability_payable":     {},
	"liability_credit_card": {},
}

var (
	currentAssetPhrases     = []string{"current asset", "current_asset", "activo corriente", "activos corrientes"}
	currentLiabilityPhrases = []string{"current liabilit", "current_liabilit", "pasivo corriente", "pasivos corrientes"}
	nonCurrentMarkers       = []string{"non_current", "non-current", "non current", "noncurrent", "no corriente"}
)

// IsCurrentAsset reports whether a subcategory denotes a current asset.
// ERP codes match exactly; English and Spanish phrases match as substrings.
func IsCurrentAsset(subcategory string) bool {
	return matchCurrent(subcategory, currentAssetCodes, currentAssetPhrases)
}

// IsCurrentLiability reports whether a subcategory denotes a current liability.
func IsCurrentLiability(subcategory string) bool {
	return matchCurrent(subcategory, currentLiabilityCodes, currentLiabilityPhrases)
}

func matchCurrent(subcategory string, codes map[string]struct{}, phrases []string) bool {
	// Casers are stateful, so one is built per call.
	folded := strings.TrimSpace(cases.Fold().String(subcategory))
	if folded == "" {
		return false
	}
	if _, ok := codes[folded]; ok {
		return true
	}
	for _, marker := range nonCurrentMarkers {
		if strings.Contains(folded, marker) {
			return false
		}
	}
	for _, phrase := range phrases {
		if strings.Contains(folded, phrase) {
			return true
		}
	}
	return false
}

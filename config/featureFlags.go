package config

import (
	"os"
	"strings"
)

// ReconciliationApplyEnabled gates whether reconciliation runs write their
// corrections back. When false (the default), runs report drift only.
//
// Set via env:
// - RECONCILE_APPLY=true
func ReconciliationApplyEnabled() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("RECONCILE_APPLY")))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}

// StrictTotalsValidation makes client-supplied invoice totals mandatory.
// When disabled, invoices missing totals fall back to server-side math.
//
// Set via env:
// - STRICT_TOTALS_VALIDATION=true
func StrictTotalsValidation() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("STRICT_TOTALS_VALIDATION")))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}

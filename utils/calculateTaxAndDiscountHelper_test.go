package utils

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestCalculateLineAmountsExclusiveTax(t *testing.T) {
	line := CalculateLineAmounts(dec("2"), dec("100"), dec("20"), dec("5"), false)

	if !line.GrossAmount.Equal(dec("200")) {
		t.Errorf("gross = %s, want 200", line.GrossAmount)
	}
	if !line.Subtotal.Equal(dec("180")) {
		t.Errorf("subtotal = %s, want 180", line.Subtotal)
	}
	if !line.TaxAmount.Equal(dec("9")) {
		t.Errorf("tax = %s, want 9", line.TaxAmount)
	}
	if !line.Total.Equal(dec("189")) {
		t.Errorf("total = %s, want 189", line.Total)
	}
}

func TestCalculateLineAmountsInclusiveTax(t *testing.T) {
	line := CalculateLineAmounts(dec("1"), dec("180"), decimal.Zero, dec("5"), true)

	// Inclusive tax is carved out: subtotal + tax must give back the price.
	if !line.Total.Equal(dec("180")) {
		t.Errorf("total = %s, want 180", line.Total)
	}
	if !line.TaxAmount.Equal(dec("8.57")) {
		t.Errorf("tax = %s, want 8.57", line.TaxAmount)
	}
	if !line.Subtotal.Equal(dec("171.43")) {
		t.Errorf("subtotal = %s, want 171.43", line.Subtotal)
	}
}

func TestCalculateLineAmountsZeroRate(t *testing.T) {
	line := CalculateLineAmounts(dec("3"), dec("10"), decimal.Zero, decimal.Zero, false)
	if !line.TaxAmount.IsZero() {
		t.Errorf("tax = %s, want 0", line.TaxAmount)
	}
	if !line.Total.Equal(dec("30")) {
		t.Errorf("total = %s, want 30", line.Total)
	}
}

func TestCalculateDiscountAmount(t *testing.T) {
	if got := CalculateDiscountAmount(dec("200"), dec("10"), "P"); !got.Equal(dec("20")) {
		t.Errorf("percentage discount = %s, want 20", got)
	}
	if got := CalculateDiscountAmount(dec("200"), dec("15"), "F"); !got.Equal(dec("15")) {
		t.Errorf("fixed discount = %s, want 15", got)
	}
	if got := CalculateDiscountAmount(dec("200"), decimal.Zero, "P"); !got.IsZero() {
		t.Errorf("zero discount = %s, want 0", got)
	}
}

func TestCalculateInvoiceTotals(t *testing.T) {
	lines := []LineAmounts{
		{Total: dec("189")},
		{Total: dec("180")},
	}
	totals := CalculateInvoiceTotals(lines, dec("19"), dec("50"), dec("100"))

	if !totals.GrossAmount.Equal(dec("369")) {
		t.Errorf("gross = %s, want 369", totals.GrossAmount)
	}
	if !totals.NetAmount.Equal(dec("350")) {
		t.Errorf("net = %s, want 350", totals.NetAmount)
	}
	if !totals.RemainingAmount.Equal(dec("200")) {
		t.Errorf("remaining = %s, want 200", totals.RemainingAmount)
	}
}

func TestCalculateInvoiceTotalsOverpaidGoesNegative(t *testing.T) {
	lines := []LineAmounts{{Total: dec("100")}}
	totals := CalculateInvoiceTotals(lines, decimal.Zero, decimal.Zero, dec("150"))
	if !totals.RemainingAmount.Equal(dec("-50")) {
		t.Errorf("remaining = %s, want -50", totals.RemainingAmount)
	}
}

func TestValidateInvoiceTotals(t *testing.T) {
	computed := InvoiceTotals{
		GrossAmount:     dec("369"),
		NetAmount:       dec("350"),
		RemainingAmount: dec("200"),
	}

	if err := ValidateInvoiceTotals(computed, dec("369"), dec("350"), dec("200")); err != nil {
		t.Errorf("exact totals rejected: %v", err)
	}
	// Drift inside the tolerance passes.
	if err := ValidateInvoiceTotals(computed, dec("369.01"), dec("349.99"), dec("200")); err != nil {
		t.Errorf("tolerated drift rejected: %v", err)
	}
	if err := ValidateInvoiceTotals(computed, dec("369"), dec("350"), dec("200.02")); err != ErrorTotalsMismatch {
		t.Errorf("err = %v, want ErrorTotalsMismatch", err)
	}
}

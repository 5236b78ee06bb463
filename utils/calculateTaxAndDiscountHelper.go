package utils

import (
	"github.com/shopspring/decimal"
)

var decimalOneHundred = decimal.NewFromInt(100)

// TotalsTolerance is the allowed drift between client-supplied and
// server-computed invoice totals.
var TotalsTolerance = decimal.NewFromFloat(0.01)

// LineAmounts is the money breakdown of one invoice line.
type LineAmounts struct {
	GrossAmount    decimal.Decimal
	DiscountAmount decimal.Decimal
	Subtotal       decimal.Decimal
	TaxAmount      decimal.Decimal
	Total          decimal.Decimal
}

// CalculateTaxAmount returns the tax portion of totalAmount for the given rate.
func CalculateTaxAmount(taxRate decimal.Decimal, totalAmount decimal.Decimal, isTaxInclusive bool) decimal.Decimal {
	if taxRate.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}

	var taxAmount decimal.Decimal
	if isTaxInclusive {
		// Tax-inclusive: (totalAmount / (100 + taxRate)) * taxRate
		taxAmount = totalAmount.DivRound(taxRate.Add(decimalOneHundred), 4).Mul(taxRate)
	} else {
		// Tax-exclusive: (totalAmount / 100) * taxRate
		taxAmount = totalAmount.DivRound(decimalOneHundred, 4).Mul(taxRate)
	}

	return taxAmount
}

func CalculateDiscountAmount(subTotal decimal.Decimal, discount decimal.Decimal, discountType string) decimal.Decimal {

	var discountAmount decimal.Decimal

	if discount.GreaterThan(decimal.Zero) {
		if discountType == "P" {
			discountAmount = subTotal.Mul(discount).DivRound(decimalOneHundred, 4)
		} else {
			discountAmount = discount
		}
	} else {
		discountAmount = decimal.Zero
	}

	return discountAmount
}

// CalculateLineAmounts computes one invoice line.
//
// gross = qty * unitPrice; afterDiscount = gross - discountAmount.
// Inclusive tax is carved out of afterDiscount, exclusive tax is added on top.
// All outputs are rounded to 2 places.
func CalculateLineAmounts(qty, unitPrice, discountAmount, taxRate decimal.Decimal, isTaxInclusive bool) LineAmounts {
	gross := qty.Mul(unitPrice)
	afterDiscount := gross.Sub(discountAmount)

	taxAmount := CalculateTaxAmount(taxRate, afterDiscount, isTaxInclusive)

	var subtotal decimal.Decimal
	if isTaxInclusive {
		subtotal = afterDiscount.Sub(taxAmount)
	} else {
		subtotal = afterDiscount
	}

	return LineAmounts{
		GrossAmount:    Round2(gross),
		DiscountAmount: Round2(discountAmount),
		Subtotal:       Round2(subtotal),
		TaxAmount:      Round2(taxAmount),
		Total:          Round2(subtotal.Add(taxAmount)),
	}
}

// InvoiceTotals is the invoice-level rollup of its lines.
type InvoiceTotals struct {
	GrossAmount     decimal.Decimal
	DiscountAmount  decimal.Decimal
	NetAmount       decimal.Decimal
	RemainingAmount decimal.Decimal
}

// CalculateInvoiceTotals rolls up line totals and applies the invoice-level
// discount, previous balance and paid amount.
//
// gross = sum(line totals); net = gross - invoiceDiscount;
// remaining = (net - previousBalance) - paid.
func CalculateInvoiceTotals(lines []LineAmounts, invoiceDiscount, previousBalance, paid decimal.Decimal) InvoiceTotals {
	gross := decimal.Zero
	for _, line := range lines {
		gross = gross.Add(line.Total)
	}
	net := gross.Sub(invoiceDiscount)
	remaining := net.Sub(previousBalance).Sub(paid)

	return InvoiceTotals{
		GrossAmount:     Round2(gross),
		DiscountAmount:  Round2(invoiceDiscount),
		NetAmount:       Round2(net),
		RemainingAmount: Round2(remaining),
	}
}

// ValidateInvoiceTotals compares client-supplied totals against the computed
// ones. Drift beyond TotalsTolerance on any of gross/net/remaining fails.
func ValidateInvoiceTotals(computed InvoiceTotals, gross, net, remaining decimal.Decimal) error {
	if !WithinTolerance(computed.GrossAmount, gross, TotalsTolerance) {
		return ErrorTotalsMismatch
	}
	if !WithinTolerance(computed.NetAmount, net, TotalsTolerance) {
		return ErrorTotalsMismatch
	}
	if !WithinTolerance(computed.RemainingAmount, remaining, TotalsTolerance) {
		return ErrorTotalsMismatch
	}
	return nil
}

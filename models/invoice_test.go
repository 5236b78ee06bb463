package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestComputePaymentStatus(t *testing.T) {
	cases := []struct {
		paid string
		net  string
		want PaymentStatus
	}{
		{"0", "100", PaymentStatusUnpaid},
		{"40", "100", PaymentStatusPartiallyPaid},
		{"100", "100", PaymentStatusPaid},
		{"150", "100", PaymentStatusOverpaid},
		{"0", "0", PaymentStatusUnpaid},
	}
	for _, tc := range cases {
		got := ComputePaymentStatus(d(tc.paid), d(tc.net))
		if got != tc.want {
			t.Errorf("ComputePaymentStatus(%s, %s) = %s, want %s", tc.paid, tc.net, got, tc.want)
		}
	}
}

func TestInvoiceTypeCodes(t *testing.T) {
	cases := map[InvoiceType]string{
		InvoiceTypeSale:            "SAL",
		InvoiceTypePurchase:        "PUR",
		InvoiceTypeInstallmentSale: "INS",
		InvoiceTypeReturnSale:      "RSA",
		InvoiceTypeReturnPurchase:  "RPU",
		InvoiceTypeService:         "SRV",
	}
	for it, want := range cases {
		if got := it.Code(); got != want {
			t.Errorf("%s.Code() = %s, want %s", it, got, want)
		}
	}
}

func TestInvoiceTypeStockDirection(t *testing.T) {
	if InvoiceTypeService.MovesStock() {
		t.Error("service documents must not move stock")
	}
	for _, it := range []InvoiceType{InvoiceTypeSale, InvoiceTypeInstallmentSale, InvoiceTypeReturnPurchase} {
		if !it.MovesStock() || it.IsInbound() {
			t.Errorf("%s should be an outbound stock mover", it)
		}
	}
	for _, it := range []InvoiceType{InvoiceTypePurchase, InvoiceTypeReturnSale} {
		if !it.MovesStock() || !it.IsInbound() {
			t.Errorf("%s should be an inbound stock mover", it)
		}
	}
}

func TestApplyInterest(t *testing.T) {
	plan := InstallmentPlan{
		NetAmount:    d("1000"),
		InterestRate: d("12.5"),
	}
	plan.ApplyInterest()
	if !plan.InterestAmount.Equal(d("125")) {
		t.Errorf("interest = %s, want 125", plan.InterestAmount)
	}
	if !plan.TotalAmount.Equal(d("1125")) {
		t.Errorf("total = %s, want 1125", plan.TotalAmount)
	}

	plan = InstallmentPlan{NetAmount: d("997")}
	plan.ApplyInterest()
	if !plan.InterestAmount.IsZero() || !plan.TotalAmount.Equal(d("997")) {
		t.Errorf("zero rate: interest = %s total = %s", plan.InterestAmount, plan.TotalAmount)
	}
}

func TestInstallmentOutstanding(t *testing.T) {
	inst := Installment{Status: InstallmentStatusPartial, RemainingAmount: d("10")}
	if !inst.Outstanding() {
		t.Error("partial installment with remaining should be outstanding")
	}
	inst = Installment{Status: InstallmentStatusCanceled, RemainingAmount: d("10")}
	if inst.Outstanding() {
		t.Error("canceled installment must never be outstanding")
	}
	inst = Installment{Status: InstallmentStatusPaid, RemainingAmount: decimal.Zero}
	if inst.Outstanding() {
		t.Error("settled installment should not be outstanding")
	}
}

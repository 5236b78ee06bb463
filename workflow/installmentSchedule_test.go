package workflow

import (
	"errors"
	"testing"
	"time"

	"github.com/mmdatafocus/backoffice_backend/utils"
	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

var scheduleStart = time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

func TestBuildInstallmentScheduleRoundsUpAndTrimsLast(t *testing.T) {
	schedule := BuildInstallmentSchedule(dec("997"), decimal.Zero, 3, dec("10"), scheduleStart)

	want := []string{"340", "340", "317"}
	if len(schedule) != len(want) {
		t.Fatalf("got %d installments, want %d", len(schedule), len(want))
	}
	for i, s := range schedule {
		if !s.Amount.Equal(dec(want[i])) {
			t.Errorf("installment %d amount = %s, want %s", i+1, s.Amount, want[i])
		}
		if s.Number != i+1 {
			t.Errorf("installment %d number = %d", i+1, s.Number)
		}
	}
}

func TestBuildInstallmentScheduleEvenSplit(t *testing.T) {
	schedule := BuildInstallmentSchedule(dec("1000"), dec("100"), 9, dec("10"), scheduleStart)

	if len(schedule) != 9 {
		t.Fatalf("got %d installments, want 9", len(schedule))
	}
	for i, s := range schedule {
		if !s.Amount.Equal(dec("100")) {
			t.Errorf("installment %d amount = %s, want 100", i+1, s.Amount)
		}
	}
}

func TestBuildInstallmentScheduleSumsExactly(t *testing.T) {
	cases := []struct {
		total string
		down  string
		count int
		step  string
	}{
		{"997", "0", 3, "10"},
		{"1125", "125", 4, "10"},
		{"333.33", "0", 7, "5"},
		{"100000", "2500", 12, "1000"},
	}
	for _, tc := range cases {
		schedule := BuildInstallmentSchedule(dec(tc.total), dec(tc.down), tc.count, dec(tc.step), scheduleStart)
		sum := decimal.Zero
		for _, s := range schedule {
			sum = sum.Add(s.Amount)
		}
		financed := dec(tc.total).Sub(dec(tc.down))
		if !sum.Equal(financed) {
			t.Errorf("total=%s down=%s count=%d step=%s: scheduled %s, want %s",
				tc.total, tc.down, tc.count, tc.step, sum, financed)
		}
		if len(schedule) > tc.count {
			t.Errorf("schedule has %d slices, more than requested %d", len(schedule), tc.count)
		}
	}
}

func TestBuildInstallmentScheduleFinishesEarly(t *testing.T) {
	// Coarse rounding covers the debt before the requested count runs out.
	schedule := BuildInstallmentSchedule(dec("100"), decimal.Zero, 3, dec("50"), scheduleStart)
	if len(schedule) != 2 {
		t.Fatalf("got %d installments, want 2", len(schedule))
	}
	if !schedule[0].Amount.Equal(dec("50")) || !schedule[1].Amount.Equal(dec("50")) {
		t.Errorf("amounts = %s, %s, want 50, 50", schedule[0].Amount, schedule[1].Amount)
	}
}

func TestBuildInstallmentScheduleMonthlyDueDates(t *testing.T) {
	schedule := BuildInstallmentSchedule(dec("300"), decimal.Zero, 3, dec("10"), scheduleStart)
	for i, s := range schedule {
		want := scheduleStart.AddDate(0, i+1, 0)
		if !s.DueDate.Equal(want) {
			t.Errorf("installment %d due %s, want %s", i+1, s.DueDate, want)
		}
	}
}

func TestValidateInstallmentTerms(t *testing.T) {
	terms := func(down string) *NewInstallmentPlanInput {
		return &NewInstallmentPlanInput{NumberOfInstallments: 3, DownPayment: dec(down)}
	}

	if err := validateInstallmentTerms(dec("1000"), terms("100")); err != nil {
		t.Errorf("down below total: unexpected error %v", err)
	}
	if err := validateInstallmentTerms(dec("1000"), terms("1000")); err != nil {
		t.Errorf("down equals total: unexpected error %v", err)
	}
	if err := validateInstallmentTerms(dec("1000"), terms("1000.01")); !errors.Is(err, utils.ErrorDownPaymentTooBig) {
		t.Errorf("down above total: err = %v, want ErrorDownPaymentTooBig", err)
	}
	if err := validateInstallmentTerms(dec("1000"), terms("-5")); err == nil {
		t.Error("negative down payment accepted")
	}
}

func TestBuildInstallmentScheduleNothingToFinance(t *testing.T) {
	if got := BuildInstallmentSchedule(dec("500"), dec("500"), 3, dec("10"), scheduleStart); got != nil {
		t.Errorf("fully covered by down payment: got %d installments, want none", len(got))
	}
	if got := BuildInstallmentSchedule(dec("500"), dec("600"), 3, dec("10"), scheduleStart); got != nil {
		t.Errorf("overcovered: got %d installments, want none", len(got))
	}
	if got := BuildInstallmentSchedule(dec("500"), decimal.Zero, 0, dec("10"), scheduleStart); got != nil {
		t.Errorf("zero count: got %d installments, want none", len(got))
	}
}

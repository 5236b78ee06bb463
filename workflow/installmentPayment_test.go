package workflow

import (
	"testing"

	"github.com/mmdatafocus/backoffice_backend/models"
)

func outstandingInstallment(id int, remaining string) models.Installment {
	return models.Installment{
		ID:              id,
		Status:          models.InstallmentStatusPending,
		Amount:          dec(remaining),
		RemainingAmount: dec(remaining),
	}
}

func TestDistributeFundsSpillsIntoNext(t *testing.T) {
	installments := []models.Installment{
		outstandingInstallment(1, "300"),
		outstandingInstallment(2, "300"),
	}

	apps, excess := DistributeFunds(installments, dec("500"))

	if len(apps) != 2 {
		t.Fatalf("got %d applications, want 2", len(apps))
	}
	if apps[0].InstallmentId != 1 || !apps[0].AmountApplied.Equal(dec("300")) {
		t.Errorf("first application = %+v, want 300 on installment 1", apps[0])
	}
	if apps[1].InstallmentId != 2 || !apps[1].AmountApplied.Equal(dec("200")) {
		t.Errorf("second application = %+v, want 200 on installment 2", apps[1])
	}
	if !excess.IsZero() {
		t.Errorf("excess = %s, want 0", excess)
	}
}

func TestDistributeFundsReportsExcess(t *testing.T) {
	installments := []models.Installment{
		outstandingInstallment(1, "100"),
		outstandingInstallment(2, "100"),
	}
	apps, excess := DistributeFunds(installments, dec("250"))
	if len(apps) != 2 {
		t.Fatalf("got %d applications, want 2", len(apps))
	}
	if !excess.Equal(dec("50")) {
		t.Errorf("excess = %s, want 50", excess)
	}
}

func TestDistributeFundsSkipsNonOutstanding(t *testing.T) {
	canceled := outstandingInstallment(1, "100")
	canceled.Status = models.InstallmentStatusCanceled
	settled := outstandingInstallment(2, "0")
	settled.Status = models.InstallmentStatusPaid
	live := outstandingInstallment(3, "100")

	apps, excess := DistributeFunds([]models.Installment{canceled, settled, live}, dec("80"))

	if len(apps) != 1 || apps[0].InstallmentId != 3 {
		t.Fatalf("applications = %+v, want only installment 3", apps)
	}
	if !apps[0].AmountApplied.Equal(dec("80")) || !excess.IsZero() {
		t.Errorf("applied = %s excess = %s, want 80 and 0", apps[0].AmountApplied, excess)
	}
}

func TestDistributeFundsPartialLeavesRemainder(t *testing.T) {
	installments := []models.Installment{outstandingInstallment(1, "300")}
	apps, excess := DistributeFunds(installments, dec("120"))
	if len(apps) != 1 || !apps[0].AmountApplied.Equal(dec("120")) {
		t.Fatalf("applications = %+v, want single 120", apps)
	}
	if !excess.IsZero() {
		t.Errorf("excess = %s, want 0", excess)
	}
}

func TestOrderInstallmentsForPayment(t *testing.T) {
	// Outstanding order is due-date ascending: 1, 2, 3.
	outstanding := []models.Installment{
		outstandingInstallment(1, "100"),
		outstandingInstallment(2, "100"),
		outstandingInstallment(3, "100"),
	}

	ordered := orderInstallmentsForPayment(outstanding, []int{3})
	gotIds := []int{ordered[0].ID, ordered[1].ID, ordered[2].ID}
	wantIds := []int{3, 1, 2}
	for i := range wantIds {
		if gotIds[i] != wantIds[i] {
			t.Fatalf("order = %v, want %v", gotIds, wantIds)
		}
	}

	// No selection keeps the due-date order untouched.
	ordered = orderInstallmentsForPayment(outstanding, nil)
	for i, inst := range ordered {
		if inst.ID != i+1 {
			t.Fatalf("unselected order changed: %v", ordered)
		}
	}
}

func TestSelectedInstallmentsPaidBeforeOthers(t *testing.T) {
	outstanding := []models.Installment{
		outstandingInstallment(1, "300"),
		outstandingInstallment(2, "300"),
		outstandingInstallment(3, "300"),
	}

	ordered := orderInstallmentsForPayment(outstanding, []int{2})
	apps, excess := DistributeFunds(ordered, dec("400"))

	if len(apps) != 2 {
		t.Fatalf("got %d applications, want 2", len(apps))
	}
	if apps[0].InstallmentId != 2 || !apps[0].AmountApplied.Equal(dec("300")) {
		t.Errorf("selected installment not served first: %+v", apps[0])
	}
	if apps[1].InstallmentId != 1 || !apps[1].AmountApplied.Equal(dec("100")) {
		t.Errorf("spill did not go to earliest due: %+v", apps[1])
	}
	if !excess.IsZero() {
		t.Errorf("excess = %s, want 0", excess)
	}
}

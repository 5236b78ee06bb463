package workflow

import (
	"testing"

	"github.com/mmdatafocus/backoffice_backend/models"
	"github.com/mmdatafocus/backoffice_backend/utils"
	"github.com/shopspring/decimal"
)

func TestDeriveInstallmentState(t *testing.T) {
	cases := []struct {
		name          string
		amount        string
		applied       string
		wantRemaining string
		wantStatus    models.InstallmentStatus
	}{
		{"untouched", "300", "0", "300", models.InstallmentStatusPending},
		{"partly applied", "300", "120", "180", models.InstallmentStatusPartial},
		{"fully applied", "300", "300", "0", models.InstallmentStatusPaid},
		{"over-applied clamps", "300", "350", "0", models.InstallmentStatusPaid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			remaining, status := deriveInstallmentState(dec(tc.amount), dec(tc.applied))
			if !remaining.Equal(dec(tc.wantRemaining)) {
				t.Errorf("remaining = %s, want %s", remaining, tc.wantRemaining)
			}
			if status != tc.wantStatus {
				t.Errorf("status = %s, want %s", status, tc.wantStatus)
			}
		})
	}
}

func TestDeriveInstallmentStateIdempotent(t *testing.T) {
	// A second run over already-reconciled rows must detect no drift.
	amounts := []string{"300", "333.33", "0.01"}
	applieds := []string{"0", "120", "333.33"}
	for _, a := range amounts {
		for _, p := range applieds {
			remaining, status := deriveInstallmentState(dec(a), dec(p))
			again, statusAgain := deriveInstallmentState(dec(a), dec(p))
			if !remaining.Equal(again) || status != statusAgain {
				t.Errorf("amount=%s applied=%s: second derivation differs (%s/%s vs %s/%s)",
					a, p, remaining, status, again, statusAgain)
			}
			// The drift check reconcilePlan runs against a stored row that was
			// written from this derivation.
			if !utils.Round2(remaining).Equal(again) {
				t.Errorf("amount=%s applied=%s: reconciled state still reported as drift", a, p)
			}
		}
	}
}

func TestReconciliationReportRecord(t *testing.T) {
	report := &ReconciliationReport{CompanyId: 3, Apply: false}
	report.record("invoice", 11, "status", "partially_paid", "overdue", decimal.Zero)

	if len(report.Fixes) != 1 {
		t.Fatalf("got %d fixes, want 1", len(report.Fixes))
	}
	fix := report.Fixes[0]
	if fix.Stored != "partially_paid" || fix.Derived != "overdue" {
		t.Errorf("fix = %s -> %s, want partially_paid -> overdue", fix.Stored, fix.Derived)
	}
	if fix.Applied {
		t.Error("dry run recorded an applied fix")
	}

	report.Apply = true
	report.record("invoice", 12, "status", "confirmed", "overdue", decimal.Zero)
	if !report.Fixes[1].Applied {
		t.Error("apply run recorded a dry fix")
	}
}

package workflow

import (
	"context"
	"time"

	"github.com/mmdatafocus/backoffice_backend/config"
	"github.com/mmdatafocus/backoffice_backend/models"
	"github.com/mmdatafocus/backoffice_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ReconciliationFix is one detected drift between stored and derived state.
type ReconciliationFix struct {
	Entity   string          `json:"entity"`
	EntityId int             `json:"entity_id"`
	Field    string          `json:"field"`
	Stored   string          `json:"stored"`
	Derived  string          `json:"derived"`
	Applied  bool            `json:"applied"`
	Delta    decimal.Decimal `json:"delta"`
}

// ReconciliationReport summarizes one company run.
type ReconciliationReport struct {
	CompanyId int                 `json:"company_id"`
	Apply     bool                `json:"apply"`
	Fixes     []ReconciliationFix `json:"fixes"`
}

func (r *ReconciliationReport) record(entity string, entityId int, field, stored, derived string, delta decimal.Decimal) {
	r.Fixes = append(r.Fixes, ReconciliationFix{
		Entity:   entity,
		EntityId: entityId,
		Field:    field,
		Stored:   stored,
		Derived:  derived,
		Applied:  r.Apply,
		Delta:    delta,
	})
}

// ReconcileCompany re-derives installment, plan, invoice and customer box
// state from the payment details, the single source of truth, and reports
// every drift. With apply=false nothing is written.
//
// The run serializes against posting: a redis lock fences other reconcilers,
// the advisory lock fences settlement writers on the same company.
func ReconcileCompany(ctx context.Context, logger *logrus.Logger, companyId int, apply bool) (*ReconciliationReport, error) {
	ctx, span := tracer.Start(ctx, "ReconcileCompany")
	defer span.End()

	release, err := utils.CompanyLock(ctx, companyId, "reconcile", "reconciliationWorkflow.go", "ReconcileCompany")
	if err != nil {
		return nil, err
	}
	defer release()

	report := &ReconciliationReport{CompanyId: companyId, Apply: apply}

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := AcquireCompanyPostingLock(tx, companyId); err != nil {
			config.LogError(logger, "reconciliationWorkflow.go", "ReconcileCompany", "AcquireCompanyPostingLock", companyId, err)
			return err
		}
		defer ReleaseCompanyPostingLock(tx, companyId)

		var plans []models.InstallmentPlan
		err := tx.Where("company_id = ? AND status != ?", companyId, models.PlanStatusCanceled).
			Find(&plans).Error
		if err != nil {
			config.LogError(logger, "reconciliationWorkflow.go", "ReconcileCompany", "FetchPlans", companyId, err)
			return err
		}

		for i := range plans {
			if err := reconcilePlan(tx, logger, &plans[i], report); err != nil {
				return err
			}
		}

		if err := reconcileCustomerBoxes(tx, logger, companyId, report); err != nil {
			return err
		}
		if err := markOverdueInvoices(tx, logger, companyId, report); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// deriveInstallmentState re-derives an installment's remaining amount and
// status from what the payment details actually applied. Feeding a derived
// state back in yields the same state, so repeated runs settle after one pass.
func deriveInstallmentState(amount, applied decimal.Decimal) (decimal.Decimal, models.InstallmentStatus) {
	remaining := utils.MaxZero(utils.Round2(amount.Sub(applied)))
	status := models.InstallmentStatusPending
	if remaining.LessThanOrEqual(decimal.Zero) {
		status = models.InstallmentStatusPaid
	} else if applied.GreaterThan(decimal.Zero) {
		status = models.InstallmentStatusPartial
	}
	return remaining, status
}

// reconcilePlan rebuilds one plan's installments, its own aggregates, and the
// parent invoice from the detail rows.
func reconcilePlan(tx *gorm.DB, logger *logrus.Logger, plan *models.InstallmentPlan, report *ReconciliationReport) error {

	var installments []models.Installment
	err := tx.Where("plan_id = ? AND status != ?", plan.ID, models.InstallmentStatusCanceled).
		Find(&installments).Error
	if err != nil {
		return err
	}

	for _, inst := range installments {
		applied, err := models.AppliedToInstallment(tx, inst.ID)
		if err != nil {
			config.LogError(logger, "reconciliationWorkflow.go", "reconcilePlan", "AppliedToInstallment", inst.ID, err)
			return err
		}
		derivedRemaining, derivedStatus := deriveInstallmentState(inst.Amount, applied)

		if !utils.Round2(inst.RemainingAmount).Equal(derivedRemaining) || inst.Status != derivedStatus {
			report.record("installment", inst.ID, "remaining_amount",
				inst.RemainingAmount.String(), derivedRemaining.String(),
				derivedRemaining.Sub(inst.RemainingAmount))
			if report.Apply {
				err = tx.Model(&models.Installment{}).Where("id = ?", inst.ID).Updates(map[string]interface{}{
					"remaining_amount": derivedRemaining,
					"status":           derivedStatus,
				}).Error
				if err != nil {
					return err
				}
			}
		}
	}

	derivedPlanRemaining, err := plan.ActualRemaining(tx)
	if err != nil {
		return err
	}
	if !utils.Round2(plan.RemainingAmount).Equal(derivedPlanRemaining) {
		report.record("installment_plan", plan.ID, "remaining_amount",
			plan.RemainingAmount.String(), derivedPlanRemaining.String(),
			derivedPlanRemaining.Sub(plan.RemainingAmount))
	}
	if report.Apply {
		if err := plan.RecomputeStatus(tx); err != nil {
			config.LogError(logger, "reconciliationWorkflow.go", "reconcilePlan", "RecomputeStatus", plan.ID, err)
			return err
		}
	}

	return reconcileInvoiceOfPlan(tx, logger, plan, report)
}

// reconcileInvoiceOfPlan re-derives the parent invoice's paid and remaining
// amounts: paid is always down payment plus what details have collected.
func reconcileInvoiceOfPlan(tx *gorm.DB, logger *logrus.Logger, plan *models.InstallmentPlan, report *ReconciliationReport) error {

	var invoice models.Invoice
	if err := tx.First(&invoice, plan.InvoiceId).Error; err != nil {
		config.LogError(logger, "reconciliationWorkflow.go", "reconcileInvoiceOfPlan", "FetchInvoice", plan.InvoiceId, err)
		return err
	}
	if invoice.Status == models.InvoiceStatusCanceled {
		return nil
	}

	collected, err := plan.TotalCollected(tx)
	if err != nil {
		return err
	}
	derivedPaid := utils.Round2(plan.DownPayment.Add(collected))
	derivedRemaining := utils.MaxZero(invoice.NetAmount.Sub(invoice.PreviousBalance).Sub(derivedPaid))

	if !utils.Round2(invoice.PaidAmount).Equal(derivedPaid) || !utils.Round2(invoice.RemainingAmount).Equal(derivedRemaining) {
		report.record("invoice", invoice.ID, "paid_amount",
			invoice.PaidAmount.String(), derivedPaid.String(),
			derivedPaid.Sub(invoice.PaidAmount))
		if report.Apply {
			invoice.PaidAmount = derivedPaid
			invoice.RemainingAmount = derivedRemaining
			err = tx.Model(&models.Invoice{}).Where("id = ?", invoice.ID).Updates(map[string]interface{}{
				"paid_amount":      derivedPaid,
				"remaining_amount": derivedRemaining,
			}).Error
			if err != nil {
				return err
			}
			if err := invoice.UpdatePaymentStatus(tx); err != nil {
				return err
			}
		}
	}
	return nil
}

// markOverdueInvoices moves still-outstanding invoices whose schedule has a
// past-due unpaid installment into overdue. Payment later pulls them back via
// UpdatePaymentStatus.
func markOverdueInvoices(tx *gorm.DB, logger *logrus.Logger, companyId int, report *ReconciliationReport) error {

	type overdueRow struct {
		ID     int
		Status models.InvoiceStatus
	}
	var rows []overdueRow
	err := tx.Model(&models.Invoice{}).
		Joins("JOIN installment_plans ON installment_plans.invoice_id = invoices.id").
		Joins("JOIN installments ON installments.plan_id = installment_plans.id").
		Where("invoices.company_id = ? AND invoices.status IN ?", companyId,
			[]models.InvoiceStatus{models.InvoiceStatusConfirmed, models.InvoiceStatusPartiallyPaid}).
		Where("installment_plans.status NOT IN ?",
			[]models.PlanStatus{models.PlanStatusPaid, models.PlanStatusCanceled}).
		Where("installments.status IN ? AND installments.remaining_amount > 0 AND installments.due_date < ?",
			[]models.InstallmentStatus{models.InstallmentStatusPending, models.InstallmentStatusPartial}, time.Now()).
		Distinct("invoices.id", "invoices.status").
		Scan(&rows).Error
	if err != nil {
		config.LogError(logger, "reconciliationWorkflow.go", "markOverdueInvoices", "FindOverdue", companyId, err)
		return err
	}

	invoiceIds := make([]int, 0, len(rows))
	for _, row := range rows {
		report.record("invoice", row.ID, "status", string(row.Status),
			string(models.InvoiceStatusOverdue), decimal.Zero)
		invoiceIds = append(invoiceIds, row.ID)
	}
	if report.Apply && len(invoiceIds) > 0 {
		err = tx.Model(&models.Invoice{}).Where("id IN ?", invoiceIds).
			Update("status", models.InvoiceStatusOverdue).Error
		if err != nil {
			return err
		}
	}
	return nil
}

// reconcileCustomerBoxes aligns each customer's default box with the negative
// of their outstanding installment debt in this company.
func reconcileCustomerBoxes(tx *gorm.DB, logger *logrus.Logger, companyId int, report *ReconciliationReport) error {

	type clientDebt struct {
		ClientId int
		Total    decimal.NullDecimal
	}
	var debts []clientDebt
	err := tx.Model(&models.Installment{}).
		Joins("JOIN installment_plans ON installment_plans.id = installments.plan_id").
		Where("installment_plans.company_id = ? AND installment_plans.status != ?", companyId, models.PlanStatusCanceled).
		Where("installments.status NOT IN ? AND installments.deleted_at IS NULL",
			[]models.InstallmentStatus{models.InstallmentStatusPaid, models.InstallmentStatusCanceled}).
		Select("installment_plans.client_id AS client_id, SUM(installments.remaining_amount) AS total").
		Group("installment_plans.client_id").
		Scan(&debts).Error
	if err != nil {
		config.LogError(logger, "reconciliationWorkflow.go", "reconcileCustomerBoxes", "SumDebts", companyId, err)
		return err
	}

	for _, d := range debts {
		if !d.Total.Valid {
			continue
		}
		derived := utils.Round2(d.Total.Decimal).Neg()

		var box models.CashBox
		err := tx.Where("user_id = ? AND company_id = ? AND is_default = ?", d.ClientId, companyId, true).
			First(&box).Error
		if err == gorm.ErrRecordNotFound {
			continue
		}
		if err != nil {
			return err
		}

		if utils.Round2(box.Balance).Equal(derived) {
			continue
		}
		report.record("cash_box", box.ID, "balance",
			box.Balance.String(), derived.String(),
			derived.Sub(box.Balance))
		if report.Apply {
			err = tx.Model(&models.CashBox{}).Where("id = ?", box.ID).
				Update("balance", derived).Error
			if err != nil {
				config.LogError(logger, "reconciliationWorkflow.go", "reconcileCustomerBoxes", "UpdateBalance", box.ID, err)
				return err
			}
			_ = utils.RemoveRedis[models.CashBox](box.ID)
		}
	}
	return nil
}

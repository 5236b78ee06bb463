package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mmdatafocus/backoffice_backend/appctx"
	"github.com/mmdatafocus/backoffice_backend/config"
	"github.com/mmdatafocus/backoffice_backend/models"
	"github.com/mmdatafocus/backoffice_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// NewInstallmentPayment is one collection event against a plan. Selected
// installments are served first; whatever is left spills into the remaining
// outstanding schedule.
type NewInstallmentPayment struct {
	PlanId                 int             `json:"plan_id" validate:"required,gt=0"`
	Amount                 decimal.Decimal `json:"amount"`
	SelectedInstallmentIds []int           `json:"selected_installment_ids"`
	PaymentMethodId        *int            `json:"payment_method_id"`
	StaffBoxId             *int            `json:"staff_box_id"`
	Notes                  string          `json:"notes"`
}

// InstallmentPaymentResult reports where the money went.
type InstallmentPaymentResult struct {
	Payment         *models.InstallmentPayment `json:"payment"`
	Plan            *models.InstallmentPlan    `json:"plan"`
	ExcessAmount    decimal.Decimal            `json:"excess_amount"`
	NextInstallment *models.Installment        `json:"next_installment"`
}

// FundsApplication is one slice of a distribution run.
type FundsApplication struct {
	InstallmentId int
	AmountApplied decimal.Decimal
}

// orderInstallmentsForPayment puts the explicitly selected installments ahead
// of the rest, preserving due-date order within each group.
func orderInstallmentsForPayment(outstanding []models.Installment, selectedIds []int) []models.Installment {
	if len(selectedIds) == 0 {
		return outstanding
	}
	selected := make(map[int]bool, len(selectedIds))
	for _, id := range selectedIds {
		selected[id] = true
	}
	ordered := make([]models.Installment, 0, len(outstanding))
	for _, inst := range outstanding {
		if selected[inst.ID] {
			ordered = append(ordered, inst)
		}
	}
	for _, inst := range outstanding {
		if !selected[inst.ID] {
			ordered = append(ordered, inst)
		}
	}
	return ordered
}

// DistributeFunds applies funds greedily over installments in order: each one
// absorbs min(funds left, its remaining). Returns the applications and the
// excess that found no home.
func DistributeFunds(installments []models.Installment, funds decimal.Decimal) ([]FundsApplication, decimal.Decimal) {
	applications := make([]FundsApplication, 0, len(installments))
	left := funds
	for _, inst := range installments {
		if left.LessThanOrEqual(decimal.Zero) {
			break
		}
		if !inst.Outstanding() {
			continue
		}
		apply := decimal.Min(left, inst.RemainingAmount)
		applications = append(applications, FundsApplication{
			InstallmentId: inst.ID,
			AmountApplied: apply,
		})
		left = left.Sub(apply)
	}
	return applications, left
}

// PayInstallments collects one payment against a plan and distributes it over
// the schedule. The collected sum lands in the staff box, the same sum is
// credited to the client's box against their debt, and the parent invoice's
// paid amount moves with it. All in one transaction.
func PayInstallments(ctx context.Context, rc appctx.RequestContext, input *NewInstallmentPayment) (*InstallmentPaymentResult, error) {
	logger := config.GetLogger()
	ctx, span := tracer.Start(ctx, "PayInstallments")
	defer span.End()

	if !rc.Valid() {
		return nil, errors.New("actor and company are required")
	}
	if err := validate.Struct(input); err != nil {
		return nil, err
	}
	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, errors.New("payment amount must be positive")
	}

	var result *InstallmentPaymentResult
	db := config.GetDB()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := AcquireCompanyPostingLock(tx, rc.CompanyId); err != nil {
			config.LogError(logger, "installmentPaymentWorkflow.go", "PayInstallments", "AcquireCompanyPostingLock", rc.CompanyId, err)
			return err
		}
		defer ReleaseCompanyPostingLock(tx, rc.CompanyId)

		plan, err := models.FetchPlanForChange(tx, rc.CompanyId, input.PlanId)
		if err != nil {
			config.LogError(logger, "installmentPaymentWorkflow.go", "PayInstallments", "FetchPlanForChange", input.PlanId, err)
			return err
		}

		payment := models.InstallmentPayment{
			CompanyId:     rc.CompanyId,
			PlanId:        plan.ID,
			ClientId:      plan.ClientId,
			StaffId:       rc.ActorId,
			PaymentMethod: models.PaymentMethodLabel(tx, input.PaymentMethodId),
			AmountPaid:    decimal.Zero,
			Notes:         input.Notes,
			CreatedBy:     rc.ActorId,
		}
		if err := tx.Create(&payment).Error; err != nil {
			config.LogError(logger, "installmentPaymentWorkflow.go", "PayInstallments", "CreatePaymentHeader", plan.ID, err)
			return err
		}

		outstanding, err := models.OutstandingInstallments(tx, plan.ID)
		if err != nil {
			config.LogError(logger, "installmentPaymentWorkflow.go", "PayInstallments", "OutstandingInstallments", plan.ID, err)
			return err
		}
		ordered := orderInstallmentsForPayment(outstanding, input.SelectedInstallmentIds)
		applications, excess := DistributeFunds(ordered, input.Amount)

		byId := make(map[int]*models.Installment, len(ordered))
		for i := range ordered {
			byId[ordered[i].ID] = &ordered[i]
		}

		totalApplied := decimal.Zero
		now := time.Now()
		details := make([]models.InstallmentPaymentDetail, 0, len(applications))
		for _, app := range applications {
			inst := byId[app.InstallmentId]
			inst.RemainingAmount = inst.RemainingAmount.Sub(app.AmountApplied)

			updates := map[string]interface{}{
				"remaining_amount": inst.RemainingAmount,
			}
			if inst.RemainingAmount.LessThanOrEqual(decimal.Zero) {
				inst.Status = models.InstallmentStatusPaid
				updates["status"] = inst.Status
				if inst.PaidAt == nil {
					inst.PaidAt = &now
					updates["paid_at"] = now
				}
			} else {
				inst.Status = models.InstallmentStatusPartial
				updates["status"] = inst.Status
			}
			err = tx.Model(&models.Installment{}).Where("id = ?", inst.ID).Updates(updates).Error
			if err != nil {
				config.LogError(logger, "installmentPaymentWorkflow.go", "PayInstallments", "UpdateInstallment", inst.ID, err)
				return err
			}

			details = append(details, models.InstallmentPaymentDetail{
				PaymentId:     payment.ID,
				InstallmentId: inst.ID,
				AmountApplied: app.AmountApplied,
			})
			totalApplied = totalApplied.Add(app.AmountApplied)
		}
		if len(details) > 0 {
			if err := tx.Create(&details).Error; err != nil {
				config.LogError(logger, "installmentPaymentWorkflow.go", "PayInstallments", "CreateDetails", payment.ID, err)
				return err
			}
		}

		payment.AmountPaid = utils.Round2(totalApplied)
		payment.Details = details
		err = tx.Model(&models.InstallmentPayment{}).Where("id = ?", payment.ID).
			Update("amount_paid", payment.AmountPaid).Error
		if err != nil {
			return err
		}

		if err := plan.RecomputeStatus(tx); err != nil {
			config.LogError(logger, "installmentPaymentWorkflow.go", "PayInstallments", "RecomputeStatus", plan.ID, err)
			return err
		}

		if totalApplied.GreaterThan(decimal.Zero) {
			desc := fmt.Sprintf("installment payment on plan %d", plan.ID)
			_, err = models.Deposit(tx, rc.ActorId, totalApplied, input.StaffBoxId, desc, rc.ActorId)
			if err != nil {
				config.LogError(logger, "installmentPaymentWorkflow.go", "PayInstallments", "StaffDeposit", plan.ID, err)
				return err
			}
			_, err = models.Deposit(tx, plan.ClientId, totalApplied, nil, desc, rc.ActorId)
			if err != nil {
				config.LogError(logger, "installmentPaymentWorkflow.go", "PayInstallments", "ClientDeposit", plan.ID, err)
				return err
			}

			var invoice models.Invoice
			if err := tx.First(&invoice, plan.InvoiceId).Error; err != nil {
				config.LogError(logger, "installmentPaymentWorkflow.go", "PayInstallments", "FetchInvoice", plan.InvoiceId, err)
				return err
			}
			if err := invoice.ApplyPaidDelta(tx, totalApplied); err != nil {
				config.LogError(logger, "installmentPaymentWorkflow.go", "PayInstallments", "ApplyPaidDelta", invoice.ID, err)
				return err
			}
		}

		next, err := models.NextPendingInstallment(tx, plan.ID)
		if err != nil {
			return err
		}

		result = &InstallmentPaymentResult{
			Payment:         &payment,
			Plan:            plan,
			ExcessAmount:    utils.Round2(excess),
			NextInstallment: next,
		}

		_, err = models.RecordActivity(tx, rc.CompanyId, rc.ActorId, "installment_payment", payment.ID,
			models.ActivityActionCreated, nil, &payment)
		if err != nil {
			config.LogError(logger, "installmentPaymentWorkflow.go", "PayInstallments", "RecordActivity", payment.ID, err)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	go DispatchPendingActivities(context.Background(), logger)
	return result, nil
}

package workflow

import (
	"errors"
	"time"

	"github.com/mmdatafocus/backoffice_backend/appctx"
	"github.com/mmdatafocus/backoffice_backend/config"
	"github.com/mmdatafocus/backoffice_backend/models"
	"github.com/mmdatafocus/backoffice_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ScheduledInstallment is one computed slice before persistence.
type ScheduledInstallment struct {
	Number  int
	Amount  decimal.Decimal
	DueDate time.Time
}

// BuildInstallmentSchedule splits the financed amount into monthly slices.
//
// The per-installment standard amount is the average rounded UP to the nearest
// roundStep multiple, so early installments carry the rounding and the final
// one absorbs the leftover. The schedule may therefore finish in fewer slices
// than requested; total scheduled always equals totalAmount - downPayment
// exactly.
func BuildInstallmentSchedule(totalAmount, downPayment decimal.Decimal, count int, roundStep decimal.Decimal, startDate time.Time) []ScheduledInstallment {
	remaining := totalAmount.Sub(downPayment)
	if count <= 0 || remaining.LessThanOrEqual(decimal.Zero) {
		return nil
	}

	average := remaining.DivRound(decimal.NewFromInt(int64(count)), 4)
	standard := utils.CeilToStep(average, roundStep)

	schedule := make([]ScheduledInstallment, 0, count)
	scheduled := decimal.Zero
	for i := 1; i <= count; i++ {
		left := remaining.Sub(scheduled)
		if left.LessThanOrEqual(decimal.Zero) {
			break
		}
		amount := standard
		if standard.GreaterThan(left) || i == count {
			amount = left
		}
		schedule = append(schedule, ScheduledInstallment{
			Number:  i,
			Amount:  utils.Round2(amount),
			DueDate: startDate.AddDate(0, i, 0),
		})
		scheduled = scheduled.Add(amount)
	}
	return schedule
}

// validateInstallmentTerms rejects terms no schedule can satisfy. The total
// already includes interest; a down payment equal to it is allowed and simply
// leaves nothing to finance.
func validateInstallmentTerms(totalAmount decimal.Decimal, input *NewInstallmentPlanInput) error {
	if input.DownPayment.LessThan(decimal.Zero) {
		return errors.New("down payment must not be negative")
	}
	if utils.Round2(input.DownPayment).GreaterThan(totalAmount) {
		return utils.ErrorDownPaymentTooBig
	}
	return nil
}

// createInstallmentPlanForInvoice attaches a financing plan to a posted
// invoice: interest on the invoice net, a rounded monthly schedule, and the
// plan header reflecting the actual slice count.
func createInstallmentPlanForInvoice(tx *gorm.DB, logger *logrus.Logger, rc appctx.RequestContext, invoice *models.Invoice, input *NewInstallmentPlanInput) (*models.InstallmentPlan, error) {

	startDate := input.StartDate
	if startDate.IsZero() {
		startDate = invoice.InvoiceDate
	}
	roundStep := decimal.NewFromInt(10)
	if input.RoundStep != nil && input.RoundStep.GreaterThan(decimal.Zero) {
		roundStep = *input.RoundStep
	}

	plan := models.InstallmentPlan{
		CompanyId:            rc.CompanyId,
		InvoiceId:            invoice.ID,
		ClientId:             invoice.ClientId,
		Status:               models.PlanStatusPending,
		NetAmount:            invoice.NetAmount,
		InterestRate:         input.InterestRate,
		DownPayment:          utils.Round2(input.DownPayment),
		NumberOfInstallments: input.NumberOfInstallments,
		RoundStep:            roundStep,
		StartDate:            startDate,
		CreatedBy:            rc.ActorId,
	}
	plan.ApplyInterest()

	if err := validateInstallmentTerms(plan.TotalAmount, input); err != nil {
		config.LogError(logger, "installmentWorkflow.go", "createInstallmentPlanForInvoice", "ValidateTerms", invoice.ID, err)
		return nil, err
	}

	if err := tx.Create(&plan).Error; err != nil {
		config.LogError(logger, "installmentWorkflow.go", "createInstallmentPlanForInvoice", "CreatePlan", invoice.ID, err)
		return nil, err
	}

	schedule := BuildInstallmentSchedule(plan.TotalAmount, plan.DownPayment, plan.NumberOfInstallments, roundStep, startDate)

	installments := make([]models.Installment, 0, len(schedule))
	for _, s := range schedule {
		installments = append(installments, models.Installment{
			CompanyId:       rc.CompanyId,
			PlanId:          plan.ID,
			Number:          s.Number,
			Amount:          s.Amount,
			RemainingAmount: s.Amount,
			Status:          models.InstallmentStatusPending,
			DueDate:         s.DueDate,
		})
	}
	if len(installments) > 0 {
		if err := tx.Create(&installments).Error; err != nil {
			config.LogError(logger, "installmentWorkflow.go", "createInstallmentPlanForInvoice", "CreateInstallments", plan.ID, err)
			return nil, err
		}
	}

	// Rounding can close the schedule early; the plan reflects what was
	// actually written.
	plan.NumberOfInstallments = len(installments)
	plan.RemainingAmount = utils.Round2(plan.TotalAmount.Sub(plan.DownPayment))
	if len(installments) > 0 {
		plan.EndDate = installments[len(installments)-1].DueDate
	}
	err := tx.Model(&models.InstallmentPlan{}).Where("id = ?", plan.ID).Updates(map[string]interface{}{
		"number_of_installments": plan.NumberOfInstallments,
		"remaining_amount":       plan.RemainingAmount,
		"end_date":               plan.EndDate,
	}).Error
	if err != nil {
		config.LogError(logger, "installmentWorkflow.go", "createInstallmentPlanForInvoice", "UpdatePlan", plan.ID, err)
		return nil, err
	}

	plan.Installments = installments
	return &plan, nil
}

// cancelInstallmentPlan voids a plan and everything collected against it.
// Payments are removed, installments canceled with their remaining reset to
// face value, and the sum that had been collected is returned so the caller
// can route the refund.
func cancelInstallmentPlan(tx *gorm.DB, logger *logrus.Logger, rc appctx.RequestContext, plan *models.InstallmentPlan) (decimal.Decimal, error) {

	totalReversed, err := models.DeletePlanPayments(tx, plan.ID)
	if err != nil {
		config.LogError(logger, "installmentWorkflow.go", "cancelInstallmentPlan", "DeletePlanPayments", plan.ID, err)
		return decimal.Zero, err
	}

	err = tx.Model(&models.Installment{}).Where("plan_id = ?", plan.ID).Updates(map[string]interface{}{
		"status":           models.InstallmentStatusCanceled,
		"remaining_amount": gorm.Expr("amount"),
		"paid_at":          nil,
	}).Error
	if err != nil {
		config.LogError(logger, "installmentWorkflow.go", "cancelInstallmentPlan", "CancelInstallments", plan.ID, err)
		return decimal.Zero, err
	}

	plan.Status = models.PlanStatusCanceled
	plan.RemainingAmount = decimal.Zero
	err = tx.Model(&models.InstallmentPlan{}).Where("id = ?", plan.ID).Updates(map[string]interface{}{
		"status":           plan.Status,
		"remaining_amount": plan.RemainingAmount,
	}).Error
	if err != nil {
		config.LogError(logger, "installmentWorkflow.go", "cancelInstallmentPlan", "CancelPlan", plan.ID, err)
		return decimal.Zero, err
	}

	return utils.Round2(totalReversed), nil
}

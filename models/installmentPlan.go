package models

import (
	"time"

	"github.com/mmdatafocus/backoffice_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InstallmentPlan finances the portion of an installment-sale invoice left
// after the down payment.
//
// NetAmount is the financed principal before interest; TotalAmount is
// NetAmount plus InterestAmount and is what the schedule must cover.
type InstallmentPlan struct {
	ID        int        `gorm:"primary_key" json:"id"`
	CompanyId int        `gorm:"index;not null" json:"company_id"`
	InvoiceId int        `gorm:"index;not null" json:"invoice_id"`
	ClientId  int        `gorm:"index;not null" json:"client_id"`
	Status    PlanStatus `gorm:"size:20;not null;default:'pending'" json:"status"`

	NetAmount      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"net_amount"`
	InterestRate   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"interest_rate"`
	InterestAmount decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"interest_amount"`
	TotalAmount    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_amount"`
	DownPayment    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"down_payment"`

	// RemainingAmount tracks what installments still owe; kept in sync by the
	// payment distributor and reconciliation.
	RemainingAmount decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"remaining_amount"`

	NumberOfInstallments int             `gorm:"not null" json:"number_of_installments"`
	RoundStep            decimal.Decimal `gorm:"type:decimal(20,4);default:10" json:"round_step"`
	StartDate            time.Time       `gorm:"not null" json:"start_date"`
	EndDate              time.Time       `json:"end_date"`

	CreatedBy int            `gorm:"index;not null" json:"created_by"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at"`

	Installments []Installment `gorm:"foreignKey:PlanId" json:"installments"`
}

// ApplyInterest derives InterestAmount and TotalAmount from NetAmount.
func (p *InstallmentPlan) ApplyInterest() {
	p.InterestAmount = utils.Round2(p.NetAmount.Mul(p.InterestRate).DivRound(decimal.NewFromInt(100), 4))
	p.TotalAmount = utils.Round2(p.NetAmount.Add(p.InterestAmount))
}

// TotalCollected sums what payment details have actually applied across the
// plan's live installments.
func (p *InstallmentPlan) TotalCollected(tx *gorm.DB) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := tx.Model(&InstallmentPaymentDetail{}).
		Joins("JOIN installments ON installments.id = installment_payment_details.installment_id").
		Where("installments.plan_id = ? AND installments.deleted_at IS NULL", p.ID).
		Select("SUM(installment_payment_details.amount_applied)").
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return utils.Round2(total.Decimal), nil
}

// ActualRemaining sums remaining across installments that are neither paid
// nor canceled.
func (p *InstallmentPlan) ActualRemaining(tx *gorm.DB) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := tx.Model(&Installment{}).
		Where("plan_id = ? AND status NOT IN ?", p.ID, []InstallmentStatus{InstallmentStatusPaid, InstallmentStatusCanceled}).
		Select("SUM(remaining_amount)").
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return utils.Round2(total.Decimal), nil
}

// RecomputeStatus refreshes the plan's remaining amount and aggregate status
// from its live installments.
//
// paid: every non-canceled installment is paid.
// partially_paid: at least one paid or partial installment.
// pending: otherwise.
func (p *InstallmentPlan) RecomputeStatus(tx *gorm.DB) error {
	var installments []Installment
	err := tx.Where("plan_id = ?", p.ID).Find(&installments).Error
	if err != nil {
		return err
	}

	remaining := decimal.Zero
	paidCount := 0
	canceledCount := 0
	anyProgress := false
	for _, inst := range installments {
		switch inst.Status {
		case InstallmentStatusCanceled:
			canceledCount++
			continue
		case InstallmentStatusPaid:
			paidCount++
			anyProgress = true
		case InstallmentStatusPartial:
			anyProgress = true
		}
		remaining = remaining.Add(inst.RemainingAmount)
	}

	status := PlanStatusPending
	if len(installments) > canceledCount && paidCount == len(installments)-canceledCount {
		status = PlanStatusPaid
	} else if anyProgress {
		status = PlanStatusPartiallyPaid
	}

	p.RemainingAmount = utils.Round2(remaining)
	p.Status = status
	return tx.Model(&InstallmentPlan{}).Where("id = ?", p.ID).Updates(map[string]interface{}{
		"remaining_amount": p.RemainingAmount,
		"status":           p.Status,
	}).Error
}

// FetchPlanForChange loads a live plan, scoped to the company.
func FetchPlanForChange(tx *gorm.DB, companyId int, planId int) (*InstallmentPlan, error) {
	var plan InstallmentPlan
	err := tx.Where("company_id = ? AND id = ? AND status != ?", companyId, planId, PlanStatusCanceled).
		First(&plan).Error
	if err != nil {
		return nil, utils.ErrorPlanNotFound
	}
	return &plan, nil
}

// ActivePlanForInvoice finds the non-canceled plan attached to an invoice.
func ActivePlanForInvoice(tx *gorm.DB, invoiceId int) (*InstallmentPlan, error) {
	var plan InstallmentPlan
	err := tx.Where("invoice_id = ? AND status != ?", invoiceId, PlanStatusCanceled).
		First(&plan).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

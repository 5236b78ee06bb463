package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Installment is one scheduled slice of a plan. RemainingAmount always stays
// within [0, Amount].
type Installment struct {
	ID        int `gorm:"primary_key" json:"id"`
	CompanyId int `gorm:"index;not null" json:"company_id"`
	PlanId    int `gorm:"index;not null" json:"plan_id"`
	Number    int `gorm:"not null" json:"number"`

	Amount          decimal.Decimal   `gorm:"type:decimal(20,4);default:0" json:"amount"`
	RemainingAmount decimal.Decimal   `gorm:"type:decimal(20,4);default:0" json:"remaining_amount"`
	Status          InstallmentStatus `gorm:"size:20;not null;default:'pending'" json:"status"`
	DueDate         time.Time         `gorm:"index;not null" json:"due_date"`
	PaidAt          *time.Time        `json:"paid_at"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at"`
}

// Outstanding reports whether this installment can still absorb funds.
func (i *Installment) Outstanding() bool {
	return i.Status != InstallmentStatusCanceled && i.RemainingAmount.GreaterThan(decimal.Zero)
}

// OutstandingInstallments lists a plan's payable installments by due date.
func OutstandingInstallments(tx *gorm.DB, planId int) ([]Installment, error) {
	var installments []Installment
	err := tx.Where("plan_id = ? AND status != ? AND remaining_amount > 0", planId, InstallmentStatusCanceled).
		Order("due_date ASC, number ASC").
		Find(&installments).Error
	if err != nil {
		return nil, err
	}
	return installments, nil
}

// NextPendingInstallment returns the earliest-due installment still owing, or
// nil when the plan is settled.
func NextPendingInstallment(tx *gorm.DB, planId int) (*Installment, error) {
	var inst Installment
	err := tx.Where("plan_id = ? AND status NOT IN ? AND remaining_amount > 0",
		planId, []InstallmentStatus{InstallmentStatusPaid, InstallmentStatusCanceled}).
		Order("due_date ASC, number ASC").
		First(&inst).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &inst, nil
}

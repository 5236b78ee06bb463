package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InstallmentPayment is the header of one collection event against a plan.
// Its detail rows are the source of truth for how funds were distributed;
// AmountPaid is the sum of details, set after distribution.
type InstallmentPayment struct {
	ID        int `gorm:"primary_key" json:"id"`
	CompanyId int `gorm:"index;not null" json:"company_id"`
	PlanId    int `gorm:"index;not null" json:"plan_id"`
	ClientId  int `gorm:"index;not null" json:"client_id"`
	StaffId   int `gorm:"index;not null" json:"staff_id"`

	PaymentMethod string          `gorm:"size:50;not null;default:'cash'" json:"payment_method"`
	AmountPaid    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"amount_paid"`
	Notes         string          `gorm:"type:text" json:"notes"`

	CreatedBy int            `gorm:"index;not null" json:"created_by"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at"`

	Details []InstallmentPaymentDetail `gorm:"foreignKey:PaymentId" json:"details"`
}

type InstallmentPaymentDetail struct {
	ID            int `gorm:"primary_key" json:"id"`
	PaymentId     int `gorm:"index;not null" json:"payment_id"`
	InstallmentId int `gorm:"index;not null" json:"installment_id"`

	AmountApplied decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"amount_applied"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at"`
}

// AppliedToInstallment sums detail amounts against one installment.
func AppliedToInstallment(tx *gorm.DB, installmentId int) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := tx.Model(&InstallmentPaymentDetail{}).
		Where("installment_id = ?", installmentId).
		Select("SUM(amount_applied)").
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}

// DeletePlanPayments hard-deletes all payments and details of a plan. Used by
// plan cancellation; returns the sum that had been collected.
func DeletePlanPayments(tx *gorm.DB, planId int) (decimal.Decimal, error) {
	var payments []InstallmentPayment
	if err := tx.Where("plan_id = ?", planId).Find(&payments).Error; err != nil {
		return decimal.Zero, err
	}

	totalReversed := decimal.Zero
	for _, p := range payments {
		totalReversed = totalReversed.Add(p.AmountPaid)
		err := tx.Unscoped().Where("payment_id = ?", p.ID).Delete(&InstallmentPaymentDetail{}).Error
		if err != nil {
			return decimal.Zero, err
		}
	}
	err := tx.Unscoped().Where("plan_id = ?", planId).Delete(&InstallmentPayment{}).Error
	if err != nil {
		return decimal.Zero, err
	}
	return totalReversed, nil
}

package models

import (
	"time"

	"gorm.io/gorm"
)

type PaymentMethod struct {
	ID        int       `gorm:"primary_key" json:"id"`
	CompanyId int       `gorm:"index;not null" json:"company_id"`
	Name      string    `gorm:"size:50;not null" json:"name" binding:"required"`
	IsActive  *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

const DefaultPaymentMethodLabel = "cash"

// PaymentMethodLabel resolves a method id to its display name, defaulting to
// cash when the id is absent or unknown.
func PaymentMethodLabel(tx *gorm.DB, methodId *int) string {
	if methodId == nil || *methodId <= 0 {
		return DefaultPaymentMethodLabel
	}
	var method PaymentMethod
	if err := tx.First(&method, *methodId).Error; err != nil {
		return DefaultPaymentMethodLabel
	}
	return method.Name
}

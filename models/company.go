package models

import (
	"context"
	"errors"
	"time"

	"github.com/mmdatafocus/backoffice_backend/config"
	"github.com/mmdatafocus/backoffice_backend/utils"
	"gorm.io/gorm"
)

type Company struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Name      string    `gorm:"index;size:100;not null" json:"name" binding:"required"`
	Phone     string    `gorm:"size:30" json:"phone"`
	Address   string    `gorm:"type:text" json:"address"`
	IsActive  *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewCompany struct {
	Name    string `json:"name" binding:"required"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

func CreateCompany(ctx context.Context, input *NewCompany) (*Company, error) {
	if input.Phone != "" {
		if err := utils.ValidatePhoneNumber(input.Phone, utils.CountryCode); err != nil {
			return nil, errors.New("invalid phone number")
		}
	}

	company := Company{
		Name:     input.Name,
		Phone:    input.Phone,
		Address:  input.Address,
		IsActive: utils.NewTrue(),
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&company).Error; err != nil {
		return nil, err
	}
	return &company, nil
}

// AttachUserToCompany makes companyId the user's active company and ensures
// they have an active default cash box there. A previously deactivated box is
// reactivated instead of creating a second one.
func AttachUserToCompany(ctx context.Context, userId int, companyId int) error {
	db := config.GetDB()

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user User
		if err := tx.First(&user, userId).Error; err != nil {
			return utils.ErrorRecordNotFound
		}
		var company Company
		if err := tx.First(&company, companyId).Error; err != nil {
			return utils.ErrorRecordNotFound
		}

		if err := tx.Model(&user).Update("active_company_id", companyId).Error; err != nil {
			return err
		}

		return EnsureDefaultCashBox(tx, userId, companyId, user.Name)
	})
}

// DetachUserFromCompany clears the active company and deactivates the user's
// default cash box there. Boxes are never deleted; history stays queryable.
func DetachUserFromCompany(ctx context.Context, userId int, companyId int) error {
	db := config.GetDB()

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user User
		if err := tx.First(&user, userId).Error; err != nil {
			return utils.ErrorRecordNotFound
		}

		if user.ActiveCompanyId != nil && *user.ActiveCompanyId == companyId {
			if err := tx.Model(&user).Update("active_company_id", nil).Error; err != nil {
				return err
			}
		}

		return DeactivateDefaultCashBox(tx, userId, companyId)
	})
}

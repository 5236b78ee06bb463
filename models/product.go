package models

import (
	"context"
	"time"

	"github.com/mmdatafocus/backoffice_backend/config"
	"github.com/mmdatafocus/backoffice_backend/utils"
	"github.com/shopspring/decimal"
)

type Product struct {
	ID            int             `gorm:"primary_key" json:"id"`
	CompanyId     int             `gorm:"index;not null" json:"company_id"`
	Name          string          `gorm:"index;size:100;not null" json:"name" binding:"required"`
	Sku           string          `gorm:"size:50" json:"sku"`
	PurchasePrice decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"purchase_price"`
	SalePrice     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"sale_price"`
	IsActive      *bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewProduct struct {
	Name          string          `json:"name" binding:"required"`
	Sku           string          `json:"sku"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	SalePrice     decimal.Decimal `json:"sale_price"`
}

func CreateProduct(ctx context.Context, companyId int, input *NewProduct) (*Product, error) {
	if err := utils.ValidateUnique[Product](ctx, companyId, "name", input.Name, 0); err != nil {
		return nil, err
	}

	product := Product{
		CompanyId:     companyId,
		Name:          input.Name,
		Sku:           input.Sku,
		PurchasePrice: input.PurchasePrice,
		SalePrice:     input.SalePrice,
		IsActive:      utils.NewTrue(),
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func GetProduct(ctx context.Context, companyId int, id int) (*Product, error) {
	return utils.FetchModel[Product](ctx, companyId, id)
}

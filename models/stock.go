package models

import (
	"time"

	"github.com/mmdatafocus/backoffice_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Stock is one inbound batch of a product. Outbound movements consume
// batches oldest-first; returns go back to the newest batch.
type Stock struct {
	ID        int             `gorm:"primary_key" json:"id"`
	CompanyId int             `gorm:"index;not null" json:"company_id"`
	ProductId int             `gorm:"index;not null" json:"product_id"`
	Quantity  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"quantity"`
	UnitCost  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"unit_cost"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// AvailableStock sums the remaining quantity across batches.
func AvailableStock(tx *gorm.DB, companyId int, productId int) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := tx.Model(&Stock{}).
		Where("company_id = ? AND product_id = ?", companyId, productId).
		Select("SUM(quantity)").Scan(&total).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}

// ValidateStockAvailability fails with ErrorInsufficientStock when any
// requested product lacks quantity. Checked before anything is written.
func ValidateStockAvailability(tx *gorm.DB, companyId int, requested map[int]decimal.Decimal) error {
	for productId, qty := range requested {
		available, err := AvailableStock(tx, companyId, productId)
		if err != nil {
			return err
		}
		if available.LessThan(qty) {
			return utils.ErrorInsufficientStock
		}
	}
	return nil
}

// DeductStockFIFO consumes qty of a product from the oldest batches first.
// Returns the blended unit cost of what was consumed.
func DeductStockFIFO(tx *gorm.DB, companyId int, productId int, qty decimal.Decimal) (decimal.Decimal, error) {
	if qty.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, nil
	}

	var batches []Stock
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("company_id = ? AND product_id = ? AND quantity > 0", companyId, productId).
		Order("created_at ASC, id ASC").
		Find(&batches).Error
	if err != nil {
		return decimal.Zero, err
	}

	left := qty
	costSum := decimal.Zero
	for i := range batches {
		if left.LessThanOrEqual(decimal.Zero) {
			break
		}
		take := batches[i].Quantity
		if take.GreaterThan(left) {
			take = left
		}
		err := tx.Model(&Stock{}).Where("id = ?", batches[i].ID).
			Update("quantity", gorm.Expr("quantity - ?", take)).Error
		if err != nil {
			return decimal.Zero, err
		}
		costSum = costSum.Add(take.Mul(batches[i].UnitCost))
		left = left.Sub(take)
	}
	if left.GreaterThan(decimal.Zero) {
		return decimal.Zero, utils.ErrorInsufficientStock
	}

	return costSum.DivRound(qty, 4), nil
}

// ReturnStock puts qty back onto the newest batch, or creates a fresh batch
// when none exists.
func ReturnStock(tx *gorm.DB, companyId int, productId int, qty decimal.Decimal, unitCost decimal.Decimal) error {
	if qty.LessThanOrEqual(decimal.Zero) {
		return nil
	}

	var newest Stock
	err := tx.Where("company_id = ? AND product_id = ?", companyId, productId).
		Order("created_at DESC, id DESC").
		First(&newest).Error
	if err == gorm.ErrRecordNotFound {
		return tx.Create(&Stock{
			CompanyId: companyId,
			ProductId: productId,
			Quantity:  qty,
			UnitCost:  unitCost,
		}).Error
	}
	if err != nil {
		return err
	}

	return tx.Model(&Stock{}).Where("id = ?", newest.ID).
		Update("quantity", gorm.Expr("quantity + ?", qty)).Error
}

// AddStockBatch records an inbound batch (purchase side).
func AddStockBatch(tx *gorm.DB, companyId int, productId int, qty decimal.Decimal, unitCost decimal.Decimal) error {
	return tx.Create(&Stock{
		CompanyId: companyId,
		ProductId: productId,
		Quantity:  qty,
		UnitCost:  unitCost,
	}).Error
}

// LatestUnitCost returns the unit cost of the newest batch with a positive
// cost; the catalog purchase price is the fallback.
func LatestUnitCost(tx *gorm.DB, companyId int, productId int) (decimal.Decimal, error) {
	var batch Stock
	err := tx.Where("company_id = ? AND product_id = ? AND unit_cost > 0", companyId, productId).
		Order("created_at DESC, id DESC").
		First(&batch).Error
	if err == nil {
		return batch.UnitCost, nil
	}
	if err != gorm.ErrRecordNotFound {
		return decimal.Zero, err
	}

	var product Product
	if err := tx.First(&product, productId).Error; err != nil {
		return decimal.Zero, nil
	}
	return product.PurchasePrice, nil
}

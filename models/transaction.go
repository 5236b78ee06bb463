package models

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mmdatafocus/backoffice_backend/config"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Transaction is the append-only audit row behind every cash-box mutation.
// BalanceBefore/BalanceAfter snapshot the box around the change; for
// self-dealing log entries the two are equal.
type Transaction struct {
	ID                    int             `gorm:"primary_key" json:"id"`
	Uid                   string          `gorm:"uniqueIndex;size:36;not null" json:"uid"`
	CompanyId             int             `gorm:"index;not null" json:"company_id"`
	CashBoxId             int             `gorm:"index;not null" json:"cash_box_id"`
	Type                  TransactionType `gorm:"size:20;not null" json:"type"`
	Amount                decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"amount"`
	BalanceBefore         decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"balance_before"`
	BalanceAfter          decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"balance_after"`
	Description           string          `gorm:"type:text" json:"description"`
	OriginalTransactionId *int            `gorm:"index" json:"original_transaction_id"`
	CreatedById           int             `gorm:"index;not null" json:"created_by_id"`
	CreatedAt             time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func createTransaction(tx *gorm.DB, box *CashBox, txType TransactionType, amount decimal.Decimal, before decimal.Decimal, after decimal.Decimal, description string, createdBy int, originalTxId *int) (*Transaction, error) {
	record := Transaction{
		Uid:                   uuid.New().String(),
		CompanyId:             box.CompanyId,
		CashBoxId:             box.ID,
		Type:                  txType,
		Amount:                amount,
		BalanceBefore:         before,
		BalanceAfter:          after,
		Description:           description,
		OriginalTransactionId: originalTxId,
		CreatedById:           createdBy,
	}
	if err := tx.Create(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func GetTransactionsByCashBox(ctx context.Context, cashBoxId int, limit int) ([]*Transaction, error) {
	db := config.GetDB()
	var results []*Transaction
	dbCtx := db.WithContext(ctx).Where("cash_box_id = ?", cashBoxId).Order("id DESC")
	if limit > 0 {
		dbCtx = dbCtx.Limit(limit)
	}
	if err := dbCtx.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

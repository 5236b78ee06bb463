package models

import (
	"time"

	"github.com/mmdatafocus/backoffice_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CashBox struct {
	ID        int             `gorm:"primary_key" json:"id"`
	CompanyId int             `gorm:"index;not null" json:"company_id"`
	UserId    int             `gorm:"index;not null" json:"user_id"`
	Name      string          `gorm:"size:100;not null" json:"name" binding:"required"`
	Balance   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"balance"`
	IsDefault *bool           `gorm:"not null;default:false" json:"is_default"`
	IsActive  *bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// BeforeSave keeps at most one active default box per (user, company).
func (cb *CashBox) BeforeSave(tx *gorm.DB) error {
	if cb.IsDefault == nil || !*cb.IsDefault {
		return nil
	}
	dbCtx := tx.Model(&CashBox{}).
		Where("user_id = ? AND company_id = ? AND is_default = ?", cb.UserId, cb.CompanyId, true)
	if cb.ID > 0 {
		dbCtx = dbCtx.Where("id != ?", cb.ID)
	}
	return dbCtx.Update("is_default", false).Error
}

// EnsureDefaultCashBox creates the default box for (user, company), or
// reactivates a previously deactivated one. Balance carries over.
func EnsureDefaultCashBox(tx *gorm.DB, userId int, companyId int, ownerName string) error {
	var box CashBox
	err := tx.Where("user_id = ? AND company_id = ? AND is_default = ?", userId, companyId, true).
		First(&box).Error
	if err == nil {
		if box.IsActive != nil && *box.IsActive {
			return nil
		}
		return tx.Model(&box).Update("is_active", true).Error
	}
	if err != gorm.ErrRecordNotFound {
		return err
	}

	box = CashBox{
		CompanyId: companyId,
		UserId:    userId,
		Name:      ownerName,
		Balance:   decimal.Zero,
		IsDefault: utils.NewTrue(),
		IsActive:  utils.NewTrue(),
	}
	if err := tx.Create(&box).Error; err != nil {
		return err
	}
	_ = utils.RemoveRedis[CashBox](box.ID)
	return nil
}

func DeactivateDefaultCashBox(tx *gorm.DB, userId int, companyId int) error {
	var box CashBox
	err := tx.Where("user_id = ? AND company_id = ? AND is_default = ?", userId, companyId, true).
		First(&box).Error
	if err == gorm.ErrRecordNotFound {
		return nil
	}
	if err != nil {
		return err
	}
	if err := tx.Model(&box).Update("is_active", false).Error; err != nil {
		return err
	}
	_ = utils.RemoveRedis[CashBox](box.ID)
	return nil
}

// ResolveCashBox picks the box a ledger operation applies to.
//
// An explicit boxId must belong to ownerId, otherwise ErrorCashBoxNotFound.
// Without one, the owner's default box in their active company is used;
// an owner with no active company fails with ErrorNoActiveCompany.
func ResolveCashBox(tx *gorm.DB, ownerId int, boxId *int) (*CashBox, error) {
	if boxId != nil && *boxId > 0 {
		var box CashBox
		err := tx.Where("id = ? AND user_id = ?", *boxId, ownerId).First(&box).Error
		if err != nil {
			return nil, utils.ErrorCashBoxNotFound
		}
		return &box, nil
	}

	var owner User
	if err := tx.First(&owner, ownerId).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	companyId, err := owner.ActiveCompany()
	if err != nil {
		return nil, err
	}

	var box CashBox
	err = tx.Where("user_id = ? AND company_id = ? AND is_default = ? AND is_active = ?",
		ownerId, companyId, true, true).
		First(&box).Error
	if err != nil {
		return nil, utils.ErrorCashBoxNotFound
	}
	return &box, nil
}

// Deposit adds amount to the resolved box and writes the audit row.
func Deposit(tx *gorm.DB, ownerId int, amount decimal.Decimal, boxId *int, description string, createdBy int) (*Transaction, error) {
	box, err := ResolveCashBox(tx, ownerId, boxId)
	if err != nil {
		return nil, err
	}
	return applyBalanceChange(tx, box, amount, TransactionTypeDeposit, description, createdBy, nil)
}

// Withdraw subtracts amount from the resolved box and writes the audit row.
// Balances are signed: there is deliberately no funds-availability check, a
// negative balance records debt.
func Withdraw(tx *gorm.DB, ownerId int, amount decimal.Decimal, boxId *int, description string, createdBy int) (*Transaction, error) {
	box, err := ResolveCashBox(tx, ownerId, boxId)
	if err != nil {
		return nil, err
	}
	return applyBalanceChange(tx, box, amount.Neg(), TransactionTypeWithdrawal, description, createdBy, nil)
}

// Transfer moves amount between two boxes, writing a linked pair of
// transfer_out/transfer_in rows. Unlike Withdraw, transfers require funds.
func Transfer(tx *gorm.DB, fromBoxId int, toBoxId int, amount decimal.Decimal, description string, createdBy int) (*Transaction, *Transaction, error) {
	var from, to CashBox
	if err := tx.First(&from, fromBoxId).Error; err != nil {
		return nil, nil, utils.ErrorCashBoxNotFound
	}
	if err := tx.First(&to, toBoxId).Error; err != nil {
		return nil, nil, utils.ErrorCashBoxNotFound
	}
	if from.Balance.LessThan(amount) {
		return nil, nil, utils.ErrorInsufficientFunds
	}

	out, err := applyBalanceChange(tx, &from, amount.Neg(), TransactionTypeTransferOut, description, createdBy, nil)
	if err != nil {
		return nil, nil, err
	}
	in, err := applyBalanceChange(tx, &to, amount, TransactionTypeTransferIn, description, createdBy, &out.ID)
	if err != nil {
		return nil, nil, err
	}
	return out, in, nil
}

// applyBalanceChange locks the box row, applies the signed delta with an
// atomic UPDATE expression and records before/after snapshots.
func applyBalanceChange(tx *gorm.DB, box *CashBox, signedAmount decimal.Decimal, txType TransactionType, description string, createdBy int, originalTxId *int) (*Transaction, error) {
	var locked CashBox
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&locked, box.ID).Error; err != nil {
		return nil, utils.ErrorCashBoxNotFound
	}

	balanceBefore := locked.Balance
	balanceAfter := utils.Round2(balanceBefore.Add(signedAmount))

	err := tx.Model(&CashBox{}).Where("id = ?", locked.ID).
		Update("balance", gorm.Expr("balance + ?", signedAmount)).Error
	if err != nil {
		return nil, err
	}
	_ = utils.RemoveRedis[CashBox](locked.ID)

	amount := signedAmount
	if amount.LessThan(decimal.Zero) {
		amount = amount.Neg()
	}
	return createTransaction(tx, &locked, txType, amount, balanceBefore, balanceAfter, description, createdBy, originalTxId)
}

// LogSelfTransaction writes a self-dealing audit entry. The box balance is
// snapshotted but never changed: staff selling to themselves owe nobody.
func LogSelfTransaction(tx *gorm.DB, box *CashBox, txType TransactionType, amount decimal.Decimal, description string, createdBy int) (*Transaction, error) {
	var current CashBox
	if err := tx.First(&current, box.ID).Error; err != nil {
		return nil, utils.ErrorCashBoxNotFound
	}
	return createTransaction(tx, &current, txType, amount, current.Balance, current.Balance, description, createdBy, nil)
}

package workflow

import (
	"fmt"

	"github.com/mmdatafocus/backoffice_backend/appctx"
	"github.com/mmdatafocus/backoffice_backend/config"
	"github.com/mmdatafocus/backoffice_backend/models"
	"github.com/mmdatafocus/backoffice_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// createPurchaseInvoice posts a purchase: stock comes in at document cost,
// cash flows the opposite way of a sale.
func createPurchaseInvoice(tx *gorm.DB, logger *logrus.Logger, rc appctx.RequestContext, input *NewSettlement) (*SettlementResult, error) {

	supplier, role, err := resolveParties(tx, logger, rc, input.ClientId)
	if err != nil {
		return nil, err
	}

	items, totals, err := buildInvoiceItems(tx, logger, rc, input)
	if err != nil {
		return nil, err
	}

	invoice, err := insertInvoice(tx, logger, rc, input, totals, role)
	if err != nil {
		return nil, err
	}
	if err := syncInvoiceItems(tx, logger, invoice, items); err != nil {
		return nil, err
	}
	if err := applyStockForInvoice(tx, logger, invoice); err != nil {
		return nil, err
	}

	if role == models.PartyRoleCounterparty {
		if err := routePurchaseCash(tx, logger, rc, invoice, supplier, input.StaffBoxId, false); err != nil {
			return nil, err
		}
	}

	if err := invoice.UpdatePaymentStatus(tx); err != nil {
		config.LogError(logger, "purchaseInvoiceWorkflow.go", "createPurchaseInvoice", "UpdatePaymentStatus", invoice.ID, err)
		return nil, err
	}

	return &SettlementResult{Invoice: invoice}, nil
}

// routePurchaseCash moves the money side of a purchase. Paid cash leaves the
// staff box; an unpaid remainder is credit the supplier extends us, recorded
// as a positive balance on their box. reverse flips both directions.
func routePurchaseCash(tx *gorm.DB, logger *logrus.Logger, rc appctx.RequestContext, invoice *models.Invoice, supplier *models.User, staffBoxId *int, reverse bool) error {

	desc := fmt.Sprintf("purchase invoice %s", invoice.InvoiceNumber)
	if reverse {
		desc = fmt.Sprintf("purchase invoice %s canceled", invoice.InvoiceNumber)
	}

	if invoice.PaidAmount.GreaterThan(decimal.Zero) {
		var err error
		if reverse {
			_, err = models.Deposit(tx, invoice.StaffId, invoice.PaidAmount, staffBoxId, desc, rc.ActorId)
		} else {
			_, err = models.Withdraw(tx, rc.ActorId, invoice.PaidAmount, staffBoxId, desc, rc.ActorId)
		}
		if err != nil {
			config.LogError(logger, "purchaseInvoiceWorkflow.go", "routePurchaseCash", "StaffSide", invoice.ID, err)
			return err
		}
	}

	remaining := invoice.NetAmount.Sub(invoice.PreviousBalance).Sub(invoice.PaidAmount)
	if !remaining.IsZero() {
		amount := remaining
		if amount.LessThan(decimal.Zero) {
			amount = amount.Neg()
		}
		deposit := remaining.GreaterThan(decimal.Zero)
		if reverse {
			deposit = !deposit
		}
		var err error
		if deposit {
			_, err = models.Deposit(tx, supplier.ID, amount, nil, desc, rc.ActorId)
		} else {
			_, err = models.Withdraw(tx, supplier.ID, amount, nil, desc, rc.ActorId)
		}
		if err != nil {
			config.LogError(logger, "purchaseInvoiceWorkflow.go", "routePurchaseCash", "SupplierSide", invoice.ID, err)
			return err
		}
	}
	return nil
}

// updatePurchaseInvoice re-applies a purchase in place with delta cash
// corrections, mirroring updateSaleInvoice with flipped directions.
func updatePurchaseInvoice(tx *gorm.DB, logger *logrus.Logger, rc appctx.RequestContext, invoice *models.Invoice, input *NewSettlement) (*SettlementResult, error) {

	supplier, role, err := resolveParties(tx, logger, rc, input.ClientId)
	if err != nil {
		return nil, err
	}

	oldPaid := invoice.PaidAmount
	oldRemaining := invoice.NetAmount.Sub(invoice.PreviousBalance).Sub(invoice.PaidAmount)

	if err := revertStockForInvoice(tx, logger, invoice); err != nil {
		return nil, err
	}

	items, totals, err := buildInvoiceItems(tx, logger, rc, input)
	if err != nil {
		return nil, err
	}

	newRemaining := totals.NetAmount.Sub(input.PreviousBalance).Sub(input.PaidAmount)
	err = tx.Model(&models.Invoice{}).Where("id = ?", invoice.ID).Updates(map[string]interface{}{
		"client_id":        input.ClientId,
		"party_role":       role,
		"invoice_date":     input.InvoiceDate,
		"gross_amount":     totals.GrossAmount,
		"discount_amount":  totals.DiscountAmount,
		"net_amount":       totals.NetAmount,
		"previous_balance": input.PreviousBalance,
		"paid_amount":      input.PaidAmount,
		"remaining_amount": utils.MaxZero(totals.RemainingAmount),
		"notes":            input.Notes,
	}).Error
	if err != nil {
		config.LogError(logger, "purchaseInvoiceWorkflow.go", "updatePurchaseInvoice", "UpdateInvoice", invoice.ID, err)
		return nil, err
	}
	invoice.ClientId = input.ClientId
	invoice.PartyRole = role
	invoice.GrossAmount = totals.GrossAmount
	invoice.DiscountAmount = totals.DiscountAmount
	invoice.NetAmount = totals.NetAmount
	invoice.PreviousBalance = input.PreviousBalance
	invoice.PaidAmount = input.PaidAmount
	invoice.RemainingAmount = utils.MaxZero(totals.RemainingAmount)

	if role == models.PartyRoleCounterparty {
		desc := fmt.Sprintf("purchase invoice %s edit", invoice.InvoiceNumber)

		paidDiff := input.PaidAmount.Sub(oldPaid)
		if paidDiff.GreaterThan(decimal.Zero) {
			_, err = models.Withdraw(tx, rc.ActorId, paidDiff, input.StaffBoxId, desc, rc.ActorId)
		} else if paidDiff.LessThan(decimal.Zero) {
			_, err = models.Deposit(tx, rc.ActorId, paidDiff.Neg(), input.StaffBoxId, desc, rc.ActorId)
		}
		if err != nil {
			config.LogError(logger, "purchaseInvoiceWorkflow.go", "updatePurchaseInvoice", "StaffPaidDiff", invoice.ID, err)
			return nil, err
		}

		remainingDiff := newRemaining.Sub(oldRemaining)
		if remainingDiff.GreaterThan(decimal.Zero) {
			_, err = models.Deposit(tx, supplier.ID, remainingDiff, nil, desc, rc.ActorId)
		} else if remainingDiff.LessThan(decimal.Zero) {
			_, err = models.Withdraw(tx, supplier.ID, remainingDiff.Neg(), nil, desc, rc.ActorId)
		}
		if err != nil {
			config.LogError(logger, "purchaseInvoiceWorkflow.go", "updatePurchaseInvoice", "SupplierRemainingDiff", invoice.ID, err)
			return nil, err
		}
	}

	if err := syncInvoiceItems(tx, logger, invoice, items); err != nil {
		return nil, err
	}
	if err := applyStockForInvoice(tx, logger, invoice); err != nil {
		return nil, err
	}
	if err := invoice.UpdatePaymentStatus(tx); err != nil {
		return nil, err
	}

	return &SettlementResult{Invoice: invoice}, nil
}

// cancelPurchaseInvoice reverses a purchase: inbound stock leaves again,
// paid cash returns to the staff box, supplier credit is unwound.
func cancelPurchaseInvoice(tx *gorm.DB, logger *logrus.Logger, rc appctx.RequestContext, invoice *models.Invoice) error {

	if err := revertStockForInvoice(tx, logger, invoice); err != nil {
		return err
	}

	if invoice.PartyRole == models.PartyRoleCounterparty {
		var supplier models.User
		if err := tx.First(&supplier, invoice.ClientId).Error; err != nil {
			return utils.ErrorRecordNotFound
		}
		if err := routePurchaseCash(tx, logger, rc, invoice, &supplier, nil, true); err != nil {
			return err
		}
	}

	err := tx.Model(&models.Invoice{}).Where("id = ?", invoice.ID).
		Update("status", models.InvoiceStatusCanceled).Error
	if err != nil {
		return err
	}
	invoice.Status = models.InvoiceStatusCanceled

	return tx.Where("invoice_id = ?", invoice.ID).Delete(&models.InvoiceItem{}).Error
}

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

// createReturnInvoice posts a return document. A sale return takes goods back
// in and refunds the buyer; a purchase return sends goods out and recovers
// cash from the supplier. Either way the flows mirror the parent document
// reversed.
func createReturnInvoice(tx *gorm.DB, logger *logrus.Logger, rc appctx.RequestContext, input *NewSettlement) (*SettlementResult, error) {

	party, role, err := resolveParties(tx, logger, rc, input.ClientId)
	if err != nil {
		return nil, err
	}

	items, totals, err := buildInvoiceItems(tx, logger, rc, input)
	if err != nil {
		return nil, err
	}
	if err := validateStockForOutbound(tx, logger, rc, input.InvoiceType, items); err != nil {
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
		if err := routeReturnCash(tx, logger, rc, invoice, party, input.StaffBoxId, false); err != nil {
			return nil, err
		}
	}

	if err := invoice.UpdatePaymentStatus(tx); err != nil {
		config.LogError(logger, "returnInvoiceWorkflow.go", "createReturnInvoice", "UpdatePaymentStatus", invoice.ID, err)
		return nil, err
	}

	return &SettlementResult{Invoice: invoice}, nil
}

// routeReturnCash moves the money side of a return.
//
// return_sale: refunded cash leaves the staff box, the unrefunded remainder
// credits the buyer's box. return_purchase: recovered cash enters the staff
// box, the unrecovered remainder debits the supplier. reverse undoes either.
func routeReturnCash(tx *gorm.DB, logger *logrus.Logger, rc appctx.RequestContext, invoice *models.Invoice, party *models.User, staffBoxId *int, reverse bool) error {

	desc := fmt.Sprintf("return invoice %s", invoice.InvoiceNumber)
	if reverse {
		desc = fmt.Sprintf("return invoice %s canceled", invoice.InvoiceNumber)
	}

	// Flip once for purchase returns, once more when reversing.
	saleSide := invoice.InvoiceType == models.InvoiceTypeReturnSale
	staffOut := saleSide != reverse

	if invoice.PaidAmount.GreaterThan(decimal.Zero) {
		var err error
		if staffOut {
			_, err = models.Withdraw(tx, invoice.StaffId, invoice.PaidAmount, staffBoxId, desc, rc.ActorId)
		} else {
			_, err = models.Deposit(tx, invoice.StaffId, invoice.PaidAmount, staffBoxId, desc, rc.ActorId)
		}
		if err != nil {
			config.LogError(logger, "returnInvoiceWorkflow.go", "routeReturnCash", "StaffSide", invoice.ID, err)
			return err
		}
	}

	remaining := invoice.NetAmount.Sub(invoice.PreviousBalance).Sub(invoice.PaidAmount)
	if !remaining.IsZero() {
		amount := remaining
		if amount.LessThan(decimal.Zero) {
			amount = amount.Neg()
		}
		partyDeposit := (remaining.GreaterThan(decimal.Zero) == saleSide) != reverse
		var err error
		if partyDeposit {
			_, err = models.Deposit(tx, party.ID, amount, nil, desc, rc.ActorId)
		} else {
			_, err = models.Withdraw(tx, party.ID, amount, nil, desc, rc.ActorId)
		}
		if err != nil {
			config.LogError(logger, "returnInvoiceWorkflow.go", "routeReturnCash", "PartySide", invoice.ID, err)
			return err
		}
	}
	return nil
}

// updateReturnInvoice unwinds the posted return and re-posts it with the new
// content onto the same invoice row.
func updateReturnInvoice(tx *gorm.DB, logger *logrus.Logger, rc appctx.RequestContext, invoice *models.Invoice, input *NewSettlement) (*SettlementResult, error) {

	party, role, err := resolveParties(tx, logger, rc, input.ClientId)
	if err != nil {
		return nil, err
	}

	if err := revertStockForInvoice(tx, logger, invoice); err != nil {
		return nil, err
	}
	if invoice.PartyRole == models.PartyRoleCounterparty {
		var oldParty models.User
		if err := tx.First(&oldParty, invoice.ClientId).Error; err != nil {
			return nil, utils.ErrorRecordNotFound
		}
		if err := routeReturnCash(tx, logger, rc, invoice, &oldParty, nil, true); err != nil {
			return nil, err
		}
	}

	items, totals, err := buildInvoiceItems(tx, logger, rc, input)
	if err != nil {
		return nil, err
	}
	if err := validateStockForOutbound(tx, logger, rc, invoice.InvoiceType, items); err != nil {
		return nil, err
	}

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
		config.LogError(logger, "returnInvoiceWorkflow.go", "updateReturnInvoice", "UpdateInvoice", invoice.ID, err)
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

	if err := syncInvoiceItems(tx, logger, invoice, items); err != nil {
		return nil, err
	}
	if err := applyStockForInvoice(tx, logger, invoice); err != nil {
		return nil, err
	}

	if role == models.PartyRoleCounterparty {
		if err := routeReturnCash(tx, logger, rc, invoice, party, input.StaffBoxId, false); err != nil {
			return nil, err
		}
	}

	if err := invoice.UpdatePaymentStatus(tx); err != nil {
		return nil, err
	}

	return &SettlementResult{Invoice: invoice}, nil
}

// cancelReturnInvoice reverses a posted return.
func cancelReturnInvoice(tx *gorm.DB, logger *logrus.Logger, rc appctx.RequestContext, invoice *models.Invoice) error {

	if err := revertStockForInvoice(tx, logger, invoice); err != nil {
		return err
	}

	if invoice.PartyRole == models.PartyRoleCounterparty {
		var party models.User
		if err := tx.First(&party, invoice.ClientId).Error; err != nil {
			return utils.ErrorRecordNotFound
		}
		if err := routeReturnCash(tx, logger, rc, invoice, &party, nil, true); err != nil {
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

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

// createSaleInvoice posts sale and service documents. Service documents are
// the same settlement without stock movement.
func createSaleInvoice(tx *gorm.DB, logger *logrus.Logger, rc appctx.RequestContext, input *NewSettlement) (*SettlementResult, error) {

	client, role, err := resolveParties(tx, logger, rc, input.ClientId)
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
		err = routeSaleCash(tx, logger, rc, invoice, client, input.StaffBoxId)
		if err != nil {
			return nil, err
		}
	}

	if err := invoice.UpdatePaymentStatus(tx); err != nil {
		config.LogError(logger, "saleInvoiceWorkflow.go", "createSaleInvoice", "UpdatePaymentStatus", invoice.ID, err)
		return nil, err
	}

	var plan *models.InstallmentPlan
	if input.Installment != nil {
		plan, err = createInstallmentPlanForInvoice(tx, logger, rc, invoice, input.Installment)
		if err != nil {
			return nil, err
		}
	}

	return &SettlementResult{Invoice: invoice, Plan: plan}, nil
}

// routeSaleCash applies the money side of a posted sale:
// collected cash lands in the staff box, the signed remainder adjusts the
// buyer's box (negative balance = debt, positive = credit).
func routeSaleCash(tx *gorm.DB, logger *logrus.Logger, rc appctx.RequestContext, invoice *models.Invoice, client *models.User, staffBoxId *int) error {

	desc := fmt.Sprintf("sale invoice %s", invoice.InvoiceNumber)

	if invoice.PaidAmount.GreaterThan(decimal.Zero) {
		_, err := models.Deposit(tx, rc.ActorId, invoice.PaidAmount, staffBoxId, desc, rc.ActorId)
		if err != nil {
			config.LogError(logger, "saleInvoiceWorkflow.go", "routeSaleCash", "StaffDeposit", invoice.ID, err)
			return err
		}
	}

	remaining := invoice.NetAmount.Sub(invoice.PreviousBalance).Sub(invoice.PaidAmount)
	if remaining.GreaterThan(decimal.Zero) {
		_, err := models.Withdraw(tx, client.ID, remaining, nil, desc, rc.ActorId)
		if err != nil {
			config.LogError(logger, "saleInvoiceWorkflow.go", "routeSaleCash", "ClientWithdraw", invoice.ID, err)
			return err
		}
	} else if remaining.LessThan(decimal.Zero) {
		_, err := models.Deposit(tx, client.ID, remaining.Neg(), nil, desc, rc.ActorId)
		if err != nil {
			config.LogError(logger, "saleInvoiceWorkflow.go", "routeSaleCash", "ClientDeposit", invoice.ID, err)
			return err
		}
	}
	return nil
}

// updateSaleInvoice re-applies a sale in place: stock is returned and
// re-deducted, cash is corrected by the paid/remaining deltas rather than
// replayed from scratch.
func updateSaleInvoice(tx *gorm.DB, logger *logrus.Logger, rc appctx.RequestContext, invoice *models.Invoice, input *NewSettlement) (*SettlementResult, error) {

	client, role, err := resolveParties(tx, logger, rc, input.ClientId)
	if err != nil {
		return nil, err
	}

	oldPaid := invoice.PaidAmount
	oldRemaining := invoice.NetAmount.Sub(invoice.PreviousBalance).Sub(invoice.PaidAmount)

	if err := revertStockForInvoice(tx, logger, invoice); err != nil {
		return nil, err
	}

	// A plan attached to a plain sale is voided on edit; the caller recreates
	// it through the installment terms if still wanted.
	if plan, err := models.ActivePlanForInvoice(tx, invoice.ID); err != nil {
		return nil, err
	} else if plan != nil {
		if _, err := cancelInstallmentPlan(tx, logger, rc, plan); err != nil {
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
		config.LogError(logger, "saleInvoiceWorkflow.go", "updateSaleInvoice", "UpdateInvoice", invoice.ID, err)
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
		desc := fmt.Sprintf("sale invoice %s edit", invoice.InvoiceNumber)

		paidDiff := input.PaidAmount.Sub(oldPaid)
		if paidDiff.GreaterThan(decimal.Zero) {
			_, err = models.Deposit(tx, rc.ActorId, paidDiff, input.StaffBoxId, desc, rc.ActorId)
		} else if paidDiff.LessThan(decimal.Zero) {
			_, err = models.Withdraw(tx, rc.ActorId, paidDiff.Neg(), input.StaffBoxId, desc, rc.ActorId)
		}
		if err != nil {
			config.LogError(logger, "saleInvoiceWorkflow.go", "updateSaleInvoice", "StaffPaidDiff", invoice.ID, err)
			return nil, err
		}

		remainingDiff := newRemaining.Sub(oldRemaining)
		if remainingDiff.GreaterThan(decimal.Zero) {
			_, err = models.Withdraw(tx, client.ID, remainingDiff, nil, desc, rc.ActorId)
		} else if remainingDiff.LessThan(decimal.Zero) {
			_, err = models.Deposit(tx, client.ID, remainingDiff.Neg(), nil, desc, rc.ActorId)
		}
		if err != nil {
			config.LogError(logger, "saleInvoiceWorkflow.go", "updateSaleInvoice", "ClientRemainingDiff", invoice.ID, err)
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

	var plan *models.InstallmentPlan
	if input.Installment != nil {
		plan, err = createInstallmentPlanForInvoice(tx, logger, rc, invoice, input.Installment)
		if err != nil {
			return nil, err
		}
	}

	return &SettlementResult{Invoice: invoice, Plan: plan}, nil
}

// saleCancelDeltas computes the signed box adjustments that reverse a posted
// sale: the staff box gives back what was collected, the buyer's box gets the
// outstanding remainder back. Positive means deposit, negative withdraw, so
// each delta is the exact negation of what posting did.
func saleCancelDeltas(netAmount, previousBalance, paidAmount decimal.Decimal) (staffDelta, clientDelta decimal.Decimal) {
	staffDelta = paidAmount.Neg()
	clientDelta = netAmount.Sub(previousBalance).Sub(paidAmount)
	return staffDelta, clientDelta
}

// cancelSaleInvoice reverses a sale: stock back, collected cash out of the
// staff box, the buyer's outstanding debt or credit zeroed out.
func cancelSaleInvoice(tx *gorm.DB, logger *logrus.Logger, rc appctx.RequestContext, invoice *models.Invoice) error {

	if err := revertStockForInvoice(tx, logger, invoice); err != nil {
		return err
	}

	desc := fmt.Sprintf("sale invoice %s canceled", invoice.InvoiceNumber)
	staffDelta, clientDelta := saleCancelDeltas(invoice.NetAmount, invoice.PreviousBalance, invoice.PaidAmount)

	// Self sales take this withdrawal too, even though their posting skipped
	// the matching deposit. Intentional: canceling a self sale books the loss
	// against the staff box.
	if staffDelta.LessThan(decimal.Zero) {
		_, err := models.Withdraw(tx, invoice.StaffId, staffDelta.Neg(), nil, desc, rc.ActorId)
		if err != nil {
			config.LogError(logger, "saleInvoiceWorkflow.go", "cancelSaleInvoice", "StaffWithdraw", invoice.ID, err)
			return err
		}
	}

	if invoice.PartyRole == models.PartyRoleCounterparty {
		if clientDelta.GreaterThan(decimal.Zero) {
			_, err := models.Deposit(tx, invoice.ClientId, clientDelta, nil, desc, rc.ActorId)
			if err != nil {
				config.LogError(logger, "saleInvoiceWorkflow.go", "cancelSaleInvoice", "ClientDeposit", invoice.ID, err)
				return err
			}
		} else if clientDelta.LessThan(decimal.Zero) {
			_, err := models.Withdraw(tx, invoice.ClientId, clientDelta.Neg(), nil, desc, rc.ActorId)
			if err != nil {
				config.LogError(logger, "saleInvoiceWorkflow.go", "cancelSaleInvoice", "ClientWithdraw", invoice.ID, err)
				return err
			}
		}
	}

	err := tx.Model(&models.Invoice{}).Where("id = ?", invoice.ID).
		Update("status", models.InvoiceStatusCanceled).Error
	if err != nil {
		return err
	}
	invoice.Status = models.InvoiceStatusCanceled

	err = tx.Where("invoice_id = ?", invoice.ID).Delete(&models.InvoiceItem{}).Error
	if err != nil {
		config.LogError(logger, "saleInvoiceWorkflow.go", "cancelSaleInvoice", "DeleteItems", invoice.ID, err)
		return err
	}
	return nil
}

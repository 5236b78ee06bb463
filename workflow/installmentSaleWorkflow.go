package workflow

import (
	"errors"
	"fmt"

	"github.com/mmdatafocus/backoffice_backend/appctx"
	"github.com/mmdatafocus/backoffice_backend/config"
	"github.com/mmdatafocus/backoffice_backend/models"
	"github.com/mmdatafocus/backoffice_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// createInstallmentSaleInvoice posts a financed sale: the down payment is
// collected now, the rest becomes an installment plan. The buyer's box takes
// the financed amount as debt unless the buyer is the posting staff, in which
// case the debt is log-only.
func createInstallmentSaleInvoice(tx *gorm.DB, logger *logrus.Logger, rc appctx.RequestContext, input *NewSettlement) (*SettlementResult, error) {
	if input.Installment == nil {
		return nil, errors.New("installment terms are required")
	}

	client, role, err := resolveParties(tx, logger, rc, input.ClientId)
	if err != nil {
		return nil, err
	}

	// The invoice's paid amount starts at the down payment; later collections
	// move it through the plan.
	input.PaidAmount = utils.Round2(input.Installment.DownPayment)

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

	plan, err := postInstallmentSale(tx, logger, rc, invoice, client, role, input)
	if err != nil {
		return nil, err
	}

	if err := invoice.UpdatePaymentStatus(tx); err != nil {
		config.LogError(logger, "installmentSaleWorkflow.go", "createInstallmentSaleInvoice", "UpdatePaymentStatus", invoice.ID, err)
		return nil, err
	}

	return &SettlementResult{Invoice: invoice, Plan: plan}, nil
}

// postInstallmentSale routes the money side of a financed sale and creates the
// plan: down payment into the staff box, financed amount onto the buyer.
func postInstallmentSale(tx *gorm.DB, logger *logrus.Logger, rc appctx.RequestContext, invoice *models.Invoice, client *models.User, role models.PartyRole, input *NewSettlement) (*models.InstallmentPlan, error) {

	desc := fmt.Sprintf("installment sale invoice %s", invoice.InvoiceNumber)

	downPayment := utils.Round2(input.Installment.DownPayment)
	if downPayment.GreaterThan(decimal.Zero) {
		_, err := models.Deposit(tx, rc.ActorId, downPayment, input.StaffBoxId, desc, rc.ActorId)
		if err != nil {
			config.LogError(logger, "installmentSaleWorkflow.go", "postInstallmentSale", "StaffDownPayment", invoice.ID, err)
			return nil, err
		}
	}

	plan, err := createInstallmentPlanForInvoice(tx, logger, rc, invoice, input.Installment)
	if err != nil {
		return nil, err
	}

	installmentDebt := plan.TotalAmount.Sub(plan.DownPayment)
	if role == models.PartyRoleSelf {
		if err := HandleSelfSaleDebt(tx, logger, rc, invoice, installmentDebt); err != nil {
			return nil, err
		}
	} else if installmentDebt.GreaterThan(decimal.Zero) {
		_, err = models.Withdraw(tx, client.ID, installmentDebt, nil, desc, rc.ActorId)
		if err != nil {
			config.LogError(logger, "installmentSaleWorkflow.go", "postInstallmentSale", "BuyerDebt", invoice.ID, err)
			return nil, err
		}
	} else if installmentDebt.LessThan(decimal.Zero) {
		_, err = models.Deposit(tx, client.ID, installmentDebt.Neg(), nil, desc, rc.ActorId)
		if err != nil {
			config.LogError(logger, "installmentSaleWorkflow.go", "postInstallmentSale", "BuyerCredit", invoice.ID, err)
			return nil, err
		}
	}

	return plan, nil
}

// installmentUnwindDeltas computes the signed box adjustments that reverse a
// financed sale. Positive means deposit, negative withdraw. The buyer gets
// their recorded debt back minus what they already paid off; the staff box
// gives back the down payment and every collection, so a create followed by a
// cancel nets every box to zero.
func installmentUnwindDeltas(installmentDebt, totalPaid, downPayment decimal.Decimal) (staffDelta, clientDelta decimal.Decimal) {
	staffDelta = totalPaid.Add(downPayment).Neg()
	clientDelta = installmentDebt.Sub(totalPaid)
	return staffDelta, clientDelta
}

// unwindInstallmentSale reverses everything a posted installment sale did:
// stock back, plan and its collections voided, buyer and staff boxes restored.
// The invoice row itself is left for the caller.
func unwindInstallmentSale(tx *gorm.DB, logger *logrus.Logger, rc appctx.RequestContext, invoice *models.Invoice) error {

	if err := revertStockForInvoice(tx, logger, invoice); err != nil {
		return err
	}

	plan, err := models.ActivePlanForInvoice(tx, invoice.ID)
	if err != nil {
		config.LogError(logger, "installmentSaleWorkflow.go", "unwindInstallmentSale", "ActivePlanForInvoice", invoice.ID, err)
		return err
	}

	totalPaid := decimal.Zero
	installmentDebt := decimal.Zero
	downPayment := decimal.Zero
	if plan != nil {
		installmentDebt = plan.TotalAmount.Sub(plan.DownPayment)
		downPayment = plan.DownPayment
		totalPaid, err = cancelInstallmentPlan(tx, logger, rc, plan)
		if err != nil {
			return err
		}
	}

	desc := fmt.Sprintf("installment sale invoice %s canceled", invoice.InvoiceNumber)
	staffDelta, clientDelta := installmentUnwindDeltas(installmentDebt, totalPaid, downPayment)

	if invoice.PartyRole == models.PartyRoleSelf {
		if err := ClearSelfSaleDebt(tx, logger, rc, invoice, installmentDebt, totalPaid); err != nil {
			return err
		}
	} else {
		if clientDelta.GreaterThan(decimal.Zero) {
			_, err = models.Deposit(tx, invoice.ClientId, clientDelta, nil, desc, rc.ActorId)
		} else if clientDelta.LessThan(decimal.Zero) {
			_, err = models.Withdraw(tx, invoice.ClientId, clientDelta.Neg(), nil, desc, rc.ActorId)
		}
		if err != nil {
			config.LogError(logger, "installmentSaleWorkflow.go", "unwindInstallmentSale", "BuyerNet", invoice.ID, err)
			return err
		}
	}

	if staffDelta.LessThan(decimal.Zero) {
		_, err = models.Withdraw(tx, invoice.StaffId, staffDelta.Neg(), nil, desc, rc.ActorId)
		if err != nil {
			config.LogError(logger, "installmentSaleWorkflow.go", "unwindInstallmentSale", "StaffNet", invoice.ID, err)
			return err
		}
	}
	return nil
}

// updateInstallmentSaleInvoice cannot patch a schedule in place: the posted
// sale is fully unwound, then re-posted with the new content onto the same
// invoice row.
func updateInstallmentSaleInvoice(tx *gorm.DB, logger *logrus.Logger, rc appctx.RequestContext, invoice *models.Invoice, input *NewSettlement) (*SettlementResult, error) {
	if input.Installment == nil {
		return nil, errors.New("installment terms are required")
	}

	client, role, err := resolveParties(tx, logger, rc, input.ClientId)
	if err != nil {
		return nil, err
	}

	if err := unwindInstallmentSale(tx, logger, rc, invoice); err != nil {
		return nil, err
	}

	input.PaidAmount = utils.Round2(input.Installment.DownPayment)

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
		config.LogError(logger, "installmentSaleWorkflow.go", "updateInstallmentSaleInvoice", "UpdateInvoice", invoice.ID, err)
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

	plan, err := postInstallmentSale(tx, logger, rc, invoice, client, role, input)
	if err != nil {
		return nil, err
	}

	if err := invoice.UpdatePaymentStatus(tx); err != nil {
		return nil, err
	}

	return &SettlementResult{Invoice: invoice, Plan: plan}, nil
}

// cancelInstallmentSaleInvoice unwinds the sale and retires the invoice.
func cancelInstallmentSaleInvoice(tx *gorm.DB, logger *logrus.Logger, rc appctx.RequestContext, invoice *models.Invoice) error {

	if err := unwindInstallmentSale(tx, logger, rc, invoice); err != nil {
		return err
	}

	err := tx.Model(&models.Invoice{}).Where("id = ?", invoice.ID).
		Update("status", models.InvoiceStatusCanceled).Error
	if err != nil {
		return err
	}
	invoice.Status = models.InvoiceStatusCanceled

	err = tx.Where("invoice_id = ?", invoice.ID).Delete(&models.InvoiceItem{}).Error
	if err != nil {
		config.LogError(logger, "installmentSaleWorkflow.go", "cancelInstallmentSaleInvoice", "DeleteItems", invoice.ID, err)
		return err
	}
	return nil
}

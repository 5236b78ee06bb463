package workflow

import (
	"fmt"

	"github.com/mmdatafocus/backoffice_backend/appctx"
	"github.com/mmdatafocus/backoffice_backend/config"
	"github.com/mmdatafocus/backoffice_backend/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// HandleSelfSaleDebt records the financed amount of a staff member's own
// installment purchase. Nothing moves: a staff selling to themselves owes
// nobody, but the audit trail still carries the obligation.
func HandleSelfSaleDebt(tx *gorm.DB, logger *logrus.Logger, rc appctx.RequestContext, invoice *models.Invoice, totalDebt decimal.Decimal) error {
	if totalDebt.LessThanOrEqual(decimal.Zero) {
		return nil
	}
	box, err := models.ResolveCashBox(tx, rc.ActorId, nil)
	if err != nil {
		config.LogError(logger, "selfDebtWorkflow.go", "HandleSelfSaleDebt", "ResolveCashBox", rc.ActorId, err)
		return err
	}
	desc := fmt.Sprintf("self installment debt on invoice %s", invoice.InvoiceNumber)
	_, err = models.LogSelfTransaction(tx, box, models.TransactionTypeSelfDebt, totalDebt, desc, rc.ActorId)
	if err != nil {
		config.LogError(logger, "selfDebtWorkflow.go", "HandleSelfSaleDebt", "LogSelfTransaction", invoice.ID, err)
		return err
	}
	return nil
}

// ClearSelfSaleDebt closes out a self-dealing installment sale: one entry
// offsets the recorded obligation, a second one marks the collected sum as
// returned. Again log-only, balances stay put.
func ClearSelfSaleDebt(tx *gorm.DB, logger *logrus.Logger, rc appctx.RequestContext, invoice *models.Invoice, totalDebt, totalPaid decimal.Decimal) error {
	box, err := models.ResolveCashBox(tx, rc.ActorId, nil)
	if err != nil {
		config.LogError(logger, "selfDebtWorkflow.go", "ClearSelfSaleDebt", "ResolveCashBox", rc.ActorId, err)
		return err
	}
	if totalDebt.GreaterThan(decimal.Zero) {
		desc := fmt.Sprintf("self installment debt cleared on invoice %s", invoice.InvoiceNumber)
		_, err = models.LogSelfTransaction(tx, box, models.TransactionTypeSelfRepayment, totalDebt, desc, rc.ActorId)
		if err != nil {
			config.LogError(logger, "selfDebtWorkflow.go", "ClearSelfSaleDebt", "LogDebtOffset", invoice.ID, err)
			return err
		}
	}
	if totalPaid.GreaterThan(decimal.Zero) {
		desc := fmt.Sprintf("self installment collections reversed on invoice %s", invoice.InvoiceNumber)
		_, err = models.LogSelfTransaction(tx, box, models.TransactionTypeSelfRepayment, totalPaid, desc, rc.ActorId)
		if err != nil {
			config.LogError(logger, "selfDebtWorkflow.go", "ClearSelfSaleDebt", "LogCollectionsReversal", invoice.ID, err)
			return err
		}
	}
	return nil
}

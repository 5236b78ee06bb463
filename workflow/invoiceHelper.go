package workflow

import (
	"github.com/mmdatafocus/backoffice_backend/appctx"
	"github.com/mmdatafocus/backoffice_backend/config"
	"github.com/mmdatafocus/backoffice_backend/models"
	"github.com/mmdatafocus/backoffice_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// buildInvoiceItems turns requested lines into priced invoice items and the
// invoice-level totals, resolving cost at posting time.
func buildInvoiceItems(tx *gorm.DB, logger *logrus.Logger, rc appctx.RequestContext, input *NewSettlement) ([]models.InvoiceItem, utils.InvoiceTotals, error) {

	items := make([]models.InvoiceItem, 0, len(input.Items))
	lines := make([]utils.LineAmounts, 0, len(input.Items))

	for _, req := range input.Items {
		if err := utils.ValidateResourceId[models.Product](tx.Statement.Context, rc.CompanyId, req.ProductId); err != nil {
			config.LogError(logger, "invoiceHelper.go", "buildInvoiceItems", "ValidateProduct", req.ProductId, err)
			return nil, utils.InvoiceTotals{}, err
		}

		line := utils.CalculateLineAmounts(req.Quantity, req.UnitPrice, req.DiscountAmount, req.TaxRate, req.IsTaxInclusive)
		lines = append(lines, line)

		item := models.InvoiceItem{
			CompanyId:      rc.CompanyId,
			ProductId:      req.ProductId,
			Quantity:       req.Quantity,
			UnitPrice:      req.UnitPrice,
			DiscountAmount: line.DiscountAmount,
			Subtotal:       line.Subtotal,
			TaxRate:        req.TaxRate,
			IsTaxInclusive: &req.IsTaxInclusive,
			TaxAmount:      line.TaxAmount,
			Total:          line.Total,
		}
		if err := models.ResolveItemUnitCost(tx, input.InvoiceType, rc.CompanyId, &item); err != nil {
			config.LogError(logger, "invoiceHelper.go", "buildInvoiceItems", "ResolveItemUnitCost", req.ProductId, err)
			return nil, utils.InvoiceTotals{}, err
		}
		items = append(items, item)
	}

	totals := utils.CalculateInvoiceTotals(lines, input.InvoiceDiscount, input.PreviousBalance, input.PaidAmount)

	// An independent validation pass over client-supplied totals.
	if input.GrossAmount != nil && input.NetAmount != nil && input.RemainingAmount != nil {
		err := utils.ValidateInvoiceTotals(totals, *input.GrossAmount, *input.NetAmount, *input.RemainingAmount)
		if err != nil {
			config.LogError(logger, "invoiceHelper.go", "buildInvoiceItems", "ValidateInvoiceTotals", totals, err)
			return nil, utils.InvoiceTotals{}, err
		}
	} else if config.StrictTotalsValidation() {
		return nil, utils.InvoiceTotals{}, utils.ErrorTotalsMismatch
	}

	return items, totals, nil
}

// requestedQuantities aggregates quantity per product across lines.
func requestedQuantities(items []models.InvoiceItem) map[int]decimal.Decimal {
	requested := make(map[int]decimal.Decimal, len(items))
	for _, item := range items {
		requested[item.ProductId] = requested[item.ProductId].Add(item.Quantity)
	}
	return requested
}

// applyStockForInvoice moves stock for a freshly posted document.
// Outbound types deduct FIFO; inbound types add batches at document cost.
func applyStockForInvoice(tx *gorm.DB, logger *logrus.Logger, invoice *models.Invoice) error {
	if !invoice.InvoiceType.MovesStock() {
		return nil
	}
	for i := range invoice.Items {
		item := &invoice.Items[i]
		if invoice.InvoiceType.IsInbound() {
			err := models.AddStockBatch(tx, invoice.CompanyId, item.ProductId, item.Quantity, item.UnitCost)
			if err != nil {
				config.LogError(logger, "invoiceHelper.go", "applyStockForInvoice", "AddStockBatch", item.ProductId, err)
				return err
			}
			continue
		}
		blendedCost, err := models.DeductStockFIFO(tx, invoice.CompanyId, item.ProductId, item.Quantity)
		if err != nil {
			config.LogError(logger, "invoiceHelper.go", "applyStockForInvoice", "DeductStockFIFO", item.ProductId, err)
			return err
		}
		// FIFO consumption fixes the real cost of the line.
		item.UnitCost = blendedCost
		item.TotalCost = utils.Round2(item.Quantity.Mul(blendedCost))
		err = tx.Model(&models.InvoiceItem{}).Where("id = ?", item.ID).Updates(map[string]interface{}{
			"unit_cost":  item.UnitCost,
			"total_cost": item.TotalCost,
		}).Error
		if err != nil {
			return err
		}
	}
	return nil
}

// revertStockForInvoice undoes applyStockForInvoice for cancellation/update.
func revertStockForInvoice(tx *gorm.DB, logger *logrus.Logger, invoice *models.Invoice) error {
	if !invoice.InvoiceType.MovesStock() {
		return nil
	}
	for _, item := range invoice.Items {
		if invoice.InvoiceType.IsInbound() {
			_, err := models.DeductStockFIFO(tx, invoice.CompanyId, item.ProductId, item.Quantity)
			if err != nil {
				config.LogError(logger, "invoiceHelper.go", "revertStockForInvoice", "DeductStockFIFO", item.ProductId, err)
				return err
			}
			continue
		}
		err := models.ReturnStock(tx, invoice.CompanyId, item.ProductId, item.Quantity, item.UnitCost)
		if err != nil {
			config.LogError(logger, "invoiceHelper.go", "revertStockForInvoice", "ReturnStock", item.ProductId, err)
			return err
		}
	}
	return nil
}

// validateStockForOutbound checks availability before anything is written.
func validateStockForOutbound(tx *gorm.DB, logger *logrus.Logger, rc appctx.RequestContext, invoiceType models.InvoiceType, items []models.InvoiceItem) error {
	if !invoiceType.MovesStock() || invoiceType.IsInbound() {
		return nil
	}
	err := models.ValidateStockAvailability(tx, rc.CompanyId, requestedQuantities(items))
	if err != nil {
		config.LogError(logger, "invoiceHelper.go", "validateStockForOutbound", "ValidateStockAvailability", rc.CompanyId, err)
		return err
	}
	return nil
}

// syncInvoiceItems soft-deletes the old lines and attaches the new ones.
func syncInvoiceItems(tx *gorm.DB, logger *logrus.Logger, invoice *models.Invoice, items []models.InvoiceItem) error {
	err := tx.Where("invoice_id = ?", invoice.ID).Delete(&models.InvoiceItem{}).Error
	if err != nil {
		config.LogError(logger, "invoiceHelper.go", "syncInvoiceItems", "DeleteOldItems", invoice.ID, err)
		return err
	}
	for i := range items {
		items[i].InvoiceId = invoice.ID
	}
	if err := tx.Create(&items).Error; err != nil {
		config.LogError(logger, "invoiceHelper.go", "syncInvoiceItems", "CreateItems", invoice.ID, err)
		return err
	}
	invoice.Items = items
	return nil
}

// insertInvoice writes the invoice header with initial snapshots captured.
func insertInvoice(tx *gorm.DB, logger *logrus.Logger, rc appctx.RequestContext, input *NewSettlement, totals utils.InvoiceTotals, role models.PartyRole) (*models.Invoice, error) {
	remaining := utils.MaxZero(totals.RemainingAmount)

	invoice := models.Invoice{
		CompanyId:       rc.CompanyId,
		InvoiceType:     input.InvoiceType,
		Status:          models.InvoiceStatusConfirmed,
		PartyRole:       role,
		ClientId:        input.ClientId,
		StaffId:         rc.ActorId,
		InvoiceDate:     input.InvoiceDate,
		GrossAmount:     totals.GrossAmount,
		DiscountAmount:  totals.DiscountAmount,
		NetAmount:       totals.NetAmount,
		PreviousBalance: input.PreviousBalance,
		PaidAmount:      utils.Round2(input.PaidAmount),
		RemainingAmount: remaining,

		// Snapshots: written once, never touched again.
		InitialPaidAmount:      utils.Round2(input.PaidAmount),
		InitialRemainingAmount: remaining,

		Notes:     input.Notes,
		CreatedBy: rc.ActorId,
	}
	invoice.PaymentStatus = models.ComputePaymentStatus(invoice.PaidAmount, invoice.NetAmount)

	if err := models.CreateInvoiceRecord(tx, &invoice); err != nil {
		config.LogError(logger, "invoiceHelper.go", "insertInvoice", "CreateInvoiceRecord", input.InvoiceType, err)
		return nil, err
	}
	return &invoice, nil
}

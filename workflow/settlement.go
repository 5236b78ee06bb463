package workflow

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mmdatafocus/backoffice_backend/appctx"
	"github.com/mmdatafocus/backoffice_backend/config"
	"github.com/mmdatafocus/backoffice_backend/models"
	"github.com/mmdatafocus/backoffice_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

var validate = validator.New()

var tracer trace.Tracer = otel.Tracer("backoffice-workflow")

// NewSettlementItem is one requested invoice line.
type NewSettlementItem struct {
	ProductId      int             `json:"product_id" validate:"required,gt=0"`
	Quantity       decimal.Decimal `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TaxRate        decimal.Decimal `json:"tax_rate"`
	IsTaxInclusive bool            `json:"is_tax_inclusive"`
}

// NewInstallmentPlanInput carries the financing terms of an installment sale.
type NewInstallmentPlanInput struct {
	NumberOfInstallments int              `json:"number_of_installments" validate:"required,gt=0"`
	DownPayment          decimal.Decimal  `json:"down_payment"`
	InterestRate         decimal.Decimal  `json:"interest_rate"`
	RoundStep            *decimal.Decimal `json:"round_step"`
	StartDate            time.Time        `json:"start_date"`
}

// NewSettlement is the payload for creating or replacing a settlement
// document of any type.
type NewSettlement struct {
	InvoiceType models.InvoiceType `json:"invoice_type" validate:"required"`
	ClientId    int                `json:"client_id" validate:"required,gt=0"`
	InvoiceDate time.Time          `json:"invoice_date"`

	Items []NewSettlementItem `json:"items" validate:"required,min=1,dive"`

	InvoiceDiscount decimal.Decimal `json:"invoice_discount"`
	PreviousBalance decimal.Decimal `json:"previous_balance"`
	PaidAmount      decimal.Decimal `json:"paid_amount"`

	// Client-supplied totals, validated against server math when present.
	GrossAmount     *decimal.Decimal `json:"gross_amount"`
	NetAmount       *decimal.Decimal `json:"net_amount"`
	RemainingAmount *decimal.Decimal `json:"remaining_amount"`

	StaffBoxId *int   `json:"staff_box_id"`
	Notes      string `json:"notes"`

	Installment *NewInstallmentPlanInput `json:"installment"`
}

// SettlementResult is what a settlement operation hands back to transport.
type SettlementResult struct {
	Invoice *models.Invoice         `json:"invoice"`
	Plan    *models.InstallmentPlan `json:"plan"`
}

func (input *NewSettlement) validateInput(rc appctx.RequestContext) error {
	if !rc.Valid() {
		return errors.New("actor and company are required")
	}
	if err := validate.Struct(input); err != nil {
		return err
	}
	switch input.InvoiceType {
	case models.InvoiceTypeSale, models.InvoiceTypePurchase, models.InvoiceTypeInstallmentSale,
		models.InvoiceTypeReturnSale, models.InvoiceTypeReturnPurchase, models.InvoiceTypeService:
	default:
		return errors.New("invalid invoice type")
	}
	if input.InvoiceType == models.InvoiceTypeInstallmentSale && input.Installment == nil {
		return errors.New("installment terms are required")
	}
	for _, item := range input.Items {
		if item.Quantity.LessThanOrEqual(decimal.Zero) {
			return errors.New("item quantity must be positive")
		}
		if item.UnitPrice.LessThan(decimal.Zero) {
			return errors.New("item unit price must not be negative")
		}
	}
	return nil
}

// CreateSettlement posts a new settlement document. The whole operation,
// totals through cash routing, commits or rolls back as one transaction.
func CreateSettlement(ctx context.Context, rc appctx.RequestContext, input *NewSettlement) (*SettlementResult, error) {
	logger := config.GetLogger()
	ctx, span := tracer.Start(ctx, "CreateSettlement")
	defer span.End()

	if err := input.validateInput(rc); err != nil {
		return nil, err
	}
	if input.InvoiceDate.IsZero() {
		input.InvoiceDate = time.Now()
	}

	var result *SettlementResult
	db := config.GetDB()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := AcquireCompanyPostingLock(tx, rc.CompanyId); err != nil {
			config.LogError(logger, "settlement.go", "CreateSettlement", "AcquireCompanyPostingLock", rc.CompanyId, err)
			return err
		}
		defer ReleaseCompanyPostingLock(tx, rc.CompanyId)

		var err error
		switch input.InvoiceType {
		case models.InvoiceTypeInstallmentSale:
			result, err = createInstallmentSaleInvoice(tx, logger, rc, input)
		case models.InvoiceTypePurchase:
			result, err = createPurchaseInvoice(tx, logger, rc, input)
		case models.InvoiceTypeReturnSale, models.InvoiceTypeReturnPurchase:
			result, err = createReturnInvoice(tx, logger, rc, input)
		default:
			// sale and service share a path; service skips stock.
			result, err = createSaleInvoice(tx, logger, rc, input)
		}
		if err != nil {
			return err
		}

		_, err = models.RecordActivity(tx, rc.CompanyId, rc.ActorId, "invoice", result.Invoice.ID,
			models.ActivityActionCreated, nil, result.Invoice)
		if err != nil {
			config.LogError(logger, "settlement.go", "CreateSettlement", "RecordActivity", result.Invoice.ID, err)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	go DispatchPendingActivities(context.Background(), logger)
	return result, nil
}

// UpdateSettlement replaces a posted document with new content.
// Sale/purchase/service documents re-apply deltas in place; installment sales
// are canceled and recreated because their schedule cannot be patched.
func UpdateSettlement(ctx context.Context, rc appctx.RequestContext, invoiceId int, input *NewSettlement) (*SettlementResult, error) {
	logger := config.GetLogger()
	ctx, span := tracer.Start(ctx, "UpdateSettlement")
	defer span.End()

	if err := input.validateInput(rc); err != nil {
		return nil, err
	}
	if input.InvoiceDate.IsZero() {
		input.InvoiceDate = time.Now()
	}

	var result *SettlementResult
	db := config.GetDB()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := AcquireCompanyPostingLock(tx, rc.CompanyId); err != nil {
			config.LogError(logger, "settlement.go", "UpdateSettlement", "AcquireCompanyPostingLock", rc.CompanyId, err)
			return err
		}
		defer ReleaseCompanyPostingLock(tx, rc.CompanyId)

		invoice, err := models.FetchInvoiceForChange(tx, rc.CompanyId, invoiceId)
		if err != nil {
			config.LogError(logger, "settlement.go", "UpdateSettlement", "FetchInvoiceForChange", invoiceId, err)
			return err
		}
		if invoice.Status == models.InvoiceStatusCanceled {
			return utils.ErrorAlreadyCanceled
		}
		if invoice.InvoiceType != input.InvoiceType {
			return errors.New("invoice type cannot change")
		}
		oldInvoice := *invoice

		switch invoice.InvoiceType {
		case models.InvoiceTypeInstallmentSale:
			result, err = updateInstallmentSaleInvoice(tx, logger, rc, invoice, input)
		case models.InvoiceTypePurchase:
			result, err = updatePurchaseInvoice(tx, logger, rc, invoice, input)
		case models.InvoiceTypeReturnSale, models.InvoiceTypeReturnPurchase:
			result, err = updateReturnInvoice(tx, logger, rc, invoice, input)
		default:
			result, err = updateSaleInvoice(tx, logger, rc, invoice, input)
		}
		if err != nil {
			return err
		}

		_, err = models.RecordActivity(tx, rc.CompanyId, rc.ActorId, "invoice", result.Invoice.ID,
			models.ActivityActionUpdated, &oldInvoice, result.Invoice)
		if err != nil {
			config.LogError(logger, "settlement.go", "UpdateSettlement", "RecordActivity", result.Invoice.ID, err)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	go DispatchPendingActivities(context.Background(), logger)
	return result, nil
}

// CancelSettlement reverses a posted document: stock back, money back,
// schedule voided. Canceling twice fails with ErrorAlreadyCanceled.
func CancelSettlement(ctx context.Context, rc appctx.RequestContext, invoiceId int) (*models.Invoice, error) {
	logger := config.GetLogger()
	ctx, span := tracer.Start(ctx, "CancelSettlement")
	defer span.End()

	if !rc.Valid() {
		return nil, errors.New("actor and company are required")
	}

	var canceled *models.Invoice
	db := config.GetDB()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := AcquireCompanyPostingLock(tx, rc.CompanyId); err != nil {
			config.LogError(logger, "settlement.go", "CancelSettlement", "AcquireCompanyPostingLock", rc.CompanyId, err)
			return err
		}
		defer ReleaseCompanyPostingLock(tx, rc.CompanyId)

		invoice, err := models.FetchInvoiceForChange(tx, rc.CompanyId, invoiceId)
		if err != nil {
			config.LogError(logger, "settlement.go", "CancelSettlement", "FetchInvoiceForChange", invoiceId, err)
			return err
		}
		if invoice.Status == models.InvoiceStatusCanceled {
			return utils.ErrorAlreadyCanceled
		}
		oldInvoice := *invoice

		switch invoice.InvoiceType {
		case models.InvoiceTypeInstallmentSale:
			err = cancelInstallmentSaleInvoice(tx, logger, rc, invoice)
		case models.InvoiceTypePurchase:
			err = cancelPurchaseInvoice(tx, logger, rc, invoice)
		case models.InvoiceTypeReturnSale, models.InvoiceTypeReturnPurchase:
			err = cancelReturnInvoice(tx, logger, rc, invoice)
		default:
			err = cancelSaleInvoice(tx, logger, rc, invoice)
		}
		if err != nil {
			return err
		}

		canceled = invoice
		_, err = models.RecordActivity(tx, rc.CompanyId, rc.ActorId, "invoice", invoice.ID,
			models.ActivityActionCanceled, &oldInvoice, invoice)
		if err != nil {
			config.LogError(logger, "settlement.go", "CancelSettlement", "RecordActivity", invoice.ID, err)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	go DispatchPendingActivities(context.Background(), logger)
	return canceled, nil
}

// resolveParties loads the counter-party and tags the deal's party role.
func resolveParties(tx *gorm.DB, logger *logrus.Logger, rc appctx.RequestContext, clientId int) (*models.User, models.PartyRole, error) {
	var client models.User
	if err := tx.First(&client, clientId).Error; err != nil {
		config.LogError(logger, "settlement.go", "resolveParties", "FetchClient", clientId, err)
		return nil, "", utils.ErrorRecordNotFound
	}
	return &client, client.RoleToward(rc.ActorId), nil
}

package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/mmdatafocus/backoffice_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Invoice is the settlement document shared by all document types.
//
// InitialPaidAmount/InitialRemainingAmount snapshot the state at creation and
// are never updated afterwards; reconciliation and delta-updates rely on the
// live PaidAmount/RemainingAmount pair instead.
type Invoice struct {
	ID            int           `gorm:"primary_key" json:"id"`
	CompanyId     int           `gorm:"index;not null" json:"company_id"`
	InvoiceNumber string        `gorm:"uniqueIndex;size:50;not null" json:"invoice_number"`
	InvoiceType   InvoiceType   `gorm:"index;size:20;not null" json:"invoice_type" binding:"required"`
	Status        InvoiceStatus `gorm:"size:20;not null;default:'confirmed'" json:"status"`
	PaymentStatus PaymentStatus `gorm:"size:20;not null;default:'unpaid'" json:"payment_status"`
	PartyRole     PartyRole     `gorm:"size:20;not null;default:'counterparty'" json:"party_role"`

	// ClientId is the counter-party: buyer on sales, supplier on purchases.
	ClientId int `gorm:"index;not null" json:"client_id"`
	// StaffId is the acting employee whose box receives/pays cash.
	StaffId int `gorm:"index;not null" json:"staff_id"`

	InvoiceDate time.Time `gorm:"not null" json:"invoice_date"`

	GrossAmount     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"gross_amount"`
	DiscountAmount  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"discount_amount"`
	NetAmount       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"net_amount"`
	PreviousBalance decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"previous_balance"`
	PaidAmount      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"paid_amount"`
	RemainingAmount decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"remaining_amount"`

	InitialPaidAmount      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"initial_paid_amount"`
	InitialRemainingAmount decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"initial_remaining_amount"`

	Notes     string         `gorm:"type:text" json:"notes"`
	CreatedBy int            `gorm:"index;not null" json:"created_by"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at"`

	Items []InvoiceItem `gorm:"foreignKey:InvoiceId" json:"items"`
}

type InvoiceItem struct {
	ID        int `gorm:"primary_key" json:"id"`
	InvoiceId int `gorm:"index;not null" json:"invoice_id"`
	CompanyId int `gorm:"index;not null" json:"company_id"`
	ProductId int `gorm:"index;not null" json:"product_id"`

	Quantity       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"quantity"`
	UnitPrice      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"unit_price"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"discount_amount"`
	Subtotal       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"subtotal"`
	TaxRate        decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"tax_rate"`
	IsTaxInclusive *bool           `gorm:"not null;default:false" json:"is_tax_inclusive"`
	TaxAmount      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"tax_amount"`
	Total          decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total"`

	// Cost side, resolved at posting time.
	UnitCost  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"unit_cost"`
	TotalCost decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_cost"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at"`
}

// ComputePaymentStatus derives the payment status from paid vs net.
// Zero paid is unpaid even on a zero-net invoice.
func ComputePaymentStatus(paid decimal.Decimal, net decimal.Decimal) PaymentStatus {
	if paid.IsZero() {
		return PaymentStatusUnpaid
	}
	if paid.GreaterThan(net) {
		return PaymentStatusOverpaid
	}
	if paid.GreaterThanOrEqual(net) {
		return PaymentStatusPaid
	}
	return PaymentStatusPartiallyPaid
}

// UpdatePaymentStatus recomputes and persists the payment status plus the
// lifecycle status it implies.
func (inv *Invoice) UpdatePaymentStatus(tx *gorm.DB) error {
	ps := ComputePaymentStatus(inv.PaidAmount, inv.NetAmount)
	inv.PaymentStatus = ps

	updates := map[string]interface{}{"payment_status": ps}
	if inv.Status != InvoiceStatusCanceled && inv.Status != InvoiceStatusDraft {
		switch ps {
		case PaymentStatusPaid, PaymentStatusOverpaid:
			inv.Status = InvoiceStatusPaid
		case PaymentStatusPartiallyPaid:
			inv.Status = InvoiceStatusPartiallyPaid
		default:
			inv.Status = InvoiceStatusConfirmed
		}
		updates["status"] = inv.Status
	}
	return tx.Model(&Invoice{}).Where("id = ?", inv.ID).Updates(updates).Error
}

// ApplyPaidDelta shifts PaidAmount by delta, clamps RemainingAmount at zero
// and refreshes the payment status. Runs inside the caller's transaction.
func (inv *Invoice) ApplyPaidDelta(tx *gorm.DB, delta decimal.Decimal) error {
	inv.PaidAmount = utils.Round2(inv.PaidAmount.Add(delta))
	inv.RemainingAmount = utils.MaxZero(utils.Round2(inv.NetAmount.Sub(inv.PreviousBalance).Sub(inv.PaidAmount)))

	err := tx.Model(&Invoice{}).Where("id = ?", inv.ID).Updates(map[string]interface{}{
		"paid_amount":      inv.PaidAmount,
		"remaining_amount": inv.RemainingAmount,
	}).Error
	if err != nil {
		return err
	}
	return inv.UpdatePaymentStatus(tx)
}

// GenerateInvoiceNumber builds "<TYPE>-<yymmdd>-<companyId>-<serial>" with a
// per-company, per-type serial. Collisions under concurrency surface as MySQL
// duplicate-key errors (1062); callers retry via CreateInvoiceRecord.
func GenerateInvoiceNumber(tx *gorm.DB, companyId int, invoiceType InvoiceType, invoiceDate time.Time) (string, error) {
	var count int64
	err := tx.Model(&Invoice{}).Unscoped().
		Where("company_id = ? AND invoice_type = ?", companyId, invoiceType).
		Count(&count).Error
	if err != nil {
		return "", err
	}
	serial := count + 1
	return fmt.Sprintf("%s-%s-%d-%04d", invoiceType.Code(), invoiceDate.Format("060102"), companyId, serial), nil
}

// CreateInvoiceRecord inserts the invoice, retrying the serial on
// duplicate-key races.
func CreateInvoiceRecord(tx *gorm.DB, inv *Invoice) error {
	for attempt := 0; attempt < 3; attempt++ {
		number, err := GenerateInvoiceNumber(tx, inv.CompanyId, inv.InvoiceType, inv.InvoiceDate)
		if err != nil {
			return err
		}
		if attempt > 0 {
			number = fmt.Sprintf("%s-%d", number, attempt)
		}
		inv.InvoiceNumber = number

		err = tx.Create(inv).Error
		if err == nil {
			return nil
		}
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
			continue
		}
		return err
	}
	return errors.New("could not allocate invoice number")
}

// ResolveItemUnitCost fixes the cost side of one line at posting time.
// Purchase-side documents cost at the document's own unit price; sale-side
// documents cost at the newest known batch cost.
func ResolveItemUnitCost(tx *gorm.DB, invoiceType InvoiceType, companyId int, item *InvoiceItem) error {
	if invoiceType == InvoiceTypePurchase || invoiceType == InvoiceTypeReturnPurchase {
		item.UnitCost = item.UnitPrice
	} else {
		cost, err := LatestUnitCost(tx, companyId, item.ProductId)
		if err != nil {
			return err
		}
		item.UnitCost = cost
	}
	item.TotalCost = utils.Round2(item.Quantity.Mul(item.UnitCost))
	return nil
}

// FetchInvoiceForChange loads an invoice with items, scoped to the company.
func FetchInvoiceForChange(tx *gorm.DB, companyId int, invoiceId int) (*Invoice, error) {
	var inv Invoice
	err := tx.Preload("Items").
		Where("company_id = ?", companyId).
		First(&inv, invoiceId).Error
	if err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &inv, nil
}

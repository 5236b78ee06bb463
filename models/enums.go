package models

import (
	"database/sql/driver"
	"errors"
	"fmt"
)

type InvoiceType string

const (
	InvoiceTypeSale            InvoiceType = "sale"
	InvoiceTypePurchase        InvoiceType = "purchase"
	InvoiceTypeInstallmentSale InvoiceType = "installment_sale"
	InvoiceTypeReturnSale      InvoiceType = "return_sale"
	InvoiceTypeReturnPurchase  InvoiceType = "return_purchase"
	InvoiceTypeService         InvoiceType = "service"
)

// Code returns the short prefix used in invoice numbers.
func (t InvoiceType) Code() string {
	switch t {
	case InvoiceTypeSale:
		return "SAL"
	case InvoiceTypePurchase:
		return "PUR"
	case InvoiceTypeInstallmentSale:
		return "INS"
	case InvoiceTypeReturnSale:
		return "RSA"
	case InvoiceTypeReturnPurchase:
		return "RPU"
	case InvoiceTypeService:
		return "SRV"
	default:
		return "INV"
	}
}

// MovesStock reports whether invoices of this type touch inventory.
func (t InvoiceType) MovesStock() bool {
	return t != InvoiceTypeService
}

// IsInbound reports whether items of this type flow INTO our stock.
func (t InvoiceType) IsInbound() bool {
	return t == InvoiceTypePurchase || t == InvoiceTypeReturnSale
}

type InvoiceStatus string

const (
	InvoiceStatusDraft         InvoiceStatus = "draft"
	InvoiceStatusConfirmed     InvoiceStatus = "confirmed"
	InvoiceStatusPartiallyPaid InvoiceStatus = "partially_paid"
	InvoiceStatusPaid          InvoiceStatus = "paid"
	InvoiceStatusOverdue       InvoiceStatus = "overdue"
	InvoiceStatusCanceled      InvoiceStatus = "canceled"
)

type PaymentStatus string

const (
	PaymentStatusUnpaid        PaymentStatus = "unpaid"
	PaymentStatusPartiallyPaid PaymentStatus = "partially_paid"
	PaymentStatusPaid          PaymentStatus = "paid"
	PaymentStatusOverpaid      PaymentStatus = "overpaid"
)

type InstallmentStatus string

const (
	InstallmentStatusPending  InstallmentStatus = "pending"
	InstallmentStatusPartial  InstallmentStatus = "partial"
	InstallmentStatusPaid     InstallmentStatus = "paid"
	InstallmentStatusCanceled InstallmentStatus = "canceled"
)

type PlanStatus string

const (
	PlanStatusPending       PlanStatus = "pending"
	PlanStatusPartiallyPaid PlanStatus = "partially_paid"
	PlanStatusPaid          PlanStatus = "paid"
	PlanStatusCanceled      PlanStatus = "canceled"
)

type TransactionType string

const (
	TransactionTypeDeposit     TransactionType = "deposit"
	TransactionTypeWithdrawal  TransactionType = "withdrawal"
	TransactionTypeTransferIn  TransactionType = "transfer_in"
	TransactionTypeTransferOut TransactionType = "transfer_out"

	// Self-dealing entries are log-only: they snapshot balances but never
	// move money.
	TransactionTypeSelfDebt      TransactionType = "self_debt"
	TransactionTypeSelfRepayment TransactionType = "self_repayment"
)

// PartyRole discriminates who the counter-party of a settlement is.
type PartyRole string

const (
	PartyRoleSelf         PartyRole = "self"
	PartyRoleCounterparty PartyRole = "counterparty"
)

func (r PartyRole) Valid() bool {
	return r == PartyRoleSelf || r == PartyRoleCounterparty
}

func (r *PartyRole) Scan(value interface{}) error {
	switch v := value.(type) {
	case []byte:
		*r = PartyRole(v)
	case string:
		*r = PartyRole(v)
	default:
		return fmt.Errorf("unsupported party role value %v", value)
	}
	if !r.Valid() {
		return errors.New("invalid party role")
	}
	return nil
}

func (r PartyRole) Value() (driver.Value, error) {
	if !r.Valid() {
		return nil, errors.New("invalid party role")
	}
	return string(r), nil
}

type DiscountType string

const (
	DiscountTypePercent DiscountType = "P"
	DiscountTypeFixed   DiscountType = "F"
)

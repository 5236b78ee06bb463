package utils

import "errors"

var ErrorRecordNotFound = errors.New("record not found")

// Settlement error taxonomy. Workflows return these (optionally wrapped with
// %w) so callers can branch with errors.Is.
var (
	ErrorInsufficientStock = errors.New("insufficient stock")
	ErrorCashBoxNotFound   = errors.New("cash box not found")
	ErrorNoActiveCompany   = errors.New("user has no active company")
	ErrorTotalsMismatch    = errors.New("invoice totals mismatch")
	ErrorAlreadyCanceled   = errors.New("invoice already canceled")
	ErrorPlanNotFound      = errors.New("installment plan not found")
	ErrorInsufficientFunds = errors.New("insufficient funds")
	ErrorDownPaymentTooBig = errors.New("down payment exceeds plan total")
)

func ErrorPanic(err error) {
	if err != nil {
		panic(err)
	}
}

package models

import (
	"log"

	"github.com/mmdatafocus/backoffice_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&User{}, &Company{},
		&CashBox{}, &Transaction{},
		&Product{}, &Stock{},
		&PaymentMethod{},
		&Invoice{}, &InvoiceItem{},
		&InstallmentPlan{}, &Installment{},
		&InstallmentPayment{}, &InstallmentPaymentDetail{},
		&ActivityLog{},
	)
	if err != nil {
		log.Fatal(err)
	}
}

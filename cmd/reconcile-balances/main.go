// reconcile-balances re-derives installment, plan, invoice and customer cash
// box state from payment details and reports every drift.
//
// Dry-run by default. Writes require both the -apply flag and
// RECONCILE_APPLY=true, so a fat-fingered flag alone cannot mutate data.
//
// Usage:
//
//	go run ./cmd/reconcile-balances               # all companies, dry run
//	go run ./cmd/reconcile-balances -company 3    # one company
//	RECONCILE_APPLY=true go run ./cmd/reconcile-balances -apply
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/mmdatafocus/backoffice_backend/config"
	"github.com/mmdatafocus/backoffice_backend/models"
	"github.com/mmdatafocus/backoffice_backend/utils"
	"github.com/mmdatafocus/backoffice_backend/workflow"
)

func main() {
	companyFlag := flag.Int("company", 0, "reconcile only this company id (default: all)")
	applyFlag := flag.Bool("apply", false, "write fixes instead of reporting them")
	flag.Parse()

	logger := config.GetLogger()
	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized. Set DB_* env vars.")
		os.Exit(1)
	}

	apply := *applyFlag && config.ReconciliationApplyEnabled()
	if *applyFlag && !apply {
		fmt.Println("-apply given but RECONCILE_APPLY is not enabled; running dry")
	}

	ctx := utils.SetIsAdminInContext(context.Background(), true)

	var companyIds []int
	if *companyFlag > 0 {
		companyIds = []int{*companyFlag}
	} else {
		err := db.WithContext(ctx).Model(&models.Company{}).
			Where("is_active = ?", true).
			Pluck("id", &companyIds).Error
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to list companies: %v\n", err)
			os.Exit(1)
		}
	}

	exitCode := 0
	totalFixes := 0
	for _, companyId := range companyIds {
		report, err := workflow.ReconcileCompany(ctx, logger, companyId, apply)
		if err != nil {
			fmt.Fprintf(os.Stderr, "company %d: reconcile failed: %v\n", companyId, err)
			exitCode = 1
			continue
		}
		for _, fix := range report.Fixes {
			fmt.Printf("company=%d %s id=%d %s: stored=%s derived=%s delta=%s applied=%t\n",
				companyId, fix.Entity, fix.EntityId, fix.Field, fix.Stored, fix.Derived, fix.Delta, fix.Applied)
		}
		totalFixes += len(report.Fixes)
	}

	mode := "dry-run"
	if apply {
		mode = "applied"
	}
	fmt.Printf("reconcile finished: companies=%d drifts=%d mode=%s\n", len(companyIds), totalFixes, mode)
	os.Exit(exitCode)
}

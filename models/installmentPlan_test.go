package models

import (
	"strings"
	"testing"

	"gorm.io/gorm"
	"gorm.io/gorm/utils/tests"
)

// dryRunDB builds statements without executing them, capturing the generated
// query so tests can assert on its shape.
func dryRunDB(t *testing.T, capturedSQL *string, capturedVars *[]interface{}) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(tests.DummyDialector{}, &gorm.Config{DryRun: true})
	if err != nil {
		t.Fatalf("open dry-run db: %v", err)
	}
	err = db.Callback().Query().After("gorm:query").Register("capture_query", func(tx *gorm.DB) {
		*capturedSQL = tx.Statement.SQL.String()
		*capturedVars = tx.Statement.Vars
	})
	if err != nil {
		t.Fatalf("register capture callback: %v", err)
	}
	return db
}

func TestFetchPlanForChangeScopesToCompany(t *testing.T) {
	var capturedSQL string
	var capturedVars []interface{}
	db := dryRunDB(t, &capturedSQL, &capturedVars)

	_, _ = FetchPlanForChange(db, 7, 42)

	if !strings.Contains(capturedSQL, "company_id") {
		t.Fatalf("plan lookup is not tenant scoped: %s", capturedSQL)
	}
	if !strings.Contains(capturedSQL, "status") {
		t.Errorf("plan lookup does not exclude canceled plans: %s", capturedSQL)
	}
	foundCompany := false
	foundPlan := false
	for _, v := range capturedVars {
		if v == 7 {
			foundCompany = true
		}
		if v == 42 {
			foundPlan = true
		}
	}
	if !foundCompany || !foundPlan {
		t.Errorf("bound vars = %v, want company 7 and plan 42", capturedVars)
	}
}

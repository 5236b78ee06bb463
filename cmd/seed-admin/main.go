// seed-admin creates or updates the back-office admin user, a default company
// and the admin's cash box in it.
//
// Usage:
//
//	DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/seed-admin
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/mmdatafocus/backoffice_backend/config"
	"github.com/mmdatafocus/backoffice_backend/models"
	"github.com/mmdatafocus/backoffice_backend/utils"
	"gorm.io/gorm"
)

const (
	adminUsername = "backofficeAdmin"
	adminName     = "Back Office Admin"
	companyName   = "Head Office"
)

func main() {
	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}
	models.MigrateTable()

	// Seeding runs unscoped; there is no tenant yet.
	ctx = utils.SetIsAdminInContext(ctx, true)

	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if password == "" {
		fmt.Fprintln(os.Stderr, "SEED_ADMIN_PASSWORD is required")
		os.Exit(1)
	}
	hashed, err := utils.HashPassword(password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to hash password: %v\n", err)
		os.Exit(1)
	}

	var company models.Company
	err = db.WithContext(ctx).Where("name = ?", companyName).First(&company).Error
	if err == gorm.ErrRecordNotFound {
		created, err := models.CreateCompany(ctx, &models.NewCompany{Name: companyName})
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create company: %v\n", err)
			os.Exit(1)
		}
		company = *created
		fmt.Printf("Created company %q (id=%d)\n", companyName, company.ID)
	} else if err != nil {
		fmt.Fprintf(os.Stderr, "failed to lookup company: %v\n", err)
		os.Exit(1)
	}

	var user models.User
	err = db.WithContext(ctx).Where("username = ?", adminUsername).First(&user).Error
	if err == gorm.ErrRecordNotFound {
		user = models.User{
			Name:     adminName,
			Username: adminUsername,
			Password: string(hashed),
			IsStaff:  utils.NewTrue(),
			IsAdmin:  utils.NewTrue(),
			IsActive: utils.NewTrue(),
		}
		if err := db.WithContext(ctx).Create(&user).Error; err != nil {
			fmt.Fprintf(os.Stderr, "failed to create admin user: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Created admin user %q (id=%d)\n", adminUsername, user.ID)
	} else if err != nil {
		fmt.Fprintf(os.Stderr, "failed to lookup user: %v\n", err)
		os.Exit(1)
	} else {
		err = db.WithContext(ctx).Model(&models.User{}).Where("id = ?", user.ID).Updates(map[string]any{
			"password":  string(hashed),
			"name":      adminName,
			"is_staff":  true,
			"is_admin":  true,
			"is_active": true,
		}).Error
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to update admin user: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Updated admin user %q (id=%d)\n", adminUsername, user.ID)
	}

	if err := models.AttachUserToCompany(ctx, user.ID, company.ID); err != nil {
		fmt.Fprintf(os.Stderr, "failed to attach admin to company: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Admin attached to company %d with default cash box\n", company.ID)
}

package models

import (
	"context"
	"errors"
	"time"

	"github.com/mmdatafocus/backoffice_backend/config"
	"github.com/mmdatafocus/backoffice_backend/utils"
)

type User struct {
	ID              int        `gorm:"primary_key" json:"id"`
	Name            string     `gorm:"index;size:100;not null" json:"name" binding:"required"`
	Username        string     `gorm:"uniqueIndex;size:50;not null" json:"username" binding:"required"`
	Email           string     `gorm:"size:100" json:"email"`
	Phone           string     `gorm:"size:30" json:"phone"`
	Password        string     `gorm:"size:100;not null" json:"-"`
	IsStaff         *bool      `gorm:"not null;default:false" json:"is_staff"`
	IsAdmin         *bool      `gorm:"not null;default:false" json:"is_admin"`
	ActiveCompanyId *int       `json:"active_company_id"`
	IsActive        *bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewUser struct {
	Name            string `json:"name" binding:"required"`
	Username        string `json:"username" binding:"required"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	Password        string `json:"password" binding:"required"`
	IsStaff         bool   `json:"is_staff"`
	ActiveCompanyId *int   `json:"active_company_id"`
}

func (input *NewUser) validate(ctx context.Context, id int) error {
	if input.Email != "" && !utils.IsValidEmail(input.Email) {
		return errors.New("invalid email")
	}
	if input.Phone != "" {
		if err := utils.ValidatePhoneNumber(input.Phone, utils.CountryCode); err != nil {
			return errors.New("invalid phone number")
		}
	}
	// username
	if err := utils.ValidateUnique[User](ctx, 0, "username", input.Username, id); err != nil {
		return err
	}
	return nil
}

func CreateUser(ctx context.Context, input *NewUser) (*User, error) {

	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	hashed, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := User{
		Name:            input.Name,
		Username:        input.Username,
		Email:           input.Email,
		Phone:           input.Phone,
		Password:        string(hashed),
		IsStaff:         &input.IsStaff,
		ActiveCompanyId: input.ActiveCompanyId,
		IsActive:        utils.NewTrue(),
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func GetUser(ctx context.Context, id int) (*User, error) {
	return utils.FetchSingleModel[User](ctx, id)
}

// ActiveCompany returns the user's active tenant or ErrorNoActiveCompany.
func (u *User) ActiveCompany() (int, error) {
	if u.ActiveCompanyId == nil || *u.ActiveCompanyId <= 0 {
		return 0, utils.ErrorNoActiveCompany
	}
	return *u.ActiveCompanyId, nil
}

// RoleToward reports whether a settlement with this user as counter-party is
// a self-deal for the acting staff.
func (u *User) RoleToward(actorId int) PartyRole {
	if u.ID == actorId {
		return PartyRoleSelf
	}
	return PartyRoleCounterparty
}

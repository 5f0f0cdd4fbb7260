package users

import (
	"github.com/google/uuid"

	"github.com/tillpoint/tillpoint-backend/pkg/db/models"
	"github.com/tillpoint/tillpoint-backend/pkg/enums"
)

// CreateUserDTO carries the fields accepted when creating a user.
type CreateUserDTO struct {
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string
	Phone        *string
	Role         enums.AccountRole
}

// ToModel builds the persistence model.
func (d CreateUserDTO) ToModel() *models.User {
	role := d.Role
	if !role.IsValid() {
		role = enums.AccountRoleCustomer
	}
	return &models.User{
		ID:           uuid.New(),
		Email:        d.Email,
		FirstName:    d.FirstName,
		LastName:     d.LastName,
		PasswordHash: d.PasswordHash,
		Phone:        d.Phone,
		Role:         role,
		IsActive:     true,
	}
}

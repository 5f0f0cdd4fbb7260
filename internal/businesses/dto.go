package businesses

import (
	"github.com/google/uuid"

	"github.com/tillpoint/tillpoint-backend/pkg/db/models"
	"github.com/tillpoint/tillpoint-backend/pkg/enums"
)

// CreateBusinessDTO captures a new tenant registration.
type CreateBusinessDTO struct {
	Name    string             `json:"name" validate:"required,max=200"`
	Type    enums.BusinessType `json:"type" validate:"required"`
	Phone   *string            `json:"phone" validate:"omitempty,max=32"`
	Email   *string            `json:"email" validate:"omitempty,email"`
	OwnerID uuid.UUID          `json:"-" validate:"required"`
}

// ToModel converts the DTO into a Business row. The slug is assigned by the
// service, not the caller.
func (d CreateBusinessDTO) ToModel() *models.Business {
	return &models.Business{
		Name:     d.Name,
		Type:     d.Type,
		Status:   enums.BusinessStatusActive,
		OwnerID:  d.OwnerID,
		IsActive: true,
		Phone:    d.Phone,
		Email:    d.Email,
	}
}

// UpdateBusinessInput carries a partial update; nil fields are untouched.
type UpdateBusinessInput struct {
	Name   *string               `json:"name" validate:"omitempty,max=200"`
	Phone  *string               `json:"phone" validate:"omitempty,max=32"`
	Email  *string               `json:"email" validate:"omitempty,email"`
	Status *enums.BusinessStatus `json:"status"`
}

// AddMemberInput invites an existing user into the business.
type AddMemberInput struct {
	UserID  uuid.UUID        `json:"user_id" validate:"required"`
	Role    enums.MemberRole `json:"role" validate:"required"`
	AddedBy uuid.UUID        `json:"-" validate:"required"`
}

// CreateLocationDTO registers a store or warehouse under the business.
type CreateLocationDTO struct {
	BusinessID uuid.UUID `json:"-" validate:"required"`
	Code       string    `json:"code" validate:"required,max=32"`
	Name       string    `json:"name" validate:"required,max=200"`
	IsRetail   bool      `json:"is_retail"`
}

// ToModel converts the DTO into a Location row.
func (d CreateLocationDTO) ToModel() *models.Location {
	return &models.Location{
		BusinessID: d.BusinessID,
		Code:       d.Code,
		Name:       d.Name,
		IsRetail:   d.IsRetail,
		IsActive:   true,
	}
}

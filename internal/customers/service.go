package customers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tillpoint/tillpoint-backend/pkg/db/models"
	pkgerrors "github.com/tillpoint/tillpoint-backend/pkg/errors"
	"github.com/tillpoint/tillpoint-backend/pkg/pagination"
)

type customerRepository interface {
	Create(ctx context.Context, customer *models.Customer) error
	FindByID(ctx context.Context, businessID, customerID uuid.UUID) (*models.Customer, error)
	FindByPhone(ctx context.Context, businessID uuid.UUID, phone string) (*models.Customer, error)
	List(ctx context.Context, businessID uuid.UUID, search string, params pagination.Params) ([]models.Customer, string, error)
	Update(ctx context.Context, customer *models.Customer) error
}

// Service exposes customer operations for the POS and back office.
type Service interface {
	Create(ctx context.Context, dto CreateCustomerDTO) (*models.Customer, error)
	GetByID(ctx context.Context, businessID, customerID uuid.UUID) (*models.Customer, error)
	// LookupOrCreate finds a customer by phone, creating a minimal profile
	// when none exists. Used at the till mid-sale.
	LookupOrCreate(ctx context.Context, businessID uuid.UUID, phone, name string) (*models.Customer, error)
	List(ctx context.Context, businessID uuid.UUID, search string, params pagination.Params) ([]models.Customer, string, error)
	Update(ctx context.Context, businessID, customerID uuid.UUID, input UpdateCustomerInput) (*models.Customer, error)
}

type service struct {
	repo customerRepository
}

// NewService builds the customers service.
func NewService(repo customerRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("customers repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, dto CreateCustomerDTO) (*models.Customer, error) {
	dto.Name = strings.TrimSpace(dto.Name)
	if dto.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if dto.CreditLimit.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "credit limit must not be negative")
	}

	customer := dto.ToModel()
	if err := s.repo.Create(ctx, customer); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create customer")
	}
	return customer, nil
}

func (s *service) GetByID(ctx context.Context, businessID, customerID uuid.UUID) (*models.Customer, error) {
	customer, err := s.repo.FindByID(ctx, businessID, customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
	}
	return customer, nil
}

func (s *service) LookupOrCreate(ctx context.Context, businessID uuid.UUID, phone, name string) (*models.Customer, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "phone is required")
	}

	customer, err := s.repo.FindByPhone(ctx, businessID, phone)
	if err == nil {
		return customer, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup customer")
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = phone
	}
	return s.Create(ctx, CreateCustomerDTO{
		BusinessID: businessID,
		Name:       name,
		Phone:      &phone,
	})
}

func (s *service) List(ctx context.Context, businessID uuid.UUID, search string, params pagination.Params) ([]models.Customer, string, error) {
	rows, next, err := s.repo.List(ctx, businessID, search, params)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list customers")
	}
	return rows, next, nil
}

func (s *service) Update(ctx context.Context, businessID, customerID uuid.UUID, input UpdateCustomerInput) (*models.Customer, error) {
	customer, err := s.GetByID(ctx, businessID, customerID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name must not be empty")
		}
		customer.Name = name
	}
	if input.Email != nil {
		customer.Email = input.Email
	}
	if input.Phone != nil {
		customer.Phone = input.Phone
	}
	if input.CreditLimit != nil {
		if input.CreditLimit.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "credit limit must not be negative")
		}
		customer.CreditLimit = *input.CreditLimit
	}
	if input.IsActive != nil {
		customer.IsActive = *input.IsActive
	}

	if err := s.repo.Update(ctx, customer); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update customer")
	}
	return customer, nil
}

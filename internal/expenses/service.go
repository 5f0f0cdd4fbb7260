package expenses

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

type expenseRepository interface {
	Create(ctx context.Context, expense *models.Expense) error
	FindByID(ctx context.Context, businessID, expenseID uuid.UUID) (*models.Expense, error)
	List(ctx context.Context, businessID uuid.UUID, filter ListFilter, params pagination.Params) ([]models.Expense, string, error)
	Update(ctx context.Context, expense *models.Expense) error
	Delete(ctx context.Context, businessID, expenseID uuid.UUID) (bool, error)
}

// Service exposes expense tracking operations.
type Service interface {
	Create(ctx context.Context, dto CreateExpenseDTO) (*models.Expense, error)
	GetByID(ctx context.Context, businessID, expenseID uuid.UUID) (*models.Expense, error)
	List(ctx context.Context, businessID uuid.UUID, filter ListFilter, params pagination.Params) ([]models.Expense, string, error)
	Update(ctx context.Context, businessID, expenseID uuid.UUID, input UpdateExpenseInput) (*models.Expense, error)
	Delete(ctx context.Context, businessID, expenseID uuid.UUID) error
}

type service struct {
	repo expenseRepository
}

// NewService builds the expenses service.
func NewService(repo expenseRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("expenses repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, dto CreateExpenseDTO) (*models.Expense, error) {
	dto.Description = strings.TrimSpace(dto.Description)
	if dto.Description == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "description is required")
	}
	if !dto.Category.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("unknown expense category %q", dto.Category))
	}
	if !dto.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}

	expense := dto.ToModel()
	if err := s.repo.Create(ctx, expense); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create expense")
	}
	return expense, nil
}

func (s *service) GetByID(ctx context.Context, businessID, expenseID uuid.UUID) (*models.Expense, error) {
	expense, err := s.repo.FindByID(ctx, businessID, expenseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "expense not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load expense")
	}
	return expense, nil
}

func (s *service) List(ctx context.Context, businessID uuid.UUID, filter ListFilter, params pagination.Params) ([]models.Expense, string, error) {
	rows, next, err := s.repo.List(ctx, businessID, filter, params)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list expenses")
	}
	return rows, next, nil
}

func (s *service) Update(ctx context.Context, businessID, expenseID uuid.UUID, input UpdateExpenseInput) (*models.Expense, error) {
	expense, err := s.GetByID(ctx, businessID, expenseID)
	if err != nil {
		return nil, err
	}

	if input.Category != nil {
		if !input.Category.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("unknown expense category %q", *input.Category))
		}
		expense.Category = *input.Category
	}
	if input.Description != nil {
		desc := strings.TrimSpace(*input.Description)
		if desc == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "description must not be empty")
		}
		expense.Description = desc
	}
	if input.Amount != nil {
		if !input.Amount.IsPositive() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
		}
		expense.Amount = *input.Amount
	}
	if input.IncurredAt != nil {
		expense.IncurredAt = *input.IncurredAt
	}

	if err := s.repo.Update(ctx, expense); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update expense")
	}
	return expense, nil
}

func (s *service) Delete(ctx context.Context, businessID, expenseID uuid.UUID) error {
	ok, err := s.repo.Delete(ctx, businessID, expenseID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete expense")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "expense not found")
	}
	return nil
}

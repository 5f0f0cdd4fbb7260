package products

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/tillpoint/tillpoint-backend/pkg/db/models"
	pkgerrors "github.com/tillpoint/tillpoint-backend/pkg/errors"
	"github.com/tillpoint/tillpoint-backend/pkg/pagination"
)

type productRepository interface {
	Create(ctx context.Context, dto CreateProductDTO) (*models.Product, error)
	FindByID(ctx context.Context, businessID, productID uuid.UUID) (*models.Product, error)
	FindBySKU(ctx context.Context, businessID uuid.UUID, sku string) (*models.Product, error)
	FindActiveByIDs(ctx context.Context, businessID uuid.UUID, ids []uuid.UUID) ([]models.Product, error)
	List(ctx context.Context, businessID uuid.UUID, filter ListFilter, params pagination.Params) ([]models.Product, string, error)
	Update(ctx context.Context, product *models.Product) error
	Deactivate(ctx context.Context, businessID, productID uuid.UUID) (bool, error)
}

// Service exposes the product catalog operations the POS needs.
type Service interface {
	Create(ctx context.Context, dto CreateProductDTO) (*models.Product, error)
	GetByID(ctx context.Context, businessID, productID uuid.UUID) (*models.Product, error)
	List(ctx context.Context, businessID uuid.UUID, filter ListFilter, params pagination.Params) ([]models.Product, string, error)
	Update(ctx context.Context, businessID, productID uuid.UUID, input UpdateProductInput) (*models.Product, error)
	Deactivate(ctx context.Context, businessID, productID uuid.UUID) error
}

type service struct {
	repo productRepository
}

// NewService builds the products service.
func NewService(repo productRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("products repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, dto CreateProductDTO) (*models.Product, error) {
	dto.SKU = strings.TrimSpace(strings.ToUpper(dto.SKU))
	dto.Name = strings.TrimSpace(dto.Name)
	if dto.SKU == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sku is required")
	}
	if dto.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if dto.RetailPrice.IsNegative() || dto.WholesalePrice.IsNegative() || dto.CostPrice.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "prices must not be negative")
	}

	product, err := s.repo.Create(ctx, dto)
	if err != nil {
		if pkgerrors.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict,
				fmt.Sprintf("sku %s already exists for this business", dto.SKU))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}
	return product, nil
}

func (s *service) GetByID(ctx context.Context, businessID, productID uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, businessID, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

func (s *service) List(ctx context.Context, businessID uuid.UUID, filter ListFilter, params pagination.Params) ([]models.Product, string, error) {
	rows, next, err := s.repo.List(ctx, businessID, filter, params)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return rows, next, nil
}

func (s *service) Update(ctx context.Context, businessID, productID uuid.UUID, input UpdateProductInput) (*models.Product, error) {
	product, err := s.GetByID(ctx, businessID, productID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name must not be empty")
		}
		product.Name = name
	}
	if input.Description != nil {
		product.Description = input.Description
	}
	if input.Category != nil {
		product.Category = input.Category
	}
	if input.Barcode != nil {
		product.Barcode = input.Barcode
	}
	if input.Unit != nil {
		product.Unit = *input.Unit
	}
	if input.RetailPrice != nil {
		if input.RetailPrice.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "retail price must not be negative")
		}
		product.RetailPrice = *input.RetailPrice
	}
	if input.WholesalePrice != nil {
		if input.WholesalePrice.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "wholesale price must not be negative")
		}
		product.WholesalePrice = *input.WholesalePrice
	}
	if input.CostPrice != nil {
		product.CostPrice = *input.CostPrice
	}
	if input.TaxRate != nil {
		product.TaxRate = *input.TaxRate
	}
	if input.MinStockLevel != nil {
		product.MinStockLevel = *input.MinStockLevel
	}
	if input.Tags != nil {
		product.Tags = pq.StringArray(*input.Tags)
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}

	if err := s.repo.Update(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}
	return product, nil
}

func (s *service) Deactivate(ctx context.Context, businessID, productID uuid.UUID) error {
	ok, err := s.repo.Deactivate(ctx, businessID, productID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate product")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return nil
}

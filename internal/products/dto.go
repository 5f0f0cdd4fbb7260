package products

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/tillpoint/tillpoint-backend/pkg/db/models"
)

// CreateProductDTO carries the fields accepted when creating a product.
type CreateProductDTO struct {
	BusinessID     uuid.UUID
	SKU            string
	Name           string
	Description    *string
	Category       *string
	Barcode        *string
	Unit           string
	RetailPrice    decimal.Decimal
	WholesalePrice decimal.Decimal
	CostPrice      decimal.Decimal
	TaxRate        decimal.Decimal
	MinStockLevel  int
	Tags           []string
}

// ToModel builds the persistence model.
func (d CreateProductDTO) ToModel() *models.Product {
	unit := d.Unit
	if unit == "" {
		unit = "unit"
	}
	return &models.Product{
		ID:             uuid.New(),
		BusinessID:     d.BusinessID,
		SKU:            d.SKU,
		Name:           d.Name,
		Description:    d.Description,
		Category:       d.Category,
		Barcode:        d.Barcode,
		Unit:           unit,
		RetailPrice:    d.RetailPrice,
		WholesalePrice: d.WholesalePrice,
		CostPrice:      d.CostPrice,
		TaxRate:        d.TaxRate,
		MinStockLevel:  d.MinStockLevel,
		Tags:           pq.StringArray(d.Tags),
		IsActive:       true,
	}
}

// UpdateProductInput captures the mutable product fields; nil means leave
// untouched.
type UpdateProductInput struct {
	Name           *string
	Description    *string
	Category       *string
	Barcode        *string
	Unit           *string
	RetailPrice    *decimal.Decimal
	WholesalePrice *decimal.Decimal
	CostPrice      *decimal.Decimal
	TaxRate        *decimal.Decimal
	MinStockLevel  *int
	Tags           *[]string
	IsActive       *bool
}

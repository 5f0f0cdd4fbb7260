package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Product represents one sellable catalog entry for a business. Stock is not
// stored here; per-location quantities live in Inventory rows.
type Product struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BusinessID     uuid.UUID       `gorm:"column:business_id;type:uuid;not null;uniqueIndex:ux_products_sku"`
	SKU            string          `gorm:"column:sku;not null;uniqueIndex:ux_products_sku"`
	Name           string          `gorm:"column:name;not null"`
	Description    *string         `gorm:"column:description"`
	Category       *string         `gorm:"column:category"`
	Barcode        *string         `gorm:"column:barcode"`
	Unit           string          `gorm:"column:unit;not null;default:'unit'"`
	RetailPrice    decimal.Decimal `gorm:"column:retail_price;type:numeric(12,2);not null"`
	WholesalePrice decimal.Decimal `gorm:"column:wholesale_price;type:numeric(12,2);not null"`
	CostPrice      decimal.Decimal `gorm:"column:cost_price;type:numeric(12,2);not null;default:0"`
	TaxRate        decimal.Decimal `gorm:"column:tax_rate;type:numeric(5,2);not null;default:0"`
	MinStockLevel  int             `gorm:"column:min_stock_level;not null;default:0"`
	Tags           pq.StringArray  `gorm:"column:tags;type:text[];default:ARRAY[]::text[]"`
	IsActive       bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

package orders

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tillpoint/tillpoint-backend/pkg/enums"
)

// SaleItemInput is one requested line of a sale.
type SaleItemInput struct {
	ProductID uuid.UUID
	Quantity  int
}

// CreateSaleInput carries everything needed to assemble one sale.
type CreateSaleInput struct {
	BusinessID    uuid.UUID
	LocationID    uuid.UUID
	CashierID     uuid.UUID
	CustomerID    *uuid.UUID
	Items         []SaleItemInput
	DiscountTotal decimal.Decimal
	PaymentMethod enums.PaymentMethod
	AmountPaid    decimal.Decimal
	Notes         *string
}

// RecordPaymentInput appends money received against an existing order.
type RecordPaymentInput struct {
	BusinessID uuid.UUID
	OrderID    uuid.UUID
	Method     enums.PaymentMethod
	Amount     decimal.Decimal
	Reference  *string
	ReceivedBy uuid.UUID
}

package orders

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tillpoint/tillpoint-backend/pkg/db/models"
	"github.com/tillpoint/tillpoint-backend/pkg/enums"
	"github.com/tillpoint/tillpoint-backend/pkg/pagination"
)

// Repository defines persistence operations for orders, items, and payments.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) error
	CreateOrderItems(ctx context.Context, items []models.OrderItem) error
	CreatePayment(ctx context.Context, payment *models.Payment) error
	FindByID(ctx context.Context, businessID, orderID uuid.UUID) (*models.Order, error)
	ListByBusiness(ctx context.Context, businessID uuid.UUID, params pagination.Params, filters OrderFilters) ([]models.Order, string, error)
	SumPaidAmount(ctx context.Context, orderID uuid.UUID) (decimal.Decimal, error)
	UpdatePaymentStatus(ctx context.Context, orderID uuid.UUID, status enums.PaymentStatus) error
	UpdateOrder(ctx context.Context, order *models.Order) error
}

// OrderFilters narrows an order listing.
type OrderFilters struct {
	LocationID    *uuid.UUID
	CustomerID    *uuid.UUID
	Status        *enums.OrderStatus
	PaymentStatus *enums.PaymentStatus
}

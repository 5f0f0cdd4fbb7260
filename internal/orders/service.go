package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/tillpoint/tillpoint-backend/internal/inventory"
	"github.com/tillpoint/tillpoint-backend/internal/subscriptions"
	"github.com/tillpoint/tillpoint-backend/pkg/db/models"
	"github.com/tillpoint/tillpoint-backend/pkg/enums"
	pkgerrors "github.com/tillpoint/tillpoint-backend/pkg/errors"
	"github.com/tillpoint/tillpoint-backend/pkg/pagination"
)

type inventoryLedger interface {
	ApplyStockChange(ctx context.Context, tx *gorm.DB, change inventory.StockChange) (*models.InventoryMovement, error)
	GetStock(ctx context.Context, businessID, productID, locationID uuid.UUID) (*models.Inventory, error)
}

type productProvider interface {
	FindActiveByIDs(ctx context.Context, businessID uuid.UUID, ids []uuid.UUID) ([]models.Product, error)
}

type businessProvider interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Business, error)
}

type customerProvider interface {
	FindByID(ctx context.Context, businessID, customerID uuid.UUID) (*models.Customer, error)
}

type featureGate interface {
	CheckFeatureAccess(ctx context.Context, businessID uuid.UUID, feature string) (*subscriptions.LimitResult, error)
}

// Service assembles sales and their follow-up payments.
type Service interface {
	CreateSale(ctx context.Context, input CreateSaleInput) (*models.Order, error)
	RecordPayment(ctx context.Context, input RecordPaymentInput) (*models.Payment, error)
	VoidSale(ctx context.Context, businessID, orderID, actorID uuid.UUID) (*models.Order, error)
	GetByID(ctx context.Context, businessID, orderID uuid.UUID) (*models.Order, error)
	ListByBusiness(ctx context.Context, businessID uuid.UUID, params pagination.Params, filters OrderFilters) ([]models.Order, string, error)
}

type service struct {
	db         *gorm.DB
	repo       Repository
	ledger     inventoryLedger
	products   productProvider
	businesses businessProvider
	customers  customerProvider
	limits     featureGate
	newNumber  NumberGenerator
}

// NewService builds the orders service.
func NewService(
	db *gorm.DB,
	repo Repository,
	ledger inventoryLedger,
	products productProvider,
	businesses businessProvider,
	customers customerProvider,
	limits featureGate,
) (Service, error) {
	if db == nil {
		return nil, fmt.Errorf("db handle required")
	}
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("inventory service required")
	}
	if products == nil {
		return nil, fmt.Errorf("products repository required")
	}
	if businesses == nil {
		return nil, fmt.Errorf("businesses repository required")
	}
	if customers == nil {
		return nil, fmt.Errorf("customers repository required")
	}
	if limits == nil {
		return nil, fmt.Errorf("subscription service required")
	}
	return &service{
		db:         db,
		repo:       repo,
		ledger:     ledger,
		products:   products,
		businesses: businesses,
		customers:  customers,
		limits:     limits,
		newNumber:  NewOrderNumber,
	}, nil
}

func (s *service) CreateSale(ctx context.Context, input CreateSaleInput) (*models.Order, error) {
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sale requires at least one item")
	}
	for _, item := range input.Items {
		if item.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive")
		}
	}
	if !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid payment method %q", input.PaymentMethod))
	}
	if input.AmountPaid.IsNegative() || input.DiscountTotal.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amounts must not be negative")
	}

	business, err := s.businesses.FindByID(ctx, input.BusinessID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "business not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load business")
	}
	if !business.IsActive || business.Status != enums.BusinessStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "business is not active")
	}

	if input.CustomerID != nil {
		if _, err := s.customers.FindByID(ctx, input.BusinessID, *input.CustomerID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found for this business")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
		}
	}

	productsByID, err := s.precheck(ctx, input)
	if err != nil {
		return nil, err
	}

	items, subtotal, taxTotal := s.priceItems(business, input.Items, productsByID)
	total := subtotal.Add(taxTotal).Sub(input.DiscountTotal)
	if total.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount exceeds order total")
	}

	if input.AmountPaid.LessThan(total) {
		// Partial and zero payments are credit sales, which are plan-gated.
		res, err := s.limits.CheckFeatureAccess(ctx, input.BusinessID, subscriptions.FeatureCreditSales)
		if err != nil {
			return nil, err
		}
		if !res.Allowed {
			e := pkgerrors.New(pkgerrors.CodeLimitExceeded, res.Reason)
			e.WithDetails(map[string]any{
				"plan_name":        res.PlanName,
				"upgrade_required": true,
			})
			return nil, e
		}
	}

	var order *models.Order
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var txErr error
		order, txErr = s.assembleSale(ctx, tx, input, business, items, subtotal, taxTotal, total)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// precheck validates every requested line before the transaction opens, so
// the caller gets one aggregated error list instead of failing item by item.
// The ledger decrement inside the transaction remains the authoritative
// enforcement.
func (s *service) precheck(ctx context.Context, input CreateSaleInput) (map[uuid.UUID]models.Product, error) {
	ids := make([]uuid.UUID, 0, len(input.Items))
	for _, item := range input.Items {
		ids = append(ids, item.ProductID)
	}

	products, err := s.products.FindActiveByIDs(ctx, input.BusinessID, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}
	byID := make(map[uuid.UUID]models.Product, len(products))
	for _, product := range products {
		byID[product.ID] = product
	}

	var problems error
	var details []map[string]any
	for _, item := range input.Items {
		product, ok := byID[item.ProductID]
		if !ok {
			problems = multierr.Append(problems,
				fmt.Errorf("product %s not available for this business", item.ProductID))
			details = append(details, map[string]any{
				"product_id": item.ProductID,
				"problem":    "not_available",
			})
			continue
		}

		stock, err := s.ledger.GetStock(ctx, input.BusinessID, item.ProductID, input.LocationID)
		if err != nil {
			if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
				problems = multierr.Append(problems,
					fmt.Errorf("product %s is not stocked at this location", product.Name))
				details = append(details, map[string]any{
					"product_id":   item.ProductID,
					"product_name": product.Name,
					"problem":      "not_stocked",
				})
				continue
			}
			return nil, err
		}
		if stock.Quantity < item.Quantity {
			problems = multierr.Append(problems,
				fmt.Errorf("insufficient stock for %s: available %d, requested %d",
					product.Name, stock.Quantity, item.Quantity))
			details = append(details, map[string]any{
				"product_id":   item.ProductID,
				"product_name": product.Name,
				"problem":      "insufficient_stock",
				"available":    stock.Quantity,
				"requested":    item.Quantity,
			})
		}
	}
	if problems != nil {
		e := pkgerrors.Wrap(pkgerrors.CodeInsufficientStock, problems, "sale cannot be fulfilled")
		e.WithDetails(map[string]any{"items": details})
		return nil, e
	}
	return byID, nil
}

func (s *service) priceItems(business *models.Business, inputs []SaleItemInput, productsByID map[uuid.UUID]models.Product) ([]models.OrderItem, decimal.Decimal, decimal.Decimal) {
	hundred := decimal.NewFromInt(100)
	subtotal := decimal.Zero
	taxTotal := decimal.Zero

	items := make([]models.OrderItem, 0, len(inputs))
	for _, in := range inputs {
		product := productsByID[in.ProductID]

		unit := product.RetailPrice
		if business.Type == enums.BusinessTypeWholesale {
			unit = product.WholesalePrice
		}
		qty := decimal.NewFromInt(int64(in.Quantity))
		lineSubtotal := unit.Mul(qty)
		lineTax := lineSubtotal.Mul(product.TaxRate).Div(hundred).Round(2)

		items = append(items, models.OrderItem{
			ID:          uuid.New(),
			ProductID:   product.ID,
			ProductName: product.Name,
			SKU:         product.SKU,
			Quantity:    in.Quantity,
			UnitPrice:   unit,
			Discount:    decimal.Zero,
			TaxAmount:   lineTax,
			LineTotal:   lineSubtotal.Add(lineTax),
		})
		subtotal = subtotal.Add(lineSubtotal)
		taxTotal = taxTotal.Add(lineTax)
	}
	return items, subtotal, taxTotal
}

func (s *service) assembleSale(
	ctx context.Context,
	tx *gorm.DB,
	input CreateSaleInput,
	business *models.Business,
	items []models.OrderItem,
	subtotal, taxTotal, total decimal.Decimal,
) (*models.Order, error) {
	repo := s.repo.WithTx(tx)

	order := &models.Order{
		ID:            uuid.New(),
		BusinessID:    input.BusinessID,
		LocationID:    input.LocationID,
		CustomerID:    input.CustomerID,
		CashierID:     input.CashierID,
		Status:        enums.OrderStatusCompleted,
		PaymentStatus: derivePaymentStatus(input.AmountPaid, total),
		Subtotal:      subtotal,
		DiscountTotal: input.DiscountTotal,
		TaxTotal:      taxTotal,
		Total:         total,
		Notes:         input.Notes,
	}

	number, err := s.newNumber()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate order number")
	}
	order.OrderNumber = number
	// Postgres aborts the whole transaction on a unique violation, so the
	// insert runs under a savepoint we can roll back to before retrying.
	if err := tx.SavePoint("order_number").Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
	}
	if err := repo.CreateOrder(ctx, order); err != nil {
		if !pkgerrors.IsUniqueViolation(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		if err := tx.RollbackTo("order_number").Error; err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		// One retry with a fresh number; a second collision is a real fault.
		number, err = s.newNumber()
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate order number")
		}
		order.OrderNumber = number
		if err := repo.CreateOrder(ctx, order); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
	}

	for i := range items {
		items[i].OrderID = order.ID
	}
	if err := repo.CreateOrderItems(ctx, items); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order items")
	}
	order.Items = items

	reference := order.OrderNumber
	for _, item := range items {
		_, err := s.ledger.ApplyStockChange(ctx, tx, inventory.StockChange{
			BusinessID:  input.BusinessID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			LocationID:  input.LocationID,
			Quantity:    item.Quantity,
			Type:        enums.MovementTypeSale,
			Reference:   &reference,
			ActorID:     input.CashierID,
		})
		if err != nil {
			return nil, err
		}
	}

	payment := &models.Payment{
		ID:         uuid.New(),
		OrderID:    order.ID,
		BusinessID: input.BusinessID,
		Method:     input.PaymentMethod,
		Amount:     input.AmountPaid,
		Reference:  &reference,
		ReceivedBy: input.CashierID,
	}
	if err := repo.CreatePayment(ctx, payment); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment")
	}
	order.Payments = []models.Payment{*payment}

	return order, nil
}

func derivePaymentStatus(paid, total decimal.Decimal) enums.PaymentStatus {
	switch {
	case total.IsZero() || paid.GreaterThanOrEqual(total):
		return enums.PaymentStatusPaid
	case paid.IsPositive():
		return enums.PaymentStatusPartial
	default:
		return enums.PaymentStatusUnpaid
	}
}

func (s *service) RecordPayment(ctx context.Context, input RecordPaymentInput) (*models.Payment, error) {
	if !input.Method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid payment method %q", input.Method))
	}
	if !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment amount must be positive")
	}

	order, err := s.GetByID(ctx, input.BusinessID, input.OrderID)
	if err != nil {
		return nil, err
	}
	if order.Status == enums.OrderStatusVoided {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "cannot record payment against a voided order")
	}
	if order.PaymentStatus == enums.PaymentStatusPaid {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "order is already fully paid")
	}

	var payment *models.Payment
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		payment = &models.Payment{
			ID:         uuid.New(),
			OrderID:    order.ID,
			BusinessID: input.BusinessID,
			Method:     input.Method,
			Amount:     input.Amount,
			Reference:  input.Reference,
			ReceivedBy: input.ReceivedBy,
		}
		if err := repo.CreatePayment(ctx, payment); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment")
		}

		paid, err := repo.SumPaidAmount(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum payments")
		}
		status := derivePaymentStatus(paid, order.Total)
		if status != order.PaymentStatus {
			if err := repo.UpdatePaymentStatus(ctx, order.ID, status); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payment status")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}

// VoidSale marks a completed order voided and returns its quantities to
// stock, one return movement per line.
func (s *service) VoidSale(ctx context.Context, businessID, orderID, actorID uuid.UUID) (*models.Order, error) {
	order, err := s.GetByID(ctx, businessID, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status == enums.OrderStatusVoided {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "order is already voided")
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		reference := order.OrderNumber
		for _, item := range order.Items {
			_, err := s.ledger.ApplyStockChange(ctx, tx, inventory.StockChange{
				BusinessID:  businessID,
				ProductID:   item.ProductID,
				ProductName: item.ProductName,
				LocationID:  order.LocationID,
				Quantity:    item.Quantity,
				Type:        enums.MovementTypeReturn,
				Reference:   &reference,
				ActorID:     actorID,
			})
			if err != nil {
				return err
			}
		}

		now := time.Now().UTC()
		order.Status = enums.OrderStatusVoided
		order.VoidedAt = &now
		if err := s.repo.WithTx(tx).UpdateOrder(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) GetByID(ctx context.Context, businessID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, businessID, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) ListByBusiness(ctx context.Context, businessID uuid.UUID, params pagination.Params, filters OrderFilters) ([]models.Order, string, error) {
	rows, next, err := s.repo.ListByBusiness(ctx, businessID, params, filters)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return rows, next, nil
}

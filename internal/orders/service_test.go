package orders

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tillpoint/tillpoint-backend/internal/inventory"
	"github.com/tillpoint/tillpoint-backend/internal/subscriptions"
	"github.com/tillpoint/tillpoint-backend/pkg/db/models"
	"github.com/tillpoint/tillpoint-backend/pkg/enums"
	pkgerrors "github.com/tillpoint/tillpoint-backend/pkg/errors"
)

type stubProductProvider struct {
	products []models.Product
}

func (s *stubProductProvider) FindActiveByIDs(_ context.Context, _ uuid.UUID, ids []uuid.UUID) ([]models.Product, error) {
	wanted := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	var out []models.Product
	for _, product := range s.products {
		if wanted[product.ID] {
			out = append(out, product)
		}
	}
	return out, nil
}

func (s *stubProductProvider) FindByID(_ context.Context, _, productID uuid.UUID) (*models.Product, error) {
	for _, product := range s.products {
		if product.ID == productID {
			p := product
			return &p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

type stubLocationProvider struct{}

func (stubLocationProvider) FindLocation(_ context.Context, businessID, locationID uuid.UUID) (*models.Location, error) {
	return &models.Location{ID: locationID, BusinessID: businessID}, nil
}

type stubBusinessProvider struct {
	business *models.Business
}

func (s *stubBusinessProvider) FindByID(_ context.Context, _ uuid.UUID) (*models.Business, error) {
	if s.business == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.business, nil
}

type stubCustomerProvider struct {
	customer *models.Customer
}

func (s *stubCustomerProvider) FindByID(_ context.Context, _, _ uuid.UUID) (*models.Customer, error) {
	if s.customer == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.customer, nil
}

type stubFeatureGate struct {
	allowed bool
}

func (s *stubFeatureGate) CheckFeatureAccess(_ context.Context, _ uuid.UUID, _ string) (*subscriptions.LimitResult, error) {
	if s.allowed {
		return &subscriptions.LimitResult{Allowed: true, PlanName: "Professional"}, nil
	}
	return &subscriptions.LimitResult{
		Allowed:  false,
		Reason:   "plan Basic does not include credit_sales",
		PlanName: "Basic",
	}, nil
}

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:orders_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	for _, ddl := range []string{
		`CREATE TABLE orders (
  id TEXT PRIMARY KEY,
  business_id TEXT NOT NULL,
  order_number TEXT NOT NULL,
  location_id TEXT NOT NULL,
  customer_id TEXT,
  cashier_id TEXT NOT NULL,
  status TEXT NOT NULL,
  payment_status TEXT NOT NULL,
  subtotal TEXT NOT NULL,
  discount_total TEXT NOT NULL,
  tax_total TEXT NOT NULL,
  total TEXT NOT NULL,
  notes TEXT,
  voided_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (business_id, order_number)
);`,
		`CREATE TABLE order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  product_name TEXT NOT NULL,
  sku TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  unit_price TEXT NOT NULL,
  discount TEXT NOT NULL,
  tax_amount TEXT NOT NULL,
  line_total TEXT NOT NULL
);`,
		`CREATE TABLE payments (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  business_id TEXT NOT NULL,
  method TEXT NOT NULL,
  amount TEXT NOT NULL,
  reference TEXT,
  received_by TEXT NOT NULL,
  created_at DATETIME
);`,
		`CREATE TABLE inventories (
  id TEXT PRIMARY KEY,
  business_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  location_id TEXT NOT NULL,
  quantity INTEGER NOT NULL DEFAULT 0,
  updated_at DATETIME,
  UNIQUE (business_id, product_id, location_id)
);`,
		`CREATE TABLE inventory_movements (
  id TEXT PRIMARY KEY,
  business_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  location_id TEXT NOT NULL,
  type TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  quantity_before INTEGER NOT NULL,
  quantity_after INTEGER NOT NULL,
  reference TEXT,
  reason TEXT,
  notes TEXT,
  performed_by TEXT NOT NULL,
  created_at DATETIME
);`,
	} {
		if err := db.Exec(ddl).Error; err != nil {
			t.Fatalf("create table: %v", err)
		}
	}
	return db
}

type saleFixture struct {
	db         *gorm.DB
	svc        Service
	businessID uuid.UUID
	locationID uuid.UUID
	cashierID  uuid.UUID
	cola       models.Product
	chips      models.Product
}

func newSaleFixture(t *testing.T) *saleFixture {
	t.Helper()

	db := setupOrdersTestDB(t)
	businessID := uuid.New()
	locationID := uuid.New()

	cola := models.Product{
		ID:          uuid.New(),
		BusinessID:  businessID,
		SKU:         "COLA-330",
		Name:        "Cola 330ml",
		RetailPrice: decimal.NewFromInt(2),
		TaxRate:     decimal.Zero,
		IsActive:    true,
	}
	chips := models.Product{
		ID:          uuid.New(),
		BusinessID:  businessID,
		SKU:         "CHIPS-50",
		Name:        "Chips 50g",
		RetailPrice: decimal.NewFromInt(3),
		TaxRate:     decimal.Zero,
		IsActive:    true,
	}
	productStub := &stubProductProvider{products: []models.Product{cola, chips}}

	ledger, err := inventory.NewService(db, inventory.NewRepository(db), productStub, stubLocationProvider{})
	if err != nil {
		t.Fatalf("new inventory service: %v", err)
	}

	business := &models.Business{
		ID:       businessID,
		Name:     "Corner Mart",
		Type:     enums.BusinessTypeRetail,
		Status:   enums.BusinessStatusActive,
		IsActive: true,
	}

	svc, err := NewService(
		db,
		NewRepository(db),
		ledger,
		productStub,
		&stubBusinessProvider{business: business},
		&stubCustomerProvider{},
		&stubFeatureGate{allowed: true},
	)
	if err != nil {
		t.Fatalf("new orders service: %v", err)
	}

	fixture := &saleFixture{
		db:         db,
		svc:        svc,
		businessID: businessID,
		locationID: locationID,
		cashierID:  uuid.New(),
		cola:       cola,
		chips:      chips,
	}
	fixture.seedStock(t, cola.ID, 10)
	fixture.seedStock(t, chips.ID, 10)
	return fixture
}

func (f *saleFixture) seedStock(t *testing.T, productID uuid.UUID, qty int) {
	t.Helper()
	err := f.db.Exec(
		`INSERT INTO inventories (id, business_id, product_id, location_id, quantity) VALUES (?, ?, ?, ?, ?)`,
		uuid.NewString(), f.businessID.String(), productID.String(), f.locationID.String(), qty,
	).Error
	if err != nil {
		t.Fatalf("seed stock: %v", err)
	}
}

func (f *saleFixture) stockQuantity(t *testing.T, productID uuid.UUID) int {
	t.Helper()
	var qty int
	err := f.db.Raw(
		`SELECT quantity FROM inventories WHERE business_id = ? AND product_id = ? AND location_id = ?`,
		f.businessID.String(), productID.String(), f.locationID.String(),
	).Scan(&qty).Error
	if err != nil {
		t.Fatalf("read quantity: %v", err)
	}
	return qty
}

func (f *saleFixture) countRows(t *testing.T, table string) int64 {
	t.Helper()
	var count int64
	if err := f.db.Table(table).Count(&count).Error; err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return count
}

func (f *saleFixture) saleInput(items ...SaleItemInput) CreateSaleInput {
	return CreateSaleInput{
		BusinessID:    f.businessID,
		LocationID:    f.locationID,
		CashierID:     f.cashierID,
		Items:         items,
		DiscountTotal: decimal.Zero,
		PaymentMethod: enums.PaymentMethodCash,
		AmountPaid:    decimal.NewFromInt(100),
	}
}

func TestCreateSaleHappyPath(t *testing.T) {
	t.Parallel()

	f := newSaleFixture(t)
	input := f.saleInput(
		SaleItemInput{ProductID: f.cola.ID, Quantity: 3},
		SaleItemInput{ProductID: f.chips.ID, Quantity: 2},
	)
	input.AmountPaid = decimal.NewFromInt(12)

	order, err := f.svc.CreateSale(context.Background(), input)
	if err != nil {
		t.Fatalf("create sale: %v", err)
	}

	if order.OrderNumber == "" {
		t.Fatal("order number must be set")
	}
	if !order.Subtotal.Equal(decimal.NewFromInt(12)) {
		t.Fatalf("expected subtotal 12, got %s", order.Subtotal)
	}
	if !order.Total.Equal(decimal.NewFromInt(12)) {
		t.Fatalf("expected total 12, got %s", order.Total)
	}
	if order.PaymentStatus != enums.PaymentStatusPaid {
		t.Fatalf("expected paid, got %s", order.PaymentStatus)
	}
	if got := f.stockQuantity(t, f.cola.ID); got != 7 {
		t.Fatalf("expected cola stock 7, got %d", got)
	}
	if got := f.stockQuantity(t, f.chips.ID); got != 8 {
		t.Fatalf("expected chips stock 8, got %d", got)
	}
	if got := f.countRows(t, "inventory_movements"); got != 2 {
		t.Fatalf("expected 2 movements, got %d", got)
	}
	if got := f.countRows(t, "payments"); got != 1 {
		t.Fatalf("expected exactly 1 payment row, got %d", got)
	}
}

func TestCreateSaleFailingItemLeavesNothingBehind(t *testing.T) {
	t.Parallel()

	f := newSaleFixture(t)

	// The chips line passes the pre-check read but the ledger rejects it when
	// the quantity moves underneath: simulate by asking for more than stocked
	// on the second line only after the first succeeded in the same sale is
	// impossible via precheck, so bypass it by draining chips concurrently.
	if err := f.db.Exec(`UPDATE inventories SET quantity = 1 WHERE product_id = ?`, f.chips.ID.String()).Error; err != nil {
		t.Fatalf("drain chips: %v", err)
	}

	input := f.saleInput(
		SaleItemInput{ProductID: f.cola.ID, Quantity: 3},
		SaleItemInput{ProductID: f.chips.ID, Quantity: 5},
	)

	_, err := f.svc.CreateSale(context.Background(), input)
	if err == nil {
		t.Fatal("expected sale to fail")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("expected insufficient stock, got %v", err)
	}

	for _, table := range []string{"orders", "order_items", "payments", "inventory_movements"} {
		if got := f.countRows(t, table); got != 0 {
			t.Fatalf("expected no %s rows after failed sale, got %d", table, got)
		}
	}
	if got := f.stockQuantity(t, f.cola.ID); got != 10 {
		t.Fatalf("expected cola stock untouched at 10, got %d", got)
	}
}

func TestCreateSaleRetriesOrderNumberOnce(t *testing.T) {
	t.Parallel()

	f := newSaleFixture(t)

	// Pre-insert an order holding the number the generator will produce first.
	colliding := "ORD-20260831-aaaaaa"
	existing := &models.Order{
		ID:            uuid.New(),
		BusinessID:    f.businessID,
		OrderNumber:   colliding,
		LocationID:    f.locationID,
		CashierID:     f.cashierID,
		Status:        enums.OrderStatusCompleted,
		PaymentStatus: enums.PaymentStatusPaid,
		Subtotal:      decimal.NewFromInt(1),
		DiscountTotal: decimal.Zero,
		TaxTotal:      decimal.Zero,
		Total:         decimal.NewFromInt(1),
	}
	if err := NewRepository(f.db).CreateOrder(context.Background(), existing); err != nil {
		t.Fatalf("seed colliding order: %v", err)
	}

	numbers := []string{colliding, "ORD-20260831-bbbbbb"}
	f.svc.(*service).newNumber = func() (string, error) {
		next := numbers[0]
		if len(numbers) > 1 {
			numbers = numbers[1:]
		}
		return next, nil
	}

	order, err := f.svc.CreateSale(context.Background(), f.saleInput(SaleItemInput{ProductID: f.cola.ID, Quantity: 1}))
	if err != nil {
		t.Fatalf("create sale: %v", err)
	}
	if order.OrderNumber != "ORD-20260831-bbbbbb" {
		t.Fatalf("expected retried number, got %s", order.OrderNumber)
	}
	if got := f.countRows(t, "orders"); got != 2 {
		t.Fatalf("expected seed plus exactly one new order, got %d", got)
	}
}

func TestCreateSalePartialPaymentIsCreditGated(t *testing.T) {
	t.Parallel()

	f := newSaleFixture(t)
	f.svc.(*service).limits = &stubFeatureGate{allowed: false}

	input := f.saleInput(SaleItemInput{ProductID: f.cola.ID, Quantity: 2})
	input.AmountPaid = decimal.NewFromInt(1)

	_, err := f.svc.CreateSale(context.Background(), input)
	if err == nil {
		t.Fatal("expected credit sale to be denied")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeLimitExceeded {
		t.Fatalf("expected limit code, got %v", err)
	}
}

func TestCreateSalePartialThenRecordPayment(t *testing.T) {
	t.Parallel()

	f := newSaleFixture(t)
	ctx := context.Background()

	input := f.saleInput(SaleItemInput{ProductID: f.cola.ID, Quantity: 5})
	input.AmountPaid = decimal.NewFromInt(4)
	input.PaymentMethod = enums.PaymentMethodCredit

	order, err := f.svc.CreateSale(ctx, input)
	if err != nil {
		t.Fatalf("create sale: %v", err)
	}
	if order.PaymentStatus != enums.PaymentStatusPartial {
		t.Fatalf("expected partial, got %s", order.PaymentStatus)
	}

	_, err = f.svc.RecordPayment(ctx, RecordPaymentInput{
		BusinessID: f.businessID,
		OrderID:    order.ID,
		Method:     enums.PaymentMethodCash,
		Amount:     decimal.NewFromInt(6),
		ReceivedBy: f.cashierID,
	})
	if err != nil {
		t.Fatalf("record payment: %v", err)
	}

	reloaded, err := f.svc.GetByID(ctx, f.businessID, order.ID)
	if err != nil {
		t.Fatalf("reload order: %v", err)
	}
	if reloaded.PaymentStatus != enums.PaymentStatusPaid {
		t.Fatalf("expected paid after settling, got %s", reloaded.PaymentStatus)
	}
	if len(reloaded.Payments) != 2 {
		t.Fatalf("expected 2 payment rows, got %d", len(reloaded.Payments))
	}

	_, err = f.svc.RecordPayment(ctx, RecordPaymentInput{
		BusinessID: f.businessID,
		OrderID:    order.ID,
		Method:     enums.PaymentMethodCash,
		Amount:     decimal.NewFromInt(1),
		ReceivedBy: f.cashierID,
	})
	if err == nil {
		t.Fatal("expected conflict on fully paid order")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict code, got %v", err)
	}
}

func TestVoidSaleReturnsStock(t *testing.T) {
	t.Parallel()

	f := newSaleFixture(t)
	ctx := context.Background()

	order, err := f.svc.CreateSale(ctx, f.saleInput(SaleItemInput{ProductID: f.cola.ID, Quantity: 4}))
	if err != nil {
		t.Fatalf("create sale: %v", err)
	}
	if got := f.stockQuantity(t, f.cola.ID); got != 6 {
		t.Fatalf("expected stock 6 after sale, got %d", got)
	}

	voided, err := f.svc.VoidSale(ctx, f.businessID, order.ID, f.cashierID)
	if err != nil {
		t.Fatalf("void sale: %v", err)
	}
	if voided.Status != enums.OrderStatusVoided {
		t.Fatalf("expected voided, got %s", voided.Status)
	}
	if voided.VoidedAt == nil {
		t.Fatal("voided_at must be set")
	}
	if got := f.stockQuantity(t, f.cola.ID); got != 10 {
		t.Fatalf("expected stock restored to 10, got %d", got)
	}

	if _, err := f.svc.VoidSale(ctx, f.businessID, order.ID, f.cashierID); err == nil {
		t.Fatal("expected conflict voiding twice")
	}
}

func TestCreateSaleRejectsInactiveBusiness(t *testing.T) {
	t.Parallel()

	f := newSaleFixture(t)
	suspended := &models.Business{
		ID:       f.businessID,
		Name:     "Corner Mart",
		Type:     enums.BusinessTypeRetail,
		Status:   enums.BusinessStatusSuspended,
		IsActive: true,
	}
	f.svc.(*service).businesses = &stubBusinessProvider{business: suspended}

	_, err := f.svc.CreateSale(context.Background(), f.saleInput(SaleItemInput{ProductID: f.cola.ID, Quantity: 1}))
	if err == nil {
		t.Fatal("expected denial for inactive business")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden code, got %v", err)
	}
}

func TestCreateSaleAggregatesPrecheckProblems(t *testing.T) {
	t.Parallel()

	f := newSaleFixture(t)
	unknown := uuid.New()

	if err := f.db.Exec(`UPDATE inventories SET quantity = 1 WHERE product_id = ?`, f.cola.ID.String()).Error; err != nil {
		t.Fatalf("drain cola: %v", err)
	}

	_, err := f.svc.CreateSale(context.Background(), f.saleInput(
		SaleItemInput{ProductID: f.cola.ID, Quantity: 5},
		SaleItemInput{ProductID: unknown, Quantity: 1},
	))
	if err == nil {
		t.Fatal("expected aggregated pre-check failure")
	}
	typed := pkgerrors.As(err)
	if typed == nil {
		t.Fatalf("expected typed error, got %v", err)
	}
	details, ok := typed.Details().(map[string]any)
	if !ok {
		t.Fatalf("expected details, got %T", typed.Details())
	}
	items, ok := details["items"].([]map[string]any)
	if !ok || len(items) != 2 {
		t.Fatalf("expected both problem lines reported, got %v", details)
	}
}

package inventory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tillpoint/tillpoint-backend/pkg/db/models"
	"github.com/tillpoint/tillpoint-backend/pkg/enums"
	pkgerrors "github.com/tillpoint/tillpoint-backend/pkg/errors"
)

type stubProductNamer struct {
	name string
}

func (s *stubProductNamer) FindByID(_ context.Context, _, productID uuid.UUID) (*models.Product, error) {
	return &models.Product{ID: productID, Name: s.name}, nil
}

type stubLocationFinder struct {
	unknown map[uuid.UUID]bool
}

func (s *stubLocationFinder) FindLocation(_ context.Context, businessID, locationID uuid.UUID) (*models.Location, error) {
	if s.unknown[locationID] {
		return nil, gorm.ErrRecordNotFound
	}
	return &models.Location{ID: locationID, BusinessID: businessID}, nil
}

func setupInventoryTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:inventory_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	for _, ddl := range []string{
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

func newInventoryService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(db, NewRepository(db), &stubProductNamer{name: "Cola 330ml"}, &stubLocationFinder{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func seedStock(t *testing.T, db *gorm.DB, slot Slot, qty int) {
	t.Helper()
	err := db.Exec(
		`INSERT INTO inventories (id, business_id, product_id, location_id, quantity) VALUES (?, ?, ?, ?, ?)`,
		uuid.NewString(), slot.BusinessID.String(), slot.ProductID.String(), slot.LocationID.String(), qty,
	).Error
	if err != nil {
		t.Fatalf("seed stock: %v", err)
	}
}

func currentQuantity(t *testing.T, db *gorm.DB, slot Slot) int {
	t.Helper()
	var qty int
	err := db.Raw(
		`SELECT quantity FROM inventories WHERE business_id = ? AND product_id = ? AND location_id = ?`,
		slot.BusinessID.String(), slot.ProductID.String(), slot.LocationID.String(),
	).Scan(&qty).Error
	if err != nil {
		t.Fatalf("read quantity: %v", err)
	}
	return qty
}

func countMovements(t *testing.T, db *gorm.DB, slot Slot) int64 {
	t.Helper()
	var count int64
	err := db.Model(&models.InventoryMovement{}).
		Where("business_id = ? AND product_id = ?", slot.BusinessID, slot.ProductID).
		Count(&count).Error
	if err != nil {
		t.Fatalf("count movements: %v", err)
	}
	return count
}

func testSlot() Slot {
	return Slot{BusinessID: uuid.New(), ProductID: uuid.New(), LocationID: uuid.New()}
}

func TestDecrementNeverGoesNegative(t *testing.T) {
	t.Parallel()

	db := setupInventoryTestDB(t)
	svc := newInventoryService(t, db)
	ctx := context.Background()
	slot := testSlot()
	seedStock(t, db, slot, 5)

	sale := func(qty int) error {
		return db.Transaction(func(tx *gorm.DB) error {
			_, err := svc.ApplyStockChange(ctx, tx, StockChange{
				BusinessID: slot.BusinessID,
				ProductID:  slot.ProductID,
				LocationID: slot.LocationID,
				Quantity:   qty,
				Type:       enums.MovementTypeSale,
				ActorID:    uuid.New(),
			})
			return err
		})
	}

	if err := sale(3); err != nil {
		t.Fatalf("first sale: %v", err)
	}
	if err := sale(3); err == nil {
		t.Fatal("expected second sale to fail")
	}
	if got := currentQuantity(t, db, slot); got != 2 {
		t.Fatalf("expected quantity 2, got %d", got)
	}
	if got := countMovements(t, db, slot); got != 1 {
		t.Fatalf("rejected operation must not write a movement, got %d rows", got)
	}
}

func TestEveryChangeWritesOneMovement(t *testing.T) {
	t.Parallel()

	db := setupInventoryTestDB(t)
	svc := newInventoryService(t, db)
	ctx := context.Background()
	slot := testSlot()
	seedStock(t, db, slot, 10)
	actor := uuid.New()

	apply := func(qty int, mt enums.MovementType) *models.InventoryMovement {
		var movement *models.InventoryMovement
		err := db.Transaction(func(tx *gorm.DB) error {
			var err error
			movement, err = svc.ApplyStockChange(ctx, tx, StockChange{
				BusinessID: slot.BusinessID,
				ProductID:  slot.ProductID,
				LocationID: slot.LocationID,
				Quantity:   qty,
				Type:       mt,
				ActorID:    actor,
			})
			return err
		})
		if err != nil {
			t.Fatalf("apply %s: %v", mt, err)
		}
		return movement
	}

	sale := apply(4, enums.MovementTypeSale)
	if sale.QuantityBefore != 10 || sale.QuantityAfter != 6 {
		t.Fatalf("sale movement mismatch: %d -> %d", sale.QuantityBefore, sale.QuantityAfter)
	}

	ret := apply(2, enums.MovementTypeReturn)
	if ret.QuantityBefore != 6 || ret.QuantityAfter != 8 {
		t.Fatalf("return movement mismatch: %d -> %d", ret.QuantityBefore, ret.QuantityAfter)
	}

	if got := countMovements(t, db, slot); got != 2 {
		t.Fatalf("expected exactly 2 movement rows, got %d", got)
	}
	if got := currentQuantity(t, db, slot); got != 8 {
		t.Fatalf("expected quantity 8, got %d", got)
	}
}

func TestAdjustmentClampsWhereSaleRejects(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	// Sale of 8 against 5: rejected, quantity untouched.
	saleDB := setupInventoryTestDB(t)
	saleSvc := newInventoryService(t, saleDB)
	saleSlot := testSlot()
	seedStock(t, saleDB, saleSlot, 5)

	err := saleDB.Transaction(func(tx *gorm.DB) error {
		_, err := saleSvc.ApplyStockChange(ctx, tx, StockChange{
			BusinessID: saleSlot.BusinessID,
			ProductID:  saleSlot.ProductID,
			LocationID: saleSlot.LocationID,
			Quantity:   8,
			Type:       enums.MovementTypeSale,
			ActorID:    uuid.New(),
		})
		return err
	})
	if err == nil {
		t.Fatal("expected sale to reject")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	if got := currentQuantity(t, saleDB, saleSlot); got != 5 {
		t.Fatalf("expected quantity 5 after rejected sale, got %d", got)
	}

	// Adjustment of 8 against 5: clamps to zero and records what happened.
	adjDB := setupInventoryTestDB(t)
	adjSvc := newInventoryService(t, adjDB)
	adjSlot := testSlot()
	seedStock(t, adjDB, adjSlot, 5)

	movement, err := adjSvc.Adjust(ctx, AdjustInput{
		BusinessID: adjSlot.BusinessID,
		ProductID:  adjSlot.ProductID,
		LocationID: adjSlot.LocationID,
		Quantity:   8,
		Reason:     enums.AdjustmentReasonDamage,
		ActorID:    uuid.New(),
	})
	if err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if got := currentQuantity(t, adjDB, adjSlot); got != 0 {
		t.Fatalf("expected quantity 0 after clamp, got %d", got)
	}
	if movement.QuantityBefore != 5 || movement.QuantityAfter != 0 {
		t.Fatalf("clamp movement mismatch: %d -> %d", movement.QuantityBefore, movement.QuantityAfter)
	}
	if movement.Quantity != 5 {
		t.Fatalf("ledger must record the applied delta, got %d", movement.Quantity)
	}
}

func TestSecondSaleFailsWithAvailableVersusRequested(t *testing.T) {
	t.Parallel()

	db := setupInventoryTestDB(t)
	svc := newInventoryService(t, db)
	ctx := context.Background()
	slot := testSlot()
	seedStock(t, db, slot, 10)

	sale := func(qty int) error {
		return db.Transaction(func(tx *gorm.DB) error {
			_, err := svc.ApplyStockChange(ctx, tx, StockChange{
				BusinessID: slot.BusinessID,
				ProductID:  slot.ProductID,
				LocationID: slot.LocationID,
				Quantity:   qty,
				Type:       enums.MovementTypeSale,
				ActorID:    uuid.New(),
			})
			return err
		})
	}

	if err := sale(3); err != nil {
		t.Fatalf("first sale: %v", err)
	}

	err := sale(8)
	if err == nil {
		t.Fatal("expected second sale to fail")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	details, ok := typed.Details().(map[string]any)
	if !ok {
		t.Fatalf("expected details map, got %T", typed.Details())
	}
	if details["available"] != 7 || details["requested"] != 8 {
		t.Fatalf("expected available=7 requested=8, got %v", details)
	}
	if got := currentQuantity(t, db, slot); got != 7 {
		t.Fatalf("expected quantity 7 afterwards, got %d", got)
	}
}

func TestTransferBetweenLocations(t *testing.T) {
	t.Parallel()

	db := setupInventoryTestDB(t)
	svc := newInventoryService(t, db)
	ctx := context.Background()

	businessID := uuid.New()
	productID := uuid.New()
	from := uuid.New()
	to := uuid.New()
	source := Slot{BusinessID: businessID, ProductID: productID, LocationID: from}
	dest := Slot{BusinessID: businessID, ProductID: productID, LocationID: to}
	seedStock(t, db, source, 10)

	movements, err := svc.Transfer(ctx, TransferInput{
		BusinessID:   businessID,
		ProductID:    productID,
		FromLocation: from,
		ToLocationID: &to,
		Quantity:     4,
		ActorID:      uuid.New(),
	})
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if len(movements) != 2 {
		t.Fatalf("expected 2 movements, got %d", len(movements))
	}
	if movements[0].Type != enums.MovementTypeTransferOut || movements[1].Type != enums.MovementTypeTransferIn {
		t.Fatalf("unexpected movement types: %s, %s", movements[0].Type, movements[1].Type)
	}
	if got := currentQuantity(t, db, source); got != 6 {
		t.Fatalf("expected source quantity 6, got %d", got)
	}
	// Destination row is created on first transfer in.
	if got := currentQuantity(t, db, dest); got != 4 {
		t.Fatalf("expected destination quantity 4, got %d", got)
	}
}

func TestExternalTransferSkipsDestination(t *testing.T) {
	t.Parallel()

	db := setupInventoryTestDB(t)
	svc := newInventoryService(t, db)
	ctx := context.Background()
	slot := testSlot()
	seedStock(t, db, slot, 10)

	movements, err := svc.Transfer(ctx, TransferInput{
		BusinessID:   slot.BusinessID,
		ProductID:    slot.ProductID,
		FromLocation: slot.LocationID,
		ToLocationID: nil,
		Quantity:     3,
		ActorID:      uuid.New(),
	})
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if len(movements) != 1 {
		t.Fatalf("external transfer must write one movement, got %d", len(movements))
	}
	if got := currentQuantity(t, db, slot); got != 7 {
		t.Fatalf("expected source quantity 7, got %d", got)
	}

	var rows int64
	if err := db.Model(&models.Inventory{}).Where("business_id = ?", slot.BusinessID).Count(&rows).Error; err != nil {
		t.Fatalf("count inventory rows: %v", err)
	}
	if rows != 1 {
		t.Fatalf("external transfer must not create a destination row, got %d rows", rows)
	}
}

func TestTransferInsufficientAbortsBothSides(t *testing.T) {
	t.Parallel()

	db := setupInventoryTestDB(t)
	svc := newInventoryService(t, db)
	ctx := context.Background()

	businessID := uuid.New()
	productID := uuid.New()
	from := uuid.New()
	to := uuid.New()
	source := Slot{BusinessID: businessID, ProductID: productID, LocationID: from}
	seedStock(t, db, source, 2)

	_, err := svc.Transfer(ctx, TransferInput{
		BusinessID:   businessID,
		ProductID:    productID,
		FromLocation: from,
		ToLocationID: &to,
		Quantity:     5,
		ActorID:      uuid.New(),
	})
	if err == nil {
		t.Fatal("expected transfer to fail")
	}
	if got := currentQuantity(t, db, source); got != 2 {
		t.Fatalf("expected source untouched at 2, got %d", got)
	}
	if got := countMovements(t, db, source); got != 0 {
		t.Fatalf("failed transfer must write no movements, got %d", got)
	}
}

func TestSaleOnUnstockedProduct(t *testing.T) {
	t.Parallel()

	db := setupInventoryTestDB(t)
	svc := newInventoryService(t, db)
	ctx := context.Background()
	slot := testSlot()

	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := svc.ApplyStockChange(ctx, tx, StockChange{
			BusinessID: slot.BusinessID,
			ProductID:  slot.ProductID,
			LocationID: slot.LocationID,
			Quantity:   1,
			Type:       enums.MovementTypeSale,
			ActorID:    uuid.New(),
		})
		return err
	})
	if err == nil {
		t.Fatal("expected not-stocked error")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotStocked {
		t.Fatalf("expected not stocked code, got %v", err)
	}
	details, ok := typed.Details().(map[string]any)
	if !ok || details["product_name"] != "Cola 330ml" {
		t.Fatalf("error must name the product, got %v", typed.Details())
	}
}

func TestMutationsRejectForeignLocation(t *testing.T) {
	t.Parallel()

	db := setupInventoryTestDB(t)
	slot := testSlot()
	foreign := uuid.New()

	svc, err := NewService(db, NewRepository(db), &stubProductNamer{name: "Cola 330ml"},
		&stubLocationFinder{unknown: map[uuid.UUID]bool{foreign: true}})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	ctx := context.Background()
	seedStock(t, db, slot, 5)

	expectValidation := func(t *testing.T, err error) {
		t.Helper()
		if err == nil {
			t.Fatal("expected foreign location to be rejected")
		}
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("expected validation code, got %v", err)
		}
	}

	_, err = svc.Restock(ctx, StockChange{
		BusinessID: slot.BusinessID,
		ProductID:  slot.ProductID,
		LocationID: foreign,
		Quantity:   3,
		ActorID:    uuid.New(),
	})
	expectValidation(t, err)

	var phantom int64
	countErr := db.Model(&models.Inventory{}).
		Where("business_id = ? AND location_id = ?", slot.BusinessID, foreign).
		Count(&phantom).Error
	if countErr != nil {
		t.Fatalf("count inventory rows: %v", countErr)
	}
	if phantom != 0 {
		t.Fatalf("rejected restock must not create an inventory slot, got %d rows", phantom)
	}

	_, err = svc.Transfer(ctx, TransferInput{
		BusinessID:   slot.BusinessID,
		ProductID:    slot.ProductID,
		FromLocation: slot.LocationID,
		ToLocationID: &foreign,
		Quantity:     2,
		ActorID:      uuid.New(),
	})
	expectValidation(t, err)
	if got := currentQuantity(t, db, slot); got != 5 {
		t.Fatalf("expected source untouched at 5, got %d", got)
	}

	_, err = svc.Adjust(ctx, AdjustInput{
		BusinessID: slot.BusinessID,
		ProductID:  slot.ProductID,
		LocationID: foreign,
		Quantity:   1,
		Reason:     enums.AdjustmentReasonDamage,
		ActorID:    uuid.New(),
	})
	expectValidation(t, err)

	if got := countMovements(t, db, slot); got != 0 {
		t.Fatalf("rejected mutations must write no movements, got %d", got)
	}
}

package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tillpoint/tillpoint-backend/pkg/db/models"
	"github.com/tillpoint/tillpoint-backend/pkg/enums"
	pkgerrors "github.com/tillpoint/tillpoint-backend/pkg/errors"
	"github.com/tillpoint/tillpoint-backend/pkg/pagination"
)

type inventoryRepository interface {
	DecrementStock(tx *gorm.DB, slot Slot, qty int) (int, int, error)
	IncrementStock(tx *gorm.DB, slot Slot, qty int) (int, int, error)
	ClampDecrement(tx *gorm.DB, slot Slot, qty int) (int, int, error)
	AppendMovement(tx *gorm.DB, movement *models.InventoryMovement) error
	GetStock(ctx context.Context, slot Slot) (*models.Inventory, error)
	ListStock(ctx context.Context, businessID uuid.UUID, locationID *uuid.UUID) ([]models.Inventory, error)
	ListMovements(ctx context.Context, businessID uuid.UUID, filter MovementFilter, params pagination.Params) ([]models.InventoryMovement, string, error)
}

type productNamer interface {
	FindByID(ctx context.Context, businessID, productID uuid.UUID) (*models.Product, error)
}

type locationFinder interface {
	FindLocation(ctx context.Context, businessID, locationID uuid.UUID) (*models.Location, error)
}

// StockChange describes one quantity change to apply inside a surrounding
// transaction. Quantity is a positive magnitude; the movement type decides
// direction and policy.
type StockChange struct {
	BusinessID  uuid.UUID
	ProductID   uuid.UUID
	ProductName string
	LocationID  uuid.UUID
	Quantity    int
	Type        enums.MovementType
	Reference   *string
	Reason      *string
	Notes       *string
	ActorID     uuid.UUID
}

// TransferInput moves stock between two of the business's locations, or out
// of the business entirely when ToLocationID is nil.
type TransferInput struct {
	BusinessID   uuid.UUID
	ProductID    uuid.UUID
	FromLocation uuid.UUID
	ToLocationID *uuid.UUID
	Quantity     int
	Notes        *string
	ActorID      uuid.UUID
}

// AdjustInput writes off shrinkage at one location.
type AdjustInput struct {
	BusinessID uuid.UUID
	ProductID  uuid.UUID
	LocationID uuid.UUID
	Quantity   int
	Reason     enums.AdjustmentReason
	Notes      *string
	ActorID    uuid.UUID
}

// Service exposes the inventory ledger operations.
type Service interface {
	ApplyStockChange(ctx context.Context, tx *gorm.DB, change StockChange) (*models.InventoryMovement, error)
	Transfer(ctx context.Context, input TransferInput) ([]models.InventoryMovement, error)
	Adjust(ctx context.Context, input AdjustInput) (*models.InventoryMovement, error)
	Restock(ctx context.Context, change StockChange) (*models.InventoryMovement, error)
	GetStock(ctx context.Context, businessID, productID, locationID uuid.UUID) (*models.Inventory, error)
	ListStock(ctx context.Context, businessID uuid.UUID, locationID *uuid.UUID) ([]models.Inventory, error)
	ListMovements(ctx context.Context, businessID uuid.UUID, filter MovementFilter, params pagination.Params) ([]models.InventoryMovement, string, error)
}

type service struct {
	db        *gorm.DB
	repo      inventoryRepository
	products  productNamer
	locations locationFinder
}

// NewService builds the inventory service. The DB handle is used for the
// operations that own their transaction (Transfer, Adjust, Restock);
// ApplyStockChange always joins the caller's.
func NewService(db *gorm.DB, repo inventoryRepository, products productNamer, locations locationFinder) (Service, error) {
	if db == nil {
		return nil, fmt.Errorf("db handle required")
	}
	if repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("products repository required")
	}
	if locations == nil {
		return nil, fmt.Errorf("locations repository required")
	}
	return &service{db: db, repo: repo, products: products, locations: locations}, nil
}

// requireLocation rejects location ids that do not belong to the business,
// so a mistyped id cannot mint a phantom inventory slot.
func (s *service) requireLocation(ctx context.Context, businessID, locationID uuid.UUID) error {
	if _, err := s.locations.FindLocation(ctx, businessID, locationID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			e := pkgerrors.New(pkgerrors.CodeValidation, "location does not belong to this business")
			e.WithDetails(map[string]any{"location_id": locationID})
			return e
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load location")
	}
	return nil
}

// ApplyStockChange applies one ledger operation inside tx and appends the
// movement row. Failures propagate so the surrounding transaction aborts with
// no partial writes.
func (s *service) ApplyStockChange(ctx context.Context, tx *gorm.DB, change StockChange) (*models.InventoryMovement, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "stock change requires a transaction")
	}
	if !change.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid movement type %q", change.Type))
	}
	if change.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	slot := Slot{BusinessID: change.BusinessID, ProductID: change.ProductID, LocationID: change.LocationID}

	var before, after int
	var err error
	switch {
	case change.Type == enums.MovementTypeAdjustment:
		before, after, err = s.repo.ClampDecrement(tx, slot, change.Quantity)
	case change.Type.IsOutbound():
		before, after, err = s.repo.DecrementStock(tx, slot, change.Quantity)
	default:
		before, after, err = s.repo.IncrementStock(tx, slot, change.Quantity)
	}
	if err != nil {
		return nil, s.wrapStockError(ctx, err, change)
	}

	movement := &models.InventoryMovement{
		ID:             uuid.New(),
		BusinessID:     change.BusinessID,
		ProductID:      change.ProductID,
		LocationID:     change.LocationID,
		Type:           change.Type,
		Quantity:       change.Quantity,
		QuantityBefore: before,
		QuantityAfter:  after,
		Reference:      change.Reference,
		Reason:         change.Reason,
		Notes:          change.Notes,
		PerformedBy:    change.ActorID,
	}
	if change.Type == enums.MovementTypeAdjustment {
		// The applied delta may be smaller than requested when the clamp hit
		// zero; the ledger records what actually happened.
		movement.Quantity = before - after
	}
	if err := s.repo.AppendMovement(tx, movement); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append movement")
	}
	return movement, nil
}

// wrapStockError turns repo-level stock failures into the typed errors the
// HTTP boundary pattern-matches, naming the product involved.
func (s *service) wrapStockError(ctx context.Context, err error, change StockChange) error {
	name := change.ProductName
	if name == "" {
		if product, lookupErr := s.products.FindByID(ctx, change.BusinessID, change.ProductID); lookupErr == nil {
			name = product.Name
		}
	}

	var short *InsufficientStockError
	switch {
	case errors.Is(err, ErrNotStocked):
		e := pkgerrors.New(pkgerrors.CodeNotStocked,
			fmt.Sprintf("product %s is not stocked at this location", name))
		e.WithDetails(map[string]any{
			"product_id":   change.ProductID,
			"product_name": name,
			"location_id":  change.LocationID,
		})
		return e
	case errors.As(err, &short):
		e := pkgerrors.New(pkgerrors.CodeInsufficientStock,
			fmt.Sprintf("insufficient stock for %s", name))
		e.WithDetails(map[string]any{
			"product_id":   change.ProductID,
			"product_name": name,
			"location_id":  change.LocationID,
			"available":    short.Available,
			"requested":    short.Requested,
		})
		return e
	default:
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "apply stock change")
	}
}

func (s *service) Transfer(ctx context.Context, input TransferInput) ([]models.InventoryMovement, error) {
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if input.ToLocationID != nil && *input.ToLocationID == input.FromLocation {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transfer source and destination match")
	}
	if err := s.requireLocation(ctx, input.BusinessID, input.FromLocation); err != nil {
		return nil, err
	}
	if input.ToLocationID != nil {
		if err := s.requireLocation(ctx, input.BusinessID, *input.ToLocationID); err != nil {
			return nil, err
		}
	}

	var movements []models.InventoryMovement
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		out, err := s.ApplyStockChange(ctx, tx, StockChange{
			BusinessID: input.BusinessID,
			ProductID:  input.ProductID,
			LocationID: input.FromLocation,
			Quantity:   input.Quantity,
			Type:       enums.MovementTypeTransferOut,
			Notes:      input.Notes,
			ActorID:    input.ActorID,
		})
		if err != nil {
			return err
		}
		movements = append(movements, *out)

		// External transfers leave the tenant's locations entirely; only the
		// source decrement and its movement row are written.
		if input.ToLocationID == nil {
			return nil
		}

		in, err := s.ApplyStockChange(ctx, tx, StockChange{
			BusinessID: input.BusinessID,
			ProductID:  input.ProductID,
			LocationID: *input.ToLocationID,
			Quantity:   input.Quantity,
			Type:       enums.MovementTypeTransferIn,
			Notes:      input.Notes,
			ActorID:    input.ActorID,
		})
		if err != nil {
			return err
		}
		movements = append(movements, *in)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return movements, nil
}

func (s *service) Adjust(ctx context.Context, input AdjustInput) (*models.InventoryMovement, error) {
	if !input.Reason.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid adjustment reason %q", input.Reason))
	}
	if err := s.requireLocation(ctx, input.BusinessID, input.LocationID); err != nil {
		return nil, err
	}

	reason := input.Reason.String()
	var movement *models.InventoryMovement
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		movement, err = s.ApplyStockChange(ctx, tx, StockChange{
			BusinessID: input.BusinessID,
			ProductID:  input.ProductID,
			LocationID: input.LocationID,
			Quantity:   input.Quantity,
			Type:       enums.MovementTypeAdjustment,
			Reason:     &reason,
			Notes:      input.Notes,
			ActorID:    input.ActorID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return movement, nil
}

func (s *service) Restock(ctx context.Context, change StockChange) (*models.InventoryMovement, error) {
	change.Type = enums.MovementTypeRestock
	if err := s.requireLocation(ctx, change.BusinessID, change.LocationID); err != nil {
		return nil, err
	}

	var movement *models.InventoryMovement
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		movement, err = s.ApplyStockChange(ctx, tx, change)
		return err
	})
	if err != nil {
		return nil, err
	}
	return movement, nil
}

func (s *service) GetStock(ctx context.Context, businessID, productID, locationID uuid.UUID) (*models.Inventory, error) {
	inv, err := s.repo.GetStock(ctx, Slot{BusinessID: businessID, ProductID: productID, LocationID: locationID})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "inventory not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory")
	}
	return inv, nil
}

func (s *service) ListStock(ctx context.Context, businessID uuid.UUID, locationID *uuid.UUID) ([]models.Inventory, error) {
	rows, err := s.repo.ListStock(ctx, businessID, locationID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list inventory")
	}
	return rows, nil
}

func (s *service) ListMovements(ctx context.Context, businessID uuid.UUID, filter MovementFilter, params pagination.Params) ([]models.InventoryMovement, string, error) {
	rows, next, err := s.repo.ListMovements(ctx, businessID, filter, params)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list movements")
	}
	return rows, next, nil
}

package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tillpoint/tillpoint-backend/pkg/db/models"
	"github.com/tillpoint/tillpoint-backend/pkg/pagination"
)

// Slot identifies one inventory row.
type Slot struct {
	BusinessID uuid.UUID
	ProductID  uuid.UUID
	LocationID uuid.UUID
}

// InsufficientStockError reports a strict decrement that would drive the
// quantity negative.
type InsufficientStockError struct {
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock: available %d, requested %d", e.Available, e.Requested)
}

// ErrNotStocked marks a slot with no inventory row at all.
var ErrNotStocked = errors.New("product not stocked at this location")

// clampAttempts bounds the compare-and-swap retries in ClampDecrement.
const clampAttempts = 3

// Repository handles inventory rows and the movement ledger. Mutating
// methods take the surrounding transaction; quantity changes and their
// movement rows must commit together.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repo to the provided GORM connection.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func slotQuery(tx *gorm.DB, slot Slot) *gorm.DB {
	return tx.Where("business_id = ? AND product_id = ? AND location_id = ?",
		slot.BusinessID, slot.ProductID, slot.LocationID)
}

// DecrementStock atomically subtracts qty from the slot, refusing to go
// negative. The conditional update is the enforcement point: zero affected
// rows means the row is absent (ErrNotStocked) or short
// (InsufficientStockError). Returns the before/after quantities.
func (r *Repository) DecrementStock(tx *gorm.DB, slot Slot, qty int) (int, int, error) {
	if tx == nil {
		return 0, 0, gorm.ErrInvalidTransaction
	}
	if qty <= 0 {
		return 0, 0, fmt.Errorf("quantity must be positive, got %d", qty)
	}

	res := slotQuery(tx.Model(&models.Inventory{}), slot).
		Where("quantity >= ?", qty).
		UpdateColumn("quantity", gorm.Expr("quantity - ?", qty))
	if res.Error != nil {
		return 0, 0, res.Error
	}
	if res.RowsAffected == 0 {
		var inv models.Inventory
		if err := slotQuery(tx, slot).First(&inv).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return 0, 0, ErrNotStocked
			}
			return 0, 0, err
		}
		return inv.Quantity, inv.Quantity, &InsufficientStockError{Available: inv.Quantity, Requested: qty}
	}

	// The update holds the row lock for the rest of the transaction, so this
	// read observes exactly the value we wrote.
	var inv models.Inventory
	if err := slotQuery(tx, slot).First(&inv).Error; err != nil {
		return 0, 0, err
	}
	return inv.Quantity + qty, inv.Quantity, nil
}

// IncrementStock adds qty to the slot, creating the row when absent.
// Returns the before/after quantities.
func (r *Repository) IncrementStock(tx *gorm.DB, slot Slot, qty int) (int, int, error) {
	if tx == nil {
		return 0, 0, gorm.ErrInvalidTransaction
	}
	if qty <= 0 {
		return 0, 0, fmt.Errorf("quantity must be positive, got %d", qty)
	}

	// A single upsert: a concurrent insert of the same slot would abort a
	// postgres transaction on the unique violation, so the conflict is
	// resolved inside the statement itself.
	row := &models.Inventory{
		ID:         uuid.New(),
		BusinessID: slot.BusinessID,
		ProductID:  slot.ProductID,
		LocationID: slot.LocationID,
		Quantity:   qty,
	}
	err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "business_id"},
			{Name: "product_id"},
			{Name: "location_id"},
		},
		DoUpdates: clause.Assignments(map[string]any{
			"quantity": gorm.Expr("quantity + ?", qty),
		}),
	}).Create(row).Error
	if err != nil {
		return 0, 0, err
	}

	var inv models.Inventory
	if err := slotQuery(tx, slot).First(&inv).Error; err != nil {
		return 0, 0, err
	}
	return inv.Quantity - qty, inv.Quantity, nil
}

// ClampDecrement subtracts up to qty from the slot, flooring at zero. Used by
// shrinkage adjustments, which must always be recordable even when prior
// counts drifted. Returns the before/after quantities; the applied delta is
// their difference.
func (r *Repository) ClampDecrement(tx *gorm.DB, slot Slot, qty int) (int, int, error) {
	if tx == nil {
		return 0, 0, gorm.ErrInvalidTransaction
	}
	if qty <= 0 {
		return 0, 0, fmt.Errorf("quantity must be positive, got %d", qty)
	}

	// Full decrement first; falls back to a compare-and-swap clamp when the
	// row is short.
	res := slotQuery(tx.Model(&models.Inventory{}), slot).
		Where("quantity >= ?", qty).
		UpdateColumn("quantity", gorm.Expr("quantity - ?", qty))
	if res.Error != nil {
		return 0, 0, res.Error
	}
	if res.RowsAffected > 0 {
		var inv models.Inventory
		if err := slotQuery(tx, slot).First(&inv).Error; err != nil {
			return 0, 0, err
		}
		return inv.Quantity + qty, inv.Quantity, nil
	}

	for attempt := 0; attempt < clampAttempts; attempt++ {
		var inv models.Inventory
		if err := slotQuery(tx, slot).First(&inv).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return 0, 0, ErrNotStocked
			}
			return 0, 0, err
		}
		if inv.Quantity >= qty {
			// Restocked since the first attempt; take the full decrement.
			swap := slotQuery(tx.Model(&models.Inventory{}), slot).
				Where("quantity >= ?", qty).
				UpdateColumn("quantity", gorm.Expr("quantity - ?", qty))
			if swap.Error != nil {
				return 0, 0, swap.Error
			}
			if swap.RowsAffected > 0 {
				return inv.Quantity, inv.Quantity - qty, nil
			}
			continue
		}

		swap := slotQuery(tx.Model(&models.Inventory{}), slot).
			Where("quantity = ?", inv.Quantity).
			UpdateColumn("quantity", 0)
		if swap.Error != nil {
			return 0, 0, swap.Error
		}
		if swap.RowsAffected > 0 {
			return inv.Quantity, 0, nil
		}
	}
	return 0, 0, fmt.Errorf("adjustment contention on product %s", slot.ProductID)
}

// AppendMovement inserts one immutable ledger row.
func (r *Repository) AppendMovement(tx *gorm.DB, movement *models.InventoryMovement) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	return tx.Create(movement).Error
}

// GetStock loads the inventory row for a slot.
func (r *Repository) GetStock(ctx context.Context, slot Slot) (*models.Inventory, error) {
	var inv models.Inventory
	if err := slotQuery(r.db.WithContext(ctx), slot).First(&inv).Error; err != nil {
		return nil, err
	}
	return &inv, nil
}

// ListStock returns the business's inventory rows, optionally filtered to one
// location.
func (r *Repository) ListStock(ctx context.Context, businessID uuid.UUID, locationID *uuid.UUID) ([]models.Inventory, error) {
	query := r.db.WithContext(ctx).Where("business_id = ?", businessID)
	if locationID != nil {
		query = query.Where("location_id = ?", *locationID)
	}
	var rows []models.Inventory
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// MovementFilter narrows a ledger listing.
type MovementFilter struct {
	ProductID  *uuid.UUID
	LocationID *uuid.UUID
}

// ListMovements returns ledger rows for a business, newest first, using
// cursor pagination. The second return value is the cursor for the next page,
// empty when exhausted.
func (r *Repository) ListMovements(ctx context.Context, businessID uuid.UUID, filter MovementFilter, params pagination.Params) ([]models.InventoryMovement, string, error) {
	limit := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).
		Where("business_id = ?", businessID).
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit))
	if filter.ProductID != nil {
		query = query.Where("product_id = ?", *filter.ProductID)
	}
	if filter.LocationID != nil {
		query = query.Where("location_id = ?", *filter.LocationID)
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", err
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var rows []models.InventoryMovement
	if err := query.Find(&rows).Error; err != nil {
		return nil, "", err
	}

	next := ""
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return rows, next, nil
}

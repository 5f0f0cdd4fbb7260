package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/tillpoint/tillpoint-backend/api/middleware"
	"github.com/tillpoint/tillpoint-backend/api/responses"
	"github.com/tillpoint/tillpoint-backend/api/validators"
	inventorysvc "github.com/tillpoint/tillpoint-backend/internal/inventory"
	"github.com/tillpoint/tillpoint-backend/pkg/enums"
	pkgerrors "github.com/tillpoint/tillpoint-backend/pkg/errors"
	"github.com/tillpoint/tillpoint-backend/pkg/logger"
)

// ListStock returns on-hand quantities for the business, optionally narrowed
// to one location.
func ListStock(svc inventorysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		businessID, err := middleware.BusinessIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		locationID, err := optionalUUIDQuery(r, "location_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		stock, err := svc.ListStock(r.Context(), businessID, locationID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, stock)
	}
}

// ListMovements returns the stock ledger, newest first, filterable by
// product and location.
func ListMovements(svc inventorysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		businessID, err := middleware.BusinessIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var filter inventorysvc.MovementFilter
		if filter.ProductID, err = optionalUUIDQuery(r, "product_id"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if filter.LocationID, err = optionalUUIDQuery(r, "location_id"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		movements, nextCursor, err := svc.ListMovements(r.Context(), businessID, filter, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, pagedResponse{Items: movements, NextCursor: nextCursor})
	}
}

type restockRequest struct {
	ProductID  uuid.UUID `json:"product_id" validate:"required"`
	LocationID uuid.UUID `json:"location_id" validate:"required"`
	Quantity   int       `json:"quantity" validate:"required,min=1"`
	Reference  *string   `json:"reference,omitempty" validate:"omitempty,max=100"`
	Notes      *string   `json:"notes,omitempty" validate:"omitempty,max=500"`
}

// Restock receives purchased stock into a location.
func Restock(svc inventorysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		businessID, err := middleware.BusinessIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		uid, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload restockRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		movement, err := svc.Restock(r.Context(), inventorysvc.StockChange{
			BusinessID: businessID,
			ProductID:  payload.ProductID,
			LocationID: payload.LocationID,
			Quantity:   payload.Quantity,
			Reference:  payload.Reference,
			Notes:      payload.Notes,
			ActorID:    uid,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, movement)
	}
}

type adjustStockRequest struct {
	ProductID  uuid.UUID `json:"product_id" validate:"required"`
	LocationID uuid.UUID `json:"location_id" validate:"required"`
	Quantity   int       `json:"quantity" validate:"required,min=1"`
	Reason     string    `json:"reason" validate:"required"`
	Notes      *string   `json:"notes,omitempty" validate:"omitempty,max=500"`
}

// AdjustStock writes off shrinkage at one location.
func AdjustStock(svc inventorysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		businessID, err := middleware.BusinessIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		uid, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload adjustStockRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		reason, err := enums.ParseAdjustmentReason(strings.TrimSpace(payload.Reason))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid reason"))
			return
		}

		movement, err := svc.Adjust(r.Context(), inventorysvc.AdjustInput{
			BusinessID: businessID,
			ProductID:  payload.ProductID,
			LocationID: payload.LocationID,
			Quantity:   payload.Quantity,
			Reason:     reason,
			Notes:      payload.Notes,
			ActorID:    uid,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, movement)
	}
}

type transferStockRequest struct {
	ProductID    uuid.UUID  `json:"product_id" validate:"required"`
	FromLocation uuid.UUID  `json:"from_location_id" validate:"required"`
	ToLocationID *uuid.UUID `json:"to_location_id,omitempty"`
	Quantity     int        `json:"quantity" validate:"required,min=1"`
	Notes        *string    `json:"notes,omitempty" validate:"omitempty,max=500"`
}

// TransferStock moves stock between two locations, or out of the business
// when no destination is given.
func TransferStock(svc inventorysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		businessID, err := middleware.BusinessIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		uid, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload transferStockRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		movements, err := svc.Transfer(r.Context(), inventorysvc.TransferInput{
			BusinessID:   businessID,
			ProductID:    payload.ProductID,
			FromLocation: payload.FromLocation,
			ToLocationID: payload.ToLocationID,
			Quantity:     payload.Quantity,
			Notes:        payload.Notes,
			ActorID:      uid,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, movements)
	}
}

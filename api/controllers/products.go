package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tillpoint/tillpoint-backend/api/middleware"
	"github.com/tillpoint/tillpoint-backend/api/responses"
	"github.com/tillpoint/tillpoint-backend/api/validators"
	productsvc "github.com/tillpoint/tillpoint-backend/internal/products"
	pkgerrors "github.com/tillpoint/tillpoint-backend/pkg/errors"
	"github.com/tillpoint/tillpoint-backend/pkg/logger"
)

type createProductRequest struct {
	SKU            string          `json:"sku" validate:"required,max=64"`
	Name           string          `json:"name" validate:"required,max=200"`
	Description    *string         `json:"description,omitempty"`
	Category       *string         `json:"category,omitempty" validate:"omitempty,max=100"`
	Barcode        *string         `json:"barcode,omitempty" validate:"omitempty,max=64"`
	Unit           string          `json:"unit" validate:"omitempty,max=32"`
	RetailPrice    decimal.Decimal `json:"retail_price" validate:"required"`
	WholesalePrice decimal.Decimal `json:"wholesale_price"`
	CostPrice      decimal.Decimal `json:"cost_price"`
	TaxRate        decimal.Decimal `json:"tax_rate"`
	MinStockLevel  int             `json:"min_stock_level" validate:"omitempty,min=0"`
	Tags           []string        `json:"tags,omitempty"`
}

func (p createProductRequest) toDTO(businessID uuid.UUID) productsvc.CreateProductDTO {
	return productsvc.CreateProductDTO{
		BusinessID:     businessID,
		SKU:            validators.SanitizeString(p.SKU, 64),
		Name:           validators.SanitizeString(p.Name, 200),
		Description:    p.Description,
		Category:       p.Category,
		Barcode:        p.Barcode,
		Unit:           p.Unit,
		RetailPrice:    p.RetailPrice,
		WholesalePrice: p.WholesalePrice,
		CostPrice:      p.CostPrice,
		TaxRate:        p.TaxRate,
		MinStockLevel:  p.MinStockLevel,
		Tags:           p.Tags,
	}
}

// CreateProduct adds a catalog entry to the business.
func CreateProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		businessID, err := middleware.BusinessIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Create(r.Context(), payload.toDTO(businessID))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

// GetProduct returns one catalog entry.
func GetProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		businessID, err := middleware.BusinessIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productID, err := uuidParam(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.GetByID(r.Context(), businessID, productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, product)
	}
}

// ListProducts returns a page of the catalog, filterable by search text,
// category, and active flag.
func ListProducts(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
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

		filter := productsvc.ListFilter{
			Search:     strings.TrimSpace(r.URL.Query().Get("search")),
			ActiveOnly: r.URL.Query().Get("active") == "true",
		}
		if category := strings.TrimSpace(r.URL.Query().Get("category")); category != "" {
			filter.Category = &category
		}

		products, nextCursor, err := svc.List(r.Context(), businessID, filter, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, pagedResponse{Items: products, NextCursor: nextCursor})
	}
}

type updateProductRequest struct {
	Name           *string          `json:"name,omitempty" validate:"omitempty,max=200"`
	Description    *string          `json:"description,omitempty"`
	Category       *string          `json:"category,omitempty" validate:"omitempty,max=100"`
	Barcode        *string          `json:"barcode,omitempty" validate:"omitempty,max=64"`
	Unit           *string          `json:"unit,omitempty" validate:"omitempty,max=32"`
	RetailPrice    *decimal.Decimal `json:"retail_price,omitempty"`
	WholesalePrice *decimal.Decimal `json:"wholesale_price,omitempty"`
	CostPrice      *decimal.Decimal `json:"cost_price,omitempty"`
	TaxRate        *decimal.Decimal `json:"tax_rate,omitempty"`
	MinStockLevel  *int             `json:"min_stock_level,omitempty" validate:"omitempty,min=0"`
	Tags           *[]string        `json:"tags,omitempty"`
	IsActive       *bool            `json:"is_active,omitempty"`
}

// UpdateProduct applies a partial update to a catalog entry.
func UpdateProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		businessID, err := middleware.BusinessIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productID, err := uuidParam(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Update(r.Context(), businessID, productID, productsvc.UpdateProductInput{
			Name:           payload.Name,
			Description:    payload.Description,
			Category:       payload.Category,
			Barcode:        payload.Barcode,
			Unit:           payload.Unit,
			RetailPrice:    payload.RetailPrice,
			WholesalePrice: payload.WholesalePrice,
			CostPrice:      payload.CostPrice,
			TaxRate:        payload.TaxRate,
			MinStockLevel:  payload.MinStockLevel,
			Tags:           payload.Tags,
			IsActive:       payload.IsActive,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, product)
	}
}

// DeactivateProduct retires a product from sale without deleting its history.
func DeactivateProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		businessID, err := middleware.BusinessIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productID, err := uuidParam(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Deactivate(r.Context(), businessID, productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deactivated"})
	}
}

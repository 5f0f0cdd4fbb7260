package middleware

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tillpoint/tillpoint-backend/api/responses"
	"github.com/tillpoint/tillpoint-backend/internal/rbac"
	pkgerrors "github.com/tillpoint/tillpoint-backend/pkg/errors"
	"github.com/tillpoint/tillpoint-backend/pkg/logger"
)

// permissionChecker decides whether a resolved permission context covers the
// requested operation. Errors mean the check could not run; callers fail
// closed.
type permissionChecker interface {
	HasPermission(ctx context.Context, authCtx *rbac.AuthContext, resource, action string, businessID *uuid.UUID) (bool, error)
}

// BusinessIDParam extracts and validates the {businessID} route parameter.
func BusinessIDParam(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "businessID")
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "business id is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid business id")
	}
	return id, nil
}

// RequirePermission guards a route with a permission check. Routes nested
// under /businesses/{businessID} are checked against that business;
// otherwise the permission is evaluated globally.
func RequirePermission(checker permissionChecker, resource, action string, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authCtx := AuthContextFrom(r.Context())
			if authCtx == nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			var businessID *uuid.UUID
			if raw := chi.URLParam(r, "businessID"); raw != "" {
				id, err := uuid.Parse(raw)
				if err != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid business id"))
					return
				}
				businessID = &id
			}

			ok, err := checker.HasPermission(r.Context(), authCtx, resource, action, businessID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check permission"))
				return
			}
			if !ok {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "permission denied"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

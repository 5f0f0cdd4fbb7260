package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/tillpoint/tillpoint-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID           uuid.UUID
	ActiveBusinessID *uuid.UUID
	Role             enums.AccountRole
	JTI              string
}

// AccessTokenClaims represents the typed JWT issued to clients. Permissions
// are never embedded in the token; they are resolved per request so grants
// and revokes take effect immediately.
type AccessTokenClaims struct {
	UserID           uuid.UUID         `json:"user_id"`
	ActiveBusinessID *uuid.UUID        `json:"active_business_id,omitempty"`
	Role             enums.AccountRole `json:"role"`
	jwt.RegisteredClaims
}

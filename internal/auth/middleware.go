package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/sla-engine/pkg/util"
)

const tenantKey = "auth_tenant"

// TenantMiddleware validates bearer tokens and scopes the request to a
// tenant. Every protected query downstream filters on this tenant id; no
// cross-tenant state is ever shared.
type TenantMiddleware struct {
	tokens *TokenManager
}

// NewTenantMiddleware constructs middleware.
func NewTenantMiddleware(tokens *TokenManager) *TenantMiddleware {
	return &TenantMiddleware{tokens: tokens}
}

// Handle enforces authentication for protected routes.
func (m *TenantMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	c.Locals(tenantKey, claims.TenantID)
	return c.Next()
}

// TenantFromContext retrieves the authenticated tenant id.
func TenantFromContext(c *fiber.Ctx) (string, bool) {
	val := c.Locals(tenantKey)
	if val == nil {
		return "", false
	}
	tenantID, ok := val.(string)
	return tenantID, ok && tenantID != ""
}

// internal/middleware/auth_middleware.go
package middleware

import (
	"errors"
	"net/http"
	"strings"

	"subpay-service/internal/pkg/jwt"
	"subpay-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

type AuthMiddleware struct {
	verifier        *jwt.Manager
	providerAddress string
	apiKeyHash      string // bcrypt hash of the operator API key, may be empty
}

func NewAuthMiddleware(verifier *jwt.Manager, providerAddress, apiKeyHash string) *AuthMiddleware {
	return &AuthMiddleware{
		verifier:        verifier,
		providerAddress: providerAddress,
		apiKeyHash:      apiKeyHash,
	}
}

// Auth validates the bearer token and records the caller identity on
// the request context. Every "must match caller" check downstream uses
// this identity. A request carrying only an operator API key passes
// through unauthenticated; RequireProvider verifies the key itself.
func (m *AuthMiddleware) Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			if c.GetHeader("X-API-Key") != "" && m.apiKeyHash != "" {
				c.Next()
				return
			}
			response.Error(c, http.StatusUnauthorized, "missing authorization token", nil)
			return
		}

		claims, err := m.verifier.Verify(token)
		if err != nil {
			response.Error(c, http.StatusUnauthorized, "invalid or expired token", err)
			return
		}

		c.Set("account_id", claims.AccountID)
		c.Set("roles", claims.Roles)
		c.Next()
	}
}

// RequireProvider guards plan administration and settlement
// reconciliation. The call passes if the operator API key is presented,
// or if the authenticated caller is the provider address or carries the
// owner role. MUST be used after Auth() unless an API key is expected.
func (m *AuthMiddleware) RequireProvider() gin.HandlerFunc {
	return func(c *gin.Context) {
		if key := c.GetHeader("X-API-Key"); key != "" && m.apiKeyHash != "" {
			if err := bcrypt.CompareHashAndPassword([]byte(m.apiKeyHash), []byte(key)); err == nil {
				// API-key callers act as the provider
				if !IsAuthenticated(c) {
					c.Set("account_id", m.providerAddress)
				}
				c.Next()
				return
			}
		}

		accountID, ok := GetAccountID(c)
		if !ok {
			response.Error(c, http.StatusUnauthorized, "authentication required", nil)
			return
		}
		if accountID != m.providerAddress && !HasRole(c, "owner") {
			err := errors.New("caller is neither provider nor owner")
			response.Error(c, http.StatusForbidden, "insufficient permissions", err)
			return
		}
		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// internal/middleware/helpers.go
package middleware

import "github.com/gin-gonic/gin"

// GetAccountID gets the caller account id from context
func GetAccountID(c *gin.Context) (string, bool) {
	v, exists := c.Get("account_id")
	if !exists {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}

// MustGetAccountID gets the caller account id from context or panics
func MustGetAccountID(c *gin.Context) string {
	id, ok := GetAccountID(c)
	if !ok {
		panic("account_id not found in context")
	}
	return id
}

// GetRoles gets caller roles from context
func GetRoles(c *gin.Context) []string {
	roles, exists := c.Get("roles")
	if !exists {
		return []string{}
	}

	rolesList, ok := roles.([]string)
	if !ok {
		return []string{}
	}
	return rolesList
}

// HasRole checks if the caller has a specific role
func HasRole(c *gin.Context, role string) bool {
	for _, r := range GetRoles(c) {
		if r == role {
			return true
		}
	}
	return false
}

// IsAuthenticated checks if request is authenticated
func IsAuthenticated(c *gin.Context) bool {
	_, exists := c.Get("account_id")
	return exists
}

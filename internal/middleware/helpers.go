// internal/middleware/helpers.go
package middleware

import "github.com/gin-gonic/gin"

// GetUserID returns the authenticated account id, or "" for anonymous requests
func GetUserID(c *gin.Context) string {
	return c.GetString(ctxUserID)
}

// MustGetUserID gets the user ID from context or panics. Only for routes behind Protect().
func MustGetUserID(c *gin.Context) string {
	userID := GetUserID(c)
	if userID == "" {
		panic("user_id not found in context")
	}
	return userID
}

func IsAuthenticated(c *gin.Context) bool {
	return GetUserID(c) != ""
}

func IsAdmin(c *gin.Context) bool {
	return c.GetString(ctxRole) == "admin"
}

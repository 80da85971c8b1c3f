// internal/pkg/jwt/claims.go
package jwt

import "github.com/golang-jwt/jwt/v5"

// Purpose separates access tokens from any other token the service might sign.
type Purpose string

const PurposeAccess Purpose = "access"

// Claims carried by storefront access tokens. The subject is the account id.
type Claims struct {
	Role    string  `json:"role"`
	Purpose Purpose `json:"purpose"`
	jwt.RegisteredClaims
}

// UserID is the account the token was issued to.
func (c *Claims) UserID() string {
	return c.Subject
}

func (c *Claims) IsAdmin() bool {
	return c.Role == "admin"
}

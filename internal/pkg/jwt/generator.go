// internal/pkg/jwt/generator.go
package jwt

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
)

// Token is a signed access token and the facts a caller may want to echo back.
type Token struct {
	Value     string
	ID        string
	ExpiresAt time.Time
}

// Generator signs RS256 tokens. kid is set in the header so keys can be rotated.
type Generator struct {
	priv *rsa.PrivateKey
	cfg  Config
	now  func() time.Time
}

func NewGenerator(priv *rsa.PrivateKey, cfg Config) *Generator {
	return &Generator{priv: priv, cfg: cfg, now: time.Now}
}

// Issue signs an access token for the account.
func (g *Generator) Issue(userID, role string) (*Token, error) {
	if g.priv == nil {
		return nil, errors.New("jwt generator has nil private key")
	}
	if userID == "" {
		return nil, errors.New("cannot issue a token without a subject")
	}

	now := g.now()
	expires := now.Add(g.cfg.TTL)
	id := ulid.Make().String()

	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, &Claims{
		Role:    role,
		Purpose: PurposeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    g.cfg.Issuer,
			Subject:   userID,
			Audience:  jwt.ClaimStrings{g.cfg.Audience},
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        id,
		},
	})
	if g.cfg.KID != "" {
		tok.Header["kid"] = g.cfg.KID
	}

	signed, err := tok.SignedString(g.priv)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &Token{Value: signed, ID: id, ExpiresAt: expires}, nil
}

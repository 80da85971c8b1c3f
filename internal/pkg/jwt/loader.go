// internal/pkg/jwt/loader.go
package jwt

import (
	"crypto/rsa"
	"fmt"
	"time"
)

type Config struct {
	PrivPath string        `env:"PRIVATE_KEY_PATH,default=/app/secrets/jwt_private.pem"`
	PubPath  string        `env:"PUBLIC_KEY_PATH,default=/app/secrets/jwt_public.pem"`
	Issuer   string        `env:"ISSUER,default=fashionsphere"`
	Audience string        `env:"AUDIENCE,default=fashionsphere-web"`
	TTL      time.Duration `env:"TTL,default=720h"`
	KID      string        `env:"KID,default=fashionsphere-key"`
}

type Manager struct {
	Generator *Generator
	Verifier  *Verifier
}

func LoadAndBuild(cfg Config) (*Manager, error) {
	priv, err := LoadRSAPrivateKeyFromPEM(cfg.PrivPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load private key from %s: %w", cfg.PrivPath, err)
	}

	pub, err := LoadRSAPublicKeyFromPEM(cfg.PubPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load public key from %s: %w", cfg.PubPath, err)
	}

	return NewManager(priv, pub, cfg), nil
}

// NewManager builds a manager from keys already in memory.
func NewManager(priv *rsa.PrivateKey, pub *rsa.PublicKey, cfg Config) *Manager {
	return &Manager{
		Generator: NewGenerator(priv, cfg),
		Verifier:  NewVerifier(pub, cfg),
	}
}

package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// lifetime of tokens issued by GenerateJWT
const tokenTTL = 7 * 24 * time.Hour

var (
	ErrMissingSecret = errors.New("jwt secret not set")
	ErrInvalidToken  = errors.New("invalid token")
)

// represents JWT claims. sub is the profile id.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// signs and verifies bearer tokens with one HMAC secret
type Authenticator struct {
	secret []byte
	now    func() time.Time
}

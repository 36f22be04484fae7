package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/agrodash/agrodash/internal/shared"
)

// LocalIssuer is the issuer stamped on locally signed development tokens.
const LocalIssuer = "agrodash-local"

// LocalClaims is the payload of a locally signed token.
type LocalClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
}

// LocalVerifier verifies HS256 tokens signed with a shared secret. It stands
// in for the managed identity provider in development and tests.
type LocalVerifier struct {
	secret []byte
	now    func() time.Time
}

// NewLocalVerifier constructs a LocalVerifier.
func NewLocalVerifier(secret string) (*LocalVerifier, error) {
	if secret == "" {
		return nil, errors.New("identity: local token secret required")
	}
	return &LocalVerifier{secret: []byte(secret), now: time.Now}, nil
}

// Issue signs a token for the identity valid for ttl.
func (v *LocalVerifier) Issue(id Identity, ttl time.Duration) (string, error) {
	now := v.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, LocalClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			Issuer:    LocalIssuer,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Email: id.Email,
	})
	return token.SignedString(v.secret)
}

// Verify parses and validates a locally signed token.
func (v *LocalVerifier) Verify(_ context.Context, token string) (Identity, error) {
	claims := &LocalClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(LocalIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		return Identity{}, fmt.Errorf("identity: parse local token: %v: %w", err, shared.ErrInvalidCredential)
	}
	if !parsed.Valid {
		return Identity{}, fmt.Errorf("identity: local token not valid: %w", shared.ErrInvalidCredential)
	}
	return checkClaims(Identity{UserID: claims.Subject, Email: claims.Email})
}

// Package identity verifies bearer credentials and carries the authenticated
// caller through the request context.
package identity

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/agrodash/agrodash/internal/shared"
)

// Identity is the caller as asserted by the identity provider.
type Identity struct {
	UserID string `json:"uid" validate:"required,max=128"`
	Email  string `json:"email" validate:"omitempty,email"`
}

// Verifier validates a raw token with the identity provider.
type Verifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}

// VerifierFunc adapts a function to Verifier.
type VerifierFunc func(ctx context.Context, token string) (Identity, error)

// Verify calls f.
func (f VerifierFunc) Verify(ctx context.Context, token string) (Identity, error) {
	return f(ctx, token)
}

var validate = validator.New()

// checkClaims rejects identities the provider returned without a usable subject.
func checkClaims(id Identity) (Identity, error) {
	if err := validate.Struct(id); err != nil {
		return Identity{}, fmt.Errorf("identity: claims: %v: %w", err, shared.ErrInvalidCredential)
	}
	return id, nil
}

type identityContextKey struct{}

// WithIdentity stores the identity in context.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// FromContext extracts the identity from context.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(Identity)
	return id, ok
}

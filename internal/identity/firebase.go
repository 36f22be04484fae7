package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/agrodash/agrodash/internal/shared"
)

// GoogleSecureTokenJWKS publishes the keys that sign Firebase ID tokens.
const GoogleSecureTokenJWKS = "https://www.googleapis.com/service_accounts/v1/jwk/securetoken@system.gserviceaccount.com"

// FirebaseConfig configures FirebaseVerifier.
type FirebaseConfig struct {
	ProjectID string
	JWKSURL   string
	// RefreshInterval bounds how often the key set is refetched.
	RefreshInterval time.Duration
	Skew            time.Duration
}

// FirebaseVerifier validates Firebase ID tokens against Google's key set.
type FirebaseVerifier struct {
	cache    *jwk.Cache
	keys     jwk.Set
	url      string
	issuer   string
	audience string
	skew     time.Duration
}

// NewFirebaseVerifier registers the key set and performs the first fetch.
// The cache keeps refreshing in the background until ctx is cancelled.
func NewFirebaseVerifier(ctx context.Context, cfg FirebaseConfig) (*FirebaseVerifier, error) {
	if cfg.ProjectID == "" {
		return nil, errors.New("identity: firebase project id required")
	}
	url := cfg.JWKSURL
	if url == "" {
		url = GoogleSecureTokenJWKS
	}
	refresh := cfg.RefreshInterval
	if refresh <= 0 {
		refresh = time.Hour
	}
	cache := jwk.NewCache(ctx)
	if err := cache.Register(url, jwk.WithMinRefreshInterval(refresh)); err != nil {
		return nil, fmt.Errorf("identity: register jwks: %w", err)
	}
	if _, err := cache.Refresh(ctx, url); err != nil {
		return nil, fmt.Errorf("identity: fetch jwks: %w", err)
	}
	return &FirebaseVerifier{
		cache:    cache,
		keys:     jwk.NewCachedSet(cache, url),
		url:      url,
		issuer:   "https://securetoken.google.com/" + cfg.ProjectID,
		audience: cfg.ProjectID,
		skew:     cfg.Skew,
	}, nil
}

// Verify checks signature, issuer, audience, expiry and subject.
func (v *FirebaseVerifier) Verify(ctx context.Context, token string) (Identity, error) {
	if _, err := v.cache.Get(ctx, v.url); err != nil {
		return Identity{}, fmt.Errorf("identity: jwks: %v: %w", err, shared.ErrIdentityUnavailable)
	}
	tok, err := jwt.ParseString(token,
		jwt.WithKeySet(v.keys, jws.WithInferAlgorithmFromKey(true)),
		jwt.WithValidate(true),
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.audience),
		jwt.WithAcceptableSkew(v.skew),
	)
	if err != nil {
		return Identity{}, fmt.Errorf("identity: parse firebase token: %v: %w", err, shared.ErrInvalidCredential)
	}
	email, _ := tok.Get("email")
	return checkClaims(Identity{UserID: tok.Subject(), Email: str(email)})
}

func str(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

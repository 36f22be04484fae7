package identity

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/agrodash/agrodash/internal/platform/httpx"
	"github.com/agrodash/agrodash/internal/shared"
)

const bearerPrefix = "Bearer "

// Recorder receives the outcome of every verification attempt.
type Recorder interface {
	ObserveVerification(result string)
}

// Gate rejects requests without a verified bearer credential.
type Gate struct {
	Verifier Verifier
	Logger   *slog.Logger
	Recorder Recorder
}

// Require verifies the Authorization header once per request and attaches
// the identity to the request context.
func (g Gate) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := BearerToken(r.Header.Get("Authorization"))
		if err != nil {
			g.observe("missing")
			httpx.RespondError(w, err, "")
			return
		}
		id, err := g.Verifier.Verify(r.Context(), token)
		if err != nil {
			result := "invalid"
			if errors.Is(err, shared.ErrIdentityUnavailable) {
				result = "unavailable"
				g.logger().Error("verify token", slog.Any("error", err))
			} else {
				g.logger().Warn("verify token", slog.Any("error", err))
				if !errors.Is(err, shared.ErrInvalidCredential) {
					err = errors.Join(err, shared.ErrInvalidCredential)
				}
			}
			g.observe(result)
			httpx.RespondError(w, err, "")
			return
		}
		g.observe("ok")
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", shared.ErrUnauthenticated
	}
	token := strings.TrimSpace(header[len(bearerPrefix):])
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", shared.ErrUnauthenticated
	}
	return token, nil
}

func (g Gate) observe(result string) {
	if g.Recorder != nil {
		g.Recorder.ObserveVerification(result)
	}
}

func (g Gate) logger() *slog.Logger {
	if g.Logger != nil {
		return g.Logger
	}
	return slog.Default()
}

package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/saulo-duarte/codequiz-lambda/internal/config"
)

type contextKey string

const claimsKey contextKey = "user_claims"

const CookieName = "jwt"

var ErrUnauthenticated = errors.New("unauthenticated")

// AuthMiddleware accepts a bearer token or the jwt cookie and stores the
// validated claims in the request context.
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := config.WithContext(r.Context())

		tokenStr := tokenFromRequest(r)
		if tokenStr == "" {
			config.Error(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		claims, err := ValidateJWT(tokenStr)
		if err != nil {
			log.WithError(err).Warn("Invalid JWT")
			config.Error(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		if _, err := uuid.Parse(claims.UserID); err != nil {
			log.WithField("user_id", claims.UserID).Warn("JWT carries a malformed user id")
			config.Error(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

func tokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if c, err := r.Cookie(CookieName); err == nil {
		return c.Value
	}
	return ""
}

func WithClaims(ctx context.Context, claims *Claims) context.Context {
	ctx = context.WithValue(ctx, claimsKey, claims)
	return config.WithUserID(ctx, claims.UserID)
}

func GetUserClaimsFromContext(ctx context.Context) (*Claims, error) {
	claims, ok := ctx.Value(claimsKey).(*Claims)
	if !ok || claims == nil {
		return nil, ErrUnauthenticated
	}
	return claims, nil
}

func UserIDFromContext(ctx context.Context) (uuid.UUID, error) {
	claims, err := GetUserClaimsFromContext(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		return uuid.Nil, ErrUnauthenticated
	}
	return id, nil
}

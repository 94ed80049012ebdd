package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/saulo-duarte/codequiz-lambda/internal/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func protected(t *testing.T, gotID *uuid.UUID) http.Handler {
	return auth.AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := auth.UserIDFromContext(r.Context())
		require.NoError(t, err)
		*gotID = id
		w.WriteHeader(http.StatusNoContent)
	}))
}

func TestAuthMiddleware(t *testing.T) {
	auth.Init(testSecret)

	t.Run("BearerToken", func(t *testing.T) {
		var got uuid.UUID
		token, err := auth.GenerateJWT(testUserID, testRole, time.Minute)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		protected(t, &got).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, testUserID, got.String())
	})

	t.Run("Cookie", func(t *testing.T) {
		var got uuid.UUID
		token, err := auth.GenerateJWT(testUserID, testRole, time.Minute)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: token})
		rec := httptest.NewRecorder()
		protected(t, &got).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("MissingToken", func(t *testing.T) {
		var got uuid.UUID
		rec := httptest.NewRecorder()
		protected(t, &got).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("MalformedUserID", func(t *testing.T) {
		var got uuid.UUID
		token, err := auth.GenerateJWT("not-a-uuid", testRole, time.Minute)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		protected(t, &got).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

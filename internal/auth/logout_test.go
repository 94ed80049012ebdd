package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/saulo-duarte/codequiz-lambda/internal/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogout(t *testing.T) {
	logout := func(policy auth.CookiePolicy) *http.Cookie {
		rec := httptest.NewRecorder()
		auth.NewHandler(policy).Logout(rec, httptest.NewRequest(http.MethodPost, "/auth/logout", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		return cookies[0]
	}

	t.Run("Secure", func(t *testing.T) {
		c := logout(auth.CookiePolicy{Domain: "quiz.example.com", Secure: true})

		assert.Equal(t, auth.CookieName, c.Name)
		assert.Empty(t, c.Value)
		assert.Equal(t, -1, c.MaxAge)
		assert.Equal(t, "quiz.example.com", c.Domain)
		assert.True(t, c.Secure)
		assert.True(t, c.HttpOnly)
		assert.Equal(t, http.SameSiteNoneMode, c.SameSite)
	})

	t.Run("LocalDevelopment", func(t *testing.T) {
		c := logout(auth.CookiePolicy{})

		assert.False(t, c.Secure)
		assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	})
}

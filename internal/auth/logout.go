package auth

import (
	"net/http"

	"github.com/saulo-duarte/codequiz-lambda/internal/config"
)

// CookiePolicy mirrors the attributes the jwt cookie was issued with, so the
// browser accepts the expiring overwrite.
type CookiePolicy struct {
	Domain string
	Secure bool
}

func (p CookiePolicy) sameSite() http.SameSite {
	// Browsers drop SameSite=None cookies that are not Secure.
	if p.Secure {
		return http.SameSiteNoneMode
	}
	return http.SameSiteLaxMode
}

type Handler struct {
	policy CookiePolicy
}

func NewHandler(policy CookiePolicy) *Handler {
	return &Handler{policy: policy}
}

// Logout expires the jwt cookie. Bearer tokens are stateless and simply
// discarded by the client.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Path:     "/",
		Domain:   h.policy.Domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.policy.Secure,
		SameSite: h.policy.sameSite(),
	})

	config.WithContext(r.Context()).Debug("Auth cookie cleared")
	config.JSON(w, http.StatusOK, map[string]string{
		"message": "logout successful",
	})
}

package httpx

import (
	"net/http"

	"github.com/brokerdesk/admin-console/internal/domain/access"
	domainauth "github.com/brokerdesk/admin-console/internal/domain/auth"
)

type loginContent struct {
	Username    string
	RedirectURI string
}

// LoginPage serves GET /login. A signed-in visitor is sent on to their destination.
func (h *Handlers) LoginPage(w http.ResponseWriter, r *http.Request) {
	redirectURI := safeRedirectPath(r.URL.Query().Get("redirect_uri"))
	if p, ok := PrincipalFromContext(r.Context()); ok {
		redirectTo(w, r, postLoginTarget(redirectURI, p.Role))
		return
	}
	h.render(w, r, page{
		Meta:    PageMeta{Title: "Sign in", Page: PageLogin},
		Content: loginContent{RedirectURI: redirectURI},
	})
}

// Login serves POST /login.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	username := r.FormValue("username")
	redirectURI := safeRedirectPath(r.FormValue("redirect_uri"))
	view := ViewFromContext(r.Context())
	hadSession := view.Session != nil

	sess, ok := h.Gateway.Login(r.Context(), view, username, r.FormValue("password"))
	if !ok {
		if hadSession {
			expireCookie(w, r, cookieSpec{Name: SessionCookieName, Domain: h.CookieDomain})
		}
		status := http.StatusUnauthorized
		if IsHTMX(r) {
			// htmx does not swap error responses
			status = http.StatusOK
		}
		h.render(w, r, page{
			Meta:    PageMeta{Title: "Sign in", Page: PageLogin},
			Content: loginContent{Username: username, RedirectURI: redirectURI},
			Status:  status,
		})
		return
	}

	h.setSessionCookie(w, r, sess)
	h.flash().persist(w, r)
	redirectTo(w, r, postLoginTarget(redirectURI, sess.Principal.Role))
}

// postLoginTarget honours a safe redirect_uri, otherwise the role's home.
func postLoginTarget(redirectURI string, role domainauth.Role) string {
	if redirectURI != "" {
		return redirectURI
	}
	return access.HomeFor(role)
}

// Logout serves POST /logout.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if !h.Gateway.Logout(r.Context(), ViewFromContext(r.Context())) {
		h.logger().WarnContext(r.Context(), "logout could not clear the stored session")
	}
	expireCookie(w, r, cookieSpec{Name: SessionCookieName, Domain: h.CookieDomain})
	redirectTo(w, r, access.PathLogin)
}

// Status serves GET /auth/status as JSON.
func (h *Handlers) Status(w http.ResponseWriter, r *http.Request) {
	view := ViewFromContext(r.Context())
	if view.State == domainauth.StateUnknown {
		w.Header().Set("Retry-After", retryAfterSeconds)
		WriteJSON(w, http.StatusServiceUnavailable, map[string]any{
			"authenticated": false,
			"state":         view.State.String(),
		})
		return
	}
	if !view.IsAuthenticated() {
		WriteJSON(w, http.StatusOK, map[string]any{
			"authenticated": false,
			"state":         view.State.String(),
		})
		return
	}
	p := view.Session.Principal
	WriteJSON(w, http.StatusOK, map[string]any{
		"authenticated":  true,
		"state":          view.State.String(),
		"is_super_admin": view.IsSuperAdmin(),
		"user":           p,
		"expires_at":     view.Session.ExpiresAt,
	})
}

func (h *Handlers) setSessionCookie(w http.ResponseWriter, r *http.Request, sess *domainauth.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    sess.ID,
		Path:     "/",
		Domain:   h.CookieDomain,
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
	})
}

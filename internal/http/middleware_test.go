package httpx

import (
	"compress/gzip"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brokerdesk/admin-console/internal/domain/access"
	domainauth "github.com/brokerdesk/admin-console/internal/domain/auth"
)

func TestRequireAccess_Decisions(t *testing.T) {
	tests := []struct {
		name         string
		role         domainauth.Role // empty means no session
		storeDown    bool
		target       string
		wantStatus   int
		wantLocation string
		wantBody     string
	}{
		{
			name:         "anonymous is sent to login with origin",
			target:       "/users?q=smith",
			wantStatus:   http.StatusSeeOther,
			wantLocation: "/login?redirect_uri=%2Fusers%3Fq%3Dsmith",
		},
		{
			name:         "anonymous on dashboard gets plain login",
			target:       "/",
			wantStatus:   http.StatusSeeOther,
			wantLocation: "/login",
		},
		{
			name:       "unreadable store shows checking page",
			role:       domainauth.RoleAdmin,
			storeDown:  true,
			target:     "/policies",
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   "Checking your session",
		},
		{
			name:         "super admin on dashboard goes to admin management",
			role:         domainauth.RoleSuperAdmin,
			target:       "/",
			wantStatus:   http.StatusSeeOther,
			wantLocation: access.PathAdminManagement,
		},
		{
			name:         "super admin on admin page goes to admin management",
			role:         domainauth.RoleSuperAdmin,
			target:       "/documents",
			wantStatus:   http.StatusSeeOther,
			wantLocation: access.PathAdminManagement,
		},
		{
			name:       "admin is denied admin management inline",
			role:       domainauth.RoleAdmin,
			target:     "/admin-management",
			wantStatus: http.StatusForbidden,
			wantBody:   "Access restricted",
		},
		{
			name:       "admin reaches settings",
			role:       domainauth.RoleAdmin,
			target:     "/settings",
			wantStatus: http.StatusOK,
			wantBody:   "Change password",
		},
		{
			name:       "super admin reaches settings",
			role:       domainauth.RoleSuperAdmin,
			target:     "/settings",
			wantStatus: http.StatusOK,
			wantBody:   "Change password",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			var session string
			if tt.role != "" {
				session = h.signIn(t, "s1", tt.role)
			}
			if tt.storeDown {
				h.sessions.FailGets(errors.New("connection refused"))
			}

			rec := h.serve(t, testRequest{target: tt.target, session: session})

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantLocation != "" {
				assert.Equal(t, tt.wantLocation, rec.Header().Get("Location"))
			}
			if tt.wantBody != "" {
				assert.Contains(t, rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestRequireAccess_CheckingSetsRetryAfter(t *testing.T) {
	h := newHarness(t)
	session := h.signIn(t, "s1", domainauth.RoleAdmin)
	h.sessions.FailGets(errors.New("timeout"))

	rec := h.serve(t, testRequest{target: "/users", session: session})

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, retryAfterSeconds, rec.Header().Get("Retry-After"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.Contains(t, rec.Body.String(), `http-equiv="refresh"`)
	assert.Nil(t, responseCookie(rec, SessionCookieName), "an unreadable store must not clear the cookie")
}

func TestRequireAccess_APIRequestsGetJSON(t *testing.T) {
	pages := GuardOptions{}
	handler := RequireAccess(mustRoute(access.PathUsers), pages)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	tests := []struct {
		name       string
		view       domainauth.View
		wantStatus int
		wantCode   string
	}{
		{"logged out", domainauth.LoggedOutView(), http.StatusUnauthorized, "authentication_required"},
		{"unknown", domainauth.UnknownView(), http.StatusServiceUnavailable, "session_unavailable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/users", nil)
			req.Header.Set("Accept", "application/json")
			view := tt.view
			req = req.WithContext(SetViewInContext(req.Context(), &view))
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
			assert.Contains(t, rec.Body.String(), tt.wantCode)
		})
	}
}

func TestRequireAccess_HTMXRedirectsWithHeader(t *testing.T) {
	h := newHarness(t)

	rec := h.serve(t, testRequest{
		target: "/policies",
		headers: map[string]string{
			"Hx-Request":     "true",
			"Hx-Current-Url": "http://console.test/policies?status=Active",
		},
	})

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "/login?redirect_uri=%2Fpolicies%3Fstatus%3DActive", rec.Header().Get("Hx-Redirect"))
}

type countingRestorer struct{ calls int }

func (c *countingRestorer) Restore(context.Context, string) domainauth.View {
	c.calls++
	return domainauth.LoggedOutView()
}

func TestLoadSession_SkipsStaticAndHealth(t *testing.T) {
	tests := []struct {
		path      string
		wantCalls int
	}{
		{"/healthz", 0},
		{"/static/js/app.js", 0},
		{"/metrics", 0},
		{"/policies", 1},
		{"/healthzz", 1},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			restorer := &countingRestorer{}
			handler := LoadSession(restorer, "", "/metrics")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			}))
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "gone"})
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusNoContent, rec.Code)
			assert.Equal(t, tt.wantCalls, restorer.calls)
			if tt.wantCalls == 0 {
				assert.Nil(t, responseCookie(rec, SessionCookieName))
			}
		})
	}
}

func TestHealthz_IgnoresSessionStoreOutage(t *testing.T) {
	h := newHarness(t)
	session := h.signIn(t, "s1", domainauth.RoleAdmin)
	h.sessions.FailGets(errors.New("connection refused"))

	rec := h.serve(t, testRequest{target: "/healthz", session: session})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestMustRoute_PanicsForUnknownPattern(t *testing.T) {
	assert.NotPanics(t, func() { mustRoute(access.PathPolicies + "/{id}") })
	assert.Panics(t, func() { mustRoute("/nope") })
}

func TestSafeRedirectPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/policies", "/policies"},
		{"/users?q=a%20b", "/users?q=a%20b"},
		{"  /documents ", "/documents"},
		{"", ""},
		{"policies", ""},
		{"//evil.example.com/x", ""},
		{"/\\evil.example.com", ""},
		{"https://evil.example.com/users", ""},
		{"/login", ""},
		{"/login?redirect_uri=/users", ""},
		{"/logout", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, safeRedirectPath(tt.in))
		})
	}
}

func TestLoginURL(t *testing.T) {
	assert.Equal(t, "/login", loginURL(""))
	assert.Equal(t, "/login", loginURL("/"))
	assert.Equal(t, "/login?redirect_uri=%2Fusers%2F42", loginURL("/users/42"))
}

func TestCSRF(t *testing.T) {
	t.Run("form post without token is rejected", func(t *testing.T) {
		h := newHarness(t)
		session := h.signIn(t, "s1", domainauth.RoleAdmin)

		rec := h.serve(t, testRequest{
			method:  http.MethodPost,
			target:  "/users",
			session: session,
			form:    map[string][]string{"name": {"Ann"}},
			noCSRF:  true,
		})

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, 0, h.backend.CallCount("create_user"))
	})

	t.Run("header token is accepted", func(t *testing.T) {
		h := newHarness(t)
		session := h.signIn(t, "s1", domainauth.RoleAdmin)

		rec := h.serve(t, testRequest{
			method:  http.MethodPost,
			target:  "/users/user-9/delete",
			session: session,
			noCSRF:  true,
			headers: map[string]string{DefaultCSRFHeaderName: testCSRFToken},
		})

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, 1, h.backend.CallCount("delete_user"))
	})

	t.Run("first visit issues a token cookie", func(t *testing.T) {
		handler := CSRF(CSRFConfig{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, CSRFToken(r))
		}))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/login", nil))

		c := responseCookie(rec, DefaultCSRFCookieName)
		require.NotNil(t, c)
		assert.NotEmpty(t, c.Value)
		assert.Equal(t, c.Value, rec.Body.String())
	})
}

func TestCompression(t *testing.T) {
	body := strings.Repeat("<p>policy</p>", 200)
	handler := Compression(CompressionConfig{Level: 5})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/img" {
			w.Header().Set("Content-Type", "image/png")
		} else {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
		}
		_, _ = io.WriteString(w, body)
	}))

	tests := []struct {
		name         string
		path         string
		accept       string
		wantEncoding string
	}{
		{"html with gzip", "/", "gzip, deflate", "gzip"},
		{"gzip refused", "/", "gzip;q=0", ""},
		{"no accept header", "/", "", ""},
		{"binary type", "/img", "gzip", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.accept != "" {
				req.Header.Set("Accept-Encoding", tt.accept)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantEncoding, rec.Header().Get("Content-Encoding"))
			got := rec.Body.Bytes()
			if tt.wantEncoding == "gzip" {
				zr, err := gzip.NewReader(rec.Body)
				require.NoError(t, err)
				got, err = io.ReadAll(zr)
				require.NoError(t, err)
			}
			assert.Equal(t, body, string(got))
		})
	}
}

func TestRecover(t *testing.T) {
	handler := Recover(nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()

	assert.NotPanics(t, func() { handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil)) })
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestIsBrowserRequest(t *testing.T) {
	tests := []struct {
		path   string
		accept string
		htmx   bool
		want   bool
	}{
		{"/users", "text/html,application/xhtml+xml", false, true},
		{"/users", "", false, true},
		{"/users", "application/json", false, false},
		{"/users", "application/json", true, true},
		{"/auth/status", "text/html", false, false},
		{"/static/css/app.css", "*/*", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.path+" "+tt.accept, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			req.Header.Set("Accept", tt.accept)
			if tt.htmx {
				req.Header.Set("Hx-Request", "true")
			}
			assert.Equal(t, tt.want, isBrowserRequest(req))
		})
	}
}

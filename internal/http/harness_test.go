package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/brokerdesk/admin-console/internal/adapters/authroles"
	domainauth "github.com/brokerdesk/admin-console/internal/domain/auth"
	authmocks "github.com/brokerdesk/admin-console/internal/mocks/auth"
	"github.com/brokerdesk/admin-console/internal/service"
	"github.com/brokerdesk/admin-console/internal/testutil"
)

const testCSRFToken = "test-csrf-token"

// harness wires the real gateway and records service to in-memory ports
// behind the full router.
type harness struct {
	handler  http.Handler
	backend  *authmocks.FakeBackend
	sessions *authmocks.MemorySessionStore
	authn    *authmocks.StubAuthenticator
	now      time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	now := testutil.TestTime()
	clock := testutil.FixedTimeFunc(now)
	logger := slog.New(slog.DiscardHandler)

	h := &harness{
		backend:  authmocks.NewFakeBackend(),
		sessions: authmocks.NewMemorySessionStore(clock),
		authn: &authmocks.StubAuthenticator{Accounts: map[string]authmocks.StubAccount{
			"admin": {Password: "admin", Identity: domainauth.Identity{
				ID: "a-1", Username: "admin", Email: "admin@example.com", BackendRole: "admin", Token: "tok-admin",
			}},
			"superadmin": {Password: "superadmin", Identity: domainauth.Identity{
				ID: "s-1", Username: "superadmin", BackendRole: "superadmin", Token: "tok-super",
			}},
		}},
		now: now,
	}

	gw := service.NewAuthGateway(service.AuthGatewayOptions{
		Ports: service.GatewayPorts{
			Authenticator: h.authn,
			Backend:       h.backend,
			Sessions:      h.sessions,
			Roles:         authroles.StaticMapper{},
			Notifier:      &RequestNotifier{Logger: logger},
		},
		Config:    service.GatewayConfig{SessionTTL: time.Hour, Now: clock},
		Telemetry: service.Telemetry{Logger: logger},
	})
	records := service.NewRecordsService(service.RecordsServiceOptions{Gateway: gw, Backend: h.backend})
	renderer, err := NewTemplateRenderer(TemplateRendererConfig{
		TemplateFS: os.DirFS(TemplatePathFromTest),
		Now:        clock,
		Logger:     logger,
	})
	require.NoError(t, err)

	h.handler = NewRouter(RouterServices{
		Gateway:  gw,
		Records:  records,
		Renderer: renderer,
		IsDev:    true,
		Logger:   logger,
	})
	return h
}

// signIn stores a session for role and returns its id.
func (h *harness) signIn(t *testing.T, id string, role domainauth.Role) string {
	t.Helper()
	require.NoError(t, h.sessions.Save(context.Background(), testutil.SessionFixture(id, role, h.now)))
	return id
}

type testRequest struct {
	method  string
	target  string
	form    url.Values
	session string
	headers map[string]string
	cookies []*http.Cookie
	// noCSRF omits the form token on unsafe methods.
	noCSRF bool
}

func (h *harness) serve(t *testing.T, tr testRequest) *httptest.ResponseRecorder {
	t.Helper()
	if tr.method == "" {
		tr.method = http.MethodGet
	}
	var req *http.Request
	if tr.method == http.MethodGet || tr.method == http.MethodHead {
		req = httptest.NewRequest(tr.method, tr.target, nil)
	} else {
		form := url.Values{}
		for k, v := range tr.form {
			form[k] = v
		}
		if !tr.noCSRF {
			form.Set("csrf_token", testCSRFToken)
		}
		req = httptest.NewRequest(tr.method, tr.target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	req.AddCookie(&http.Cookie{Name: DefaultCSRFCookieName, Value: testCSRFToken})
	if tr.session != "" {
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: tr.session})
	}
	for _, c := range tr.cookies {
		req.AddCookie(c)
	}
	for k, v := range tr.headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

func responseCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// attrValues collects attr from every element carrying it, in document order.
func attrValues(t *testing.T, body, attr string) []string {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(body))
	require.NoError(t, err)
	var out []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			for _, a := range n.Attr {
				if a.Key == attr {
					out = append(out, a.Val)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return out
}

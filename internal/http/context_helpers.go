package httpx

import (
	"context"

	domainauth "github.com/brokerdesk/admin-console/internal/domain/auth"
)

// viewKey is an unexported context key type to avoid collisions across packages.
type viewKey struct{}

// SetViewInContext returns a child context carrying the request's auth view.
// Handlers mutate the view through the gateway, so it travels as a pointer.
func SetViewInContext(ctx context.Context, view *domainauth.View) context.Context {
	if view == nil {
		return ctx
	}
	return context.WithValue(ctx, viewKey{}, view)
}

// ViewFromContext returns the auth view loaded for this request.
// Requests that bypassed LoadSession get a fresh LoggedOut view.
func ViewFromContext(ctx context.Context) *domainauth.View {
	if v, ok := ctx.Value(viewKey{}).(*domainauth.View); ok && v != nil {
		return v
	}
	v := domainauth.LoggedOutView()
	return &v
}

// PrincipalFromContext returns the signed-in administrator, if any.
func PrincipalFromContext(ctx context.Context) (domainauth.Principal, bool) {
	return ViewFromContext(ctx).Principal()
}

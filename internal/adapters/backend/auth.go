package backend

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	domainauth "github.com/brokerdesk/admin-console/internal/domain/auth"
	apperrors "github.com/brokerdesk/admin-console/internal/errors"
)

// Login exchanges credentials at POST /admin/auth/login.
// The backend keys administrators by email; the username is sent in that field.
func (c *Client) Login(ctx context.Context, username, password string) (domainauth.Identity, error) {
	var resp loginResponse
	err := c.do(ctx, call{
		op:     "login",
		method: http.MethodPost,
		path:   "/admin/auth/login",
		body:   loginRequest{Email: strings.TrimSpace(username), Password: password},
		out:    &resp,
	})
	if err != nil {
		// Every 4xx on the login endpoint is a credential rejection; the
		// backend's message may reveal whether the account exists.
		if rejectedLogin(err) {
			c.logger.DebugContext(ctx, "backend rejected login", slog.Any("error", err))
			return domainauth.Identity{}, apperrors.Unauthenticated("Invalid credentials")
		}
		return domainauth.Identity{}, err
	}
	if resp.Token == "" || resp.ID == "" {
		return domainauth.Identity{}, &apperrors.AppError{Code: apperrors.ErrCodeBackend, Message: "login response missing token or id"}
	}

	name := resp.Username
	if name == "" {
		name = username
	}
	return domainauth.Identity{
		ID:          resp.ID,
		Username:    name,
		Email:       resp.Email,
		BackendRole: resp.Role,
		Token:       resp.Token,
	}, nil
}

func rejectedLogin(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status >= http.StatusBadRequest && se.Status < http.StatusInternalServerError
	}
	return false
}

// TokenExpiry reads the exp claim of a backend token without verifying it.
// The console only uses it to bound the session lifetime; the backend remains
// the verifier. ok is false for opaque or exp-less tokens.
func TokenExpiry(token string) (time.Time, bool) {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

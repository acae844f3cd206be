package httpx

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/brokerdesk/admin-console/internal/ports"
)

const (
	flashCookieName = "flash"
	// maxFlashNotices keeps the flash cookie well under browser size limits.
	maxFlashNotices = 5
)

// Notice kinds double as toast types in the templates.
const (
	NoticeSuccess = "success"
	NoticeError   = "error"
)

// Notice is one user-facing message raised while serving a request.
type Notice struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type noticeBuffer struct {
	mu      sync.Mutex
	notices []Notice
}

func (b *noticeBuffer) add(n Notice) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.notices = append(b.notices, n)
}

func (b *noticeBuffer) drain() []Notice {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.notices
	b.notices = nil
	return out
}

type noticesKey struct{}

// CollectNotices attaches a per-request notice buffer to the context.
func CollectNotices() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), noticesKey{}, &noticeBuffer{})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// DrainNotices removes and returns the notices raised so far in ctx.
func DrainNotices(ctx context.Context) []Notice {
	if b, ok := ctx.Value(noticesKey{}).(*noticeBuffer); ok {
		return b.drain()
	}
	return nil
}

// addNotice appends n to the request's buffer, if one is installed.
func addNotice(ctx context.Context, n Notice) {
	if b, ok := ctx.Value(noticesKey{}).(*noticeBuffer); ok {
		b.add(n)
	}
}

// RequestNotifier implements ports.Notifier by appending to the buffer
// installed by CollectNotices. Messages raised outside a request are logged.
type RequestNotifier struct {
	Logger *slog.Logger
}

var _ ports.Notifier = (*RequestNotifier)(nil)

// Success implements ports.Notifier.
func (n *RequestNotifier) Success(ctx context.Context, msg string) {
	n.push(ctx, Notice{Kind: NoticeSuccess, Message: msg})
}

// Error implements ports.Notifier.
func (n *RequestNotifier) Error(ctx context.Context, msg string) {
	n.push(ctx, Notice{Kind: NoticeError, Message: msg})
}

func (n *RequestNotifier) push(ctx context.Context, notice Notice) {
	if _, ok := ctx.Value(noticesKey{}).(*noticeBuffer); ok {
		addNotice(ctx, notice)
		return
	}
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.DebugContext(ctx, "notice outside request", slog.String("kind", notice.Kind), slog.String("message", notice.Message))
}

// flash carries notices across a redirect in a short-lived cookie.
type flash struct {
	cookieDomain string
}

// persist drains ctx notices into the flash cookie, keeping any already pending.
func (f flash) persist(w http.ResponseWriter, r *http.Request) {
	notices := append(f.read(r), DrainNotices(r.Context())...)
	if len(notices) == 0 {
		return
	}
	if len(notices) > maxFlashNotices {
		notices = notices[len(notices)-maxFlashNotices:]
	}
	raw, err := json.Marshal(notices)
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    base64.RawURLEncoding.EncodeToString(raw),
		Path:     "/",
		Domain:   f.cookieDomain,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   60,
	})
}

// take returns the pending flash notices and expires the cookie.
func (f flash) take(w http.ResponseWriter, r *http.Request) []Notice {
	notices := f.read(r)
	if len(notices) > 0 {
		expireCookie(w, r, cookieSpec{Name: flashCookieName, Domain: f.cookieDomain})
	}
	return notices
}

func (f flash) read(r *http.Request) []Notice {
	c, err := r.Cookie(flashCookieName)
	if err != nil || c.Value == "" {
		return nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil {
		return nil
	}
	var notices []Notice
	if err := json.Unmarshal(raw, &notices); err != nil {
		return nil
	}
	return notices
}

// cookieSpec names a cookie to clear.
type cookieSpec struct {
	Name   string
	Domain string
}

// expireCookie clears a cookie, mirroring the attributes it was set with.
func expireCookie(w http.ResponseWriter, r *http.Request, c cookieSpec) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    "",
		Path:     "/",
		Domain:   c.Domain,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
		SameSite: http.SameSiteLaxMode,
	})
}

package httpx

import (
	"encoding/json"
	"net/http"
	"strings"
)

// IsHTMX reports whether the request was initiated by htmx (Hx-Request: true).
func IsHTMX(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Hx-Request"), "true")
}

// WantsPartial reports whether only the main fragment should be rendered.
// Boosted navigations and history restores still get the full layout.
func WantsPartial(r *http.Request) bool {
	return IsHTMX(r) &&
		!strings.EqualFold(r.Header.Get("Hx-Boosted"), "true") &&
		!strings.EqualFold(r.Header.Get("Hx-History-Restore-Request"), "true")
}

// HTMXResponse builds htmx response headers.
type HTMXResponse struct {
	w http.ResponseWriter
}

// HTMX wraps w for htmx header helpers.
func HTMX(w http.ResponseWriter) *HTMXResponse {
	return &HTMXResponse{w: w}
}

// Redirect tells htmx to navigate to url and ends the response with 204.
// Callers must return immediately afterwards.
func (h *HTMXResponse) Redirect(url string) {
	h.w.Header().Set("Hx-Redirect", url)
	h.w.WriteHeader(http.StatusNoContent)
}

// Trigger sets the Hx-Trigger header to {"<event>": payload}.
// A nil payload triggers the event with true.
func (h *HTMXResponse) Trigger(event string, payload any) *HTMXResponse {
	var value any = true
	if payload != nil {
		value = payload
	}
	b, err := json.Marshal(map[string]any{event: value})
	if err != nil {
		h.w.Header().Set("Hx-Trigger", `{"`+event+`":true}`)
		return h
	}
	h.w.Header().Set("Hx-Trigger", string(b))
	return h
}

// triggerToasts sends every notice as one showToast event carrying a list.
func triggerToasts(w http.ResponseWriter, notices []Notice) {
	if len(notices) == 0 {
		return
	}
	HTMX(w).Trigger("showToast", map[string]any{"toasts": notices})
}

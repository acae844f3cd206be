package httpx

import (
	"bytes"
	"errors"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// Template paths used for loading templates in tests and production.
const (
	TemplatePathFromRoot = "frontend/templates"
	TemplatePathFromTest = "../../frontend/templates"
)

var templatePatterns = []string{"*.tmpl", "pages/*.tmpl", "partials/*.tmpl"}

// TemplateRenderer renders HTML templates for UI responses.
type TemplateRenderer struct {
	mu      sync.RWMutex
	t       *template.Template
	fsys    fs.FS
	now     func() time.Time
	devMode bool
	logger  *slog.Logger
}

// TemplateRendererConfig holds configuration for creating a TemplateRenderer.
type TemplateRendererConfig struct {
	TemplateFS fs.FS // required
	// DevMode re-parses templates on every render so edits show without a restart.
	DevMode bool
	Now     func() time.Time
	Logger  *slog.Logger
}

// NewTemplateRenderer parses every template under cfg.TemplateFS.
func NewTemplateRenderer(cfg TemplateRendererConfig) (*TemplateRenderer, error) {
	if cfg.TemplateFS == nil {
		return nil, errors.New("TemplateFS is required")
	}
	r := &TemplateRenderer{
		fsys:    cfg.TemplateFS,
		now:     cfg.Now,
		devMode: cfg.DevMode,
		logger:  cfg.Logger,
	}
	if r.now == nil {
		r.now = time.Now
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	t, err := r.parse()
	if err != nil {
		r.logger.Error("template parsing failed", slog.Any("error", err), slog.String("phase", "initialization"))
		return nil, err
	}
	r.t = t
	return r, nil
}

func (r *TemplateRenderer) parse() (*template.Template, error) {
	var t *template.Template
	t, err := template.New("root").Funcs(templateFuncs(&t, r.now)).ParseFS(r.fsys, templatePatterns...)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *TemplateRenderer) templates() *template.Template {
	if r.devMode {
		if t, err := r.parse(); err == nil {
			r.mu.Lock()
			r.t = t
			r.mu.Unlock()
		} else {
			r.logger.Warn("template reload failed; using previous set", slog.Any("error", err))
		}
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.t
}

// renderOpts selects the template and status for one render.
type renderOpts struct {
	Template string
	Status   int
}

// RenderFull renders the page inside the application layout (sidebar, header, toasts).
func (r *TemplateRenderer) RenderFull(w http.ResponseWriter, data PageData, status int) error {
	return r.render(w, data, renderOpts{Template: "layout", Status: status})
}

// RenderBare renders the page in the minimal layout used before sign-in.
func (r *TemplateRenderer) RenderBare(w http.ResponseWriter, data PageData, status int) error {
	return r.render(w, data, renderOpts{Template: "bare-layout", Status: status})
}

// RenderPartial renders only the page's content block, for htmx swaps.
func (r *TemplateRenderer) RenderPartial(w http.ResponseWriter, data PageData, status int) error {
	return r.render(w, data, renderOpts{Template: contentTemplateFor(data.Layout.Page), Status: status})
}

func (r *TemplateRenderer) render(w http.ResponseWriter, data PageData, opts renderOpts) error {
	var buf bytes.Buffer
	if err := r.templates().ExecuteTemplate(&buf, opts.Template, data); err != nil {
		r.logger.Error("template execution failed",
			slog.String("template", opts.Template),
			slog.String("page", data.Layout.Page),
			slog.Any("error", err),
		)
		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if opts.Status != 0 {
		w.WriteHeader(opts.Status)
	}
	if _, err := buf.WriteTo(w); err != nil {
		r.logger.Debug("failed to write rendered template", slog.String("template", opts.Template), slog.Any("error", err))
		return err
	}
	return nil
}

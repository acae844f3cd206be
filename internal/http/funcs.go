package httpx

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"strconv"
	"strings"
	"time"

	domainauth "github.com/brokerdesk/admin-console/internal/domain/auth"
	"github.com/brokerdesk/admin-console/internal/domain/model"
)

const (
	displayDate = "02 Jan 2006"
	inputDate   = "2006-01-02"
)

// templateFuncs returns the helpers available to every template. t is filled
// in after parsing so renderSection can execute sibling templates.
func templateFuncs(t **template.Template, now func() time.Time) template.FuncMap {
	return template.FuncMap{
		"renderSection": func(page string, data any) (template.HTML, error) {
			if t == nil || *t == nil {
				return "", errors.New("template not initialized")
			}
			var buf bytes.Buffer
			if err := (*t).ExecuteTemplate(&buf, contentTemplateFor(page), data); err != nil {
				return "", err
			}
			// #nosec G203 - rendered by our own html/template set; values already escaped.
			return template.HTML(buf.String()), nil
		},
		"date":      func(v any) string { return formatTime(v, displayDate) },
		"dateInput": func(v any) string { return formatTime(v, inputDate) },
		"minDate":   func() string { return now().AddDate(0, 0, 1).Format(inputDate) },
		"daysLeft": func(v any) int {
			t, ok := asTime(v)
			if !ok {
				return 0
			}
			return model.DaysRemaining(t, now())
		},
		"expired": func(v any) bool {
			t, ok := asTime(v)
			return ok && model.IsExpired(&t, now())
		},
		"expiringSoon":     func(p model.Policy) bool { return p.ExpiringSoon(now(), model.DefaultExpiringSoonDays) },
		"toggleAction":     func(a model.AdminRecord) model.ToggleAction { return model.ResolveToggleAction(a, now()) },
		"statusClass":      statusClass,
		"roleLabel":        func(r domainauth.Role) string { return r.Label() },
		"formatNumber":     formatNumber,
		"initials":         initials,
		"policyStatuses":   model.PolicyStatuses,
		"documentStatuses": model.DocumentStatuses,
	}
}

func asTime(v any) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		return x, !x.IsZero()
	case *time.Time:
		if x == nil {
			return time.Time{}, false
		}
		return *x, !x.IsZero()
	default:
		return time.Time{}, false
	}
}

func formatTime(v any, layout string) string {
	t, ok := asTime(v)
	if !ok {
		return ""
	}
	return t.Format(layout)
}

// statusClass maps admin, policy and document states to badge classes.
func statusClass(v any) string {
	switch strings.ToLower(fmt.Sprint(v)) {
	case "active", "new":
		return "badge-success"
	case "paused", "pending", "viewed":
		return "badge-warning"
	case "inactive", "expired", "cancelled":
		return "badge-danger"
	default:
		return "badge-light"
	}
}

// formatNumber adds thousands separators.
func formatNumber(n int) string {
	s := strconv.Itoa(n)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	if len(s) > 3 {
		var b strings.Builder
		head := len(s) % 3
		if head == 0 {
			head = 3
		}
		b.WriteString(s[:head])
		for i := head; i < len(s); i += 3 {
			b.WriteByte(',')
			b.WriteString(s[i : i+3])
		}
		s = b.String()
	}
	if neg {
		return "-" + s
	}
	return s
}

func initials(name string) string {
	var out []rune
	for _, f := range strings.Fields(name) {
		out = append(out, []rune(strings.ToUpper(f))[0])
		if len(out) == 2 {
			break
		}
	}
	if len(out) == 0 {
		return "?"
	}
	return string(out)
}

package explorer

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/tarancss/solview/lib/util"
)

//go:embed templates/*.html
var templates embed.FS

var funcs = template.FuncMap{ //nolint:gochecknoglobals // read-only
	"sol":         util.FormatLamports,
	"accountPath": accountPath,
	"unix": func(s int64) string {
		if s == 0 {
			return ""
		}

		return time.Unix(s, 0).UTC().Format(time.RFC3339)
	},
}

// parseViews parses each page together with the layout.
func parseViews() map[string]*template.Template {
	views := make(map[string]*template.Template)

	for _, page := range []string{"search", "account", "error"} {
		views[page] = template.Must(template.New(page).Funcs(funcs).
			ParseFS(templates, "templates/layout.html", "templates/"+page+".html"))
	}

	return views
}

// render writes the page with the given status. err is only logged.
func (e *Explorer) render(rw http.ResponseWriter, r *http.Request, page string, status int, data interface{},
	err error) {
	var buf bytes.Buffer

	if errT := e.views[page].ExecuteTemplate(&buf, "layout", data); errT != nil {
		e.log.Error("rendering view", zap.String("page", page), zap.Error(errT))
		http.Error(rw, "internal error", http.StatusInternalServerError)
		e.logRequest(r, page, http.StatusInternalServerError, errT)

		return
	}

	rw.Header().Set("Content-Type", "text/html; charset=utf-8")
	rw.WriteHeader(status)
	_, _ = buf.WriteTo(rw)

	e.logRequest(r, page, status, err)
}

// renderError writes the error view.
func (e *Explorer) renderError(rw http.ResponseWriter, r *http.Request, status int, err error) {
	e.render(rw, r, "error", status, map[string]interface{}{
		"Status":   status,
		"Text":     http.StatusText(status),
		"Error":    err.Error(),
		"Network":  "",
		"Networks": e.nets.Networks(),
	}, err)
}

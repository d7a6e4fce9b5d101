package handler

import (
	"html/template"
	"log/slog"
	"net/http"
	"path/filepath"
)

// PageHandler serves the two HTML pages: the entry page (register/login)
// and the map itself. Templates are parsed once at startup and reused.
type PageHandler struct {
	templates *template.Template
	logger    *slog.Logger
}

// NewPageHandler parses the page templates from templateDir.
func NewPageHandler(templateDir string, logger *slog.Logger) (*PageHandler, error) {
	tmpl, err := template.ParseFiles(
		filepath.Join(templateDir, "index.html"),
		filepath.Join(templateDir, "map.html"),
	)
	if err != nil {
		return nil, err
	}

	return &PageHandler{
		templates: tmpl,
		logger:    logger,
	}, nil
}

// HandleIndex serves the entry page with the register and login forms.
//
// HTTP: GET /
func (h *PageHandler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	h.render(w, "index.html", map[string]interface{}{
		"Title": "PinMap — sign in",
	})
}

// HandleApp serves the map page. The page itself is public; every API call
// it makes carries the bearer token, and it bounces back to "/" when the
// token check fails.
//
// HTTP: GET /app
func (h *PageHandler) HandleApp(w http.ResponseWriter, r *http.Request) {
	h.render(w, "map.html", map[string]interface{}{
		"Title": "PinMap",
	})
}

func (h *PageHandler) render(w http.ResponseWriter, name string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.ExecuteTemplate(w, name, data); err != nil {
		h.logger.Error("failed to render template",
			slog.String("template", name),
			slog.String("error", err.Error()),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

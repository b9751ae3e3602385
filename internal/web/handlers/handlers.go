package handlers

import (
	"bytes"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/saltyorg/taxiservice/internal/admin"
	"github.com/saltyorg/taxiservice/internal/auth"
	"github.com/saltyorg/taxiservice/internal/database"
	"github.com/saltyorg/taxiservice/internal/web/middleware"
)

// Renderer executes a named page template
type Renderer interface {
	Render(w io.Writer, name string, data PageData) error
}

// Handlers contains all HTTP handlers
type Handlers struct {
	db          *database.DB
	renderer    Renderer
	authService *auth.AuthService
	adminSite   *admin.Site
	version     string
	isDev       bool
}

// New creates a new Handlers instance
func New(db *database.DB, renderer Renderer, authService *auth.AuthService, adminSite *admin.Site, version string, isDev bool) *Handlers {
	return &Handlers{
		db:          db,
		renderer:    renderer,
		authService: authService,
		adminSite:   adminSite,
		version:     version,
		isDev:       isDev,
	}
}

// PageData contains common data for all pages
type PageData struct {
	Title    string
	Driver   *database.Driver
	Flash    string
	FlashErr string
	Path     string
	Content  map[string]any
	Version  string
}

// render renders a page with status 200
func (h *Handlers) render(w http.ResponseWriter, r *http.Request, name string, data map[string]any) {
	h.renderStatus(w, r, http.StatusOK, name, data)
}

// renderStatus renders a template with common data
func (h *Handlers) renderStatus(w http.ResponseWriter, r *http.Request, status int, name string, data map[string]any) {
	pageData := PageData{
		Title:   "Taxi Service",
		Driver:  middleware.GetDriver(r.Context()),
		Path:    r.URL.Path,
		Content: data,
		Version: h.version,
	}

	// Check for flash messages in cookies
	if cookie, err := r.Cookie("flash"); err == nil {
		pageData.Flash = cookie.Value
		clear := &http.Cookie{Name: "flash", MaxAge: -1, Path: "/"}
		h.applyCookieSecurity(clear)
		http.SetCookie(w, clear)
	}
	if cookie, err := r.Cookie("flash_err"); err == nil {
		pageData.FlashErr = cookie.Value
		clear := &http.Cookie{Name: "flash_err", MaxAge: -1, Path: "/"}
		h.applyCookieSecurity(clear)
		http.SetCookie(w, clear)
	}

	var buf bytes.Buffer
	if err := h.renderer.Render(&buf, name, pageData); err != nil {
		log.Error().Err(err).Str("template", name).Str("request_id", chimiddleware.GetReqID(r.Context())).Msg("Failed to render template")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// NotFound renders the 404 page
func (h *Handlers) NotFound(w http.ResponseWriter, r *http.Request) {
	h.renderStatus(w, r, http.StatusNotFound, "error.html", map[string]any{
		"Status":  http.StatusNotFound,
		"Message": "Page not found",
	})
}

// Forbidden renders the 403 page
func (h *Handlers) Forbidden(w http.ResponseWriter, r *http.Request) {
	h.renderStatus(w, r, http.StatusForbidden, "error.html", map[string]any{
		"Status":  http.StatusForbidden,
		"Message": "You don't have permission to view this page",
	})
}

// serverError logs err and renders the 500 page
func (h *Handlers) serverError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	log.Error().Err(err).Str("request_id", chimiddleware.GetReqID(r.Context())).Msg(msg)
	h.renderStatus(w, r, http.StatusInternalServerError, "error.html", map[string]any{
		"Status":  http.StatusInternalServerError,
		"Message": "Internal server error",
	})
}

// flash sets a flash message
func (h *Handlers) flash(w http.ResponseWriter, message string) {
	c := &http.Cookie{
		Name:     "flash",
		Value:    message,
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
	}
	h.applyCookieSecurity(c)
	http.SetCookie(w, c)
}

// flashErr sets an error flash message
func (h *Handlers) flashErr(w http.ResponseWriter, message string) {
	c := &http.Cookie{
		Name:     "flash_err",
		Value:    message,
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
	}
	h.applyCookieSecurity(c)
	http.SetCookie(w, c)
}

// redirect redirects to a URL
func (h *Handlers) redirect(w http.ResponseWriter, r *http.Request, url string) {
	http.Redirect(w, r, url, http.StatusFound)
}

// applyCookieSecurity sets Secure/SameSite defaults based on environment.
func (h *Handlers) applyCookieSecurity(c *http.Cookie) {
	if h.isDev {
		if c.SameSite == 0 {
			c.SameSite = http.SameSiteLaxMode
		}
		return
	}
	c.Secure = true
	if c.SameSite == 0 {
		c.SameSite = http.SameSiteLaxMode
	}
}

// urlID parses the {id} route parameter
func urlID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// parseForm parses the request body, rendering a 400 page on failure
func (h *Handlers) parseForm(w http.ResponseWriter, r *http.Request) bool {
	if err := r.ParseForm(); err != nil {
		h.renderStatus(w, r, http.StatusBadRequest, "error.html", map[string]any{
			"Status":  http.StatusBadRequest,
			"Message": "Bad request",
		})
		return false
	}
	return true
}

// PageParam is the query parameter selecting a list page
const PageParam = "page"

// listParams reads a list filter and the query that page links must preserve
func listParams(r *http.Request, param string) (string, url.Values) {
	value := strings.TrimSpace(r.URL.Query().Get(param))
	keep := url.Values{}
	if value != "" {
		keep.Set(param, value)
	}
	return value, keep
}

package web

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/saltyorg/taxiservice/internal/admin"
	"github.com/saltyorg/taxiservice/internal/auth"
	"github.com/saltyorg/taxiservice/internal/config"
	"github.com/saltyorg/taxiservice/internal/database"
	"github.com/saltyorg/taxiservice/internal/web/handlers"
	"github.com/saltyorg/taxiservice/internal/web/middleware"
)

//go:embed templates/*
var templatesFS embed.FS

//go:embed static/*
var staticFS embed.FS

// pageTemplates lists every page rendered on top of base.html
var pageTemplates = []string{
	"login.html",
	"setup.html",
	"error.html",
	"taxi/index.html",
	"taxi/manufacturer_list.html",
	"taxi/manufacturer_form.html",
	"taxi/manufacturer_confirm_delete.html",
	"taxi/car_list.html",
	"taxi/car_detail.html",
	"taxi/car_form.html",
	"taxi/car_confirm_delete.html",
	"taxi/driver_list.html",
	"taxi/driver_detail.html",
	"taxi/driver_form.html",
	"taxi/driver_license_form.html",
	"taxi/driver_confirm_delete.html",
	"admin/index.html",
	"admin/change_list.html",
	"admin/change_form.html",
	"admin/delete_confirmation.html",
	"admin/settings.html",
}

// Options configures the web server
type Options struct {
	Port            int
	Bind            string
	AllowedNet      *net.IPNet
	Timeouts        config.ServerTimeouts
	Dev             bool
	Version         string
	SessionDuration time.Duration
	// Renderer overrides the embedded templates, nil uses them
	Renderer handlers.Renderer
}

// Server represents the web server
type Server struct {
	db          *database.DB
	opts        Options
	router      *chi.Mux
	renderer    handlers.Renderer
	authService *auth.AuthService
	adminSite   *admin.Site
	handlers    *handlers.Handlers
}

// NewServer creates a new web server
func NewServer(db *database.DB, opts Options) (*Server, error) {
	if opts.Timeouts == (config.ServerTimeouts{}) {
		opts.Timeouts = config.DefaultServerTimeouts()
	}
	if opts.SessionDuration <= 0 {
		opts.SessionDuration = auth.DefaultSessionDuration
	}

	renderer := opts.Renderer
	if renderer == nil {
		tr, err := NewTemplateRenderer()
		if err != nil {
			return nil, err
		}
		renderer = tr
	}

	site := admin.NewSite()
	site.Register(admin.NewDriverAdmin(db, auth.HashPassword))
	site.Register(admin.NewCarAdmin(db))
	site.Register(admin.NewManufacturerAdmin(db))

	s := &Server{
		db:          db,
		opts:        opts,
		router:      chi.NewRouter(),
		renderer:    renderer,
		authService: auth.NewAuthService(db, opts.SessionDuration),
		adminSite:   site,
	}

	if err := s.setupRoutes(); err != nil {
		return nil, err
	}
	return s, nil
}

// Handler returns the configured router
func (s *Server) Handler() http.Handler {
	return s.router
}

// TemplateRenderer renders pages from the embedded templates
type TemplateRenderer struct {
	templates map[string]*template.Template
}

// NewTemplateRenderer parses every page template with the base template and partials
func NewTemplateRenderer() (*TemplateRenderer, error) {
	tr := &TemplateRenderer{templates: make(map[string]*template.Template)}
	funcMap := templateFuncMap()

	for _, page := range pageTemplates {
		// Parse base template first, then partials, then the page template
		tmpl, err := template.New("").Funcs(funcMap).ParseFS(templatesFS,
			"templates/base.html",
			"templates/partials/*.html",
			"templates/"+page,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", page, err)
		}
		tr.templates[page] = tmpl
	}
	return tr, nil
}

// Render executes the base layout with the named page
func (tr *TemplateRenderer) Render(w io.Writer, name string, data handlers.PageData) error {
	tmpl, ok := tr.templates[name]
	if !ok {
		return fmt.Errorf("template %s not found", name)
	}
	return tmpl.ExecuteTemplate(w, "base", data)
}

func templateFuncMap() template.FuncMap {
	return template.FuncMap{
		// pageURL links to page n of a list, keeping its filters
		"pageURL": func(q url.Values, param string, n int) template.URL {
			next := url.Values{}
			for k, v := range q {
				next[k] = v
			}
			next.Set(param, strconv.Itoa(n))
			return template.URL("?" + next.Encode())
		},
		// filterURL selects a changelist filter value, resetting the page
		"filterURL": func(q url.Values, param, value string) template.URL {
			next := url.Values{}
			for k, v := range q {
				if k != admin.PageParam {
					next[k] = v
				}
			}
			if value == "" {
				next.Del(param)
			} else {
				next.Set(param, value)
			}
			if len(next) == 0 {
				return "?"
			}
			return template.URL("?" + next.Encode())
		},
		"add": func(a, b int) int {
			return a + b
		},
		"formatDate": func(t time.Time) string {
			if t.IsZero() {
				return "-"
			}
			return t.Local().Format("Jan 2, 2006, 15:04")
		},
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() error {
	r := s.router

	r.Use(chimiddleware.RequestID)
	// AllowSubnet must come BEFORE RealIP so we check the actual connection source
	r.Use(middleware.AllowSubnet(s.opts.AllowedNet))
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(chimiddleware.Recoverer)
	if s.opts.Timeouts.Request > 0 {
		r.Use(chimiddleware.Timeout(s.opts.Timeouts.Request))
	}

	staticContent, err := fs.Sub(staticFS, "static")
	if err != nil {
		return fmt.Errorf("failed to setup static files: %w", err)
	}
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticContent))))

	h := handlers.New(s.db, s.renderer, s.authService, s.adminSite, s.opts.Version, s.opts.Dev)
	s.handlers = h

	r.NotFound(h.NotFound)

	// Public routes (no auth required)
	r.Group(func(r chi.Router) {
		r.With(middleware.RequireSetup(s.db)).Get("/login", h.LoginPage)
		r.Post("/login", h.LoginSubmit)
		r.Get("/logout", h.Logout)
		r.Post("/logout", h.Logout)

		// Setup wizard (only works if no accounts exist)
		r.Get("/setup", h.SetupWizard)
		r.Post("/setup", h.SetupSubmit)
	})

	// Protected routes (session auth required)
	r.Group(func(r chi.Router) {
		r.Use(middleware.SessionAuth(s.authService))

		r.Get("/", h.Dashboard)

		r.Route("/manufacturers", func(r chi.Router) {
			r.Get("/", h.ManufacturersList)
			r.Get("/create/", h.ManufacturerCreatePage)
			r.Post("/create/", h.ManufacturerCreate)
			r.Get("/{id}/update/", h.ManufacturerUpdatePage)
			r.Post("/{id}/update/", h.ManufacturerUpdate)
			r.Get("/{id}/delete/", h.ManufacturerDeletePage)
			r.Post("/{id}/delete/", h.ManufacturerDelete)
		})

		r.Route("/cars", func(r chi.Router) {
			r.Get("/", h.CarsList)
			r.Get("/create/", h.CarCreatePage)
			r.Post("/create/", h.CarCreate)
			r.Get("/{id}/", h.CarDetail)
			r.Post("/{id}/toggle-assign/", h.CarToggleAssign)
			r.Get("/{id}/update/", h.CarUpdatePage)
			r.Post("/{id}/update/", h.CarUpdate)
			r.Get("/{id}/delete/", h.CarDeletePage)
			r.Post("/{id}/delete/", h.CarDelete)
		})

		r.Route("/drivers", func(r chi.Router) {
			r.Get("/", h.DriversList)
			r.Get("/create/", h.DriverCreatePage)
			r.Post("/create/", h.DriverCreate)
			r.Get("/{id}/", h.DriverDetail)
			r.Get("/{id}/update/", h.DriverUpdatePage)
			r.Post("/{id}/update/", h.DriverUpdate)
			r.Get("/{id}/delete/", h.DriverDeletePage)
			r.Post("/{id}/delete/", h.DriverDelete)
		})

		// Staff-only record admin
		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireStaff(http.HandlerFunc(h.Forbidden)))
			r.Get("/", h.AdminIndex)
			r.Get("/settings/", h.AdminSettingsPage)
			r.Post("/settings/", h.AdminSettingsUpdate)
			r.Route("/taxi/{model}", func(r chi.Router) {
				r.Get("/", h.AdminChangelist)
				r.Get("/add/", h.AdminAddPage)
				r.Post("/add/", h.AdminAdd)
				r.Get("/{id}/change/", h.AdminChangePage)
				r.Post("/{id}/change/", h.AdminChange)
				r.Get("/{id}/delete/", h.AdminDeletePage)
				r.Post("/{id}/delete/", h.AdminDelete)
			})
		})
	})

	return nil
}

// Start starts the web server and blocks until ctx is done
func (s *Server) Start(ctx context.Context) error {
	var addr string
	if s.opts.Bind != "" {
		addr = net.JoinHostPort(s.opts.Bind, strconv.Itoa(s.opts.Port))
	} else {
		addr = fmt.Sprintf(":%d", s.opts.Port)
	}

	server := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.opts.Timeouts.Read,
		WriteTimeout: s.opts.Timeouts.Write,
		IdleTimeout:  s.opts.Timeouts.Idle,
	}

	// Start server in goroutine
	errChan := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	// Wait for shutdown signal or error
	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.Timeouts.Shutdown)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errChan:
		return err
	}
}

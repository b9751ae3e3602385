package handlers

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/saltyorg/taxiservice/internal/database"
	"github.com/saltyorg/taxiservice/internal/forms"
	"github.com/saltyorg/taxiservice/internal/web/middleware"
)

// safeNext keeps redirects after login on this site
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}

func (h *Handlers) setSessionCookie(w http.ResponseWriter, session *database.SessionRecord) {
	cookie := &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    session.ID,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
	}
	h.applyCookieSecurity(cookie)
	http.SetCookie(w, cookie)
}

// LoginPage renders the login page
func (h *Handlers) LoginPage(w http.ResponseWriter, r *http.Request) {
	next := safeNext(r.URL.Query().Get("next"))

	// Check if already logged in
	if cookie, err := r.Cookie(middleware.SessionCookieName); err == nil {
		if session, err := h.authService.GetSession(r.Context(), cookie.Value); err == nil && session != nil {
			h.redirect(w, r, next)
			return
		}
	}

	h.render(w, r, "login.html", map[string]any{
		"Next": next,
	})
}

// LoginSubmit handles login form submission
func (h *Handlers) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}
	ctx := r.Context()
	username := strings.TrimSpace(r.PostFormValue("username"))
	password := r.PostFormValue("password")
	next := safeNext(r.PostFormValue("next"))
	retry := "/login?next=" + next

	if username == "" || password == "" {
		h.flashErr(w, "Username and password are required")
		h.redirect(w, r, retry)
		return
	}

	driver, err := h.authService.Authenticate(ctx, username, password)
	if err != nil {
		log.Error().Err(err).Msg("Authentication error")
		h.flashErr(w, "An error occurred during login")
		h.redirect(w, r, retry)
		return
	}
	if driver == nil {
		h.flashErr(w, "Please enter a correct username and password")
		h.redirect(w, r, retry)
		return
	}

	session, err := h.authService.CreateSession(ctx, driver.ID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create session")
		h.flashErr(w, "An error occurred during login")
		h.redirect(w, r, retry)
		return
	}
	h.setSessionCookie(w, session)

	log.Info().Str("username", username).Msg("Driver logged in")
	h.redirect(w, r, next)
}

// Logout handles driver logout
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(middleware.SessionCookieName); err == nil {
		if err := h.authService.DeleteSession(r.Context(), cookie.Value); err != nil {
			log.Debug().Err(err).Msg("Failed to delete session during logout")
		}
	}

	cookie := &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	}
	h.applyCookieSecurity(cookie)
	http.SetCookie(w, cookie)

	h.redirect(w, r, "/login")
}

// SetupWizard renders the first-run account form
func (h *Handlers) SetupWizard(w http.ResponseWriter, r *http.Request) {
	firstRun, err := h.db.IsFirstRun(r.Context())
	if err != nil {
		h.serverError(w, r, err, "Failed to check first run")
		return
	}
	if !firstRun {
		h.redirect(w, r, "/")
		return
	}

	h.render(w, r, "setup.html", map[string]any{
		"Form": forms.NewDriverCreationForm(),
	})
}

// SetupSubmit creates the first staff account and logs it in
func (h *Handlers) SetupSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Verify still in first run
	firstRun, err := h.db.IsFirstRun(ctx)
	if err != nil {
		h.serverError(w, r, err, "Failed to check first run")
		return
	}
	if !firstRun {
		h.redirect(w, r, "/")
		return
	}
	if !h.parseForm(w, r) {
		return
	}

	form := forms.ParseDriverCreationForm(r.PostForm).LicenseOptional()
	ok, err := form.Validate(ctx, h.db)
	if err != nil {
		h.serverError(w, r, err, "Failed to validate setup form")
		return
	}
	if !ok {
		h.render(w, r, "setup.html", map[string]any{"Form": form})
		return
	}

	driver := form.Driver()
	driver.IsStaff = true
	if err := h.authService.CreateDriver(ctx, driver, form.Password1); err != nil {
		log.Error().Err(err).Msg("Failed to create account")
		h.flashErr(w, "Failed to create account")
		h.redirect(w, r, "/setup")
		return
	}

	if err := h.db.InitializeDefaults(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to initialize default settings")
	}

	session, err := h.authService.CreateSession(ctx, driver.ID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create session")
		h.redirect(w, r, "/login")
		return
	}
	h.setSessionCookie(w, session)

	log.Info().Str("username", driver.Username).Msg("Setup completed, staff account created")
	h.flash(w, "Welcome to Taxi Service! Setup complete.")
	h.redirect(w, r, "/")
}

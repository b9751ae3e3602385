package middleware

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/saltyorg/taxiservice/internal/auth"
	"github.com/saltyorg/taxiservice/internal/database"
)

type contextKey string

const (
	// DriverContextKey is the context key for the authenticated driver
	DriverContextKey contextKey = "driver"
	// SessionContextKey is the context key for the session
	SessionContextKey contextKey = "session"
)

// SessionCookieName is the name of the login session cookie
const SessionCookieName = "session"

// Logger is a middleware that logs requests
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			log.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("duration", time.Since(start)).
				Str("remote", r.RemoteAddr).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("Request")
		}()

		next.ServeHTTP(ww, r)
	})
}

// LoginURL returns the login page that sends the user back to r afterwards
func LoginURL(r *http.Request) string {
	return "/login?next=" + url.QueryEscape(r.URL.RequestURI())
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

// SessionAuth is a middleware that checks for valid session cookie
func SessionAuth(authService *auth.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			cookie, err := r.Cookie(SessionCookieName)
			if err != nil {
				http.Redirect(w, r, LoginURL(r), http.StatusFound)
				return
			}

			session, err := authService.GetSession(ctx, cookie.Value)
			if err != nil {
				log.Error().Err(err).Str("request_id", middleware.GetReqID(ctx)).Msg("Failed to get session")
				http.Redirect(w, r, LoginURL(r), http.StatusFound)
				return
			}
			if session == nil {
				clearSessionCookie(w)
				http.Redirect(w, r, LoginURL(r), http.StatusFound)
				return
			}

			driver, err := authService.GetDriver(ctx, session.DriverID)
			if err != nil || driver == nil {
				http.Redirect(w, r, LoginURL(r), http.StatusFound)
				return
			}

			// Extend session on activity
			if err := authService.ExtendSession(ctx, session.ID); err != nil {
				log.Warn().Err(err).Msg("Failed to extend session")
			}

			ctx = context.WithValue(ctx, DriverContextKey, driver)
			ctx = context.WithValue(ctx, SessionContextKey, session)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireStaff lets only staff accounts through; others are served forbidden
func RequireStaff(forbidden http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			driver := GetDriver(r.Context())
			if driver == nil || !driver.IsStaff {
				forbidden.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireSetup sends visitors to the setup wizard while no account exists
func RequireSetup(db *database.DB) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			firstRun, err := db.IsFirstRun(r.Context())
			if err != nil {
				log.Error().Err(err).Msg("Failed to check first run")
				http.Error(w, "Internal server error", http.StatusInternalServerError)
				return
			}
			if firstRun {
				http.Redirect(w, r, "/setup", http.StatusFound)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetDriver retrieves the authenticated driver from context
func GetDriver(ctx context.Context) *database.Driver {
	driver, ok := ctx.Value(DriverContextKey).(*database.Driver)
	if !ok {
		return nil
	}
	return driver
}

// GetSession retrieves the current session from context
func GetSession(ctx context.Context) *database.SessionRecord {
	session, ok := ctx.Value(SessionContextKey).(*database.SessionRecord)
	if !ok {
		return nil
	}
	return session
}

// AllowSubnet is a middleware that restricts access to connections from within the allowed subnet.
// This checks the actual connection source (RemoteAddr), useful for whitelisting reverse proxies.
func AllowSubnet(allowedNet *net.IPNet) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if allowedNet == nil {
				next.ServeHTTP(w, r)
				return
			}

			host, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				// Maybe it's just an IP without port
				host = r.RemoteAddr
			}

			ip := net.ParseIP(host)
			if ip == nil {
				log.Warn().Str("remote_addr", r.RemoteAddr).Msg("Could not parse remote address")
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}

			if !allowedNet.Contains(ip) {
				log.Warn().
					Str("remote_addr", r.RemoteAddr).
					Str("allowed_subnet", allowedNet.String()).
					Msg("Connection rejected: source IP not in allowed subnet")
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

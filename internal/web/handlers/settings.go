package handlers

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/saltyorg/taxiservice/internal/config"
	"github.com/saltyorg/taxiservice/internal/forms"
	"github.com/saltyorg/taxiservice/internal/maintenance"
)

const settingsURL = "/admin/settings/"

// AdminSettingsPage renders the runtime settings form
func (h *Handlers) AdminSettingsPage(w http.ResponseWriter, r *http.Request) {
	settings, err := h.db.GetAllSettings(r.Context())
	if err != nil {
		h.serverError(w, r, err, "Failed to load settings")
		return
	}

	h.render(w, r, "admin/settings.html", map[string]any{
		"Form": forms.NewSettingsForm(config.NewLoader(settings)),
	})
}

// AdminSettingsUpdate stores the runtime settings. They are read on startup.
func (h *Handlers) AdminSettingsUpdate(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}

	form := forms.ParseSettingsForm(r.PostForm)
	if !form.Validate(maintenance.ValidateSchedule) {
		h.render(w, r, "admin/settings.html", map[string]any{"Form": form})
		return
	}

	if err := h.db.SetSettings(r.Context(), form.Values()); err != nil {
		log.Error().Err(err).Msg("Failed to save settings")
		h.flashErr(w, "Failed to save settings")
		h.redirect(w, r, settingsURL)
		return
	}

	log.Info().Msg("Settings updated")
	h.flash(w, "Settings saved. Changes apply after a restart.")
	h.redirect(w, r, settingsURL)
}

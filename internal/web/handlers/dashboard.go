package handlers

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/saltyorg/taxiservice/internal/database"
	"github.com/saltyorg/taxiservice/internal/web/middleware"
)

// Dashboard renders record totals and the session's visit count
func (h *Handlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	numDrivers, err := h.db.CountDrivers(ctx, database.DriverFilter{})
	if err != nil {
		h.serverError(w, r, err, "Failed to count drivers")
		return
	}
	numCars, err := h.db.CountCars(ctx, database.CarFilter{})
	if err != nil {
		h.serverError(w, r, err, "Failed to count cars")
		return
	}
	numManufacturers, err := h.db.CountManufacturers(ctx, database.ManufacturerFilter{})
	if err != nil {
		h.serverError(w, r, err, "Failed to count manufacturers")
		return
	}

	var numVisits int
	if session := middleware.GetSession(ctx); session != nil {
		if numVisits, err = h.authService.RecordVisit(ctx, session.ID); err != nil {
			log.Warn().Err(err).Msg("Failed to record visit")
		}
	}

	h.render(w, r, "taxi/index.html", map[string]any{
		"NumDrivers":       numDrivers,
		"NumCars":          numCars,
		"NumManufacturers": numManufacturers,
		"NumVisits":        numVisits,
	})
}

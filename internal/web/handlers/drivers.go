package handlers

import (
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/saltyorg/taxiservice/internal/database"
	"github.com/saltyorg/taxiservice/internal/forms"
	"github.com/saltyorg/taxiservice/internal/pagination"
)

const driversURL = "/drivers/"

// DriversList renders drivers filtered by username
func (h *Handlers) DriversList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	username, keep := listParams(r, "username")
	filter := database.DriverFilter{Username: username}

	total, err := h.db.CountDrivers(ctx, filter)
	if err != nil {
		h.serverError(w, r, err, "Failed to count drivers")
		return
	}
	page := pagination.New(total, pagination.DefaultPageSize, r.URL.Query().Get(PageParam))

	drivers, err := h.db.ListDrivers(ctx, filter, page.Limit(), page.Offset())
	if err != nil {
		h.serverError(w, r, err, "Failed to list drivers")
		return
	}

	h.render(w, r, "taxi/driver_list.html", map[string]any{
		"Drivers":     drivers,
		"Page":        page,
		"IsPaginated": page.IsPaginated(),
		"Search":      username,
		"PageQuery":   keep,
	})
}

// loadDriver resolves the {id} parameter, rendering 404 or 500 when it cannot
func (h *Handlers) loadDriver(w http.ResponseWriter, r *http.Request) *database.Driver {
	id, ok := urlID(r)
	if !ok {
		h.NotFound(w, r)
		return nil
	}
	d, err := h.db.GetDriver(r.Context(), id)
	if err != nil {
		h.serverError(w, r, err, "Failed to get driver")
		return nil
	}
	if d == nil {
		h.NotFound(w, r)
		return nil
	}
	return d
}

// DriverDetail renders a driver and the cars assigned to them
func (h *Handlers) DriverDetail(w http.ResponseWriter, r *http.Request) {
	d := h.loadDriver(w, r)
	if d == nil {
		return
	}

	cars, err := h.db.ListCars(r.Context(), database.CarFilter{DriverID: d.ID}, 0, 0)
	if err != nil {
		h.serverError(w, r, err, "Failed to list driver cars")
		return
	}

	h.render(w, r, "taxi/driver_detail.html", map[string]any{
		"Object": d,
		"Cars":   cars,
	})
}

// DriverCreatePage renders an empty registration form
func (h *Handlers) DriverCreatePage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "taxi/driver_form.html", map[string]any{
		"Form": forms.NewDriverCreationForm(),
	})
}

// DriverCreate registers a new driver account
func (h *Handlers) DriverCreate(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}
	ctx := r.Context()

	form := forms.ParseDriverCreationForm(r.PostForm)
	ok, err := form.Validate(ctx, h.db)
	if err != nil {
		h.serverError(w, r, err, "Failed to validate driver")
		return
	}
	if !ok {
		h.render(w, r, "taxi/driver_form.html", map[string]any{"Form": form})
		return
	}

	d := form.Driver()
	if err := h.authService.CreateDriver(ctx, d, form.Password1); err != nil {
		h.serverError(w, r, err, "Failed to create driver")
		return
	}

	log.Info().Int64("id", d.ID).Str("username", d.Username).Msg("Driver created")
	h.flash(w, fmt.Sprintf("Driver %s created", d.Username))
	h.redirect(w, r, driversURL)
}

func (h *Handlers) renderLicenseForm(w http.ResponseWriter, r *http.Request, form *forms.DriverLicenseForm, d *database.Driver) {
	h.render(w, r, "taxi/driver_license_form.html", map[string]any{
		"Form":   form,
		"Object": d,
	})
}

// DriverUpdatePage renders the license form for a driver
func (h *Handlers) DriverUpdatePage(w http.ResponseWriter, r *http.Request) {
	d := h.loadDriver(w, r)
	if d == nil {
		return
	}
	h.renderLicenseForm(w, r, forms.NewDriverLicenseForm(d), d)
}

// DriverUpdate changes a driver's license number
func (h *Handlers) DriverUpdate(w http.ResponseWriter, r *http.Request) {
	d := h.loadDriver(w, r)
	if d == nil || !h.parseForm(w, r) {
		return
	}
	ctx := r.Context()

	form := forms.ParseDriverLicenseForm(r.PostForm)
	ok, err := form.Validate(ctx, h.db, d.ID)
	if err != nil {
		h.serverError(w, r, err, "Failed to validate license number")
		return
	}
	if !ok {
		h.renderLicenseForm(w, r, form, d)
		return
	}

	if err := h.db.UpdateDriverLicense(ctx, d.ID, form.LicenseNumber); err != nil {
		h.serverError(w, r, err, "Failed to update license number")
		return
	}

	h.flash(w, fmt.Sprintf("License number of %s updated", d.Username))
	h.redirect(w, r, driversURL)
}

// DriverDeletePage asks for confirmation
func (h *Handlers) DriverDeletePage(w http.ResponseWriter, r *http.Request) {
	d := h.loadDriver(w, r)
	if d == nil {
		return
	}
	h.render(w, r, "taxi/driver_confirm_delete.html", map[string]any{
		"Object": d,
	})
}

// DriverDelete removes a driver account, its sessions and car assignments
func (h *Handlers) DriverDelete(w http.ResponseWriter, r *http.Request) {
	d := h.loadDriver(w, r)
	if d == nil {
		return
	}
	if err := h.db.DeleteDriver(r.Context(), d.ID); err != nil {
		h.serverError(w, r, err, "Failed to delete driver")
		return
	}

	log.Info().Int64("id", d.ID).Str("username", d.Username).Msg("Driver deleted")
	h.flash(w, fmt.Sprintf("Driver %s deleted", d.Username))
	h.redirect(w, r, driversURL)
}

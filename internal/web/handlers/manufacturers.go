package handlers

import (
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/saltyorg/taxiservice/internal/database"
	"github.com/saltyorg/taxiservice/internal/forms"
	"github.com/saltyorg/taxiservice/internal/pagination"
)

const manufacturersURL = "/manufacturers/"

// ManufacturersList renders manufacturers filtered by name
func (h *Handlers) ManufacturersList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name, keep := listParams(r, "name")
	filter := database.ManufacturerFilter{Name: name}

	total, err := h.db.CountManufacturers(ctx, filter)
	if err != nil {
		h.serverError(w, r, err, "Failed to count manufacturers")
		return
	}
	page := pagination.New(total, pagination.DefaultPageSize, r.URL.Query().Get(PageParam))

	manufacturers, err := h.db.ListManufacturers(ctx, filter, page.Limit(), page.Offset())
	if err != nil {
		h.serverError(w, r, err, "Failed to list manufacturers")
		return
	}

	h.render(w, r, "taxi/manufacturer_list.html", map[string]any{
		"Manufacturers": manufacturers,
		"Page":          page,
		"IsPaginated":   page.IsPaginated(),
		"Search":        name,
		"PageQuery":     keep,
	})
}

func (h *Handlers) renderManufacturerForm(w http.ResponseWriter, r *http.Request, form *forms.ManufacturerForm, m *database.Manufacturer) {
	h.render(w, r, "taxi/manufacturer_form.html", map[string]any{
		"Form":         form,
		"IsUpdate":     m != nil,
		"Manufacturer": m,
	})
}

// ManufacturerCreatePage renders an empty manufacturer form
func (h *Handlers) ManufacturerCreatePage(w http.ResponseWriter, r *http.Request) {
	h.renderManufacturerForm(w, r, forms.NewManufacturerForm(nil), nil)
}

// ManufacturerCreate stores a new manufacturer
func (h *Handlers) ManufacturerCreate(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}

	form := forms.ParseManufacturerForm(r.PostForm)
	if !form.Validate() {
		h.renderManufacturerForm(w, r, form, nil)
		return
	}

	m := &database.Manufacturer{}
	form.Apply(m)
	if err := h.db.CreateManufacturer(r.Context(), m); err != nil {
		h.serverError(w, r, err, "Failed to create manufacturer")
		return
	}

	log.Info().Int64("id", m.ID).Str("name", m.Name).Msg("Manufacturer created")
	h.flash(w, fmt.Sprintf("Manufacturer %s created", m))
	h.redirect(w, r, manufacturersURL)
}

// loadManufacturer resolves the {id} parameter, rendering 404 or 500 when it cannot
func (h *Handlers) loadManufacturer(w http.ResponseWriter, r *http.Request) *database.Manufacturer {
	id, ok := urlID(r)
	if !ok {
		h.NotFound(w, r)
		return nil
	}
	m, err := h.db.GetManufacturer(r.Context(), id)
	if err != nil {
		h.serverError(w, r, err, "Failed to get manufacturer")
		return nil
	}
	if m == nil {
		h.NotFound(w, r)
		return nil
	}
	return m
}

// ManufacturerUpdatePage renders the form prefilled with the stored manufacturer
func (h *Handlers) ManufacturerUpdatePage(w http.ResponseWriter, r *http.Request) {
	m := h.loadManufacturer(w, r)
	if m == nil {
		return
	}
	h.renderManufacturerForm(w, r, forms.NewManufacturerForm(m), m)
}

// ManufacturerUpdate saves changes to a manufacturer
func (h *Handlers) ManufacturerUpdate(w http.ResponseWriter, r *http.Request) {
	m := h.loadManufacturer(w, r)
	if m == nil || !h.parseForm(w, r) {
		return
	}

	form := forms.ParseManufacturerForm(r.PostForm)
	if !form.Validate() {
		h.renderManufacturerForm(w, r, form, m)
		return
	}

	form.Apply(m)
	if err := h.db.UpdateManufacturer(r.Context(), m); err != nil {
		h.serverError(w, r, err, "Failed to update manufacturer")
		return
	}

	h.flash(w, fmt.Sprintf("Manufacturer %s updated", m))
	h.redirect(w, r, manufacturersURL)
}

// ManufacturerDeletePage asks for confirmation
func (h *Handlers) ManufacturerDeletePage(w http.ResponseWriter, r *http.Request) {
	m := h.loadManufacturer(w, r)
	if m == nil {
		return
	}
	h.render(w, r, "taxi/manufacturer_confirm_delete.html", map[string]any{
		"Manufacturer": m,
	})
}

// ManufacturerDelete removes a manufacturer together with its cars
func (h *Handlers) ManufacturerDelete(w http.ResponseWriter, r *http.Request) {
	m := h.loadManufacturer(w, r)
	if m == nil {
		return
	}
	if err := h.db.DeleteManufacturer(r.Context(), m.ID); err != nil {
		h.serverError(w, r, err, "Failed to delete manufacturer")
		return
	}

	log.Info().Int64("id", m.ID).Msg("Manufacturer deleted")
	h.flash(w, fmt.Sprintf("Manufacturer %s deleted", m))
	h.redirect(w, r, manufacturersURL)
}

package handlers

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/saltyorg/taxiservice/internal/admin"
	"github.com/saltyorg/taxiservice/internal/pagination"
)

func changelistURL(m admin.Model) string {
	return fmt.Sprintf("/admin/taxi/%s/", m.Meta().Name)
}

// adminModel resolves the {model} parameter, rendering 404 for unknown models
func (h *Handlers) adminModel(w http.ResponseWriter, r *http.Request) admin.Model {
	m, ok := h.adminSite.Model(chi.URLParam(r, "model"))
	if !ok {
		h.NotFound(w, r)
		return nil
	}
	return m
}

// adminObject resolves both the model and the {id} parameter
func (h *Handlers) adminObject(w http.ResponseWriter, r *http.Request) (admin.Model, *admin.Object) {
	m := h.adminModel(w, r)
	if m == nil {
		return nil, nil
	}
	id, ok := urlID(r)
	if !ok {
		h.NotFound(w, r)
		return nil, nil
	}
	obj, err := m.Get(r.Context(), id)
	if err != nil {
		h.serverError(w, r, err, "Failed to get admin object")
		return nil, nil
	}
	if obj == nil {
		h.NotFound(w, r)
		return nil, nil
	}
	return m, obj
}

// AdminIndex lists the registered models
func (h *Handlers) AdminIndex(w http.ResponseWriter, r *http.Request) {
	metas := make([]admin.Meta, 0)
	for _, m := range h.adminSite.Models() {
		metas = append(metas, m.Meta())
	}
	h.render(w, r, "admin/index.html", map[string]any{
		"Models": metas,
	})
}

// AdminChangelist renders the searchable, filterable record list of a model
func (h *Handlers) AdminChangelist(w http.ResponseWriter, r *http.Request) {
	m := h.adminModel(w, r)
	if m == nil {
		return
	}
	ctx := r.Context()
	values := r.URL.Query()
	q := admin.QueryFromValues(values)

	total, err := m.Count(ctx, q)
	if err != nil {
		h.serverError(w, r, err, "Failed to count admin rows")
		return
	}
	page := pagination.New(total, admin.PageSize, values.Get(admin.PageParam))

	rows, err := m.List(ctx, q, page.Limit(), page.Offset())
	if err != nil {
		h.serverError(w, r, err, "Failed to list admin rows")
		return
	}
	filters, err := m.Filters(ctx, q)
	if err != nil {
		h.serverError(w, r, err, "Failed to load admin filters")
		return
	}

	keep := make(url.Values, len(values))
	for k, v := range values {
		if k != admin.PageParam {
			keep[k] = v
		}
	}

	h.render(w, r, "admin/change_list.html", map[string]any{
		"Meta":        m.Meta(),
		"Rows":        rows,
		"Filters":     filters,
		"Search":      q.Search,
		"Page":        page,
		"IsPaginated": page.IsPaginated(),
		"PageQuery":   keep,
		"Total":       total,
	})
}

func (h *Handlers) renderAdminForm(w http.ResponseWriter, r *http.Request, m admin.Model, form *admin.Form, obj *admin.Object) {
	h.render(w, r, "admin/change_form.html", map[string]any{
		"Meta":   m.Meta(),
		"Form":   form,
		"Object": obj,
		"IsAdd":  obj == nil,
	})
}

// AdminAddPage renders an empty add form
func (h *Handlers) AdminAddPage(w http.ResponseWriter, r *http.Request) {
	m := h.adminModel(w, r)
	if m == nil {
		return
	}
	form, err := m.Form(r.Context(), 0, nil)
	if err != nil {
		h.serverError(w, r, err, "Failed to build admin form")
		return
	}
	h.renderAdminForm(w, r, m, form, nil)
}

// AdminAdd creates a record from the add form
func (h *Handlers) AdminAdd(w http.ResponseWriter, r *http.Request) {
	m := h.adminModel(w, r)
	if m == nil || !h.parseForm(w, r) {
		return
	}

	form, id, err := m.Save(r.Context(), 0, r.PostForm)
	if err != nil {
		h.serverError(w, r, err, "Failed to save admin object")
		return
	}
	if id == 0 {
		h.renderAdminForm(w, r, m, form, nil)
		return
	}

	log.Info().Str("model", m.Meta().Name).Int64("id", id).Msg("Admin object added")
	h.flash(w, fmt.Sprintf("The %s was added successfully.", m.Meta().Verbose))
	h.redirect(w, r, changelistURL(m))
}

// AdminChangePage renders the change form of a record
func (h *Handlers) AdminChangePage(w http.ResponseWriter, r *http.Request) {
	m, obj := h.adminObject(w, r)
	if obj == nil {
		return
	}
	form, err := m.Form(r.Context(), obj.ID, nil)
	if err != nil {
		h.serverError(w, r, err, "Failed to build admin form")
		return
	}
	if form == nil {
		h.NotFound(w, r)
		return
	}
	h.renderAdminForm(w, r, m, form, obj)
}

// AdminChange saves the change form of a record
func (h *Handlers) AdminChange(w http.ResponseWriter, r *http.Request) {
	m, obj := h.adminObject(w, r)
	if obj == nil || !h.parseForm(w, r) {
		return
	}

	form, id, err := m.Save(r.Context(), obj.ID, r.PostForm)
	if err != nil {
		h.serverError(w, r, err, "Failed to save admin object")
		return
	}
	if form == nil {
		h.NotFound(w, r)
		return
	}
	if id == 0 {
		h.renderAdminForm(w, r, m, form, obj)
		return
	}

	log.Info().Str("model", m.Meta().Name).Int64("id", id).Msg("Admin object changed")
	h.flash(w, fmt.Sprintf("The %s was changed successfully.", m.Meta().Verbose))
	h.redirect(w, r, changelistURL(m))
}

// AdminDeletePage asks for confirmation
func (h *Handlers) AdminDeletePage(w http.ResponseWriter, r *http.Request) {
	m, obj := h.adminObject(w, r)
	if obj == nil {
		return
	}
	h.render(w, r, "admin/delete_confirmation.html", map[string]any{
		"Meta":   m.Meta(),
		"Object": obj,
	})
}

// AdminDelete removes a record
func (h *Handlers) AdminDelete(w http.ResponseWriter, r *http.Request) {
	m, obj := h.adminObject(w, r)
	if obj == nil {
		return
	}
	if err := m.Delete(r.Context(), obj.ID); err != nil {
		h.serverError(w, r, err, "Failed to delete admin object")
		return
	}

	log.Info().Str("model", m.Meta().Name).Int64("id", obj.ID).Msg("Admin object deleted")
	h.flash(w, fmt.Sprintf("The %s was deleted successfully.", m.Meta().Verbose))
	h.redirect(w, r, changelistURL(m))
}

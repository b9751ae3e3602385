package handlers

import (
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/saltyorg/taxiservice/internal/database"
	"github.com/saltyorg/taxiservice/internal/forms"
	"github.com/saltyorg/taxiservice/internal/pagination"
	"github.com/saltyorg/taxiservice/internal/web/middleware"
)

const carsURL = "/cars/"

// CarsList renders cars filtered by model
func (h *Handlers) CarsList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	model, keep := listParams(r, "model")
	filter := database.CarFilter{Model: model}

	total, err := h.db.CountCars(ctx, filter)
	if err != nil {
		h.serverError(w, r, err, "Failed to count cars")
		return
	}
	page := pagination.New(total, pagination.DefaultPageSize, r.URL.Query().Get(PageParam))

	cars, err := h.db.ListCars(ctx, filter, page.Limit(), page.Offset())
	if err != nil {
		h.serverError(w, r, err, "Failed to list cars")
		return
	}

	h.render(w, r, "taxi/car_list.html", map[string]any{
		"Cars":        cars,
		"Page":        page,
		"IsPaginated": page.IsPaginated(),
		"Search":      model,
		"PageQuery":   keep,
	})
}

// loadCar resolves the {id} parameter, rendering 404 or 500 when it cannot
func (h *Handlers) loadCar(w http.ResponseWriter, r *http.Request) *database.Car {
	id, ok := urlID(r)
	if !ok {
		h.NotFound(w, r)
		return nil
	}
	car, err := h.db.GetCar(r.Context(), id)
	if err != nil {
		h.serverError(w, r, err, "Failed to get car")
		return nil
	}
	if car == nil {
		h.NotFound(w, r)
		return nil
	}
	return car
}

// CarDetail renders a car with its manufacturer and drivers
func (h *Handlers) CarDetail(w http.ResponseWriter, r *http.Request) {
	car := h.loadCar(w, r)
	if car == nil {
		return
	}

	assigned := false
	if driver := middleware.GetDriver(r.Context()); driver != nil {
		assigned = car.HasDriver(driver.ID)
	}

	h.render(w, r, "taxi/car_detail.html", map[string]any{
		"Car":        car,
		"IsAssigned": assigned,
	})
}

// CarToggleAssign adds the current driver to the car or removes them from it
func (h *Handlers) CarToggleAssign(w http.ResponseWriter, r *http.Request) {
	car := h.loadCar(w, r)
	if car == nil {
		return
	}
	driver := middleware.GetDriver(r.Context())

	assigned, err := h.db.ToggleCarDriver(r.Context(), car.ID, driver.ID)
	if err != nil {
		h.serverError(w, r, err, "Failed to toggle car assignment")
		return
	}

	log.Debug().Int64("car_id", car.ID).Int64("driver_id", driver.ID).Bool("assigned", assigned).Msg("Car assignment toggled")
	if assigned {
		h.flash(w, fmt.Sprintf("You now drive %s", car))
	} else {
		h.flash(w, fmt.Sprintf("You no longer drive %s", car))
	}
	h.redirect(w, r, fmt.Sprintf("/cars/%d/", car.ID))
}

func (h *Handlers) renderCarForm(w http.ResponseWriter, r *http.Request, form *forms.CarForm, car *database.Car) {
	ctx := r.Context()

	manufacturers, err := h.db.ListManufacturers(ctx, database.ManufacturerFilter{}, 0, 0)
	if err != nil {
		h.serverError(w, r, err, "Failed to list manufacturers")
		return
	}
	drivers, err := h.db.ListDrivers(ctx, database.DriverFilter{}, 0, 0)
	if err != nil {
		h.serverError(w, r, err, "Failed to list drivers")
		return
	}

	h.render(w, r, "taxi/car_form.html", map[string]any{
		"Form":          form,
		"IsUpdate":      car != nil,
		"Car":           car,
		"Manufacturers": manufacturers,
		"Drivers":       drivers,
	})
}

// CarCreatePage renders an empty car form
func (h *Handlers) CarCreatePage(w http.ResponseWriter, r *http.Request) {
	h.renderCarForm(w, r, forms.NewCarForm(nil), nil)
}

// CarCreate stores a new car with its drivers
func (h *Handlers) CarCreate(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}
	ctx := r.Context()

	form := forms.ParseCarForm(r.PostForm)
	ok, err := form.Validate(ctx, h.db)
	if err != nil {
		h.serverError(w, r, err, "Failed to validate car")
		return
	}
	if !ok {
		h.renderCarForm(w, r, form, nil)
		return
	}

	car := &database.Car{}
	form.Apply(car)
	if err := h.db.CreateCar(ctx, car, form.DriverIDs); err != nil {
		h.serverError(w, r, err, "Failed to create car")
		return
	}

	log.Info().Int64("id", car.ID).Str("model", car.Model).Msg("Car created")
	h.flash(w, fmt.Sprintf("Car %s created", car))
	h.redirect(w, r, carsURL)
}

// CarUpdatePage renders the form prefilled with the stored car
func (h *Handlers) CarUpdatePage(w http.ResponseWriter, r *http.Request) {
	car := h.loadCar(w, r)
	if car == nil {
		return
	}
	h.renderCarForm(w, r, forms.NewCarForm(car), car)
}

// CarUpdate saves changes to a car and replaces its drivers
func (h *Handlers) CarUpdate(w http.ResponseWriter, r *http.Request) {
	car := h.loadCar(w, r)
	if car == nil || !h.parseForm(w, r) {
		return
	}
	ctx := r.Context()

	form := forms.ParseCarForm(r.PostForm)
	ok, err := form.Validate(ctx, h.db)
	if err != nil {
		h.serverError(w, r, err, "Failed to validate car")
		return
	}
	if !ok {
		h.renderCarForm(w, r, form, car)
		return
	}

	form.Apply(car)
	if err := h.db.UpdateCar(ctx, car, form.DriverIDs); err != nil {
		h.serverError(w, r, err, "Failed to update car")
		return
	}

	h.flash(w, fmt.Sprintf("Car %s updated", car))
	h.redirect(w, r, carsURL)
}

// CarDeletePage asks for confirmation
func (h *Handlers) CarDeletePage(w http.ResponseWriter, r *http.Request) {
	car := h.loadCar(w, r)
	if car == nil {
		return
	}
	h.render(w, r, "taxi/car_confirm_delete.html", map[string]any{
		"Car": car,
	})
}

// CarDelete removes a car
func (h *Handlers) CarDelete(w http.ResponseWriter, r *http.Request) {
	car := h.loadCar(w, r)
	if car == nil {
		return
	}
	if err := h.db.DeleteCar(r.Context(), car.ID); err != nil {
		h.serverError(w, r, err, "Failed to delete car")
		return
	}

	log.Info().Int64("id", car.ID).Msg("Car deleted")
	h.flash(w, fmt.Sprintf("Car %s deleted", car))
	h.redirect(w, r, carsURL)
}

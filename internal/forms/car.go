package forms

import (
	"context"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/saltyorg/taxiservice/internal/database"
)

// CarLookup resolves the references a car form points at
type CarLookup interface {
	GetManufacturer(ctx context.Context, id int64) (*database.Manufacturer, error)
	CountExistingDrivers(ctx context.Context, ids []int64) (int, error)
}

// CarForm holds a car's model, manufacturer and assigned drivers
type CarForm struct {
	Model          string
	ManufacturerID int64
	DriverIDs      []int64
	Errors         Errors

	manufacturerRaw string
	invalidDrivers  bool
}

// NewCarForm prefills the form from a stored car
func NewCarForm(car *database.Car) *CarForm {
	f := &CarForm{Errors: Errors{}}
	if car != nil {
		f.Model = car.Model
		f.ManufacturerID = car.ManufacturerID
		f.DriverIDs = car.DriverIDs()
	}
	return f
}

// ParseCarForm reads the submitted values. The drivers field may repeat.
func ParseCarForm(values url.Values) *CarForm {
	f := &CarForm{
		Model:           strings.TrimSpace(values.Get("model")),
		manufacturerRaw: strings.TrimSpace(values.Get("manufacturer")),
		Errors:          Errors{},
	}
	if id, err := strconv.ParseInt(f.manufacturerRaw, 10, 64); err == nil {
		f.ManufacturerID = id
	}
	for _, raw := range values["drivers"] {
		id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil || id <= 0 {
			f.invalidDrivers = true
			continue
		}
		if !slices.Contains(f.DriverIDs, id) {
			f.DriverIDs = append(f.DriverIDs, id)
		}
	}
	return f
}

// Validate checks required fields and that every referenced record exists.
// The error is only non-nil when the lookup itself fails.
func (f *CarForm) Validate(ctx context.Context, lookup CarLookup) (bool, error) {
	f.Errors.required("model", f.Model)

	switch {
	case f.manufacturerRaw == "":
		f.Errors.Add("manufacturer", MsgRequired)
	case f.ManufacturerID <= 0:
		f.Errors.Add("manufacturer", MsgInvalidChoice)
	default:
		m, err := lookup.GetManufacturer(ctx, f.ManufacturerID)
		if err != nil {
			return false, err
		}
		if m == nil {
			f.Errors.Add("manufacturer", MsgInvalidChoice)
		}
	}

	if f.invalidDrivers {
		f.Errors.Add("drivers", MsgInvalidChoice)
	} else if len(f.DriverIDs) > 0 {
		found, err := lookup.CountExistingDrivers(ctx, f.DriverIDs)
		if err != nil {
			return false, err
		}
		if found != len(f.DriverIDs) {
			f.Errors.Add("drivers", MsgInvalidChoice)
		}
	}

	return f.Errors.Valid(), nil
}

// Apply copies the form values onto car. Driver assignments are saved separately.
func (f *CarForm) Apply(car *database.Car) {
	car.Model = f.Model
	car.ManufacturerID = f.ManufacturerID
}

// HasDriver reports whether the driver is selected, for rendering the form
func (f *CarForm) HasDriver(id int64) bool {
	return slices.Contains(f.DriverIDs, id)
}

package admin

import (
	"context"
	"net/url"
	"strconv"

	"github.com/saltyorg/taxiservice/internal/database"
	"github.com/saltyorg/taxiservice/internal/forms"
)

// ManufacturerFilterParam filters the car changelist by manufacturer identity
const ManufacturerFilterParam = "manufacturer__id__exact"

// CarAdmin lists model and manufacturer, searchable by model
// and filterable by manufacturer
type CarAdmin struct {
	db *database.DB
}

func NewCarAdmin(db *database.DB) *CarAdmin {
	return &CarAdmin{db: db}
}

func (a *CarAdmin) Meta() Meta {
	return Meta{
		Name:          "car",
		Verbose:       "car",
		VerbosePlural: "cars",
		Columns:       []string{"Model", "Manufacturer"},
		Searchable:    true,
	}
}

func (a *CarAdmin) filter(q Query) database.CarFilter {
	f := database.CarFilter{Search: q.Search}
	if id, err := strconv.ParseInt(q.Params.Get(ManufacturerFilterParam), 10, 64); err == nil {
		f.ManufacturerID = id
	}
	return f
}

func (a *CarAdmin) Count(ctx context.Context, q Query) (int, error) {
	return a.db.CountCars(ctx, a.filter(q))
}

func (a *CarAdmin) List(ctx context.Context, q Query, limit, offset int) ([]Row, error) {
	cars, err := a.db.ListCars(ctx, a.filter(q), limit, offset)
	if err != nil {
		return nil, err
	}
	rows := make([]Row, 0, len(cars))
	for _, c := range cars {
		rows = append(rows, Row{ID: c.ID, Label: c.String(), Cells: []string{c.Model, c.Manufacturer.String()}})
	}
	return rows, nil
}

func (a *CarAdmin) Filters(ctx context.Context, q Query) ([]Filter, error) {
	manufacturers, err := a.db.ListManufacturers(ctx, database.ManufacturerFilter{}, 0, 0)
	if err != nil {
		return nil, err
	}

	selected := q.Params.Get(ManufacturerFilterParam)
	choices := []Choice{{Value: "", Label: "All", Selected: selected == ""}}
	for _, m := range manufacturers {
		value := idString(m.ID)
		choices = append(choices, Choice{Value: value, Label: m.String(), Selected: value == selected})
	}
	return []Filter{{Param: ManufacturerFilterParam, Label: "manufacturer", Choices: choices}}, nil
}

func (a *CarAdmin) Get(ctx context.Context, id int64) (*Object, error) {
	c, err := a.db.GetCar(ctx, id)
	if err != nil || c == nil {
		return nil, err
	}
	return &Object{ID: c.ID, Label: c.String()}, nil
}

func (a *CarAdmin) Form(ctx context.Context, id int64, values url.Values) (*Form, error) {
	if values != nil {
		return a.render(ctx, forms.ParseCarForm(values))
	}
	if id == 0 {
		return a.render(ctx, forms.NewCarForm(nil))
	}
	car, err := a.db.GetCar(ctx, id)
	if err != nil || car == nil {
		return nil, err
	}
	return a.render(ctx, forms.NewCarForm(car))
}

func (a *CarAdmin) render(ctx context.Context, f *forms.CarForm) (*Form, error) {
	manufacturers, err := a.db.ListManufacturers(ctx, database.ManufacturerFilter{}, 0, 0)
	if err != nil {
		return nil, err
	}
	drivers, err := a.db.ListDrivers(ctx, database.DriverFilter{}, 0, 0)
	if err != nil {
		return nil, err
	}

	manufacturerChoices := []Choice{{Value: "", Label: "---------"}}
	for _, m := range manufacturers {
		manufacturerChoices = append(manufacturerChoices, Choice{
			Value:    idString(m.ID),
			Label:    m.String(),
			Selected: m.ID == f.ManufacturerID,
		})
	}

	driverChoices := make([]Choice, 0, len(drivers))
	for _, d := range drivers {
		driverChoices = append(driverChoices, Choice{
			Value:    idString(d.ID),
			Label:    d.String(),
			Selected: f.HasDriver(d.ID),
		})
	}

	return &Form{
		Fields: []Field{
			textField("model", "Model", f.Model, true, f.Errors),
			{Name: "manufacturer", Label: "Manufacturer", Type: FieldSelect, Required: true, Choices: manufacturerChoices, Errors: f.Errors.Get("manufacturer")},
			{Name: "drivers", Label: "Drivers", Type: FieldMultiSelect, Choices: driverChoices, Errors: f.Errors.Get("drivers")},
		},
		Errors: formErrors(f.Errors),
	}, nil
}

func (a *CarAdmin) Save(ctx context.Context, id int64, values url.Values) (*Form, int64, error) {
	f := forms.ParseCarForm(values)
	ok, err := f.Validate(ctx, a.db)
	if err != nil {
		return nil, 0, err
	}
	if !ok {
		form, err := a.render(ctx, f)
		return form, 0, err
	}

	car := &database.Car{ID: id}
	f.Apply(car)
	if id == 0 {
		err = a.db.CreateCar(ctx, car, f.DriverIDs)
	} else {
		err = a.db.UpdateCar(ctx, car, f.DriverIDs)
	}
	if err != nil {
		return nil, 0, err
	}

	form, err := a.render(ctx, f)
	return form, car.ID, err
}

func (a *CarAdmin) Delete(ctx context.Context, id int64) error {
	return a.db.DeleteCar(ctx, id)
}

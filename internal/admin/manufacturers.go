package admin

import (
	"context"
	"net/url"

	"github.com/saltyorg/taxiservice/internal/database"
	"github.com/saltyorg/taxiservice/internal/forms"
)

// ManufacturerAdmin lists name and country, searchable by both
type ManufacturerAdmin struct {
	db *database.DB
}

func NewManufacturerAdmin(db *database.DB) *ManufacturerAdmin {
	return &ManufacturerAdmin{db: db}
}

func (a *ManufacturerAdmin) Meta() Meta {
	return Meta{
		Name:          "manufacturer",
		Verbose:       "manufacturer",
		VerbosePlural: "manufacturers",
		Columns:       []string{"Name", "Country"},
		Searchable:    true,
	}
}

func (a *ManufacturerAdmin) filter(q Query) database.ManufacturerFilter {
	return database.ManufacturerFilter{Search: q.Search}
}

func (a *ManufacturerAdmin) Count(ctx context.Context, q Query) (int, error) {
	return a.db.CountManufacturers(ctx, a.filter(q))
}

func (a *ManufacturerAdmin) List(ctx context.Context, q Query, limit, offset int) ([]Row, error) {
	list, err := a.db.ListManufacturers(ctx, a.filter(q), limit, offset)
	if err != nil {
		return nil, err
	}
	rows := make([]Row, 0, len(list))
	for _, m := range list {
		rows = append(rows, Row{ID: m.ID, Label: m.String(), Cells: []string{m.Name, m.Country}})
	}
	return rows, nil
}

func (a *ManufacturerAdmin) Filters(context.Context, Query) ([]Filter, error) {
	return nil, nil
}

func (a *ManufacturerAdmin) Get(ctx context.Context, id int64) (*Object, error) {
	m, err := a.db.GetManufacturer(ctx, id)
	if err != nil || m == nil {
		return nil, err
	}
	return &Object{ID: m.ID, Label: m.String()}, nil
}

func (a *ManufacturerAdmin) Form(ctx context.Context, id int64, values url.Values) (*Form, error) {
	if values != nil {
		return a.render(forms.ParseManufacturerForm(values)), nil
	}
	if id == 0 {
		return a.render(forms.NewManufacturerForm(nil)), nil
	}
	m, err := a.db.GetManufacturer(ctx, id)
	if err != nil || m == nil {
		return nil, err
	}
	return a.render(forms.NewManufacturerForm(m)), nil
}

func (a *ManufacturerAdmin) render(f *forms.ManufacturerForm) *Form {
	return &Form{
		Fields: []Field{
			textField("name", "Name", f.Name, true, f.Errors),
			textField("country", "Country", f.Country, true, f.Errors),
		},
		Errors: formErrors(f.Errors),
	}
}

func (a *ManufacturerAdmin) Save(ctx context.Context, id int64, values url.Values) (*Form, int64, error) {
	f := forms.ParseManufacturerForm(values)
	if !f.Validate() {
		return a.render(f), 0, nil
	}

	m := &database.Manufacturer{ID: id}
	f.Apply(m)
	if id == 0 {
		if err := a.db.CreateManufacturer(ctx, m); err != nil {
			return nil, 0, err
		}
	} else if err := a.db.UpdateManufacturer(ctx, m); err != nil {
		return nil, 0, err
	}
	return a.render(f), m.ID, nil
}

func (a *ManufacturerAdmin) Delete(ctx context.Context, id int64) error {
	return a.db.DeleteManufacturer(ctx, id)
}

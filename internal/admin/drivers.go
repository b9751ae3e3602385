package admin

import (
	"context"
	"net/url"

	"github.com/saltyorg/taxiservice/internal/database"
	"github.com/saltyorg/taxiservice/internal/forms"
)

// PasswordHasher turns a plain password into its stored hash
type PasswordHasher func(password string) (string, error)

// DriverAdmin lists accounts with their license numbers, searchable by
// username, names and license number
type DriverAdmin struct {
	db   *database.DB
	hash PasswordHasher
}

func NewDriverAdmin(db *database.DB, hash PasswordHasher) *DriverAdmin {
	return &DriverAdmin{db: db, hash: hash}
}

func (a *DriverAdmin) Meta() Meta {
	return Meta{
		Name:          "driver",
		Verbose:       "driver",
		VerbosePlural: "drivers",
		Columns:       []string{"Username", "First name", "Last name", "License number", "Staff status"},
		Searchable:    true,
	}
}

func (a *DriverAdmin) filter(q Query) database.DriverFilter {
	return database.DriverFilter{Search: q.Search}
}

func (a *DriverAdmin) Count(ctx context.Context, q Query) (int, error) {
	return a.db.CountDrivers(ctx, a.filter(q))
}

func (a *DriverAdmin) List(ctx context.Context, q Query, limit, offset int) ([]Row, error) {
	drivers, err := a.db.ListDrivers(ctx, a.filter(q), limit, offset)
	if err != nil {
		return nil, err
	}
	rows := make([]Row, 0, len(drivers))
	for _, d := range drivers {
		rows = append(rows, Row{
			ID:    d.ID,
			Label: d.String(),
			Cells: []string{d.Username, d.FirstName, d.LastName, d.LicenseNumber, yesNo(d.IsStaff)},
		})
	}
	return rows, nil
}

func (a *DriverAdmin) Filters(context.Context, Query) ([]Filter, error) {
	return nil, nil
}

func (a *DriverAdmin) Get(ctx context.Context, id int64) (*Object, error) {
	d, err := a.db.GetDriver(ctx, id)
	if err != nil || d == nil {
		return nil, err
	}
	return &Object{ID: d.ID, Label: d.String()}, nil
}

func (a *DriverAdmin) Form(ctx context.Context, id int64, values url.Values) (*Form, error) {
	if id == 0 {
		if values != nil {
			return renderAddForm(forms.ParseDriverCreationForm(values)), nil
		}
		return renderAddForm(forms.NewDriverCreationForm()), nil
	}

	if values != nil {
		return renderChangeForm(forms.ParseDriverChangeForm(values)), nil
	}
	d, err := a.db.GetDriver(ctx, id)
	if err != nil || d == nil {
		return nil, err
	}
	return renderChangeForm(forms.NewDriverChangeForm(d)), nil
}

func renderAddForm(f *forms.DriverCreationForm) *Form {
	return &Form{
		Fields: []Field{
			textField("username", "Username", f.Username, true, f.Errors),
			{Name: "password1", Label: "Password", Type: FieldPassword, Required: true, Errors: f.Errors.Get("password1")},
			{Name: "password2", Label: "Password confirmation", Type: FieldPassword, Required: true, Help: "Enter the same password as before, for verification.", Errors: f.Errors.Get("password2")},
			textField("first_name", "First name", f.FirstName, false, f.Errors),
			textField("last_name", "Last name", f.LastName, false, f.Errors),
			textField("license_number", "License number", f.LicenseNumber, false, f.Errors),
		},
		Errors: formErrors(f.Errors),
	}
}

func renderChangeForm(f *forms.DriverChangeForm) *Form {
	return &Form{
		Fields: []Field{
			textField("username", "Username", f.Username, true, f.Errors),
			textField("first_name", "First name", f.FirstName, false, f.Errors),
			textField("last_name", "Last name", f.LastName, false, f.Errors),
			textField("license_number", "License number", f.LicenseNumber, false, f.Errors),
			{Name: "is_staff", Label: "Staff status", Type: FieldCheckbox, Checked: f.IsStaff, Help: "Designates whether the user can log into this admin site."},
		},
		Errors: formErrors(f.Errors),
	}
}

func (a *DriverAdmin) Save(ctx context.Context, id int64, values url.Values) (*Form, int64, error) {
	if id == 0 {
		return a.create(ctx, values)
	}

	existing, err := a.db.GetDriver(ctx, id)
	if err != nil || existing == nil {
		return nil, 0, err
	}

	f := forms.ParseDriverChangeForm(values)
	ok, err := f.Validate(ctx, a.db, id)
	if err != nil {
		return nil, 0, err
	}
	if !ok {
		return renderChangeForm(f), 0, nil
	}

	f.Apply(existing)
	if err := a.db.UpdateDriver(ctx, existing); err != nil {
		return nil, 0, err
	}
	return renderChangeForm(f), existing.ID, nil
}

func (a *DriverAdmin) create(ctx context.Context, values url.Values) (*Form, int64, error) {
	f := forms.ParseDriverCreationForm(values).LicenseOptional()
	ok, err := f.Validate(ctx, a.db)
	if err != nil {
		return nil, 0, err
	}
	if !ok {
		return renderAddForm(f), 0, nil
	}

	d := f.Driver()
	if d.PasswordHash, err = a.hash(f.Password1); err != nil {
		return nil, 0, err
	}
	if err := a.db.CreateDriver(ctx, d); err != nil {
		return nil, 0, err
	}
	return renderAddForm(f), d.ID, nil
}

func (a *DriverAdmin) Delete(ctx context.Context, id int64) error {
	return a.db.DeleteDriver(ctx, id)
}

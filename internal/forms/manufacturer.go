package forms

import (
	"net/url"
	"strings"

	"github.com/saltyorg/taxiservice/internal/database"
)

// ManufacturerForm holds the name and country of a manufacturer
type ManufacturerForm struct {
	Name    string
	Country string
	Errors  Errors
}

// NewManufacturerForm prefills the form from a stored manufacturer
func NewManufacturerForm(m *database.Manufacturer) *ManufacturerForm {
	f := &ManufacturerForm{Errors: Errors{}}
	if m != nil {
		f.Name = m.Name
		f.Country = m.Country
	}
	return f
}

// ParseManufacturerForm reads the submitted values
func ParseManufacturerForm(values url.Values) *ManufacturerForm {
	return &ManufacturerForm{
		Name:    strings.TrimSpace(values.Get("name")),
		Country: strings.TrimSpace(values.Get("country")),
		Errors:  Errors{},
	}
}

// Validate checks required fields
func (f *ManufacturerForm) Validate() bool {
	f.Errors.required("name", f.Name)
	f.Errors.required("country", f.Country)
	return f.Errors.Valid()
}

// Apply copies the form values onto m
func (f *ManufacturerForm) Apply(m *database.Manufacturer) {
	m.Name = f.Name
	m.Country = f.Country
}

// Package admin provides staff-only record browsing and editing,
// configured per model.
package admin

import (
	"context"
	"net/url"
	"sort"
	"strconv"

	"github.com/saltyorg/taxiservice/internal/forms"
)

// PageSize is the number of rows on a changelist page
const PageSize = 100

// Query parameters understood by changelists
const (
	SearchParam = "q"
	PageParam   = "p"
)

// Meta describes a registered model
type Meta struct {
	Name          string   // URL segment, e.g. "driver"
	Verbose       string   // "driver"
	VerbosePlural string   // "drivers"
	Columns       []string // changelist column headers
	Searchable    bool
}

// Row is one changelist line. Cells line up with Meta.Columns.
type Row struct {
	ID    int64
	Label string
	Cells []string
}

// Choice is an option of a select field or list filter
type Choice struct {
	Value    string
	Label    string
	Selected bool
}

// Filter is a sidebar filter on the changelist
type Filter struct {
	Param   string
	Label   string
	Choices []Choice
}

// Field types rendered by the admin templates
const (
	FieldText        = "text"
	FieldPassword    = "password"
	FieldSelect      = "select"
	FieldMultiSelect = "multiselect"
	FieldCheckbox    = "checkbox"
)

// Field is a rendered form input
type Field struct {
	Name     string
	Label    string
	Type     string
	Value    string
	Checked  bool
	Required bool
	Help     string
	Choices  []Choice
	Errors   []string
}

// Form is an add or change form
type Form struct {
	Fields []Field
	Errors []string // errors not tied to a field
}

// Valid reports whether no field carries an error
func (f *Form) Valid() bool {
	if len(f.Errors) > 0 {
		return false
	}
	for _, field := range f.Fields {
		if len(field.Errors) > 0 {
			return false
		}
	}
	return true
}

// Query narrows a changelist
type Query struct {
	Search string
	Params url.Values
}

// QueryFromValues reads the changelist parameters of a request
func QueryFromValues(values url.Values) Query {
	return Query{Search: values.Get(SearchParam), Params: values}
}

// Object identifies a stored record
type Object struct {
	ID    int64
	Label string
}

// Model is a record type exposed in the admin
type Model interface {
	Meta() Meta
	Count(ctx context.Context, q Query) (int, error)
	List(ctx context.Context, q Query, limit, offset int) ([]Row, error)
	Filters(ctx context.Context, q Query) ([]Filter, error)
	// Get returns nil when the record does not exist
	Get(ctx context.Context, id int64) (*Object, error)
	// Form builds the add form (id 0) or change form. Nil values prefill from the store.
	// A nil form means the record does not exist.
	Form(ctx context.Context, id int64, values url.Values) (*Form, error)
	// Save validates and stores the submitted values. An invalid submission returns
	// the form with errors and a zero id, a missing record a nil form.
	Save(ctx context.Context, id int64, values url.Values) (*Form, int64, error)
	Delete(ctx context.Context, id int64) error
}

// Site is the registry of admin models
type Site struct {
	models map[string]Model
}

// NewSite returns an empty registry
func NewSite() *Site {
	return &Site{models: make(map[string]Model)}
}

// Register adds a model under its Meta name
func (s *Site) Register(m Model) {
	s.models[m.Meta().Name] = m
}

// Model looks up a registered model by name
func (s *Site) Model(name string) (Model, bool) {
	m, ok := s.models[name]
	return m, ok
}

// Models returns the registered models sorted by name
func (s *Site) Models() []Model {
	out := make([]Model, 0, len(s.models))
	for _, m := range s.models {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Meta().Name < out[j].Meta().Name
	})
	return out
}

func textField(name, label, value string, required bool, errs forms.Errors) Field {
	return Field{Name: name, Label: label, Type: FieldText, Value: value, Required: required, Errors: errs.Get(name)}
}

func idString(id int64) string {
	return strconv.FormatInt(id, 10)
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func formErrors(errs forms.Errors) []string {
	return errs.Get("")
}

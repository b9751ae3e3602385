// Package forms parses and validates submitted HTML forms.
package forms

import (
	"errors"
	"fmt"
)

const (
	MsgRequired      = "This field is required."
	MsgInvalidChoice = "Select a valid choice. That choice is not one of the available choices."
)

// ValidationError represents a validation error for a single field
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Errors maps field names to their error messages. The empty field name
// holds errors that belong to the form as a whole.
type Errors map[string][]string

// Add records a message against a field
func (e Errors) Add(field, message string) {
	e[field] = append(e[field], message)
}

// AddError records a ValidationError under its own field
func (e Errors) AddError(err ValidationError) {
	e.Add(err.Field, err.Message)
}

func (e Errors) addValidation(err error) {
	var ve ValidationError
	if errors.As(err, &ve) {
		e.AddError(ve)
		return
	}
	e.Add("", err.Error())
}

// Has reports whether the field has any errors
func (e Errors) Has(field string) bool {
	return len(e[field]) > 0
}

// Get returns the messages for a field
func (e Errors) Get(field string) []string {
	return e[field]
}

// Valid reports whether no errors were recorded
func (e Errors) Valid() bool {
	return len(e) == 0
}

func (e Errors) required(field, value string) bool {
	if value == "" {
		e.Add(field, MsgRequired)
		return false
	}
	return true
}

package forms

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/saltyorg/taxiservice/internal/database"
)

const (
	UsernameMaxLength = 150
	PasswordMinLength = 8
)

const (
	msgUsernameTaken   = "A user with that username already exists."
	msgUsernameInvalid = "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."
	msgPasswordMatch   = "The two password fields didn't match."
	msgLicenseTaken    = "Driver with this License number already exists."
)

// DriverLookup checks uniqueness constraints for driver forms
type DriverLookup interface {
	UsernameTaken(ctx context.Context, username string, excludeID int64) (bool, error)
	LicenseNumberTaken(ctx context.Context, licenseNumber string, excludeID int64) (bool, error)
}

// ValidateUsername checks length and the allowed character set
func ValidateUsername(username string) error {
	if n := utf8.RuneCountInString(username); n > UsernameMaxLength {
		return ValidationError{
			Field:   "username",
			Message: fmt.Sprintf("Ensure this value has at most %d characters (it has %d).", UsernameMaxLength, n),
		}
	}
	for _, r := range username {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune("@.+-_", r) {
			continue
		}
		return ValidationError{Field: "username", Message: msgUsernameInvalid}
	}
	return nil
}

// ValidatePassword checks the minimum length
func ValidatePassword(field, password string) error {
	if utf8.RuneCountInString(password) < PasswordMinLength {
		return ValidationError{
			Field:   field,
			Message: fmt.Sprintf("This password is too short. It must contain at least %d characters.", PasswordMinLength),
		}
	}
	return nil
}

func validateLicense(ctx context.Context, errs Errors, lookup DriverLookup, license string, excludeID int64, required bool) error {
	if license == "" {
		if required {
			errs.Add("license_number", MsgRequired)
		}
		return nil
	}
	if err := ValidateLicenseNumber(license); err != nil {
		errs.addValidation(err)
		return nil
	}
	taken, err := lookup.LicenseNumberTaken(ctx, license, excludeID)
	if err != nil {
		return err
	}
	if taken {
		errs.Add("license_number", msgLicenseTaken)
	}
	return nil
}

func validateUniqueUsername(ctx context.Context, errs Errors, lookup DriverLookup, username string, excludeID int64) error {
	if !errs.required("username", username) {
		return nil
	}
	if err := ValidateUsername(username); err != nil {
		errs.addValidation(err)
		return nil
	}
	taken, err := lookup.UsernameTaken(ctx, username, excludeID)
	if err != nil {
		return err
	}
	if taken {
		errs.Add("username", msgUsernameTaken)
	}
	return nil
}

// DriverCreationForm registers a new driver account
type DriverCreationForm struct {
	Username      string
	Password1     string
	Password2     string
	FirstName     string
	LastName      string
	LicenseNumber string
	Errors        Errors

	// licenseOptional lets the admin create accounts without a license
	licenseOptional bool
}

// NewDriverCreationForm returns an empty creation form
func NewDriverCreationForm() *DriverCreationForm {
	return &DriverCreationForm{Errors: Errors{}}
}

// ParseDriverCreationForm reads the submitted values
func ParseDriverCreationForm(values url.Values) *DriverCreationForm {
	return &DriverCreationForm{
		Username:      strings.TrimSpace(values.Get("username")),
		Password1:     values.Get("password1"),
		Password2:     values.Get("password2"),
		FirstName:     strings.TrimSpace(values.Get("first_name")),
		LastName:      strings.TrimSpace(values.Get("last_name")),
		LicenseNumber: strings.TrimSpace(values.Get("license_number")),
		Errors:        Errors{},
	}
}

// LicenseOptional allows a blank license number
func (f *DriverCreationForm) LicenseOptional() *DriverCreationForm {
	f.licenseOptional = true
	return f
}

// Validate checks every field; the error is only non-nil when a lookup fails
func (f *DriverCreationForm) Validate(ctx context.Context, lookup DriverLookup) (bool, error) {
	if err := validateUniqueUsername(ctx, f.Errors, lookup, f.Username, 0); err != nil {
		return false, err
	}

	p1 := f.Errors.required("password1", f.Password1)
	p2 := f.Errors.required("password2", f.Password2)
	if p1 && p2 {
		if f.Password1 != f.Password2 {
			f.Errors.Add("password2", msgPasswordMatch)
		} else if err := ValidatePassword("password2", f.Password2); err != nil {
			f.Errors.addValidation(err)
		}
	}

	if err := validateLicense(ctx, f.Errors, lookup, f.LicenseNumber, 0, !f.licenseOptional); err != nil {
		return false, err
	}

	return f.Errors.Valid(), nil
}

// Driver builds the account to store. The password is hashed by the caller.
func (f *DriverCreationForm) Driver() *database.Driver {
	return &database.Driver{
		Account: database.Account{
			Username:  f.Username,
			FirstName: f.FirstName,
			LastName:  f.LastName,
		},
		LicenseNumber: f.LicenseNumber,
	}
}

// DriverLicenseForm updates a driver's license number
type DriverLicenseForm struct {
	LicenseNumber string
	Errors        Errors
}

// NewDriverLicenseForm prefills the form from a stored driver
func NewDriverLicenseForm(d *database.Driver) *DriverLicenseForm {
	f := &DriverLicenseForm{Errors: Errors{}}
	if d != nil {
		f.LicenseNumber = d.LicenseNumber
	}
	return f
}

// ParseDriverLicenseForm reads the submitted values
func ParseDriverLicenseForm(values url.Values) *DriverLicenseForm {
	return &DriverLicenseForm{
		LicenseNumber: strings.TrimSpace(values.Get("license_number")),
		Errors:        Errors{},
	}
}

// Validate checks the license rule and uniqueness among other drivers
func (f *DriverLicenseForm) Validate(ctx context.Context, lookup DriverLookup, driverID int64) (bool, error) {
	if err := validateLicense(ctx, f.Errors, lookup, f.LicenseNumber, driverID, true); err != nil {
		return false, err
	}
	return f.Errors.Valid(), nil
}

// DriverChangeForm edits an existing account from the admin
type DriverChangeForm struct {
	Username      string
	FirstName     string
	LastName      string
	LicenseNumber string
	IsStaff       bool
	Errors        Errors
}

// NewDriverChangeForm prefills the form from a stored driver
func NewDriverChangeForm(d *database.Driver) *DriverChangeForm {
	f := &DriverChangeForm{Errors: Errors{}}
	if d != nil {
		f.Username = d.Username
		f.FirstName = d.FirstName
		f.LastName = d.LastName
		f.LicenseNumber = d.LicenseNumber
		f.IsStaff = d.IsStaff
	}
	return f
}

// ParseDriverChangeForm reads the submitted values
func ParseDriverChangeForm(values url.Values) *DriverChangeForm {
	return &DriverChangeForm{
		Username:      strings.TrimSpace(values.Get("username")),
		FirstName:     strings.TrimSpace(values.Get("first_name")),
		LastName:      strings.TrimSpace(values.Get("last_name")),
		LicenseNumber: strings.TrimSpace(values.Get("license_number")),
		IsStaff:       values.Get("is_staff") == "on",
		Errors:        Errors{},
	}
}

// Validate checks username and license constraints excluding the edited driver
func (f *DriverChangeForm) Validate(ctx context.Context, lookup DriverLookup, driverID int64) (bool, error) {
	if err := validateUniqueUsername(ctx, f.Errors, lookup, f.Username, driverID); err != nil {
		return false, err
	}
	if err := validateLicense(ctx, f.Errors, lookup, f.LicenseNumber, driverID, false); err != nil {
		return false, err
	}
	return f.Errors.Valid(), nil
}

// Apply copies the form values onto d
func (f *DriverChangeForm) Apply(d *database.Driver) {
	d.Username = f.Username
	d.FirstName = f.FirstName
	d.LastName = f.LastName
	d.LicenseNumber = f.LicenseNumber
	d.IsStaff = f.IsStaff
}

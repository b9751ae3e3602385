package forms

import (
	"context"
	"errors"
	"net/url"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saltyorg/taxiservice/internal/database"
)

type fakeLookup struct {
	manufacturers map[int64]*database.Manufacturer
	drivers       []int64
	usernames     map[string]int64
	licenses      map[string]int64
	err           error
}

func (f *fakeLookup) GetManufacturer(_ context.Context, id int64) (*database.Manufacturer, error) {
	return f.manufacturers[id], f.err
}

func (f *fakeLookup) CountExistingDrivers(_ context.Context, ids []int64) (int, error) {
	n := 0
	for _, id := range ids {
		if slices.Contains(f.drivers, id) {
			n++
		}
	}
	return n, f.err
}

func (f *fakeLookup) UsernameTaken(_ context.Context, username string, excludeID int64) (bool, error) {
	id, ok := f.usernames[username]
	return ok && id != excludeID, f.err
}

func (f *fakeLookup) LicenseNumberTaken(_ context.Context, license string, excludeID int64) (bool, error) {
	id, ok := f.licenses[license]
	return ok && id != excludeID, f.err
}

func newFakeLookup() *fakeLookup {
	return &fakeLookup{
		manufacturers: map[int64]*database.Manufacturer{1: {ID: 1, Name: "BMW", Country: "Germany"}},
		drivers:       []int64{1, 2},
		usernames:     map[string]int64{"taken": 1},
		licenses:      map[string]int64{"TAK12345": 1},
	}
}

func TestValidateLicenseNumber(t *testing.T) {
	tests := []struct {
		license string
		wantMsg string
	}{
		{license: "ABC12345"},
		{license: "QWE12345666666", wantMsg: "License number should consist of 8 characters"},
		{license: "ABC1234", wantMsg: "License number should consist of 8 characters"},
		{license: "AbC12345", wantMsg: "First 3 characters should be uppercase letters"},
		{license: "AB123456", wantMsg: "First 3 characters should be uppercase letters"},
		{license: "ABC1234A", wantMsg: "Last 5 characters should be digits"},
		{license: "ÄBC1234", wantMsg: "First 3 characters should be uppercase letters"},
	}

	for _, tt := range tests {
		t.Run(tt.license, func(t *testing.T) {
			err := ValidateLicenseNumber(tt.license)
			if tt.wantMsg == "" {
				assert.NoError(t, err)
				return
			}
			var ve ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, "license_number", ve.Field)
			assert.Equal(t, tt.wantMsg, ve.Message)
		})
	}
}

func TestManufacturerForm(t *testing.T) {
	f := ParseManufacturerForm(url.Values{"name": {" BMW "}, "country": {""}})
	assert.False(t, f.Validate())
	assert.Equal(t, "BMW", f.Name)
	assert.Equal(t, []string{MsgRequired}, f.Errors.Get("country"))
	assert.False(t, f.Errors.Has("name"))

	f = ParseManufacturerForm(url.Values{"name": {"BMW"}, "country": {"Germany"}})
	require.True(t, f.Validate())

	m := &database.Manufacturer{}
	f.Apply(m)
	assert.Equal(t, "BMW Germany", m.String())
}

func TestCarForm(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		values     url.Values
		wantFields []string
	}{
		{
			name:   "valid with drivers",
			values: url.Values{"model": {"X5"}, "manufacturer": {"1"}, "drivers": {"1", "2", "2"}},
		},
		{
			name:   "valid without drivers",
			values: url.Values{"model": {"X5"}, "manufacturer": {"1"}},
		},
		{
			name:       "missing everything",
			values:     url.Values{},
			wantFields: []string{"manufacturer", "model"},
		},
		{
			name:       "unknown manufacturer",
			values:     url.Values{"model": {"X5"}, "manufacturer": {"9"}},
			wantFields: []string{"manufacturer"},
		},
		{
			name:       "malformed manufacturer",
			values:     url.Values{"model": {"X5"}, "manufacturer": {"bmw"}},
			wantFields: []string{"manufacturer"},
		},
		{
			name:       "unknown driver",
			values:     url.Values{"model": {"X5"}, "manufacturer": {"1"}, "drivers": {"1", "7"}},
			wantFields: []string{"drivers"},
		},
		{
			name:       "malformed driver",
			values:     url.Values{"model": {"X5"}, "manufacturer": {"1"}, "drivers": {"x"}},
			wantFields: []string{"drivers"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := ParseCarForm(tt.values)
			ok, err := f.Validate(ctx, newFakeLookup())
			require.NoError(t, err)
			assert.Equal(t, len(tt.wantFields) == 0, ok)

			var fields []string
			for field := range f.Errors {
				fields = append(fields, field)
			}
			slices.Sort(fields)
			assert.Equal(t, tt.wantFields, fields)
		})
	}
}

func TestCarForm_DeduplicatesDrivers(t *testing.T) {
	f := ParseCarForm(url.Values{"model": {"X5"}, "manufacturer": {"1"}, "drivers": {"2", "1", "2"}})
	assert.Equal(t, []int64{2, 1}, f.DriverIDs)
	assert.True(t, f.HasDriver(1))
	assert.False(t, f.HasDriver(3))
}

func TestCarForm_LookupErrorIsReturned(t *testing.T) {
	lookup := newFakeLookup()
	lookup.err = errors.New("db down")

	f := ParseCarForm(url.Values{"model": {"X5"}, "manufacturer": {"1"}})
	_, err := f.Validate(context.Background(), lookup)
	require.Error(t, err)
}

func TestDriverCreationForm(t *testing.T) {
	ctx := context.Background()
	valid := func() url.Values {
		return url.Values{
			"username":       {"new.driver"},
			"password1":      {"secret123"},
			"password2":      {"secret123"},
			"first_name":     {"Ben"},
			"last_name":      {"Qwe"},
			"license_number": {"ABC12345"},
		}
	}

	tests := []struct {
		name      string
		modify    func(url.Values)
		wantField string
		wantMsg   string
	}{
		{name: "valid", modify: func(url.Values) {}},
		{name: "username taken", modify: func(v url.Values) { v.Set("username", "taken") }, wantField: "username", wantMsg: msgUsernameTaken},
		{name: "username characters", modify: func(v url.Values) { v.Set("username", "bad name") }, wantField: "username", wantMsg: msgUsernameInvalid},
		{name: "username too long", modify: func(v url.Values) { v.Set("username", strings.Repeat("a", 151)) }, wantField: "username", wantMsg: "Ensure this value has at most 150 characters (it has 151)."},
		{name: "passwords differ", modify: func(v url.Values) { v.Set("password2", "secret124") }, wantField: "password2", wantMsg: msgPasswordMatch},
		{name: "password short", modify: func(v url.Values) { v.Set("password1", "short"); v.Set("password2", "short") }, wantField: "password2", wantMsg: "This password is too short. It must contain at least 8 characters."},
		{name: "license missing", modify: func(v url.Values) { v.Del("license_number") }, wantField: "license_number", wantMsg: MsgRequired},
		{name: "license invalid", modify: func(v url.Values) { v.Set("license_number", "abc12345") }, wantField: "license_number", wantMsg: "First 3 characters should be uppercase letters"},
		{name: "license taken", modify: func(v url.Values) { v.Set("license_number", "TAK12345") }, wantField: "license_number", wantMsg: msgLicenseTaken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values := valid()
			tt.modify(values)

			f := ParseDriverCreationForm(values)
			ok, err := f.Validate(ctx, newFakeLookup())
			require.NoError(t, err)

			if tt.wantField == "" {
				assert.True(t, ok)
				d := f.Driver()
				assert.Equal(t, "new.driver (Ben Qwe)", d.String())
				assert.Equal(t, "ABC12345", d.LicenseNumber)
				return
			}
			assert.False(t, ok)
			assert.Equal(t, []string{tt.wantMsg}, f.Errors.Get(tt.wantField))
		})
	}
}

func TestDriverCreationForm_LicenseOptional(t *testing.T) {
	f := ParseDriverCreationForm(url.Values{
		"username":  {"admin"},
		"password1": {"secret123"},
		"password2": {"secret123"},
	}).LicenseOptional()

	ok, err := f.Validate(context.Background(), newFakeLookup())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDriverLicenseForm(t *testing.T) {
	ctx := context.Background()

	f := ParseDriverLicenseForm(url.Values{"license_number": {"QWE12345666666"}})
	ok, err := f.Validate(ctx, newFakeLookup(), 2)
	require.NoError(t, err)
	assert.False(t, ok)

	// Keeping one's own license is not a conflict
	f = ParseDriverLicenseForm(url.Values{"license_number": {"TAK12345"}})
	ok, err = f.Validate(ctx, newFakeLookup(), 1)
	require.NoError(t, err)
	assert.True(t, ok)

	f = ParseDriverLicenseForm(url.Values{"license_number": {"TAK12345"}})
	ok, err = f.Validate(ctx, newFakeLookup(), 2)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDriverChangeForm(t *testing.T) {
	d := &database.Driver{Account: database.Account{ID: 1, Username: "taken"}, LicenseNumber: "TAK12345"}

	f := NewDriverChangeForm(d)
	assert.Equal(t, "taken", f.Username)

	f = ParseDriverChangeForm(url.Values{
		"username":       {"taken"},
		"first_name":     {"Ann"},
		"license_number": {""},
		"is_staff":       {"on"},
	})
	ok, err := f.Validate(context.Background(), newFakeLookup(), d.ID)
	require.NoError(t, err)
	require.True(t, ok)

	f.Apply(d)
	assert.True(t, d.IsStaff)
	assert.Equal(t, "Ann", d.FirstName)
	assert.Empty(t, d.LicenseNumber)
}

package forms

import (
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saltyorg/taxiservice/internal/config"
)

func TestNewSettingsForm_Defaults(t *testing.T) {
	f := NewSettingsForm(config.NewLoader(nil))

	assert.Equal(t, "168", f.SessionDurationHours)
	assert.Equal(t, "@hourly", f.SessionCleanupSchedule)
	assert.Equal(t, "@daily", f.OptimizeSchedule)
	assert.True(t, f.LogCompress)
}

func TestSettingsForm_Validate(t *testing.T) {
	checkSchedule := func(spec string) error {
		if spec == "bad" {
			return errors.New("bad schedule")
		}
		return nil
	}

	f := ParseSettingsForm(url.Values{
		"session_duration_hours":   {"0"},
		"log_max_size_mb":          {"ten"},
		"log_max_backups":          {"0"},
		"log_max_age_days":         {""},
		"session_cleanup_schedule": {"bad"},
		"optimize_schedule":        {"@daily"},
	})
	require.False(t, f.Validate(checkSchedule))
	assert.True(t, f.Errors.Has("session_duration_hours"))
	assert.True(t, f.Errors.Has("log_max_size_mb"))
	assert.False(t, f.Errors.Has("log_max_backups"))
	assert.Equal(t, []string{MsgRequired}, f.Errors.Get("log_max_age_days"))
	assert.True(t, f.Errors.Has("session_cleanup_schedule"))
	assert.False(t, f.Errors.Has("optimize_schedule"))

	f = ParseSettingsForm(url.Values{
		"session_duration_hours":   {"24"},
		"log_max_size_mb":          {"10"},
		"log_max_backups":          {"1"},
		"log_max_age_days":         {"3"},
		"log_compress":             {"on"},
		"session_cleanup_schedule": {"@hourly"},
		"optimize_schedule":        {"@daily"},
	})
	require.True(t, f.Validate(checkSchedule))

	values := f.Values()
	assert.Equal(t, "24", values[SettingSessionDurationHours])
	assert.Equal(t, "true", values[SettingLogCompress])
}

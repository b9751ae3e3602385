package forms

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/saltyorg/taxiservice/internal/config"
	"github.com/saltyorg/taxiservice/internal/logging"
	"github.com/saltyorg/taxiservice/internal/maintenance"
)

// Setting keys edited through SettingsForm
const (
	SettingSessionDurationHours   = "session.duration_hours"
	SettingLogMaxSizeMB           = "log.max_size_mb"
	SettingLogMaxBackups          = "log.max_backups"
	SettingLogMaxAgeDays          = "log.max_age_days"
	SettingLogCompress            = "log.compress"
	SettingSessionCleanupSchedule = "maintenance.session_cleanup_schedule"
	SettingOptimizeSchedule       = "maintenance.optimize_schedule"
)

const defaultSessionDurationHours = 7 * 24

// SettingsForm edits the runtime settings stored in the database
type SettingsForm struct {
	SessionDurationHours   string
	LogMaxSizeMB           string
	LogMaxBackups          string
	LogMaxAgeDays          string
	LogCompress            bool
	SessionCleanupSchedule string
	OptimizeSchedule       string
	Errors                 Errors
}

// NewSettingsForm prefills the form from stored settings
func NewSettingsForm(loader *config.Loader) *SettingsForm {
	return &SettingsForm{
		SessionDurationHours:   strconv.Itoa(loader.Int(SettingSessionDurationHours, defaultSessionDurationHours)),
		LogMaxSizeMB:           strconv.Itoa(loader.Int(SettingLogMaxSizeMB, logging.DefaultMaxSizeMB)),
		LogMaxBackups:          strconv.Itoa(loader.Int(SettingLogMaxBackups, logging.DefaultMaxBackups)),
		LogMaxAgeDays:          strconv.Itoa(loader.Int(SettingLogMaxAgeDays, logging.DefaultMaxAgeDays)),
		LogCompress:            loader.Bool(SettingLogCompress, logging.DefaultCompress),
		SessionCleanupSchedule: loader.String(SettingSessionCleanupSchedule, maintenance.DefaultSessionCleanupSchedule),
		OptimizeSchedule:       loader.String(SettingOptimizeSchedule, maintenance.DefaultOptimizeSchedule),
		Errors:                 Errors{},
	}
}

// ParseSettingsForm reads the submitted values
func ParseSettingsForm(values url.Values) *SettingsForm {
	return &SettingsForm{
		SessionDurationHours:   strings.TrimSpace(values.Get("session_duration_hours")),
		LogMaxSizeMB:           strings.TrimSpace(values.Get("log_max_size_mb")),
		LogMaxBackups:          strings.TrimSpace(values.Get("log_max_backups")),
		LogMaxAgeDays:          strings.TrimSpace(values.Get("log_max_age_days")),
		LogCompress:            values.Get("log_compress") == "on",
		SessionCleanupSchedule: strings.TrimSpace(values.Get("session_cleanup_schedule")),
		OptimizeSchedule:       strings.TrimSpace(values.Get("optimize_schedule")),
		Errors:                 Errors{},
	}
}

func (f *SettingsForm) integer(field, value string, minimum int) {
	if !f.Errors.required(field, value) {
		return
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		f.Errors.Add(field, "Enter a whole number.")
		return
	}
	if n < minimum {
		f.Errors.Add(field, "Ensure this value is greater than or equal to "+strconv.Itoa(minimum)+".")
	}
}

// Validate checks the numbers and the cron schedules
func (f *SettingsForm) Validate(checkSchedule func(string) error) bool {
	f.integer("session_duration_hours", f.SessionDurationHours, 1)
	f.integer("log_max_size_mb", f.LogMaxSizeMB, 1)
	f.integer("log_max_backups", f.LogMaxBackups, 0)
	f.integer("log_max_age_days", f.LogMaxAgeDays, 0)

	for field, value := range map[string]string{
		"session_cleanup_schedule": f.SessionCleanupSchedule,
		"optimize_schedule":        f.OptimizeSchedule,
	} {
		if f.Errors.required(field, value) {
			if err := checkSchedule(value); err != nil {
				f.Errors.Add(field, "Enter a valid cron schedule.")
			}
		}
	}

	return f.Errors.Valid()
}

// Values returns the settings to store
func (f *SettingsForm) Values() map[string]string {
	return map[string]string{
		SettingSessionDurationHours:   f.SessionDurationHours,
		SettingLogMaxSizeMB:           f.LogMaxSizeMB,
		SettingLogMaxBackups:          f.LogMaxBackups,
		SettingLogMaxAgeDays:          f.LogMaxAgeDays,
		SettingLogCompress:            strconv.FormatBool(f.LogCompress),
		SettingSessionCleanupSchedule: f.SessionCleanupSchedule,
		SettingOptimizeSchedule:       f.OptimizeSchedule,
	}
}

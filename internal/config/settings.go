package config

import (
	"strconv"
	"time"
)

// Loader provides typed access to a snapshot of stored settings with default values
type Loader struct {
	settings map[string]string
}

// NewLoader creates a settings loader over the given key/value snapshot.
// A nil map behaves as if nothing were stored.
func NewLoader(settings map[string]string) *Loader {
	return &Loader{settings: settings}
}

func (l *Loader) get(key string) string {
	if l == nil {
		return ""
	}
	return l.settings[key]
}

// Int retrieves an integer setting, returning defaultVal if not found or invalid
func (l *Loader) Int(key string, defaultVal int) int {
	if val := l.get(key); val != "" {
		if v, err := strconv.Atoi(val); err == nil {
			return v
		}
	}
	return defaultVal
}

// Bool retrieves a boolean setting, returning defaultVal if not found
// Recognizes "true" as true, anything else (including "false") as false
func (l *Loader) Bool(key string, defaultVal bool) bool {
	if val := l.get(key); val != "" {
		return val == "true"
	}
	return defaultVal
}

// String retrieves a string setting, returning defaultVal if not found or empty
func (l *Loader) String(key, defaultVal string) string {
	if val := l.get(key); val != "" {
		return val
	}
	return defaultVal
}

// DurationHours retrieves a duration setting stored as whole hours.
// Non-positive values fall back to the default.
func (l *Loader) DurationHours(key string, defaultHours int) time.Duration {
	hours := l.Int(key, defaultHours)
	if hours <= 0 {
		hours = defaultHours
	}
	return time.Duration(hours) * time.Hour
}

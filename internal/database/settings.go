package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/saltyorg/taxiservice/internal/logging"
)

// GetSetting retrieves a setting value by key
func (db *DB) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := db.queryRow(ctx, "SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get setting %s: %w", key, err)
	}
	return value, nil
}

// SetSetting stores a setting value
func (db *DB) SetSetting(ctx context.Context, key, value string) error {
	_, err := db.exec(ctx, `
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, time.Now())
	if err != nil {
		return fmt.Errorf("failed to set setting %s: %w", key, err)
	}
	return nil
}

// SetSettingJSON stores a setting as JSON
func (db *DB) SetSettingJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal setting %s: %w", key, err)
	}
	return db.SetSetting(ctx, key, string(data))
}

// GetAllSettings retrieves all settings
func (db *DB) GetAllSettings(ctx context.Context) (map[string]string, error) {
	rows, err := db.query(ctx, "SELECT key, value FROM settings")
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan setting: %w", err)
		}
		settings[key] = value
	}

	return settings, rows.Err()
}

// Default settings
var DefaultSettings = map[string]any{
	"log.max_size_mb":                      logging.DefaultMaxSizeMB,
	"log.max_backups":                      logging.DefaultMaxBackups,
	"log.max_age_days":                     logging.DefaultMaxAgeDays,
	"log.compress":                         logging.DefaultCompress,
	"session.duration_hours":               7 * 24,
	"maintenance.session_cleanup_schedule": "@hourly",
	"maintenance.optimize_schedule":        "@daily",
}

// InitializeDefaults sets default values for settings that don't exist
func (db *DB) InitializeDefaults(ctx context.Context) error {
	for key, value := range DefaultSettings {
		existing, err := db.GetSetting(ctx, key)
		if err != nil {
			return err
		}
		if existing != "" {
			continue
		}
		// Strings are stored raw so typed getters can read them unquoted
		if str, ok := value.(string); ok {
			err = db.SetSetting(ctx, key, str)
		} else {
			err = db.SetSettingJSON(ctx, key, value)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// SetSettings stores several settings in one transaction
func (db *DB) SetSettings(ctx context.Context, values map[string]string) error {
	now := time.Now()
	return db.Transaction(ctx, func(tx *sql.Tx) error {
		for key, value := range values {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
				ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
			`, key, value, now); err != nil {
				return fmt.Errorf("failed to set setting %s: %w", key, err)
			}
		}
		return nil
	})
}

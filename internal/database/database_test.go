package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err, "failed to open db")
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.Migrate(context.Background()), "failed to migrate")
	return db
}

func createTestDriver(t *testing.T, db *DB, username, license string) *Driver {
	t.Helper()

	d := &Driver{
		Account: Account{
			Username:     username,
			PasswordHash: "hash",
			FirstName:    "First",
			LastName:     "Last",
		},
		LicenseNumber: license,
	}
	require.NoError(t, db.CreateDriver(context.Background(), d))
	return d
}

func createTestManufacturer(t *testing.T, db *DB, name, country string) *Manufacturer {
	t.Helper()

	m := &Manufacturer{Name: name, Country: country}
	require.NoError(t, db.CreateManufacturer(context.Background(), m))
	return m
}

func TestMigrate_IsIdempotent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.Migrate(ctx))

	version, err := db.SchemaVersion(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, version)
}

func TestIsFirstRun(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	firstRun, err := db.IsFirstRun(ctx)
	require.NoError(t, err)
	require.True(t, firstRun)

	createTestDriver(t, db, "admin", "")

	firstRun, err = db.IsFirstRun(ctx)
	require.NoError(t, err)
	require.False(t, firstRun)
}

func TestSettings_DefaultsAreStoredOnce(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.SetSetting(ctx, "session.duration_hours", "1"))
	require.NoError(t, db.InitializeDefaults(ctx))

	settings, err := db.GetAllSettings(ctx)
	require.NoError(t, err)
	require.Equal(t, "1", settings["session.duration_hours"])
	require.Equal(t, "@hourly", settings["maintenance.session_cleanup_schedule"])
	require.Equal(t, "true", settings["log.compress"])

	missing, err := db.GetSetting(ctx, "does.not.exist")
	require.NoError(t, err)
	require.Empty(t, missing)
}

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Account holds login credentials and personal details
type Account struct {
	ID           int64
	Username     string
	PasswordHash string
	FirstName    string
	LastName     string
	IsStaff      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Driver is an account with a driver profile. Every account is a driver.
type Driver struct {
	Account
	LicenseNumber string
}

func (d *Driver) String() string {
	return fmt.Sprintf("%s (%s %s)", d.Username, d.FirstName, d.LastName)
}

// URL returns the canonical page of the driver
func (d *Driver) URL() string {
	return fmt.Sprintf("/drivers/%d/", d.ID)
}

// DriverFilter narrows driver listings
type DriverFilter struct {
	Username string // case-insensitive substring of username
	Search   string // admin search over username, names and license number
}

func (f DriverFilter) conditions() *conditions {
	c := &conditions{}
	c.contains("username", f.Username)
	c.search(f.Search, "username", "first_name", "last_name", "license_number")
	return c
}

const driverColumns = `id, username, password_hash, first_name, last_name, license_number, is_staff, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDriver(row rowScanner) (*Driver, error) {
	d := &Driver{}
	var license sql.NullString
	err := row.Scan(&d.ID, &d.Username, &d.PasswordHash, &d.FirstName, &d.LastName,
		&license, &d.IsStaff, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	d.LicenseNumber = nullStringValue(license)
	return d, nil
}

// CreateDriver inserts a new driver account and sets its ID and timestamps
func (db *DB) CreateDriver(ctx context.Context, d *Driver) error {
	now := time.Now()
	result, err := db.exec(ctx, `
		INSERT INTO drivers (username, password_hash, first_name, last_name, license_number, is_staff, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, d.Username, d.PasswordHash, d.FirstName, d.LastName, nullIfEmpty(d.LicenseNumber), d.IsStaff, now, now)
	if err != nil {
		return fmt.Errorf("failed to create driver: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get driver id: %w", err)
	}

	d.ID = id
	d.CreatedAt = now
	d.UpdatedAt = now
	return nil
}

// GetDriver retrieves a driver by ID, nil if it does not exist
func (db *DB) GetDriver(ctx context.Context, id int64) (*Driver, error) {
	d, err := scanDriver(db.queryRow(ctx, "SELECT "+driverColumns+" FROM drivers WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get driver: %w", err)
	}
	return d, nil
}

// GetDriverByUsername retrieves a driver by username, nil if it does not exist
func (db *DB) GetDriverByUsername(ctx context.Context, username string) (*Driver, error) {
	d, err := scanDriver(db.queryRow(ctx, "SELECT "+driverColumns+" FROM drivers WHERE username = ?", username))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get driver: %w", err)
	}
	return d, nil
}

// UpdateDriver stores username, names, license number and staff flag
func (db *DB) UpdateDriver(ctx context.Context, d *Driver) error {
	now := time.Now()
	_, err := db.exec(ctx, `
		UPDATE drivers
		SET username = ?, first_name = ?, last_name = ?, license_number = ?, is_staff = ?, updated_at = ?
		WHERE id = ?
	`, d.Username, d.FirstName, d.LastName, nullIfEmpty(d.LicenseNumber), d.IsStaff, now, d.ID)
	if err != nil {
		return fmt.Errorf("failed to update driver: %w", err)
	}
	d.UpdatedAt = now
	return nil
}

// UpdateDriverLicense changes only the driver's license number
func (db *DB) UpdateDriverLicense(ctx context.Context, id int64, licenseNumber string) error {
	_, err := db.exec(ctx, `
		UPDATE drivers SET license_number = ?, updated_at = ? WHERE id = ?
	`, nullIfEmpty(licenseNumber), time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update license number: %w", err)
	}
	return nil
}

// UpdateDriverPassword updates the driver's password hash
func (db *DB) UpdateDriverPassword(ctx context.Context, id int64, passwordHash string) error {
	_, err := db.exec(ctx, `
		UPDATE drivers SET password_hash = ?, updated_at = ? WHERE id = ?
	`, passwordHash, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// DeleteDriver removes a driver; sessions and car assignments go with it
func (db *DB) DeleteDriver(ctx context.Context, id int64) error {
	_, err := db.exec(ctx, "DELETE FROM drivers WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete driver: %w", err)
	}
	return nil
}

// UsernameTaken reports whether another driver already uses username
func (db *DB) UsernameTaken(ctx context.Context, username string, excludeID int64) (bool, error) {
	var count int
	err := db.queryRow(ctx, `
		SELECT COUNT(*) FROM drivers WHERE username = ? AND id != ?
	`, username, excludeID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check username: %w", err)
	}
	return count > 0, nil
}

// LicenseNumberTaken reports whether another driver already holds licenseNumber
func (db *DB) LicenseNumberTaken(ctx context.Context, licenseNumber string, excludeID int64) (bool, error) {
	var count int
	err := db.queryRow(ctx, `
		SELECT COUNT(*) FROM drivers WHERE license_number = ? AND id != ?
	`, licenseNumber, excludeID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check license number: %w", err)
	}
	return count > 0, nil
}

// ListDrivers returns drivers matching the filter in ID order
func (db *DB) ListDrivers(ctx context.Context, filter DriverFilter, limit, offset int) ([]*Driver, error) {
	c := filter.conditions()
	limitSQL, limitArgs := limitClause(limit, offset)

	rows, err := db.query(ctx,
		"SELECT "+driverColumns+" FROM drivers"+c.where()+" ORDER BY id"+limitSQL,
		append(c.args, limitArgs...)...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list drivers: %w", err)
	}
	defer rows.Close()

	var drivers []*Driver
	for rows.Next() {
		d, err := scanDriver(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan driver: %w", err)
		}
		drivers = append(drivers, d)
	}
	return drivers, rows.Err()
}

// CountDrivers returns the number of drivers matching the filter
func (db *DB) CountDrivers(ctx context.Context, filter DriverFilter) (int, error) {
	c := filter.conditions()
	var count int
	if err := db.queryRow(ctx, "SELECT COUNT(*) FROM drivers"+c.where(), c.args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count drivers: %w", err)
	}
	return count, nil
}

// CountExistingDrivers returns how many of ids belong to existing drivers
func (db *DB) CountExistingDrivers(ctx context.Context, ids []int64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	c := &conditions{}
	c.add("id IN ("+placeholders(len(ids))+")", int64Args(ids)...)

	var count int
	if err := db.queryRow(ctx, "SELECT COUNT(*) FROM drivers"+c.where(), c.args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count drivers: %w", err)
	}
	return count, nil
}

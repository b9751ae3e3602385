package database

import (
	"context"
	"database/sql"
	"fmt"
)

// Car represents a car of a manufacturer driven by any number of drivers
type Car struct {
	ID             int64
	Model          string
	ManufacturerID int64
	Manufacturer   *Manufacturer
	Drivers        []*Driver // only populated by GetCar
}

func (c *Car) String() string {
	return c.Model
}

// HasDriver reports whether the driver is assigned to the car
func (c *Car) HasDriver(driverID int64) bool {
	for _, d := range c.Drivers {
		if d.ID == driverID {
			return true
		}
	}
	return false
}

// DriverIDs returns the IDs of the assigned drivers
func (c *Car) DriverIDs() []int64 {
	ids := make([]int64, 0, len(c.Drivers))
	for _, d := range c.Drivers {
		ids = append(ids, d.ID)
	}
	return ids
}

// CarFilter narrows car listings
type CarFilter struct {
	Model          string // case-insensitive substring of model
	Search         string // admin search over model
	ManufacturerID int64  // exact manufacturer, 0 for any
	DriverID       int64  // cars assigned to this driver, 0 for any
}

func (f CarFilter) conditions() *conditions {
	c := &conditions{}
	c.contains("c.model", f.Model)
	c.search(f.Search, "c.model")
	if f.ManufacturerID != 0 {
		c.add("c.manufacturer_id = ?", f.ManufacturerID)
	}
	if f.DriverID != 0 {
		c.add("c.id IN (SELECT car_id FROM car_drivers WHERE driver_id = ?)", f.DriverID)
	}
	return c
}

const carSelect = `
	SELECT c.id, c.model, c.manufacturer_id, m.name, m.country
	FROM cars c
	JOIN manufacturers m ON m.id = c.manufacturer_id`

func scanCar(row rowScanner) (*Car, error) {
	c := &Car{Manufacturer: &Manufacturer{}}
	if err := row.Scan(&c.ID, &c.Model, &c.ManufacturerID, &c.Manufacturer.Name, &c.Manufacturer.Country); err != nil {
		return nil, err
	}
	c.Manufacturer.ID = c.ManufacturerID
	return c, nil
}

// CreateCar inserts a car together with its driver assignments
func (db *DB) CreateCar(ctx context.Context, car *Car, driverIDs []int64) error {
	return db.Transaction(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			INSERT INTO cars (model, manufacturer_id) VALUES (?, ?)
		`, car.Model, car.ManufacturerID)
		if err != nil {
			return fmt.Errorf("failed to create car: %w", err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get car id: %w", err)
		}

		if err := setCarDrivers(ctx, tx, id, driverIDs); err != nil {
			return err
		}
		car.ID = id
		return nil
	})
}

// UpdateCar stores model and manufacturer and replaces the driver assignments
func (db *DB) UpdateCar(ctx context.Context, car *Car, driverIDs []int64) error {
	return db.Transaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			UPDATE cars SET model = ?, manufacturer_id = ? WHERE id = ?
		`, car.Model, car.ManufacturerID, car.ID); err != nil {
			return fmt.Errorf("failed to update car: %w", err)
		}
		return setCarDrivers(ctx, tx, car.ID, driverIDs)
	})
}

func setCarDrivers(ctx context.Context, tx *sql.Tx, carID int64, driverIDs []int64) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM car_drivers WHERE car_id = ?", carID); err != nil {
		return fmt.Errorf("failed to clear car drivers: %w", err)
	}
	for _, driverID := range driverIDs {
		if _, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO car_drivers (car_id, driver_id) VALUES (?, ?)
		`, carID, driverID); err != nil {
			return fmt.Errorf("failed to assign driver %d: %w", driverID, err)
		}
	}
	return nil
}

// GetCar retrieves a car with its manufacturer and drivers, nil if it does not exist
func (db *DB) GetCar(ctx context.Context, id int64) (*Car, error) {
	car, err := scanCar(db.queryRow(ctx, carSelect+" WHERE c.id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get car: %w", err)
	}

	rows, err := db.query(ctx, `
		SELECT `+prefixed("d", driverColumns)+`
		FROM drivers d
		JOIN car_drivers cd ON cd.driver_id = d.id
		WHERE cd.car_id = ?
		ORDER BY d.id
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get car drivers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		d, err := scanDriver(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan car driver: %w", err)
		}
		car.Drivers = append(car.Drivers, d)
	}
	return car, rows.Err()
}

// DeleteCar removes a car and its driver assignments
func (db *DB) DeleteCar(ctx context.Context, id int64) error {
	_, err := db.exec(ctx, "DELETE FROM cars WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete car: %w", err)
	}
	return nil
}

// ToggleCarDriver assigns the driver to the car, or unassigns if already assigned.
// Returns whether the driver is assigned afterwards.
func (db *DB) ToggleCarDriver(ctx context.Context, carID, driverID int64) (bool, error) {
	var assigned bool
	err := db.Transaction(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			DELETE FROM car_drivers WHERE car_id = ? AND driver_id = ?
		`, carID, driverID)
		if err != nil {
			return fmt.Errorf("failed to unassign driver: %w", err)
		}
		removed, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to unassign driver: %w", err)
		}
		if removed > 0 {
			return nil
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO car_drivers (car_id, driver_id) VALUES (?, ?)
		`, carID, driverID); err != nil {
			return fmt.Errorf("failed to assign driver: %w", err)
		}
		assigned = true
		return nil
	})
	return assigned, err
}

// ListCars returns cars matching the filter in ID order
func (db *DB) ListCars(ctx context.Context, filter CarFilter, limit, offset int) ([]*Car, error) {
	c := filter.conditions()
	limitSQL, limitArgs := limitClause(limit, offset)

	rows, err := db.query(ctx, carSelect+c.where()+" ORDER BY c.id"+limitSQL, append(c.args, limitArgs...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to list cars: %w", err)
	}
	defer rows.Close()

	var cars []*Car
	for rows.Next() {
		car, err := scanCar(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan car: %w", err)
		}
		cars = append(cars, car)
	}
	return cars, rows.Err()
}

// CountCars returns the number of cars matching the filter
func (db *DB) CountCars(ctx context.Context, filter CarFilter) (int, error) {
	c := filter.conditions()
	var count int
	if err := db.queryRow(ctx, "SELECT COUNT(*) FROM cars c"+c.where(), c.args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count cars: %w", err)
	}
	return count, nil
}

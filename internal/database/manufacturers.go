package database

import (
	"context"
	"database/sql"
	"fmt"
)

// Manufacturer represents a car manufacturer
type Manufacturer struct {
	ID      int64
	Name    string
	Country string
}

func (m *Manufacturer) String() string {
	return m.Name + " " + m.Country
}

// ManufacturerFilter narrows manufacturer listings
type ManufacturerFilter struct {
	Name   string // case-insensitive substring of name
	Search string // admin search over name and country
}

func (f ManufacturerFilter) conditions() *conditions {
	c := &conditions{}
	c.contains("name", f.Name)
	c.search(f.Search, "name", "country")
	return c
}

// CreateManufacturer inserts a new manufacturer and sets its ID
func (db *DB) CreateManufacturer(ctx context.Context, m *Manufacturer) error {
	result, err := db.exec(ctx, `
		INSERT INTO manufacturers (name, country) VALUES (?, ?)
	`, m.Name, m.Country)
	if err != nil {
		return fmt.Errorf("failed to create manufacturer: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get manufacturer id: %w", err)
	}
	m.ID = id
	return nil
}

// GetManufacturer retrieves a manufacturer by ID, nil if it does not exist
func (db *DB) GetManufacturer(ctx context.Context, id int64) (*Manufacturer, error) {
	m := &Manufacturer{}
	err := db.queryRow(ctx, `
		SELECT id, name, country FROM manufacturers WHERE id = ?
	`, id).Scan(&m.ID, &m.Name, &m.Country)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get manufacturer: %w", err)
	}
	return m, nil
}

// UpdateManufacturer stores the manufacturer's name and country
func (db *DB) UpdateManufacturer(ctx context.Context, m *Manufacturer) error {
	_, err := db.exec(ctx, `
		UPDATE manufacturers SET name = ?, country = ? WHERE id = ?
	`, m.Name, m.Country, m.ID)
	if err != nil {
		return fmt.Errorf("failed to update manufacturer: %w", err)
	}
	return nil
}

// DeleteManufacturer removes a manufacturer; its cars are removed by cascade
func (db *DB) DeleteManufacturer(ctx context.Context, id int64) error {
	_, err := db.exec(ctx, "DELETE FROM manufacturers WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete manufacturer: %w", err)
	}
	return nil
}

// ListManufacturers returns manufacturers matching the filter in ID order
func (db *DB) ListManufacturers(ctx context.Context, filter ManufacturerFilter, limit, offset int) ([]*Manufacturer, error) {
	c := filter.conditions()
	limitSQL, limitArgs := limitClause(limit, offset)

	rows, err := db.query(ctx,
		"SELECT id, name, country FROM manufacturers"+c.where()+" ORDER BY id"+limitSQL,
		append(c.args, limitArgs...)...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list manufacturers: %w", err)
	}
	defer rows.Close()

	var manufacturers []*Manufacturer
	for rows.Next() {
		m := &Manufacturer{}
		if err := rows.Scan(&m.ID, &m.Name, &m.Country); err != nil {
			return nil, fmt.Errorf("failed to scan manufacturer: %w", err)
		}
		manufacturers = append(manufacturers, m)
	}
	return manufacturers, rows.Err()
}

// CountManufacturers returns the number of manufacturers matching the filter
func (db *DB) CountManufacturers(ctx context.Context, filter ManufacturerFilter) (int, error) {
	c := filter.conditions()
	var count int
	if err := db.queryRow(ctx, "SELECT COUNT(*) FROM manufacturers"+c.where(), c.args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count manufacturers: %w", err)
	}
	return count, nil
}

package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCar_String(t *testing.T) {
	c := &Car{Model: "X7"}
	assert.Equal(t, "X7", c.String())
}

func TestCreateCar_StoresDriversAndManufacturer(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	m := createTestManufacturer(t, db, "BMW", "Germany")
	d1 := createTestDriver(t, db, "one", "ABC12345")
	d2 := createTestDriver(t, db, "two", "ABC12346")

	car := &Car{Model: "X5", ManufacturerID: m.ID}
	require.NoError(t, db.CreateCar(ctx, car, []int64{d1.ID, d2.ID}))
	require.EqualValues(t, 1, car.ID)

	saved, err := db.GetCar(ctx, car.ID)
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, "X5", saved.Model)
	assert.Equal(t, "BMW Germany", saved.Manufacturer.String())
	assert.Equal(t, []int64{d1.ID, d2.ID}, saved.DriverIDs())
	assert.True(t, saved.HasDriver(d2.ID))
}

func TestCreateCar_RequiresExistingManufacturer(t *testing.T) {
	db := newTestDB(t)

	err := db.CreateCar(context.Background(), &Car{Model: "X5", ManufacturerID: 42}, nil)
	require.Error(t, err)

	count, err := db.CountCars(context.Background(), CarFilter{})
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestUpdateCar_ReplacesDrivers(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	m := createTestManufacturer(t, db, "BMW", "Germany")
	d1 := createTestDriver(t, db, "one", "ABC12345")
	d2 := createTestDriver(t, db, "two", "ABC12346")

	car := &Car{Model: "X5", ManufacturerID: m.ID}
	require.NoError(t, db.CreateCar(ctx, car, []int64{d1.ID}))

	loaded, err := db.GetCar(ctx, car.ID)
	require.NoError(t, err)

	update := *loaded
	update.Model = "X6"
	require.NoError(t, db.UpdateCar(ctx, &update, []int64{d2.ID}))

	// Previously loaded values are not refreshed until re-read
	assert.Equal(t, "X5", loaded.Model)

	reloaded, err := db.GetCar(ctx, car.ID)
	require.NoError(t, err)
	assert.Equal(t, "X6", reloaded.Model)
	assert.Equal(t, []int64{d2.ID}, reloaded.DriverIDs())
}

func TestToggleCarDriver(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	m := createTestManufacturer(t, db, "BMW", "Germany")
	d := createTestDriver(t, db, "one", "ABC12345")
	car := &Car{Model: "X5", ManufacturerID: m.ID}
	require.NoError(t, db.CreateCar(ctx, car, nil))

	assigned, err := db.ToggleCarDriver(ctx, car.ID, d.ID)
	require.NoError(t, err)
	assert.True(t, assigned)

	assigned, err = db.ToggleCarDriver(ctx, car.ID, d.ID)
	require.NoError(t, err)
	assert.False(t, assigned)

	saved, err := db.GetCar(ctx, car.ID)
	require.NoError(t, err)
	assert.Empty(t, saved.Drivers)
}

func TestListCars_Filters(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	bmw := createTestManufacturer(t, db, "BMW", "Germany")
	vw := createTestManufacturer(t, db, "Volkswagen", "Germany")
	d := createTestDriver(t, db, "one", "ABC12345")

	require.NoError(t, db.CreateCar(ctx, &Car{Model: "X3", ManufacturerID: bmw.ID}, []int64{d.ID}))
	require.NoError(t, db.CreateCar(ctx, &Car{Model: "M4", ManufacturerID: bmw.ID}, nil))
	require.NoError(t, db.CreateCar(ctx, &Car{Model: "Golf X", ManufacturerID: vw.ID}, nil))

	models := func(filter CarFilter) []string {
		t.Helper()
		cars, err := db.ListCars(ctx, filter, 0, 0)
		require.NoError(t, err)
		var out []string
		for _, c := range cars {
			out = append(out, c.Model)
		}
		return out
	}

	assert.Equal(t, []string{"X3", "M4", "Golf X"}, models(CarFilter{}))
	assert.Equal(t, []string{"X3", "Golf X"}, models(CarFilter{Model: "x"}))
	assert.Nil(t, models(CarFilter{Model: "YYY"}))
	assert.Equal(t, []string{"X3", "M4"}, models(CarFilter{ManufacturerID: bmw.ID}))
	assert.Equal(t, []string{"Golf X"}, models(CarFilter{Search: "x", ManufacturerID: vw.ID}))
	assert.Equal(t, []string{"X3"}, models(CarFilter{DriverID: d.ID}))

	count, err := db.CountCars(ctx, CarFilter{Model: "x"})
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestDeleteManufacturer_CascadesToCars(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	m := createTestManufacturer(t, db, "BMW", "Germany")
	car := &Car{Model: "X5", ManufacturerID: m.ID}
	require.NoError(t, db.CreateCar(ctx, car, nil))

	require.NoError(t, db.DeleteManufacturer(ctx, m.ID))

	saved, err := db.GetCar(ctx, car.ID)
	require.NoError(t, err)
	assert.Nil(t, saved)
}

func TestDeleteCar(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	m := createTestManufacturer(t, db, "BMW", "Germany")
	d := createTestDriver(t, db, "one", "ABC12345")
	car := &Car{Model: "X5", ManufacturerID: m.ID}
	require.NoError(t, db.CreateCar(ctx, car, []int64{d.ID}))

	require.NoError(t, db.DeleteCar(ctx, car.ID))

	saved, err := db.GetCar(ctx, car.ID)
	require.NoError(t, err)
	assert.Nil(t, saved)

	// The driver survives
	driver, err := db.GetDriver(ctx, d.ID)
	require.NoError(t, err)
	assert.NotNil(t, driver)
}

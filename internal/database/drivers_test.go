package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDriver_StringAndURL(t *testing.T) {
	db := newTestDB(t)

	d := &Driver{Account: Account{Username: "ben", PasswordHash: "hash", FirstName: "Ben", LastName: "Qwe"}}
	require.NoError(t, db.CreateDriver(context.Background(), d))

	assert.Equal(t, "ben (Ben Qwe)", d.String())
	assert.Equal(t, "/drivers/1/", d.URL())
}

func TestCreateDriver_LicenseNumberRoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	d := createTestDriver(t, db, "ben", "ABC12345")

	saved, err := db.GetDriverByUsername(ctx, "ben")
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, d.ID, saved.ID)
	assert.Equal(t, "ABC12345", saved.LicenseNumber)
	assert.False(t, saved.IsStaff)
}

func TestCreateDriver_BlankLicensesDoNotCollide(t *testing.T) {
	db := newTestDB(t)

	createTestDriver(t, db, "one", "")
	createTestDriver(t, db, "two", "")

	err := db.CreateDriver(context.Background(), &Driver{
		Account:       Account{Username: "three", PasswordHash: "hash"},
		LicenseNumber: "",
	})
	require.NoError(t, err)
}

func TestCreateDriver_DuplicateLicenseFails(t *testing.T) {
	db := newTestDB(t)

	createTestDriver(t, db, "one", "ABC12345")

	err := db.CreateDriver(context.Background(), &Driver{
		Account:       Account{Username: "two", PasswordHash: "hash"},
		LicenseNumber: "ABC12345",
	})
	require.Error(t, err)
}

func TestUsernameAndLicenseTaken(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	d := createTestDriver(t, db, "ben", "ABC12345")

	taken, err := db.UsernameTaken(ctx, "ben", 0)
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = db.UsernameTaken(ctx, "ben", d.ID)
	require.NoError(t, err)
	assert.False(t, taken)

	taken, err = db.LicenseNumberTaken(ctx, "ABC12345", 0)
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = db.LicenseNumberTaken(ctx, "ABC12345", d.ID)
	require.NoError(t, err)
	assert.False(t, taken)
}

func TestUpdateDriverLicense(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	d := createTestDriver(t, db, "ben", "QWE12346")
	require.NoError(t, db.UpdateDriverLicense(ctx, d.ID, "QWE12345"))

	assert.Equal(t, "QWE12346", d.LicenseNumber)

	saved, err := db.GetDriver(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, "QWE12345", saved.LicenseNumber)
}

func TestListDrivers_UsernameFilter(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	createTestDriver(t, db, "qwe", "AAA00001")
	createTestDriver(t, db, "zxc", "AAA00002")

	list, err := db.ListDrivers(ctx, DriverFilter{Username: "QW"}, 0, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "qwe", list[0].Username)

	list, err = db.ListDrivers(ctx, DriverFilter{Search: "aaa00002"}, 0, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "zxc", list[0].Username)

	count, err := db.CountExistingDrivers(ctx, []int64{1, 2, 99})
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestDeleteDriver_RemovesSessionsAndAssignments(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	d := createTestDriver(t, db, "ben", "ABC12345")
	m := createTestManufacturer(t, db, "BMW", "Germany")
	car := &Car{Model: "X5", ManufacturerID: m.ID}
	require.NoError(t, db.CreateCar(ctx, car, []int64{d.ID}))
	_, err := db.CreateSession(ctx, "sess", d.ID, time.Now().Add(time.Hour))
	require.NoError(t, err)

	require.NoError(t, db.DeleteDriver(ctx, d.ID))

	session, err := db.GetSession(ctx, "sess")
	require.NoError(t, err)
	assert.Nil(t, session)

	saved, err := db.GetCar(ctx, car.ID)
	require.NoError(t, err)
	assert.Empty(t, saved.Drivers)
}

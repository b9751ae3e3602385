package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManufacturer_String(t *testing.T) {
	m := &Manufacturer{Name: "BMW", Country: "Germany"}
	assert.Equal(t, "BMW Germany", m.String())
}

func TestManufacturerCRUD(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	m := createTestManufacturer(t, db, "BMW", "Germany")
	require.EqualValues(t, 1, m.ID)

	m.Country = "USA"
	require.NoError(t, db.UpdateManufacturer(ctx, m))

	saved, err := db.GetManufacturer(ctx, m.ID)
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, "USA", saved.Country)

	require.NoError(t, db.DeleteManufacturer(ctx, m.ID))

	saved, err = db.GetManufacturer(ctx, m.ID)
	require.NoError(t, err)
	assert.Nil(t, saved)
}

func TestListManufacturers_NameFilterIsCaseInsensitive(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	createTestManufacturer(t, db, "BMW", "Germany")
	createTestManufacturer(t, db, "Toyota", "Japan")

	tests := []struct {
		name   string
		filter string
		want   []string
	}{
		{name: "no filter", filter: "", want: []string{"BMW", "Toyota"}},
		{name: "lowercase substring", filter: "toy", want: []string{"Toyota"}},
		{name: "no match", filter: "YYY", want: nil},
		{name: "wildcards are literal", filter: "%", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := db.ListManufacturers(ctx, ManufacturerFilter{Name: tt.filter}, 0, 0)
			require.NoError(t, err)

			var names []string
			for _, m := range list {
				names = append(names, m.Name)
			}
			assert.Equal(t, tt.want, names)

			count, err := db.CountManufacturers(ctx, ManufacturerFilter{Name: tt.filter})
			require.NoError(t, err)
			assert.Equal(t, len(tt.want), count)
		})
	}
}

func TestListManufacturers_LimitOffsetKeepInsertionOrder(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	for _, name := range []string{"a", "b", "c", "d", "e", "f"} {
		createTestManufacturer(t, db, name, "x")
	}

	first, err := db.ListManufacturers(ctx, ManufacturerFilter{}, 5, 0)
	require.NoError(t, err)
	require.Len(t, first, 5)
	for i, m := range first {
		assert.EqualValues(t, i+1, m.ID)
	}

	second, err := db.ListManufacturers(ctx, ManufacturerFilter{}, 5, 5)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, "f", second[0].Name)
}

func TestListManufacturers_SearchMatchesEveryTerm(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	createTestManufacturer(t, db, "BMW", "Germany")
	createTestManufacturer(t, db, "Volkswagen", "Germany")
	createTestManufacturer(t, db, "Toyota", "Japan")

	list, err := db.ListManufacturers(ctx, ManufacturerFilter{Search: "german bm"}, 0, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "BMW", list[0].Name)
}

package auth

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/saltyorg/taxiservice/internal/database"
)

func TestMain(m *testing.M) {
	BcryptCost = bcrypt.MinCost
	m.Run()
}

func newTestService(t *testing.T, duration time.Duration) (*AuthService, *database.DB) {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Migrate(context.Background()))

	return NewAuthService(db, duration), db
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("secret-password")
	require.NoError(t, err)

	assert.NotEqual(t, "secret-password", hash)
	assert.True(t, CheckPassword("secret-password", hash))
	assert.False(t, CheckPassword("wrong", hash))
}

func TestAuthenticate(t *testing.T) {
	s, _ := newTestService(t, 0)
	ctx := context.Background()

	d := &database.Driver{Account: database.Account{Username: "driver"}}
	require.NoError(t, s.CreateDriver(ctx, d, "test12345"))

	got, err := s.Authenticate(ctx, "driver", "test12345")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, d.ID, got.ID)

	got, err = s.Authenticate(ctx, "driver", "nope")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = s.Authenticate(ctx, "ghost", "test12345")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, s.SetPassword(ctx, d.ID, "changed123"))
	got, err = s.Authenticate(ctx, "driver", "changed123")
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestSessionLifecycle(t *testing.T) {
	s, _ := newTestService(t, time.Hour)
	ctx := context.Background()
	assert.Equal(t, time.Hour, s.SessionDuration())

	d := &database.Driver{Account: database.Account{Username: "driver"}}
	require.NoError(t, s.CreateDriver(ctx, d, "test12345"))

	session, err := s.CreateSession(ctx, d.ID)
	require.NoError(t, err)
	assert.Len(t, session.ID, 64)

	got, err := s.GetSession(ctx, session.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, d.ID, got.DriverID)

	visits, err := s.RecordVisit(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, visits)

	require.NoError(t, s.ExtendSession(ctx, session.ID))
	require.NoError(t, s.DeleteSession(ctx, session.ID))

	got, err = s.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestGetSession_ExpiredIsRemoved(t *testing.T) {
	s, db := newTestService(t, time.Hour)
	ctx := context.Background()

	d := &database.Driver{Account: database.Account{Username: "driver"}}
	require.NoError(t, s.CreateDriver(ctx, d, "test12345"))

	_, err := db.CreateSession(ctx, "stale", d.ID, time.Now().Add(-time.Minute))
	require.NoError(t, err)

	got, err := s.GetSession(ctx, "stale")
	require.NoError(t, err)
	assert.Nil(t, got)

	record, err := db.GetSession(ctx, "stale")
	require.NoError(t, err)
	assert.Nil(t, record)
}

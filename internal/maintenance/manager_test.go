package maintenance

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/saltyorg/taxiservice/internal/config"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeStore struct {
	purged    atomic.Int32
	optimized atomic.Int32
	err       error
}

func (f *fakeStore) DeleteExpiredSessions(context.Context, time.Time) (int64, error) {
	f.purged.Add(1)
	return 3, f.err
}

func (f *fakeStore) Optimize(context.Context) error {
	f.optimized.Add(1)
	return f.err
}

func TestConfigFromSettings(t *testing.T) {
	cfg := ConfigFromSettings(config.NewLoader(map[string]string{
		"maintenance.optimize_schedule": "@weekly",
	}))
	assert.Equal(t, DefaultSessionCleanupSchedule, cfg.SessionCleanupSchedule)
	assert.Equal(t, "@weekly", cfg.OptimizeSchedule)
}

func TestValidateSchedule(t *testing.T) {
	for _, spec := range []string{"@hourly", "@every 10m", "*/5 * * * *"} {
		assert.NoError(t, ValidateSchedule(spec), spec)
	}
	for _, spec := range []string{"", "whenever", "* * *"} {
		assert.Error(t, ValidateSchedule(spec), spec)
	}
}

func TestManager_StartStop(t *testing.T) {
	m := NewManager(&fakeStore{}, DefaultConfig())

	require.NoError(t, m.Start())
	require.NoError(t, m.Start())
	assert.True(t, m.IsRunning())
	assert.False(t, m.NextRun(JobSessionCleanup).IsZero())
	assert.False(t, m.NextRun(JobOptimize).IsZero())

	m.Stop()
	m.Stop()
	assert.False(t, m.IsRunning())
	assert.True(t, m.NextRun(JobSessionCleanup).IsZero())
}

func TestManager_DisabledJob(t *testing.T) {
	m := NewManager(&fakeStore{}, Config{SessionCleanupSchedule: "@hourly"})

	require.NoError(t, m.Start())
	defer m.Stop()

	assert.False(t, m.NextRun(JobSessionCleanup).IsZero())
	assert.True(t, m.NextRun(JobOptimize).IsZero())
}

func TestManager_InvalidSchedule(t *testing.T) {
	m := NewManager(&fakeStore{}, Config{SessionCleanupSchedule: "not a schedule"})

	err := m.Start()
	require.Error(t, err)
	assert.False(t, m.IsRunning())
}

func TestManager_RunStopsWithContext(t *testing.T) {
	m := NewManager(&fakeStore{}, DefaultConfig())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	require.Eventually(t, m.IsRunning, time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.False(t, m.IsRunning())
}

func TestManager_JobsRunOnSchedule(t *testing.T) {
	store := &fakeStore{}
	m := NewManager(store, Config{
		SessionCleanupSchedule: "@every 1s",
		OptimizeSchedule:       "@every 1s",
	})

	require.NoError(t, m.Start())
	defer m.Stop()

	require.Eventually(t, func() bool {
		return store.purged.Load() > 0 && store.optimized.Load() > 0
	}, 3*time.Second, 50*time.Millisecond)
}

func TestCleanupSessions(t *testing.T) {
	store := &fakeStore{}
	m := NewManager(store, DefaultConfig())

	require.NoError(t, m.CleanupSessions(context.Background()))
	assert.EqualValues(t, 1, store.purged.Load())

	store.err = errors.New("locked")
	require.Error(t, m.CleanupSessions(context.Background()))
}

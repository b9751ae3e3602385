// Package maintenance runs periodic housekeeping jobs against the database.
package maintenance

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/saltyorg/taxiservice/internal/config"
)

// Job names
const (
	JobSessionCleanup = "session_cleanup"
	JobOptimize       = "optimize"
)

const (
	DefaultSessionCleanupSchedule = "@hourly"
	DefaultOptimizeSchedule       = "@daily"
)

// Store is the database surface the jobs need
type Store interface {
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
	Optimize(ctx context.Context) error
}

// Config holds the cron schedule of each job. An empty schedule disables the job.
type Config struct {
	SessionCleanupSchedule string
	OptimizeSchedule       string
}

// DefaultConfig returns the default schedules
func DefaultConfig() Config {
	return Config{
		SessionCleanupSchedule: DefaultSessionCleanupSchedule,
		OptimizeSchedule:       DefaultOptimizeSchedule,
	}
}

// ConfigFromSettings reads the schedules from stored settings
func ConfigFromSettings(loader *config.Loader) Config {
	return Config{
		SessionCleanupSchedule: loader.String("maintenance.session_cleanup_schedule", DefaultSessionCleanupSchedule),
		OptimizeSchedule:       loader.String("maintenance.optimize_schedule", DefaultOptimizeSchedule),
	}
}

// ValidateSchedule reports whether spec is a cron expression or descriptor the scheduler accepts
func ValidateSchedule(spec string) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return nil
}

// Manager schedules the maintenance jobs
type Manager struct {
	store   Store
	config  Config
	cron    *cron.Cron
	entries map[string]cron.EntryID
	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	running bool
}

// NewManager creates a maintenance manager
func NewManager(store Store, cfg Config) *Manager {
	return &Manager{
		store:   store,
		config:  cfg,
		cron:    cron.New(),
		entries: make(map[string]cron.EntryID),
	}
}

// Start registers the jobs and starts the scheduler
func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return nil
	}

	jobs := []struct {
		name     string
		schedule string
		run      func(context.Context) error
	}{
		{JobSessionCleanup, m.config.SessionCleanupSchedule, m.CleanupSessions},
		{JobOptimize, m.config.OptimizeSchedule, m.store.Optimize},
	}

	m.ctx, m.cancel = context.WithCancel(context.Background())

	for _, job := range jobs {
		if job.schedule == "" {
			log.Debug().Str("job", job.name).Msg("Maintenance job disabled")
			continue
		}
		id, err := m.cron.AddFunc(job.schedule, m.wrap(job.name, job.run))
		if err != nil {
			m.removeAll()
			m.cancel()
			return fmt.Errorf("invalid %s schedule %q: %w", job.name, job.schedule, err)
		}
		m.entries[job.name] = id
	}

	m.cron.Start()
	m.running = true

	log.Info().
		Str("session_cleanup", m.config.SessionCleanupSchedule).
		Str("optimize", m.config.OptimizeSchedule).
		Msg("Maintenance scheduler started")

	return nil
}

// Stop stops the scheduler and waits for running jobs
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	m.cancel()
	ctx := m.cron.Stop()
	<-ctx.Done()

	m.removeAll()
	m.running = false
	log.Info().Msg("Maintenance scheduler stopped")
}

// Run starts the scheduler and blocks until ctx is done
func (m *Manager) Run(ctx context.Context) error {
	if err := m.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	m.Stop()
	return nil
}

// IsRunning returns whether the scheduler is running
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// NextRun returns when the job runs next, zero if it is not scheduled
func (m *Manager) NextRun(job string) time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.entries[job]
	if !ok {
		return time.Time{}
	}
	return m.cron.Entry(id).Next
}

// CleanupSessions removes expired login sessions
func (m *Manager) CleanupSessions(ctx context.Context) error {
	removed, err := m.store.DeleteExpiredSessions(ctx, time.Now())
	if err != nil {
		return err
	}
	if removed > 0 {
		log.Info().Int64("removed", removed).Msg("Removed expired sessions")
	}
	return nil
}

func (m *Manager) wrap(name string, run func(context.Context) error) func() {
	return func() {
		start := time.Now()
		if err := run(m.ctx); err != nil {
			log.Error().Err(err).Str("job", name).Msg("Maintenance job failed")
			return
		}
		log.Debug().Str("job", name).Dur("duration", time.Since(start)).Msg("Maintenance job finished")
	}
}

func (m *Manager) removeAll() {
	for name, id := range m.entries {
		m.cron.Remove(id)
		delete(m.entries, name)
	}
}

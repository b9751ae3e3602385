package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/saltyorg/taxiservice/internal/database"
)

// DefaultSessionDuration is how long sessions last unless configured otherwise
const DefaultSessionDuration = 7 * 24 * time.Hour // 7 days

// BcryptCost is the bcrypt cost factor
var BcryptCost = 12

// AuthService handles authentication
type AuthService struct {
	db              *database.DB
	sessionDuration time.Duration
}

// NewAuthService creates a new auth service. A non-positive duration uses DefaultSessionDuration.
func NewAuthService(db *database.DB, sessionDuration time.Duration) *AuthService {
	if sessionDuration <= 0 {
		sessionDuration = DefaultSessionDuration
	}
	return &AuthService{db: db, sessionDuration: sessionDuration}
}

// SessionDuration returns the configured session lifetime
func (s *AuthService) SessionDuration() time.Duration {
	return s.sessionDuration
}

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword verifies a password against a hash
func CheckPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// CreateDriver hashes the password and stores the driver account
func (s *AuthService) CreateDriver(ctx context.Context, d *database.Driver, password string) error {
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	d.PasswordHash = hash
	return s.db.CreateDriver(ctx, d)
}

// SetPassword changes a driver's password
func (s *AuthService) SetPassword(ctx context.Context, driverID int64, password string) error {
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	return s.db.UpdateDriverPassword(ctx, driverID, hash)
}

// Authenticate verifies credentials and returns the driver, nil if they do not match
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*database.Driver, error) {
	driver, err := s.db.GetDriverByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if driver == nil {
		return nil, nil
	}
	if !CheckPassword(password, driver.PasswordHash) {
		return nil, nil
	}
	return driver, nil
}

// GetDriver retrieves the driver owning a session
func (s *AuthService) GetDriver(ctx context.Context, id int64) (*database.Driver, error) {
	return s.db.GetDriver(ctx, id)
}

// CreateSession creates a new session for a driver
func (s *AuthService) CreateSession(ctx context.Context, driverID int64) (*database.SessionRecord, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return nil, err
	}
	return s.db.CreateSession(ctx, sessionID, driverID, time.Now().Add(s.sessionDuration))
}

// GetSession retrieves a live session by ID. Expired sessions are removed and reported as nil.
func (s *AuthService) GetSession(ctx context.Context, sessionID string) (*database.SessionRecord, error) {
	session, err := s.db.GetSession(ctx, sessionID)
	if err != nil || session == nil {
		return nil, err
	}

	if time.Now().After(session.ExpiresAt) {
		if err := s.DeleteSession(ctx, sessionID); err != nil {
			return nil, fmt.Errorf("failed to delete expired session: %w", err)
		}
		return nil, nil
	}

	return session, nil
}

// DeleteSession removes a session
func (s *AuthService) DeleteSession(ctx context.Context, sessionID string) error {
	return s.db.DeleteSession(ctx, sessionID)
}

// ExtendSession extends a session's expiration
func (s *AuthService) ExtendSession(ctx context.Context, sessionID string) error {
	return s.db.ExtendSession(ctx, sessionID, time.Now().Add(s.sessionDuration))
}

// RecordVisit counts a dashboard visit within the session and returns the running total
func (s *AuthService) RecordVisit(ctx context.Context, sessionID string) (int, error) {
	return s.db.IncrementSessionVisits(ctx, sessionID)
}

// generateSessionID creates a cryptographically secure session ID
func generateSessionID() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate session id: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

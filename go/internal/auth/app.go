package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/mcdev12/scoreboard/go/internal/models"
)

// UserRepository defines what the app layer needs from the user store
type UserRepository interface {
	CreateUser(ctx context.Context, user models.User, hash []byte) error
	GetCredentials(ctx context.Context, email string) (*Credentials, error)
	UpdatePasswordHash(ctx context.Context, userID uuid.UUID, hash []byte) error
	CreateSession(ctx context.Context, s Session) error
	GetSession(ctx context.Context, token uuid.UUID) (*Session, *models.User, error)
	DeleteSession(ctx context.Context, token uuid.UUID) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

// App handles operator accounts and sessions
type App struct {
	repo  UserRepository
	clock clockwork.Clock
	ttl   time.Duration
	cost  int
}

// NewApp creates an auth App issuing sessions that live for ttl
func NewApp(repo UserRepository, clock clockwork.Clock, ttl time.Duration) *App {
	return &App{
		repo:  repo,
		clock: clock,
		ttl:   ttl,
		cost:  bcrypt.DefaultCost,
	}
}

// Login checks the credentials and opens a new session
func (a *App) Login(ctx context.Context, email, password string) (*Session, *models.User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, nil, err
	}

	creds, err := a.repo.GetCredentials(ctx, email)
	if errors.Is(err, models.ErrNotFound) {
		return nil, nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword(creds.PasswordHash, []byte(password)); err != nil {
		log.Warn().Str("user_id", creds.User.ID.String()).Msg("login with wrong password")
		return nil, nil, ErrInvalidCredentials
	}

	now := a.clock.Now()
	s := Session{
		Token:     uuid.New(),
		UserID:    creds.User.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(a.ttl),
	}
	if err := a.repo.CreateSession(ctx, s); err != nil {
		return nil, nil, err
	}

	log.Info().Str("user_id", creds.User.ID.String()).Time("expires_at", s.ExpiresAt).Msg("user logged in")
	return &s, &creds.User, nil
}

// Logout ends a session. Unknown tokens are ignored.
func (a *App) Logout(ctx context.Context, token uuid.UUID) error {
	return a.repo.DeleteSession(ctx, token)
}

// Authenticate resolves a bearer token to its user. Expired sessions are
// deleted on sight.
func (a *App) Authenticate(ctx context.Context, token string) (*models.User, *Session, error) {
	id, err := uuid.Parse(token)
	if err != nil {
		return nil, nil, ErrUnauthenticated
	}

	s, user, err := a.repo.GetSession(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		return nil, nil, ErrUnauthenticated
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load session: %w", err)
	}

	if !a.clock.Now().Before(s.ExpiresAt) {
		if err := a.repo.DeleteSession(ctx, id); err != nil {
			log.Error().Err(err).Msg("failed to delete expired session")
		}
		return nil, nil, ErrUnauthenticated
	}
	return user, s, nil
}

// UpdatePassword replaces a user's password
func (a *App) UpdatePassword(ctx context.Context, userID uuid.UUID, password string) error {
	if err := validatePassword(password); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), a.cost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := a.repo.UpdatePasswordHash(ctx, userID, hash); err != nil {
		return err
	}
	log.Info().Str("user_id", userID.String()).Msg("password updated")
	return nil
}

// CreateUser registers an operator account
func (a *App) CreateUser(ctx context.Context, email, password string) (*models.User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), a.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{ID: uuid.New(), Email: email, CreatedAt: a.clock.Now()}
	if err := a.repo.CreateUser(ctx, user, hash); err != nil {
		return nil, err
	}
	log.Info().Str("user_id", user.ID.String()).Str("email", email).Msg("created user")
	return &user, nil
}

// EnsureUser creates the account unless the email is already registered.
// An existing account keeps its password.
func (a *App) EnsureUser(ctx context.Context, email, password string) (*models.User, error) {
	user, err := a.CreateUser(ctx, email, password)
	if !errors.Is(err, ErrEmailTaken) {
		return user, err
	}
	email, _ = normalizeEmail(email)
	creds, err := a.repo.GetCredentials(ctx, email)
	if err != nil {
		return nil, err
	}
	return &creds.User, nil
}

// SweepExpired deletes every session that has expired.
func (a *App) SweepExpired(ctx context.Context) (int64, error) {
	return a.repo.DeleteExpiredSessions(ctx, a.clock.Now())
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", &ValidationError{Field: "email", Reason: "is required"}
	}
	if !strings.Contains(email, "@") {
		return "", &ValidationError{Field: "email", Reason: "must be an email address"}
	}
	return email, nil
}

func validatePassword(password string) error {
	if n := len(password); n < MinPasswordLength || n > MaxPasswordLength {
		return &ValidationError{
			Field:  "password",
			Reason: fmt.Sprintf("must be %d to %d characters", MinPasswordLength, MaxPasswordLength),
		}
	}
	return nil
}

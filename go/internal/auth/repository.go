package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mcdev12/scoreboard/go/internal/models"
)

const uniqueViolation = "23505"

// Repository stores users and sessions in Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) CreateUser(ctx context.Context, user models.User, hash []byte) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO users (id, email, password_hash, created_at) VALUES ($1, $2, $3, $4)`,
		user.ID, user.Email, string(hash), user.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *Repository) GetCredentials(ctx context.Context, email string) (*Credentials, error) {
	var (
		c    Credentials
		hash string
	)
	err := r.pool.QueryRow(ctx,
		`SELECT id, email, created_at, password_hash FROM users WHERE email = $1`, email).
		Scan(&c.User.ID, &c.User.Email, &c.User.CreatedAt, &hash)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", email, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	c.PasswordHash = []byte(hash)
	return &c, nil
}

func (r *Repository) UpdatePasswordHash(ctx context.Context, userID uuid.UUID, hash []byte) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET password_hash = $2 WHERE id = $1`, userID, string(hash))
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %s: %w", userID, models.ErrNotFound)
	}
	return nil
}

func (r *Repository) CreateSession(ctx context.Context, s Session) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO sessions (token, user_id, created_at, expires_at) VALUES ($1, $2, $3, $4)`,
		s.Token, s.UserID, s.CreatedAt, s.ExpiresAt)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (r *Repository) GetSession(ctx context.Context, token uuid.UUID) (*Session, *models.User, error) {
	var (
		s Session
		u models.User
	)
	err := r.pool.QueryRow(ctx, `
SELECT s.token, s.user_id, s.created_at, s.expires_at, u.id, u.email, u.created_at
FROM sessions s JOIN users u ON u.id = s.user_id
WHERE s.token = $1`, token).
		Scan(&s.Token, &s.UserID, &s.CreatedAt, &s.ExpiresAt, &u.ID, &u.Email, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, fmt.Errorf("session: %w", models.ErrNotFound)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &s, &u, nil
}

func (r *Repository) DeleteSession(ctx context.Context, token uuid.UUID) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE token = $1`, token); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (r *Repository) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}

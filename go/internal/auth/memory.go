package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mcdev12/scoreboard/go/internal/models"
)

// MemoryRepository keeps users and sessions in process.
type MemoryRepository struct {
	mu       sync.Mutex
	users    map[string]Credentials // by email
	sessions map[uuid.UUID]Session
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		users:    make(map[string]Credentials),
		sessions: make(map[uuid.UUID]Session),
	}
}

func (r *MemoryRepository) CreateUser(ctx context.Context, user models.User, hash []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.Email]; ok {
		return ErrEmailTaken
	}
	r.users[user.Email] = Credentials{User: user, PasswordHash: hash}
	return nil
}

func (r *MemoryRepository) GetCredentials(ctx context.Context, email string) (*Credentials, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.users[email]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", email, models.ErrNotFound)
	}
	return &c, nil
}

func (r *MemoryRepository) UpdatePasswordHash(ctx context.Context, userID uuid.UUID, hash []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for email, c := range r.users {
		if c.User.ID == userID {
			c.PasswordHash = hash
			r.users[email] = c
			return nil
		}
	}
	return fmt.Errorf("user %s: %w", userID, models.ErrNotFound)
}

func (r *MemoryRepository) CreateSession(ctx context.Context, s Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.Token] = s
	return nil
}

func (r *MemoryRepository) GetSession(ctx context.Context, token uuid.UUID) (*Session, *models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[token]
	if !ok {
		return nil, nil, fmt.Errorf("session: %w", models.ErrNotFound)
	}
	for _, c := range r.users {
		if c.User.ID == s.UserID {
			u := c.User
			return &s, &u, nil
		}
	}
	return nil, nil, fmt.Errorf("session user: %w", models.ErrNotFound)
}

func (r *MemoryRepository) DeleteSession(ctx context.Context, token uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, token)
	return nil
}

func (r *MemoryRepository) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for token, s := range r.sessions {
		if !s.ExpiresAt.After(now) {
			delete(r.sessions, token)
			n++
		}
	}
	return n, nil
}

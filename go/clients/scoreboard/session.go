package scoreboard

import (
	"context"
	"errors"
	"sync"
	"time"

	"connectrpc.com/connect"

	scoreboardv1 "github.com/mcdev12/scoreboard/go/internal/api/scoreboardv1"
)

// SessionState is a snapshot of the client's login.
type SessionState struct {
	User      *scoreboardv1.User
	Token     string
	ExpiresAt time.Time
}

// LoggedIn reports whether the state carries a token.
func (s SessionState) LoggedIn() bool {
	return s.Token != ""
}

// Session holds the operator login for one Client. Listeners registered with
// OnStateChanged see every login and logout, including a server-side expiry
// detected on any call.
type Session struct {
	auth scoreboardv1.AuthServiceClient

	mu        sync.Mutex
	state     SessionState
	listeners map[int]func(SessionState)
	nextID    int
	closed    bool
}

func newSession() *Session {
	return &Session{listeners: make(map[int]func(SessionState))}
}

// Login exchanges credentials for a session token.
func (s *Session) Login(ctx context.Context, email, password string) error {
	resp, err := s.auth.Login(ctx, connect.NewRequest(&scoreboardv1.LoginRequest{
		Email:    email,
		Password: password,
	}))
	if err != nil {
		return err
	}
	s.setState(SessionState{
		User:      resp.Msg.User,
		Token:     resp.Msg.Token,
		ExpiresAt: resp.Msg.ExpiresAt,
	})
	return nil
}

// Logout ends the session on the server. The local state is cleared even when
// the call fails.
func (s *Session) Logout(ctx context.Context) error {
	if !s.State().LoggedIn() {
		return nil
	}
	_, err := s.auth.Logout(ctx, connect.NewRequest(&scoreboardv1.LogoutRequest{}))
	s.setState(SessionState{})
	if connect.CodeOf(err) == connect.CodeUnauthenticated {
		return nil
	}
	return err
}

// UpdatePassword changes the logged-in user's password.
func (s *Session) UpdatePassword(ctx context.Context, password string) error {
	if !s.State().LoggedIn() {
		return connect.NewError(connect.CodeUnauthenticated, errors.New("not logged in"))
	}
	_, err := s.auth.UpdatePassword(ctx, connect.NewRequest(&scoreboardv1.UpdatePasswordRequest{Password: password}))
	return err
}

// User returns the logged-in user, or nil.
func (s *Session) User() *scoreboardv1.User {
	return s.State().User
}

func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// OnStateChanged calls fn with the current state and again after every
// change. The returned func removes the listener.
func (s *Session) OnStateChanged(fn func(SessionState)) (unsubscribe func()) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return func() {}
	}
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	state := s.state
	s.mu.Unlock()

	fn(state)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

// Close drops every listener. Later state changes notify nobody.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.listeners = make(map[int]func(SessionState))
}

// Interceptor attaches the bearer token and clears the session when the
// server reports it as no longer valid.
func (s *Session) Interceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			token := s.State().Token
			if token != "" {
				req.Header().Set("Authorization", "Bearer "+token)
			}
			resp, err := next(ctx, req)
			if token != "" && connect.CodeOf(err) == connect.CodeUnauthenticated &&
				req.Spec().Procedure != scoreboardv1.AuthServiceLoginProcedure {
				s.expire(token)
			}
			return resp, err
		}
	}
}

// expire clears the state if it still holds token.
func (s *Session) expire(token string) {
	s.mu.Lock()
	if s.state.Token != token {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	s.setState(SessionState{})
}

func (s *Session) setState(state SessionState) {
	s.mu.Lock()
	s.state = state
	listeners := make([]func(SessionState), 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(state)
	}
}

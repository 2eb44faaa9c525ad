package auth

import (
	"context"
	"errors"
	"strings"

	"connectrpc.com/connect"
	"github.com/rs/zerolog/log"

	scoreboardv1 "github.com/mcdev12/scoreboard/go/internal/api/scoreboardv1"
	"github.com/mcdev12/scoreboard/go/internal/models"
)

type contextKey string

const (
	userKey    contextKey = "auth_user"
	sessionKey contextKey = "auth_session"
)

// Authenticator resolves bearer tokens
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, *Session, error)
}

// WithSession attaches the caller's user and session to ctx.
func WithSession(ctx context.Context, user *models.User, s *Session) context.Context {
	ctx = context.WithValue(ctx, userKey, user)
	return context.WithValue(ctx, sessionKey, s)
}

// UserFromContext returns the authenticated caller, if any.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(userKey).(*models.User)
	return u, ok && u != nil
}

// SessionFromContext returns the caller's session, if any.
func SessionFromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionKey).(*Session)
	return s, ok && s != nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, bool) {
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

// NewInterceptor requires a valid session on every procedure except the
// public ones. Public procedures still see the caller when a token is sent.
func NewInterceptor(authn Authenticator) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			procedure := req.Spec().Procedure
			public := scoreboardv1.IsPublicProcedure(procedure)

			token, ok := BearerToken(req.Header().Get("Authorization"))
			if !ok {
				if public {
					return next(ctx, req)
				}
				return nil, connect.NewError(connect.CodeUnauthenticated, ErrUnauthenticated)
			}

			user, s, err := authn.Authenticate(ctx, token)
			switch {
			case err == nil:
				return next(WithSession(ctx, user, s), req)
			case errors.Is(err, ErrUnauthenticated):
				if public {
					return next(ctx, req)
				}
				return nil, connect.NewError(connect.CodeUnauthenticated, ErrUnauthenticated)
			default:
				log.Error().Err(err).Str("procedure", procedure).Msg("failed to authenticate request")
				return nil, connect.NewError(connect.CodeInternal, errors.New("internal error"))
			}
		}
	}
}

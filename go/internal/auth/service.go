package auth

import (
	"context"
	"errors"

	"connectrpc.com/connect"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	scoreboardv1 "github.com/mcdev12/scoreboard/go/internal/api/scoreboardv1"
	"github.com/mcdev12/scoreboard/go/internal/models"
)

// AuthApp defines what the service layer needs from the auth application
type AuthApp interface {
	Login(ctx context.Context, email, password string) (*Session, *models.User, error)
	Logout(ctx context.Context, token uuid.UUID) error
	UpdatePassword(ctx context.Context, userID uuid.UUID, password string) error
}

// Service implements the AuthService connect interface
type Service struct {
	app AuthApp
}

// NewService creates a new auth service
func NewService(app AuthApp) *Service {
	return &Service{app: app}
}

var _ scoreboardv1.AuthServiceHandler = (*Service)(nil)

func (s *Service) Login(ctx context.Context, req *connect.Request[scoreboardv1.LoginRequest]) (*connect.Response[scoreboardv1.LoginResponse], error) {
	session, user, err := s.app.Login(ctx, req.Msg.Email, req.Msg.Password)
	if err != nil {
		return nil, toConnectError(req.Spec().Procedure, err)
	}
	return connect.NewResponse(&scoreboardv1.LoginResponse{
		Token:     session.Token.String(),
		ExpiresAt: session.ExpiresAt,
		User:      userToAPI(user),
	}), nil
}

func (s *Service) Logout(ctx context.Context, req *connect.Request[scoreboardv1.LogoutRequest]) (*connect.Response[scoreboardv1.LogoutResponse], error) {
	session, ok := SessionFromContext(ctx)
	if !ok {
		return nil, connect.NewError(connect.CodeUnauthenticated, ErrUnauthenticated)
	}
	if err := s.app.Logout(ctx, session.Token); err != nil {
		return nil, toConnectError(req.Spec().Procedure, err)
	}
	return connect.NewResponse(&scoreboardv1.LogoutResponse{}), nil
}

func (s *Service) WhoAmI(ctx context.Context, req *connect.Request[scoreboardv1.WhoAmIRequest]) (*connect.Response[scoreboardv1.WhoAmIResponse], error) {
	user, ok := UserFromContext(ctx)
	if !ok {
		return nil, connect.NewError(connect.CodeUnauthenticated, ErrUnauthenticated)
	}
	return connect.NewResponse(&scoreboardv1.WhoAmIResponse{User: userToAPI(user)}), nil
}

func (s *Service) UpdatePassword(ctx context.Context, req *connect.Request[scoreboardv1.UpdatePasswordRequest]) (*connect.Response[scoreboardv1.UpdatePasswordResponse], error) {
	user, ok := UserFromContext(ctx)
	if !ok {
		return nil, connect.NewError(connect.CodeUnauthenticated, ErrUnauthenticated)
	}
	if err := s.app.UpdatePassword(ctx, user.ID, req.Msg.Password); err != nil {
		return nil, toConnectError(req.Spec().Procedure, err)
	}
	return connect.NewResponse(&scoreboardv1.UpdatePasswordResponse{}), nil
}

func toConnectError(procedure string, err error) error {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		return connect.NewError(connect.CodeInvalidArgument, ve)
	case errors.Is(err, ErrInvalidCredentials):
		return connect.NewError(connect.CodeUnauthenticated, ErrInvalidCredentials)
	case errors.Is(err, ErrUnauthenticated):
		return connect.NewError(connect.CodeUnauthenticated, ErrUnauthenticated)
	case errors.Is(err, models.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, errors.New("user not found"))
	}

	log.Error().Err(err).Str("procedure", procedure).Msg("auth request failed")
	return connect.NewError(connect.CodeInternal, errors.New("internal error"))
}

func userToAPI(u *models.User) *scoreboardv1.User {
	return &scoreboardv1.User{
		ID:        u.ID.String(),
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

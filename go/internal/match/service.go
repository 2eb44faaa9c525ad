package match

import (
	"context"
	"errors"

	"connectrpc.com/connect"
	"github.com/rs/zerolog/log"

	scoreboardv1 "github.com/mcdev12/scoreboard/go/internal/api/scoreboardv1"
	"github.com/mcdev12/scoreboard/go/internal/cas"
	"github.com/mcdev12/scoreboard/go/internal/models"
)

// MatchApp defines what the service layer needs from the match application
type MatchApp interface {
	CreateMatch(ctx context.Context, req CreateMatchRequest) (*models.Match, error)
	GetMatch(ctx context.Context, id string) (*models.Match, error)
	UpdateScore(ctx context.Context, req UpdateScoreRequest) (*models.Match, error)
	SwapPlayers(ctx context.Context, req SwapPlayersRequest) (*models.Match, error)
	SetServer(ctx context.Context, req SetServerRequest) (*models.Match, error)
	UpdateTeamName(ctx context.Context, req UpdateTeamNameRequest) (*models.Match, error)
	UpdatePlayerNames(ctx context.Context, req UpdatePlayerNamesRequest) (*models.Match, error)
}

// Service implements the MatchService connect interface
type Service struct {
	app MatchApp
}

// NewService creates a new match service
func NewService(app MatchApp) *Service {
	return &Service{app: app}
}

var _ scoreboardv1.MatchServiceHandler = (*Service)(nil)

func (s *Service) CreateMatch(ctx context.Context, req *connect.Request[scoreboardv1.CreateMatchRequest]) (*connect.Response[scoreboardv1.CreateMatchResponse], error) {
	m, err := s.app.CreateMatch(ctx, CreateMatchRequest{
		TeamNameA:     req.Msg.TeamNameA,
		TeamNameB:     req.Msg.TeamNameB,
		PlayerAFirst:  req.Msg.PlayerAFirst,
		PlayerASecond: req.Msg.PlayerASecond,
		PlayerBFirst:  req.Msg.PlayerBFirst,
		PlayerBSecond: req.Msg.PlayerBSecond,
		SwitchEnds:    req.Msg.SwitchEnds,
	})
	if err != nil {
		return nil, toConnectError(req.Spec().Procedure, err)
	}
	return connect.NewResponse(&scoreboardv1.CreateMatchResponse{Match: matchToAPI(m)}), nil
}

func (s *Service) GetMatch(ctx context.Context, req *connect.Request[scoreboardv1.GetMatchRequest]) (*connect.Response[scoreboardv1.GetMatchResponse], error) {
	m, err := s.app.GetMatch(ctx, req.Msg.ID)
	if err != nil {
		return nil, toConnectError(req.Spec().Procedure, err)
	}
	return connect.NewResponse(&scoreboardv1.GetMatchResponse{Match: matchToAPI(m)}), nil
}

func (s *Service) UpdateScore(ctx context.Context, req *connect.Request[scoreboardv1.UpdateScoreRequest]) (*connect.Response[scoreboardv1.UpdateScoreResponse], error) {
	m, err := s.app.UpdateScore(ctx, UpdateScoreRequest{
		MatchID: req.Msg.MatchID,
		Set:     models.SetKey(req.Msg.Set),
		Side:    models.Side(req.Msg.Side),
		Delta:   int(req.Msg.Delta),
	})
	if err != nil {
		return nil, toConnectError(req.Spec().Procedure, err)
	}
	return connect.NewResponse(&scoreboardv1.UpdateScoreResponse{Match: matchToAPI(m)}), nil
}

func (s *Service) SwapPlayers(ctx context.Context, req *connect.Request[scoreboardv1.SwapPlayersRequest]) (*connect.Response[scoreboardv1.SwapPlayersResponse], error) {
	m, err := s.app.SwapPlayers(ctx, SwapPlayersRequest{
		MatchID: req.Msg.MatchID,
		Set:     models.SetKey(req.Msg.Set),
		Side:    models.Side(req.Msg.Side),
	})
	if err != nil {
		return nil, toConnectError(req.Spec().Procedure, err)
	}
	return connect.NewResponse(&scoreboardv1.SwapPlayersResponse{Match: matchToAPI(m)}), nil
}

func (s *Service) SetServer(ctx context.Context, req *connect.Request[scoreboardv1.SetServerRequest]) (*connect.Response[scoreboardv1.SetServerResponse], error) {
	m, err := s.app.SetServer(ctx, SetServerRequest{
		MatchID: req.Msg.MatchID,
		Set:     models.SetKey(req.Msg.Set),
		Side:    models.Side(req.Msg.Side),
		Slot:    models.Slot(req.Msg.Slot),
	})
	if err != nil {
		return nil, toConnectError(req.Spec().Procedure, err)
	}
	return connect.NewResponse(&scoreboardv1.SetServerResponse{Match: matchToAPI(m)}), nil
}

func (s *Service) UpdateTeamName(ctx context.Context, req *connect.Request[scoreboardv1.UpdateTeamNameRequest]) (*connect.Response[scoreboardv1.UpdateTeamNameResponse], error) {
	m, err := s.app.UpdateTeamName(ctx, UpdateTeamNameRequest{
		MatchID: req.Msg.MatchID,
		Set:     models.SetKey(req.Msg.Set),
		Side:    models.Side(req.Msg.Side),
		Name:    req.Msg.Name,
	})
	if err != nil {
		return nil, toConnectError(req.Spec().Procedure, err)
	}
	return connect.NewResponse(&scoreboardv1.UpdateTeamNameResponse{Match: matchToAPI(m)}), nil
}

func (s *Service) UpdatePlayerNames(ctx context.Context, req *connect.Request[scoreboardv1.UpdatePlayerNamesRequest]) (*connect.Response[scoreboardv1.UpdatePlayerNamesResponse], error) {
	m, err := s.app.UpdatePlayerNames(ctx, UpdatePlayerNamesRequest{
		MatchID: req.Msg.MatchID,
		Set:     models.SetKey(req.Msg.Set),
		Side:    models.Side(req.Msg.Side),
		First:   req.Msg.First,
		Second:  req.Msg.Second,
	})
	if err != nil {
		return nil, toConnectError(req.Spec().Procedure, err)
	}
	return connect.NewResponse(&scoreboardv1.UpdatePlayerNamesResponse{Match: matchToAPI(m)}), nil
}

// toConnectError maps app errors onto connect codes. Unexpected errors are
// logged and reported without detail.
func toConnectError(procedure string, err error) error {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		return connect.NewError(connect.CodeInvalidArgument, ve)
	case errors.Is(err, ErrInvalidDelta):
		return connect.NewError(connect.CodeInvalidArgument, ErrInvalidDelta)
	case errors.Is(err, models.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, errors.New("match not found"))
	case errors.Is(err, ErrScoreUnderflow):
		return connect.NewError(connect.CodeFailedPrecondition, ErrScoreUnderflow)
	case errors.Is(err, cas.ErrExhausted):
		return connect.NewError(connect.CodeAborted, errors.New("match is busy, try again"))
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	}

	log.Error().Err(err).Str("procedure", procedure).Msg("match request failed")
	return connect.NewError(connect.CodeInternal, errors.New("internal error"))
}

func matchToAPI(m *models.Match) *scoreboardv1.Match {
	return &scoreboardv1.Match{
		ID:        m.ID,
		Version:   m.Version,
		Sets:      m.Sets,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

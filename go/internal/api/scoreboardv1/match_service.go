package scoreboardv1

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
)

// MatchServiceName is the fully-qualified name of the MatchService service.
const MatchServiceName = "scoreboard.v1.MatchService"

// Procedure paths of MatchService.
const (
	MatchServiceCreateMatchProcedure       = "/scoreboard.v1.MatchService/CreateMatch"
	MatchServiceGetMatchProcedure          = "/scoreboard.v1.MatchService/GetMatch"
	MatchServiceUpdateScoreProcedure       = "/scoreboard.v1.MatchService/UpdateScore"
	MatchServiceSwapPlayersProcedure       = "/scoreboard.v1.MatchService/SwapPlayers"
	MatchServiceSetServerProcedure         = "/scoreboard.v1.MatchService/SetServer"
	MatchServiceUpdateTeamNameProcedure    = "/scoreboard.v1.MatchService/UpdateTeamName"
	MatchServiceUpdatePlayerNamesProcedure = "/scoreboard.v1.MatchService/UpdatePlayerNames"
)

// MatchServiceClient is a client for the scoreboard.v1.MatchService service.
type MatchServiceClient interface {
	CreateMatch(context.Context, *connect.Request[CreateMatchRequest]) (*connect.Response[CreateMatchResponse], error)
	GetMatch(context.Context, *connect.Request[GetMatchRequest]) (*connect.Response[GetMatchResponse], error)
	UpdateScore(context.Context, *connect.Request[UpdateScoreRequest]) (*connect.Response[UpdateScoreResponse], error)
	SwapPlayers(context.Context, *connect.Request[SwapPlayersRequest]) (*connect.Response[SwapPlayersResponse], error)
	SetServer(context.Context, *connect.Request[SetServerRequest]) (*connect.Response[SetServerResponse], error)
	UpdateTeamName(context.Context, *connect.Request[UpdateTeamNameRequest]) (*connect.Response[UpdateTeamNameResponse], error)
	UpdatePlayerNames(context.Context, *connect.Request[UpdatePlayerNamesRequest]) (*connect.Response[UpdatePlayerNamesResponse], error)
}

// NewMatchServiceClient constructs a client for the scoreboard.v1.MatchService service. baseURL is
// the scheme and host, with an optional path prefix.
func NewMatchServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) MatchServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(JSONCodec{})}, opts...)
	return &matchServiceClient{
		createMatch:       connect.NewClient[CreateMatchRequest, CreateMatchResponse](httpClient, baseURL+MatchServiceCreateMatchProcedure, opts...),
		getMatch:          connect.NewClient[GetMatchRequest, GetMatchResponse](httpClient, baseURL+MatchServiceGetMatchProcedure, opts...),
		updateScore:       connect.NewClient[UpdateScoreRequest, UpdateScoreResponse](httpClient, baseURL+MatchServiceUpdateScoreProcedure, opts...),
		swapPlayers:       connect.NewClient[SwapPlayersRequest, SwapPlayersResponse](httpClient, baseURL+MatchServiceSwapPlayersProcedure, opts...),
		setServer:         connect.NewClient[SetServerRequest, SetServerResponse](httpClient, baseURL+MatchServiceSetServerProcedure, opts...),
		updateTeamName:    connect.NewClient[UpdateTeamNameRequest, UpdateTeamNameResponse](httpClient, baseURL+MatchServiceUpdateTeamNameProcedure, opts...),
		updatePlayerNames: connect.NewClient[UpdatePlayerNamesRequest, UpdatePlayerNamesResponse](httpClient, baseURL+MatchServiceUpdatePlayerNamesProcedure, opts...),
	}
}

type matchServiceClient struct {
	createMatch       *connect.Client[CreateMatchRequest, CreateMatchResponse]
	getMatch          *connect.Client[GetMatchRequest, GetMatchResponse]
	updateScore       *connect.Client[UpdateScoreRequest, UpdateScoreResponse]
	swapPlayers       *connect.Client[SwapPlayersRequest, SwapPlayersResponse]
	setServer         *connect.Client[SetServerRequest, SetServerResponse]
	updateTeamName    *connect.Client[UpdateTeamNameRequest, UpdateTeamNameResponse]
	updatePlayerNames *connect.Client[UpdatePlayerNamesRequest, UpdatePlayerNamesResponse]
}

func (c *matchServiceClient) CreateMatch(ctx context.Context, req *connect.Request[CreateMatchRequest]) (*connect.Response[CreateMatchResponse], error) {
	return c.createMatch.CallUnary(ctx, req)
}

func (c *matchServiceClient) GetMatch(ctx context.Context, req *connect.Request[GetMatchRequest]) (*connect.Response[GetMatchResponse], error) {
	return c.getMatch.CallUnary(ctx, req)
}

func (c *matchServiceClient) UpdateScore(ctx context.Context, req *connect.Request[UpdateScoreRequest]) (*connect.Response[UpdateScoreResponse], error) {
	return c.updateScore.CallUnary(ctx, req)
}

func (c *matchServiceClient) SwapPlayers(ctx context.Context, req *connect.Request[SwapPlayersRequest]) (*connect.Response[SwapPlayersResponse], error) {
	return c.swapPlayers.CallUnary(ctx, req)
}

func (c *matchServiceClient) SetServer(ctx context.Context, req *connect.Request[SetServerRequest]) (*connect.Response[SetServerResponse], error) {
	return c.setServer.CallUnary(ctx, req)
}

func (c *matchServiceClient) UpdateTeamName(ctx context.Context, req *connect.Request[UpdateTeamNameRequest]) (*connect.Response[UpdateTeamNameResponse], error) {
	return c.updateTeamName.CallUnary(ctx, req)
}

func (c *matchServiceClient) UpdatePlayerNames(ctx context.Context, req *connect.Request[UpdatePlayerNamesRequest]) (*connect.Response[UpdatePlayerNamesResponse], error) {
	return c.updatePlayerNames.CallUnary(ctx, req)
}

// MatchServiceHandler is implemented by servers of the scoreboard.v1.MatchService service.
type MatchServiceHandler interface {
	CreateMatch(context.Context, *connect.Request[CreateMatchRequest]) (*connect.Response[CreateMatchResponse], error)
	GetMatch(context.Context, *connect.Request[GetMatchRequest]) (*connect.Response[GetMatchResponse], error)
	UpdateScore(context.Context, *connect.Request[UpdateScoreRequest]) (*connect.Response[UpdateScoreResponse], error)
	SwapPlayers(context.Context, *connect.Request[SwapPlayersRequest]) (*connect.Response[SwapPlayersResponse], error)
	SetServer(context.Context, *connect.Request[SetServerRequest]) (*connect.Response[SetServerResponse], error)
	UpdateTeamName(context.Context, *connect.Request[UpdateTeamNameRequest]) (*connect.Response[UpdateTeamNameResponse], error)
	UpdatePlayerNames(context.Context, *connect.Request[UpdatePlayerNamesRequest]) (*connect.Response[UpdatePlayerNamesResponse], error)
}

// NewMatchServiceHandler builds an HTTP handler from the service implementation.
// It returns the path on which to mount the handler and the handler itself.
func NewMatchServiceHandler(svc MatchServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(JSONCodec{})}, opts...)
	createMatchHandler := connect.NewUnaryHandler(MatchServiceCreateMatchProcedure, svc.CreateMatch, opts...)
	getMatchHandler := connect.NewUnaryHandler(MatchServiceGetMatchProcedure, svc.GetMatch, opts...)
	updateScoreHandler := connect.NewUnaryHandler(MatchServiceUpdateScoreProcedure, svc.UpdateScore, opts...)
	swapPlayersHandler := connect.NewUnaryHandler(MatchServiceSwapPlayersProcedure, svc.SwapPlayers, opts...)
	setServerHandler := connect.NewUnaryHandler(MatchServiceSetServerProcedure, svc.SetServer, opts...)
	updateTeamNameHandler := connect.NewUnaryHandler(MatchServiceUpdateTeamNameProcedure, svc.UpdateTeamName, opts...)
	updatePlayerNamesHandler := connect.NewUnaryHandler(MatchServiceUpdatePlayerNamesProcedure, svc.UpdatePlayerNames, opts...)
	return "/" + MatchServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case MatchServiceCreateMatchProcedure:
			createMatchHandler.ServeHTTP(w, r)
		case MatchServiceGetMatchProcedure:
			getMatchHandler.ServeHTTP(w, r)
		case MatchServiceUpdateScoreProcedure:
			updateScoreHandler.ServeHTTP(w, r)
		case MatchServiceSwapPlayersProcedure:
			swapPlayersHandler.ServeHTTP(w, r)
		case MatchServiceSetServerProcedure:
			setServerHandler.ServeHTTP(w, r)
		case MatchServiceUpdateTeamNameProcedure:
			updateTeamNameHandler.ServeHTTP(w, r)
		case MatchServiceUpdatePlayerNamesProcedure:
			updatePlayerNamesHandler.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

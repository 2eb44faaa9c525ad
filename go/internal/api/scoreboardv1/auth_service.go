package scoreboardv1

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
)

// AuthServiceName is the fully-qualified name of the AuthService service.
const AuthServiceName = "scoreboard.v1.AuthService"

// Procedure paths of AuthService.
const (
	AuthServiceLoginProcedure          = "/scoreboard.v1.AuthService/Login"
	AuthServiceLogoutProcedure         = "/scoreboard.v1.AuthService/Logout"
	AuthServiceWhoAmIProcedure         = "/scoreboard.v1.AuthService/WhoAmI"
	AuthServiceUpdatePasswordProcedure = "/scoreboard.v1.AuthService/UpdatePassword"
)

// AuthServiceClient is a client for the scoreboard.v1.AuthService service.
type AuthServiceClient interface {
	Login(context.Context, *connect.Request[LoginRequest]) (*connect.Response[LoginResponse], error)
	Logout(context.Context, *connect.Request[LogoutRequest]) (*connect.Response[LogoutResponse], error)
	WhoAmI(context.Context, *connect.Request[WhoAmIRequest]) (*connect.Response[WhoAmIResponse], error)
	UpdatePassword(context.Context, *connect.Request[UpdatePasswordRequest]) (*connect.Response[UpdatePasswordResponse], error)
}

// NewAuthServiceClient constructs a client for the scoreboard.v1.AuthService service. baseURL is
// the scheme and host, with an optional path prefix.
func NewAuthServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) AuthServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(JSONCodec{})}, opts...)
	return &authServiceClient{
		login:          connect.NewClient[LoginRequest, LoginResponse](httpClient, baseURL+AuthServiceLoginProcedure, opts...),
		logout:         connect.NewClient[LogoutRequest, LogoutResponse](httpClient, baseURL+AuthServiceLogoutProcedure, opts...),
		whoAmI:         connect.NewClient[WhoAmIRequest, WhoAmIResponse](httpClient, baseURL+AuthServiceWhoAmIProcedure, opts...),
		updatePassword: connect.NewClient[UpdatePasswordRequest, UpdatePasswordResponse](httpClient, baseURL+AuthServiceUpdatePasswordProcedure, opts...),
	}
}

type authServiceClient struct {
	login          *connect.Client[LoginRequest, LoginResponse]
	logout         *connect.Client[LogoutRequest, LogoutResponse]
	whoAmI         *connect.Client[WhoAmIRequest, WhoAmIResponse]
	updatePassword *connect.Client[UpdatePasswordRequest, UpdatePasswordResponse]
}

func (c *authServiceClient) Login(ctx context.Context, req *connect.Request[LoginRequest]) (*connect.Response[LoginResponse], error) {
	return c.login.CallUnary(ctx, req)
}

func (c *authServiceClient) Logout(ctx context.Context, req *connect.Request[LogoutRequest]) (*connect.Response[LogoutResponse], error) {
	return c.logout.CallUnary(ctx, req)
}

func (c *authServiceClient) WhoAmI(ctx context.Context, req *connect.Request[WhoAmIRequest]) (*connect.Response[WhoAmIResponse], error) {
	return c.whoAmI.CallUnary(ctx, req)
}

func (c *authServiceClient) UpdatePassword(ctx context.Context, req *connect.Request[UpdatePasswordRequest]) (*connect.Response[UpdatePasswordResponse], error) {
	return c.updatePassword.CallUnary(ctx, req)
}

// AuthServiceHandler is implemented by servers of the scoreboard.v1.AuthService service.
type AuthServiceHandler interface {
	Login(context.Context, *connect.Request[LoginRequest]) (*connect.Response[LoginResponse], error)
	Logout(context.Context, *connect.Request[LogoutRequest]) (*connect.Response[LogoutResponse], error)
	WhoAmI(context.Context, *connect.Request[WhoAmIRequest]) (*connect.Response[WhoAmIResponse], error)
	UpdatePassword(context.Context, *connect.Request[UpdatePasswordRequest]) (*connect.Response[UpdatePasswordResponse], error)
}

// NewAuthServiceHandler builds an HTTP handler from the service implementation.
// It returns the path on which to mount the handler and the handler itself.
func NewAuthServiceHandler(svc AuthServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(JSONCodec{})}, opts...)
	loginHandler := connect.NewUnaryHandler(AuthServiceLoginProcedure, svc.Login, opts...)
	logoutHandler := connect.NewUnaryHandler(AuthServiceLogoutProcedure, svc.Logout, opts...)
	whoAmIHandler := connect.NewUnaryHandler(AuthServiceWhoAmIProcedure, svc.WhoAmI, opts...)
	updatePasswordHandler := connect.NewUnaryHandler(AuthServiceUpdatePasswordProcedure, svc.UpdatePassword, opts...)
	return "/" + AuthServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case AuthServiceLoginProcedure:
			loginHandler.ServeHTTP(w, r)
		case AuthServiceLogoutProcedure:
			logoutHandler.ServeHTTP(w, r)
		case AuthServiceWhoAmIProcedure:
			whoAmIHandler.ServeHTTP(w, r)
		case AuthServiceUpdatePasswordProcedure:
			updatePasswordHandler.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}
